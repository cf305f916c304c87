package models

import "github.com/despasys/despasys_backend/utils"

type Identifier interface {
	GetId() int
}

// interface for dataloader result
type Data interface {
	Identifier
	GetDefault(int) Data
}

// interface for one-to-many dataloader results
type RelatedData interface {
	GetReferenceId() int
}

func (c Customer) GetId() int {
	return c.ID
}

// GetDefault is what a loader returns for an id that did not resolve in the tenant.
func (c Customer) GetDefault(id int) Data {
	return Customer{
		ID:     id,
		Status: RecordStatusInactive,
	}
}

func (v Vehicle) GetId() int {
	return v.ID
}

func (v Vehicle) GetDefault(id int) Data {
	return Vehicle{
		ID:     id,
		Status: RecordStatusInactive,
	}
}

func (u User) GetId() int {
	return u.ID
}

func (u User) GetDefault(id int) Data {
	return User{
		ID:       id,
		Role:     UserRoleEmployee,
		IsActive: utils.NewFalse(),
	}
}

func (d ProcessDocument) GetReferenceId() int {
	return d.ProcessId
}
