package models

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/despasys/despasys_backend/config"
	"github.com/despasys/despasys_backend/utils"
)

type CustomerType string

const (
	CustomerTypeIndividual CustomerType = "PESSOA_FISICA"
	CustomerTypeCompany    CustomerType = "PESSOA_JURIDICA"
)

type RecordStatus string

const (
	RecordStatusActive   RecordStatus = "ATIVO"
	RecordStatusInactive RecordStatus = "INATIVO"
)

const defaultCustomerState = "SP"

type Customer struct {
	ID           int          `gorm:"primary_key" json:"id"`
	TenantId     string       `gorm:"size:36;not null;index;index:uniq_customer_doc,unique" json:"tenant_id"`
	Name         string       `gorm:"size:150;not null" json:"name"`
	CpfCnpj      string       `gorm:"size:14;not null;index:uniq_customer_doc,unique" json:"cpf_cnpj"`
	CustomerType CustomerType `gorm:"size:20;not null" json:"customer_type"`
	Phone        string       `gorm:"size:20" json:"phone"`
	Email        string       `gorm:"size:100" json:"email"`
	City         string       `gorm:"size:100" json:"city"`
	State        string       `gorm:"size:2;not null;default:SP" json:"state"`
	Address      string       `gorm:"size:255" json:"address"`
	Status       RecordStatus `gorm:"size:10;not null;default:ATIVO;index" json:"status"`
	CreatedAt    time.Time    `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time    `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewCustomer struct {
	Name         string       `json:"name" binding:"required"`
	CpfCnpj      string       `json:"cpf_cnpj" binding:"required"`
	CustomerType CustomerType `json:"customer_type"`
	Phone        string       `json:"phone"`
	Email        string       `json:"email"`
	City         string       `json:"city"`
	State        string       `json:"state"`
	Address      string       `json:"address"`
}

type CustomerFilter struct {
	Search string       `form:"search"`
	Status RecordStatus `form:"status"`
	Page
}

// normalize cleans the document, phone and state in place and checks their shape.
func (input *NewCustomer) normalize() error {
	input.Name = strings.TrimSpace(input.Name)
	if input.Name == "" {
		return utils.RequiredField("name")
	}
	input.CpfCnpj = utils.OnlyDigits(input.CpfCnpj)
	if input.CpfCnpj == "" {
		return utils.RequiredField("cpf_cnpj")
	}
	if input.CustomerType == "" {
		if len(input.CpfCnpj) == 14 {
			input.CustomerType = CustomerTypeCompany
		} else {
			input.CustomerType = CustomerTypeIndividual
		}
	}
	switch input.CustomerType {
	case CustomerTypeIndividual:
		if !utils.IsValidCPF(input.CpfCnpj) {
			return utils.NewValidationError("cpf_cnpj", "invalid CPF")
		}
	case CustomerTypeCompany:
		if !utils.IsValidCNPJ(input.CpfCnpj) {
			return utils.NewValidationError("cpf_cnpj", "invalid CNPJ")
		}
	default:
		return utils.NewValidationError("customer_type", fmt.Sprintf("invalid customer type %q", input.CustomerType))
	}
	if input.Phone != "" {
		phone, err := utils.NormalizePhone(input.Phone)
		if err != nil {
			return utils.NewValidationError("phone", "invalid phone number")
		}
		input.Phone = phone
	}
	input.Email = strings.ToLower(strings.TrimSpace(input.Email))
	if input.Email != "" && !utils.IsValidEmail(input.Email) {
		return utils.NewValidationError("email", "invalid email address")
	}
	input.State = strings.ToUpper(strings.TrimSpace(input.State))
	if input.State == "" {
		input.State = defaultCustomerState
	}
	if len(input.State) != 2 {
		return utils.NewValidationError("state", "state must be a 2-letter UF")
	}
	return nil
}

func (input *NewCustomer) validate(ctx context.Context, tenantId string, id int) error {
	if id > 0 {
		if err := utils.ValidateResourceId[Customer](ctx, tenantId, id); err != nil {
			return err
		}
	}
	if err := input.normalize(); err != nil {
		return err
	}
	return utils.ValidateUnique[Customer](ctx, tenantId, "cpf_cnpj", input.CpfCnpj, id)
}

func CreateCustomer(ctx context.Context, input *NewCustomer) (*Customer, error) {
	tenantId, err := utils.RequireTenantId(ctx)
	if err != nil {
		return nil, err
	}
	if err := input.validate(ctx, tenantId, 0); err != nil {
		return nil, err
	}

	customer := Customer{
		TenantId:     tenantId,
		Name:         input.Name,
		CpfCnpj:      input.CpfCnpj,
		CustomerType: input.CustomerType,
		Phone:        input.Phone,
		Email:        input.Email,
		City:         input.City,
		State:        input.State,
		Address:      input.Address,
		Status:       RecordStatusActive,
	}

	tx := config.GetDB().WithContext(ctx).Begin()
	if err := tx.Create(&customer).Error; err != nil {
		tx.Rollback()
		if utils.IsDuplicateKeyErr(err) {
			return nil, utils.NewValidationError("cpf_cnpj", "duplicate cpf_cnpj")
		}
		return nil, err
	}
	if err := createHistory(tx, HistoryActionCreate, customer.ID, "customers", nil, customer, "Customer created: "+customer.Name); err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	return &customer, nil
}

func UpdateCustomer(ctx context.Context, id int, input *NewCustomer) (*Customer, error) {
	tenantId, err := utils.RequireTenantId(ctx)
	if err != nil {
		return nil, err
	}
	if err := input.validate(ctx, tenantId, id); err != nil {
		return nil, err
	}
	customer, err := utils.FetchModel[Customer](ctx, tenantId, id)
	if err != nil {
		return nil, err
	}
	before := *customer

	tx := config.GetDB().WithContext(ctx).Begin()
	err = tx.Model(customer).Updates(map[string]interface{}{
		"Name":         input.Name,
		"CpfCnpj":      input.CpfCnpj,
		"CustomerType": input.CustomerType,
		"Phone":        input.Phone,
		"Email":        input.Email,
		"City":         input.City,
		"State":        input.State,
		"Address":      input.Address,
	}).Error
	if err != nil {
		tx.Rollback()
		if utils.IsDuplicateKeyErr(err) {
			return nil, utils.NewValidationError("cpf_cnpj", "duplicate cpf_cnpj")
		}
		return nil, err
	}
	if err := createHistory(tx, HistoryActionUpdate, id, "customers", before, customer, "Customer updated: "+customer.Name); err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	forgetResource[Customer](tenantId, id)
	return customer, nil
}

// DeleteCustomer only deactivates: processes and invoices keep pointing at the row.
func DeleteCustomer(ctx context.Context, id int) (*Customer, error) {
	tenantId, err := utils.RequireTenantId(ctx)
	if err != nil {
		return nil, err
	}
	customer, err := utils.FetchModel[Customer](ctx, tenantId, id)
	if err != nil {
		return nil, err
	}
	tx := config.GetDB().WithContext(ctx).Begin()
	if err := tx.Model(customer).Update("Status", RecordStatusInactive).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := createHistory(tx, HistoryActionDelete, id, "customers", nil, nil, "Customer deactivated: "+customer.Name); err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	forgetResource[Customer](tenantId, id)
	return customer, nil
}

func GetCustomer(ctx context.Context, id int) (*Customer, error) {
	return GetResource[Customer](ctx, id)
}

// ListCustomers searches name, document and email. The default shows active customers only.
func ListCustomers(ctx context.Context, filter CustomerFilter) ([]*Customer, PageInfo, error) {
	tenantId, err := utils.RequireTenantId(ctx)
	if err != nil {
		return nil, PageInfo{}, err
	}
	status := filter.Status
	if status == "" {
		status = RecordStatusActive
	}
	var (
		results []*Customer
		total   int64
	)
	err = utils.RetryRead(ctx, func() error {
		results = nil
		dbCtx := config.GetDB().WithContext(ctx).Model(&Customer{}).
			Where("tenant_id = ? AND status = ?", tenantId, status)
		if s := strings.TrimSpace(filter.Search); s != "" {
			like := "%" + s + "%"
			dbCtx = dbCtx.Where("name LIKE ? OR cpf_cnpj LIKE ? OR email LIKE ?", like, like, like)
		}
		if err := dbCtx.Count(&total).Error; err != nil {
			return err
		}
		return filter.Page.apply(dbCtx).Order("name").Find(&results).Error
	})
	if err != nil {
		return nil, PageInfo{}, err
	}
	return results, NewPageInfo(filter.Page, total), nil
}
