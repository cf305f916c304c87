package models

import (
	"context"
	"encoding/json"
	"time"

	"github.com/despasys/despasys_backend/config"
	"github.com/despasys/despasys_backend/utils"
	"gorm.io/gorm"
)

const (
	HistoryActionCreate = "CREATE"
	HistoryActionUpdate = "UPDATE"
	HistoryActionDelete = "DELETE"
)

type History struct {
	ID            int       `gorm:"primary_key" json:"id"`
	TenantId      string    `gorm:"size:36;index;not null" json:"tenant_id"`
	ActionType    string    `gorm:"size:10;not null" json:"action_type"`
	Before        string    `gorm:"type:text" json:"before"`
	After         string    `gorm:"type:text" json:"after"`
	Description   string    `gorm:"type:text;not null" json:"description"`
	ReferenceID   int       `gorm:"index" json:"reference_id"`
	ReferenceType string    `gorm:"size:64;index" json:"reference_type"`
	UserId        int       `gorm:"index;not null" json:"user_id"`
	UserName      string    `gorm:"size:100" json:"user_name"`
	CreatedAt     time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// createHistory writes one audit row inside tx.
// The tenant and the acting user come from the statement's context.
func createHistory(tx *gorm.DB,
	actionType string,
	referenceId int,
	referenceType string,
	before interface{},
	after interface{},
	description string) error {

	ctx := tx.Statement.Context
	tenantId, err := utils.RequireTenantId(ctx)
	if err != nil {
		return err
	}
	userId, _ := utils.GetUserIdFromContext(ctx)
	userName, _ := utils.GetUserNameFromContext(ctx)

	history := History{
		TenantId:      tenantId,
		ActionType:    actionType,
		Before:        marshalHistory(before),
		After:         marshalHistory(after),
		Description:   description,
		ReferenceID:   referenceId,
		ReferenceType: referenceType,
		UserId:        userId,
		UserName:      userName,
	}
	return tx.Create(&history).Error
}

func marshalHistory(v interface{}) string {
	if v == nil {
		return ""
	}
	b, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(b)
}

// ListHistory returns the audit trail of one record, newest first.
func ListHistory(ctx context.Context, referenceType string, referenceId int) ([]*History, error) {
	tenantId, err := utils.RequireTenantId(ctx)
	if err != nil {
		return nil, err
	}
	var results []*History
	err = utils.RetryRead(ctx, func() error {
		results = nil
		return config.GetDB().WithContext(ctx).
			Where("tenant_id = ? AND reference_type = ? AND reference_id = ?", tenantId, referenceType, referenceId).
			Order("id desc").
			Find(&results).Error
	})
	return results, err
}
