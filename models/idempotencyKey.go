package models

import "time"

type IdempotencyStatus string

const (
	IdempotencyStatusStarted   IdempotencyStatus = "STARTED"
	IdempotencyStatusSucceeded IdempotencyStatus = "SUCCEEDED"
	IdempotencyStatusFailed    IdempotencyStatus = "FAILED"
)

// IdempotencyKey makes client retries of a create safe.
// Unique constraint: (tenant_id, handler_name, key).
type IdempotencyKey struct {
	ID          int               `gorm:"primary_key" json:"id"`
	TenantId    string            `gorm:"size:36;not null;index:uniq_idem,unique" json:"tenant_id"`
	HandlerName string            `gorm:"size:100;not null;index:uniq_idem,unique" json:"handler_name"`
	Key         string            `gorm:"column:idem_key;size:255;not null;index:uniq_idem,unique" json:"key"`
	Status      IdempotencyStatus `gorm:"size:20;not null;index" json:"status"`
	ResourceId  int               `gorm:"not null;default:0" json:"resource_id"`
	LastError   *string           `gorm:"type:text" json:"last_error"`
	CreatedAt   time.Time         `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time         `gorm:"autoUpdateTime" json:"updated_at"`
}
