package models

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/despasys/despasys_backend/config"
	"github.com/despasys/despasys_backend/utils"
	"gorm.io/gorm"
)

type NotificationType string

const (
	NotificationInfo    NotificationType = "INFO"
	NotificationSuccess NotificationType = "SUCCESS"
	NotificationWarning NotificationType = "WARNING"
	NotificationError   NotificationType = "ERROR"
)

// Notification is an in-app message. TargetUser 0 reaches every user of the tenant.
type Notification struct {
	ID         int              `gorm:"primary_key" json:"id"`
	TenantId   string           `gorm:"size:36;not null;index" json:"tenant_id"`
	Title      string           `gorm:"size:150;not null" json:"title"`
	Message    string           `gorm:"type:text;not null" json:"message"`
	Type       NotificationType `gorm:"size:10;not null" json:"type"`
	TargetUser int              `gorm:"index;not null;default:0" json:"target_user,omitempty"`
	SentBy     int              `gorm:"not null" json:"sent_by"`
	Read       bool             `gorm:"column:is_read;not null;default:false" json:"read"`
	ReadAt     *time.Time       `json:"read_at"`
	CreatedAt  time.Time        `gorm:"autoCreateTime;index" json:"created_at"`
}

type NewNotification struct {
	Title      string           `json:"title"`
	Message    string           `json:"message"`
	Type       NotificationType `json:"type"`
	TargetUser int              `json:"target_user"`
}

type NotificationFilter struct {
	UnreadOnly bool `form:"unread"`
	Page
}

func (input *NewNotification) normalize() error {
	input.Title = strings.TrimSpace(input.Title)
	if input.Title == "" {
		return utils.RequiredField("title")
	}
	input.Message = strings.TrimSpace(input.Message)
	if input.Message == "" {
		return utils.RequiredField("message")
	}
	input.Type = NotificationType(strings.ToUpper(strings.TrimSpace(string(input.Type))))
	switch input.Type {
	case "":
		input.Type = NotificationInfo
	case NotificationInfo, NotificationSuccess, NotificationWarning, NotificationError:
	default:
		return utils.NewValidationError("type", fmt.Sprintf("invalid notification type %q", input.Type))
	}
	if input.TargetUser < 0 {
		return utils.NewValidationError("target_user", "invalid target user")
	}
	return nil
}

// CreateNotification stores the message for the caller's tenant. A target user
// must belong to the same tenant.
func CreateNotification(ctx context.Context, senderId int, input *NewNotification) (*Notification, error) {
	tenantId, err := utils.RequireTenantId(ctx)
	if err != nil {
		return nil, err
	}
	if err := input.normalize(); err != nil {
		return nil, err
	}
	if input.TargetUser != 0 {
		if err := utils.ValidateReference[User](ctx, tenantId, "target_user", "user", input.TargetUser); err != nil {
			return nil, err
		}
	}
	notification := Notification{
		TenantId:   tenantId,
		Title:      input.Title,
		Message:    input.Message,
		Type:       input.Type,
		TargetUser: input.TargetUser,
		SentBy:     senderId,
	}
	if err := config.GetDB().WithContext(ctx).Create(&notification).Error; err != nil {
		return nil, err
	}
	return &notification, nil
}

// ListNotifications returns the user's own messages plus tenant-wide ones, newest first.
func ListNotifications(ctx context.Context, userId int, filter NotificationFilter) ([]*Notification, PageInfo, error) {
	tenantId, err := utils.RequireTenantId(ctx)
	if err != nil {
		return nil, PageInfo{}, err
	}
	var (
		results []*Notification
		total   int64
	)
	err = utils.RetryRead(ctx, func() error {
		results = nil
		dbCtx := config.GetDB().WithContext(ctx).Model(&Notification{}).
			Where("tenant_id = ?", tenantId).
			Where("target_user = ? OR target_user = 0", userId)
		if filter.UnreadOnly {
			dbCtx = dbCtx.Where("is_read = ?", false)
		}
		if err := dbCtx.Count(&total).Error; err != nil {
			return err
		}
		return filter.Page.apply(dbCtx).Order("created_at desc").Order("id desc").Find(&results).Error
	})
	if err != nil {
		return nil, PageInfo{}, err
	}
	return results, NewPageInfo(filter.Page, total), nil
}

// MarkNotificationRead is idempotent. Another user's direct message reads as not found.
func MarkNotificationRead(ctx context.Context, userId int, id int) (*Notification, error) {
	tenantId, err := utils.RequireTenantId(ctx)
	if err != nil {
		return nil, err
	}
	var notification Notification
	err = utils.RetryRead(ctx, func() error {
		return config.GetDB().WithContext(ctx).
			Where("tenant_id = ? AND id = ?", tenantId, id).
			Where("target_user = ? OR target_user = 0", userId).
			Take(&notification).Error
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, utils.ErrorRecordNotFound
	}
	if err != nil {
		return nil, err
	}
	if notification.Read {
		return &notification, nil
	}
	now := time.Now()
	if err := config.GetDB().WithContext(ctx).Model(&notification).
		Updates(map[string]interface{}{"Read": true, "ReadAt": &now}).Error; err != nil {
		return nil, err
	}
	return &notification, nil
}
