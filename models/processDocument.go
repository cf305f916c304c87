package models

import (
	"context"
	"strings"
	"time"

	"github.com/despasys/despasys_backend/config"
	"github.com/despasys/despasys_backend/utils"
)

// ProcessDocument is a file uploaded to object storage and attached to a process.
type ProcessDocument struct {
	ID           int       `gorm:"primary_key" json:"id"`
	TenantId     string    `gorm:"size:36;not null;index" json:"tenant_id"`
	ProcessId    int       `gorm:"index;not null" json:"process_id"`
	Name         string    `gorm:"size:255;not null" json:"name"`
	ObjectKey    string    `gorm:"size:512;not null" json:"object_key"`
	Url          string    `gorm:"size:1024" json:"url"`
	ThumbnailUrl string    `gorm:"size:1024" json:"thumbnail_url,omitempty"`
	MimeType     string    `gorm:"size:120" json:"mime_type"`
	Size         int64     `json:"size"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"created_at"`
}

type NewProcessDocument struct {
	ProcessId    int
	Name         string
	ObjectKey    string
	Url          string
	ThumbnailUrl string
	MimeType     string
	Size         int64
}

// objectKeyBelongsTo reports whether the key lives under the tenant's prefix.
func objectKeyBelongsTo(tenantId string, objectKey string) bool {
	return strings.HasPrefix(objectKey, tenantId+"/")
}

func CreateProcessDocument(ctx context.Context, input *NewProcessDocument) (*ProcessDocument, error) {
	tenantId, err := utils.RequireTenantId(ctx)
	if err != nil {
		return nil, err
	}
	if err := utils.ValidateReference[Process](ctx, tenantId, "process_id", "process", input.ProcessId); err != nil {
		return nil, err
	}
	if !utils.IsSafeObjectKey(input.ObjectKey) || !objectKeyBelongsTo(tenantId, input.ObjectKey) {
		return nil, utils.NewValidationError("object_key", "invalid object key")
	}
	name := strings.TrimSpace(input.Name)
	if name == "" {
		name = input.ObjectKey[strings.LastIndex(input.ObjectKey, "/")+1:]
	}
	doc := ProcessDocument{
		TenantId:     tenantId,
		ProcessId:    input.ProcessId,
		Name:         name,
		ObjectKey:    input.ObjectKey,
		Url:          input.Url,
		ThumbnailUrl: input.ThumbnailUrl,
		MimeType:     input.MimeType,
		Size:         input.Size,
	}

	tx := config.GetDB().WithContext(ctx).Begin()
	if err := tx.Create(&doc).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := createHistory(tx, HistoryActionCreate, input.ProcessId, "processes", nil, doc, "Document attached: "+doc.Name); err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	return &doc, nil
}

func ListProcessDocuments(ctx context.Context, processId int) ([]*ProcessDocument, error) {
	tenantId, err := utils.RequireTenantId(ctx)
	if err != nil {
		return nil, err
	}
	var results []*ProcessDocument
	err = utils.RetryRead(ctx, func() error {
		results = nil
		return config.GetDB().WithContext(ctx).
			Where("tenant_id = ? AND process_id = ?", tenantId, processId).
			Order("created_at desc").Find(&results).Error
	})
	return results, err
}
