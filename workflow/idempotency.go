package workflow

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/despasys/despasys_backend/config"
	"github.com/despasys/despasys_backend/models"
	"github.com/despasys/despasys_backend/utils"
	"gorm.io/gorm"
)

var ErrIdempotencyInProgress = errors.New("idempotency in progress")

// staleAfter is how long a STARTED key blocks retries before it is taken over.
const staleAfter = 5 * time.Minute

const maxIdempotencyKeyLength = 255

// BeginIdempotency inserts STARTED. If SUCCEEDED exists it returns the stored resource id
// and replay=true, meaning "answer with that resource and skip the write".
func BeginIdempotency(tx *gorm.DB, tenantId, handlerName, key string) (resourceId int, replay bool, err error) {
	row := models.IdempotencyKey{
		TenantId:    tenantId,
		HandlerName: handlerName,
		Key:         key,
		Status:      models.IdempotencyStatusStarted,
	}
	if err := tx.Create(&row).Error; err == nil {
		return 0, false, nil
	} else if !utils.IsDuplicateKeyErr(err) {
		return 0, false, err
	}

	var existing models.IdempotencyKey
	if err := tx.Where("tenant_id = ? AND handler_name = ? AND idem_key = ?", tenantId, handlerName, key).
		First(&existing).Error; err != nil {
		return 0, false, err
	}

	if existing.Status == models.IdempotencyStatusSucceeded {
		return existing.ResourceId, true, nil
	}
	where, args, ok := takeoverCondition(existing, time.Now())
	if !ok {
		// another request with the same key is still running
		return 0, false, ErrIdempotencyInProgress
	}
	res := tx.Model(&models.IdempotencyKey{}).
		Where(where, args...).
		Updates(map[string]interface{}{"status": models.IdempotencyStatusStarted, "last_error": nil})
	if res.Error != nil {
		return 0, false, res.Error
	}
	// a concurrent retry got there first
	if res.RowsAffected != 1 {
		return 0, false, ErrIdempotencyInProgress
	}
	return 0, false, nil
}

// takeoverCondition guards the UPDATE that moves an existing key back to STARTED;
// only one of several concurrent retries matches it. ok is false while a fresh
// STARTED run is live.
func takeoverCondition(existing models.IdempotencyKey, now time.Time) (where string, args []interface{}, ok bool) {
	switch existing.Status {
	case models.IdempotencyStatusFailed:
		return "id = ? AND status = ?", []interface{}{existing.ID, models.IdempotencyStatusFailed}, true
	case models.IdempotencyStatusStarted:
		if now.Sub(existing.UpdatedAt) < staleAfter {
			return "", nil, false
		}
		return "id = ? AND status = ? AND updated_at < ?", []interface{}{existing.ID, models.IdempotencyStatusStarted, now.Add(-staleAfter)}, true
	}
	return "", nil, false
}

func MarkIdempotencySucceeded(tx *gorm.DB, tenantId, handlerName, key string, resourceId int) error {
	return tx.Model(&models.IdempotencyKey{}).
		Where("tenant_id = ? AND handler_name = ? AND idem_key = ?", tenantId, handlerName, key).
		Updates(map[string]interface{}{"status": models.IdempotencyStatusSucceeded, "resource_id": resourceId, "last_error": nil}).Error
}

func MarkIdempotencyFailed(tx *gorm.DB, tenantId, handlerName, key string, err error) error {
	msg := ""
	if err != nil {
		msg = err.Error()
	}
	return tx.Model(&models.IdempotencyKey{}).
		Where("tenant_id = ? AND handler_name = ? AND idem_key = ?", tenantId, handlerName, key).
		Updates(map[string]interface{}{"status": models.IdempotencyStatusFailed, "last_error": &msg}).Error
}

// RunIdempotent runs create once per (tenant, handler, key). A blank key runs create unconditionally.
// On replay it returns the id stored by the first successful run with replay=true.
func RunIdempotent(ctx context.Context, handlerName, key string, create func(ctx context.Context) (int, error)) (resourceId int, replay bool, err error) {
	key = strings.TrimSpace(key)
	if key == "" {
		id, err := create(ctx)
		return id, false, err
	}
	if len(key) > maxIdempotencyKeyLength {
		return 0, false, utils.NewValidationError("Idempotency-Key", "idempotency key is too long")
	}
	tenantId, err := utils.RequireTenantId(ctx)
	if err != nil {
		return 0, false, err
	}
	db := config.GetDB().WithContext(ctx)

	storedId, replay, err := BeginIdempotency(db, tenantId, handlerName, key)
	if err != nil {
		return 0, false, err
	}
	if replay {
		return storedId, true, nil
	}

	id, createErr := create(ctx)
	if createErr != nil {
		if markErr := MarkIdempotencyFailed(db, tenantId, handlerName, key, createErr); markErr != nil {
			config.LogError(config.GetLogger(), "Idempotency", "RunIdempotent", "mark failed", key, markErr)
		}
		return 0, false, createErr
	}
	if err := MarkIdempotencySucceeded(db, tenantId, handlerName, key, id); err != nil {
		config.LogError(config.GetLogger(), "Idempotency", "RunIdempotent", "mark succeeded", key, err)
	}
	return id, false, nil
}
