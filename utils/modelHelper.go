package utils

import (
	"context"
	"errors"

	"github.com/despasys/despasys_backend/config"
	"gorm.io/gorm"
)

/* DB fetching */

// fetch model from db
// (tenantId is used in query's WHERE, may return RecordNotFound)
func FetchModel[T any](ctx context.Context, tenantId string, id int, associations ...string) (*T, error) {
	var result T
	err := RetryRead(ctx, func() error {
		dbCtx := config.GetDB().WithContext(ctx).Where("tenant_id = ?", tenantId)
		for _, field := range associations {
			dbCtx = dbCtx.Preload(field)
		}
		return dbCtx.First(&result, id).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrorRecordNotFound
		}
		return nil, err
	}
	return &result, nil
}

// fetch all models from db
// (tenantId is used in query's WHERE)
func FetchAllModels[T any](ctx context.Context, tenantId string, order string, associations ...string) ([]*T, error) {
	var results []*T
	err := RetryRead(ctx, func() error {
		results = nil
		dbCtx := config.GetDB().WithContext(ctx).Where("tenant_id = ?", tenantId)
		for _, field := range associations {
			dbCtx = dbCtx.Preload(field)
		}
		if order != "" {
			dbCtx = dbCtx.Order(order)
		}
		return dbCtx.Find(&results).Error
	})
	if err != nil {
		return nil, err
	}
	return results, nil
}

// FetchModelsByIds loads rows of one tenant by id, in no particular order.
func FetchModelsByIds[T any](ctx context.Context, tenantId string, ids []int) ([]*T, error) {
	var results []*T
	if len(ids) == 0 {
		return results, nil
	}
	err := RetryRead(ctx, func() error {
		results = nil
		return config.GetDB().WithContext(ctx).
			Where("tenant_id = ? AND id IN ?", tenantId, UniqueSlice(ids)).
			Find(&results).Error
	})
	return results, err
}
