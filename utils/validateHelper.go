package utils

import (
	"context"
	"errors"
	"reflect"

	"github.com/despasys/despasys_backend/config"
)

// check if id exists, using tenantId in WHERE, return RecordNotFound Error
func ValidateResourceId[T any](ctx context.Context, tenantId string, id interface{}) error {
	if tenantId == "" {
		return ErrUnauthorized
	}
	count, err := ResourceCountWhere[T](ctx, tenantId, "id = ?", id)
	if err != nil {
		return err
	}
	if count <= 0 {
		return ErrorRecordNotFound
	}

	return nil
}

// ValidateReference wraps ValidateResourceId for related ids and reports a miss as a field error.
func ValidateReference[T any](ctx context.Context, tenantId string, field string, entity string, id int) error {
	if id <= 0 {
		return RequiredField(field)
	}
	if err := ValidateResourceId[T](ctx, tenantId, id); err != nil {
		if errors.Is(err, ErrorRecordNotFound) {
			return ReferenceNotFound(field, entity)
		}
		return err
	}
	return nil
}

func ValidateUnique[T any](ctx context.Context, tenantId string, column string, value interface{}, exceptId interface{}) error {
	var count int64
	var err error
	if reflect.ValueOf(exceptId).IsZero() {
		count, err = ResourceCountWhere[T](ctx, tenantId, column+" = ?", value)
	} else {
		count, err = ResourceCountWhere[T](ctx, tenantId, column+" = ? AND NOT id = ?", value, exceptId)
	}

	if err != nil {
		return err
	}
	if count > 0 {
		return NewValidationError(column, "duplicate "+column)
	}
	return nil
}

// count records, using WHERE tenant_id = ? AND $condition
// tenant_id can be blank only for platform operations
func ResourceCountWhere[T any](ctx context.Context, tenantId string, condition string, value ...interface{}) (int64, error) {
	var model T
	var count int64
	err := RetryRead(ctx, func() error {
		dbCtx := config.GetDB().WithContext(ctx).Model(&model)
		if tenantId != "" {
			dbCtx = dbCtx.Where("tenant_id = ?", tenantId)
		}
		return dbCtx.Where(condition, value...).Count(&count).Error
	})
	if err != nil {
		return 0, err
	}
	return count, nil
}
