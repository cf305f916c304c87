package models

import (
	"context"

	"github.com/despasys/despasys_backend/config"
	"github.com/despasys/despasys_backend/utils"
)

// GetResource reads redis first, then the db, always inside the caller's tenant.
// Cache keys carry the tenant id, so a cached row is never visible to another tenant.
// (may return RecordNotFound error)
func GetResource[T any](ctx context.Context, id int, associations ...string) (*T, error) {
	tenantId, err := utils.RequireTenantId(ctx)
	if err != nil {
		return nil, err
	}
	result, err := utils.RetrieveRedis[T](tenantId, id)
	if err != nil {
		config.LogError(config.GetLogger(), "Generics", "GetResource", "cache read failed", utils.GetTypeName[T](), err)
		result = nil
	}
	if result != nil {
		return result, nil
	}
	result, err = utils.FetchModel[T](ctx, tenantId, id, associations...)
	if err != nil {
		return nil, err
	}
	if err := utils.StoreRedis[T](result, tenantId, id); err != nil {
		config.LogError(config.GetLogger(), "Generics", "GetResource", "cache write failed", utils.GetTypeName[T](), err)
	}
	return result, nil
}

// forgetResource drops the cached copy after a write.
func forgetResource[T any](tenantId string, id int) {
	if err := utils.RemoveRedis[T](tenantId, id); err != nil {
		config.LogError(config.GetLogger(), "Generics", "forgetResource", "cache delete failed", utils.GetTypeName[T](), err)
	}
}
