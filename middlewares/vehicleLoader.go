package middlewares

import (
	"context"

	"github.com/despasys/despasys_backend/models"
	"github.com/graph-gophers/dataloader/v7"
	"gorm.io/gorm"
)

type vehicleReader struct {
	db *gorm.DB
}

func (r *vehicleReader) getVehicles(ctx context.Context, ids []int) []*dataloader.Result[*models.Vehicle] {
	scoped, err := tenantScope(ctx, r.db)
	if err != nil {
		return handleError[*models.Vehicle](len(ids), err)
	}
	var results []models.Vehicle
	if err := scoped.Where("id IN ?", ids).Find(&results).Error; err != nil {
		return handleError[*models.Vehicle](len(ids), err)
	}
	return generateLoaderResults(results, ids)
}

// GetVehicle returns an empty default vehicle for id 0 (a process without a vehicle).
func GetVehicle(ctx context.Context, id int) (*models.Vehicle, error) {
	loaders := For(ctx)
	return loaders.vehicleLoader.Load(ctx, id)()
}
