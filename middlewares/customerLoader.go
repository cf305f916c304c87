package middlewares

import (
	"context"

	"github.com/despasys/despasys_backend/models"
	"github.com/graph-gophers/dataloader/v7"
	"gorm.io/gorm"
)

type customerReader struct {
	db *gorm.DB
}

func (r *customerReader) getCustomers(ctx context.Context, ids []int) []*dataloader.Result[*models.Customer] {
	scoped, err := tenantScope(ctx, r.db)
	if err != nil {
		return handleError[*models.Customer](len(ids), err)
	}
	var results []models.Customer
	if err := scoped.Where("id IN ?", ids).Find(&results).Error; err != nil {
		return handleError[*models.Customer](len(ids), err)
	}
	return generateLoaderResults(results, ids)
}

func GetCustomer(ctx context.Context, id int) (*models.Customer, error) {
	loaders := For(ctx)
	return loaders.customerLoader.Load(ctx, id)()
}

