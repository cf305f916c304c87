package middlewares

import (
	"context"

	"github.com/despasys/despasys_backend/models"
	"github.com/graph-gophers/dataloader/v7"
	"gorm.io/gorm"
)

type userReader struct {
	db *gorm.DB
}

func (r *userReader) getUsers(ctx context.Context, ids []int) []*dataloader.Result[*models.User] {
	scoped, err := tenantScope(ctx, r.db)
	if err != nil {
		return handleError[*models.User](len(ids), err)
	}
	var results []models.User
	if err := scoped.Where("id IN ?", ids).Find(&results).Error; err != nil {
		return handleError[*models.User](len(ids), err)
	}
	return generateLoaderResults(results, ids)
}

func GetUser(ctx context.Context, id int) (*models.User, error) {
	loaders := For(ctx)
	return loaders.userLoader.Load(ctx, id)()
}
