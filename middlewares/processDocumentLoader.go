package middlewares

import (
	"context"

	"github.com/despasys/despasys_backend/models"
	"github.com/graph-gophers/dataloader/v7"
	"gorm.io/gorm"
)

type processDocumentReader struct {
	db *gorm.DB
}

func (r *processDocumentReader) getDocuments(ctx context.Context, processIds []int) []*dataloader.Result[[]*models.ProcessDocument] {
	scoped, err := tenantScope(ctx, r.db)
	if err != nil {
		return handleError[[]*models.ProcessDocument](len(processIds), err)
	}
	var results []models.ProcessDocument
	if err := scoped.Where("process_id IN ?", processIds).Order("created_at desc").Find(&results).Error; err != nil {
		return handleError[[]*models.ProcessDocument](len(processIds), err)
	}
	return generateLoaderArrayResults(results, processIds)
}

func GetProcessDocuments(ctx context.Context, processId int) ([]*models.ProcessDocument, error) {
	loaders := For(ctx)
	return loaders.processDocumentLoader.Load(ctx, processId)()
}
