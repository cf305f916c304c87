package middlewares

import (
	"context"
	"reflect"
	"time"

	"github.com/despasys/despasys_backend/config"
	"github.com/despasys/despasys_backend/models"
	"github.com/despasys/despasys_backend/utils"
	"github.com/gin-gonic/gin"
	"github.com/graph-gophers/dataloader/v7"
	"gorm.io/gorm"
)

type ctxKey string

const (
	loadersKey = ctxKey("dataloaders")
)

// Loaders batch the lookups made while formatting process lists.
type Loaders struct {
	customerLoader        *dataloader.Loader[int, *models.Customer]
	vehicleLoader         *dataloader.Loader[int, *models.Vehicle]
	userLoader            *dataloader.Loader[int, *models.User]
	processDocumentLoader *dataloader.Loader[int, []*models.ProcessDocument]
}

// NewLoaders instantiates data loaders for the middleware
func NewLoaders(conn *gorm.DB) *Loaders {
	customerReader := &customerReader{db: conn}
	vehicleReader := &vehicleReader{db: conn}
	userReader := &userReader{db: conn}
	processDocumentReader := &processDocumentReader{db: conn}

	return &Loaders{
		customerLoader:        dataloader.NewBatchedLoader(customerReader.getCustomers, dataloader.WithWait[int, *models.Customer](time.Millisecond)),
		vehicleLoader:         dataloader.NewBatchedLoader(vehicleReader.getVehicles, dataloader.WithWait[int, *models.Vehicle](time.Millisecond)),
		userLoader:            dataloader.NewBatchedLoader(userReader.getUsers, dataloader.WithWait[int, *models.User](time.Millisecond)),
		processDocumentLoader: dataloader.NewBatchedLoader(processDocumentReader.getDocuments, dataloader.WithWait[int, []*models.ProcessDocument](time.Millisecond)),
	}
}

func LoaderMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		loader := NewLoaders(config.GetDB())
		ctx := context.WithValue(c.Request.Context(), loadersKey, loader)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// For returns the request's loaders, or a fresh set when the middleware did not run.
func For(ctx context.Context) *Loaders {
	if loaders, ok := ctx.Value(loadersKey).(*Loaders); ok && loaders != nil {
		return loaders
	}
	return NewLoaders(config.GetDB())
}

// tenantScope reads the tenant every batch is restricted to.
func tenantScope(ctx context.Context, db *gorm.DB) (*gorm.DB, error) {
	tenantId, err := utils.RequireTenantId(ctx)
	if err != nil {
		return nil, err
	}
	return db.WithContext(ctx).Where("tenant_id = ?", tenantId), nil
}

// handleError creates array of result with the same error repeated for as many items requested
func handleError[T any](itemsLength int, err error) []*dataloader.Result[T] {
	result := make([]*dataloader.Result[T], itemsLength)
	for i := 0; i < itemsLength; i++ {
		result[i] = &dataloader.Result[T]{Error: err}
	}
	return result
}

// turns results from db into dataloader results, in the order of ids.
// Ids that did not resolve get the type's default.
// (T must be a struct)
func generateLoaderResults[T models.Data](results []T, ids []int) []*dataloader.Result[*T] {
	resultMap := make(map[int]T)
	var resultZero T
	resultMap[0] = resultZero.GetDefault(0).(T)
	for _, result := range results {
		resultMap[result.GetId()] = result
	}

	loaderResults := make([]*dataloader.Result[*T], 0, len(ids))
	for _, id := range ids {
		data := resultMap[id]
		if reflect.ValueOf(data).IsZero() {
			data = data.GetDefault(id).(T)
		}
		loaderResults = append(loaderResults, &dataloader.Result[*T]{Data: &data})
	}
	return loaderResults
}

// T must be struct
// each id has many related results
func generateLoaderArrayResults[T models.RelatedData](results []T, referenceIds []int) (loaderResults []*dataloader.Result[[]*T]) {
	resultMap := make(map[int][]*T)
	for _, result := range results {
		item := result
		resultMap[result.GetReferenceId()] = append(resultMap[result.GetReferenceId()], &item)
	}
	for _, id := range referenceIds {
		loaderResults = append(loaderResults, &dataloader.Result[[]*T]{Data: resultMap[id]})
	}
	return loaderResults
}
