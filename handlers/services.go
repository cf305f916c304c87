package handlers

import (
	"context"
	"time"

	"github.com/despasys/despasys_backend/middlewares"
	"github.com/despasys/despasys_backend/models"
	"github.com/despasys/despasys_backend/recommendation"
)

//go:generate mockgen -source=services.go -destination=mocks/mock_services.go -package=mocks

type ProcessService interface {
	Create(ctx context.Context, input *models.NewProcess) (*models.Process, error)
	Update(ctx context.Context, id int, input *models.ProcessUpdate) (*models.Process, error)
	UpdateStatus(ctx context.Context, id int, status string) (*models.Process, error)
	Delete(ctx context.Context, id int) (*models.Process, error)
	Get(ctx context.Context, id int) (*models.Process, error)
	List(ctx context.Context, filter models.ProcessFilter) ([]*models.Process, models.PageInfo, error)
	Stats(ctx context.Context, now time.Time) (*models.ProcessStats, error)
}

// Directory resolves the names shown next to a process.
type Directory interface {
	Customer(ctx context.Context, id int) (*models.Customer, error)
	Vehicle(ctx context.Context, id int) (*models.Vehicle, error)
	User(ctx context.Context, id int) (*models.User, error)
	Documents(ctx context.Context, processId int) ([]*models.ProcessDocument, error)
}

type InvoiceCharger interface {
	ChargeInvoice(ctx context.Context, id int, payerEmail string) (*models.FinancialRecord, error)
}

type Recommender interface {
	Recommend(ctx context.Context, customerId int) (*recommendation.Prediction, error)
}

type ModelProcesses struct{}

func (ModelProcesses) Create(ctx context.Context, input *models.NewProcess) (*models.Process, error) {
	return models.CreateProcess(ctx, input)
}

func (ModelProcesses) Update(ctx context.Context, id int, input *models.ProcessUpdate) (*models.Process, error) {
	return models.UpdateProcess(ctx, id, input)
}

func (ModelProcesses) UpdateStatus(ctx context.Context, id int, status string) (*models.Process, error) {
	return models.UpdateProcessStatus(ctx, id, status)
}

func (ModelProcesses) Delete(ctx context.Context, id int) (*models.Process, error) {
	return models.DeleteProcess(ctx, id)
}

func (ModelProcesses) Get(ctx context.Context, id int) (*models.Process, error) {
	return models.GetProcess(ctx, id)
}

func (ModelProcesses) List(ctx context.Context, filter models.ProcessFilter) ([]*models.Process, models.PageInfo, error) {
	return models.ListProcesses(ctx, filter)
}

func (ModelProcesses) Stats(ctx context.Context, now time.Time) (*models.ProcessStats, error) {
	return models.GetProcessStats(ctx, now)
}

// LoaderDirectory batches lookups through the request's dataloaders.
type LoaderDirectory struct{}

func (LoaderDirectory) Customer(ctx context.Context, id int) (*models.Customer, error) {
	return middlewares.GetCustomer(ctx, id)
}

func (LoaderDirectory) Vehicle(ctx context.Context, id int) (*models.Vehicle, error) {
	return middlewares.GetVehicle(ctx, id)
}

func (LoaderDirectory) User(ctx context.Context, id int) (*models.User, error) {
	return middlewares.GetUser(ctx, id)
}

func (LoaderDirectory) Documents(ctx context.Context, processId int) ([]*models.ProcessDocument, error) {
	return middlewares.GetProcessDocuments(ctx, processId)
}
