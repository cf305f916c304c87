package recommendation

import (
	"context"
	"strconv"
	"time"

	"github.com/despasys/despasys_backend/config"
	"github.com/despasys/despasys_backend/models"
	"github.com/despasys/despasys_backend/utils"
	"github.com/sirupsen/logrus"
)

type Predictor interface {
	Predict(ctx context.Context, tenantDomain string, subject string, email string, req PredictRequest) (*Prediction, error)
}

// Service gathers a customer's history inside the caller's tenant and asks the model.
type Service struct {
	predictor Predictor
	now       func() time.Time
}

func NewService(predictor Predictor) *Service {
	return &Service{predictor: predictor, now: time.Now}
}

// Recommend returns the customer lookup error as is. Model failures are returned too;
// callers degrade them to {"model_available": false}.
func (s *Service) Recommend(ctx context.Context, customerId int) (*Prediction, error) {
	tenantId, err := utils.RequireTenantId(ctx)
	if err != nil {
		return nil, err
	}
	customer, err := models.GetCustomer(ctx, customerId)
	if err != nil {
		return nil, err
	}
	processes, _, err := models.ListProcesses(ctx, models.ProcessFilter{
		CustomerId: customerId,
		Page:       models.Page{Page: 1, Limit: historyWindow},
	})
	if err != nil {
		return nil, err
	}
	var vehicle *models.Vehicle
	vehicles, _, err := models.ListVehicles(ctx, models.VehicleFilter{
		CustomerId: customerId,
		Page:       models.Page{Page: 1, Limit: 1},
	})
	if err != nil {
		return nil, err
	}
	if len(vehicles) > 0 {
		vehicle = vehicles[0]
	}

	domain := "demo"
	if tenant, err := models.GetTenant(ctx, tenantId); err == nil && tenant.Domain != "" {
		domain = tenant.Domain
	}
	subject := ""
	if userId, ok := utils.GetUserIdFromContext(ctx); ok {
		subject = strconv.Itoa(userId)
	}
	email, _ := utils.GetUsernameFromContext(ctx)

	req := BuildPredictRequest(customer, processes, vehicle, s.now())
	prediction, err := s.predictor.Predict(ctx, domain, subject, email, req)
	if err != nil {
		config.GetLogger().WithFields(logrus.Fields{
			"tenant_id":   tenantId,
			"customer_id": customerId,
			"error":       err.Error(),
		}).Warn("[recommendation.predict] failed")
		return nil, err
	}
	return prediction, nil
}
