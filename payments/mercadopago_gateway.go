package payments

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/despasys/despasys_backend/config"
	mpconfig "github.com/mercadopago/sdk-go/pkg/config"
	"github.com/mercadopago/sdk-go/pkg/payment"
	"github.com/sirupsen/logrus"
)

var ErrMissingMercadoPagoAccessToken = errors.New("missing MERCADOPAGO_ACCESS_TOKEN")
var ErrMercadoPagoGatewayNotConfigured = errors.New("mercado pago gateway not configured")

type MercadoPagoGateway struct {
	client   payment.Client
	mockMode bool
	logger   *logrus.Logger
}

// NewMercadoPagoGateway builds the SDK client, or a gateway that approves everything
// when PAYMENT_GATEWAY_MOCK (or MERCADOPAGO_MOCK) is set.
func NewMercadoPagoGateway(accessToken string) (*MercadoPagoGateway, error) {
	logger := config.GetLogger()
	if isPaymentGatewayMockEnabled() {
		logger.Info("[payment.gateway] mock mode enabled")
		return &MercadoPagoGateway{mockMode: true, logger: logger}, nil
	}

	if strings.TrimSpace(accessToken) == "" {
		return nil, ErrMissingMercadoPagoAccessToken
	}

	cfg, err := mpconfig.New(accessToken)
	if err != nil {
		config.LogError(logger, "Payments", "NewMercadoPagoGateway", "failed creating sdk config", nil, err)
		return nil, err
	}
	logger.Info("[payment.gateway] Mercado Pago client initialized")

	return &MercadoPagoGateway{client: payment.NewClient(cfg), logger: logger}, nil
}

func (g *MercadoPagoGateway) CreatePayment(ctx context.Context, requestPayload json.RawMessage) (providerPaymentID string, providerStatus string, providerResponse json.RawMessage, err error) {
	if g != nil && g.mockMode {
		resp := map[string]any{}
		if len(requestPayload) > 0 && json.Valid(requestPayload) {
			if err := json.Unmarshal(requestPayload, &resp); err != nil {
				resp = map[string]any{"request_payload_raw": string(requestPayload)}
			}
		}

		id := strconv.FormatInt(time.Now().UTC().UnixNano(), 10)
		now := time.Now().UTC().Format(time.RFC3339Nano)
		resp["id"] = id
		resp["status"] = StatusApproved
		resp["status_detail"] = "accredited"
		if _, ok := resp["date_created"]; !ok {
			resp["date_created"] = now
		}
		if _, ok := resp["date_approved"]; !ok {
			resp["date_approved"] = now
		}

		b, err := json.Marshal(resp)
		if err != nil {
			return "", "", nil, err
		}
		g.logger.WithField("provider_payment_id", id).Info("[payment.gateway] mock payment approved")
		return id, StatusApproved, b, nil
	}

	if g == nil || g.client == nil {
		return "", "", nil, ErrMercadoPagoGatewayNotConfigured
	}

	var req payment.Request
	if err := json.Unmarshal(requestPayload, &req); err != nil {
		return "", "", nil, err
	}

	resp, err := g.client.Create(ctx, req)
	if err != nil {
		return "", "", nil, err
	}

	b, err := json.Marshal(resp)
	if err != nil {
		return "", "", nil, err
	}
	g.logger.WithFields(logrus.Fields{
		"provider_payment_id": resp.ID,
		"provider_status":     resp.Status,
	}).Info("[payment.gateway] payment created")

	return fmt.Sprintf("%d", resp.ID), resp.Status, b, nil
}

func isPaymentGatewayMockEnabled() bool {
	for _, key := range []string{"PAYMENT_GATEWAY_MOCK", "MERCADOPAGO_MOCK"} {
		v := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
		switch v {
		case "1", "true", "yes", "on", "mock":
			return true
		}
	}
	return false
}
