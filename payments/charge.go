package payments

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/despasys/despasys_backend/config"
	"github.com/despasys/despasys_backend/models"
	"github.com/sirupsen/logrus"
)

//go:generate mockgen -source=charge.go -destination=mocks/mock_gateway.go -package=mocks

const StatusApproved = "approved"

// ErrGatewayFailed wraps any provider failure; the invoice is left untouched.
var ErrGatewayFailed = errors.New("payment gateway failed")

var ErrInvoiceAlreadyPaid = errors.New("invoice already paid")

type Gateway interface {
	CreatePayment(ctx context.Context, requestPayload json.RawMessage) (providerPaymentID string, providerStatus string, providerResponse json.RawMessage, err error)
}

// InvoiceStore is the slice of the financial repository a charge touches.
type InvoiceStore interface {
	GetInvoice(ctx context.Context, id int) (*models.FinancialRecord, error)
	RecordPaymentAttempt(ctx context.Context, id int, providerId string, providerStatus string, approved bool, now time.Time) (*models.FinancialRecord, error)
}

type modelInvoices struct{}

func (modelInvoices) GetInvoice(ctx context.Context, id int) (*models.FinancialRecord, error) {
	return models.GetFinancialRecord(ctx, models.FinancialKindInvoice, id)
}

func (modelInvoices) RecordPaymentAttempt(ctx context.Context, id int, providerId string, providerStatus string, approved bool, now time.Time) (*models.FinancialRecord, error) {
	return models.RecordPaymentAttempt(ctx, id, providerId, providerStatus, approved, now)
}

type Charger struct {
	gateway  Gateway
	invoices InvoiceStore
	now      func() time.Time
}

func NewCharger(gateway Gateway) *Charger {
	return NewChargerWithStore(gateway, modelInvoices{})
}

func NewChargerWithStore(gateway Gateway, invoices InvoiceStore) *Charger {
	return &Charger{gateway: gateway, invoices: invoices, now: time.Now}
}

type pixPayer struct {
	Email string `json:"email,omitempty"`
}

type pixPaymentRequest struct {
	TransactionAmount float64  `json:"transaction_amount"`
	Description       string   `json:"description"`
	PaymentMethodID   string   `json:"payment_method_id"`
	ExternalReference string   `json:"external_reference"`
	Payer             pixPayer `json:"payer"`
}

// BuildPixPayload is the Mercado Pago request for the invoice's full amount.
func BuildPixPayload(invoice *models.FinancialRecord, payerEmail string) (json.RawMessage, error) {
	req := pixPaymentRequest{
		TransactionAmount: invoice.Amount.Round(2).InexactFloat64(),
		Description:       fmt.Sprintf("%s - %s", invoice.Number, invoice.Description),
		PaymentMethodID:   "pix",
		ExternalReference: fmt.Sprintf("%s:%s", invoice.TenantId, invoice.Number),
		Payer:             pixPayer{Email: payerEmail},
	}
	return json.Marshal(req)
}

// ChargeInvoice creates a PIX payment for an unpaid invoice and stores the provider's answer.
func (c *Charger) ChargeInvoice(ctx context.Context, id int, payerEmail string) (*models.FinancialRecord, error) {
	invoice, err := c.invoices.GetInvoice(ctx, id)
	if err != nil {
		return nil, err
	}
	now := c.now()
	if invoice.IsPaid(now) {
		return nil, ErrInvoiceAlreadyPaid
	}
	payload, err := BuildPixPayload(invoice, payerEmail)
	if err != nil {
		return nil, err
	}

	providerId, providerStatus, _, err := c.gateway.CreatePayment(ctx, payload)
	if err != nil {
		config.LogError(config.GetLogger(), "Payments", "ChargeInvoice", "gateway create failed", invoice.Number, err)
		return nil, fmt.Errorf("%w: %v", ErrGatewayFailed, err)
	}
	config.GetLogger().WithFields(logrus.Fields{
		"tenant_id":           invoice.TenantId,
		"invoice":             invoice.Number,
		"provider_payment_id": providerId,
		"provider_status":     providerStatus,
	}).Info("[payment.charge]")

	return c.invoices.RecordPaymentAttempt(ctx, id, providerId, providerStatus, providerStatus == StatusApproved, now)
}
