package payments_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/despasys/despasys_backend/models"
	"github.com/despasys/despasys_backend/payments"
	"github.com/despasys/despasys_backend/payments/mocks"
	"github.com/shopspring/decimal"
	"go.uber.org/mock/gomock"
)

func testInvoice() *models.FinancialRecord {
	return &models.FinancialRecord{
		ID:          4,
		TenantId:    "tenant-1",
		Kind:        models.FinancialKindInvoice,
		Number:      "FAT-004",
		Description: "Licenciamento 2024",
		Amount:      decimal.RequireFromString("180.456"),
		DueDate:     time.Now().Add(48 * time.Hour),
	}
}

func TestBuildPixPayload(t *testing.T) {
	raw, err := payments.BuildPixPayload(testInvoice(), "cliente@test.com")
	if err != nil {
		t.Fatalf("BuildPixPayload: %v", err)
	}
	var body map[string]any
	if err := json.Unmarshal(raw, &body); err != nil {
		t.Fatalf("payload is not json: %v", err)
	}
	if body["payment_method_id"] != "pix" || body["transaction_amount"] != 180.46 {
		t.Fatalf("payload = %s", raw)
	}
	if body["external_reference"] != "tenant-1:FAT-004" {
		t.Fatalf("external_reference = %v", body["external_reference"])
	}
}

func TestChargeInvoice(t *testing.T) {
	t.Run("approved payment marks the invoice paid", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		gateway := mocks.NewMockGateway(ctrl)
		store := mocks.NewMockInvoiceStore(ctrl)

		paid := testInvoice()
		paid.PaymentProviderId = "991"
		store.EXPECT().GetInvoice(gomock.Any(), 4).Return(testInvoice(), nil)
		gateway.EXPECT().CreatePayment(gomock.Any(), gomock.Any()).Return("991", "approved", json.RawMessage(`{}`), nil)
		store.EXPECT().RecordPaymentAttempt(gomock.Any(), 4, "991", "approved", true, gomock.Any()).Return(paid, nil)

		got, err := payments.NewChargerWithStore(gateway, store).ChargeInvoice(context.Background(), 4, "")
		if err != nil {
			t.Fatalf("ChargeInvoice: %v", err)
		}
		if got.PaymentProviderId != "991" {
			t.Fatalf("record = %+v", got)
		}
	})

	t.Run("pending payment is stored without paying", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		gateway := mocks.NewMockGateway(ctrl)
		store := mocks.NewMockInvoiceStore(ctrl)

		store.EXPECT().GetInvoice(gomock.Any(), 4).Return(testInvoice(), nil)
		gateway.EXPECT().CreatePayment(gomock.Any(), gomock.Any()).Return("992", "pending", nil, nil)
		store.EXPECT().RecordPaymentAttempt(gomock.Any(), 4, "992", "pending", false, gomock.Any()).Return(testInvoice(), nil)

		if _, err := payments.NewChargerWithStore(gateway, store).ChargeInvoice(context.Background(), 4, ""); err != nil {
			t.Fatalf("ChargeInvoice: %v", err)
		}
	})

	t.Run("gateway failure leaves the invoice unchanged", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		gateway := mocks.NewMockGateway(ctrl)
		store := mocks.NewMockInvoiceStore(ctrl)

		store.EXPECT().GetInvoice(gomock.Any(), 4).Return(testInvoice(), nil)
		gateway.EXPECT().CreatePayment(gomock.Any(), gomock.Any()).Return("", "", nil, errors.New("401 invalid token"))

		_, err := payments.NewChargerWithStore(gateway, store).ChargeInvoice(context.Background(), 4, "")
		if !errors.Is(err, payments.ErrGatewayFailed) {
			t.Fatalf("err = %v, want ErrGatewayFailed", err)
		}
	})

	t.Run("paid invoice is not charged again", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		gateway := mocks.NewMockGateway(ctrl)
		store := mocks.NewMockInvoiceStore(ctrl)

		invoice := testInvoice()
		paidAt := time.Now().Add(-time.Hour)
		invoice.PaidAt = &paidAt
		store.EXPECT().GetInvoice(gomock.Any(), 4).Return(invoice, nil)

		_, err := payments.NewChargerWithStore(gateway, store).ChargeInvoice(context.Background(), 4, "")
		if !errors.Is(err, payments.ErrInvoiceAlreadyPaid) {
			t.Fatalf("err = %v, want ErrInvoiceAlreadyPaid", err)
		}
	})

	t.Run("missing invoice", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		gateway := mocks.NewMockGateway(ctrl)
		store := mocks.NewMockInvoiceStore(ctrl)

		notFound := errors.New("record not found")
		store.EXPECT().GetInvoice(gomock.Any(), 9).Return(nil, notFound)

		_, err := payments.NewChargerWithStore(gateway, store).ChargeInvoice(context.Background(), 9, "")
		if !errors.Is(err, notFound) {
			t.Fatalf("err = %v", err)
		}
	})
}
