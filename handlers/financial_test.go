package handlers

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/despasys/despasys_backend/handlers/mocks"
	"github.com/despasys/despasys_backend/models"
	"github.com/despasys/despasys_backend/payments"
	"github.com/shopspring/decimal"
	"go.uber.org/mock/gomock"
)

func chargeRouter(h *Handler) http.Handler {
	r := newTestRouter(&testAuth)
	r.POST("/financeiro/:kind/:id/charge", withAuth(h.ChargeInvoice))
	return r
}

func TestChargeInvoiceDefaultsPayerToCaller(t *testing.T) {
	ctrl := gomock.NewController(t)
	charger := mocks.NewMockInvoiceCharger(ctrl)
	charger.EXPECT().ChargeInvoice(gomock.Any(), 12, "ana@test").
		Return(&models.FinancialRecord{ID: 12, Amount: decimal.NewFromInt(180)}, nil)

	h := newTestHandler(Options{Charger: charger})
	w := doRequest(chargeRouter(h), http.MethodPost, "/financeiro/receitas/12/charge", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d body = %s", w.Code, w.Body.String())
	}
}

func TestChargeInvoiceExplicitPayer(t *testing.T) {
	ctrl := gomock.NewController(t)
	charger := mocks.NewMockInvoiceCharger(ctrl)
	charger.EXPECT().ChargeInvoice(gomock.Any(), 12, "cliente@test").Return(&models.FinancialRecord{ID: 12}, nil)

	h := newTestHandler(Options{Charger: charger})
	w := doRequest(chargeRouter(h), http.MethodPost, "/financeiro/receitas/12/charge", `{"payer_email":"cliente@test"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
}

func TestChargeInvoiceErrors(t *testing.T) {
	cases := []struct {
		name string
		err  error
		code int
	}{
		{"gateway down", fmt.Errorf("%w: timeout", payments.ErrGatewayFailed), http.StatusBadGateway},
		{"already paid", payments.ErrInvoiceAlreadyPaid, http.StatusConflict},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			charger := mocks.NewMockInvoiceCharger(ctrl)
			charger.EXPECT().ChargeInvoice(gomock.Any(), 12, gomock.Any()).Return(nil, tc.err)

			h := newTestHandler(Options{Charger: charger})
			w := doRequest(chargeRouter(h), http.MethodPost, "/financeiro/receitas/12/charge", "")
			if w.Code != tc.code {
				t.Fatalf("status = %d, want %d", w.Code, tc.code)
			}
		})
	}
}

func TestChargeInvoiceOnlyForInvoices(t *testing.T) {
	ctrl := gomock.NewController(t)
	h := newTestHandler(Options{Charger: mocks.NewMockInvoiceCharger(ctrl)})

	for _, path := range []string{"/financeiro/despesas/12/charge", "/financeiro/transacoes/12/charge", "/financeiro/boletos/12/charge"} {
		w := doRequest(chargeRouter(h), http.MethodPost, path, "")
		if w.Code != http.StatusNotFound {
			t.Fatalf("%s: status = %d, want 404", path, w.Code)
		}
	}
}

func TestChargeInvoiceWithoutGateway(t *testing.T) {
	h := newTestHandler(Options{})
	w := doRequest(chargeRouter(h), http.MethodPost, "/financeiro/receitas/12/charge", "")
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d", w.Code)
	}
}

func TestFinancialSummaryRejectsUnknownStatus(t *testing.T) {
	h := newTestHandler(Options{})
	r := newTestRouter(&testAuth)
	r.GET("/financeiro/:kind/summary", withAuth(h.FinancialSummary))

	w := doRequest(r, http.MethodGet, "/financeiro/despesas/summary?status=ARQUIVADA", "")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
	if body := decodeBody(t, w); body["field"] != "status" {
		t.Fatalf("body = %v", body)
	}
}

func TestListFinancialRecordsRejectsBadAmountBound(t *testing.T) {
	h := newTestHandler(Options{})
	r := newTestRouter(&testAuth)
	r.GET("/financeiro/:kind", withAuth(h.ListFinancialRecords))

	for _, q := range []string{"min_amount=abc", "max_amount=12,3,4"} {
		w := doRequest(r, http.MethodGet, "/financeiro/receitas?"+q, "")
		if w.Code != http.StatusBadRequest {
			t.Fatalf("%s: status = %d, want 400", q, w.Code)
		}
	}
}
