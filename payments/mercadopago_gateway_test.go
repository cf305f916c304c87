package payments

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
)

func TestNewMercadoPagoGatewayRequiresToken(t *testing.T) {
	t.Setenv("PAYMENT_GATEWAY_MOCK", "")
	t.Setenv("MERCADOPAGO_MOCK", "")

	if _, err := NewMercadoPagoGateway(" "); !errors.Is(err, ErrMissingMercadoPagoAccessToken) {
		t.Fatalf("err = %v", err)
	}
}

func TestMockGatewayApproves(t *testing.T) {
	for _, v := range []string{"1", "true", "mock", "ON"} {
		t.Setenv("PAYMENT_GATEWAY_MOCK", v)
		g, err := NewMercadoPagoGateway("")
		if err != nil {
			t.Fatalf("%q: %v", v, err)
		}
		id, status, resp, err := g.CreatePayment(context.Background(), json.RawMessage(`{"transaction_amount":10}`))
		if err != nil || id == "" || status != StatusApproved {
			t.Fatalf("%q: id=%q status=%q err=%v", v, id, status, err)
		}
		var body map[string]any
		if err := json.Unmarshal(resp, &body); err != nil || body["transaction_amount"] != float64(10) {
			t.Fatalf("%q: response = %s", v, resp)
		}
	}
}

func TestUnconfiguredGateway(t *testing.T) {
	var g *MercadoPagoGateway
	if _, _, _, err := g.CreatePayment(context.Background(), nil); !errors.Is(err, ErrMercadoPagoGatewayNotConfigured) {
		t.Fatalf("err = %v", err)
	}
}
