package utils

import (
	"testing"
	"time"
)

func TestJwtRoundTrip(t *testing.T) {
	t.Setenv("API_SECRET", "test-secret")
	t.Setenv("TOKEN_HOUR_LIFESPAN", "1")

	token, err := JwtGenerate(42, "tenant-1", "ana@example.com", "GERENTE")
	if err != nil {
		t.Fatalf("JwtGenerate: %v", err)
	}
	claims, err := JwtValidate(token)
	if err != nil {
		t.Fatalf("JwtValidate: %v", err)
	}
	if claims.ID != 42 || claims.TenantId != "tenant-1" || claims.Role != "GERENTE" {
		t.Fatalf("unexpected claims %+v", claims)
	}
	if claims.ExpiresAt <= time.Now().Unix() {
		t.Fatalf("token already expired")
	}
}

func TestJwtValidate_RejectsOtherSecret(t *testing.T) {
	t.Setenv("API_SECRET", "secret-a")
	token, err := JwtGenerate(1, "t", "a@b.com", "ADMIN")
	if err != nil {
		t.Fatalf("JwtGenerate: %v", err)
	}
	t.Setenv("API_SECRET", "secret-b")
	if _, err := JwtValidate(token); err == nil {
		t.Fatalf("expected signature mismatch to be rejected")
	}
}
