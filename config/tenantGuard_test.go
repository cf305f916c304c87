package config

import (
	"context"
	"testing"

	"github.com/despasys/despasys_backend/appctx"
	"gorm.io/gorm/clause"
)

func TestExprHasTenantID(t *testing.T) {
	cases := []struct {
		name string
		expr clause.Expression
		want bool
	}{
		{"eq column", clause.Eq{Column: clause.Column{Name: "tenant_id"}, Value: "t1"}, true},
		{"eq string", clause.Eq{Column: "TENANT_ID", Value: "t1"}, true},
		{"in", clause.IN{Column: clause.Column{Name: "tenant_id"}, Values: []any{"t1"}}, true},
		{"raw expr", clause.Expr{SQL: "tenant_id = ?", Vars: []any{"t1"}}, true},
		{"other column", clause.Eq{Column: clause.Column{Name: "customer_id"}, Value: 1}, false},
		{"and with tenant", clause.AndConditions{Exprs: []clause.Expression{
			clause.Eq{Column: "status", Value: "ATIVO"},
			clause.Eq{Column: "tenant_id", Value: "t1"},
		}}, true},
		{"or with tenant", clause.OrConditions{Exprs: []clause.Expression{
			clause.Eq{Column: "tenant_id", Value: "t1"},
		}}, false},
		{"raw without tenant", clause.Expr{SQL: "name LIKE ?"}, false},
	}
	for _, tc := range cases {
		if got := exprHasTenantID(tc.expr); got != tc.want {
			t.Fatalf("%s: exprHasTenantID = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestWhereHasTenantID(t *testing.T) {
	if whereHasTenantID(clause.Clause{}) {
		t.Fatalf("empty clause should not report a tenant filter")
	}
	c := clause.Clause{Expression: clause.Where{Exprs: []clause.Expression{
		clause.Eq{Column: "plate", Value: "ABC1D23"},
		clause.Expr{SQL: "tenant_id = ?", Vars: []any{"t1"}},
	}}}
	if !whereHasTenantID(c) {
		t.Fatalf("expected tenant filter to be detected")
	}
}

func TestShouldBypassTenantScope(t *testing.T) {
	ctx := context.Background()
	if shouldBypassTenantScope(ctx) {
		t.Fatalf("plain context must not bypass")
	}
	if !shouldBypassTenantScope(appctx.Set(ctx, appctx.ContextKeyIsAdmin, true)) {
		t.Fatalf("admin context must bypass")
	}
	if !shouldBypassTenantScope(appctx.Set(ctx, appctx.ContextKeySkipTenantScope, true)) {
		t.Fatalf("skip flag must bypass")
	}
	if tenantIdFromContext(appctx.Set(ctx, appctx.ContextKeyTenantId, "t1")) != "t1" {
		t.Fatalf("tenant id not read from context")
	}
}

func TestTenantTopicName(t *testing.T) {
	if got := TenantTopicName("abc", "processes"); got != "despasys-tenant-abc-processes" {
		t.Fatalf("TenantTopicName = %q", got)
	}
}
