// seed-admin creates (or resets) a tenant and its ADMIN user.
//
// Usage (from backend directory):
//
//	DB_USER=... DB_PASSWORD=... DB_HOST=... DB_PORT=... DB_NAME=... \
//	DESPASYS_TENANT_DOMAIN=demo DESPASYS_ADMIN_EMAIL=admin@demo.com DESPASYS_ADMIN_PASSWORD=... \
//	go run ./cmd/seed-admin
package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/despasys/despasys_backend/config"
	"github.com/despasys/despasys_backend/models"
	"github.com/despasys/despasys_backend/utils"
)

const (
	defaultTenantDomain = "demo"
	defaultAdminEmail   = "admin@despasys.com"
	defaultAdminName    = "Administrador"
)

func envOr(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func main() {
	password := os.Getenv("DESPASYS_ADMIN_PASSWORD")
	if len(password) < 6 {
		fmt.Fprintln(os.Stderr, "DESPASYS_ADMIN_PASSWORD must have at least 6 characters")
		os.Exit(2)
	}

	config.ConnectDatabaseWithRetry()
	if config.GetDB() == nil {
		fmt.Fprintln(os.Stderr, "database not initialized (config.GetDB returned nil). Set DB_* env vars.")
		os.Exit(1)
	}
	if !config.SkipMigrations() {
		models.MigrateTable()
	}

	ctx := context.Background()
	ctx = utils.SetIsAdminInContext(ctx, true)
	ctx = utils.SetSkipTenantScopeInContext(ctx, true)

	domain := envOr("DESPASYS_TENANT_DOMAIN", defaultTenantDomain)
	tenant, err := models.UpsertTenant(ctx, domain, os.Getenv("DESPASYS_TENANT_NAME"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to upsert tenant %q: %v\n", domain, err)
		os.Exit(1)
	}
	ctx = utils.SetTenantIdInContext(ctx, tenant.ID)

	admin, err := models.UpsertAdmin(ctx, tenant.ID, &models.NewUser{
		Name:     envOr("DESPASYS_ADMIN_NAME", defaultAdminName),
		Email:    envOr("DESPASYS_ADMIN_EMAIL", defaultAdminEmail),
		Password: password,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to upsert admin: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Tenant %q (%s) admin ready: email=%q id=%d\n", tenant.Domain, tenant.ID, admin.Email, admin.ID)
}
