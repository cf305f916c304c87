package models_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/despasys/despasys_backend/config"
	"github.com/despasys/despasys_backend/models"
	"github.com/despasys/despasys_backend/utils"
	"github.com/despasys/despasys_backend/workflow"
	"github.com/shopspring/decimal"
)

type rowCounts map[string]int64

func countRows(t *testing.T) rowCounts {
	t.Helper()
	tables := map[string]interface{}{
		"processes":         &models.Process{},
		"histories":         &models.History{},
		"appointments":      &models.Appointment{},
		"financial_records": &models.FinancialRecord{},
	}
	counts := rowCounts{}
	for name, model := range tables {
		var n int64
		if err := config.GetDB().Model(model).Count(&n).Error; err != nil {
			t.Fatalf("count %s: %v", name, err)
		}
		counts[name] = n
	}
	return counts
}

func assertNothingWritten(t *testing.T, before rowCounts) {
	t.Helper()
	after := countRows(t)
	for table, n := range before {
		if after[table] != n {
			t.Fatalf("%s rows went from %d to %d after a rejected create", table, n, after[table])
		}
	}
}

func TestRejectedCreatesWriteNothing(t *testing.T) {
	setupIntegration(t)

	ctxA, _ := seedTenant(t, "epsilon")
	ctxB, _ := seedTenant(t, "zeta")
	customer, err := models.CreateCustomer(ctxA, &models.NewCustomer{Name: "Carla", CpfCnpj: "52998224725"})
	if err != nil {
		t.Fatalf("CreateCustomer: %v", err)
	}

	t.Run("process with another tenant's customer", func(t *testing.T) {
		before := countRows(t)
		_, err := models.CreateProcess(ctxB, &models.NewProcess{CustomerId: customer.ID, ServiceType: "LICENCIAMENTO"})
		if !utils.IsValidationError(err) {
			t.Fatalf("err = %v, want validation error", err)
		}
		assertNothingWritten(t, before)
	})

	t.Run("appointment ending before it starts", func(t *testing.T) {
		start := time.Now().Add(24 * time.Hour)
		before := countRows(t)
		_, err := models.CreateAppointment(ctxA, &models.NewAppointment{
			CustomerId: customer.ID,
			Title:      "Vistoria",
			StartTime:  start,
			EndTime:    start,
		})
		var verr *utils.ValidationError
		if !errors.As(err, &verr) || verr.Field != "end_time" {
			t.Fatalf("err = %v, want end_time validation error", err)
		}
		assertNothingWritten(t, before)
	})

	t.Run("expense without supplier", func(t *testing.T) {
		before := countRows(t)
		_, err := models.CreateFinancialRecord(ctxA, models.FinancialKindExpense, &models.NewFinancialRecord{
			Description: "Aluguel",
			Category:    "FIXA",
			Amount:      decimal.NewFromInt(1500),
			DueDate:     time.Now().AddDate(0, 0, 5),
		})
		var verr *utils.ValidationError
		if !errors.As(err, &verr) || verr.Field != "supplier" {
			t.Fatalf("err = %v, want supplier validation error", err)
		}
		assertNothingWritten(t, before)
	})
}

func TestFailedIdempotencyKeyIsTakenOverOnce(t *testing.T) {
	setupIntegration(t)

	ctx, tenant := seedTenant(t, "eta")
	db := config.GetDB().WithContext(ctx)
	const handler, key = "mobile.createProcess", "retry-1"

	if _, _, err := workflow.BeginIdempotency(db, tenant.ID, handler, key); err != nil {
		t.Fatalf("BeginIdempotency: %v", err)
	}
	if err := workflow.MarkIdempotencyFailed(db, tenant.ID, handler, key, errors.New("upstream down")); err != nil {
		t.Fatalf("MarkIdempotencyFailed: %v", err)
	}

	const retries = 5
	var (
		wg         sync.WaitGroup
		mu         sync.Mutex
		winners    int
		inProgress int
	)
	for i := 0; i < retries; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, replay, err := workflow.BeginIdempotency(config.GetDB().WithContext(ctx), tenant.ID, handler, key)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil && !replay:
				winners++
			case errors.Is(err, workflow.ErrIdempotencyInProgress):
				inProgress++
			default:
				t.Errorf("BeginIdempotency = replay %v err %v", replay, err)
			}
		}()
	}
	wg.Wait()
	if winners != 1 || inProgress != retries-1 {
		t.Fatalf("winners = %d in progress = %d, want 1 and %d", winners, inProgress, retries-1)
	}
}

func TestUpsertAdminInvalidatesCachedUser(t *testing.T) {
	setupIntegration(t)

	_, tenant := seedTenant(t, "theta")
	email := "admin@theta.test"
	ctx := context.Background()

	cached, err := models.GetUserByEmail(ctx, email)
	if err != nil {
		t.Fatalf("GetUserByEmail: %v", err)
	}
	if cached.Name != "Admin theta" {
		t.Fatalf("cached name = %q", cached.Name)
	}

	if _, err := models.UpsertAdmin(ctx, tenant.ID, &models.NewUser{Name: "Theta Owner", Email: email, Password: "secret456"}); err != nil {
		t.Fatalf("UpsertAdmin: %v", err)
	}
	fresh, err := models.GetUserByEmail(ctx, email)
	if err != nil {
		t.Fatalf("GetUserByEmail after upsert: %v", err)
	}
	if fresh.Name != "Theta Owner" {
		t.Fatalf("name after upsert = %q, want the updated name", fresh.Name)
	}
}
