package models_test

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/despasys/despasys_backend/models"
	"github.com/despasys/despasys_backend/utils"
	"github.com/shopspring/decimal"
)

func TestProcessLifecycleAcrossTenants(t *testing.T) {
	setupIntegration(t)

	ctxA, _ := seedTenant(t, "alpha")
	ctxB, _ := seedTenant(t, "beta")

	customer, err := models.CreateCustomer(ctxA, &models.NewCustomer{Name: "Maria Silva", CpfCnpj: "529.982.247-25", Phone: "(11) 98765-4321"})
	if err != nil {
		t.Fatalf("CreateCustomer: %v", err)
	}
	if customer.State != "SP" || customer.CustomerType != models.CustomerTypeIndividual {
		t.Fatalf("customer defaults = %s/%s", customer.State, customer.CustomerType)
	}

	first, err := models.CreateProcess(ctxA, &models.NewProcess{CustomerId: customer.ID, ServiceType: "Licenciamento"})
	if err != nil {
		t.Fatalf("CreateProcess: %v", err)
	}
	if first.Number != "PROC-001" || first.Status != models.ProcessStatusAwaitingDocuments || first.Bucket != models.BucketPending {
		t.Fatalf("first process = %s %s %s", first.Number, first.Status, first.Bucket)
	}

	// concurrent creation inside one tenant never repeats a number
	const workers = 10
	numbers := make(chan string, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p, err := models.CreateProcess(ctxA, &models.NewProcess{CustomerId: customer.ID, ServiceType: "TRANSFERENCIA"})
			if err != nil {
				t.Errorf("concurrent CreateProcess: %v", err)
				return
			}
			numbers <- p.Number
		}()
	}
	wg.Wait()
	close(numbers)
	seen := map[string]bool{first.Number: true}
	for n := range numbers {
		if seen[n] {
			t.Fatalf("duplicate process number %s", n)
		}
		seen[n] = true
	}
	if len(seen) != workers+1 {
		t.Fatalf("got %d distinct numbers, want %d", len(seen), workers+1)
	}

	// tenant B sees nothing of tenant A and numbers independently
	if _, err := models.GetProcess(ctxB, first.ID); !errors.Is(err, utils.ErrorRecordNotFound) {
		t.Fatalf("cross-tenant GetProcess err = %v, want not found", err)
	}
	_, err = models.CreateProcess(ctxB, &models.NewProcess{CustomerId: customer.ID, ServiceType: "LICENCIAMENTO"})
	var verr *utils.ValidationError
	if !errors.As(err, &verr) || verr.Field != "customer_id" {
		t.Fatalf("cross-tenant customer err = %v, want customer_id validation error", err)
	}
	customerB, err := models.CreateCustomer(ctxB, &models.NewCustomer{Name: "Joao", CpfCnpj: "11.222.333/0001-81"})
	if err != nil {
		t.Fatalf("CreateCustomer B: %v", err)
	}
	otherFirst, err := models.CreateProcess(ctxB, &models.NewProcess{CustomerId: customerB.ID, ServiceType: "DESBLOQUEIO"})
	if err != nil {
		t.Fatalf("CreateProcess B: %v", err)
	}
	if otherFirst.Number != "PROC-001" {
		t.Fatalf("tenant B first number = %s, want PROC-001", otherFirst.Number)
	}

	// completed_at follows FINALIZADO in and out
	done, err := models.UpdateProcessStatus(ctxA, first.ID, "finalizado")
	if err != nil {
		t.Fatalf("UpdateProcessStatus: %v", err)
	}
	if done.CompletedAt == nil || done.Bucket != models.BucketDone {
		t.Fatalf("finalized process = completed_at %v bucket %s", done.CompletedAt, done.Bucket)
	}
	reopened, err := models.UpdateProcessStatus(ctxA, first.ID, "EM_PROCESSAMENTO")
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if reopened.CompletedAt != nil || reopened.Bucket != models.BucketInProgress {
		t.Fatalf("reopened process = completed_at %v bucket %s", reopened.CompletedAt, reopened.Bucket)
	}

	counts, err := models.CountProcessesByBucket(ctxA)
	if err != nil {
		t.Fatalf("CountProcessesByBucket: %v", err)
	}
	var total int64
	for _, n := range counts {
		total += n
	}
	if total != workers+1 || counts[models.BucketInProgress] != 1 {
		t.Fatalf("bucket counts = %v", counts)
	}

	pending, _, err := models.ListProcesses(ctxA, models.ProcessFilter{Bucket: "pending"})
	if err != nil {
		t.Fatalf("ListProcesses: %v", err)
	}
	if len(pending) != workers {
		t.Fatalf("pending processes = %d, want %d", len(pending), workers)
	}
}

func TestInvoiceStatusIsDerivedAtReadTime(t *testing.T) {
	setupIntegration(t)

	ctx, _ := seedTenant(t, "gamma")
	customer, err := models.CreateCustomer(ctx, &models.NewCustomer{Name: "Ana", CpfCnpj: "52998224725"})
	if err != nil {
		t.Fatalf("CreateCustomer: %v", err)
	}
	invoice, err := models.CreateFinancialRecord(ctx, models.FinancialKindInvoice, &models.NewFinancialRecord{
		Description: "Transferencia",
		Amount:      decimal.NewFromInt(300),
		DueDate:     time.Now().AddDate(0, 0, -10),
		CustomerId:  customer.ID,
	})
	if err != nil {
		t.Fatalf("CreateFinancialRecord: %v", err)
	}
	if invoice.Number != "FAT-001" || invoice.CustomerName != "Ana" {
		t.Fatalf("invoice = %s / %s", invoice.Number, invoice.CustomerName)
	}

	loaded, err := models.GetFinancialRecord(ctx, models.FinancialKindInvoice, invoice.ID)
	if err != nil {
		t.Fatalf("GetFinancialRecord: %v", err)
	}
	if loaded.Status != models.FinancialStatusOverdue {
		t.Fatalf("status = %s, want VENCIDA", loaded.Status)
	}
	if _, err := models.GetFinancialRecord(ctx, models.FinancialKindExpense, invoice.ID); !errors.Is(err, utils.ErrorRecordNotFound) {
		t.Fatalf("wrong kind err = %v, want not found", err)
	}

	paidAt := time.Now().Add(-time.Minute)
	paid, err := models.MarkFinancialRecordPaid(ctx, models.FinancialKindInvoice, invoice.ID, &paidAt)
	if err != nil {
		t.Fatalf("MarkFinancialRecordPaid: %v", err)
	}
	if paid.Status != models.FinancialStatusPaid {
		t.Fatalf("status after payment = %s, want PAGA", paid.Status)
	}

	overdue, info, err := models.ListFinancialRecords(ctx, models.FinancialKindInvoice, models.FinancialFilter{Status: "VENCIDA"}, time.Now())
	if err != nil {
		t.Fatalf("ListFinancialRecords: %v", err)
	}
	if len(overdue) != 0 || info.Total != 0 {
		t.Fatalf("overdue after payment = %d", len(overdue))
	}
}
