package models

import (
	"context"
	"time"

	"github.com/despasys/despasys_backend/config"
	"github.com/despasys/despasys_backend/utils"
	"github.com/shopspring/decimal"
)

type ProcessStats struct {
	Total    int64                   `json:"total"`
	ByBucket map[ProcessBucket]int64 `json:"by_bucket"`
	ByStatus map[string]int64        `json:"by_status"`
	Overdue  int64                   `json:"overdue"`
}

type MonthlyRevenue struct {
	Month  string          `json:"month"`
	Amount decimal.Decimal `json:"amount"`
}

type MobileDashboard struct {
	ActiveCustomers    int64                   `json:"clientesAtivos"`
	ActiveVehicles     int64                   `json:"veiculosAtivos"`
	Processes          map[MobileStatus]int64  `json:"processos"`
	TotalProcesses     int64                   `json:"totalProcessos"`
	PendingReceivables decimal.Decimal         `json:"recebimentosPendentes"`
	PaidReceivables    decimal.Decimal         `json:"recebimentosPagos"`
	Revenue30Days      decimal.Decimal         `json:"faturamento30Dias"`
	ByStatusLabel      map[string]int64        `json:"processosPorStatus"`
	MonthlyRevenue     []MonthlyRevenue        `json:"faturamentoMensal"`
	ByBucket           map[ProcessBucket]int64 `json:"-"`
}

func labelCounts(byStatus map[ProcessStatus]int64) map[string]int64 {
	out := make(map[string]int64, len(byStatus))
	for status, n := range byStatus {
		out[StatusLabel(status)] += n
	}
	return out
}

// GetProcessStats backs GET /processes/stats. Overdue counts open processes past their legal deadline.
func GetProcessStats(ctx context.Context, now time.Time) (*ProcessStats, error) {
	tenantId, err := utils.RequireTenantId(ctx)
	if err != nil {
		return nil, err
	}
	byStatus, err := CountProcessesByStatus(ctx)
	if err != nil {
		return nil, err
	}
	stats := &ProcessStats{
		ByBucket: bucketCounts(byStatus),
		ByStatus: labelCounts(byStatus),
	}
	for _, n := range byStatus {
		stats.Total += n
	}

	open := append(StatusesInBucket(BucketPending), StatusesInBucket(BucketInProgress)...)
	err = utils.RetryRead(ctx, func() error {
		return config.GetDB().WithContext(ctx).Model(&Process{}).
			Where("tenant_id = ? AND status IN ? AND legal_deadline IS NOT NULL AND legal_deadline < ?", tenantId, open, now).
			Count(&stats.Overdue).Error
	})
	if err != nil {
		return nil, err
	}
	return stats, nil
}

// receivableTotals splits invoices into paid and still open amounts at now.
func receivableTotals(invoices []FinancialRecord, now time.Time) (pending decimal.Decimal, paid decimal.Decimal) {
	pending, paid = decimal.Zero, decimal.Zero
	for _, r := range invoices {
		if r.IsPaid(now) {
			paid = paid.Add(r.Amount)
		} else {
			pending = pending.Add(r.Amount)
		}
	}
	return pending, paid
}

// revenueSince sums invoices paid in [since, now].
func revenueSince(invoices []FinancialRecord, since time.Time, now time.Time) decimal.Decimal {
	total := decimal.Zero
	for _, r := range invoices {
		if r.IsPaid(now) && !r.PaidAt.Before(since) {
			total = total.Add(r.Amount)
		}
	}
	return total
}

// monthlyRevenue buckets paid invoices by payment month, oldest month first, current month last.
func monthlyRevenue(invoices []FinancialRecord, now time.Time, months int) []MonthlyRevenue {
	current, _ := monthBounds(now)
	series := make([]MonthlyRevenue, months)
	index := make(map[string]int, months)
	for i := 0; i < months; i++ {
		m := current.AddDate(0, i-months+1, 0)
		key := m.Format("2006-01")
		series[i] = MonthlyRevenue{Month: key, Amount: decimal.Zero}
		index[key] = i
	}
	for _, r := range invoices {
		if !r.IsPaid(now) {
			continue
		}
		if i, ok := index[r.PaidAt.In(now.Location()).Format("2006-01")]; ok {
			series[i].Amount = series[i].Amount.Add(r.Amount)
		}
	}
	return series
}

func countActive[T any](ctx context.Context, tenantId string) (int64, error) {
	var n int64
	err := utils.RetryRead(ctx, func() error {
		return config.GetDB().WithContext(ctx).Model(new(T)).
			Where("tenant_id = ? AND status = ?", tenantId, RecordStatusActive).
			Count(&n).Error
	})
	return n, err
}

// GetMobileDashboard aggregates the home screen of the mobile app.
func GetMobileDashboard(ctx context.Context, now time.Time) (*MobileDashboard, error) {
	tenantId, err := utils.RequireTenantId(ctx)
	if err != nil {
		return nil, err
	}
	customers, err := countActive[Customer](ctx, tenantId)
	if err != nil {
		return nil, err
	}
	vehicles, err := countActive[Vehicle](ctx, tenantId)
	if err != nil {
		return nil, err
	}
	byStatus, err := CountProcessesByStatus(ctx)
	if err != nil {
		return nil, err
	}
	invoices, err := ListAllFinancialRecords(ctx, FinancialKindInvoice, "")
	if err != nil {
		return nil, err
	}

	d := &MobileDashboard{
		ActiveCustomers: customers,
		ActiveVehicles:  vehicles,
		ByBucket:        bucketCounts(byStatus),
		ByStatusLabel:   labelCounts(byStatus),
		Processes:       map[MobileStatus]int64{},
	}
	for bucket, n := range d.ByBucket {
		d.Processes[bucketMobileStatus[bucket]] += n
		d.TotalProcesses += n
	}
	d.PendingReceivables, d.PaidReceivables = receivableTotals(invoices, now)
	d.Revenue30Days = revenueSince(invoices, now.AddDate(0, 0, -30), now)
	d.MonthlyRevenue = monthlyRevenue(invoices, now, 6)
	return d, nil
}

// GetFinancialDashboard loads the tenant's transactions and builds the dashboard at now.
func GetFinancialDashboard(ctx context.Context, now time.Time) (*FinancialDashboard, error) {
	records, err := ListAllFinancialRecords(ctx, FinancialKindTransaction, "")
	if err != nil {
		return nil, err
	}
	d := BuildFinancialDashboard(records, now)
	return &d, nil
}
