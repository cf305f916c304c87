package models

import (
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const dueSoonWindow = 7 * 24 * time.Hour

type CategoryTotal struct {
	Total   decimal.Decimal `json:"total"`
	Paid    decimal.Decimal `json:"paid"`
	Pending decimal.Decimal `json:"pending"`
	Overdue decimal.Decimal `json:"overdue"`
	Count   int             `json:"count"`
}

// FinancialSummary is a point-in-time view; Total == Paid + Pending + Overdue.
type FinancialSummary struct {
	Total         decimal.Decimal          `json:"total"`
	Paid          decimal.Decimal          `json:"paid"`
	Pending       decimal.Decimal          `json:"pending"`
	Overdue       decimal.Decimal          `json:"overdue"`
	DueSoon       decimal.Decimal          `json:"due_soon"`
	Count         int                      `json:"count"`
	PaidCount     int                      `json:"paid_count"`
	PendingCount  int                      `json:"pending_count"`
	OverdueCount  int                      `json:"overdue_count"`
	DueSoonCount  int                      `json:"due_soon_count"`
	AverageAmount decimal.Decimal          `json:"average_amount"`
	ByCategory    map[string]CategoryTotal `json:"by_category"`
}

// SummarizeFinancialRecords aggregates records at a fixed now. DueSoon is the
// unpaid amount due within [now, now+7d] and is a subset of Pending.
func SummarizeFinancialRecords(records []FinancialRecord, now time.Time) FinancialSummary {
	s := FinancialSummary{
		Total:         decimal.Zero,
		Paid:          decimal.Zero,
		Pending:       decimal.Zero,
		Overdue:       decimal.Zero,
		DueSoon:       decimal.Zero,
		AverageAmount: decimal.Zero,
		ByCategory:    map[string]CategoryTotal{},
	}
	horizon := now.Add(dueSoonWindow)
	for _, r := range records {
		category := r.Category
		if category == "" {
			category = "SEM_CATEGORIA"
		}
		ct, ok := s.ByCategory[category]
		if !ok {
			ct = CategoryTotal{Total: decimal.Zero, Paid: decimal.Zero, Pending: decimal.Zero, Overdue: decimal.Zero}
		}

		s.Count++
		ct.Count++
		s.Total = s.Total.Add(r.Amount)
		ct.Total = ct.Total.Add(r.Amount)

		switch DeriveFinancialStatus(r, now) {
		case FinancialStatusPaid:
			s.Paid = s.Paid.Add(r.Amount)
			s.PaidCount++
			ct.Paid = ct.Paid.Add(r.Amount)
		case FinancialStatusOverdue:
			s.Overdue = s.Overdue.Add(r.Amount)
			s.OverdueCount++
			ct.Overdue = ct.Overdue.Add(r.Amount)
		default:
			s.Pending = s.Pending.Add(r.Amount)
			s.PendingCount++
			ct.Pending = ct.Pending.Add(r.Amount)
			if !r.DueDate.After(horizon) {
				s.DueSoon = s.DueSoon.Add(r.Amount)
				s.DueSoonCount++
			}
		}
		s.ByCategory[category] = ct
	}
	if s.Count > 0 {
		s.AverageAmount = s.Total.Div(decimal.NewFromInt(int64(s.Count))).Round(2)
	}
	return s
}

// ParseFinancialStatusFilter reads an optional status query; blank and ALL mean no filter.
func ParseFinancialStatusFilter(raw string) (FinancialStatus, error) {
	if strings.TrimSpace(raw) == "" || strings.EqualFold(strings.TrimSpace(raw), "ALL") {
		return "", nil
	}
	return ParseFinancialStatus(raw)
}

// FilterFinancialRecordsByStatus keeps the records whose status at now is status.
// An empty status keeps everything.
func FilterFinancialRecordsByStatus(records []FinancialRecord, status FinancialStatus, now time.Time) []FinancialRecord {
	if status == "" {
		return records
	}
	kept := make([]FinancialRecord, 0, len(records))
	for _, r := range records {
		if DeriveFinancialStatus(r, now) == status {
			kept = append(kept, r)
		}
	}
	return kept
}

type CashFlowSummary struct {
	InflowMonth  decimal.Decimal `json:"inflow_month"`
	OutflowMonth decimal.Decimal `json:"outflow_month"`
	Balance      decimal.Decimal `json:"balance"`
	TotalInflow  decimal.Decimal `json:"total_inflow"`
	TotalOutflow decimal.Decimal `json:"total_outflow"`
	NetTotal     decimal.Decimal `json:"net_total"`
	Entries      int             `json:"entries"`
}

func monthBounds(now time.Time) (time.Time, time.Time) {
	start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	return start, start.AddDate(0, 1, 0)
}

func inRange(t, start, end time.Time) bool {
	return !t.Before(start) && t.Before(end)
}

// SummarizeCashFlow looks at transactions only. The month figures go by due date;
// Balance only counts what was actually paid.
func SummarizeCashFlow(records []FinancialRecord, now time.Time) CashFlowSummary {
	s := CashFlowSummary{
		InflowMonth:  decimal.Zero,
		OutflowMonth: decimal.Zero,
		Balance:      decimal.Zero,
		TotalInflow:  decimal.Zero,
		TotalOutflow: decimal.Zero,
		NetTotal:     decimal.Zero,
	}
	start, end := monthBounds(now)
	for _, r := range records {
		if r.Kind != FinancialKindTransaction {
			continue
		}
		s.Entries++
		thisMonth := inRange(r.DueDate, start, end)
		paid := r.IsPaid(now)
		switch r.Direction {
		case DirectionIn:
			s.TotalInflow = s.TotalInflow.Add(r.Amount)
			if thisMonth {
				s.InflowMonth = s.InflowMonth.Add(r.Amount)
			}
			if paid {
				s.Balance = s.Balance.Add(r.Amount)
			}
		case DirectionOut:
			s.TotalOutflow = s.TotalOutflow.Add(r.Amount)
			if thisMonth {
				s.OutflowMonth = s.OutflowMonth.Add(r.Amount)
			}
			if paid {
				s.Balance = s.Balance.Sub(r.Amount)
			}
		}
	}
	s.NetTotal = s.TotalInflow.Sub(s.TotalOutflow)
	return s
}

type FinancialDashboard struct {
	IncomeMonth  decimal.Decimal   `json:"income_month"`
	ExpenseMonth decimal.Decimal   `json:"expense_month"`
	Balance      decimal.Decimal   `json:"balance"`
	PendingCount int               `json:"pending_count"`
	OverdueCount int               `json:"overdue_count"`
	Recent       []FinancialRecord `json:"recent"`
}

// BuildFinancialDashboard is the /financeiro/dashboard view over transactions.
func BuildFinancialDashboard(records []FinancialRecord, now time.Time) FinancialDashboard {
	flow := SummarizeCashFlow(records, now)
	d := FinancialDashboard{
		IncomeMonth:  flow.InflowMonth,
		ExpenseMonth: flow.OutflowMonth,
		Balance:      flow.Balance,
		Recent:       []FinancialRecord{},
	}
	var transactions []FinancialRecord
	for _, r := range records {
		if r.Kind != FinancialKindTransaction {
			continue
		}
		r.Status = DeriveFinancialStatus(r, now)
		switch r.Status {
		case FinancialStatusPending:
			d.PendingCount++
		case FinancialStatusOverdue:
			d.OverdueCount++
		}
		transactions = append(transactions, r)
	}
	sort.SliceStable(transactions, func(i, j int) bool {
		return transactions[i].CreatedAt.After(transactions[j].CreatedAt)
	})
	if len(transactions) > 10 {
		transactions = transactions[:10]
	}
	d.Recent = append(d.Recent, transactions...)
	return d
}
