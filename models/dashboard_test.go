package models

import (
	"testing"
	"time"
)

func TestMonthlyRevenue(t *testing.T) {
	now := time.Date(2024, 6, 15, 10, 0, 0, 0, time.UTC)
	invoices := []FinancialRecord{
		{Amount: money("100"), PaidAt: timePtr(time.Date(2024, 6, 2, 0, 0, 0, 0, time.UTC))},
		{Amount: money("50"), PaidAt: timePtr(time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC))},
		{Amount: money("70"), PaidAt: timePtr(time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC))},
		{Amount: money("999"), PaidAt: timePtr(time.Date(2023, 12, 31, 0, 0, 0, 0, time.UTC))},
		{Amount: money("999"), PaidAt: timePtr(now.Add(time.Hour))},
		{Amount: money("999")},
	}
	series := monthlyRevenue(invoices, now, 6)
	if len(series) != 6 {
		t.Fatalf("len = %d, want 6", len(series))
	}
	if series[0].Month != "2024-01" || series[5].Month != "2024-06" {
		t.Fatalf("months = %s..%s", series[0].Month, series[5].Month)
	}
	if !series[0].Amount.Equal(money("70")) || !series[5].Amount.Equal(money("150")) {
		t.Fatalf("amounts = %s, %s", series[0].Amount, series[5].Amount)
	}
	for _, m := range series[1:5] {
		if !m.Amount.IsZero() {
			t.Fatalf("%s = %s, want 0", m.Month, m.Amount)
		}
	}
}

func TestReceivablesAndRecentRevenue(t *testing.T) {
	now := time.Date(2024, 6, 15, 10, 0, 0, 0, time.UTC)
	invoices := []FinancialRecord{
		{Amount: money("100"), PaidAt: timePtr(now.AddDate(0, 0, -5))},
		{Amount: money("40"), PaidAt: timePtr(now.AddDate(0, 0, -45))},
		{Amount: money("60"), DueDate: now.AddDate(0, 0, -1)},
		{Amount: money("25"), PaidAt: timePtr(now.AddDate(0, 0, 2))},
	}
	pending, paid := receivableTotals(invoices, now)
	if !pending.Equal(money("85")) || !paid.Equal(money("140")) {
		t.Fatalf("pending/paid = %s/%s", pending, paid)
	}
	if got := revenueSince(invoices, now.AddDate(0, 0, -30), now); !got.Equal(money("100")) {
		t.Fatalf("30-day revenue = %s, want 100", got)
	}
}

func TestLabelCounts(t *testing.T) {
	got := labelCounts(map[ProcessStatus]int64{
		ProcessStatusAwaitingDocuments: 2,
		ProcessStatusFinalized:         3,
	})
	if got[StatusLabel(ProcessStatusAwaitingDocuments)] != 2 || got[StatusLabel(ProcessStatusFinalized)] != 3 {
		t.Fatalf("labels = %v", got)
	}
}
