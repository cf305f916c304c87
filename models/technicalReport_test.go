package models

import (
	"testing"
	"time"

	"github.com/despasys/despasys_backend/utils"
	"github.com/shopspring/decimal"
)

func validReport() NewTechnicalReport {
	return NewTechnicalReport{
		CustomerName:  "Marta",
		CustomerPhone: "11987654321",
		CustomerEmail: " Marta@Example.com ",
		VehicleBrand:  "VW",
		VehicleModel:  "Gol",
		VehicleYear:   2019,
		VehiclePlate:  "BRA2E19",
		ReportType:    "pericia",
		Purpose:       "judicial",
		Value:         decimal.NewFromInt(450),
		Location:      "Oficina Norte",
	}
}

func TestTechnicalReportNormalize(t *testing.T) {
	now := time.Date(2024, 6, 15, 9, 0, 0, 0, time.UTC)
	cases := []struct {
		name      string
		mutate    func(*NewTechnicalReport)
		wantField string
	}{
		{"valid", func(*NewTechnicalReport) {}, ""},
		{"bad email", func(r *NewTechnicalReport) { r.CustomerEmail = "marta" }, "customer_email"},
		{"unknown type", func(r *NewTechnicalReport) { r.ReportType = "RECALL" }, "report_type"},
		{"missing purpose", func(r *NewTechnicalReport) { r.Purpose = "" }, "purpose"},
		{"unknown priority", func(r *NewTechnicalReport) { r.Priority = "MAXIMA" }, "priority"},
		{"zero value", func(r *NewTechnicalReport) { r.Value = decimal.Zero }, "value"},
		{"missing location", func(r *NewTechnicalReport) { r.Location = "" }, "location"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			input := validReport()
			tc.mutate(&input)
			err := input.normalize(now)
			if tc.wantField == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if input.ReportType != "PERICIA" || input.Purpose != "JUDICIAL" || input.Priority != "MEDIA" {
					t.Fatalf("normalized = %s/%s/%s", input.ReportType, input.Purpose, input.Priority)
				}
				if input.CustomerEmail != "marta@example.com" {
					t.Fatalf("email = %q", input.CustomerEmail)
				}
				return
			}
			verr, ok := err.(*utils.ValidationError)
			if !ok {
				t.Fatalf("error = %v, want a validation error", err)
			}
			if verr.Field != tc.wantField {
				t.Fatalf("field = %q, want %q", verr.Field, tc.wantField)
			}
		})
	}
}

func TestTechnicalReportConclusionStampsAndReopenClears(t *testing.T) {
	now := time.Date(2024, 6, 15, 9, 0, 0, 0, time.UTC)
	done := "concluido"

	updates, err := (&TechnicalReportUpdate{Status: &done}).changes(&TechnicalReport{Status: ReportDrafting}, now)
	if err != nil {
		t.Fatalf("changes: %v", err)
	}
	if stamp, ok := updates["CompletedDate"].(*time.Time); !ok || !stamp.Equal(now) {
		t.Fatalf("completed date = %v", updates["CompletedDate"])
	}

	reopen := "EM_ANALISE"
	updates, err = (&TechnicalReportUpdate{Status: &reopen}).changes(&TechnicalReport{Status: ReportDone, CompletedDate: &now}, now)
	if err != nil {
		t.Fatalf("changes: %v", err)
	}
	if v, ok := updates["CompletedDate"]; !ok || v != nil {
		t.Fatalf("reopening must clear the completion date, got %v", v)
	}

	zero := decimal.Zero
	if _, err := (&TechnicalReportUpdate{Value: &zero}).changes(&TechnicalReport{}, now); !utils.IsValidationError(err) {
		t.Fatalf("err = %v, want validation error", err)
	}
}

func TestSummarizeReports(t *testing.T) {
	reports := []TechnicalReport{
		{Status: ReportRequested, Value: decimal.NewFromInt(100)},
		{Status: ReportAnalysis, Value: decimal.NewFromInt(200)},
		{Status: ReportField, Value: decimal.NewFromInt(300)},
		{Status: ReportDone, Value: decimal.NewFromInt(400)},
		{Status: ReportCancelled, Value: decimal.RequireFromString("33.33")},
	}
	stats := SummarizeReports(reports)
	if stats.Total != 5 || stats.InProgress != 2 || stats.Completed != 1 {
		t.Fatalf("stats = %+v", stats)
	}
	if !stats.AverageValue.Equal(decimal.RequireFromString("206.67")) {
		t.Fatalf("average = %s, want 206.67", stats.AverageValue)
	}
	if empty := SummarizeReports(nil); empty.Total != 0 || !empty.AverageValue.IsZero() {
		t.Fatalf("empty stats = %+v", empty)
	}
}
