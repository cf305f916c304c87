package models

import (
	"testing"
	"time"

	"github.com/despasys/despasys_backend/utils"
	"github.com/shopspring/decimal"
)

func validEvaluation() NewEvaluation {
	return NewEvaluation{
		CustomerName:   " Rui ",
		CustomerPhone:  "(11) 98765-4321",
		VehicleBrand:   "Fiat",
		VehicleModel:   "Uno",
		VehicleYear:    2015,
		VehiclePlate:   "abc-1d23",
		EvaluationType: "completa",
		Purpose:        "venda",
		Location:       "Centro",
	}
}

func TestEvaluationNormalize(t *testing.T) {
	now := time.Date(2024, 6, 15, 9, 0, 0, 0, time.UTC)
	negative := decimal.NewFromInt(-1)
	cases := []struct {
		name      string
		mutate    func(*NewEvaluation)
		wantField string
	}{
		{"valid", func(*NewEvaluation) {}, ""},
		{"missing phone", func(e *NewEvaluation) { e.CustomerPhone = "" }, "customer_phone"},
		{"bad phone", func(e *NewEvaluation) { e.CustomerPhone = "123" }, "customer_phone"},
		{"future year", func(e *NewEvaluation) { e.VehicleYear = 2026 }, "vehicle_year"},
		{"bad plate", func(e *NewEvaluation) { e.VehiclePlate = "AB12" }, "vehicle_plate"},
		{"unknown type", func(e *NewEvaluation) { e.EvaluationType = "RAPIDA" }, "evaluation_type"},
		{"missing location", func(e *NewEvaluation) { e.Location = " " }, "location"},
		{"negative estimate", func(e *NewEvaluation) { e.EstimatedValue = &negative }, "estimated_value"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			input := validEvaluation()
			tc.mutate(&input)
			err := input.normalize(now)
			if tc.wantField == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if input.CustomerName != "Rui" || input.VehiclePlate != "ABC1D23" || input.EvaluationType != EvaluationComplete || input.Purpose != "VENDA" {
					t.Fatalf("normalized = %+v", input)
				}
				if input.CustomerPhone != "+5511987654321" {
					t.Fatalf("phone = %q", input.CustomerPhone)
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

func TestEvaluationCompletionStampsDate(t *testing.T) {
	now := time.Date(2024, 6, 15, 9, 0, 0, 0, time.UTC)
	completed := EvaluationStatus("completed")

	updates, err := (&EvaluationUpdate{Status: &completed}).changes(&Evaluation{Status: EvaluationInProgress}, now)
	if err != nil {
		t.Fatalf("changes: %v", err)
	}
	if updates["Status"] != EvaluationCompleted {
		t.Fatalf("status = %v", updates["Status"])
	}
	if stamp, ok := updates["CompletedDate"].(*time.Time); !ok || !stamp.Equal(now) {
		t.Fatalf("completed date = %v", updates["CompletedDate"])
	}

	earlier := now.AddDate(0, 0, -2)
	updates, err = (&EvaluationUpdate{Status: &completed}).changes(&Evaluation{Status: EvaluationCompleted, CompletedDate: &earlier}, now)
	if err != nil {
		t.Fatalf("changes: %v", err)
	}
	if _, ok := updates["CompletedDate"]; ok {
		t.Fatalf("an existing completion date must be kept")
	}

	bogus := EvaluationStatus("ARCHIVED")
	if _, err := (&EvaluationUpdate{Status: &bogus}).changes(&Evaluation{}, now); !utils.IsValidationError(err) {
		t.Fatalf("err = %v, want validation error", err)
	}
}
