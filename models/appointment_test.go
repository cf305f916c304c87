package models

import (
	"testing"
	"time"

	"github.com/despasys/despasys_backend/utils"
)

func TestAppointmentNormalize(t *testing.T) {
	start := time.Date(2024, 6, 15, 9, 0, 0, 0, time.UTC)
	cases := []struct {
		name      string
		input     NewAppointment
		wantField string
	}{
		{"defaults", NewAppointment{Title: "Vistoria", StartTime: start, EndTime: start.Add(time.Hour)}, ""},
		{"end equals start", NewAppointment{Title: "Vistoria", StartTime: start, EndTime: start}, "end_time"},
		{"end before start", NewAppointment{Title: "Vistoria", StartTime: start, EndTime: start.Add(-time.Minute)}, "end_time"},
		{"missing title", NewAppointment{Title: "  ", StartTime: start, EndTime: start.Add(time.Hour)}, "title"},
		{"bad type", NewAppointment{Title: "x", AppointmentType: "VIDEO", StartTime: start, EndTime: start.Add(time.Hour)}, "appointment_type"},
		{"bad status", NewAppointment{Title: "x", Status: "DONE", StartTime: start, EndTime: start.Add(time.Hour)}, "status"},
		{"bad service", NewAppointment{Title: "x", ServiceType: "lavagem", StartTime: start, EndTime: start.Add(time.Hour)}, "service_type"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			input := tc.input
			_, err := input.normalize()
			if tc.wantField == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if input.AppointmentType != AppointmentInPerson || input.Status != AppointmentScheduled {
					t.Fatalf("defaults = %s/%s", input.AppointmentType, input.Status)
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

func TestAppointmentNormalizeServiceLabel(t *testing.T) {
	start := time.Date(2024, 6, 15, 9, 0, 0, 0, time.UTC)
	input := NewAppointment{Title: "x", ServiceType: "Licenciamento", AppointmentType: "online", StartTime: start, EndTime: start.Add(time.Hour)}
	st, err := input.normalize()
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if st != ServiceTypeLicensing || input.AppointmentType != AppointmentOnline {
		t.Fatalf("service = %s, type = %s", st, input.AppointmentType)
	}
}
