package models_test

import (
	"errors"
	"testing"

	"github.com/despasys/despasys_backend/models"
	"github.com/despasys/despasys_backend/utils"
	"github.com/shopspring/decimal"
)

func TestEvaluationsAndReportsStayInTheirTenant(t *testing.T) {
	setupIntegration(t)

	ctxA, _ := seedTenant(t, "iota")
	ctxB, _ := seedTenant(t, "kappa")

	evaluation, err := models.CreateEvaluation(ctxA, &models.NewEvaluation{
		CustomerName:   "Rui",
		CustomerPhone:  "11987654321",
		VehicleBrand:   "Fiat",
		VehicleModel:   "Uno",
		VehicleYear:    2015,
		VehiclePlate:   "ABC1D23",
		EvaluationType: models.EvaluationBasic,
		Purpose:        "venda",
		Location:       "Centro",
	})
	if err != nil {
		t.Fatalf("CreateEvaluation: %v", err)
	}
	if evaluation.Status != models.EvaluationRequested {
		t.Fatalf("status = %s", evaluation.Status)
	}
	if _, err := models.GetEvaluation(ctxB, evaluation.ID); !errors.Is(err, utils.ErrorRecordNotFound) {
		t.Fatalf("cross-tenant GetEvaluation err = %v", err)
	}

	report, err := models.CreateTechnicalReport(ctxA, &models.NewTechnicalReport{
		CustomerName:  "Rui",
		CustomerPhone: "11987654321",
		VehicleBrand:  "Fiat",
		VehicleModel:  "Uno",
		VehicleYear:   2015,
		VehiclePlate:  "ABC1D23",
		ReportType:    "VISTORIA",
		Purpose:       "SEGURO",
		Value:         decimal.NewFromInt(300),
		Location:      "Centro",
	})
	if err != nil {
		t.Fatalf("CreateTechnicalReport: %v", err)
	}
	done := "CONCLUIDO"
	updated, err := models.UpdateTechnicalReport(ctxA, report.ID, &models.TechnicalReportUpdate{
		Status:   &done,
		Findings: []string{"pintura original"},
	})
	if err != nil {
		t.Fatalf("UpdateTechnicalReport: %v", err)
	}
	if updated.CompletedDate == nil {
		t.Fatalf("concluding a report must stamp completed_date")
	}
	fetched, err := models.GetTechnicalReport(ctxA, report.ID)
	if err != nil {
		t.Fatalf("GetTechnicalReport: %v", err)
	}
	if len(fetched.Findings) != 1 || fetched.Findings[0] != "pintura original" {
		t.Fatalf("findings = %v", fetched.Findings)
	}

	_, _, statsB, err := models.ListTechnicalReports(ctxB, models.TechnicalReportFilter{})
	if err != nil {
		t.Fatalf("ListTechnicalReports: %v", err)
	}
	if statsB.Total != 0 {
		t.Fatalf("other tenant sees %d reports", statsB.Total)
	}
	_, _, statsA, err := models.ListTechnicalReports(ctxA, models.TechnicalReportFilter{Status: "ALL"})
	if err != nil {
		t.Fatalf("ListTechnicalReports: %v", err)
	}
	if statsA.Total != 1 || statsA.Completed != 1 {
		t.Fatalf("stats = %+v", statsA)
	}
	if _, err := models.DeleteTechnicalReport(ctxB, report.ID); !errors.Is(err, utils.ErrorRecordNotFound) {
		t.Fatalf("cross-tenant delete err = %v", err)
	}
}

func TestNotificationsReachTargetAndBroadcast(t *testing.T) {
	setupIntegration(t)

	ctx, tenant := seedTenant(t, "lambda")
	admin, err := models.GetUserByEmail(ctx, "admin@lambda.test")
	if err != nil {
		t.Fatalf("GetUserByEmail: %v", err)
	}

	if _, err := models.CreateNotification(ctx, admin.ID, &models.NewNotification{Title: "Geral", Message: "Feriado"}); err != nil {
		t.Fatalf("broadcast: %v", err)
	}
	direct, err := models.CreateNotification(ctx, admin.ID, &models.NewNotification{Title: "Direta", Message: "Assinar", TargetUser: admin.ID})
	if err != nil {
		t.Fatalf("direct: %v", err)
	}
	if _, err := models.CreateNotification(ctx, admin.ID, &models.NewNotification{Title: "x", Message: "y", TargetUser: admin.ID + 1000}); !utils.IsValidationError(err) {
		t.Fatalf("unknown target err = %v", err)
	}

	list, _, err := models.ListNotifications(ctx, admin.ID, models.NotificationFilter{})
	if err != nil {
		t.Fatalf("ListNotifications: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("got %d notifications, want 2", len(list))
	}
	if _, _, err := models.ListNotifications(ctx, admin.ID+1, models.NotificationFilter{}); err != nil {
		t.Fatalf("ListNotifications for other user: %v", err)
	}
	if _, err := models.MarkNotificationRead(ctx, admin.ID+1, direct.ID); !errors.Is(err, utils.ErrorRecordNotFound) {
		t.Fatalf("another user's direct message err = %v", err)
	}

	read, err := models.MarkNotificationRead(ctx, admin.ID, direct.ID)
	if err != nil || !read.Read || read.ReadAt == nil {
		t.Fatalf("MarkNotificationRead = %+v, %v", read, err)
	}
	unread, _, err := models.ListNotifications(ctx, admin.ID, models.NotificationFilter{UnreadOnly: true})
	if err != nil {
		t.Fatalf("ListNotifications unread: %v", err)
	}
	if len(unread) != 1 || unread[0].Title != "Geral" {
		t.Fatalf("unread = %+v", unread)
	}

	found, err := models.GetTenantByDomain(ctx, " LAMBDA ")
	if err != nil {
		t.Fatalf("GetTenantByDomain: %v", err)
	}
	if view := found.View(); view.ID != tenant.ID || view.Status != "ACTIVE" {
		t.Fatalf("view = %+v", view)
	}
}
