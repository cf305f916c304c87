package models

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/despasys/despasys_backend/config"
	"github.com/despasys/despasys_backend/utils"
	"github.com/shopspring/decimal"
)

type ReportStatus string

const (
	ReportRequested ReportStatus = "SOLICITADO"
	ReportAnalysis  ReportStatus = "EM_ANALISE"
	ReportField     ReportStatus = "EM_CAMPO"
	ReportDrafting  ReportStatus = "ELABORANDO"
	ReportDone      ReportStatus = "CONCLUIDO"
	ReportCancelled ReportStatus = "CANCELADO"
)

var reportStatuses = []ReportStatus{ReportRequested, ReportAnalysis, ReportField, ReportDrafting, ReportDone, ReportCancelled}

var (
	reportTypes      = []string{"VISTORIA", "PERICIA", "AVALIACAO", "SINISTRO", "TRANSFERENCIA"}
	reportPurposes   = []string{"COMPRA", "VENDA", "SEGURO", "FINANCIAMENTO", "JUDICIAL", "ADMINISTRATIVO"}
	reportPriorities = []string{"BAIXA", "MEDIA", "ALTA", "URGENTE"}
)

const defaultReportPriority = "MEDIA"

// TechnicalReport is a laudo: an inspection or expert report on one vehicle.
type TechnicalReport struct {
	ID              int             `gorm:"primary_key" json:"id"`
	TenantId        string          `gorm:"size:36;not null;index" json:"tenant_id"`
	CustomerName    string          `gorm:"size:150;not null" json:"customer_name"`
	CustomerPhone   string          `gorm:"size:20;not null" json:"customer_phone"`
	CustomerEmail   string          `gorm:"size:100" json:"customer_email,omitempty"`
	VehicleBrand    string          `gorm:"size:60;not null" json:"vehicle_brand"`
	VehicleModel    string          `gorm:"size:100;not null" json:"vehicle_model"`
	VehicleYear     int             `gorm:"not null" json:"vehicle_year"`
	VehiclePlate    string          `gorm:"size:8;not null;index" json:"vehicle_plate"`
	ChassisNumber   string          `gorm:"size:17" json:"chassis_number,omitempty"`
	ReportType      string          `gorm:"size:20;not null;index" json:"report_type"`
	Purpose         string          `gorm:"size:20;not null" json:"purpose"`
	Status          ReportStatus    `gorm:"size:12;not null;index" json:"status"`
	Priority        string          `gorm:"size:10;not null;index" json:"priority"`
	Value           decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"value"`
	Location        string          `gorm:"size:150;not null" json:"location"`
	RequestedDate   time.Time       `gorm:"not null;index" json:"requested_date"`
	ScheduledDate   *time.Time      `json:"scheduled_date"`
	CompletedDate   *time.Time      `json:"completed_date"`
	Findings        []string        `gorm:"serializer:json;type:text" json:"findings"`
	Conclusion      string          `gorm:"type:text" json:"conclusion"`
	Recommendations []string        `gorm:"serializer:json;type:text" json:"recommendations"`
	Attachments     []string        `gorm:"serializer:json;type:text" json:"attachments"`
	Notes           string          `gorm:"type:text" json:"notes"`
	CreatedAt       time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewTechnicalReport struct {
	CustomerName  string          `json:"customer_name"`
	CustomerPhone string          `json:"customer_phone"`
	CustomerEmail string          `json:"customer_email"`
	VehicleBrand  string          `json:"vehicle_brand"`
	VehicleModel  string          `json:"vehicle_model"`
	VehicleYear   int             `json:"vehicle_year"`
	VehiclePlate  string          `json:"vehicle_plate"`
	ChassisNumber string          `json:"chassis_number"`
	ReportType    string          `json:"report_type"`
	Purpose       string          `json:"purpose"`
	Priority      string          `json:"priority"`
	Value         decimal.Decimal `json:"value"`
	Location      string          `json:"location"`
	ScheduledDate *time.Time      `json:"scheduled_date"`
	Notes         string          `json:"notes"`
}

// TechnicalReportUpdate is partial. ClearSchedule drops the scheduled date.
type TechnicalReportUpdate struct {
	Status          *string          `json:"status"`
	ScheduledDate   *time.Time       `json:"scheduled_date"`
	ClearSchedule   bool             `json:"clear_schedule"`
	Findings        []string         `json:"findings"`
	Conclusion      *string          `json:"conclusion"`
	Recommendations []string         `json:"recommendations"`
	Attachments     []string         `json:"attachments"`
	Notes           *string          `json:"notes"`
	Priority        *string          `json:"priority"`
	Value           *decimal.Decimal `json:"value"`
}

type TechnicalReportFilter struct {
	Status     string `form:"status"`
	ReportType string `form:"report_type"`
	Priority   string `form:"priority"`
	Page
}

// ReportStats is computed over every report of the tenant, not the filtered page.
type ReportStats struct {
	Total        int             `json:"total"`
	InProgress   int             `json:"in_progress"`
	Completed    int             `json:"completed"`
	AverageValue decimal.Decimal `json:"average_value"`
}

func oneOf(field string, raw string, allowed []string) (string, error) {
	v := strings.ToUpper(strings.TrimSpace(raw))
	for _, a := range allowed {
		if v == a {
			return v, nil
		}
	}
	return "", utils.NewValidationError(field, fmt.Sprintf("invalid %s %q", field, raw))
}

func ParseReportStatus(raw string) (ReportStatus, error) {
	v := ReportStatus(strings.ToUpper(strings.TrimSpace(raw)))
	for _, s := range reportStatuses {
		if v == s {
			return v, nil
		}
	}
	return "", utils.NewValidationError("status", fmt.Sprintf("invalid report status %q", raw))
}

// IsOpen reports a laudo somebody is working on.
func (s ReportStatus) IsOpen() bool {
	return s == ReportAnalysis || s == ReportField || s == ReportDrafting
}

func (input *NewTechnicalReport) normalize(now time.Time) error {
	input.CustomerName = strings.TrimSpace(input.CustomerName)
	if input.CustomerName == "" {
		return utils.RequiredField("customer_name")
	}
	if strings.TrimSpace(input.CustomerPhone) == "" {
		return utils.RequiredField("customer_phone")
	}
	phone, err := utils.NormalizePhone(input.CustomerPhone)
	if err != nil {
		return utils.NewValidationError("customer_phone", "invalid phone number")
	}
	input.CustomerPhone = phone
	input.CustomerEmail = strings.ToLower(strings.TrimSpace(input.CustomerEmail))
	if input.CustomerEmail != "" && !utils.IsValidEmail(input.CustomerEmail) {
		return utils.NewValidationError("customer_email", "invalid email address")
	}

	input.VehicleBrand = strings.TrimSpace(input.VehicleBrand)
	if input.VehicleBrand == "" {
		return utils.RequiredField("vehicle_brand")
	}
	input.VehicleModel = strings.TrimSpace(input.VehicleModel)
	if input.VehicleModel == "" {
		return utils.RequiredField("vehicle_model")
	}
	if input.VehicleYear == 0 {
		return utils.RequiredField("vehicle_year")
	}
	if input.VehicleYear < 1900 || input.VehicleYear > now.Year()+1 {
		return utils.NewValidationError("vehicle_year", "invalid year")
	}
	input.VehiclePlate = NormalizePlate(input.VehiclePlate)
	if input.VehiclePlate == "" {
		return utils.RequiredField("vehicle_plate")
	}
	if !platePattern.MatchString(input.VehiclePlate) {
		return utils.NewValidationError("vehicle_plate", fmt.Sprintf("invalid plate %q", input.VehiclePlate))
	}
	input.ChassisNumber = strings.ToUpper(strings.TrimSpace(input.ChassisNumber))

	if strings.TrimSpace(input.ReportType) == "" {
		return utils.RequiredField("report_type")
	}
	if input.ReportType, err = oneOf("report_type", input.ReportType, reportTypes); err != nil {
		return err
	}
	if strings.TrimSpace(input.Purpose) == "" {
		return utils.RequiredField("purpose")
	}
	if input.Purpose, err = oneOf("purpose", input.Purpose, reportPurposes); err != nil {
		return err
	}
	if strings.TrimSpace(input.Priority) == "" {
		input.Priority = defaultReportPriority
	}
	if input.Priority, err = oneOf("priority", input.Priority, reportPriorities); err != nil {
		return err
	}
	if !input.Value.IsPositive() {
		return utils.NewValidationError("value", "value must be greater than zero")
	}
	input.Location = strings.TrimSpace(input.Location)
	if input.Location == "" {
		return utils.RequiredField("location")
	}
	return nil
}

// changes turns a partial update into columns. Moving to CONCLUIDO stamps
// completed_date; leaving it clears the stamp.
func (input *TechnicalReportUpdate) changes(current *TechnicalReport, now time.Time) (map[string]interface{}, error) {
	updates := map[string]interface{}{}
	if input.Status != nil {
		status, err := ParseReportStatus(*input.Status)
		if err != nil {
			return nil, err
		}
		updates["Status"] = status
		switch {
		case status == ReportDone && current.Status != ReportDone:
			updates["CompletedDate"] = &now
		case status != ReportDone && current.CompletedDate != nil:
			updates["CompletedDate"] = nil
		}
	}
	if input.ClearSchedule {
		updates["ScheduledDate"] = nil
	} else if input.ScheduledDate != nil {
		updates["ScheduledDate"] = input.ScheduledDate
	}
	if input.Findings != nil {
		updates["Findings"] = input.Findings
	}
	if input.Conclusion != nil {
		updates["Conclusion"] = *input.Conclusion
	}
	if input.Recommendations != nil {
		updates["Recommendations"] = input.Recommendations
	}
	if input.Attachments != nil {
		updates["Attachments"] = input.Attachments
	}
	if input.Notes != nil {
		updates["Notes"] = *input.Notes
	}
	if input.Priority != nil {
		priority, err := oneOf("priority", *input.Priority, reportPriorities)
		if err != nil {
			return nil, err
		}
		updates["Priority"] = priority
	}
	if input.Value != nil {
		if !input.Value.IsPositive() {
			return nil, utils.NewValidationError("value", "value must be greater than zero")
		}
		updates["Value"] = *input.Value
	}
	return updates, nil
}

// SummarizeReports counts open and finished laudos and averages their value.
func SummarizeReports(reports []TechnicalReport) ReportStats {
	stats := ReportStats{AverageValue: decimal.Zero}
	total := decimal.Zero
	for _, r := range reports {
		stats.Total++
		total = total.Add(r.Value)
		switch {
		case r.Status.IsOpen():
			stats.InProgress++
		case r.Status == ReportDone:
			stats.Completed++
		}
	}
	if stats.Total > 0 {
		stats.AverageValue = total.Div(decimal.NewFromInt(int64(stats.Total))).Round(2)
	}
	return stats
}

func CreateTechnicalReport(ctx context.Context, input *NewTechnicalReport) (*TechnicalReport, error) {
	tenantId, err := utils.RequireTenantId(ctx)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	if err := input.normalize(now); err != nil {
		return nil, err
	}
	report := TechnicalReport{
		TenantId:        tenantId,
		CustomerName:    input.CustomerName,
		CustomerPhone:   input.CustomerPhone,
		CustomerEmail:   input.CustomerEmail,
		VehicleBrand:    input.VehicleBrand,
		VehicleModel:    input.VehicleModel,
		VehicleYear:     input.VehicleYear,
		VehiclePlate:    input.VehiclePlate,
		ChassisNumber:   input.ChassisNumber,
		ReportType:      input.ReportType,
		Purpose:         input.Purpose,
		Status:          ReportRequested,
		Priority:        input.Priority,
		Value:           input.Value,
		Location:        input.Location,
		RequestedDate:   now,
		ScheduledDate:   input.ScheduledDate,
		Findings:        []string{},
		Recommendations: []string{},
		Attachments:     []string{},
		Notes:           input.Notes,
	}

	tx := config.GetDB().WithContext(ctx).Begin()
	if err := tx.Create(&report).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := createHistory(tx, HistoryActionCreate, report.ID, "technical_reports", nil, report, "Report requested: "+report.VehiclePlate); err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	return &report, nil
}

func UpdateTechnicalReport(ctx context.Context, id int, input *TechnicalReportUpdate) (*TechnicalReport, error) {
	tenantId, err := utils.RequireTenantId(ctx)
	if err != nil {
		return nil, err
	}
	report, err := utils.FetchModel[TechnicalReport](ctx, tenantId, id)
	if err != nil {
		return nil, err
	}
	updates, err := input.changes(report, time.Now())
	if err != nil {
		return nil, err
	}
	if len(updates) == 0 {
		return report, nil
	}
	before := *report

	tx := config.GetDB().WithContext(ctx).Begin()
	if err := tx.Model(report).Updates(updates).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := createHistory(tx, HistoryActionUpdate, id, "technical_reports", before, report, "Report updated: "+report.VehiclePlate); err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	forgetResource[TechnicalReport](tenantId, id)
	return report, nil
}

func DeleteTechnicalReport(ctx context.Context, id int) (*TechnicalReport, error) {
	tenantId, err := utils.RequireTenantId(ctx)
	if err != nil {
		return nil, err
	}
	report, err := utils.FetchModel[TechnicalReport](ctx, tenantId, id)
	if err != nil {
		return nil, err
	}
	tx := config.GetDB().WithContext(ctx).Begin()
	if err := tx.Where("tenant_id = ?", tenantId).Delete(&TechnicalReport{}, id).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := createHistory(tx, HistoryActionDelete, id, "technical_reports", report, nil, "Report removed: "+report.VehiclePlate); err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	forgetResource[TechnicalReport](tenantId, id)
	return report, nil
}

func GetTechnicalReport(ctx context.Context, id int) (*TechnicalReport, error) {
	return GetResource[TechnicalReport](ctx, id)
}

// ListTechnicalReports returns one filtered page plus stats over all of the tenant's reports.
func ListTechnicalReports(ctx context.Context, filter TechnicalReportFilter) ([]*TechnicalReport, PageInfo, ReportStats, error) {
	tenantId, err := utils.RequireTenantId(ctx)
	if err != nil {
		return nil, PageInfo{}, ReportStats{}, err
	}
	conds := map[string]interface{}{}
	if s := strings.TrimSpace(filter.Status); s != "" && !strings.EqualFold(s, "ALL") {
		status, err := ParseReportStatus(s)
		if err != nil {
			return nil, PageInfo{}, ReportStats{}, err
		}
		conds["status"] = status
	}
	if s := strings.TrimSpace(filter.ReportType); s != "" && !strings.EqualFold(s, "ALL") {
		v, err := oneOf("report_type", s, reportTypes)
		if err != nil {
			return nil, PageInfo{}, ReportStats{}, err
		}
		conds["report_type"] = v
	}
	if s := strings.TrimSpace(filter.Priority); s != "" && !strings.EqualFold(s, "ALL") {
		v, err := oneOf("priority", s, reportPriorities)
		if err != nil {
			return nil, PageInfo{}, ReportStats{}, err
		}
		conds["priority"] = v
	}

	var (
		all     []TechnicalReport
		results []*TechnicalReport
		total   int64
	)
	err = utils.RetryRead(ctx, func() error {
		all, results = nil, nil
		if err := config.GetDB().WithContext(ctx).Select("status", "value").
			Where("tenant_id = ?", tenantId).Find(&all).Error; err != nil {
			return err
		}
		dbCtx := config.GetDB().WithContext(ctx).Model(&TechnicalReport{}).Where("tenant_id = ?", tenantId)
		if len(conds) > 0 {
			dbCtx = dbCtx.Where(conds)
		}
		if err := dbCtx.Count(&total).Error; err != nil {
			return err
		}
		return filter.Page.apply(dbCtx).Order("requested_date desc").Order("id desc").Find(&results).Error
	})
	if err != nil {
		return nil, PageInfo{}, ReportStats{}, err
	}
	return results, NewPageInfo(filter.Page, total), SummarizeReports(all), nil
}
