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

type EvaluationType string

const (
	EvaluationComplete EvaluationType = "COMPLETA"
	EvaluationBasic    EvaluationType = "BASICA"
	EvaluationReport   EvaluationType = "LAUDO"
	EvaluationExpert   EvaluationType = "PERICIA"
)

type EvaluationStatus string

const (
	EvaluationRequested  EvaluationStatus = "REQUESTED"
	EvaluationScheduled  EvaluationStatus = "SCHEDULED"
	EvaluationInProgress EvaluationStatus = "IN_PROGRESS"
	EvaluationCompleted  EvaluationStatus = "COMPLETED"
	EvaluationCancelled  EvaluationStatus = "CANCELLED"
)

// Evaluation is a vehicle appraisal request. The customer link is optional;
// walk-in requests only carry a name and phone.
type Evaluation struct {
	ID             int              `gorm:"primary_key" json:"id"`
	TenantId       string           `gorm:"size:36;not null;index" json:"tenant_id"`
	CustomerId     int              `gorm:"index;not null;default:0" json:"customer_id,omitempty"`
	CustomerName   string           `gorm:"size:150;not null" json:"customer_name"`
	CustomerPhone  string           `gorm:"size:20;not null" json:"customer_phone"`
	VehicleBrand   string           `gorm:"size:60;not null" json:"vehicle_brand"`
	VehicleModel   string           `gorm:"size:100;not null" json:"vehicle_model"`
	VehicleYear    int              `gorm:"not null" json:"vehicle_year"`
	VehiclePlate   string           `gorm:"size:8;not null;index" json:"vehicle_plate"`
	EvaluationType EvaluationType   `gorm:"size:12;not null" json:"evaluation_type"`
	Purpose        string           `gorm:"size:60;not null" json:"purpose"`
	Location       string           `gorm:"size:150;not null" json:"location"`
	EstimatedValue *decimal.Decimal `gorm:"type:decimal(20,4)" json:"estimated_value"`
	FinalValue     *decimal.Decimal `gorm:"type:decimal(20,4)" json:"final_value"`
	Status         EvaluationStatus `gorm:"size:12;not null;index" json:"status"`
	RequestedDate  time.Time        `gorm:"not null;index" json:"requested_date"`
	ScheduledDate  *time.Time       `json:"scheduled_date"`
	CompletedDate  *time.Time       `json:"completed_date"`
	Observations   string           `gorm:"type:text" json:"observations"`
	CreatedAt      time.Time        `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time        `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewEvaluation struct {
	CustomerId     int              `json:"customer_id"`
	CustomerName   string           `json:"customer_name"`
	CustomerPhone  string           `json:"customer_phone"`
	VehicleBrand   string           `json:"vehicle_brand"`
	VehicleModel   string           `json:"vehicle_model"`
	VehicleYear    int              `json:"vehicle_year"`
	VehiclePlate   string           `json:"vehicle_plate"`
	EvaluationType EvaluationType   `json:"evaluation_type"`
	Purpose        string           `json:"purpose"`
	Location       string           `json:"location"`
	EstimatedValue *decimal.Decimal `json:"estimated_value"`
	Observations   string           `json:"observations"`
}

// EvaluationUpdate is partial: nil fields are left alone.
type EvaluationUpdate struct {
	Status         *EvaluationStatus `json:"status"`
	ScheduledDate  *time.Time        `json:"scheduled_date"`
	CompletedDate  *time.Time        `json:"completed_date"`
	EstimatedValue *decimal.Decimal  `json:"estimated_value"`
	FinalValue     *decimal.Decimal  `json:"final_value"`
	Observations   *string           `json:"observations"`
}

type EvaluationFilter struct {
	Status string `form:"status"`
	Search string `form:"search"`
	Page
}

func (t EvaluationType) IsValid() bool {
	switch t {
	case EvaluationComplete, EvaluationBasic, EvaluationReport, EvaluationExpert:
		return true
	}
	return false
}

func ParseEvaluationStatus(raw string) (EvaluationStatus, error) {
	s := EvaluationStatus(strings.ToUpper(strings.TrimSpace(raw)))
	switch s {
	case EvaluationRequested, EvaluationScheduled, EvaluationInProgress, EvaluationCompleted, EvaluationCancelled:
		return s, nil
	}
	return "", utils.NewValidationError("status", fmt.Sprintf("invalid evaluation status %q", raw))
}

func validateOptionalMoney(field string, v *decimal.Decimal) error {
	if v != nil && v.IsNegative() {
		return utils.NewValidationError(field, field+" must not be negative")
	}
	return nil
}

func (input *NewEvaluation) normalize(now time.Time) error {
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

	input.EvaluationType = EvaluationType(strings.ToUpper(strings.TrimSpace(string(input.EvaluationType))))
	if input.EvaluationType == "" {
		return utils.RequiredField("evaluation_type")
	}
	if !input.EvaluationType.IsValid() {
		return utils.NewValidationError("evaluation_type", fmt.Sprintf("invalid evaluation type %q", input.EvaluationType))
	}
	input.Purpose = strings.ToUpper(strings.TrimSpace(input.Purpose))
	if input.Purpose == "" {
		return utils.RequiredField("purpose")
	}
	input.Location = strings.TrimSpace(input.Location)
	if input.Location == "" {
		return utils.RequiredField("location")
	}
	return validateOptionalMoney("estimated_value", input.EstimatedValue)
}

// changes turns a partial update into columns. COMPLETED stamps completed_date
// when the caller did not send one.
func (input *EvaluationUpdate) changes(current *Evaluation, now time.Time) (map[string]interface{}, error) {
	updates := map[string]interface{}{}
	if input.Status != nil {
		status, err := ParseEvaluationStatus(string(*input.Status))
		if err != nil {
			return nil, err
		}
		updates["Status"] = status
		if status == EvaluationCompleted && input.CompletedDate == nil && current.CompletedDate == nil {
			updates["CompletedDate"] = &now
		}
	}
	if input.ScheduledDate != nil {
		updates["ScheduledDate"] = input.ScheduledDate
	}
	if input.CompletedDate != nil {
		updates["CompletedDate"] = input.CompletedDate
	}
	if input.EstimatedValue != nil {
		if err := validateOptionalMoney("estimated_value", input.EstimatedValue); err != nil {
			return nil, err
		}
		updates["EstimatedValue"] = input.EstimatedValue
	}
	if input.FinalValue != nil {
		if err := validateOptionalMoney("final_value", input.FinalValue); err != nil {
			return nil, err
		}
		updates["FinalValue"] = input.FinalValue
	}
	if input.Observations != nil {
		updates["Observations"] = *input.Observations
	}
	return updates, nil
}

func CreateEvaluation(ctx context.Context, input *NewEvaluation) (*Evaluation, error) {
	tenantId, err := utils.RequireTenantId(ctx)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	if err := input.normalize(now); err != nil {
		return nil, err
	}
	if input.CustomerId != 0 {
		if err := utils.ValidateReference[Customer](ctx, tenantId, "customer_id", "customer", input.CustomerId); err != nil {
			return nil, err
		}
	}
	evaluation := Evaluation{
		TenantId:       tenantId,
		CustomerId:     input.CustomerId,
		CustomerName:   input.CustomerName,
		CustomerPhone:  input.CustomerPhone,
		VehicleBrand:   input.VehicleBrand,
		VehicleModel:   input.VehicleModel,
		VehicleYear:    input.VehicleYear,
		VehiclePlate:   input.VehiclePlate,
		EvaluationType: input.EvaluationType,
		Purpose:        input.Purpose,
		Location:       input.Location,
		EstimatedValue: input.EstimatedValue,
		Status:         EvaluationRequested,
		RequestedDate:  now,
		Observations:   input.Observations,
	}

	tx := config.GetDB().WithContext(ctx).Begin()
	if err := tx.Create(&evaluation).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := createHistory(tx, HistoryActionCreate, evaluation.ID, "evaluations", nil, evaluation, "Evaluation requested: "+evaluation.VehiclePlate); err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	return &evaluation, nil
}

func UpdateEvaluation(ctx context.Context, id int, input *EvaluationUpdate) (*Evaluation, error) {
	tenantId, err := utils.RequireTenantId(ctx)
	if err != nil {
		return nil, err
	}
	evaluation, err := utils.FetchModel[Evaluation](ctx, tenantId, id)
	if err != nil {
		return nil, err
	}
	updates, err := input.changes(evaluation, time.Now())
	if err != nil {
		return nil, err
	}
	if len(updates) == 0 {
		return evaluation, nil
	}
	before := *evaluation

	tx := config.GetDB().WithContext(ctx).Begin()
	if err := tx.Model(evaluation).Updates(updates).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := createHistory(tx, HistoryActionUpdate, id, "evaluations", before, evaluation, "Evaluation updated: "+evaluation.VehiclePlate); err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	forgetResource[Evaluation](tenantId, id)
	return evaluation, nil
}

func DeleteEvaluation(ctx context.Context, id int) (*Evaluation, error) {
	tenantId, err := utils.RequireTenantId(ctx)
	if err != nil {
		return nil, err
	}
	evaluation, err := utils.FetchModel[Evaluation](ctx, tenantId, id)
	if err != nil {
		return nil, err
	}
	tx := config.GetDB().WithContext(ctx).Begin()
	if err := tx.Where("tenant_id = ?", tenantId).Delete(&Evaluation{}, id).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := createHistory(tx, HistoryActionDelete, id, "evaluations", evaluation, nil, "Evaluation removed: "+evaluation.VehiclePlate); err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	forgetResource[Evaluation](tenantId, id)
	return evaluation, nil
}

func GetEvaluation(ctx context.Context, id int) (*Evaluation, error) {
	return GetResource[Evaluation](ctx, id)
}

// ListEvaluations is newest request first.
func ListEvaluations(ctx context.Context, filter EvaluationFilter) ([]*Evaluation, PageInfo, error) {
	tenantId, err := utils.RequireTenantId(ctx)
	if err != nil {
		return nil, PageInfo{}, err
	}
	var status EvaluationStatus
	if s := strings.TrimSpace(filter.Status); s != "" && !strings.EqualFold(s, "ALL") {
		if status, err = ParseEvaluationStatus(s); err != nil {
			return nil, PageInfo{}, err
		}
	}
	var (
		results []*Evaluation
		total   int64
	)
	err = utils.RetryRead(ctx, func() error {
		results = nil
		dbCtx := config.GetDB().WithContext(ctx).Model(&Evaluation{}).Where("tenant_id = ?", tenantId)
		if status != "" {
			dbCtx = dbCtx.Where("status = ?", status)
		}
		if s := strings.TrimSpace(filter.Search); s != "" {
			like := "%" + s + "%"
			dbCtx = dbCtx.Where("customer_name LIKE ? OR vehicle_plate LIKE ? OR vehicle_model LIKE ?", like, "%"+NormalizePlate(s)+"%", like)
		}
		if err := dbCtx.Count(&total).Error; err != nil {
			return err
		}
		return filter.Page.apply(dbCtx).Order("requested_date desc").Order("id desc").Find(&results).Error
	})
	if err != nil {
		return nil, PageInfo{}, err
	}
	return results, NewPageInfo(filter.Page, total), nil
}
