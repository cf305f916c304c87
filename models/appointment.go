package models

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/despasys/despasys_backend/config"
	"github.com/despasys/despasys_backend/utils"
)

type AppointmentType string

const (
	AppointmentInPerson AppointmentType = "PRESENCIAL"
	AppointmentOnline   AppointmentType = "ONLINE"
	AppointmentPhone    AppointmentType = "TELEFONE"
)

type AppointmentStatus string

const (
	AppointmentScheduled AppointmentStatus = "SCHEDULED"
	AppointmentConfirmed AppointmentStatus = "CONFIRMED"
	AppointmentCompleted AppointmentStatus = "COMPLETED"
	AppointmentCancelled AppointmentStatus = "CANCELLED"
	AppointmentNoShow    AppointmentStatus = "NO_SHOW"
)

type Appointment struct {
	ID              int               `gorm:"primary_key" json:"id"`
	TenantId        string            `gorm:"size:36;not null;index" json:"tenant_id"`
	CustomerId      int               `gorm:"index;not null" json:"customer_id"`
	Title           string            `gorm:"size:150;not null" json:"title"`
	Description     string            `gorm:"type:text" json:"description"`
	ServiceType     ServiceType       `gorm:"size:40" json:"service_type"`
	AppointmentType AppointmentType   `gorm:"size:20;not null;default:PRESENCIAL" json:"appointment_type"`
	StartTime       time.Time         `gorm:"not null;index" json:"start_time"`
	EndTime         time.Time         `gorm:"not null" json:"end_time"`
	Status          AppointmentStatus `gorm:"size:20;not null;default:SCHEDULED;index" json:"status"`
	Notes           string            `gorm:"type:text" json:"notes"`
	CreatedAt       time.Time         `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time         `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewAppointment struct {
	CustomerId      int               `json:"customer_id" binding:"required"`
	Title           string            `json:"title" binding:"required"`
	Description     string            `json:"description"`
	ServiceType     string            `json:"service_type"`
	AppointmentType AppointmentType   `json:"appointment_type"`
	StartTime       time.Time         `json:"start_time" binding:"required"`
	EndTime         time.Time         `json:"end_time" binding:"required"`
	Status          AppointmentStatus `json:"status"`
	Notes           string            `json:"notes"`
}

type AppointmentFilter struct {
	CustomerId int               `form:"customer_id"`
	Status     AppointmentStatus `form:"status"`
	From       *time.Time        `form:"from" time_format:"2006-01-02"`
	To         *time.Time        `form:"to" time_format:"2006-01-02"`
	Page
}

func (t AppointmentType) IsValid() bool {
	switch t {
	case AppointmentInPerson, AppointmentOnline, AppointmentPhone:
		return true
	}
	return false
}

func (s AppointmentStatus) IsValid() bool {
	switch s {
	case AppointmentScheduled, AppointmentConfirmed, AppointmentCompleted, AppointmentCancelled, AppointmentNoShow:
		return true
	}
	return false
}

// normalize applies defaults and checks everything that does not need the database.
func (input *NewAppointment) normalize() (ServiceType, error) {
	input.Title = strings.TrimSpace(input.Title)
	if input.Title == "" {
		return "", utils.RequiredField("title")
	}
	input.AppointmentType = AppointmentType(strings.ToUpper(strings.TrimSpace(string(input.AppointmentType))))
	if input.AppointmentType == "" {
		input.AppointmentType = AppointmentInPerson
	}
	if !input.AppointmentType.IsValid() {
		return "", utils.NewValidationError("appointment_type", fmt.Sprintf("invalid appointment type %q", input.AppointmentType))
	}
	input.Status = AppointmentStatus(strings.ToUpper(strings.TrimSpace(string(input.Status))))
	if input.Status == "" {
		input.Status = AppointmentScheduled
	}
	if !input.Status.IsValid() {
		return "", utils.NewValidationError("status", fmt.Sprintf("invalid appointment status %q", input.Status))
	}
	if input.StartTime.IsZero() {
		return "", utils.RequiredField("start_time")
	}
	if !input.EndTime.After(input.StartTime) {
		return "", utils.NewValidationError("end_time", "end_time must be after start_time")
	}
	var serviceType ServiceType
	if strings.TrimSpace(input.ServiceType) != "" {
		st, err := ParseServiceType(input.ServiceType)
		if err != nil {
			return "", err
		}
		serviceType = st
	}
	return serviceType, nil
}

func (input *NewAppointment) validate(ctx context.Context, tenantId string, id int) (ServiceType, error) {
	if id > 0 {
		if err := utils.ValidateResourceId[Appointment](ctx, tenantId, id); err != nil {
			return "", err
		}
	}
	serviceType, err := input.normalize()
	if err != nil {
		return "", err
	}
	if err := utils.ValidateReference[Customer](ctx, tenantId, "customer_id", "customer", input.CustomerId); err != nil {
		return "", err
	}
	return serviceType, nil
}

func CreateAppointment(ctx context.Context, input *NewAppointment) (*Appointment, error) {
	tenantId, err := utils.RequireTenantId(ctx)
	if err != nil {
		return nil, err
	}
	serviceType, err := input.validate(ctx, tenantId, 0)
	if err != nil {
		return nil, err
	}
	appointment := Appointment{
		TenantId:        tenantId,
		CustomerId:      input.CustomerId,
		Title:           input.Title,
		Description:     input.Description,
		ServiceType:     serviceType,
		AppointmentType: input.AppointmentType,
		StartTime:       input.StartTime,
		EndTime:         input.EndTime,
		Status:          input.Status,
		Notes:           input.Notes,
	}

	tx := config.GetDB().WithContext(ctx).Begin()
	if err := tx.Create(&appointment).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := createHistory(tx, HistoryActionCreate, appointment.ID, "appointments", nil, appointment, "Appointment created: "+appointment.Title); err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	return &appointment, nil
}

func UpdateAppointment(ctx context.Context, id int, input *NewAppointment) (*Appointment, error) {
	tenantId, err := utils.RequireTenantId(ctx)
	if err != nil {
		return nil, err
	}
	serviceType, err := input.validate(ctx, tenantId, id)
	if err != nil {
		return nil, err
	}
	appointment, err := utils.FetchModel[Appointment](ctx, tenantId, id)
	if err != nil {
		return nil, err
	}
	before := *appointment

	tx := config.GetDB().WithContext(ctx).Begin()
	err = tx.Model(appointment).Updates(map[string]interface{}{
		"CustomerId":      input.CustomerId,
		"Title":           input.Title,
		"Description":     input.Description,
		"ServiceType":     serviceType,
		"AppointmentType": input.AppointmentType,
		"StartTime":       input.StartTime,
		"EndTime":         input.EndTime,
		"Status":          input.Status,
		"Notes":           input.Notes,
	}).Error
	if err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := createHistory(tx, HistoryActionUpdate, id, "appointments", before, appointment, "Appointment updated: "+appointment.Title); err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	return appointment, nil
}

// CancelAppointment is the delete operation; the row stays for the agenda history.
func CancelAppointment(ctx context.Context, id int) (*Appointment, error) {
	tenantId, err := utils.RequireTenantId(ctx)
	if err != nil {
		return nil, err
	}
	appointment, err := utils.FetchModel[Appointment](ctx, tenantId, id)
	if err != nil {
		return nil, err
	}
	tx := config.GetDB().WithContext(ctx).Begin()
	if err := tx.Model(appointment).Update("Status", AppointmentCancelled).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := createHistory(tx, HistoryActionDelete, id, "appointments", nil, nil, "Appointment cancelled: "+appointment.Title); err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	return appointment, nil
}

func GetAppointment(ctx context.Context, id int) (*Appointment, error) {
	tenantId, err := utils.RequireTenantId(ctx)
	if err != nil {
		return nil, err
	}
	return utils.FetchModel[Appointment](ctx, tenantId, id)
}

func ListAppointments(ctx context.Context, filter AppointmentFilter) ([]*Appointment, PageInfo, error) {
	tenantId, err := utils.RequireTenantId(ctx)
	if err != nil {
		return nil, PageInfo{}, err
	}
	var (
		results []*Appointment
		total   int64
	)
	err = utils.RetryRead(ctx, func() error {
		results = nil
		dbCtx := config.GetDB().WithContext(ctx).Model(&Appointment{}).Where("tenant_id = ?", tenantId)
		if filter.CustomerId > 0 {
			dbCtx = dbCtx.Where("customer_id = ?", filter.CustomerId)
		}
		if filter.Status != "" {
			dbCtx = dbCtx.Where("status = ?", strings.ToUpper(string(filter.Status)))
		}
		if filter.From != nil {
			dbCtx = dbCtx.Where("start_time >= ?", *filter.From)
		}
		if filter.To != nil {
			dbCtx = dbCtx.Where("start_time < ?", filter.To.AddDate(0, 0, 1))
		}
		if err := dbCtx.Count(&total).Error; err != nil {
			return err
		}
		return filter.Page.apply(dbCtx).Order("start_time").Find(&results).Error
	})
	if err != nil {
		return nil, PageInfo{}, err
	}
	return results, NewPageInfo(filter.Page, total), nil
}
