package models

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/despasys/despasys_backend/config"
	"github.com/despasys/despasys_backend/utils"
)

// old (ABC1234) and Mercosul (ABC1D23) plates
var platePattern = regexp.MustCompile(`^[A-Z]{3}[0-9][A-Z0-9][0-9]{2}$`)

type Vehicle struct {
	ID         int          `gorm:"primary_key" json:"id"`
	TenantId   string       `gorm:"size:36;not null;index;index:uniq_vehicle_plate,unique" json:"tenant_id"`
	CustomerId int          `gorm:"index;not null" json:"customer_id"`
	Plate      string       `gorm:"size:8;not null;index:uniq_vehicle_plate,unique" json:"plate"`
	Brand      string       `gorm:"size:60" json:"brand"`
	Model      string       `gorm:"size:100" json:"model"`
	Year       int          `json:"year"`
	ModelYear  int          `json:"model_year"`
	Color      string       `gorm:"size:30" json:"color"`
	Fuel       string       `gorm:"size:30" json:"fuel"`
	Category   string       `gorm:"size:30" json:"category"`
	Renavam    string       `gorm:"size:11" json:"renavam"`
	Chassis    string       `gorm:"size:17" json:"chassis"`
	Status     RecordStatus `gorm:"size:10;not null;default:ATIVO;index" json:"status"`
	CreatedAt  time.Time    `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time    `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewVehicle struct {
	CustomerId int    `json:"customer_id" binding:"required"`
	Plate      string `json:"plate" binding:"required"`
	Brand      string `json:"brand"`
	Model      string `json:"model"`
	Year       int    `json:"year"`
	ModelYear  int    `json:"model_year"`
	Color      string `json:"color"`
	Fuel       string `json:"fuel"`
	Category   string `json:"category"`
	Renavam    string `json:"renavam"`
	Chassis    string `json:"chassis"`
}

type VehicleFilter struct {
	Search     string       `form:"search"`
	CustomerId int          `form:"customer_id"`
	Status     RecordStatus `form:"status"`
	Page
}

// NormalizePlate upper-cases a plate and drops separators ("abc-1d23" -> "ABC1D23").
func NormalizePlate(raw string) string {
	var b strings.Builder
	for _, r := range strings.ToUpper(raw) {
		if (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func (input *NewVehicle) normalize(now time.Time) error {
	input.Plate = NormalizePlate(input.Plate)
	if input.Plate == "" {
		return utils.RequiredField("plate")
	}
	if !platePattern.MatchString(input.Plate) {
		return utils.NewValidationError("plate", fmt.Sprintf("invalid plate %q", input.Plate))
	}
	maxYear := now.Year() + 1
	if input.Year != 0 && (input.Year < 1900 || input.Year > maxYear) {
		return utils.NewValidationError("year", "invalid year")
	}
	if input.ModelYear == 0 {
		input.ModelYear = input.Year
	}
	if input.ModelYear != 0 && (input.ModelYear < 1900 || input.ModelYear > maxYear+1) {
		return utils.NewValidationError("model_year", "invalid model year")
	}
	input.Renavam = utils.OnlyDigits(input.Renavam)
	input.Chassis = strings.ToUpper(strings.TrimSpace(input.Chassis))
	return nil
}

func (input *NewVehicle) validate(ctx context.Context, tenantId string, id int) error {
	if id > 0 {
		if err := utils.ValidateResourceId[Vehicle](ctx, tenantId, id); err != nil {
			return err
		}
	}
	if err := input.normalize(time.Now()); err != nil {
		return err
	}
	if err := utils.ValidateReference[Customer](ctx, tenantId, "customer_id", "customer", input.CustomerId); err != nil {
		return err
	}
	return utils.ValidateUnique[Vehicle](ctx, tenantId, "plate", input.Plate, id)
}

func CreateVehicle(ctx context.Context, input *NewVehicle) (*Vehicle, error) {
	tenantId, err := utils.RequireTenantId(ctx)
	if err != nil {
		return nil, err
	}
	if err := input.validate(ctx, tenantId, 0); err != nil {
		return nil, err
	}
	vehicle := Vehicle{
		TenantId:   tenantId,
		CustomerId: input.CustomerId,
		Plate:      input.Plate,
		Brand:      input.Brand,
		Model:      input.Model,
		Year:       input.Year,
		ModelYear:  input.ModelYear,
		Color:      input.Color,
		Fuel:       input.Fuel,
		Category:   input.Category,
		Renavam:    input.Renavam,
		Chassis:    input.Chassis,
		Status:     RecordStatusActive,
	}

	tx := config.GetDB().WithContext(ctx).Begin()
	if err := tx.Create(&vehicle).Error; err != nil {
		tx.Rollback()
		if utils.IsDuplicateKeyErr(err) {
			return nil, utils.NewValidationError("plate", "duplicate plate")
		}
		return nil, err
	}
	if err := createHistory(tx, HistoryActionCreate, vehicle.ID, "vehicles", nil, vehicle, "Vehicle created: "+vehicle.Plate); err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	return &vehicle, nil
}

func UpdateVehicle(ctx context.Context, id int, input *NewVehicle) (*Vehicle, error) {
	tenantId, err := utils.RequireTenantId(ctx)
	if err != nil {
		return nil, err
	}
	if err := input.validate(ctx, tenantId, id); err != nil {
		return nil, err
	}
	vehicle, err := utils.FetchModel[Vehicle](ctx, tenantId, id)
	if err != nil {
		return nil, err
	}
	before := *vehicle

	tx := config.GetDB().WithContext(ctx).Begin()
	err = tx.Model(vehicle).Updates(map[string]interface{}{
		"CustomerId": input.CustomerId,
		"Plate":      input.Plate,
		"Brand":      input.Brand,
		"Model":      input.Model,
		"Year":       input.Year,
		"ModelYear":  input.ModelYear,
		"Color":      input.Color,
		"Fuel":       input.Fuel,
		"Category":   input.Category,
		"Renavam":    input.Renavam,
		"Chassis":    input.Chassis,
	}).Error
	if err != nil {
		tx.Rollback()
		if utils.IsDuplicateKeyErr(err) {
			return nil, utils.NewValidationError("plate", "duplicate plate")
		}
		return nil, err
	}
	if err := createHistory(tx, HistoryActionUpdate, id, "vehicles", before, vehicle, "Vehicle updated: "+vehicle.Plate); err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	forgetResource[Vehicle](tenantId, id)
	return vehicle, nil
}

func DeleteVehicle(ctx context.Context, id int) (*Vehicle, error) {
	tenantId, err := utils.RequireTenantId(ctx)
	if err != nil {
		return nil, err
	}
	vehicle, err := utils.FetchModel[Vehicle](ctx, tenantId, id)
	if err != nil {
		return nil, err
	}
	tx := config.GetDB().WithContext(ctx).Begin()
	if err := tx.Model(vehicle).Update("Status", RecordStatusInactive).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := createHistory(tx, HistoryActionDelete, id, "vehicles", nil, nil, "Vehicle deactivated: "+vehicle.Plate); err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	forgetResource[Vehicle](tenantId, id)
	return vehicle, nil
}

func GetVehicle(ctx context.Context, id int) (*Vehicle, error) {
	return GetResource[Vehicle](ctx, id)
}

func ListVehicles(ctx context.Context, filter VehicleFilter) ([]*Vehicle, PageInfo, error) {
	tenantId, err := utils.RequireTenantId(ctx)
	if err != nil {
		return nil, PageInfo{}, err
	}
	status := filter.Status
	if status == "" {
		status = RecordStatusActive
	}
	var (
		results []*Vehicle
		total   int64
	)
	err = utils.RetryRead(ctx, func() error {
		results = nil
		dbCtx := config.GetDB().WithContext(ctx).Model(&Vehicle{}).
			Where("tenant_id = ? AND status = ?", tenantId, status)
		if filter.CustomerId > 0 {
			dbCtx = dbCtx.Where("customer_id = ?", filter.CustomerId)
		}
		if s := strings.TrimSpace(filter.Search); s != "" {
			like := "%" + s + "%"
			dbCtx = dbCtx.Where("plate LIKE ? OR brand LIKE ? OR model LIKE ?", "%"+NormalizePlate(s)+"%", like, like)
		}
		if err := dbCtx.Count(&total).Error; err != nil {
			return err
		}
		return filter.Page.apply(dbCtx).Order("plate").Find(&results).Error
	})
	if err != nil {
		return nil, PageInfo{}, err
	}
	return results, NewPageInfo(filter.Page, total), nil
}
