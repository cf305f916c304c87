package models

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/despasys/despasys_backend/config"
	"github.com/despasys/despasys_backend/utils"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Tenant is one despachante office. Every other table hangs off its id.
type Tenant struct {
	ID        string    `gorm:"primary_key;size:36" json:"id"`
	Name      string    `gorm:"size:150;not null" json:"name"`
	Domain    string    `gorm:"size:100;not null;unique" json:"domain"`
	IsActive  *bool     `gorm:"not null;default:true" json:"is_active"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (t *Tenant) BeforeCreate(tx *gorm.DB) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	if t.IsActive == nil {
		t.IsActive = utils.NewTrue()
	}
	return nil
}

func GetTenant(ctx context.Context, id string) (*Tenant, error) {
	var result Tenant
	err := utils.RetryRead(ctx, func() error {
		return config.GetDB().WithContext(ctx).Where("id = ?", id).Take(&result).Error
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, utils.ErrorRecordNotFound
	}
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func GetTenantByDomain(ctx context.Context, domain string) (*Tenant, error) {
	var result Tenant
	err := utils.RetryRead(ctx, func() error {
		return config.GetDB().WithContext(ctx).Where("domain = ?", strings.ToLower(strings.TrimSpace(domain))).Take(&result).Error
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, utils.ErrorRecordNotFound
	}
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// UpsertTenant creates the tenant for domain or renames the existing one.
func UpsertTenant(ctx context.Context, domain string, name string) (*Tenant, error) {
	domain = strings.ToLower(strings.TrimSpace(domain))
	if domain == "" {
		return nil, utils.RequiredField("domain")
	}
	if strings.TrimSpace(name) == "" {
		name = domain
	}
	existing, err := GetTenantByDomain(ctx, domain)
	if err == nil {
		if err := config.GetDB().WithContext(ctx).Model(existing).Update("name", name).Error; err != nil {
			return nil, err
		}
		existing.Name = name
		return existing, nil
	}
	if !errors.Is(err, utils.ErrorRecordNotFound) {
		return nil, err
	}
	tenant := Tenant{Name: name, Domain: domain}
	if err := config.GetDB().WithContext(ctx).Create(&tenant).Error; err != nil {
		return nil, err
	}
	return &tenant, nil
}

// TenantView is the public face of a tenant, served before login.
type TenantView struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Domain    string    `json:"domain"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

func (t *Tenant) View() TenantView {
	status := "ACTIVE"
	if t.IsActive != nil && !*t.IsActive {
		status = "INACTIVE"
	}
	return TenantView{ID: t.ID, Name: t.Name, Domain: t.Domain, Status: status, CreatedAt: t.CreatedAt}
}
