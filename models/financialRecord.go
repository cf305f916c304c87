package models

import (
	"context"
	"strings"
	"time"

	"github.com/despasys/despasys_backend/config"
	"github.com/despasys/despasys_backend/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type FinancialStatus string

const (
	FinancialStatusPaid    FinancialStatus = "PAGA"
	FinancialStatusPending FinancialStatus = "PENDENTE"
	FinancialStatusOverdue FinancialStatus = "VENCIDA"
)

// FinancialRecord is one transaction, invoice or expense. Status is never stored.
type FinancialRecord struct {
	ID                    int                `gorm:"primary_key" json:"id"`
	TenantId              string             `gorm:"size:36;not null;index;index:uniq_financial_seq,unique;index:uniq_financial_number,unique" json:"tenant_id"`
	Kind                  FinancialKind      `gorm:"size:12;not null;index;index:uniq_financial_seq,unique" json:"kind"`
	SequenceNo            int64              `gorm:"not null;index:uniq_financial_seq,unique" json:"sequence_no"`
	Number                string             `gorm:"size:20;not null;index:uniq_financial_number,unique" json:"number"`
	Description           string             `gorm:"size:255;not null" json:"description"`
	Category              string             `gorm:"size:60;index" json:"category"`
	Amount                decimal.Decimal    `gorm:"type:decimal(20,4);not null" json:"amount"`
	DueDate               time.Time          `gorm:"not null;index" json:"due_date"`
	PaidAt                *time.Time         `json:"paid_at"`
	PaymentMethod         string             `gorm:"size:30" json:"payment_method"`
	Notes                 string             `gorm:"type:text" json:"notes"`
	Direction             FinancialDirection `gorm:"size:10" json:"direction,omitempty"`
	Origin                string             `gorm:"size:150" json:"origin,omitempty"`
	Destination           string             `gorm:"size:150" json:"destination,omitempty"`
	CustomerId            int                `gorm:"index;not null;default:0" json:"customer_id,omitempty"`
	CustomerName          string             `gorm:"size:150" json:"customer_name,omitempty"`
	Service               string             `gorm:"size:150" json:"service,omitempty"`
	Supplier              string             `gorm:"size:150" json:"supplier,omitempty"`
	Recurring             bool               `gorm:"not null;default:false" json:"recurring"`
	Periodicity           string             `gorm:"size:20" json:"periodicity,omitempty"`
	ProcessId             int                `gorm:"index;not null;default:0" json:"process_id,omitempty"`
	PaymentProviderId     string             `gorm:"size:64" json:"payment_provider_id,omitempty"`
	PaymentProviderStatus string             `gorm:"size:30" json:"payment_provider_status,omitempty"`
	Status                FinancialStatus    `gorm:"-" json:"status"`
	CreatedAt             time.Time          `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt             time.Time          `gorm:"autoUpdateTime" json:"updated_at"`
}

func (r *FinancialRecord) AfterFind(tx *gorm.DB) error {
	r.Status = DeriveFinancialStatus(*r, time.Now())
	return nil
}

// IsPaid reports a payment date at or before now; a future paid_at is a scheduled payment.
func (r FinancialRecord) IsPaid(now time.Time) bool {
	return r.PaidAt != nil && !r.PaidAt.After(now)
}

// DeriveFinancialStatus: PAGA when paid, else VENCIDA when due before now, else PENDENTE.
func DeriveFinancialStatus(r FinancialRecord, now time.Time) FinancialStatus {
	if r.IsPaid(now) {
		return FinancialStatusPaid
	}
	if r.DueDate.Before(now) {
		return FinancialStatusOverdue
	}
	return FinancialStatusPending
}

func ParseFinancialStatus(raw string) (FinancialStatus, error) {
	s := FinancialStatus(strings.ToUpper(strings.TrimSpace(raw)))
	switch s {
	case FinancialStatusPaid, FinancialStatusPending, FinancialStatusOverdue:
		return s, nil
	case "PAGO":
		return FinancialStatusPaid, nil
	case "VENCIDO":
		return FinancialStatusOverdue, nil
	}
	return "", utils.NewValidationError("status", "invalid financial status")
}

type NewFinancialRecord struct {
	Description   string          `json:"description" binding:"required"`
	Category      string          `json:"category"`
	Amount        decimal.Decimal `json:"amount" binding:"required"`
	DueDate       time.Time       `json:"due_date" binding:"required"`
	PaidAt        *time.Time      `json:"paid_at"`
	PaymentMethod string          `json:"payment_method"`
	Notes         string          `json:"notes"`
	Direction     string          `json:"direction"`
	Origin        string          `json:"origin"`
	Destination   string          `json:"destination"`
	CustomerId    int             `json:"customer_id"`
	Service       string          `json:"service"`
	Supplier      string          `json:"supplier"`
	Recurring     bool            `json:"recurring"`
	Periodicity   string          `json:"periodicity"`
	ProcessId     int             `json:"process_id"`
}

type FinancialFilter struct {
	Status    string           `form:"status"`
	Category  string           `form:"category"`
	Direction string           `form:"direction"`
	Search    string           `form:"search"`
	MinAmount *decimal.Decimal `form:"-"`
	MaxAmount *decimal.Decimal `form:"-"`
	Page
}

// fields validates input for one kind and returns the columns shared by create and update.
func (input *NewFinancialRecord) fields(ctx context.Context, tenantId string, cfg FinancialKindConfig) (*FinancialRecord, error) {
	record := FinancialRecord{
		TenantId:      tenantId,
		Kind:          cfg.Kind,
		Description:   strings.TrimSpace(input.Description),
		Amount:        input.Amount,
		DueDate:       input.DueDate,
		PaidAt:        input.PaidAt,
		PaymentMethod: strings.TrimSpace(input.PaymentMethod),
		Notes:         input.Notes,
		Recurring:     input.Recurring,
	}
	if record.Description == "" {
		return nil, utils.RequiredField("description")
	}
	if !input.Amount.IsPositive() {
		return nil, utils.NewValidationError("amount", "amount must be greater than zero")
	}
	if input.DueDate.IsZero() {
		return nil, utils.RequiredField("due_date")
	}
	category, err := cfg.NormalizeCategory(input.Category)
	if err != nil {
		return nil, err
	}
	record.Category = category

	if input.Recurring {
		p, err := normalizePeriodicity(input.Periodicity)
		if err != nil {
			if strings.TrimSpace(input.Periodicity) == "" {
				return nil, utils.RequiredField("periodicity")
			}
			return nil, err
		}
		record.Periodicity = p
	}

	if cfg.RequireDirection {
		direction, err := parseDirection(input.Direction)
		if err != nil {
			return nil, err
		}
		record.Direction = direction
		switch direction {
		case DirectionIn:
			record.Origin = strings.TrimSpace(input.Origin)
			if record.Origin == "" {
				return nil, utils.RequiredField("origin")
			}
		case DirectionOut:
			record.Destination = strings.TrimSpace(input.Destination)
			if record.Destination == "" {
				return nil, utils.RequiredField("destination")
			}
		}
	}
	if cfg.RequireSupplier {
		record.Supplier = strings.TrimSpace(input.Supplier)
		if record.Supplier == "" {
			return nil, utils.RequiredField("supplier")
		}
	}
	if cfg.RequireCustomer || input.CustomerId != 0 {
		if err := utils.ValidateReference[Customer](ctx, tenantId, "customer_id", "customer", input.CustomerId); err != nil {
			return nil, err
		}
		customer, err := utils.FetchModel[Customer](ctx, tenantId, input.CustomerId)
		if err != nil {
			return nil, err
		}
		record.CustomerId = customer.ID
		record.CustomerName = customer.Name
		record.Service = strings.TrimSpace(input.Service)
	}
	if input.ProcessId != 0 {
		if err := utils.ValidateReference[Process](ctx, tenantId, "process_id", "process", input.ProcessId); err != nil {
			return nil, err
		}
		record.ProcessId = input.ProcessId
	}
	return &record, nil
}

func financialSequence(kind FinancialKind) numberSource {
	return redisSequence{
		docType: "financial_" + strings.ToLower(string(kind)),
		maxFromDB: func(ctx context.Context, db *gorm.DB, tenantId string) (int64, error) {
			var max int64
			err := db.WithContext(ctx).Model(&FinancialRecord{}).
				Where("tenant_id = ? AND kind = ?", tenantId, kind).
				Select("COALESCE(MAX(sequence_no), 0)").
				Scan(&max).Error
			return max, err
		},
	}
}

// CreateFinancialRecord numbers the record from its kind's own sequence (T000001, FAT-001, DESP-001).
func CreateFinancialRecord(ctx context.Context, kind FinancialKind, input *NewFinancialRecord) (*FinancialRecord, error) {
	tenantId, err := utils.RequireTenantId(ctx)
	if err != nil {
		return nil, err
	}
	cfg, err := KindConfig(kind)
	if err != nil {
		return nil, err
	}
	draft, err := input.fields(ctx, tenantId, cfg)
	if err != nil {
		return nil, err
	}

	var created FinancialRecord
	_, err = insertWithSequence(ctx, dbTransaction(ctx), financialSequence(kind), tenantId, processNumberMaxAttempt, func(tx *gorm.DB, seq int64) error {
		r := *draft
		r.SequenceNo = seq
		r.Number = cfg.FormatNumber(seq)
		if err := tx.Create(&r).Error; err != nil {
			return err
		}
		if err := createHistory(tx, HistoryActionCreate, r.ID, "financial_records", nil, r, cfg.Label+" created: "+r.Number); err != nil {
			return err
		}
		created = r
		return nil
	})
	if err != nil {
		return nil, err
	}
	created.Status = DeriveFinancialStatus(created, time.Now())
	return &created, nil
}

func getFinancialRecord(ctx context.Context, tenantId string, kind FinancialKind, id int) (*FinancialRecord, error) {
	record, err := utils.FetchModel[FinancialRecord](ctx, tenantId, id)
	if err != nil {
		return nil, err
	}
	// a record of another kind is not addressable under this kind's route
	if record.Kind != kind {
		return nil, utils.ErrorRecordNotFound
	}
	return record, nil
}

func GetFinancialRecord(ctx context.Context, kind FinancialKind, id int) (*FinancialRecord, error) {
	tenantId, err := utils.RequireTenantId(ctx)
	if err != nil {
		return nil, err
	}
	return getFinancialRecord(ctx, tenantId, kind, id)
}

func UpdateFinancialRecord(ctx context.Context, kind FinancialKind, id int, input *NewFinancialRecord) (*FinancialRecord, error) {
	tenantId, err := utils.RequireTenantId(ctx)
	if err != nil {
		return nil, err
	}
	cfg, err := KindConfig(kind)
	if err != nil {
		return nil, err
	}
	record, err := getFinancialRecord(ctx, tenantId, kind, id)
	if err != nil {
		return nil, err
	}
	next, err := input.fields(ctx, tenantId, cfg)
	if err != nil {
		return nil, err
	}
	before := *record

	err = config.GetDB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Model(record).Updates(map[string]interface{}{
			"Description":   next.Description,
			"Category":      next.Category,
			"Amount":        next.Amount,
			"DueDate":       next.DueDate,
			"PaidAt":        next.PaidAt,
			"PaymentMethod": next.PaymentMethod,
			"Notes":         next.Notes,
			"Direction":     next.Direction,
			"Origin":        next.Origin,
			"Destination":   next.Destination,
			"CustomerId":    next.CustomerId,
			"CustomerName":  next.CustomerName,
			"Service":       next.Service,
			"Supplier":      next.Supplier,
			"Recurring":     next.Recurring,
			"Periodicity":   next.Periodicity,
			"ProcessId":     next.ProcessId,
		}).Error
		if err != nil {
			return err
		}
		return createHistory(tx, HistoryActionUpdate, id, "financial_records", before, record, cfg.Label+" updated: "+record.Number)
	})
	if err != nil {
		return nil, err
	}
	record.Status = DeriveFinancialStatus(*record, time.Now())
	return record, nil
}

func DeleteFinancialRecord(ctx context.Context, kind FinancialKind, id int) (*FinancialRecord, error) {
	tenantId, err := utils.RequireTenantId(ctx)
	if err != nil {
		return nil, err
	}
	record, err := getFinancialRecord(ctx, tenantId, kind, id)
	if err != nil {
		return nil, err
	}
	err = config.GetDB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("tenant_id = ?", tenantId).Delete(&FinancialRecord{}, id).Error; err != nil {
			return err
		}
		return createHistory(tx, HistoryActionDelete, id, "financial_records", record, nil, string(kind)+" deleted: "+record.Number)
	})
	if err != nil {
		return nil, err
	}
	return record, nil
}

// MarkFinancialRecordPaid stamps paid_at (now when paidAt is nil).
func MarkFinancialRecordPaid(ctx context.Context, kind FinancialKind, id int, paidAt *time.Time) (*FinancialRecord, error) {
	tenantId, err := utils.RequireTenantId(ctx)
	if err != nil {
		return nil, err
	}
	record, err := getFinancialRecord(ctx, tenantId, kind, id)
	if err != nil {
		return nil, err
	}
	when := time.Now()
	if paidAt != nil && !paidAt.IsZero() {
		when = *paidAt
	}
	before := *record
	err = config.GetDB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(record).Update("PaidAt", &when).Error; err != nil {
			return err
		}
		return createHistory(tx, HistoryActionUpdate, id, "financial_records", before, record, "Paid: "+record.Number)
	})
	if err != nil {
		return nil, err
	}
	record.PaidAt = &when
	record.Status = DeriveFinancialStatus(*record, time.Now())
	return record, nil
}

// RecordPaymentAttempt stores the gateway's answer; an approved payment also marks the invoice paid.
func RecordPaymentAttempt(ctx context.Context, id int, providerId string, providerStatus string, approved bool, now time.Time) (*FinancialRecord, error) {
	tenantId, err := utils.RequireTenantId(ctx)
	if err != nil {
		return nil, err
	}
	record, err := getFinancialRecord(ctx, tenantId, FinancialKindInvoice, id)
	if err != nil {
		return nil, err
	}
	before := *record
	updates := map[string]interface{}{
		"PaymentProviderId":     providerId,
		"PaymentProviderStatus": providerStatus,
	}
	if approved {
		updates["PaidAt"] = &now
		updates["PaymentMethod"] = "PIX"
	}
	err = config.GetDB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(record).Updates(updates).Error; err != nil {
			return err
		}
		return createHistory(tx, HistoryActionUpdate, id, "financial_records", before, record, "Charge "+providerStatus+": "+record.Number)
	})
	if err != nil {
		return nil, err
	}
	record.PaymentProviderId = providerId
	record.PaymentProviderStatus = providerStatus
	if approved {
		record.PaidAt = &now
		record.PaymentMethod = "PIX"
	}
	record.Status = DeriveFinancialStatus(*record, now)
	return record, nil
}

// ListAllFinancialRecords loads every record of one kind for summaries and exports.
func ListAllFinancialRecords(ctx context.Context, kind FinancialKind, category string) ([]FinancialRecord, error) {
	tenantId, err := utils.RequireTenantId(ctx)
	if err != nil {
		return nil, err
	}
	var results []FinancialRecord
	err = utils.RetryRead(ctx, func() error {
		results = nil
		dbCtx := config.GetDB().WithContext(ctx).Where("tenant_id = ?", tenantId)
		if kind != "" {
			dbCtx = dbCtx.Where("kind = ?", kind)
		}
		if c := CategoryKey(category); c != "" {
			dbCtx = dbCtx.Where("category = ?", c)
		}
		return dbCtx.Order("due_date desc").Order("id desc").Find(&results).Error
	})
	return results, err
}

// ListFinancialRecords filters by status after deriving it at now, then pages in memory.
func ListFinancialRecords(ctx context.Context, kind FinancialKind, filter FinancialFilter, now time.Time) ([]FinancialRecord, PageInfo, error) {
	tenantId, err := utils.RequireTenantId(ctx)
	if err != nil {
		return nil, PageInfo{}, err
	}
	if _, err := KindConfig(kind); err != nil {
		return nil, PageInfo{}, err
	}
	status, err := ParseFinancialStatusFilter(filter.Status)
	if err != nil {
		return nil, PageInfo{}, err
	}
	var direction FinancialDirection
	if strings.TrimSpace(filter.Direction) != "" {
		if direction, err = parseDirection(filter.Direction); err != nil {
			return nil, PageInfo{}, err
		}
	}

	var rows []FinancialRecord
	err = utils.RetryRead(ctx, func() error {
		rows = nil
		dbCtx := config.GetDB().WithContext(ctx).Where("tenant_id = ? AND kind = ?", tenantId, kind)
		if c := CategoryKey(filter.Category); c != "" {
			dbCtx = dbCtx.Where("category = ?", c)
		}
		if direction != "" {
			dbCtx = dbCtx.Where("direction = ?", direction)
		}
		if filter.MinAmount != nil {
			dbCtx = dbCtx.Where("amount >= ?", *filter.MinAmount)
		}
		if filter.MaxAmount != nil {
			dbCtx = dbCtx.Where("amount <= ?", *filter.MaxAmount)
		}
		if s := strings.TrimSpace(filter.Search); s != "" {
			like := "%" + s + "%"
			dbCtx = dbCtx.Where("number LIKE ? OR description LIKE ? OR customer_name LIKE ? OR supplier LIKE ?", like, like, like, like)
		}
		return dbCtx.Order("due_date desc").Order("id desc").Find(&rows).Error
	})
	if err != nil {
		return nil, PageInfo{}, err
	}
	page, info := filterFinancialRecords(rows, status, filter.Page, now)
	return page, info, nil
}

// filterFinancialRecords derives every status at now, keeps the requested one and cuts one page.
func filterFinancialRecords(rows []FinancialRecord, status FinancialStatus, p Page, now time.Time) ([]FinancialRecord, PageInfo) {
	matched := make([]FinancialRecord, 0, len(rows))
	for _, r := range rows {
		r.Status = DeriveFinancialStatus(r, now)
		if status == "" || r.Status == status {
			matched = append(matched, r)
		}
	}
	info := NewPageInfo(p, int64(len(matched)))
	start := p.Offset()
	if start >= len(matched) {
		return []FinancialRecord{}, info
	}
	end := start + info.Limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[start:end], info
}
