package models

import (
	"context"
	"strings"
	"time"

	"github.com/despasys/despasys_backend/config"
	"github.com/despasys/despasys_backend/utils"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"gorm.io/gorm"
)

var tracer = otel.Tracer("despasys-backend")

type Process struct {
	ID            int             `gorm:"primary_key" json:"id"`
	TenantId      string          `gorm:"size:36;not null;index;index:uniq_process_seq,unique;index:uniq_process_number,unique" json:"tenant_id"`
	SequenceNo    int64           `gorm:"not null;index:uniq_process_seq,unique" json:"sequence_no"`
	Number        string          `gorm:"size:20;not null;index:uniq_process_number,unique" json:"number"`
	CustomerId    int             `gorm:"index;not null" json:"customer_id"`
	VehicleId     int             `gorm:"index;not null;default:0" json:"vehicle_id"`
	ResponsibleId int             `gorm:"index;not null" json:"responsible_id"`
	ServiceType   ServiceType     `gorm:"size:40;not null" json:"service_type"`
	Title         string          `gorm:"size:200;not null" json:"title"`
	Description   string          `gorm:"type:text" json:"description"`
	Status        ProcessStatus   `gorm:"size:30;not null;index" json:"status"`
	Priority      ProcessPriority `gorm:"size:10;not null;default:MEDIA" json:"priority"`
	TotalValue    decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"total_value"`
	GovernmentFee decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"government_fee"`
	ServiceFee    decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"service_fee"`
	PaymentStatus PaymentStatus   `gorm:"size:10;not null;default:PENDENTE" json:"payment_status"`
	StartDate     time.Time       `gorm:"not null" json:"start_date"`
	LegalDeadline *time.Time      `json:"legal_deadline"`
	CompletedAt   *time.Time      `json:"completed_at"`
	Notes         string          `gorm:"type:text" json:"notes"`
	Bucket        ProcessBucket   `gorm:"-" json:"bucket"`
	CreatedAt     time.Time       `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt     time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

// AfterFind derives the bucket on every read; it is never stored.
func (p *Process) AfterFind(tx *gorm.DB) error {
	p.Bucket = ClassifyStatus(p.Status)
	return nil
}

func (p *Process) refreshBucket() {
	p.Bucket = ClassifyStatus(p.Status)
}

type NewProcess struct {
	CustomerId    int             `json:"customer_id" binding:"required"`
	VehicleId     int             `json:"vehicle_id"`
	ResponsibleId int             `json:"responsible_id"`
	ServiceType   string          `json:"service_type" binding:"required"`
	Title         string          `json:"title"`
	Description   string          `json:"description"`
	Priority      string          `json:"priority"`
	TotalValue    decimal.Decimal `json:"total_value"`
	GovernmentFee decimal.Decimal `json:"government_fee"`
	ServiceFee    decimal.Decimal `json:"service_fee"`
	StartDate     *time.Time      `json:"start_date"`
	LegalDeadline *time.Time      `json:"legal_deadline"`
	Notes         string          `json:"notes"`
}

// ProcessUpdate is a partial update; nil fields are left alone.
type ProcessUpdate struct {
	CustomerId    *int             `json:"customer_id"`
	VehicleId     *int             `json:"vehicle_id"`
	ResponsibleId *int             `json:"responsible_id"`
	ServiceType   *string          `json:"service_type"`
	Title         *string          `json:"title"`
	Description   *string          `json:"description"`
	Status        *string          `json:"status"`
	Priority      *string          `json:"priority"`
	TotalValue    *decimal.Decimal `json:"total_value"`
	GovernmentFee *decimal.Decimal `json:"government_fee"`
	ServiceFee    *decimal.Decimal `json:"service_fee"`
	PaymentStatus *string          `json:"payment_status"`
	LegalDeadline *time.Time       `json:"legal_deadline"`
	Notes         *string          `json:"notes"`
}

type ProcessFilter struct {
	Bucket        string `form:"bucket"`
	Status        string `form:"status"`
	CustomerId    int    `form:"customer_id"`
	VehicleId     int    `form:"vehicle_id"`
	ResponsibleId int    `form:"responsible_id"`
	Search        string `form:"search"`
	Page
	// Statuses is set by callers that already resolved a filter (the mobile vocabulary).
	Statuses []ProcessStatus `form:"-"`
}

// defaultTotal fills the total from the fees when only the fees were given.
func defaultTotal(total, governmentFee, serviceFee decimal.Decimal) decimal.Decimal {
	if total.IsZero() {
		return governmentFee.Add(serviceFee)
	}
	return total
}

// completedAtFor keeps completed_at in step with the FINALIZADO status.
func completedAtFor(current *time.Time, from, to ProcessStatus, now time.Time) *time.Time {
	switch {
	case to == ProcessStatusFinalized && from != ProcessStatusFinalized:
		return &now
	case to != ProcessStatusFinalized:
		return nil
	}
	return current
}

func validateMoney(field string, v decimal.Decimal) error {
	if v.IsNegative() {
		return utils.NewValidationError(field, field+" must not be negative")
	}
	return nil
}

func validateProcessRefs(ctx context.Context, tenantId string, customerId, vehicleId, responsibleId int) error {
	if err := utils.ValidateReference[Customer](ctx, tenantId, "customer_id", "customer", customerId); err != nil {
		return err
	}
	if vehicleId != 0 {
		if err := utils.ValidateReference[Vehicle](ctx, tenantId, "vehicle_id", "vehicle", vehicleId); err != nil {
			return err
		}
	}
	return utils.ValidateReference[User](ctx, tenantId, "responsible_id", "responsible user", responsibleId)
}

func (input *NewProcess) toProcess(ctx context.Context, tenantId string, now time.Time) (*Process, error) {
	if input.ResponsibleId == 0 {
		if userId, ok := utils.GetUserIdFromContext(ctx); ok {
			input.ResponsibleId = userId
		}
	}
	serviceType, err := ParseServiceType(input.ServiceType)
	if err != nil {
		return nil, err
	}
	priority, err := ParsePriority(input.Priority)
	if err != nil {
		return nil, err
	}
	if err := validateMoney("total_value", input.TotalValue); err != nil {
		return nil, err
	}
	if err := validateMoney("government_fee", input.GovernmentFee); err != nil {
		return nil, err
	}
	if err := validateMoney("service_fee", input.ServiceFee); err != nil {
		return nil, err
	}
	if err := validateProcessRefs(ctx, tenantId, input.CustomerId, input.VehicleId, input.ResponsibleId); err != nil {
		return nil, err
	}

	title := strings.TrimSpace(input.Title)
	if title == "" {
		title = ServiceTypeLabel(serviceType)
	}
	startDate := now
	if input.StartDate != nil && !input.StartDate.IsZero() {
		startDate = *input.StartDate
	}
	return &Process{
		TenantId:      tenantId,
		CustomerId:    input.CustomerId,
		VehicleId:     input.VehicleId,
		ResponsibleId: input.ResponsibleId,
		ServiceType:   serviceType,
		Title:         title,
		Description:   input.Description,
		Status:        ProcessStatusAwaitingDocuments,
		Priority:      priority,
		TotalValue:    defaultTotal(input.TotalValue, input.GovernmentFee, input.ServiceFee),
		GovernmentFee: input.GovernmentFee,
		ServiceFee:    input.ServiceFee,
		PaymentStatus: PaymentStatusPending,
		StartDate:     startDate,
		LegalDeadline: input.LegalDeadline,
		Notes:         input.Notes,
	}, nil
}

// CreateProcess validates every reference inside the tenant, allocates the
// next PROC number and inserts the process as AGUARDANDO_DOCUMENTOS.
func CreateProcess(ctx context.Context, input *NewProcess) (*Process, error) {
	tenantId, err := utils.RequireTenantId(ctx)
	if err != nil {
		return nil, err
	}
	ctx, span := tracer.Start(ctx, "models.CreateProcess")
	defer span.End()
	span.SetAttributes(attribute.String("tenant_id", tenantId))

	draft, err := input.toProcess(ctx, tenantId, time.Now())
	if err != nil {
		return nil, err
	}

	var created Process
	_, err = insertWithSequence(ctx, dbTransaction(ctx), processNumbers, tenantId, processNumberMaxAttempt, func(tx *gorm.DB, seq int64) error {
		p := *draft
		p.SequenceNo = seq
		p.Number = FormatProcessNumber(seq)
		if err := tx.Create(&p).Error; err != nil {
			return err
		}
		if err := createHistory(tx, HistoryActionCreate, p.ID, "processes", nil, p, "Process created: "+p.Number); err != nil {
			return err
		}
		created = p
		return nil
	})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	created.refreshBucket()
	span.SetAttributes(attribute.String("process_number", created.Number))
	return &created, nil
}

func UpdateProcess(ctx context.Context, id int, input *ProcessUpdate) (*Process, error) {
	tenantId, err := utils.RequireTenantId(ctx)
	if err != nil {
		return nil, err
	}
	process, err := utils.FetchModel[Process](ctx, tenantId, id)
	if err != nil {
		return nil, err
	}
	before := *process
	updates, err := input.changes(ctx, tenantId, process, time.Now())
	if err != nil {
		return nil, err
	}
	if len(updates) == 0 {
		return process, nil
	}

	err = config.GetDB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(process).Updates(updates).Error; err != nil {
			return err
		}
		description := "Process updated: " + process.Number
		if before.Status != process.Status {
			description = "Process " + process.Number + " status: " + string(before.Status) + " -> " + string(process.Status)
		}
		return createHistory(tx, HistoryActionUpdate, id, "processes", before, process, description)
	})
	if err != nil {
		return nil, err
	}
	process.refreshBucket()
	return process, nil
}

// changes validates input against the stored process and returns the column updates.
// process is updated in place so the caller can return it without re-reading.
func (input *ProcessUpdate) changes(ctx context.Context, tenantId string, process *Process, now time.Time) (map[string]interface{}, error) {
	updates := map[string]interface{}{}

	customerId, vehicleId, responsibleId := process.CustomerId, process.VehicleId, process.ResponsibleId
	if input.CustomerId != nil {
		customerId = *input.CustomerId
	}
	if input.VehicleId != nil {
		vehicleId = *input.VehicleId
	}
	if input.ResponsibleId != nil {
		responsibleId = *input.ResponsibleId
	}
	if input.CustomerId != nil || input.VehicleId != nil || input.ResponsibleId != nil {
		if err := validateProcessRefs(ctx, tenantId, customerId, vehicleId, responsibleId); err != nil {
			return nil, err
		}
		process.CustomerId, process.VehicleId, process.ResponsibleId = customerId, vehicleId, responsibleId
		updates["CustomerId"] = customerId
		updates["VehicleId"] = vehicleId
		updates["ResponsibleId"] = responsibleId
	}

	if input.ServiceType != nil {
		st, err := ParseServiceType(*input.ServiceType)
		if err != nil {
			return nil, err
		}
		process.ServiceType = st
		updates["ServiceType"] = st
	}
	if input.Title != nil {
		title := strings.TrimSpace(*input.Title)
		if title == "" {
			return nil, utils.RequiredField("title")
		}
		process.Title = title
		updates["Title"] = title
	}
	if input.Description != nil {
		process.Description = *input.Description
		updates["Description"] = *input.Description
	}
	if input.Notes != nil {
		process.Notes = *input.Notes
		updates["Notes"] = *input.Notes
	}
	if input.Priority != nil {
		p, err := ParsePriority(*input.Priority)
		if err != nil {
			return nil, err
		}
		process.Priority = p
		updates["Priority"] = p
	}
	if input.PaymentStatus != nil {
		ps, err := ParsePaymentStatus(*input.PaymentStatus)
		if err != nil {
			return nil, err
		}
		process.PaymentStatus = ps
		updates["PaymentStatus"] = ps
	}
	if input.LegalDeadline != nil {
		process.LegalDeadline = input.LegalDeadline
		updates["LegalDeadline"] = input.LegalDeadline
	}

	if input.GovernmentFee != nil {
		if err := validateMoney("government_fee", *input.GovernmentFee); err != nil {
			return nil, err
		}
		process.GovernmentFee = *input.GovernmentFee
		updates["GovernmentFee"] = process.GovernmentFee
	}
	if input.ServiceFee != nil {
		if err := validateMoney("service_fee", *input.ServiceFee); err != nil {
			return nil, err
		}
		process.ServiceFee = *input.ServiceFee
		updates["ServiceFee"] = process.ServiceFee
	}
	if input.TotalValue != nil {
		if err := validateMoney("total_value", *input.TotalValue); err != nil {
			return nil, err
		}
		process.TotalValue = defaultTotal(*input.TotalValue, process.GovernmentFee, process.ServiceFee)
		updates["TotalValue"] = process.TotalValue
	}

	if input.Status != nil {
		to, err := ParseProcessStatus(*input.Status)
		if err != nil {
			return nil, err
		}
		from := process.Status
		if err := ActiveTransitions().Check(from, to); err != nil {
			return nil, err
		}
		process.Status = to
		process.CompletedAt = completedAtFor(process.CompletedAt, from, to, now)
		updates["Status"] = to
		updates["CompletedAt"] = process.CompletedAt
	}
	return updates, nil
}

// UpdateProcessStatus is the dedicated status change used by PATCH /processes/:id/status.
func UpdateProcessStatus(ctx context.Context, id int, status string) (*Process, error) {
	return UpdateProcess(ctx, id, &ProcessUpdate{Status: &status})
}

// DeleteProcess removes the row; documents and history stay for the audit trail.
func DeleteProcess(ctx context.Context, id int) (*Process, error) {
	tenantId, err := utils.RequireTenantId(ctx)
	if err != nil {
		return nil, err
	}
	process, err := utils.FetchModel[Process](ctx, tenantId, id)
	if err != nil {
		return nil, err
	}
	err = config.GetDB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("tenant_id = ?", tenantId).Delete(&Process{}, id).Error; err != nil {
			return err
		}
		return createHistory(tx, HistoryActionDelete, id, "processes", process, nil, "Process deleted: "+process.Number)
	})
	if err != nil {
		return nil, err
	}
	return process, nil
}

func GetProcess(ctx context.Context, id int) (*Process, error) {
	tenantId, err := utils.RequireTenantId(ctx)
	if err != nil {
		return nil, err
	}
	return utils.FetchModel[Process](ctx, tenantId, id)
}

// resolveStatuses turns the bucket / status / pre-resolved filters into one status list.
// A nil result means no status filter.
func (f ProcessFilter) resolveStatuses() ([]ProcessStatus, error) {
	if len(f.Statuses) > 0 {
		return f.Statuses, nil
	}
	if strings.TrimSpace(f.Status) != "" {
		var statuses []ProcessStatus
		for _, raw := range strings.Split(f.Status, ",") {
			s, err := ParseProcessStatus(raw)
			if err != nil {
				return nil, err
			}
			statuses = append(statuses, s)
		}
		return statuses, nil
	}
	if strings.TrimSpace(f.Bucket) != "" {
		b, err := ParseBucket(f.Bucket)
		if err != nil {
			return nil, err
		}
		return StatusesInBucket(b), nil
	}
	return nil, nil
}

// ListProcesses returns one page, newest first.
func ListProcesses(ctx context.Context, filter ProcessFilter) ([]*Process, PageInfo, error) {
	tenantId, err := utils.RequireTenantId(ctx)
	if err != nil {
		return nil, PageInfo{}, err
	}
	statuses, err := filter.resolveStatuses()
	if err != nil {
		return nil, PageInfo{}, err
	}

	var (
		results []*Process
		total   int64
	)
	err = utils.RetryRead(ctx, func() error {
		results = nil
		dbCtx := config.GetDB().WithContext(ctx).Model(&Process{}).Where("tenant_id = ?", tenantId)
		if statuses != nil {
			dbCtx = dbCtx.Where("status IN ?", statuses)
		}
		if filter.CustomerId > 0 {
			dbCtx = dbCtx.Where("customer_id = ?", filter.CustomerId)
		}
		if filter.VehicleId > 0 {
			dbCtx = dbCtx.Where("vehicle_id = ?", filter.VehicleId)
		}
		if filter.ResponsibleId > 0 {
			dbCtx = dbCtx.Where("responsible_id = ?", filter.ResponsibleId)
		}
		if s := strings.TrimSpace(filter.Search); s != "" {
			like := "%" + s + "%"
			dbCtx = dbCtx.Where("number LIKE ? OR title LIKE ? OR description LIKE ?", like, like, like)
		}
		if err := dbCtx.Count(&total).Error; err != nil {
			return err
		}
		return filter.Page.apply(dbCtx).Order("created_at desc").Order("id desc").Find(&results).Error
	})
	if err != nil {
		return nil, PageInfo{}, err
	}
	return results, NewPageInfo(filter.Page, total), nil
}

type statusCount struct {
	Status ProcessStatus
	Total  int64
}

// CountProcessesByStatus returns the raw per-status counts of the tenant.
func CountProcessesByStatus(ctx context.Context) (map[ProcessStatus]int64, error) {
	tenantId, err := utils.RequireTenantId(ctx)
	if err != nil {
		return nil, err
	}
	var rows []statusCount
	err = utils.RetryRead(ctx, func() error {
		rows = nil
		return config.GetDB().WithContext(ctx).Model(&Process{}).
			Select("status, COUNT(*) AS total").
			Where("tenant_id = ?", tenantId).
			Group("status").
			Scan(&rows).Error
	})
	if err != nil {
		return nil, err
	}
	counts := make(map[ProcessStatus]int64, len(rows))
	for _, r := range rows {
		counts[r.Status] += r.Total
	}
	return counts, nil
}

// CountProcessesByBucket folds the status counts through the bucket table.
// Every bucket is present, zero or not.
func CountProcessesByBucket(ctx context.Context) (map[ProcessBucket]int64, error) {
	byStatus, err := CountProcessesByStatus(ctx)
	if err != nil {
		return nil, err
	}
	return bucketCounts(byStatus), nil
}

func bucketCounts(byStatus map[ProcessStatus]int64) map[ProcessBucket]int64 {
	counts := make(map[ProcessBucket]int64, len(AllProcessBuckets))
	for _, b := range AllProcessBuckets {
		counts[b] = 0
	}
	for status, n := range byStatus {
		counts[ClassifyStatus(status)] += n
	}
	return counts
}
