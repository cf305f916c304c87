package handlers

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/despasys/despasys_backend/appctx"
	"github.com/despasys/despasys_backend/models"
	"github.com/despasys/despasys_backend/workflow"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
)

const (
	mobileProcessCreateHandler = "mobile.processos.create"
	mobileListLimit            = 100
)

type mobileProcess struct {
	ID          int                    `json:"id"`
	Number      string                 `json:"numero"`
	Title       string                 `json:"titulo"`
	Customer    string                 `json:"cliente"`
	CustomerId  int                    `json:"clienteId"`
	Plate       string                 `json:"placa"`
	VehicleId   *int                   `json:"veiculoId"`
	Service     models.ServiceType     `json:"servico"`
	Status      models.MobileStatus    `json:"status"`
	Priority    models.ProcessPriority `json:"prioridade"`
	Deadline    *string                `json:"prazo"`
	Value       float64                `json:"valor"`
	Responsible string                 `json:"responsavel"`
	Phone       string                 `json:"telefone"`
	Notes       string                 `json:"observacoes"`
	CreatedAt   string                 `json:"createdAt"`
	UpdatedAt   string                 `json:"updatedAt"`
}

type mobileProcessInput struct {
	Title       string          `json:"titulo"`
	CustomerId  int             `json:"customerId" binding:"required"`
	VehicleId   int             `json:"veiculoId"`
	ServiceType string          `json:"tipoServico" binding:"required"`
	Deadline    *time.Time      `json:"prazo"`
	Value       decimal.Decimal `json:"valor"`
	Description string          `json:"descricao"`
	Priority    string          `json:"prioridade"`
}

type mobileProcessFilter struct {
	Status     string `form:"status"`
	CustomerId int    `form:"clienteId"`
	VehicleId  int    `form:"veiculoId"`
}

func isoTime(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000Z")
}

// formatMobileProcess is the shape the mobile app renders; the status uses the mobile vocabulary.
func (h *Handler) formatMobileProcess(ctx context.Context, p *models.Process) (mobileProcess, error) {
	out := mobileProcess{
		ID:         p.ID,
		Number:     p.Number,
		Title:      p.Title,
		CustomerId: p.CustomerId,
		Service:    p.ServiceType,
		Status:     models.MobileStatusOf(p.Status),
		Priority:   p.Priority,
		Value:      p.TotalValue.InexactFloat64(),
		Notes:      p.Notes,
		CreatedAt:  isoTime(p.CreatedAt),
		UpdatedAt:  isoTime(p.UpdatedAt),
	}
	if p.LegalDeadline != nil {
		deadline := isoTime(*p.LegalDeadline)
		out.Deadline = &deadline
	}

	customer, err := h.directory.Customer(ctx, p.CustomerId)
	if err != nil {
		return out, err
	}
	out.Customer = customer.Name
	out.Phone = customer.Phone

	if p.VehicleId != 0 {
		vehicleId := p.VehicleId
		out.VehicleId = &vehicleId
		vehicle, err := h.directory.Vehicle(ctx, p.VehicleId)
		if err != nil {
			return out, err
		}
		out.Plate = vehicle.Plate
	}

	responsible, err := h.directory.User(ctx, p.ResponsibleId)
	if err != nil {
		return out, err
	}
	out.Responsible = responsible.Name
	return out, nil
}

func (h *Handler) MobileListProcesses(c *gin.Context, auth appctx.Auth) {
	ctx, span := tracer.Start(c.Request.Context(), "MobileListProcesses")
	defer span.End()

	var query mobileProcessFilter
	if err := c.ShouldBindQuery(&query); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid query"})
		return
	}
	filter := models.ProcessFilter{
		CustomerId: query.CustomerId,
		VehicleId:  query.VehicleId,
		Page:       models.Page{Page: 1, Limit: mobileListLimit},
	}
	if strings.TrimSpace(query.Status) != "" {
		statuses, err := models.StatusesForMobile(query.Status)
		if err != nil {
			h.respondError(c, err)
			return
		}
		filter.Statuses = statuses
	}

	processes, _, err := h.processes.List(ctx, filter)
	if err != nil {
		h.respondError(c, err)
		return
	}
	span.SetAttributes(attribute.Int("processes", len(processes)))

	out := make([]mobileProcess, 0, len(processes))
	for _, p := range processes {
		formatted, err := h.formatMobileProcess(ctx, p)
		if err != nil {
			h.respondError(c, err)
			return
		}
		out = append(out, formatted)
	}
	c.JSON(http.StatusOK, out)
}

// MobileCreateProcess honours Idempotency-Key: a replay returns the first process with 200 and no event.
func (h *Handler) MobileCreateProcess(c *gin.Context, auth appctx.Auth) {
	ctx, span := tracer.Start(c.Request.Context(), "MobileCreateProcess")
	defer span.End()

	var input mobileProcessInput
	if !bindJSON(c, &input) {
		return
	}

	title := strings.TrimSpace(input.Title)
	if title == "" {
		title = h.defaultMobileTitle(ctx, input)
	}
	newProcess := &models.NewProcess{
		CustomerId:    input.CustomerId,
		VehicleId:     input.VehicleId,
		ResponsibleId: auth.UserId,
		ServiceType:   input.ServiceType,
		Title:         title,
		Description:   input.Description,
		Priority:      input.Priority,
		TotalValue:    input.Value,
		LegalDeadline: input.Deadline,
	}

	var created *models.Process
	id, replay, err := workflow.RunIdempotent(ctx, mobileProcessCreateHandler, c.GetHeader("Idempotency-Key"), func(ctx context.Context) (int, error) {
		p, err := h.processes.Create(ctx, newProcess)
		if err != nil {
			return 0, err
		}
		created = p
		return p.ID, nil
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	if replay {
		created, err = h.processes.Get(ctx, id)
		if err != nil {
			h.respondError(c, err)
			return
		}
	}

	formatted, err := h.formatMobileProcess(ctx, created)
	if err != nil {
		h.respondError(c, err)
		return
	}
	if replay {
		c.JSON(http.StatusOK, formatted)
		return
	}

	h.notifier.NotifyAsync(auth, correlationId(c), "processes", "created", formatted)
	span.SetAttributes(attribute.String("process.number", created.Number))
	c.JSON(http.StatusCreated, formatted)
}

// defaultMobileTitle is "<service> - <plate>", with N/A when there is no vehicle.
func (h *Handler) defaultMobileTitle(ctx context.Context, input mobileProcessInput) string {
	service := strings.TrimSpace(input.ServiceType)
	if st, err := models.ParseServiceType(service); err == nil {
		service = models.ServiceTypeLabel(st)
	}
	plate := "N/A"
	if input.VehicleId != 0 {
		if vehicle, err := h.directory.Vehicle(ctx, input.VehicleId); err == nil && vehicle.Plate != "" {
			plate = vehicle.Plate
		}
	}
	return service + " - " + plate
}

func (h *Handler) MobileDashboard(c *gin.Context, auth appctx.Auth) {
	ctx, span := tracer.Start(c.Request.Context(), "MobileDashboard")
	defer span.End()

	dashboard, err := models.GetMobileDashboard(ctx, h.now())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dashboard)
}

type mobileCustomer struct {
	ID      int    `json:"id"`
	Name    string `json:"nome"`
	Phone   string `json:"telefone"`
	Email   string `json:"email"`
	CpfCnpj string `json:"cpfCnpj"`
	Type    string `json:"tipoCliente"`
	Address string `json:"endereco"`
	City    string `json:"cidade"`
	State   string `json:"estado"`
}

func (h *Handler) MobileListCustomers(c *gin.Context, auth appctx.Auth) {
	customers, _, err := models.ListCustomers(c.Request.Context(), models.CustomerFilter{
		Search: c.Query("search"),
		Status: models.RecordStatusActive,
		Page:   models.Page{Page: 1, Limit: mobileListLimit},
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	out := make([]mobileCustomer, 0, len(customers))
	for _, customer := range customers {
		out = append(out, mobileCustomer{
			ID:      customer.ID,
			Name:    customer.Name,
			Phone:   customer.Phone,
			Email:   customer.Email,
			CpfCnpj: customer.CpfCnpj,
			Type:    string(customer.CustomerType),
			Address: customer.Address,
			City:    customer.City,
			State:   customer.State,
		})
	}
	c.JSON(http.StatusOK, out)
}

type mobileVehicle struct {
	ID         int    `json:"id"`
	Plate      string `json:"placa"`
	Brand      string `json:"marca"`
	Model      string `json:"modelo"`
	Year       int    `json:"ano"`
	Color      string `json:"cor"`
	CustomerId int    `json:"clienteId"`
	Customer   string `json:"cliente"`
}

func (h *Handler) MobileListVehicles(c *gin.Context, auth appctx.Auth) {
	ctx := c.Request.Context()
	customerId, _ := strconv.Atoi(c.Query("clienteId"))
	vehicles, _, err := models.ListVehicles(ctx, models.VehicleFilter{
		Search:     c.Query("search"),
		CustomerId: customerId,
		Status:     models.RecordStatusActive,
		Page:       models.Page{Page: 1, Limit: mobileListLimit},
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	out := make([]mobileVehicle, 0, len(vehicles))
	for _, v := range vehicles {
		customer, err := h.directory.Customer(ctx, v.CustomerId)
		if err != nil {
			h.respondError(c, err)
			return
		}
		out = append(out, mobileVehicle{
			ID:         v.ID,
			Plate:      v.Plate,
			Brand:      v.Brand,
			Model:      v.Model,
			Year:       v.Year,
			Color:      v.Color,
			CustomerId: v.CustomerId,
			Customer:   customer.Name,
		})
	}
	c.JSON(http.StatusOK, out)
}
