package handlers

import (
	"bytes"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/despasys/despasys_backend/appctx"
	"github.com/despasys/despasys_backend/models"
	"github.com/despasys/despasys_backend/utils"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

const (
	cashFlowPath = "fluxo-caixa"
	xlsxMimeType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

type payRequest struct {
	PaidAt *time.Time `json:"paid_at"`
}

type chargeRequest struct {
	PayerEmail string `json:"payer_email"`
}

func kindParam(c *gin.Context) (models.FinancialKind, bool) {
	kind, err := models.FinancialKindFromPath(c.Param("kind"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "route not found"})
		return "", false
	}
	return kind, true
}

// amountQuery reads an optional amount bound written either as 1234.56 or 1.234,56.
func amountQuery(c *gin.Context, name string) (*decimal.Decimal, error) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return nil, nil
	}
	amount, err := utils.ParseDecimal(raw)
	if err != nil {
		return nil, utils.NewValidationError(name, "invalid amount")
	}
	return &amount, nil
}

func (h *Handler) ListFinancialRecords(c *gin.Context, auth appctx.Auth) {
	kind, ok := kindParam(c)
	if !ok {
		return
	}
	var filter models.FinancialFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid query"})
		return
	}
	var err error
	if filter.MinAmount, err = amountQuery(c, "min_amount"); err != nil {
		h.respondError(c, err)
		return
	}
	if filter.MaxAmount, err = amountQuery(c, "max_amount"); err != nil {
		h.respondError(c, err)
		return
	}
	records, info, err := models.ListFinancialRecords(c.Request.Context(), kind, filter, h.now())
	if err != nil {
		h.respondError(c, err)
		return
	}
	listResponse(c, records, info)
}

func (h *Handler) CreateFinancialRecord(c *gin.Context, auth appctx.Auth) {
	kind, ok := kindParam(c)
	if !ok {
		return
	}
	var input models.NewFinancialRecord
	if !bindJSON(c, &input) {
		return
	}
	record, err := models.CreateFinancialRecord(c.Request.Context(), kind, &input)
	if err != nil {
		h.respondError(c, err)
		return
	}
	h.notifier.NotifyAsync(auth, correlationId(c), "financial", "created", record)
	c.JSON(http.StatusCreated, record)
}

func (h *Handler) GetFinancialRecord(c *gin.Context, auth appctx.Auth) {
	kind, ok := kindParam(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	record, err := models.GetFinancialRecord(c.Request.Context(), kind, id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, record)
}

func (h *Handler) UpdateFinancialRecord(c *gin.Context, auth appctx.Auth) {
	kind, ok := kindParam(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var input models.NewFinancialRecord
	if !bindJSON(c, &input) {
		return
	}
	record, err := models.UpdateFinancialRecord(c.Request.Context(), kind, id, &input)
	if err != nil {
		h.respondError(c, err)
		return
	}
	h.notifier.NotifyAsync(auth, correlationId(c), "financial", "updated", record)
	c.JSON(http.StatusOK, record)
}

func (h *Handler) DeleteFinancialRecord(c *gin.Context, auth appctx.Auth) {
	kind, ok := kindParam(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	record, err := models.DeleteFinancialRecord(c.Request.Context(), kind, id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	h.notifier.NotifyAsync(auth, correlationId(c), "financial", "deleted", record)
	c.JSON(http.StatusOK, record)
}

// PayFinancialRecord stamps paid_at; an empty body means now.
func (h *Handler) PayFinancialRecord(c *gin.Context, auth appctx.Auth) {
	kind, ok := kindParam(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req payRequest
	if c.Request.ContentLength > 0 && !bindJSON(c, &req) {
		return
	}
	record, err := models.MarkFinancialRecordPaid(c.Request.Context(), kind, id, req.PaidAt)
	if err != nil {
		h.respondError(c, err)
		return
	}
	h.notifier.NotifyAsync(auth, correlationId(c), "financial", "paid", record)
	c.JSON(http.StatusOK, record)
}

// FinancialSummary serves /financeiro/:kind/summary; "fluxo-caixa" is the transaction cash flow.
// status and category narrow the records before they are aggregated.
func (h *Handler) FinancialSummary(c *gin.Context, auth appctx.Auth) {
	ctx := c.Request.Context()
	now := h.now()
	if strings.EqualFold(c.Param("kind"), cashFlowPath) {
		records, err := models.ListAllFinancialRecords(ctx, models.FinancialKindTransaction, "")
		if err != nil {
			h.respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, models.SummarizeCashFlow(records, now))
		return
	}

	kind, ok := kindParam(c)
	if !ok {
		return
	}
	status, err := models.ParseFinancialStatusFilter(c.Query("status"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	records, err := models.ListAllFinancialRecords(ctx, kind, c.Query("category"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	records = models.FilterFinancialRecordsByStatus(records, status, now)
	c.JSON(http.StatusOK, models.SummarizeFinancialRecords(records, now))
}

func (h *Handler) FinancialDashboard(c *gin.Context, auth appctx.Auth) {
	dashboard, err := models.GetFinancialDashboard(c.Request.Context(), h.now())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dashboard)
}

func (h *Handler) ExportFinancialRecords(c *gin.Context, auth appctx.Auth) {
	ctx, span := tracer.Start(c.Request.Context(), "ExportFinancialRecords")
	defer span.End()

	kind, ok := kindParam(c)
	if !ok {
		return
	}
	records, err := models.ListAllFinancialRecords(ctx, kind, c.Query("category"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	now := h.now()
	var buf bytes.Buffer
	if err := models.WriteFinancialWorkbook(&buf, kind, records, now); err != nil {
		h.respondError(c, err)
		return
	}
	filename := models.FinancialExportFilename(kind, now)
	h.logger.WithFields(logrus.Fields{
		"tenant_id": auth.TenantId,
		"kind":      kind,
		"rows":      len(records),
	}).Info("[financial.export]")
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Data(http.StatusOK, xlsxMimeType, buf.Bytes())
}

// ChargeInvoice is only valid for receitas. A gateway failure answers 502 and leaves the invoice as it was.
func (h *Handler) ChargeInvoice(c *gin.Context, auth appctx.Auth) {
	kind, ok := kindParam(c)
	if !ok {
		return
	}
	if kind != models.FinancialKindInvoice {
		c.JSON(http.StatusNotFound, gin.H{"error": "route not found"})
		return
	}
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if h.charger == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "payments not configured"})
		return
	}
	var req chargeRequest
	if c.Request.ContentLength > 0 && !bindJSON(c, &req) {
		return
	}
	payer := strings.TrimSpace(req.PayerEmail)
	if payer == "" {
		payer = auth.Email
	}
	record, err := h.charger.ChargeInvoice(c.Request.Context(), id, payer)
	if err != nil {
		h.respondError(c, err)
		return
	}
	h.notifier.NotifyAsync(auth, correlationId(c), "financial", "charged", record)
	c.JSON(http.StatusOK, record)
}
