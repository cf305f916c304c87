package handlers

import (
	"net/http"

	"github.com/despasys/despasys_backend/appctx"
	"github.com/despasys/despasys_backend/models"
	"github.com/gin-gonic/gin"
)

// ListReports answers with the filtered page plus stats over every laudo of the tenant.
func (h *Handler) ListReports(c *gin.Context, auth appctx.Auth) {
	var filter models.TechnicalReportFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid query"})
		return
	}
	reports, info, stats, err := models.ListTechnicalReports(c.Request.Context(), filter)
	if err != nil {
		h.respondError(c, err)
		return
	}
	if reports == nil {
		reports = []*models.TechnicalReport{}
	}
	c.JSON(http.StatusOK, gin.H{"data": reports, "pagination": info, "stats": stats})
}

func (h *Handler) CreateReport(c *gin.Context, auth appctx.Auth) {
	var input models.NewTechnicalReport
	if !bindJSON(c, &input) {
		return
	}
	report, err := models.CreateTechnicalReport(c.Request.Context(), &input)
	if err != nil {
		h.respondError(c, err)
		return
	}
	h.notifier.NotifyAsync(auth, correlationId(c), "reports", "created", report)
	c.JSON(http.StatusCreated, report)
}

func (h *Handler) GetReport(c *gin.Context, auth appctx.Auth) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	report, err := models.GetTechnicalReport(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

func (h *Handler) UpdateReport(c *gin.Context, auth appctx.Auth) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var input models.TechnicalReportUpdate
	if !bindJSON(c, &input) {
		return
	}
	report, err := models.UpdateTechnicalReport(c.Request.Context(), id, &input)
	if err != nil {
		h.respondError(c, err)
		return
	}
	h.notifier.NotifyAsync(auth, correlationId(c), "reports", "updated", report)
	c.JSON(http.StatusOK, report)
}

func (h *Handler) DeleteReport(c *gin.Context, auth appctx.Auth) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	report, err := models.DeleteTechnicalReport(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	h.notifier.NotifyAsync(auth, correlationId(c), "reports", "deleted", report)
	c.JSON(http.StatusOK, gin.H{"deleted": id})
}
