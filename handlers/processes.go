package handlers

import (
	"net/http"

	"github.com/despasys/despasys_backend/appctx"
	"github.com/despasys/despasys_backend/models"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
)

type processStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

type processDetail struct {
	*models.Process
	Documents []*models.ProcessDocument `json:"documents"`
}

func (h *Handler) ListProcesses(c *gin.Context, auth appctx.Auth) {
	ctx, span := tracer.Start(c.Request.Context(), "ListProcesses")
	defer span.End()

	var filter models.ProcessFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid query"})
		return
	}
	processes, info, err := h.processes.List(ctx, filter)
	if err != nil {
		h.respondError(c, err)
		return
	}
	span.SetAttributes(attribute.Int64("total", info.Total))
	listResponse(c, processes, info)
}

func (h *Handler) CreateProcess(c *gin.Context, auth appctx.Auth) {
	ctx, span := tracer.Start(c.Request.Context(), "CreateProcess")
	defer span.End()

	var input models.NewProcess
	if !bindJSON(c, &input) {
		return
	}
	if input.ResponsibleId == 0 {
		input.ResponsibleId = auth.UserId
	}
	process, err := h.processes.Create(ctx, &input)
	if err != nil {
		h.respondError(c, err)
		return
	}
	span.SetAttributes(attribute.String("process.number", process.Number))
	h.notifier.NotifyAsync(auth, correlationId(c), "processes", "created", process)
	c.JSON(http.StatusCreated, process)
}

// GetProcess includes the documents linked through completed uploads.
func (h *Handler) GetProcess(c *gin.Context, auth appctx.Auth) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	ctx := c.Request.Context()
	process, err := h.processes.Get(ctx, id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	documents, err := h.directory.Documents(ctx, id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	if documents == nil {
		documents = []*models.ProcessDocument{}
	}
	c.JSON(http.StatusOK, processDetail{Process: process, Documents: documents})
}

func (h *Handler) UpdateProcess(c *gin.Context, auth appctx.Auth) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var input models.ProcessUpdate
	if !bindJSON(c, &input) {
		return
	}
	process, err := h.processes.Update(c.Request.Context(), id, &input)
	if err != nil {
		h.respondError(c, err)
		return
	}
	h.notifier.NotifyAsync(auth, correlationId(c), "processes", "updated", process)
	c.JSON(http.StatusOK, process)
}

func (h *Handler) UpdateProcessStatus(c *gin.Context, auth appctx.Auth) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req processStatusRequest
	if !bindJSON(c, &req) {
		return
	}
	process, err := h.processes.UpdateStatus(c.Request.Context(), id, req.Status)
	if err != nil {
		h.respondError(c, err)
		return
	}
	h.notifier.NotifyAsync(auth, correlationId(c), "processes", "status_changed", process)
	c.JSON(http.StatusOK, process)
}

func (h *Handler) DeleteProcess(c *gin.Context, auth appctx.Auth) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	process, err := h.processes.Delete(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	h.notifier.NotifyAsync(auth, correlationId(c), "processes", "deleted", process)
	c.JSON(http.StatusOK, process)
}

func (h *Handler) ProcessStats(c *gin.Context, auth appctx.Auth) {
	stats, err := h.processes.Stats(c.Request.Context(), h.now())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}
