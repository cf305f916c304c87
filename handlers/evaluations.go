package handlers

import (
	"net/http"

	"github.com/despasys/despasys_backend/appctx"
	"github.com/despasys/despasys_backend/models"
	"github.com/gin-gonic/gin"
)

func (h *Handler) ListEvaluations(c *gin.Context, auth appctx.Auth) {
	var filter models.EvaluationFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid query"})
		return
	}
	evaluations, info, err := models.ListEvaluations(c.Request.Context(), filter)
	if err != nil {
		h.respondError(c, err)
		return
	}
	listResponse(c, evaluations, info)
}

func (h *Handler) CreateEvaluation(c *gin.Context, auth appctx.Auth) {
	var input models.NewEvaluation
	if !bindJSON(c, &input) {
		return
	}
	evaluation, err := models.CreateEvaluation(c.Request.Context(), &input)
	if err != nil {
		h.respondError(c, err)
		return
	}
	h.notifier.NotifyAsync(auth, correlationId(c), "evaluations", "created", evaluation)
	c.JSON(http.StatusCreated, evaluation)
}

func (h *Handler) GetEvaluation(c *gin.Context, auth appctx.Auth) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	evaluation, err := models.GetEvaluation(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, evaluation)
}

func (h *Handler) UpdateEvaluation(c *gin.Context, auth appctx.Auth) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var input models.EvaluationUpdate
	if !bindJSON(c, &input) {
		return
	}
	evaluation, err := models.UpdateEvaluation(c.Request.Context(), id, &input)
	if err != nil {
		h.respondError(c, err)
		return
	}
	h.notifier.NotifyAsync(auth, correlationId(c), "evaluations", "updated", evaluation)
	c.JSON(http.StatusOK, evaluation)
}

func (h *Handler) DeleteEvaluation(c *gin.Context, auth appctx.Auth) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	evaluation, err := models.DeleteEvaluation(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	h.notifier.NotifyAsync(auth, correlationId(c), "evaluations", "deleted", evaluation)
	c.JSON(http.StatusOK, gin.H{"deleted": id})
}
