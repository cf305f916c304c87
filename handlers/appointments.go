package handlers

import (
	"net/http"

	"github.com/despasys/despasys_backend/appctx"
	"github.com/despasys/despasys_backend/models"
	"github.com/gin-gonic/gin"
)

func (h *Handler) ListAppointments(c *gin.Context, auth appctx.Auth) {
	var filter models.AppointmentFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid query"})
		return
	}
	appointments, info, err := models.ListAppointments(c.Request.Context(), filter)
	if err != nil {
		h.respondError(c, err)
		return
	}
	listResponse(c, appointments, info)
}

func (h *Handler) CreateAppointment(c *gin.Context, auth appctx.Auth) {
	var input models.NewAppointment
	if !bindJSON(c, &input) {
		return
	}
	appointment, err := models.CreateAppointment(c.Request.Context(), &input)
	if err != nil {
		h.respondError(c, err)
		return
	}
	h.notifier.NotifyAsync(auth, correlationId(c), "appointments", "created", appointment)
	c.JSON(http.StatusCreated, appointment)
}

func (h *Handler) GetAppointment(c *gin.Context, auth appctx.Auth) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	appointment, err := models.GetAppointment(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, appointment)
}

func (h *Handler) UpdateAppointment(c *gin.Context, auth appctx.Auth) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var input models.NewAppointment
	if !bindJSON(c, &input) {
		return
	}
	appointment, err := models.UpdateAppointment(c.Request.Context(), id, &input)
	if err != nil {
		h.respondError(c, err)
		return
	}
	h.notifier.NotifyAsync(auth, correlationId(c), "appointments", "updated", appointment)
	c.JSON(http.StatusOK, appointment)
}

// CancelAppointment backs DELETE /appointments/:id; the row stays with status CANCELLED.
func (h *Handler) CancelAppointment(c *gin.Context, auth appctx.Auth) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	appointment, err := models.CancelAppointment(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	h.notifier.NotifyAsync(auth, correlationId(c), "appointments", "cancelled", appointment)
	c.JSON(http.StatusOK, appointment)
}
