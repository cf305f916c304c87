package handlers

import (
	"net/http"

	"github.com/despasys/despasys_backend/appctx"
	"github.com/despasys/despasys_backend/models"
	"github.com/gin-gonic/gin"
)

// SendNotification stores the message and publishes it on the tenant's notifications topic.
func (h *Handler) SendNotification(c *gin.Context, auth appctx.Auth) {
	var input models.NewNotification
	if !bindJSON(c, &input) {
		return
	}
	notification, err := models.CreateNotification(c.Request.Context(), auth.UserId, &input)
	if err != nil {
		h.respondError(c, err)
		return
	}
	h.notifier.NotifyAsync(auth, correlationId(c), "notifications", "created", notification)
	c.JSON(http.StatusCreated, notification)
}

func (h *Handler) ListNotifications(c *gin.Context, auth appctx.Auth) {
	var filter models.NotificationFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid query"})
		return
	}
	notifications, info, err := models.ListNotifications(c.Request.Context(), auth.UserId, filter)
	if err != nil {
		h.respondError(c, err)
		return
	}
	listResponse(c, notifications, info)
}

func (h *Handler) MarkNotificationRead(c *gin.Context, auth appctx.Auth) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	notification, err := models.MarkNotificationRead(c.Request.Context(), auth.UserId, id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, notification)
}
