package handlers

import (
	"net/http"

	"github.com/despasys/despasys_backend/appctx"
	"github.com/despasys/despasys_backend/models"
	"github.com/gin-gonic/gin"
)

func (h *Handler) ListCustomers(c *gin.Context, auth appctx.Auth) {
	var filter models.CustomerFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid query"})
		return
	}
	customers, info, err := models.ListCustomers(c.Request.Context(), filter)
	if err != nil {
		h.respondError(c, err)
		return
	}
	listResponse(c, customers, info)
}

func (h *Handler) CreateCustomer(c *gin.Context, auth appctx.Auth) {
	var input models.NewCustomer
	if !bindJSON(c, &input) {
		return
	}
	customer, err := models.CreateCustomer(c.Request.Context(), &input)
	if err != nil {
		h.respondError(c, err)
		return
	}
	h.notifier.NotifyAsync(auth, correlationId(c), "clients", "created", customer)
	c.JSON(http.StatusCreated, customer)
}

func (h *Handler) GetCustomer(c *gin.Context, auth appctx.Auth) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	customer, err := models.GetCustomer(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, customer)
}

func (h *Handler) UpdateCustomer(c *gin.Context, auth appctx.Auth) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var input models.NewCustomer
	if !bindJSON(c, &input) {
		return
	}
	customer, err := models.UpdateCustomer(c.Request.Context(), id, &input)
	if err != nil {
		h.respondError(c, err)
		return
	}
	h.notifier.NotifyAsync(auth, correlationId(c), "clients", "updated", customer)
	c.JSON(http.StatusOK, customer)
}

// DeleteCustomer is a soft delete: the customer becomes INATIVO.
func (h *Handler) DeleteCustomer(c *gin.Context, auth appctx.Auth) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	customer, err := models.DeleteCustomer(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	h.notifier.NotifyAsync(auth, correlationId(c), "clients", "deleted", customer)
	c.JSON(http.StatusOK, customer)
}
