package handlers

import (
	"net/http"

	"github.com/despasys/despasys_backend/appctx"
	"github.com/despasys/despasys_backend/models"
	"github.com/gin-gonic/gin"
)

func (h *Handler) ListVehicles(c *gin.Context, auth appctx.Auth) {
	var filter models.VehicleFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid query"})
		return
	}
	vehicles, info, err := models.ListVehicles(c.Request.Context(), filter)
	if err != nil {
		h.respondError(c, err)
		return
	}
	listResponse(c, vehicles, info)
}

func (h *Handler) CreateVehicle(c *gin.Context, auth appctx.Auth) {
	var input models.NewVehicle
	if !bindJSON(c, &input) {
		return
	}
	vehicle, err := models.CreateVehicle(c.Request.Context(), &input)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, vehicle)
}

func (h *Handler) GetVehicle(c *gin.Context, auth appctx.Auth) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	vehicle, err := models.GetVehicle(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, vehicle)
}

func (h *Handler) UpdateVehicle(c *gin.Context, auth appctx.Auth) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var input models.NewVehicle
	if !bindJSON(c, &input) {
		return
	}
	vehicle, err := models.UpdateVehicle(c.Request.Context(), id, &input)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, vehicle)
}

func (h *Handler) DeleteVehicle(c *gin.Context, auth appctx.Auth) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	vehicle, err := models.DeleteVehicle(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, vehicle)
}
