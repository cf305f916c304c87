package handlers

import (
	"net/http"

	"github.com/despasys/despasys_backend/appctx"
	"github.com/despasys/despasys_backend/models"
	"github.com/gin-gonic/gin"
)

// ListUsers and CreateUser sit behind RequireRole(ADMIN).
func (h *Handler) ListUsers(c *gin.Context, auth appctx.Auth) {
	users, err := models.ListUsers(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	if users == nil {
		users = []*models.User{}
	}
	c.JSON(http.StatusOK, gin.H{"data": users})
}

func (h *Handler) CreateUser(c *gin.Context, auth appctx.Auth) {
	var input models.NewUser
	if !bindJSON(c, &input) {
		return
	}
	user, err := models.CreateUser(c.Request.Context(), &input)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, user)
}
