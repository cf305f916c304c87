package handlers

import (
	"net/http"

	"github.com/despasys/despasys_backend/models"
	"github.com/gin-gonic/gin"
)

// TenantByDomain is public: the login page resolves its office before anyone signs in.
func (h *Handler) TenantByDomain(c *gin.Context) {
	tenant, err := models.GetTenantByDomain(c.Request.Context(), c.Param("domain"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, tenant.View())
}
