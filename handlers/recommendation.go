package handlers

import (
	"errors"
	"net/http"

	"github.com/despasys/despasys_backend/appctx"
	"github.com/despasys/despasys_backend/utils"
	"github.com/gin-gonic/gin"
)

// CustomerRecommendation degrades every model failure to {"model_available": false}.
// A customer outside the tenant is still a 404.
func (h *Handler) CustomerRecommendation(c *gin.Context, auth appctx.Auth) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if h.recommender == nil {
		c.JSON(http.StatusOK, gin.H{"model_available": false})
		return
	}
	prediction, err := h.recommender.Recommend(c.Request.Context(), id)
	if errors.Is(err, utils.ErrorRecordNotFound) || errors.Is(err, utils.ErrUnauthorized) {
		h.respondError(c, err)
		return
	}
	if err != nil || prediction == nil {
		c.JSON(http.StatusOK, gin.H{"model_available": false})
		return
	}
	c.JSON(http.StatusOK, prediction)
}
