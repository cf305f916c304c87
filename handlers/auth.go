package handlers

import (
	"net/http"

	"github.com/despasys/despasys_backend/appctx"
	"github.com/despasys/despasys_backend/models"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Login opens a web session; the returned token goes in the "token" header.
func (h *Handler) Login(c *gin.Context) {
	var req loginRequest
	if !bindJSON(c, &req) {
		return
	}
	info, err := models.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		h.logger.WithFields(logrus.Fields{"email": req.Email, "error": err.Error()}).Info("[auth.login] rejected")
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, info)
}

// MobileLogin returns a bearer JWT instead of a redis session.
func (h *Handler) MobileLogin(c *gin.Context) {
	var req loginRequest
	if !bindJSON(c, &req) {
		return
	}
	info, err := models.MobileLogin(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		h.logger.WithFields(logrus.Fields{"email": req.Email, "error": err.Error()}).Info("[auth.mobile_login] rejected")
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": info.Token, "user": info})
}

func (h *Handler) Logout(c *gin.Context, auth appctx.Auth) {
	if _, err := models.Logout(c.Request.Context()); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *Handler) Me(c *gin.Context, auth appctx.Auth) {
	c.JSON(http.StatusOK, auth)
}
