package handlers

import (
	"github.com/aureliahotels/booking-backend/internal/models"
	"github.com/aureliahotels/booking-backend/internal/services"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// AdminAuthHandler handles admin authentication HTTP requests
type AdminAuthHandler struct {
	adminAuthService *services.AdminAuthService
	logger           *logrus.Logger
}

// NewAdminAuthHandler creates a new admin auth handler
func NewAdminAuthHandler(adminAuthService *services.AdminAuthService, logger *logrus.Logger) *AdminAuthHandler {
	return &AdminAuthHandler{adminAuthService: adminAuthService, logger: logger}
}

// Login handles admin login requests
// @Summary Admin login
// @Description Authenticate a back-office user and return an access token
// @Tags Admin Auth
// @Accept json
// @Produce json
// @Param loginRequest body models.LoginRequest true "Login credentials"
// @Success 200 {object} APIResponse
// @Failure 401 {object} APIResponse
// @Router /admin/auth/login [post]
func (h *AdminAuthHandler) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	resp, err := h.adminAuthService.Login(&req)
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, resp)
}
