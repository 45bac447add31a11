package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	identityapp "github.com/chakravyuh/backend/internal/application/identity"
	"github.com/chakravyuh/backend/internal/interfaces/http/dto"
	"github.com/chakravyuh/backend/internal/interfaces/http/middleware"
)

// AdminHandler handles admin setup, login and session endpoints
type AdminHandler struct {
	BaseHandler
	authService *identityapp.AuthService
}

// NewAdminHandler creates a new AdminHandler
func NewAdminHandler(authService *identityapp.AuthService) *AdminHandler {
	return &AdminHandler{authService: authService}
}

// SetupStatus handles GET /api/v1/admin/setup
func (h *AdminHandler) SetupStatus(c *gin.Context) {
	status, err := h.authService.SetupStatus(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, status)
}

// Setup handles POST /api/v1/admin/setup, creating the first admin account
func (h *AdminHandler) Setup(c *gin.Context) {
	var input identityapp.SetupInput
	if err := c.ShouldBindJSON(&input); err != nil {
		h.BadRequest(c, "Invalid request body")
		return
	}

	result, err := h.authService.Setup(c.Request.Context(), input)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, result)
}

// Login handles POST /api/v1/admin/login
func (h *AdminHandler) Login(c *gin.Context) {
	var input identityapp.LoginInput
	if err := c.ShouldBindJSON(&input); err != nil {
		h.BadRequest(c, "Invalid request body")
		return
	}

	result, err := h.authService.Login(c.Request.Context(), input)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// Me handles GET /api/v1/admin/me, returning the authenticated admin
func (h *AdminHandler) Me(c *gin.Context) {
	email := middleware.GetJWTEmail(c)
	if email == "" {
		c.JSON(http.StatusUnauthorized,
			dto.NewErrorResponse(dto.ErrCodeUnauthorized, "Authentication required"))
		return
	}

	user, err := h.authService.Me(c.Request.Context(), email)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, user)
}

// Logout handles POST /api/v1/admin/logout, revoking the current session token
func (h *AdminHandler) Logout(c *gin.Context) {
	claims := middleware.GetJWTClaims(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized,
			dto.NewErrorResponse(dto.ErrCodeUnauthorized, "Authentication required"))
		return
	}

	if err := h.authService.Logout(c.Request.Context(), claims); err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessMessage(c, "Logged out", nil)
}
