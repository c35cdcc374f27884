package auth

import (
	"github.com/gin-gonic/gin"

	apperrors "github.com/Arcaz22/Productivity-Tracker/internal/errors"
	"github.com/Arcaz22/Productivity-Tracker/internal/server"
)

// Handler exposes the authentication endpoints.
type Handler struct {
	service *Service
}

// NewHandler creates a Handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Login handles POST /auth/login.
func (h *Handler) Login(c *gin.Context) {
	var req TokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		server.RespondWithError(c, apperrors.Validation(err.Error()))
		return
	}

	tokens, err := h.service.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		server.RespondWithError(c, err)
		return
	}
	server.RespondOK(c, "Login successful", tokens)
}

// Register handles POST /auth/add-user. The route is restricted to the
// admin role.
func (h *Handler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		server.RespondWithError(c, apperrors.Validation(err.Error()))
		return
	}

	result, err := h.service.Register(c.Request.Context(), req)
	if err != nil {
		server.RespondWithError(c, err)
		return
	}
	server.RespondCreated(c, "User registered successfully", result)
}
