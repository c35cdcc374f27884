package user

import (
	"github.com/gin-gonic/gin"

	"github.com/Arcaz22/Productivity-Tracker/internal/auth"
	apperrors "github.com/Arcaz22/Productivity-Tracker/internal/errors"
	"github.com/Arcaz22/Productivity-Tracker/internal/server"
)

// Handler exposes the user self-service endpoints.
type Handler struct {
	service *Service
}

// NewHandler creates a Handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Me handles GET /user/me and answers from the verified token claims
// without a provider round trip.
func (h *Handler) Me(c *gin.Context) {
	identity, ok := auth.CurrentIdentity(c)
	if !ok {
		server.RespondWithError(c, apperrors.Unauthorized("Token not provided"))
		return
	}

	server.RespondOK(c, "User retrieved successfully", MeResponse{
		ID:       identity.Subject,
		Username: identity.Username,
		Email:    identity.Email,
		FullName: identity.FullName,
		Roles:    identity.Roles,
	})
}

// ChangePassword handles POST /user/change-password.
func (h *Handler) ChangePassword(c *gin.Context) {
	identity, ok := auth.CurrentIdentity(c)
	if !ok {
		server.RespondWithError(c, apperrors.Unauthorized("Token not provided"))
		return
	}

	var req ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		server.RespondWithError(c, apperrors.Validation(err.Error()))
		return
	}

	if err := h.service.ChangePassword(c.Request.Context(), identity.Subject, req); err != nil {
		server.RespondWithError(c, err)
		return
	}
	server.RespondOK(c, "Password changed successfully", nil)
}

// UpdateProfile handles PATCH /user/me/profile.
func (h *Handler) UpdateProfile(c *gin.Context) {
	identity, ok := auth.CurrentIdentity(c)
	if !ok {
		server.RespondWithError(c, apperrors.Unauthorized("Token not provided"))
		return
	}

	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		server.RespondWithError(c, apperrors.Validation(err.Error()))
		return
	}

	profile, err := h.service.UpdateProfile(c.Request.Context(), identity.Subject, req)
	if err != nil {
		server.RespondWithError(c, err)
		return
	}
	server.RespondOK(c, "Profile updated successfully", profile)
}
