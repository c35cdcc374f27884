// Package user implements self-service operations for the authenticated
// user: password change and profile updates, both delegated to the
// identity provider's admin API.
package user

import (
	"context"
	"errors"

	apperrors "github.com/Arcaz22/Productivity-Tracker/internal/errors"
	"github.com/Arcaz22/Productivity-Tracker/internal/keycloak"
	"github.com/Arcaz22/Productivity-Tracker/internal/logger"
)

// Service performs user self-service operations through the provider
// admin API.
type Service struct {
	clients *keycloak.Clients
	log     *logger.Logger
}

// NewService creates a Service.
func NewService(clients *keycloak.Clients, log *logger.Logger) *Service {
	return &Service{clients: clients, log: log.WithComponent("user")}
}

// ChangePassword sets a new permanent password for the user and then
// invalidates their existing sessions. The session logout is best-effort:
// a failure there does not undo the password change.
func (s *Service) ChangePassword(ctx context.Context, userID string, req ChangePasswordRequest) error {
	if req.NewPassword != req.ConfirmPassword {
		return apperrors.Validation("New password confirmation does not match")
	}

	admin, err := s.admin(ctx)
	if err != nil {
		return err
	}

	if err := admin.SetUserPassword(ctx, userID, req.NewPassword); err != nil {
		return s.mapAdminError(err, "Failed to change password")
	}

	if err := admin.LogoutUser(ctx, userID); err != nil {
		s.log.Warn("Session logout after password change failed", map[string]interface{}{
			"user_id": userID,
			"error":   err.Error(),
		})
	}

	s.log.Info("Password changed", map[string]interface{}{"user_id": userID})
	return nil
}

// UpdateProfile applies the non-nil fields to the provider user record
// and returns the updated profile. Changing the email address resets the
// email-verified flag.
func (s *Service) UpdateProfile(ctx context.Context, userID string, req UpdateProfileRequest) (*Profile, error) {
	if req.FirstName == nil && req.LastName == nil && req.Email == nil {
		return nil, apperrors.Validation("At least one field must be provided")
	}

	admin, err := s.admin(ctx)
	if err != nil {
		return nil, err
	}

	current, err := admin.GetUser(ctx, userID)
	if err != nil {
		return nil, s.mapAdminError(err, "Failed to load profile")
	}

	update := keycloak.UserRepresentation{
		FirstName: current.FirstName,
		LastName:  current.LastName,
		Email:     current.Email,
	}
	if req.FirstName != nil {
		update.FirstName = *req.FirstName
	}
	if req.LastName != nil {
		update.LastName = *req.LastName
	}
	if req.Email != nil && *req.Email != current.Email {
		update.Email = *req.Email
		verified := false
		update.EmailVerified = &verified
	}

	if err := admin.UpdateUser(ctx, userID, update); err != nil {
		return nil, s.mapAdminError(err, "Failed to update profile")
	}

	updated, err := admin.GetUser(ctx, userID)
	if err != nil {
		return nil, s.mapAdminError(err, "Failed to load profile")
	}

	s.log.Info("Profile updated", map[string]interface{}{"user_id": userID})
	return toProfile(updated), nil
}

func (s *Service) admin(ctx context.Context) (*keycloak.Admin, error) {
	admin, err := s.clients.Admin(ctx)
	if err != nil {
		if errors.Is(err, keycloak.ErrAdminNotConfigured) {
			s.log.Error("User management unavailable: no admin credentials configured")
			return nil, apperrors.AdminNotConfigured()
		}
		return nil, apperrors.ExternalServiceError("identity provider", err)
	}
	return admin, nil
}

// mapAdminError converts provider admin API failures to application
// errors. Caller-caused provider responses surface as validation errors,
// everything else as an external service failure.
func (s *Service) mapAdminError(err error, message string) error {
	var apiErr *keycloak.APIError
	if errors.As(err, &apiErr) && apiErr.CallerCaused() {
		return apperrors.Validation(message + ": " + apiErr.Message)
	}
	return apperrors.ExternalServiceError("identity provider", err)
}

func toProfile(u *keycloak.UserRepresentation) *Profile {
	p := &Profile{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		FirstName: u.FirstName,
		LastName:  u.LastName,
	}
	if u.EmailVerified != nil {
		p.EmailVerified = *u.EmailVerified
	}
	return p
}
