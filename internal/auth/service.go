package auth

import (
	"context"
	"errors"

	apperrors "github.com/Arcaz22/Productivity-Tracker/internal/errors"
	"github.com/Arcaz22/Productivity-Tracker/internal/keycloak"
	"github.com/Arcaz22/Productivity-Tracker/internal/logger"
)

// Service orchestrates login and registration against the identity
// provider. It holds no state of its own; accounts live in Keycloak.
type Service struct {
	clients *keycloak.Clients
	log     *logger.Logger
}

// NewService creates the authentication service.
func NewService(clients *keycloak.Clients, log *logger.Logger) *Service {
	return &Service{clients: clients, log: log.WithComponent("auth")}
}

// Login exchanges credentials for an access token. Provider rejections are
// normalized to a generic 401 so provider-internal text never leaks.
func (s *Service) Login(ctx context.Context, username, password string) (*TokenResponse, error) {
	ts, err := s.clients.OpenID().Token(ctx, username, password)
	if err != nil {
		if errors.Is(err, keycloak.ErrInvalidCredentials) {
			return nil, apperrors.Unauthorized("Invalid username or password")
		}
		s.log.Error("Token exchange failed", logger.ErrorFields("login", err))
		return nil, apperrors.ExternalServiceError("identity provider", err)
	}

	return &TokenResponse{
		AccessToken: ts.AccessToken,
		TokenType:   "bearer",
	}, nil
}

// Register creates a new account at the identity provider. The account is
// enabled immediately with a permanent password; email starts unverified.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (*RegisterResult, error) {
	admin, err := s.clients.Admin(ctx)
	if err != nil {
		return nil, s.adminError(err)
	}

	enabled := true
	emailVerified := false
	userID, err := admin.CreateUser(ctx, keycloak.UserRepresentation{
		Username:      req.Username,
		Email:         req.Email,
		FirstName:     req.FirstName,
		LastName:      req.LastName,
		Enabled:       &enabled,
		EmailVerified: &emailVerified,
		Credentials: []keycloak.Credential{
			{Type: "password", Value: req.Password, Temporary: false},
		},
	})
	if err != nil {
		if errors.Is(err, keycloak.ErrUserExists) {
			return nil, apperrors.AlreadyExists("Username or email already exists")
		}
		var apiErr *keycloak.APIError
		if errors.As(err, &apiErr) && apiErr.CallerCaused() {
			return nil, apperrors.Validation("Registration failed: " + apiErr.Message)
		}
		s.log.Error("User creation failed", logger.ErrorFields("register", err))
		return nil, apperrors.ExternalServiceError("identity provider", err)
	}

	s.log.Info("User registered", map[string]interface{}{
		"username": req.Username,
		"user_id":  userID,
	})

	return &RegisterResult{UserID: userID, Username: req.Username}, nil
}

// adminError maps admin-resolution failures. A missing admin configuration
// is logged loudly: it means registration and password management are
// broken for this deployment.
func (s *Service) adminError(err error) error {
	if errors.Is(err, keycloak.ErrAdminNotConfigured) {
		s.log.Error("Identity provider admin is not configured", logger.ErrorFields("admin", err))
		return apperrors.AdminNotConfigured()
	}
	s.log.Error("Admin client resolution failed", logger.ErrorFields("admin", err))
	return apperrors.ExternalServiceError("identity provider", err)
}
