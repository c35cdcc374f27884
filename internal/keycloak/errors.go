package keycloak

import (
	"errors"
	"fmt"
)

// Sentinel errors for provider outcomes the service layer branches on.
var (
	// ErrInvalidCredentials is returned when the provider rejects a
	// username/password pair.
	ErrInvalidCredentials = errors.New("keycloak: invalid credentials")
	// ErrUserExists is returned when the provider reports the account
	// already exists.
	ErrUserExists = errors.New("keycloak: user already exists")
	// ErrAdminNotConfigured is returned when neither admin strategy is
	// usable. This is a deployment error, not a per-request error.
	ErrAdminNotConfigured = errors.New("keycloak: admin not configured: enable the service account or set admin_username/admin_password")
)

// APIError carries a non-2xx provider response.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("keycloak: provider returned %d: %s", e.Status, e.Message)
}

// CallerCaused reports whether the failure is attributable to caller input
// rather than the provider or this service.
func (e *APIError) CallerCaused() bool {
	return e.Status >= 400 && e.Status < 500
}
