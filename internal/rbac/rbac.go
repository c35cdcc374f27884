// Package rbac decides whether a verified identity may invoke an
// operation guarded by a required role set.
package rbac

import (
	"github.com/Arcaz22/Productivity-Tracker/internal/auth"
	apperrors "github.com/Arcaz22/Productivity-Tracker/internal/errors"
)

// Authorize allows the request iff the identity holds at least one of the
// required roles (OR semantics). The denial is a generic 403 carrying no
// hint of which role was missing. Pure function of its inputs.
func Authorize(identity *auth.Identity, required []string) error {
	if identity == nil {
		return apperrors.Forbidden()
	}
	if len(required) == 0 {
		return nil
	}
	if identity.HasAnyRole(required...) {
		return nil
	}
	return apperrors.Forbidden()
}
