package keycloak

import (
	"context"
	"errors"
	"sync"

	"github.com/Arcaz22/Productivity-Tracker/internal/logger"
)

// Clients holds the process-wide provider clients. The OpenID client is
// cheap and built eagerly; the admin client performs a grant on first use
// and is resolved at most once.
type Clients struct {
	client *Client

	mu       sync.Mutex
	admin    *Admin
	adminErr error
}

// NewClients builds the client set from configuration.
func NewClients(cfg Config, log *logger.Logger) *Clients {
	return &Clients{client: NewClient(cfg, log)}
}

// OpenID returns the realm OpenID client.
func (s *Clients) OpenID() *Client { return s.client }

// Admin returns the resolved admin client, resolving it on first call.
// A misconfiguration (ErrAdminNotConfigured) is cached — it cannot heal
// without a restart — while transient grant failures are retried on the
// next call.
func (s *Clients) Admin(ctx context.Context) (*Admin, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.admin != nil {
		return s.admin, nil
	}
	if s.adminErr != nil {
		return nil, s.adminErr
	}

	admin, err := NewAdmin(ctx, s.client)
	if err != nil {
		if errors.Is(err, ErrAdminNotConfigured) {
			s.adminErr = err
		}
		return nil, err
	}
	s.admin = admin
	return admin, nil
}
