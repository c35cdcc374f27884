package keycloak

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
)

// adminStrategy names how the admin token is obtained.
type adminStrategy string

const (
	strategyServiceAccount adminStrategy = "service_account"
	strategyAdminPassword  adminStrategy = "admin_password"
)

// Admin performs user-management calls against the Keycloak admin REST API.
// The admin access token is acquired lazily and refreshed on expiry under a
// mutex; request-handling goroutines share one Admin instance.
type Admin struct {
	client   *Client
	strategy adminStrategy

	mu       sync.Mutex
	token    string
	tokenExp time.Time
}

// NewAdmin resolves the admin strategy and proves it works by performing an
// initial grant. Strategies are tried in order: the client's service
// account, then the static admin credentials. Each rejected step is logged
// so silent fallbacks are observable.
func NewAdmin(ctx context.Context, client *Client) (*Admin, error) {
	cfg := client.cfg

	if cfg.UseServiceAccount && cfg.ClientSecret != "" {
		ts, err := client.ClientCredentialsToken(ctx)
		if err == nil {
			a := &Admin{client: client, strategy: strategyServiceAccount}
			a.storeToken(ts)
			client.log.Debug("Admin client resolved", map[string]interface{}{
				"strategy": string(strategyServiceAccount),
			})
			return a, nil
		}
		if !errors.Is(err, ErrInvalidCredentials) {
			return nil, err
		}
		client.log.Warn("Service account grant rejected, falling back to admin credentials")
	}

	if cfg.AdminUsername != "" && cfg.AdminPassword != "" {
		ts, err := client.adminPasswordToken(ctx)
		if err != nil {
			if errors.Is(err, ErrInvalidCredentials) {
				return nil, ErrAdminNotConfigured
			}
			return nil, err
		}
		a := &Admin{client: client, strategy: strategyAdminPassword}
		a.storeToken(ts)
		client.log.Debug("Admin client resolved", map[string]interface{}{
			"strategy": string(strategyAdminPassword),
		})
		return a, nil
	}

	return nil, ErrAdminNotConfigured
}

// adminPasswordToken performs a password grant for the static admin user
// through the public admin-cli client.
func (c *Client) adminPasswordToken(ctx context.Context) (*TokenSet, error) {
	form := url.Values{
		"grant_type": {"password"},
		"client_id":  {"admin-cli"},
		"username":   {c.cfg.AdminUsername},
		"password":   {c.cfg.AdminPassword},
	}
	return c.grant(ctx, form)
}

// Strategy returns the resolved admin strategy.
func (a *Admin) Strategy() string { return string(a.strategy) }

func (a *Admin) storeToken(ts *TokenSet) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.token = ts.AccessToken
	// Refresh slightly early so in-flight requests never carry an expired
	// token.
	a.tokenExp = time.Now().Add(time.Duration(ts.ExpiresIn)*time.Second - 30*time.Second)
}

// ensureToken returns a currently valid admin access token, re-running the
// resolved grant strategy if the cached token has expired.
func (a *Admin) ensureToken(ctx context.Context) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.token != "" && time.Now().Before(a.tokenExp) {
		return a.token, nil
	}

	var ts *TokenSet
	var err error
	switch a.strategy {
	case strategyServiceAccount:
		ts, err = a.client.ClientCredentialsToken(ctx)
	case strategyAdminPassword:
		ts, err = a.client.adminPasswordToken(ctx)
	default:
		return "", ErrAdminNotConfigured
	}
	if err != nil {
		return "", fmt.Errorf("keycloak: refresh admin token: %w", err)
	}

	a.token = ts.AccessToken
	a.tokenExp = time.Now().Add(time.Duration(ts.ExpiresIn)*time.Second - 30*time.Second)
	return a.token, nil
}

// UserRepresentation is the admin API user payload.
type UserRepresentation struct {
	ID            string       `json:"id,omitempty"`
	Username      string       `json:"username,omitempty"`
	Email         string       `json:"email,omitempty"`
	FirstName     string       `json:"firstName,omitempty"`
	LastName      string       `json:"lastName,omitempty"`
	Enabled       *bool        `json:"enabled,omitempty"`
	EmailVerified *bool        `json:"emailVerified,omitempty"`
	Credentials   []Credential `json:"credentials,omitempty"`
}

// Credential is the admin API credential payload.
type Credential struct {
	Type      string `json:"type"`
	Value     string `json:"value"`
	Temporary bool   `json:"temporary"`
}

// CreateUser creates a user and returns the provider-assigned user id.
// A 409 from the provider maps to ErrUserExists.
func (a *Admin) CreateUser(ctx context.Context, user UserRepresentation) (string, error) {
	resp, err := a.do(ctx, http.MethodPost, "/users", user)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close() //nolint:errcheck

	switch {
	case resp.StatusCode == http.StatusCreated:
		location := resp.Header.Get("Location")
		if idx := strings.LastIndex(location, "/"); idx >= 0 {
			return location[idx+1:], nil
		}
		return "", fmt.Errorf("keycloak: create user: missing Location header")
	case resp.StatusCode == http.StatusConflict:
		return "", ErrUserExists
	default:
		apiErr := &APIError{Status: resp.StatusCode, Message: readErrorBody(resp.Body)}
		// Some realm configurations report duplicates as a 400 with a
		// "User exists" message instead of a 409.
		if strings.Contains(apiErr.Message, "User exists") {
			return "", ErrUserExists
		}
		return "", apiErr
	}
}

// SetUserPassword sets a permanent password for the user.
func (a *Admin) SetUserPassword(ctx context.Context, userID, password string) error {
	cred := Credential{Type: "password", Value: password, Temporary: false}
	resp, err := a.do(ctx, http.MethodPut, "/users/"+userID+"/reset-password", cred)
	if err != nil {
		return err
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode >= 300 {
		return &APIError{Status: resp.StatusCode, Message: readErrorBody(resp.Body)}
	}
	return nil
}

// UpdateUser applies a partial update to the user record.
func (a *Admin) UpdateUser(ctx context.Context, userID string, user UserRepresentation) error {
	resp, err := a.do(ctx, http.MethodPut, "/users/"+userID, user)
	if err != nil {
		return err
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode == http.StatusNotFound {
		return &APIError{Status: resp.StatusCode, Message: "user not found"}
	}
	if resp.StatusCode >= 300 {
		return &APIError{Status: resp.StatusCode, Message: readErrorBody(resp.Body)}
	}
	return nil
}

// GetUser fetches the user record by provider id.
func (a *Admin) GetUser(ctx context.Context, userID string) (*UserRepresentation, error) {
	resp, err := a.do(ctx, http.MethodGet, "/users/"+userID, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		return nil, &APIError{Status: resp.StatusCode, Message: readErrorBody(resp.Body)}
	}

	var user UserRepresentation
	if err := json.NewDecoder(resp.Body).Decode(&user); err != nil {
		return nil, fmt.Errorf("keycloak: decode user: %w", err)
	}
	return &user, nil
}

// LogoutUser invalidates all of the user's sessions. Callers treat failure
// as non-fatal.
func (a *Admin) LogoutUser(ctx context.Context, userID string) error {
	resp, err := a.do(ctx, http.MethodPost, "/users/"+userID+"/logout", nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode >= 300 {
		return &APIError{Status: resp.StatusCode, Message: readErrorBody(resp.Body)}
	}
	return nil
}

// do sends an authenticated admin API request.
func (a *Admin) do(ctx context.Context, method, path string, body interface{}) (*http.Response, error) {
	token, err := a.ensureToken(ctx)
	if err != nil {
		return nil, err
	}

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("keycloak: encode request body: %w", err)
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, a.client.cfg.AdminRealmURL()+path, reader)
	if err != nil {
		return nil, fmt.Errorf("keycloak: create admin request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := a.client.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("keycloak: admin request %s %s: %w", method, path, err)
	}
	return resp, nil
}
