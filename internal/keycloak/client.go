// Package keycloak is the single point of contact with the Keycloak
// identity provider: password-grant token exchange, token introspection,
// and admin user operations.
package keycloak

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/Arcaz22/Productivity-Tracker/internal/logger"
)

// Client talks to the realm's OpenID Connect endpoints.
type Client struct {
	cfg  Config
	http *http.Client
	log  *logger.Logger
}

// NewClient creates an OpenID client for the configured realm.
func NewClient(cfg Config, log *logger.Logger) *Client {
	cfg.ApplyDefaults()
	return &Client{
		cfg:  cfg,
		http: &http.Client{Timeout: cfg.HTTPTimeout()},
		log:  log.WithComponent("keycloak"),
	}
}

// Config returns the client configuration.
func (c *Client) Config() Config { return c.cfg }

// TokenSet is the provider's token endpoint response.
type TokenSet struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
}

// Token performs a resource-owner password grant for the given credentials.
// The provider rejecting the credentials maps to ErrInvalidCredentials.
func (c *Client) Token(ctx context.Context, username, password string) (*TokenSet, error) {
	form := url.Values{
		"grant_type": {"password"},
		"client_id":  {c.cfg.ClientID},
		"username":   {username},
		"password":   {password},
	}
	if c.cfg.ClientSecret != "" {
		form.Set("client_secret", c.cfg.ClientSecret)
	}
	return c.grant(ctx, form)
}

// ClientCredentialsToken performs a client-credentials grant using the
// service account of the configured client.
func (c *Client) ClientCredentialsToken(ctx context.Context) (*TokenSet, error) {
	form := url.Values{
		"grant_type":    {"client_credentials"},
		"client_id":     {c.cfg.ClientID},
		"client_secret": {c.cfg.ClientSecret},
	}
	return c.grant(ctx, form)
}

func (c *Client) grant(ctx context.Context, form url.Values) (*TokenSet, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.TokenURL(),
		strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("keycloak: create token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("keycloak: token request: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusBadRequest {
		// invalid_grant and invalid_client both mean the credentials were
		// not accepted; the caller never sees the provider's error text.
		body := readErrorBody(resp.Body)
		c.log.Debug("Token grant rejected", map[string]interface{}{
			"status": resp.StatusCode,
			"error":  body,
		})
		return nil, ErrInvalidCredentials
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &APIError{Status: resp.StatusCode, Message: readErrorBody(resp.Body)}
	}

	var ts TokenSet
	if err := json.NewDecoder(resp.Body).Decode(&ts); err != nil {
		return nil, fmt.Errorf("keycloak: decode token response: %w", err)
	}
	return &ts, nil
}

// Introspection is the provider's view of a token's current validity.
type Introspection struct {
	Active   bool                   `json:"active"`
	Username string                 `json:"username"`
	Claims   map[string]interface{} `json:"-"`
}

// Introspect asks the provider whether the token is currently active.
// Callers treat transport failures as a degraded check, not a rejection.
func (c *Client) Introspect(ctx context.Context, token string) (*Introspection, error) {
	form := url.Values{"token": {token}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.IntrospectURL(),
		strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("keycloak: create introspect request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.SetBasicAuth(c.cfg.ClientID, c.cfg.ClientSecret)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("keycloak: introspect request: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		return nil, &APIError{Status: resp.StatusCode, Message: readErrorBody(resp.Body)}
	}

	raw := map[string]interface{}{}
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("keycloak: decode introspection: %w", err)
	}

	intro := &Introspection{Claims: raw}
	if active, ok := raw["active"].(bool); ok {
		intro.Active = active
	}
	if username, ok := raw["username"].(string); ok {
		intro.Username = username
	}
	return intro, nil
}

// Logout invalidates the session behind a refresh token. Best effort.
func (c *Client) Logout(ctx context.Context, refreshToken string) error {
	form := url.Values{
		"client_id":     {c.cfg.ClientID},
		"refresh_token": {refreshToken},
	}
	if c.cfg.ClientSecret != "" {
		form.Set("client_secret", c.cfg.ClientSecret)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.LogoutURL(),
		strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("keycloak: create logout request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("keycloak: logout request: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode >= 300 {
		return &APIError{Status: resp.StatusCode, Message: readErrorBody(resp.Body)}
	}
	return nil
}

// readErrorBody extracts a short provider message from an error response.
// Keycloak error bodies look like {"error": "...", "error_description": "..."}
// or {"errorMessage": "..."} on the admin API.
func readErrorBody(r io.Reader) string {
	data, err := io.ReadAll(io.LimitReader(r, 4096))
	if err != nil || len(data) == 0 {
		return ""
	}
	var body struct {
		Error            string `json:"error"`
		ErrorDescription string `json:"error_description"`
		ErrorMessage     string `json:"errorMessage"`
	}
	if err := json.Unmarshal(data, &body); err != nil {
		return strings.TrimSpace(string(data))
	}
	switch {
	case body.ErrorMessage != "":
		return body.ErrorMessage
	case body.ErrorDescription != "":
		return body.ErrorDescription
	default:
		return body.Error
	}
}
