package keycloak

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Config holds the Keycloak connection settings.
type Config struct {
	// ServerURL is the Keycloak base URL, e.g. "http://localhost:8080/".
	ServerURL string `yaml:"server_url" mapstructure:"server_url"`
	// Realm is the realm this service authenticates against.
	Realm string `yaml:"realm" mapstructure:"realm"`
	// ClientID is the registered client for this service. Client-scoped
	// roles are read from resource_access.<ClientID>.roles.
	ClientID string `yaml:"client_id" mapstructure:"client_id"`
	// ClientSecret is the confidential client secret.
	ClientSecret string `yaml:"client_secret" mapstructure:"client_secret"`
	// AdminUsername/AdminPassword are the fallback admin credentials used
	// when the service account cannot be used for admin operations.
	AdminUsername string `yaml:"admin_username" mapstructure:"admin_username"`
	AdminPassword string `yaml:"admin_password" mapstructure:"admin_password"`
	// UseServiceAccount enables the client-credentials strategy for admin
	// operations. Requires the client's service account to hold the
	// manage-users role.
	UseServiceAccount bool `yaml:"use_service_account" mapstructure:"use_service_account"`
	// Timeout bounds every HTTP call to the provider, in seconds.
	Timeout int `yaml:"timeout" mapstructure:"timeout"`
}

// ApplyDefaults applies default values.
func (c *Config) ApplyDefaults() {
	if c.Timeout == 0 {
		c.Timeout = 10
	}
}

// Validate checks the required fields.
func (c *Config) Validate() error {
	if c.ServerURL == "" {
		return errors.New("keycloak.server_url is required")
	}
	if c.Realm == "" {
		return errors.New("keycloak.realm is required")
	}
	if c.ClientID == "" {
		return errors.New("keycloak.client_id is required")
	}
	return nil
}

// HTTPTimeout returns the configured timeout as a duration.
func (c *Config) HTTPTimeout() time.Duration {
	return time.Duration(c.Timeout) * time.Second
}

// Issuer returns the realm issuer URL, the "iss" claim of issued tokens.
func (c *Config) Issuer() string {
	return fmt.Sprintf("%s/realms/%s", strings.TrimRight(c.ServerURL, "/"), c.Realm)
}

// TokenURL returns the OpenID token endpoint.
func (c *Config) TokenURL() string {
	return c.Issuer() + "/protocol/openid-connect/token"
}

// IntrospectURL returns the token introspection endpoint.
func (c *Config) IntrospectURL() string {
	return c.Issuer() + "/protocol/openid-connect/token/introspect"
}

// CertsURL returns the JWKS endpoint publishing the realm signing keys.
func (c *Config) CertsURL() string {
	return c.Issuer() + "/protocol/openid-connect/certs"
}

// LogoutURL returns the OpenID logout endpoint.
func (c *Config) LogoutURL() string {
	return c.Issuer() + "/protocol/openid-connect/logout"
}

// AdminRealmURL returns the admin REST base for the realm.
func (c *Config) AdminRealmURL() string {
	return fmt.Sprintf("%s/admin/realms/%s", strings.TrimRight(c.ServerURL, "/"), c.Realm)
}
