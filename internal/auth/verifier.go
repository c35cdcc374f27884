// Package auth converts bearer tokens into verified identities and
// orchestrates login/registration against the identity provider.
package auth

import (
	"context"
	"errors"
	"net/http"
	"sort"
	"time"

	"github.com/golang-jwt/jwt/v5"

	apperrors "github.com/Arcaz22/Productivity-Tracker/internal/errors"
	"github.com/Arcaz22/Productivity-Tracker/internal/keycloak"
	"github.com/Arcaz22/Productivity-Tracker/internal/logger"
)

// VerifierConfig tunes token verification.
type VerifierConfig struct {
	// JWKSCacheTTL controls how long signing keys are cached (default 1h).
	JWKSCacheTTL time.Duration
	// Leeway absorbs small clock skew between this service and the
	// provider (default 30s).
	Leeway time.Duration
	// SkipIntrospection disables the best-effort remote liveness check.
	SkipIntrospection bool
}

func (c *VerifierConfig) applyDefaults() {
	if c.JWKSCacheTTL == 0 {
		c.JWKSCacheTTL = time.Hour
	}
	if c.Leeway == 0 {
		c.Leeway = 30 * time.Second
	}
}

// Verifier validates bearer tokens: a best-effort introspection call to the
// provider, then full local verification of signature, expiry, not-before
// and issuer against the realm's published signing keys.
type Verifier struct {
	client *keycloak.Client
	cfg    VerifierConfig
	jwks   *jwksCache
	parser *jwt.Parser
	log    *logger.Logger
}

// NewVerifier creates a token verifier for the realm the client talks to.
func NewVerifier(client *keycloak.Client, cfg VerifierConfig, log *logger.Logger) *Verifier {
	cfg.applyDefaults()

	kcCfg := client.Config()
	return &Verifier{
		client: client,
		cfg:    cfg,
		jwks: newJWKSCache(
			kcCfg.CertsURL(),
			&http.Client{Timeout: kcCfg.HTTPTimeout()},
			cfg.JWKSCacheTTL,
		),
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{"RS256", "RS384", "RS512", "ES256", "ES384", "ES512"}),
			jwt.WithIssuer(kcCfg.Issuer()),
			jwt.WithExpirationRequired(),
			jwt.WithLeeway(cfg.Leeway),
		),
		log: log.WithComponent("verifier"),
	}
}

// tokenClaims is the claim set this service reads from realm tokens.
type tokenClaims struct {
	jwt.RegisteredClaims
	PreferredUsername string               `json:"preferred_username"`
	Email             string               `json:"email"`
	Name              string               `json:"name"`
	GivenName         string               `json:"given_name"`
	AuthorizedParty   string               `json:"azp"`
	RealmAccess       roleClaim            `json:"realm_access"`
	ResourceAccess    map[string]roleClaim `json:"resource_access"`
}

type roleClaim struct {
	Roles []string `json:"roles"`
}

// Verify validates a raw bearer token and returns the identity it carries.
// All failures are *apperrors.AppError values mapping to 401; internal
// detail never reaches the response body.
func (v *Verifier) Verify(ctx context.Context, raw string) (*Identity, error) {
	if raw == "" {
		return nil, apperrors.Unauthorized("Token not provided")
	}

	// Remote liveness check. The provider being unreachable must not fail
	// the request: local signature and expiry verification below remains
	// authoritative, and the degraded check is logged for audit.
	if !v.cfg.SkipIntrospection {
		intro, err := v.client.Introspect(ctx, raw)
		switch {
		case err != nil:
			v.log.Warn("Token introspection unavailable, relying on local verification",
				map[string]interface{}{
					"error":                 err.Error(),
					"introspection_skipped": true,
				})
		case !intro.Active:
			return nil, apperrors.TokenInactive()
		}
	}

	claims := &tokenClaims{}
	_, err := v.parser.ParseWithClaims(raw, claims, v.keyfunc(ctx))
	if err != nil {
		return nil, v.rejectToken(err)
	}

	// Keycloak access tokens carry the requesting client in "azp"; "aud"
	// often only lists "account". Accept either as proof the token was
	// minted for this client.
	kcCfg := v.client.Config()
	if claims.AuthorizedParty != kcCfg.ClientID && !audienceContains(claims.Audience, kcCfg.ClientID) {
		v.log.Debug("Token audience mismatch", map[string]interface{}{
			"azp": claims.AuthorizedParty,
			"aud": []string(claims.Audience),
		})
		return nil, apperrors.InvalidToken()
	}

	if claims.Subject == "" || claims.PreferredUsername == "" {
		return nil, apperrors.InvalidToken()
	}

	fullName := claims.Name
	if fullName == "" {
		fullName = claims.GivenName
	}

	return &Identity{
		Subject:  claims.Subject,
		Username: claims.PreferredUsername,
		Email:    claims.Email,
		FullName: fullName,
		Roles:    unionRoles(claims.RealmAccess.Roles, claims.ResourceAccess[kcCfg.ClientID].Roles),
	}, nil
}

// keyfunc resolves the signing key for a parsed token header via the JWKS
// cache.
func (v *Verifier) keyfunc(ctx context.Context) jwt.Keyfunc {
	return func(token *jwt.Token) (interface{}, error) {
		kid, _ := token.Header["kid"].(string)
		return v.jwks.signingKey(ctx, kid)
	}
}

// rejectToken maps a parse failure to the client-facing error, keeping the
// underlying detail in the server logs only.
func (v *Verifier) rejectToken(err error) error {
	v.log.Debug("Token rejected", map[string]interface{}{"error": err.Error()})

	if errors.Is(err, jwt.ErrTokenExpired) {
		return apperrors.TokenExpired()
	}
	return apperrors.InvalidToken()
}

func audienceContains(aud jwt.ClaimStrings, clientID string) bool {
	for _, a := range aud {
		if a == clientID {
			return true
		}
	}
	return false
}

// unionRoles merges realm and client role sets, deduplicated and sorted so
// identical tokens always yield identical identities.
func unionRoles(realm, client []string) []string {
	set := make(map[string]struct{}, len(realm)+len(client))
	for _, r := range realm {
		set[r] = struct{}{}
	}
	for _, r := range client {
		set[r] = struct{}{}
	}

	roles := make([]string, 0, len(set))
	for r := range set {
		roles = append(roles, r)
	}
	sort.Strings(roles)
	return roles
}
