package middleware

import (
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/Arcaz22/Productivity-Tracker/internal/auth"
	"github.com/Arcaz22/Productivity-Tracker/internal/keycloak"
	"github.com/Arcaz22/Productivity-Tracker/internal/logger"
	"github.com/Arcaz22/Productivity-Tracker/internal/server"
)

const (
	testRealm    = "tracker"
	testClientID = "productivity-tracker"
	testKid      = "mw-test-key"
)

type testEnv struct {
	provider *httptest.Server
	key      *rsa.PrivateKey
	verifier *auth.Verifier
	engine   *gin.Engine
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/realms/"+testRealm+"/protocol/openid-connect/certs", func(w http.ResponseWriter, r *http.Request) {
		pub := &key.PublicKey
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"keys": []map[string]string{{
				"kty": "RSA",
				"kid": testKid,
				"use": "sig",
				"n":   base64.RawURLEncoding.EncodeToString(pub.N.Bytes()),
				"e":   base64.RawURLEncoding.EncodeToString(big.NewInt(int64(pub.E)).Bytes()),
			}},
		})
	})
	provider := httptest.NewServer(mux)
	t.Cleanup(provider.Close)

	cfg := keycloak.Config{
		ServerURL: provider.URL,
		Realm:     testRealm,
		ClientID:  testClientID,
	}
	client := keycloak.NewClient(cfg, logger.NewDefault("test"))
	verifier := auth.NewVerifier(client, auth.VerifierConfig{SkipIntrospection: true}, logger.NewDefault("test"))

	return &testEnv{
		provider: provider,
		key:      key,
		verifier: verifier,
		engine:   gin.New(),
	}
}

func (e *testEnv) mint(t *testing.T, roles []string) string {
	t.Helper()
	claims := jwt.MapClaims{
		"iss":                e.provider.URL + "/realms/" + testRealm,
		"sub":                "user-1",
		"preferred_username": "jdoe",
		"azp":                testClientID,
		"exp":                time.Now().Add(5 * time.Minute).Unix(),
		"realm_access":       map[string]interface{}{"roles": roles},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	token.Header["kid"] = testKid
	signed, err := token.SignedString(e.key)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

func (e *testEnv) request(t *testing.T, path, authorization string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	rec := httptest.NewRecorder()
	e.engine.ServeHTTP(rec, req)
	return rec
}

func TestAuthenticateStoresIdentity(t *testing.T) {
	env := newTestEnv(t)
	env.engine.GET("/me", Authenticate(env.verifier), func(c *gin.Context) {
		identity, ok := auth.CurrentIdentity(c)
		if !ok {
			t.Error("identity missing from context")
			c.Status(http.StatusInternalServerError)
			return
		}
		server.RespondOK(c, "ok", identity.Username)
	})

	rec := env.request(t, "/me", "Bearer "+env.mint(t, []string{"dev"}))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
}

func TestAuthenticateRejectsMissingHeader(t *testing.T) {
	env := newTestEnv(t)
	handlerRan := false
	env.engine.GET("/me", Authenticate(env.verifier), func(c *gin.Context) {
		handlerRan = true
	})

	rec := env.request(t, "/me", "")
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
	if handlerRan {
		t.Error("handler ran despite missing token")
	}
}

func TestAuthenticateRejectsMalformedHeader(t *testing.T) {
	env := newTestEnv(t)
	env.engine.GET("/me", Authenticate(env.verifier), func(c *gin.Context) {})

	for _, header := range []string{"Token abc", "Bearer", "abc"} {
		rec := env.request(t, "/me", header)
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("header %q: status = %d, want 401", header, rec.Code)
		}
	}
}

func TestAuthenticateAcceptsLowercaseBearer(t *testing.T) {
	env := newTestEnv(t)
	env.engine.GET("/me", Authenticate(env.verifier), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	rec := env.request(t, "/me", "bearer "+env.mint(t, nil))
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200 for lowercase scheme", rec.Code)
	}
}

func TestRequireRolesAllowsMatchingRole(t *testing.T) {
	env := newTestEnv(t)
	env.engine.GET("/admin", RequireRoles(env.verifier, "pm"), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	rec := env.request(t, "/admin", "Bearer "+env.mint(t, []string{"dev", "pm"}))
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
}

func TestRequireRolesDeniesMissingRole(t *testing.T) {
	env := newTestEnv(t)
	handlerRan := false
	env.engine.GET("/admin", RequireRoles(env.verifier, "pm"), func(c *gin.Context) {
		handlerRan = true
	})

	rec := env.request(t, "/admin", "Bearer "+env.mint(t, []string{"dev"}))
	if rec.Code != http.StatusForbidden {
		t.Errorf("status = %d, want 403", rec.Code)
	}
	if handlerRan {
		t.Error("handler ran despite missing role")
	}

	var body struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	// The denial must not reveal which role was required.
	if body.Message != "You do not have the required role(s)" {
		t.Errorf("message = %q", body.Message)
	}
}

func TestRequireRolesRejectsBadTokenBeforeRoleCheck(t *testing.T) {
	env := newTestEnv(t)
	env.engine.GET("/admin", RequireRoles(env.verifier, "pm"), func(c *gin.Context) {})

	rec := env.request(t, "/admin", "Bearer not-a-token")
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}
