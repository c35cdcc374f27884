package auth

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	apperrors "github.com/Arcaz22/Productivity-Tracker/internal/errors"
	"github.com/Arcaz22/Productivity-Tracker/internal/keycloak"
	"github.com/Arcaz22/Productivity-Tracker/internal/logger"
)

const (
	testRealm    = "tracker"
	testClientID = "productivity-tracker"
	testKid      = "test-key-1"
)

// fakeProvider is an in-process Keycloak standing in for the realm's JWKS
// and introspection endpoints.
type fakeProvider struct {
	server *httptest.Server
	key    *rsa.PrivateKey

	mu                sync.Mutex
	introspectActive  bool
	introspectBroken  bool
	jwksRequestCount  int
	introspectedCount int
}

func newFakeProvider(t *testing.T) *fakeProvider {
	t.Helper()

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}

	p := &fakeProvider{key: key, introspectActive: true}

	mux := http.NewServeMux()
	mux.HandleFunc("/realms/"+testRealm+"/protocol/openid-connect/certs", func(w http.ResponseWriter, r *http.Request) {
		p.mu.Lock()
		p.jwksRequestCount++
		p.mu.Unlock()

		pub := &p.key.PublicKey
		doc := map[string]interface{}{
			"keys": []map[string]string{{
				"kty": "RSA",
				"kid": testKid,
				"use": "sig",
				"alg": "RS256",
				"n":   base64.RawURLEncoding.EncodeToString(pub.N.Bytes()),
				"e":   base64.RawURLEncoding.EncodeToString(big.NewInt(int64(pub.E)).Bytes()),
			}},
		}
		_ = json.NewEncoder(w).Encode(doc)
	})
	mux.HandleFunc("/realms/"+testRealm+"/protocol/openid-connect/token/introspect", func(w http.ResponseWriter, r *http.Request) {
		p.mu.Lock()
		p.introspectedCount++
		broken, active := p.introspectBroken, p.introspectActive
		p.mu.Unlock()

		if broken {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"active": active})
	})

	p.server = httptest.NewServer(mux)
	t.Cleanup(p.server.Close)
	return p
}

func (p *fakeProvider) config() keycloak.Config {
	return keycloak.Config{
		ServerURL:    p.server.URL,
		Realm:        testRealm,
		ClientID:     testClientID,
		ClientSecret: "test-secret",
	}
}

func (p *fakeProvider) setIntrospection(active, broken bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.introspectActive = active
	p.introspectBroken = broken
}

// mint signs a token with the provider key, applying overrides on top of a
// valid claim set.
func (p *fakeProvider) mint(t *testing.T, overrides map[string]interface{}) string {
	t.Helper()

	claims := jwt.MapClaims{
		"iss":                p.server.URL + "/realms/" + testRealm,
		"sub":                "user-123",
		"preferred_username": "jdoe",
		"email":              "jdoe@example.com",
		"name":               "Jane Doe",
		"azp":                testClientID,
		"aud":                "account",
		"exp":                time.Now().Add(5 * time.Minute).Unix(),
		"iat":                time.Now().Unix(),
		"realm_access":       map[string]interface{}{"roles": []string{"dev", "pm"}},
		"resource_access": map[string]interface{}{
			testClientID: map[string]interface{}{"roles": []string{"pm", "reporter"}},
		},
	}
	for k, v := range overrides {
		if v == nil {
			delete(claims, k)
			continue
		}
		claims[k] = v
	}

	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	token.Header["kid"] = testKid

	signed, err := token.SignedString(p.key)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

func newTestVerifier(t *testing.T, p *fakeProvider) *Verifier {
	t.Helper()
	client := keycloak.NewClient(p.config(), logger.NewDefault("test"))
	return NewVerifier(client, VerifierConfig{}, logger.NewDefault("test"))
}

func errorCode(t *testing.T, err error) apperrors.ErrorCode {
	t.Helper()
	appErr, ok := apperrors.AsAppError(err)
	if !ok {
		t.Fatalf("error type = %T, want *AppError", err)
	}
	return appErr.Code
}

func TestVerifyValidToken(t *testing.T) {
	p := newFakeProvider(t)
	v := newTestVerifier(t, p)

	identity, err := v.Verify(context.Background(), p.mint(t, nil))
	if err != nil {
		t.Fatalf("Verify() error = %v", err)
	}

	if identity.Subject != "user-123" {
		t.Errorf("subject = %q", identity.Subject)
	}
	if identity.Username != "jdoe" {
		t.Errorf("username = %q", identity.Username)
	}
	if identity.FullName != "Jane Doe" {
		t.Errorf("full name = %q", identity.FullName)
	}

	// Realm and client roles merged, deduplicated, sorted.
	want := []string{"dev", "pm", "reporter"}
	if !reflect.DeepEqual(identity.Roles, want) {
		t.Errorf("roles = %v, want %v", identity.Roles, want)
	}
}

func TestVerifyEmptyToken(t *testing.T) {
	p := newFakeProvider(t)
	v := newTestVerifier(t, p)

	_, err := v.Verify(context.Background(), "")
	if code := errorCode(t, err); code != apperrors.ErrCodeUnauthorized {
		t.Errorf("code = %s, want %s", code, apperrors.ErrCodeUnauthorized)
	}
}

func TestVerifyExpiredToken(t *testing.T) {
	p := newFakeProvider(t)
	v := newTestVerifier(t, p)

	// Beyond the default 30s leeway.
	token := p.mint(t, map[string]interface{}{
		"exp": time.Now().Add(-5 * time.Minute).Unix(),
	})

	_, err := v.Verify(context.Background(), token)
	if code := errorCode(t, err); code != apperrors.ErrCodeTokenExpired {
		t.Errorf("code = %s, want %s", code, apperrors.ErrCodeTokenExpired)
	}
}

func TestVerifyWrongIssuer(t *testing.T) {
	p := newFakeProvider(t)
	v := newTestVerifier(t, p)

	token := p.mint(t, map[string]interface{}{
		"iss": "https://evil.example.com/realms/" + testRealm,
	})

	_, err := v.Verify(context.Background(), token)
	if code := errorCode(t, err); code != apperrors.ErrCodeInvalidToken {
		t.Errorf("code = %s, want %s", code, apperrors.ErrCodeInvalidToken)
	}
}

func TestVerifyForeignSignature(t *testing.T) {
	p := newFakeProvider(t)
	v := newTestVerifier(t, p)

	// Signed by a key the realm never published.
	foreign, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	claims := jwt.MapClaims{
		"iss":                p.server.URL + "/realms/" + testRealm,
		"sub":                "user-123",
		"preferred_username": "jdoe",
		"azp":                testClientID,
		"exp":                time.Now().Add(5 * time.Minute).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	token.Header["kid"] = testKid
	signed, err := token.SignedString(foreign)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}

	_, verifyErr := v.Verify(context.Background(), signed)
	if code := errorCode(t, verifyErr); code != apperrors.ErrCodeInvalidToken {
		t.Errorf("code = %s, want %s", code, apperrors.ErrCodeInvalidToken)
	}
}

func TestVerifyUnsignedTokenRejected(t *testing.T) {
	p := newFakeProvider(t)
	v := newTestVerifier(t, p)

	claims := jwt.MapClaims{
		"iss":                p.server.URL + "/realms/" + testRealm,
		"sub":                "user-123",
		"preferred_username": "jdoe",
		"azp":                testClientID,
		"exp":                time.Now().Add(5 * time.Minute).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodNone, claims)
	signed, err := token.SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}

	_, verifyErr := v.Verify(context.Background(), signed)
	if code := errorCode(t, verifyErr); code != apperrors.ErrCodeInvalidToken {
		t.Errorf("code = %s, want %s", code, apperrors.ErrCodeInvalidToken)
	}
}

func TestVerifyMissingSubject(t *testing.T) {
	p := newFakeProvider(t)
	v := newTestVerifier(t, p)

	token := p.mint(t, map[string]interface{}{"sub": nil})

	_, err := v.Verify(context.Background(), token)
	if code := errorCode(t, err); code != apperrors.ErrCodeInvalidToken {
		t.Errorf("code = %s, want %s", code, apperrors.ErrCodeInvalidToken)
	}
}

func TestVerifyTokenForAnotherClient(t *testing.T) {
	p := newFakeProvider(t)
	v := newTestVerifier(t, p)

	token := p.mint(t, map[string]interface{}{"azp": "other-app"})

	_, err := v.Verify(context.Background(), token)
	if code := errorCode(t, err); code != apperrors.ErrCodeInvalidToken {
		t.Errorf("code = %s, want %s", code, apperrors.ErrCodeInvalidToken)
	}
}

func TestVerifyAudienceListsClient(t *testing.T) {
	p := newFakeProvider(t)
	v := newTestVerifier(t, p)

	// azp names another party but aud explicitly includes this client.
	token := p.mint(t, map[string]interface{}{
		"azp": "other-app",
		"aud": []string{"account", testClientID},
	})

	if _, err := v.Verify(context.Background(), token); err != nil {
		t.Fatalf("Verify() error = %v", err)
	}
}

func TestVerifyInactiveToken(t *testing.T) {
	p := newFakeProvider(t)
	p.setIntrospection(false, false)
	v := newTestVerifier(t, p)

	_, err := v.Verify(context.Background(), p.mint(t, nil))
	if code := errorCode(t, err); code != apperrors.ErrCodeTokenInactive {
		t.Errorf("code = %s, want %s", code, apperrors.ErrCodeTokenInactive)
	}
}

func TestVerifySurvivesIntrospectionOutage(t *testing.T) {
	p := newFakeProvider(t)
	p.setIntrospection(true, true)
	v := newTestVerifier(t, p)

	// The provider liveness check failing must degrade, not reject: local
	// signature and expiry verification remains authoritative.
	identity, err := v.Verify(context.Background(), p.mint(t, nil))
	if err != nil {
		t.Fatalf("Verify() error = %v", err)
	}
	if identity.Subject != "user-123" {
		t.Errorf("subject = %q", identity.Subject)
	}
}

func TestVerifySkipIntrospection(t *testing.T) {
	p := newFakeProvider(t)
	client := keycloak.NewClient(p.config(), logger.NewDefault("test"))
	v := NewVerifier(client, VerifierConfig{SkipIntrospection: true}, logger.NewDefault("test"))

	if _, err := v.Verify(context.Background(), p.mint(t, nil)); err != nil {
		t.Fatalf("Verify() error = %v", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.introspectedCount != 0 {
		t.Errorf("introspection called %d times with SkipIntrospection", p.introspectedCount)
	}
}

func TestVerifyCachesSigningKeys(t *testing.T) {
	p := newFakeProvider(t)
	v := newTestVerifier(t, p)

	for i := 0; i < 5; i++ {
		if _, err := v.Verify(context.Background(), p.mint(t, nil)); err != nil {
			t.Fatalf("Verify() #%d error = %v", i, err)
		}
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.jwksRequestCount != 1 {
		t.Errorf("JWKS fetched %d times, want 1", p.jwksRequestCount)
	}
}

func TestVerifyConcurrent(t *testing.T) {
	p := newFakeProvider(t)
	v := newTestVerifier(t, p)
	token := p.mint(t, nil)

	var wg sync.WaitGroup
	errs := make(chan error, 20)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := v.Verify(context.Background(), token); err != nil {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Errorf("concurrent Verify() error = %v", err)
	}
}
