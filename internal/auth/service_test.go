package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	apperrors "github.com/Arcaz22/Productivity-Tracker/internal/errors"
	"github.com/Arcaz22/Productivity-Tracker/internal/keycloak"
	"github.com/Arcaz22/Productivity-Tracker/internal/logger"
)

// fakeRealm emulates the provider's token endpoint and admin user API.
type fakeRealm struct {
	server *httptest.Server

	users map[string]bool // username -> exists
}

func newFakeRealm(t *testing.T) *fakeRealm {
	t.Helper()
	f := &fakeRealm{users: map[string]bool{}}

	mux := http.NewServeMux()
	mux.HandleFunc("/realms/"+testRealm+"/protocol/openid-connect/token", func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		switch r.PostFormValue("grant_type") {
		case "client_credentials":
			writeTokenSet(w)
		case "password":
			if r.PostFormValue("password") == "correct-horse" {
				writeTokenSet(w)
				return
			}
			w.WriteHeader(http.StatusUnauthorized)
			_ = json.NewEncoder(w).Encode(map[string]string{
				"error":             "invalid_grant",
				"error_description": "Invalid user credentials",
			})
		default:
			w.WriteHeader(http.StatusBadRequest)
		}
	})
	mux.HandleFunc("/admin/realms/"+testRealm+"/users", func(w http.ResponseWriter, r *http.Request) {
		var user keycloak.UserRepresentation
		if err := json.NewDecoder(r.Body).Decode(&user); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		if f.users[user.Username] {
			w.WriteHeader(http.StatusConflict)
			_ = json.NewEncoder(w).Encode(map[string]string{"errorMessage": "User exists with same username"})
			return
		}
		f.users[user.Username] = true
		w.Header().Set("Location", f.server.URL+"/admin/realms/"+testRealm+"/users/new-user-id")
		w.WriteHeader(http.StatusCreated)
	})

	f.server = httptest.NewServer(mux)
	t.Cleanup(f.server.Close)
	return f
}

func writeTokenSet(w http.ResponseWriter) {
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"access_token": "test-access-token",
		"token_type":   "Bearer",
		"expires_in":   300,
	})
}

func (f *fakeRealm) service(t *testing.T) *Service {
	t.Helper()
	cfg := keycloak.Config{
		ServerURL:         f.server.URL,
		Realm:             testRealm,
		ClientID:          testClientID,
		ClientSecret:      "test-secret",
		UseServiceAccount: true,
	}
	return NewService(keycloak.NewClients(cfg, logger.NewDefault("test")), logger.NewDefault("test"))
}

func TestLogin(t *testing.T) {
	svc := newFakeRealm(t).service(t)

	tokens, err := svc.Login(context.Background(), "jdoe", "correct-horse")
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if tokens.AccessToken != "test-access-token" {
		t.Errorf("access token = %q", tokens.AccessToken)
	}
	if tokens.TokenType != "bearer" {
		t.Errorf("token type = %q, want bearer", tokens.TokenType)
	}
}

func TestLoginInvalidCredentials(t *testing.T) {
	svc := newFakeRealm(t).service(t)

	_, err := svc.Login(context.Background(), "jdoe", "wrong")
	appErr, ok := apperrors.AsAppError(err)
	if !ok {
		t.Fatalf("error type = %T", err)
	}
	if appErr.Code != apperrors.ErrCodeUnauthorized {
		t.Errorf("code = %s, want %s", appErr.Code, apperrors.ErrCodeUnauthorized)
	}
	// Provider error text must not reach the caller.
	if appErr.Message != "Invalid username or password" {
		t.Errorf("message = %q leaks provider detail", appErr.Message)
	}
}

func TestRegister(t *testing.T) {
	svc := newFakeRealm(t).service(t)

	result, err := svc.Register(context.Background(), RegisterRequest{
		Username: "newuser",
		Email:    "new@example.com",
		Password: "password123",
	})
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if result.UserID != "new-user-id" {
		t.Errorf("user id = %q", result.UserID)
	}
}

func TestRegisterDuplicate(t *testing.T) {
	realm := newFakeRealm(t)
	realm.users["taken"] = true
	svc := realm.service(t)

	_, err := svc.Register(context.Background(), RegisterRequest{
		Username: "taken",
		Email:    "taken@example.com",
		Password: "password123",
	})
	appErr, ok := apperrors.AsAppError(err)
	if !ok {
		t.Fatalf("error type = %T", err)
	}
	if appErr.Code != apperrors.ErrCodeAlreadyExists {
		t.Errorf("code = %s, want %s", appErr.Code, apperrors.ErrCodeAlreadyExists)
	}
	if appErr.HTTPStatus != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", appErr.HTTPStatus)
	}
}

func TestRegisterWithoutAdminConfig(t *testing.T) {
	realm := newFakeRealm(t)
	cfg := keycloak.Config{
		ServerURL: realm.server.URL,
		Realm:     testRealm,
		ClientID:  testClientID,
		// No client secret, no admin credentials: no admin strategy.
	}
	svc := NewService(keycloak.NewClients(cfg, logger.NewDefault("test")), logger.NewDefault("test"))

	_, err := svc.Register(context.Background(), RegisterRequest{
		Username: "newuser",
		Email:    "new@example.com",
		Password: "password123",
	})
	appErr, ok := apperrors.AsAppError(err)
	if !ok {
		t.Fatalf("error type = %T", err)
	}
	if appErr.Code != apperrors.ErrCodeAdminNotConfigured {
		t.Errorf("code = %s, want %s", appErr.Code, apperrors.ErrCodeAdminNotConfigured)
	}
}
