package middleware_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/placerhq/placer/pkg/middleware"
)

func TestIdentityContextRoundTrip(t *testing.T) {
	identity := middleware.Identity{ID: "emp-1", Role: "employer"}
	ctx := middleware.WithIdentity(context.Background(), identity)

	got, ok := middleware.IdentityFrom(ctx)
	if !ok {
		t.Fatal("identity not found on context")
	}
	if got != identity {
		t.Errorf("identity: got %+v", got)
	}
}

func TestIdentityFromEmptyContext(t *testing.T) {
	if _, ok := middleware.IdentityFrom(context.Background()); ok {
		t.Error("empty context should carry no identity")
	}
}

func TestHeaderIdentity(t *testing.T) {
	var got middleware.Identity
	var found bool
	handler := middleware.HeaderIdentity()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, found = middleware.IdentityFrom(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest("GET", "/placements", nil)
	req.Header.Set("X-Actor-Id", "cand-1")
	req.Header.Set("X-Actor-Role", "candidate")
	handler.ServeHTTP(httptest.NewRecorder(), req)

	if !found {
		t.Fatal("identity not placed on context")
	}
	if got.ID != "cand-1" || got.Role != "candidate" {
		t.Errorf("identity: got %+v", got)
	}
}

func TestHeaderIdentityMissingHeaders(t *testing.T) {
	var found bool
	handler := middleware.HeaderIdentity()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, found = middleware.IdentityFrom(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("GET", "/placements", nil))

	if rec.Code != http.StatusOK {
		t.Errorf("status: got %d, want 200 (anonymous passes through)", rec.Code)
	}
	if found {
		t.Error("no identity should be set without headers")
	}
}

type stubVerifier struct {
	identity middleware.Identity
	err      error
}

func (v *stubVerifier) Verify(_ context.Context, raw string) (middleware.Identity, error) {
	if v.err != nil {
		return middleware.Identity{}, v.err
	}
	return v.identity, nil
}

func TestOIDCIdentity(t *testing.T) {
	verifier := &stubVerifier{identity: middleware.Identity{ID: "emp-1", Role: "employer"}}

	var got middleware.Identity
	handler := middleware.OIDCIdentity(verifier)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = middleware.IdentityFrom(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest("GET", "/placements", nil)
	req.Header.Set("Authorization", "Bearer token-abc")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d", rec.Code)
	}
	if got.ID != "emp-1" {
		t.Errorf("identity: got %+v", got)
	}
}

func TestOIDCIdentityMissingToken(t *testing.T) {
	handler := middleware.OIDCIdentity(&stubVerifier{})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler should not be reached")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("GET", "/placements", nil))

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status: got %d, want 401", rec.Code)
	}
}

func TestOIDCIdentityInvalidToken(t *testing.T) {
	verifier := &stubVerifier{err: errors.New("expired")}
	handler := middleware.OIDCIdentity(verifier)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler should not be reached")
	}))

	req := httptest.NewRequest("GET", "/placements", nil)
	req.Header.Set("Authorization", "Bearer bad")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status: got %d, want 401", rec.Code)
	}
}

func TestAuthConfigFinalizeDefaults(t *testing.T) {
	cfg := middleware.AuthConfig{}
	if err := cfg.Finalize(nil); err != nil {
		t.Fatalf("finalize: %v", err)
	}

	if cfg.Enabled {
		t.Error("Enabled should default to false")
	}
	if cfg.RoleClaim != "role" {
		t.Errorf("RoleClaim: got %s", cfg.RoleClaim)
	}
}

func TestAuthConfigFinalizeEnv(t *testing.T) {
	t.Setenv("TEST_AUTH_ENABLED", "true")
	t.Setenv("TEST_AUTH_ISSUER", "https://id.example.com")
	t.Setenv("TEST_AUTH_CLIENT_ID", "placer")
	t.Setenv("TEST_AUTH_ROLE_CLAIM", "placer_role")

	cfg := middleware.AuthConfig{}
	err := cfg.Finalize(&middleware.AuthEnv{
		Enabled:   "TEST_AUTH_ENABLED",
		Issuer:    "TEST_AUTH_ISSUER",
		ClientID:  "TEST_AUTH_CLIENT_ID",
		RoleClaim: "TEST_AUTH_ROLE_CLAIM",
	})
	if err != nil {
		t.Fatalf("finalize: %v", err)
	}

	if !cfg.Enabled {
		t.Error("Enabled should be true")
	}
	if cfg.Issuer != "https://id.example.com" {
		t.Errorf("Issuer: got %s", cfg.Issuer)
	}
	if cfg.ClientID != "placer" {
		t.Errorf("ClientID: got %s", cfg.ClientID)
	}
	if cfg.RoleClaim != "placer_role" {
		t.Errorf("RoleClaim: got %s", cfg.RoleClaim)
	}
}

func TestAuthConfigEnabledRequiresIssuer(t *testing.T) {
	cfg := middleware.AuthConfig{Enabled: true, ClientID: "placer"}
	if err := cfg.Finalize(nil); err == nil {
		t.Error("expected error for enabled auth without issuer")
	}
}

func TestAuthConfigMerge(t *testing.T) {
	cfg := middleware.AuthConfig{
		Enabled:   false,
		Issuer:    "https://id.example.com",
		ClientID:  "placer",
		RoleClaim: "role",
	}

	cfg.Merge(&middleware.AuthConfig{Enabled: true, ClientID: "placer-staging"})

	if !cfg.Enabled {
		t.Error("Enabled should take overlay value")
	}
	if cfg.Issuer != "https://id.example.com" {
		t.Errorf("Issuer should survive empty overlay, got %s", cfg.Issuer)
	}
	if cfg.ClientID != "placer-staging" {
		t.Errorf("ClientID: got %s", cfg.ClientID)
	}
}
