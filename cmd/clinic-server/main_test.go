package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/SHANICERUGURU/finalcapstone/internal/config"
	"github.com/SHANICERUGURU/finalcapstone/internal/domain/account"
	"github.com/SHANICERUGURU/finalcapstone/internal/domain/identity"
	"github.com/SHANICERUGURU/finalcapstone/internal/domain/scheduling"
	"github.com/SHANICERUGURU/finalcapstone/internal/platform/access"
	"github.com/SHANICERUGURU/finalcapstone/internal/platform/apperr"
	"github.com/SHANICERUGURU/finalcapstone/internal/platform/auth"
	"github.com/SHANICERUGURU/finalcapstone/internal/platform/db"
	"github.com/SHANICERUGURU/finalcapstone/internal/platform/middleware"
	"github.com/SHANICERUGURU/finalcapstone/internal/platform/outbox"
)

const testKey = "test-signing-key-0123456789abcdef0123"

type stubActors map[int64]access.Actor

func (s stubActors) LoadActor(_ context.Context, userID int64) (access.Actor, error) {
	a, ok := s[userID]
	if !ok {
		return access.Actor{}, apperr.ErrNotFound
	}
	return a, nil
}

func testServer(t *testing.T) (*echo.Echo, *auth.TokenIssuer, *auth.TokenRevocationStore) {
	t.Helper()
	cfg := &config.Config{
		AuthIssuer:     "clinic-test",
		AuthSigningKey: testKey,
		CORSOrigins:    []string{"*"},
		RateLimitRPS:   1000,
		RateLimitBurst: 1000,
	}
	logger := zerolog.Nop()
	tokens := auth.NewTokenIssuer(cfg.AuthIssuer, []byte(testKey), time.Hour)
	revoker := auth.NewTokenRevocationStore()
	t.Cleanup(revoker.Close)

	events := outbox.LogRecorder{Logger: logger}
	accounts := account.NewService(nil, tokens, revoker, db.NoopTransactor{}, events)
	ids := identity.NewService(nil, nil, stubActors{
		1: {UserID: 1, Username: "alice", Role: access.RolePatient},
	}, accounts)
	sched := scheduling.NewService(nil, ids, scheduling.NewStatusSet(nil), "", db.NoopTransactor{}, events)

	e := newServer(cfg, logger, services{
		accounts:   accounts,
		identity:   ids,
		scheduling: sched,
		revoker:    revoker,
		limiter:    middleware.NewMemoryLimiter(middleware.RateLimitConfig{RequestsPerSecond: 1000, BurstSize: 1000}),
	})
	return e, tokens, revoker
}

func do(e *echo.Echo, method, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestServer_Health(t *testing.T) {
	e, _, _ := testServer(t)
	rec := do(e, http.MethodGet, "/health", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body["status"] != "ok" {
		t.Errorf("unexpected body %v", body)
	}
	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("expected a request id header")
	}
}

func TestServer_ProtectedRouteNeedsToken(t *testing.T) {
	e, _, _ := testServer(t)
	rec := do(e, http.MethodGet, "/api/patients/", "")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	var body middleware.ErrorBody
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body.Error == "" {
		t.Error("expected an error message")
	}
}

func TestServer_SpecialtiesWithToken(t *testing.T) {
	e, tokens, _ := testServer(t)
	token, err := tokens.Issue(1, "alice", string(access.RolePatient))
	if err != nil {
		t.Fatal(err)
	}

	rec := do(e, http.MethodGet, "/api/doctors/specialties/", token)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body["DENTIST"] != "Dentist" {
		t.Errorf("unexpected specialties %v", body)
	}
}

func TestServer_TokenForDeletedUser(t *testing.T) {
	e, tokens, _ := testServer(t)
	token, _ := tokens.Issue(99, "ghost", string(access.RolePatient))

	rec := do(e, http.MethodGet, "/api/doctors/specialties", token)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 for an unknown user, got %d", rec.Code)
	}
}

func TestServer_LogoutRevokesToken(t *testing.T) {
	e, tokens, revoker := testServer(t)
	token, _ := tokens.Issue(1, "alice", string(access.RolePatient))

	if rec := do(e, http.MethodGet, "/api/doctors/specialties", token); rec.Code != http.StatusOK {
		t.Fatalf("expected 200 before logout, got %d", rec.Code)
	}

	rec := do(e, http.MethodPost, "/api/auth/logout/", token)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 from logout, got %d: %s", rec.Code, rec.Body.String())
	}
	if revoker.Count() != 1 {
		t.Errorf("expected one revoked token, got %d", revoker.Count())
	}

	if rec := do(e, http.MethodGet, "/api/doctors/specialties", token); rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 after logout, got %d", rec.Code)
	}
}

func TestServer_Routes(t *testing.T) {
	e, _, _ := testServer(t)
	want := map[string]bool{
		"POST /api/auth/register":            false,
		"POST /api/auth/login":               false,
		"POST /api/auth/logout":              false,
		"GET /api/user/profile":              false,
		"GET /api/patients":                  false,
		"POST /api/patients":                 false,
		"DELETE /api/patients/:id":           false,
		"GET /api/doctors":                   false,
		"GET /api/doctors/specialties":       false,
		"GET /api/appointments":              false,
		"POST /api/appointments":             false,
		"PATCH /api/appointments/:id/status": false,
		"GET /dashboard":                     false,
		"GET /health/db":                     false,
	}
	for _, r := range e.Routes() {
		key := r.Method + " " + r.Path
		if _, ok := want[key]; ok {
			want[key] = true
		}
	}
	for route, found := range want {
		if !found {
			t.Errorf("route %s not registered", route)
		}
	}
}
