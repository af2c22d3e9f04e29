package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

var testSigningKey = []byte("test-secret-key-for-unit-tests-only")

func createTestToken(t *testing.T, claims Claims, key []byte) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenStr, err := token.SignedString(key)
	if err != nil {
		t.Fatalf("failed to sign test token: %v", err)
	}
	return tokenStr
}

func validClaims() Claims {
	return Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "clinic-server",
			Subject:   "42",
			ID:        "jti-1",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
		Username: "alice",
		Role:     "PATIENT",
	}
}

func runMiddleware(t *testing.T, cfg JWTConfig, header string) (context.Context, error) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/user/profile", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetPath("/api/user/profile")

	var seen context.Context
	h := JWTMiddleware(cfg)(func(c echo.Context) error {
		seen = c.Request().Context()
		return c.String(http.StatusOK, "ok")
	})
	err := h(c)
	return seen, err
}

func expectStatus(t *testing.T, err error, code int) {
	t.Helper()
	var httpErr *echo.HTTPError
	if !errors.As(err, &httpErr) {
		t.Fatalf("expected echo.HTTPError, got %T (%v)", err, err)
	}
	if httpErr.Code != code {
		t.Errorf("expected %d, got %d", code, httpErr.Code)
	}
}

func TestJWTMiddleware_MissingHeader(t *testing.T) {
	_, err := runMiddleware(t, JWTConfig{SigningKey: testSigningKey}, "")
	expectStatus(t, err, http.StatusUnauthorized)
}

func TestJWTMiddleware_InvalidFormat(t *testing.T) {
	tests := []struct {
		name   string
		header string
	}{
		{"no bearer prefix", "Token abc123"},
		{"missing token", "Bearer"},
		{"empty value", "Bearer "},
		{"basic auth", "Basic dXNlcjpwYXNz"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := runMiddleware(t, JWTConfig{SigningKey: testSigningKey}, tt.header)
			expectStatus(t, err, http.StatusUnauthorized)
		})
	}
}

func TestJWTMiddleware_ValidToken(t *testing.T) {
	token := createTestToken(t, validClaims(), testSigningKey)
	ctx, err := runMiddleware(t, JWTConfig{Issuer: "clinic-server", SigningKey: testSigningKey}, "Bearer "+token)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	uid, ok := UserIDFromContext(ctx)
	if !ok || uid != 42 {
		t.Errorf("expected user 42, got %d (%v)", uid, ok)
	}
	if RoleFromContext(ctx) != "PATIENT" {
		t.Errorf("expected PATIENT role, got %q", RoleFromContext(ctx))
	}
	if TokenIDFromContext(ctx) != "jti-1" {
		t.Errorf("expected jti-1, got %q", TokenIDFromContext(ctx))
	}
	if TokenExpiryFromContext(ctx).IsZero() {
		t.Error("expected token expiry on context")
	}
}

func TestJWTMiddleware_Rejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Claims)
		key    []byte
	}{
		{"wrong key", func(c *Claims) {}, []byte("another-key-entirely-not-the-same")},
		{"expired", func(c *Claims) { c.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Minute)) }, testSigningKey},
		{"no expiry", func(c *Claims) { c.ExpiresAt = nil }, testSigningKey},
		{"wrong issuer", func(c *Claims) { c.Issuer = "someone-else" }, testSigningKey},
		{"non-numeric subject", func(c *Claims) { c.Subject = "alice" }, testSigningKey},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims := validClaims()
			tt.mutate(&claims)
			token := createTestToken(t, claims, tt.key)
			_, err := runMiddleware(t, JWTConfig{Issuer: "clinic-server", SigningKey: testSigningKey}, "Bearer "+token)
			expectStatus(t, err, http.StatusUnauthorized)
		})
	}
}

func TestJWTMiddleware_RevokedToken(t *testing.T) {
	store := NewTokenRevocationStore()
	defer store.Close()
	_ = store.Revoke(context.Background(), "jti-1", 42, time.Now().Add(time.Hour))

	token := createTestToken(t, validClaims(), testSigningKey)
	_, err := runMiddleware(t, JWTConfig{SigningKey: testSigningKey, Revoker: store}, "Bearer "+token)
	expectStatus(t, err, http.StatusUnauthorized)
}

func TestJWTMiddleware_SkipsPublicPaths(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", nil)
	c := e.NewContext(req, httptest.NewRecorder())
	c.SetPath("/api/auth/login")

	called := false
	h := JWTMiddleware(JWTConfig{SigningKey: testSigningKey, Skipper: AuthSkipper})(func(c echo.Context) error {
		called = true
		return nil
	})
	if err := h(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !called {
		t.Error("expected handler to be called for public path")
	}
}

func TestTokenIssuer_RoundTrip(t *testing.T) {
	issuer := NewTokenIssuer("clinic-server", testSigningKey, time.Hour)
	token, err := issuer.Issue(7, "bob", "DOCTOR")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	ctx, err := runMiddleware(t, JWTConfig{Issuer: "clinic-server", SigningKey: testSigningKey}, "Bearer "+token)
	if err != nil {
		t.Fatalf("issued token rejected: %v", err)
	}
	if uid, _ := UserIDFromContext(ctx); uid != 7 {
		t.Errorf("expected user 7, got %d", uid)
	}
	if RoleFromContext(ctx) != "DOCTOR" {
		t.Errorf("expected DOCTOR, got %q", RoleFromContext(ctx))
	}

	second, _ := issuer.Issue(7, "bob", "DOCTOR")
	if second == token {
		t.Error("expected distinct token ids per issue")
	}
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("p1")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if hash == "p1" {
		t.Fatal("hash must not equal the password")
	}
	ok, err := VerifyPassword(hash, "p1")
	if err != nil || !ok {
		t.Errorf("expected match, got %v %v", ok, err)
	}
	ok, err = VerifyPassword(hash, "p2")
	if err != nil || ok {
		t.Errorf("expected mismatch, got %v %v", ok, err)
	}
	if _, err := VerifyPassword("not-a-hash", "p1"); err == nil {
		t.Error("expected error for malformed hash")
	}
}
