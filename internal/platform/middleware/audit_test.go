package middleware

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/SHANICERUGURU/finalcapstone/internal/platform/apperr"
)

func TestAudit_LogsApiAccess(t *testing.T) {
	var buf bytes.Buffer
	e := echo.New()
	c := e.NewContext(httptest.NewRequest(http.MethodDelete, "/api/patients/7", nil), httptest.NewRecorder())
	c.SetParamNames("id")
	c.SetParamValues("7")
	c.Set("request_id", "rid-9")

	err := Audit(zerolog.New(&buf))(func(c echo.Context) error {
		c.Set("user_id", int64(3))
		c.Set("user_role", "PATIENT")
		return apperr.Forbidden("Only doctors can delete patient profiles")
	})(c)
	if err == nil {
		t.Fatal("expected handler error to be returned")
	}

	var line map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("expected a JSON audit line: %v", err)
	}
	checks := map[string]interface{}{
		"type":       "audit",
		"resource":   "patients",
		"record_id":  "7",
		"action":     "delete",
		"role":       "PATIENT",
		"request_id": "rid-9",
		"level":      "warn",
	}
	for k, want := range checks {
		if line[k] != want {
			t.Errorf("%s: expected %v, got %v", k, want, line[k])
		}
	}
	if line["status"].(float64) != 403 || line["user_id"].(float64) != 3 {
		t.Errorf("unexpected status/user %v %v", line["status"], line["user_id"])
	}
}

func TestAudit_SkipsNonApiPaths(t *testing.T) {
	var buf bytes.Buffer
	e := echo.New()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/health", nil), httptest.NewRecorder())

	_ = Audit(zerolog.New(&buf))(func(c echo.Context) error { return c.NoContent(http.StatusOK) })(c)
	if buf.Len() != 0 {
		t.Errorf("expected no audit output for /health, got %s", buf.String())
	}
}

func TestExtractResource(t *testing.T) {
	tests := map[string]string{
		"/api/patients/3":            "patients",
		"/api/doctor/patients":       "doctor",
		"/api/appointments/2/status": "appointments",
		"/api/":                      "unknown",
		"/dashboard":                 "dashboard",
	}
	for path, want := range tests {
		if got := extractResource(path); got != want {
			t.Errorf("extractResource(%q) = %q, want %q", path, got, want)
		}
	}
}

func TestHTTPMethodToAction(t *testing.T) {
	tests := map[string]string{
		http.MethodGet:    "read",
		http.MethodPost:   "create",
		http.MethodPut:    "update",
		http.MethodPatch:  "update",
		http.MethodDelete: "delete",
	}
	for method, want := range tests {
		if got := httpMethodToAction(method); got != want {
			t.Errorf("%s: expected %s, got %s", method, want, got)
		}
	}
}
