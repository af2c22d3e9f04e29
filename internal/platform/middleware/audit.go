package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

// AuditEntry records who touched which clinic record.
type AuditEntry struct {
	Timestamp  time.Time
	RequestID  string
	UserID     int64
	Role       string
	Resource   string
	RecordID   string
	Action     string // read, create, update, delete
	Method     string
	Path       string
	IPAddress  string
	StatusCode int
}

// Audit logs one "record_access" event per /api/ request after the handler
// has run, so the outcome status is included.
func Audit(logger zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			if !isAuditablePath(req.URL.Path) {
				return next(c)
			}

			err := next(c)

			entry := buildAuditEntry(c, err)
			evt := logger.Info()
			if entry.StatusCode == http.StatusForbidden {
				evt = logger.Warn()
			}
			evt.
				Str("type", "audit").
				Str("request_id", entry.RequestID).
				Int64("user_id", entry.UserID).
				Str("role", entry.Role).
				Str("resource", entry.Resource).
				Str("record_id", entry.RecordID).
				Str("action", entry.Action).
				Str("method", entry.Method).
				Str("path", entry.Path).
				Str("remote_ip", entry.IPAddress).
				Int("status", entry.StatusCode).
				Msg("record_access")

			return err
		}
	}
}

func buildAuditEntry(c echo.Context, err error) AuditEntry {
	req := c.Request()
	entry := AuditEntry{
		Timestamp:  time.Now().UTC(),
		Method:     req.Method,
		Path:       req.URL.Path,
		IPAddress:  c.RealIP(),
		Action:     httpMethodToAction(req.Method),
		Resource:   extractResource(req.URL.Path),
		RecordID:   c.Param("id"),
		StatusCode: c.Response().Status,
	}
	if err != nil {
		entry.StatusCode = StatusOf(err)
	}
	entry.RequestID, _ = c.Get("request_id").(string)
	entry.UserID, _ = c.Get("user_id").(int64)
	entry.Role, _ = c.Get("user_role").(string)
	return entry
}

func isAuditablePath(path string) bool {
	return strings.HasPrefix(path, "/api/") || strings.HasPrefix(path, "/dashboard")
}

func httpMethodToAction(method string) string {
	switch method {
	case http.MethodPost:
		return "create"
	case http.MethodPut, http.MethodPatch:
		return "update"
	case http.MethodDelete:
		return "delete"
	default:
		return "read"
	}
}

// extractResource returns the first path segment after /api/, e.g.
// "patients" for /api/patients/3 and "doctor" for /api/doctor/patients.
func extractResource(path string) string {
	rest, ok := strings.CutPrefix(path, "/api/")
	if !ok {
		return strings.Trim(path, "/")
	}
	seg, _, _ := strings.Cut(rest, "/")
	if seg == "" {
		return "unknown"
	}
	return seg
}
