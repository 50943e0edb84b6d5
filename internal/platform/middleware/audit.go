package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/odonto/clinic/internal/platform/auth"
)

// AuditEntry describes one mutating request against patient data.
type AuditEntry struct {
	RequestID  string
	ClinicID   string
	UserID     string
	Role       string
	Resource   string
	Action     string
	Method     string
	Path       string
	StatusCode int
}

// Audit logs every mutating /api/v1 request with the session that issued it.
// Reads are covered by the request logger.
func Audit(logger zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			action := actionFor(req.Method)
			if action == "" || !strings.HasPrefix(req.URL.Path, "/api/v1/") {
				return next(c)
			}

			err := next(c)

			entry := AuditEntry{
				Method:     req.Method,
				Path:       req.URL.Path,
				Resource:   resourceFromPath(req.URL.Path),
				Action:     action,
				StatusCode: c.Response().Status,
			}
			if he, ok := err.(*echo.HTTPError); ok {
				entry.StatusCode = he.Code
			}
			entry.RequestID, _ = c.Get("request_id").(string)
			if s, ok := auth.SessionFromContext(req.Context()); ok {
				entry.ClinicID = s.ClinicID.String()
				entry.UserID = s.UserID.String()
				entry.Role = string(s.Role)
			}

			logger.Info().
				Str("request_id", entry.RequestID).
				Str("clinic_id", entry.ClinicID).
				Str("user_id", entry.UserID).
				Str("role", entry.Role).
				Str("resource", entry.Resource).
				Str("action", entry.Action).
				Int("status", entry.StatusCode).
				Msg("audit")

			return err
		}
	}
}

func actionFor(method string) string {
	switch method {
	case http.MethodPost:
		return "create"
	case http.MethodPut, http.MethodPatch:
		return "update"
	case http.MethodDelete:
		return "delete"
	default:
		return ""
	}
}

// resourceFromPath returns the first segment after /api/v1, e.g. "attendances".
func resourceFromPath(path string) string {
	rest := strings.TrimPrefix(path, "/api/v1/")
	seg, _, _ := strings.Cut(rest, "/")
	return seg
}
