package middleware

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/odonto/clinic/internal/platform/apperr"
)

// RequestTimeout sets a deadline on the request context. Repositories pass
// that context to pgx, so a slow query is cancelled at the deadline and the
// use case result carries apperr.KindTimeout (504). Handlers that return
// without writing a response get the same 504 envelope here.
func RequestTimeout(timeout time.Duration) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx, cancel := context.WithTimeout(c.Request().Context(), timeout)
			defer cancel()
			c.SetRequest(c.Request().WithContext(ctx))

			err := next(c)
			if errors.Is(ctx.Err(), context.DeadlineExceeded) && !c.Response().Committed {
				return c.JSON(http.StatusGatewayTimeout, errorBody(apperr.TimeoutMessage))
			}
			return err
		}
	}
}
