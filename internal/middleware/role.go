package middleware

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/careguardian/careguardian-api/internal/apperr"
	"github.com/careguardian/careguardian-api/internal/model"
	"github.com/careguardian/careguardian-api/internal/session"
)

// RequireRole must run after SessionAuth. Callers outside the allowed roles
// get 403; unauthenticated callers get 401.
func RequireRole(roles ...model.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			id, _ := IdentityFrom(c)
			err := session.RequireRole(id, roles...)
			switch {
			case errors.Is(err, apperr.ErrAuthenticationRequired):
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
			case err != nil:
				return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
			}
			return next(c)
		}
	}
}
