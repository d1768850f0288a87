package middleware

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/careguardian/careguardian-api/internal/apperr"
	"github.com/careguardian/careguardian-api/internal/session"
	"github.com/careguardian/careguardian-api/internal/utils"
)

// SessionCookie names the HTTP-only cookie carrying the signed session id.
const SessionCookie = "cg_session"

const identityKey = "identity"

// Authenticator resolves a session id; *session.Gate implements it.
type Authenticator interface {
	Authenticate(ctx context.Context, sessionID string) (session.Identity, error)
}

// SessionAuth rejects requests without a live session and stores the
// resolved Identity for IdentityFrom.
func SessionAuth(auth Authenticator, secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			sid, ok := SessionID(c, secret)
			if !ok {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
			}
			id, err := auth.Authenticate(c.Request().Context(), sid)
			if errors.Is(err, apperr.ErrAuthenticationRequired) {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
			}
			if err != nil {
				return err
			}
			c.Set(identityKey, id)
			return next(c)
		}
	}
}

// SessionID extracts and verifies the session id from the cookie.
func SessionID(c echo.Context, secret string) (string, bool) {
	ck, err := c.Cookie(SessionCookie)
	if err != nil || ck.Value == "" {
		return "", false
	}
	sid, err := utils.ParseSessionToken(secret, ck.Value)
	if err != nil {
		return "", false
	}
	return sid, true
}

// IdentityFrom returns the identity attached by SessionAuth.
func IdentityFrom(c echo.Context) (session.Identity, bool) {
	id, ok := c.Get(identityKey).(session.Identity)
	return id, ok && id.UserID != 0
}

// SetSessionCookie writes the envelope with a fixed expiry matching the
// session's own.
func SetSessionCookie(c echo.Context, token string, expires time.Time, secure bool) {
	c.SetCookie(&http.Cookie{
		Name:     SessionCookie,
		Value:    token,
		Path:     "/",
		Expires:  expires,
		MaxAge:   int(time.Until(expires).Seconds()),
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func ClearSessionCookie(c echo.Context, secure bool) {
	c.SetCookie(&http.Cookie{
		Name:     SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}
