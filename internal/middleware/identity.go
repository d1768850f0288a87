package middleware

import (
	"strconv"

	"github.com/labstack/echo/v4"
)

// currentUserID keys rate limiting; unauthenticated callers share "anon".
func currentUserID(c echo.Context) string {
	if id, ok := IdentityFrom(c); ok {
		return strconv.FormatUint(id.UserID, 10)
	}
	return "anon"
}
