// Package handler adapts the gate, dispatch engine and assistant to HTTP.
// Errors are classified once, in respondError.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/careguardian/careguardian-api/internal/apperr"
	"github.com/careguardian/careguardian-api/internal/middleware"
	"github.com/careguardian/careguardian-api/internal/session"
)

const requestTimeout = 5 * time.Second

func reqCtx(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), requestTimeout)
}

// respondError maps the error taxonomy onto status codes.
func respondError(c echo.Context, log zerolog.Logger, err error) error {
	var ve *apperr.ValidationError
	switch {
	case errors.As(err, &ve):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": ve.Message, "field": ve.Field})
	case errors.Is(err, session.ErrInvalidCredentials):
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
	case errors.Is(err, apperr.ErrAuthenticationRequired):
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	case errors.Is(err, apperr.ErrAuthorizationDenied):
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	case errors.Is(err, apperr.ErrNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "not found"})
	case errors.Is(err, apperr.ErrConflict):
		return c.JSON(http.StatusConflict, echo.Map{"error": "conflicts with current state"})
	case errors.Is(err, apperr.ErrUpstream):
		log.Error().Err(err).Str("path", c.Path()).Msg("upstream failure")
		return c.JSON(http.StatusBadGateway, echo.Map{"error": "upstream service failed"})
	case errors.Is(err, context.DeadlineExceeded):
		log.Error().Err(err).Str("path", c.Path()).Msg("request timed out")
		return c.JSON(http.StatusGatewayTimeout, echo.Map{"error": "timed out"})
	}
	log.Error().Err(err).Str("path", c.Path()).Msg("request failed")
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal server error"})
}

func badBody(c echo.Context) error {
	return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
}

// identity returns the caller attached by SessionAuth; routes without it
// yield an empty identity, which the engine treats as unauthenticated.
func identity(c echo.Context) session.Identity {
	id, _ := middleware.IdentityFrom(c)
	return id
}

func pathID(c echo.Context, name string) (uint64, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, apperr.Validation(name, "must be a positive integer")
	}
	return id, nil
}

// Coordinate accepts a JSON number or a numeric string. null and "" mean
// absent; anything else non-numeric is kept as invalid for field-level
// reporting.
type Coordinate struct {
	set     bool
	invalid bool
	value   float64
}

func (c *Coordinate) UnmarshalJSON(b []byte) error {
	raw := strings.TrimSpace(string(b))
	if raw == "null" {
		return nil
	}
	if strings.HasPrefix(raw, `"`) {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		raw = strings.TrimSpace(s)
		if raw == "" {
			return nil
		}
	}
	c.set = true
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		c.invalid = true
		return nil
	}
	c.value = v
	return nil
}

// Optional returns nil when absent.
func (c Coordinate) Optional(field string) (*float64, error) {
	if !c.set {
		return nil, nil
	}
	if c.invalid {
		return nil, apperr.Validation(field, "must be a number")
	}
	v := c.value
	return &v, nil
}

func (c Coordinate) Required(field string) (float64, error) {
	if !c.set {
		return 0, apperr.Validation(field, "required")
	}
	p, err := c.Optional(field)
	if err != nil {
		return 0, err
	}
	return *p, nil
}

// point reads a required latitude/longitude pair.
func point(lat, lon Coordinate) (float64, float64, error) {
	la, err := lat.Required("latitude")
	if err != nil {
		return 0, 0, err
	}
	lo, err := lon.Required("longitude")
	if err != nil {
		return 0, 0, err
	}
	return la, lo, nil
}
