package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/careguardian/careguardian-api/internal/middleware"
	"github.com/careguardian/careguardian-api/internal/session"
	"github.com/careguardian/careguardian-api/internal/utils"
)

// AuthHandler serves registration, login, logout and the current user.
// The session travels as a signed JWT in an HttpOnly cookie; the token only
// carries the session ID, which the Gate checks against its store on each
// request. Secure marks the cookie HTTPS-only.
type AuthHandler struct {
	Gate   *session.Gate
	Secret string
	Secure bool
	Log    zerolog.Logger
}

func NewAuthHandler(gate *session.Gate, secret string, secure bool, log zerolog.Logger) *AuthHandler {
	return &AuthHandler{Gate: gate, Secret: secret, Secure: secure, Log: log}
}

type registerReq struct {
	Username      string     `json:"username"`
	Password      string     `json:"password"`
	Email         string     `json:"email"`
	Role          string     `json:"role"`
	FullName      string     `json:"full_name"`
	Phone         string     `json:"phone"`
	Address       string     `json:"address"`
	City          string     `json:"city"`
	State         string     `json:"state"`
	VehicleNumber string     `json:"vehicle_number"`
	Latitude      Coordinate `json:"latitude"`
	Longitude     Coordinate `json:"longitude"`
}

type loginReq struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (h *AuthHandler) Register(c echo.Context) error {
	var req registerReq
	if err := c.Bind(&req); err != nil {
		return badBody(c)
	}
	lat, err := req.Latitude.Optional("latitude")
	if err != nil {
		return respondError(c, h.Log, err)
	}
	lon, err := req.Longitude.Optional("longitude")
	if err != nil {
		return respondError(c, h.Log, err)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	user, id, err := h.Gate.Register(ctx, session.RegisterInput{
		Username: req.Username, Password: req.Password, Email: req.Email, Role: req.Role,
		FullName: req.FullName, Phone: req.Phone, Address: req.Address, City: req.City,
		State: req.State, VehicleNumber: req.VehicleNumber, Latitude: lat, Longitude: lon,
	})
	if err != nil {
		return respondError(c, h.Log, err)
	}
	if err := h.setCookie(c, id); err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSON(http.StatusCreated, user)
}

// Login answers every failure with the same message.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return badBody(c)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	id, err := h.Gate.Login(ctx, req.Username, req.Password)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	if err := h.setCookie(c, id); err != nil {
		return respondError(c, h.Log, err)
	}
	user, err := h.Gate.CurrentUser(ctx, id)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, user)
}

// Logout clears the cookie and destroys the session if there is one.
func (h *AuthHandler) Logout(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	if sid, ok := middleware.SessionID(c, h.Secret); ok {
		if err := h.Gate.Logout(ctx, sid); err != nil {
			return respondError(c, h.Log, err)
		}
	}
	middleware.ClearSessionCookie(c, h.Secure)
	return c.NoContent(http.StatusNoContent)
}

func (h *AuthHandler) Me(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	user, err := h.Gate.CurrentUser(ctx, identity(c))
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, user)
}

func (h *AuthHandler) setCookie(c echo.Context, id session.Identity) error {
	tok, err := utils.SignSessionToken(h.Secret, id.SessionID, id.UserID, string(id.Role), time.Now(), id.ExpiresAt)
	if err != nil {
		return err
	}
	middleware.SetSessionCookie(c, tok, id.ExpiresAt, h.Secure)
	return nil
}
