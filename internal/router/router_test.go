package router

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/careguardian/careguardian-api/internal/apperr"
	"github.com/careguardian/careguardian-api/internal/handler"
	"github.com/careguardian/careguardian-api/internal/middleware"
	"github.com/careguardian/careguardian-api/internal/model"
	"github.com/careguardian/careguardian-api/internal/session"
	"github.com/careguardian/careguardian-api/internal/utils"
)

const secret = "router-secret"

type fakeAuth map[string]session.Identity

func (f fakeAuth) Authenticate(_ context.Context, sid string) (session.Identity, error) {
	id, ok := f[sid]
	if !ok {
		return session.Identity{}, apperr.ErrAuthenticationRequired
	}
	return id, nil
}

func passThrough(next echo.HandlerFunc) echo.HandlerFunc { return next }

func newEcho(auth fakeAuth) *echo.Echo {
	e := echo.New()
	g := NewGuards(auth, secret, passThrough, passThrough)
	d := &handler.DispatchHandler{}
	as := &handler.AssistantHandler{}
	RegisterRoutes(e, nil, prometheus.NewRegistry())
	RegisterAuth(e, &handler.AuthHandler{Secret: secret}, g)
	RegisterPublic(e, d, as, g)
	RegisterMember(e, d, as, g)
	RegisterOperator(e, d, g)
	return e
}

func cookie(t *testing.T, sid string, role model.Role) *http.Cookie {
	t.Helper()
	now := time.Now()
	tok, err := utils.SignSessionToken(secret, sid, 1, string(role), now, now.Add(time.Hour))
	require.NoError(t, err)
	return &http.Cookie{Name: middleware.SessionCookie, Value: tok}
}

func TestRouteTable(t *testing.T) {
	e := newEcho(fakeAuth{})
	have := map[string]bool{}
	for _, r := range e.Routes() {
		have[r.Method+" "+r.Path] = true
	}
	for _, want := range []string{
		"GET /healthz",
		"GET /metrics",
		"POST /v1/auth/register",
		"POST /v1/auth/login",
		"POST /v1/auth/logout",
		"GET /v1/me",
		"GET /v1/hospitals",
		"GET /v1/hospitals/:id",
		"GET /v1/hospitals/me",
		"PATCH /v1/hospitals/me/location",
		"POST /v1/hospitals/search",
		"POST /v1/first-aid",
		"POST /v1/emergency",
		"GET /v1/emergency",
		"GET /v1/emergency/:id",
		"PATCH /v1/emergency/:id/status",
		"GET /v1/ambulances/available",
		"POST /v1/ambulances/search",
		"POST /v1/ambulance-bookings",
		"GET /v1/ambulance-bookings",
		"GET /v1/ambulance/me",
		"PATCH /v1/ambulance/status",
		"PATCH /v1/ambulance/location",
		"GET /v1/ambulance/bookings",
		"PATCH /v1/ambulance/bookings/:id/accept",
		"PATCH /v1/ambulance/bookings/:id/complete",
		"POST /v1/symptom-checks",
		"GET /v1/symptom-checks",
		"GET /v1/symptom-checks/:id",
		"GET /v1/chat/history",
		"POST /v1/chat/messages",
	} {
		assert.True(t, have[want], want)
	}
}

func TestProtectedRoutesNeedSession(t *testing.T) {
	e := newEcho(fakeAuth{})
	for _, p := range []struct{ method, path string }{
		{http.MethodGet, "/v1/me"},
		{http.MethodPost, "/v1/emergency"},
		{http.MethodGet, "/v1/chat/history"},
		{http.MethodPatch, "/v1/ambulance/status"},
		{http.MethodGet, "/v1/hospitals/me"},
		{http.MethodPatch, "/v1/hospitals/me/location"},
	} {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(p.method, p.path, nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code, p.path)
	}
}

func TestOperatorRoutesCheckRole(t *testing.T) {
	e := newEcho(fakeAuth{
		"u": {UserID: 1, Username: "pat", Role: model.RoleUser},
		"h": {UserID: 2, Username: "city", Role: model.RoleHospital},
	})
	for _, tc := range []struct {
		path string
		sid  string
		role model.Role
	}{
		{"/v1/ambulance/me", "u", model.RoleUser},
		{"/v1/ambulance/me", "h", model.RoleHospital},
		{"/v1/hospitals/me", "u", model.RoleUser},
	} {
		req := httptest.NewRequest(http.MethodGet, tc.path, nil)
		req.AddCookie(cookie(t, tc.sid, tc.role))
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusForbidden, rec.Code, tc.path+" as "+string(tc.role))
	}
}

func TestOperationalEndpoints(t *testing.T) {
	e := newEcho(fakeAuth{})

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())

	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}
