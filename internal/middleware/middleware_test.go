package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/careguardian/careguardian-api/internal/apperr"
	"github.com/careguardian/careguardian-api/internal/config"
	"github.com/careguardian/careguardian-api/internal/model"
	"github.com/careguardian/careguardian-api/internal/session"
	"github.com/careguardian/careguardian-api/internal/utils"
)

const secret = "test-secret"

type fakeAuth map[string]session.Identity

func (f fakeAuth) Authenticate(_ context.Context, sid string) (session.Identity, error) {
	id, ok := f[sid]
	if !ok {
		return session.Identity{}, apperr.ErrAuthenticationRequired
	}
	return id, nil
}

func cookieFor(t *testing.T, sid string) *http.Cookie {
	t.Helper()
	now := time.Now()
	tok, err := utils.SignSessionToken(secret, sid, 1, "user", now, now.Add(time.Hour))
	require.NoError(t, err)
	return &http.Cookie{Name: SessionCookie, Value: tok}
}

func newRedis(t *testing.T) *redis.Client {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return rdb
}

func serve(e *echo.Echo, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func protectedEcho(auth Authenticator, roles ...model.Role) *echo.Echo {
	e := echo.New()
	g := e.Group("", SessionAuth(auth, secret))
	if len(roles) > 0 {
		g.Use(RequireRole(roles...))
	}
	g.GET("/me", func(c echo.Context) error {
		id, ok := IdentityFrom(c)
		if !ok {
			return c.NoContent(http.StatusTeapot)
		}
		return c.String(http.StatusOK, id.Username)
	})
	return e
}

func TestSessionAuth(t *testing.T) {
	auth := fakeAuth{"live": {SessionID: "live", UserID: 7, Username: "alice", Role: model.RoleUser}}
	e := protectedEcho(auth)

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	assert.Equal(t, http.StatusUnauthorized, serve(e, req).Code)

	req = httptest.NewRequest(http.MethodGet, "/me", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookie, Value: "garbage"})
	assert.Equal(t, http.StatusUnauthorized, serve(e, req).Code)

	req = httptest.NewRequest(http.MethodGet, "/me", nil)
	req.AddCookie(cookieFor(t, "revoked"))
	assert.Equal(t, http.StatusUnauthorized, serve(e, req).Code)

	req = httptest.NewRequest(http.MethodGet, "/me", nil)
	req.AddCookie(cookieFor(t, "live"))
	rec := serve(e, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "alice", rec.Body.String())
}

func TestRequireRole(t *testing.T) {
	auth := fakeAuth{
		"driver":  {UserID: 1, Username: "d", Role: model.RoleAmbulance},
		"patient": {UserID: 2, Username: "p", Role: model.RoleUser},
	}
	e := protectedEcho(auth, model.RoleAmbulance)

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.AddCookie(cookieFor(t, "driver"))
	assert.Equal(t, http.StatusOK, serve(e, req).Code)

	req = httptest.NewRequest(http.MethodGet, "/me", nil)
	req.AddCookie(cookieFor(t, "patient"))
	rec := serve(e, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), "forbidden")

	bare := echo.New()
	bare.GET("/x", func(c echo.Context) error { return c.NoContent(http.StatusOK) }, RequireRole(model.RoleUser))
	assert.Equal(t, http.StatusUnauthorized, serve(bare, httptest.NewRequest(http.MethodGet, "/x", nil)).Code)
}

func TestTokenBucketBlocksAfterCapacity(t *testing.T) {
	cfg := config.RateLimitConfig{Enabled: true, Capacity: 2, RefillTokens: 1, RefillInterval: time.Hour,
		TTL: time.Hour, KeyStrategy: "ip", Prefix: "cg:rl"}
	e := echo.New()
	e.Use(NewTokenBucket(cfg, newRedis(t), zerolog.Nop()))
	e.GET("/v1/hospitals", func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	for i := 0; i < 2; i++ {
		rec := serve(e, httptest.NewRequest(http.MethodGet, "/v1/hospitals", nil))
		require.Equal(t, http.StatusOK, rec.Code)
	}
	rec := serve(e, httptest.NewRequest(http.MethodGet, "/v1/hospitals", nil))
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
	assert.Equal(t, "0", rec.Header().Get("X-RateLimit-Remaining"))
}

func TestTokenBucketFailsOpen(t *testing.T) {
	cfg := config.RateLimitConfig{Enabled: true, Capacity: 1, RefillTokens: 1, RefillInterval: time.Second, TTL: time.Minute}
	rdb := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", MaxRetries: -1, DialTimeout: 50 * time.Millisecond})
	defer rdb.Close()

	e := echo.New()
	e.Use(NewTokenBucket(cfg, rdb, zerolog.Nop()))
	e.GET("/", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	for i := 0; i < 3; i++ {
		assert.Equal(t, http.StatusOK, serve(e, httptest.NewRequest(http.MethodGet, "/", nil)).Code)
	}

	off := echo.New()
	off.Use(NewTokenBucket(cfg, nil, zerolog.Nop()))
	off.GET("/", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	assert.Equal(t, http.StatusOK, serve(off, httptest.NewRequest(http.MethodGet, "/", nil)).Code)
}

func TestRedisCacheReplaysResponses(t *testing.T) {
	cfg := config.CacheConfig{Enabled: true, Methods: map[string]bool{"GET": true}, TTL: time.Minute, Prefix: "cg:cache"}
	calls := 0
	e := echo.New()
	e.Use(NewRedisCache(cfg, newRedis(t)))
	e.GET("/v1/hospitals/:id", func(c echo.Context) error {
		calls++
		return c.JSON(http.StatusOK, echo.Map{"id": c.Param("id")})
	})
	e.GET("/v1/missing", func(c echo.Context) error {
		calls++
		return c.JSON(http.StatusNotFound, echo.Map{"error": "not found"})
	})

	first := serve(e, httptest.NewRequest(http.MethodGet, "/v1/hospitals/1", nil))
	assert.Equal(t, "MISS", first.Header().Get("X-Cache"))
	second := serve(e, httptest.NewRequest(http.MethodGet, "/v1/hospitals/1", nil))
	assert.Equal(t, "HIT", second.Header().Get("X-Cache"))
	assert.Equal(t, first.Body.String(), second.Body.String())
	assert.True(t, strings.HasPrefix(second.Header().Get(echo.HeaderContentType), echo.MIMEApplicationJSON))

	other := serve(e, httptest.NewRequest(http.MethodGet, "/v1/hospitals/2", nil))
	assert.Equal(t, "MISS", other.Header().Get("X-Cache"))
	assert.Contains(t, other.Body.String(), `"2"`)
	assert.Equal(t, 2, calls)

	serve(e, httptest.NewRequest(http.MethodGet, "/v1/missing", nil))
	again := serve(e, httptest.NewRequest(http.MethodGet, "/v1/missing", nil))
	assert.Equal(t, "MISS", again.Header().Get("X-Cache"))
	assert.Equal(t, 4, calls)
}

func TestRequestIDAndRecovery(t *testing.T) {
	e := echo.New()
	e.Use(RequestID(), Logger(zerolog.Nop()), Recovery(zerolog.Nop()))
	e.GET("/boom", func(c echo.Context) error { panic("kaboom") })
	e.GET("/ok", func(c echo.Context) error { return c.NoContent(http.StatusNoContent) })

	rec := serve(e, httptest.NewRequest(http.MethodGet, "/boom", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotEmpty(t, rec.Header().Get(echo.HeaderXRequestID))

	req := httptest.NewRequest(http.MethodGet, "/ok", nil)
	req.Header.Set(echo.HeaderXRequestID, "req-123")
	rec = serve(e, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "req-123", rec.Header().Get(echo.HeaderXRequestID))
}
