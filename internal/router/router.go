package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/careguardian/careguardian-api/internal/handler"
	"github.com/careguardian/careguardian-api/internal/middleware"
)

// Guards is the middleware shared across /v1 groups. Limit and Cache are
// pass-through when Redis is unavailable.
type Guards struct {
	Auth  echo.MiddlewareFunc
	Limit echo.MiddlewareFunc
	Cache echo.MiddlewareFunc
}

// NewGuards builds Guards around the session authenticator.
func NewGuards(auth middleware.Authenticator, secret string, limit, cache echo.MiddlewareFunc) Guards {
	return Guards{Auth: middleware.SessionAuth(auth, secret), Limit: limit, Cache: cache}
}

// RegisterRoutes registers the unversioned operational endpoints. A nil
// gatherer serves the default Prometheus registry.
func RegisterRoutes(e *echo.Echo, db handler.Pinger, gatherer prometheus.Gatherer) {
	e.GET("/healthz", handler.Health(db))
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
}

// RegisterAuth registers account and session routes. Logout works with or
// without a live session so a stale cookie can always be cleared.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, g Guards) {
	pub := e.Group("/v1/auth", g.Limit)
	pub.POST("/register", a.Register)
	pub.POST("/login", a.Login)
	pub.POST("/logout", a.Logout)

	auth := e.Group("/v1", g.Auth, g.Limit)
	auth.GET("/me", a.Me)
}

// RegisterPublic registers the unauthenticated directory, search and
// first-aid endpoints. Only the directory reads are cached.
func RegisterPublic(e *echo.Echo, d *handler.DispatchHandler, as *handler.AssistantHandler, g Guards) {
	v1 := e.Group("/v1", g.Limit)
	v1.GET("/hospitals", d.ListHospitals, g.Cache)
	v1.GET("/hospitals/:id", d.GetHospital, g.Cache)
	v1.POST("/hospitals/search", d.SearchHospitals)
	v1.POST("/first-aid", as.FirstAid)
}
