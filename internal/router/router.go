package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/iliyamo/pickflix/internal/handler"
	"github.com/iliyamo/pickflix/internal/middleware"
)

// RegisterRoutes registers the unauthenticated operational endpoints:
// liveness, readiness and the Prometheus scrape target.
func RegisterRoutes(e *echo.Echo, db handler.Pinger) {
	e.GET("/healthz", handler.Health)
	e.GET("/readyz", handler.Ready(db))
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
}

// RegisterAuth registers the credential and session-view routes.  None of
// them needs a signed-in session; limiter guards register and login against
// password guessing.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, s *middleware.Sessions, limiter echo.MiddlewareFunc) {
	g := e.Group("/v1/auth")
	g.POST("/register", s.Handle(a.Register), limiter)
	g.POST("/login", s.Handle(a.Login), limiter)
	g.POST("/logout", s.Handle(a.Logout))

	e.GET("/v1/session", s.Handle(handler.GetSession))
	e.POST("/v1/session/form", s.Handle(handler.ChooseForm))
}
