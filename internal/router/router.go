// Package router registers the console's HTTP routes on an echo instance.
package router

import (
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/iliyamo/admin-console/internal/handler"
	"github.com/iliyamo/admin-console/internal/middleware"
)

// RegisterRoutes registers the unauthenticated operational endpoints:
// liveness, readiness and Prometheus metrics.
func RegisterRoutes(e *echo.Echo, ready echo.HandlerFunc) {
	e.GET("/healthz", handler.Health)
	e.GET("/readyz", ready)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
}

// RegisterAuth registers login, token refresh, logout and the session
// views.  session must be the middleware.Session of the server; limit
// guards the login endpoint against password guessing.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, session, limit echo.MiddlewareFunc) {
	// Token exchanges need no session.
	g := e.Group("/v1/auth")
	g.POST("/login", a.Login, limit)
	g.POST("/refresh", a.Refresh)
	g.POST("/refresh-access", a.RefreshAccess)

	authed := middleware.RequireSession()
	g.POST("/logout", a.Logout, session, authed)
	g.GET("/session", a.Session, session, authed)

	e.GET("/v1/me", a.Me, session, authed)
	e.GET("/v1/me/menus", a.Menus, session, authed)

	// Anonymous callers get guard decisions too (login redirects).
	e.GET("/v1/navigation", a.Navigation, session)
}
