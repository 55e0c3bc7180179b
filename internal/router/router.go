package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4" // import the Echo web framework to handle routing

	"github.com/iliyamo/event-ticket-storefront/internal/auth"
	"github.com/iliyamo/event-ticket-storefront/internal/catalog"
	"github.com/iliyamo/event-ticket-storefront/internal/handler"    // handlers that implement each endpoint
	"github.com/iliyamo/event-ticket-storefront/internal/middleware" // JWT authentication and role enforcement
)

// RegisterRoutes registers the probes: /healthz answers as soon as the
// process is up, /readyz once the catalog has a snapshot.
func RegisterRoutes(e *echo.Echo, r *catalog.Refresher) {
	e.GET("/healthz", handler.Health)
	e.GET("/readyz", handler.Ready(r))
}

// RegisterAuth registers staff login and the session-bound endpoints.
// Login needs no session; logout and /me require a valid token whose
// session still exists.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, authn middleware.Authenticator) {
	g := e.Group("/v1/auth")
	g.POST("/login", a.Login)

	protected := e.Group("/v1/auth", middleware.JWTAuth(authn), middleware.RequireRole(auth.RoleStaff))
	protected.POST("/logout", a.Logout)
	protected.GET("/me", a.Me)
}
