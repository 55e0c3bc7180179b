package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/event-ticket-storefront/internal/auth"
	"github.com/iliyamo/event-ticket-storefront/internal/handler"
	"github.com/iliyamo/event-ticket-storefront/internal/middleware"
)

// RegisterStaff registers the endpoints that mutate tickets or expose
// sales.  Every route requires a valid JWT with the STAFF role; the
// services check the auth context again.
func RegisterStaff(e *echo.Echo, t *handler.TicketHandler, s *handler.StaffHandler, authn middleware.Authenticator) {
	g := e.Group("/v1", middleware.JWTAuth(authn), middleware.RequireRole(auth.RoleStaff))

	g.POST("/tickets/:id/checkin", t.CheckIn)
	g.POST("/tickets/:id/unverify", t.Unverify)
	g.GET("/tickets/:id/audit", t.AuditLog)

	g.GET("/staff/events/:id/sales", s.Sales)
	g.POST("/staff/events/:id/manual-sales", s.ManualSale)
	g.GET("/staff/events/:id/menu-summary", s.MenuSummary)
	g.GET("/staff/stats", s.Stats)
}
