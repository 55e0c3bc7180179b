package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/event-ticket-storefront/internal/handler"
)

// Public bundles the handlers served without authentication.
type Public struct {
	Events   *handler.EventHandler
	Checkout *handler.CheckoutHandler
	Tickets  *handler.TicketHandler
}

// RegisterPublic registers the buyer-facing endpoints.  cache wraps the
// event listing and detail routes; limit wraps session creation and the
// checkout routes that may reach the payment gateway.
func RegisterPublic(e *echo.Echo, p Public, cache, limit echo.MiddlewareFunc) {
	ev := e.Group("/v1/events", cache)
	ev.GET("", p.Events.List)
	ev.GET("/:id", p.Events.Get)
	ev.GET("/:id/payment-key", p.Events.PaymentKey)

	co := e.Group("/v1/checkout/sessions")
	co.POST("", p.Checkout.Create, limit)
	co.GET("/:id", p.Checkout.Get)
	co.PUT("/:id", p.Checkout.Update, limit)
	co.POST("/:id/retry", p.Checkout.Retry, limit)
	co.DELETE("/:id", p.Checkout.Delete)
	co.GET("/:id/manual-link", p.Checkout.ManualLink, limit)

	// Anyone holding a ticket id may see its state and receipt.
	e.GET("/v1/tickets/:id/verification", p.Tickets.Verification)
	e.GET("/v1/tickets/:id/receipt", p.Tickets.Receipt)
}
