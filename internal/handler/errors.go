package handler

import (
    "context"
    "errors"
    "log"
    "net/http"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/event-ticket-storefront/internal/auth"
    "github.com/iliyamo/event-ticket-storefront/internal/backend"
    "github.com/iliyamo/event-ticket-storefront/internal/catalog"
    "github.com/iliyamo/event-ticket-storefront/internal/checkin"
    "github.com/iliyamo/event-ticket-storefront/internal/checkout"
    "github.com/iliyamo/event-ticket-storefront/internal/model"
    "github.com/iliyamo/event-ticket-storefront/internal/staff"
)

// statusFor maps the sentinel errors of the service packages to HTTP
// status codes.  Unknown errors from the backend degrade to 502 so a
// ledger outage never looks like a storefront bug.
func statusFor(err error) int {
    var apiErr *backend.APIError
    switch {
    case errors.Is(err, backend.ErrNotFound),
        errors.Is(err, checkout.ErrSessionNotFound),
        errors.Is(err, checkin.ErrTransactionNotFound):
        return http.StatusNotFound
    case errors.Is(err, checkin.ErrForbidden),
        errors.Is(err, staff.ErrForbidden):
        return http.StatusForbidden
    case errors.Is(err, auth.ErrInvalidCredentials):
        return http.StatusUnauthorized
    case errors.Is(err, auth.ErrMissingCredentials),
        errors.Is(err, catalog.ErrUnknownView):
        return http.StatusBadRequest
    case errors.Is(err, checkout.ErrInvalidForm),
        errors.Is(err, model.ErrMissingBuyerField),
        errors.Is(err, model.ErrMenuSelection):
        return http.StatusUnprocessableEntity
    case errors.Is(err, checkin.ErrRejected):
        return http.StatusConflict
    case errors.Is(err, context.DeadlineExceeded):
        return http.StatusGatewayTimeout
    case errors.As(err, &apiErr):
        return http.StatusBadGateway
    }
    return http.StatusInternalServerError
}

// writeError renders err as {"error": "..."}.  Server-side failures are
// logged and their details are not sent to the client.
func writeError(c echo.Context, err error) error {
    code := statusFor(err)
    msg := err.Error()
    switch code {
    case http.StatusInternalServerError:
        log.Printf("handler: %s %s: %v", c.Request().Method, c.Path(), err)
        msg = "internal error"
    case http.StatusBadGateway, http.StatusGatewayTimeout:
        log.Printf("handler: %s %s: backend: %v", c.Request().Method, c.Path(), err)
        msg = "backend unavailable"
    }
    return c.JSON(code, echo.Map{"error": msg})
}
