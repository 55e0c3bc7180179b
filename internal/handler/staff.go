package handler

import (
    "net/http"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/event-ticket-storefront/internal/middleware"
    "github.com/iliyamo/event-ticket-storefront/internal/staff"
)

// StaffHandler serves the organizer sales tools.
type StaffHandler struct {
    Service *staff.Service
}

// Sales lists an event's sales; ?q= filters by buyer name and
// ?highlight= moves one sale to the top.
func (h *StaffHandler) Sales(c echo.Context) error {
    v, err := h.Service.Sales(c.Request().Context(), middleware.AuthContext(c),
        c.Param("id"), c.QueryParam("q"), c.QueryParam("highlight"))
    if err != nil {
        return writeError(c, err)
    }
    return c.JSON(http.StatusOK, v)
}

// ManualSale records a transfer/cash sale.
func (h *StaffHandler) ManualSale(c echo.Context) error {
    var form staff.ManualSaleForm
    if err := c.Bind(&form); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
    }
    id, err := h.Service.RecordManualSale(c.Request().Context(), middleware.AuthContext(c), c.Param("id"), form)
    if err != nil {
        return writeError(c, err)
    }
    return c.JSON(http.StatusCreated, echo.Map{"transactionId": id})
}

// MenuSummary returns per-option counts for an event.
func (h *StaffHandler) MenuSummary(c echo.Context) error {
    sum, err := h.Service.MenuSummary(c.Request().Context(), middleware.AuthContext(c), c.Param("id"))
    if err != nil {
        return writeError(c, err)
    }
    return c.JSON(http.StatusOK, sum)
}

// Stats returns per-event totals.
func (h *StaffHandler) Stats(c echo.Context) error {
    st, err := h.Service.Stats(c.Request().Context(), middleware.AuthContext(c))
    if err != nil {
        return writeError(c, err)
    }
    return c.JSON(http.StatusOK, st)
}
