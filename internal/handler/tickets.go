package handler

import (
    "context"
    "net/http"
    "strconv"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/event-ticket-storefront/internal/backend"
    "github.com/iliyamo/event-ticket-storefront/internal/checkin"
    "github.com/iliyamo/event-ticket-storefront/internal/middleware"
    "github.com/iliyamo/event-ticket-storefront/internal/model"
)

// ReceiptSource streams receipts from the backend.
type ReceiptSource interface {
    DownloadReceipt(ctx context.Context, transactionID string) (backend.Receipt, error)
}

// AuditLister lists the check-in history of a ticket.
type AuditLister interface {
    ListByTransaction(ctx context.Context, transactionID string, limit int) ([]model.CheckInAudit, error)
}

// TicketHandler serves verification, door check-in and receipts.
type TicketHandler struct {
    Machine  *checkin.Machine
    Receipts ReceiptSource
    Audit    AuditLister // nil when no audit database is configured
}

// Verification shows a ticket's state to anyone holding its id.
func (h *TicketHandler) Verification(c echo.Context) error {
    t, err := h.Machine.Load(c.Request().Context(), c.Param("id"))
    if err != nil {
        return writeError(c, err)
    }
    c.Response().Header().Set("Cache-Control", "no-store")
    return c.JSON(http.StatusOK, t)
}

// CheckIn marks a ticket as used.  Repeating it answers 200 with
// changed=false.
func (h *TicketHandler) CheckIn(c echo.Context) error {
    out, err := h.Machine.CheckIn(c.Request().Context(), middleware.AuthContext(c), c.Param("id"))
    if err != nil {
        return writeError(c, err)
    }
    return c.JSON(http.StatusOK, out)
}

// Unverify reverts a check-in.
func (h *TicketHandler) Unverify(c echo.Context) error {
    out, err := h.Machine.Unverify(c.Request().Context(), middleware.AuthContext(c), c.Param("id"))
    if err != nil {
        return writeError(c, err)
    }
    return c.JSON(http.StatusOK, out)
}

// Receipt streams the receipt document from the backend.
func (h *TicketHandler) Receipt(c echo.Context) error {
    r, err := h.Receipts.DownloadReceipt(c.Request().Context(), c.Param("id"))
    if err != nil {
        return writeError(c, err)
    }
    defer r.Body.Close()
    c.Response().Header().Set("Content-Disposition", `attachment; filename="recibo-`+c.Param("id")+`.pdf"`)
    if r.ContentLength > 0 {
        c.Response().Header().Set("Content-Length", strconv.FormatInt(r.ContentLength, 10))
    }
    return c.Stream(http.StatusOK, r.ContentType, r.Body)
}

// AuditLog lists the recorded check-in attempts of a ticket (staff only).
func (h *TicketHandler) AuditLog(c echo.Context) error {
    if h.Audit == nil {
        return c.JSON(http.StatusNotFound, echo.Map{"error": "audit log disabled"})
    }
    limit, _ := strconv.Atoi(c.QueryParam("limit"))
    rows, err := h.Audit.ListByTransaction(c.Request().Context(), c.Param("id"), limit)
    if err != nil {
        return writeError(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"items": rows})
}
