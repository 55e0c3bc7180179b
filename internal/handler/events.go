package handler

import (
    "context"
    "net/http"
    "strconv"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/event-ticket-storefront/internal/availability"
    "github.com/iliyamo/event-ticket-storefront/internal/catalog"
)

// PublicKeySource returns an organizer's payment gateway public key.
type PublicKeySource interface {
    PublicKey(ctx context.Context, userID string) (string, error)
}

// EventHandler serves the public event listing and detail pages.
type EventHandler struct {
    Catalog *catalog.Refresher
    Keys    PublicKeySource
}

// eventView is one event as shown to buyers.
type eventView struct {
    availability.Assessment
    Message string `json:"message,omitempty"`
}

func viewOf(a availability.Assessment) eventView {
    v := eventView{Assessment: a}
    if a.Blocked() {
        v.Message = a.Classification.Message()
        if v.Message == "" {
            // Recorded as blocked by the backend with no local reason.
            v.Message = "Venta cerrada"
        }
    }
    return v
}

// List returns one page of the available or unavailable listing from the
// latest snapshot.  Before the first refresh the listing is empty.
func (h *EventHandler) List(c echo.Context) error {
    page, _ := strconv.Atoi(c.QueryParam("page"))
    view := c.QueryParam("view")
    snap := h.Catalog.Snapshot()
    p, err := snap.Listing(view, page, h.Catalog.Now(), h.Catalog.Policy())
    if err != nil {
        return writeError(c, err)
    }
    items := make([]eventView, 0, len(p.Items))
    for _, a := range p.Items {
        items = append(items, viewOf(a))
    }
    if view == "" {
        view = catalog.ViewAvailable
    }
    return c.JSON(http.StatusOK, echo.Map{
        "view":       view,
        "items":      items,
        "page":       p.Page,
        "perPage":    p.PerPage,
        "total":      p.Total,
        "totalPages": p.TotalPages,
        "hasPrev":    p.HasPrev,
        "hasNext":    p.HasNext,
    })
}

// Get returns one event assessed with fresh data.
func (h *EventHandler) Get(c echo.Context) error {
    a, err := h.Catalog.Lookup(c.Request().Context(), c.Param("id"))
    if err != nil {
        return writeError(c, err)
    }
    return c.JSON(http.StatusOK, viewOf(a))
}

// PaymentKey returns the gateway public key of the event's organizer, used
// by the client to render the payment widget.
func (h *EventHandler) PaymentKey(c echo.Context) error {
    ctx := c.Request().Context()
    a, err := h.Catalog.Lookup(ctx, c.Param("id"))
    if err != nil {
        return writeError(c, err)
    }
    if a.Event.CreatedBy == "" {
        return c.JSON(http.StatusNotFound, echo.Map{"error": "event has no organizer"})
    }
    key, err := h.Keys.PublicKey(ctx, a.Event.CreatedBy)
    if err != nil {
        return writeError(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"publicKey": key})
}
