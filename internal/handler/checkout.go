package handler

import (
    "net/http"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/event-ticket-storefront/internal/catalog"
    "github.com/iliyamo/event-ticket-storefront/internal/checkout"
)

// CheckoutHandler drives buyer checkout sessions.
type CheckoutHandler struct {
    Catalog  *catalog.Refresher
    Sessions *checkout.Sessions
    Phone    string
    Location *time.Location
}

type createSessionReq struct {
    EventID string `json:"eventId"`
}

type sessionResp struct {
    ID           string         `json:"id"`
    EventID      string         `json:"eventId"`
    State        checkout.State `json:"state"`
    ManualNotice string         `json:"manualNotice"`
}

func sessionView(s *checkout.Session) sessionResp {
    return sessionResp{
        ID:           s.ID,
        EventID:      s.Event.ID,
        State:        s.State(),
        ManualNotice: checkout.ManualNotice,
    }
}

// Create opens a checkout session for an event that is still on sale.
func (h *CheckoutHandler) Create(c echo.Context) error {
    var req createSessionReq
    if err := c.Bind(&req); err != nil || req.EventID == "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "eventId required"})
    }
    a, err := h.Catalog.Lookup(c.Request().Context(), req.EventID)
    if err != nil {
        return writeError(c, err)
    }
    if a.Blocked() {
        return c.JSON(http.StatusConflict, echo.Map{"error": a.Classification.Message(), "reason": a.Classification.Reason})
    }
    s := h.Sessions.Create(a.Event)
    c.Response().Header().Set("Cache-Control", "no-store")
    return c.JSON(http.StatusCreated, sessionView(s))
}

// Get returns the gateway state of a session.
func (h *CheckoutHandler) Get(c echo.Context) error {
    s, err := h.Sessions.Get(c.Param("id"))
    if err != nil {
        return writeError(c, err)
    }
    c.Response().Header().Set("Cache-Control", "no-store")
    return c.JSON(http.StatusOK, sessionView(s))
}

// Update submits the current form content.  The response reflects the
// state right after the update; a new preference may still be pending.
func (h *CheckoutHandler) Update(c echo.Context) error {
    s, err := h.Sessions.Get(c.Param("id"))
    if err != nil {
        return writeError(c, err)
    }
    var form checkout.BuyerForm
    if err := c.Bind(&form); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
    }
    s.Update(form)
    return c.JSON(http.StatusOK, sessionView(s))
}

// Retry re-issues a failed preference request.
func (h *CheckoutHandler) Retry(c echo.Context) error {
    s, err := h.Sessions.Get(c.Param("id"))
    if err != nil {
        return writeError(c, err)
    }
    s.Retry()
    return c.JSON(http.StatusOK, sessionView(s))
}

// Delete closes a session; late gateway responses are discarded.
func (h *CheckoutHandler) Delete(c echo.Context) error {
    if err := h.Sessions.Delete(c.Param("id")); err != nil {
        return writeError(c, err)
    }
    return c.NoContent(http.StatusNoContent)
}

// ManualLink returns the messaging link for paying by transfer or cash.
// Nothing is recorded and no capacity is consumed.
func (h *CheckoutHandler) ManualLink(c echo.Context) error {
    s, err := h.Sessions.Get(c.Param("id"))
    if err != nil {
        return writeError(c, err)
    }
    link, err := checkout.ManualLink(h.Phone, s.Event, s.Form(), h.Location)
    if err != nil {
        return writeError(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{
        "url":     link,
        "message": checkout.ManualMessage(s.Event, s.Form(), h.Location),
        "notice":  checkout.ManualNotice,
    })
}
