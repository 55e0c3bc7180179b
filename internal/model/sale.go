package model

import (
    "errors"
    "fmt"
    "strings"
    "time"
)

// Channel identifies how a sale was recorded.  Once persisted both channels
// are structurally identical and count the same toward capacity.
type Channel string

const (
    ChannelGateway Channel = "gateway"
    ChannelManual  Channel = "manual"
)

// Label is the staff-facing name of the channel.
func (c Channel) Label() string {
    if c == ChannelManual {
        return "Transferencia/Efectivo"
    }
    return "Mercado Pago"
}

var (
    // ErrMissingBuyerField is returned when a required buyer field is blank.
    ErrMissingBuyerField = errors.New("missing buyer field")
    // ErrMenuSelection is returned when selected menus do not match the
    // event's menu moments.
    ErrMenuSelection = errors.New("invalid menu selection")
)

// Buyer holds the contact details entered at checkout.
type Buyer struct {
    Name     string `json:"name"`
    LastName string `json:"lastName"`
    Email    string `json:"email"`
    Tel      string `json:"tel"`
}

// FullName returns "name lastName".
func (b Buyer) FullName() string { return strings.TrimSpace(b.Name + " " + b.LastName) }

// Validate checks that every buyer field is present.
func (b Buyer) Validate() error {
    fields := [...]struct{ name, value string }{
        {"name", b.Name}, {"lastName", b.LastName}, {"email", b.Email}, {"tel", b.Tel},
    }
    for _, f := range fields {
        if strings.TrimSpace(f.value) == "" {
            return fmt.Errorf("%w: %s", ErrMissingBuyerField, f.name)
        }
    }
    return nil
}

// Sale (transaction) is one confirmed or manually recorded purchase.
//
// Fields:
//  ID              – backend identifier (_id).
//  EventID         – event the ticket belongs to.
//  Buyer           – contact details, flattened on the wire.
//  SelectedMenus   – menu moment key → chosen option.
//  Channel         – gateway or manual (metadataType on the wire).
//  Verified        – whether the ticket has been checked in at the door.
//  TransactionDate – when the sale was recorded.
type Sale struct {
    ID      string `json:"_id,omitempty"`
    EventID string `json:"eventId"`
    Buyer
    SelectedMenus   map[string]string `json:"selectedMenus"`
    Channel         Channel           `json:"metadataType"`
    Verified        bool              `json:"verified"`
    TransactionDate time.Time         `json:"transactionDate"`
}

// ValidateMenus enforces that a sale for an event with menus carries exactly
// one valid option per MenuMoment and nothing else.  Events without menus
// accept an empty selection only.
func ValidateMenus(ev Event, selected map[string]string) error {
    if !ev.RequiresMenus() {
        if len(selected) > 0 {
            return fmt.Errorf("%w: event has no menus", ErrMenuSelection)
        }
        return nil
    }
    if len(selected) != len(ev.MenuMoments) {
        return fmt.Errorf("%w: want %d choices, got %d", ErrMenuSelection, len(ev.MenuMoments), len(selected))
    }
    for _, m := range ev.MenuMoments {
        opt, ok := selected[m.Key()]
        if !ok || opt == "" {
            return fmt.Errorf("%w: no choice for %s", ErrMenuSelection, m.Key())
        }
        if !m.HasOption(opt) {
            return fmt.Errorf("%w: %q is not offered at %s", ErrMenuSelection, opt, m.Key())
        }
    }
    return nil
}

// EventSales is the payload of GET /api/events/:eventId/sales.
type EventSales struct {
    EventName string `json:"eventName"`
    Sales     []Sale `json:"sales"`
}

// EventStat is one row of GET /api/transactions/stats.  ID carries the
// event name as grouped by the backend.
type EventStat struct {
    ID               string  `json:"_id"`
    TransactionCount int     `json:"transactionCount"`
    TotalIncome      float64 `json:"totalIncome"`
}
