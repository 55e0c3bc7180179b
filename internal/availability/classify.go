package availability

import "github.com/iliyamo/event-ticket-storefront/internal/model"

// Reason explains why an event is blocked.
type Reason string

const (
    ReasonNone     Reason = ""
    ReasonSoldOut  Reason = "sold_out"
    ReasonDeadline Reason = "deadline"
)

// Classification is the open/blocked verdict for an event.
type Classification struct {
    Blocked bool   `json:"blocked"`
    Reason  Reason `json:"reason,omitempty"`
}

// Message is the buyer-facing label shown instead of the purchase button.
func (c Classification) Message() string {
    switch c.Reason {
    case ReasonSoldOut:
        return "Evento lleno"
    case ReasonDeadline:
        return "Plazo de compra finalizado"
    }
    return ""
}

// BlockCommand asks the caller to commit the blocked status of EventID on
// the backend.  The backend treats repeated commits as no-ops.
type BlockCommand struct {
    EventID string `json:"eventId"`
    Reason  Reason `json:"reason"`
}

// Classify blocks sold-out events first and expired ones second.
func Classify(st CapacityState) Classification {
    switch {
    case st.SoldOut:
        return Classification{Blocked: true, Reason: ReasonSoldOut}
    case st.DateExpired:
        return Classification{Blocked: true, Reason: ReasonDeadline}
    }
    return Classification{}
}

// Decide classifies ev and, when the backend still lists it as available,
// returns the block commit the caller must issue.
func Decide(ev model.Event, st CapacityState) (Classification, *BlockCommand) {
    c := Classify(st)
    if !c.Blocked || ev.IsBlocked() {
        return c, nil
    }
    return c, &BlockCommand{EventID: ev.ID, Reason: c.Reason}
}
