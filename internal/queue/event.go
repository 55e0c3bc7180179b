// Package queue defines message payloads exchanged over the message broker.
package queue

import "time"

// ActivityQueue is the durable queue every storefront activity is
// published to.
const ActivityQueue = "storefront.activity"

// ActivityType names what happened.
type ActivityType string

const (
    // EventBlocked is published after a block commit succeeded.
    EventBlocked ActivityType = "event.blocked"
    // TicketCheckIn and TicketUnverify record door check-in attempts.
    TicketCheckIn  ActivityType = "ticket.checkin"
    TicketUnverify ActivityType = "ticket.unverify"
    // SaleManual is published when staff records a transfer/cash sale.
    SaleManual ActivityType = "sale.manual"
)

// ActivityEvent is one storefront activity.  It carries enough context for
// the activity log consumer without querying the backend again.
type ActivityEvent struct {
    Type          ActivityType `json:"type"`
    EventID       string       `json:"event_id,omitempty"`
    TransactionID string       `json:"transaction_id,omitempty"`
    Actor         string       `json:"actor,omitempty"`
    Detail        string       `json:"detail,omitempty"`
    OccurredAt    time.Time    `json:"occurred_at"`
}
