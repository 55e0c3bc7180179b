package backend

import (
    "context"
    "net/http"

    "github.com/iliyamo/event-ticket-storefront/internal/model"
)

// ListEvents returns every event (GET /api/events).
func (c *Client) ListEvents(ctx context.Context) ([]model.Event, error) {
    var events []model.Event
    if err := c.do(ctx, http.MethodGet, "/api/events", "", nil, &events); err != nil {
        return nil, err
    }
    return events, nil
}

// GetEvent returns one event including its menu moments.
func (c *Client) GetEvent(ctx context.Context, id string) (model.Event, error) {
    var ev model.Event
    err := c.do(ctx, http.MethodGet, "/api/events/"+seg(id), "", nil, &ev)
    return ev, err
}

// TransactionCount returns the number of sales recorded for an event
// through both channels.
func (c *Client) TransactionCount(ctx context.Context, eventID string) (int, error) {
    var out struct {
        TransactionCount int `json:"transactionCount"`
    }
    if err := c.do(ctx, http.MethodGet, "/api/events/"+seg(eventID)+"/transaction-count", "", nil, &out); err != nil {
        return 0, err
    }
    return out.TransactionCount, nil
}

// BlockEvent commits the blocked status of an event.  The backend treats
// a commit on an already blocked event as a no-op.
func (c *Client) BlockEvent(ctx context.Context, eventID string) error {
    body := map[string]string{"status": string(model.StatusBlocked)}
    return c.do(ctx, http.MethodPut, "/api/events/"+seg(eventID)+"/block", "", body, nil)
}

// PublicKey returns the payment gateway public key of an organizer.
func (c *Client) PublicKey(ctx context.Context, userID string) (string, error) {
    var out struct {
        PublicKey string `json:"publicKey"`
    }
    if err := c.do(ctx, http.MethodGet, "/api/auth/"+seg(userID)+"/public_key", "", nil, &out); err != nil {
        return "", err
    }
    return out.PublicKey, nil
}

// Stats returns per-event sales totals (staff only).
func (c *Client) Stats(ctx context.Context, token string) ([]model.EventStat, error) {
    var out []model.EventStat
    if err := c.do(ctx, http.MethodGet, "/api/transactions/stats", token, nil, &out); err != nil {
        return nil, err
    }
    return out, nil
}
