// Package checkin is the door-staff state machine of a ticket: a ticket is
// either unverified or verified, and staff move it between the two through
// the backend.  Repeating a transition is reported, not treated as an
// error.
package checkin

import (
    "context"
    "errors"
    "fmt"
    "log"
    "strings"
    "time"

    "github.com/iliyamo/event-ticket-storefront/internal/auth"
    "github.com/iliyamo/event-ticket-storefront/internal/backend"
    "github.com/iliyamo/event-ticket-storefront/internal/model"
    "github.com/iliyamo/event-ticket-storefront/internal/queue"
)

var (
    // ErrForbidden is returned when a non-staff context tries to mutate a
    // ticket.
    ErrForbidden = errors.New("checkin: staff session required")
    // ErrTransactionNotFound is returned for an empty or unknown
    // transaction id.  It is not retried.
    ErrTransactionNotFound = errors.New("checkin: transaction not found")
    // ErrRejected is returned when the backend answered success=false to a
    // transition.
    ErrRejected = errors.New("checkin: rejected by backend")
)

// State is the verification state of a ticket.
type State string

const (
    Unverified State = "unverified"
    Verified   State = "verified"
)

func stateOf(verified bool) State {
    if verified {
        return Verified
    }
    return Unverified
}

// Audit actions and outcomes.
const (
    ActionCheckIn  = "CHECKIN"
    ActionUnverify = "UNVERIFY"

    OutcomeChanged = "CHANGED"
    OutcomeNoop    = "NOOP"
    OutcomeFailed  = "FAILED"
)

// Backend is the part of the ledger the state machine drives.
type Backend interface {
    VerifyTransaction(ctx context.Context, transactionID string) (model.Verification, error)
    CheckInTransaction(ctx context.Context, transactionID, token string) (backend.Result, error)
    UnverifyTransaction(ctx context.Context, transactionID, token string) (backend.Result, error)
}

// AuditLog records every mutation attempt.
type AuditLog interface {
    Record(ctx context.Context, a model.CheckInAudit) error
}

// Publisher publishes storefront activity.
type Publisher interface {
    Publish(ctx context.Context, ev queue.ActivityEvent) error
}

// Ticket is what door staff and buyers see of a transaction.
type Ticket struct {
    TransactionID string `json:"transactionId"`
    Name          string `json:"name"`
    LastName      string `json:"lastName"`
    Menu          string `json:"menu,omitempty"`
    State         State  `json:"state"`
}

// Outcome reports the result of a transition.  Changed is false for a
// repeated transition, which is informational only.
type Outcome struct {
    Ticket  Ticket `json:"ticket"`
    Changed bool   `json:"changed"`
    Message string `json:"message"`
}

// Machine runs check-in transitions.  Audit and publisher are optional.
type Machine struct {
    backend   Backend
    audit     AuditLog
    publisher Publisher
    now       func() time.Time
}

// NewMachine returns a Machine.  audit and pub may be nil.
func NewMachine(b Backend, audit AuditLog, pub Publisher) *Machine {
    return &Machine{
        backend:   b,
        audit:     audit,
        publisher: pub,
        now:       func() time.Time { return time.Now().UTC() },
    }
}

// Load returns the current state of a ticket.  Anyone may call it.
func (m *Machine) Load(ctx context.Context, transactionID string) (Ticket, error) {
    transactionID = strings.TrimSpace(transactionID)
    if transactionID == "" {
        return Ticket{}, fmt.Errorf("%w: ID de transacción no proporcionado", ErrTransactionNotFound)
    }
    v, err := m.backend.VerifyTransaction(ctx, transactionID)
    if errors.Is(err, backend.ErrNotFound) {
        return Ticket{}, fmt.Errorf("%w: %s", ErrTransactionNotFound, transactionID)
    }
    if err != nil {
        return Ticket{}, fmt.Errorf("verify transaction %s: %w", transactionID, err)
    }
    if !v.Success {
        return Ticket{}, fmt.Errorf("%w: %s", ErrTransactionNotFound, transactionID)
    }
    return Ticket{
        TransactionID: transactionID,
        Name:          v.Name,
        LastName:      v.LastName,
        Menu:          v.Menu,
        State:         stateOf(v.Verified),
    }, nil
}

// CheckIn moves a ticket from unverified to verified.
func (m *Machine) CheckIn(ctx context.Context, ac auth.Context, transactionID string) (Outcome, error) {
    return m.transition(ctx, ac, transactionID, ActionCheckIn, Verified)
}

// Unverify moves a ticket from verified back to unverified.
func (m *Machine) Unverify(ctx context.Context, ac auth.Context, transactionID string) (Outcome, error) {
    return m.transition(ctx, ac, transactionID, ActionUnverify, Unverified)
}

func (m *Machine) transition(ctx context.Context, ac auth.Context, transactionID, action string, target State) (Outcome, error) {
    if !ac.IsStaff() {
        return Outcome{}, ErrForbidden
    }
    t, err := m.Load(ctx, transactionID)
    if err != nil {
        return Outcome{}, err
    }
    from := t.State

    if from == target {
        out := Outcome{Ticket: t, Message: noopMessage(target)}
        m.record(ctx, ac, action, t.TransactionID, from, from, OutcomeNoop, out.Message)
        return out, nil
    }

    call := m.backend.CheckInTransaction
    if target == Unverified {
        call = m.backend.UnverifyTransaction
    }
    res, err := call(ctx, t.TransactionID, ac.BackendToken)
    if err != nil {
        m.record(ctx, ac, action, t.TransactionID, from, from, OutcomeFailed, err.Error())
        return Outcome{Ticket: t}, fmt.Errorf("%s %s: %w", strings.ToLower(action), t.TransactionID, err)
    }
    if !res.Success {
        m.record(ctx, ac, action, t.TransactionID, from, from, OutcomeFailed, res.Message)
        return Outcome{Ticket: t, Message: res.Message}, fmt.Errorf("%w: %s", ErrRejected, res.Message)
    }

    t.State = target
    msg := res.Message
    if msg == "" {
        msg = changedMessage(target)
    }
    m.record(ctx, ac, action, t.TransactionID, from, target, OutcomeChanged, msg)
    m.publish(ctx, ac, action, t.TransactionID)
    return Outcome{Ticket: t, Changed: true, Message: msg}, nil
}

func noopMessage(s State) string {
    if s == Verified {
        return "El ticket ya estaba verificado"
    }
    return "El ticket ya estaba sin verificar"
}

func changedMessage(s State) string {
    if s == Verified {
        return "¡Compra Verificada!"
    }
    return "Verificación revertida"
}

func (m *Machine) record(ctx context.Context, ac auth.Context, action, id string, from, to State, outcome, msg string) {
    if m.audit == nil {
        return
    }
    err := m.audit.Record(ctx, model.CheckInAudit{
        TransactionID: id,
        Action:        action,
        Actor:         ac.Subject,
        FromVerified:  from == Verified,
        ToVerified:    to == Verified,
        Outcome:       outcome,
        Message:       msg,
        CreatedAt:     m.now(),
    })
    if err != nil {
        log.Printf("checkin: audit %s %s failed: %v", action, id, err)
    }
}

func (m *Machine) publish(ctx context.Context, ac auth.Context, action, id string) {
    if m.publisher == nil {
        return
    }
    typ := queue.TicketCheckIn
    if action == ActionUnverify {
        typ = queue.TicketUnverify
    }
    _ = m.publisher.Publish(ctx, queue.ActivityEvent{
        Type:          typ,
        TransactionID: id,
        Actor:         ac.Subject,
        OccurredAt:    m.now(),
    })
}
