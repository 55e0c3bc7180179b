package checkout

import (
    "context"
    "log"
    "sync"

    "github.com/iliyamo/event-ticket-storefront/internal/backend"
    "github.com/iliyamo/event-ticket-storefront/internal/model"
)

// PreferenceCreator creates payment gateway preferences.
type PreferenceCreator interface {
    CreatePreference(ctx context.Context, req backend.PreferenceRequest) (string, error)
}

// State is the gateway-facing view of a checkout form.
type State struct {
    Valid            bool   `json:"valid"`
    Fingerprint      string `json:"fingerprint,omitempty"`
    PreferenceID     string `json:"preferenceId,omitempty"`
    Pending          bool   `json:"pending"`
    GatewayAvailable bool   `json:"gatewayAvailable"`
    // ManualAvailable is always true: a gateway failure never blocks the
    // transfer/cash channel.
    ManualAvailable bool   `json:"manualAvailable"`
    Error           string `json:"error,omitempty"`
}

// Reconciler turns a stream of form edits into at most one preference
// request per distinct fingerprint.  A response is applied only if its
// fingerprint is still the current one, so a slow response for an older
// form never replaces the preference of a newer form.
type Reconciler struct {
    creator PreferenceCreator
    fp      *Fingerprinter
    event   model.Event

    ctx    context.Context
    cancel context.CancelFunc
    wg     sync.WaitGroup

    mu           sync.Mutex
    closed       bool
    valid        bool
    current      string            // fingerprint of the latest valid form
    currentReq   backend.PreferenceRequest
    preferenceID string            // preference matching current, if any
    obtained     map[string]string // fingerprint → preference id
    inflight     map[string]bool
    failed       map[string]error
    requests     int
}

// NewReconciler returns a Reconciler for one checkout of ev.
func NewReconciler(ev model.Event, creator PreferenceCreator, fp *Fingerprinter) *Reconciler {
    ctx, cancel := context.WithCancel(context.Background())
    return &Reconciler{
        creator:  creator,
        fp:       fp,
        event:    ev,
        ctx:      ctx,
        cancel:   cancel,
        obtained: map[string]string{},
        inflight: map[string]bool{},
        failed:   map[string]error{},
    }
}

// Update feeds the latest form content and returns the resulting state.
// Remote work happens in the background; call Wait to block until it
// settles.
func (r *Reconciler) Update(form BuyerForm) State {
    r.mu.Lock()
    defer r.mu.Unlock()

    if r.closed {
        return r.stateLocked()
    }
    if !form.Valid(r.event) {
        r.valid = false
        r.current = ""
        r.preferenceID = ""
        return r.stateLocked()
    }

    req := form.preferenceRequest(r.event)
    fp := r.fp.Fingerprint(req)
    r.valid = true
    if fp != r.current {
        r.current = fp
        r.currentReq = req
        r.preferenceID = r.obtained[fp]
    }
    if r.preferenceID != "" || r.inflight[fp] || r.failed[fp] != nil {
        return r.stateLocked()
    }
    r.startLocked(fp, req)
    return r.stateLocked()
}

// Retry re-issues the request for the current form after a failure.
func (r *Reconciler) Retry() State {
    r.mu.Lock()
    defer r.mu.Unlock()
    if r.closed || r.current == "" || r.failed[r.current] == nil {
        return r.stateLocked()
    }
    delete(r.failed, r.current)
    r.startLocked(r.current, r.currentReq)
    return r.stateLocked()
}

func (r *Reconciler) startLocked(fp string, req backend.PreferenceRequest) {
    r.inflight[fp] = true
    r.requests++
    r.wg.Add(1)
    go r.request(fp, req)
}

func (r *Reconciler) request(fp string, req backend.PreferenceRequest) {
    defer r.wg.Done()
    id, err := r.creator.CreatePreference(r.ctx, req)

    r.mu.Lock()
    defer r.mu.Unlock()
    delete(r.inflight, fp)
    if r.closed {
        return
    }
    if err != nil {
        log.Printf("checkout: create preference for event %s failed: %v", r.event.ID, err)
        r.failed[fp] = err
        if fp == r.current {
            r.preferenceID = ""
        }
        return
    }
    r.obtained[fp] = id
    if fp == r.current {
        r.preferenceID = id
    }
}

// State returns the current state without touching the backend.
func (r *Reconciler) State() State {
    r.mu.Lock()
    defer r.mu.Unlock()
    return r.stateLocked()
}

func (r *Reconciler) stateLocked() State {
    st := State{
        Valid:            r.valid,
        Fingerprint:      r.current,
        PreferenceID:     r.preferenceID,
        Pending:          r.current != "" && r.inflight[r.current],
        GatewayAvailable: r.preferenceID != "",
        ManualAvailable:  true,
    }
    if err := r.failed[r.current]; err != nil && r.current != "" {
        st.Error = "no se pudo generar el pago, usá transferencia o efectivo"
    }
    return st
}

// Requests returns how many preference requests were issued.
func (r *Reconciler) Requests() int {
    r.mu.Lock()
    defer r.mu.Unlock()
    return r.requests
}

// Wait blocks until every in-flight request has completed.
func (r *Reconciler) Wait() { r.wg.Wait() }

// Close cancels in-flight requests.  Responses that arrive afterwards are
// discarded and later updates are ignored.
func (r *Reconciler) Close() {
    r.mu.Lock()
    if r.closed {
        r.mu.Unlock()
        return
    }
    r.closed = true
    r.current = ""
    r.preferenceID = ""
    r.mu.Unlock()
    r.cancel()
    r.wg.Wait()
}
