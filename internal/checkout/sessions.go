package checkout

import (
    "context"
    "errors"
    "log"
    "sync"
    "time"

    "github.com/google/uuid"

    "github.com/iliyamo/event-ticket-storefront/internal/model"
)

// ErrSessionNotFound is returned for unknown or expired checkout sessions.
var ErrSessionNotFound = errors.New("checkout: session not found")

// Session is one buyer's checkout of one event.  It lives only as long as
// the buyer keeps the form open; nothing here is persisted.
type Session struct {
    ID         string
    Event      model.Event
    reconciler *Reconciler

    mu       sync.Mutex
    form     BuyerForm
    lastSeen time.Time
}

// Update stores the latest form and reconciles the gateway preference.
func (s *Session) Update(form BuyerForm) State {
    s.mu.Lock()
    s.form = form
    s.mu.Unlock()
    return s.reconciler.Update(form)
}

// Form returns the last form received.
func (s *Session) Form() BuyerForm {
    s.mu.Lock()
    defer s.mu.Unlock()
    return s.form
}

// State returns the reconciler state.
func (s *Session) State() State { return s.reconciler.State() }

// Retry re-issues a failed preference request for the current form.
func (s *Session) Retry() State { return s.reconciler.Retry() }

// Reconciler exposes the session's reconciler.
func (s *Session) Reconciler() *Reconciler { return s.reconciler }

func (s *Session) touch(now time.Time) {
    s.mu.Lock()
    s.lastSeen = now
    s.mu.Unlock()
}

func (s *Session) idleSince() time.Time {
    s.mu.Lock()
    defer s.mu.Unlock()
    return s.lastSeen
}

// Sessions keeps the open checkout sessions of this process.
type Sessions struct {
    creator PreferenceCreator
    fp      *Fingerprinter
    ttl     time.Duration
    now     func() time.Time

    mu    sync.Mutex
    items map[string]*Session
}

// NewSessions returns an empty registry.  Sessions idle for longer than
// ttl are closed by Sweep.
func NewSessions(creator PreferenceCreator, fp *Fingerprinter, ttl time.Duration) *Sessions {
    if ttl <= 0 {
        ttl = 30 * time.Minute
    }
    return &Sessions{
        creator: creator,
        fp:      fp,
        ttl:     ttl,
        now:     func() time.Time { return time.Now().UTC() },
        items:   map[string]*Session{},
    }
}

// Create opens a session for ev.
func (s *Sessions) Create(ev model.Event) *Session {
    sess := &Session{
        ID:         uuid.NewString(),
        Event:      ev,
        reconciler: NewReconciler(ev, s.creator, s.fp),
        lastSeen:   s.now(),
    }
    s.mu.Lock()
    s.items[sess.ID] = sess
    s.mu.Unlock()
    return sess
}

// Get returns a session and marks it as active.
func (s *Sessions) Get(id string) (*Session, error) {
    s.mu.Lock()
    sess, ok := s.items[id]
    s.mu.Unlock()
    if !ok {
        return nil, ErrSessionNotFound
    }
    sess.touch(s.now())
    return sess, nil
}

// Delete closes a session.  Preference responses still in flight are
// discarded.
func (s *Sessions) Delete(id string) error {
    s.mu.Lock()
    sess, ok := s.items[id]
    delete(s.items, id)
    s.mu.Unlock()
    if !ok {
        return ErrSessionNotFound
    }
    sess.reconciler.Close()
    return nil
}

// Len returns the number of open sessions.
func (s *Sessions) Len() int {
    s.mu.Lock()
    defer s.mu.Unlock()
    return len(s.items)
}

// Sweep closes sessions idle for longer than the ttl and returns how many
// were closed.
func (s *Sessions) Sweep() int {
    cutoff := s.now().Add(-s.ttl)
    var expired []*Session
    s.mu.Lock()
    for id, sess := range s.items {
        if sess.idleSince().Before(cutoff) {
            expired = append(expired, sess)
            delete(s.items, id)
        }
    }
    s.mu.Unlock()
    for _, sess := range expired {
        sess.reconciler.Close()
    }
    return len(expired)
}

// Run sweeps idle sessions every interval until ctx is cancelled, then
// closes every remaining session.
func (s *Sessions) Run(ctx context.Context, interval time.Duration) {
    if interval <= 0 {
        interval = time.Minute
    }
    t := time.NewTicker(interval)
    defer t.Stop()
    for {
        select {
        case <-ctx.Done():
            s.closeAll()
            return
        case <-t.C:
            if n := s.Sweep(); n > 0 {
                log.Printf("checkout: closed %d idle sessions", n)
            }
        }
    }
}

func (s *Sessions) closeAll() {
    s.mu.Lock()
    all := s.items
    s.items = map[string]*Session{}
    s.mu.Unlock()
    for _, sess := range all {
        sess.reconciler.Close()
    }
}
