// Package catalog keeps the event listing fresh: a scheduled refresher
// assesses every event against its transaction count and hands the block
// commands it produces to a BlockCommitter.
package catalog

import (
    "context"
    "errors"
    "fmt"
    "log"
    "sync"
    "sync/atomic"
    "time"

    "github.com/iliyamo/event-ticket-storefront/internal/availability"
    "github.com/iliyamo/event-ticket-storefront/internal/model"
)

// ErrUnknownView is returned for a listing view other than available or
// unavailable.
var ErrUnknownView = errors.New("catalog: unknown view")

// Listing views.
const (
    ViewAvailable   = "available"
    ViewUnavailable = "unavailable"
)

// Source is the part of the backend the refresher reads.
type Source interface {
    ListEvents(ctx context.Context) ([]model.Event, error)
    GetEvent(ctx context.Context, id string) (model.Event, error)
    TransactionCount(ctx context.Context, eventID string) (int, error)
}

// Dispatcher executes block commands without blocking the caller.
type Dispatcher interface {
    Dispatch(ctx context.Context, cmd availability.BlockCommand)
}

// Snapshot is an immutable set of assessments taken at one instant.
type Snapshot struct {
    Assessments []availability.Assessment
    TakenAt     time.Time
}

// Find returns the assessment of one event.
func (s *Snapshot) Find(id string) (availability.Assessment, bool) {
    if s == nil {
        return availability.Assessment{}, false
    }
    for _, a := range s.Assessments {
        if a.Event.ID == id {
            return a, true
        }
    }
    return availability.Assessment{}, false
}

// Listing returns one page of the available or unavailable view at now.
func (s *Snapshot) Listing(view string, page int, now time.Time, p availability.Policy) (availability.Page, error) {
    var all []availability.Assessment
    if s != nil {
        all = s.Assessments
    }
    available, unavailable := availability.Partition(all, now, p)
    switch view {
    case "", ViewAvailable:
        return availability.Paginate(available, page, p.PageSize), nil
    case ViewUnavailable:
        return availability.Paginate(unavailable, page, p.PageSize), nil
    default:
        return availability.Page{}, fmt.Errorf("%w: %q", ErrUnknownView, view)
    }
}

// Refresher periodically rebuilds the catalog snapshot.
type Refresher struct {
    src         Source
    dispatcher  Dispatcher
    policy      availability.Policy
    now         func() time.Time
    concurrency int

    snap atomic.Pointer[Snapshot]
}

// NewRefresher returns a Refresher with an empty snapshot.
func NewRefresher(src Source, d Dispatcher, p availability.Policy) *Refresher {
    return &Refresher{
        src:         src,
        dispatcher:  d,
        policy:      p.Normalize(),
        now:         func() time.Time { return time.Now().UTC() },
        concurrency: 8,
    }
}

// Policy returns the thresholds in use.
func (r *Refresher) Policy() availability.Policy { return r.policy }

// Now returns the refresher's clock reading.
func (r *Refresher) Now() time.Time { return r.now() }

// Snapshot returns the latest snapshot, or nil before the first refresh
// succeeded.
func (r *Refresher) Snapshot() *Snapshot { return r.snap.Load() }

// Refresh lists every event, fetches the transaction counts with bounded
// concurrency and swaps in the new snapshot.  When the event list cannot be
// fetched the previous snapshot stays in place and the error is returned.
// An event whose count fails keeps the count of the previous snapshot, or
// is left out when it has none.
func (r *Refresher) Refresh(ctx context.Context) (*Snapshot, error) {
    events, err := r.src.ListEvents(ctx)
    if err != nil {
        log.Printf("catalog: list events failed, keeping previous snapshot: %v", err)
        return r.snap.Load(), fmt.Errorf("list events: %w", err)
    }

    now := r.now()
    results := make([]*availability.Assessment, len(events))
    sem := make(chan struct{}, r.concurrency)
    var wg sync.WaitGroup
    for i := range events {
        wg.Add(1)
        sem <- struct{}{}
        go func(i int) {
            defer wg.Done()
            defer func() { <-sem }()
            ev := events[i]
            count, err := r.src.TransactionCount(ctx, ev.ID)
            if err != nil {
                prev, ok := r.snap.Load().Find(ev.ID)
                if !ok {
                    log.Printf("catalog: transaction count for event %s failed: %v", ev.ID, err)
                    return
                }
                log.Printf("catalog: transaction count for event %s failed, reusing last count %d: %v", ev.ID, prev.TransactionCount, err)
                count = prev.TransactionCount
            }
            a := availability.Assess(ev, count, now, r.policy)
            results[i] = &a
        }(i)
    }
    wg.Wait()

    snap := &Snapshot{TakenAt: now, Assessments: make([]availability.Assessment, 0, len(events))}
    for _, a := range results {
        if a == nil {
            continue
        }
        snap.Assessments = append(snap.Assessments, *a)
        r.dispatch(ctx, a.Command)
    }
    r.snap.Store(snap)
    return snap, nil
}

// Lookup assesses a single event with fresh data from the backend.  It is
// used by the event detail page, which also needs the menu moments.
func (r *Refresher) Lookup(ctx context.Context, id string) (availability.Assessment, error) {
    ev, err := r.src.GetEvent(ctx, id)
    if err != nil {
        return availability.Assessment{}, fmt.Errorf("get event %s: %w", id, err)
    }
    count, err := r.src.TransactionCount(ctx, id)
    if err != nil {
        return availability.Assessment{}, fmt.Errorf("transaction count %s: %w", id, err)
    }
    a := availability.Assess(ev, count, r.now(), r.policy)
    r.dispatch(ctx, a.Command)
    return a, nil
}

func (r *Refresher) dispatch(ctx context.Context, cmd *availability.BlockCommand) {
    if cmd == nil || r.dispatcher == nil {
        return
    }
    r.dispatcher.Dispatch(ctx, *cmd)
}

// Run refreshes immediately and then on every policy interval until ctx is
// cancelled.
func (r *Refresher) Run(ctx context.Context) {
    t := time.NewTicker(r.policy.RefreshInterval)
    defer t.Stop()
    for {
        _, _ = r.Refresh(ctx)
        select {
        case <-ctx.Done():
            return
        case <-t.C:
        }
    }
}
