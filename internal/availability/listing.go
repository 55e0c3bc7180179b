package availability

import (
    "time"

    "github.com/iliyamo/event-ticket-storefront/internal/model"
)

// Assessment bundles everything the listing needs to render one event.
type Assessment struct {
    Event            model.Event    `json:"event"`
    TransactionCount int            `json:"transactionCount"`
    State            CapacityState  `json:"capacity"`
    Classification   Classification `json:"availability"`
    Warnings         []Warning      `json:"warnings"`
    Severity         Severity       `json:"severity,omitempty"`
    // Command is set when a block commit has to be issued for this event.
    Command *BlockCommand `json:"-"`
}

// Assess runs the capacity tracker, the classifier and the warning policy
// for one event.  Warnings are dropped for blocked events so that the
// blocked state always wins over advisory badges.
func Assess(ev model.Event, transactionCount int, now time.Time, p Policy) Assessment {
    st := Track(ev.Capacity, transactionCount, now, ev.EndPurchaseDate)
    c, cmd := Decide(ev, st)
    a := Assessment{
        Event:            ev,
        TransactionCount: transactionCount,
        State:            st,
        Classification:   c,
        Command:          cmd,
        Warnings:         []Warning{},
    }
    if a.Blocked() {
        return a
    }
    if ws := Warn(ev, st, now, p); len(ws) > 0 {
        a.Warnings = ws
        a.Severity = MaxSeverity(ws)
    }
    return a
}

// Blocked reports whether the event cannot be sold.  A status already
// recorded as blocked by the backend is never reverted here.
func (a Assessment) Blocked() bool {
    return a.Classification.Blocked || a.Event.IsBlocked()
}

// blockedSince returns the instant the retention window starts.  Until the
// backend records the block, the event counts as blocked right now.
func (a Assessment) blockedSince(now time.Time) time.Time {
    if a.Event.IsBlocked() && !a.Event.UpdatedAt.IsZero() {
        return a.Event.UpdatedAt
    }
    return now
}

// Partition splits assessments into the available and unavailable
// listings, preserving order.  Events blocked longer ago than the retention
// window appear in neither list.
func Partition(as []Assessment, now time.Time, p Policy) (available, unavailable []Assessment) {
    available = []Assessment{}
    unavailable = []Assessment{}
    for _, a := range as {
        if !a.Blocked() {
            available = append(available, a)
            continue
        }
        if now.After(a.blockedSince(now).Add(p.BlockedRetention)) {
            continue
        }
        unavailable = append(unavailable, a)
    }
    return available, unavailable
}

// Page is one page of a listing.
type Page struct {
    Items      []Assessment `json:"items"`
    Page       int          `json:"page"`
    PerPage    int          `json:"perPage"`
    Total      int          `json:"total"`
    TotalPages int          `json:"totalPages"`
    HasPrev    bool         `json:"hasPrev"`
    HasNext    bool         `json:"hasNext"`
}

// Paginate returns the 1-based page of items.  Pages past the end are
// empty rather than an error.
func Paginate(items []Assessment, page, perPage int) Page {
    if perPage < 1 {
        perPage = DefaultPolicy().PageSize
    }
    if page < 1 {
        page = 1
    }
    total := len(items)
    pages := (total + perPage - 1) / perPage
    // Compare before multiplying so a huge page number cannot overflow.
    start := total
    if page-1 < pages {
        start = (page - 1) * perPage
    }
    end := min(start+perPage, total)
    return Page{
        Items:      items[start:end],
        Page:       page,
        PerPage:    perPage,
        Total:      total,
        TotalPages: pages,
        HasPrev:    page > 1,
        HasNext:    page < pages,
    }
}
