package availability

import (
    "testing"
    "time"

    "github.com/iliyamo/event-ticket-storefront/internal/model"
)

var testNow = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func testEvent(id string, capacity int, endIn time.Duration) model.Event {
    return model.Event{
        ID:              id,
        Name:            "Event " + id,
        Capacity:        capacity,
        StartDate:       testNow.Add(endIn + 24*time.Hour),
        EndPurchaseDate: testNow.Add(endIn),
        Price:           100,
        Status:          model.StatusAvailable,
        UpdatedAt:       testNow.Add(-30 * 24 * time.Hour),
    }
}

func TestTrack_RemainingAndSoldOut(t *testing.T) {
    t.Parallel()

    for capacity := 1; capacity <= 40; capacity++ {
        for n := 0; n <= capacity+5; n++ {
            st := Track(capacity, n, testNow, testNow.Add(time.Hour))
            if st.RemainingSpots != capacity-n {
                t.Fatalf("C=%d n=%d: expected remaining %d, got %d", capacity, n, capacity-n, st.RemainingSpots)
            }
            if st.SoldOut != (n >= capacity) {
                t.Fatalf("C=%d n=%d: expected soldOut=%v", capacity, n, n >= capacity)
            }
        }
    }
}

func TestTrack_OversoldIsNotClamped(t *testing.T) {
    t.Parallel()

    st := Track(10, 13, testNow, testNow.Add(time.Hour))
    if st.RemainingSpots != -3 {
        t.Fatalf("expected -3 remaining, got %d", st.RemainingSpots)
    }
}

func TestTrack_DateExpired(t *testing.T) {
    t.Parallel()

    if Track(10, 0, testNow, testNow).DateExpired {
        t.Fatalf("deadline equal to now must not be expired")
    }
    if !Track(10, 0, testNow, testNow.Add(-time.Second)).DateExpired {
        t.Fatalf("deadline in the past must be expired")
    }
}

func TestClassify(t *testing.T) {
    t.Parallel()

    tests := []struct {
        name   string
        state  CapacityState
        expect Classification
    }{
        {"open", CapacityState{RemainingSpots: 3}, Classification{}},
        {"sold out", CapacityState{SoldOut: true}, Classification{Blocked: true, Reason: ReasonSoldOut}},
        {"deadline", CapacityState{DateExpired: true, RemainingSpots: 5}, Classification{Blocked: true, Reason: ReasonDeadline}},
        {"sold out wins over deadline", CapacityState{SoldOut: true, DateExpired: true}, Classification{Blocked: true, Reason: ReasonSoldOut}},
    }
    for _, tt := range tests {
        t.Run(tt.name, func(t *testing.T) {
            if got := Classify(tt.state); got != tt.expect {
                t.Fatalf("expected %+v, got %+v", tt.expect, got)
            }
        })
    }
}

func TestDecide_CommandOnlyForAvailableEvents(t *testing.T) {
    t.Parallel()

    ev := testEvent("e1", 50, 10*24*time.Hour)
    st := Track(50, 50, testNow, ev.EndPurchaseDate)

    c, cmd := Decide(ev, st)
    if !c.Blocked || cmd == nil {
        t.Fatalf("expected block command, got %+v %v", c, cmd)
    }
    if cmd.EventID != "e1" || cmd.Reason != ReasonSoldOut {
        t.Fatalf("unexpected command %+v", cmd)
    }

    ev.Status = model.StatusBlocked
    if _, cmd := Decide(ev, st); cmd != nil {
        t.Fatalf("expected no command for an event already blocked, got %+v", cmd)
    }

    open := Track(50, 10, testNow, ev.EndPurchaseDate)
    if _, cmd := Decide(testEvent("e2", 50, 10*24*time.Hour), open); cmd != nil {
        t.Fatalf("expected no command for an open event")
    }
}

func TestWarn_CapacitySeverityProperty(t *testing.T) {
    t.Parallel()

    p := DefaultPolicy()
    for capacity := 1; capacity <= 60; capacity++ {
        ev := testEvent("e", capacity, 90*24*time.Hour)
        for n := 0; n <= capacity; n++ {
            st := Track(capacity, n, testNow, ev.EndPurchaseDate)
            r := float64(st.RemainingSpots)
            c := float64(capacity)

            var want Severity
            switch {
            case r <= c/4:
                want = SeveritySevere
            case r <= c/2:
                want = SeverityMild
            }

            got := SeverityNone
            for _, w := range Warn(ev, st, testNow, p) {
                if w.Type == WarningCapacity {
                    got = w.Severity
                }
            }
            if got != want {
                t.Fatalf("C=%d r=%d: expected %q, got %q", capacity, st.RemainingSpots, want, got)
            }
        }
    }
}

func TestWarn_DeadlineSeverityProperty(t *testing.T) {
    t.Parallel()

    p := DefaultPolicy()
    for d := 0; d <= 40; d++ {
        ev := testEvent("e", 1000, time.Duration(d)*24*time.Hour)
        st := Track(1000, 0, testNow, ev.EndPurchaseDate)

        var want Severity
        switch {
        case d <= 7:
            want = SeveritySevere
        case d <= 21:
            want = SeverityMild
        }

        got := SeverityNone
        for _, w := range Warn(ev, st, testNow, p) {
            if w.Type == WarningDeadline {
                got = w.Severity
            }
        }
        if got != want {
            t.Fatalf("d=%d: expected %q, got %q", d, want, got)
        }
    }
}

func TestDaysRemaining_RoundsUp(t *testing.T) {
    t.Parallel()

    if got := DaysRemaining(testNow, testNow.Add(7*24*time.Hour+time.Minute)); got != 8 {
        t.Fatalf("expected 8 days, got %d", got)
    }
    if got := DaysRemaining(testNow, testNow.Add(7*24*time.Hour)); got != 7 {
        t.Fatalf("expected 7 days, got %d", got)
    }
}

func TestWarn_BothFamiliesAndMaxSeverity(t *testing.T) {
    t.Parallel()

    ev := testEvent("e", 100, 15*24*time.Hour)
    st := Track(100, 90, testNow, ev.EndPurchaseDate)

    ws := Warn(ev, st, testNow, DefaultPolicy())
    if len(ws) != 2 {
        t.Fatalf("expected 2 warnings, got %d", len(ws))
    }
    if ws[0].Type != WarningCapacity || ws[1].Type != WarningDeadline {
        t.Fatalf("expected capacity warning before deadline warning, got %+v", ws)
    }
    if MaxSeverity(ws) != SeveritySevere {
        t.Fatalf("expected severe to dominate, got %q", MaxSeverity(ws))
    }
    if MaxSeverity(nil) != SeverityNone {
        t.Fatalf("expected no severity for no warnings")
    }
}

func TestAssess_Scenarios(t *testing.T) {
    t.Parallel()

    p := DefaultPolicy()

    t.Run("A: 80 of 100 sold is a severe capacity warning", func(t *testing.T) {
        a := Assess(testEvent("a", 100, 60*24*time.Hour), 80, testNow, p)
        if a.Blocked() {
            t.Fatalf("expected event open")
        }
        if a.State.RemainingSpots != 20 {
            t.Fatalf("expected 20 remaining, got %d", a.State.RemainingSpots)
        }
        if len(a.Warnings) != 1 || a.Warnings[0].Type != WarningCapacity || a.Warnings[0].Severity != SeveritySevere {
            t.Fatalf("expected one severe capacity warning, got %+v", a.Warnings)
        }
        if a.Command != nil {
            t.Fatalf("expected no block command")
        }
    })

    t.Run("B: 50 of 50 sold is blocked as sold out", func(t *testing.T) {
        a := Assess(testEvent("b", 50, 60*24*time.Hour), 50, testNow, p)
        if !a.Blocked() || a.Classification.Reason != ReasonSoldOut {
            t.Fatalf("expected sold_out block, got %+v", a.Classification)
        }
        if a.Command == nil || a.Command.EventID != "b" {
            t.Fatalf("expected block command for b, got %+v", a.Command)
        }
        if len(a.Warnings) != 0 || a.Severity != SeverityNone {
            t.Fatalf("expected warnings suppressed for blocked event, got %+v", a.Warnings)
        }
    })

    t.Run("C: deadline passed is blocked by deadline", func(t *testing.T) {
        a := Assess(testEvent("c", 50, -24*time.Hour), 10, testNow, p)
        if !a.Blocked() || a.Classification.Reason != ReasonDeadline {
            t.Fatalf("expected deadline block, got %+v", a.Classification)
        }
    })

    t.Run("recorded block is never reverted", func(t *testing.T) {
        ev := testEvent("r", 50, 60*24*time.Hour)
        ev.Status = model.StatusBlocked
        a := Assess(ev, 0, testNow, p)
        if !a.Blocked() {
            t.Fatalf("expected event recorded as blocked to stay blocked")
        }
        if a.Command != nil {
            t.Fatalf("expected no command for recorded block")
        }
    })
}

func TestPartition_RetentionWindow(t *testing.T) {
    t.Parallel()

    p := DefaultPolicy()

    open := Assess(testEvent("open", 100, 60*24*time.Hour), 10, testNow, p)

    recent := testEvent("recent", 10, -2*24*time.Hour)
    recent.Status = model.StatusBlocked
    recent.UpdatedAt = testNow.Add(-2 * 24 * time.Hour)

    old := testEvent("old", 10, -10*24*time.Hour)
    old.Status = model.StatusBlocked
    old.UpdatedAt = testNow.Add(-8 * 24 * time.Hour)

    // Sold out now but the backend has not recorded the block yet; its
    // updatedAt belongs to an older edit.
    fresh := testEvent("fresh", 10, 60*24*time.Hour)

    as := []Assessment{
        open,
        Assess(recent, 3, testNow, p),
        Assess(old, 3, testNow, p),
        Assess(fresh, 10, testNow, p),
    }
    available, unavailable := Partition(as, testNow, p)

    if len(available) != 1 || available[0].Event.ID != "open" {
        t.Fatalf("expected only open event available, got %d", len(available))
    }
    ids := map[string]bool{}
    for _, a := range unavailable {
        ids[a.Event.ID] = true
    }
    if !ids["recent"] || !ids["fresh"] {
        t.Fatalf("expected recent and fresh in unavailable listing, got %v", ids)
    }
    if ids["old"] {
        t.Fatalf("expected event blocked 8 days ago to be dropped from both listings")
    }
}

func TestPaginate(t *testing.T) {
    t.Parallel()

    items := make([]Assessment, 7)
    for i := range items {
        items[i] = Assessment{Event: model.Event{ID: string(rune('a' + i))}}
    }

    first := Paginate(items, 1, 3)
    if len(first.Items) != 3 || first.HasPrev || !first.HasNext || first.TotalPages != 3 {
        t.Fatalf("unexpected first page %+v", first)
    }
    last := Paginate(items, 3, 3)
    if len(last.Items) != 1 || !last.HasPrev || last.HasNext {
        t.Fatalf("unexpected last page %+v", last)
    }
    past := Paginate(items, 9, 3)
    if len(past.Items) != 0 {
        t.Fatalf("expected empty page past the end, got %d items", len(past.Items))
    }
    huge := Paginate(items, 4611686018427387905, 3)
    if len(huge.Items) != 0 || huge.HasNext || !huge.HasPrev {
        t.Fatalf("unexpected page far past the end %+v", huge)
    }
    if got := Paginate(nil, 2, 3); len(got.Items) != 0 || got.TotalPages != 0 {
        t.Fatalf("unexpected page of empty listing %+v", got)
    }
    if got := Paginate(items, 0, 0); got.Page != 1 || got.PerPage != 3 {
        t.Fatalf("expected defaults, got page=%d perPage=%d", got.Page, got.PerPage)
    }
}

func TestPolicyNormalize(t *testing.T) {
    t.Parallel()

    p := Policy{CapacitySevereFraction: 0.3, CapacityMildFraction: 0.1, DeadlineSevereDays: 10, DeadlineMildDays: 5}.Normalize()
    if p.CapacityMildFraction != 0.3 {
        t.Fatalf("expected mild fraction raised to severe, got %v", p.CapacityMildFraction)
    }
    if p.DeadlineMildDays != 10 {
        t.Fatalf("expected mild days raised to severe, got %d", p.DeadlineMildDays)
    }
    if p.RefreshInterval != 30*time.Second || p.BlockedRetention != 7*24*time.Hour || p.PageSize != 3 {
        t.Fatalf("expected defaults filled in, got %+v", p)
    }
}
