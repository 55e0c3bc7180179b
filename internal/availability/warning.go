package availability

import (
    "math"
    "time"

    "github.com/iliyamo/event-ticket-storefront/internal/model"
)

// WarningType groups warnings by what is running out.
type WarningType string

const (
    WarningCapacity WarningType = "cupos"
    WarningDeadline WarningType = "cierre"
)

// Severity of a warning.  The zero value means no warning.
type Severity string

const (
    SeverityNone   Severity = ""
    SeverityMild   Severity = "mild"
    SeveritySevere Severity = "severe"
)

func (s Severity) rank() int {
    switch s {
    case SeveritySevere:
        return 2
    case SeverityMild:
        return 1
    }
    return 0
}

// Warning is an advisory badge for a still-open event.
type Warning struct {
    Type     WarningType `json:"type"`
    Severity Severity    `json:"severity"`
    Message  string      `json:"message"`
}

// DaysRemaining rounds the time left to buy up to whole days.
func DaysRemaining(now, endPurchaseDate time.Time) int {
    days := math.Ceil(endPurchaseDate.Sub(now).Hours() / 24)
    return int(days)
}

// Warn derives the capacity and deadline warnings for an event.  Capacity
// thresholds are fractions of the event capacity so they scale with event
// size.  Warn does not look at blocking; callers drop warnings for blocked
// events.
func Warn(ev model.Event, st CapacityState, now time.Time, p Policy) []Warning {
    var out []Warning

    remaining := float64(st.RemainingSpots)
    capacity := float64(ev.Capacity)
    switch {
    case remaining <= capacity*p.CapacitySevereFraction:
        out = append(out, Warning{Type: WarningCapacity, Severity: SeveritySevere, Message: "¡Muy pocos cupos disponibles!"})
    case remaining <= capacity*p.CapacityMildFraction:
        out = append(out, Warning{Type: WarningCapacity, Severity: SeverityMild, Message: "¡Menos de la mitad de cupos disponibles!"})
    }

    days := DaysRemaining(now, ev.EndPurchaseDate)
    switch {
    case days <= p.DeadlineSevereDays:
        out = append(out, Warning{Type: WarningDeadline, Severity: SeveritySevere, Message: "¡Menos de 1 semana para el cierre!"})
    case days <= p.DeadlineMildDays:
        out = append(out, Warning{Type: WarningDeadline, Severity: SeverityMild, Message: "¡Menos de 3 semanas para el cierre!"})
    }
    return out
}

// MaxSeverity returns the highest severity among ws; severe dominates mild.
func MaxSeverity(ws []Warning) Severity {
    top := SeverityNone
    for _, w := range ws {
        if w.Severity.rank() > top.rank() {
            top = w.Severity
        }
    }
    return top
}
