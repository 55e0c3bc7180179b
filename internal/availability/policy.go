// Package availability decides whether an event can still sell tickets,
// how urgently a buyer should be warned, and which events belong in the
// available and unavailable listings.  Everything in this package is a pure
// function of its inputs; remote effects are returned as commands.
package availability

import "time"

// Policy carries the tunable thresholds.  They were adjusted repeatedly in
// production, so they are configuration rather than constants.
type Policy struct {
    // CapacitySevereFraction: remaining <= capacity*fraction is severe.
    CapacitySevereFraction float64 `yaml:"capacity_severe_fraction"`
    // CapacityMildFraction: remaining <= capacity*fraction is mild.
    CapacityMildFraction float64 `yaml:"capacity_mild_fraction"`
    DeadlineSevereDays   int     `yaml:"deadline_severe_days"`
    DeadlineMildDays     int     `yaml:"deadline_mild_days"`
    // BlockedRetention is how long a blocked event stays in the
    // unavailable listing, measured from Event.UpdatedAt.
    BlockedRetention time.Duration `yaml:"blocked_retention"`
    RefreshInterval  time.Duration `yaml:"refresh_interval"`
    PageSize         int           `yaml:"page_size"`
}

// DefaultPolicy returns the thresholds used by the storefront today.
func DefaultPolicy() Policy {
    return Policy{
        CapacitySevereFraction: 0.25,
        CapacityMildFraction:   0.5,
        DeadlineSevereDays:     7,
        DeadlineMildDays:       21,
        BlockedRetention:       7 * 24 * time.Hour,
        RefreshInterval:        30 * time.Second,
        PageSize:               3,
    }
}

// Normalize replaces unusable values with defaults and keeps the mild
// thresholds at least as wide as the severe ones.
func (p Policy) Normalize() Policy {
    def := DefaultPolicy()
    if p.CapacitySevereFraction <= 0 {
        p.CapacitySevereFraction = def.CapacitySevereFraction
    }
    if p.CapacityMildFraction < p.CapacitySevereFraction {
        p.CapacityMildFraction = p.CapacitySevereFraction
    }
    if p.DeadlineSevereDays < 0 {
        p.DeadlineSevereDays = def.DeadlineSevereDays
    }
    if p.DeadlineMildDays < p.DeadlineSevereDays {
        p.DeadlineMildDays = p.DeadlineSevereDays
    }
    if p.BlockedRetention <= 0 {
        p.BlockedRetention = def.BlockedRetention
    }
    if p.RefreshInterval <= 0 {
        p.RefreshInterval = def.RefreshInterval
    }
    if p.PageSize < 1 {
        p.PageSize = def.PageSize
    }
    return p
}
