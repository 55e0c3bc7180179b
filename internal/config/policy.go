package config

import (
    "fmt"
    "os"

    "gopkg.in/yaml.v3"

    "github.com/iliyamo/event-ticket-storefront/internal/availability"
)

// LoadPolicy builds the availability thresholds.  Defaults come first,
// then POLICY_* environment variables, then the YAML file at path when
// path is not empty.  The result is normalized.
//
// Example file:
//
//   capacity_severe_fraction: 0.25
//   capacity_mild_fraction: 0.5
//   deadline_severe_days: 7
//   deadline_mild_days: 21
//   blocked_retention: 168h
//   refresh_interval: 30s
//   page_size: 3
func LoadPolicy(path string) (availability.Policy, error) {
    p := availability.DefaultPolicy()
    p.CapacitySevereFraction = envFloat("POLICY_CAPACITY_SEVERE_FRACTION", p.CapacitySevereFraction)
    p.CapacityMildFraction = envFloat("POLICY_CAPACITY_MILD_FRACTION", p.CapacityMildFraction)
    p.DeadlineSevereDays = envInt("POLICY_DEADLINE_SEVERE_DAYS", p.DeadlineSevereDays)
    p.DeadlineMildDays = envInt("POLICY_DEADLINE_MILD_DAYS", p.DeadlineMildDays)
    p.BlockedRetention = envDur("POLICY_BLOCKED_RETENTION", p.BlockedRetention)
    p.RefreshInterval = envDur("POLICY_REFRESH_INTERVAL", p.RefreshInterval)
    p.PageSize = envInt("POLICY_PAGE_SIZE", p.PageSize)

    if path != "" {
        b, err := os.ReadFile(path)
        if err != nil {
            return availability.Policy{}, fmt.Errorf("read policy file: %w", err)
        }
        // Keys missing from the file keep the values above.
        if err := yaml.Unmarshal(b, &p); err != nil {
            return availability.Policy{}, fmt.Errorf("parse policy file %s: %w", path, err)
        }
    }
    return p.Normalize(), nil
}
