package config

import "time"

// RateLimitConfig controls the token bucket on checkout routes that can
// reach the payment gateway.  A bucket holds Burst tokens and gains one
// every RefillEvery.
type RateLimitConfig struct {
    Enabled     bool
    Burst       int
    RefillEvery time.Duration
    TTL         time.Duration
    Prefix      string
}

// LoadRateLimitConfig reads RATE_LIMIT_* variables.  The bucket TTL is at
// least the time a drained bucket needs to refill.
func LoadRateLimitConfig() RateLimitConfig {
    cfg := RateLimitConfig{
        Enabled:     envBool("RATE_LIMIT_ENABLED", true),
        Burst:       envInt("RATE_LIMIT_BURST", 10),
        RefillEvery: envDur("RATE_LIMIT_REFILL_EVERY", time.Second),
        TTL:         envDur("RATE_LIMIT_TTL", 10*time.Minute),
        Prefix:      envStr("RATE_LIMIT_PREFIX", "storefront:rl"),
    }
    if cfg.Burst < 1 {
        cfg.Burst = 1
    }
    if cfg.RefillEvery <= 0 {
        cfg.RefillEvery = time.Second
    }
    if full := time.Duration(cfg.Burst) * cfg.RefillEvery; cfg.TTL < full {
        cfg.TTL = full
    }
    return cfg
}
