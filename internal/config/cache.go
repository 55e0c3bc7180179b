package config

import "time"

// CacheConfig controls the Redis response cache in front of the public
// event routes.  The TTL stays short because the refresher may block an
// event at any moment.
type CacheConfig struct {
    Enabled      bool
    TTL          time.Duration
    Prefix       string
    MaxBodyBytes int
    // Query lists the query parameters that select a different response.
    // Any other parameter is ignored when building the key.
    Query []string
}

// LoadCacheConfig reads CACHE_* variables.
func LoadCacheConfig() CacheConfig {
    cfg := CacheConfig{
        Enabled:      envBool("CACHE_ENABLED", true),
        TTL:          envDur("CACHE_TTL", 5*time.Second),
        Prefix:       envStr("CACHE_PREFIX", "storefront:cache"),
        MaxBodyBytes: envInt("CACHE_MAX_BODY_BYTES", 256<<10),
        Query:        envList("CACHE_VARY_QUERY", "view,page"),
    }
    if cfg.TTL <= 0 {
        cfg.TTL = 5 * time.Second
    }
    return cfg
}
