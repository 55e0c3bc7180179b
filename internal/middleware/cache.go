package middleware

import (
    "bytes"
    "context"
    "encoding/json"
    "net/http"
    "net/url"
    "strings"

    "github.com/labstack/echo/v4"
    "github.com/redis/go-redis/v9"

    "github.com/iliyamo/event-ticket-storefront/internal/config"
)

// cachedResponse is what the cache stores per key.
type cachedResponse struct {
    Status      int    `json:"status"`
    ContentType string `json:"contentType"`
    Body        []byte `json:"body"`
}

// bodyRecorder tees the response body into buf until limit bytes have
// been written.  Past the limit the response is marked as overflowed and
// is not cached.
type bodyRecorder struct {
    http.ResponseWriter
    status   int
    buf      bytes.Buffer
    limit    int
    overflow bool
}

func (w *bodyRecorder) WriteHeader(code int) {
    w.status = code
    w.ResponseWriter.WriteHeader(code)
}

func (w *bodyRecorder) Write(b []byte) (int, error) {
    if !w.overflow {
        if w.limit > 0 && w.buf.Len()+len(b) > w.limit {
            w.overflow = true
            w.buf.Reset()
        } else {
            w.buf.Write(b)
        }
    }
    return w.ResponseWriter.Write(b)
}

// cacheKey identifies a public response.  It uses the request path, so
// /v1/events/a and /v1/events/b never share an entry, plus the configured
// query parameters in a fixed order.  The caller is never part of the key.
func cacheKey(cfg config.CacheConfig, c echo.Context) string {
    r := c.Request()
    q := r.URL.Query()
    vary := url.Values{}
    for _, name := range cfg.Query {
        if v := q.Get(name); v != "" {
            vary.Set(name, v)
        }
    }
    key := cfg.Prefix + ":" + r.URL.Path
    if enc := vary.Encode(); enc != "" {
        key += "?" + enc
    }
    return key
}

// NewRedisCache serves repeated GETs of the event routes from Redis.
// Requests with an Authorization header and responses marked
// Cache-Control: no-store always reach the handler.  Only 200 responses
// are stored.
func NewRedisCache(cfg config.CacheConfig, rdb *redis.Client) echo.MiddlewareFunc {
    if !cfg.Enabled || rdb == nil {
        return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
    }
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            r := c.Request()
            if r.Method != http.MethodGet || r.Header.Get(echo.HeaderAuthorization) != "" {
                return next(c)
            }
            key := cacheKey(cfg, c)

            if raw, err := rdb.Get(r.Context(), key).Bytes(); err == nil {
                var hit cachedResponse
                if json.Unmarshal(raw, &hit) == nil {
                    c.Response().Header().Set("X-Cache", "HIT")
                    return c.Blob(hit.Status, hit.ContentType, hit.Body)
                }
            }

            rec := &bodyRecorder{ResponseWriter: c.Response().Writer, status: http.StatusOK, limit: cfg.MaxBodyBytes}
            c.Response().Writer = rec
            c.Response().Header().Set("X-Cache", "MISS")
            if err := next(c); err != nil {
                return err
            }

            h := c.Response().Header()
            if rec.status != http.StatusOK || rec.overflow || strings.Contains(h.Get("Cache-Control"), "no-store") {
                return nil
            }
            entry, err := json.Marshal(cachedResponse{
                Status:      rec.status,
                ContentType: h.Get(echo.HeaderContentType),
                Body:        rec.buf.Bytes(),
            })
            if err == nil {
                _ = rdb.Set(context.WithoutCancel(r.Context()), key, entry, cfg.TTL).Err()
            }
            return nil
        }
    }
}
