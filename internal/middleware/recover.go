package middleware

import (
    "fmt"
    "log"
    "net/http"
    "runtime/debug"
    "time"

    "github.com/labstack/echo/v4"
)

// Recover turns a panic in a handler into a 500 response so one broken
// request never takes the server down.
func Recover() echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) (err error) {
            defer func() {
                if r := recover(); r != nil {
                    log.Printf("http: panic serving %s %s: %v\n%s", c.Request().Method, c.Request().URL.Path, r, debug.Stack())
                    if !c.Response().Committed {
                        err = c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
                    } else {
                        err = fmt.Errorf("panic: %v", r)
                    }
                }
            }()
            return next(c)
        }
    }
}

// RequestLog writes one line per request: method, route, status, latency
// and caller.
func RequestLog() echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            start := time.Now()
            err := next(c)
            if err != nil {
                c.Error(err)
            }
            log.Printf("http: %s %s -> %d (%s) ip=%s user=%s",
                c.Request().Method, c.Path(), c.Response().Status,
                time.Since(start).Round(time.Microsecond), c.RealIP(), subject(c))
            return nil
        }
    }
}
