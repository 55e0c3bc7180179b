package middleware

// identity.go stores and reads the explicit auth.Context of a request.
// Handlers never look at raw claims; they receive the context built by
// JWTAuth, or the anonymous zero value.

import (
    "github.com/labstack/echo/v4"

    "github.com/iliyamo/event-ticket-storefront/internal/auth"
)

const authContextKey = "auth"

// SetAuthContext attaches ac to the request.
func SetAuthContext(c echo.Context, ac auth.Context) { c.Set(authContextKey, ac) }

// AuthContext returns the caller's auth.Context.  Requests that did not
// pass through JWTAuth are anonymous.
func AuthContext(c echo.Context) auth.Context {
    if ac, ok := c.Get(authContextKey).(auth.Context); ok {
        return ac
    }
    return auth.Context{}
}

// subject names the caller in the request log: the staff subject, or
// "anon".
func subject(c echo.Context) string {
    if s := AuthContext(c).Subject; s != "" {
        return s
    }
    return "anon"
}
