package middleware // declare the middleware package; contains reusable HTTP middleware functions

import (
    "context"
    "net/http" // HTTP status codes for responses
    "strings"  // string utilities for prefix checking and trimming

    "github.com/labstack/echo/v4" // Echo framework used for defining middleware and handlers

    "github.com/iliyamo/event-ticket-storefront/internal/auth"
)

// Authenticator turns a bearer token into an auth.Context.
type Authenticator interface {
    Authenticate(ctx context.Context, raw string) (auth.Context, error)
}

// JWTAuth returns an Echo middleware that validates a Bearer access token,
// resolves its server-side session and stores the resulting auth.Context
// on the request.  Handlers read it with AuthContext(c).  A token whose
// session was logged out is rejected.
func JWTAuth(a Authenticator) echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            // A valid header starts with "Bearer " followed by the JWT.
            h := c.Request().Header.Get("Authorization")
            if !strings.HasPrefix(h, "Bearer ") {
                return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing bearer token"})
            }
            raw := strings.TrimPrefix(h, "Bearer ")

            ac, err := a.Authenticate(c.Request().Context(), raw)
            if err != nil {
                return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid or expired session"})
            }
            SetAuthContext(c, ac)
            return next(c)
        }
    }
}
