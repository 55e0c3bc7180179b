package handler

import (
    "net/http" // HTTP status codes and primitives
    "strings"  // string manipulation utilities
    "time"     // token expiry formatting

    "github.com/labstack/echo/v4" // Echo framework for HTTP routing

    "github.com/iliyamo/event-ticket-storefront/internal/auth"
    "github.com/iliyamo/event-ticket-storefront/internal/middleware"
)

// AuthHandler bundles dependencies for staff login and logout.
type AuthHandler struct {
    Manager *auth.Manager
}

func NewAuthHandler(m *auth.Manager) *AuthHandler { return &AuthHandler{Manager: m} }

// ----- DTOs -----

type loginReq struct {
    Email    string `json:"email"`
    Password string `json:"password"`
}

type loginResp struct {
    AccessToken string `json:"access_token"`
    ExpiresAt   string `json:"expires_at"`
    Subject     string `json:"subject"`
    Role        string `json:"role"`
}

// Login exchanges staff credentials for a storefront token.
func (h *AuthHandler) Login(c echo.Context) error {
    var req loginReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
    }
    req.Email = strings.ToLower(strings.TrimSpace(req.Email))
    tok, err := h.Manager.Login(c.Request().Context(), req.Email, req.Password)
    if err != nil {
        return writeError(c, err)
    }
    c.Response().Header().Set("Cache-Control", "no-store")
    return c.JSON(http.StatusOK, loginResp{
        AccessToken: tok.AccessToken,
        ExpiresAt:   tok.ExpiresAt.Format(time.RFC3339),
        Subject:     tok.Context.Subject,
        Role:        tok.Context.Role,
    })
}

// Logout tears down the caller's session.  The token stops working
// immediately even though it has not expired.
func (h *AuthHandler) Logout(c echo.Context) error {
    if err := h.Manager.Logout(c.Request().Context(), middleware.AuthContext(c)); err != nil {
        return writeError(c, err)
    }
    return c.NoContent(http.StatusNoContent)
}

// Me returns the caller's auth context without the backend token.
func (h *AuthHandler) Me(c echo.Context) error {
    ac := middleware.AuthContext(c)
    return c.JSON(http.StatusOK, echo.Map{"subject": ac.Subject, "role": ac.Role})
}
