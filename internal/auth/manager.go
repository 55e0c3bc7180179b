package auth

import (
    "context"
    "errors"
    "fmt"
    "net/http"
    "strings"
    "time"

    "github.com/google/uuid"

    "github.com/iliyamo/event-ticket-storefront/internal/backend"
    "github.com/iliyamo/event-ticket-storefront/internal/utils"
)

var (
    // ErrInvalidCredentials is returned when the backend rejects a login.
    ErrInvalidCredentials = errors.New("auth: invalid credentials")
    // ErrMissingCredentials is returned when email or password is blank.
    ErrMissingCredentials = errors.New("auth: email and password are required")
)

// LoginBackend exchanges staff credentials for a backend token.
type LoginBackend interface {
    Login(ctx context.Context, email, password string) (string, error)
}

// Token is what a successful login returns to the client.
type Token struct {
    AccessToken string    `json:"access_token"`
    ExpiresAt   time.Time `json:"expires_at"`
    Context     Context   `json:"-"`
}

// Manager runs the staff session lifecycle.
type Manager struct {
    backend LoginBackend
    store   Store
    secret  string
    ttl     time.Duration
}

// NewManager returns a Manager that signs tokens with secret and keeps
// sessions for ttl.
func NewManager(b LoginBackend, store Store, secret string, ttl time.Duration) *Manager {
    if ttl <= 0 {
        ttl = 12 * time.Hour
    }
    return &Manager{backend: b, store: store, secret: secret, ttl: ttl}
}

// Login verifies the credentials against the backend, opens a session and
// returns a signed storefront token.
func (m *Manager) Login(ctx context.Context, email, password string) (Token, error) {
    email = strings.TrimSpace(email)
    if email == "" || password == "" {
        return Token{}, ErrMissingCredentials
    }
    backendToken, err := m.backend.Login(ctx, email, password)
    if err != nil {
        var apiErr *backend.APIError
        if errors.As(err, &apiErr) && (apiErr.StatusCode == http.StatusUnauthorized || apiErr.StatusCode == http.StatusBadRequest) {
            return Token{}, ErrInvalidCredentials
        }
        return Token{}, fmt.Errorf("backend login: %w", err)
    }

    sid := uuid.NewString()
    sess := Session{Subject: email, Role: RoleStaff, BackendToken: backendToken, CreatedAt: time.Now().UTC()}
    if err := m.store.Put(ctx, sid, sess, m.ttl); err != nil {
        return Token{}, fmt.Errorf("store session: %w", err)
    }
    at, err := utils.NewAccessToken(m.secret, utils.Claims{Subject: email, Role: RoleStaff, SessionID: sid}, m.ttl)
    if err != nil {
        _ = m.store.Delete(ctx, sid)
        return Token{}, fmt.Errorf("sign token: %w", err)
    }
    return Token{
        AccessToken: at.Token,
        ExpiresAt:   at.Exp,
        Context:     Context{Subject: email, Role: RoleStaff, SessionID: sid, BackendToken: backendToken},
    }, nil
}

// Authenticate turns a bearer token into a Context.  A token whose session
// was logged out is rejected even if it has not expired.
func (m *Manager) Authenticate(ctx context.Context, raw string) (Context, error) {
    claims, err := utils.ParseAccessToken(m.secret, raw)
    if err != nil {
        return Context{}, err
    }
    sess, err := m.store.Get(ctx, claims.SessionID)
    if err != nil {
        return Context{}, err
    }
    return Context{
        Subject:      claims.Subject,
        Role:         sess.Role,
        SessionID:    claims.SessionID,
        BackendToken: sess.BackendToken,
    }, nil
}

// Logout deletes the session of ac.  Logging out an anonymous context is
// a no-op.
func (m *Manager) Logout(ctx context.Context, ac Context) error {
    if ac.Anonymous() {
        return nil
    }
    return m.store.Delete(ctx, ac.SessionID)
}
