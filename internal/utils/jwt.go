package utils // package utils provides helper functions for staff token creation and parsing

import (
    "errors" // sentinel errors for malformed claims
    "time"   // time utilities for generating expirations

    "github.com/golang-jwt/jwt/v5" // JWT library for creating signed tokens
)

// ErrInvalidToken is returned when a token cannot be parsed, is signed with
// another algorithm or secret, has expired, or lacks a required claim.
var ErrInvalidToken = errors.New("invalid token")

// AccessToken represents a signed JWT access token along with its expiry.
// The Token field contains the JWT string.  Exp stores the expiration
// timestamp as a time.Time.
type AccessToken struct {
    Token string    // the serialized JWT string
    Exp   time.Time // the UTC expiration time
}

// Claims are the values a storefront staff token carries.
type Claims struct {
    Subject   string // sub: staff email or backend user id
    Role      string // role: STAFF
    SessionID string // sid: key of the server-side session holding the backend token
}

// NewAccessToken builds and signs an HS256 JWT for a staff session.  The
// JWT includes the standard claims subject (sub), expiration (exp) and
// issued at (iat) plus role and the session id (sid).
func NewAccessToken(secret string, c Claims, ttl time.Duration) (AccessToken, error) {
    now := time.Now().UTC()
    exp := now.Add(ttl)
    claims := jwt.MapClaims{
        "sub":  c.Subject,
        "role": c.Role,
        "sid":  c.SessionID,
        "exp":  exp.Unix(),
        "iat":  now.Unix(),
    }
    t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
    signed, err := t.SignedString([]byte(secret))
    if err != nil {
        return AccessToken{}, err
    }
    return AccessToken{Token: signed, Exp: exp}, nil
}

// ParseAccessToken validates raw with secret and returns its claims.  Only
// HMAC signing methods are accepted.
func ParseAccessToken(secret, raw string) (Claims, error) {
    tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
        if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
            return nil, ErrInvalidToken
        }
        return []byte(secret), nil
    })
    if err != nil || !tok.Valid {
        return Claims{}, ErrInvalidToken
    }
    mc, ok := tok.Claims.(jwt.MapClaims)
    if !ok {
        return Claims{}, ErrInvalidToken
    }
    sub, _ := mc["sub"].(string)
    role, _ := mc["role"].(string)
    sid, _ := mc["sid"].(string)
    if sub == "" || sid == "" {
        return Claims{}, ErrInvalidToken
    }
    return Claims{Subject: sub, Role: role, SessionID: sid}, nil
}
