// Package auth holds the explicit authorization context of a request and
// the staff session lifecycle: login creates a session, logout tears it
// down, and nothing is kept in ambient global state.
package auth

// RoleStaff is the role of organizer and door staff sessions.
const RoleStaff = "STAFF"

// Context identifies who is calling.  The zero value is an anonymous
// buyer.
type Context struct {
    Subject      string
    Role         string
    SessionID    string
    BackendToken string
}

// IsStaff reports whether the context carries a staff session with a
// backend token to act with.
func (c Context) IsStaff() bool {
    return c.Role == RoleStaff && c.BackendToken != ""
}

// Anonymous reports whether no one is logged in.
func (c Context) Anonymous() bool { return c.SessionID == "" }
