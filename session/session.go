// Package session holds the client's authenticated identity: the
// token/username/role triple issued at login. Storage backends are
// pluggable; all of them guarantee that the triple is set and cleared as a
// unit, never partially.
package session

import "context"

// Canonical roles returned by the backend. Role values are not restricted
// to these; the backend owns the role vocabulary.
const (
	RoleAdmin = "ROLE_ADMIN"
	RoleUser  = "ROLE_USER"
)

// Session represents the current authenticated identity.
// A zero Token means unauthenticated; Role and Username are only
// meaningful when Token is non-empty.
type Session struct {
	Token    string `json:"token"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

// Authenticated reports whether a token is present
func (s Session) Authenticated() bool {
	return s.Token != ""
}

// IsAdmin reports whether the session carries the canonical admin role
func (s Session) IsAdmin() bool {
	return s.Role == RoleAdmin
}

// Store persists the session triple.
//
// Contract:
// - Get returns the zero Session, not an error, when nothing is stored
// - Set replaces all three fields in one step
// - Clear removes all three fields in one step and is idempotent
// - Unavailable storage degrades: writes become no-ops, reads return zero
//
// Invariants:
// - A caller can never observe a partially set or partially cleared triple
// - Concurrent Clear calls are safe; clearing twice is harmless
type Store interface {
	Get(ctx context.Context) (Session, error)
	Set(ctx context.Context, s Session) error
	Clear(ctx context.Context) error
}
