// Package session is the authentication and role-authorization boundary.
// The Gate turns a session id into an Identity, which handlers receive
// explicitly instead of reading loose values off the request.
package session

import (
	"time"

	"github.com/careguardian/careguardian-api/internal/apperr"
	"github.com/careguardian/careguardian-api/internal/model"
)

// Identity is the authenticated context of one request.
type Identity struct {
	SessionID string     `json:"-"`
	UserID    uint64     `json:"id"`
	Username  string     `json:"username"`
	Role      model.Role `json:"role"`
	ExpiresAt time.Time  `json:"session_expires_at"`
}

// HasRole reports whether the identity holds one of roles.
func (id Identity) HasRole(roles ...model.Role) bool {
	for _, r := range roles {
		if id.Role == r {
			return true
		}
	}
	return false
}

// RequireRole returns apperr.ErrAuthorizationDenied unless id holds one of
// the allowed roles. An empty identity is unauthenticated, not forbidden.
func RequireRole(id Identity, allowed ...model.Role) error {
	if id.UserID == 0 {
		return apperr.ErrAuthenticationRequired
	}
	if !id.HasRole(allowed...) {
		return apperr.ErrAuthorizationDenied
	}
	return nil
}
