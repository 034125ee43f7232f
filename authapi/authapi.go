// Package authapi binds the remote auth endpoints of the book-catalog
// backend. The bearer token is authoritative: every authenticated call
// carries an Authorization header and no cookie state is kept.
package authapi

import (
	"context"

	"github.com/jrsteele09/go-bookshelf-client/session"
)

// Service is the remote auth endpoint as seen by the auth core. The
// HTTP implementation is Client; tests use apifakes.FakeService.
type Service interface {
	// Login exchanges credentials for a session (token + user profile).
	Login(ctx context.Context, email, password string) (*session.Session, error)

	// Logout notifies the server that the token should be invalidated.
	// Callers treat failures as best-effort; the local session is
	// cleared regardless.
	Logout(ctx context.Context, token string) error

	// ValidateSession asks whether the token is still accepted and
	// returns the current profile if so.
	ValidateSession(ctx context.Context, token string) (*session.User, error)

	// Role returns the role the server currently associates with the
	// token.
	Role(ctx context.Context, token string) (session.Role, error)
}
