// Package credstore defines durable persistence for the current session's
// credentials. The store is the only shared mutable resource in the
// client: the auth core is its sole writer, every other component reads
// and reacts through change notifications.
package credstore

import "github.com/jrsteele09/go-bookshelf-client/session"

// Store persists a serialized session so identity survives a reload of
// the front end. Implementations must make Save atomic from the caller's
// perspective: a reader never observes a partial write.
type Store interface {
	// Save overwrites the stored session.
	Save(s *session.Session) error

	// Load returns the stored session, or (nil, nil) when the store is
	// empty or its contents cannot be parsed. Unparseable data is never
	// an error to the caller.
	Load() (*session.Session, error)

	// Clear removes all session data. Clearing an empty store is a no-op.
	Clear() error

	// Watch registers fn to run whenever another handle of the same
	// logical store mutates it. The returned function cancels the
	// subscription. Multiple independent subscribers are supported.
	Watch(fn func()) (cancel func())
}
