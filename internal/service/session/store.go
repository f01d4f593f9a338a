// Package session owns the only shared mutable state in the service: the map
// of live conversations. Turns for the same session are serialized through
// Mutate; turns for different sessions never contend on the same lock.
package session

import (
	"context"
	"errors"
	"time"

	"github.com/finpilot/loanflow/backend/internal/model/conversation"
)

var ErrSessionNotFound = errors.New("session not found")

// NewSessionFunc builds the initial state for a session id the store has not
// seen before. The store calls it under the session lock.
type NewSessionFunc func(sessionID string) *conversation.Session

// Store abstracts session persistence so the in-memory map can later be
// swapped for a bounded or durable backend.
type Store interface {
	// Get returns a deep copy of the session, or ErrSessionNotFound.
	Get(ctx context.Context, sessionID string) (*conversation.Session, error)
	// Mutate runs fn against a copy of the session (created via newFn when
	// absent) while holding the per-session lock. The copy is committed only
	// when fn returns nil, so a failed turn leaves the stored session
	// untouched.
	Mutate(ctx context.Context, sessionID string, newFn NewSessionFunc, fn func(*conversation.Session) error) (*conversation.Session, error)
	// Delete removes the session; deleting an absent session is a no-op.
	Delete(ctx context.Context, sessionID string) error
}

// Clock is injectable for tests; stores stamp UpdatedAt at commit time.
type Clock func() time.Time
