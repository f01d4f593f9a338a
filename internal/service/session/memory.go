package session

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/finpilot/loanflow/backend/internal/model/conversation"
)

// MemoryStore keeps sessions in a process-wide map. Each session carries its
// own mutex so concurrent turns on different sessions proceed in parallel
// while turns on the same session serialize.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]*entry
	now     Clock
	log     *zap.Logger
}

type entry struct {
	mu       sync.Mutex
	sess     *conversation.Session
	lastSeen time.Time
}

// NewMemoryStore bootstraps the in-memory store suitable for a single
// process deployment.
func NewMemoryStore(now Clock, log *zap.Logger) *MemoryStore {
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &MemoryStore{
		entries: make(map[string]*entry),
		now:     now,
		log:     log,
	}
}

// Get retrieves a deep copy of a session by identifier.
func (s *MemoryStore) Get(_ context.Context, sessionID string) (*conversation.Session, error) {
	s.mu.RLock()
	e, ok := s.entries[sessionID]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrSessionNotFound
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	return e.sess.Clone(), nil
}

// Mutate applies fn to a working copy under the per-session lock and commits
// the copy only on success.
func (s *MemoryStore) Mutate(_ context.Context, sessionID string, newFn NewSessionFunc, fn func(*conversation.Session) error) (*conversation.Session, error) {
	e := s.entryFor(sessionID, newFn)
	if e == nil {
		return nil, ErrSessionNotFound
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	working := e.sess.Clone()
	if err := fn(working); err != nil {
		return nil, err
	}

	working.UpdatedAt = s.now()
	e.sess = working
	e.lastSeen = working.UpdatedAt
	return working.Clone(), nil
}

// Delete removes a session from the map.
func (s *MemoryStore) Delete(_ context.Context, sessionID string) error {
	s.mu.Lock()
	delete(s.entries, sessionID)
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) entryFor(sessionID string, newFn NewSessionFunc) *entry {
	s.mu.RLock()
	e, ok := s.entries[sessionID]
	s.mu.RUnlock()
	if ok {
		return e
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok = s.entries[sessionID]; ok {
		return e
	}
	if newFn == nil {
		return nil
	}
	sess := newFn(sessionID)
	e = &entry{sess: sess, lastSeen: s.now()}
	s.entries[sessionID] = e
	return e
}

// StartSweeper evicts sessions idle longer than ttl. The demo deployment
// leaves this off; the hook exists so a bounded deployment can turn it on
// without touching callers.
func (s *MemoryStore) StartSweeper(ctx context.Context, ttl, interval time.Duration) {
	if ttl <= 0 || interval <= 0 {
		return
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.sweep(ttl)
			}
		}
	}()
}

func (s *MemoryStore) sweep(ttl time.Duration) {
	cutoff := s.now().Add(-ttl)
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, e := range s.entries {
		if e.lastSeen.Before(cutoff) {
			delete(s.entries, id)
			s.log.Info("evicted idle session", zap.String("sessionId", id))
		}
	}
}
