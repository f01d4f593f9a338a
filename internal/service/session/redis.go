package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/finpilot/loanflow/backend/internal/model/conversation"
)

// RedisStore persists sessions as JSON blobs in Redis so conversations
// survive a process restart. Per-session write atomicity is guarded by local
// mutexes, which is sufficient for the single-process deployment this
// service targets; a multi-instance rollout would move the lock into Redis.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
	now    Clock
	log    *zap.Logger

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewRedisStore wires the store against an existing client. A zero ttl keeps
// sessions forever, matching the in-memory default.
func NewRedisStore(client *redis.Client, ttl time.Duration, now Clock, log *zap.Logger) *RedisStore {
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &RedisStore{
		client: client,
		ttl:    ttl,
		now:    now,
		log:    log,
		locks:  make(map[string]*sync.Mutex),
	}
}

func sessionKey(sessionID string) string {
	return "loanflow:session:" + sessionID
}

// Get loads and decodes a session.
func (s *RedisStore) Get(ctx context.Context, sessionID string) (*conversation.Session, error) {
	raw, err := s.client.Get(ctx, sessionKey(sessionID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load session %s: %w", sessionID, err)
	}

	var sess conversation.Session
	if err := json.Unmarshal(raw, &sess); err != nil {
		return nil, fmt.Errorf("decode session %s: %w", sessionID, err)
	}
	return &sess, nil
}

// Mutate implements the read-modify-write turn commit on top of GET/SET.
func (s *RedisStore) Mutate(ctx context.Context, sessionID string, newFn NewSessionFunc, fn func(*conversation.Session) error) (*conversation.Session, error) {
	lock := s.lockFor(sessionID)
	lock.Lock()
	defer lock.Unlock()

	sess, err := s.Get(ctx, sessionID)
	if errors.Is(err, ErrSessionNotFound) {
		if newFn == nil {
			return nil, ErrSessionNotFound
		}
		sess = newFn(sessionID)
	} else if err != nil {
		return nil, err
	}

	if err := fn(sess); err != nil {
		return nil, err
	}

	sess.UpdatedAt = s.now()
	raw, err := json.Marshal(sess)
	if err != nil {
		return nil, fmt.Errorf("encode session %s: %w", sessionID, err)
	}
	if err := s.client.Set(ctx, sessionKey(sessionID), raw, s.ttl).Err(); err != nil {
		return nil, fmt.Errorf("store session %s: %w", sessionID, err)
	}
	return sess.Clone(), nil
}

// Delete removes the session blob and drops its lock so resets cannot grow
// the lock map without bound.
func (s *RedisStore) Delete(ctx context.Context, sessionID string) error {
	lock := s.lockFor(sessionID)
	lock.Lock()
	defer lock.Unlock()

	if err := s.client.Del(ctx, sessionKey(sessionID)).Err(); err != nil {
		return fmt.Errorf("delete session %s: %w", sessionID, err)
	}
	s.mu.Lock()
	delete(s.locks, sessionID)
	s.mu.Unlock()
	return nil
}

func (s *RedisStore) lockFor(sessionID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	lock, ok := s.locks[sessionID]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[sessionID] = lock
	}
	return lock
}
