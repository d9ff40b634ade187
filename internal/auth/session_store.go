package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"atsnet/pkg/platform/sentinel"
)

const sessionKeyPrefix = "login_session:"

// SessionStore persists revocable login sessions.
type SessionStore interface {
	Create(ctx context.Context, session LoginSession, ttl time.Duration) error
	Get(ctx context.Context, id string) (*LoginSession, error)
	Delete(ctx context.Context, id string) error
}

// RedisSessionStore keeps login sessions in redis; expiry rides on the key
// TTL so revocation and timeout need no sweeper.
type RedisSessionStore struct {
	client redis.UniversalClient
}

// NewRedisSessionStore wraps a redis client as a session store.
func NewRedisSessionStore(client redis.UniversalClient) *RedisSessionStore {
	return &RedisSessionStore{client: client}
}

func (s *RedisSessionStore) Create(ctx context.Context, session LoginSession, ttl time.Duration) error {
	payload, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("marshal login session: %w", err)
	}
	if err := s.client.Set(ctx, sessionKeyPrefix+session.ID, payload, ttl).Err(); err != nil {
		return fmt.Errorf("store login session: %w", err)
	}
	return nil
}

func (s *RedisSessionStore) Get(ctx context.Context, id string) (*LoginSession, error) {
	payload, err := s.client.Get(ctx, sessionKeyPrefix+id).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("load login session: %w", err)
	}
	var session LoginSession
	if err := json.Unmarshal(payload, &session); err != nil {
		return nil, fmt.Errorf("unmarshal login session: %w", err)
	}
	return &session, nil
}

func (s *RedisSessionStore) Delete(ctx context.Context, id string) error {
	if err := s.client.Del(ctx, sessionKeyPrefix+id).Err(); err != nil {
		return fmt.Errorf("delete login session: %w", err)
	}
	return nil
}

// MemorySessionStore is the in-process fallback used in tests and when redis
// is not configured.
type MemorySessionStore struct {
	mu       sync.RWMutex
	sessions map[string]LoginSession
	clock    func() time.Time
}

// NewMemorySessionStore builds an empty in-memory store.
func NewMemorySessionStore(clock func() time.Time) *MemorySessionStore {
	if clock == nil {
		clock = time.Now
	}
	return &MemorySessionStore{
		sessions: make(map[string]LoginSession),
		clock:    clock,
	}
}

func (s *MemorySessionStore) Create(_ context.Context, session LoginSession, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if session.ExpiresAt.IsZero() {
		session.ExpiresAt = s.clock().Add(ttl)
	}
	s.sessions[session.ID] = session
	return nil
}

func (s *MemorySessionStore) Get(_ context.Context, id string) (*LoginSession, error) {
	s.mu.RLock()
	session, ok := s.sessions[id]
	s.mu.RUnlock()
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	if !session.ExpiresAt.IsZero() && !s.clock().Before(session.ExpiresAt) {
		s.mu.Lock()
		delete(s.sessions, id)
		s.mu.Unlock()
		return nil, sentinel.ErrExpired
	}
	return &session, nil
}

func (s *MemorySessionStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
	return nil
}
