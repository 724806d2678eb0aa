package admin

import (
	"context"
	"sync"
	"time"
)

const sessionKeyPrefix = "admin:session:"

// SessionStore records live session IDs so tokens can be revoked before they expire.
type SessionStore interface {
	Save(ctx context.Context, id string, ttl time.Duration) error
	Exists(ctx context.Context, id string) (bool, error)
	Delete(ctx context.Context, id string) error
}

// Cache is the subset of the application cache the session store needs.
type Cache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value string, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// NewSessionStore uses the cache when one is configured and an in-process map otherwise.
func NewSessionStore(cache Cache) SessionStore {
	if cache == nil {
		return NewMemorySessionStore()
	}
	return &cacheSessionStore{cache: cache}
}

type cacheSessionStore struct {
	cache Cache
}

func (s *cacheSessionStore) Save(ctx context.Context, id string, ttl time.Duration) error {
	return s.cache.Set(ctx, sessionKeyPrefix+id, "1", ttl)
}

func (s *cacheSessionStore) Exists(ctx context.Context, id string) (bool, error) {
	v, err := s.cache.Get(ctx, sessionKeyPrefix+id)
	if err != nil {
		return false, err
	}
	return v != "", nil
}

func (s *cacheSessionStore) Delete(ctx context.Context, id string) error {
	return s.cache.Delete(ctx, sessionKeyPrefix+id)
}

type MemorySessionStore struct {
	mu       sync.Mutex
	expiries map[string]time.Time
	now      func() time.Time
}

func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{
		expiries: make(map[string]time.Time),
		now:      time.Now,
	}
}

func (s *MemorySessionStore) Save(_ context.Context, id string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	s.expiries[id] = now.Add(ttl)

	// Expired sessions are dropped on write so the map stays bounded by live sessions.
	for key, expiry := range s.expiries {
		if !expiry.After(now) {
			delete(s.expiries, key)
		}
	}

	return nil
}

func (s *MemorySessionStore) Exists(_ context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	expiry, ok := s.expiries[id]
	if !ok {
		return false, nil
	}
	if !expiry.After(s.now()) {
		delete(s.expiries, id)
		return false, nil
	}

	return true, nil
}

func (s *MemorySessionStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.expiries, id)
	return nil
}
