package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/marmos91/filesmanager/pkg/session"
)

// entry carries a per-session deadline; the LRU's own TTL is an upper bound.
type entry struct {
	userID    string
	expiresAt time.Time
}

// MemorySessionStore keeps sessions in a bounded, expiring LRU.
//
// When more than Size sessions are live the least recently used is evicted,
// which logs that user out.
type MemorySessionStore struct {
	mu    sync.Mutex
	cache *expirable.LRU[string, entry]
}

// MemorySessionStoreConfig is decoded from the sessions.memory config section.
type MemorySessionStoreConfig struct {
	// Size is the maximum number of live sessions (default: 10000)
	Size int `mapstructure:"size"`

	// MaxTTL bounds every session's lifetime (default: 24h)
	MaxTTL time.Duration `mapstructure:"max_ttl"`
}

// NewMemorySessionStore creates an empty store.
func NewMemorySessionStore(cfg MemorySessionStoreConfig) *MemorySessionStore {
	if cfg.Size <= 0 {
		cfg.Size = 10000
	}
	if cfg.MaxTTL <= 0 {
		cfg.MaxTTL = 24 * time.Hour
	}
	return &MemorySessionStore{
		cache: expirable.NewLRU[string, entry](cfg.Size, nil, cfg.MaxTTL),
	}
}

func (s *MemorySessionStore) Set(ctx context.Context, token, userID string, ttl time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if token == "" || userID == "" {
		return fmt.Errorf("token and user id are required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.cache.Add(token, entry{userID: userID, expiresAt: time.Now().Add(ttl)})
	return nil
}

func (s *MemorySessionStore) Get(ctx context.Context, token string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.cache.Get(token)
	if !ok {
		return "", session.ErrSessionNotFound
	}
	if !time.Now().Before(e.expiresAt) {
		s.cache.Remove(token)
		return "", session.ErrSessionNotFound
	}
	return e.userID, nil
}

func (s *MemorySessionStore) Delete(ctx context.Context, token string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.cache.Remove(token) {
		return session.ErrSessionNotFound
	}
	return nil
}

func (s *MemorySessionStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cache.Purge()
	return nil
}

// Ensure interface compliance.
var _ session.Store = (*MemorySessionStore)(nil)
