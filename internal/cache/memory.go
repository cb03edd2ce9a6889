package cache

import (
	"context"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

const defaultMemoryCacheSize = 10_000

// MemoryProvider is a single-instance cache. mu serialises writes so Claim
// is atomic with respect to Set and Delete.
type MemoryProvider struct {
	mu    sync.Mutex
	cache *lru.Cache[string, item]
	now   func() time.Time
}

type item struct {
	value     string
	expiresAt time.Time
}

func NewMemoryProvider(size int) (*MemoryProvider, error) {
	if size <= 0 {
		size = defaultMemoryCacheSize
	}
	c, err := lru.New[string, item](size)
	if err != nil {
		return nil, err
	}
	return &MemoryProvider{cache: c, now: time.Now}, nil
}

func (m *MemoryProvider) Get(_ context.Context, key string) (string, error) {
	cached, exists := m.cache.Get(key)
	if !exists {
		return "", ErrNotFound
	}

	if !cached.expiresAt.IsZero() && m.now().After(cached.expiresAt) {
		m.cache.Remove(key)
		return "", ErrNotFound
	}

	return cached.value, nil
}

// Set stores value for ttl. A non-positive ttl keeps the entry until it is evicted.
func (m *MemoryProvider) Set(_ context.Context, key string, value string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.add(key, value, ttl)
	return nil
}

// Claim stores a marker for ttl unless a live entry already holds key.
func (m *MemoryProvider) Claim(_ context.Context, key string, ttl time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if cached, exists := m.cache.Peek(key); exists {
		if cached.expiresAt.IsZero() || !m.now().After(cached.expiresAt) {
			return false, nil
		}
	}
	m.add(key, claimValue, ttl)
	return true, nil
}

func (m *MemoryProvider) add(key, value string, ttl time.Duration) {
	var expiresAt time.Time
	if ttl > 0 {
		expiresAt = m.now().Add(ttl)
	}
	m.cache.Add(key, item{
		value:     value,
		expiresAt: expiresAt,
	})
}

func (m *MemoryProvider) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cache.Remove(key)
	return nil
}

func (m *MemoryProvider) Close() error {
	return nil
}
