package cache

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is an in-memory claim store with expiration. It stands in for
// Redis when REDIS_ENABLED is false.
type MemoryStore struct {
	mu    sync.Mutex
	items map[string]time.Time
	done  chan struct{}
	once  sync.Once
}

// NewMemoryStore creates a new in-memory store
func NewMemoryStore() *MemoryStore {
	store := &MemoryStore{
		items: make(map[string]time.Time),
		done:  make(chan struct{}),
	}

	go store.cleanupExpired(5 * time.Minute)

	return store
}

// Claim marks key as taken for ttl. It reports false when already claimed.
// An expired claim can be taken again.
func (ms *MemoryStore) Claim(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	now := time.Now()
	if expires, ok := ms.items[key]; ok && now.Before(expires) {
		return false, nil
	}
	ms.items[key] = now.Add(ttl)
	return true, nil
}

// Release frees a claimed key
func (ms *MemoryStore) Release(ctx context.Context, key string) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	delete(ms.items, key)
	return nil
}

// Close stops the cleanup goroutine
func (ms *MemoryStore) Close() error {
	ms.once.Do(func() { close(ms.done) })
	return nil
}

// cleanupExpired periodically removes expired claims
func (ms *MemoryStore) cleanupExpired(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ms.done:
			return
		case now := <-ticker.C:
			ms.removeExpired(now)
		}
	}
}

func (ms *MemoryStore) removeExpired(now time.Time) int {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	removed := 0
	for key, expires := range ms.items {
		if now.After(expires) {
			delete(ms.items, key)
			removed++
		}
	}
	return removed
}
