package cache

import (
	"context"
	"sync"
	"time"

	"postcode-tracker/internal/domain"
)

// MemoryLocationCache keeps resolved locations in process memory. Used when
// no persistent backend is configured, and by tests.
type MemoryLocationCache struct {
	mu      sync.RWMutex
	entries map[string]domain.CacheEntry
	now     func() time.Time
}

func NewMemoryLocationCache() *MemoryLocationCache {
	return &MemoryLocationCache{entries: make(map[string]domain.CacheEntry), now: time.Now}
}

func (m *MemoryLocationCache) Get(ctx context.Context, postcode string) (domain.CacheEntry, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.entries[postcode]
	return e, ok, nil
}

func (m *MemoryLocationCache) Upsert(ctx context.Context, loc domain.ResolvedLocation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[loc.Postcode] = domain.CacheEntry{Location: loc, LastAccessed: m.now()}
	return nil
}

func (m *MemoryLocationCache) Touch(ctx context.Context, postcode string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if e, ok := m.entries[postcode]; ok {
		e.LastAccessed = m.now()
		m.entries[postcode] = e
	}
	return nil
}

func (m *MemoryLocationCache) PruneBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for k, e := range m.entries {
		if e.LastAccessed.Before(cutoff) {
			delete(m.entries, k)
			n++
		}
	}
	return n, nil
}

func (m *MemoryLocationCache) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}
