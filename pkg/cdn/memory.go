package cdn

import (
	"context"
	"sync"
	"time"
)

type memoryStorage struct {
	mu      sync.RWMutex
	records map[string]memoryEntry
	now     func() time.Time
}

type memoryEntry struct {
	rec     record
	expires time.Time
}

// NewMemory creates a store that keeps resources in process memory.
func NewMemory(opts ...Option) *Store {
	s := newStore(opts)
	s.storage = &memoryStorage{
		records: make(map[string]memoryEntry),
		now:     time.Now,
	}

	return s
}

func (m *memoryStorage) save(_ context.Context, fid string, rec record, ttl time.Duration) error {
	entry := memoryEntry{rec: rec}
	if ttl > 0 {
		entry.expires = m.now().Add(ttl)
	}

	m.mu.Lock()
	m.records[fid] = entry
	m.mu.Unlock()

	return nil
}

func (m *memoryStorage) load(_ context.Context, fid string) (*record, error) {
	m.mu.RLock()
	entry, ok := m.records[fid]
	m.mu.RUnlock()

	if !ok {
		return nil, nil
	}

	if !entry.expires.IsZero() && m.now().After(entry.expires) {
		m.mu.Lock()
		delete(m.records, fid)
		m.mu.Unlock()

		return nil, nil
	}

	rec := entry.rec

	return &rec, nil
}
