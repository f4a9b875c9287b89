package cache

import (
	"context"
	"fmt"
	"sync"
)

const layerMemory = "memory"

// MemoryStore is an in-process Store. Entries live as long as the store.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]string
}

// NewMemoryStore creates an empty in-process store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]string),
	}
}

// Get returns the identifier cached for key.
func (m *MemoryStore) Get(_ context.Context, key Key) (string, error) {
	m.mu.RLock()
	id, ok := m.entries[key.String()]
	m.mu.RUnlock()

	if !ok {
		CacheMisses.WithLabelValues(layerMemory).Inc()
		return "", ErrCacheMiss
	}

	CacheHits.WithLabelValues(layerMemory).Inc()
	return id, nil
}

// Set records id for key.
func (m *MemoryStore) Set(_ context.Context, key Key, id string) error {
	if id == "" {
		return fmt.Errorf("%w: empty identifier", ErrInvalidEntry)
	}

	m.mu.Lock()
	m.entries[key.String()] = id
	size := len(m.entries)
	m.mu.Unlock()

	CacheEntries.WithLabelValues(layerMemory).Set(float64(size))
	return nil
}

// Delete evicts key.
func (m *MemoryStore) Delete(_ context.Context, key Key) error {
	m.mu.Lock()
	_, existed := m.entries[key.String()]
	delete(m.entries, key.String())
	size := len(m.entries)
	m.mu.Unlock()

	if existed {
		CacheEvictions.WithLabelValues(layerMemory).Inc()
	}
	CacheEntries.WithLabelValues(layerMemory).Set(float64(size))
	return nil
}

// Len returns the number of cached slugs.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}
