package storage

import (
	"context"
	"slices"
	"sync"
)

// MemoryStore keeps blobs in a map. It is used by tests and ephemeral deployments.
type MemoryStore struct {
	data map[string][]byte
	mu   sync.RWMutex
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string][]byte)}
}

// Load implements Store.
func (s *MemoryStore) Load(_ context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, ok := s.data[key]
	if !ok {
		return nil, ErrNotFound
	}

	return slices.Clone(data), nil
}

// Save implements Store.
func (s *MemoryStore) Save(_ context.Context, key string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.data[key] = slices.Clone(data)

	return nil
}

// Close implements Store.
func (s *MemoryStore) Close() error {
	return nil
}
