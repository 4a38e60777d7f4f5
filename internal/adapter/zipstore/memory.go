// Package zipstore persists resolved ZIP coordinates so the locator does not
// hit the network again after a restart. Every store implements
// domain.CoordinateStore.
package zipstore

import (
	"context"
	"sync"

	"github.com/anyjiujitsu/openmat-service/internal/domain"
)

// MemoryStore keeps coordinates in process memory only. It backs the locator
// when no persistent cache is configured and serves as a test double.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string]domain.Geo
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string]domain.Geo)}
}

func (s *MemoryStore) Get(_ context.Context, zip string) (domain.Geo, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	g, ok := s.data[zip]
	return g, ok, nil
}

func (s *MemoryStore) Set(_ context.Context, zip string, g domain.Geo) error {
	s.mu.Lock()
	s.data[zip] = g
	s.mu.Unlock()
	return nil
}

// Len reports how many ZIP codes are stored.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data)
}
