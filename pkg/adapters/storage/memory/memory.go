package memory

import (
	"context"
	"sync"

	"github.com/aescanero/coyote/pkg/domain"
)

// ResourceStore implements ports.ResourceStore using an in-memory map
type ResourceStore struct {
	resources map[string][]byte
	mu        sync.RWMutex
}

// NewResourceStore creates a new in-memory resource store
func NewResourceStore() *ResourceStore {
	return &ResourceStore{
		resources: make(map[string][]byte),
	}
}

// Put stores a copy of value under key
func (s *ResourceStore) Put(ctx context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.resources[key] = append([]byte(nil), value...)
	return nil
}

// PutIfAbsent stores a copy of value unless key already holds one
func (s *ResourceStore) PutIfAbsent(ctx context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.resources[key]; ok {
		return domain.NewResourceAlreadyExists(key)
	}
	s.resources[key] = append([]byte(nil), value...)
	return nil
}

// Get returns a copy of the value stored under key
func (s *ResourceStore) Get(ctx context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	value, ok := s.resources[key]
	if !ok {
		return nil, domain.NewResourceDoesNotExist(key)
	}
	return append([]byte(nil), value...), nil
}

// Delete removes the value stored under key
func (s *ResourceStore) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.resources[key]; !ok {
		return domain.NewResourceDoesNotExist(key)
	}
	delete(s.resources, key)
	return nil
}

// Len returns the number of stored resources
func (s *ResourceStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.resources)
}
