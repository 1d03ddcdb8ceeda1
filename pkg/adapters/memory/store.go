package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/aretw0/policydesk/pkg/domain"
	"github.com/aretw0/policydesk/pkg/ports"
)

// Store implements ports.AssertionStore in memory.
// Values go through the codec on every Save and Load, so callers never share
// pointers with the store. Safe for concurrent use.
type Store struct {
	codec ports.AssertionCodec
	data  map[string][]byte
	mu    sync.RWMutex
}

// NewStore creates a new in-memory store.
func NewStore(codec ports.AssertionCodec) *Store {
	return &Store{
		codec: codec,
		data:  make(map[string][]byte),
	}
}

// Save persists the assertion in memory.
func (s *Store) Save(ctx context.Context, id string, assertion domain.Assertion) error {
	data, err := s.codec.Encode(assertion)
	if err != nil {
		return fmt.Errorf("failed to encode assertion: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[id] = data
	return nil
}

// Load retrieves the assertion from memory.
func (s *Store) Load(ctx context.Context, id string) (domain.Assertion, error) {
	s.mu.RLock()
	data, ok := s.data[id]
	s.mu.RUnlock()

	if !ok {
		return nil, domain.ErrAssertionNotFound
	}
	return s.codec.Decode(data)
}

// Delete removes the assertion.
func (s *Store) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, id)
	return nil
}

// List returns the stored ids, sorted.
func (s *Store) List(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.data))
	for id := range s.data {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}
