package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"tickethub-core/internal/domain/saga"
	tickethub_errors "tickethub-core/pkg/errors"
)

// MemorySagaStore keeps saga instances in process memory behind an RWMutex.
// A restart loses every in-flight saga; the SagaStore interface is the seam
// for swapping in a durable store when crash recovery is needed.
type MemorySagaStore struct {
	mu    sync.RWMutex
	sagas map[string]*saga.Instance
}

func NewMemorySagaStore() *MemorySagaStore {
	return &MemorySagaStore{sagas: make(map[string]*saga.Instance)}
}

func (s *MemorySagaStore) Put(_ context.Context, instance *saga.Instance) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.sagas[instance.ID]; exists {
		return tickethub_errors.ErrAlreadyExists
	}
	s.sagas[instance.ID] = instance.Clone()
	return nil
}

func (s *MemorySagaStore) Get(_ context.Context, id string) (*saga.Instance, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	instance, ok := s.sagas[id]
	if !ok {
		return nil, tickethub_errors.ErrNotFound
	}
	return instance.Clone(), nil
}

// Update applies fn to the stored instance under the write lock, so readers
// never observe a half-applied mutation.
func (s *MemorySagaStore) Update(_ context.Context, id string, fn func(*saga.Instance)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	instance, ok := s.sagas[id]
	if !ok {
		return tickethub_errors.ErrNotFound
	}
	fn(instance)
	instance.UpdatedAt = time.Now()
	return nil
}

func (s *MemorySagaStore) List(_ context.Context) ([]*saga.Instance, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*saga.Instance, 0, len(s.sagas))
	for _, instance := range s.sagas {
		out = append(out, instance.Clone())
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}
