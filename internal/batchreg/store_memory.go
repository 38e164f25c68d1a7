package batchreg

import (
	"context"
	"sync"

	"pharmatrace/pkg/domain"
	"pharmatrace/pkg/platform/sentinel"
)

// Store persists minted batches keyed by id.
type Store interface {
	CreateIfAbsent(ctx context.Context, batch *Batch) error
	Get(ctx context.Context, id domain.BatchID) (*Batch, error)
}

type InMemoryStore struct {
	mu      sync.RWMutex
	batches map[domain.BatchID]Batch
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{batches: make(map[domain.BatchID]Batch)}
}

func (s *InMemoryStore) CreateIfAbsent(_ context.Context, batch *Batch) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.batches[batch.ID]; exists {
		return sentinel.ErrConflict
	}
	s.batches[batch.ID] = *batch
	return nil
}

func (s *InMemoryStore) Get(_ context.Context, id domain.BatchID) (*Batch, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	batch, ok := s.batches[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return &batch, nil
}
