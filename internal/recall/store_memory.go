package recall

import (
	"context"
	"sync"

	"pharmatrace/pkg/domain"
	"pharmatrace/pkg/platform/sentinel"
)

// Store persists per-batch recall lists. Resolve must atomically check the
// active flag so a recall is resolved at most once.
type Store interface {
	Append(ctx context.Context, recall *Recall) error
	List(ctx context.Context, batchID domain.BatchID) ([]Recall, error)
	Resolve(ctx context.Context, batchID domain.BatchID, index int) (*Recall, error)
}

type InMemoryStore struct {
	mu      sync.RWMutex
	recalls map[domain.BatchID][]Recall
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{recalls: make(map[domain.BatchID][]Recall)}
}

func (s *InMemoryStore) Append(_ context.Context, recall *Recall) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recalls[recall.BatchID] = append(s.recalls[recall.BatchID], *recall)
	return nil
}

func (s *InMemoryStore) List(_ context.Context, batchID domain.BatchID) ([]Recall, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Recall{}, s.recalls[batchID]...), nil
}

func (s *InMemoryStore) Resolve(_ context.Context, batchID domain.BatchID, index int) (*Recall, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	recalls := s.recalls[batchID]
	if index < 0 || index >= len(recalls) {
		return nil, sentinel.ErrNotFound
	}
	if !recalls[index].Active {
		return nil, sentinel.ErrAlreadyUsed
	}
	recalls[index].Active = false
	recall := recalls[index]
	return &recall, nil
}
