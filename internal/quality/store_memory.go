package quality

import (
	"context"
	"sync"

	"pharmatrace/pkg/domain"
)

// Store persists the inspector allow-list and per-batch check lists.
type Store interface {
	SetInspector(ctx context.Context, actor domain.Actor, authorized bool) error
	IsInspector(ctx context.Context, actor domain.Actor) (bool, error)
	AppendCheck(ctx context.Context, check *Check) error
	ListChecks(ctx context.Context, batchID domain.BatchID) ([]Check, error)
}

type InMemoryStore struct {
	mu         sync.RWMutex
	inspectors map[domain.Actor]bool
	checks     map[domain.BatchID][]Check
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		inspectors: make(map[domain.Actor]bool),
		checks:     make(map[domain.BatchID][]Check),
	}
}

func (s *InMemoryStore) SetInspector(_ context.Context, actor domain.Actor, authorized bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.inspectors[actor] = authorized
	return nil
}

func (s *InMemoryStore) IsInspector(_ context.Context, actor domain.Actor) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.inspectors[actor], nil
}

func (s *InMemoryStore) AppendCheck(_ context.Context, check *Check) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.checks[check.BatchID] = append(s.checks[check.BatchID], *check)
	return nil
}

func (s *InMemoryStore) ListChecks(_ context.Context, batchID domain.BatchID) ([]Check, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Check{}, s.checks[batchID]...), nil
}
