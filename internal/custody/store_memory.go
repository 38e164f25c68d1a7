package custody

import (
	"context"
	"sync"

	"pharmatrace/pkg/domain"
)

type InMemoryStore struct {
	mu     sync.RWMutex
	chains map[domain.BatchID][]Record
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{chains: make(map[domain.BatchID][]Record)}
}

func (s *InMemoryStore) History(_ context.Context, batchID domain.BatchID) ([]Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Record{}, s.chains[batchID]...), nil
}

func (s *InMemoryStore) Execute(ctx context.Context, batchID domain.BatchID, fn func(ctx context.Context, chain *Chain) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	chain := NewChain(batchID, append([]Record{}, s.chains[batchID]...))
	if err := fn(ctx, chain); err != nil {
		return err
	}
	s.chains[batchID] = chain.Records
	return nil
}
