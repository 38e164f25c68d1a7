package prescription

import (
	"context"
	"sync"

	"pharmatrace/pkg/domain"
	"pharmatrace/pkg/platform/sentinel"
)

type InMemoryStore struct {
	mu            sync.RWMutex
	prescriptions map[domain.PrescriptionID]Prescription
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{prescriptions: make(map[domain.PrescriptionID]Prescription)}
}

func (s *InMemoryStore) Create(_ context.Context, p *Prescription) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.prescriptions[p.ID]; exists {
		return sentinel.ErrConflict
	}
	s.prescriptions[p.ID] = *p
	return nil
}

func (s *InMemoryStore) Get(_ context.Context, id domain.PrescriptionID) (*Prescription, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.prescriptions[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return &p, nil
}

func (s *InMemoryStore) Execute(ctx context.Context, id domain.PrescriptionID, fn func(ctx context.Context, p *Prescription) error) (*Prescription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.prescriptions[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	if err := fn(ctx, &p); err != nil {
		return nil, err
	}
	s.prescriptions[id] = p
	return &p, nil
}
