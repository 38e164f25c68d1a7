package compliance

import (
	"context"
	"sync"

	"pharmatrace/pkg/domain"
	"pharmatrace/pkg/platform/sentinel"
)

// Store persists the recognized-body allow-list and per-batch approvals.
// Revoke must atomically check the active flag so an approval is revoked at
// most once.
type Store interface {
	RecognizeBody(ctx context.Context, name string) error
	IsRecognized(ctx context.Context, name string) (bool, error)
	AppendApproval(ctx context.Context, approval *Approval) error
	ListApprovals(ctx context.Context, batchID domain.BatchID) ([]Approval, error)
	Revoke(ctx context.Context, batchID domain.BatchID, index int) (*Approval, error)
}

type InMemoryStore struct {
	mu        sync.RWMutex
	bodies    map[string]bool
	approvals map[domain.BatchID][]Approval
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		bodies:    make(map[string]bool),
		approvals: make(map[domain.BatchID][]Approval),
	}
}

func (s *InMemoryStore) RecognizeBody(_ context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bodies[name] = true
	return nil
}

func (s *InMemoryStore) IsRecognized(_ context.Context, name string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.bodies[name], nil
}

func (s *InMemoryStore) AppendApproval(_ context.Context, approval *Approval) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.approvals[approval.BatchID] = append(s.approvals[approval.BatchID], *approval)
	return nil
}

func (s *InMemoryStore) ListApprovals(_ context.Context, batchID domain.BatchID) ([]Approval, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Approval{}, s.approvals[batchID]...), nil
}

func (s *InMemoryStore) Revoke(_ context.Context, batchID domain.BatchID, index int) (*Approval, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	approvals := s.approvals[batchID]
	if index < 0 || index >= len(approvals) {
		return nil, sentinel.ErrNotFound
	}
	if !approvals[index].Active {
		return nil, sentinel.ErrAlreadyUsed
	}
	approvals[index].Active = false
	approval := approvals[index]
	return &approval, nil
}
