package audit

import (
	"context"
	"sync"

	"pharmatrace/pkg/domain"
	"pharmatrace/pkg/platform/sentinel"
)

// InMemoryStore keeps the full trail in a slice; the slice index is the entry
// id, which gives sequential ids and global order for free.
type InMemoryStore struct {
	mu      sync.RWMutex
	entries []Entry
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{}
}

func (s *InMemoryStore) Append(_ context.Context, entry *Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry.ID = uint64(len(s.entries))
	s.entries = append(s.entries, *entry)
	return nil
}

func (s *InMemoryStore) Get(_ context.Context, id uint64) (*Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if id >= uint64(len(s.entries)) {
		return nil, sentinel.ErrNotFound
	}
	entry := s.entries[id]
	return &entry, nil
}

func (s *InMemoryStore) ListByBatch(_ context.Context, batchID domain.BatchID) ([]Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []Entry{}
	for _, entry := range s.entries {
		if entry.BatchID == batchID {
			out = append(out, entry)
		}
	}
	return out, nil
}

func (s *InMemoryStore) Count(_ context.Context) (uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return uint64(len(s.entries)), nil
}
