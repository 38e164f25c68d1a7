package coldchain

import (
	"context"
	"sync"

	"pharmatrace/pkg/domain"
	"pharmatrace/pkg/platform/sentinel"
)

// Store persists the sensor allow-list, per-batch thresholds, and readings.
type Store interface {
	SetSensor(ctx context.Context, actor domain.Actor, authorized bool) error
	IsSensor(ctx context.Context, actor domain.Actor) (bool, error)
	SetThreshold(ctx context.Context, batchID domain.BatchID, t Threshold) error
	GetThreshold(ctx context.Context, batchID domain.BatchID) (*Threshold, error)
	AppendReading(ctx context.Context, reading *Reading) error
	ListReadings(ctx context.Context, batchID domain.BatchID) ([]Reading, error)
}

type InMemoryStore struct {
	mu         sync.RWMutex
	sensors    map[domain.Actor]bool
	thresholds map[domain.BatchID]Threshold
	readings   map[domain.BatchID][]Reading
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		sensors:    make(map[domain.Actor]bool),
		thresholds: make(map[domain.BatchID]Threshold),
		readings:   make(map[domain.BatchID][]Reading),
	}
}

func (s *InMemoryStore) SetSensor(_ context.Context, actor domain.Actor, authorized bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sensors[actor] = authorized
	return nil
}

func (s *InMemoryStore) IsSensor(_ context.Context, actor domain.Actor) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sensors[actor], nil
}

func (s *InMemoryStore) SetThreshold(_ context.Context, batchID domain.BatchID, t Threshold) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.thresholds[batchID] = t
	return nil
}

func (s *InMemoryStore) GetThreshold(_ context.Context, batchID domain.BatchID) (*Threshold, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.thresholds[batchID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return &t, nil
}

func (s *InMemoryStore) AppendReading(_ context.Context, reading *Reading) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.readings[reading.BatchID] = append(s.readings[reading.BatchID], *reading)
	return nil
}

func (s *InMemoryStore) ListReadings(_ context.Context, batchID domain.BatchID) ([]Reading, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Reading{}, s.readings[batchID]...), nil
}
