// Package ledger models the strongly-ordered, durable, append-only event log
// the core is built on. Components never talk to each other through shared
// state; every successful state change appends exactly one event here, and the
// single global write order is what makes component preconditions act as
// compare-and-swap guards.
//
// The consensus/commit mechanism behind the log is out of scope: Append
// returning without error means the event is durably ordered and visible.
package ledger

import (
	"context"
	"sync"
	"time"

	"pharmatrace/pkg/domain"
)

// Event is one committed domain event. Key is the aggregate identifier the
// event belongs to (batch id for batch-scoped events, prescription id for
// prescription events) and doubles as the partition key for brokered
// implementations.
type Event struct {
	Type  string
	Key   string
	Actor domain.Actor
	At    time.Time
	Attrs map[string]string
}

// Ledger is the injected append-only log. Append blocks until the event is
// committed and returns its offset in the global order.
type Ledger interface {
	Append(ctx context.Context, ev Event) (uint64, error)
}

// Memory is the in-process ledger used in tests and single-node deployments.
// A single mutex gives the total write order the components rely on.
type Memory struct {
	mu     sync.RWMutex
	events []Event
}

func NewMemory() *Memory {
	return &Memory{}
}

func (m *Memory) Append(_ context.Context, ev Event) (uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, ev)
	return uint64(len(m.events) - 1), nil
}

// Events returns a copy of all committed events in order.
func (m *Memory) Events() []Event {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]Event{}, m.events...)
}

// EventsByKey filters the committed order down to one aggregate.
func (m *Memory) EventsByKey(key string) []Event {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []Event
	for _, ev := range m.events {
		if ev.Key == key {
			out = append(out, ev)
		}
	}
	return out
}
