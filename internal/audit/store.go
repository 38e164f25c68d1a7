package audit

import (
	"context"

	"pharmatrace/pkg/domain"
)

// Store persists audit entries. Append assigns the next sequential id (from 0)
// and must preserve global insertion order across batches.
type Store interface {
	Append(ctx context.Context, entry *Entry) error
	Get(ctx context.Context, id uint64) (*Entry, error)
	ListByBatch(ctx context.Context, batchID domain.BatchID) ([]Entry, error)
	Count(ctx context.Context) (uint64, error)
}
