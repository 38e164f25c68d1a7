package custody

import (
	"context"

	"pharmatrace/pkg/domain"
)

// Store persists custody chains. Execute loads the batch's chain, runs fn
// under the store's lock, and persists the chain's recorded mutations only if
// fn returns nil. The context handed to fn carries the store's transaction
// where one exists, so appends made inside fn commit or roll back with the
// chain mutation. This is the compare-and-swap boundary for custody
// operations.
type Store interface {
	History(ctx context.Context, batchID domain.BatchID) ([]Record, error)
	Execute(ctx context.Context, batchID domain.BatchID, fn func(ctx context.Context, chain *Chain) error) error
}
