package prescription

import (
	"context"

	"pharmatrace/pkg/domain"
)

// Store persists prescriptions. Execute loads the prescription, runs fn under
// the store's lock, and persists the mutation only if fn returns nil. The
// context handed to fn carries the store's transaction where one exists, so
// appends made inside fn commit or roll back with the fill. The one-shot fill
// guard depends on this being atomic.
type Store interface {
	Create(ctx context.Context, p *Prescription) error
	Get(ctx context.Context, id domain.PrescriptionID) (*Prescription, error)
	Execute(ctx context.Context, id domain.PrescriptionID, fn func(ctx context.Context, p *Prescription) error) (*Prescription, error)
}
