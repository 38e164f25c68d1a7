package batchreg

import (
	"context"
	"errors"
	"time"

	"pharmatrace/internal/audit"
	"pharmatrace/internal/ledger"
	"pharmatrace/internal/platform/metrics"
	"pharmatrace/pkg/domain"
	dErrors "pharmatrace/pkg/domain-errors"
	"pharmatrace/pkg/platform/sentinel"
	"pharmatrace/pkg/requestcontext"
)

// Service mints batches and answers existence/origin lookups for the custody
// and gating components.
type Service struct {
	store  Store
	log    ledger.Ledger
	trail  audit.Trail
	meters *metrics.Metrics
}

type Option func(*Service)

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.meters = m }
}

func NewService(store Store, log ledger.Ledger, trail audit.Trail, opts ...Option) *Service {
	s := &Service{store: store, log: log, trail: trail}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Mint registers a new batch owned by the calling manufacturer. Batch ids are
// created exactly once; a duplicate id is a conflict.
func (s *Service) Mint(ctx context.Context, id domain.BatchID, expiry time.Time, contentRef string) (*Batch, error) {
	if id.IsZero() {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "batch id is required")
	}
	roles := requestcontext.Roles(ctx)
	if !roles.Has(domain.RoleManufacturer) && !roles.Has(domain.RoleOperator) {
		return nil, dErrors.New(dErrors.CodeForbidden, "caller is not a verified manufacturer")
	}
	now := requestcontext.Now(ctx)
	if !expiry.After(now) {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "expiry must be in the future")
	}

	// Duplicate ids are rejected before the appends so a replayed mint emits
	// no events. The store's CreateIfAbsent guard still catches races.
	if _, err := s.store.Get(ctx, id); err == nil {
		return nil, dErrors.New(dErrors.CodeConflict, "batch id already minted")
	} else if !errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to check batch id")
	}

	batch := &Batch{
		ID:           id,
		Manufacturer: requestcontext.Actor(ctx),
		Expiry:       expiry,
		ContentRef:   contentRef,
		MintedAt:     now,
	}
	if _, err := s.log.Append(ctx, ledger.Event{
		Type:  ledger.EventBatchMinted,
		Key:   string(id),
		Actor: batch.Manufacturer,
		At:    now,
		Attrs: map[string]string{"content_ref": contentRef},
	}); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to commit mint event")
	}
	if _, err := s.trail.LogAction(ctx, id, "MINT", "batch minted", audit.HashDetails(contentRef)); err != nil {
		return nil, err
	}
	if err := s.store.CreateIfAbsent(ctx, batch); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.New(dErrors.CodeConflict, "batch id already minted")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to mint batch")
	}

	if s.meters != nil {
		s.meters.BatchesMinted.Inc()
	}
	return batch, nil
}

// Get returns the minted batch or a not-found error.
func (s *Service) Get(ctx context.Context, id domain.BatchID) (*Batch, error) {
	batch, err := s.store.Get(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "batch not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load batch")
	}
	return batch, nil
}

// IsValid reports whether the batch exists and is unexpired.
func (s *Service) IsValid(ctx context.Context, id domain.BatchID) (bool, error) {
	batch, err := s.Get(ctx, id)
	if err != nil {
		return false, err
	}
	return batch.IsValid(requestcontext.Now(ctx)), nil
}

// OriginHolder resolves the actor entitled to first custody of a batch. The
// second return is false for batches this registry has never seen, in which
// case first custody is unconstrained.
func (s *Service) OriginHolder(ctx context.Context, id domain.BatchID) (domain.Actor, bool) {
	batch, err := s.store.Get(ctx, id)
	if err != nil {
		return domain.Unassigned, false
	}
	return batch.Manufacturer, true
}
