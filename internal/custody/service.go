package custody

import (
	"context"
	"fmt"

	"pharmatrace/internal/audit"
	"pharmatrace/internal/ledger"
	"pharmatrace/internal/platform/metrics"
	"pharmatrace/pkg/domain"
	dErrors "pharmatrace/pkg/domain-errors"
	"pharmatrace/pkg/requestcontext"
)

// OriginResolver answers who is entitled to first custody of a batch. The
// boolean is false for batches minted outside this deployment's registry, in
// which case first custody is unconstrained.
type OriginResolver interface {
	OriginHolder(ctx context.Context, batchID domain.BatchID) (domain.Actor, bool)
}

// Service is the batch hand-off state machine: Unassigned → PendingTransfer →
// Held, repeating. Only the current holder may offer a batch and only the
// designated recipient may accept it.
type Service struct {
	store  Store
	log    ledger.Ledger
	trail  audit.Trail
	origin OriginResolver
	meters *metrics.Metrics
}

type Option func(*Service)

// WithOriginResolver binds first custody to the batch's minting authority.
func WithOriginResolver(r OriginResolver) Option {
	return func(s *Service) { s.origin = r }
}

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

// InitiateTransfer appends a pending custody record from the caller to the
// recipient. Fails if the recipient is the null identity or the caller is not
// entitled to offer the batch.
func (s *Service) InitiateTransfer(ctx context.Context, batchID domain.BatchID, to domain.Actor, location, notes string) (*Record, error) {
	if batchID.IsZero() {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "batch id is required")
	}
	if to.IsZero() {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "invalid recipient")
	}

	caller := requestcontext.Actor(ctx)
	now := requestcontext.Now(ctx)

	// Event and audit appends run inside the Execute boundary: if either
	// fails, the staged custody record is discarded with them.
	var rec Record
	err := s.store.Execute(ctx, batchID, func(ctx context.Context, chain *Chain) error {
		origin, originKnown := domain.Unassigned, false
		if s.origin != nil {
			origin, originKnown = s.origin.OriginHolder(ctx, batchID)
		}
		if err := chain.CanInitiate(caller, origin, originKnown); err != nil {
			return err
		}
		rec = chain.ApplyInitiate(caller, to, location, notes, now)

		if _, err := s.log.Append(ctx, ledger.Event{
			Type:  ledger.EventTransferInitiated,
			Key:   string(batchID),
			Actor: caller,
			At:    now,
			Attrs: map[string]string{"to": string(to), "location": location},
		}); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to commit transfer event")
		}
		details := fmt.Sprintf("transfer initiated to %s at %s", to, location)
		if _, err := s.trail.LogAction(ctx, batchID, "TRANSFER_INITIATED", details, audit.HashDetails(details)); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.meters != nil {
		s.meters.TransfersInitiated.Inc()
	}
	return &rec, nil
}

// ConfirmReceipt flips the most recent pending record to received, making the
// caller the current holder. Fails if no transfer exists or the caller is not
// the designated recipient.
func (s *Service) ConfirmReceipt(ctx context.Context, batchID domain.BatchID) (*Record, error) {
	if batchID.IsZero() {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "batch id is required")
	}

	caller := requestcontext.Actor(ctx)
	now := requestcontext.Now(ctx)

	var rec Record
	err := s.store.Execute(ctx, batchID, func(ctx context.Context, chain *Chain) error {
		confirmed, err := chain.Confirm(caller, now)
		if err != nil {
			return err
		}
		rec = confirmed

		if _, err := s.log.Append(ctx, ledger.Event{
			Type:  ledger.EventTransferReceived,
			Key:   string(batchID),
			Actor: caller,
			At:    now,
			Attrs: map[string]string{"from": string(rec.From)},
		}); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to commit receipt event")
		}
		details := fmt.Sprintf("receipt confirmed from %s", rec.From)
		if _, err := s.trail.LogAction(ctx, batchID, "TRANSFER_RECEIVED", details, audit.HashDetails(details)); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.meters != nil {
		s.meters.TransfersReceived.Inc()
	}
	return &rec, nil
}

// CurrentHolder derives the holder from the chain: the `to` of the latest
// received record, or Unassigned.
func (s *Service) CurrentHolder(ctx context.Context, batchID domain.BatchID) (domain.Actor, error) {
	records, err := s.store.History(ctx, batchID)
	if err != nil {
		return domain.Unassigned, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load custody chain")
	}
	return NewChain(batchID, records).CurrentHolder(), nil
}

// TransferHistory returns the full ordered chain, pending entries included.
func (s *Service) TransferHistory(ctx context.Context, batchID domain.BatchID) ([]Record, error) {
	records, err := s.store.History(ctx, batchID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load custody chain")
	}
	return records, nil
}
