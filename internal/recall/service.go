package recall

import (
	"context"
	"errors"
	"fmt"

	"pharmatrace/internal/audit"
	"pharmatrace/internal/ledger"
	"pharmatrace/internal/platform/metrics"
	"pharmatrace/pkg/domain"
	dErrors "pharmatrace/pkg/domain-errors"
	"pharmatrace/pkg/platform/sentinel"
	"pharmatrace/pkg/requestcontext"
)

// Service tracks active and resolved recalls with severity and scope.
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

func requireRecallAuthority(ctx context.Context) error {
	roles := requestcontext.Roles(ctx)
	if !roles.Has(domain.RoleRegulator) && !roles.Has(domain.RoleOperator) {
		return dErrors.New(dErrors.CodeForbidden, "caller may not manage recalls")
	}
	return nil
}

// Issue opens an active recall for the batch.
func (s *Service) Issue(ctx context.Context, batchID domain.BatchID, reason string, severity int, regions []string) (*Recall, error) {
	if err := requireRecallAuthority(ctx); err != nil {
		return nil, err
	}
	if batchID.IsZero() {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "batch id is required")
	}
	if severity < MinSeverity || severity > MaxSeverity {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "invalid severity")
	}

	now := requestcontext.Now(ctx)
	recall := &Recall{
		BatchID:  batchID,
		Reason:   reason,
		IssuedAt: now,
		IssuedBy: requestcontext.Actor(ctx),
		Active:   true,
		Regions:  append([]string{}, regions...),
		Severity: severity,
	}
	// Event and audit appends precede the write: an append failure leaves no
	// recall behind.
	if _, err := s.log.Append(ctx, ledger.Event{
		Type:  ledger.EventRecallIssued,
		Key:   string(batchID),
		Actor: recall.IssuedBy,
		At:    now,
		Attrs: map[string]string{"reason": reason, "severity": fmt.Sprintf("%d", severity)},
	}); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to commit recall event")
	}
	details := fmt.Sprintf("recall severity %d: %s", severity, reason)
	if _, err := s.trail.LogAction(ctx, batchID, "RECALL_ISSUED", details, audit.HashDetails(details)); err != nil {
		return nil, err
	}
	if err := s.store.Append(ctx, recall); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to record recall")
	}

	if s.meters != nil {
		s.meters.RecallsIssued.Inc()
	}
	return recall, nil
}

// Resolve deactivates the index-th recall for the batch. Other recalls are
// unaffected; the batch stays recalled while any remain active.
func (s *Service) Resolve(ctx context.Context, batchID domain.BatchID, index int) error {
	if err := requireRecallAuthority(ctx); err != nil {
		return err
	}
	// Validate the target and append before flipping it, so an append failure
	// leaves the recall active. The store's own guard still catches races.
	recalls, err := s.store.List(ctx, batchID)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load recalls")
	}
	if index < 0 || index >= len(recalls) {
		return dErrors.New(dErrors.CodeNotFound, "recall not found")
	}
	if !recalls[index].Active {
		return dErrors.New(dErrors.CodeConflict, "recall already resolved")
	}

	now := requestcontext.Now(ctx)
	if _, err := s.log.Append(ctx, ledger.Event{
		Type:  ledger.EventRecallResolved,
		Key:   string(batchID),
		Actor: requestcontext.Actor(ctx),
		At:    now,
	}); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to commit resolution event")
	}
	details := fmt.Sprintf("recall resolved: %s", recalls[index].Reason)
	if _, err := s.trail.LogAction(ctx, batchID, "RECALL_RESOLVED", details, audit.HashDetails(details)); err != nil {
		return err
	}

	if _, err := s.store.Resolve(ctx, batchID, index); err != nil {
		switch {
		case errors.Is(err, sentinel.ErrNotFound):
			return dErrors.New(dErrors.CodeNotFound, "recall not found")
		case errors.Is(err, sentinel.ErrAlreadyUsed):
			return dErrors.New(dErrors.CodeConflict, "recall already resolved")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to resolve recall")
	}

	if s.meters != nil {
		s.meters.RecallsResolved.Inc()
	}
	return nil
}

// IsRecalled reports whether any recall for the batch is still active.
func (s *Service) IsRecalled(ctx context.Context, batchID domain.BatchID) (bool, error) {
	recalls, err := s.store.List(ctx, batchID)
	if err != nil {
		return false, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load recalls")
	}
	return IsRecalled(recalls), nil
}

// ActiveRecalls returns unresolved recalls for the batch.
func (s *Service) ActiveRecalls(ctx context.Context, batchID domain.BatchID) ([]Recall, error) {
	recalls, err := s.store.List(ctx, batchID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load recalls")
	}
	return ActiveOnly(recalls), nil
}

// Recalls returns the unfiltered recall list for the batch.
func (s *Service) Recalls(ctx context.Context, batchID domain.BatchID) ([]Recall, error) {
	return s.store.List(ctx, batchID)
}
