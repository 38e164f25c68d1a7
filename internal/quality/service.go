package quality

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

// Service gates batches behind inspector attestations.
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

func requireOperator(ctx context.Context) error {
	if !requestcontext.Roles(ctx).Has(domain.RoleOperator) {
		return dErrors.New(dErrors.CodeForbidden, "caller is not the operator")
	}
	return nil
}

// AuthorizeInspector adds an actor to the inspector allow-list. Operator only.
func (s *Service) AuthorizeInspector(ctx context.Context, actor domain.Actor) error {
	if err := requireOperator(ctx); err != nil {
		return err
	}
	if actor.IsZero() {
		return dErrors.New(dErrors.CodeInvalidInput, "inspector is required")
	}
	_, err := s.log.Append(ctx, ledger.Event{
		Type:  ledger.EventInspectorAuthorized,
		Key:   string(actor),
		Actor: requestcontext.Actor(ctx),
		At:    requestcontext.Now(ctx),
	})
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to commit authorization event")
	}
	if err := s.store.SetInspector(ctx, actor, true); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to authorize inspector")
	}
	return nil
}

// RevokeInspector removes an actor from the allow-list. Operator only.
func (s *Service) RevokeInspector(ctx context.Context, actor domain.Actor) error {
	if err := requireOperator(ctx); err != nil {
		return err
	}
	_, err := s.log.Append(ctx, ledger.Event{
		Type:  ledger.EventInspectorRevoked,
		Key:   string(actor),
		Actor: requestcontext.Actor(ctx),
		At:    requestcontext.Now(ctx),
	})
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to commit revocation event")
	}
	if err := s.store.SetInspector(ctx, actor, false); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to revoke inspector")
	}
	return nil
}

// PerformCheck records an attestation for a batch. Authorized inspectors only.
func (s *Service) PerformCheck(ctx context.Context, batchID domain.BatchID, passed bool, testType, results, notes string) (*Check, error) {
	if batchID.IsZero() {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "batch id is required")
	}
	caller := requestcontext.Actor(ctx)
	authorized, err := s.store.IsInspector(ctx, caller)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to check inspector authorization")
	}
	if !authorized {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "not an authorized inspector")
	}

	now := requestcontext.Now(ctx)
	check := &Check{
		BatchID:   batchID,
		Inspector: caller,
		Timestamp: now,
		Passed:    passed,
		TestType:  testType,
		Results:   results,
		Notes:     notes,
	}
	// Event and audit appends precede the write: an append failure leaves no
	// check behind.
	if _, err := s.log.Append(ctx, ledger.Event{
		Type:  ledger.EventQualityCheckPerformed,
		Key:   string(batchID),
		Actor: caller,
		At:    now,
		Attrs: map[string]string{"test_type": testType, "passed": fmt.Sprintf("%t", passed)},
	}); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to commit quality check event")
	}
	details := fmt.Sprintf("%s check passed=%t: %s", testType, passed, results)
	if _, err := s.trail.LogAction(ctx, batchID, "QUALITY_CHECK", details, audit.HashDetails(details)); err != nil {
		return nil, err
	}
	if err := s.store.AppendCheck(ctx, check); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to record quality check")
	}

	if s.meters != nil {
		s.meters.QualityChecks.Inc()
	}
	return check, nil
}

// Checks returns the ordered check list for a batch.
func (s *Service) Checks(ctx context.Context, batchID domain.BatchID) ([]Check, error) {
	return s.store.ListChecks(ctx, batchID)
}

// HasPassedQualityControl aggregates on read: AND over all checks, false when
// none exist.
func (s *Service) HasPassedQualityControl(ctx context.Context, batchID domain.BatchID) (bool, error) {
	checks, err := s.store.ListChecks(ctx, batchID)
	if err != nil {
		return false, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load quality checks")
	}
	return HasPassed(checks), nil
}

// IsInspector reports allow-list membership.
func (s *Service) IsInspector(ctx context.Context, actor domain.Actor) (bool, error) {
	return s.store.IsInspector(ctx, actor)
}
