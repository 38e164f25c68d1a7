package compliance

import (
	"context"
	"errors"
	"fmt"
	"time"

	"pharmatrace/internal/audit"
	"pharmatrace/internal/ledger"
	"pharmatrace/internal/platform/metrics"
	"pharmatrace/pkg/domain"
	dErrors "pharmatrace/pkg/domain-errors"
	"pharmatrace/pkg/platform/sentinel"
	"pharmatrace/pkg/requestcontext"
)

// Service tracks regulatory approvals per batch. Compliance is batch-keyed
// OR semantics: any active, unexpired approval makes the batch compliant.
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

func requireRegulator(ctx context.Context) error {
	roles := requestcontext.Roles(ctx)
	if !roles.Has(domain.RoleRegulator) && !roles.Has(domain.RoleOperator) {
		return dErrors.New(dErrors.CodeForbidden, "caller is not a regulator")
	}
	return nil
}

// RecognizeBody adds a regulatory body to the allow-list. Operator only.
func (s *Service) RecognizeBody(ctx context.Context, name string) error {
	if !requestcontext.Roles(ctx).Has(domain.RoleOperator) {
		return dErrors.New(dErrors.CodeForbidden, "caller is not the operator")
	}
	if name == "" {
		return dErrors.New(dErrors.CodeInvalidInput, "regulatory body name is required")
	}
	_, err := s.log.Append(ctx, ledger.Event{
		Type:  ledger.EventRegulatoryBodyRecognized,
		Key:   name,
		Actor: requestcontext.Actor(ctx),
		At:    requestcontext.Now(ctx),
	})
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to commit recognition event")
	}
	if err := s.store.RecognizeBody(ctx, name); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to recognize regulatory body")
	}
	return nil
}

// GrantApproval appends an active approval for the batch in the name of a
// recognized regulatory body.
func (s *Service) GrantApproval(ctx context.Context, batchID domain.BatchID, regulatoryBody, approvalNumber string, expiry time.Time, documentRef string) (*Approval, error) {
	if err := requireRegulator(ctx); err != nil {
		return nil, err
	}
	if batchID.IsZero() {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "batch id is required")
	}
	now := requestcontext.Now(ctx)
	if !expiry.After(now) {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "expiry must be in the future")
	}
	recognized, err := s.store.IsRecognized(ctx, regulatoryBody)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to check regulatory body")
	}
	if !recognized {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "regulatory body is not recognized")
	}

	approval := &Approval{
		BatchID:        batchID,
		RegulatoryBody: regulatoryBody,
		ApprovalNumber: approvalNumber,
		GrantedAt:      now,
		Expiry:         expiry,
		Active:         true,
		DocumentRef:    documentRef,
	}
	// Event and audit appends precede the write: an append failure leaves no
	// approval behind.
	if _, err := s.log.Append(ctx, ledger.Event{
		Type:  ledger.EventApprovalGranted,
		Key:   string(batchID),
		Actor: requestcontext.Actor(ctx),
		At:    now,
		Attrs: map[string]string{"regulatory_body": regulatoryBody, "approval_number": approvalNumber},
	}); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to commit approval event")
	}
	details := fmt.Sprintf("approval %s granted by %s", approvalNumber, regulatoryBody)
	if _, err := s.trail.LogAction(ctx, batchID, "APPROVAL_GRANTED", details, audit.HashDetails(details)); err != nil {
		return nil, err
	}
	if err := s.store.AppendApproval(ctx, approval); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to record approval")
	}

	if s.meters != nil {
		s.meters.ApprovalsGranted.Inc()
	}
	return approval, nil
}

// RevokeApproval deactivates the approval at the given index. Each approval
// is revoked at most once.
func (s *Service) RevokeApproval(ctx context.Context, batchID domain.BatchID, index int) error {
	if err := requireRegulator(ctx); err != nil {
		return err
	}
	// Validate the target and append before flipping it, so an append failure
	// leaves the approval active. The store's own guard still catches races.
	approvals, err := s.store.ListApprovals(ctx, batchID)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load approvals")
	}
	if index < 0 || index >= len(approvals) {
		return dErrors.New(dErrors.CodeNotFound, "approval not found")
	}
	approval := approvals[index]
	if !approval.Active {
		return dErrors.New(dErrors.CodeConflict, "approval already revoked")
	}

	now := requestcontext.Now(ctx)
	if _, err := s.log.Append(ctx, ledger.Event{
		Type:  ledger.EventApprovalRevoked,
		Key:   string(batchID),
		Actor: requestcontext.Actor(ctx),
		At:    now,
		Attrs: map[string]string{"regulatory_body": approval.RegulatoryBody},
	}); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to commit revocation event")
	}
	details := fmt.Sprintf("approval %s by %s revoked", approval.ApprovalNumber, approval.RegulatoryBody)
	if _, err := s.trail.LogAction(ctx, batchID, "APPROVAL_REVOKED", details, audit.HashDetails(details)); err != nil {
		return err
	}

	if _, err := s.store.Revoke(ctx, batchID, index); err != nil {
		switch {
		case errors.Is(err, sentinel.ErrNotFound):
			return dErrors.New(dErrors.CodeNotFound, "approval not found")
		case errors.Is(err, sentinel.ErrAlreadyUsed):
			return dErrors.New(dErrors.CodeConflict, "approval already revoked")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to revoke approval")
	}
	return nil
}

// IsCompliant reports whether any approval for the batch is in effect.
func (s *Service) IsCompliant(ctx context.Context, batchID domain.BatchID) (bool, error) {
	approvals, err := s.store.ListApprovals(ctx, batchID)
	if err != nil {
		return false, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load approvals")
	}
	return IsCompliant(approvals, requestcontext.Now(ctx)), nil
}

// Approvals returns the full approval list for a batch.
func (s *Service) Approvals(ctx context.Context, batchID domain.BatchID) ([]Approval, error) {
	return s.store.ListApprovals(ctx, batchID)
}
