package prescription

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"pharmatrace/internal/audit"
	"pharmatrace/internal/ledger"
	"pharmatrace/internal/platform/metrics"
	"pharmatrace/pkg/domain"
	dErrors "pharmatrace/pkg/domain-errors"
	"pharmatrace/pkg/platform/sentinel"
	"pharmatrace/pkg/requestcontext"
)

// Service owns the prescription issuance and one-time fulfillment lifecycle.
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

// Issue creates a new unfilled prescription bound to the patient.
func (s *Service) Issue(ctx context.Context, patient domain.Actor, patientID, doctorID, drugID, dosage string, expiry time.Time, notes string) (*Prescription, error) {
	if patient.IsZero() {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "patient is required")
	}
	now := requestcontext.Now(ctx)
	if !expiry.After(now) {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "invalid expiry date")
	}

	p := &Prescription{
		ID:        domain.PrescriptionID(uuid.NewString()),
		Patient:   patient,
		PatientID: patientID,
		DoctorID:  doctorID,
		DrugID:    drugID,
		Dosage:    dosage,
		IssuedAt:  now,
		Expiry:    expiry,
		Notes:     notes,
	}
	// Event and audit appends precede the write: an append failure leaves no
	// prescription behind, and the memory-backed create cannot fail on a
	// freshly generated id.
	if _, err := s.log.Append(ctx, ledger.Event{
		Type:  ledger.EventPrescriptionIssued,
		Key:   string(p.ID),
		Actor: requestcontext.Actor(ctx),
		At:    now,
		Attrs: map[string]string{"patient_id": patientID, "doctor_id": doctorID, "drug_id": drugID},
	}); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to commit issue event")
	}
	details := fmt.Sprintf("prescription issued for drug %s to patient %s", drugID, patientID)
	if _, err := s.trail.LogAction(ctx, domain.BatchID(p.ID), "PRESCRIPTION_ISSUED", details, audit.HashDetails(details)); err != nil {
		return nil, err
	}
	if err := s.store.Create(ctx, p); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create prescription")
	}

	if s.meters != nil {
		s.meters.PrescriptionsIssued.Inc()
	}
	return p, nil
}

// Fill marks the prescription filled by the given pharmacy. The filled flag
// flips false→true exactly once; a second fill always fails, and an expired
// prescription cannot be filled at all.
func (s *Service) Fill(ctx context.Context, id domain.PrescriptionID, pharmacyID string) (*Prescription, error) {
	if id.IsZero() {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "prescription id is required")
	}
	if pharmacyID == "" {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "pharmacy id is required")
	}

	// Event and audit appends run inside the Execute boundary: if either
	// fails, the staged fill is discarded with them.
	now := requestcontext.Now(ctx)
	p, err := s.store.Execute(ctx, id, func(ctx context.Context, p *Prescription) error {
		if err := p.CanFill(now); err != nil {
			return err
		}
		p.ApplyFill(pharmacyID, now)

		if _, err := s.log.Append(ctx, ledger.Event{
			Type:  ledger.EventPrescriptionFilled,
			Key:   string(id),
			Actor: requestcontext.Actor(ctx),
			At:    now,
			Attrs: map[string]string{"pharmacy_id": pharmacyID},
		}); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to commit fill event")
		}
		details := fmt.Sprintf("prescription filled by pharmacy %s", pharmacyID)
		if _, err := s.trail.LogAction(ctx, domain.BatchID(id), "PRESCRIPTION_FILLED", details, audit.HashDetails(details)); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "prescription not found")
		}
		return nil, err
	}

	if s.meters != nil {
		s.meters.PrescriptionsFilled.Inc()
	}
	return p, nil
}

// Get returns the prescription or a not-found error.
func (s *Service) Get(ctx context.Context, id domain.PrescriptionID) (*Prescription, error) {
	p, err := s.store.Get(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "prescription not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load prescription")
	}
	return p, nil
}

// IsValid reports whether the prescription is unfilled and unexpired.
func (s *Service) IsValid(ctx context.Context, id domain.PrescriptionID) (bool, error) {
	p, err := s.Get(ctx, id)
	if err != nil {
		return false, err
	}
	return p.IsValid(requestcontext.Now(ctx)), nil
}
