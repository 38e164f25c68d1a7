package prescription

import (
	"time"

	"pharmatrace/pkg/domain"
	dErrors "pharmatrace/pkg/domain-errors"
)

// Prescription is a doctor-authorized, patient-bound, one-time-fillable order.
// Created once, filled at most once, never deleted.
type Prescription struct {
	ID         domain.PrescriptionID `json:"id"`
	Patient    domain.Actor          `json:"patient"`
	PatientID  string                `json:"patient_id"`
	DoctorID   string                `json:"doctor_id"`
	DrugID     string                `json:"drug_id"`
	Dosage     string                `json:"dosage"`
	IssuedAt   time.Time             `json:"issued_at"`
	Expiry     time.Time             `json:"expiry"`
	Filled     bool                  `json:"filled"`
	PharmacyID string                `json:"pharmacy_id,omitempty"`
	FilledAt   *time.Time            `json:"filled_at,omitempty"`
	Notes      string                `json:"notes"`
}

// IsValid reports whether the prescription can still be filled: not yet
// filled and not expired. Recomputed on every read, never stored.
func (p Prescription) IsValid(now time.Time) bool {
	return !p.Filled && now.Before(p.Expiry)
}

// CanFill checks the one-shot and expiry invariants ahead of filling.
func (p *Prescription) CanFill(now time.Time) error {
	if p.Filled {
		return dErrors.New(dErrors.CodeConflict, "prescription already filled")
	}
	if !now.Before(p.Expiry) {
		return dErrors.New(dErrors.CodeInvalidInput, "prescription has expired")
	}
	return nil
}

// ApplyFill marks the prescription filled by the given pharmacy.
func (p *Prescription) ApplyFill(pharmacyID string, now time.Time) {
	p.Filled = true
	p.PharmacyID = pharmacyID
	p.FilledAt = &now
}
