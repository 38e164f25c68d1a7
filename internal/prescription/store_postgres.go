package prescription

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"pharmatrace/pkg/domain"
	"pharmatrace/pkg/platform/sentinel"
	txcontext "pharmatrace/pkg/platform/tx"
)

// Schema:
//
//	CREATE TABLE prescriptions (
//	    id          TEXT PRIMARY KEY,
//	    patient     TEXT        NOT NULL,
//	    patient_id  TEXT        NOT NULL,
//	    doctor_id   TEXT        NOT NULL,
//	    drug_id     TEXT        NOT NULL,
//	    dosage      TEXT        NOT NULL,
//	    issued_at   TIMESTAMPTZ NOT NULL,
//	    expiry      TIMESTAMPTZ NOT NULL,
//	    filled      BOOLEAN     NOT NULL DEFAULT FALSE,
//	    pharmacy_id TEXT        NOT NULL DEFAULT '',
//	    filled_at   TIMESTAMPTZ,
//	    notes       TEXT        NOT NULL DEFAULT ''
//	);

type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const selectPrescription = `
	SELECT id, patient, patient_id, doctor_id, drug_id, dosage, issued_at, expiry, filled, pharmacy_id, filled_at, notes
	FROM prescriptions
	WHERE id = $1
`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPrescription(row rowScanner) (*Prescription, error) {
	var p Prescription
	err := row.Scan(
		&p.ID,
		&p.Patient,
		&p.PatientID,
		&p.DoctorID,
		&p.DrugID,
		&p.Dosage,
		&p.IssuedAt,
		&p.Expiry,
		&p.Filled,
		&p.PharmacyID,
		&p.FilledAt,
		&p.Notes,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan prescription: %w", err)
	}
	return &p, nil
}

func (s *PostgresStore) Create(ctx context.Context, p *Prescription) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO prescriptions (id, patient, patient_id, doctor_id, drug_id, dosage, issued_at, expiry, filled, pharmacy_id, filled_at, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`, string(p.ID), string(p.Patient), p.PatientID, p.DoctorID, p.DrugID, p.Dosage,
		p.IssuedAt, p.Expiry, p.Filled, p.PharmacyID, p.FilledAt, p.Notes)
	if err != nil {
		return fmt.Errorf("insert prescription: %w", err)
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, id domain.PrescriptionID) (*Prescription, error) {
	return scanPrescription(s.db.QueryRowContext(ctx, selectPrescription, string(id)))
}

func (s *PostgresStore) Execute(ctx context.Context, id domain.PrescriptionID, fn func(ctx context.Context, p *Prescription) error) (*Prescription, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin prescription tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	p, err := scanPrescription(tx.QueryRowContext(ctx, selectPrescription+" FOR UPDATE", string(id)))
	if err != nil {
		return nil, err
	}

	// fn sees the transaction through the context, so any appends it makes
	// (audit rows in particular) commit or roll back with the fill.
	if err := fn(txcontext.WithTx(ctx, tx), p); err != nil {
		return nil, err
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE prescriptions
		SET filled = $2, pharmacy_id = $3, filled_at = $4
		WHERE id = $1
	`, string(p.ID), p.Filled, p.PharmacyID, p.FilledAt)
	if err != nil {
		return nil, fmt.Errorf("update prescription: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit prescription tx: %w", err)
	}
	return p, nil
}
