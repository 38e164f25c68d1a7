package custody

import (
	"context"
	"database/sql"
	"fmt"

	"pharmatrace/pkg/domain"
	txcontext "pharmatrace/pkg/platform/tx"
)

// Schema:
//
//	CREATE TABLE custody_records (
//	    id           BIGSERIAL PRIMARY KEY,
//	    batch_id     TEXT        NOT NULL,
//	    from_actor   TEXT        NOT NULL,
//	    to_actor     TEXT        NOT NULL,
//	    initiated_at TIMESTAMPTZ NOT NULL,
//	    location     TEXT        NOT NULL DEFAULT '',
//	    notes        TEXT        NOT NULL DEFAULT '',
//	    received     BOOLEAN     NOT NULL DEFAULT FALSE,
//	    received_at  TIMESTAMPTZ
//	);
//	CREATE INDEX custody_records_batch_idx ON custody_records (batch_id, id);

// PostgresStore persists custody chains. Execute serializes concurrent
// operations on one batch with SELECT ... FOR UPDATE over the chain rows.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const selectChain = `
	SELECT id, batch_id, from_actor, to_actor, initiated_at, location, notes, received, received_at
	FROM custody_records
	WHERE batch_id = $1
	ORDER BY id
`

func scanRecords(rows *sql.Rows) ([]Record, error) {
	records := []Record{}
	for rows.Next() {
		var rec Record
		if err := rows.Scan(
			&rec.ID,
			&rec.BatchID,
			&rec.From,
			&rec.To,
			&rec.InitiatedAt,
			&rec.Location,
			&rec.Notes,
			&rec.Received,
			&rec.ReceivedAt,
		); err != nil {
			return nil, fmt.Errorf("scan custody record: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

func (s *PostgresStore) History(ctx context.Context, batchID domain.BatchID) ([]Record, error) {
	rows, err := s.db.QueryContext(ctx, selectChain, string(batchID))
	if err != nil {
		return nil, fmt.Errorf("select custody chain: %w", err)
	}
	defer rows.Close()
	return scanRecords(rows)
}

func (s *PostgresStore) Execute(ctx context.Context, batchID domain.BatchID, fn func(ctx context.Context, chain *Chain) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin custody tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	rows, err := tx.QueryContext(ctx, selectChain+" FOR UPDATE", string(batchID))
	if err != nil {
		return fmt.Errorf("lock custody chain: %w", err)
	}
	records, err := scanRecords(rows)
	rows.Close()
	if err != nil {
		return err
	}

	// fn sees the transaction through the context, so any appends it makes
	// (audit rows in particular) commit or roll back with the chain.
	chain := NewChain(batchID, records)
	if err := fn(txcontext.WithTx(ctx, tx), chain); err != nil {
		return err
	}

	for _, rec := range chain.Added() {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO custody_records (batch_id, from_actor, to_actor, initiated_at, location, notes, received, received_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		`, string(rec.BatchID), string(rec.From), string(rec.To), rec.InitiatedAt, rec.Location, rec.Notes, rec.Received, rec.ReceivedAt)
		if err != nil {
			return fmt.Errorf("insert custody record: %w", err)
		}
	}
	if i, ok := chain.Confirmed(); ok {
		rec := chain.Records[i]
		_, err := tx.ExecContext(ctx, `
			UPDATE custody_records SET received = TRUE, received_at = $2 WHERE id = $1 AND received = FALSE
		`, rec.ID, rec.ReceivedAt)
		if err != nil {
			return fmt.Errorf("confirm custody record: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit custody tx: %w", err)
	}
	return nil
}
