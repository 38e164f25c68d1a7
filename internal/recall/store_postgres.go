package recall

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"pharmatrace/pkg/domain"
	"pharmatrace/pkg/platform/sentinel"
)

// Schema:
//
//	CREATE TABLE recalls (
//	    id        BIGSERIAL PRIMARY KEY,
//	    batch_id  TEXT        NOT NULL,
//	    reason    TEXT        NOT NULL,
//	    issued_at TIMESTAMPTZ NOT NULL,
//	    issued_by TEXT        NOT NULL,
//	    active    BOOLEAN     NOT NULL DEFAULT TRUE,
//	    regions   TEXT[]      NOT NULL DEFAULT '{}',
//	    severity  INT         NOT NULL
//	);
//	CREATE INDEX recalls_batch_idx ON recalls (batch_id, id);

type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Append(ctx context.Context, recall *Recall) error {
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO recalls (batch_id, reason, issued_at, issued_by, active, regions, severity)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`, string(recall.BatchID), recall.Reason, recall.IssuedAt, string(recall.IssuedBy),
		recall.Active, pq.Array(recall.Regions), recall.Severity,
	).Scan(&recall.ID)
	if err != nil {
		return fmt.Errorf("insert recall: %w", err)
	}
	return nil
}

func (s *PostgresStore) List(ctx context.Context, batchID domain.BatchID) ([]Recall, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, batch_id, reason, issued_at, issued_by, active, regions, severity
		FROM recalls
		WHERE batch_id = $1
		ORDER BY id
	`, string(batchID))
	if err != nil {
		return nil, fmt.Errorf("select recalls: %w", err)
	}
	defer rows.Close()

	recalls := []Recall{}
	for rows.Next() {
		var r Recall
		if err := rows.Scan(
			&r.ID,
			&r.BatchID,
			&r.Reason,
			&r.IssuedAt,
			&r.IssuedBy,
			&r.Active,
			pq.Array(&r.Regions),
			&r.Severity,
		); err != nil {
			return nil, fmt.Errorf("scan recall: %w", err)
		}
		recalls = append(recalls, r)
	}
	return recalls, rows.Err()
}

// Resolve deactivates the index-th recall of the batch. The active guard in
// the UPDATE makes resolution one-shot without an explicit lock.
func (s *PostgresStore) Resolve(ctx context.Context, batchID domain.BatchID, index int) (*Recall, error) {
	row := s.db.QueryRowContext(ctx, `
		WITH target AS (
			SELECT id FROM recalls
			WHERE batch_id = $1
			ORDER BY id
			OFFSET $2 LIMIT 1
		)
		UPDATE recalls SET active = FALSE
		FROM target
		WHERE recalls.id = target.id AND recalls.active
		RETURNING recalls.id, recalls.batch_id, recalls.reason, recalls.issued_at, recalls.issued_by, recalls.active, recalls.regions, recalls.severity
	`, string(batchID), index)

	var r Recall
	err := row.Scan(&r.ID, &r.BatchID, &r.Reason, &r.IssuedAt, &r.IssuedBy, &r.Active, pq.Array(&r.Regions), &r.Severity)
	if errors.Is(err, sql.ErrNoRows) {
		// Distinguish a bad index from an already-resolved recall.
		var exists bool
		checkErr := s.db.QueryRowContext(ctx, `
			SELECT TRUE FROM recalls WHERE batch_id = $1 ORDER BY id OFFSET $2 LIMIT 1
		`, string(batchID), index).Scan(&exists)
		if errors.Is(checkErr, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		if checkErr != nil {
			return nil, fmt.Errorf("check recall: %w", checkErr)
		}
		return nil, sentinel.ErrAlreadyUsed
	}
	if err != nil {
		return nil, fmt.Errorf("resolve recall: %w", err)
	}
	return &r, nil
}
