package audit

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"pharmatrace/pkg/domain"
	"pharmatrace/pkg/platform/sentinel"
	txcontext "pharmatrace/pkg/platform/tx"
)

// Schema documents the table the store expects. The id sequence starts at 0 to
// match the trail's first entry id.
//
//	CREATE SEQUENCE audit_entries_id_seq MINVALUE 0 START WITH 0;
//	CREATE TABLE audit_entries (
//	    id        BIGINT PRIMARY KEY DEFAULT nextval('audit_entries_id_seq'),
//	    batch_id  TEXT        NOT NULL,
//	    action    TEXT        NOT NULL,
//	    actor     TEXT        NOT NULL,
//	    ts        TIMESTAMPTZ NOT NULL,
//	    details   TEXT        NOT NULL DEFAULT '',
//	    data_hash TEXT        NOT NULL DEFAULT ''
//	);
//	CREATE INDEX audit_entries_batch_idx ON audit_entries (batch_id, id);

// PostgresStore persists the trail in PostgreSQL. Inserts only; there is no
// update or delete path by design of the schema this store is granted.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

type dbQuerier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *PostgresStore) querier(ctx context.Context) dbQuerier {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

func (s *PostgresStore) Append(ctx context.Context, entry *Entry) error {
	query := `
		INSERT INTO audit_entries (batch_id, action, actor, ts, details, data_hash)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`
	err := s.querier(ctx).QueryRowContext(ctx, query,
		string(entry.BatchID),
		entry.Action,
		string(entry.Actor),
		entry.Timestamp,
		entry.Details,
		entry.DataHash,
	).Scan(&entry.ID)
	if err != nil {
		return fmt.Errorf("insert audit entry: %w", err)
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, id uint64) (*Entry, error) {
	query := `
		SELECT id, batch_id, action, actor, ts, details, data_hash
		FROM audit_entries
		WHERE id = $1
	`
	var entry Entry
	err := s.querier(ctx).QueryRowContext(ctx, query, id).Scan(
		&entry.ID,
		&entry.BatchID,
		&entry.Action,
		&entry.Actor,
		&entry.Timestamp,
		&entry.Details,
		&entry.DataHash,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select audit entry: %w", err)
	}
	return &entry, nil
}

func (s *PostgresStore) ListByBatch(ctx context.Context, batchID domain.BatchID) ([]Entry, error) {
	query := `
		SELECT id, batch_id, action, actor, ts, details, data_hash
		FROM audit_entries
		WHERE batch_id = $1
		ORDER BY id
	`
	rows, err := s.querier(ctx).QueryContext(ctx, query, string(batchID))
	if err != nil {
		return nil, fmt.Errorf("select batch audit trail: %w", err)
	}
	defer rows.Close()

	entries := []Entry{}
	for rows.Next() {
		var entry Entry
		if err := rows.Scan(
			&entry.ID,
			&entry.BatchID,
			&entry.Action,
			&entry.Actor,
			&entry.Timestamp,
			&entry.Details,
			&entry.DataHash,
		); err != nil {
			return nil, fmt.Errorf("scan audit entry: %w", err)
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

func (s *PostgresStore) Count(ctx context.Context) (uint64, error) {
	var count uint64
	err := s.querier(ctx).QueryRowContext(ctx, `SELECT COUNT(*) FROM audit_entries`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count audit entries: %w", err)
	}
	return count, nil
}
