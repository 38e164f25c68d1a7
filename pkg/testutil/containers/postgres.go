//go:build integration

package containers

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"testing"

	_ "github.com/lib/pq"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
)

// schema mirrors the table definitions documented on each PostgresStore.
const schema = `
CREATE SEQUENCE audit_entries_id_seq MINVALUE 0 START WITH 0;
CREATE TABLE audit_entries (
    id        BIGINT PRIMARY KEY DEFAULT nextval('audit_entries_id_seq'),
    batch_id  TEXT        NOT NULL,
    action    TEXT        NOT NULL,
    actor     TEXT        NOT NULL,
    ts        TIMESTAMPTZ NOT NULL,
    details   TEXT        NOT NULL DEFAULT '',
    data_hash TEXT        NOT NULL DEFAULT ''
);
CREATE INDEX audit_entries_batch_idx ON audit_entries (batch_id, id);

CREATE TABLE custody_records (
    id           BIGSERIAL PRIMARY KEY,
    batch_id     TEXT        NOT NULL,
    from_actor   TEXT        NOT NULL,
    to_actor     TEXT        NOT NULL,
    initiated_at TIMESTAMPTZ NOT NULL,
    location     TEXT        NOT NULL DEFAULT '',
    notes        TEXT        NOT NULL DEFAULT '',
    received     BOOLEAN     NOT NULL DEFAULT FALSE,
    received_at  TIMESTAMPTZ
);
CREATE INDEX custody_records_batch_idx ON custody_records (batch_id, id);

CREATE TABLE prescriptions (
    id          TEXT PRIMARY KEY,
    patient     TEXT        NOT NULL,
    patient_id  TEXT        NOT NULL,
    doctor_id   TEXT        NOT NULL,
    drug_id     TEXT        NOT NULL,
    dosage      TEXT        NOT NULL,
    issued_at   TIMESTAMPTZ NOT NULL,
    expiry      TIMESTAMPTZ NOT NULL,
    filled      BOOLEAN     NOT NULL DEFAULT FALSE,
    pharmacy_id TEXT        NOT NULL DEFAULT '',
    filled_at   TIMESTAMPTZ,
    notes       TEXT        NOT NULL DEFAULT ''
);

CREATE TABLE recalls (
    id        BIGSERIAL PRIMARY KEY,
    batch_id  TEXT        NOT NULL,
    reason    TEXT        NOT NULL,
    issued_at TIMESTAMPTZ NOT NULL,
    issued_by TEXT        NOT NULL,
    active    BOOLEAN     NOT NULL DEFAULT TRUE,
    regions   TEXT[]      NOT NULL DEFAULT '{}',
    severity  INT         NOT NULL
);
CREATE INDEX recalls_batch_idx ON recalls (batch_id, id);
`

// PostgresContainer wraps a testcontainers PostgreSQL instance with the
// pharmatrace schema applied.
type PostgresContainer struct {
	Container testcontainers.Container
	DSN       string
	DB        *sql.DB
}

// NewPostgresContainer starts a PostgreSQL container and applies the schema.
func NewPostgresContainer(t *testing.T) *PostgresContainer {
	t.Helper()
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("pharmatrace"),
		tcpostgres.WithUsername("pharmatrace"),
		tcpostgres.WithPassword("pharmatrace"),
		tcpostgres.BasicWaitStrategies(),
	)
	if err != nil {
		t.Fatalf("failed to start postgres container: %v", err)
	}

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		_ = container.Terminate(ctx)
		t.Fatalf("failed to get postgres connection string: %v", err)
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		_ = container.Terminate(ctx)
		t.Fatalf("failed to open postgres connection: %v", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		_ = container.Terminate(ctx)
		t.Fatalf("failed to ping postgres: %v", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		_ = container.Terminate(ctx)
		t.Fatalf("failed to apply schema: %v", err)
	}

	return &PostgresContainer{Container: container, DSN: dsn, DB: db}
}

// TruncateTables clears the given tables and restarts their id sequences.
func (p *PostgresContainer) TruncateTables(ctx context.Context, tables ...string) error {
	if len(tables) == 0 {
		return nil
	}
	_, err := p.DB.ExecContext(ctx,
		fmt.Sprintf("TRUNCATE %s RESTART IDENTITY CASCADE", strings.Join(tables, ", ")))
	if err != nil {
		return err
	}
	// RESTART IDENTITY resets sequences to their start value, which for the
	// audit trail is 0.
	return nil
}

// Exec runs a statement against the container database.
func (p *PostgresContainer) Exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return p.DB.ExecContext(ctx, query, args...)
}
