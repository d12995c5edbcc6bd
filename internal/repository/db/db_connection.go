package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

const sqliteDriverName = "sqlite"

// DefaultBusyTimeout is used when InitDB gets a non-positive timeout.
const DefaultBusyTimeout = 5 * time.Second

// InitDB opens (or creates) the SQLite event log at path, applies connection
// pragmas and makes sure the pump_events table exists. ":memory:" works for tests.
func InitDB(ctx context.Context, path string, busyTimeout time.Duration) (*sql.DB, error) {
	conn, err := sql.Open(sqliteDriverName, path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite at %q: %w", path, err)
	}
	// one writer at a time; pragmas are per connection
	conn.SetMaxOpenConns(1)
	conn.SetMaxIdleConns(1)

	if err := setup(ctx, conn, busyTimeout); err != nil {
		_ = conn.Close()
		return nil, err
	}
	return conn, nil
}

func setup(ctx context.Context, conn *sql.DB, busyTimeout time.Duration) error {
	for _, p := range pragmas(busyTimeout) {
		if _, err := conn.ExecContext(ctx, p); err != nil {
			return fmt.Errorf("apply %q: %w", p, err)
		}
	}
	if err := ensureSchema(ctx, conn); err != nil {
		return err
	}
	if err := conn.PingContext(ctx); err != nil {
		return fmt.Errorf("ping sqlite: %w", err)
	}
	return nil
}

func pragmas(busyTimeout time.Duration) []string {
	if busyTimeout <= 0 {
		busyTimeout = DefaultBusyTimeout
	}
	return []string{
		"PRAGMA journal_mode = WAL;",
		fmt.Sprintf("PRAGMA busy_timeout = %d;", busyTimeout.Milliseconds()),
		"PRAGMA synchronous = NORMAL;",
	}
}

const schemaPumpEvents = `
CREATE TABLE IF NOT EXISTS pump_events (
    id TEXT PRIMARY KEY,
    occurred_at TIMESTAMP NOT NULL,
    type TEXT NOT NULL,
    description TEXT NOT NULL,
    meta TEXT
);
`

const schemaPumpEventsIndex = `
CREATE INDEX IF NOT EXISTS idx_pump_events_occurred_at ON pump_events (occurred_at);
`

var schemaStatements = []string{
	schemaPumpEvents,
	schemaPumpEventsIndex,
}

// ensureSchema applies schemaStatements in one transaction.
func ensureSchema(ctx context.Context, conn *sql.DB) error {
	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for i, stmt := range schemaStatements {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema statement %d: %w", i+1, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema transaction: %w", err)
	}
	return nil
}
