package db

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"time"
)

//go:embed scripts/initdb.sql
var initSQL string

const (
	schemaVersion = 1

	// bootstrapLockID keys the advisory lock that serializes schema setup
	// between the API server and csrctl.
	bootstrapLockID = 0x637372
)

// EnsureBootstrapped applies scripts/initdb.sql when csrdesk_meta is absent or
// records an older schema version.
func EnsureBootstrapped(ctx context.Context, db *sql.DB) error {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Minute)
	defer cancel()

	conn, err := db.Conn(ctx)
	if err != nil {
		return fmt.Errorf("bootstrap conn: %w", err)
	}
	defer conn.Close()

	if _, err := conn.ExecContext(ctx, `SELECT pg_advisory_lock($1)`, bootstrapLockID); err != nil {
		return fmt.Errorf("bootstrap lock: %w", err)
	}
	defer conn.ExecContext(context.Background(), `SELECT pg_advisory_unlock($1)`, bootstrapLockID)

	current, err := appliedVersion(ctx, conn)
	if err != nil {
		return err
	}
	if current >= schemaVersion {
		return nil
	}

	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin bootstrap: %w", err)
	}
	if _, err := tx.ExecContext(ctx, initSQL); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("apply schema v%d: %w", schemaVersion, err)
	}
	return tx.Commit()
}

// appliedVersion returns the highest recorded schema version, 0 when the
// meta table does not exist yet.
func appliedVersion(ctx context.Context, conn *sql.Conn) (int, error) {
	var hasMeta bool
	if err := conn.QueryRowContext(ctx, `SELECT to_regclass('public.csrdesk_meta') IS NOT NULL`).Scan(&hasMeta); err != nil {
		return 0, fmt.Errorf("meta table check: %w", err)
	}
	if !hasMeta {
		return 0, nil
	}
	var v int
	if err := conn.QueryRowContext(ctx, `SELECT COALESCE(MAX(version), 0) FROM csrdesk_meta`).Scan(&v); err != nil {
		return 0, fmt.Errorf("meta version check: %w", err)
	}
	return v, nil
}
