package migration

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/marshallshelly/babyorm/pkg/runtime"
)

// DefaultLockID is the advisory lock key taken while migrating.
const DefaultLockID int64 = 7_235_114_901

const createTrackingTable = `
CREATE TABLE IF NOT EXISTS schema_migrations (
	version VARCHAR(14) PRIMARY KEY,
	name VARCHAR(255) NOT NULL,
	status VARCHAR(20) NOT NULL DEFAULT 'pending',
	applied_at TIMESTAMP,
	error TEXT,
	created_at TIMESTAMP NOT NULL DEFAULT NOW()
)`

// Executor applies migrations and tracks them in schema_migrations.
type Executor struct {
	pool     *pgxpool.Pool
	lockID   int64
	lockConn *pgxpool.Conn
	logger   *slog.Logger
	now      func() time.Time
}

// NewExecutor creates an executor on pool.
func NewExecutor(pool *pgxpool.Pool) *Executor {
	return &Executor{
		pool:   pool,
		lockID: DefaultLockID,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:    time.Now,
	}
}

// WithLockID sets the advisory lock key.
func (e *Executor) WithLockID(lockID int64) *Executor {
	e.lockID = lockID
	return e
}

// WithLogger sets the logger.
func (e *Executor) WithLogger(logger *slog.Logger) *Executor {
	if logger != nil {
		e.logger = logger
	}
	return e
}

// Initialize creates schema_migrations when missing.
func (e *Executor) Initialize(ctx context.Context) error {
	if _, err := e.pool.Exec(ctx, createTrackingTable); err != nil {
		return fmt.Errorf("failed to create schema_migrations table: %w", err)
	}
	return nil
}

// Lock takes the advisory lock, waiting for other migrators. The lock is
// held on a dedicated connection until Unlock.
func (e *Executor) Lock(ctx context.Context) error {
	if e.lockConn != nil {
		return errors.New("migration lock already held")
	}
	conn, err := e.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("failed to acquire connection for migration lock: %w", err)
	}
	if _, err := conn.Exec(ctx, "SELECT pg_advisory_lock($1)", e.lockID); err != nil {
		conn.Release()
		return fmt.Errorf("failed to acquire migration lock: %w", err)
	}
	e.lockConn = conn
	return nil
}

// TryLock takes the advisory lock only if it is free.
func (e *Executor) TryLock(ctx context.Context) (bool, error) {
	if e.lockConn != nil {
		return false, errors.New("migration lock already held")
	}
	conn, err := e.pool.Acquire(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to acquire connection for migration lock: %w", err)
	}
	var acquired bool
	if err := conn.QueryRow(ctx, "SELECT pg_try_advisory_lock($1)", e.lockID).Scan(&acquired); err != nil {
		conn.Release()
		return false, fmt.Errorf("failed to try migration lock: %w", err)
	}
	if !acquired {
		conn.Release()
		return false, nil
	}
	e.lockConn = conn
	return true, nil
}

// Unlock releases the advisory lock and its connection.
func (e *Executor) Unlock(ctx context.Context) error {
	if e.lockConn == nil {
		return errors.New("lock was not held")
	}
	conn := e.lockConn
	e.lockConn = nil
	defer conn.Release()

	var released bool
	if err := conn.QueryRow(ctx, "SELECT pg_advisory_unlock($1)", e.lockID).Scan(&released); err != nil {
		return fmt.Errorf("failed to release migration lock: %w", err)
	}
	if !released {
		return errors.New("lock was not held")
	}
	return nil
}

// GetAppliedMigrations returns the applied records ordered by version.
func (e *Executor) GetAppliedMigrations(ctx context.Context) ([]MigrationRecord, error) {
	return e.records(ctx, "WHERE status = 'applied'")
}

// GetAllMigrations returns every record ordered by version.
func (e *Executor) GetAllMigrations(ctx context.Context) ([]MigrationRecord, error) {
	return e.records(ctx, "")
}

func (e *Executor) records(ctx context.Context, where string) ([]MigrationRecord, error) {
	rows, err := e.pool.Query(ctx,
		"SELECT version, name, status, applied_at, error FROM schema_migrations "+where+" ORDER BY version ASC")
	if err != nil {
		return nil, fmt.Errorf("failed to query migrations: %w", err)
	}
	records, err := pgx.CollectRows(rows, pgx.RowToStructByName[MigrationRecord])
	if err != nil {
		return nil, fmt.Errorf("failed to scan migration record: %w", err)
	}
	return records, nil
}

// IsMigrationApplied reports whether version is recorded as applied.
func (e *Executor) IsMigrationApplied(ctx context.Context, version string) (bool, error) {
	var applied bool
	err := e.pool.QueryRow(ctx,
		"SELECT EXISTS (SELECT 1 FROM schema_migrations WHERE version = $1 AND status = 'applied')",
		version,
	).Scan(&applied)
	if err != nil {
		return false, fmt.Errorf("failed to check migration status: %w", err)
	}
	return applied, nil
}

// Apply runs the queries of m in order inside one transaction and records
// it as applied. On failure the transaction is rolled back and the
// migration is recorded as failed with the error text.
func (e *Executor) Apply(ctx context.Context, m Migration, dryRun bool) error {
	applied, err := e.IsMigrationApplied(ctx, m.Version)
	if err != nil {
		return err
	}
	if applied {
		return &runtime.MigrationError{Version: m.Version, Message: "already applied", Err: errAlreadyApplied}
	}
	if dryRun {
		e.logger.InfoContext(ctx, "dry run", "version", m.Version, "name", m.Name, "queries", len(m.Queries))
		return nil
	}

	runErr := pgx.BeginFunc(ctx, e.pool, func(tx pgx.Tx) error {
		for i, stmt := range m.Queries {
			if _, err := tx.Exec(ctx, stmt); err != nil {
				return fmt.Errorf("statement %d failed: %w", i+1, err)
			}
		}
		_, err := tx.Exec(ctx, `
			INSERT INTO schema_migrations (version, name, status, applied_at, error)
			VALUES ($1, $2, 'applied', $3, NULL)
			ON CONFLICT (version) DO UPDATE
			SET name = EXCLUDED.name, status = 'applied', applied_at = EXCLUDED.applied_at, error = NULL`,
			m.Version, m.Name, e.now())
		return err
	})
	if runErr == nil {
		e.logger.InfoContext(ctx, "migration applied", "version", m.Version, "name", m.Name)
		return nil
	}

	if _, err := e.pool.Exec(ctx, `
		INSERT INTO schema_migrations (version, name, status, error)
		VALUES ($1, $2, 'failed', $3)
		ON CONFLICT (version) DO UPDATE SET status = 'failed', error = EXCLUDED.error`,
		m.Version, m.Name, runErr.Error()); err != nil {
		e.logger.WarnContext(ctx, "failed to record migration failure", "version", m.Version, "error", err)
	}
	return &runtime.MigrationError{Version: m.Version, Message: "apply failed", Err: runErr}
}

// Rollback runs the down queries of m and removes its record.
func (e *Executor) Rollback(ctx context.Context, m Migration, dryRun bool) error {
	applied, err := e.IsMigrationApplied(ctx, m.Version)
	if err != nil {
		return err
	}
	if !applied {
		return &runtime.MigrationError{Version: m.Version, Message: "not applied", Err: errNotApplied}
	}
	if len(m.Down) == 0 {
		return &runtime.MigrationError{Version: m.Version, Message: "no down queries", Err: runtime.ErrNotImplemented}
	}
	if dryRun {
		return nil
	}

	err = pgx.BeginFunc(ctx, e.pool, func(tx pgx.Tx) error {
		for i, stmt := range m.Down {
			if _, err := tx.Exec(ctx, stmt); err != nil {
				return fmt.Errorf("statement %d failed: %w", i+1, err)
			}
		}
		_, err := tx.Exec(ctx, "DELETE FROM schema_migrations WHERE version = $1", m.Version)
		return err
	})
	if err != nil {
		return &runtime.MigrationError{Version: m.Version, Message: "rollback failed", Err: err}
	}
	e.logger.InfoContext(ctx, "migration rolled back", "version", m.Version)
	return nil
}

// ApplyAll applies the pending migrations in order and stops at the first
// failure. It returns how many were applied.
func (e *Executor) ApplyAll(ctx context.Context, migrations []Migration, dryRun bool) (int, error) {
	applied, err := e.GetAppliedMigrations(ctx)
	if err != nil {
		return 0, err
	}
	done := make(map[string]bool, len(applied))
	for _, r := range applied {
		done[r.Version] = true
	}

	n := 0
	for _, m := range Pending(migrations, done) {
		if err := e.Apply(ctx, m, dryRun); err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}

// GetStatus merges the tracking table with the migration files.
func (e *Executor) GetStatus(ctx context.Context, migrations []Migration) ([]MigrationRecord, error) {
	records, err := e.GetAllMigrations(ctx)
	if err != nil {
		return nil, err
	}
	return MergeStatus(migrations, records), nil
}

// Validate fails when the tracking table names versions with no file.
func (e *Executor) Validate(ctx context.Context, migrations []Migration) error {
	records, err := e.GetAllMigrations(ctx)
	if err != nil {
		return err
	}
	if missing := MissingFiles(migrations, records); len(missing) > 0 {
		return fmt.Errorf("missing migration files: %v", missing)
	}
	return nil
}
