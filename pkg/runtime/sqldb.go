package runtime

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	// Registers the "pgx" database/sql driver.
	_ "github.com/jackc/pgx/v5/stdlib"
)

// SQLDB executes statements through database/sql.
// It is used where a *sql.DB is already owned by the caller.
type SQLDB struct {
	db     *sql.DB
	logger *slog.Logger
}

type sqlQuerier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// NewSQLDB wraps an existing *sql.DB.
func NewSQLDB(db *sql.DB) *SQLDB {
	return &SQLDB{db: db, logger: discardLogger()}
}

// OpenSQL opens a database/sql handle using the pgx driver and verifies it.
func OpenSQL(ctx context.Context, dsn string) (*SQLDB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, &ConnectionError{Err: fmt.Errorf("failed to open database: %w", err)}
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, &ConnectionError{Err: fmt.Errorf("failed to ping database: %w", err)}
	}
	return NewSQLDB(db), nil
}

// WithLogger sets the logger used for statement tracing.
func (s *SQLDB) WithLogger(logger *slog.Logger) *SQLDB {
	if logger != nil {
		s.logger = logger
	}
	return s
}

// DB returns the wrapped handle.
func (s *SQLDB) DB() *sql.DB {
	return s.db
}

// Close closes the wrapped handle.
func (s *SQLDB) Close() error {
	return s.db.Close()
}

// Query executes a statement and collects every returned row.
func (s *SQLDB) Query(ctx context.Context, query string, args ...any) (*Result, error) {
	return querySQL(ctx, s.db, s.logger, query, args)
}

// Exec executes a statement without returning any rows.
func (s *SQLDB) Exec(ctx context.Context, query string, args ...any) (int64, error) {
	return execSQL(ctx, s.db, s.logger, query, args)
}

// InTx runs fn inside a database/sql transaction.
func (s *SQLDB) InTx(ctx context.Context, fn func(Executor) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	if err := fn(&sqlTxExecutor{tx: tx, logger: s.logger}); err != nil {
		_ = tx.Rollback()
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

type sqlTxExecutor struct {
	tx     *sql.Tx
	logger *slog.Logger
}

func (t *sqlTxExecutor) Query(ctx context.Context, query string, args ...any) (*Result, error) {
	return querySQL(ctx, t.tx, t.logger, query, args)
}

func (t *sqlTxExecutor) Exec(ctx context.Context, query string, args ...any) (int64, error) {
	return execSQL(ctx, t.tx, t.logger, query, args)
}

func querySQL(ctx context.Context, q sqlQuerier, logger *slog.Logger, query string, args []any) (*Result, error) {
	start := time.Now()
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		logStatement(ctx, logger, query, args, start, err)
		return nil, &QueryExecutionError{Query: query, Err: err}
	}
	defer rows.Close()

	result, err := collectSQLRows(rows)
	logStatement(ctx, logger, query, args, start, err)
	if err != nil {
		return nil, &QueryExecutionError{Query: query, Err: err}
	}
	return result, nil
}

func collectSQLRows(rows *sql.Rows) (*Result, error) {
	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	result := &Result{Columns: columns, Rows: []map[string]any{}}
	for rows.Next() {
		values := make([]any, len(columns))
		ptrs := make([]any, len(columns))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}

		row := make(map[string]any, len(columns))
		for i, col := range columns {
			row[col] = normalizeValue(values[i])
		}
		result.Rows = append(result.Rows, row)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	result.RowCount = int64(len(result.Rows))
	return result, nil
}

func execSQL(ctx context.Context, q sqlQuerier, logger *slog.Logger, query string, args []any) (int64, error) {
	start := time.Now()
	res, err := q.ExecContext(ctx, query, args...)
	logStatement(ctx, logger, query, args, start, err)
	if err != nil {
		return 0, &QueryExecutionError{Query: query, Err: err}
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, &QueryExecutionError{Query: query, Err: err}
	}
	return n, nil
}
