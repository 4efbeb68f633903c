package runtime

import (
	"context"
	"io"
	"log/slog"
	"time"
)

// Executor runs parameterized statements against the database.
// Placeholders are positional ($1..$n) and args are bound out of band.
type Executor interface {
	// Query runs a statement that returns rows.
	Query(ctx context.Context, sql string, args ...any) (*Result, error)
	// Exec runs a statement and returns the number of affected rows.
	Exec(ctx context.Context, sql string, args ...any) (int64, error)
}

// Transactor is implemented by executors that can scope work in a transaction.
// The transaction is committed when fn returns nil and rolled back otherwise.
type Transactor interface {
	InTx(ctx context.Context, fn func(Executor) error) error
}

// Result holds the rows returned by a statement.
type Result struct {
	Columns  []string
	Rows     []map[string]any
	RowCount int64
}

// First returns the first row or nil when the result is empty.
func (r *Result) First() map[string]any {
	if r == nil || len(r.Rows) == 0 {
		return nil
	}
	return r.Rows[0]
}

// Empty reports whether the result has no rows.
func (r *Result) Empty() bool {
	return r == nil || len(r.Rows) == 0
}

// normalizeValue converts driver values into the types callers compare against.
func normalizeValue(v any) any {
	if b, ok := v.([]byte); ok {
		return string(b)
	}
	return v
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func logStatement(ctx context.Context, logger *slog.Logger, sql string, args []any, start time.Time, err error) {
	if err != nil {
		logger.DebugContext(ctx, "statement failed", "sql", sql, "args", args, "duration", time.Since(start), "error", err)
		return
	}
	logger.DebugContext(ctx, "statement executed", "sql", sql, "args", args, "duration", time.Since(start))
}
