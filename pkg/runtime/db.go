package runtime

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DB executes statements on a pgx connection pool.
type DB struct {
	pool   *pgxpool.Pool
	config *Config
	logger *slog.Logger
}

// Config represents database configuration.
type Config struct {
	Host     string
	Port     int
	Database string
	User     string
	Password string
	SSLMode  string
	MaxConns int32
	MinConns int32
}

// pgxQuerier is satisfied by both *pgxpool.Pool and pgx.Tx.
type pgxQuerier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// NewDB creates a new DB instance from a connection pool.
func NewDB(pool *pgxpool.Pool) *DB {
	return &DB{
		pool:   pool,
		config: &Config{},
		logger: discardLogger(),
	}
}

// Connect creates a new DB instance by connecting to PostgreSQL.
func Connect(ctx context.Context, config *Config) (*DB, error) {
	poolConfig, err := pgxpool.ParseConfig(buildConnectionString(config))
	if err != nil {
		return nil, &ConnectionError{Err: fmt.Errorf("failed to parse config: %w", err)}
	}

	if config.MaxConns > 0 {
		poolConfig.MaxConns = config.MaxConns
	}
	if config.MinConns > 0 {
		poolConfig.MinConns = config.MinConns
	}

	db, err := connect(ctx, poolConfig)
	if err != nil {
		return nil, err
	}
	db.config = config
	return db, nil
}

// ConnectWithURL creates a new DB instance using a connection URL.
func ConnectWithURL(ctx context.Context, url string) (*DB, error) {
	poolConfig, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, &ConnectionError{Err: fmt.Errorf("failed to parse connection URL: %w", err)}
	}
	return connect(ctx, poolConfig)
}

func connect(ctx context.Context, poolConfig *pgxpool.Config) (*DB, error) {
	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, &ConnectionError{Err: fmt.Errorf("failed to create connection pool: %w", err)}
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, &ConnectionError{Err: fmt.Errorf("failed to ping database: %w", err)}
	}

	return &DB{
		pool:   pool,
		config: &Config{},
		logger: discardLogger(),
	}, nil
}

// WithLogger sets the logger used for statement tracing.
func (db *DB) WithLogger(logger *slog.Logger) *DB {
	if logger != nil {
		db.logger = logger
	}
	return db
}

// Pool returns the underlying pgxpool.Pool.
func (db *DB) Pool() *pgxpool.Pool {
	return db.pool
}

// Close closes the database connection pool.
func (db *DB) Close() {
	if db.pool != nil {
		db.pool.Close()
	}
}

// Ping verifies the database connection is alive.
func (db *DB) Ping(ctx context.Context) error {
	if db.pool == nil {
		return ErrNoConnection
	}
	return db.pool.Ping(ctx)
}

// Query executes a statement and collects every returned row.
func (db *DB) Query(ctx context.Context, sql string, args ...any) (*Result, error) {
	if db.pool == nil {
		return nil, ErrNoConnection
	}
	return queryPgx(ctx, db.pool, db.logger, sql, args)
}

// Exec executes a statement without returning any rows.
func (db *DB) Exec(ctx context.Context, sql string, args ...any) (int64, error) {
	if db.pool == nil {
		return 0, ErrNoConnection
	}
	return execPgx(ctx, db.pool, db.logger, sql, args)
}

// InTx runs fn inside a transaction bound to a single pooled connection.
func (db *DB) InTx(ctx context.Context, fn func(Executor) error) error {
	if db.pool == nil {
		return ErrNoConnection
	}

	tx, err := db.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(&pgxTxExecutor{tx: tx, logger: db.logger}); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

type pgxTxExecutor struct {
	tx     pgx.Tx
	logger *slog.Logger
}

func (t *pgxTxExecutor) Query(ctx context.Context, sql string, args ...any) (*Result, error) {
	return queryPgx(ctx, t.tx, t.logger, sql, args)
}

func (t *pgxTxExecutor) Exec(ctx context.Context, sql string, args ...any) (int64, error) {
	return execPgx(ctx, t.tx, t.logger, sql, args)
}

func queryPgx(ctx context.Context, q pgxQuerier, logger *slog.Logger, sql string, args []any) (*Result, error) {
	start := time.Now()
	rows, err := q.Query(ctx, sql, args...)
	if err != nil {
		logStatement(ctx, logger, sql, args, start, err)
		return nil, &QueryExecutionError{Query: sql, Err: err}
	}

	fields := rows.FieldDescriptions()
	columns := make([]string, len(fields))
	for i, f := range fields {
		columns[i] = f.Name
	}

	records, err := pgx.CollectRows(rows, pgx.RowToMap)
	logStatement(ctx, logger, sql, args, start, err)
	if err != nil {
		return nil, &QueryExecutionError{Query: sql, Err: err}
	}

	for _, rec := range records {
		for k, v := range rec {
			rec[k] = normalizeValue(v)
		}
	}

	return &Result{
		Columns:  columns,
		Rows:     records,
		RowCount: rows.CommandTag().RowsAffected(),
	}, nil
}

func execPgx(ctx context.Context, q pgxQuerier, logger *slog.Logger, sql string, args []any) (int64, error) {
	start := time.Now()
	tag, err := q.Exec(ctx, sql, args...)
	logStatement(ctx, logger, sql, args, start, err)
	if err != nil {
		return 0, &QueryExecutionError{Query: sql, Err: err}
	}
	return tag.RowsAffected(), nil
}

// buildConnectionString builds a PostgreSQL connection string from config.
func buildConnectionString(config *Config) string {
	sslMode := config.SSLMode
	if sslMode == "" {
		sslMode = "prefer"
	}

	port := config.Port
	if port == 0 {
		port = 5432
	}

	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		config.Host,
		port,
		config.User,
		config.Password,
		config.Database,
		sslMode,
	)
}

// ConnectionString renders the config as a libpq keyword/value string.
func (c *Config) ConnectionString() string {
	return buildConnectionString(c)
}

// DefaultConfig returns a default database configuration.
func DefaultConfig() *Config {
	return &Config{
		Host:     "localhost",
		Port:     5432,
		Database: "postgres",
		User:     "postgres",
		Password: "",
		SSLMode:  "prefer",
		MaxConns: 10,
		MinConns: 2,
	}
}
