package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite"
)

// Supported database/sql driver names.
const (
	DriverPostgres = "pgx"
	DriverSQLite   = "sqlite"
	DriverMemory   = "memory"
)

// Options configures a SQLStore.
type Options struct {
	Driver       string
	DSN          string
	MaxOpenConns int
	QueryTimeout time.Duration
	// WriteTimeout bounds each upsert batch transaction.
	WriteTimeout time.Duration
	Backoff      BackoffConfig
	// TripAfter is the number of consecutive failures that opens the breaker.
	TripAfter uint32
}

func init() {
	// modernc registers itself as "sqlite", which sqlx does not know by name.
	sqlx.BindDriver(DriverSQLite, sqlx.QUESTION)
}

// DefaultWriteTimeout is used when Options.WriteTimeout is left zero.
const DefaultWriteTimeout = time.Minute

// upsertBatchSize is the number of rows written per transaction.
var upsertBatchSize = 500

// DefaultBackoff is used when Options.Backoff is left zero.
var DefaultBackoff = BackoffConfig{
	MaxRetries:      2,
	InitialInterval: 100 * time.Millisecond,
	MaxInterval:     2 * time.Second,
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS energy_usage (
		city_id    INTEGER NOT NULL,
		county_id  INTEGER NOT NULL,
		year_month INTEGER NOT NULL,
		use_elect  DOUBLE PRECISION NOT NULL DEFAULT 0,
		use_gas    DOUBLE PRECISION NOT NULL DEFAULT 0,
		PRIMARY KEY (city_id, county_id, year_month)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_energy_usage_county ON energy_usage (county_id, year_month)`,
	`CREATE TABLE IF NOT EXISTS energy_forecast (
		city_id    INTEGER NOT NULL,
		county_id  INTEGER NOT NULL,
		year_month INTEGER NOT NULL,
		pre_elect  DOUBLE PRECISION NOT NULL DEFAULT 0,
		pre_gas    DOUBLE PRECISION NOT NULL DEFAULT 0,
		PRIMARY KEY (city_id, county_id, year_month)
	)`,
	`CREATE TABLE IF NOT EXISTS temperature (
		city_id    INTEGER NOT NULL,
		year_month INTEGER NOT NULL,
		avg_temp   DOUBLE PRECISION NOT NULL,
		min_temp   DOUBLE PRECISION NOT NULL,
		max_temp   DOUBLE PRECISION NOT NULL,
		PRIMARY KEY (city_id, year_month)
	)`,
}

// SQLStore implements the energy and temperature DAOs over a relational database.
type SQLStore struct {
	db           *sqlx.DB
	guard        *guard
	writeTimeout time.Duration
}

// Open connects to the configured database and verifies the connection.
func Open(ctx context.Context, opts Options) (*SQLStore, error) {
	switch opts.Driver {
	case DriverPostgres, DriverSQLite:
	default:
		return nil, fmt.Errorf("unsupported database driver %q", opts.Driver)
	}

	db, err := sqlx.Open(opts.Driver, opts.DSN)
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", opts.Driver, err)
	}

	if opts.Driver == DriverSQLite {
		// A second connection to an in-memory sqlite database is a different database.
		db.SetMaxOpenConns(1)
	} else if opts.MaxOpenConns > 0 {
		db.SetMaxOpenConns(opts.MaxOpenConns)
		db.SetMaxIdleConns(opts.MaxOpenConns)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping %s database: %w", opts.Driver, err)
	}

	log.Info().Str("driver", opts.Driver).Msg("database connection established")
	return NewSQLStore(db, opts), nil
}

// NewSQLStore wraps an existing connection pool.
func NewSQLStore(db *sqlx.DB, opts Options) *SQLStore {
	backoff := opts.Backoff
	if backoff.InitialInterval <= 0 {
		backoff = DefaultBackoff
	}
	writeTimeout := opts.WriteTimeout
	if writeTimeout <= 0 {
		writeTimeout = DefaultWriteTimeout
	}
	return &SQLStore{
		db:           db,
		guard:        newGuard("store-"+db.DriverName(), backoff, opts.QueryTimeout, opts.TripAfter),
		writeTimeout: writeTimeout,
	}
}

// Migrate creates the tables if they do not exist.
func (s *SQLStore) Migrate(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

// Ping checks that the database is reachable.
func (s *SQLStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close releases the connection pool.
func (s *SQLStore) Close() error {
	return s.db.Close()
}

// selectAll runs a query built from base and the where clause and scans every row.
// The result is reset before each attempt so a retried query never duplicates rows.
func selectAll[T any](ctx context.Context, s *SQLStore, op, base string, w *where) ([]T, error) {
	query := s.db.Rebind(fmt.Sprintf(base, w.String()))

	var out []T
	err := s.guard.do(ctx, op, func(ctx context.Context) error {
		out = nil
		return s.db.SelectContext(ctx, &out, query, w.args...)
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return out, nil
}

// upsertAll writes rows with a prepared named statement in batches of
// upsertBatchSize, one transaction per batch. A failed batch is retried on its
// own; batches committed before it stay committed and are counted.
func upsertAll[T any](ctx context.Context, s *SQLStore, op, stmt string, rows []T) (int, error) {
	written := 0
	for start := 0; start < len(rows); start += upsertBatchSize {
		end := min(start+upsertBatchSize, len(rows))
		batch := rows[start:end]

		err := s.guard.run(ctx, op, s.writeTimeout, func(ctx context.Context) error {
			return upsertBatch(ctx, s.db, stmt, batch)
		})
		if err != nil {
			return written, fmt.Errorf("%s: rows %d-%d: %w", op, start, end-1, err)
		}
		written += len(batch)
	}
	return written, nil
}

func upsertBatch[T any](ctx context.Context, db *sqlx.DB, stmt string, batch []T) error {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	prepared, err := tx.PrepareNamedContext(ctx, stmt)
	if err != nil {
		return err
	}
	defer prepared.Close()

	for _, row := range batch {
		if _, err := prepared.ExecContext(ctx, row); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// where accumulates AND-ed conditions with their bind arguments.
type where struct {
	clauses []string
	args    []interface{}
}

func (w *where) add(clause string, args ...interface{}) {
	w.clauses = append(w.clauses, clause)
	w.args = append(w.args, args...)
}

// period adds inclusive year-month bounds; zero means unbounded.
func (w *where) period(from, to int) {
	if from > 0 {
		w.add("year_month >= ?", from)
	}
	if to > 0 {
		w.add("year_month <= ?", to)
	}
}

func (w *where) String() string {
	if len(w.clauses) == 0 {
		return ""
	}
	return "WHERE " + strings.Join(w.clauses, " AND ")
}
