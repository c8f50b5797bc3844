// Callwatch - Voice Session Failure Analytics
// Copyright 2026 Callwatch Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/callwatchio/callwatch

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/duckdb/duckdb-go/v2"
	_ "github.com/jackc/pgx/v5/stdlib"
	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"github.com/callwatchio/callwatch/internal/config"
	"github.com/callwatchio/callwatch/internal/logging"
	"github.com/callwatchio/callwatch/internal/metrics"
	"github.com/callwatchio/callwatch/internal/models"
)

// DriverDuckDB and DriverPostgres are the supported record store backends.
const (
	DriverDuckDB   = "duckdb"
	DriverPostgres = "postgres"
)

// fetchQueryDuckDB and fetchQueryPostgres select session records joined
// with user names for a half-open time window [from, to).
const fetchQueryDuckDB = `
SELECT c.session_id, u.name, c.exotel_call_sid
FROM calllog c
JOIN users u ON c.user_id = u.user_id
WHERE c.created_on >= ? AND c.created_on < ?
ORDER BY c.created_on DESC`

const fetchQueryPostgres = `
SELECT c.session_id, u.name, c.exotel_call_sid
FROM public.calllog c
JOIN public."user" u ON c.user_id = u.user_id
WHERE c.created_on >= $1 AND c.created_on < $2
ORDER BY c.created_on DESC`

// DB wraps the record store connection pool with retry, rate limiting,
// and circuit breaker protection.
type DB struct {
	conn       *sql.DB
	cfg        *config.DatabaseConfig
	fetchQuery string
	limiter    *rate.Limiter
	breaker    *gobreaker.CircuitBreaker[[]models.SessionRecord]
}

// New opens the record store selected by cfg.Driver and verifies
// connectivity within the configured connect timeout. In duckdb mode it
// also initializes the schema and optionally seeds mock data.
func New(cfg *config.DatabaseConfig) (*DB, error) {
	var (
		conn       *sql.DB
		fetchQuery string
		err        error
	)

	switch cfg.Driver {
	case DriverDuckDB:
		conn, err = openDuckDB(cfg)
		fetchQuery = fetchQueryDuckDB
	case DriverPostgres:
		conn, err = sql.Open("pgx", cfg.URL)
		fetchQuery = fetchQueryPostgres
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open %s record store: %w", cfg.Driver, err)
	}

	db := &DB{
		conn:       conn,
		cfg:        cfg,
		fetchQuery: fetchQuery,
		breaker:    newFetchBreaker(cfg.Driver),
	}
	if cfg.QueriesPerSecond > 0 {
		db.limiter = rate.NewLimiter(rate.Limit(cfg.QueriesPerSecond), 1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ConnectTimeout)
	defer cancel()
	if err := db.conn.PingContext(ctx); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("record store ping failed: %w", err)
	}

	if cfg.Driver == DriverDuckDB {
		if err := db.initSchema(ctx); err != nil {
			_ = conn.Close()
			return nil, fmt.Errorf("failed to initialize schema: %w", err)
		}
		if cfg.SeedMockData {
			if err := db.seedMockData(ctx); err != nil {
				_ = conn.Close()
				return nil, fmt.Errorf("failed to seed mock data: %w", err)
			}
		}
	}

	logging.Info().
		Str("driver", cfg.Driver).
		Msg("Record store connected")

	return db, nil
}

// openDuckDB opens the embedded store, creating the parent directory for
// the database file when needed.
func openDuckDB(cfg *config.DatabaseConfig) (*sql.DB, error) {
	dbDir := filepath.Dir(cfg.Path)
	if dbDir != "" && dbDir != "." {
		if err := os.MkdirAll(dbDir, 0o750); err != nil {
			return nil, fmt.Errorf("failed to create database directory %s: %w", dbDir, err)
		}
	}

	connStr := fmt.Sprintf("%s?access_mode=read_write&max_memory=%s", cfg.Path, cfg.MaxMemory)
	return sql.Open("duckdb", connStr)
}

// newFetchBreaker builds the circuit breaker guarding record store
// fetches. It opens after a 60% failure rate over at least 5 requests
// and retries recovery after 30 seconds.
func newFetchBreaker(driver string) *gobreaker.CircuitBreaker[[]models.SessionRecord] {
	name := "record-store-" + driver
	metrics.BreakerState.WithLabelValues(name).Set(0)

	return gobreaker.NewCircuitBreaker[[]models.SessionRecord](gobreaker.Settings{
		Name:        name,
		MaxRequests: 2,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < 5 {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= 0.6
		},
		// A client abort says nothing about storage health; only real
		// query failures and statement timeouts may open the circuit.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Info().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("Record store breaker state change")
			metrics.BreakerState.WithLabelValues(name).Set(breakerStateValue(to))
			metrics.BreakerTransitions.WithLabelValues(name, from.String(), to.String()).Inc()
		},
	})
}

func breakerStateValue(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	default:
		return 2
	}
}

// FetchSessionRecords returns all session records created within the
// half-open window [from, to), newest first.
//
// Attempts are bounded by max_retries with a fixed delay between them;
// after exhaustion the final attempt's error is surfaced wrapped in a
// DataSourceError. An open circuit fails immediately without retrying.
// Zero rows yields an empty slice and nil error.
func (d *DB) FetchSessionRecords(ctx context.Context, from, to time.Time) ([]models.SessionRecord, error) {
	const op = "fetch_session_records"

	var lastErr error
	attempts := 0

	for attempt := 1; attempt <= d.cfg.MaxRetries; attempt++ {
		if attempt > 1 {
			metrics.DBFetchRetries.Inc()
			select {
			case <-ctx.Done():
				return nil, &DataSourceError{Op: op, Attempts: attempts, Err: ctx.Err()}
			case <-time.After(d.cfg.RetryDelay):
			}
		}

		attempts = attempt
		records, err := d.breaker.Execute(func() ([]models.SessionRecord, error) {
			return d.fetchOnce(ctx, from, to)
		})
		if err == nil {
			return records, nil
		}

		lastErr = err
		metrics.DBQueryErrors.WithLabelValues(op, errorType(err)).Inc()

		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			logging.Ctx(ctx).Warn().Err(err).Msg("Record store fetch rejected by circuit breaker")
			break
		}
		if ctx.Err() != nil {
			break
		}

		logging.Ctx(ctx).Warn().
			Err(err).
			Int("attempt", attempt).
			Int("max_retries", d.cfg.MaxRetries).
			Msg("Record store fetch attempt failed")
	}

	return nil, &DataSourceError{Op: op, Attempts: attempts, Err: lastErr}
}

// fetchOnce runs a single fetch attempt under the rate limiter and the
// per-statement query timeout.
func (d *DB) fetchOnce(ctx context.Context, from, to time.Time) ([]models.SessionRecord, error) {
	if d.limiter != nil {
		if err := d.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	queryCtx, cancel := context.WithTimeout(ctx, d.cfg.QueryTimeout)
	defer cancel()

	start := time.Now()
	rows, err := d.conn.QueryContext(queryCtx, d.fetchQuery, from, to)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	records := make([]models.SessionRecord, 0, 256)
	for rows.Next() {
		var (
			rec models.SessionRecord
			sid sql.NullString
		)
		if err := rows.Scan(&rec.SessionID, &rec.UserName, &sid); err != nil {
			return nil, fmt.Errorf("failed to scan session record: %w", err)
		}
		if sid.Valid {
			rec.CallLegID = &sid.String
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration failed: %w", err)
	}

	metrics.ObserveDBQuery("fetch_session_records", start)
	return records, nil
}

// Ping verifies record store connectivity within the connect timeout.
func (d *DB) Ping(ctx context.Context) error {
	pingCtx, cancel := context.WithTimeout(ctx, d.cfg.ConnectTimeout)
	defer cancel()
	return d.conn.PingContext(pingCtx)
}

// Close releases the connection pool.
func (d *DB) Close() error {
	return d.conn.Close()
}
