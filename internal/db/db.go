// Package db owns the connection pool to the relational store and hands out
// scoped transactional sessions.
package db

import (
	"context"
	"database/sql"
	"time"

	_ "github.com/lib/pq"

	"github.com/stockresearch/backend/internal/errors"
	"github.com/stockresearch/backend/internal/observability"
)

// Options bound the pool. PoolSize connections are kept warm; bursts may open
// up to PoolSize+MaxOverflow before further callers block on acquisition.
type Options struct {
	PoolSize        int
	MaxOverflow     int
	ConnMaxLifetime time.Duration

	// SessionTimeout bounds a whole unit of work, acquisition included.
	// Zero means block until the caller's context is done.
	SessionTimeout time.Duration
}

// DB provides request-scoped sessions against a pooled postgres connection.
type DB struct {
	sql            *sql.DB
	sessionTimeout time.Duration
}

// New opens the pool for the given connection string. Opening is lazy: an
// unreachable store surfaces through Probe, not here, so a database outage
// never prevents process start.
func New(databaseURL string, opts Options) (*DB, error) {
	sqldb, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, errors.NewPermanentf("opening database: %w", err)
	}

	sqldb.SetMaxOpenConns(opts.PoolSize + opts.MaxOverflow)
	sqldb.SetMaxIdleConns(opts.PoolSize)
	if opts.ConnMaxLifetime > 0 {
		sqldb.SetConnMaxLifetime(opts.ConnMaxLifetime)
	}

	return &DB{sql: sqldb, sessionTimeout: opts.SessionTimeout}, nil
}

// WithSession runs fn inside a request-scoped transaction: one logical unit
// of work per session. The transaction commits when fn returns nil; on error,
// panic, or context cancellation the rollback runs before the connection
// returns to the pool. Sessions must not be shared across concurrent
// requests; acquire one per unit of work.
func (d *DB) WithSession(ctx context.Context, fn func(tx *sql.Tx) error) error {
	if d.sessionTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.sessionTimeout)
		defer cancel()
	}

	tx, err := d.sql.BeginTx(ctx, nil)
	if err != nil {
		return errors.NewTransientf("beginning session: %w", err)
	}
	observability.GetMetrics().SessionsStarted.Inc()

	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
			observability.GetMetrics().SessionsRolledBack.Inc()
		}
	}()

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return errors.NewTransientf("committing session: %w", err)
	}
	committed = true
	observability.GetMetrics().SessionsCommitted.Inc()

	return nil
}

// Probe runs the liveness query through a scoped session. It confirms the
// store is reachable and answering; it reads nothing and writes nothing.
func (d *DB) Probe(ctx context.Context) error {
	return d.WithSession(ctx, func(tx *sql.Tx) error {
		var one int
		if err := tx.QueryRowContext(ctx, "SELECT 1").Scan(&one); err != nil {
			return errors.NewTransientf("liveness query: %w", err)
		}
		return nil
	})
}

// Stats reports pool counters for the metrics collector.
func (d *DB) Stats() sql.DBStats {
	return d.sql.Stats()
}

// Close releases the pool.
func (d *DB) Close() error {
	return d.sql.Close()
}
