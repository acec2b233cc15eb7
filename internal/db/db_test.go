package db

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"

	apperrors "github.com/stockresearch/backend/internal/errors"
)

func newMockDB(t *testing.T) (*DB, sqlmock.Sqlmock) {
	t.Helper()
	sqldb, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("creating sqlmock: %v", err)
	}
	t.Cleanup(func() { sqldb.Close() })
	return &DB{sql: sqldb}, mock
}

func TestWithSession_CommitsOnSuccess(t *testing.T) {
	d, mock := newMockDB(t)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT 1").WillReturnRows(sqlmock.NewRows([]string{"?column?"}).AddRow(1))
	mock.ExpectCommit()

	err := d.WithSession(context.Background(), func(tx *sql.Tx) error {
		var one int
		return tx.QueryRowContext(context.Background(), "SELECT 1").Scan(&one)
	})
	if err != nil {
		t.Fatalf("WithSession failed: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

// The rollback must happen before the connection is released, on every
// failure path. Ordered expectations verify the sequence begin, query,
// rollback with no commit in between.
func TestWithSession_RollsBackOnCallerError(t *testing.T) {
	d, mock := newMockDB(t)

	queryErr := errors.New("relation does not exist")
	mock.ExpectBegin()
	mock.ExpectQuery("SELECT 1").WillReturnError(queryErr)
	mock.ExpectRollback()

	err := d.WithSession(context.Background(), func(tx *sql.Tx) error {
		var one int
		if err := tx.QueryRowContext(context.Background(), "SELECT 1").Scan(&one); err != nil {
			return apperrors.NewTransientf("liveness query: %w", err)
		}
		return nil
	})
	if err == nil {
		t.Fatal("expected caller error to propagate")
	}
	if !errors.Is(err, queryErr) {
		t.Errorf("expected wrapped query error, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestWithSession_RollsBackOnPanic(t *testing.T) {
	d, mock := newMockDB(t)

	mock.ExpectBegin()
	mock.ExpectRollback()

	defer func() {
		if r := recover(); r == nil {
			t.Fatal("expected panic to propagate")
		}
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("unmet expectations: %v", err)
		}
	}()

	_ = d.WithSession(context.Background(), func(tx *sql.Tx) error {
		panic("handler blew up")
	})
}

func TestWithSession_BeginFailureIsTransient(t *testing.T) {
	d, mock := newMockDB(t)

	mock.ExpectBegin().WillReturnError(errors.New("connection refused"))

	err := d.WithSession(context.Background(), func(tx *sql.Tx) error { return nil })
	if err == nil {
		t.Fatal("expected begin failure to surface")
	}
	if !apperrors.IsTransient(err) {
		t.Errorf("begin failure should be transient, got %v", err)
	}
}

func TestProbe_Healthy(t *testing.T) {
	d, mock := newMockDB(t)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT 1").WillReturnRows(sqlmock.NewRows([]string{"?column?"}).AddRow(1))
	mock.ExpectCommit()

	if err := d.Probe(context.Background()); err != nil {
		t.Fatalf("Probe failed against healthy store: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestProbe_Unhealthy(t *testing.T) {
	d, mock := newMockDB(t)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT 1").WillReturnError(errors.New("server closed the connection unexpectedly"))
	mock.ExpectRollback()

	err := d.Probe(context.Background())
	if err == nil {
		t.Fatal("expected Probe to fail")
	}
	if !apperrors.IsTransient(err) {
		t.Errorf("probe failure should be transient, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

// Concurrent sessions under a bounded pool must all complete without
// deadlocking: excess demand blocks on acquisition and drains as
// connections free up.
func TestWithSession_ConcurrentBoundedPool(t *testing.T) {
	const workers = 20
	const maxOpen = 3

	d, mock := newMockDB(t)
	d.sql.SetMaxOpenConns(maxOpen)
	d.sql.SetMaxIdleConns(maxOpen)
	mock.MatchExpectationsInOrder(false)

	for i := 0; i < workers; i++ {
		mock.ExpectBegin()
		mock.ExpectQuery("SELECT 1").WillReturnRows(sqlmock.NewRows([]string{"?column?"}).AddRow(1))
		mock.ExpectCommit()
	}

	var wg sync.WaitGroup
	errCh := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errCh <- d.Probe(context.Background())
		}()
	}
	wg.Wait()
	close(errCh)

	for err := range errCh {
		if err != nil {
			t.Errorf("concurrent probe failed: %v", err)
		}
	}

	if got := d.Stats().MaxOpenConnections; got != maxOpen {
		t.Errorf("expected max open connections %d, got %d", maxOpen, got)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}
