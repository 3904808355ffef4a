package database

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/deppfellow/booking-backend/internal/errs"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

type fakeTx struct {
	pgx.Tx

	commits     int
	rollbacks   int
	commitErr   error
	rollbackErr error
}

func (f *fakeTx) Commit(context.Context) error {
	f.commits++
	return f.commitErr
}

func (f *fakeTx) Rollback(context.Context) error {
	f.rollbacks++
	return f.rollbackErr
}

type fakeBeginner struct {
	tx     *fakeTx
	begins int
	opts   pgx.TxOptions
	err    error
}

func (b *fakeBeginner) BeginTx(_ context.Context, opts pgx.TxOptions) (pgx.Tx, error) {
	b.begins++
	b.opts = opts
	if b.err != nil {
		return nil, b.err
	}
	return b.tx, nil
}

func newBeginner() *fakeBeginner {
	return &fakeBeginner{tx: &fakeTx{}}
}

func TestRunCommitsOnSuccess(t *testing.T) {
	b := newBeginner()

	err := Run(context.Background(), b, pgx.TxOptions{}, func(ctx context.Context) error {
		conn, err := Conn(ctx)
		if err != nil {
			t.Fatalf("Conn: %v", err)
		}
		if conn != b.tx {
			t.Fatalf("Conn returned a different handle")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if b.tx.commits != 1 || b.tx.rollbacks != 0 {
		t.Fatalf("commits=%d rollbacks=%d, want 1/0", b.tx.commits, b.tx.rollbacks)
	}
}

func TestRunRollsBackOnError(t *testing.T) {
	b := newBeginner()
	boom := errors.New("boom")

	err := Run(context.Background(), b, pgx.TxOptions{}, func(context.Context) error {
		return boom
	})
	if err != boom {
		t.Fatalf("err = %v, want the original error unchanged", err)
	}
	if b.tx.commits != 0 || b.tx.rollbacks != 1 {
		t.Fatalf("commits=%d rollbacks=%d, want 0/1", b.tx.commits, b.tx.rollbacks)
	}
}

func TestRunJoinsRollbackFailure(t *testing.T) {
	b := newBeginner()
	b.tx.rollbackErr = errors.New("connection reset")
	boom := errors.New("boom")

	err := Run(context.Background(), b, pgx.TxOptions{}, func(context.Context) error {
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want it to wrap the handler error", err)
	}
	var txErr *TransactionError
	if !errors.As(err, &txErr) || txErr.Op != "rollback" {
		t.Fatalf("err = %v, want a rollback TransactionError joined", err)
	}
}

func TestRunRollsBackAndRepanics(t *testing.T) {
	b := newBeginner()

	defer func() {
		if r := recover(); r != "kaboom" {
			t.Fatalf("recover() = %v, want kaboom", r)
		}
		if b.tx.commits != 0 || b.tx.rollbacks != 1 {
			t.Fatalf("commits=%d rollbacks=%d, want 0/1", b.tx.commits, b.tx.rollbacks)
		}
	}()

	_ = Run(context.Background(), b, pgx.TxOptions{}, func(context.Context) error {
		panic("kaboom")
	})
}

func TestRunRollsBackWhenContextCancelled(t *testing.T) {
	b := newBeginner()
	ctx, cancel := context.WithCancel(context.Background())

	err := Run(ctx, b, pgx.TxOptions{}, func(context.Context) error {
		cancel()
		return nil
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if b.tx.commits != 0 || b.tx.rollbacks != 1 {
		t.Fatalf("commits=%d rollbacks=%d, want 0/1", b.tx.commits, b.tx.rollbacks)
	}
}

func TestRunWrapsCommitFailure(t *testing.T) {
	b := newBeginner()
	b.tx.commitErr = errors.New("serialization failure")

	err := Run(context.Background(), b, pgx.TxOptions{}, func(context.Context) error { return nil })

	var txErr *TransactionError
	if !errors.As(err, &txErr) || txErr.Op != "commit" {
		t.Fatalf("err = %v, want commit TransactionError", err)
	}
	// Close after a failed commit must not issue a second statement.
	if b.tx.rollbacks != 0 {
		t.Fatalf("rollbacks = %d, want 0", b.tx.rollbacks)
	}
}

func TestCommitSerializationFailureAsksForRetry(t *testing.T) {
	b := newBeginner()
	b.tx.commitErr = &pgconn.PgError{Code: "40001", Message: "could not serialize access"}

	err := Run(context.Background(), b, pgx.TxOptions{IsoLevel: pgx.Serializable}, func(context.Context) error { return nil })

	var txErr *TransactionError
	if !errors.As(err, &txErr) {
		t.Fatalf("err = %v, want TransactionError", err)
	}
	httpErr := txErr.HTTPError()
	if httpErr.Status != http.StatusConflict {
		t.Fatalf("status = %d, want 409", httpErr.Status)
	}
	if httpErr.Action == nil || httpErr.Action.Type != errs.ActionTypeRetry {
		t.Fatalf("action = %+v, want retry", httpErr.Action)
	}
}

func TestTransactionErrorHidesNonDatabaseCauses(t *testing.T) {
	err := &TransactionError{Op: "commit", Err: errors.New("conn closed")}
	if got := err.HTTPError().Status; got != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", got)
	}
}

func TestRunJoinsExistingUnitOfWork(t *testing.T) {
	b := newBeginner()

	err := Run(context.Background(), b, pgx.TxOptions{}, func(ctx context.Context) error {
		return Run(ctx, b, pgx.TxOptions{}, func(context.Context) error { return nil })
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if b.begins != 1 || b.tx.commits != 1 {
		t.Fatalf("begins=%d commits=%d, want 1/1", b.begins, b.tx.commits)
	}
}

func TestBeginFailureIsTransactionError(t *testing.T) {
	b := &fakeBeginner{err: errors.New("pool exhausted")}

	called := false
	err := Run(context.Background(), b, pgx.TxOptions{}, func(context.Context) error {
		called = true
		return nil
	})

	var txErr *TransactionError
	if !errors.As(err, &txErr) || txErr.Op != "begin" {
		t.Fatalf("err = %v, want begin TransactionError", err)
	}
	if called {
		t.Fatalf("fn ran without a transaction")
	}
}

func TestCloseIsIdempotent(t *testing.T) {
	b := newBeginner()
	u := NewUnitOfWork(b, pgx.TxOptions{})
	ctx := context.Background()

	if err := u.Begin(ctx); err != nil {
		t.Fatalf("Begin: %v", err)
	}
	for i := 0; i < 3; i++ {
		if err := u.Close(ctx); err != nil {
			t.Fatalf("Close #%d: %v", i+1, err)
		}
	}
	if b.tx.rollbacks != 1 {
		t.Fatalf("rollbacks = %d, want 1", b.tx.rollbacks)
	}
	if err := u.Begin(ctx); !errors.Is(err, ErrUnitOfWorkUsed) {
		t.Fatalf("Begin after Close = %v, want ErrUnitOfWorkUsed", err)
	}
}

func TestSessionUnavailableOutsideScope(t *testing.T) {
	if _, err := Conn(context.Background()); !errors.Is(err, ErrNoActiveTransaction) {
		t.Fatalf("Conn without unit = %v, want ErrNoActiveTransaction", err)
	}

	b := newBeginner()
	u := NewUnitOfWork(b, pgx.TxOptions{})
	ctx := WithUnitOfWork(context.Background(), u)

	if _, err := Conn(ctx); !errors.Is(err, ErrNoActiveTransaction) {
		t.Fatalf("Conn before Begin = %v, want ErrNoActiveTransaction", err)
	}
	if err := u.Begin(ctx); err != nil {
		t.Fatalf("Begin: %v", err)
	}
	if err := u.Commit(ctx); err != nil {
		t.Fatalf("Commit: %v", err)
	}
	if _, err := Conn(ctx); !errors.Is(err, ErrNoActiveTransaction) {
		t.Fatalf("Conn after Commit = %v, want ErrNoActiveTransaction", err)
	}
}

func TestAfterCommitHooks(t *testing.T) {
	t.Run("run after commit", func(t *testing.T) {
		b := newBeginner()
		var commitsSeen []int

		err := Run(context.Background(), b, pgx.TxOptions{}, func(ctx context.Context) error {
			AfterCommit(ctx, func(context.Context) { commitsSeen = append(commitsSeen, b.tx.commits) })
			return nil
		})
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
		if len(commitsSeen) != 1 || commitsSeen[0] != 1 {
			t.Fatalf("hook saw commits %v, want [1]", commitsSeen)
		}
	})

	t.Run("dropped on rollback", func(t *testing.T) {
		b := newBeginner()
		ran := false

		_ = Run(context.Background(), b, pgx.TxOptions{}, func(ctx context.Context) error {
			AfterCommit(ctx, func(context.Context) { ran = true })
			return errors.New("nope")
		})
		if ran {
			t.Fatalf("hook ran after rollback")
		}
	})

	t.Run("immediate without unit", func(t *testing.T) {
		ran := false
		AfterCommit(context.Background(), func(context.Context) { ran = true })
		if !ran {
			t.Fatalf("hook did not run")
		}
	})
}

func TestParseIsolationLevel(t *testing.T) {
	tests := map[string]pgx.TxIsoLevel{
		"serializable":    pgx.Serializable,
		"REPEATABLE_READ": pgx.RepeatableRead,
		"read_committed":  pgx.ReadCommitted,
		"":                "",
		"chaos":           "",
	}
	for in, want := range tests {
		if got := ParseIsolationLevel(in); got != want {
			t.Fatalf("ParseIsolationLevel(%q) = %q, want %q", in, got, want)
		}
	}
}
