package database

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/deppfellow/booking-backend/internal/errs"
	"github.com/deppfellow/booking-backend/internal/sqlerr"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog"
)

var (
	// ErrNoActiveTransaction is returned when repository code runs outside a
	// UnitOfWork scope. A transaction is never created implicitly.
	ErrNoActiveTransaction = errors.New("database: no active transaction")

	// ErrUnitOfWorkUsed is returned by Begin on a UnitOfWork that was
	// already started or closed. A UnitOfWork is single-use.
	ErrUnitOfWorkUsed = errors.New("database: unit of work already used")
)

// releaseTimeout bounds the rollback issued while releasing a connection
// whose request context is already cancelled.
const releaseTimeout = 5 * time.Second

// TxBeginner starts transactions. *pgxpool.Pool and *pgx.Conn satisfy it.
type TxBeginner interface {
	BeginTx(ctx context.Context, txOptions pgx.TxOptions) (pgx.Tx, error)
}

// DBTX is the query surface shared by pgx.Tx, *pgxpool.Pool and *pgx.Conn.
// Repositories only ever see this interface.
type DBTX interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// TransactionError wraps a failure to begin, commit or roll back.
type TransactionError struct {
	Op  string
	Err error
}

func (e *TransactionError) Error() string {
	return fmt.Sprintf("%s transaction: %v", e.Op, e.Err)
}

func (e *TransactionError) Unwrap() error {
	return e.Err
}

// HTTPError renders a transaction failure as a generic 500, except that
// server errors (a serialization failure at commit) get the same mapping
// they would have mid-transaction.
func (e *TransactionError) HTTPError() *errs.HTTPError {
	var pgErr *pgconn.PgError
	if errors.As(e.Err, &pgErr) {
		var httpErr *errs.HTTPError
		if errors.As(sqlerr.HandleError(pgErr), &httpErr) {
			return httpErr
		}
	}
	return errs.NewInternalServerError()
}

type uowState int

const (
	stateIdle uowState = iota
	stateActive
	stateFinished
	stateClosed
)

// UnitOfWork binds one database transaction to one logical request.
//
// Lifecycle: NewUnitOfWork -> Begin -> (handlers use Conn(ctx)) -> Commit or
// Rollback -> Close. Close always runs and is idempotent; closing an
// active unit rolls it back, which returns the connection to the pool.
//
// A UnitOfWork is used by one goroutine at a time: operations inside one
// transaction are strictly sequential.
type UnitOfWork struct {
	beginner    TxBeginner
	opts        pgx.TxOptions
	tx          pgx.Tx
	state       uowState
	afterCommit []func(context.Context)
}

// NewUnitOfWork creates an idle unit of work.
func NewUnitOfWork(beginner TxBeginner, opts pgx.TxOptions) *UnitOfWork {
	return &UnitOfWork{beginner: beginner, opts: opts}
}

// Begin opens the transaction.
func (u *UnitOfWork) Begin(ctx context.Context) error {
	if u.state != stateIdle {
		return ErrUnitOfWorkUsed
	}

	tx, err := u.beginner.BeginTx(ctx, u.opts)
	if err != nil {
		u.state = stateClosed
		return &TransactionError{Op: "begin", Err: err}
	}

	u.tx = tx
	u.state = stateActive
	return nil
}

// Tx returns the active transaction.
func (u *UnitOfWork) Tx() (pgx.Tx, error) {
	if u.state != stateActive {
		return nil, ErrNoActiveTransaction
	}
	return u.tx, nil
}

// Active reports whether the transaction is open.
func (u *UnitOfWork) Active() bool {
	return u.state == stateActive
}

// AfterCommit registers fn to run once the transaction has committed.
// Hooks never run when the unit rolls back.
func (u *UnitOfWork) AfterCommit(fn func(context.Context)) {
	u.afterCommit = append(u.afterCommit, fn)
}

// Commit commits the transaction and then runs the after-commit hooks
// with a context detached from request cancellation.
func (u *UnitOfWork) Commit(ctx context.Context) error {
	if u.state != stateActive {
		return ErrNoActiveTransaction
	}

	u.state = stateFinished
	if err := u.tx.Commit(ctx); err != nil {
		return &TransactionError{Op: "commit", Err: err}
	}

	hookCtx := context.WithoutCancel(ctx)
	for _, fn := range u.afterCommit {
		fn(hookCtx)
	}
	u.afterCommit = nil

	return nil
}

// Rollback aborts the transaction. Rolling back a finished unit is a no-op.
//
// The rollback is sent even when ctx is already cancelled (client
// disconnect), bounded by releaseTimeout.
func (u *UnitOfWork) Rollback(ctx context.Context) error {
	if u.state != stateActive {
		return nil
	}

	u.state = stateFinished
	u.afterCommit = nil

	rbCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), releaseTimeout)
	defer cancel()

	if err := u.tx.Rollback(rbCtx); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
		return &TransactionError{Op: "rollback", Err: err}
	}
	return nil
}

// Close releases the unit. An active transaction is rolled back first.
// Calling Close more than once has no further effect.
func (u *UnitOfWork) Close(ctx context.Context) error {
	if u.state == stateClosed {
		return nil
	}

	err := u.Rollback(ctx)
	u.state = stateClosed
	u.tx = nil
	return err
}

type unitOfWorkKey struct{}

// WithUnitOfWork returns a copy of ctx carrying u.
func WithUnitOfWork(ctx context.Context, u *UnitOfWork) context.Context {
	return context.WithValue(ctx, unitOfWorkKey{}, u)
}

// FromContext returns the UnitOfWork carried by ctx, if any.
func FromContext(ctx context.Context) (*UnitOfWork, bool) {
	u, ok := ctx.Value(unitOfWorkKey{}).(*UnitOfWork)
	return u, ok && u != nil
}

// Conn returns the transaction of the UnitOfWork carried by ctx.
//
// Every repository call goes through Conn, so all calls made while handling
// one request (handler -> validation -> repository, at any depth) observe
// the same transaction.
func Conn(ctx context.Context) (DBTX, error) {
	u, ok := FromContext(ctx)
	if !ok {
		return nil, ErrNoActiveTransaction
	}
	return u.Tx()
}

// AfterCommit schedules fn to run after the transaction carried by ctx
// commits. Without an active unit of work fn runs immediately.
func AfterCommit(ctx context.Context, fn func(context.Context)) {
	if u, ok := FromContext(ctx); ok && u.Active() {
		u.AfterCommit(fn)
		return
	}
	fn(ctx)
}

// Run executes fn inside a new UnitOfWork.
//
//   - fn returns nil: commit (unless ctx was cancelled meanwhile, in which
//     case the transaction is rolled back and ctx.Err() is returned).
//   - fn returns an error: rollback, and the same error is returned. A failed
//     rollback is joined to it, never replaces it.
//   - fn panics: rollback, then the panic continues.
//
// When ctx already carries an active unit, fn joins it instead of opening a
// second transaction.
func Run(ctx context.Context, beginner TxBeginner, opts pgx.TxOptions, fn func(ctx context.Context) error) (err error) {
	if u, ok := FromContext(ctx); ok && u.Active() {
		return fn(ctx)
	}

	u := NewUnitOfWork(beginner, opts)
	if err := u.Begin(ctx); err != nil {
		return err
	}

	defer func() {
		if p := recover(); p != nil {
			_ = u.Close(ctx)
			panic(p)
		}

		if closeErr := u.Close(ctx); closeErr != nil {
			if err == nil {
				err = closeErr
				return
			}
			// The original error stays first in the chain; errors.Is/As still
			// match it.
			zerolog.Ctx(ctx).Error().Err(closeErr).Msg("failed to roll back transaction")
			err = errors.Join(err, closeErr)
		}
	}()

	if err = fn(WithUnitOfWork(ctx, u)); err != nil {
		return err
	}

	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}

	return u.Commit(ctx)
}

// ParseIsolationLevel maps the configured isolation name to pgx.
// Unknown or empty names keep the server default.
func ParseIsolationLevel(level string) pgx.TxIsoLevel {
	switch strings.ToLower(level) {
	case "serializable":
		return pgx.Serializable
	case "repeatable_read":
		return pgx.RepeatableRead
	case "read_committed":
		return pgx.ReadCommitted
	default:
		return ""
	}
}
