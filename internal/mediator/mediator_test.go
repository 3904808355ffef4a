package mediator

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/deppfellow/booking-backend/internal/database"
	"github.com/deppfellow/booking-backend/internal/errs"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

type ping struct{ N int }

type pong struct{ N int }

type unregistered struct{}

type countingHandler struct{ calls int }

func (h *countingHandler) Handle(_ context.Context, req ping) (pong, error) {
	h.calls++
	return pong{N: req.N + 1}, nil
}

func TestSendInvokesHandlerExactlyOnce(t *testing.T) {
	r := NewRegistry()
	h := &countingHandler{}
	if err := Register[ping, pong](r, h); err != nil {
		t.Fatalf("Register: %v", err)
	}
	d := r.Build()

	got, err := Send[pong](context.Background(), d, ping{N: 41})
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if got.N != 42 {
		t.Fatalf("got %d, want 42", got.N)
	}
	if h.calls != 1 {
		t.Fatalf("handler called %d times, want 1", h.calls)
	}
}

func TestSendWithoutHandler(t *testing.T) {
	d := NewRegistry().Build()

	_, err := Send[pong](context.Background(), d, unregistered{})

	var notFound *HandlerNotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("err = %v, want HandlerNotFoundError", err)
	}
	if notFound.RequestType != "mediator.unregistered" {
		t.Fatalf("RequestType = %q", notFound.RequestType)
	}
	if StatusOf(err) != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", StatusOf(err))
	}
}

func TestSerializationFailureStatusIgnoresWhereItHappened(t *testing.T) {
	serialization := &pgconn.PgError{Code: "40001"}

	tests := map[string]error{
		"mid transaction": serialization,
		"at commit":       &database.TransactionError{Op: "commit", Err: serialization},
	}
	for name, err := range tests {
		httpErr := ToHTTPError(err)
		if httpErr.Status != http.StatusConflict || httpErr.Action == nil || httpErr.Action.Type != errs.ActionTypeRetry {
			t.Fatalf("%s: status = %d, action = %+v", name, httpErr.Status, httpErr.Action)
		}
	}
}

func TestValueAndPointerRequestsAreDistinct(t *testing.T) {
	r := NewRegistry()
	if err := Register[ping, pong](r, &countingHandler{}); err != nil {
		t.Fatalf("Register: %v", err)
	}
	d := r.Build()

	if _, err := Send[pong](context.Background(), d, &ping{}); err == nil {
		t.Fatalf("*ping dispatched to the ping handler")
	}
}

func TestRegisterRejectsDuplicates(t *testing.T) {
	r := NewRegistry()
	if err := Register[ping, pong](r, &countingHandler{}); err != nil {
		t.Fatalf("Register: %v", err)
	}

	err := Register[ping, pong](r, &countingHandler{})
	if !errors.Is(err, ErrDuplicateHandler) {
		t.Fatalf("err = %v, want ErrDuplicateHandler", err)
	}
	if !strings.Contains(err.Error(), "mediator.ping") {
		t.Fatalf("err = %v, want the request type named", err)
	}
}

func TestRegisterAfterBuild(t *testing.T) {
	r := NewRegistry()
	r.Build()

	if err := Register[ping, pong](r, &countingHandler{}); !errors.Is(err, ErrRegistryFrozen) {
		t.Fatalf("err = %v, want ErrRegistryFrozen", err)
	}
}

func TestRegisterRejectsInterfaceRequests(t *testing.T) {
	r := NewRegistry()
	h := HandlerFunc[any, pong](func(context.Context, any) (pong, error) { return pong{}, nil })

	if err := Register[any, pong](r, h); !errors.Is(err, ErrInterfaceRequest) {
		t.Fatalf("err = %v, want ErrInterfaceRequest", err)
	}
}

func TestHandlerErrorPropagatesUnchanged(t *testing.T) {
	boom := errs.NewConflictError("taken", true, nil)
	r := NewRegistry()
	_ = Register[ping, pong](r, HandlerFunc[ping, pong](func(context.Context, ping) (pong, error) {
		return pong{}, boom
	}))
	d := r.Build(LoggingBehavior())

	_, err := Send[pong](context.Background(), d, ping{})
	if err != boom {
		t.Fatalf("err = %v, want the handler error", err)
	}
}

func TestBehaviorsRunInOrder(t *testing.T) {
	var trace []string
	record := func(name string) Behavior {
		return func(ctx context.Context, req any, next Next) (any, error) {
			trace = append(trace, name+">")
			out, err := next(ctx, req)
			trace = append(trace, "<"+name)
			return out, err
		}
	}

	r := NewRegistry()
	_ = Register[ping, pong](r, HandlerFunc[ping, pong](func(context.Context, ping) (pong, error) {
		trace = append(trace, "handler")
		return pong{}, nil
	}))
	d := r.Build(record("a"), record("b"))

	if _, err := Send[pong](context.Background(), d, ping{}); err != nil {
		t.Fatalf("Send: %v", err)
	}

	want := "a> b> handler <b <a"
	if got := strings.Join(trace, " "); got != want {
		t.Fatalf("trace = %q, want %q", got, want)
	}
}

func TestRequestsListsRegisteredTypes(t *testing.T) {
	r := NewRegistry()
	_ = Register[ping, pong](r, &countingHandler{})
	_ = Register[unregistered, pong](r, HandlerFunc[unregistered, pong](func(context.Context, unregistered) (pong, error) {
		return pong{}, nil
	}))

	got := strings.Join(r.Build().Requests(), ",")
	if got != "mediator.ping,mediator.unregistered" {
		t.Fatalf("Requests() = %q", got)
	}
}

type fakeTx struct {
	pgx.Tx
	commits, rollbacks int
}

func (f *fakeTx) Commit(context.Context) error   { f.commits++; return nil }
func (f *fakeTx) Rollback(context.Context) error { f.rollbacks++; return nil }

type fakeBeginner struct {
	tx   *fakeTx
	opts []pgx.TxOptions
}

func (b *fakeBeginner) BeginTx(_ context.Context, opts pgx.TxOptions) (pgx.Tx, error) {
	b.opts = append(b.opts, opts)
	return b.tx, nil
}

type readOnlyQuery struct{}

func (readOnlyQuery) TxOptions() pgx.TxOptions {
	return pgx.TxOptions{AccessMode: pgx.ReadOnly}
}

func TestTransactionBehavior(t *testing.T) {
	b := &fakeBeginner{tx: &fakeTx{}}
	defaults := pgx.TxOptions{IsoLevel: pgx.Serializable}

	r := NewRegistry()
	_ = Register[ping, pong](r, HandlerFunc[ping, pong](func(ctx context.Context, req ping) (pong, error) {
		if _, err := database.Conn(ctx); err != nil {
			t.Fatalf("handler ran without a transaction: %v", err)
		}
		if req.N < 0 {
			return pong{}, errors.New("negative")
		}
		return pong{N: req.N}, nil
	}))
	_ = Register[readOnlyQuery, pong](r, HandlerFunc[readOnlyQuery, pong](func(context.Context, readOnlyQuery) (pong, error) {
		return pong{}, nil
	}))
	d := r.Build(TransactionBehavior(b, defaults))
	ctx := context.Background()

	if _, err := Send[pong](ctx, d, ping{N: 1}); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if b.tx.commits != 1 || b.tx.rollbacks != 0 {
		t.Fatalf("commits=%d rollbacks=%d after success", b.tx.commits, b.tx.rollbacks)
	}

	if _, err := Send[pong](ctx, d, ping{N: -1}); err == nil {
		t.Fatalf("expected handler error")
	}
	if b.tx.commits != 1 || b.tx.rollbacks != 1 {
		t.Fatalf("commits=%d rollbacks=%d after failure", b.tx.commits, b.tx.rollbacks)
	}

	if _, err := Send[pong](ctx, d, readOnlyQuery{}); err != nil {
		t.Fatalf("Send: %v", err)
	}
	last := b.opts[len(b.opts)-1]
	if last.AccessMode != pgx.ReadOnly || last.IsoLevel != pgx.Serializable {
		t.Fatalf("opts = %+v, want read-only with the default isolation", last)
	}
}

func TestMetricsBehavior(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := NewMetrics(reg)
	if err != nil {
		t.Fatalf("NewMetrics: %v", err)
	}

	r := NewRegistry()
	_ = Register[ping, pong](r, HandlerFunc[ping, pong](func(_ context.Context, req ping) (pong, error) {
		if req.N == 0 {
			return pong{}, errs.NewConflictError("busy", true, nil)
		}
		return pong{}, nil
	}))
	d := r.Build(m.Behavior())
	ctx := context.Background()

	_, _ = Send[pong](ctx, d, ping{N: 1})
	_, _ = Send[pong](ctx, d, ping{N: 1})
	_, _ = Send[pong](ctx, d, ping{N: 0})

	if got := testutil.ToFloat64(m.dispatches.WithLabelValues("mediator.ping", "200")); got != 2 {
		t.Fatalf("ok dispatches = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.dispatches.WithLabelValues("mediator.ping", "409")); got != 1 {
		t.Fatalf("conflict dispatches = %v, want 1", got)
	}

	if _, err := NewMetrics(reg); err == nil {
		t.Fatalf("registering the collectors twice should fail")
	}
}
