package mediator

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/deppfellow/booking-backend/internal/database"
	"github.com/jackc/pgx/v5"
	"github.com/newrelic/go-agent/v3/integrations/nrpkgerrors"
	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
)

// TxOptioner lets a request choose its own transaction options, e.g.
// read-only for queries.
type TxOptioner interface {
	TxOptions() pgx.TxOptions
}

// TransactionBehavior runs the rest of the pipeline inside a UnitOfWork.
//
// The unit is stored in the context handed to the handler, so every
// repository call made while handling the request shares one transaction.
// An empty isolation level on the request falls back to defaults.
func TransactionBehavior(beginner database.TxBeginner, defaults pgx.TxOptions) Behavior {
	return func(ctx context.Context, req any, next Next) (any, error) {
		opts := defaults
		if o, ok := req.(TxOptioner); ok {
			opts = o.TxOptions()
			if opts.IsoLevel == "" {
				opts.IsoLevel = defaults.IsoLevel
			}
		}

		var out any
		err := database.Run(ctx, beginner, opts, func(txCtx context.Context) error {
			var err error
			out, err = next(txCtx, req)
			return err
		})
		if err != nil {
			return nil, err
		}
		return out, nil
	}
}

// LoggingBehavior logs every dispatch with the request-scoped logger.
// Client errors are logged at warn, server errors at error.
func LoggingBehavior() Behavior {
	return func(ctx context.Context, req any, next Next) (any, error) {
		name := RequestName(req)
		start := time.Now()

		out, err := next(ctx, req)

		logger := zerolog.Ctx(ctx)
		var event *zerolog.Event
		switch status := StatusOf(err); {
		case err == nil:
			event = logger.Debug()
		case status >= http.StatusInternalServerError:
			event = logger.Error().Err(err)
		default:
			event = logger.Warn().Err(err).Int("status", status)
		}
		event.Str("request", name).Dur("duration", time.Since(start)).Msg("dispatch")

		return out, err
	}
}

// Metrics are the Prometheus collectors fed by MetricsBehavior.
type Metrics struct {
	dispatches *prometheus.CounterVec
	duration   *prometheus.HistogramVec
}

// NewMetrics registers the dispatch collectors on reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		dispatches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "booking",
			Subsystem: "mediator",
			Name:      "dispatches_total",
			Help:      "Dispatched requests by request type and response status.",
		}, []string{"request", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "booking",
			Subsystem: "mediator",
			Name:      "dispatch_duration_seconds",
			Help:      "Dispatch latency including the transaction.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"request"}),
	}

	for _, c := range []prometheus.Collector{m.dispatches, m.duration} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// Behavior records one count and one latency sample per dispatch.
func (m *Metrics) Behavior() Behavior {
	return func(ctx context.Context, req any, next Next) (any, error) {
		name := RequestName(req)
		start := time.Now()

		out, err := next(ctx, req)

		m.duration.WithLabelValues(name).Observe(time.Since(start).Seconds())
		m.dispatches.WithLabelValues(name, strconv.Itoa(StatusOf(err))).Inc()

		return out, err
	}
}

// TracingBehavior opens a New Relic segment per dispatch when the request
// carries a transaction. Server errors are reported to New Relic.
func TracingBehavior() Behavior {
	return func(ctx context.Context, req any, next Next) (any, error) {
		txn := newrelic.FromContext(ctx)
		if txn == nil {
			return next(ctx, req)
		}

		segment := txn.StartSegment("dispatch/" + RequestName(req))
		out, err := next(ctx, req)
		segment.End()

		if err != nil && StatusOf(err) >= http.StatusInternalServerError {
			txn.NoticeError(nrpkgerrors.Wrap(err))
		}
		return out, err
	}
}
