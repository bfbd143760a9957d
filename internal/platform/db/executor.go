package db

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/medrecords/api/internal/platform/query"
)

// Querier is the subset of *pgxpool.Pool, *pgxpool.Conn and pgx.Tx used to
// run read statements.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// QueryMetrics records statement latency and failures.
type QueryMetrics struct {
	duration *prometheus.HistogramVec
	failures prometheus.Counter
}

// NewQueryMetrics registers the query collectors on reg.
func NewQueryMetrics(reg prometheus.Registerer) *QueryMetrics {
	factory := promauto.With(reg)
	return &QueryMetrics{
		duration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "medrecords_db_query_duration_seconds",
				Help:    "Latency of read statements issued by the query builder",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"outcome"},
		),
		failures: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "medrecords_db_query_failures_total",
				Help: "Read statements rejected by the database",
			},
		),
	}
}

func (m *QueryMetrics) observe(start time.Time, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
		m.failures.Inc()
	}
	m.duration.WithLabelValues(outcome).Observe(time.Since(start).Seconds())
}

// PoolExecutor implements query.Executor on top of pgx. Every "$k" is bound by
// the driver; values are never interpolated.
type PoolExecutor struct {
	q       Querier
	metrics *QueryMetrics
}

// NewPoolExecutor creates an executor. metrics may be nil.
func NewPoolExecutor(q Querier, metrics *QueryMetrics) *PoolExecutor {
	return &PoolExecutor{q: q, metrics: metrics}
}

// Query runs sql and returns each row as a column-name keyed map.
func (e *PoolExecutor) Query(ctx context.Context, sql string, args ...interface{}) (rows []query.Row, err error) {
	start := time.Now()
	defer func() { e.metrics.observe(start, err) }()

	r, err := e.q.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	rows, err = pgx.CollectRows(r, pgx.RowToMap)
	if err != nil {
		return nil, err
	}
	if rows == nil {
		rows = []query.Row{}
	}
	return rows, nil
}
