// Package postgres builds instrumented pgx connection pools.
package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/exaring/otelpgx"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/linnemanlabs/go-core/log"
)

// PoolOptions configures NewPool. The zero value is usable.
type PoolOptions struct {
	Logger   log.Logger
	Observer QueryObserver
	MaxConns int32
}

// NewPool parses databaseURL, installs otelpgx tracing wrapped with query
// logging, connects, and pings.
func NewPool(ctx context.Context, databaseURL string, opts PoolOptions) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	if opts.MaxConns > 0 {
		cfg.MaxConns = opts.MaxConns
	}
	cfg.ConnConfig.Tracer = newLoggingTracer(otelpgx.NewTracer(), opts.Logger, opts.Observer)

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("pgxpool.NewWithConfig: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}

	return pool, nil
}

// QueryMetrics records query latency in a Prometheus histogram.
type QueryMetrics struct {
	Duration *prometheus.HistogramVec
}

// NewQueryMetrics registers and returns the query histogram.
func NewQueryMetrics(reg prometheus.Registerer) *QueryMetrics {
	m := &QueryMetrics{
		Duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "counsel_db_query_duration_seconds",
			Help:    "Duration of database queries in seconds.",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms .. ~2s
		}, []string{"operation", "outcome"}),
	}
	reg.MustRegister(m.Duration)
	return m
}

// ObserveQuery implements QueryObserver.
func (m *QueryMetrics) ObserveQuery(operation, outcome string, dur time.Duration) {
	m.Duration.WithLabelValues(operation, outcome).Observe(dur.Seconds())
}
