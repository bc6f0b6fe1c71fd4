package database

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

// TracerConfig configures query tracing behavior.
type TracerConfig struct {
	// SlowQueryThreshold is the duration above which queries are logged at WARN.
	SlowQueryThreshold time.Duration

	// VerySlowQueryThreshold is the duration above which queries are logged at ERROR.
	VerySlowQueryThreshold time.Duration
}

// DefaultTracerConfig returns sensible defaults for query tracing.
func DefaultTracerConfig() *TracerConfig {
	return &TracerConfig{
		SlowQueryThreshold:     100 * time.Millisecond,
		VerySlowQueryThreshold: 500 * time.Millisecond,
	}
}

// QueryTracer implements pgx.QueryTracer, logging slow and failed queries
// and keeping aggregate counters for the readiness endpoint.
type QueryTracer struct {
	config *TracerConfig
	logger *zap.Logger

	total  int64
	slow   int64
	failed int64

	mu              sync.Mutex
	totalDuration   time.Duration
	slowestSQL      string
	slowestDuration time.Duration
}

// NewQueryTracer creates a query tracer. A nil config uses defaults.
func NewQueryTracer(cfg *TracerConfig, logger *zap.Logger) *QueryTracer {
	if cfg == nil {
		cfg = DefaultTracerConfig()
	}
	return &QueryTracer{
		config: cfg,
		logger: logger.Named("query"),
	}
}

type traceCtxKey struct{}

type traceData struct {
	start time.Time
	sql   string
}

// TraceQueryStart implements pgx.QueryTracer.
func (t *QueryTracer) TraceQueryStart(ctx context.Context, _ *pgx.Conn, data pgx.TraceQueryStartData) context.Context {
	return context.WithValue(ctx, traceCtxKey{}, &traceData{start: time.Now(), sql: data.SQL})
}

// TraceQueryEnd implements pgx.QueryTracer.
func (t *QueryTracer) TraceQueryEnd(ctx context.Context, _ *pgx.Conn, data pgx.TraceQueryEndData) {
	td, ok := ctx.Value(traceCtxKey{}).(*traceData)
	if !ok {
		return
	}

	duration := time.Since(td.start)
	atomic.AddInt64(&t.total, 1)

	t.mu.Lock()
	t.totalDuration += duration
	if duration > t.slowestDuration {
		t.slowestDuration = duration
		t.slowestSQL = truncateSQL(td.sql, 200)
	}
	t.mu.Unlock()

	if data.Err != nil {
		atomic.AddInt64(&t.failed, 1)
		t.logger.Error("query failed",
			zap.String("sql", truncateSQL(td.sql, 500)),
			zap.Duration("duration", duration),
			zap.Error(data.Err),
		)
		return
	}

	switch {
	case duration >= t.config.VerySlowQueryThreshold:
		atomic.AddInt64(&t.slow, 1)
		t.logger.Error("very slow query detected",
			zap.String("sql", truncateSQL(td.sql, 500)),
			zap.Duration("duration", duration),
			zap.Duration("threshold", t.config.VerySlowQueryThreshold),
		)
	case duration >= t.config.SlowQueryThreshold:
		atomic.AddInt64(&t.slow, 1)
		t.logger.Warn("slow query detected",
			zap.String("sql", truncateSQL(td.sql, 500)),
			zap.Duration("duration", duration),
			zap.Duration("threshold", t.config.SlowQueryThreshold),
		)
	}
}

// Stats returns aggregate query counters and the average query duration.
func (t *QueryTracer) Stats() (total, slow, failed int64, avg time.Duration) {
	total = atomic.LoadInt64(&t.total)
	slow = atomic.LoadInt64(&t.slow)
	failed = atomic.LoadInt64(&t.failed)
	if total > 0 {
		t.mu.Lock()
		avg = t.totalDuration / time.Duration(total)
		t.mu.Unlock()
	}
	return
}

// SlowestQuery returns the slowest query seen and its duration.
func (t *QueryTracer) SlowestQuery() (string, time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.slowestSQL, t.slowestDuration
}

func truncateSQL(sql string, max int) string {
	if len(sql) <= max {
		return sql
	}
	return sql[:max] + "..."
}
