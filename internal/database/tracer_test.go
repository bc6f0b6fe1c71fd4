package database

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

func TestDefaultTracerConfig(t *testing.T) {
	cfg := DefaultTracerConfig()

	if cfg.SlowQueryThreshold != 100*time.Millisecond {
		t.Errorf("expected SlowQueryThreshold = 100ms, got %v", cfg.SlowQueryThreshold)
	}
	if cfg.VerySlowQueryThreshold != 500*time.Millisecond {
		t.Errorf("expected VerySlowQueryThreshold = 500ms, got %v", cfg.VerySlowQueryThreshold)
	}
}

func TestNewQueryTracer_NilConfig(t *testing.T) {
	tracer := NewQueryTracer(nil, zap.NewNop())
	if tracer.config == nil {
		t.Error("expected config to be set to defaults")
	}
}

func TestQueryTracer_CountsQueries(t *testing.T) {
	tracer := NewQueryTracer(nil, zap.NewNop())

	ctx := tracer.TraceQueryStart(context.Background(), nil, pgx.TraceQueryStartData{
		SQL: "SELECT 1",
	})
	tracer.TraceQueryEnd(ctx, nil, pgx.TraceQueryEndData{})

	total, slow, failed, _ := tracer.Stats()
	if total != 1 {
		t.Errorf("expected total = 1, got %d", total)
	}
	if slow != 0 {
		t.Errorf("expected slow = 0, got %d", slow)
	}
	if failed != 0 {
		t.Errorf("expected failed = 0, got %d", failed)
	}
}

func TestQueryTracer_CountsFailures(t *testing.T) {
	tracer := NewQueryTracer(nil, zap.NewNop())

	ctx := tracer.TraceQueryStart(context.Background(), nil, pgx.TraceQueryStartData{
		SQL: "SELECT broken",
	})
	tracer.TraceQueryEnd(ctx, nil, pgx.TraceQueryEndData{Err: errors.New("boom")})

	_, _, failed, _ := tracer.Stats()
	if failed != 1 {
		t.Errorf("expected failed = 1, got %d", failed)
	}
}

func TestQueryTracer_TracksSlowestQuery(t *testing.T) {
	tracer := NewQueryTracer(&TracerConfig{
		SlowQueryThreshold:     time.Nanosecond,
		VerySlowQueryThreshold: time.Hour,
	}, zap.NewNop())

	ctx := tracer.TraceQueryStart(context.Background(), nil, pgx.TraceQueryStartData{
		SQL: "SELECT * FROM leads",
	})
	time.Sleep(time.Millisecond)
	tracer.TraceQueryEnd(ctx, nil, pgx.TraceQueryEndData{})

	sql, duration := tracer.SlowestQuery()
	if sql != "SELECT * FROM leads" {
		t.Errorf("expected slowest query recorded, got %q", sql)
	}
	if duration <= 0 {
		t.Errorf("expected positive duration, got %v", duration)
	}

	_, slow, _, _ := tracer.Stats()
	if slow != 1 {
		t.Errorf("expected slow = 1, got %d", slow)
	}
}

func TestQueryTracer_IgnoresMissingTraceData(t *testing.T) {
	tracer := NewQueryTracer(nil, zap.NewNop())

	// End without a matching start must not panic or count.
	tracer.TraceQueryEnd(context.Background(), nil, pgx.TraceQueryEndData{})

	total, _, _, _ := tracer.Stats()
	if total != 0 {
		t.Errorf("expected total = 0, got %d", total)
	}
}

func TestTruncateSQL(t *testing.T) {
	tests := []struct {
		name string
		sql  string
		max  int
		want string
	}{
		{"short", "SELECT 1", 100, "SELECT 1"},
		{"exact", "SELECT", 6, "SELECT"},
		{"truncated", "SELECT * FROM leads", 8, "SELECT *..."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := truncateSQL(tt.sql, tt.max); got != tt.want {
				t.Errorf("truncateSQL(%q, %d) = %q, want %q", tt.sql, tt.max, got, tt.want)
			}
		})
	}
}
