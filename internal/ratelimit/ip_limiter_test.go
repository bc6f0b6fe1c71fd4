package ratelimit

import (
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/LeeSpain/vision-sync-server/internal/clock"
)

func newTestIPLimiter(clk clock.Clock) *IPLimiter {
	return NewIPLimiter(IPLimiterConfig{
		MaxRequests:     3,
		Window:          time.Minute,
		CleanupInterval: time.Minute,
		StaleThreshold:  5 * time.Minute,
	}, clk, zap.NewNop())
}

func TestIPLimiter_Allow(t *testing.T) {
	limiter := newTestIPLimiter(nil)
	defer limiter.Stop()

	for i := 0; i < 3; i++ {
		if err := limiter.Allow("10.0.0.1"); err != nil {
			t.Fatalf("Allow() %d error = %v", i, err)
		}
	}

	if err := limiter.Allow("10.0.0.1"); err != ErrIPLimitExceeded {
		t.Errorf("Allow() error = %v, want %v", err, ErrIPLimitExceeded)
	}

	// A different IP has its own budget
	if err := limiter.Allow("10.0.0.2"); err != nil {
		t.Errorf("Allow() for second ip error = %v, want nil", err)
	}
}

func TestIPLimiter_WindowResets(t *testing.T) {
	mock := clock.NewMock(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	limiter := newTestIPLimiter(mock)
	defer limiter.Stop()

	for i := 0; i < 3; i++ {
		if err := limiter.Allow("10.0.0.1"); err != nil {
			t.Fatalf("Allow() %d error = %v", i, err)
		}
	}
	if err := limiter.Allow("10.0.0.1"); err != ErrIPLimitExceeded {
		t.Fatalf("Allow() error = %v, want %v", err, ErrIPLimitExceeded)
	}

	mock.Advance(time.Minute)

	if err := limiter.Allow("10.0.0.1"); err != nil {
		t.Errorf("Allow() after window error = %v, want nil", err)
	}
}

func TestIPLimiter_Remaining(t *testing.T) {
	limiter := newTestIPLimiter(nil)
	defer limiter.Stop()

	if got := limiter.Remaining("10.0.0.1"); got != 3 {
		t.Errorf("Remaining() = %d, want 3", got)
	}

	limiter.Allow("10.0.0.1")

	if got := limiter.Remaining("10.0.0.1"); got != 2 {
		t.Errorf("Remaining() = %d, want 2", got)
	}
}

func TestIPLimiter_EvictStale(t *testing.T) {
	mock := clock.NewMock(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	limiter := newTestIPLimiter(mock)
	defer limiter.Stop()

	limiter.Allow("10.0.0.1")
	limiter.Allow("10.0.0.2")

	if got := limiter.TrackedIPs(); got != 2 {
		t.Fatalf("TrackedIPs() = %d, want 2", got)
	}

	mock.Advance(6 * time.Minute)
	limiter.Allow("10.0.0.3") // keeps this one fresh
	limiter.evictStale()

	if got := limiter.TrackedIPs(); got != 1 {
		t.Errorf("TrackedIPs() after eviction = %d, want 1", got)
	}
}
