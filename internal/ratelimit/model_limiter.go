// Package ratelimit provides rate limiting functionality for cost control.
package ratelimit

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/LeeSpain/vision-sync-server/internal/clock"
)

// ModelLimiter caps language model calls to control API spend. Every chat
// turn costs a model call, so this is the budget valve for the whole
// pipeline.
type ModelLimiter struct {
	mu sync.RWMutex

	// Configuration
	maxRequestsPerMinute int
	maxRequestsPerHour   int
	maxRequestsPerDay    int
	maxConcurrent        int

	// State
	minuteBucket  *tokenBucket
	hourBucket    *tokenBucket
	dayBucket     *tokenBucket
	currentActive int

	// Metrics
	totalRequests   int64
	totalRejected   int64
	lastRejectedAt  time.Time
	rejectionReason string

	clk    clock.Clock
	logger *zap.Logger
}

// ModelLimiterConfig holds configuration for the model call limiter.
type ModelLimiterConfig struct {
	MaxRequestsPerMinute int
	MaxRequestsPerHour   int
	MaxRequestsPerDay    int
	MaxConcurrent        int
}

// DefaultModelLimiterConfig returns sensible defaults for cost control.
func DefaultModelLimiterConfig() *ModelLimiterConfig {
	return &ModelLimiterConfig{
		MaxRequestsPerMinute: 30,
		MaxRequestsPerHour:   300,
		MaxRequestsPerDay:    2000,
		MaxConcurrent:        10,
	}
}

// NewModelLimiter creates a new model call limiter.
func NewModelLimiter(cfg *ModelLimiterConfig, clk clock.Clock, logger *zap.Logger) *ModelLimiter {
	if cfg == nil {
		cfg = DefaultModelLimiterConfig()
	}
	if clk == nil {
		clk = clock.New()
	}

	now := clk.Now()
	return &ModelLimiter{
		maxRequestsPerMinute: cfg.MaxRequestsPerMinute,
		maxRequestsPerHour:   cfg.MaxRequestsPerHour,
		maxRequestsPerDay:    cfg.MaxRequestsPerDay,
		maxConcurrent:        cfg.MaxConcurrent,
		minuteBucket:         newTokenBucket(cfg.MaxRequestsPerMinute, time.Minute, now),
		hourBucket:           newTokenBucket(cfg.MaxRequestsPerHour, time.Hour, now),
		dayBucket:            newTokenBucket(cfg.MaxRequestsPerDay, 24*time.Hour, now),
		clk:                  clk,
		logger:               logger,
	}
}

// Errors for rate limiting.
var (
	ErrRateLimitExceeded       = errors.New("rate limit exceeded")
	ErrMinuteLimitExceeded     = errors.New("minute rate limit exceeded")
	ErrHourLimitExceeded       = errors.New("hour rate limit exceeded")
	ErrDayLimitExceeded        = errors.New("day rate limit exceeded")
	ErrConcurrentLimitExceeded = errors.New("concurrent request limit exceeded")
)

// Acquire attempts to acquire a slot for one model call.
// Returns nil if successful, or an error if rate limited.
func (ml *ModelLimiter) Acquire(ctx context.Context) error {
	ml.mu.Lock()
	defer ml.mu.Unlock()

	ml.totalRequests++
	now := ml.clk.Now()

	// Check concurrent limit
	if ml.currentActive >= ml.maxConcurrent {
		ml.reject("concurrent limit", now)
		return ErrConcurrentLimitExceeded
	}

	// Check minute limit
	if !ml.minuteBucket.tryAcquire(now) {
		ml.reject("minute limit", now)
		return ErrMinuteLimitExceeded
	}

	// Check hour limit
	if !ml.hourBucket.tryAcquire(now) {
		// Rollback minute bucket
		ml.minuteBucket.release()
		ml.reject("hour limit", now)
		return ErrHourLimitExceeded
	}

	// Check day limit
	if !ml.dayBucket.tryAcquire(now) {
		// Rollback minute and hour buckets
		ml.minuteBucket.release()
		ml.hourBucket.release()
		ml.reject("day limit", now)
		return ErrDayLimitExceeded
	}

	ml.currentActive++

	ml.logger.Debug("model call slot acquired",
		zap.Int("active", ml.currentActive),
		zap.Int("minute_remaining", ml.minuteBucket.remaining()),
		zap.Int("hour_remaining", ml.hourBucket.remaining()),
		zap.Int("day_remaining", ml.dayBucket.remaining()),
	)

	return nil
}

// Release releases a slot after the model call completes.
func (ml *ModelLimiter) Release() {
	ml.mu.Lock()
	defer ml.mu.Unlock()

	if ml.currentActive > 0 {
		ml.currentActive--
	}

	ml.logger.Debug("model call slot released",
		zap.Int("active", ml.currentActive),
	)
}

// Wait blocks until a slot is available or the context is canceled.
func (ml *ModelLimiter) Wait(ctx context.Context) error {
	// Try to acquire immediately
	if err := ml.Acquire(ctx); err == nil {
		return nil
	}

	// Poll for availability
	ticker := ml.clk.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C():
			if err := ml.Acquire(ctx); err == nil {
				return nil
			}
		}
	}
}

// reject records a rejection.
func (ml *ModelLimiter) reject(reason string, t time.Time) {
	ml.totalRejected++
	ml.lastRejectedAt = t
	ml.rejectionReason = reason

	ml.logger.Warn("model call rate limit exceeded",
		zap.String("reason", reason),
		zap.Int64("total_rejected", ml.totalRejected),
	)
}

// Stats returns current rate limiter statistics.
func (ml *ModelLimiter) Stats() ModelLimiterStats {
	ml.mu.RLock()
	defer ml.mu.RUnlock()

	now := ml.clk.Now()
	return ModelLimiterStats{
		CurrentActive:       ml.currentActive,
		MaxConcurrent:       ml.maxConcurrent,
		MinuteRemaining:     ml.minuteBucket.remaining(),
		MinuteMax:           ml.maxRequestsPerMinute,
		HourRemaining:       ml.hourBucket.remaining(),
		HourMax:             ml.maxRequestsPerHour,
		DayRemaining:        ml.dayBucket.remaining(),
		DayMax:              ml.maxRequestsPerDay,
		TotalRequests:       ml.totalRequests,
		TotalRejected:       ml.totalRejected,
		LastRejectedAt:      ml.lastRejectedAt,
		LastRejectionReason: ml.rejectionReason,
		MinuteResetIn:       ml.minuteBucket.resetIn(now),
		HourResetIn:         ml.hourBucket.resetIn(now),
		DayResetIn:          ml.dayBucket.resetIn(now),
	}
}

// ModelLimiterStats holds statistics about the rate limiter.
type ModelLimiterStats struct {
	CurrentActive       int           `json:"current_active"`
	MaxConcurrent       int           `json:"max_concurrent"`
	MinuteRemaining     int           `json:"minute_remaining"`
	MinuteMax           int           `json:"minute_max"`
	HourRemaining       int           `json:"hour_remaining"`
	HourMax             int           `json:"hour_max"`
	DayRemaining        int           `json:"day_remaining"`
	DayMax              int           `json:"day_max"`
	TotalRequests       int64         `json:"total_requests"`
	TotalRejected       int64         `json:"total_rejected"`
	LastRejectedAt      time.Time     `json:"last_rejected_at,omitempty"`
	LastRejectionReason string        `json:"last_rejection_reason,omitempty"`
	MinuteResetIn       time.Duration `json:"minute_reset_in"`
	HourResetIn         time.Duration `json:"hour_reset_in"`
	DayResetIn          time.Duration `json:"day_reset_in"`
}

// tokenBucket is a simple fixed-window token bucket implementation.
type tokenBucket struct {
	max       int
	period    time.Duration
	tokens    int
	lastReset time.Time
}

func newTokenBucket(maxTokens int, period time.Duration, now time.Time) *tokenBucket {
	return &tokenBucket{
		max:       maxTokens,
		period:    period,
		tokens:    maxTokens,
		lastReset: now,
	}
}

func (b *tokenBucket) tryAcquire(now time.Time) bool {
	b.refill(now)
	if b.tokens <= 0 {
		return false
	}
	b.tokens--
	return true
}

func (b *tokenBucket) release() {
	if b.tokens < b.max {
		b.tokens++
	}
}

func (b *tokenBucket) remaining() int {
	return b.tokens
}

func (b *tokenBucket) resetIn(now time.Time) time.Duration {
	elapsed := now.Sub(b.lastReset)
	remaining := b.period - elapsed
	if remaining < 0 {
		return 0
	}
	return remaining
}

func (b *tokenBucket) refill(now time.Time) {
	elapsed := now.Sub(b.lastReset)
	if elapsed >= b.period {
		// Reset the bucket
		b.tokens = b.max
		b.lastReset = now
	}
}
