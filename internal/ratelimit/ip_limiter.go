package ratelimit

import (
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/LeeSpain/vision-sync-server/internal/clock"
)

// IPLimiter provides per-client rate limiting for the public endpoints.
// Visitors are anonymous, so the remote IP is the only stable key.
type IPLimiter struct {
	mu sync.Mutex

	config  IPLimiterConfig
	buckets map[string]*ipBucket

	clk    clock.Clock
	logger *zap.Logger

	stopOnce sync.Once
	stopCh   chan struct{}
}

// ipBucket holds rate limit state for a single client IP.
type ipBucket struct {
	bucket     *tokenBucket
	lastAccess time.Time
}

// IPLimiterConfig holds configuration for per-IP rate limiting.
type IPLimiterConfig struct {
	// MaxRequests allowed per Window from one IP.
	MaxRequests int
	Window      time.Duration

	// CleanupInterval controls how often stale IPs are evicted.
	CleanupInterval time.Duration
	// StaleThreshold is how long an IP may be idle before eviction.
	StaleThreshold time.Duration
}

// DefaultIPLimiterConfig returns sensible defaults.
func DefaultIPLimiterConfig() IPLimiterConfig {
	return IPLimiterConfig{
		MaxRequests:     60,
		Window:          time.Minute,
		CleanupInterval: 5 * time.Minute,
		StaleThreshold:  30 * time.Minute,
	}
}

// ErrIPLimitExceeded is returned when an IP has used up its window budget.
var ErrIPLimitExceeded = errors.New("ip rate limit exceeded")

// NewIPLimiter creates a new per-IP rate limiter and starts its cleanup
// loop. Call Stop when done.
func NewIPLimiter(config IPLimiterConfig, clk clock.Clock, logger *zap.Logger) *IPLimiter {
	if config.MaxRequests <= 0 {
		config.MaxRequests = DefaultIPLimiterConfig().MaxRequests
	}
	if config.Window <= 0 {
		config.Window = DefaultIPLimiterConfig().Window
	}
	if config.CleanupInterval <= 0 {
		config.CleanupInterval = DefaultIPLimiterConfig().CleanupInterval
	}
	if config.StaleThreshold <= 0 {
		config.StaleThreshold = DefaultIPLimiterConfig().StaleThreshold
	}
	if clk == nil {
		clk = clock.New()
	}

	rl := &IPLimiter{
		config:  config,
		buckets: make(map[string]*ipBucket),
		clk:     clk,
		logger:  logger,
		stopCh:  make(chan struct{}),
	}

	go rl.cleanupLoop()

	return rl
}

// Allow checks if a request from the given IP is allowed.
func (rl *IPLimiter) Allow(ip string) error {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.clk.Now()
	entry, exists := rl.buckets[ip]
	if !exists {
		entry = &ipBucket{
			bucket: newTokenBucket(rl.config.MaxRequests, rl.config.Window, now),
		}
		rl.buckets[ip] = entry
	}
	entry.lastAccess = now

	if !entry.bucket.tryAcquire(now) {
		rl.logger.Warn("ip rate limit exceeded",
			zap.String("ip", ip),
			zap.Int("limit", rl.config.MaxRequests),
		)
		return ErrIPLimitExceeded
	}

	return nil
}

// Remaining returns how many requests the IP has left in the current window.
func (rl *IPLimiter) Remaining(ip string) int {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	entry, exists := rl.buckets[ip]
	if !exists {
		return rl.config.MaxRequests
	}
	entry.bucket.refill(rl.clk.Now())
	return entry.bucket.remaining()
}

// TrackedIPs returns the number of IPs currently being tracked.
func (rl *IPLimiter) TrackedIPs() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.buckets)
}

// Stop terminates the cleanup loop.
func (rl *IPLimiter) Stop() {
	rl.stopOnce.Do(func() { close(rl.stopCh) })
}

func (rl *IPLimiter) cleanupLoop() {
	ticker := rl.clk.NewTicker(rl.config.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-rl.stopCh:
			return
		case <-ticker.C():
			rl.evictStale()
		}
	}
}

func (rl *IPLimiter) evictStale() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.clk.Now()
	evicted := 0
	for ip, entry := range rl.buckets {
		if now.Sub(entry.lastAccess) > rl.config.StaleThreshold {
			delete(rl.buckets, ip)
			evicted++
		}
	}

	if evicted > 0 {
		rl.logger.Debug("evicted stale rate limit entries",
			zap.Int("evicted", evicted),
			zap.Int("remaining", len(rl.buckets)),
		)
	}
}
