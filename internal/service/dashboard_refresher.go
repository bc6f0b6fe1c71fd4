package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/LeeSpain/vision-sync-server/internal/clock"
	"github.com/LeeSpain/vision-sync-server/internal/metrics"
)

// DashboardRefresher keeps a current dashboard snapshot in memory. It
// recomputes on a poll interval and on change notifications from the write
// path, debouncing bursts so a flurry of chat turns costs one recompute.
// Each refresh is an independent read-and-reduce; overlapping staleness is
// harmless because only the latest successful snapshot is served.
type DashboardRefresher struct {
	dashboard *DashboardService
	metrics   *metrics.Metrics
	clk       clock.Clock
	logger    *zap.Logger

	// Configuration
	pollInterval time.Duration
	debounce     time.Duration
	window       time.Duration

	// Latest snapshot
	snapMu   sync.RWMutex
	snapshot *DashboardSnapshot

	// Lifecycle
	notifyCh chan struct{}
	stopCh   chan struct{}
	wg       sync.WaitGroup
	mu       sync.Mutex
	running  bool
}

// DashboardRefresherConfig holds configuration for the refresher.
type DashboardRefresherConfig struct {
	PollInterval time.Duration
	Debounce     time.Duration
	Window       time.Duration
}

// DefaultDashboardRefresherConfig returns sensible defaults.
func DefaultDashboardRefresherConfig() *DashboardRefresherConfig {
	return &DashboardRefresherConfig{
		PollInterval: 30 * time.Second,
		Debounce:     2 * time.Second,
		Window:       30 * 24 * time.Hour,
	}
}

// NewDashboardRefresher creates a new refresher.
func NewDashboardRefresher(
	dashboard *DashboardService,
	config *DashboardRefresherConfig,
	clk clock.Clock,
	m *metrics.Metrics,
	logger *zap.Logger,
) *DashboardRefresher {
	if config == nil {
		config = DefaultDashboardRefresherConfig()
	}
	if clk == nil {
		clk = clock.New()
	}

	return &DashboardRefresher{
		dashboard:    dashboard,
		metrics:      m,
		clk:          clk,
		logger:       logger,
		pollInterval: config.PollInterval,
		debounce:     config.Debounce,
		window:       config.Window,
		notifyCh:     make(chan struct{}, 1),
		stopCh:       make(chan struct{}),
	}
}

// Start computes an initial snapshot and begins the refresh loop.
func (r *DashboardRefresher) Start(ctx context.Context) error {
	r.mu.Lock()
	if r.running {
		r.mu.Unlock()
		return errors.New("refresher already running")
	}
	r.running = true
	r.mu.Unlock()

	r.logger.Info("starting dashboard refresher",
		zap.Duration("poll_interval", r.pollInterval),
		zap.Duration("debounce", r.debounce),
		zap.Duration("window", r.window),
	)

	// First snapshot is computed synchronously so the dashboard endpoint
	// has data the moment the server accepts traffic. A failure here is
	// logged, not fatal; the loop will retry.
	r.refresh(ctx)

	r.wg.Add(1)
	go r.runLoop()

	return nil
}

// Stop terminates the refresh loop.
func (r *DashboardRefresher) Stop(ctx context.Context) error {
	r.mu.Lock()
	if !r.running {
		r.mu.Unlock()
		return nil
	}
	r.running = false
	r.mu.Unlock()

	close(r.stopCh)

	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		r.logger.Info("dashboard refresher stopped")
		return nil
	case <-ctx.Done():
		r.logger.Warn("dashboard refresher stop timed out")
		return ctx.Err()
	}
}

// Notify signals that dashboard-relevant rows changed. Non-blocking; a
// pending notification absorbs later ones until the debounce fires.
func (r *DashboardRefresher) Notify() {
	select {
	case r.notifyCh <- struct{}{}:
	default:
	}
}

// Snapshot returns the latest successful snapshot, or nil before the first
// successful refresh.
func (r *DashboardRefresher) Snapshot() *DashboardSnapshot {
	r.snapMu.RLock()
	defer r.snapMu.RUnlock()
	return r.snapshot
}

func (r *DashboardRefresher) runLoop() {
	defer r.wg.Done()

	ticker := r.clk.NewTicker(r.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-r.stopCh:
			return
		case <-ticker.C():
			r.refresh(context.Background())
		case <-r.notifyCh:
			// Debounce: collapse a burst of notifications into one
			// recompute, but bail out promptly on shutdown.
			timer := r.clk.NewTimer(r.debounce)
			select {
			case <-r.stopCh:
				timer.Stop()
				return
			case <-timer.C():
			}
			r.refresh(context.Background())
		}
	}
}

func (r *DashboardRefresher) refresh(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	start := r.clk.Now()
	snapshot, err := r.dashboard.Compute(ctx, r.window)
	r.metrics.RecordDashboardRefresh(err == nil, r.clk.Since(start))
	if err != nil {
		r.logger.Error("dashboard refresh failed", zap.Error(err))
		return
	}

	r.snapMu.Lock()
	r.snapshot = snapshot
	r.snapMu.Unlock()
}
