// Package shutdown sequences the teardown of the server: stop routing,
// drain in-flight chat and admin requests, stop background workers such as
// the dashboard refresher, then release the database pool.
package shutdown

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Component is anything that must be stopped during teardown.
type Component interface {
	// Name identifies the component in shutdown logs.
	Name() string
	// Stop performs the teardown and returns once it is complete.
	Stop(ctx context.Context) error
}

// componentFunc adapts a plain function to Component.
type componentFunc struct {
	name string
	fn   func(ctx context.Context) error
}

func (c componentFunc) Name() string                   { return c.name }
func (c componentFunc) Stop(ctx context.Context) error { return c.fn(ctx) }

// Phase orders teardown. Components in the same phase stop concurrently;
// phases run strictly in sequence.
type Phase int

const (
	// PhasePreDrain flips readiness so the load balancer stops routing here.
	PhasePreDrain Phase = iota
	// PhaseDrain lets in-flight HTTP requests finish; a chat turn mid-model
	// call gets to deliver its reply.
	PhaseDrain
	// PhaseShutdown stops background workers (dashboard refresher,
	// limiter cleanup loops).
	PhaseShutdown
	// PhaseCleanup closes the database pool and flushes buffers.
	PhaseCleanup
)

func (p Phase) String() string {
	switch p {
	case PhasePreDrain:
		return "pre-drain"
	case PhaseDrain:
		return "drain"
	case PhaseShutdown:
		return "shutdown"
	case PhaseCleanup:
		return "cleanup"
	default:
		return "unknown"
	}
}

// Coordinator runs the phased teardown exactly once.
type Coordinator struct {
	mu         sync.Mutex
	components map[Phase][]Component
	timeout    time.Duration
	logger     *zap.Logger

	shutdownCh chan struct{}
	once       sync.Once
	done       chan struct{}
	err        error
}

// Config holds configuration for the shutdown coordinator.
type Config struct {
	// Timeout bounds the entire teardown across all phases.
	Timeout time.Duration
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() *Config {
	return &Config{Timeout: 30 * time.Second}
}

// NewCoordinator creates a new shutdown coordinator.
func NewCoordinator(cfg *Config, logger *zap.Logger) *Coordinator {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	return &Coordinator{
		components: make(map[Phase][]Component),
		timeout:    cfg.Timeout,
		logger:     logger,
		shutdownCh: make(chan struct{}),
		done:       make(chan struct{}),
	}
}

// Register adds a component to the given phase.
func (c *Coordinator) Register(phase Phase, comp Component) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.components[phase] = append(c.components[phase], comp)
	c.logger.Debug("registered for shutdown",
		zap.String("component", comp.Name()),
		zap.String("phase", phase.String()),
	)
}

// RegisterFunc registers a teardown function under a name.
func (c *Coordinator) RegisterFunc(phase Phase, name string, fn func(ctx context.Context) error) {
	c.Register(phase, componentFunc{name: name, fn: fn})
}

// Shutdown runs the teardown and returns the accumulated component errors.
// Safe to call more than once; later calls wait for the first run and
// return its result. The passed context only bounds the wait, not the
// teardown itself, which always gets the configured timeout.
func (c *Coordinator) Shutdown(ctx context.Context) error {
	c.once.Do(func() {
		close(c.shutdownCh)
		go c.run()
	})

	select {
	case <-c.done:
		return c.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// ShutdownCh is closed the moment teardown is initiated. Background loops
// select on it to stop picking up new work.
func (c *Coordinator) ShutdownCh() <-chan struct{} {
	return c.shutdownCh
}

func (c *Coordinator) run() {
	defer close(c.done)

	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()

	c.logger.Info("starting graceful shutdown", zap.Duration("timeout", c.timeout))

	var errs []error
	for _, phase := range []Phase{PhasePreDrain, PhaseDrain, PhaseShutdown, PhaseCleanup} {
		c.mu.Lock()
		comps := c.components[phase]
		c.mu.Unlock()

		if len(comps) == 0 {
			continue
		}

		c.logger.Info("shutdown phase",
			zap.String("phase", phase.String()),
			zap.Int("components", len(comps)),
		)

		errs = append(errs, c.runPhase(ctx, phase, comps)...)

		if ctx.Err() != nil {
			c.logger.Error("shutdown timeout exceeded",
				zap.String("phase", phase.String()),
				zap.Error(ctx.Err()),
			)
			errs = append(errs, ctx.Err())
			break
		}
	}

	c.err = errors.Join(errs...)
	if c.err != nil {
		c.logger.Error("shutdown finished with errors", zap.Int("errors", len(errs)))
		return
	}
	c.logger.Info("graceful shutdown complete")
}

// runPhase stops every component of one phase concurrently and collects
// their errors.
func (c *Coordinator) runPhase(ctx context.Context, phase Phase, comps []Component) []error {
	var wg sync.WaitGroup
	errCh := make(chan error, len(comps))

	for _, comp := range comps {
		wg.Add(1)
		go func(comp Component) {
			defer wg.Done()

			start := time.Now()
			if err := comp.Stop(ctx); err != nil {
				c.logger.Error("component shutdown failed",
					zap.String("component", comp.Name()),
					zap.String("phase", phase.String()),
					zap.Duration("duration", time.Since(start)),
					zap.Error(err),
				)
				errCh <- fmt.Errorf("%s: %w", comp.Name(), err)
				return
			}

			c.logger.Debug("component stopped",
				zap.String("component", comp.Name()),
				zap.String("phase", phase.String()),
				zap.Duration("duration", time.Since(start)),
			)
		}(comp)
	}

	wg.Wait()
	close(errCh)

	var errs []error
	for err := range errCh {
		errs = append(errs, err)
	}
	return errs
}

// ReadinessProbe reports draining to the readiness endpoint once teardown
// starts, so the load balancer routes new chat traffic elsewhere while
// in-flight requests finish.
type ReadinessProbe struct {
	mu       sync.RWMutex
	draining bool
}

// NewReadinessProbe creates a probe that flips to draining when the
// coordinator initiates shutdown.
func NewReadinessProbe(coord *Coordinator) *ReadinessProbe {
	rp := &ReadinessProbe{}
	go func() {
		<-coord.ShutdownCh()
		rp.mu.Lock()
		rp.draining = true
		rp.mu.Unlock()
	}()
	return rp
}

// IsReady reports whether the server should still receive traffic.
func (rp *ReadinessProbe) IsReady() bool {
	rp.mu.RLock()
	defer rp.mu.RUnlock()
	return !rp.draining
}
