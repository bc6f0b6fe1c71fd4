// Package clock provides a time abstraction so time-dependent code can be
// tested deterministically. Inject a Clock instead of calling time.Now()
// directly; tests substitute a Mock and advance it by hand.
package clock

import (
	"sync"
	"time"
)

// Clock provides time operations that can be mocked for testing.
type Clock interface {
	// Now returns the current time.
	Now() time.Time

	// NowUTC returns the current time in UTC. Preferred for storage.
	NowUTC() time.Time

	// Since returns the time elapsed since t.
	Since(t time.Time) time.Duration

	// NewTicker returns a new Ticker.
	NewTicker(d time.Duration) Ticker

	// NewTimer returns a new Timer.
	NewTimer(d time.Duration) Timer
}

// Ticker wraps time.Ticker for mockability.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

// Timer wraps time.Timer for mockability.
type Timer interface {
	C() <-chan time.Time
	Stop() bool
	Reset(d time.Duration) bool
}

type realClock struct{}

// New returns a Clock that uses the real system time.
func New() Clock {
	return &realClock{}
}

func (c *realClock) Now() time.Time                  { return time.Now() }
func (c *realClock) NowUTC() time.Time               { return time.Now().UTC() }
func (c *realClock) Since(t time.Time) time.Duration { return time.Since(t) }

func (c *realClock) NewTicker(d time.Duration) Ticker {
	return &realTicker{ticker: time.NewTicker(d)}
}

func (c *realClock) NewTimer(d time.Duration) Timer {
	return &realTimer{timer: time.NewTimer(d)}
}

type realTicker struct {
	ticker *time.Ticker
}

func (t *realTicker) C() <-chan time.Time { return t.ticker.C }
func (t *realTicker) Stop()               { t.ticker.Stop() }

type realTimer struct {
	timer *time.Timer
}

func (t *realTimer) C() <-chan time.Time        { return t.timer.C }
func (t *realTimer) Stop() bool                 { return t.timer.Stop() }
func (t *realTimer) Reset(d time.Duration) bool { return t.timer.Reset(d) }

// Mock implements Clock with controllable time for testing.
type Mock struct {
	mu      sync.RWMutex
	current time.Time
}

// NewMock creates a Mock clock set to the given time.
func NewMock(t time.Time) *Mock {
	return &Mock{current: t}
}

// Now returns the mock's current time.
func (m *Mock) Now() time.Time {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

// NowUTC returns the mock's current time in UTC.
func (m *Mock) NowUTC() time.Time {
	return m.Now().UTC()
}

// Since returns the duration since t.
func (m *Mock) Since(t time.Time) time.Duration {
	return m.Now().Sub(t)
}

// NewTicker returns a ticker whose channel the test feeds by hand.
func (m *Mock) NewTicker(d time.Duration) Ticker {
	return &MockTicker{Ch: make(chan time.Time, 1)}
}

// NewTimer returns a timer whose channel the test feeds by hand.
func (m *Mock) NewTimer(d time.Duration) Timer {
	return &MockTimer{Ch: make(chan time.Time, 1)}
}

// Set sets the mock clock to a specific time.
func (m *Mock) Set(t time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.current = t
}

// Advance moves the mock clock forward by the given duration.
func (m *Mock) Advance(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.current = m.current.Add(d)
}

// MockTicker is a hand-fed ticker for tests.
type MockTicker struct {
	Ch chan time.Time
}

func (t *MockTicker) C() <-chan time.Time { return t.Ch }
func (t *MockTicker) Stop()               {}

// Tick pushes one tick into the channel.
func (t *MockTicker) Tick(at time.Time) {
	t.Ch <- at
}

// MockTimer is a hand-fed timer for tests.
type MockTimer struct {
	Ch chan time.Time
}

func (t *MockTimer) C() <-chan time.Time        { return t.Ch }
func (t *MockTimer) Stop() bool                 { return true }
func (t *MockTimer) Reset(d time.Duration) bool { return true }

// Fire pushes one expiry into the channel.
func (t *MockTimer) Fire(at time.Time) {
	t.Ch <- at
}
