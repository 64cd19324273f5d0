package testutil

import (
	"sync"
	"time"
)

// FixedClock provides a settable wall clock for tests.
//
// Unlike engine.SystemClock, FixedClock only moves when told to. Runs that
// depend on "today" (the 90-day absence window, the 180-day reactivation
// window) therefore produce identical plans on every execution.
//
// Thread-safety: All methods are safe for concurrent use via internal mutex.
type FixedClock struct {
	mu  sync.Mutex
	now time.Time
}

// NewFixedClock creates a clock that reports the given date at midnight UTC.
func NewFixedClock(year int, month time.Month, day int) *FixedClock {
	return &FixedClock{now: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// Now returns the current fixed time.
//
// Implements engine.Clock.
func (c *FixedClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward by d.
func (c *FixedClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// Set moves the clock to t.
func (c *FixedClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}
