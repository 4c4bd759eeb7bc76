package testutil

import (
	"sync"
	"time"
)

// Clock is a controllable time source. Each call to Now advances it by the
// configured step, so consecutive timestamps are distinct and ordered.
type Clock struct {
	mu   sync.Mutex
	now  time.Time
	step time.Duration
}

// NewClock returns a Clock at start, or at 2026-01-01 00:00:00 UTC when
// start is zero.
func NewClock(start time.Time, step time.Duration) *Clock {
	if start.IsZero() {
		start = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	}
	return &Clock{now: start, step: step}
}

// Now returns the current time and then advances by the step.
func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := c.now
	c.now = c.now.Add(c.step)
	return t
}

// Advance moves the clock forward by d.
func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}
