package session

import (
	"sync"
	"time"
)

// Clock supplies the two time sources sessions depend on. Monotonic readings
// drive token refill; wall readings date sessions for expiry. They are kept
// separate so a wall clock step never grants or withholds tokens.
type Clock interface {
	Monotonic() time.Time
	Wall() time.Time
}

// SystemClock reads the process clocks.
type SystemClock struct{}

// Monotonic returns time.Now, which carries a monotonic reading.
func (SystemClock) Monotonic() time.Time { return time.Now() }

// Wall returns time.Now with the monotonic reading stripped, so comparisons
// use wall time.
func (SystemClock) Wall() time.Time { return time.Now().Round(0) }

// ManualClock is a Clock advanced explicitly, for tests and simulations.
// Its monotonic and wall readings start equal and can be moved independently.
type ManualClock struct {
	mu   sync.Mutex
	mono time.Time
	wall time.Time
}

func NewManualClock(start time.Time) *ManualClock {
	start = start.Round(0)
	return &ManualClock{mono: start, wall: start}
}

func (c *ManualClock) Monotonic() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mono
}

func (c *ManualClock) Wall() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.wall
}

// Advance moves both readings forward by d.
func (c *ManualClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.mono = c.mono.Add(d)
	c.wall = c.wall.Add(d)
}

// StepWall moves only the wall reading, as an NTP correction or manual
// clock change would.
func (c *ManualClock) StepWall(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.wall = c.wall.Add(d)
}
