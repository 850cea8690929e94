// Package clock provides the timestamps stamped on crisis updates.
package clock

import (
	"sync"
	"time"
)

// System reports wall-clock time in nanoseconds since the Unix epoch.
// Readings never decrease within a process, even if the wall clock steps back.
type System struct {
	mu   sync.Mutex
	last uint64
	now  func() time.Time
}

// NewSystem creates a clock backed by time.Now.
func NewSystem() *System {
	return &System{now: time.Now}
}

// Now returns the current time, clamped so it is never below a previous reading.
func (c *System) Now() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	t := c.now().UnixNano()
	var cur uint64
	if t > 0 {
		cur = uint64(t)
	}
	if cur < c.last {
		cur = c.last
	}
	c.last = cur
	return cur
}

// Manual is a clock that only moves when told to. Used by tests and replay.
type Manual struct {
	mu  sync.Mutex
	now uint64
}

// NewManual creates a manual clock starting at start.
func NewManual(start uint64) *Manual {
	return &Manual{now: start}
}

// Now returns the current reading.
func (c *Manual) Now() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward by d and returns the new reading.
func (c *Manual) Advance(d uint64) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now += d
	return c.now
}

// Set moves the clock to t. Values below the current reading are ignored.
func (c *Manual) Set(t uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if t > c.now {
		c.now = t
	}
}
