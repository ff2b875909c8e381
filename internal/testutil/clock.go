// Package testutil provides shared test fixtures.
package testutil

import (
	"sync"
	"time"

	"github.com/chstech1/osTicket-Task-Creator/internal/schedule"
)

// FixedClock pins the batch date for deterministic runner tests.
//
// Thread-safety: all methods are safe for concurrent use via internal
// mutex, so a test can advance the day while a run is in flight.
type FixedClock struct {
	mu  sync.Mutex
	day time.Time
}

// NewFixedClock creates a clock pinned to the given civil date.
func NewFixedClock(day time.Time) *FixedClock {
	return &FixedClock{day: schedule.Truncate(day)}
}

// Today returns the pinned date.
func (c *FixedClock) Today() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.day
}

// Advance moves the pinned date forward by n days. Used to simulate the
// external scheduler re-invoking the batch on later days.
func (c *FixedClock) Advance(days int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.day = c.day.AddDate(0, 0, days)
}
