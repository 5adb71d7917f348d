package engine

import (
	"sync"
	"time"
)

// clock issues creation timestamps that are monotonically non-decreasing
// within the process, even if the wall clock steps backwards. Timestamps
// are the display and ordering key for items.
type clock struct {
	mu   sync.Mutex
	last time.Time
	now  func() time.Time
}

func newClock(now func() time.Time) *clock {
	if now == nil {
		now = time.Now
	}
	return &clock{now: now}
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := c.now().UTC()
	if t.Before(c.last) {
		t = c.last
	}
	c.last = t
	return t
}
