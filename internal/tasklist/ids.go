package tasklist

import (
	"math"
	"sync"
	"time"
)

// IDSource hands out local task ids.
type IDSource interface {
	Next() int
}

// ClockIDs issues ids seeded from the wall clock in milliseconds. Ids are
// strictly increasing, so two adds in the same tick still differ.
type ClockIDs struct {
	mu   sync.Mutex
	last int
	now  func() time.Time
}

// NewClockIDs returns a ClockIDs reading time.Now.
func NewClockIDs() *ClockIDs {
	return &ClockIDs{now: time.Now}
}

// Next returns the next id.
func (c *ClockIDs) Next() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	id := clockSeed(c.now().UnixMilli(), math.MaxInt)
	if id <= c.last {
		id = c.last + 1
	}
	c.last = id
	return id
}

// clockSeed maps a millisecond timestamp into [0, limit]. On 32-bit
// platforms the timestamp does not fit an int and wraps modulo limit.
func clockSeed(ms, limit int64) int {
	if ms > limit {
		ms %= limit
	}
	return int(ms)
}
