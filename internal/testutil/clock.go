package testutil

import (
	"sync"
	"time"
)

// DefaultEpoch is the first timestamp returned by NewDeterministicClock.
var DefaultEpoch = time.Date(2024, time.January, 15, 9, 30, 0, 0, time.UTC)

// DeterministicClock yields timestamps one second apart for tests.
//
// Unlike time.Now, two runs of the same scenario observe identical
// timestamps, so golden history output stays byte-identical.
//
// Thread-safety: All methods are safe for concurrent use via internal mutex.
type DeterministicClock struct {
	mu   sync.Mutex
	base time.Time
	seq  int64
}

// NewDeterministicClock creates a clock starting at DefaultEpoch.
func NewDeterministicClock() *DeterministicClock {
	return NewDeterministicClockAt(DefaultEpoch)
}

// NewDeterministicClockAt creates a clock starting at base.
//
// The first call to Now() returns base.
func NewDeterministicClockAt(base time.Time) *DeterministicClock {
	return &DeterministicClock{base: base}
}

// Now returns the next timestamp and advances the clock by one second.
func (c *DeterministicClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := c.base.Add(time.Duration(c.seq) * time.Second)
	c.seq++
	return t
}

// Calls returns how many timestamps have been handed out.
func (c *DeterministicClock) Calls() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.seq
}

// Reset rewinds the clock to its base.
func (c *DeterministicClock) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seq = 0
}
