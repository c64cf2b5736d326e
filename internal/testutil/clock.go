package testutil

import (
	"sync"
	"time"
)

// DeterministicClock provides a thread-safe monotonic time source for tests.
//
// Each call to Now() advances wall time by a fixed step from a fixed
// epoch, so the same test scenario produces identical commit timestamps
// on every run. Wire it into the store with store.SetNowFunc(c.Now).
//
// Thread-safety: All methods are safe for concurrent use via internal mutex.
type DeterministicClock struct {
	mu    sync.Mutex
	epoch time.Time
	step  time.Duration
	ticks int64
}

// NewDeterministicClock creates a clock starting at the given epoch,
// advancing by step on every Now() call.
//
// The first call to Now() returns epoch + step.
func NewDeterministicClock(epoch time.Time, step time.Duration) *DeterministicClock {
	return &DeterministicClock{epoch: epoch, step: step}
}

// Now advances the clock and returns the new time.
//
// Thread-safe: uses mutex to protect tick access.
// Monotonic: each call returns a strictly later time.
func (c *DeterministicClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ticks++
	return c.epoch.Add(time.Duration(c.ticks) * c.step)
}

// Reset rewinds the clock to its epoch.
//
// Used for test reuse. After Reset(), the next call to Now() returns
// epoch + step again.
func (c *DeterministicClock) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ticks = 0
}
