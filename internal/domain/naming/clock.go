package naming

import (
	"sync"
	"time"
)

// Clock provides the current instant and can be replaced in tests.
type Clock interface {
	// Now returns the current time
	Now() time.Time
}

// RealClock implements Clock using real system time.
type RealClock struct{}

// Now returns the current system time.
func (RealClock) Now() time.Time {
	return time.Now()
}

// FixedClock implements Clock with a settable time for testing.
type FixedClock struct {
	mu   sync.Mutex
	now  time.Time
	step time.Duration
}

// NewFixedClock creates a FixedClock starting at t.
func NewFixedClock(t time.Time) *FixedClock {
	return &FixedClock{now: t}
}

// NewSteppingClock creates a clock that advances by step after every Now call.
func NewSteppingClock(t time.Time, step time.Duration) *FixedClock {
	return &FixedClock{now: t, step: step}
}

// Now returns the fixed time, then advances it by the configured step.
func (f *FixedClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	now := f.now
	f.now = f.now.Add(f.step)
	return now
}

// SetTime updates the fixed time.
func (f *FixedClock) SetTime(t time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = t
}

// AddTime adds a duration to the current fixed time.
func (f *FixedClock) AddTime(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = f.now.Add(d)
}
