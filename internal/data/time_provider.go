package data

import (
	"sync"
	"time"
)

// TimeProvider supplies timestamps written by repositories so tests can pin them.
type TimeProvider interface {
	Now() time.Time
}

// RealTimeProvider implements TimeProvider using the system clock in UTC.
type RealTimeProvider struct{}

// Now returns the current time in UTC.
func (RealTimeProvider) Now() time.Time { return time.Now().UTC() }

// FixedTimeProvider implements TimeProvider with a settable time for tests.
type FixedTimeProvider struct {
	mu sync.Mutex
	t  time.Time
}

// NewFixedTimeProvider creates a FixedTimeProvider starting at t.
func NewFixedTimeProvider(t time.Time) *FixedTimeProvider {
	return &FixedTimeProvider{t: t}
}

// Now returns the fixed time.
func (f *FixedTimeProvider) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.t
}

// Advance moves the fixed time forward by d.
func (f *FixedTimeProvider) Advance(d time.Duration) {
	f.mu.Lock()
	f.t = f.t.Add(d)
	f.mu.Unlock()
}
