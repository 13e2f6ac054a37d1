// Package clock provides the wall-clock source used to measure elapsed
// tracking and assessment time.
package clock

import (
	"sync"
	"time"
)

// Clock reads the current instant.
type Clock interface {
	Now() time.Time
}

// Real reads the system clock. The returned instants carry a monotonic
// reading, so differences between them are immune to wall-clock jumps.
type Real struct{}

func (Real) Now() time.Time { return time.Now() }

// Fake is a manually advanced clock for tests and previews.
type Fake struct {
	mu  sync.Mutex
	now time.Time
}

// NewFake returns a Fake clock set to start.
func NewFake(start time.Time) *Fake {
	return &Fake{now: start}
}

func (f *Fake) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

// Advance moves the clock forward by d.
func (f *Fake) Advance(d time.Duration) {
	f.mu.Lock()
	f.now = f.now.Add(d)
	f.mu.Unlock()
}

// Set moves the clock to t.
func (f *Fake) Set(t time.Time) {
	f.mu.Lock()
	f.now = t
	f.mu.Unlock()
}

// Seconds returns the whole seconds elapsed between from and to, never
// negative.
func Seconds(from, to time.Time) int {
	d := to.Sub(from)
	if d < 0 {
		return 0
	}
	return int(d / time.Second)
}
