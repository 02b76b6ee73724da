package readyset

import (
	"sync"
	"time"
)

type Clock interface {
	// Now returns the current monotonic time.
	Now() Timespec
	// NewTimer returns a timer firing once Now reaches deadline.
	NewTimer(deadline Timespec) Timer
}

type Timer interface {
	C() <-chan time.Time
	Stop() bool
}

// MonotonicClock reads the system monotonic clock. Its timers run on the Go
// runtime timer, which shares the same time source.
type MonotonicClock struct{}

func (c MonotonicClock) Now() Timespec {
	return monotonicNow()
}

func (c MonotonicClock) NewTimer(deadline Timespec) Timer {
	return runtimeTimer{time.NewTimer(deadline.Sub(c.Now()))}
}

type runtimeTimer struct {
	t *time.Timer
}

func (r runtimeTimer) C() <-chan time.Time {
	return r.t.C
}

func (r runtimeTimer) Stop() bool {
	return r.t.Stop()
}

// FakeClock is a manually driven Clock. Timers fire from Advance and Set.
type FakeClock struct {
	mu     sync.Mutex
	now    Timespec
	timers []*fakeTimer
}

func NewFakeClock(now Timespec) *FakeClock {
	return &FakeClock{now: now}
}

func (c *FakeClock) Now() Timespec {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *FakeClock) NewTimer(deadline Timespec) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	ft := &fakeTimer{clock: c, deadline: deadline, ch: make(chan time.Time, 1)}
	if !c.now.Before(deadline) {
		ft.fire(c.now)
		return ft
	}
	c.timers = append(c.timers, ft)
	return ft
}

func (c *FakeClock) Advance(d time.Duration) {
	if d < 0 {
		return
	}
	c.mu.Lock()
	c.now = c.now.Add(uint64(d))
	c.mu.Unlock()
	c.fireExpired()
}

func (c *FakeClock) Set(now Timespec) {
	c.mu.Lock()
	c.now = now
	c.mu.Unlock()
	c.fireExpired()
}

// Pending reports the number of armed timers. Tests use it to detect that a
// consumer has entered its wait.
func (c *FakeClock) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.timers)
}

func (c *FakeClock) fireExpired() {
	c.mu.Lock()
	defer c.mu.Unlock()
	kept := c.timers[:0]
	for _, ft := range c.timers {
		if c.now.Before(ft.deadline) {
			kept = append(kept, ft)
			continue
		}
		ft.fire(c.now)
	}
	for i := len(kept); i < len(c.timers); i++ {
		c.timers[i] = nil
	}
	c.timers = kept
}

func (c *FakeClock) remove(ft *fakeTimer) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, t := range c.timers {
		if t == ft {
			c.timers = append(c.timers[:i], c.timers[i+1:]...)
			return true
		}
	}
	return false
}

type fakeTimer struct {
	clock    *FakeClock
	deadline Timespec
	ch       chan time.Time
}

func (ft *fakeTimer) fire(now Timespec) {
	select {
	case ft.ch <- time.Unix(now.Sec, now.Nsec):
	default:
	}
}

func (ft *fakeTimer) C() <-chan time.Time {
	return ft.ch
}

func (ft *fakeTimer) Stop() bool {
	return ft.clock.remove(ft)
}
