package connection

import (
	"sync"
	"testing"
	"time"
)

// fakeClock is a manually advanced clock for deterministic timer tests.
type fakeClock struct {
	mu     sync.Mutex
	now    time.Time
	timers []*fakeTimer
}

type fakeTimer struct {
	clk  *fakeClock
	when time.Time
	f    func()
	done bool // fired or stopped
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) AfterFunc(d time.Duration, f func()) timer {
	c.mu.Lock()
	defer c.mu.Unlock()

	t := &fakeTimer{clk: c, when: c.now.Add(d), f: f}
	c.timers = append(c.timers, t)
	return t
}

// pending counts timers that are armed and not yet fired.
func (c *fakeClock) pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := 0
	for _, t := range c.timers {
		if !t.done {
			n++
		}
	}
	return n
}

// advance moves the clock forward, firing due timers in order. Callbacks
// run without the clock lock held so they can arm new timers.
func (c *fakeClock) advance(d time.Duration) {
	c.mu.Lock()
	target := c.now.Add(d)

	for {
		var next *fakeTimer
		for _, t := range c.timers {
			if t.done || t.when.After(target) {
				continue
			}
			if next == nil || t.when.Before(next.when) {
				next = t
			}
		}
		if next == nil {
			break
		}

		next.done = true
		if next.when.After(c.now) {
			c.now = next.when
		}
		c.mu.Unlock()
		next.f()
		c.mu.Lock()
	}

	c.now = target
	c.mu.Unlock()
}

func (t *fakeTimer) Stop() bool {
	t.clk.mu.Lock()
	defer t.clk.mu.Unlock()

	if t.done {
		return false
	}
	t.done = true
	return true
}

func TestFakeClock_FiresInOrder(t *testing.T) {
	clk := newFakeClock()

	var fired []int
	clk.AfterFunc(2*time.Second, func() { fired = append(fired, 2) })
	clk.AfterFunc(1*time.Second, func() { fired = append(fired, 1) })
	clk.AfterFunc(3*time.Second, func() { fired = append(fired, 3) })

	clk.advance(2 * time.Second)

	if len(fired) != 2 || fired[0] != 1 || fired[1] != 2 {
		t.Errorf("fired = %v, want [1 2]", fired)
	}
	if clk.pending() != 1 {
		t.Errorf("pending = %d, want 1", clk.pending())
	}
}

func TestFakeClock_Stop(t *testing.T) {
	clk := newFakeClock()

	fired := false
	tm := clk.AfterFunc(time.Second, func() { fired = true })

	if !tm.Stop() {
		t.Error("first Stop should report cancellation")
	}
	if tm.Stop() {
		t.Error("second Stop should report false")
	}

	clk.advance(2 * time.Second)
	if fired {
		t.Error("stopped timer must not fire")
	}
}
