package tableview

import (
	"sync"
	"time"
)

type fakeTimer struct {
	fn      func()
	delay   time.Duration
	stopped bool
	fired   bool
}

func (t *fakeTimer) Stop() bool {
	wasActive := !t.stopped && !t.fired
	t.stopped = true
	return wasActive
}

// fakeClock hands out timers that only fire when the test says so
type fakeClock struct {
	mu     sync.Mutex
	timers []*fakeTimer
}

func (c *fakeClock) AfterFunc(d time.Duration, fn func()) Stopper {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &fakeTimer{fn: fn, delay: d}
	c.timers = append(c.timers, t)
	return t
}

// FireAll runs every timer that is still armed and returns how many ran
func (c *fakeClock) FireAll() int {
	c.mu.Lock()
	var due []*fakeTimer
	for _, t := range c.timers {
		if !t.stopped && !t.fired {
			t.fired = true
			due = append(due, t)
		}
	}
	c.mu.Unlock()

	for _, t := range due {
		t.fn()
	}
	return len(due)
}

func (c *fakeClock) Armed() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, t := range c.timers {
		if !t.stopped && !t.fired {
			n++
		}
	}
	return n
}
