package tableview

import (
	"sync"
	"time"
)

// Stopper is the part of a timer the debouncer needs
type Stopper interface {
	Stop() bool
}

// TimerFunc schedules f after d. time.AfterFunc satisfies it through AfterFunc.
type TimerFunc func(d time.Duration, f func()) Stopper

// AfterFunc is the real-clock TimerFunc
func AfterFunc(d time.Duration, f func()) Stopper {
	return time.AfterFunc(d, f)
}

// Debouncer delays an action until its key has been quiet for the configured
// delay. Re-arming restarts the timer and replaces the pending action; only
// the last action of a burst runs. An action whose key equals the last
// committed key is dropped when it fires, so a burst that ends where it
// started produces no effect.
type Debouncer struct {
	mu        sync.Mutex
	delay     time.Duration
	after     TimerFunc
	timer     Stopper
	gen       uint64
	key       string
	action    func()
	pending   bool
	committed string
}

// NewDebouncer creates a debouncer. A nil TimerFunc uses the real clock.
func NewDebouncer(delay time.Duration, after TimerFunc) *Debouncer {
	if after == nil {
		after = AfterFunc
	}
	return &Debouncer{
		delay: delay,
		after: after,
	}
}

// Arm schedules action under key, cancelling whatever was pending
func (d *Debouncer) Arm(key string, action func()) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
	}
	d.gen++
	gen := d.gen
	d.key = key
	d.action = action
	d.pending = true
	d.timer = d.after(d.delay, func() { d.fire(gen) })
}

// Cancel drops the pending action. It reports whether one was pending.
func (d *Debouncer) Cancel() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.cancelLocked()
}

// Flush runs the pending action now. It reports whether an action ran.
func (d *Debouncer) Flush() bool {
	d.mu.Lock()
	gen := d.gen
	d.mu.Unlock()
	return d.fire(gen)
}

// Pending returns the key of the pending action
func (d *Debouncer) Pending() (string, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.key, d.pending
}

// Commit records key as already applied
func (d *Debouncer) Commit(key string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.committed = key
}

// Committed returns the last committed key
func (d *Debouncer) Committed() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.committed
}

func (d *Debouncer) fire(gen uint64) bool {
	d.mu.Lock()
	if !d.pending || gen != d.gen {
		d.mu.Unlock()
		return false
	}
	action := d.action
	key := d.key
	d.cancelLocked()
	if key == d.committed {
		d.mu.Unlock()
		return false
	}
	d.committed = key
	d.mu.Unlock()

	action()
	return true
}

func (d *Debouncer) cancelLocked() bool {
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	wasPending := d.pending
	d.pending = false
	d.action = nil
	d.key = ""
	return wasPending
}
