package tableview

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDebouncer_RapidArmsRunLastActionOnce(t *testing.T) {
	clock := &fakeClock{}
	d := NewDebouncer(500*time.Millisecond, clock.AfterFunc)

	var calls int32
	var last string
	for _, v := range []string{"a", "ab", "abc"} {
		v := v
		d.Arm(v, func() {
			atomic.AddInt32(&calls, 1)
			last = v
		})
	}

	assert.Equal(t, 1, clock.Armed())
	assert.Equal(t, 1, clock.FireAll())
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
	assert.Equal(t, "abc", last)
	assert.Equal(t, "abc", d.Committed())
}

func TestDebouncer_UsesConfiguredDelay(t *testing.T) {
	clock := &fakeClock{}
	d := NewDebouncer(500*time.Millisecond, clock.AfterFunc)

	d.Arm("k", func() {})

	assert.Equal(t, 500*time.Millisecond, clock.timers[0].delay)
}

func TestDebouncer_Cancel(t *testing.T) {
	clock := &fakeClock{}
	d := NewDebouncer(time.Second, clock.AfterFunc)

	var calls int32
	d.Arm("k", func() { atomic.AddInt32(&calls, 1) })

	assert.True(t, d.Cancel())
	assert.False(t, d.Cancel())
	assert.Equal(t, 0, clock.FireAll())
	assert.Equal(t, int32(0), atomic.LoadInt32(&calls))
}

func TestDebouncer_SkipsCommittedKey(t *testing.T) {
	clock := &fakeClock{}
	d := NewDebouncer(time.Second, clock.AfterFunc)
	d.Commit(`{}`)

	var calls int32
	d.Arm(`{"name":"a"}`, func() { atomic.AddInt32(&calls, 1) })
	d.Arm(`{}`, func() { atomic.AddInt32(&calls, 1) })
	clock.FireAll()

	assert.Equal(t, int32(0), atomic.LoadInt32(&calls), "a burst ending at the committed value has no effect")
}

func TestDebouncer_Flush(t *testing.T) {
	clock := &fakeClock{}
	d := NewDebouncer(time.Second, clock.AfterFunc)

	var calls int32
	d.Arm("k", func() { atomic.AddInt32(&calls, 1) })

	key, pending := d.Pending()
	assert.True(t, pending)
	assert.Equal(t, "k", key)

	assert.True(t, d.Flush())
	assert.False(t, d.Flush())
	assert.Equal(t, 0, clock.FireAll(), "flushing stops the timer")
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))

	_, pending = d.Pending()
	assert.False(t, pending)
}

func TestDebouncer_StaleTimerDoesNotFire(t *testing.T) {
	clock := &fakeClock{}
	d := NewDebouncer(time.Second, clock.AfterFunc)

	var got string
	d.Arm("a", func() { got = "a" })
	first := clock.timers[0]
	d.Arm("b", func() { got = "b" })

	// a stopped timer whose callback raced past Stop must not run the new action
	first.fn()
	assert.Equal(t, "", got)

	clock.FireAll()
	assert.Equal(t, "b", got)
}

func TestDebouncer_RealClock(t *testing.T) {
	d := NewDebouncer(20*time.Millisecond, nil)

	var calls int32
	for i := 0; i < 5; i++ {
		d.Arm("k", func() { atomic.AddInt32(&calls, 1) })
		time.Sleep(2 * time.Millisecond)
	}

	assert.Eventually(t, func() bool {
		return atomic.LoadInt32(&calls) == 1
	}, time.Second, 5*time.Millisecond)
}
