package engine

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	mu    sync.Mutex
	calls []int
}

func (r *recorder) record(v int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, v)
}

func (r *recorder) get() []int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]int(nil), r.calls...)
}

func TestThrottlerLeadingAndTrailing(t *testing.T) {
	var r recorder
	th := NewThrottler(30*time.Millisecond, r.record)

	for i := 1; i <= 5; i++ {
		th.Schedule(i)
	}
	assert.Equal(t, []int{1}, r.get())

	require.Eventually(t, func() bool { return len(r.get()) == 2 }, time.Second, time.Millisecond)
	assert.Equal(t, []int{1, 5}, r.get())
	th.Cancel()
}

func TestThrottlerQuietPeriodEmitsLeadingAgain(t *testing.T) {
	var r recorder
	th := NewThrottler(10*time.Millisecond, r.record)

	th.Schedule(1)
	// No trailing value: the interval ends silently and the next call leads.
	time.Sleep(40 * time.Millisecond)
	th.Schedule(2)
	assert.Equal(t, []int{1, 2}, r.get())
	th.Cancel()
}

func TestThrottlerCancelDropsPending(t *testing.T) {
	var r recorder
	th := NewThrottler(20*time.Millisecond, r.record)

	th.Schedule(1)
	th.Schedule(2)
	th.Cancel()
	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, []int{1}, r.get())
}

func TestThrottlerFlush(t *testing.T) {
	var r recorder
	th := NewThrottler(time.Hour, r.record)

	th.Schedule(1)
	th.Schedule(2)
	th.Schedule(3)
	th.Flush()
	assert.Equal(t, []int{1, 3}, r.get())

	// Flush ends the interval, so the next value leads.
	th.Schedule(4)
	assert.Equal(t, []int{1, 3, 4}, r.get())

	th.Flush()
	assert.Equal(t, []int{1, 3, 4}, r.get())
	th.Cancel()
}

func TestThrottlerZeroIntervalCallsThrough(t *testing.T) {
	var r recorder
	th := NewThrottler(0, r.record)
	th.Schedule(1)
	th.Schedule(2)
	th.Cancel()
	assert.Equal(t, []int{1, 2}, r.get())
}

func TestThrottlerCancelIsSynchronous(t *testing.T) {
	var r recorder
	th := NewThrottler(time.Millisecond, func(v int) {
		time.Sleep(5 * time.Millisecond)
		r.record(v)
	})

	for i := 0; i < 20; i++ {
		th.Schedule(i)
		time.Sleep(500 * time.Microsecond)
	}
	th.Cancel()
	n := len(r.get())
	time.Sleep(30 * time.Millisecond)
	assert.Len(t, r.get(), n)
}
