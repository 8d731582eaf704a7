package engine

import (
	"sync"
	"time"
)

// Throttler rate-limits calls to fn with leading and trailing emission: the
// first Schedule in a quiet period calls fn immediately, later ones within
// the interval are coalesced, and the most recent value is delivered when
// the interval ends.
//
// fn runs while the throttler's lock is held, so it must not call back into
// the same Throttler. Once Cancel returns no call is running or pending.
type Throttler[T any] struct {
	mu       sync.Mutex
	interval time.Duration
	fn       func(T)

	timer   *time.Timer
	gen     int
	pending bool
	value   T
}

// NewThrottler returns a Throttler. A non-positive interval disables
// throttling.
func NewThrottler[T any](interval time.Duration, fn func(T)) *Throttler[T] {
	return &Throttler[T]{interval: interval, fn: fn}
}

func (t *Throttler[T]) Schedule(v T) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.interval <= 0 {
		t.fn(v)
		return
	}
	if t.timer == nil {
		t.fn(v)
		t.arm()
		return
	}
	t.value = v
	t.pending = true
}

// Flush delivers a pending value now and ends the current interval.
func (t *Throttler[T]) Flush() {
	t.mu.Lock()
	defer t.mu.Unlock()

	pending, v := t.pending, t.value
	t.stop()
	if pending {
		t.fn(v)
	}
}

// Cancel drops any pending value and ends the current interval.
func (t *Throttler[T]) Cancel() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stop()
}

func (t *Throttler[T]) arm() {
	gen := t.gen
	t.timer = time.AfterFunc(t.interval, func() { t.tick(gen) })
}

func (t *Throttler[T]) tick(gen int) {
	t.mu.Lock()
	defer t.mu.Unlock()

	// A timer that fired while Cancel or Flush held the lock is stale.
	if gen != t.gen {
		return
	}
	if !t.pending {
		t.timer = nil
		return
	}
	v := t.value
	t.clearValue()
	t.fn(v)
	t.arm()
}

func (t *Throttler[T]) stop() {
	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
	t.gen++
	t.clearValue()
}

func (t *Throttler[T]) clearValue() {
	var zero T
	t.value = zero
	t.pending = false
}
