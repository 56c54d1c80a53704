package ratelimit

import (
	"sync"
	"time"
)

// ThrottleOptions configures a Throttler.
type ThrottleOptions struct {
	// Leading runs fn on the first call of a window.
	Leading bool
	// Trailing runs fn at the end of a window if calls arrived during it.
	Trailing bool
}

// DefaultThrottleOptions fires on both edges.
func DefaultThrottleOptions() ThrottleOptions {
	return ThrottleOptions{Leading: true, Trailing: true}
}

// Throttler guarantees at most one execution of fn per wait window.
type Throttler[A any] struct {
	mu         sync.Mutex
	fn         func(A)
	wait       time.Duration
	leading    bool
	trailing   bool
	timer      *time.Timer
	pending    A
	hasPending bool
	gen        uint64
}

// NewThrottler creates a throttler around fn.
func NewThrottler[A any](fn func(A), wait time.Duration, opts ThrottleOptions) *Throttler[A] {
	return &Throttler[A]{
		fn:       fn,
		wait:     wait,
		leading:  opts.Leading,
		trailing: opts.Trailing,
	}
}

// Call registers a call. It runs fn immediately when the window is idle and
// leading is enabled; otherwise the argument is kept for the trailing edge.
func (t *Throttler[A]) Call(arg A) {
	t.mu.Lock()

	if t.timer != nil {
		if t.trailing {
			t.pending = arg
			t.hasPending = true
		}
		t.mu.Unlock()
		return
	}

	t.startWindow()
	if !t.leading {
		if t.trailing {
			t.pending = arg
			t.hasPending = true
		}
		t.mu.Unlock()
		return
	}
	t.mu.Unlock()

	t.fn(arg)
}

// startWindow must be called with mu held.
func (t *Throttler[A]) startWindow() {
	t.gen++
	gen := t.gen
	t.timer = time.AfterFunc(t.wait, func() { t.endWindow(gen) })
}

// endWindow flushes the trailing call, which opens a new window of its own.
func (t *Throttler[A]) endWindow(gen uint64) {
	t.mu.Lock()
	if gen != t.gen {
		t.mu.Unlock()
		return
	}
	if !t.trailing || !t.hasPending {
		t.timer = nil
		t.mu.Unlock()
		return
	}

	arg := t.pending
	var zero A
	t.pending = zero
	t.hasPending = false
	t.startWindow()
	t.mu.Unlock()

	t.fn(arg)
}

// Cancel drops any trailing call and resets the window.
func (t *Throttler[A]) Cancel() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
	t.gen++
	var zero A
	t.pending = zero
	t.hasPending = false
}
