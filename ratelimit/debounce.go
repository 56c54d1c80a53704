package ratelimit

import (
	"sync"
	"time"
)

// DebounceOptions configures a Debouncer.
type DebounceOptions struct {
	// Immediate fires on the leading edge of a burst instead of the trailing edge.
	Immediate bool
}

// Debouncer collapses bursts of calls into a single call of fn.
//
// In trailing mode (the default) fn runs once the burst has been quiet for
// wait, with the argument of the last call. In immediate mode fn runs on the
// first call of a burst and further calls are swallowed until wait passes
// without a call.
type Debouncer[A any] struct {
	mu        sync.Mutex
	fn        func(A)
	wait      time.Duration
	immediate bool
	timer     *time.Timer
	arg       A
	// gen invalidates timers that were stopped too late to prevent their callback.
	gen uint64
}

// NewDebouncer creates a debouncer around fn.
func NewDebouncer[A any](fn func(A), wait time.Duration, opts DebounceOptions) *Debouncer[A] {
	return &Debouncer[A]{
		fn:        fn,
		wait:      wait,
		immediate: opts.Immediate,
	}
}

// Call registers one call of the burst.
func (d *Debouncer[A]) Call(arg A) {
	d.mu.Lock()

	fireNow := d.immediate && d.timer == nil
	if d.timer != nil {
		d.timer.Stop()
	}
	d.gen++
	gen := d.gen

	if d.immediate {
		d.timer = time.AfterFunc(d.wait, func() { d.quiet(gen) })
		d.mu.Unlock()
		if fireNow {
			d.fn(arg)
		}
		return
	}

	d.arg = arg
	d.timer = time.AfterFunc(d.wait, func() { d.fire(gen) })
	d.mu.Unlock()
}

// fire runs the trailing call unless it was superseded or cancelled.
func (d *Debouncer[A]) fire(gen uint64) {
	d.mu.Lock()
	if gen != d.gen || d.timer == nil {
		d.mu.Unlock()
		return
	}
	arg := d.arg
	var zero A
	d.arg = zero
	d.timer = nil
	d.mu.Unlock()

	d.fn(arg)
}

// quiet ends an immediate-mode burst.
func (d *Debouncer[A]) quiet(gen uint64) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if gen == d.gen {
		d.timer = nil
	}
}

// Cancel discards the pending trailing call and resets the burst.
func (d *Debouncer[A]) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.gen++
	var zero A
	d.arg = zero
}

// Pending reports whether a burst is in progress.
func (d *Debouncer[A]) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.timer != nil
}
