// Package ratelimit provides the timing wrappers used to tame bursts of
// native events: a Debouncer that collapses a burst into one call and a
// Throttler that allows at most one call per window.
//
// Both wrappers are generic over the argument they forward, so the wrapped
// function always receives the argument of the most recent call (Debouncer)
// or of the call that triggered execution (Throttler).
//
// # Cancellation
//
// Cancel discards any pending call. A timer that already expired but has not
// yet run its callback is invalidated as well, so once Cancel returns the
// wrapped function will not run for the cancelled burst. Callers that tear
// down the receiver of the wrapped function (a window, a connection) rely on
// this to avoid callbacks against released resources.
package ratelimit
