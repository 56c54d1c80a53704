// Package window owns the lifecycle of UI surfaces.
//
// A surface is one native window plus the presentation process rendering
// into it. The Manager creates surfaces, routes window-control commands to
// the native window of the sending surface, and tears everything down when
// the window closes:
//
//	created ──load ok──▶ live ──close / OS close──▶ closing ──OS closed──▶ destroyed
//
// A destroyed surface never receives another message and holds no listeners.
// Host messages go through a bounded per-surface outbox drained by its own
// writer, so a presentation process that stops reading can only stall itself;
// when its outbox fills the surface is closed.
package window
