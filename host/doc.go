// Package host wires the shell together: the log sink, the theme
// coordinator and the window manager, plus the per-surface dispatcher that
// turns presentation messages into calls on them.
package host
