package window

import (
	"sync"
)

// HeadlessSystem is an in-memory System. It backs --headless runs and
// tests, and lets callers play the OS side of a window.
type HeadlessSystem struct {
	mu      sync.Mutex
	windows []*HeadlessWindow
	// OpenErr, when set, is returned by the next Open calls.
	OpenErr error
}

// NewHeadlessSystem creates an empty headless window system.
func NewHeadlessSystem() *HeadlessSystem {
	return &HeadlessSystem{}
}

// Open implements System.
func (h *HeadlessSystem) Open(opts Options) (NativeWindow, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.OpenErr != nil {
		return nil, h.OpenErr
	}
	w := &HeadlessWindow{
		opts:   opts,
		width:  opts.Size.Width,
		height: opts.Size.Height,
	}
	h.windows = append(h.windows, w)
	return w, nil
}

// Windows returns every window opened so far, closed ones included.
func (h *HeadlessSystem) Windows() []*HeadlessWindow {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]*HeadlessWindow(nil), h.windows...)
}

// Last returns the most recently opened window, nil if none.
func (h *HeadlessSystem) Last() *HeadlessWindow {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.windows) == 0 {
		return nil
	}
	return h.windows[len(h.windows)-1]
}

// HeadlessWindow is a window with no pixels behind it.
type HeadlessWindow struct {
	opts Options

	mu        sync.Mutex
	width     int
	height    int
	maximized bool
	minimized bool
	closed    bool

	resized        Listeners[ResizeEvent]
	closeRequested Listeners[struct{}]
	closedHooks    Listeners[struct{}]
}

// Options returns what the window was opened with.
func (w *HeadlessWindow) Options() Options {
	return w.opts
}

// Close tears the window down and fires the closed hooks once.
func (w *HeadlessWindow) Close() {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return
	}
	w.closed = true
	w.mu.Unlock()

	w.closedHooks.Emit(struct{}{})
}

// Minimize implements NativeWindow.
func (w *HeadlessWindow) Minimize() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.closed {
		w.minimized = true
	}
}

// Maximize implements NativeWindow.
func (w *HeadlessWindow) Maximize() {
	w.setMaximized(true)
}

// Unmaximize implements NativeWindow.
func (w *HeadlessWindow) Unmaximize() {
	w.setMaximized(false)
}

func (w *HeadlessWindow) setMaximized(maximized bool) {
	w.mu.Lock()
	if w.closed || w.maximized == maximized {
		w.mu.Unlock()
		return
	}
	w.maximized = maximized
	w.minimized = false
	ev := ResizeEvent{Width: w.width, Height: w.height, Maximized: maximized}
	w.mu.Unlock()

	w.resized.Emit(ev)
}

// IsMaximized implements NativeWindow.
func (w *HeadlessWindow) IsMaximized() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.maximized
}

// Minimized reports whether Minimize was called since the last maximize change.
func (w *HeadlessWindow) Minimized() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.minimized
}

// Closed reports whether the window has been torn down.
func (w *HeadlessWindow) Closed() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.closed
}

// Resize plays a user drag to width x height.
func (w *HeadlessWindow) Resize(width, height int) {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return
	}
	w.width, w.height = width, height
	ev := ResizeEvent{Width: width, Height: height, Maximized: w.maximized}
	w.mu.Unlock()

	w.resized.Emit(ev)
}

// RequestClose plays the user pressing the OS close button.
func (w *HeadlessWindow) RequestClose() {
	if w.Closed() {
		return
	}
	w.closeRequested.Emit(struct{}{})
	w.Close()
}

// Listeners returns the number of hooks still attached.
func (w *HeadlessWindow) Listeners() int {
	return w.resized.Len() + w.closeRequested.Len() + w.closedHooks.Len()
}

// OnResize implements NativeWindow.
func (w *HeadlessWindow) OnResize(fn func(ResizeEvent)) func() {
	return w.resized.Add(fn)
}

// OnCloseRequested implements NativeWindow.
func (w *HeadlessWindow) OnCloseRequested(fn func()) func() {
	return w.closeRequested.Add(func(struct{}) { fn() })
}

// OnClosed implements NativeWindow.
func (w *HeadlessWindow) OnClosed(fn func()) func() {
	return w.closedHooks.Add(func(struct{}) { fn() })
}
