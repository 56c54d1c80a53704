package ui

import (
	"sync"

	"github.com/diamondburned/gotk4/pkg/core/glib"
	"github.com/diamondburned/gotk4/pkg/gtk/v4"
	"go.uber.org/zap"

	"github.com/yllada/deskshell/window"
)

// gtkWindow is the native window behind one surface. GTK calls happen on
// the main loop; the host reads maximize state from the cached copy.
type gtkWindow struct {
	win *gtk.ApplicationWindow
	log *zap.SugaredLogger

	mu        sync.Mutex
	maximized bool
	width     int
	height    int
	closed    bool
	handles   []glib.SignalHandle

	resized        window.Listeners[window.ResizeEvent]
	closeRequested window.Listeners[struct{}]
	closedHooks    window.Listeners[struct{}]
}

var _ window.NativeWindow = (*gtkWindow)(nil)

// newGTKWindow must run on the main loop.
func newGTKWindow(app *gtk.Application, opts window.Options, log *zap.SugaredLogger) *gtkWindow {
	w := &gtkWindow{
		win:    gtk.NewApplicationWindow(app),
		log:    log,
		width:  opts.Size.Width,
		height: opts.Size.Height,
	}

	w.win.SetTitle(opts.Title)
	w.win.SetDecorated(!opts.Chrome.HideTitleBar)
	w.win.SetDefaultSize(opts.Size.Width, opts.Size.Height)
	if opts.Size.MinWidth > 0 || opts.Size.MinHeight > 0 {
		w.win.SetSizeRequest(opts.Size.MinWidth, opts.Size.MinHeight)
	}
	// GTK has no maximum size; a window pinned to its minimum cannot grow.
	if opts.Size.MaxWidth > 0 && opts.Size.MaxWidth == opts.Size.MinWidth &&
		opts.Size.MaxHeight > 0 && opts.Size.MaxHeight == opts.Size.MinHeight {
		w.win.SetResizable(false)
	}
	w.win.AddCSSClass("surface")
	w.win.AddCSSClass("surface-" + string(opts.Name))

	placeholder := gtk.NewLabel(string(opts.Name))
	placeholder.AddCSSClass("surface-placeholder")
	w.win.SetChild(placeholder)

	w.handles = []glib.SignalHandle{
		w.win.ConnectCloseRequest(func() bool {
			w.closeRequested.Emit(struct{}{})
			return false
		}),
		w.win.NotifyProperty("maximized", w.onResize),
		w.win.NotifyProperty("default-width", w.onResize),
		w.win.NotifyProperty("default-height", w.onResize),
	}
	w.win.ConnectDestroy(w.onDestroy)

	w.win.Present()
	return w
}

func (w *gtkWindow) onResize() {
	width, height := w.win.DefaultSize()
	ev := window.ResizeEvent{Width: width, Height: height, Maximized: w.win.IsMaximized()}

	w.mu.Lock()
	w.width, w.height, w.maximized = ev.Width, ev.Height, ev.Maximized
	w.mu.Unlock()

	w.resized.Emit(ev)
}

func (w *gtkWindow) onDestroy() {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return
	}
	w.closed = true
	handles := w.handles
	w.handles = nil
	w.mu.Unlock()

	for _, h := range handles {
		w.win.HandlerDisconnect(h)
	}
	w.log.Debugw("Native window destroyed")
	w.closedHooks.Emit(struct{}{})
}

// idle runs fn on the main loop unless the window is gone.
func (w *gtkWindow) idle(fn func()) {
	glib.IdleAdd(func() {
		w.mu.Lock()
		closed := w.closed
		w.mu.Unlock()
		if !closed {
			fn()
		}
	})
}

func (w *gtkWindow) Close()      { w.idle(w.win.Close) }
func (w *gtkWindow) Minimize()   { w.idle(w.win.Minimize) }
func (w *gtkWindow) Maximize()   { w.idle(w.win.Maximize) }
func (w *gtkWindow) Unmaximize() { w.idle(w.win.Unmaximize) }

func (w *gtkWindow) IsMaximized() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.maximized
}

func (w *gtkWindow) OnResize(fn func(window.ResizeEvent)) func() {
	return w.resized.Add(fn)
}

func (w *gtkWindow) OnCloseRequested(fn func()) func() {
	return w.closeRequested.Add(func(struct{}) { fn() })
}

func (w *gtkWindow) OnClosed(fn func()) func() {
	return w.closedHooks.Add(func(struct{}) { fn() })
}
