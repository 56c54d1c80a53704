package window

import (
	"context"
	"sync"

	"github.com/yllada/deskshell/ipc"
)

// ResizeEvent is a raw native resize notification.
type ResizeEvent struct {
	Width     int
	Height    int
	Maximized bool
}

// NativeWindow is the OS window behind a surface.
// Implementations may deliver callbacks on any goroutine.
type NativeWindow interface {
	Close()
	Minimize()
	Maximize()
	Unmaximize()
	IsMaximized() bool

	// OnResize fires on every size or maximize change.
	OnResize(func(ResizeEvent)) (release func())
	// OnCloseRequested fires when the user asks the OS to close the window.
	OnCloseRequested(func()) (release func())
	// OnClosed fires once the OS has torn the window down.
	OnClosed(func()) (release func())
}

// System opens native windows.
type System interface {
	Open(opts Options) (NativeWindow, error)
}

// Loader starts the presentation content of a surface and returns the host
// end of its channel. *ipc.ProcessLoader satisfies it.
type Loader interface {
	Load(ctx context.Context, name, template string) (*ipc.Conn, error)
}

// Listeners is a set of callbacks with explicit release, for NativeWindow
// implementations.
type Listeners[T any] struct {
	mu     sync.Mutex
	fns    map[int]func(T)
	nextID int
}

// Add registers fn. The returned func removes it and is safe to call twice.
func (l *Listeners[T]) Add(fn func(T)) (release func()) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.fns == nil {
		l.fns = make(map[int]func(T))
	}
	id := l.nextID
	l.nextID++
	l.fns[id] = fn

	return func() {
		l.mu.Lock()
		defer l.mu.Unlock()
		delete(l.fns, id)
	}
}

// Emit calls every registered callback with v, outside the lock.
func (l *Listeners[T]) Emit(v T) {
	l.mu.Lock()
	fns := make([]func(T), 0, len(l.fns))
	for _, fn := range l.fns {
		fns = append(fns, fn)
	}
	l.mu.Unlock()

	for _, fn := range fns {
		fn(v)
	}
}

// Len returns the number of registered callbacks.
func (l *Listeners[T]) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.fns)
}
