package window

import (
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/yllada/deskshell/common"
	"github.com/yllada/deskshell/ipc"
	"github.com/yllada/deskshell/ratelimit"
)

// Name is one of the fixed UI surfaces.
type Name string

const (
	NameMain     Name = "main"
	NameSettings Name = "settings"
	NameDialog   Name = "dialog"
)

var templates = map[Name]string{
	NameMain:     "index.html",
	NameSettings: "settings.html",
	NameDialog:   "dialog.html",
}

// Valid reports whether n is a known surface.
func (n Name) Valid() bool {
	_, ok := templates[n]
	return ok
}

// Template returns the content template loaded into the surface.
func (n Name) Template() string {
	return templates[n]
}

// ParseName validates a surface name.
func ParseName(s string) (Name, error) {
	n := Name(s)
	if !n.Valid() {
		return "", fmt.Errorf("%w: %q", common.ErrUnknownSurface, s)
	}
	return n, nil
}

// SizeSpec is the size of a surface. Zero min/max values mean unconstrained.
type SizeSpec struct {
	Width     int
	Height    int
	MinWidth  int
	MinHeight int
	MaxWidth  int
	MaxHeight int
}

// DefaultSize returns the size a surface opens with when the caller has no preference.
func DefaultSize(n Name) SizeSpec {
	switch n {
	case NameSettings:
		return SizeSpec{
			Width:     common.SettingsWindowWidth,
			Height:    common.SettingsWindowHeight,
			MinWidth:  common.SettingsWindowWidth,
			MinHeight: common.SettingsWindowHeight,
		}
	case NameDialog:
		return SizeSpec{
			Width:     common.DialogWindowWidth,
			Height:    common.DialogWindowHeight,
			MinWidth:  common.DialogWindowWidth,
			MinHeight: common.DialogWindowHeight,
			MaxWidth:  common.DialogWindowWidth,
			MaxHeight: common.DialogWindowHeight,
		}
	default:
		return SizeSpec{
			Width:     common.MainWindowWidth,
			Height:    common.MainWindowHeight,
			MinWidth:  common.MinWindowWidth,
			MinHeight: common.MinWindowHeight,
		}
	}
}

// Chrome is the window decoration and isolation shared by all surfaces.
type Chrome struct {
	// HideTitleBar removes the native title bar; surfaces draw their own.
	HideTitleBar bool
	// Sandboxed runs presentation code in a separate process with a scrubbed environment.
	Sandboxed bool
	// NativeAccess exposes OS APIs to presentation code. Never set for shipped surfaces.
	NativeAccess bool
}

// DefaultChrome returns the chrome every surface is created with.
func DefaultChrome() Chrome {
	return Chrome{HideTitleBar: true, Sandboxed: true}
}

// Options is what a System needs to open a native window.
type Options struct {
	Name   Name
	Title  string
	Size   SizeSpec
	Chrome Chrome
}

// State is the lifecycle state of a surface.
type State int

const (
	StateCreated State = iota
	StateLive
	StateClosing
	StateDestroyed
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateCreated:
		return "created"
	case StateLive:
		return "live"
	case StateClosing:
		return "closing"
	case StateDestroyed:
		return "destroyed"
	default:
		return "unknown"
	}
}

// Surface is one UI window and its presentation channel.
type Surface struct {
	// ID is unique per surface for the lifetime of the host.
	ID   string
	Name Name
	Size SizeSpec

	native NativeWindow
	log    *zap.SugaredLogger
	resize *ratelimit.Debouncer[ResizeEvent]

	mu       sync.Mutex
	state    State
	conn     *ipc.Conn
	outbox   chan ipc.Message
	stalled  bool
	onStall  func()
	releases []func()
	done     chan struct{}
}

// State returns the current lifecycle state.
func (s *Surface) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Live reports whether the surface accepts messages.
func (s *Surface) Live() bool {
	return s.State() == StateLive
}

// Done is closed when the surface is destroyed.
func (s *Surface) Done() <-chan struct{} {
	return s.done
}

// Conn returns the presentation channel, nil before the content loaded.
func (s *Surface) Conn() *ipc.Conn {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn
}

// Send queues a host-originated message for a live surface and never waits
// for the presentation process. Messages leave in the order they were queued.
// When the outbox is full the surface is closed and ErrSurfaceStalled returned.
func (s *Surface) Send(msg ipc.Message) error {
	s.mu.Lock()
	if s.state != StateLive {
		s.mu.Unlock()
		return common.ErrSurfaceGone
	}
	select {
	case s.outbox <- msg:
		s.mu.Unlock()
		return nil
	default:
	}

	first := !s.stalled
	s.stalled = true
	onStall := s.onStall
	s.mu.Unlock()

	if first {
		s.log.Errorw("Surface stopped reading, closing it", "channel", msg.Channel, "queued", cap(s.outbox))
		if onStall != nil {
			onStall()
		}
	}
	return common.ErrSurfaceStalled
}

// goLive attaches the channel and starts the writer. It reports false when
// the surface was closed while its content loaded.
func (s *Surface) goLive(conn *ipc.Conn, outboxSize int) bool {
	s.mu.Lock()
	if s.state != StateCreated {
		s.mu.Unlock()
		return false
	}
	s.conn = conn
	s.outbox = make(chan ipc.Message, outboxSize)
	s.state = StateLive
	outbox := s.outbox
	s.mu.Unlock()

	common.Go(s.log, "surface writer", func() { s.writeLoop(conn, outbox) })
	return true
}

// writeLoop drains the outbox onto the channel until the surface is destroyed.
// A write blocked on a stalled peer is released when destroy closes conn.
func (s *Surface) writeLoop(conn *ipc.Conn, outbox <-chan ipc.Message) {
	for {
		select {
		case <-s.done:
			return
		case msg := <-outbox:
			if err := conn.Send(msg); err != nil {
				s.log.Debugw("Message not delivered", "channel", msg.Channel, "error", err)
			}
		}
	}
}

// broadcast sends an event on ch, logging failures.
func (s *Surface) broadcast(ch ipc.Channel, payload any) {
	msg, err := ipc.NewBroadcast(ch, payload)
	if err != nil {
		s.log.Errorw("failed to encode broadcast", "channel", ch, "error", err)
		return
	}
	if err := s.Send(msg); err != nil {
		s.log.Debugw("broadcast not delivered", "channel", ch, "error", err)
	}
}

// liveNative returns the window if the surface is live.
func (s *Surface) liveNative() NativeWindow {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateLive {
		return nil
	}
	return s.native
}

// beginClosing moves created/live to closing. It reports false when the
// surface was already closing or destroyed.
func (s *Surface) beginClosing() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StateClosing || s.state == StateDestroyed {
		return false
	}
	s.state = StateClosing
	s.resize.Cancel()
	return true
}

// destroy is the closing → destroyed transition. The debouncer and every
// native listener are released in the same critical section that marks the
// surface destroyed. The channel is closed after the lock is dropped, which
// also unblocks a writer stuck on a peer that stopped reading.
func (s *Surface) destroy() bool {
	s.mu.Lock()
	if s.state == StateDestroyed {
		s.mu.Unlock()
		return false
	}
	s.state = StateDestroyed
	s.resize.Cancel()
	for _, release := range s.releases {
		release()
	}
	s.releases = nil
	conn := s.conn
	close(s.done)
	s.mu.Unlock()

	if conn != nil {
		conn.Close()
	}
	return true
}
