package theme

import (
	"sync"

	"go.uber.org/zap"

	"github.com/yllada/deskshell/common"
	"github.com/yllada/deskshell/ipc"
)

// NativeTheme is the OS-level theme collaborator.
type NativeTheme interface {
	// SetSource applies the app-level override to native widgets.
	SetSource(Mode)
	// SystemPrefersDark returns the OS preference, ignoring any override.
	SystemPrefersDark() bool
	// OnUpdated subscribes to OS preference changes. The callback may run on
	// any goroutine; the returned func releases the subscription.
	OnUpdated(func()) (release func())
}

// Broadcaster delivers an event to every live surface. Broadcast must not
// wait on any surface; it is called under the coordinator lock.
type Broadcaster interface {
	Broadcast(ch ipc.Channel, payload any)
}

// Coordinator owns the theme mode. Mutation, resolution and broadcast happen
// in one critical section, so a reply to SetMode and any broadcast it causes
// always agree.
type Coordinator struct {
	mu       sync.Mutex
	mode     Mode
	native   NativeTheme
	out      Broadcaster
	log      *zap.SugaredLogger
	lastSent *bool
	release  func()
	closed   bool

	observers map[int]func(Mode, bool)
	nextID    int
}

// NewCoordinator applies initial to native and subscribes to OS changes.
// An invalid initial mode falls back to system.
func NewCoordinator(native NativeTheme, out Broadcaster, log *zap.SugaredLogger, initial Mode) *Coordinator {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	if !initial.Valid() {
		log.Warnw("invalid initial theme mode, following system", "mode", initial)
		initial = ModeSystem
	}

	c := &Coordinator{
		mode:      initial,
		native:    native,
		out:       out,
		log:       log,
		observers: make(map[int]func(Mode, bool)),
	}
	native.SetSource(initial)
	// Native implementations may fire synchronously from SetSource, which
	// runs under mu; hop off the caller's stack.
	c.release = native.OnUpdated(func() {
		common.Go(c.log, "theme update", c.handleNativeUpdate)
	})
	return c
}

// SetMode sets the authoritative mode and returns the resolved dark flag.
// The notification is queued for every live surface before SetMode returns.
func (c *Coordinator) SetMode(m Mode) (bool, error) {
	if !m.Valid() {
		return false, common.WrapError(common.ErrInvalidThemeMode, string(m))
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.mode = m
	c.native.SetSource(m)
	isDark := c.resolveLocked()
	c.log.Infow("Theme mode set", "mode", m, "isDark", isDark)
	c.publishLocked(isDark)
	return isDark, nil
}

// Mode returns the current mode.
func (c *Coordinator) Mode() Mode {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mode
}

// IsDark resolves the dark flag from the current mode and OS preference.
func (c *Coordinator) IsDark() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.resolveLocked()
}

func (c *Coordinator) resolveLocked() bool {
	if c.mode == ModeSystem {
		return c.native.SystemPrefersDark()
	}
	return Resolve(c.mode, false)
}

// handleNativeUpdate re-resolves after an OS signal. Values identical to the
// last broadcast are not sent again.
func (c *Coordinator) handleNativeUpdate() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}
	isDark := c.resolveLocked()
	if c.lastSent != nil && *c.lastSent == isDark {
		return
	}
	c.log.Debugw("System theme changed", "mode", c.mode, "isDark", isDark)
	c.publishLocked(isDark)
}

// publishLocked must be called with mu held.
func (c *Coordinator) publishLocked(isDark bool) {
	c.lastSent = &isDark
	if c.out != nil {
		c.out.Broadcast(ipc.ChannelThemeModeUpdated, isDark)
	}
	for _, fn := range c.observers {
		fn(c.mode, isDark)
	}
}

// OnChange registers an in-process observer, called after every broadcast
// with the mode and dark flag. Observers run under the coordinator lock and
// must not call back into it.
func (c *Coordinator) OnChange(fn func(Mode, bool)) (release func()) {
	c.mu.Lock()
	defer c.mu.Unlock()

	id := c.nextID
	c.nextID++
	c.observers[id] = fn

	var once sync.Once
	return func() {
		once.Do(func() {
			c.mu.Lock()
			defer c.mu.Unlock()
			delete(c.observers, id)
		})
	}
}

// Close releases the OS subscription and all observers.
func (c *Coordinator) Close() {
	c.mu.Lock()
	release := c.release
	c.release = nil
	c.closed = true
	c.observers = make(map[int]func(Mode, bool))
	c.mu.Unlock()

	if release != nil {
		release()
	}
}
