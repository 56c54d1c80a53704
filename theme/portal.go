package theme

import (
	"fmt"
	"sync"
	"time"

	"github.com/godbus/dbus/v5"
	"go.uber.org/zap"

	"github.com/yllada/deskshell/common"
	"github.com/yllada/deskshell/ratelimit"
)

// XDG desktop portal coordinates of the appearance settings.
const (
	portalDest            = "org.freedesktop.portal.Desktop"
	portalPath            = dbus.ObjectPath("/org/freedesktop/portal/desktop")
	portalSettings        = "org.freedesktop.portal.Settings"
	appearanceNamespace   = "org.freedesktop.appearance"
	colorSchemeKey        = "color-scheme"
	colorSchemePreferDark = uint32(1)
)

// portalNotifyWindow spaces out subscriber notifications; some desktops
// emit several SettingChanged signals for one switch.
const portalNotifyWindow = 250 * time.Millisecond

// PortalTheme reads the desktop color scheme from the XDG settings portal
// over the session bus and follows its SettingChanged signal.
type PortalTheme struct {
	conn    *dbus.Conn
	signals chan *dbus.Signal
	log     *zap.SugaredLogger

	notify *ratelimit.Throttler[bool]

	mu     sync.Mutex
	dark   bool
	subs   map[int]func()
	nextID int
	done   chan struct{}
	once   sync.Once
}

func newPortalTheme(conn *dbus.Conn, log *zap.SugaredLogger) *PortalTheme {
	p := &PortalTheme{
		conn:    conn,
		signals: make(chan *dbus.Signal, 8),
		log:     log,
		subs:    make(map[int]func()),
		done:    make(chan struct{}),
	}
	p.notify = ratelimit.NewThrottler(p.emit, portalNotifyWindow, ratelimit.DefaultThrottleOptions())
	return p
}

// NewPortalTheme connects to the session bus and reads the current scheme.
func NewPortalTheme(log *zap.SugaredLogger) (*PortalTheme, error) {
	if log == nil {
		log = zap.NewNop().Sugar()
	}

	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrThemeUnavailable, err)
	}

	p := newPortalTheme(conn, log)

	var value dbus.Variant
	call := conn.Object(portalDest, portalPath).Call(portalSettings+".Read", 0, appearanceNamespace, colorSchemeKey)
	if err := call.Store(&value); err != nil {
		conn.Close()
		return nil, fmt.Errorf("%w: %v", common.ErrThemeUnavailable, err)
	}
	p.dark = colorSchemeIsDark(value)

	if err := conn.AddMatchSignal(
		dbus.WithMatchObjectPath(portalPath),
		dbus.WithMatchInterface(portalSettings),
		dbus.WithMatchMember("SettingChanged"),
	); err != nil {
		conn.Close()
		return nil, fmt.Errorf("%w: %v", common.ErrThemeUnavailable, err)
	}
	conn.Signal(p.signals)

	common.Go(log, "portal signals", p.run)
	log.Debugw("Following desktop portal color scheme", "dark", p.dark)
	return p, nil
}

func (p *PortalTheme) run() {
	for {
		select {
		case <-p.done:
			return
		case sig, ok := <-p.signals:
			if !ok {
				return
			}
			p.handleSignal(sig)
		}
	}
}

func (p *PortalTheme) handleSignal(sig *dbus.Signal) {
	if sig == nil || sig.Name != portalSettings+".SettingChanged" || len(sig.Body) < 3 {
		return
	}
	namespace, _ := sig.Body[0].(string)
	key, _ := sig.Body[1].(string)
	if namespace != appearanceNamespace || key != colorSchemeKey {
		return
	}
	value, ok := sig.Body[2].(dbus.Variant)
	if !ok {
		return
	}
	p.update(colorSchemeIsDark(value))
}

func (p *PortalTheme) update(dark bool) {
	p.mu.Lock()
	if p.dark == dark {
		p.mu.Unlock()
		return
	}
	p.dark = dark
	p.mu.Unlock()

	p.log.Debugw("Desktop color scheme changed", "dark", dark)
	p.notify.Call(dark)
}

func (p *PortalTheme) emit(bool) {
	defer common.Recover(p.log, "theme notification")
	p.mu.Lock()
	subs := make([]func(), 0, len(p.subs))
	for _, fn := range p.subs {
		subs = append(subs, fn)
	}
	p.mu.Unlock()

	for _, fn := range subs {
		fn()
	}
}

// colorSchemeIsDark decodes the portal value; Read wraps it in an extra variant.
func colorSchemeIsDark(v dbus.Variant) bool {
	value := v.Value()
	for {
		inner, ok := value.(dbus.Variant)
		if !ok {
			break
		}
		value = inner.Value()
	}
	scheme, ok := value.(uint32)
	return ok && scheme == colorSchemePreferDark
}

// SetSource is a no-op: the portal has no per-application override, the
// Coordinator resolves explicit modes itself.
func (p *PortalTheme) SetSource(Mode) {}

// SystemPrefersDark implements NativeTheme.
func (p *PortalTheme) SystemPrefersDark() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.dark
}

// OnUpdated implements NativeTheme.
func (p *PortalTheme) OnUpdated(fn func()) func() {
	p.mu.Lock()
	defer p.mu.Unlock()
	id := p.nextID
	p.nextID++
	p.subs[id] = fn
	return func() {
		p.mu.Lock()
		defer p.mu.Unlock()
		delete(p.subs, id)
	}
}

// Close stops following the portal and closes the bus connection.
func (p *PortalTheme) Close() error {
	var err error
	p.once.Do(func() {
		close(p.done)
		p.notify.Cancel()
		p.conn.RemoveSignal(p.signals)
		err = p.conn.Close()
	})
	return err
}
