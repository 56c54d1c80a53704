package window

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/yllada/deskshell/common"
	"github.com/yllada/deskshell/ipc"
	"github.com/yllada/deskshell/ratelimit"
)

// Config holds the Manager's collaborators.
type Config struct {
	System System
	Loader Loader
	Log    *zap.SugaredLogger
	// Serve runs the read loop of a surface that just went live. It is
	// started on its own goroutine.
	Serve func(*Surface)
	// ResizeDebounce defaults to common.ResizeDebounce.
	ResizeDebounce time.Duration
	// OutboxSize defaults to common.SurfaceOutboxSize.
	OutboxSize int
}

// Manager creates and tracks surfaces.
type Manager struct {
	system   System
	loader   Loader
	log      *zap.SugaredLogger
	serve    func(*Surface)
	debounce time.Duration
	outbox   int

	mu        sync.RWMutex
	surfaces  []*Surface
	destroyed Listeners[*Surface]
}

// NewManager creates a window manager.
func NewManager(cfg Config) *Manager {
	log := cfg.Log
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	debounce := cfg.ResizeDebounce
	if debounce <= 0 {
		debounce = common.ResizeDebounce
	}
	outbox := cfg.OutboxSize
	if outbox <= 0 {
		outbox = common.SurfaceOutboxSize
	}
	return &Manager{
		system:   cfg.System,
		loader:   cfg.Loader,
		log:      log,
		serve:    cfg.Serve,
		debounce: debounce,
		outbox:   outbox,
	}
}

// Create opens a surface and loads its content. Lifecycle hooks are attached
// before loading starts. On load failure the native window is closed and the
// error wraps common.ErrSurfaceLoad.
func (m *Manager) Create(ctx context.Context, name Name, size SizeSpec) (*Surface, error) {
	if !name.Valid() {
		return nil, fmt.Errorf("%w: %q", common.ErrUnknownSurface, name)
	}

	opts := Options{
		Name:   name,
		Title:  common.AppName,
		Size:   size,
		Chrome: DefaultChrome(),
	}
	native, err := m.system.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s window: %w", name, err)
	}

	s := &Surface{
		ID:     uuid.NewString(),
		Name:   name,
		Size:   size,
		native: native,
		state:  StateCreated,
		done:   make(chan struct{}),
	}
	s.log = m.log.With("surface", name, "id", s.ID)
	s.resize = ratelimit.NewDebouncer(func(ev ResizeEvent) {
		defer common.Recover(s.log, "resize notification")
		s.broadcast(ipc.ChannelMaximizeWindowBack, !ev.Maximized)
	}, m.debounce, ratelimit.DebounceOptions{})
	s.onStall = func() {
		common.Go(s.log, "close stalled surface", func() { m.Close(s) })
	}

	s.releases = []func(){
		native.OnResize(s.resize.Call),
		native.OnCloseRequested(func() { m.handleCloseRequested(s) }),
		native.OnClosed(func() { m.handleClosed(s) }),
	}

	m.mu.Lock()
	m.surfaces = append(m.surfaces, s)
	m.mu.Unlock()
	s.log.Debugw("Surface created", "width", size.Width, "height", size.Height)

	conn, err := m.loader.Load(ctx, string(name), name.Template())
	if err != nil {
		s.log.Errorw("Failed to load surface content", "error", err)
		m.discard(s)
		return nil, fmt.Errorf("%w: %s: %v", common.ErrSurfaceLoad, name, err)
	}

	if !s.goLive(conn, m.outbox) {
		conn.Close()
		m.discard(s)
		return nil, fmt.Errorf("%w: %s closed while loading", common.ErrSurfaceLoad, name)
	}

	s.log.Infow("Surface live")
	if m.serve != nil {
		common.Go(s.log, "surface read loop", func() { m.serve(s) })
	}
	return s, nil
}

// discard tears down a surface that never went live.
func (m *Manager) discard(s *Surface) {
	s.beginClosing()
	s.native.Close()
	// Closing a window that never mapped may not raise the closed hook.
	m.handleClosed(s)
}

// Close starts closing s. It is a no-op for nil, closing and destroyed surfaces.
func (m *Manager) Close(s *Surface) {
	if s == nil || !s.beginClosing() {
		return
	}
	s.log.Debugw("Closing surface")
	s.native.Close()
}

// handleCloseRequested converges the OS close button with Close.
func (m *Manager) handleCloseRequested(s *Surface) {
	if s.beginClosing() {
		s.log.Debugw("Surface close requested by the OS")
	}
}

// handleClosed is the closing → destroyed transition.
func (m *Manager) handleClosed(s *Surface) {
	s.beginClosing()
	if !s.destroy() {
		return
	}

	m.mu.Lock()
	for i, other := range m.surfaces {
		if other == s {
			m.surfaces = append(m.surfaces[:i], m.surfaces[i+1:]...)
			break
		}
	}
	m.mu.Unlock()

	s.log.Infow("Surface destroyed")
	m.destroyed.Emit(s)
}

// ToggleMaximize flips between maximized and restored. No-op unless s is live.
func (m *Manager) ToggleMaximize(s *Surface) {
	if s == nil {
		return
	}
	native := s.liveNative()
	if native == nil {
		return
	}
	if native.IsMaximized() {
		native.Unmaximize()
	} else {
		native.Maximize()
	}
}

// Minimize minimizes s. No-op unless s is live.
func (m *Manager) Minimize(s *Surface) {
	if s == nil {
		return
	}
	if native := s.liveNative(); native != nil {
		native.Minimize()
	}
}

// IsMaximized reads the native maximize state. ok is false when s is not live.
func (m *Manager) IsMaximized(s *Surface) (maximized, ok bool) {
	if s == nil {
		return false, false
	}
	native := s.liveNative()
	if native == nil {
		return false, false
	}
	return native.IsMaximized(), true
}

// Broadcast queues an event for every live surface without waiting on any of
// them. It implements theme.Broadcaster.
func (m *Manager) Broadcast(ch ipc.Channel, payload any) {
	msg, err := ipc.NewBroadcast(ch, payload)
	if err != nil {
		m.log.Errorw("failed to encode broadcast", "channel", ch, "error", err)
		return
	}
	for _, s := range m.Surfaces() {
		if err := s.Send(msg); err != nil {
			s.log.Debugw("broadcast not delivered", "channel", ch, "error", err)
		}
	}
}

// Surfaces returns the surfaces that are not yet destroyed, oldest first.
func (m *Manager) Surfaces() []*Surface {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]*Surface(nil), m.surfaces...)
}

// Find returns the oldest live surface called name.
func (m *Manager) Find(name Name) (*Surface, bool) {
	for _, s := range m.Surfaces() {
		if s.Name == name && s.Live() {
			return s, true
		}
	}
	return nil, false
}

// Len returns the number of surfaces that are not yet destroyed.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.surfaces)
}

// CloseAll closes every surface.
func (m *Manager) CloseAll() {
	for _, s := range m.Surfaces() {
		m.Close(s)
	}
}

// OnDestroyed registers fn to run after a surface is destroyed and removed.
func (m *Manager) OnDestroyed(fn func(*Surface)) (release func()) {
	return m.destroyed.Add(fn)
}
