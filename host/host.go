package host

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/yllada/deskshell/common"
	"github.com/yllada/deskshell/config"
	"github.com/yllada/deskshell/logsink"
	"github.com/yllada/deskshell/theme"
	"github.com/yllada/deskshell/window"
)

// Options configures a Host.
type Options struct {
	Sink   *logsink.Sink
	System window.System
	Loader window.Loader
	Theme  theme.NativeTheme
	// Config, when set, provides the initial theme mode and receives the
	// mode chosen by surfaces.
	Config *config.Config
	// Services run alongside the host and are cancelled with it. The first
	// error ends the run; a panicking service is logged and the run goes on.
	Services []func(ctx context.Context) error
}

// Host owns the services of one shell run.
type Host struct {
	sink     *logsink.Sink
	log      *zap.SugaredLogger
	windows  *window.Manager
	theme    *theme.Coordinator
	cfg      *config.Config
	services []func(ctx context.Context) error

	persistMu   sync.Mutex
	pendingMode theme.Mode
	persistKick chan struct{}
	persistStop chan struct{}
	persistDone chan struct{}
	closeOnce   sync.Once
	release     []func()
}

// New wires the log sink, window manager and theme coordinator.
func New(opts Options) *Host {
	sink := opts.Sink
	if sink == nil {
		sink = logsink.New(logsink.Config{})
	}

	h := &Host{
		sink:     sink,
		log:      sink.Component("host"),
		cfg:      opts.Config,
		services: opts.Services,
	}
	h.windows = window.NewManager(window.Config{
		System: opts.System,
		Loader: opts.Loader,
		Log:    sink.Component("window"),
		Serve:  h.Serve,
	})

	initial := theme.ModeSystem
	if h.cfg != nil {
		initial = theme.Mode(h.cfg.ThemeMode)
	}
	native := opts.Theme
	if native == nil {
		native = theme.NewStaticTheme(false)
	}
	h.theme = theme.NewCoordinator(native, h.windows, sink.Component("theme"), initial)
	if h.cfg != nil {
		h.persistKick = make(chan struct{}, 1)
		h.persistStop = make(chan struct{})
		h.persistDone = make(chan struct{})
		go h.persistLoop()
		h.release = append(h.release, h.theme.OnChange(func(m theme.Mode, _ bool) {
			h.queuePersist(m)
		}))
	}
	return h
}

// Windows returns the window manager.
func (h *Host) Windows() *window.Manager {
	return h.windows
}

// Theme returns the theme coordinator.
func (h *Host) Theme() *theme.Coordinator {
	return h.theme
}

// Sink returns the log sink.
func (h *Host) Sink() *logsink.Sink {
	return h.sink
}

// Open shows the live surface called name, creating it at its default size
// if there is none.
func (h *Host) Open(ctx context.Context, name window.Name) (*window.Surface, error) {
	if s, ok := h.windows.Find(name); ok {
		return s, nil
	}
	return h.windows.Create(ctx, name, window.DefaultSize(name))
}

// Run opens the main surface, starts the retention sweep and blocks until
// ctx is done, a service fails or every surface has been destroyed.
func (h *Host) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	idle := make(chan struct{})
	var idleOnce sync.Once
	releaseIdle := h.windows.OnDestroyed(func(*window.Surface) {
		if h.windows.Len() == 0 {
			idleOnce.Do(func() { close(idle) })
		}
	})
	defer releaseIdle()

	h.sink.Start(ctx)
	h.log.Infow("Host starting", "logDir", h.sink.Dir(), "themeMode", h.theme.Mode())

	g, gctx := errgroup.WithContext(ctx)
	for _, svc := range h.services {
		svc := svc
		g.Go(func() error { return h.runService(gctx, svc) })
	}

	if _, err := h.windows.Create(gctx, window.NameMain, window.SizeSpec{
		Width:     common.MainWindowWidth,
		Height:    common.MainWindowHeight,
		MinWidth:  common.MinWindowWidth,
		MinHeight: common.MinWindowHeight,
	}); err != nil {
		h.log.Errorw("Failed to open main surface", "error", err)
		cancel()
		_ = g.Wait()
		h.shutdown()
		return err
	}

	g.Go(func() error {
		defer common.Recover(h.log, "idle watch")
		select {
		case <-gctx.Done():
		case <-idle:
			h.log.Infow("All surfaces closed")
		}
		cancel()
		return nil
	})

	err := g.Wait()
	h.shutdown()
	return err
}

// runService runs one supervised service. A panic is logged and ends only
// that service.
func (h *Host) runService(ctx context.Context, svc func(context.Context) error) error {
	defer common.Recover(h.log, "service")
	return svc(ctx)
}

// shutdown closes every surface and waits for them to be destroyed.
func (h *Host) shutdown() {
	gone := make(chan struct{})
	var goneOnce sync.Once
	allGone := func() {
		if h.windows.Len() == 0 {
			goneOnce.Do(func() { close(gone) })
		}
	}
	release := h.windows.OnDestroyed(func(*window.Surface) { allGone() })
	allGone()

	h.windows.CloseAll()

	timer := time.NewTimer(common.ShutdownTimeout)
	select {
	case <-gone:
	case <-timer.C:
		h.log.Warnw("Surfaces still open at shutdown", "count", h.windows.Len())
	}
	timer.Stop()
	release()

	h.Close()
	h.log.Infow("Host stopped")
}

// Close releases the theme subscription and observers and writes out a
// pending theme mode. It does not close the sink, which the caller owns.
func (h *Host) Close() {
	h.closeOnce.Do(func() {
		for _, release := range h.release {
			release()
		}
		h.release = nil
		h.theme.Close()
		if h.persistStop != nil {
			close(h.persistStop)
			<-h.persistDone
		}
	})
}

// queuePersist records the latest mode for the persistence worker. It runs
// under the coordinator lock and never waits.
func (h *Host) queuePersist(m theme.Mode) {
	h.persistMu.Lock()
	h.pendingMode = m
	h.persistMu.Unlock()

	select {
	case h.persistKick <- struct{}{}:
	default:
	}
}

// persistLoop is the only writer of the config file, so saves land in the
// order the modes were chosen and the last one wins.
func (h *Host) persistLoop() {
	defer close(h.persistDone)
	for {
		select {
		case <-h.persistKick:
			h.persistThemeMode()
		case <-h.persistStop:
			h.persistThemeMode()
			return
		}
	}
}

func (h *Host) persistThemeMode() {
	defer common.Recover(h.log, "theme persistence")

	h.persistMu.Lock()
	m := h.pendingMode
	h.persistMu.Unlock()

	if m == "" || h.cfg.ThemeMode == string(m) {
		return
	}
	h.cfg.ThemeMode = string(m)
	if err := h.cfg.Save(); err != nil {
		h.log.Warnw("Failed to persist theme mode", "mode", m, "error", err)
	}
}
