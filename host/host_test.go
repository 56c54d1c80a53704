package host

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yllada/deskshell/bridge"
	"github.com/yllada/deskshell/common"
	"github.com/yllada/deskshell/config"
	"github.com/yllada/deskshell/ipc"
	"github.com/yllada/deskshell/logsink"
	"github.com/yllada/deskshell/theme"
	"github.com/yllada/deskshell/window"
)

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

type testHost struct {
	*Host
	system  *window.HeadlessSystem
	native  *theme.StaticTheme
	console *syncBuffer
	peers   chan *ipc.Conn
}

func newTestHost(t *testing.T, cfg *config.Config) *testHost {
	t.Helper()
	th := &testHost{
		system:  window.NewHeadlessSystem(),
		native:  theme.NewStaticTheme(false),
		console: &syncBuffer{},
		peers:   make(chan *ipc.Conn, 8),
	}
	sink := logsink.New(logsink.Config{Dir: t.TempDir(), Console: th.console})
	th.Host = New(Options{
		Sink:   sink,
		System: th.system,
		Loader: &window.PipeLoader{Attach: func(_ string, conn *ipc.Conn) { th.peers <- conn }},
		Theme:  th.native,
		Config: cfg,
	})
	t.Cleanup(func() {
		th.Windows().CloseAll()
		th.Close()
		sink.Close()
	})
	return th
}

// open creates a surface and returns its raw presentation end.
func (th *testHost) open(t *testing.T, name window.Name) (*window.Surface, *ipc.Conn) {
	t.Helper()
	s, err := th.Open(context.Background(), name)
	require.NoError(t, err)
	select {
	case conn := <-th.peers:
		return s, conn
	case <-time.After(time.Second):
		t.Fatal("no presentation end attached")
		return nil, nil
	}
}

func TestAcquireInstanceLock(t *testing.T) {
	dir := t.TempDir()

	first, err := AcquireInstanceLock(dir)
	require.NoError(t, err)
	data, err := os.ReadFile(filepath.Join(dir, common.LockFileName))
	require.NoError(t, err)
	assert.Equal(t, strconv.Itoa(os.Getpid()), string(data))

	_, err = AcquireInstanceLock(dir)
	assert.ErrorIs(t, err, common.ErrAlreadyRunning)
	assert.Contains(t, err.Error(), "PID "+strconv.Itoa(os.Getpid()))
	assert.Equal(t, common.ErrAlreadyRunning, holderError(0))

	require.NoError(t, first.Release())
	again, err := AcquireInstanceLock(dir)
	require.NoError(t, err)
	require.NoError(t, again.Release())
}

func TestDispatch_UnknownChannelDropped(t *testing.T) {
	th := newTestHost(t, nil)
	_, conn := th.open(t, window.NameMain)

	require.NoError(t, conn.Send(ipc.Message{Channel: "open-devtools", Kind: ipc.KindRequest, ID: "devtools"}))
	req, err := ipc.NewRequest(ipc.ChannelIsDarkTheme, nil)
	require.NoError(t, err)
	require.NoError(t, conn.Send(req))

	reply, err := conn.Receive()
	require.NoError(t, err)
	assert.Equal(t, req.ID, reply.ID, "unknown channels get no reply")
	assert.JSONEq(t, "false", string(reply.Payload))
	assert.Contains(t, th.console.String(), "Dropping message")
	assert.Contains(t, th.console.String(), "open-devtools")
}

func TestDispatch_MalformedRequestAnswered(t *testing.T) {
	th := newTestHost(t, nil)
	_, conn := th.open(t, window.NameMain)

	req := ipc.Message{Channel: ipc.ChannelSetThemeMode, Kind: ipc.KindRequest, ID: "bad", Payload: []byte("42")}
	require.NoError(t, conn.Send(req))

	reply, err := conn.Receive()
	require.NoError(t, err)
	assert.Equal(t, "bad", reply.ID)
	assert.Equal(t, ipc.KindReply, reply.Kind)
	assert.NotEmpty(t, reply.Error)
	assert.Equal(t, theme.ModeSystem, th.Theme().Mode())
}

func TestDispatch_InvalidThemeMode(t *testing.T) {
	th := newTestHost(t, nil)
	_, conn := th.open(t, window.NameMain)
	b := bridge.New(conn)

	_, err := b.SetThemeMode(context.Background(), "sepia")
	assert.ErrorIs(t, err, common.ErrRequestFailed)
	assert.ErrorContains(t, err, "invalid theme mode")
}

func TestDispatch_LogForwarded(t *testing.T) {
	th := newTestHost(t, nil)
	_, conn := th.open(t, window.NameSettings)
	b := bridge.New(conn)

	require.NoError(t, b.LogError("render failed", "component", "ThemeToggle"))
	require.Eventually(t, func() bool {
		return bytes.Contains([]byte(th.console.String()), []byte("[error] render failed"))
	}, time.Second, 5*time.Millisecond)
	assert.Contains(t, th.console.String(), `"surface": "settings"`)
	assert.Contains(t, th.console.String(), "ThemeToggle")
}

func TestDispatch_GoneSurfaceOwesNoReply(t *testing.T) {
	th := newTestHost(t, nil)
	s, _ := th.open(t, window.NameMain)
	d := &dispatcher{host: th.Host, surface: s}

	reply := ipc.IsWindowMaximized{}.Visit(d)
	assert.True(t, reply.Owed)

	th.Windows().Close(s)
	reply = ipc.IsWindowMaximized{}.Visit(d)
	assert.False(t, reply.Owed)
}

func TestServe_PresentationExitClosesSurface(t *testing.T) {
	th := newTestHost(t, nil)
	s, conn := th.open(t, window.NameDialog)

	conn.Close()

	require.Eventually(t, func() bool { return s.State() == window.StateDestroyed }, time.Second, 5*time.Millisecond)
	assert.True(t, th.system.Last().Closed())
}

func TestOpen_ReusesLiveSurface(t *testing.T) {
	th := newTestHost(t, nil)
	first, _ := th.open(t, window.NameSettings)

	again, err := th.Open(context.Background(), window.NameSettings)
	require.NoError(t, err)
	assert.Same(t, first, again)
	assert.Len(t, th.system.Windows(), 1)
}

func TestThemeModePersisted(t *testing.T) {
	cfg, err := config.Load(filepath.Join(t.TempDir(), "config.yaml"))
	require.NoError(t, err)

	th := newTestHost(t, cfg)
	_, conn := th.open(t, window.NameMain)
	b := bridge.New(conn)

	isDark, err := b.SetThemeMode(context.Background(), "dark")
	require.NoError(t, err)
	assert.True(t, isDark)

	require.Eventually(t, func() bool {
		saved, err := config.Load(cfg.Path())
		return err == nil && saved.ThemeMode == common.ThemeDark
	}, time.Second, 10*time.Millisecond)
}

func TestRun_EndsWhenLastSurfaceCloses(t *testing.T) {
	th := newTestHost(t, nil)

	done := make(chan error, 1)
	go func() { done <- th.Run(context.Background()) }()

	var conn *ipc.Conn
	select {
	case conn = <-th.peers:
	case <-time.After(time.Second):
		t.Fatal("main surface not opened")
	}
	main, ok := th.Windows().Find(window.NameMain)
	require.True(t, ok)
	assert.Equal(t, common.MainWindowWidth, main.Size.Width)
	assert.Equal(t, common.MainWindowHeight, main.Size.Height)

	require.NoError(t, bridge.New(conn).CloseWindow())

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after the last surface closed")
	}
}

func TestRun_ContextCancelClosesSurfaces(t *testing.T) {
	th := newTestHost(t, nil)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- th.Run(ctx) }()

	conn := <-th.peers
	bridge.New(conn)
	start := time.Now()
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
	assert.Zero(t, th.Windows().Len())
	assert.Less(t, time.Since(start), common.ShutdownTimeout/2, "shutdown returns once the last surface is destroyed")
}

func TestRun_MainLoadFailure(t *testing.T) {
	sink := logsink.New(logsink.Config{Console: &syncBuffer{}})
	h := New(Options{
		Sink:   sink,
		System: window.NewHeadlessSystem(),
		Loader: &window.PipeLoader{Err: os.ErrNotExist},
	})

	err := h.Run(context.Background())
	assert.ErrorIs(t, err, common.ErrSurfaceLoad)
}

func TestThemeModePersisted_LatestWins(t *testing.T) {
	cfg, err := config.Load(filepath.Join(t.TempDir(), "config.yaml"))
	require.NoError(t, err)
	th := newTestHost(t, cfg)

	modes := []theme.Mode{theme.ModeDark, theme.ModeLight, theme.ModeSystem, theme.ModeDark, theme.ModeLight}
	for _, m := range modes {
		_, err := th.Theme().SetMode(m)
		require.NoError(t, err)
	}
	th.Close()

	saved, err := config.Load(cfg.Path())
	require.NoError(t, err)
	assert.Equal(t, common.ThemeLight, saved.ThemeMode)
}

func TestRun_PanickingServiceIsLogged(t *testing.T) {
	console := &syncBuffer{}
	sink := logsink.New(logsink.Config{Dir: t.TempDir(), Console: console})
	defer sink.Close()

	peers := make(chan *ipc.Conn, 1)
	h := New(Options{
		Sink:   sink,
		System: window.NewHeadlessSystem(),
		Loader: &window.PipeLoader{Attach: func(_ string, conn *ipc.Conn) { peers <- conn }},
		Services: []func(context.Context) error{
			func(context.Context) error { panic("tray crashed") },
		},
	})

	done := make(chan error, 1)
	go func() { done <- h.Run(context.Background()) }()

	var conn *ipc.Conn
	select {
	case conn = <-peers:
	case <-time.After(time.Second):
		t.Fatal("main surface not opened")
	}
	require.Eventually(t, func() bool {
		return bytes.Contains([]byte(console.String()), []byte("tray crashed"))
	}, time.Second, 5*time.Millisecond)
	assert.Contains(t, console.String(), "Recovered panic")

	b := bridge.New(conn)
	isDark, err := b.IsDarkTheme(context.Background())
	require.NoError(t, err, "the host keeps serving after a service panic")
	assert.False(t, isDark)

	require.NoError(t, b.CloseWindow())
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after the last surface closed")
	}
}

func TestTheme_StalledSurfaceDoesNotBlockOthers(t *testing.T) {
	th := newTestHost(t, nil)
	// The main surface's presentation end is never read.
	stalled, _ := th.open(t, window.NameMain)
	_, conn := th.open(t, window.NameSettings)
	b := bridge.New(conn)

	updates := make(chan bool, 256)
	dispose := b.OnThemeUpdated(func(isDark bool) { updates <- isDark })
	defer dispose()

	// Each change is paced by the reading surface, so only the stalled
	// one can fill up.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 2*common.SurfaceOutboxSize; i++ {
			mode, want := theme.ModeDark, true
			if i%2 == 1 {
				mode, want = theme.ModeLight, false
			}
			_, err := th.Theme().SetMode(mode)
			if !assert.NoError(t, err) {
				return
			}
			select {
			case got := <-updates:
				assert.Equal(t, want, got)
			case <-time.After(time.Second):
				assert.Fail(t, "reading surface missed a theme update", "change %d", i)
				return
			}
		}
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("SetMode blocked behind a surface that stopped reading")
	}
	assert.Equal(t, theme.ModeLight, th.Theme().Mode())

	require.Eventually(t, func() bool { return stalled.State() == window.StateDestroyed },
		time.Second, 5*time.Millisecond, "a surface that stopped reading is closed")

	isDark, err := b.IsDarkTheme(context.Background())
	require.NoError(t, err)
	assert.False(t, isDark)
	_, ok := th.Windows().Find(window.NameSettings)
	assert.True(t, ok)
}
