package bridge

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yllada/deskshell/common"
	"github.com/yllada/deskshell/ipc"
)

// fakeHost answers requests from a table and records everything it receives.
type fakeHost struct {
	conn    *ipc.Conn
	answers map[ipc.Channel]any
	silent  map[ipc.Channel]bool
	failing map[ipc.Channel]error

	mu       sync.Mutex
	received []ipc.Message
}

func newFakeHost(t *testing.T) (*fakeHost, *Bridge) {
	t.Helper()
	hostEnd, surfaceEnd := ipc.Pipe()
	h := &fakeHost{
		conn:    hostEnd,
		answers: make(map[ipc.Channel]any),
		silent:  make(map[ipc.Channel]bool),
		failing: make(map[ipc.Channel]error),
	}
	b := New(surfaceEnd)
	t.Cleanup(func() {
		b.Close()
		hostEnd.Close()
	})
	return h, b
}

func (h *fakeHost) serve() {
	go func() {
		for {
			msg, err := h.conn.Receive()
			if err != nil {
				return
			}
			h.mu.Lock()
			h.received = append(h.received, msg)
			answer, silent, failure := h.answers[msg.Channel], h.silent[msg.Channel], h.failing[msg.Channel]
			h.mu.Unlock()

			if msg.Kind != ipc.KindRequest || silent {
				continue
			}
			reply, _ := ipc.NewReply(msg, answer, failure)
			_ = h.conn.Send(reply)
		}
	}()
}

func (h *fakeHost) messages() []ipc.Message {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]ipc.Message(nil), h.received...)
}

func (h *fakeHost) broadcast(t *testing.T, ch ipc.Channel, payload any) {
	t.Helper()
	msg, err := ipc.NewBroadcast(ch, payload)
	require.NoError(t, err)
	require.NoError(t, h.conn.Send(msg))
}

func TestRequests(t *testing.T) {
	h, b := newFakeHost(t)
	h.answers[ipc.ChannelIsWindowMaximized] = true
	h.answers[ipc.ChannelSetThemeMode] = true
	h.answers[ipc.ChannelGetThemeMode] = "dark"
	h.answers[ipc.ChannelIsDarkTheme] = false
	h.serve()

	ctx := context.Background()

	maximized, err := b.IsWindowMaximized(ctx)
	require.NoError(t, err)
	assert.True(t, maximized)

	isDark, err := b.SetThemeMode(ctx, "dark")
	require.NoError(t, err)
	assert.True(t, isDark)

	mode, err := b.GetThemeMode(ctx)
	require.NoError(t, err)
	assert.Equal(t, "dark", mode)

	isDark, err = b.IsDarkTheme(ctx)
	require.NoError(t, err)
	assert.False(t, isDark)

	var setMsg ipc.Message
	for _, m := range h.messages() {
		if m.Channel == ipc.ChannelSetThemeMode {
			setMsg = m
		}
	}
	assert.JSONEq(t, `"dark"`, string(setMsg.Payload))
}

func TestRequest_ConcurrentRepliesMatchCallers(t *testing.T) {
	h, b := newFakeHost(t)
	h.answers[ipc.ChannelGetThemeMode] = "light"
	h.answers[ipc.ChannelIsDarkTheme] = true
	h.serve()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			mode, err := b.GetThemeMode(context.Background())
			assert.NoError(t, err)
			assert.Equal(t, "light", mode)
		}()
		go func() {
			defer wg.Done()
			isDark, err := b.IsDarkTheme(context.Background())
			assert.NoError(t, err)
			assert.True(t, isDark)
		}()
	}
	wg.Wait()
}

func TestRequest_ErrorReply(t *testing.T) {
	h, b := newFakeHost(t)
	h.failing[ipc.ChannelSetThemeMode] = errors.New(`invalid theme mode: "sepia"`)
	h.serve()

	_, err := b.SetThemeMode(context.Background(), "sepia")
	assert.ErrorIs(t, err, common.ErrRequestFailed)
	assert.ErrorContains(t, err, "sepia")
}

func TestRequest_NoReplyTimesOut(t *testing.T) {
	h, b := newFakeHost(t)
	h.silent[ipc.ChannelIsWindowMaximized] = true
	h.serve()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := b.IsWindowMaximized(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestRequest_HostGone(t *testing.T) {
	h, b := newFakeHost(t)
	h.silent[ipc.ChannelIsDarkTheme] = true
	h.serve()

	errc := make(chan error, 1)
	go func() {
		_, err := b.IsDarkTheme(context.Background())
		errc <- err
	}()

	require.Eventually(t, func() bool { return len(h.messages()) == 1 }, time.Second, 5*time.Millisecond)
	h.conn.Close()

	select {
	case err := <-errc:
		assert.ErrorIs(t, err, common.ErrChannelClosed)
	case <-time.After(time.Second):
		t.Fatal("pending request not failed after the host went away")
	}

	<-b.Done()
	_, err := b.GetThemeMode(context.Background())
	assert.ErrorIs(t, err, common.ErrChannelClosed)
}

func TestCommands(t *testing.T) {
	h, b := newFakeHost(t)
	h.serve()

	require.NoError(t, b.MinimizeWindow())
	require.NoError(t, b.MaximizeWindow())
	require.NoError(t, b.CloseWindow())

	require.Eventually(t, func() bool { return len(h.messages()) == 3 }, time.Second, 5*time.Millisecond)
	msgs := h.messages()
	assert.Equal(t, ipc.ChannelMinimizeWindow, msgs[0].Channel)
	assert.Equal(t, ipc.ChannelMaximizeWindow, msgs[1].Channel)
	assert.Equal(t, ipc.ChannelCloseWindow, msgs[2].Channel)
	for _, m := range msgs {
		assert.Equal(t, ipc.KindCommand, m.Kind)
		assert.Empty(t, m.ID)
	}
}

func TestSubscriptions(t *testing.T) {
	h, b := newFakeHost(t)
	h.serve()

	themes := make(chan bool, 4)
	maximizable := make(chan bool, 4)
	disposeTheme := b.OnThemeUpdated(func(isDark bool) { themes <- isDark })
	b.OnMaximizeState(func(v bool) { maximizable <- v })

	h.broadcast(t, ipc.ChannelThemeModeUpdated, true)
	h.broadcast(t, ipc.ChannelMaximizeWindowBack, false)

	assert.True(t, <-themes)
	assert.False(t, <-maximizable)

	disposeTheme()
	disposeTheme()
	h.broadcast(t, ipc.ChannelThemeModeUpdated, false)
	h.broadcast(t, ipc.ChannelMaximizeWindowBack, true)

	assert.True(t, <-maximizable)
	select {
	case v := <-themes:
		t.Fatalf("disposed subscriber received %v", v)
	default:
	}
}

func TestSubscriberMayIssueRequests(t *testing.T) {
	h, b := newFakeHost(t)
	h.answers[ipc.ChannelGetThemeMode] = "system"
	h.serve()

	got := make(chan string, 1)
	b.OnThemeUpdated(func(bool) {
		mode, err := b.GetThemeMode(context.Background())
		if err == nil {
			got <- mode
		}
	})
	h.broadcast(t, ipc.ChannelThemeModeUpdated, true)

	select {
	case mode := <-got:
		assert.Equal(t, "system", mode)
	case <-time.After(time.Second):
		t.Fatal("request from inside a subscriber did not complete")
	}
}

func TestLogAndGuard(t *testing.T) {
	h, b := newFakeHost(t)
	h.serve()

	require.NoError(t, b.LogWarn("slow render", "ms", 120, errors.New("budget exceeded")))

	err := b.Guard(func() { panic("boom") })
	assert.ErrorContains(t, err, "boom")
	assert.NoError(t, b.Guard(func() {}))

	require.Eventually(t, func() bool { return len(h.messages()) == 2 }, time.Second, 5*time.Millisecond)
	msgs := h.messages()

	assert.Equal(t, ipc.ChannelLogWarn, msgs[0].Channel)
	var warn ipc.LogPayload
	require.NoError(t, msgs[0].Decode(&warn))
	assert.Equal(t, "slow render", warn.Message)
	assert.Equal(t, []any{"ms", float64(120), "budget exceeded"}, warn.Meta)

	assert.Equal(t, ipc.ChannelLogError, msgs[1].Channel)
	var entry ipc.LogPayload
	require.NoError(t, msgs[1].Decode(&entry))
	assert.Equal(t, "uncaught panic in presentation code", entry.Message)
	assert.Contains(t, entry.Meta[0], "boom")
}
