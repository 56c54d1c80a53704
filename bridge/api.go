package bridge

import (
	"context"

	"github.com/yllada/deskshell/ipc"
)

// CloseWindow asks the host to close this surface.
func (b *Bridge) CloseWindow() error {
	return b.command(ipc.ChannelCloseWindow, nil)
}

// MinimizeWindow asks the host to minimize this surface.
func (b *Bridge) MinimizeWindow() error {
	return b.command(ipc.ChannelMinimizeWindow, nil)
}

// MaximizeWindow toggles maximize on this surface.
func (b *Bridge) MaximizeWindow() error {
	return b.command(ipc.ChannelMaximizeWindow, nil)
}

// IsWindowMaximized asks for the native maximize state. When the surface is
// already being torn down the host does not answer and ctx decides.
func (b *Bridge) IsWindowMaximized(ctx context.Context) (bool, error) {
	var maximized bool
	err := b.request(ctx, ipc.ChannelIsWindowMaximized, nil, &maximized)
	return maximized, err
}

// SetThemeMode sets the process-wide theme mode and returns the resolved dark flag.
func (b *Bridge) SetThemeMode(ctx context.Context, mode string) (bool, error) {
	var isDark bool
	err := b.request(ctx, ipc.ChannelSetThemeMode, mode, &isDark)
	return isDark, err
}

// GetThemeMode returns dark, light or system.
func (b *Bridge) GetThemeMode(ctx context.Context) (string, error) {
	var mode string
	err := b.request(ctx, ipc.ChannelGetThemeMode, nil, &mode)
	return mode, err
}

// IsDarkTheme returns the resolved dark flag.
func (b *Bridge) IsDarkTheme(ctx context.Context) (bool, error) {
	var isDark bool
	err := b.request(ctx, ipc.ChannelIsDarkTheme, nil, &isDark)
	return isDark, err
}

// OnMaximizeState subscribes to maximize-state notifications. fn receives
// whether the window can currently be maximized.
func (b *Bridge) OnMaximizeState(fn func(maximizable bool)) (dispose func()) {
	return b.subscribeBool(ipc.ChannelMaximizeWindowBack, fn)
}

// OnThemeUpdated subscribes to theme changes. fn receives the dark flag.
func (b *Bridge) OnThemeUpdated(fn func(isDark bool)) (dispose func()) {
	return b.subscribeBool(ipc.ChannelThemeModeUpdated, fn)
}
