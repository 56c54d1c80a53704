package ui

import (
	"context"
	"fmt"
	"sync"

	"fyne.io/systray"
	"go.uber.org/zap"

	"github.com/yllada/deskshell/common"
	"github.com/yllada/deskshell/theme"
	"github.com/yllada/deskshell/window"
)

// Pre-generated icons for performance.
var (
	iconDark  = GenerateDarkIcon()
	iconLight = GenerateLightIcon()
)

// Shell is what the tray drives.
type Shell interface {
	Open(ctx context.Context, name window.Name) (*window.Surface, error)
	Theme() *theme.Coordinator
}

// TrayIndicator manages the system tray icon and menu.
type TrayIndicator struct {
	shell Shell
	quit  func()
	log   *zap.SugaredLogger
	ctx   context.Context

	mu         sync.Mutex
	themeItems map[theme.Mode]*systray.MenuItem
	release    func()
}

// NewTrayIndicator creates a new system tray indicator. quit is called
// from the Quit menu item.
func NewTrayIndicator(shell Shell, quit func(), log *zap.SugaredLogger) *TrayIndicator {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &TrayIndicator{
		shell:      shell,
		quit:       quit,
		log:        log,
		themeItems: make(map[theme.Mode]*systray.MenuItem),
	}
}

// Run shows the tray until ctx is done. It runs as a host service.
func (t *TrayIndicator) Run(ctx context.Context) error {
	t.ctx = ctx
	common.Go(t.log, "systray", func() { systray.Run(t.onReady, t.onExit) })
	<-ctx.Done()
	systray.Quit()
	return nil
}

// onReady is called when the systray is ready.
func (t *TrayIndicator) onReady() {
	coordinator := t.shell.Theme()
	systray.SetTitle(common.AppName)
	t.setIcon(coordinator.IsDark())

	showItem := systray.AddMenuItem("Show "+common.AppName, "Show the main window")
	common.Go(t.log, "tray show item", func() {
		for range showItem.ClickedCh {
			t.open(window.NameMain)
		}
	})

	settingsItem := systray.AddMenuItem("Settings", "Open settings")
	common.Go(t.log, "tray settings item", func() {
		for range settingsItem.ClickedCh {
			t.open(window.NameSettings)
		}
	})

	systray.AddSeparator()

	themeMenu := systray.AddMenuItem("Theme", "Color theme")
	current := coordinator.Mode()
	for _, entry := range []struct {
		mode  theme.Mode
		label string
	}{
		{theme.ModeSystem, "Follow System"},
		{theme.ModeLight, "Light"},
		{theme.ModeDark, "Dark"},
	} {
		item := themeMenu.AddSubMenuItemCheckbox(entry.label, fmt.Sprintf("Use the %s theme", entry.mode), entry.mode == current)
		t.mu.Lock()
		t.themeItems[entry.mode] = item
		t.mu.Unlock()

		mode := entry.mode
		common.Go(t.log, "tray theme item", func() {
			for range item.ClickedCh {
				if _, err := coordinator.SetMode(mode); err != nil {
					t.log.Warnw("Tray: failed to set theme mode", "mode", mode, "error", err)
				}
			}
		})
	}

	t.mu.Lock()
	t.release = coordinator.OnChange(t.onThemeChanged)
	t.mu.Unlock()

	systray.AddSeparator()

	quitItem := systray.AddMenuItem("Quit", "Close "+common.AppName)
	common.Go(t.log, "tray quit item", func() {
		for range quitItem.ClickedCh {
			t.quit()
		}
	})
}

// onExit is called when the systray is about to exit.
func (t *TrayIndicator) onExit() {
	t.mu.Lock()
	release := t.release
	t.release = nil
	t.mu.Unlock()

	if release != nil {
		release()
	}
	t.log.Debugw("Tray indicator cleanup completed")
}

func (t *TrayIndicator) open(name window.Name) {
	ctx := t.ctx
	if ctx == nil {
		ctx = context.Background()
	}
	if _, err := t.shell.Open(ctx, name); err != nil {
		t.log.Errorw("Tray: failed to open surface", "surface", name, "error", err)
	}
}

// onThemeChanged runs under the coordinator lock; it only touches the tray.
func (t *TrayIndicator) onThemeChanged(mode theme.Mode, isDark bool) {
	t.setIcon(isDark)

	t.mu.Lock()
	defer t.mu.Unlock()
	for m, item := range t.themeItems {
		if m == mode {
			item.Check()
		} else {
			item.Uncheck()
		}
	}
}

func (t *TrayIndicator) setIcon(isDark bool) {
	if isDark {
		systray.SetIcon(iconDark)
		systray.SetTooltip(common.AppName + " - Dark")
		return
	}
	systray.SetIcon(iconLight)
	systray.SetTooltip(common.AppName + " - Light")
}
