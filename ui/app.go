package ui

import (
	"os"
	"path/filepath"
	"sync"

	"github.com/diamondburned/gotk4-adwaita/pkg/adw"
	"github.com/diamondburned/gotk4/pkg/core/glib"
	"github.com/diamondburned/gotk4/pkg/gdk/v4"
	"github.com/diamondburned/gotk4/pkg/gio/v2"
	"github.com/diamondburned/gotk4/pkg/gtk/v4"
	"go.uber.org/zap"

	"github.com/yllada/deskshell/common"
	"github.com/yllada/deskshell/window"
)

// Application is the GTK application the host's native windows live in.
type Application struct {
	app *adw.Application
	log *zap.SugaredLogger

	ready     chan struct{}
	readyOnce sync.Once
}

var _ window.System = (*Application)(nil)

// NewApplication creates the libadwaita application. Nothing is shown
// until Run is called.
func NewApplication(log *zap.SugaredLogger) *Application {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	a := &Application{
		app:   adw.NewApplication(common.AppID, gio.ApplicationNonUnique),
		log:   log,
		ready: make(chan struct{}),
	}
	a.app.ConnectActivate(a.onActivate)
	return a
}

// Run runs the GTK main loop on the calling goroutine, which must be the
// main one. It returns the exit status.
func (a *Application) Run(args []string) int {
	return a.app.Run(args)
}

// Ready is closed once the application is activated and can open windows.
func (a *Application) Ready() <-chan struct{} {
	return a.ready
}

// Quit ends the main loop.
func (a *Application) Quit() {
	glib.IdleAdd(func() {
		a.app.Release()
		a.app.Quit()
	})
}

// onActivate is called when the application is activated
func (a *Application) onActivate() {
	a.readyOnce.Do(func() {
		LoadStyles()
		a.setupAppIcon()
		// Surfaces come and go from the host; the app must outlive its last window.
		a.app.Hold()
		a.log.Debugw("GTK application activated")
		close(a.ready)
	})
}

// setupAppIcon sets up the application icon
func (a *Application) setupAppIcon() {
	display := gdk.DisplayGetDefault()
	if display == nil {
		return
	}

	iconTheme := gtk.IconThemeGetForDisplay(display)
	if iconTheme == nil {
		return
	}

	if execPath, err := os.Executable(); err == nil {
		iconTheme.AddSearchPath(filepath.Join(filepath.Dir(execPath), "assets", "icons"))
	}

	gtk.WindowSetDefaultIconName(common.ConfigDirName)
}

// Open implements window.System. It schedules the window on the main loop
// and waits for it, so it must not be called from the main loop itself.
func (a *Application) Open(opts window.Options) (window.NativeWindow, error) {
	<-a.ready

	result := make(chan *gtkWindow, 1)
	glib.IdleAdd(func() {
		result <- newGTKWindow(&a.app.Application, opts, a.log.With("surface", opts.Name))
	})
	return <-result, nil
}
