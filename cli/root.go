// Package cli provides the command-line entry points of the desktop shell:
// running the host, the hidden presentation-process runtime and log
// maintenance commands.
package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/yllada/deskshell/common"
	"github.com/yllada/deskshell/config"
	"github.com/yllada/deskshell/host"
	"github.com/yllada/deskshell/ipc"
	"github.com/yllada/deskshell/logsink"
	"github.com/yllada/deskshell/theme"
	"github.com/yllada/deskshell/ui"
	"github.com/yllada/deskshell/window"
)

// BuildInfo is injected by main via ldflags.
type BuildInfo struct {
	Version   string
	Commit    string
	BuildTime string
}

type rootOptions struct {
	build      BuildInfo
	configPath string
	headless   bool
	verbose    bool
}

// NewRootCommand builds the deskshell command tree.
func NewRootCommand(build BuildInfo) *cobra.Command {
	opts := &rootOptions{build: build}

	cmd := &cobra.Command{
		Use:   "deskshell",
		Short: "Desktop application shell",
		Long: `deskshell owns the native windows, the theme and the logs of the desktop
application. Each window's UI runs in its own sandboxed presentation process
that talks to the shell over a fixed set of channels.`,
		Version:       build.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runShell(cmd.Context(), opts)
		},
	}

	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "Path to config file (default ~/.config/deskshell/config.yaml)")
	cmd.Flags().BoolVar(&opts.headless, "headless", false, "Run without native windows")
	cmd.Flags().BoolVarP(&opts.verbose, "verbose", "v", false, "Enable debug logging")

	cmd.AddCommand(newSurfaceCommand())
	cmd.AddCommand(newLogsCommand(opts))
	cmd.AddCommand(newVersionCommand(build))
	return cmd
}

// runHeadless applies the --headless flag for this run only. cfg is saved
// back when the theme changes, so the flag must not be written into it.
func (o *rootOptions) runHeadless(cfg *config.Config) bool {
	return cfg.Headless || o.headless
}

// loadConfig never fails; a broken file falls back to defaults.
func loadConfig(path string) (*config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		if cfg == nil {
			cfg = config.DefaultConfig()
		}
		return cfg, err
	}
	return cfg, nil
}

// newSink builds the log sink from config. The log directory is optional.
func newSink(cfg *config.Config, verbose bool) *logsink.Sink {
	level, err := logsink.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zapcore.InfoLevel
	}
	if verbose {
		level = zapcore.DebugLevel
	}
	dir, _ := common.GetLogDir()
	return logsink.New(logsink.Config{
		Dir:         dir,
		Level:       level,
		MaxFileSize: int64(cfg.LogMaxSizeMB) * 1024 * 1024,
		Console:     os.Stderr,
	})
}

func runShell(parent context.Context, opts *rootOptions) error {
	cfg, cfgErr := loadConfig(opts.configPath)
	headless := opts.runHeadless(cfg)

	sink := newSink(cfg, opts.verbose)
	defer sink.Close()
	log := sink.Component("cli")
	if cfgErr != nil {
		log.Warnw("Using default configuration", "error", cfgErr)
	}

	runtimeDir, err := common.GetRuntimeDir()
	if err != nil {
		return err
	}
	lock, err := host.AcquireInstanceLock(runtimeDir)
	if err != nil {
		if errors.Is(err, common.ErrAlreadyRunning) {
			log.Warnw("Another instance is already running", "error", err)
		}
		return err
	}
	defer lock.Release()

	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	systemTheme := openSystemTheme(log)
	if closer, ok := systemTheme.(interface{ Close() error }); ok {
		defer closer.Close()
	}

	log.Infow("Starting "+common.AppName, "version", opts.build.Version, "headless", headless)
	loader := ipc.NewProcessLoader(sink.Component("loader"))

	if headless {
		return newHeadlessHost(sink, cfg, loader, systemTheme).Run(ctx)
	}

	return runGUI(ctx, sink, cfg, loader, systemTheme)
}

// newHeadlessHost builds a host whose surfaces have no native windows.
func newHeadlessHost(sink *logsink.Sink, cfg *config.Config, loader window.Loader, systemTheme theme.NativeTheme) *host.Host {
	return host.New(host.Options{
		Sink:   sink,
		System: window.NewHeadlessSystem(),
		Loader: loader,
		Theme:  systemTheme,
		Config: cfg,
	})
}

// runGUI runs GTK on the calling goroutine and the host beside it.
func runGUI(ctx context.Context, sink *logsink.Sink, cfg *config.Config, loader window.Loader, systemTheme theme.NativeTheme) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	app := ui.NewApplication(sink.Component("ui"))

	var h *host.Host
	var services []func(context.Context) error
	if cfg.ShowTray {
		trayLog := sink.Component("tray")
		services = append(services, func(ctx context.Context) error {
			return ui.NewTrayIndicator(h, cancel, trayLog).Run(ctx)
		})
	}
	h = host.New(host.Options{
		Sink:     sink,
		System:   app,
		Loader:   loader,
		Theme:    ui.NewNativeTheme(systemTheme),
		Config:   cfg,
		Services: services,
	})

	runErr := make(chan error, 1)
	hostLog := sink.Component("host")
	go func() {
		var err error
		started := false
		defer func() {
			runErr <- err
			if started {
				app.Quit()
			}
		}()
		defer common.Recover(hostLog, "host run")

		select {
		case <-app.Ready():
		case <-ctx.Done():
			return
		}
		started = true
		err = h.Run(ctx)
	}()

	code := app.Run(os.Args[:1])
	cancel()
	err := <-runErr
	if err == nil && code != 0 {
		err = fmt.Errorf("GTK application exited with code %d", code)
	}
	return err
}

// openSystemTheme prefers the desktop portal and falls back to a light
// static preference.
func openSystemTheme(log *zap.SugaredLogger) theme.NativeTheme {
	portal, err := theme.NewPortalTheme(log.Named("portal"))
	if err != nil {
		log.Infow("Desktop portal unavailable, assuming a light desktop", "error", err)
		return theme.NewStaticTheme(false)
	}
	return portal
}
