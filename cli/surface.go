package cli

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/yllada/deskshell/bridge"
	"github.com/yllada/deskshell/common"
	"github.com/yllada/deskshell/ipc"
	"github.com/yllada/deskshell/window"
)

// Hidden surface command - the host re-executes itself with it for every
// presentation process.
func newSurfaceCommand() *cobra.Command {
	var name, template string

	cmd := &cobra.Command{
		Use:    "surface",
		Hidden: true,
		Args:   cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			surface, err := window.ParseName(name)
			if err != nil {
				return err
			}
			conn, err := ipc.ChildConn()
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runPresentation(ctx, bridge.New(conn), surface, template)
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "Surface name")
	cmd.Flags().StringVar(&template, "template", "", "Content template")
	return cmd
}

// presentation is the state a presentation process keeps about its surface.
type presentation struct {
	b    *bridge.Bridge
	name window.Name

	mu          sync.Mutex
	isDark      bool
	maximizable bool
}

// runPresentation announces the surface, mirrors host events and returns
// once the host closes the channel.
func runPresentation(ctx context.Context, b *bridge.Bridge, name window.Name, template string) error {
	p := &presentation{b: b, name: name, maximizable: true}

	disposeTheme := b.OnThemeUpdated(func(isDark bool) {
		_ = b.Guard(func() { p.setDark(isDark) })
	})
	defer disposeTheme()
	disposeMaximize := b.OnMaximizeState(func(maximizable bool) {
		_ = b.Guard(func() { p.setMaximizable(maximizable) })
	})
	defer disposeMaximize()

	if err := b.Guard(func() {
		reqCtx, cancel := context.WithTimeout(ctx, common.RequestTimeout)
		defer cancel()

		isDark, err := b.IsDarkTheme(reqCtx)
		if err != nil {
			_ = b.LogWarn("initial theme unavailable", "error", err)
		}
		p.setDark(isDark)
		_ = b.LogInfo("surface ready", "surface", string(name), "template", template)
	}); err != nil {
		return err
	}

	select {
	case <-ctx.Done():
		_ = b.Close()
		return nil
	case <-b.Done():
		return nil
	}
}

func (p *presentation) setDark(isDark bool) {
	p.mu.Lock()
	p.isDark = isDark
	p.mu.Unlock()
	_ = p.b.LogDebug("theme applied", "isDark", isDark)
}

func (p *presentation) setMaximizable(maximizable bool) {
	p.mu.Lock()
	changed := p.maximizable != maximizable
	p.maximizable = maximizable
	p.mu.Unlock()
	if !changed {
		return
	}
	_ = p.b.LogDebug("maximize button updated", "maximizable", maximizable)
}
