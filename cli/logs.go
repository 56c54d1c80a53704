package cli

import (
	"fmt"
	"io"
	"os"
	"sort"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/yllada/deskshell/common"
	"github.com/yllada/deskshell/logsink"
)

func newLogsCommand(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Inspect and maintain the log directory",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Print the log directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := common.GetLogDir()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), dir)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "sweep",
		Short: "Delete day files older than the retention window",
		Long: fmt.Sprintf(`Runs one retention pass over the log directory. Day files whose last
modification is older than %d days are deleted; the rest are kept.`, common.LogRetentionDays),
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := common.GetLogDir()
			if err != nil {
				return err
			}
			cfg, _ := loadConfig(opts.configPath)
			sink := newSink(cfg, opts.verbose)
			defer sink.Close()

			sweeper := &logsink.Sweeper{
				Dir:       dir,
				Retention: common.LogRetentionDays * 24 * time.Hour,
				Log:       sink.Component("logsink"),
			}
			printSweep(cmd.OutOrStdout(), sweeper.Sweep(time.Now()))
			return nil
		},
	})

	return cmd
}

func printSweep(w io.Writer, res logsink.SweepResult) {
	tty := false
	if f, ok := w.(*os.File); ok {
		tty = term.IsTerminal(int(f.Fd()))
	}
	ok, fail := "deleted", "failed"
	if tty {
		ok = color.New(color.FgGreen).Sprint("✓") + " deleted"
		fail = color.New(color.FgRed).Sprint("✗") + " failed"
	}

	for _, name := range res.Deleted {
		fmt.Fprintf(w, "%s %s\n", ok, name)
	}
	failed := make([]string, 0, len(res.Failed))
	for name := range res.Failed {
		failed = append(failed, name)
	}
	sort.Strings(failed)
	for _, name := range failed {
		fmt.Fprintf(w, "%s %s: %v\n", fail, name, res.Failed[name])
	}
	if len(res.Deleted) == 0 && len(failed) == 0 {
		fmt.Fprintln(w, "Nothing to delete.")
	}
}
