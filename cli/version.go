package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/yllada/deskshell/common"
)

func newVersionCommand(build BuildInfo) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Long:  `Prints version, commit, and build time. Use --json for machine-readable output.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if jsonOutput {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(map[string]string{
					"version":    build.Version,
					"commit":     build.Commit,
					"build_time": build.BuildTime,
				})
			}
			fmt.Fprintf(out, "%s v%s\n", common.AppName, build.Version)
			if build.BuildTime != "unknown" {
				fmt.Fprintf(out, "  Build:  %s\n", build.BuildTime)
				fmt.Fprintf(out, "  Commit: %s\n", build.Commit)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output version info as JSON")
	return cmd
}
