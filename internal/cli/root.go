// Package cli implements the routemeter command line.
package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var version = "0.1.0"

// RootCmd represents the base command when called without any subcommands
var RootCmd = newRootCmd()

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "routemeter",
		Short:   "Per-route request metrics for HTTP services",
		Version: version,
		Long: `routemeter instruments HTTP routes with timers and size histograms,
serves the resulting registry as JSON, and drives load against it.

  routemeter serve --config routemeter.yaml
  routemeter bench --url http://localhost:8080/test -n 500 -c 8 \
    --metrics-url http://localhost:8080/metrics
  routemeter stats --metrics-url http://localhost:8080/metrics`,
		SilenceUsage: true,
		Run: func(cmd *cobra.Command, args []string) {
			// If no subcommand is provided, print help
			cmd.Help()
		},
	}

	cmd.PersistentFlags().StringP("output", "o", "text", "Output format (text, json, yaml)")
	cmd.PersistentFlags().Bool("no-color", false, "Disable colored output")

	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newBenchCmd())
	cmd.AddCommand(newStatsCmd())
	return cmd
}

// Execute runs the root command. This is called by main.main().
func Execute() error {
	if err := RootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return err
	}
	return nil
}
