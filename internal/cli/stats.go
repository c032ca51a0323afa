package cli

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	rmhttp "github.com/wesleyorama2/routemeter/internal/http"
	"github.com/wesleyorama2/routemeter/internal/output"
)

const defaultStatsTimeout = 10 * time.Second

func newStatsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Print the metrics of a running server",
		Args:  cobra.NoArgs,
		RunE:  runStats,
	}

	cmd.Flags().String("metrics-url", "http://localhost:8080/metrics", "Metrics endpoint")
	cmd.Flags().String("name", "", "Only show metrics with this name or prefix")
	cmd.Flags().DurationP("timeout", "t", defaultStatsTimeout, "Request timeout")
	return cmd
}

func runStats(cmd *cobra.Command, args []string) error {
	metricsURL, _ := cmd.Flags().GetString("metrics-url")
	name, _ := cmd.Flags().GetString("name")
	timeout, _ := cmd.Flags().GetDuration("timeout")

	printer, err := newPrinter(cmd)
	if err != nil {
		return err
	}

	view, err := fetchSnapshot(cmd.Context(), metricsURL, timeout)
	if err != nil {
		return err
	}

	view = view.Filter(name)
	if name != "" && view.Empty() {
		return errors.Errorf("no metrics named %q", name)
	}
	return printer.Snapshot(view)
}

func fetchSnapshot(ctx context.Context, metricsURL string, timeout time.Duration) (*output.SnapshotView, error) {
	client := rmhttp.NewClient(rmhttp.WithTimeout(timeout))
	body, err := client.GetJSON(ctx, metricsURL)
	if err != nil {
		return nil, errors.Wrap(err, "fetch metrics")
	}
	return output.ParseSnapshot(body)
}

func newPrinter(cmd *cobra.Command) (*output.Printer, error) {
	formatFlag, _ := cmd.Flags().GetString("output")
	noColor, _ := cmd.Flags().GetBool("no-color")

	format, err := output.ParseFormat(formatFlag)
	if err != nil {
		return nil, err
	}
	return output.NewPrinter(cmd.OutOrStdout(), format, noColor), nil
}
