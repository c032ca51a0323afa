package cli

import (
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/wesleyorama2/routemeter/internal/config"
	"github.com/wesleyorama2/routemeter/internal/loadgen"
	"github.com/wesleyorama2/routemeter/internal/logging"
	"github.com/wesleyorama2/routemeter/internal/output"
)

func newBenchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Send a fixed number of requests and summarize latency",
		Long: `Send requests to a URL with a fixed number of workers, optionally paced
to a request rate, and print the client-side latency distribution.

With --metrics-url the server's registry snapshot is fetched afterwards so
the client and server views can be compared:

  routemeter bench --url http://localhost:8080/test -n 1000 -c 8 --rate 200 \
    --metrics-url http://localhost:8080/metrics --name NancyFx.Sample`,
		Args: cobra.NoArgs,
		RunE: runBench,
	}

	defaults := loadgen.DefaultConfig()
	cmd.Flags().String("url", "", "Target URL (required)")
	cmd.Flags().StringP("method", "X", defaults.Method, "HTTP method")
	cmd.Flags().StringP("data", "d", "", "Request body")
	cmd.Flags().StringArrayP("header", "H", nil, "Request header in 'Key: Value' form (repeatable)")
	cmd.Flags().IntP("requests", "n", defaults.Requests, "Number of requests")
	cmd.Flags().IntP("concurrency", "c", defaults.Concurrency, "Number of concurrent workers")
	cmd.Flags().Float64("rate", 0, "Maximum requests per second (0 = unpaced)")
	cmd.Flags().DurationP("timeout", "t", defaults.Timeout, "Request timeout")
	cmd.Flags().String("metrics-url", "", "Metrics endpoint to read after the run")
	cmd.Flags().String("name", "", "Only show server metrics with this name or prefix")
	cmd.Flags().BoolP("verbose", "v", false, "Log each failed request")
	_ = cmd.MarkFlagRequired("url")
	return cmd
}

func runBench(cmd *cobra.Command, args []string) error {
	flags := cmd.Flags()
	url, _ := flags.GetString("url")
	method, _ := flags.GetString("method")
	data, _ := flags.GetString("data")
	headers, _ := flags.GetStringArray("header")
	requests, _ := flags.GetInt("requests")
	concurrency, _ := flags.GetInt("concurrency")
	rate, _ := flags.GetFloat64("rate")
	timeout, _ := flags.GetDuration("timeout")
	metricsURL, _ := flags.GetString("metrics-url")
	name, _ := flags.GetString("name")
	verbose, _ := flags.GetBool("verbose")

	printer, err := newPrinter(cmd)
	if err != nil {
		return err
	}

	cfg := loadgen.Config{
		URL:         url,
		Method:      method,
		Requests:    requests,
		Concurrency: concurrency,
		Rate:        rate,
		Timeout:     timeout,
	}
	if data != "" {
		cfg.Body = []byte(data)
	}
	if cfg.Headers, err = parseHeaders(headers); err != nil {
		return err
	}

	logger := zap.NewNop()
	if verbose {
		if logger, err = logging.New(config.LoggingConfig{Level: "debug", Development: true}); err != nil {
			return err
		}
		defer logger.Sync()
	}

	gen, err := loadgen.New(cfg, loadgen.WithLogger(logger))
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	result, runErr := gen.Run(ctx)
	if result == nil {
		return runErr
	}

	report := output.BenchReport{Method: strings.ToUpper(method), URL: url, Result: result}
	if metricsURL != "" {
		view, err := fetchSnapshot(cmd.Context(), metricsURL, timeout)
		if err != nil {
			return err
		}
		report.Server = view.Filter(name)
	}

	if err := printer.Bench(report); err != nil {
		return err
	}
	return runErr
}

func parseHeaders(values []string) (map[string]string, error) {
	headers := make(map[string]string, len(values))
	for _, h := range values {
		key, value, ok := strings.Cut(h, ":")
		if !ok || strings.TrimSpace(key) == "" {
			return nil, errors.Errorf("invalid header %q, want 'Key: Value'", h)
		}
		headers[strings.TrimSpace(key)] = strings.TrimSpace(value)
	}
	return headers, nil
}
