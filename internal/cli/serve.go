package cli

import (
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/wesleyorama2/routemeter/internal/config"
	"github.com/wesleyorama2/routemeter/internal/instrument"
	"github.com/wesleyorama2/routemeter/internal/logging"
	"github.com/wesleyorama2/routemeter/internal/module"
	"github.com/wesleyorama2/routemeter/internal/server"
	"github.com/wesleyorama2/routemeter/pkg/metrics"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the instrumented sample module",
		Long: `Serve the sample module with request metrics enabled.

GET /test is timed and size-measured as TestRequest, GET /error panics, and
the registry snapshot is served as JSON on the metrics path. Additional
metric rules can be declared in the configuration file.`,
		Args: cobra.NoArgs,
		RunE: runServe,
	}

	cmd.Flags().StringP("config", "c", "", "Configuration file (YAML or JSON)")
	cmd.Flags().String("addr", "", "Listen address, overrides server.address")
	return cmd
}

func runServe(cmd *cobra.Command, args []string) error {
	configFile, _ := cmd.Flags().GetString("config")
	addr, _ := cmd.Flags().GetString("addr")

	cfg, err := loadServeConfig(configFile, addr)
	if err != nil {
		return err
	}

	logger, err := logging.New(cfg.Logging)
	if err != nil {
		return err
	}
	defer logger.Sync()

	registry, err := metrics.Init(cfg.RegistryConfig())
	if err != nil {
		return errors.Wrap(err, "metrics registry")
	}

	app, err := buildApp(cfg, registry, logger)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return server.New(cfg.Server, registry, app, logger).Run(ctx)
}

func loadServeConfig(path, addr string) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if path != "" {
		loaded, err := config.LoadConfig(path)
		if err != nil {
			return nil, errors.Wrapf(err, "load config %s", path)
		}
		cfg = loaded
	}
	if addr != "" {
		cfg.Server.Address = addr
	}
	return cfg, nil
}

// buildApp assembles the sample module with the configured rules under
// the configured metric context.
func buildApp(cfg *config.Config, registry *metrics.Registry, logger *zap.Logger) (http.Handler, error) {
	ctx, err := registry.Context(cfg.Metrics.Context...)
	if err != nil {
		return nil, errors.Wrap(err, "metrics context")
	}

	mod, err := module.NewSample(instrument.New(ctx, instrument.WithLogger(logger)))
	if err != nil {
		return nil, err
	}
	if err := applyRules(mod, cfg.Rules); err != nil {
		return nil, err
	}
	return mod.Handler()
}

func applyRules(mod *module.Module, rules []config.RuleConfig) error {
	for _, rule := range rules {
		want := make(map[string]bool, len(rule.Measure))
		for _, m := range rule.Measure {
			want[m] = true
		}

		var err error
		switch {
		case want[config.MeasureRequestTime] && want[config.MeasureResponseSize]:
			err = mod.MetricForRequestTimeAndResponseSize(rule.Name, rule.Method, rule.Path)
		case want[config.MeasureRequestTime]:
			err = mod.MetricForRequestTime(rule.Name, rule.Method, rule.Path)
		case want[config.MeasureResponseSize]:
			err = mod.MetricForResponseSize(rule.Name, rule.Method, rule.Path)
		}
		if err == nil && want[config.MeasureRequestSize] {
			err = mod.MetricForRequestSize(rule.Name, rule.Method, rule.Path)
		}
		if err != nil {
			return errors.Wrapf(err, "rule %q", rule.Name)
		}
	}
	return nil
}
