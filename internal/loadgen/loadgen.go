// Package loadgen drives a fixed number of requests at an HTTP endpoint and
// summarizes the client-side view of the run.
package loadgen

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	rmhttp "github.com/wesleyorama2/routemeter/internal/http"
)

// ErrInvalidConfig is returned for unusable generator settings.
var ErrInvalidConfig = errors.New("invalid load generator config")

// Config describes one run.
type Config struct {
	URL         string
	Method      string
	Requests    int
	Concurrency int
	// Rate caps request starts per second. Zero means unpaced.
	Rate    float64
	Timeout time.Duration
	Body    []byte
	Headers map[string]string
}

// DefaultConfig returns a config for 100 GET requests over 4 workers.
func DefaultConfig() Config {
	return Config{
		Method:      http.MethodGet,
		Requests:    100,
		Concurrency: 4,
		Timeout:     30 * time.Second,
	}
}

// Validate fills in the method and checks the numeric limits.
func (c *Config) Validate() error {
	if c.URL == "" {
		return errors.Wrap(ErrInvalidConfig, "url is required")
	}
	if c.Method == "" {
		c.Method = http.MethodGet
	}
	c.Method = strings.ToUpper(c.Method)
	if c.Requests <= 0 {
		return errors.Wrapf(ErrInvalidConfig, "requests must be positive, got %d", c.Requests)
	}
	if c.Concurrency <= 0 {
		return errors.Wrapf(ErrInvalidConfig, "concurrency must be positive, got %d", c.Concurrency)
	}
	if c.Concurrency > c.Requests {
		c.Concurrency = c.Requests
	}
	if c.Rate < 0 {
		return errors.Wrapf(ErrInvalidConfig, "rate must not be negative, got %v", c.Rate)
	}
	if c.Timeout < 0 {
		return errors.Wrapf(ErrInvalidConfig, "timeout must not be negative, got %v", c.Timeout)
	}
	return nil
}

// Result summarizes a run.
type Result struct {
	Requests    int64            `json:"requests"`
	Succeeded   int64            `json:"succeeded"`
	Failed      int64            `json:"failed"`
	Bytes       int64            `json:"bytes"`
	Elapsed     time.Duration    `json:"elapsed"`
	Throughput  float64          `json:"throughput"`
	Latency     LatencySummary   `json:"latency"`
	StatusCodes map[int]int64    `json:"statusCodes"`
	Errors      map[string]int64 `json:"errors,omitempty"`
	Pacing      *BucketStats     `json:"pacing,omitempty"`
}

// SuccessRate is the fraction of requests that got a 2xx response.
func (r *Result) SuccessRate() float64 {
	if r.Requests == 0 {
		return 0
	}
	return float64(r.Succeeded) / float64(r.Requests)
}

// Generator runs a Config.
type Generator struct {
	config Config
	client *rmhttp.Client
	clock  clock.Clock
	logger *zap.Logger
}

// Option configures a Generator.
type Option func(*Generator)

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(g *Generator) {
		if logger != nil {
			g.logger = logger
		}
	}
}

// WithClock sets the clock used for pacing.
func WithClock(clk clock.Clock) Option {
	return func(g *Generator) {
		if clk != nil {
			g.clock = clk
		}
	}
}

// New validates cfg and creates a generator.
func New(cfg Config, opts ...Option) (*Generator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	g := &Generator{
		config: cfg,
		clock:  clock.New(),
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(g)
	}

	clientOpts := []rmhttp.ClientOption{
		rmhttp.WithTimeout(cfg.Timeout),
		rmhttp.WithMaxIdleConns(cfg.Concurrency),
		rmhttp.WithHeader("User-Agent", "routemeter"),
	}
	for k, v := range cfg.Headers {
		clientOpts = append(clientOpts, rmhttp.WithHeader(k, v))
	}
	g.client = rmhttp.NewClient(clientOpts...)
	return g, nil
}

// Run issues the configured requests. If ctx ends first, the partial
// result is returned together with the context error.
func (g *Generator) Run(ctx context.Context) (*Result, error) {
	var bucket *LeakyBucket
	if g.config.Rate > 0 {
		bucket = NewLeakyBucket(g.config.Rate, g.clock)
	}

	rec := newRecorder()
	jobs := make(chan struct{})
	var wg sync.WaitGroup

	g.logger.Info("load run started",
		zap.String("url", g.config.URL),
		zap.String("method", g.config.Method),
		zap.Int("requests", g.config.Requests),
		zap.Int("concurrency", g.config.Concurrency),
		zap.Float64("rate", g.config.Rate),
	)

	start := time.Now()
	for i := 0; i < g.config.Concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range jobs {
				g.execute(ctx, rec)
			}
		}()
	}

	var runErr error
dispatch:
	for i := 0; i < g.config.Requests; i++ {
		if bucket != nil {
			if err := bucket.Wait(ctx); err != nil {
				runErr = err
				break
			}
		}
		select {
		case jobs <- struct{}{}:
		case <-ctx.Done():
			runErr = ctx.Err()
			break dispatch
		}
	}
	close(jobs)
	wg.Wait()
	elapsed := time.Since(start)

	status, errs := rec.counts()
	result := &Result{
		Requests:    rec.total.Load(),
		Succeeded:   rec.succeeded.Load(),
		Failed:      rec.failed.Load(),
		Bytes:       rec.bytes.Load(),
		Elapsed:     elapsed,
		Latency:     rec.summary(),
		StatusCodes: status,
		Errors:      errs,
	}
	if elapsed > 0 {
		result.Throughput = float64(result.Requests) / elapsed.Seconds()
	}
	if bucket != nil {
		stats := bucket.Stats()
		result.Pacing = &stats
	}

	g.logger.Info("load run finished",
		zap.Int64("requests", result.Requests),
		zap.Int64("failed", result.Failed),
		zap.Duration("elapsed", elapsed),
	)

	if runErr != nil {
		return result, errors.Wrap(runErr, "load run interrupted")
	}
	return result, nil
}

func (g *Generator) execute(ctx context.Context, rec *recorder) {
	req := rmhttp.NewRequest(g.config.Method, g.config.URL)
	if g.config.Body != nil {
		req.WithBody(g.config.Body)
	}

	start := time.Now()
	resp, err := g.client.Do(ctx, req)
	if err != nil {
		rec.recordError(time.Since(start), err)
		g.logger.Debug("request failed", zap.Error(err))
		return
	}
	rec.recordResponse(resp.Timing.TotalTime, resp.StatusCode, resp.Size(), resp.IsSuccess())
}
