package server

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/wesleyorama2/routemeter/internal/config"
	"github.com/wesleyorama2/routemeter/pkg/metrics"
)

// Server is the HTTP front of the sample module.
type Server struct {
	cfg      config.ServerConfig
	registry *metrics.Registry
	logger   *zap.Logger
	handler  http.Handler
}

// New creates a server routing the metrics path to the registry snapshot
// and everything else to app.
func New(cfg config.ServerConfig, registry *metrics.Registry, app http.Handler, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.MetricsPath == "" {
		cfg.MetricsPath = "/metrics"
	}

	mux := http.NewServeMux()
	mux.Handle("GET "+cfg.MetricsPath, SnapshotHandler(registry))
	mux.Handle("/", app)

	return &Server{
		cfg:      cfg,
		registry: registry,
		logger:   logger,
		handler:  AccessLog(logger, Recover(logger, mux)),
	}
}

// Handler returns the fully wrapped handler.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Run listens on the configured address and serves until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Address)
	if err != nil {
		return errors.Wrapf(err, "listen on %s", s.cfg.Address)
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is cancelled, then shuts down gracefully
// within the configured shutdown timeout.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:      s.handler,
		ReadTimeout:  time.Duration(s.cfg.ReadTimeout),
		WriteTimeout: time.Duration(s.cfg.WriteTimeout),
		ErrorLog:     zap.NewStdLog(s.logger),
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()
	s.logger.Info("server started",
		zap.String("address", ln.Addr().String()),
		zap.String("metrics_path", s.cfg.MetricsPath),
	)

	select {
	case err := <-errCh:
		return errors.Wrap(err, "serve")
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout.GetDuration(5*time.Second))
	defer cancel()
	s.logger.Info("shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return errors.Wrap(err, "shutdown")
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.Wrap(err, "serve")
	}
	return nil
}
