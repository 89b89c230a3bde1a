package cmd

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/Togather-Foundation/mozdef-proxy/internal/api"
	"github.com/Togather-Foundation/mozdef-proxy/internal/api/handlers"
	"github.com/Togather-Foundation/mozdef-proxy/internal/config"
	"github.com/Togather-Foundation/mozdef-proxy/internal/domain/events"
	"github.com/Togather-Foundation/mozdef-proxy/internal/metrics"
	"github.com/Togather-Foundation/mozdef-proxy/internal/proxy"
	"github.com/Togather-Foundation/mozdef-proxy/internal/queue"
	"github.com/Togather-Foundation/mozdef-proxy/internal/telemetry"
)

const (
	startupTimeout  = 10 * time.Second
	shutdownTimeout = 10 * time.Second
	poolStatsEvery  = 15 * time.Second
)

type serveOptions struct {
	*globalOptions
	host    string
	port    int
	backend string
}

func newServeCommand(global *globalOptions) *cobra.Command {
	if global == nil {
		global = &globalOptions{}
	}
	opts := &serveOptions{globalOptions: global}
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the event proxy HTTP server",
		Long: `Start the event proxy and begin accepting events.

The server will:
- Load configuration from environment variables (or --config file if provided)
- Connect to the configured queue backend
- Accept events on POST /events and POST /api/v1/events
- Handle graceful shutdown on SIGINT/SIGTERM

Examples:
  # Start with default configuration (from env vars)
  mozdef-proxy serve

  # Start on a specific host and port
  mozdef-proxy serve --host 127.0.0.1 --port 9090

  # Log events instead of forwarding them
  mozdef-proxy serve --backend log --log-format console`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return fmt.Errorf("config error: %w", err)
			}
			logger := config.NewLogger(cfg.Logging)

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			ln, err := net.Listen("tcp", net.JoinHostPort(cfg.Server.Host, fmt.Sprint(cfg.Server.Port)))
			if err != nil {
				return fmt.Errorf("listen: %w", err)
			}
			return serve(ctx, cfg, logger, ln)
		},
	}
	cmd.Flags().StringVar(&opts.host, "host", "", "server host address (default: 0.0.0.0)")
	cmd.Flags().IntVar(&opts.port, "port", 0, "server port (default: 8080)")
	cmd.Flags().StringVar(&opts.backend, "backend", "", "queue backend: sqs, kafka, redis, river or log (default: sqs)")
	return cmd
}

// loadConfig reads file and env configuration, then applies flag overrides
// and validates the result.
func (o *serveOptions) loadConfig() (config.Config, error) {
	cfg, err := config.LoadUnvalidated(o.configPath)
	if err != nil {
		return config.Config{}, err
	}

	if o.host != "" {
		cfg.Server.Host = o.host
	}
	if o.port != 0 {
		cfg.Server.Port = o.port
	}
	if o.backend != "" {
		cfg.Queue.Backend = config.NormalizeBackend(o.backend)
	}
	if o.logLevel != "" {
		cfg.Logging.Level = o.logLevel
	}
	if o.logFormat != "" {
		cfg.Logging.Format = o.logFormat
	}

	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

// serve runs the proxy on ln until ctx is done, then drains in-flight
// requests and closes the queue backend.
func serve(ctx context.Context, cfg config.Config, logger zerolog.Logger, ln net.Listener) error {
	logger.Info().
		Str("version", Version).
		Str("backend", cfg.Queue.Backend).
		Str("environment", cfg.Environment).
		Msg("starting mozdef proxy")

	metrics.Init(Version, GitCommit, BuildDate, cfg.Queue.Backend)

	startCtx, cancel := context.WithTimeout(ctx, startupTimeout)
	shutdownTracing, err := telemetry.InitTracing(startCtx, cfg.Tracing, Version)
	if err != nil {
		cancel()
		return fmt.Errorf("tracing: %w", err)
	}
	defer func() {
		flushCtx, flushCancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer flushCancel()
		if err := shutdownTracing(flushCtx); err != nil {
			logger.Error().Err(err).Msg("tracing shutdown error")
		}
	}()

	backend, err := queue.Open(startCtx, cfg.Queue, logger)
	cancel()
	if err != nil {
		return fmt.Errorf("queue backend %s: %w", cfg.Queue.Backend, err)
	}
	defer func() {
		if err := backend.Close(); err != nil {
			logger.Error().Err(err).Msg("queue backend close error")
		}
	}()
	logger.Info().Str("backend", backend.Name()).Str("address", backend.Address()).Msg("queue backend ready")

	if rb, ok := backend.(*queue.River); ok {
		collector := metrics.NewPoolCollector(rb.Pool())
		go collector.Start(ctx, poolStatsEvery)
		defer collector.Stop()
	}

	shared := queue.NewShared[queue.Enqueue[events.OutboundEvent]](queue.New[events.OutboundEvent](backend))
	normalizer := events.NewNormalizer(cfg.Events.Source)

	proxyOpts := []proxy.Option{proxy.WithBackendLabel(backend.Name())}
	failureMessage := cfg.Events.FailureMessage
	if failureMessage == "" && cfg.Queue.Backend == config.BackendLog {
		failureMessage = "Failed to queue event"
	}
	proxyOpts = append(proxyOpts, proxy.WithFailureMessage(failureMessage))

	health := handlers.NewHealthChecker(shared, backend.Name(), Version, GitCommit)
	router, stopRouter := api.NewRouter(cfg, logger, proxy.New(shared, normalizer, proxyOpts...), health)
	defer stopRouter()

	server := &http.Server{
		Handler:           router,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", ln.Addr().String()).Msg("listening")
		serveErr <- server.Serve(ln)
	}()

	select {
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	logger.Info().Msg("shutting down")
	health.SetShuttingDown()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("shutdown error")
		return err
	}

	logger.Info().Msg("server stopped")
	return nil
}
