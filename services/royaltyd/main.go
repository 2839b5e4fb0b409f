package royaltyd

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"royaltyhub/config"
	"royaltyhub/core/events"
	"royaltyhub/gateway/middleware"
	"royaltyhub/integrations/webhooks"
	"royaltyhub/native/royalty"
	"royaltyhub/observability"
	"royaltyhub/observability/logging"
	telemetry "royaltyhub/observability/otel"
	"royaltyhub/storage"
)

// startupAttrs summarises the loaded configuration for the startup log line.
// Connection strings and endpoints can embed credentials so they are masked.
func startupAttrs(cfg *config.Config) []any {
	return []any{
		slog.String("storage", cfg.Storage.Driver),
		logging.MaskField("dsn", cfg.Storage.DSN),
		slog.Bool("auth", cfg.Auth.Enabled),
		logging.MaskField("auth_issuer", cfg.Auth.Issuer),
		slog.Bool("webhooks", cfg.Webhooks.URL != ""),
		logging.MaskField("webhook_url", cfg.Webhooks.URL),
	}
}

// Main initialises and runs the royalty marketplace daemon.
func Main() error {
	var cfgPath string
	flag.StringVar(&cfgPath, "config", "royaltyd.toml", "path to royaltyd configuration (.toml or .yaml)")
	flag.Parse()

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, logCloser := logging.SetupWithOptions(logging.Options{
		Service:    cfg.Service,
		Env:        cfg.Env,
		Level:      cfg.Logging.Level,
		File:       cfg.Logging.File,
		MaxSizeMB:  cfg.Logging.MaxSizeMB,
		MaxBackups: cfg.Logging.MaxBackups,
		MaxAgeDays: cfg.Logging.MaxAgeDays,
	})
	defer logCloser.Close()

	shutdownTelemetry, err := telemetry.Init(context.Background(), telemetry.Config{
		ServiceName: cfg.Service,
		Environment: cfg.Env,
		Endpoint:    cfg.Telemetry.Endpoint,
		Insecure:    cfg.Telemetry.Insecure,
		Headers:     telemetry.ParseHeaders(cfg.Telemetry.Headers),
		Traces:      cfg.Telemetry.Traces,
		Metrics:     cfg.Telemetry.Metrics,
		SampleRatio: cfg.Telemetry.SampleRatio,
	})
	if err != nil {
		return fmt.Errorf("init telemetry: %w", err)
	}
	defer func() { _ = shutdownTelemetry(context.Background()) }()

	logger.Info("royaltyd configured", startupAttrs(cfg)...)

	db, err := storage.Open(cfg.Storage.Driver, cfg.Storage.DSN)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer db.Close()

	broadcaster := events.NewBroadcaster(cfg.Events.Buffer)
	emitter := events.MultiEmitter{broadcaster, observability.EventCounter{}}
	if cfg.Webhooks.URL != "" {
		dispatcher, err := webhooks.NewDispatcher(cfg.Webhooks.URL, []byte(cfg.Webhooks.Secret),
			webhooks.WithTypes(cfg.Webhooks.Types...),
			webhooks.WithRetryPolicy(cfg.Webhooks.MaxAttempts, 0, 0),
			webhooks.WithLogger(logger.With("component", "webhooks")),
		)
		if err != nil {
			return fmt.Errorf("webhooks: %w", err)
		}
		defer dispatcher.Close()
		emitter = append(emitter, dispatcher)
	}

	engine := royalty.NewEngine()
	engine.SetStore(storage.Instrument(db, cfg.Storage.Driver))
	engine.SetLogger(logger.With("component", "royalty"))
	engine.SetMetrics(observability.Marketplace())
	engine.SetEmitter(emitter)

	if err := bootstrapPlatform(context.Background(), engine, cfg.Platform, logger); err != nil {
		return err
	}

	server := NewServer(Options{
		Engine: engine,
		Events: broadcaster,
		Auth: middleware.AuthConfig{
			Enabled:    cfg.Auth.Enabled,
			HMACSecret: cfg.Auth.HMACSecret,
			Issuer:     cfg.Auth.Issuer,
			Audience:   cfg.Auth.Audience,
			ClockSkew:  cfg.Auth.ClockSkew.Duration,
		},
		RateLimit: middleware.RateLimit{
			RequestsPerMinute: cfg.RateLimit.RequestsPerMinute,
			Burst:             cfg.RateLimit.Burst,
		},
		Observability: middleware.NewObservability(middleware.ObservabilityConfig{
			ServiceName: cfg.Service,
			LogRequests: true,
		}, logger),
		Logger: logger,
	})

	httpServer := &http.Server{
		Addr:         cfg.Server.Listen,
		Handler:      otelhttp.NewHandler(server.Handler(), cfg.Service),
		ReadTimeout:  cfg.Server.ReadTimeout.Duration,
		WriteTimeout: cfg.Server.WriteTimeout.Duration,
		IdleTimeout:  cfg.Server.IdleTimeout.Duration,
	}

	stopCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errs := make(chan error, 1)
	go func() {
		logger.Info("royaltyd listening", "address", cfg.Server.Listen, "storage", cfg.Storage.Driver)
		errs <- httpServer.ListenAndServe()
	}()

	select {
	case <-stopCtx.Done():
		logger.Info("royaltyd shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout.Duration)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			_ = httpServer.Close()
			return err
		}
		return nil
	case err := <-errs:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

// bootstrapPlatform initialises the platform from configuration on first
// start. An already initialised platform is left untouched.
func bootstrapPlatform(ctx context.Context, engine *royalty.Engine, platform config.Platform, logger *slog.Logger) error {
	authority, treasury, ok, err := platform.Bootstrap()
	if err != nil {
		return fmt.Errorf("platform bootstrap: %w", err)
	}
	if !ok {
		return nil
	}
	_, err = engine.Initialize(ctx, authority, treasury, platform.PlatformFeeBps)
	switch {
	case errors.Is(err, royalty.ErrAlreadyInitialized):
		logger.Info("platform already initialized")
		return nil
	case err != nil:
		return fmt.Errorf("initialize platform: %w", err)
	}
	return nil
}

// Run is the process entry point used by cmd/royaltyd.
func Run() {
	if err := Main(); err != nil {
		slog.Error("royaltyd exited", "error", err)
		os.Exit(1)
	}
}
