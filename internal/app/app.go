// Package app wires configuration, storage, the LLM providers and the
// resolver into the HTTP service and manages its lifecycle.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/campusnav/campus-navigator-go/internal/buildinfo"
	"github.com/campusnav/campus-navigator-go/internal/cache"
	"github.com/campusnav/campus-navigator-go/internal/config"
	"github.com/campusnav/campus-navigator-go/internal/logger"
	"github.com/campusnav/campus-navigator-go/internal/metrics"
	"github.com/campusnav/campus-navigator-go/internal/ratelimit"
	"github.com/campusnav/campus-navigator-go/internal/resolver"
	"github.com/campusnav/campus-navigator-go/internal/sentry"
	"github.com/campusnav/campus-navigator-go/internal/snapshot"
	"github.com/campusnav/campus-navigator-go/internal/storage"
	"github.com/campusnav/campus-navigator-go/internal/warmup"
)

// QueryResolver answers one campus query.
type QueryResolver interface {
	Resolve(ctx context.Context, query string) resolver.Result
}

// Application owns every long-lived dependency of the server.
type Application struct {
	cfg       *config.Config
	logger    *logger.Logger
	db        *storage.HotSwapDB
	metrics   *metrics.Metrics
	registry  *prometheus.Registry
	store     *resolver.Store
	resolver  QueryResolver
	loader    *warmup.Loader
	readiness *warmup.Readiness
	snapshots *snapshot.Manager // nil when R2 is disabled
	cache     cache.Client
	limiter   *ratelimit.KeyedLimiter
	server    *http.Server
	wg        sync.WaitGroup
}

// Initialize builds the application and loads the first dataset.
func Initialize(ctx context.Context, cfg *config.Config) (*Application, error) {
	log := logger.NewWithOptions(cfg.Server.LogLevel, os.Stdout, logger.Options{
		BetterStackToken:    cfg.BetterStack.Token,
		BetterStackEndpoint: cfg.BetterStack.Endpoint,
	})
	log = log.WithField("service", cfg.Server.ServiceName)
	if host, err := os.Hostname(); err == nil && host != "" {
		log = log.WithField("instance_id", host)
	}
	slog.SetDefault(log.Logger)

	log.WithField("version", buildinfo.Release()).Info("Initializing application...")

	if err := sentry.Init(sentry.Config{
		Token:       cfg.Sentry.Token,
		Host:        cfg.Sentry.Host,
		Environment: cfg.Sentry.Environment,
		Release:     buildinfo.Release(),
		SampleRate:  cfg.Sentry.SampleRate,
	}); err != nil {
		log.WithError(err).Warn("Error tracking disabled")
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewBuildInfoCollector(),
	)
	m := metrics.New(registry)

	a := &Application{
		cfg:       cfg,
		logger:    log,
		metrics:   m,
		registry:  registry,
		store:     resolver.NewStore(nil),
		readiness: warmup.NewReadiness(),
	}
	a.loader = warmup.NewLoader(a.store, a.readiness, m, log)

	a.cache = newCache(ctx, cfg, log)
	providers, err := newProviders(ctx, cfg, a.cache, m, log)
	if err != nil {
		a.closeResources()
		return nil, err
	}

	res, err := resolver.New(resolverConfig(cfg), a.store, providers.embedder, providers.generator,
		resolver.WithSemanticClassifier(providers.classifier),
		resolver.WithMetrics(m),
		resolver.WithLogger(log.WithModule("resolver").Logger))
	if err != nil {
		a.closeResources()
		return nil, fmt.Errorf("resolver: %w", err)
	}
	a.resolver = res

	if err := a.openDataset(ctx); err != nil {
		a.closeResources()
		return nil, err
	}

	a.limiter = ratelimit.NewKeyedLimiter(ratelimit.KeyedConfig{
		Name:          "client",
		Burst:         cfg.RateLimit.ClientBurst,
		RefillRate:    cfg.RateLimit.ClientRefill,
		DailyLimit:    cfg.RateLimit.ClientDaily,
		CleanupPeriod: config.RateLimiterCleanupInterval,
		Metrics:       m,
	})

	gin.SetMode(gin.ReleaseMode)
	a.server = &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           a.router(),
		ReadHeaderTimeout: config.HTTPRead,
		ReadTimeout:       config.HTTPRead,
		WriteTimeout:      config.HTTPWrite,
		IdleTimeout:       config.HTTPIdle,
	}

	log.Info("Initialization complete")
	return a, nil
}

func resolverConfig(cfg *config.Config) resolver.Config {
	rc := resolver.DefaultConfig()
	rc.CampusName = cfg.Resolver.CampusName
	rc.TopK = cfg.Resolver.TopK
	rc.EmbedTimeout = cfg.Resolver.EmbedTimeout
	rc.GenerateTimeout = cfg.Resolver.GenerateTimeout
	rc.ClassifyTimeout = cfg.Resolver.ClassifyTimeout
	return rc
}

// Run serves HTTP until SIGINT or SIGTERM, then shuts down gracefully.
func (a *Application) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a.startBackgroundJobs(ctx)

	serveErr := make(chan error, 1)
	go func() {
		a.logger.WithField("port", a.cfg.Server.Port).Info("Starting HTTP server")
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	var runErr error
	select {
	case sig := <-quit:
		a.logger.WithField("signal", sig.String()).Info("Received shutdown signal")
	case runErr = <-serveErr:
		a.logger.WithError(runErr).Error("HTTP server error")
	}

	// Background jobs stop before the database closes under them.
	cancel()
	start := time.Now()
	a.wg.Wait()
	a.logger.WithField("duration_ms", time.Since(start).Milliseconds()).Info("Background jobs stopped")

	a.shutdown()
	return runErr
}

func (a *Application) shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
	defer cancel()

	a.logger.Info("Stopping HTTP server...")
	if err := a.server.Shutdown(ctx); err != nil {
		a.logger.WithError(err).Error("HTTP server shutdown error")
	}

	a.closeResources()
	sentry.Flush(2 * time.Second)

	a.logger.Info("Shutdown complete")
	if err := a.logger.Shutdown(ctx); err != nil {
		slog.Warn("Logger shutdown timed out", "error", err)
	}
}

func (a *Application) closeResources() {
	if a.limiter != nil {
		a.limiter.Stop()
	}
	if a.cache != nil {
		if err := a.cache.Close(); err != nil {
			a.logger.WithError(err).WithField("component", "cache").Error("Component close error")
		}
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.logger.WithError(err).WithField("component", "database").Error("Component close error")
		}
	}
}
