package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/okian/pylon/internal/adapters/http/api"
	app "github.com/okian/pylon/internal/app"
	"github.com/okian/pylon/internal/config"
	"github.com/okian/pylon/pkg/logger"
)

// HTTP server timeout constants.
const (
	readTimeout            = 10 * time.Second
	writeTimeout           = 10 * time.Second
	idleTimeout            = 60 * time.Second
	readHeaderTimeout      = 5 * time.Second
	shutdownTimeout        = 30 * time.Second
	serviceMetricsInterval = 5 * time.Second
)

func main() {
	// Disable default Go metrics collection to avoid duplicate metrics;
	// the service registers its own on a custom registry.
	prometheus.Unregister(collectors.NewGoCollector())
	prometheus.Unregister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	// Initialize logging
	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		return
	}
	defer func() {
		_ = logger.Sync()
	}()

	log := logger.Get()

	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration (defaults -> optional file -> env)
	cfg, err := config.Load(ctx)
	if err != nil {
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		return
	}

	// Apply configured log level (fallback to info on invalid input)
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	// Create and start the service with configuration options
	svc := app.New(
		app.WithLogger(log),
		app.WithWorkerCount(cfg.WorkerCount),
		app.WithQueueSize(cfg.GameQueueSize),
		app.WithDedupeSize(cfg.DedupeSize),
		app.WithShardCount(cfg.ShardCount),
		app.WithRatingModel(cfg.KFactor, cfg.HomeAdvantage),
		app.WithBaseRating(cfg.BaseRating),
		app.WithGarbageTime(cfg.GarbageTimeThreshold, cfg.GarbageQ4Weight),
		app.WithMOVCurve(cfg.MOVScale, cfg.MOVCap),
		app.WithScoreHeuristic(cfg.BaseScore, cfg.ScoreVariance),
	)
	if err := svc.Start(ctx); err != nil {
		os.Stderr.WriteString("failed to start service: " + err.Error() + "\n")
		return
	}
	defer svc.Stop()

	// Refresh queue and team gauges in the background.
	go startServiceMetricsUpdater(ctx, svc)

	// HTTP mux and routes.
	mux := http.NewServeMux()

	apiServer := api.NewServer(svc, svc, cfg.MaxRankingLimit)
	apiServer.Register(ctx, mux)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	go func() {
		log.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			os.Stderr.WriteString("HTTP server failed: " + err.Error() + "\n")
			return
		}
	}()

	// Wait for shutdown signal
	<-ctx.Done()
	log.Info(ctx, "shutting down server...")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(ctx, "server shutdown failed", logger.Error(err))
	}

	log.Info(ctx, "server stopped")
}

// startServiceMetricsUpdater periodically refreshes service-level gauges.
func startServiceMetricsUpdater(ctx context.Context, svc *app.Service) {
	ticker := time.NewTicker(serviceMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			// GetStats refreshes the queue and team gauges as a side
			// effect.
			_ = svc.GetStats()
		}
	}
}
