package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"pixelpeek/internal/batch"
	"pixelpeek/internal/database"
	"pixelpeek/internal/fetcher"
	"pixelpeek/internal/handlers"
	"pixelpeek/internal/logging"
	"pixelpeek/internal/memory"
	"pixelpeek/internal/metrics"
	"pixelpeek/internal/middleware"
	"pixelpeek/internal/startup"
	"pixelpeek/internal/workers"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	shutdownTimeout         = 30 * time.Second
	metricsCollectInterval  = time.Minute
	serverReadHeaderTimeout = 15 * time.Second
)

// serveCommand runs the HTTP API until ctx is canceled.
func (c *cli) serveCommand(ctx context.Context, args []string) int {
	startTime := time.Now()

	cfg, _, _, err := c.parseConfig("serve", args)
	if err != nil {
		return c.usageExit(err)
	}

	startup.LogStartup(c.stderr)
	startup.LogConfig(cfg)

	metrics.InitializeMetrics()
	fetcher.SetObserver(metrics.NewFetchObserver())
	defer fetcher.SetObserver(nil)

	opts := batch.Options{
		MaxConcurrent: workers.Resolve(cfg.MaxConcurrent),
		BatchTimeout:  cfg.BatchTimeout,
		Fetch:         cfg.FetchConfig(),
	}

	var (
		db        *database.Database
		history   handlers.HistoryReader
		collector *metrics.Collector
	)
	if cfg.HistoryEnabled() {
		db, err = openHistory(ctx, cfg.DatabasePath)
		if err != nil {
			fmt.Fprintf(c.stderr, "Error: %v\n", err)
			return exitFailure
		}
		opts.History = db
		history = db

		collector = metrics.NewCollector(db, metricsCollectInterval)
		collector.Start()
	}

	monitor := memory.NewMonitor(memory.DefaultConfig())
	monitor.Start()

	runner := batch.NewRunner(opts)
	h := handlers.New(runner, history, monitor)
	router := setupRouter(h, cfg.MetricsEnabled)
	startup.LogHTTPRoutes(router, cfg.LogHealthChecks)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           wrapHandler(router, cfg),
		ReadHeaderTimeout: serverReadHeaderTimeout,
		// batches stream for as long as they take
		WriteTimeout: 0,
		IdleTimeout:  60 * time.Second,
		BaseContext:  func(net.Listener) context.Context { return ctx },
	}

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- srv.ListenAndServe()
	}()

	startup.LogServerStarted(startup.ServerConfig{
		Port:            cfg.Port,
		MetricsEnabled:  cfg.MetricsEnabled,
		StartupDuration: time.Since(startTime),
	})

	code := exitOK
	select {
	case err := <-serveErr:
		if !errors.Is(err, http.ErrServerClosed) {
			logging.Error("Server error: %v", err)
			code = exitFailure
		}
	case <-ctx.Done():
		startup.LogShutdownInitiated("interrupt")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logging.Warn("Server shutdown error: %v", err)
		} else {
			startup.LogShutdownStepComplete("HTTP server stopped")
		}
	}

	if collector != nil {
		collector.Stop()
		startup.LogShutdownStepComplete("Metrics collector stopped")
	}
	monitor.Stop()
	startup.LogShutdownStepComplete("Memory monitor stopped")
	if db != nil {
		if err := db.Close(); err != nil {
			logging.Warn("Failed to close history database: %v", err)
		} else {
			startup.LogShutdownStepComplete("History database closed")
		}
	}
	startup.LogShutdownComplete()

	return code
}

func setupRouter(h *handlers.Handlers, metricsEnabled bool) *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/health", h.HealthCheck).Methods("GET")
	r.HandleFunc("/healthz", h.HealthCheck).Methods("GET")
	r.HandleFunc("/livez", h.LivenessCheck).Methods("GET")
	r.HandleFunc("/readyz", h.ReadinessCheck).Methods("GET")
	r.HandleFunc("/version", h.GetVersion).Methods("GET")

	if metricsEnabled {
		r.Handle("/metrics", promhttp.Handler()).Methods("GET")
	}

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/batches", h.CreateBatch).Methods("POST")
	api.HandleFunc("/batches", h.ListBatches).Methods("GET")
	api.HandleFunc("/batches/{id}", h.GetBatch).Methods("GET")
	api.HandleFunc("/batches/{id}/csv", h.GetBatchCSV).Methods("GET")

	return r
}

// wrapHandler applies the middleware chain. Metrics sits innermost so the
// route template is available to it.
func wrapHandler(router *mux.Router, cfg *startup.Config) http.Handler {
	if cfg.MetricsEnabled {
		router.Use(middleware.Metrics(middleware.DefaultMetricsConfig()))
	}

	loggingConfig := middleware.DefaultLoggingConfig()
	loggingConfig.LogHealthChecks = cfg.LogHealthChecks

	return middleware.Recover(middleware.Logger(loggingConfig)(router))
}
