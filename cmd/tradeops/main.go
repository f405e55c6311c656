package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"tradeops/internal/analysis"
	"tradeops/internal/api"
	"tradeops/internal/auth"
	"tradeops/internal/collector"
	"tradeops/internal/config"
	"tradeops/internal/llm"
	"tradeops/internal/logger"
	"tradeops/internal/models"
	"tradeops/internal/observability"
	"tradeops/internal/ratelimit"
	"tradeops/internal/session"
	"tradeops/internal/storage"
	"tradeops/internal/version"
)

var (
	configFile   = flag.String("config", "", "Path to configuration file")
	writeExample = flag.String("write-example-config", "", "Write an example configuration file and exit")
	printVersion = flag.Bool("version", false, "Print version information and exit")
)

func main() {
	flag.Parse()

	ver := version.GetInfo()
	if *printVersion {
		fmt.Println(ver.String())
		return
	}

	if *writeExample != "" {
		if err := config.SaveExample(*writeExample); err != nil {
			slog.Error("Failed to write example configuration", "error", err)
			os.Exit(1)
		}
		return
	}

	// Load configuration
	cfg, err := config.Load(*configFile)
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Initialize structured logging
	log, closer, err := logger.Setup(cfg.Logging, ver)
	if err != nil {
		slog.Error("Failed to initialize logger", "error", err)
		os.Exit(1)
	}
	if closer != nil {
		defer closer.Close()
	}
	slog.SetDefault(log)

	// Initialize observability (OpenTelemetry)
	otelProvider, err := observability.Setup(cfg.Metrics, cfg.Observability, ver, log)
	if err != nil {
		slog.Error("Failed to initialize observability", "error", err)
		os.Exit(1)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := otelProvider.Shutdown(shutdownCtx); err != nil {
			slog.Error("Failed to shutdown observability", "error", err)
		}
	}()

	// Report archive
	reportStore, err := storage.NewFactory().Create(cfg.Reports)
	if err != nil {
		slog.Error("Failed to initialize report archive", "error", err)
		os.Exit(1)
	}
	defer reportStore.Close()

	var activeReports storage.ReportStore = reportStore
	if cfg.Metrics.Enabled || otelProvider.TracingEnabled() {
		instrumented, err := observability.NewInstrumentedReportStore(reportStore, nil, nil)
		if err != nil {
			slog.Error("Failed to create instrumented report archive", "error", err)
			os.Exit(1)
		}
		activeReports = instrumented
	}

	// Sessions
	directory, err := session.NewDirectory(session.PolicyFromConfig(cfg.Session), session.SystemClock{})
	if err != nil {
		slog.Error("Invalid session policy", "error", err)
		os.Exit(1)
	}
	var gate api.Admitter = session.NewGate(directory, log)
	if cfg.Metrics.Enabled {
		instrumented, err := observability.NewInstrumentedGate(gate, nil)
		if err != nil {
			slog.Error("Failed to create instrumented session gate", "error", err)
			os.Exit(1)
		}
		gate = instrumented
	}

	rootCtx, stopBackground := context.WithCancel(context.Background())
	defer stopBackground()
	go session.NewSweeper(directory, cfg.Session.SweepInterval, log).Run(rootCtx)

	// Authentication
	authService := auth.NewService(
		auth.NewMemoryUserStore(),
		auth.NewBcryptHasher(cfg.Security.BcryptCost),
		auth.NewTokenIssuer(cfg.Security.JWTSecret, cfg.Security.TokenTTL, cfg.Security.Issuer),
		log,
	)

	// Report generation
	generator, err := llm.New(cfg.LLM, log)
	if err != nil {
		slog.Error("Failed to initialize report generator", "error", err)
		os.Exit(1)
	}
	if cfg.LLM.APIKey == "" && cfg.LLM.Provider == models.LLMProviderGemini {
		slog.Warn("No LLM API key configured; analysis requests will fail until one is set")
	}

	analysisService := analysis.NewService(
		collector.New(cfg.Collector, log),
		collector.Query,
		generator,
		activeReports,
		cfg.Collector.MaxSnippets,
		log,
	)

	handlers := api.NewHandlers(authService, analysisService, gate,
		api.WithArchiveHealth(activeReports),
		api.WithBreakerState(generator.BreakerState),
		api.WithVersion(ver.Canonical()),
		api.WithLogger(log),
	)

	// Setup routes with middleware
	routeOpts := []api.RouteOption{}
	if otelProvider.TracingEnabled() {
		routeOpts = append(routeOpts, api.WithOTelMiddleware(cfg.Observability.ServiceName))
	}

	if cfg.Security.AuthRateLimit.Enabled {
		rl := cfg.Security.AuthRateLimit
		authLimiter := ratelimit.NewMemoryLimiter(rl.RequestsPerMinute, rl.BurstSize, rl.CleanupInterval)
		defer authLimiter.Close()
		routeOpts = append(routeOpts, api.WithAuthRateLimiter(ratelimit.Middleware(authLimiter)))
	}

	router := api.SetupRoutes(handlers, cfg, routeOpts...)

	// Start metrics server if enabled
	var metricsServer *observability.MetricsServer
	if cfg.Metrics.Enabled {
		metricsServer = observability.NewMetricsServer(cfg.Metrics.Port, cfg.Metrics.Path, otelProvider, log)
		go func() {
			if err := metricsServer.Start(); err != nil && err != http.ErrServerClosed {
				slog.Error("Metrics server failed", "error", err)
			}
		}()
	}

	// Create HTTP server
	server := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:           router,
		ReadTimeout:       cfg.Server.ReadTimeout,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
	}

	// Start server in a goroutine
	go func() {
		slog.Info("Starting server",
			"addr", server.Addr,
			"version", ver.Canonical(),
			"llm_provider", cfg.LLM.Provider,
			"llm_model", generator.Model(),
			"reports", cfg.Reports.Type)

		var err error
		if cfg.Server.TLSEnabled {
			if cfg.Server.TLSCertFile == "" || cfg.Server.TLSKeyFile == "" {
				slog.Error("TLS is enabled but cert file or key file is not specified")
				os.Exit(1)
			}
			slog.Info("Starting HTTPS server with TLS")
			err = server.ListenAndServeTLS(cfg.Server.TLSCertFile, cfg.Server.TLSKeyFile)
		} else {
			slog.Info("Starting HTTP server")
			err = server.ListenAndServe()
		}

		if err != nil && err != http.ErrServerClosed {
			slog.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("Shutting down server")
	stopBackground()

	// Create a deadline to wait for shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Shutdown metrics server
	if metricsServer != nil {
		if err := metricsServer.Shutdown(ctx); err != nil {
			slog.Error("Metrics server forced to shutdown", "error", err)
		}
	}

	// Attempt graceful shutdown
	if err := server.Shutdown(ctx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
	}

	slog.Info("Server shutdown complete", "active_sessions", gate.ActiveSessions())
}
