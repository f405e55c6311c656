package observability

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsServer serves Prometheus metrics on their own port so scrapes never
// compete with API traffic.
type MetricsServer struct {
	server *http.Server
	logger *slog.Logger
}

// NewMetricsServer serves the default Prometheus gatherer at path on port.
// Without a Prometheus exporter the path answers 404.
func NewMetricsServer(port int, path string, provider *Provider, logger *slog.Logger) *MetricsServer {
	if logger == nil {
		logger = slog.Default()
	}

	mux := http.NewServeMux()
	if provider != nil && provider.promExporter != nil {
		mux.Handle(path, promhttp.HandlerFor(prometheus.DefaultGatherer, promhttp.HandlerOpts{
			ErrorLog:      slog.NewLogLogger(logger.Handler(), slog.LevelWarn),
			ErrorHandling: promhttp.ContinueOnError,
		}))
	}

	return &MetricsServer{
		server: &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		},
		logger: logger,
	}
}

// Handler exposes the mux for in-process scraping.
func (ms *MetricsServer) Handler() http.Handler {
	return ms.server.Handler
}

// Start serves until Shutdown; it returns http.ErrServerClosed on graceful stop.
func (ms *MetricsServer) Start() error {
	ms.logger.Info("Starting metrics server", "addr", ms.server.Addr)
	return ms.server.ListenAndServe()
}

// Shutdown gracefully stops the metrics server.
func (ms *MetricsServer) Shutdown(ctx context.Context) error {
	return ms.server.Shutdown(ctx)
}
