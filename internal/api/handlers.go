package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"tradeops/internal/analysis"
	"tradeops/internal/models"
	"tradeops/internal/ratelimit"
	"tradeops/internal/session"
)

// AuthService registers users and turns credentials into bearer tokens.
type AuthService interface {
	Register(ctx context.Context, username, password string) (string, error)
	Login(ctx context.Context, username, password string) (string, error)
	Authenticate(token string) (string, error)
	TokenTTL() time.Duration
}

// AnalysisService produces and lists sector reports.
type AnalysisService interface {
	Analyze(ctx context.Context, owner, sector string) (*models.AnalyzeResponse, error)
	Reports(ctx context.Context, owner string) (*models.ListReportsResponse, error)
	Report(ctx context.Context, owner, id string) (*models.Report, error)
}

// Admitter is the per-identity session gate.
type Admitter interface {
	Admit(identity string) (session.Decision, ratelimit.Info)
	End(identity string) bool
	ActiveSessions() int
}

// Pinger reports whether a dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handlers contains HTTP handlers for the trade opportunities API
type Handlers struct {
	auth      AuthService
	analysis  AnalysisService
	gate      Admitter
	archive   Pinger
	breaker   func() string
	version   string
	startedAt time.Time
	logger    *slog.Logger
}

// HandlerOption configures optional handler dependencies.
type HandlerOption func(*Handlers)

// WithArchiveHealth reports the report archive in health checks.
func WithArchiveHealth(p Pinger) HandlerOption {
	return func(h *Handlers) { h.archive = p }
}

// WithBreakerState reports the LLM circuit breaker in health checks.
func WithBreakerState(state func() string) HandlerOption {
	return func(h *Handlers) { h.breaker = state }
}

func WithVersion(v string) HandlerOption {
	return func(h *Handlers) { h.version = v }
}

func WithLogger(logger *slog.Logger) HandlerOption {
	return func(h *Handlers) { h.logger = logger }
}

// NewHandlers creates a new handlers instance
func NewHandlers(auth AuthService, analysis AnalysisService, gate Admitter, opts ...HandlerOption) *Handlers {
	h := &Handlers{
		auth:      auth,
		analysis:  analysis,
		gate:      gate,
		version:   "dev",
		startedAt: time.Now(),
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

const healthPingTimeout = 2 * time.Second

// HealthCheck handles health check requests
// GET /health, GET /api/v1/health
func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	response := models.NewHealthCheckResponse(models.StatusHealthy)
	response.Version = h.version
	response.Uptime = time.Since(h.startedAt).Round(time.Second).String()
	response.ActiveSessions = h.gate.ActiveSessions()

	if h.archive != nil {
		ctx, cancel := context.WithTimeout(r.Context(), healthPingTimeout)
		err := h.archive.Ping(ctx)
		cancel()
		if err != nil {
			h.logger.Warn("Report archive health check failed", "error", err)
			response.AddComponent("reports", models.StatusUnhealthy, "Report archive unavailable")
		} else {
			response.AddComponent("reports", models.StatusHealthy, "Report archive is operational")
		}
	}

	if h.breaker != nil {
		state := h.breaker()
		if state == "open" {
			response.AddComponent("llm", models.StatusDegraded, "Circuit breaker open")
		} else {
			response.AddComponent("llm", models.StatusHealthy, "Circuit breaker "+state)
		}
	}

	h.writeJSONResponse(w, http.StatusOK, response)
}

// writeJSONResponse writes a JSON response
func (h *Handlers) writeJSONResponse(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		// Headers are already out; nothing more to send.
		h.logger.Error("Error encoding JSON response", "error", err)
	}
}

// writeErrorResponse writes an error response carrying the request id.
func (h *Handlers) writeErrorResponse(w http.ResponseWriter, r *http.Request, statusCode int, errorCode, message string) {
	errorResp := models.NewErrorResponse(message, errorCode)
	errorResp.RequestID = RequestIDFromContext(r.Context())
	h.writeJSONResponse(w, statusCode, errorResp)
}

// writeServiceError maps analysis errors onto the response; anything else is
// a 500.
func (h *Handlers) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var se *analysis.ServiceError
	if errors.As(err, &se) {
		if se.StatusCode >= http.StatusInternalServerError {
			h.logger.Error("Request failed",
				"path", r.URL.Path,
				"code", se.Code,
				"error", err,
				"request_id", RequestIDFromContext(r.Context()))
		}
		h.writeErrorResponse(w, r, se.StatusCode, se.Code, se.Message)
		return
	}

	h.logger.Error("Unhandled error", "path", r.URL.Path, "error", err)
	h.writeErrorResponse(w, r, http.StatusInternalServerError, models.ErrorCodeInternalError, "Internal server error")
}
