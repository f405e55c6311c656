package api

import (
	"net/http"

	"github.com/gorilla/mux"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gorilla/mux/otelmux"

	"tradeops/internal/models"
)

type routeSettings struct {
	middleware  []mux.MiddlewareFunc
	authLimiter mux.MiddlewareFunc
}

// RouteOption configures optional route behavior.
type RouteOption func(*routeSettings)

// WithOTelMiddleware adds OpenTelemetry HTTP instrumentation middleware.
func WithOTelMiddleware(serviceName string) RouteOption {
	return func(s *routeSettings) {
		s.middleware = append(s.middleware, otelmux.Middleware(serviceName,
			otelmux.WithFilter(func(r *http.Request) bool {
				return r.URL.Path != "/health" &&
					r.URL.Path != "/api/v1/health" &&
					r.URL.Path != "/api/v1/openapi.yaml" &&
					r.URL.Path != "/api/v1/docs"
			}),
		))
	}
}

// WithAuthRateLimiter throttles the register and token endpoints.
func WithAuthRateLimiter(middleware func(http.Handler) http.Handler) RouteOption {
	return func(s *routeSettings) {
		s.authLimiter = middleware
	}
}

// SetupRoutes configures the HTTP routes for the API
func SetupRoutes(handlers *Handlers, config *models.Config, opts ...RouteOption) *mux.Router {
	settings := &routeSettings{}
	for _, opt := range opts {
		opt(settings)
	}

	router := mux.NewRouter()
	for _, mw := range settings.middleware {
		router.Use(mw)
	}
	router.Use(requestIDMiddleware)
	router.Use(loggingMiddleware(handlers.logger))
	router.Use(recoveryMiddleware(handlers.logger))
	if config.Server.CORS.Enabled {
		router.Use(corsMiddleware(config.Server.CORS))
	}

	methodNotAllowed := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, r, http.StatusMethodNotAllowed, models.ErrorCodeInvalidRequest, "Method not allowed")
	})

	api := router.PathPrefix("/api/v1").Subrouter()
	api.MethodNotAllowedHandler = methodNotAllowed

	// Preflight for any API path. Registered ahead of the real routes so it
	// never clears a method mismatch; the plain matcher keeps unknown paths
	// at 404.
	api.PathPrefix("").MatcherFunc(func(r *http.Request, _ *mux.RouteMatch) bool {
		return r.Method == http.MethodOptions
	}).HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	publicAuth := api.PathPrefix("/auth").Subrouter()
	if settings.authLimiter != nil {
		publicAuth.Use(settings.authLimiter)
	}
	publicAuth.MethodNotAllowedHandler = methodNotAllowed
	publicAuth.HandleFunc("/register", handlers.Register).Methods("POST")
	publicAuth.HandleFunc("/token", handlers.Token).Methods("POST")

	protected := api.NewRoute().Subrouter()
	protected.Use(authMiddleware(handlers.auth, handlers.logger))
	protected.MethodNotAllowedHandler = methodNotAllowed
	protected.HandleFunc("/auth/logout", handlers.Logout).Methods("POST")
	protected.HandleFunc("/analyze/{sector}", handlers.Analyze).Methods("GET")
	protected.HandleFunc("/reports", handlers.ListReports).Methods("GET")
	protected.HandleFunc("/reports/{id}", handlers.GetReport).Methods("GET")

	api.HandleFunc("/openapi.yaml", handlers.ServeOpenAPISpec).Methods("GET")
	api.HandleFunc("/docs", handlers.ServeSwaggerUI).Methods("GET")
	api.HandleFunc("/health", handlers.HealthCheck).Methods("GET")

	router.HandleFunc("/health", handlers.HealthCheck).Methods("GET")
	router.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/api/v1/docs", http.StatusTemporaryRedirect)
	}).Methods("GET")

	router.MethodNotAllowedHandler = methodNotAllowed
	router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, r, http.StatusNotFound, models.ErrorCodeNotFound, "Not found")
	})

	return router
}
