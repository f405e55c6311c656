// Package models - Service configuration and operational settings.
// This file defines the configuration structures for every service component.
//
// Configuration Philosophy:
// - Hierarchical configuration with logical grouping (server, security, session, etc.)
// - Defaults that work out of the box for local development
// - Validation at startup so misconfiguration fails fast instead of at request time
// - Token lifetime and session lifetime are configured independently
package models

import (
	"errors"
	"fmt"
	"slices"
	"time"
)

// Report archive type constants
const (
	ReportStoreFile     = "file"
	ReportStoreMemory   = "memory"
	ReportStorePostgres = "postgres"
	ReportStoreSQLite   = "sqlite"
)

// LLM provider constants
const (
	LLMProviderGemini = "gemini"
	LLMProviderOllama = "ollama"
)

// Config is the root configuration structure containing all service settings.
//
// Configuration Structure:
// - Server: HTTP server and network settings
// - Security: JWT signing, password hashing, auth endpoint throttling
// - Session: per-user session lifetime and token bucket quota
// - Collector: web snippet collection
// - LLM: report generation backend
// - Reports: report archive backend
// - Logging, Metrics, Observability: operational concerns
type Config struct {
	Server        ServerConfig        `yaml:"server" json:"server"`
	Security      SecurityConfig      `yaml:"security" json:"security"`
	Session       SessionConfig       `yaml:"session" json:"session"`
	Collector     CollectorConfig     `yaml:"collector" json:"collector"`
	LLM           LLMConfig           `yaml:"llm" json:"llm"`
	Reports       ReportsConfig       `yaml:"reports" json:"reports"`
	Logging       LoggingConfig       `yaml:"logging" json:"logging"`
	Metrics       MetricsConfig       `yaml:"metrics" json:"metrics"`
	Observability ObservabilityConfig `yaml:"observability" json:"observability"`
}

type ServerConfig struct {
	Port         int           `yaml:"port" json:"port"`
	Host         string        `yaml:"host" json:"host"`
	ReadTimeout  time.Duration `yaml:"read_timeout" json:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout" json:"write_timeout"`
	IdleTimeout  time.Duration `yaml:"idle_timeout" json:"idle_timeout"`
	TLSEnabled   bool          `yaml:"tls_enabled" json:"tls_enabled"`
	TLSCertFile  string        `yaml:"tls_cert_file" json:"tls_cert_file"`
	TLSKeyFile   string        `yaml:"tls_key_file" json:"tls_key_file"`
	CORS         CORSConfig    `yaml:"cors" json:"cors"`
}

type CORSConfig struct {
	Enabled        bool     `yaml:"enabled" json:"enabled"`
	AllowedOrigins []string `yaml:"allowed_origins" json:"allowed_origins"`
	AllowedMethods []string `yaml:"allowed_methods" json:"allowed_methods"`
	AllowedHeaders []string `yaml:"allowed_headers" json:"allowed_headers"`
	MaxAge         int      `yaml:"max_age" json:"max_age"`
}

// SecurityConfig covers credential handling. JWTSecret has no default and must
// be supplied by the operator.
type SecurityConfig struct {
	JWTSecret     string          `yaml:"jwt_secret" json:"-"`
	TokenTTL      time.Duration   `yaml:"token_ttl" json:"token_ttl"`
	Issuer        string          `yaml:"issuer" json:"issuer"`
	BcryptCost    int             `yaml:"bcrypt_cost" json:"bcrypt_cost"`
	AuthRateLimit RateLimitConfig `yaml:"auth_rate_limit" json:"auth_rate_limit"`
}

// RateLimitConfig throttles unauthenticated endpoints by client IP.
type RateLimitConfig struct {
	Enabled           bool          `yaml:"enabled" json:"enabled"`
	RequestsPerMinute int           `yaml:"requests_per_minute" json:"requests_per_minute"`
	BurstSize         int           `yaml:"burst_size" json:"burst_size"`
	CleanupInterval   time.Duration `yaml:"cleanup_interval" json:"cleanup_interval"`
}

// SessionConfig defines the server-side session that carries each user's
// request quota. TTL is independent of Security.TokenTTL.
type SessionConfig struct {
	TTL               time.Duration `yaml:"ttl" json:"ttl"`
	RateLimitCapacity int           `yaml:"rate_limit_capacity" json:"rate_limit_capacity"`
	RateLimitRefill   time.Duration `yaml:"rate_limit_refill" json:"rate_limit_refill"`
	SweepInterval     time.Duration `yaml:"sweep_interval" json:"sweep_interval"`
}

type CollectorConfig struct {
	SearchURL   string        `yaml:"search_url" json:"search_url"`
	Timeout     time.Duration `yaml:"timeout" json:"timeout"`
	MaxSnippets int           `yaml:"max_snippets" json:"max_snippets"`
	UserAgent   string        `yaml:"user_agent" json:"user_agent"`
}

type LLMConfig struct {
	Provider   string        `yaml:"provider" json:"provider"`
	APIKey     string        `yaml:"api_key" json:"-"`
	Model      string        `yaml:"model" json:"model"`
	BaseURL    string        `yaml:"base_url" json:"base_url"`
	Timeout    time.Duration `yaml:"timeout" json:"timeout"`
	MaxRetries int           `yaml:"max_retries" json:"max_retries"`
	Breaker    BreakerConfig `yaml:"breaker" json:"breaker"`
}

type BreakerConfig struct {
	MaxRequests  uint32        `yaml:"max_requests" json:"max_requests"`
	Interval     time.Duration `yaml:"interval" json:"interval"`
	Timeout      time.Duration `yaml:"timeout" json:"timeout"`
	FailureRatio float64       `yaml:"failure_ratio" json:"failure_ratio"`
	MinRequests  uint32        `yaml:"min_requests" json:"min_requests"`
}

type ReportsConfig struct {
	Type string `yaml:"type" json:"type"`
	Path string `yaml:"path" json:"path"`
	DSN  string `yaml:"dsn" json:"-"`
}

type LoggingConfig struct {
	Level    string `yaml:"level" json:"level"`
	Format   string `yaml:"format" json:"format"`
	Output   string `yaml:"output" json:"output"`
	FilePath string `yaml:"file_path" json:"file_path"`
}

type MetricsConfig struct {
	Enabled bool   `yaml:"enabled" json:"enabled"`
	Path    string `yaml:"path" json:"path"`
	Port    int    `yaml:"port" json:"port"`
}

type ObservabilityConfig struct {
	ServiceName string        `yaml:"service_name" json:"service_name"`
	Tracing     TracingConfig `yaml:"tracing" json:"tracing"`
}

type TracingConfig struct {
	Enabled      bool    `yaml:"enabled" json:"enabled"`
	Exporter     string  `yaml:"exporter" json:"exporter"`
	OTLPEndpoint string  `yaml:"otlp_endpoint" json:"otlp_endpoint"`
	SampleRate   float64 `yaml:"sample_rate" json:"sample_rate"`
}

// NewDefaultConfig creates a configuration with development-friendly defaults.
//
// Default Values:
// - 5 analysis requests per 60 seconds per user
// - 60 minute token lifetime and 60 minute session lifetime
// - Reports archived as markdown files under ./reports
// - Gemini as the report generator (API key supplied via environment)
func NewDefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:         8080,
			Host:         "0.0.0.0",
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 120 * time.Second,
			IdleTimeout:  60 * time.Second,
			CORS: CORSConfig{
				Enabled:        true,
				AllowedOrigins: []string{"*"},
				AllowedMethods: []string{"GET", "POST", "OPTIONS"},
				AllowedHeaders: []string{"Authorization", "Content-Type"},
				MaxAge:         86400,
			},
		},
		Security: SecurityConfig{
			TokenTTL:   60 * time.Minute,
			Issuer:     "tradeops",
			BcryptCost: 12,
			AuthRateLimit: RateLimitConfig{
				Enabled:           true,
				RequestsPerMinute: 30,
				BurstSize:         10,
				CleanupInterval:   5 * time.Minute,
			},
		},
		Session: SessionConfig{
			TTL:               60 * time.Minute,
			RateLimitCapacity: 5,
			RateLimitRefill:   60 * time.Second,
			SweepInterval:     5 * time.Minute,
		},
		Collector: CollectorConfig{
			SearchURL:   "https://duckduckgo.com/html/",
			Timeout:     20 * time.Second,
			MaxSnippets: 6,
			UserAgent:   "Mozilla/5.0 (compatible; tradeops/1.0)",
		},
		LLM: LLMConfig{
			Provider:   LLMProviderGemini,
			Model:      "gemini-2.0-flash-exp",
			BaseURL:    "https://generativelanguage.googleapis.com/v1beta",
			Timeout:    90 * time.Second,
			MaxRetries: 3,
			Breaker: BreakerConfig{
				MaxRequests:  1,
				Interval:     60 * time.Second,
				Timeout:      30 * time.Second,
				FailureRatio: 0.6,
				MinRequests:  3,
			},
		},
		Reports: ReportsConfig{
			Type: ReportStoreFile,
			Path: "./reports",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Path:    "/metrics",
			Port:    9090,
		},
		Observability: ObservabilityConfig{
			ServiceName: "tradeops",
			Tracing: TracingConfig{
				Enabled:    false,
				Exporter:   "stdout",
				SampleRate: 1.0,
			},
		},
	}
}

func (c *Config) Validate() error {
	if err := c.Server.Validate(); err != nil {
		return fmt.Errorf("invalid server config: %w", err)
	}

	if err := c.Security.Validate(); err != nil {
		return fmt.Errorf("invalid security config: %w", err)
	}

	if err := c.Session.Validate(); err != nil {
		return fmt.Errorf("invalid session config: %w", err)
	}

	if err := c.Collector.Validate(); err != nil {
		return fmt.Errorf("invalid collector config: %w", err)
	}

	if err := c.LLM.Validate(); err != nil {
		return fmt.Errorf("invalid llm config: %w", err)
	}

	if err := c.Reports.Validate(); err != nil {
		return fmt.Errorf("invalid reports config: %w", err)
	}

	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("invalid logging config: %w", err)
	}

	if err := c.Metrics.Validate(); err != nil {
		return fmt.Errorf("invalid metrics config: %w", err)
	}

	if err := c.Observability.Validate(); err != nil {
		return fmt.Errorf("invalid observability config: %w", err)
	}

	return nil
}

func (sc *ServerConfig) Validate() error {
	if sc.Port <= 0 || sc.Port > 65535 {
		return errors.New("port must be between 1 and 65535")
	}

	if sc.Host == "" {
		return errors.New("host cannot be empty")
	}

	if sc.ReadTimeout < 0 || sc.WriteTimeout < 0 || sc.IdleTimeout < 0 {
		return errors.New("timeouts cannot be negative")
	}

	if sc.TLSEnabled {
		if sc.TLSCertFile == "" {
			return errors.New("TLS cert file is required when TLS is enabled")
		}
		if sc.TLSKeyFile == "" {
			return errors.New("TLS key file is required when TLS is enabled")
		}
	}

	return nil
}

func (sec *SecurityConfig) Validate() error {
	if sec.JWTSecret == "" {
		return errors.New("jwt secret is required (set TRADEOPS_JWT_SECRET or SECRET_KEY)")
	}

	if sec.TokenTTL <= 0 {
		return errors.New("token ttl must be positive")
	}

	if sec.BcryptCost < 4 || sec.BcryptCost > 31 {
		return errors.New("bcrypt cost must be between 4 and 31")
	}

	if sec.AuthRateLimit.Enabled {
		if sec.AuthRateLimit.RequestsPerMinute <= 0 {
			return errors.New("auth rate limit requests per minute must be positive")
		}
		if sec.AuthRateLimit.BurstSize <= 0 {
			return errors.New("auth rate limit burst size must be positive")
		}
		if sec.AuthRateLimit.CleanupInterval <= 0 {
			return errors.New("auth rate limit cleanup interval must be positive")
		}
	}

	return nil
}

// Validate rejects quotas the token bucket cannot enforce. A zero capacity or
// a refill interval that is not a whole number of seconds is a deployment
// error, not a runtime condition.
func (sc *SessionConfig) Validate() error {
	if sc.TTL <= 0 {
		return errors.New("session ttl must be positive")
	}

	if sc.RateLimitCapacity <= 0 {
		return errors.New("rate limit capacity must be positive")
	}

	if sc.RateLimitRefill < time.Second {
		return errors.New("rate limit refill must be at least 1s")
	}

	if sc.RateLimitRefill%time.Second != 0 {
		return fmt.Errorf("rate limit refill must be a whole number of seconds, got %s", sc.RateLimitRefill)
	}

	if sc.SweepInterval < 0 {
		return errors.New("sweep interval cannot be negative")
	}

	return nil
}

func (cc *CollectorConfig) Validate() error {
	if cc.SearchURL == "" {
		return errors.New("search url cannot be empty")
	}

	if cc.Timeout <= 0 {
		return errors.New("collector timeout must be positive")
	}

	if cc.MaxSnippets <= 0 {
		return errors.New("max snippets must be positive")
	}

	return nil
}

func (lc *LLMConfig) Validate() error {
	if !slices.Contains([]string{LLMProviderGemini, LLMProviderOllama}, lc.Provider) {
		return fmt.Errorf("invalid llm provider: %s", lc.Provider)
	}

	if lc.BaseURL == "" {
		return errors.New("llm base url cannot be empty")
	}

	if lc.Timeout <= 0 {
		return errors.New("llm timeout must be positive")
	}

	if lc.MaxRetries < 0 {
		return errors.New("llm max retries cannot be negative")
	}

	if lc.Breaker.FailureRatio < 0 || lc.Breaker.FailureRatio > 1 {
		return errors.New("breaker failure ratio must be between 0 and 1")
	}

	return nil
}

func (rc *ReportsConfig) Validate() error {
	validTypes := []string{ReportStoreFile, ReportStoreMemory, ReportStorePostgres, ReportStoreSQLite}
	if !slices.Contains(validTypes, rc.Type) {
		return fmt.Errorf("invalid reports type: %s", rc.Type)
	}

	if rc.Type == ReportStoreFile && rc.Path == "" {
		return errors.New("path is required for file reports")
	}

	if (rc.Type == ReportStorePostgres || rc.Type == ReportStoreSQLite) && rc.DSN == "" {
		return errors.New("database DSN is required for database reports")
	}

	return nil
}

func (lc *LoggingConfig) Validate() error {
	if !slices.Contains([]string{"debug", "info", "warn", "error"}, lc.Level) {
		return fmt.Errorf("invalid log level: %s", lc.Level)
	}

	if !slices.Contains([]string{"json", "text"}, lc.Format) {
		return fmt.Errorf("invalid log format: %s", lc.Format)
	}

	if !slices.Contains([]string{"stdout", "stderr", "file"}, lc.Output) {
		return fmt.Errorf("invalid log output: %s", lc.Output)
	}

	if lc.Output == "file" && lc.FilePath == "" {
		return errors.New("file path is required when output is file")
	}

	return nil
}

func (mc *MetricsConfig) Validate() error {
	if !mc.Enabled {
		return nil
	}

	if mc.Path == "" {
		return errors.New("metrics path cannot be empty")
	}

	if mc.Port <= 0 || mc.Port > 65535 {
		return errors.New("metrics port must be between 1 and 65535")
	}

	return nil
}

func (oc *ObservabilityConfig) Validate() error {
	if !oc.Tracing.Enabled {
		return nil
	}

	if oc.ServiceName == "" {
		return errors.New("service name is required when tracing is enabled")
	}

	switch oc.Tracing.Exporter {
	case "stdout":
	case "otlp":
		if oc.Tracing.OTLPEndpoint == "" {
			return errors.New("otlp endpoint is required for the otlp exporter")
		}
	default:
		return fmt.Errorf("invalid trace exporter: %s", oc.Tracing.Exporter)
	}

	return nil
}
