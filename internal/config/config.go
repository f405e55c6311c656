package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"tradeops/internal/models"

	"gopkg.in/yaml.v3"
)

// Load builds the configuration from defaults, an optional YAML file and the
// environment, in that order, then validates it.
func Load(configPath string) (*models.Config, error) {
	config := models.NewDefaultConfig()

	if configPath != "" {
		if err := loadFromFile(config, configPath); err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
	}

	loadFromEnvironment(config)

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// fileSecrets mirrors the secret-bearing keys so they can be flagged when an
// operator commits them to a config file.
type fileSecrets struct {
	Security struct {
		JWTSecret string `yaml:"jwt_secret"`
	} `yaml:"security"`
	LLM struct {
		APIKey string `yaml:"api_key"`
	} `yaml:"llm"`
	Reports struct {
		DSN string `yaml:"dsn"`
	} `yaml:"reports"`
}

// warnSecretsInFile logs a warning for each secret found in the YAML data.
// The values are still honored.
func warnSecretsInFile(data []byte) {
	var sec fileSecrets
	if err := yaml.Unmarshal(data, &sec); err != nil {
		return
	}
	if sec.Security.JWTSecret != "" {
		slog.Warn("Secret found in config file; prefer the environment.", "config_key", "security.jwt_secret", "env", "TRADEOPS_JWT_SECRET")
	}
	if sec.LLM.APIKey != "" {
		slog.Warn("Secret found in config file; prefer the environment.", "config_key", "llm.api_key", "env", "TRADEOPS_LLM_API_KEY")
	}
	if strings.Contains(sec.Reports.DSN, "password=") || strings.Contains(sec.Reports.DSN, "@") {
		slog.Warn("Database credentials found in config file; prefer the environment.", "config_key", "reports.dsn", "env", "TRADEOPS_REPORTS_DSN")
	}
}

func loadFromFile(config *models.Config, filePath string) error {
	if _, err := os.Stat(filePath); os.IsNotExist(err) {
		return fmt.Errorf("config file not found: %s", filePath)
	}
	data, err := os.ReadFile(filePath)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	warnSecretsInFile(data)
	if err := yaml.Unmarshal(data, config); err != nil {
		return fmt.Errorf("failed to parse YAML config: %w", err)
	}
	return nil
}

// firstEnv returns the value of the first variable that is set and non-empty.
// Later names are the legacy spellings kept for existing deployments.
func firstEnv(names ...string) string {
	for _, name := range names {
		if v := os.Getenv(name); v != "" {
			return v
		}
	}
	return ""
}

func setString(dst *string, names ...string) {
	if v := firstEnv(names...); v != "" {
		*dst = v
	}
}

func setInt(dst *int, names ...string) {
	if v := firstEnv(names...); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setBool(dst *bool, names ...string) {
	if v := firstEnv(names...); v != "" {
		*dst = strings.ToLower(v) == "true"
	}
}

func setFloat(dst *float64, names ...string) {
	if v := firstEnv(names...); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

// setDuration accepts Go duration strings ("90s", "1h") and bare integers,
// which are read as seconds.
func setDuration(dst *time.Duration, names ...string) {
	v := firstEnv(names...)
	if v == "" {
		return
	}
	if d, err := time.ParseDuration(v); err == nil {
		*dst = d
		return
	}
	if secs, err := strconv.Atoi(v); err == nil {
		*dst = time.Duration(secs) * time.Second
	}
}

func loadFromEnvironment(config *models.Config) {
	// Server
	setInt(&config.Server.Port, "TRADEOPS_PORT")
	setString(&config.Server.Host, "TRADEOPS_HOST")
	setDuration(&config.Server.ReadTimeout, "TRADEOPS_READ_TIMEOUT")
	setDuration(&config.Server.WriteTimeout, "TRADEOPS_WRITE_TIMEOUT")
	setDuration(&config.Server.IdleTimeout, "TRADEOPS_IDLE_TIMEOUT")
	setBool(&config.Server.TLSEnabled, "TRADEOPS_TLS_ENABLED")
	setString(&config.Server.TLSCertFile, "TRADEOPS_TLS_CERT_FILE")
	setString(&config.Server.TLSKeyFile, "TRADEOPS_TLS_KEY_FILE")
	setBool(&config.Server.CORS.Enabled, "TRADEOPS_CORS_ENABLED")
	if origins := os.Getenv("TRADEOPS_CORS_ALLOWED_ORIGINS"); origins != "" {
		config.Server.CORS.AllowedOrigins = splitList(origins)
	}

	// Security
	setString(&config.Security.JWTSecret, "TRADEOPS_JWT_SECRET", "SECRET_KEY")
	setDuration(&config.Security.TokenTTL, "TRADEOPS_TOKEN_TTL")
	setString(&config.Security.Issuer, "TRADEOPS_TOKEN_ISSUER")
	setInt(&config.Security.BcryptCost, "TRADEOPS_BCRYPT_COST")
	setBool(&config.Security.AuthRateLimit.Enabled, "TRADEOPS_AUTH_RATE_LIMIT_ENABLED")
	setInt(&config.Security.AuthRateLimit.RequestsPerMinute, "TRADEOPS_AUTH_RATE_LIMIT_RPM")
	setInt(&config.Security.AuthRateLimit.BurstSize, "TRADEOPS_AUTH_RATE_LIMIT_BURST")

	// Session
	setDuration(&config.Session.TTL, "TRADEOPS_SESSION_TTL")
	setInt(&config.Session.RateLimitCapacity, "TRADEOPS_RATE_LIMIT_CAPACITY")
	setDuration(&config.Session.RateLimitRefill, "TRADEOPS_RATE_LIMIT_REFILL")
	setDuration(&config.Session.SweepInterval, "TRADEOPS_SESSION_SWEEP_INTERVAL")

	// Collector
	setString(&config.Collector.SearchURL, "TRADEOPS_SEARCH_URL")
	setDuration(&config.Collector.Timeout, "TRADEOPS_COLLECTOR_TIMEOUT")
	setInt(&config.Collector.MaxSnippets, "TRADEOPS_COLLECTOR_MAX_SNIPPETS")

	// LLM
	setString(&config.LLM.Provider, "TRADEOPS_LLM_PROVIDER")
	setString(&config.LLM.APIKey, "TRADEOPS_LLM_API_KEY", "LLM_API_KEY")
	setString(&config.LLM.Model, "TRADEOPS_LLM_MODEL", "LLM_MODEL_NAME")
	config.LLM.Model = strings.Trim(strings.TrimSpace(config.LLM.Model), `"`)
	setString(&config.LLM.BaseURL, "TRADEOPS_LLM_BASE_URL")
	setDuration(&config.LLM.Timeout, "TRADEOPS_LLM_TIMEOUT")
	setInt(&config.LLM.MaxRetries, "TRADEOPS_LLM_MAX_RETRIES")
	setFloat(&config.LLM.Breaker.FailureRatio, "TRADEOPS_LLM_BREAKER_FAILURE_RATIO")

	// Reports
	setString(&config.Reports.Type, "TRADEOPS_REPORTS_TYPE")
	setString(&config.Reports.Path, "TRADEOPS_REPORTS_PATH")
	setString(&config.Reports.DSN, "TRADEOPS_REPORTS_DSN")

	// Logging
	setString(&config.Logging.Level, "TRADEOPS_LOG_LEVEL", "LOG_LEVEL")
	config.Logging.Level = strings.ToLower(config.Logging.Level)
	setString(&config.Logging.Format, "TRADEOPS_LOG_FORMAT")
	setString(&config.Logging.Output, "TRADEOPS_LOG_OUTPUT")
	setString(&config.Logging.FilePath, "TRADEOPS_LOG_FILE_PATH")

	// Metrics
	setBool(&config.Metrics.Enabled, "TRADEOPS_METRICS_ENABLED")
	setString(&config.Metrics.Path, "TRADEOPS_METRICS_PATH")
	setInt(&config.Metrics.Port, "TRADEOPS_METRICS_PORT")

	// Tracing
	setBool(&config.Observability.Tracing.Enabled, "TRADEOPS_TRACING_ENABLED")
	setString(&config.Observability.Tracing.Exporter, "TRADEOPS_TRACING_EXPORTER")
	setString(&config.Observability.Tracing.OTLPEndpoint, "TRADEOPS_OTLP_ENDPOINT")
	setFloat(&config.Observability.Tracing.SampleRate, "TRADEOPS_TRACING_SAMPLE_RATE")
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// SaveExample writes a sample configuration file. Secrets are left as
// placeholders to be replaced from the environment.
func SaveExample(filePath string) error {
	if err := os.MkdirAll(filepath.Dir(filePath), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	config := models.NewDefaultConfig()
	config.Security.JWTSecret = "change-me"
	config.Server.TLSCertFile = "/path/to/cert.pem"
	config.Server.TLSKeyFile = "/path/to/key.pem"

	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config to YAML: %w", err)
	}

	if err := os.WriteFile(filePath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
