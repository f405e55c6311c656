// Package llm turns collected snippets into a Markdown sector report using a
// hosted or local language model.
package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"tradeops/internal/models"
)

var (
	// ErrNotConfigured is returned when the provider lacks an API key or model.
	ErrNotConfigured = errors.New("llm provider is not configured")
	// ErrEmptyResponse is returned when the model produced no text.
	ErrEmptyResponse = errors.New("no content returned from model")
)

// Generator produces text for a prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
	Model() string
}

// StatusError is a non-2xx reply from the provider.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("llm provider returned status %d: %s", e.StatusCode, e.Body)
}

// Temporary reports whether retrying the call may succeed.
func (e *StatusError) Temporary() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

// New builds the configured provider wrapped with retry and a circuit breaker.
func New(cfg models.LLMConfig, logger *slog.Logger) (*Resilient, error) {
	client := &http.Client{Timeout: cfg.Timeout}

	var gen Generator
	switch cfg.Provider {
	case models.LLMProviderGemini:
		gen = NewGemini(client, cfg.BaseURL, cfg.APIKey, cfg.Model)
	case models.LLMProviderOllama:
		gen = NewOllama(client, cfg.BaseURL, cfg.Model)
	default:
		return nil, fmt.Errorf("unsupported llm provider: %s", cfg.Provider)
	}

	return NewResilient(gen, cfg.MaxRetries, cfg.Breaker, logger), nil
}

// errorBody trims provider error payloads for logs and error messages.
func errorBody(b []byte) string {
	const max = 512
	if len(b) > max {
		return string(b[:max]) + "..."
	}
	return string(b)
}
