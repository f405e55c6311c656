// Package collector gathers short web snippets about a sector from a search
// engine's HTML results page. The snippets seed the report prompt; a failed
// search degrades to an empty result rather than failing the request.
package collector

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"tradeops/internal/models"
)

const (
	maxTitleLength = 120
	maxBodyBytes   = 2 << 20
)

// Collector searches the configured HTML endpoint.
type Collector struct {
	client      *http.Client
	searchURL   string
	userAgent   string
	maxSnippets int
	logger      *slog.Logger
}

func New(cfg models.CollectorConfig, logger *slog.Logger) *Collector {
	if logger == nil {
		logger = slog.Default()
	}
	return &Collector{
		client:      &http.Client{Timeout: cfg.Timeout},
		searchURL:   cfg.SearchURL,
		userAgent:   cfg.UserAgent,
		maxSnippets: cfg.MaxSnippets,
		logger:      logger,
	}
}

// Query is the search text used for a sector.
func Query(sector string) string {
	return fmt.Sprintf("%s sector current market data and news", sector)
}

// Search returns up to limit snippets for query; a non-positive limit uses
// the configured maximum. Transport and parse failures are logged and yield
// an empty slice. Only cancellation of ctx is returned as an error.
func (c *Collector) Search(ctx context.Context, query string, limit int) ([]models.Snippet, error) {
	if limit <= 0 {
		limit = c.maxSnippets
	}

	form := url.Values{"q": {query}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.searchURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to build search request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		c.logger.Error("Search request failed", "error", err)
		return []models.Snippet{}, nil
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		c.logger.Error("Search request rejected", "status", resp.StatusCode)
		return []models.Snippet{}, nil
	}

	snippets, err := ParseResults(io.LimitReader(resp.Body, maxBodyBytes), limit)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		c.logger.Error("Failed to parse search results", "error", err)
		return []models.Snippet{}, nil
	}

	c.logger.Debug("Collected snippets", "query", query, "count", len(snippets))
	return snippets, nil
}
