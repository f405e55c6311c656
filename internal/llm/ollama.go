package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// Ollama calls a local Ollama server's non-streaming /api/generate endpoint.
type Ollama struct {
	client  *http.Client
	baseURL string
	model   string
}

func NewOllama(client *http.Client, baseURL, model string) *Ollama {
	return &Ollama{client: client, baseURL: strings.TrimRight(baseURL, "/"), model: model}
}

func (o *Ollama) Model() string { return o.model }

func (o *Ollama) Generate(ctx context.Context, prompt string) (string, error) {
	if o.model == "" {
		return "", fmt.Errorf("%w: model name is missing", ErrNotConfigured)
	}

	body, err := json.Marshal(map[string]any{
		"model":  o.model,
		"prompt": prompt,
		"stream": false,
	})
	if err != nil {
		return "", fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.baseURL+"/api/generate", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := o.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("ollama request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", &StatusError{StatusCode: resp.StatusCode, Body: errorBody(b)}
	}

	var result struct {
		Response string `json:"response"`
		Error    string `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("failed to decode ollama response: %w", err)
	}
	if result.Error != "" {
		return "", fmt.Errorf("ollama error: %s", result.Error)
	}

	text := strings.TrimSpace(result.Response)
	if text == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}
