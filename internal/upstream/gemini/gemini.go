// Package gemini implements upstream.Generator against Google's Generative
// Language REST API.
//
// The client is deliberately small: one endpoint, one request shape, no
// streaming, no retries. Anything the API does wrong — transport error,
// non-2xx status, a body that isn't the JSON we expect — comes back as an
// error and the caller decides what that costs the user.
package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/adnan/pagesmith/internal/upstream"
)

// Compile-time check that *Client implements upstream.Generator.
var _ upstream.Generator = (*Client)(nil)

// generateRequest is the minimal request shape for the text generation endpoint.
type generateRequest struct {
	Prompt          promptPart `json:"prompt"`
	Temperature     float64    `json:"temperature"`
	MaxOutputTokens int        `json:"maxOutputTokens"`
}

type promptPart struct {
	Text string `json:"text"`
}

// generateResponse is the minimal response shape we read back.
type generateResponse struct {
	Candidates []struct {
		Content string `json:"content"`
	} `json:"candidates"`
}

// HTTPStatusError captures non-2xx upstream responses with the body attached,
// so logs show what the API actually said.
type HTTPStatusError struct {
	StatusCode int
	Body       string
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("gemini: unexpected status %d: %s", e.StatusCode, e.Body)
}

// Client calls the Gemini text generation endpoint.
type Client struct {
	config     Config
	httpClient *http.Client
}

// New creates a Gemini client from config.
func New(cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, errors.New("gemini: API key must not be empty")
	}
	if strings.TrimSpace(cfg.Model) == "" {
		return nil, errors.New("gemini: model must not be empty")
	}
	return &Client{
		config:     cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}, nil
}

// Generate sends one composed prompt and returns the model's raw text output.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	body, err := json.Marshal(generateRequest{
		Prompt:          promptPart{Text: prompt},
		Temperature:     c.config.Temperature,
		MaxOutputTokens: c.config.MaxOutputTokens,
	})
	if err != nil {
		return "", fmt.Errorf("gemini: marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s:generate",
		strings.TrimRight(c.config.BaseURL, "/"), c.config.Model)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("gemini: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.config.APIKey)

	res, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("gemini: request failed: %w", err)
	}
	defer func() { _ = res.Body.Close() }()

	// Read as text first — error bodies are rarely the JSON we asked for,
	// and we want them verbatim in the error.
	raw, err := io.ReadAll(io.LimitReader(res.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("gemini: read response body: %w", err)
	}

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return "", &HTTPStatusError{StatusCode: res.StatusCode, Body: string(raw)}
	}

	var payload generateResponse
	if err := json.Unmarshal(raw, &payload); err != nil {
		return "", fmt.Errorf("gemini: invalid JSON in response: %w", err)
	}
	if len(payload.Candidates) == 0 {
		return "", errors.New("gemini: no candidates in response")
	}

	return payload.Candidates[0].Content, nil
}
