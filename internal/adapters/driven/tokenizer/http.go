package tokenizer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/alexandria-labs/alexandria-cli/internal/core/ports/driven"
)

// Default configuration values.
const (
	DefaultBaseURL = "http://localhost:11434"
	DefaultModel   = "nomic-embed-text"
	DefaultTimeout = 10 * time.Second
)

// Ensure HTTPCounter implements the interface.
var _ driven.TokenCounter = (*HTTPCounter)(nil)

// Config holds configuration for the HTTP token counter.
type Config struct {
	// BaseURL is the inference server base URL (default: http://localhost:11434).
	BaseURL string

	// Model is the tokenizer model (default: nomic-embed-text).
	Model string

	// Timeout is the request timeout (default: 10s).
	Timeout time.Duration
}

// HTTPCounter counts tokens via an inference server's tokenize
// endpoint (Ollama's /api/tokenize shape).
type HTTPCounter struct {
	client  *http.Client
	baseURL string
	model   string
}

// tokenizeRequest is the tokenize API request format.
type tokenizeRequest struct {
	Model string `json:"model"`
	Text  string `json:"text"`
}

// tokenizeResponse is the tokenize API response format.
type tokenizeResponse struct {
	Tokens []int `json:"tokens"`
}

// NewHTTPCounter creates an HTTP token counter.
func NewHTTPCounter(cfg Config) *HTTPCounter {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	return &HTTPCounter{
		client:  &http.Client{Timeout: cfg.Timeout},
		baseURL: cfg.BaseURL,
		model:   cfg.Model,
	}
}

// Count returns the exact token count for text.
func (c *HTTPCounter) Count(ctx context.Context, text string) (int, error) {
	jsonBody, err := json.Marshal(tokenizeRequest{Model: c.model, Text: text})
	if err != nil {
		return 0, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		c.baseURL+"/api/tokenize",
		bytes.NewReader(jsonBody),
	)
	if err != nil {
		return 0, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return 0, fmt.Errorf("tokenize error (status %d): failed to read response", resp.StatusCode)
		}
		return 0, fmt.Errorf("tokenize error (status %d): %s", resp.StatusCode, string(body))
	}

	var tokenizeResp tokenizeResponse
	if err := json.NewDecoder(resp.Body).Decode(&tokenizeResp); err != nil {
		return 0, fmt.Errorf("decode response: %w", err)
	}
	return len(tokenizeResp.Tokens), nil
}
