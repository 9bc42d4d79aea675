package groq

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"listingforge/gateway/pkg/providers"
)

// Defaults applied by NewClient.
const (
	DefaultBaseURL     = "https://api.groq.com/openai/v1"
	DefaultModel       = "llama-3.1-8b-instant"
	DefaultTemperature = 0.7
	DefaultMaxTokens   = 3000
	DefaultTimeout     = 60 * time.Second
)

const completionsPath = "/chat/completions"

// Client implements providers.Client for Groq.
type Client struct {
	*providers.HTTPProvider
}

// NewClient creates a Groq client. Zero-valued fields of cfg take the
// package defaults; the API key is required.
func NewClient(cfg providers.ClientConfig) (*Client, error) {
	if cfg.Name == "" {
		cfg.Name = "groq"
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Temperature == 0 {
		cfg.Temperature = DefaultTemperature
	}
	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = DefaultMaxTokens
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &Client{HTTPProvider: providers.NewHTTPProvider(cfg)}, nil
}

// Generate implements providers.Client.
func (c *Client) Generate(ctx context.Context, req *providers.GenerationRequest) (string, error) {
	cfg := c.Config()

	var resp ChatResponse
	if err := c.PostJSON(ctx, completionsPath, transformRequest(cfg, req), &resp); err != nil {
		return "", err
	}

	if len(resp.Choices) == 0 {
		return "", &providers.RejectedError{
			Provider:   cfg.Name,
			StatusCode: http.StatusOK,
			Message:    "response contained no choices",
		}
	}

	slog.DebugContext(ctx, "generation completed",
		"provider", cfg.Name,
		"model", resp.Model,
		"finish_reason", resp.Choices[0].FinishReason,
		"total_tokens", resp.Usage.TotalTokens,
	)

	return resp.Choices[0].Message.Content, nil
}

var _ providers.Client = (*Client)(nil)
