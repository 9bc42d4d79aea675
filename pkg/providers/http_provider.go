package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"
)

// unhealthyAfter is the number of consecutive failures that marks a
// provider unhealthy.
const unhealthyAfter = 3

// HTTPProvider is the shared HTTP plumbing for JSON generation providers.
// It owns a pooled transport, performs a single attempt per call, maps
// failures to the upstream error taxonomy, and tracks passive health.
type HTTPProvider struct {
	config ClientConfig
	client *http.Client

	healthMu sync.RWMutex
	health   Health
}

// NewHTTPProvider creates an HTTPProvider with a pooled transport.
func NewHTTPProvider(config ClientConfig) *HTTPProvider {
	if config.MaxIdleConns == 0 {
		config.MaxIdleConns = 100
	}
	if config.MaxIdleConnsPerHost == 0 {
		config.MaxIdleConnsPerHost = 10
	}
	if config.IdleConnTimeout == 0 {
		config.IdleConnTimeout = 90 * time.Second
	}

	transport := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		MaxIdleConns:        config.MaxIdleConns,
		MaxIdleConnsPerHost: config.MaxIdleConnsPerHost,
		IdleConnTimeout:     config.IdleConnTimeout,
		ForceAttemptHTTP2:   true,
	}

	return &HTTPProvider{
		config: config,
		// The deadline is applied per call through the request context.
		client: &http.Client{Transport: transport},
		health: Health{IsHealthy: true},
	}
}

// Config returns the provider configuration.
func (p *HTTPProvider) Config() ClientConfig {
	return p.config
}

// Name returns the configured provider name.
func (p *HTTPProvider) Name() string {
	return p.config.Name
}

// Health returns a copy of the current health state.
func (p *HTTPProvider) Health() Health {
	p.healthMu.RLock()
	defer p.healthMu.RUnlock()
	return p.health
}

func (p *HTTPProvider) updateHealth(err error) {
	p.healthMu.Lock()
	defer p.healthMu.Unlock()

	p.health.TotalRequests++
	if err == nil {
		p.health.IsHealthy = true
		p.health.ConsecutiveFailures = 0
		p.health.LastError = nil
		p.health.LastSuccess = time.Now()
		return
	}

	p.health.FailedRequests++
	p.health.ConsecutiveFailures++
	p.health.LastError = err
	if p.health.ConsecutiveFailures >= unhealthyAfter && p.health.IsHealthy {
		p.health.IsHealthy = false
		slog.Warn("provider marked unhealthy",
			"provider", p.config.Name,
			"consecutive_failures", p.health.ConsecutiveFailures,
			"error", err,
		)
	}
}

// providerErrorBody is the OpenAI-compatible error envelope.
type providerErrorBody struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// PostJSON sends body as JSON to path under the base URL and decodes a
// successful response into out. It makes exactly one attempt.
func (p *HTTPProvider) PostJSON(ctx context.Context, path string, body, out any) (err error) {
	defer func() { p.updateHealth(err) }()

	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	if p.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.config.Timeout)
		defer cancel()
	}

	url := strings.TrimRight(p.config.BaseURL, "/") + path
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.config.APIKey)

	slog.DebugContext(ctx, "sending request to provider",
		"provider", p.config.Name,
		"url", url,
	)

	start := time.Now()
	resp, err := p.client.Do(req)
	if err != nil {
		return classifyTransportError(ctx, p.config.Name, p.config.Timeout, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return classifyTransportError(ctx, p.config.Name, p.config.Timeout, err)
	}

	slog.DebugContext(ctx, "provider responded",
		"provider", p.config.Name,
		"status", resp.StatusCode,
		"latency_ms", time.Since(start).Milliseconds(),
	)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &RejectedError{
			Provider:   p.config.Name,
			StatusCode: resp.StatusCode,
			Message:    rejectionMessage(resp.StatusCode, respBody),
		}
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return &ParseError{Provider: p.config.Name, Cause: err}
	}
	return nil
}

// rejectionMessage extracts error.message from the body, falling back to
// the status text.
func rejectionMessage(status int, body []byte) string {
	var eb providerErrorBody
	if err := json.Unmarshal(body, &eb); err == nil && eb.Error.Message != "" {
		return eb.Error.Message
	}
	return http.StatusText(status)
}
