package groq

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"testing"
	"time"

	testproviders "listingforge/gateway/internal/providers"
	"listingforge/gateway/pkg/providers"
)

func newTestClient(t *testing.T, ms *testproviders.MockServer) *Client {
	t.Helper()
	c, err := NewClient(testproviders.TestConfig(ms.URL()))
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}
	return c
}

func TestNewClient_Defaults(t *testing.T) {
	c, err := NewClient(providers.ClientConfig{APIKey: "k"})
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}

	cfg := c.Config()
	if cfg.BaseURL != DefaultBaseURL {
		t.Errorf("BaseURL = %q", cfg.BaseURL)
	}
	if cfg.Model != "llama-3.1-8b-instant" {
		t.Errorf("Model = %q", cfg.Model)
	}
	if cfg.Temperature != 0.7 || cfg.MaxTokens != 3000 {
		t.Errorf("Temperature = %v MaxTokens = %d", cfg.Temperature, cfg.MaxTokens)
	}
	if cfg.Timeout != DefaultTimeout {
		t.Errorf("Timeout = %v", cfg.Timeout)
	}
	if c.Name() != "groq" {
		t.Errorf("Name() = %q", c.Name())
	}
}

func TestNewClient_RequiresAPIKey(t *testing.T) {
	_, err := NewClient(providers.ClientConfig{})
	var cfgErr *providers.ConfigError
	if err == nil || !strings.Contains(err.Error(), "api_key") {
		t.Fatalf("error = %v, want api_key config error", err)
	}
	testproviders.AssertErrorAs(t, err, &cfgErr)
}

func TestClient_Generate_Success(t *testing.T) {
	ms := testproviders.NewMockServer()
	defer ms.Close()
	ms.SetCompletion(testproviders.ValidDocument)

	c := newTestClient(t, ms)
	raw, err := c.Generate(context.Background(), testproviders.TestRequest())
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if raw != testproviders.ValidDocument {
		t.Errorf("Generate() = %q", raw)
	}

	if got := ms.LastRequestHeader("Authorization"); got != "Bearer test-api-key" {
		t.Errorf("Authorization = %q", got)
	}

	var sent ChatRequest
	if err := json.Unmarshal(ms.LastRequestBody(), &sent); err != nil {
		t.Fatalf("request body is not JSON: %v", err)
	}
	if sent.Model != DefaultModel || sent.Temperature != 0.7 || sent.MaxTokens != 3000 {
		t.Errorf("request = %+v", sent)
	}
	if len(sent.Messages) != 2 || sent.Messages[0].Role != "system" || sent.Messages[1].Role != "user" {
		t.Fatalf("messages = %+v", sent.Messages)
	}
	if !strings.Contains(sent.Messages[1].Content, "Calle Roble 42, Guadalajara") {
		t.Error("user prompt does not contain the address")
	}
	if !strings.Contains(sent.Messages[1].Content, "cálido, acogedor") {
		t.Error("user prompt does not contain the tone description")
	}

	if !c.Health().IsHealthy {
		t.Error("client unhealthy after success")
	}
}

func TestClient_Generate_Rejected(t *testing.T) {
	ms := testproviders.NewMockServer()
	defer ms.Close()
	ms.SetError(http.StatusUnauthorized, "Invalid API Key")

	c := newTestClient(t, ms)
	_, err := c.Generate(context.Background(), testproviders.TestRequest())

	var rej *providers.RejectedError
	testproviders.AssertErrorAs(t, err, &rej)
	testproviders.AssertUpstream(t, err)
	if rej.StatusCode != http.StatusUnauthorized || rej.Message != "Invalid API Key" {
		t.Errorf("RejectedError = %+v", rej)
	}
	if ms.GetRequestCount() != 1 {
		t.Errorf("request count = %d, want exactly 1 (no retries)", ms.GetRequestCount())
	}
}

func TestClient_Generate_RejectedWithoutEnvelope(t *testing.T) {
	ms := testproviders.NewMockServer()
	defer ms.Close()
	ms.SetResponse(testproviders.CompletionsPath, testproviders.MockResponse{
		StatusCode: http.StatusBadGateway,
		Body:       "upstream down",
	})

	c := newTestClient(t, ms)
	_, err := c.Generate(context.Background(), testproviders.TestRequest())

	var rej *providers.RejectedError
	testproviders.AssertErrorAs(t, err, &rej)
	if rej.Message != http.StatusText(http.StatusBadGateway) {
		t.Errorf("Message = %q", rej.Message)
	}
}

func TestClient_Generate_Timeout(t *testing.T) {
	ms := testproviders.NewMockServer()
	defer ms.Close()
	ms.SetResponse(testproviders.CompletionsPath, testproviders.MockResponse{
		StatusCode: http.StatusOK,
		Body:       testproviders.CompletionBody("late"),
		Delay:      time.Second,
	})

	cfg := testproviders.TestConfig(ms.URL())
	cfg.Timeout = 50 * time.Millisecond
	c, err := NewClient(cfg)
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}

	_, err = c.Generate(context.Background(), testproviders.TestRequest())
	var te *providers.TimeoutError
	testproviders.AssertErrorAs(t, err, &te)
	testproviders.AssertUpstream(t, err)
}

func TestClient_Generate_CallerDeadline(t *testing.T) {
	ms := testproviders.NewMockServer()
	defer ms.Close()
	ms.SetResponse(testproviders.CompletionsPath, testproviders.MockResponse{
		StatusCode: http.StatusOK,
		Body:       testproviders.CompletionBody("late"),
		Delay:      time.Second,
	})

	c := newTestClient(t, ms)
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := c.Generate(ctx, testproviders.TestRequest())
	var te *providers.TimeoutError
	testproviders.AssertErrorAs(t, err, &te)
}

func TestClient_Generate_Unavailable(t *testing.T) {
	ms := testproviders.NewMockServer()
	url := ms.URL()
	ms.Close()

	c, err := NewClient(testproviders.TestConfig(url))
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}

	_, err = c.Generate(context.Background(), testproviders.TestRequest())
	var ue *providers.UnavailableError
	testproviders.AssertErrorAs(t, err, &ue)
	testproviders.AssertUpstream(t, err)
}

func TestClient_Generate_NoChoices(t *testing.T) {
	ms := testproviders.NewMockServer()
	defer ms.Close()
	ms.SetResponse(testproviders.CompletionsPath, testproviders.MockResponse{
		StatusCode: http.StatusOK,
		Body:       map[string]interface{}{"id": "x", "choices": []interface{}{}},
	})

	c := newTestClient(t, ms)
	_, err := c.Generate(context.Background(), testproviders.TestRequest())

	var rej *providers.RejectedError
	testproviders.AssertErrorAs(t, err, &rej)
	if rej.StatusCode != http.StatusOK {
		t.Errorf("StatusCode = %d", rej.StatusCode)
	}
}

func TestClient_Generate_MalformedEnvelope(t *testing.T) {
	ms := testproviders.NewMockServer()
	defer ms.Close()
	ms.SetResponse(testproviders.CompletionsPath, testproviders.MockResponse{
		StatusCode: http.StatusOK,
		Body:       "<html>gateway</html>",
	})

	c := newTestClient(t, ms)
	_, err := c.Generate(context.Background(), testproviders.TestRequest())

	var pe *providers.ParseError
	testproviders.AssertErrorAs(t, err, &pe)
	testproviders.AssertUpstream(t, err)
}

func TestClient_HealthDegradesAfterFailures(t *testing.T) {
	ms := testproviders.NewMockServer()
	defer ms.Close()
	ms.SetError(http.StatusInternalServerError, "boom")

	c := newTestClient(t, ms)
	for i := 0; i < 3; i++ {
		_, _ = c.Generate(context.Background(), testproviders.TestRequest())
	}

	h := c.Health()
	if h.IsHealthy || h.ConsecutiveFailures != 3 || h.FailedRequests != 3 {
		t.Errorf("Health() = %+v", h)
	}

	ms.SetCompletion("{}")
	if _, err := c.Generate(context.Background(), testproviders.TestRequest()); err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if !c.Health().IsHealthy {
		t.Error("client should recover after a success")
	}
}
