// Package providers contains test doubles for generation provider clients.
package providers

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"time"
)

// CompletionsPath is the OpenAI-compatible chat completions endpoint.
const CompletionsPath = "/chat/completions"

// MockServer is a mock OpenAI-compatible provider for tests.
type MockServer struct {
	server       *httptest.Server
	responses    map[string]MockResponse
	requestCount int
	lastBody     []byte
	lastHeaders  http.Header
	mu           sync.Mutex
}

// MockResponse defines a mock response configuration.
type MockResponse struct {
	StatusCode int
	Body       interface{}
	Delay      time.Duration
	Headers    map[string]string
}

// NewMockServer creates and starts a mock server.
func NewMockServer() *MockServer {
	ms := &MockServer{
		responses: make(map[string]MockResponse),
	}
	ms.server = httptest.NewServer(http.HandlerFunc(ms.handler))
	return ms
}

// URL returns the mock server's base URL.
func (ms *MockServer) URL() string {
	return ms.server.URL
}

// Close closes the mock server.
func (ms *MockServer) Close() {
	ms.server.CloseClientConnections()
	ms.server.Close()
}

// SetResponse sets a mock response for a path.
func (ms *MockServer) SetResponse(path string, response MockResponse) {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	ms.responses[path] = response
}

// SetCompletion makes the completions endpoint answer 200 with content as
// the assistant message.
func (ms *MockServer) SetCompletion(content string) {
	ms.SetResponse(CompletionsPath, MockResponse{
		StatusCode: http.StatusOK,
		Body:       CompletionBody(content),
	})
}

// SetError makes the completions endpoint answer with status and an
// OpenAI-style error envelope carrying message.
func (ms *MockServer) SetError(status int, message string) {
	ms.SetResponse(CompletionsPath, MockResponse{
		StatusCode: status,
		Body: map[string]interface{}{
			"error": map[string]interface{}{
				"message": message,
				"type":    "invalid_request_error",
			},
		},
	})
}

// GetRequestCount returns the number of requests received.
func (ms *MockServer) GetRequestCount() int {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	return ms.requestCount
}

// LastRequestBody returns the raw body of the most recent request.
func (ms *MockServer) LastRequestBody() []byte {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	return ms.lastBody
}

// LastRequestHeader returns a header of the most recent request.
func (ms *MockServer) LastRequestHeader(name string) string {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	if ms.lastHeaders == nil {
		return ""
	}
	return ms.lastHeaders.Get(name)
}

func (ms *MockServer) handler(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)

	ms.mu.Lock()
	ms.requestCount++
	ms.lastBody = body
	ms.lastHeaders = r.Header.Clone()
	response, ok := ms.responses[r.URL.Path]
	ms.mu.Unlock()

	if !ok {
		http.NotFound(w, r)
		return
	}

	if response.Delay > 0 {
		select {
		case <-time.After(response.Delay):
		case <-r.Context().Done():
			return
		}
	}

	for key, value := range response.Headers {
		w.Header().Set(key, value)
	}
	if w.Header().Get("Content-Type") == "" {
		w.Header().Set("Content-Type", "application/json")
	}
	w.WriteHeader(response.StatusCode)

	switch v := response.Body.(type) {
	case nil:
	case string:
		_, _ = w.Write([]byte(v))
	case []byte:
		_, _ = w.Write(v)
	default:
		_ = json.NewEncoder(w).Encode(v)
	}
}

// CompletionBody builds a chat completions response carrying content.
func CompletionBody(content string) map[string]interface{} {
	return map[string]interface{}{
		"id":     "chatcmpl-test",
		"object": "chat.completion",
		"model":  "llama-3.1-8b-instant",
		"choices": []map[string]interface{}{
			{
				"index":         0,
				"message":       map[string]interface{}{"role": "assistant", "content": content},
				"finish_reason": "stop",
			},
		},
		"usage": map[string]interface{}{
			"prompt_tokens":     120,
			"completion_tokens": 480,
			"total_tokens":      600,
		},
	}
}
