package providers

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"listingforge/gateway/pkg/plans"
)

// GenerationRequest describes the property to write copy for.
// Address and Price are required; every other field is optional.
type GenerationRequest struct {
	Address      string     `json:"address"`
	Price        Field      `json:"price"`
	PropertyType string     `json:"type,omitempty"`
	Bedrooms     Field      `json:"beds,omitempty"`
	Bathrooms    Field      `json:"baths,omitempty"`
	SquareFeet   Field      `json:"sqft,omitempty"`
	YearBuilt    Field      `json:"year,omitempty"`
	Features     string     `json:"features,omitempty"`
	Tone         plans.Tone `json:"tone,omitempty"`
}

// Field is a free-form property value. Clients send numbers and strings
// interchangeably, so both {"beds":3} and {"beds":"3"} decode to "3".
type Field string

// UnmarshalJSON accepts a JSON string, a JSON number or null.
func (f *Field) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*f = Field(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("expected string or number, got %s", data)
	}
	*f = Field(n.String())
	return nil
}

// String returns the value with surrounding whitespace removed.
func (f Field) String() string {
	return strings.TrimSpace(string(f))
}

// ValidationError lists the required fields missing from a request.
type ValidationError struct {
	Fields []string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("missing required fields: %s", strings.Join(e.Fields, ", "))
}

// Validate checks that the required fields are present.
func (r *GenerationRequest) Validate() error {
	var missing []string
	if strings.TrimSpace(r.Address) == "" {
		missing = append(missing, "address")
	}
	if r.Price.String() == "" {
		missing = append(missing, "price")
	}
	if len(missing) > 0 {
		return &ValidationError{Fields: missing}
	}
	return nil
}

// Health tracks the outcome of recent upstream calls.
type Health struct {
	// IsHealthy is false after three consecutive failures.
	IsHealthy bool

	// ConsecutiveFailures counts failures since the last success.
	ConsecutiveFailures int

	// LastError is the most recent failure, nil after a success.
	LastError error

	// LastSuccess is when the last call succeeded.
	LastSuccess time.Time

	// TotalRequests and FailedRequests are lifetime counters.
	TotalRequests  int64
	FailedRequests int64
}

// ClientConfig configures an HTTP generation client.
type ClientConfig struct {
	// Name identifies the provider in logs and errors.
	Name string

	// BaseURL is the provider's API root.
	BaseURL string

	// APIKey is sent as a bearer token.
	APIKey string

	// Model is the provider model identifier.
	Model string

	// Temperature controls sampling randomness.
	Temperature float64

	// MaxTokens caps the completion length.
	MaxTokens int

	// Timeout bounds a single call, including reading the body.
	Timeout time.Duration

	// MaxIdleConns is the maximum number of idle connections.
	// Default: 100
	MaxIdleConns int

	// MaxIdleConnsPerHost is the maximum number of idle connections per host.
	// Default: 10
	MaxIdleConnsPerHost int

	// IdleConnTimeout is how long idle connections are kept.
	// Default: 90 seconds
	IdleConnTimeout time.Duration
}

// Validate checks the configuration for missing required values.
func (c ClientConfig) Validate() error {
	if c.BaseURL == "" {
		return &ConfigError{Field: "base_url", Message: "base URL is required"}
	}
	if c.APIKey == "" {
		return &ConfigError{Field: "api_key", Message: "API key is required"}
	}
	if c.Model == "" {
		return &ConfigError{Field: "model", Message: "model is required"}
	}
	if c.Timeout <= 0 {
		return &ConfigError{Field: "timeout", Message: "timeout must be positive"}
	}
	return nil
}
