package providers

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"
)

// ErrUpstream is wrapped by every failure of the generation provider.
// Callers use errors.Is(err, ErrUpstream) to release quota and answer with
// a generic 500.
var ErrUpstream = errors.New("upstream generation failure")

// UnavailableError represents a network or transport failure: DNS errors,
// refused connections, or a connection dropped mid-response.
type UnavailableError struct {
	// Provider is the name of the unreachable provider
	Provider string

	// Cause is the underlying transport error
	Cause error
}

// Error implements the error interface.
func (e *UnavailableError) Error() string {
	return fmt.Sprintf("provider %q unavailable: %v", e.Provider, e.Cause)
}

// Unwrap returns ErrUpstream and the transport error.
func (e *UnavailableError) Unwrap() []error {
	return []error{ErrUpstream, e.Cause}
}

// RejectedError represents a non-success answer from the provider.
// Message carries the provider's own error message when it sent one.
type RejectedError struct {
	// Provider is the name of the provider that rejected the request
	Provider string

	// StatusCode is the HTTP status returned by the provider
	StatusCode int

	// Message is the provider's error.message, or the status text
	Message string
}

// Error implements the error interface.
func (e *RejectedError) Error() string {
	return fmt.Sprintf("provider %q rejected request (status %d): %s", e.Provider, e.StatusCode, e.Message)
}

// Unwrap returns ErrUpstream.
func (e *RejectedError) Unwrap() error {
	return ErrUpstream
}

// TimeoutError represents a request that exceeded its deadline.
type TimeoutError struct {
	// Provider is the name of the provider where the timeout occurred
	Provider string

	// Timeout is the configured timeout duration
	Timeout time.Duration

	// Cause is the underlying error
	Cause error
}

// Error implements the error interface.
func (e *TimeoutError) Error() string {
	return fmt.Sprintf("provider %q request timed out after %s", e.Provider, e.Timeout)
}

// Unwrap returns ErrUpstream and the underlying error.
func (e *TimeoutError) Unwrap() []error {
	return []error{ErrUpstream, e.Cause}
}

// ParseError represents a provider response body that is not the expected
// JSON envelope. It is distinct from an unparseable generated document,
// which the sanitizer absorbs.
type ParseError struct {
	// Provider is the name of the provider that sent the response
	Provider string

	// Cause is the decoding error
	Cause error
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	return fmt.Sprintf("provider %q returned malformed response: %v", e.Provider, e.Cause)
}

// Unwrap returns ErrUpstream and the decoding error.
func (e *ParseError) Unwrap() []error {
	return []error{ErrUpstream, e.Cause}
}

// ConfigError represents an invalid client configuration.
type ConfigError struct {
	Field   string
	Message string
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid provider configuration (%s): %s", e.Field, e.Message)
}

// classifyTransportError maps an error from http.Client.Do to
// TimeoutError or UnavailableError.
func classifyTransportError(ctx context.Context, provider string, timeout time.Duration, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return &TimeoutError{Provider: provider, Timeout: timeout, Cause: err}
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &TimeoutError{Provider: provider, Timeout: timeout, Cause: err}
	}

	return &UnavailableError{Provider: provider, Cause: err}
}
