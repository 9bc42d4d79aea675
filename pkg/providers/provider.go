package providers

import "context"

// Client generates marketing copy for a property listing.
//
// Implementations make exactly one call to the upstream provider per
// Generate. Retry policy, if any, belongs to the caller.
type Client interface {
	// Generate sends the listing prompt and returns the provider's raw text
	// reply. Failures wrap ErrUpstream and are one of *UnavailableError,
	// *RejectedError, *TimeoutError, or *ParseError.
	Generate(ctx context.Context, req *GenerationRequest) (string, error)

	// Name returns the provider name used in logs and metrics.
	Name() string

	// Health returns passive health derived from recent calls.
	Health() Health
}
