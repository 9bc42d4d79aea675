// Package providers defines the generation client used by the gateway and
// the plumbing shared by HTTP-based implementations.
//
// # Client
//
// Client is the only interface handlers depend on:
//
//	raw, err := client.Generate(ctx, req)
//	if errors.Is(err, providers.ErrUpstream) {
//	    // release the reservation and answer 500
//	}
//
// Generate returns the provider's raw reply text. Turning that text into a
// listing document is the sanitizer's job, not the client's.
//
// # HTTPProvider
//
// HTTPProvider holds a pooled http.Client and a passive Health record.
// PostJSON marshals a body, posts it under the base URL with the bearer
// API key and decodes a 2xx answer. It makes exactly one attempt per call,
// bounded by ClientConfig.Timeout. Three consecutive failures mark the
// provider unhealthy until the next success.
//
// # Errors
//
// Every failure wraps ErrUpstream:
//
//   - UnavailableError: DNS, refused or dropped connections
//   - RejectedError: a non-2xx status, with the provider's own message
//   - TimeoutError: the call outlived its deadline
//   - ParseError: a 2xx body that could not be decoded
//
// The messages are for logs. Clients only ever see a generic error.
//
// # Prompts
//
// BuildPrompt renders a GenerationRequest into the Spanish user prompt,
// substituting "N/A" style defaults for missing optional fields. The output
// depends only on the request. SystemPrompt asks for the JSON document and
// nothing else.
//
// GenerationRequest.Validate reports missing address or price as a
// *ValidationError before any quota is reserved.
package providers
