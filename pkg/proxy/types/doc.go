// Package types defines the JSON bodies exchanged by the gateway's HTTP API.
//
// Request bodies:
//   - GenerateRequest: POST /generate input (alias of providers.GenerationRequest)
//
// Response bodies:
//   - GenerateResponse: successful generation with the usage after the charge
//   - UsageResponse: GET /usage plan and counters
//   - ListingsResponse: GET /listings history page
//
// Errors use a flat shape, {"error": "<message>", "code": "<code>"}, with
// quota details and recovered content inlined where they apply. Messages are
// written for end users in Spanish.
package types
