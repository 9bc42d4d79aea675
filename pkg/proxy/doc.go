// Package proxy holds the HTTP-facing pieces of the metered generation
// gateway: request parsing, error mapping, and JSON response writing.
//
// Handlers live in the handlers subpackage, cross-cutting concerns in
// middleware, and wire bodies in types. The pipeline for POST /generate is:
//
//	authenticate -> parse -> reserve quota -> generate -> sanitize -> record -> respond
//
// A denied reservation short-circuits before the provider is called. A
// failed generation releases the reservation. A listing that cannot be
// stored keeps the charge and is answered with 500 plus the content.
//
// # Error Mapping
//
// HandleError converts any error from the pipeline into a flat
// types.ErrorResponse with a Spanish message. Internal details never reach
// the client; they are logged with the request ID instead.
package proxy
