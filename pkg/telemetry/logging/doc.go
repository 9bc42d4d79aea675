// Package logging builds the gateway's structured slog logger.
//
// # Overview
//
//   - JSON or text output, selected by configuration
//   - A runtime-adjustable level backed by slog.LevelVar
//   - Secret redaction: values under keys such as authorization, api_key
//     or token are always masked
//   - Optional PII redaction of string values (emails, bearer tokens,
//     provider keys, phone numbers) when RedactPII is set
//   - Request-scoped attributes (request ID, account ID) pulled from the
//     context of *Context log calls
//
// # Usage
//
//	logger, err := logging.New(logging.Config{
//	    Level:      "info",
//	    Format:     "json",
//	    RedactPII:  true,
//	    Extractors: []logging.ContextExtractor{requestIDAttrs},
//	})
//	slog.SetDefault(logger.Logger)
//
//	slog.InfoContext(ctx, "listing generated", "account_id", id)
//
// After a configuration reload, SetLevel changes the level without
// rebuilding the handler chain.
package logging
