// Package groq implements providers.Client for Groq's OpenAI-compatible
// chat completions API.
//
// # Basic Usage
//
//	client, err := groq.NewClient(providers.ClientConfig{
//	    APIKey: os.Getenv("GROQ_API_KEY"),
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	raw, err := client.Generate(ctx, &providers.GenerationRequest{
//	    Address: "Av. Reforma 123, CDMX",
//	    Price:   "4,500,000 MXN",
//	})
//
// Unset configuration fields take the package defaults: DefaultBaseURL,
// DefaultModel, a temperature of 0.7, 3000 max tokens, and a 60 second timeout.
package groq
