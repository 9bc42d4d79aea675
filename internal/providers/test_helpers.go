package providers

import (
	"errors"
	"testing"
	"time"

	"listingforge/gateway/pkg/plans"
	"listingforge/gateway/pkg/providers"
)

// ValidDocument is a well-formed generated listing document.
const ValidDocument = `{"mls":"Hermosa casa en zona residencial.","posts":["Post IG","Post FB","Post LinkedIn"],"email":"Estimado comprador...","video":"Escena 1: fachada."}`

// TestConfig returns a client configuration pointing at baseURL.
func TestConfig(baseURL string) providers.ClientConfig {
	return providers.ClientConfig{
		Name:    "groq",
		BaseURL: baseURL,
		APIKey:  "test-api-key",
		Timeout: 5 * time.Second,
	}
}

// TestRequest returns a generation request with the required fields set.
func TestRequest() *providers.GenerationRequest {
	return &providers.GenerationRequest{
		Address:      "Calle Roble 42, Guadalajara",
		Price:        "3,200,000 MXN",
		PropertyType: "departamento",
		Bedrooms:     "3",
		Tone:         plans.ToneFamily,
	}
}

// AssertErrorAs fails the test unless err matches target with errors.As.
func AssertErrorAs(t *testing.T, err error, target any) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected error of type %T, got nil", target)
	}
	if !errors.As(err, target) {
		t.Fatalf("expected error of type %T, got %T: %v", target, err, err)
	}
}

// AssertUpstream fails the test unless err wraps providers.ErrUpstream.
func AssertUpstream(t *testing.T, err error) {
	t.Helper()
	if !errors.Is(err, providers.ErrUpstream) {
		t.Fatalf("expected upstream error, got %v", err)
	}
}
