package types

import "listingforge/gateway/pkg/providers"

// GenerateRequest is the POST /generate body:
// {address, price, type?, beds?, baths?, sqft?, year?, features?, tone?}.
type GenerateRequest = providers.GenerationRequest
