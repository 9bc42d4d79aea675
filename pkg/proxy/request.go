package proxy

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"listingforge/gateway/pkg/plans"
	"listingforge/gateway/pkg/providers"
	"listingforge/gateway/pkg/proxy/types"
)

const (
	// MaxRequestBodySize is the maximum accepted request body (64KB).
	MaxRequestBodySize = 64 * 1024

	// RequestIDHeader is the HTTP header for request ID propagation.
	RequestIDHeader = "X-Request-ID"
)

// ParseGenerateRequest decodes and validates a POST /generate body.
// The tone is normalized so unknown tones become the professional tone.
func ParseGenerateRequest(r *http.Request) (*types.GenerateRequest, error) {
	body, err := io.ReadAll(io.LimitReader(r.Body, MaxRequestBodySize+1))
	if err != nil {
		return nil, &RequestError{Message: types.MessageInvalidJSON, Code: types.CodeInvalidJSON}
	}
	if len(body) > MaxRequestBodySize {
		return nil, &RequestError{Message: types.MessageRequestTooLarge, Code: types.CodeRequestTooLarge}
	}

	var req types.GenerateRequest
	if len(body) > 0 {
		if err := json.Unmarshal(body, &req); err != nil {
			return nil, &RequestError{Message: types.MessageInvalidJSON, Code: types.CodeInvalidJSON}
		}
	}

	if err := req.Validate(); err != nil {
		var valErr *providers.ValidationError
		if errors.As(err, &valErr) {
			return nil, &RequestError{
				Message: types.MessageMissingFields,
				Code:    types.CodeMissingField,
				Fields:  valErr.Fields,
			}
		}
		return nil, err
	}

	req.Tone = plans.ParseTone(req.Tone.String())
	return &req, nil
}
