package types

import (
	"net/http"

	"listingforge/gateway/pkg/sanitizer"
)

// Client-facing messages.
const (
	MessageMissingFields    = "Dirección y precio son requeridos."
	MessageInvalidJSON      = "Solicitud inválida."
	MessageRequestTooLarge  = "La solicitud es demasiado grande."
	MessageQuotaExceeded    = "Has alcanzado tu límite de %d listings este mes en el plan %s."
	MessageInternal         = "Error interno del servidor."
	MessageMethodNotAllowed = "Método no permitido"
	MessageProfileNotFound  = "Perfil no encontrado."
	MessageTooManyRequests  = "Demasiadas solicitudes."
	MessageUnavailable      = "Servicio no disponible."
)

// Error codes.
const (
	CodeMissingField     = "missing_field"
	CodeInvalidJSON      = "invalid_json"
	CodeInvalidParameter = "invalid_parameter"
	CodeRequestTooLarge  = "request_too_large"
	CodeUnauthorized     = "unauthorized"
	CodeQuotaExceeded    = "quota_exceeded"
	CodeRateLimited      = "rate_limited"
	CodeProfileNotFound  = "profile_not_found"
	CodeMethodNotAllowed = "method_not_allowed"
	CodeUpstreamError    = "upstream_error"
	CodePersistenceError = "persistence_error"
	CodeInternalError    = "internal_error"
)

// ErrorResponse is the body of every error answer.
type ErrorResponse struct {
	// Message is the human-readable error, serialized as "error".
	Message string `json:"error"`

	// Code is a machine-readable error code.
	Code string `json:"code,omitempty"`

	// QuotaDetails is inlined on 429 quota answers.
	*QuotaDetails

	// Content carries a generated document that was produced but could not
	// be recorded.
	Content *sanitizer.Content `json:"content,omitempty"`

	// Status is the HTTP status code to answer with.
	Status int `json:"-"`
}

// QuotaDetails tells the client which plan ran out and invites an upgrade.
type QuotaDetails struct {
	Upgrade bool   `json:"upgrade"`
	Plan    string `json:"plan"`
	Used    int    `json:"used"`
	Limit   int    `json:"limit"`
}

// HTTPStatusCode returns the status for the response, 500 when unset.
func (e *ErrorResponse) HTTPStatusCode() int {
	if e.Status == 0 {
		return http.StatusInternalServerError
	}
	return e.Status
}

// NewErrorResponse creates an error response.
func NewErrorResponse(status int, message, code string) *ErrorResponse {
	return &ErrorResponse{
		Message: message,
		Code:    code,
		Status:  status,
	}
}

// NewServerError creates a generic 500 response.
func NewServerError() *ErrorResponse {
	return NewErrorResponse(http.StatusInternalServerError, MessageInternal, CodeInternalError)
}

// NewMethodNotAllowedError creates a 405 response.
func NewMethodNotAllowedError() *ErrorResponse {
	return NewErrorResponse(http.StatusMethodNotAllowed, MessageMethodNotAllowed, CodeMethodNotAllowed)
}

// NewTooManyRequestsError creates a 429 response for request pacing.
func NewTooManyRequestsError() *ErrorResponse {
	return NewErrorResponse(http.StatusTooManyRequests, MessageTooManyRequests, CodeRateLimited)
}
