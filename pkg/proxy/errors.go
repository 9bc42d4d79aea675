package proxy

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"listingforge/gateway/pkg/providers"
	"listingforge/gateway/pkg/proxy/types"
	"listingforge/gateway/pkg/quota"
	"listingforge/gateway/pkg/security/auth"
	"listingforge/gateway/pkg/usage"
)

// RequestError is a client input error answered with 400.
type RequestError struct {
	Message string
	Code    string
	Fields  []string
}

// Error implements the error interface.
func (e *RequestError) Error() string {
	if len(e.Fields) > 0 {
		return fmt.Sprintf("%s (%s)", e.Message, strings.Join(e.Fields, ", "))
	}
	return e.Message
}

// ToErrorResponse converts the error to a 400 response.
func (e *RequestError) ToErrorResponse() *types.ErrorResponse {
	return types.NewErrorResponse(http.StatusBadRequest, e.Message, e.Code)
}

// HandleError maps a pipeline error to the response sent to the client.
//
// Example usage:
//
//	if err != nil {
//	    WriteErrorResponse(w, HandleError(err))
//	    return
//	}
func HandleError(err error) *types.ErrorResponse {
	var reqErr *RequestError
	if errors.As(err, &reqErr) {
		return reqErr.ToErrorResponse()
	}

	if errors.Is(err, auth.ErrMissingToken) || errors.Is(err, auth.ErrInvalidToken) ||
		errors.Is(err, auth.ErrExpiredToken) || errors.Is(err, auth.ErrMissingSubject) ||
		errors.Is(err, quota.ErrInvalidAccount) {
		return types.NewErrorResponse(http.StatusUnauthorized, auth.Message(err), types.CodeUnauthorized)
	}

	var quotaErr *quota.QuotaExceededError
	if errors.As(err, &quotaErr) {
		resp := types.NewErrorResponse(
			http.StatusTooManyRequests,
			fmt.Sprintf(types.MessageQuotaExceeded, quotaErr.Limit, strings.ToUpper(quotaErr.Plan.String())),
			types.CodeQuotaExceeded,
		)
		resp.QuotaDetails = &types.QuotaDetails{
			Upgrade: true,
			Plan:    quotaErr.Plan.String(),
			Used:    quotaErr.Used,
			Limit:   quotaErr.Limit,
		}
		return resp
	}

	if errors.Is(err, quota.ErrProfileNotFound) {
		return types.NewErrorResponse(http.StatusNotFound, types.MessageProfileNotFound, types.CodeProfileNotFound)
	}

	if errors.Is(err, providers.ErrUpstream) {
		return types.NewErrorResponse(http.StatusInternalServerError, types.MessageInternal, types.CodeUpstreamError)
	}

	if errors.Is(err, usage.ErrPersistence) {
		return types.NewErrorResponse(http.StatusInternalServerError, types.MessageInternal, types.CodePersistenceError)
	}

	return types.NewServerError()
}
