package handlers

import (
	"log/slog"
	"net/http"

	"listingforge/gateway/pkg/proxy"
	"listingforge/gateway/pkg/proxy/middleware"
	"listingforge/gateway/pkg/proxy/types"
	"listingforge/gateway/pkg/security/auth"
)

// writeError writes errResp and logs if the client went away mid-write.
func writeError(w http.ResponseWriter, r *http.Request, errResp *types.ErrorResponse) {
	if err := proxy.WriteErrorResponse(w, errResp); err != nil {
		slog.ErrorContext(r.Context(), "failed to write error response",
			"request_id", middleware.GetRequestID(r.Context()),
			"error", err,
		)
	}
}

// writeJSON writes a success body.
func writeJSON(w http.ResponseWriter, r *http.Request, status int, body any) {
	if err := proxy.WriteJSONResponse(w, status, body); err != nil {
		slog.ErrorContext(r.Context(), "failed to write response",
			"request_id", middleware.GetRequestID(r.Context()),
			"error", err,
		)
	}
}

// requireMethod answers 405 unless r uses method.
func requireMethod(w http.ResponseWriter, r *http.Request, method string) bool {
	if r.Method == method {
		return true
	}
	w.Header().Set("Allow", method)
	writeError(w, r, types.NewMethodNotAllowedError())
	return false
}

// requireAccount returns the authenticated account, or answers 401.
func requireAccount(w http.ResponseWriter, r *http.Request) (string, bool) {
	accountID := auth.AccountID(r.Context())
	if accountID == "" {
		writeError(w, r, proxy.HandleError(auth.ErrMissingToken))
		return "", false
	}
	return accountID, true
}
