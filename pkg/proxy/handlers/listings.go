package handlers

import (
	"log/slog"
	"net/http"
	"strconv"

	"listingforge/gateway/pkg/proxy"
	"listingforge/gateway/pkg/proxy/types"
	"listingforge/gateway/pkg/usage"
)

// ListingsHandler serves GET /listings?limit=N.
type ListingsHandler struct {
	recorder *usage.Recorder
}

// NewListingsHandler creates the listings handler.
func NewListingsHandler(recorder *usage.Recorder) *ListingsHandler {
	return &ListingsHandler{recorder: recorder}
}

// ServeHTTP implements http.Handler.
func (h *ListingsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}
	accountID, ok := requireAccount(w, r)
	if !ok {
		return
	}

	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, r, proxy.HandleError(&proxy.RequestError{
				Message: types.MessageInvalidJSON,
				Code:    types.CodeInvalidParameter,
				Fields:  []string{"limit"},
			}))
			return
		}
		limit = n
	}

	listings, err := h.recorder.History(r.Context(), accountID, limit)
	if err != nil {
		slog.ErrorContext(r.Context(), "listing history failed",
			"account_id", accountID,
			"error", err,
		)
		writeError(w, r, proxy.HandleError(err))
		return
	}

	resp := types.ListingsResponse{Listings: make([]types.ListingSummary, 0, len(listings))}
	for _, l := range listings {
		resp.Listings = append(resp.Listings, types.ListingSummary{
			ID:           l.ID,
			Address:      l.Address,
			Price:        l.Price,
			PropertyType: l.PropertyType,
			Tone:         l.Tone,
			Content:      l.Content,
			CreatedAt:    l.CreatedAt,
		})
	}
	writeJSON(w, r, http.StatusOK, resp)
}
