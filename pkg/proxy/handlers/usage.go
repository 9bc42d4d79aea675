package handlers

import (
	"log/slog"
	"net/http"

	"listingforge/gateway/pkg/proxy"
	"listingforge/gateway/pkg/proxy/types"
	"listingforge/gateway/pkg/quota"
)

// UsageHandler serves GET /usage.
type UsageHandler struct {
	gate *quota.Gate
}

// NewUsageHandler creates the usage handler.
func NewUsageHandler(gate *quota.Gate) *UsageHandler {
	return &UsageHandler{gate: gate}
}

// ServeHTTP implements http.Handler. Reading usage applies a pending period
// reset, so a caller whose period lapsed sees zero usage.
func (h *UsageHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}
	accountID, ok := requireAccount(w, r)
	if !ok {
		return
	}

	profile, err := h.gate.Snapshot(r.Context(), accountID)
	if err != nil {
		slog.ErrorContext(r.Context(), "usage lookup failed",
			"account_id", accountID,
			"error", err,
		)
		writeError(w, r, proxy.HandleError(err))
		return
	}

	plan := h.gate.Plans().Plan(profile.Plan)
	writeJSON(w, r, http.StatusOK, types.UsageResponse{
		Plan:      plan.Tier.String(),
		PlanLabel: plan.Label,
		Listings:  types.Counter{Used: profile.ListingsUsed, Limit: plan.Limits.Listings},
		Leads:     types.Counter{Used: profile.LeadsUsed, Limit: plan.Limits.Leads},
		ResetsAt:  h.gate.Period().NextReset(profile).UTC(),
	})
}
