package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"listingforge/gateway/pkg/providers"
	"listingforge/gateway/pkg/proxy"
	"listingforge/gateway/pkg/proxy/middleware"
	"listingforge/gateway/pkg/proxy/types"
	"listingforge/gateway/pkg/quota"
	"listingforge/gateway/pkg/sanitizer"
	"listingforge/gateway/pkg/usage"
)

// Generation outcomes reported to the GenerationObserver.
const (
	OutcomeSuccess          = "success"
	OutcomeFallback         = "fallback"
	OutcomeUpstreamError    = "upstream_error"
	OutcomePersistenceError = "persistence_error"
)

// GenerationObserver receives the outcome of each provider call that was
// admitted by the quota gate.
type GenerationObserver interface {
	ObserveGeneration(provider, outcome string, latency time.Duration)
}

// GenerateHandler serves POST /generate.
type GenerateHandler struct {
	gate     *quota.Gate
	client   providers.Client
	recorder *usage.Recorder
	observer GenerationObserver
}

// NewGenerateHandler creates the generation handler. observer may be nil.
func NewGenerateHandler(gate *quota.Gate, client providers.Client, recorder *usage.Recorder, observer GenerationObserver) *GenerateHandler {
	return &GenerateHandler{
		gate:     gate,
		client:   client,
		recorder: recorder,
		observer: observer,
	}
}

// ServeHTTP implements http.Handler.
func (h *GenerateHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}
	accountID, ok := requireAccount(w, r)
	if !ok {
		return
	}

	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)
	meta := proxy.ExtractRequestMetadata(r, requestID, accountID)

	req, err := proxy.ParseGenerateRequest(r)
	if err != nil {
		slog.InfoContext(ctx, "rejected generation request", append(meta.LogAttrs(), "error", err)...)
		writeError(w, r, proxy.HandleError(err))
		return
	}

	res, err := h.gate.TryReserve(ctx, accountID)
	if err != nil {
		var quotaErr *quota.QuotaExceededError
		if errors.As(err, &quotaErr) {
			slog.InfoContext(ctx, "quota exhausted", append(meta.LogAttrs(),
				"plan", quotaErr.Plan,
				"used", quotaErr.Used,
				"limit", quotaErr.Limit,
			)...)
		} else {
			slog.ErrorContext(ctx, "quota reservation failed", append(meta.LogAttrs(), "error", err)...)
		}
		writeError(w, r, proxy.HandleError(err))
		return
	}

	// Any path that leaves without committing, panics included, returns the unit.
	defer func() {
		if res.Pending() {
			_ = res.Release(ctx)
		}
	}()

	start := time.Now()
	raw, err := h.client.Generate(ctx, req)
	latency := time.Since(start)
	if err != nil {
		// The account is not charged for a generation it never received.
		_ = res.Release(ctx)
		h.observe(OutcomeUpstreamError, latency)
		slog.ErrorContext(ctx, "generation failed", append(meta.LogAttrs(),
			"provider", h.client.Name(),
			"latency_ms", latency.Milliseconds(),
			"error", err,
		)...)
		writeError(w, r, proxy.HandleError(err))
		return
	}

	content, report := sanitizer.ExtractWithReport(raw)
	if report.Fallback {
		slog.WarnContext(ctx, "provider reply was not valid JSON, using fallback content",
			append(meta.LogAttrs(), "narrowed", report.Narrowed, "fenced", report.Fenced)...)
	}

	listing, err := h.recorder.Commit(ctx, res, req, content,
		usage.WithRequestID(requestID),
		usage.WithFallback(report.Fallback),
	)
	if err != nil {
		h.observe(OutcomePersistenceError, latency)
		errResp := proxy.HandleError(err)
		if errors.Is(err, usage.ErrPersistence) {
			errResp.Content = &content
		}
		writeError(w, r, errResp)
		return
	}

	outcome := OutcomeSuccess
	if report.Fallback {
		outcome = OutcomeFallback
	}
	h.observe(outcome, latency)

	slog.InfoContext(ctx, "listing generated", append(meta.LogAttrs(),
		"listing_id", listing.ID,
		"plan", res.Plan,
		"used", res.Used,
		"limit", res.Limit,
		"latency_ms", latency.Milliseconds(),
	)...)

	writeJSON(w, r, http.StatusOK, types.GenerateResponse{
		Success: true,
		Content: content,
		Usage: types.UsageSummary{
			Used:  res.Used,
			Limit: res.Limit,
			Plan:  res.Plan.String(),
		},
		ListingID: listing.ID,
	})
}

func (h *GenerateHandler) observe(outcome string, latency time.Duration) {
	if h.observer != nil {
		h.observer.ObserveGeneration(h.client.Name(), outcome, latency)
	}
}
