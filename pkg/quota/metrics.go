package quota

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics contains Prometheus collectors for quota decisions.
type Metrics struct {
	reservations *prometheus.CounterVec
	resets       prometheus.Counter
	storageErrs  *prometheus.CounterVec
}

// NewMetrics registers quota collectors with reg.
// A nil registerer yields working but unregistered collectors.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		reservations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "listingforge_quota_reservations_total",
				Help: "Quota reservation outcomes by plan",
			},
			[]string{"plan", "outcome"},
		),
		resets: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "listingforge_quota_period_resets_total",
				Help: "Billing periods reset lazily on access",
			},
		),
		storageErrs: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "listingforge_quota_storage_errors_total",
				Help: "Quota store failures by operation",
			},
			[]string{"op"},
		),
	}
}

// Outcome labels for listingforge_quota_reservations_total.
const (
	OutcomeGranted   = "granted"
	OutcomeDenied    = "denied"
	OutcomeCommitted = "committed"
	OutcomeReleased  = "released"
)

func (m *Metrics) recordOutcome(plan, outcome string) {
	if m == nil {
		return
	}
	m.reservations.WithLabelValues(plan, outcome).Inc()
}

func (m *Metrics) recordReset() {
	if m == nil {
		return
	}
	m.resets.Inc()
}

func (m *Metrics) recordStorageError(op string) {
	if m == nil {
		return
	}
	m.storageErrs.WithLabelValues(op).Inc()
}
