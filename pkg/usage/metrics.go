package usage

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics contains Prometheus collectors for the recorder.
type Metrics struct {
	recorded            prometheus.Counter
	persistenceFailures prometheus.Counter
	fallbacks           prometheus.Counter
}

// NewMetrics registers usage collectors with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		recorded: factory.NewCounter(prometheus.CounterOpts{
			Name: "listingforge_usage_listings_recorded_total",
			Help: "Listings committed and persisted",
		}),
		persistenceFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "listingforge_usage_persistence_failures_total",
			Help: "Listings charged to an account but not persisted",
		}),
		fallbacks: factory.NewCounter(prometheus.CounterOpts{
			Name: "listingforge_usage_fallback_listings_total",
			Help: "Listings recorded with placeholder content",
		}),
	}
}

func (m *Metrics) recordSuccess(fallback bool) {
	if m == nil {
		return
	}
	m.recorded.Inc()
	if fallback {
		m.fallbacks.Inc()
	}
}

func (m *Metrics) recordPersistenceFailure() {
	if m == nil {
		return
	}
	m.persistenceFailures.Inc()
}
