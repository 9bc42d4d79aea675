package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"listingforge/gateway/pkg/config"
	"listingforge/gateway/pkg/providers"
)

// ProviderMetrics tracks generation attempts and upstream provider health.
type ProviderMetrics struct {
	namespace string
	registry  prometheus.Registerer

	// Generation attempts by outcome
	generations *prometheus.CounterVec

	// Upstream latency histogram
	latency *prometheus.HistogramVec
}

// NewProviderMetrics creates and registers provider metrics with the provided registry.
func NewProviderMetrics(cfg *config.MetricsConfig, registry prometheus.Registerer) *ProviderMetrics {
	pm := &ProviderMetrics{
		namespace: cfg.Namespace,
		registry:  registry,

		generations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: "generation",
				Name:      "requests_total",
				Help:      "Generation attempts by provider and outcome",
			},
			[]string{"provider", "outcome"},
		),

		latency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: "generation",
				Name:      "duration_seconds",
				Help:      "Upstream generation latency in seconds",
				Buckets:   cfg.GenerationDurationBuckets,
			},
			[]string{"provider"},
		),
	}

	registry.MustRegister(
		pm.generations,
		pm.latency,
	)

	return pm
}

// RecordGeneration records one generation attempt.
func (pm *ProviderMetrics) RecordGeneration(provider, outcome string, latency time.Duration) {
	pm.generations.WithLabelValues(provider, outcome).Inc()
	pm.latency.WithLabelValues(provider).Observe(latency.Seconds())
}

// Track registers a collector that reads client's passive health at
// scrape time, so the gauges never go stale between generations.
//
// Metrics:
//   - <ns>_provider_health: 1=healthy, 0=unhealthy
//   - <ns>_provider_consecutive_failures: failures since the last success
func (pm *ProviderMetrics) Track(client providers.Client) {
	labels := prometheus.Labels{"provider": client.Name()}
	pm.registry.MustRegister(&healthCollector{
		client: client,
		healthy: prometheus.NewDesc(
			prometheus.BuildFQName(pm.namespace, "provider", "health"),
			"Provider health status (1=healthy, 0=unhealthy)",
			nil, labels,
		),
		failures: prometheus.NewDesc(
			prometheus.BuildFQName(pm.namespace, "provider", "consecutive_failures"),
			"Consecutive upstream failures since the last success",
			nil, labels,
		),
	})
}

type healthCollector struct {
	client   providers.Client
	healthy  *prometheus.Desc
	failures *prometheus.Desc
}

func (h *healthCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- h.healthy
	ch <- h.failures
}

func (h *healthCollector) Collect(ch chan<- prometheus.Metric) {
	health := h.client.Health()

	value := 0.0
	if health.IsHealthy {
		value = 1.0
	}
	ch <- prometheus.MustNewConstMetric(h.healthy, prometheus.GaugeValue, value)
	ch <- prometheus.MustNewConstMetric(h.failures, prometheus.GaugeValue, float64(health.ConsecutiveFailures))
}
