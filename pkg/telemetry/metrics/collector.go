package metrics

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"listingforge/gateway/pkg/config"
	"listingforge/gateway/pkg/providers"
)

// DefaultMaxPathCardinality bounds the distinct path labels recorded.
const DefaultMaxPathCardinality = 64

// otherLabel replaces label values past the cardinality limit.
const otherLabel = "other"

// Collector owns the gateway's Prometheus registry and the HTTP and
// generation collectors registered in it.
type Collector struct {
	config   *config.MetricsConfig
	registry *prometheus.Registry

	requestMetrics  *RequestMetrics
	providerMetrics *ProviderMetrics

	pathLimiter *CardinalityLimiter
}

// NewCollector creates a collector. If registry is nil a fresh registry
// is created. Empty namespace and bucket fields take the config defaults.
func NewCollector(cfg *config.MetricsConfig, registry *prometheus.Registry) *Collector {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	if cfg.Namespace == "" {
		cfg.Namespace = config.DefaultMetricsNamespace
	}
	if len(cfg.RequestDurationBuckets) == 0 {
		cfg.RequestDurationBuckets = []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 15, 30, 60}
	}
	if len(cfg.GenerationDurationBuckets) == 0 {
		cfg.GenerationDurationBuckets = []float64{0.5, 1, 2, 5, 10, 20, 30, 60}
	}

	return &Collector{
		config:          cfg,
		registry:        registry,
		requestMetrics:  NewRequestMetrics(cfg, registry),
		providerMetrics: NewProviderMetrics(cfg, registry),
		pathLimiter:     NewCardinalityLimiter(DefaultMaxPathCardinality),
	}
}

// ObserveRequest records a completed HTTP request.
func (c *Collector) ObserveRequest(method, path string, status int, latency time.Duration) {
	if !c.config.Enabled {
		return
	}

	if !c.pathLimiter.Allow(path) {
		path = otherLabel
	}
	c.requestMetrics.RecordRequest(method, path, strconv.Itoa(status), latency)
}

// ObserveGeneration records one generation attempt and its outcome.
func (c *Collector) ObserveGeneration(provider, outcome string, latency time.Duration) {
	if !c.config.Enabled {
		return
	}

	c.providerMetrics.RecordGeneration(provider, outcome, latency)
}

// TrackProvider publishes the passive health of client on every scrape.
func (c *Collector) TrackProvider(client providers.Client) {
	c.providerMetrics.Track(client)
}

// Registry returns the Prometheus registry used by this collector. Other
// packages register their collectors here.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// CardinalityLimiter prevents metric cardinality explosion by limiting
// the number of unique label values it admits.
type CardinalityLimiter struct {
	maxCardinality int
	current        map[string]struct{}
	mu             sync.RWMutex
}

// NewCardinalityLimiter creates a new cardinality limiter with the specified
// maximum cardinality.
func NewCardinalityLimiter(maxCardinality int) *CardinalityLimiter {
	return &CardinalityLimiter{
		maxCardinality: maxCardinality,
		current:        make(map[string]struct{}),
	}
}

// Allow reports whether value may be used as a label. Values seen before
// are always allowed; new values are admitted until the limit is reached.
func (cl *CardinalityLimiter) Allow(value string) bool {
	cl.mu.RLock()
	if _, exists := cl.current[value]; exists {
		cl.mu.RUnlock()
		return true
	}
	cl.mu.RUnlock()

	cl.mu.Lock()
	defer cl.mu.Unlock()

	// Double-check after acquiring write lock
	if _, exists := cl.current[value]; exists {
		return true
	}

	if len(cl.current) >= cl.maxCardinality {
		return false
	}

	cl.current[value] = struct{}{}
	return true
}

// Count returns the current cardinality.
func (cl *CardinalityLimiter) Count() int {
	cl.mu.RLock()
	defer cl.mu.RUnlock()
	return len(cl.current)
}
