// Package metrics provides Prometheus metrics for the maistats explorer.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Latency buckets in milliseconds.
var defaultBuckets = []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000, 10000, 30000}

// Label values.
const (
	OutcomeReady      = "ready"
	OutcomeFailed     = "failed"
	OutcomeCancelled  = "cancelled"
	OutcomeResolved   = "resolved"
	OutcomeUnresolved = "unresolved"
	OutcomeOK         = "ok"

	KindScores   = "scores"
	KindPlaylogs = "playlogs"
)

// Manager holds every metric of the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	constLabels      prometheus.Labels
	registry         prometheus.Registerer

	// Upstream provider calls
	gatewayRequests *prometheus.CounterVec
	gatewayLatency  *prometheus.HistogramVec

	// Metadata resolution
	resolverTitles   *prometheus.CounterVec
	resolverWorkers  prometheus.Gauge
	metadataDone     prometheus.Gauge
	metadataTotal    prometheus.Gauge
	resolverDuration prometheus.Histogram

	// Session
	refreshCycles   *prometheus.CounterVec
	refreshDuration prometheus.Histogram
	rows            *prometheus.GaugeVec
	detailLookups   *prometheus.CounterVec

	// Query engine
	queryLatency *prometheus.HistogramVec

	// HTTP surface
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
}

var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // metrics registry

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithRegisterer(customRegistry))
}

// NewManager creates a metrics manager and registers its metrics.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "maistats",
		subsystem:        "explorer",
		histogramBuckets: defaultBuckets,
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) counterVec(name, help string, labels ...string) *prometheus.CounterVec {
	return promauto.With(m.registry).NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.constLabels,
	}, labels)
}

func (m *Manager) gauge(name, help string) prometheus.Gauge {
	return promauto.With(m.registry).NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.constLabels,
	})
}

func (m *Manager) histogramOpts(name, help string) prometheus.HistogramOpts {
	return prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.constLabels,
		Buckets:     m.histogramBuckets,
	}
}

func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	m.gatewayRequests = m.counterVec("gateway_requests_total",
		"Upstream provider requests by endpoint and status class", "endpoint", "status_class")
	m.gatewayLatency = auto.NewHistogramVec(m.histogramOpts("gateway_request_duration_milliseconds",
		"Upstream provider request latency in milliseconds"), []string{"endpoint"})

	m.resolverTitles = m.counterVec("resolver_titles_total",
		"Titles processed by the metadata resolver by outcome", "outcome")
	m.resolverWorkers = m.gauge("resolver_workers", "Metadata resolver workers currently running")
	m.metadataDone = m.gauge("metadata_progress_done", "Titles finished in the current resolution")
	m.metadataTotal = m.gauge("metadata_progress_total", "Titles in the current resolution")
	m.resolverDuration = auto.NewHistogram(m.histogramOpts("resolver_duration_milliseconds",
		"Duration of one metadata resolution batch in milliseconds"))

	m.refreshCycles = m.counterVec("refresh_cycles_total", "Refresh cycles by outcome", "outcome")
	m.refreshDuration = auto.NewHistogram(m.histogramOpts("refresh_duration_milliseconds",
		"Duration of completed refresh cycles in milliseconds"))
	m.rows = auto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "rows",
		Help:        "Derived rows in the current snapshot by kind",
		ConstLabels: m.constLabels,
	}, []string{"kind"})
	m.detailLookups = m.counterVec("detail_lookups_total", "Song detail lookups by outcome", "outcome")

	m.queryLatency = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "query_duration_milliseconds",
		Help:        "Filter and sort latency in milliseconds by row kind",
		ConstLabels: m.constLabels,
		Buckets:     []float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100},
	}, []string{"kind"})

	m.httpRequests = m.counterVec("http_requests_total",
		"HTTP requests by endpoint, method and status code", "endpoint", "method", "status_code")
	m.httpRequestDuration = auto.NewHistogramVec(m.histogramOpts("http_request_duration_milliseconds",
		"HTTP request duration in milliseconds"), []string{"endpoint", "method", "status_code"})
}

// RecordGatewayRequest records one upstream call.
func RecordGatewayRequest(endpoint, statusClass string, latencyMs float64) {
	globalManager.gatewayRequests.WithLabelValues(endpoint, statusClass).Inc()
	globalManager.gatewayLatency.WithLabelValues(endpoint).Observe(latencyMs)
}

// RecordResolverTitle counts one resolved or unresolved title.
func RecordResolverTitle(outcome string) {
	globalManager.resolverTitles.WithLabelValues(outcome).Inc()
}

// AddResolverWorkers adjusts the running worker gauge.
func AddResolverWorkers(delta int) {
	globalManager.resolverWorkers.Add(float64(delta))
}

// UpdateMetadataProgress sets the resolution progress gauges.
func UpdateMetadataProgress(done, total int) {
	globalManager.metadataDone.Set(float64(done))
	globalManager.metadataTotal.Set(float64(total))
}

// RecordResolverDuration records the duration of one resolution.
func RecordResolverDuration(latencyMs float64) {
	globalManager.resolverDuration.Observe(latencyMs)
}

// RecordRefresh counts a finished refresh cycle. Duration is observed only for
// cycles that were not cancelled.
func RecordRefresh(outcome string, latencyMs float64) {
	globalManager.refreshCycles.WithLabelValues(outcome).Inc()
	if outcome != OutcomeCancelled {
		globalManager.refreshDuration.Observe(latencyMs)
	}
}

// UpdateRows sets the row count gauge for a kind.
func UpdateRows(kind string, count int) {
	globalManager.rows.WithLabelValues(kind).Set(float64(count))
}

// RecordDetailLookup counts a finished detail lookup.
func RecordDetailLookup(outcome string) {
	globalManager.detailLookups.WithLabelValues(outcome).Inc()
}

// RecordQueryLatency records one filter and sort pass.
func RecordQueryLatency(kind string, latencyMs float64) {
	globalManager.queryLatency.WithLabelValues(kind).Observe(latencyMs)
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// StatusClass buckets an HTTP status code as "2xx", "4xx" and so on; 0 is "error".
func StatusClass(code int) string {
	if code <= 0 {
		return "error"
	}
	return string(rune('0'+code/100)) + "xx"
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
