// Package metrics provides Prometheus metrics for the scouting warehouse.
package metrics

import (
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager owns every collector exported by the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          bool
	customLabels     map[string]string
	registry         prometheus.Registerer

	// Build pipeline
	buildsTotal   *prometheus.CounterVec
	stageDuration *prometheus.HistogramVec
	stageFailures *prometheus.CounterVec
	tableRows     *prometheus.GaugeVec

	// HTML extraction
	scrapeRegions        prometheus.Counter
	scrapeTablesParsed   prometheus.Counter
	scrapeParseFailures  prometheus.Counter
	scrapeSelectFallback prometheus.Counter
	coercionNulls        prometheus.Counter

	// HTTP read API
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	errorRateByEndpoint *prometheus.CounterVec
}

// global pairs the singleton manager with the registry it registers on.
type global struct {
	manager  *Manager
	registry *prometheus.Registry
}

var current atomic.Pointer[global] //nolint:gochecknoglobals // singleton metrics manager

func init() { //nolint:gochecknoinits // global metrics setup
	Configure()
}

// Configure replaces the global manager with one built from opts on a fresh
// registry. Call it at startup, before any handler captures GetRegistry.
func Configure(opts ...Option) {
	reg := prometheus.NewRegistry()
	m := NewManager(append(opts, WithPrometheusRegistry(reg))...)
	current.Store(&global{manager: m, registry: reg})
}

func globalManager() *Manager { return current.Load().manager }

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "scout",
		subsystem:        "warehouse",
		histogramBuckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000, 10000, 30000},
		enabled:          true,
		customLabels:     make(map[string]string),
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

func (m *Manager) initializeMetrics() { //nolint:funlen // one place for every collector
	auto := promauto.With(m.registry)
	labels := prometheus.Labels(m.customLabels)

	m.buildsTotal = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "builds_total",
		Help:        "Warehouse builds by result (success, failure)",
		ConstLabels: labels,
	}, []string{"result"})

	m.stageDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "stage_duration_milliseconds",
		Help:        "Duration of each pipeline stage in milliseconds",
		Buckets:     m.histogramBuckets,
		ConstLabels: labels,
	}, []string{"stage"})

	m.stageFailures = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "stage_failures_total",
		Help:        "Pipeline stages that aborted a build",
		ConstLabels: labels,
	}, []string{"stage"})

	m.tableRows = auto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "table_rows",
		Help:        "Row count of each materialized warehouse table after the last build",
		ConstLabels: labels,
	}, []string{"table"})

	m.scrapeRegions = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "scrape_regions_total",
		Help:        "Table regions discovered in scraped documents, visible and comment-hidden",
		ConstLabels: labels,
	})

	m.scrapeTablesParsed = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "scrape_tables_parsed_total",
		Help:        "Candidate tables parsed from discovered regions",
		ConstLabels: labels,
	})

	m.scrapeParseFailures = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "scrape_parse_failures_total",
		Help:        "Regions skipped because they did not parse",
		ConstLabels: labels,
	})

	m.scrapeSelectFallback = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "scrape_select_fallback_total",
		Help:        "Selections that fell back to the largest table because no Player column existed",
		ConstLabels: labels,
	})

	m.coercionNulls = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "numeric_coercion_nulls_total",
		Help:        "Cells of allow-listed numeric columns that could not be parsed and became null",
		ConstLabels: labels,
	})

	m.httpRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "http_requests_total",
		Help:        "Total number of HTTP requests by endpoint and method",
		ConstLabels: labels,
	}, []string{"endpoint", "method", "status_code"})

	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "http_request_duration_milliseconds",
		Help:        "HTTP request duration in milliseconds",
		Buckets:     m.histogramBuckets,
		ConstLabels: labels,
	}, []string{"endpoint", "method", "status_code"})

	m.errorRateByEndpoint = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "errors_by_endpoint_total",
		Help:        "HTTP errors by endpoint, method and error type",
		ConstLabels: labels,
	}, []string{"endpoint", "method", "error_type"})
}

// RecordBuild counts a finished build.
func (m *Manager) RecordBuild(success bool) {
	if !m.enabled {
		return
	}
	result := "success"
	if !success {
		result = "failure"
	}
	m.buildsTotal.WithLabelValues(result).Inc()
}

// RecordStageDuration observes the duration of one pipeline stage.
func (m *Manager) RecordStageDuration(stage string, durationMs float64) {
	if !m.enabled {
		return
	}
	m.stageDuration.WithLabelValues(stage).Observe(durationMs)
}

// RecordStageFailure counts a stage that aborted a build.
func (m *Manager) RecordStageFailure(stage string) {
	if !m.enabled {
		return
	}
	m.stageFailures.WithLabelValues(stage).Inc()
}

// SetTableRows publishes the row count of a materialized table.
func (m *Manager) SetTableRows(table string, rows int64) {
	if !m.enabled {
		return
	}
	m.tableRows.WithLabelValues(table).Set(float64(rows))
}

// RecordScrapeRegions adds discovered table regions.
func (m *Manager) RecordScrapeRegions(n int) {
	if !m.enabled {
		return
	}
	m.scrapeRegions.Add(float64(n))
}

// RecordTablesParsed adds parsed candidate tables.
func (m *Manager) RecordTablesParsed(n int) {
	if !m.enabled {
		return
	}
	m.scrapeTablesParsed.Add(float64(n))
}

// RecordParseFailure counts a skipped region.
func (m *Manager) RecordParseFailure() {
	if !m.enabled {
		return
	}
	m.scrapeParseFailures.Inc()
}

// RecordSelectFallback counts a size-only table selection.
func (m *Manager) RecordSelectFallback() {
	if !m.enabled {
		return
	}
	m.scrapeSelectFallback.Inc()
}

// RecordCoercionNulls adds cells nulled by numeric coercion.
func (m *Manager) RecordCoercionNulls(n int) {
	if !m.enabled || n <= 0 {
		return
	}
	m.coercionNulls.Add(float64(n))
}

// RecordHTTPRequest records an HTTP request.
func (m *Manager) RecordHTTPRequest(endpoint, method, statusCode string, durationMs float64) {
	if !m.enabled {
		return
	}
	m.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
	m.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(durationMs)
}

// RecordErrorByEndpoint records an HTTP error with endpoint, method and type labels.
func (m *Manager) RecordErrorByEndpoint(endpoint, method, errorType string) {
	if !m.enabled {
		return
	}
	m.errorRateByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// Package-level helpers forward to the global manager.

// RecordBuild counts a finished build on the global manager.
func RecordBuild(success bool) { globalManager().RecordBuild(success) }

// RecordStageDuration observes a stage duration on the global manager.
func RecordStageDuration(stage string, durationMs float64) {
	globalManager().RecordStageDuration(stage, durationMs)
}

// RecordStageFailure counts a failed stage on the global manager.
func RecordStageFailure(stage string) { globalManager().RecordStageFailure(stage) }

// SetTableRows publishes a table row count on the global manager.
func SetTableRows(table string, rows int64) { globalManager().SetTableRows(table, rows) }

// RecordScrapeRegions adds discovered regions on the global manager.
func RecordScrapeRegions(n int) { globalManager().RecordScrapeRegions(n) }

// RecordTablesParsed adds parsed tables on the global manager.
func RecordTablesParsed(n int) { globalManager().RecordTablesParsed(n) }

// RecordParseFailure counts a skipped region on the global manager.
func RecordParseFailure() { globalManager().RecordParseFailure() }

// RecordSelectFallback counts a size-only selection on the global manager.
func RecordSelectFallback() { globalManager().RecordSelectFallback() }

// RecordCoercionNulls adds nulled cells on the global manager.
func RecordCoercionNulls(n int) { globalManager().RecordCoercionNulls(n) }

// RecordHTTPRequest records an HTTP request on the global manager.
func RecordHTTPRequest(endpoint, method, statusCode string, durationMs float64) {
	globalManager().RecordHTTPRequest(endpoint, method, statusCode, durationMs)
}

// RecordErrorByEndpoint records an HTTP error on the global manager.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	globalManager().RecordErrorByEndpoint(endpoint, method, errorType)
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return current.Load().registry
}
