// Package metrics provides Prometheus metrics for the jury evaluation service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Latency buckets in milliseconds; backend calls dominate request time.
var defaultBuckets = []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000, 10000} //nolint:gochecknoglobals

// Manager manages all Prometheus metrics for the jury service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	customLabels     map[string]string
	registry         prometheus.Registerer

	// Evaluation flow
	submissions         *prometheus.CounterVec
	submissionLatency   prometheus.Histogram
	validationFailures  *prometheus.CounterVec
	inflightSubmissions prometheus.Gauge
	draftsSaved         prometheus.Counter
	draftsDiscarded     prometheus.Counter
	draftsActive        prometheus.Gauge
	criteriaCache       *prometheus.CounterVec

	// Review progress per event and judge
	reviewProgress      *prometheus.GaugeVec
	pendingApplications *prometheus.GaugeVec
	reviewedApps        *prometheus.GaugeVec
	progressRefreshes   *prometheus.CounterVec

	// Backend API
	backendRequests *prometheus.CounterVec
	backendLatency  *prometheus.HistogramVec

	// Exports
	exports *prometheus.CounterVec

	// HTTP Performance Metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	errorRateByEndpoint *prometheus.CounterVec

	// System Performance Metrics
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

// Initialize global metrics.
func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "jury",
		subsystem:        "evaluation",
		histogramBuckets: defaultBuckets,
		customLabels:     make(map[string]string),
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

func (m *Manager) counterOpts(name, help string) prometheus.CounterOpts {
	return prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.customLabels,
	}
}

func (m *Manager) gaugeOpts(name, help string) prometheus.GaugeOpts {
	return prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.customLabels,
	}
}

func (m *Manager) histogramOpts(name, help string) prometheus.HistogramOpts {
	return prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		Buckets:     m.histogramBuckets,
		ConstLabels: m.customLabels,
	}
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() { //nolint:funlen // long function required for comprehensive metrics initialization
	auto := promauto.With(m.registry)

	m.submissions = auto.NewCounterVec(
		m.counterOpts("submissions_total", "Evaluation submissions by outcome"),
		[]string{"outcome"},
	)
	m.submissionLatency = auto.NewHistogram(
		m.histogramOpts("submission_latency_milliseconds", "End-to-end submission latency in milliseconds"),
	)
	m.validationFailures = auto.NewCounterVec(
		m.counterOpts("validation_failures_total", "Rejected judge input by reason"),
		[]string{"reason"},
	)
	m.inflightSubmissions = auto.NewGauge(
		m.gaugeOpts("inflight_submissions", "Submissions currently waiting on the backend"),
	)
	m.draftsSaved = auto.NewCounter(
		m.counterOpts("drafts_saved_total", "Draft writes (score or comment changes)"),
	)
	m.draftsDiscarded = auto.NewCounter(
		m.counterOpts("drafts_discarded_total", "Drafts dropped by the judge"),
	)
	m.draftsActive = auto.NewGauge(
		m.gaugeOpts("drafts_active", "Drafts currently held in the draft store"),
	)
	m.criteriaCache = auto.NewCounterVec(
		m.counterOpts("criteria_cache_total", "Criteria cache lookups by result"),
		[]string{"result"},
	)

	m.reviewProgress = auto.NewGaugeVec(
		m.gaugeOpts("review_progress_percent", "Share of applications reviewed by a judge"),
		[]string{"event", "judge"},
	)
	m.pendingApplications = auto.NewGaugeVec(
		m.gaugeOpts("pending_applications", "Applications without a final score"),
		[]string{"event", "judge"},
	)
	m.reviewedApps = auto.NewGaugeVec(
		m.gaugeOpts("reviewed_applications", "Applications with a final score"),
		[]string{"event", "judge"},
	)
	m.progressRefreshes = auto.NewCounterVec(
		m.counterOpts("progress_refreshes_total", "Periodic progress refresh runs by outcome"),
		[]string{"outcome"},
	)

	m.backendRequests = auto.NewCounterVec(
		m.counterOpts("backend_requests_total", "Backend API calls by operation and outcome"),
		[]string{"op", "outcome"},
	)
	m.backendLatency = auto.NewHistogramVec(
		m.histogramOpts("backend_latency_milliseconds", "Backend API latency in milliseconds"),
		[]string{"op", "outcome"},
	)

	m.exports = auto.NewCounterVec(
		m.counterOpts("exports_total", "Result exports by kind and outcome"),
		[]string{"kind", "outcome"},
	)

	m.httpRequests = auto.NewCounterVec(
		m.counterOpts("http_requests_total", "Total number of HTTP requests by endpoint and method"),
		[]string{"endpoint", "method", "status_code"},
	)
	m.httpRequestDuration = auto.NewHistogramVec(
		m.histogramOpts("http_request_duration_milliseconds", "HTTP request duration in milliseconds (user experience)"),
		[]string{"endpoint", "method", "status_code"},
	)
	m.errorRateByEndpoint = auto.NewCounterVec(
		m.counterOpts("errors_by_endpoint_total", "Errors by endpoint, method and error type"),
		[]string{"endpoint", "method", "error_type"},
	)

	m.systemMemoryUsage = auto.NewGauge(
		m.gaugeOpts("system_memory_bytes", "Heap memory in use"),
	)
	m.systemGoroutineCount = auto.NewGauge(
		m.gaugeOpts("system_goroutines", "Number of goroutines"),
	)
	m.systemGCPauseTime = auto.NewHistogram(
		m.histogramOpts("system_gc_pause_milliseconds", "Most recent GC pause in milliseconds"),
	)
}

// Evaluation Metrics Functions.

// RecordSubmission counts a submission attempt by outcome (success, not_ready, in_flight, failed).
func RecordSubmission(outcome string) {
	globalManager.submissions.WithLabelValues(outcome).Inc()
}

// RecordSubmissionLatency records submission latency in milliseconds.
func RecordSubmissionLatency(latencyMs float64) {
	globalManager.submissionLatency.Observe(latencyMs)
}

// RecordValidationFailure counts rejected judge input.
func RecordValidationFailure(reason string) {
	globalManager.validationFailures.WithLabelValues(reason).Inc()
}

// UpdateInflightSubmissions sets the number of submissions in flight.
func UpdateInflightSubmissions(count int64) {
	globalManager.inflightSubmissions.Set(float64(count))
}

// RecordDraftSaved increments the draft writes counter.
func RecordDraftSaved() {
	globalManager.draftsSaved.Inc()
}

// RecordDraftDiscarded increments the discarded drafts counter.
func RecordDraftDiscarded() {
	globalManager.draftsDiscarded.Inc()
}

// UpdateDraftsActive sets the number of stored drafts.
func UpdateDraftsActive(count int) {
	globalManager.draftsActive.Set(float64(count))
}

// RecordCriteriaCache counts a criteria cache lookup ("hit" or "miss").
func RecordCriteriaCache(result string) {
	globalManager.criteriaCache.WithLabelValues(result).Inc()
}

// Progress Metrics Functions.

// UpdateReviewProgress sets the progress gauges for one event and judge.
func UpdateReviewProgress(eventID, judgeID string, percent, pending, reviewed int) {
	globalManager.reviewProgress.WithLabelValues(eventID, judgeID).Set(float64(percent))
	globalManager.pendingApplications.WithLabelValues(eventID, judgeID).Set(float64(pending))
	globalManager.reviewedApps.WithLabelValues(eventID, judgeID).Set(float64(reviewed))
}

// RecordProgressRefresh counts a periodic refresh run.
func RecordProgressRefresh(outcome string) {
	globalManager.progressRefreshes.WithLabelValues(outcome).Inc()
}

// Backend Metrics Functions.

// RecordBackendRequest records a backend API call with its latency in milliseconds.
func RecordBackendRequest(op, outcome string, latencyMs float64) {
	globalManager.backendRequests.WithLabelValues(op, outcome).Inc()
	globalManager.backendLatency.WithLabelValues(op, outcome).Observe(latencyMs)
}

// RecordExport counts a results export ("csv" or "archive").
func RecordExport(kind, outcome string) {
	globalManager.exports.WithLabelValues(kind, outcome).Inc()
}

// HTTP Metrics Functions.

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// RecordErrorByEndpoint records an error with endpoint, method, and error type labels.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	globalManager.errorRateByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// System Performance Metrics Functions.

// UpdateSystemMemoryUsage sets the system memory usage in bytes.
func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the number of goroutines.
func UpdateSystemGoroutineCount(count int) {
	globalManager.systemGoroutineCount.Set(float64(count))
}

// RecordSystemGCPauseTime records GC pause time in milliseconds.
func RecordSystemGCPauseTime(pauseMs float64) {
	globalManager.systemGCPauseTime.Observe(pauseMs)
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
