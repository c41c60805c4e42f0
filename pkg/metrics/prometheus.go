// Package metrics provides Prometheus metrics for the quest pace service.
package metrics

import (
	"context"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	defaultRefreshInterval    = 10 * time.Second
	nanosecondsPerMillisecond = 1e6
)

// Manager manages all Prometheus metrics for the pace service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          bool
	refreshInterval  time.Duration
	customLabels     map[string]string
	metricPrefix     string
	registry         prometheus.Registerer

	// Analysis
	analysesTotal      *prometheus.CounterVec
	analysisLatency    prometheus.Histogram
	cohortSize         prometheus.Gauge
	runsDiscarded      *prometheus.CounterVec
	outliersSuppressed prometheus.Counter
	outliersUnmarked   prometheus.Counter
	integrityFaults    prometheus.Counter

	// Repository
	runsStored              prometheus.Gauge
	duplicateRuns           prometheus.Counter
	repositoryQueryLatency  prometheus.Histogram
	repositoryUpdateLatency prometheus.Histogram

	// Cohort file
	cohortReloads      prometheus.Counter
	cohortReloadErrors prometheus.Counter

	// Websocket
	wsClients      prometheus.Gauge
	wsMessagesSent prometheus.Counter

	// HTTP
	httpRequests         *prometheus.CounterVec
	httpRequestDuration  *prometheus.HistogramVec
	errorRateByEndpoint  *prometheus.CounterVec
	errorRateByComponent *prometheus.CounterVec

	// System
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // metrics registry

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "questpace",
		subsystem:        "pace",
		histogramBuckets: prometheus.DefBuckets,
		enabled:          true,
		refreshInterval:  defaultRefreshInterval,
		customLabels:     make(map[string]string),
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) name(n string) string {
	if m.metricPrefix == "" {
		return n
	}
	return m.metricPrefix + "_" + n
}

func (m *Manager) counterOpts(name, help string) prometheus.CounterOpts {
	return prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name(name),
		Help:        help,
		ConstLabels: m.customLabels,
	}
}

func (m *Manager) gaugeOpts(name, help string) prometheus.GaugeOpts {
	return prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name(name),
		Help:        help,
		ConstLabels: m.customLabels,
	}
}

func (m *Manager) histogramOpts(name, help string) prometheus.HistogramOpts {
	return prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name(name),
		Help:        help,
		Buckets:     m.histogramBuckets,
		ConstLabels: m.customLabels,
	}
}

func (m *Manager) initializeMetrics() { //nolint:funlen // one place for every series
	auto := promauto.With(m.registry)

	m.analysesTotal = auto.NewCounterVec(m.counterOpts("analyses_total",
		"Total number of cohort analyses by checkpoint plan"), []string{"mode"})
	m.analysisLatency = auto.NewHistogram(m.histogramOpts("analysis_latency_milliseconds",
		"Histogram of cohort analysis latency in milliseconds"))
	m.cohortSize = auto.NewGauge(m.gaugeOpts("cohort_size",
		"Number of runs in the most recently analyzed cohort"))
	m.runsDiscarded = auto.NewCounterVec(m.counterOpts("runs_discarded_total",
		"Runs left out of an analysis by reason"), []string{"reason"})
	m.outliersSuppressed = auto.NewCounter(m.counterOpts("outliers_suppressed_total",
		"HP readings suppressed by the outlier filter"))
	m.outliersUnmarked = auto.NewCounter(m.counterOpts("outliers_unmarked_total",
		"Suppressed HP readings reinstated after HP rose again"))
	m.integrityFaults = auto.NewCounter(m.counterOpts("integrity_faults_total",
		"Runs whose splits came out negative"))

	m.runsStored = auto.NewGauge(m.gaugeOpts("runs_stored",
		"Number of runs held by the repository"))
	m.duplicateRuns = auto.NewCounter(m.counterOpts("runs_duplicate_total",
		"Runs rejected because their ID was already stored"))
	m.repositoryQueryLatency = auto.NewHistogram(m.histogramOpts("repository_query_latency_milliseconds",
		"Repository cohort query latency in milliseconds"))
	m.repositoryUpdateLatency = auto.NewHistogram(m.histogramOpts("repository_update_latency_milliseconds",
		"Repository write latency in milliseconds"))

	m.cohortReloads = auto.NewCounter(m.counterOpts("cohort_reloads_total",
		"Cohort file reloads applied"))
	m.cohortReloadErrors = auto.NewCounter(m.counterOpts("cohort_reload_errors_total",
		"Cohort file reloads that failed"))

	m.wsClients = auto.NewGauge(m.gaugeOpts("ws_clients",
		"Connected websocket subscribers"))
	m.wsMessagesSent = auto.NewCounter(m.counterOpts("ws_messages_sent_total",
		"Reports pushed to websocket subscribers"))

	m.httpRequests = auto.NewCounterVec(m.counterOpts("http_requests_total",
		"Total number of HTTP requests by endpoint and method"),
		[]string{"endpoint", "method", "status_code"})
	m.httpRequestDuration = auto.NewHistogramVec(m.histogramOpts("http_request_duration_milliseconds",
		"HTTP request duration in milliseconds"),
		[]string{"endpoint", "method", "status_code"})
	m.errorRateByEndpoint = auto.NewCounterVec(m.counterOpts("errors_by_endpoint_total",
		"Errors by endpoint, method and error type"),
		[]string{"endpoint", "method", "error_type"})
	m.errorRateByComponent = auto.NewCounterVec(m.counterOpts("errors_by_component_total",
		"Errors by component and error type"),
		[]string{"component", "error_type"})

	m.systemMemoryUsage = auto.NewGauge(m.gaugeOpts("system_memory_bytes",
		"Heap bytes allocated"))
	m.systemGoroutineCount = auto.NewGauge(m.gaugeOpts("system_goroutines",
		"Number of goroutines"))
	m.systemGCPauseTime = auto.NewHistogram(m.histogramOpts("system_gc_pause_milliseconds",
		"Average GC pause in milliseconds"))
}

// Analysis metrics.

// RecordAnalysis counts one analysis under the given plan name.
func RecordAnalysis(mode string) {
	if globalManager.enabled {
		globalManager.analysesTotal.WithLabelValues(mode).Inc()
	}
}

// RecordAnalysisLatency records analysis latency in milliseconds.
func RecordAnalysisLatency(latencyMs float64) {
	if globalManager.enabled {
		globalManager.analysisLatency.Observe(latencyMs)
	}
}

// UpdateCohortSize sets the size of the last analyzed cohort.
func UpdateCohortSize(size int) {
	if globalManager.enabled {
		globalManager.cohortSize.Set(float64(size))
	}
}

// RecordRunDiscarded counts a run left out for reason.
func RecordRunDiscarded(reason string) {
	if globalManager.enabled {
		globalManager.runsDiscarded.WithLabelValues(reason).Inc()
	}
}

// RecordOutliers adds suppressed and reinstated reading counts.
func RecordOutliers(suppressed, unmarked int) {
	if !globalManager.enabled {
		return
	}
	if suppressed > 0 {
		globalManager.outliersSuppressed.Add(float64(suppressed))
	}
	if unmarked > 0 {
		globalManager.outliersUnmarked.Add(float64(unmarked))
	}
}

// RecordIntegrityFault counts a run with a negative split.
func RecordIntegrityFault() {
	if globalManager.enabled {
		globalManager.integrityFaults.Inc()
	}
}

// Repository metrics.

// UpdateRunsStored sets the number of stored runs.
func UpdateRunsStored(count int) {
	if globalManager.enabled {
		globalManager.runsStored.Set(float64(count))
	}
}

// RecordDuplicateRun counts a rejected duplicate run.
func RecordDuplicateRun() {
	if globalManager.enabled {
		globalManager.duplicateRuns.Inc()
	}
}

// RecordRepositoryQueryLatency records repository query latency.
func RecordRepositoryQueryLatency(latencyMs float64) {
	if globalManager.enabled {
		globalManager.repositoryQueryLatency.Observe(latencyMs)
	}
}

// RecordRepositoryUpdateLatency records repository write latency.
func RecordRepositoryUpdateLatency(latencyMs float64) {
	if globalManager.enabled {
		globalManager.repositoryUpdateLatency.Observe(latencyMs)
	}
}

// Cohort file metrics.

// RecordCohortReload counts an applied reload.
func RecordCohortReload() {
	if globalManager.enabled {
		globalManager.cohortReloads.Inc()
	}
}

// RecordCohortReloadError counts a failed reload.
func RecordCohortReloadError() {
	if globalManager.enabled {
		globalManager.cohortReloadErrors.Inc()
	}
}

// Websocket metrics.

// UpdateWSClients sets the number of websocket subscribers.
func UpdateWSClients(count int) {
	if globalManager.enabled {
		globalManager.wsClients.Set(float64(count))
	}
}

// RecordWSMessage counts one pushed report.
func RecordWSMessage() {
	if globalManager.enabled {
		globalManager.wsMessagesSent.Inc()
	}
}

// HTTP metrics.

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	if globalManager.enabled {
		globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
	}
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	if globalManager.enabled {
		globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
	}
}

// RecordErrorByEndpoint records an error with endpoint, method, and error type labels.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	if globalManager.enabled {
		globalManager.errorRateByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
	}
}

// RecordErrorByComponent records an error with component and type labels.
func RecordErrorByComponent(component, errorType string) {
	if globalManager.enabled {
		globalManager.errorRateByComponent.WithLabelValues(component, errorType).Inc()
	}
}

// System metrics.

// UpdateSystemMetrics samples memory, goroutine and GC statistics.
func UpdateSystemMetrics() {
	if !globalManager.enabled {
		return
	}
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	globalManager.systemMemoryUsage.Set(float64(ms.Alloc))
	globalManager.systemGoroutineCount.Set(float64(runtime.NumGoroutine()))
	if ms.NumGC > 0 {
		avgPauseMs := float64(ms.PauseTotalNs) / float64(ms.NumGC) / nanosecondsPerMillisecond
		globalManager.systemGCPauseTime.Observe(avgPauseMs)
	}
}

// StartSystemCollector samples system metrics on the manager's refresh
// interval until ctx is done.
func StartSystemCollector(ctx context.Context) {
	ticker := time.NewTicker(globalManager.refreshInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			UpdateSystemMetrics()
		}
	}
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
