// Package metrics provides Prometheus metrics for the PYLON rating service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager manages all Prometheus metrics for the PYLON service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	registry         prometheus.Registerer

	// Core Business Metrics - the rating pipeline
	gamesProcessed     prometheus.Counter
	gamesRejected      *prometheus.CounterVec
	ratingDelta        prometheus.Histogram
	processingLatency  prometheus.Histogram
	predictionsCreated *prometheus.CounterVec

	// Quarter-data Quality Metrics
	quarterWeightedGames  prometheus.Counter
	quarterFallbacks      prometheus.Counter
	inconsistentQuarters  prometheus.Counter
	garbageTimeDetections prometheus.Counter

	// Ledger Integrity Metrics
	historyEntries          prometheus.Counter
	duplicateHistoryRejects prometheus.Counter

	// Operational Health Metrics
	queueSize        prometheus.Gauge
	queueCapacity    prometheus.Gauge
	queueUtilization prometheus.Gauge
	queueEnqueues    prometheus.Counter
	queueDequeues    prometheus.Counter
	workerCount      prometheus.Gauge
	totalTeams       prometheus.Gauge
	duplicateGames   prometheus.Counter

	// HTTP Performance Metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
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
		namespace:        "pylon",
		subsystem:        "engine",
		histogramBuckets: prometheus.DefBuckets,
		registry:         prometheus.DefaultRegisterer,
	}

	// Apply all options
	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	m.gamesProcessed = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "games_processed_total",
		Help:      "Total number of games whose result was applied to ratings",
	})

	m.gamesRejected = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "games_rejected_total",
			Help:      "Total number of games rejected before any rating mutation, by reason",
		},
		[]string{"reason"},
	)

	m.ratingDelta = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "rating_delta_points",
		Help:      "Histogram of absolute rating deltas applied per game",
		Buckets:   []float64{1, 2, 5, 10, 15, 20, 30, 40, 60},
	})

	m.processingLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "processing_latency_milliseconds",
		Help:      "Histogram of per-game processing latency in milliseconds",
		Buckets:   m.histogramBuckets,
	})

	m.predictionsCreated = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "predictions_created_total",
			Help:      "Total number of prediction snapshots created, by mode (live|retrospective)",
		},
		[]string{"mode"},
	)

	m.quarterWeightedGames = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "quarter_weighted_games_total",
		Help:      "Total number of games processed via the quarter-weighted margin path",
	})

	m.quarterFallbacks = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "quarter_fallbacks_total",
		Help:      "Total number of games that fell back to the full-game margin path (quarter-data coverage)",
	})

	m.inconsistentQuarters = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "inconsistent_quarter_data_total",
		Help:      "Total number of games whose quarter scores did not sum to the final score",
	})

	m.garbageTimeDetections = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "garbage_time_detections_total",
		Help:      "Total number of games where fourth-quarter scoring was discounted",
	})

	m.historyEntries = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "history_entries_total",
		Help:      "Total number of ranking history entries written",
	})

	m.duplicateHistoryRejects = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "duplicate_history_rejects_total",
		Help:      "Total number of ranking history writes rejected by the write-once rule",
	})

	m.queueSize = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "queue_size",
		Help:      "Current size of the game queue (backlog indicator)",
	})

	m.queueCapacity = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "queue_capacity",
		Help:      "Configured capacity of the game queue",
	})

	m.queueUtilization = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "queue_utilization",
		Help:      "Queue utilization ratio (size/capacity)",
	})

	m.queueEnqueues = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "queue_enqueues_total",
		Help:      "Total number of games enqueued",
	})

	m.queueDequeues = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "queue_dequeues_total",
		Help:      "Total number of games dequeued by workers",
	})

	m.workerCount = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "worker_count",
		Help:      "Current number of processing workers",
	})

	m.totalTeams = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "total_teams",
		Help:      "Total number of teams tracked in the rating store",
	})

	m.duplicateGames = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "duplicate_games_total",
		Help:      "Total number of duplicate game submissions detected at intake",
	})

	m.httpRequests = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests by endpoint and method",
		},
		[]string{"endpoint", "method", "status_code"},
	)

	m.httpRequestDuration = auto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "http_request_duration_milliseconds",
			Help:      "HTTP request duration in milliseconds",
			Buckets:   m.histogramBuckets,
		},
		[]string{"endpoint", "method", "status_code"},
	)
}

// Package-level helpers operating on the global manager.

// RecordGameProcessed increments the processed-games counter.
func RecordGameProcessed() {
	globalManager.gamesProcessed.Inc()
}

// RecordGameRejected increments the rejected-games counter for a reason.
func RecordGameRejected(reason string) {
	globalManager.gamesRejected.WithLabelValues(reason).Inc()
}

// RecordRatingDelta observes the absolute rating delta applied to a game.
func RecordRatingDelta(delta float64) {
	if delta < 0 {
		delta = -delta
	}
	globalManager.ratingDelta.Observe(delta)
}

// RecordProcessingLatency observes per-game processing latency.
func RecordProcessingLatency(latencyMs float64) {
	globalManager.processingLatency.Observe(latencyMs)
}

// RecordPredictionCreated increments the prediction counter for a mode.
func RecordPredictionCreated(mode string) {
	globalManager.predictionsCreated.WithLabelValues(mode).Inc()
}

// RecordQuarterWeightedGame increments the quarter-weighted path counter.
func RecordQuarterWeightedGame() {
	globalManager.quarterWeightedGames.Inc()
}

// RecordQuarterFallback increments the full-game fallback counter.
func RecordQuarterFallback() {
	globalManager.quarterFallbacks.Inc()
}

// RecordInconsistentQuarterData increments the quarter-consistency counter.
func RecordInconsistentQuarterData() {
	globalManager.inconsistentQuarters.Inc()
}

// RecordGarbageTimeDetection increments the garbage-time counter.
func RecordGarbageTimeDetection() {
	globalManager.garbageTimeDetections.Inc()
}

// RecordHistoryEntry increments the ledger write counter.
func RecordHistoryEntry() {
	globalManager.historyEntries.Inc()
}

// RecordDuplicateHistoryReject increments the write-once rejection counter.
func RecordDuplicateHistoryReject() {
	globalManager.duplicateHistoryRejects.Inc()
}

// UpdateQueueSize sets the queue size gauge.
func UpdateQueueSize(size int) {
	globalManager.queueSize.Set(float64(size))
}

// UpdateQueueCapacity sets the queue capacity gauge.
func UpdateQueueCapacity(capacity int) {
	globalManager.queueCapacity.Set(float64(capacity))
}

// UpdateQueueUtilization sets the queue utilization gauge.
func UpdateQueueUtilization(utilization float64) {
	globalManager.queueUtilization.Set(utilization)
}

// RecordQueueEnqueue increments the enqueue counter.
func RecordQueueEnqueue() {
	globalManager.queueEnqueues.Inc()
}

// RecordQueueDequeue increments the dequeue counter.
func RecordQueueDequeue() {
	globalManager.queueDequeues.Inc()
}

// UpdateWorkerCount sets the worker gauge.
func UpdateWorkerCount(count int) {
	globalManager.workerCount.Set(float64(count))
}

// UpdateTotalTeams sets the tracked-teams gauge.
func UpdateTotalTeams(count int) {
	globalManager.totalTeams.Set(float64(count))
}

// RecordDuplicateGame increments the duplicate-submission counter.
func RecordDuplicateGame() {
	globalManager.duplicateGames.Inc()
}

// RecordHTTPRequest records an HTTP request by endpoint, method and status.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, durationMs float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(durationMs)
}

// GetRegistry returns the custom Prometheus registry used by the service.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
