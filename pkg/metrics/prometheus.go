// Package metrics provides Prometheus metrics for the duel matchmaking
// service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager manages all Prometheus metrics for the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	registry         prometheus.Registerer

	// Matchmaking metrics
	queueSize        prometheus.Gauge
	openRooms        prometheus.Gauge
	matchesCreated   *prometheus.CounterVec
	matchesEnded     *prometheus.CounterVec
	matchDuration    prometheus.Histogram
	matchScanLatency prometheus.Histogram

	// Trigger pipeline metrics
	triggersEnqueued prometheus.Counter
	triggersDropped  prometheus.Counter

	// Notification metrics
	connectedClients prometheus.Gauge
	eventsDelivered  *prometheus.CounterVec
	eventsDropped    *prometheus.CounterVec

	// Persistence error metrics
	rankingErrors       prometheus.Counter
	resultPersistErrors prometheus.Counter

	// HTTP metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "duel",
		subsystem:        "matchmaking",
		histogramBuckets: prometheus.DefBuckets,
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	m.queueSize = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "queue_size",
		Help:      "Current number of users awaiting a match",
	})

	m.openRooms = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "open_rooms",
		Help:      "Current number of live rooms",
	})

	m.matchesCreated = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "matches_created_total",
			Help:      "Total matches created, by tier",
		},
		[]string{"tier"},
	)

	m.matchesEnded = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "matches_ended_total",
			Help:      "Total matches terminated, by status",
		},
		[]string{"status"},
	)

	m.matchDuration = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "match_duration_seconds",
		Help:      "Histogram of terminated match durations in seconds",
		Buckets:   []float64{30, 60, 120, 300, 600, 900, 1800},
	})

	m.matchScanLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "match_scan_latency_milliseconds",
		Help:      "Histogram of match attempt latency in milliseconds",
		Buckets:   m.histogramBuckets,
	})

	m.triggersEnqueued = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "triggers_enqueued_total",
		Help:      "Total match-scan triggers accepted",
	})

	m.triggersDropped = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "triggers_dropped_total",
		Help:      "Total match-scan triggers dropped on backpressure",
	})

	m.connectedClients = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "connected_clients",
		Help:      "Current number of websocket clients joined to rooms",
	})

	m.eventsDelivered = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "events_delivered_total",
			Help:      "Total outbound events delivered, by kind",
		},
		[]string{"kind"},
	)

	m.eventsDropped = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "events_dropped_total",
			Help:      "Total outbound events dropped for slow clients, by kind",
		},
		[]string{"kind"},
	)

	m.rankingErrors = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "ranking_update_errors_total",
		Help:      "Total ranking delta writes that failed",
	})

	m.resultPersistErrors = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "result_persist_errors_total",
		Help:      "Total match result writes that failed",
	})

	m.httpRequests = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "http_requests_total",
			Help:      "Total HTTP requests by endpoint, method and status",
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

// UpdateQueueSize sets the current wait queue size.
func UpdateQueueSize(size int) {
	globalManager.queueSize.Set(float64(size))
}

// UpdateOpenRooms sets the current live room count.
func UpdateOpenRooms(count int) {
	globalManager.openRooms.Set(float64(count))
}

// RecordMatchCreated increments the matches created counter for a tier.
func RecordMatchCreated(tier string) {
	globalManager.matchesCreated.WithLabelValues(tier).Inc()
}

// RecordMatchEnded increments the terminated match counter for a status
// and observes the match duration.
func RecordMatchEnded(status string, durationSeconds int) {
	globalManager.matchesEnded.WithLabelValues(status).Inc()
	globalManager.matchDuration.Observe(float64(durationSeconds))
}

// RecordMatchScanLatency records a match attempt's latency in milliseconds.
func RecordMatchScanLatency(latencyMs float64) {
	globalManager.matchScanLatency.Observe(latencyMs)
}

// RecordTriggerEnqueued increments the accepted trigger counter.
func RecordTriggerEnqueued() {
	globalManager.triggersEnqueued.Inc()
}

// RecordTriggerDropped increments the dropped trigger counter.
func RecordTriggerDropped() {
	globalManager.triggersDropped.Inc()
}

// UpdateConnectedClients sets the connected websocket client count.
func UpdateConnectedClients(count int) {
	globalManager.connectedClients.Set(float64(count))
}

// RecordEventDelivered increments the delivered event counter for a kind.
func RecordEventDelivered(kind string) {
	globalManager.eventsDelivered.WithLabelValues(kind).Inc()
}

// RecordEventDropped increments the dropped event counter for a kind.
func RecordEventDropped(kind string) {
	globalManager.eventsDropped.WithLabelValues(kind).Inc()
}

// RecordRankingError increments the ranking write error counter.
func RecordRankingError() {
	globalManager.rankingErrors.Inc()
}

// RecordResultPersistError increments the result write error counter.
func RecordResultPersistError() {
	globalManager.resultPersistErrors.Inc()
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration in milliseconds.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
