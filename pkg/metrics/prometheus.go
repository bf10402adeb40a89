// Package metrics provides Prometheus metrics for the gather registration service.
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

	// HTTP performance
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Allocation engine
	allocationRuns      prometheus.Counter
	allocationDuration  prometheus.Histogram
	seatsAssigned       prometheus.Counter
	applicationsPurged  prometheus.Counter
	applicationsDropped prometheus.Counter

	// Registration activity
	eventsTotal       prometheus.Gauge
	participantsTotal prometheus.Gauge
	invitesIssued     prometheus.Counter
	activeSessions    prometheus.Gauge

	// State persistence
	stateSaves        prometheus.Counter
	stateSaveErrors   prometheus.Counter
	stateSaveDuration prometheus.Histogram
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
		namespace:        "gather",
		subsystem:        "registration",
		histogramBuckets: prometheus.DefBuckets,
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	m.httpRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "http_requests_total",
		Help:      "Total number of HTTP requests by endpoint, method and status",
	}, []string{"endpoint", "method", "status"})

	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "http_request_duration_milliseconds",
		Help:      "Histogram of HTTP request duration in milliseconds",
		Buckets:   m.histogramBuckets,
	}, []string{"endpoint", "method"})

	m.allocationRuns = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "allocation_runs_total",
		Help:      "Total number of completed allocation runs",
	})

	m.allocationDuration = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "allocation_duration_milliseconds",
		Help:      "Histogram of full allocation run duration in milliseconds",
		Buckets:   m.histogramBuckets,
	})

	m.seatsAssigned = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "seats_assigned_total",
		Help:      "Total number of seats assigned by the allocation engine",
	})

	m.applicationsPurged = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "applications_purged_total",
		Help:      "Total number of applications purged because a session ran out of seats",
	})

	m.applicationsDropped = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "applications_dropped_total",
		Help:      "Total number of applications dropped for referencing unknown participants",
	})

	m.eventsTotal = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "events_total",
		Help:      "Current number of events in the store",
	})

	m.participantsTotal = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "participants_total",
		Help:      "Current number of registered participants across all events",
	})

	m.invitesIssued = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "invites_issued_total",
		Help:      "Total number of invitation codes issued",
	})

	m.activeSessions = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "auth_sessions_active",
		Help:      "Current number of live cookie sessions",
	})

	m.stateSaves = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "state_saves_total",
		Help:      "Total number of state file writes",
	})

	m.stateSaveErrors = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "state_save_errors_total",
		Help:      "Total number of failed state file writes",
	})

	m.stateSaveDuration = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "state_save_duration_milliseconds",
		Help:      "Histogram of state file write duration in milliseconds",
		Buckets:   m.histogramBuckets,
	})
}

// GetRegistry returns the custom Prometheus registry used by the service.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}

// Package-level helpers operating on the global manager.

// RecordHTTPRequest records an HTTP request by endpoint, method and status.
func RecordHTTPRequest(endpoint, method, status string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, status).Inc()
}

// RecordHTTPRequestDuration records the duration of an HTTP request.
func RecordHTTPRequestDuration(endpoint, method string, durationMs float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method).Observe(durationMs)
}

// RecordAllocationRun records a completed allocation run and its duration.
func RecordAllocationRun(durationMs float64) {
	globalManager.allocationRuns.Inc()
	globalManager.allocationDuration.Observe(durationMs)
}

// RecordSeatAssigned records a single seat assignment.
func RecordSeatAssigned() {
	globalManager.seatsAssigned.Inc()
}

// RecordApplicationsPurged records applications discarded on capacity exhaustion.
func RecordApplicationsPurged(n int) {
	globalManager.applicationsPurged.Add(float64(n))
}

// RecordApplicationDropped records an application dropped for a missing participant.
func RecordApplicationDropped() {
	globalManager.applicationsDropped.Inc()
}

// UpdateEventCount sets the current number of events.
func UpdateEventCount(n int) {
	globalManager.eventsTotal.Set(float64(n))
}

// UpdateParticipantCount sets the current number of participants.
func UpdateParticipantCount(n int) {
	globalManager.participantsTotal.Set(float64(n))
}

// RecordInvitesIssued records newly issued invitation codes.
func RecordInvitesIssued(n int) {
	globalManager.invitesIssued.Add(float64(n))
}

// UpdateActiveSessions sets the current number of live cookie sessions.
func UpdateActiveSessions(n int) {
	globalManager.activeSessions.Set(float64(n))
}

// RecordStateSave records a state file write and its duration.
func RecordStateSave(durationMs float64) {
	globalManager.stateSaves.Inc()
	globalManager.stateSaveDuration.Observe(durationMs)
}

// RecordStateSaveError records a failed state file write.
func RecordStateSaveError() {
	globalManager.stateSaveErrors.Inc()
}
