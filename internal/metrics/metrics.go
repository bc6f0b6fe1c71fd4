// Package metrics provides Prometheus metrics collection for the application.
package metrics

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcome/status label values for metrics.
const (
	outcomeSuccess = "success"
	outcomeFailure = "failure"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// HTTP metrics
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge

	// Chat metrics
	ChatMessagesTotal   *prometheus.CounterVec
	ChatTurnDuration    prometheus.Histogram
	ConversionScore     prometheus.Histogram
	QualifiedChatsTotal prometheus.Counter
	LeadsMaterialized   prometheus.Counter
	ContactFieldsFound  *prometheus.CounterVec

	// External service metrics
	ModelCallsTotal     *prometheus.CounterVec
	ModelCallDuration   prometheus.Histogram
	CircuitBreakerState *prometheus.GaugeVec
	CircuitBreakerTrips prometheus.Counter

	// Dashboard metrics
	DashboardRefreshes       *prometheus.CounterVec
	DashboardRefreshDuration prometheus.Histogram

	// Analytics metrics
	AnalyticsEventsTotal *prometheus.CounterVec

	// Database metrics
	DBConnectionsOpen  prometheus.Gauge
	DBConnectionsInUse prometheus.Gauge
	DBQueryDuration    *prometheus.HistogramVec
	DBQueryErrors      *prometheus.CounterVec

	// Rate limiting metrics
	RateLimitHitsTotal *prometheus.CounterVec

	// Registry used for this metrics instance (nil means default registry)
	registry prometheus.Gatherer
}

// NewMetrics creates a new Metrics instance with all collectors registered.
func NewMetrics() *Metrics {
	m := newMetricsWithRegistry(prometheus.DefaultRegisterer)
	m.registry = prometheus.DefaultGatherer
	return m
}

// NewMetricsWithRegistry creates metrics using a custom registry (for testing).
func NewMetricsWithRegistry(reg *prometheus.Registry) *Metrics {
	m := newMetricsWithRegistry(reg)
	m.registry = reg
	return m
}

func newMetricsWithRegistry(registerer prometheus.Registerer) *Metrics {
	factory := promauto.With(registerer)

	return &Metrics{
		// HTTP metrics
		HTTPRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "visionsync_http_requests_total",
				Help: "Total number of HTTP requests by method, path, and status code",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "visionsync_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path"},
		),
		HTTPRequestsInFlight: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "visionsync_http_requests_in_flight",
				Help: "Number of HTTP requests currently being processed",
			},
		),

		// Chat metrics
		ChatMessagesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "visionsync_chat_messages_total",
				Help: "Total number of chat messages processed by outcome",
			},
			[]string{"outcome"}, // "success", "failure", "fallback"
		),
		ChatTurnDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "visionsync_chat_turn_duration_seconds",
				Help:    "End-to-end time to process one chat message",
				Buckets: []float64{.1, .25, .5, 1, 2, 5, 10, 30},
			},
		),
		ConversionScore: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "visionsync_conversion_score",
				Help:    "Distribution of conversion scores assigned to chat turns",
				Buckets: []float64{25, 45, 55, 65, 75, 85, 100},
			},
		),
		QualifiedChatsTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "visionsync_qualified_chats_total",
				Help: "Total number of chat turns that qualified the visitor as a lead",
			},
		),
		LeadsMaterialized: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "visionsync_leads_materialized_total",
				Help: "Total number of leads created from chat conversations",
			},
		),
		ContactFieldsFound: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "visionsync_contact_fields_found_total",
				Help: "Total number of contact fields extracted from conversations",
			},
			[]string{"field"}, // "email", "phone", "name"
		),

		// External service metrics
		ModelCallsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "visionsync_model_calls_total",
				Help: "Total number of language model API calls by status",
			},
			[]string{"status"}, // "success", "failure", "circuit_open"
		),
		ModelCallDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "visionsync_model_call_duration_seconds",
				Help:    "Duration of language model API calls",
				Buckets: []float64{.5, 1, 2, 5, 10, 15, 30},
			},
		),
		CircuitBreakerState: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "visionsync_circuit_breaker_state",
				Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
			},
			[]string{"service"},
		),
		CircuitBreakerTrips: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "visionsync_circuit_breaker_trips_total",
				Help: "Total number of times the circuit breaker has tripped",
			},
		),

		// Dashboard metrics
		DashboardRefreshes: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "visionsync_dashboard_refreshes_total",
				Help: "Total number of dashboard snapshot recomputations by outcome",
			},
			[]string{"outcome"},
		),
		DashboardRefreshDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "visionsync_dashboard_refresh_duration_seconds",
				Help:    "Time taken to recompute the dashboard snapshot",
				Buckets: []float64{.01, .05, .1, .25, .5, 1, 2.5, 5},
			},
		),

		// Analytics metrics
		AnalyticsEventsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "visionsync_analytics_events_total",
				Help: "Total number of analytics events ingested by type",
			},
			[]string{"event_type"},
		),

		// Database metrics
		DBConnectionsOpen: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "visionsync_db_connections_open",
				Help: "Number of open database connections",
			},
		),
		DBConnectionsInUse: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "visionsync_db_connections_in_use",
				Help: "Number of database connections currently in use",
			},
		),
		DBQueryDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "visionsync_db_query_duration_seconds",
				Help:    "Duration of database queries",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
			},
			[]string{"operation"}, // "select", "insert", "update", "delete"
		),
		DBQueryErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "visionsync_db_query_errors_total",
				Help: "Total number of database query errors",
			},
			[]string{"operation"},
		),

		// Rate limiting metrics
		RateLimitHitsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "visionsync_rate_limit_hits_total",
				Help: "Total number of rate limit hits by type",
			},
			[]string{"limiter"}, // "public", "chat", "model"
		),
	}
}

// Handler returns the Prometheus HTTP handler for scraping metrics.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Middleware returns an HTTP middleware that records request metrics.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m.HTTPRequestsInFlight.Inc()
		defer m.HTTPRequestsInFlight.Dec()

		start := time.Now()

		// Wrap response writer to capture status code
		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(wrapped, r)

		duration := time.Since(start).Seconds()

		// Normalize path for metrics (avoid high cardinality)
		path := normalizePath(r.URL.Path)

		m.HTTPRequestsTotal.WithLabelValues(
			r.Method,
			path,
			strconv.Itoa(wrapped.statusCode),
		).Inc()

		m.HTTPRequestDuration.WithLabelValues(
			r.Method,
			path,
		).Observe(duration)
	})
}

// responseWriter wraps http.ResponseWriter to capture status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
	written    bool
}

func (rw *responseWriter) WriteHeader(code int) {
	if !rw.written {
		rw.statusCode = code
		rw.written = true
	}
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	if !rw.written {
		rw.statusCode = http.StatusOK
		rw.written = true
	}
	return rw.ResponseWriter.Write(b)
}

// normalizePath normalizes URL paths to prevent high cardinality labels.
func normalizePath(path string) string {
	switch path {
	case "/", "/health", "/ready", "/live",
		"/api/chat", "/api/projects", "/api/analytics/events":
		return path
	}

	// Normalize dynamic admin paths
	for _, prefix := range []string{
		"/admin/leads/",
		"/admin/projects/",
		"/admin/conversations/",
		"/admin/training/",
		"/admin/content/",
		"/admin/settings/",
	} {
		if strings.HasPrefix(path, prefix) && len(path) > len(prefix) {
			return prefix + ":id"
		}
	}

	return path
}

// Helper methods for recording specific events

// RecordChatMessage records one processed chat message.
func (m *Metrics) RecordChatMessage(success bool, duration time.Duration) {
	outcome := outcomeFailure
	if success {
		outcome = outcomeSuccess
	}
	m.ChatMessagesTotal.WithLabelValues(outcome).Inc()
	m.ChatTurnDuration.Observe(duration.Seconds())
}

// RecordChatFallback records a chat turn answered with the fallback message.
func (m *Metrics) RecordChatFallback() {
	m.ChatMessagesTotal.WithLabelValues("fallback").Inc()
}

// RecordConversionScore records the score assigned to a chat turn.
func (m *Metrics) RecordConversionScore(score int, qualified bool) {
	m.ConversionScore.Observe(float64(score))
	if qualified {
		m.QualifiedChatsTotal.Inc()
	}
}

// RecordLeadMaterialized records a lead created from a conversation.
func (m *Metrics) RecordLeadMaterialized() {
	m.LeadsMaterialized.Inc()
}

// RecordContactField records an extracted contact field.
func (m *Metrics) RecordContactField(field string) {
	m.ContactFieldsFound.WithLabelValues(field).Inc()
}

// RecordModelCall records a language model API call.
func (m *Metrics) RecordModelCall(success bool, duration time.Duration) {
	status := outcomeFailure
	if success {
		status = outcomeSuccess
	}
	m.ModelCallsTotal.WithLabelValues(status).Inc()
	m.ModelCallDuration.Observe(duration.Seconds())
}

// RecordCircuitOpen records a circuit breaker opening.
func (m *Metrics) RecordCircuitOpen() {
	m.ModelCallsTotal.WithLabelValues("circuit_open").Inc()
	m.CircuitBreakerTrips.Inc()
}

// SetCircuitBreakerState sets the circuit breaker state for a service.
// State: 0=closed, 1=half-open, 2=open
func (m *Metrics) SetCircuitBreakerState(service string, state int) {
	m.CircuitBreakerState.WithLabelValues(service).Set(float64(state))
}

// RecordDashboardRefresh records a snapshot recomputation.
func (m *Metrics) RecordDashboardRefresh(success bool, duration time.Duration) {
	outcome := outcomeFailure
	if success {
		outcome = outcomeSuccess
	}
	m.DashboardRefreshes.WithLabelValues(outcome).Inc()
	m.DashboardRefreshDuration.Observe(duration.Seconds())
}

// RecordAnalyticsEvent records an ingested analytics event.
func (m *Metrics) RecordAnalyticsEvent(eventType string) {
	m.AnalyticsEventsTotal.WithLabelValues(eventType).Inc()
}

// UpdateDBConnections updates database connection metrics.
func (m *Metrics) UpdateDBConnections(open, inUse int) {
	m.DBConnectionsOpen.Set(float64(open))
	m.DBConnectionsInUse.Set(float64(inUse))
}

// RecordDBQuery records a database query.
func (m *Metrics) RecordDBQuery(operation string, duration time.Duration, err error) {
	m.DBQueryDuration.WithLabelValues(operation).Observe(duration.Seconds())
	if err != nil {
		m.DBQueryErrors.WithLabelValues(operation).Inc()
	}
}

// RecordRateLimitHit records a rate limit hit.
func (m *Metrics) RecordRateLimitHit(limiter string) {
	m.RateLimitHitsTotal.WithLabelValues(limiter).Inc()
}
