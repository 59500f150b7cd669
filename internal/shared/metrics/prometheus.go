package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HTTP metrics
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "path"},
	)

	// Business metrics
	bundlesSubmitted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fhir_bundles_submitted_total",
			Help: "Total number of FHIR transaction bundles submitted",
		},
		[]string{"kind", "outcome"},
	)

	bundleEntries = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "fhir_bundle_entries",
			Help:    "Number of entries per submitted bundle",
			Buckets: []float64{1, 2, 4, 8, 16, 32},
		},
	)

	gatewayRequestDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "fhir_gateway_request_duration_seconds",
			Help:    "FHIR store request duration in seconds",
			Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 20},
		},
	)

	classificationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "risk_classifications_total",
			Help: "Total number of risk classifications by category",
		},
		[]string{"category"},
	)

	alertTransitionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "alert_transitions_total",
			Help: "Total number of alert state transitions",
		},
		[]string{"from", "to"},
	)

	escalationsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "alert_escalations_total",
			Help: "Total number of emergency escalations dispatched",
		},
	)

	messagesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "care_team_messages_total",
			Help: "Total number of care team messages sent",
		},
	)
)

// RecordBundleSubmission records one bundle submission attempt
func RecordBundleSubmission(kind, outcome string, entries int, duration time.Duration) {
	bundlesSubmitted.WithLabelValues(kind, outcome).Inc()
	bundleEntries.Observe(float64(entries))
	gatewayRequestDuration.Observe(duration.Seconds())
}

// RecordClassification records one classifier verdict
func RecordClassification(category string) {
	classificationsTotal.WithLabelValues(category).Inc()
}

// RecordAlertTransition records one alert state change
func RecordAlertTransition(from, to string) {
	alertTransitionsTotal.WithLabelValues(from, to).Inc()
}

// RecordEscalation records one emergency dispatch
func RecordEscalation() {
	escalationsTotal.Inc()
}

// RecordMessage records one care team message
func RecordMessage() {
	messagesTotal.Inc()
}

// Middleware instruments HTTP handlers
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		wrapped := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(wrapped, r)

		duration := time.Since(start).Seconds()
		httpRequestsTotal.WithLabelValues(r.Method, r.URL.Path, strconv.Itoa(wrapped.status)).Inc()
		httpRequestDuration.WithLabelValues(r.Method, r.URL.Path).Observe(duration)
	})
}

// Handler returns the Prometheus metrics endpoint handler
func Handler() http.Handler {
	return promhttp.Handler()
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}
