package observability

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const metricsNamespace = "realty"

// Metrics holds the Prometheus collectors exported on /metrics.
type Metrics struct {
	RequestsTotal     *prometheus.CounterVec
	RequestDuration   *prometheus.HistogramVec
	ErrorsTotal       *prometheus.CounterVec
	RosterMutations   *prometheus.CounterVec
	RatingSubmissions *prometheus.CounterVec
}

// NewMetrics registers the collectors with reg. Tests pass a fresh registry.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		RequestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests by route, method and status.",
		}, []string{"route", "method", "status"}),
		RequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route", "method"}),
		ErrorsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "http",
			Name:      "errors_total",
			Help:      "Total number of error responses by error code.",
		}, []string{"route", "method", "code"}),
		RosterMutations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "roster",
			Name:      "mutations_total",
			Help:      "Roster mutations by operation and outcome.",
		}, []string{"operation", "outcome"}), // outcome: ok, conflict, not_found, error
		RatingSubmissions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "rating",
			Name:      "submissions_total",
			Help:      "Rating submissions by outcome.",
		}, []string{"outcome"}),
	}
}

// RecordRequest increments counters for requests.
func (m *Metrics) RecordRequest(route, method string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	m.RequestsTotal.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	m.RequestDuration.WithLabelValues(route, method).Observe(duration.Seconds())
}

// RecordError increments error counters.
func (m *Metrics) RecordError(route, method, code string) {
	if m == nil {
		return
	}
	m.ErrorsTotal.WithLabelValues(route, method, code).Inc()
}

// RecordRosterMutation counts one add, remove or status change.
func (m *Metrics) RecordRosterMutation(operation, outcome string) {
	if m == nil {
		return
	}
	m.RosterMutations.WithLabelValues(operation, outcome).Inc()
}

// RecordRatingSubmission counts one submitRating call.
func (m *Metrics) RecordRatingSubmission(outcome string) {
	if m == nil {
		return
	}
	m.RatingSubmissions.WithLabelValues(outcome).Inc()
}
