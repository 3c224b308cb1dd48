package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the MCI.
type Metrics struct {
	IndividualsCreated  prometheus.Counter
	IndividualsMatched  prometheus.Counter
	SubmissionsRejected *prometheus.CounterVec
	MatchingLatency     prometheus.Histogram
	RequestDuration     *prometheus.HistogramVec
}

// New creates and registers all Prometheus metrics.
func New() *Metrics {
	return &Metrics{
		IndividualsCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "mci_individuals_created_total",
			Help: "Total number of new individuals created by resolution",
		}),
		IndividualsMatched: promauto.NewCounter(prometheus.CounterOpts{
			Name: "mci_individuals_matched_total",
			Help: "Total number of submissions resolved to an existing individual",
		}),
		SubmissionsRejected: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "mci_submissions_rejected_total",
			Help: "Total number of rejected submissions by reason",
		}, []string{"reason"}),
		MatchingLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "mci_matching_request_seconds",
			Help:    "Latency of calls to the matching service",
			Buckets: prometheus.DefBuckets,
		}),
		RequestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "mci_http_request_duration_seconds",
			Help:    "HTTP request latency by route and status",
			Buckets: prometheus.DefBuckets,
		}, []string{"route", "status"}),
	}
}

// IncrementCreated increments the created-individuals counter by 1.
func (m *Metrics) IncrementCreated() {
	if m != nil {
		m.IndividualsCreated.Inc()
	}
}

// IncrementMatched increments the matched-individuals counter by 1.
func (m *Metrics) IncrementMatched() {
	if m != nil {
		m.IndividualsMatched.Inc()
	}
}

// IncrementRejected counts a rejected submission under the given reason.
func (m *Metrics) IncrementRejected(reason string) {
	if m != nil {
		m.SubmissionsRejected.WithLabelValues(reason).Inc()
	}
}

// ObserveMatchingLatency records one matching-service round trip.
func (m *Metrics) ObserveMatchingLatency(d time.Duration) {
	if m != nil {
		m.MatchingLatency.Observe(d.Seconds())
	}
}

// ObserveRequest records one HTTP request.
func (m *Metrics) ObserveRequest(route, status string, d time.Duration) {
	if m != nil {
		m.RequestDuration.WithLabelValues(route, status).Observe(d.Seconds())
	}
}
