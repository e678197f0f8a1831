package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application
type Metrics struct {
	RequestsSubmitted        prometheus.Counter
	RequestsAccepted         prometheus.Counter
	RequestsRejected         prometheus.Counter
	PolicyEvalFailures       prometheus.Counter
	PolicyEvalDuration       prometheus.Histogram
	HTTPRequestDuration      *prometheus.HistogramVec
	VerdictCacheHits         prometheus.Counter
	VerdictCacheMisses       prometheus.Counter
}

// New creates and registers all Prometheus metrics
func New() *Metrics {
	return &Metrics{
		RequestsSubmitted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "collabgate_requests_submitted_total",
			Help: "Total number of onboarding requests submitted",
		}),
		RequestsAccepted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "collabgate_requests_accepted_total",
			Help: "Total number of onboarding requests accepted",
		}),
		RequestsRejected: promauto.NewCounter(prometheus.CounterOpts{
			Name: "collabgate_requests_rejected_total",
			Help: "Total number of onboarding requests rejected",
		}),
		PolicyEvalFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "collabgate_policy_eval_failures_total",
			Help: "Total number of failed policy service evaluations",
		}),
		PolicyEvalDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "collabgate_policy_eval_duration_seconds",
			Help:    "Latency of policy service evaluations",
			Buckets: prometheus.DefBuckets,
		}),
		HTTPRequestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "collabgate_http_request_duration_seconds",
			Help:    "Latency of HTTP requests by route and status",
			Buckets: prometheus.DefBuckets,
		}, []string{"route", "status"}),
		VerdictCacheHits: promauto.NewCounter(prometheus.CounterOpts{
			Name: "collabgate_verdict_cache_hits_total",
			Help: "Total number of verdict cache hits",
		}),
		VerdictCacheMisses: promauto.NewCounter(prometheus.CounterOpts{
			Name: "collabgate_verdict_cache_misses_total",
			Help: "Total number of verdict cache misses",
		}),
	}
}

// ObservePolicyEval records one policy evaluation outcome.
func (m *Metrics) ObservePolicyEval(duration time.Duration, failed bool) {
	if m == nil {
		return
	}
	m.PolicyEvalDuration.Observe(duration.Seconds())
	if failed {
		m.PolicyEvalFailures.Inc()
	}
}

// IncrementSubmitted increments the submitted requests counter by 1.
func (m *Metrics) IncrementSubmitted() {
	if m != nil {
		m.RequestsSubmitted.Inc()
	}
}

// IncrementDecision increments the counter matching the decision outcome.
func (m *Metrics) IncrementDecision(accepted bool) {
	if m == nil {
		return
	}
	if accepted {
		m.RequestsAccepted.Inc()
	} else {
		m.RequestsRejected.Inc()
	}
}
