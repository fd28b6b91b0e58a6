package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

var (
	// UpstreamAttempts counts every call made to an upstream, retries included
	UpstreamAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "validator_api_upstream_attempts_total",
			Help: "Total number of upstream call attempts",
		},
		[]string{"upstream", "call"},
	)

	// UpstreamSessions counts retry sessions by final outcome
	UpstreamSessions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "validator_api_upstream_sessions_total",
			Help: "Total number of upstream retry sessions",
		},
		[]string{"upstream", "call", "outcome"},
	)

	// UpstreamSessionDuration tracks wall time of a session, backoff included
	UpstreamSessionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "validator_api_upstream_session_seconds",
			Help:    "Upstream retry session duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"upstream", "call"},
	)
)

// CountAttempts wraps op so that each invocation is counted.
func CountAttempts[T any](upstream, call string, op func() (T, error)) func() (T, error) {
	c := UpstreamAttempts.WithLabelValues(upstream, call)
	return func() (T, error) {
		c.Inc()
		return op()
	}
}

// ObserveSession records the outcome of a finished session started at start.
func ObserveSession(upstream, call string, start time.Time, err error) {
	outcome := OutcomeSuccess
	if err != nil {
		outcome = OutcomeFailure
	}
	UpstreamSessions.WithLabelValues(upstream, call, outcome).Inc()
	UpstreamSessionDuration.WithLabelValues(upstream, call).Observe(time.Since(start).Seconds())
}
