// Package metrics exposes Prometheus collectors for dispatch outcomes.
//
// Each Metrics owns its own registry so several servers (for example in
// tests) never collide on the default registerer.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcome labels.
const (
	OutcomeOK          = "ok"
	OutcomeCacheHit    = "cache_hit"
	OutcomeRateLimited = "rate_limited"
	OutcomeNotFound    = "not_found"
	OutcomeForbidden   = "forbidden"
	OutcomeInvalid     = "invalid_input"
	OutcomeFailed      = "failed"
	OutcomeBadOutput   = "invalid_output"
	OutcomeHandlerErr  = "handler_error"
)

// Metrics bundles the collectors the server and dispatcher update.
type Metrics struct {
	registry  *prometheus.Registry
	Dispatch  *prometheus.CounterVec
	Duration  *prometheus.HistogramVec
	Timeouts  prometheus.Counter
	Cancelled prometheus.Counter
}

// New creates collectors registered on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		Dispatch: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "conductor",
			Name:      "dispatch_total",
			Help:      "Dispatched tool calls by method and outcome.",
		}, []string{"method", "outcome"}),
		Duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "conductor",
			Name:      "request_duration_seconds",
			Help:      "Wall time spent handling a request.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),
		Timeouts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "conductor",
			Name:      "soft_timeouts_total",
			Help:      "Requests whose handler finished after the timeout budget.",
		}),
		Cancelled: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "conductor",
			Name:      "cancel_requests_total",
			Help:      "Cancellation requests received.",
		}),
	}
	reg.MustRegister(m.Dispatch, m.Duration, m.Timeouts, m.Cancelled)
	return m
}

// ObserveDispatch counts one dispatch outcome. Safe on a nil receiver.
func (m *Metrics) ObserveDispatch(method, outcome string) {
	if m == nil {
		return
	}
	m.Dispatch.WithLabelValues(method, outcome).Inc()
}

// ObserveDuration records how long a request took. Safe on a nil receiver.
func (m *Metrics) ObserveDuration(method string, d time.Duration) {
	if m == nil {
		return
	}
	m.Duration.WithLabelValues(method).Observe(d.Seconds())
}

// IncTimeout counts a soft timeout. Safe on a nil receiver.
func (m *Metrics) IncTimeout() {
	if m == nil {
		return
	}
	m.Timeouts.Inc()
}

// IncCancel counts a cancellation request. Safe on a nil receiver.
func (m *Metrics) IncCancel() {
	if m == nil {
		return
	}
	m.Cancelled.Inc()
}

// Registry returns the registry holding the collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
