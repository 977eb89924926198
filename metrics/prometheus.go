// Package metrics exports retry activity as Prometheus collectors.
package metrics

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/teamfolio/rebound/observe"
	"github.com/teamfolio/rebound/policy"
)

// PrometheusObserver implements observe.Observer with Prometheus counters
// and histograms. Register it on an Executor via retry.WithObserver.
type PrometheusObserver struct {
	attempts *prometheus.CounterVec
	retries  *prometheus.CounterVec
	calls    *prometheus.CounterVec
	duration *prometheus.HistogramVec
	backoff  *prometheus.HistogramVec
}

// NewPrometheusObserver creates the collectors and registers them with reg.
// A nil reg leaves registration to the caller via Collectors.
func NewPrometheusObserver(reg prometheus.Registerer) *PrometheusObserver {
	o := &PrometheusObserver{
		attempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "rebound_attempts_total",
			Help: "Attempts performed, by operation key and failure kind ('ok' for successes).",
		}, []string{"key", "kind"}),
		retries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "rebound_retries_total",
			Help: "Attempts that were followed by a retry, by operation key.",
		}, []string{"key"}),
		calls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "rebound_calls_total",
			Help: "Completed logical calls, by operation key and final result.",
		}, []string{"key", "result"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "rebound_call_duration_seconds",
			Help:    "Wall time of logical calls including backoff, by operation key.",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 14),
		}, []string{"key"}),
		backoff: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "rebound_backoff_seconds",
			Help:    "Backoff waited before retries, by operation key.",
			Buckets: prometheus.ExponentialBuckets(0.5, 2, 8),
		}, []string{"key"}),
	}
	if reg != nil {
		reg.MustRegister(o.Collectors()...)
	}
	return o
}

// Collectors returns the underlying collectors for manual registration.
func (o *PrometheusObserver) Collectors() []prometheus.Collector {
	return []prometheus.Collector{o.attempts, o.retries, o.calls, o.duration, o.backoff}
}

func (o *PrometheusObserver) OnStart(context.Context, policy.Key, policy.Policy) {}

func (o *PrometheusObserver) OnAttempt(_ context.Context, key policy.Key, rec observe.AttemptRecord) {
	k := key.String()

	kind := "ok"
	if rec.Err != nil {
		kind = rec.Classified.Kind.String()
	}
	o.attempts.WithLabelValues(k, kind).Inc()

	if rec.Retried {
		o.retries.WithLabelValues(k).Inc()
		o.backoff.WithLabelValues(k).Observe(rec.Backoff.Seconds())
	}
}

func (o *PrometheusObserver) OnSuccess(_ context.Context, key policy.Key, tl observe.Timeline) {
	o.finish(key, tl, "success")
}

func (o *PrometheusObserver) OnFailure(_ context.Context, key policy.Key, tl observe.Timeline) {
	o.finish(key, tl, "failure")
}

func (o *PrometheusObserver) finish(key policy.Key, tl observe.Timeline, result string) {
	k := key.String()
	o.calls.WithLabelValues(k, result).Inc()
	o.duration.WithLabelValues(k).Observe(tl.End.Sub(tl.Start).Seconds())
}
