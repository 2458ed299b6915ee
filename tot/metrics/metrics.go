// Package metrics defines the Sink interface the run engine reports
// counters and observations to, plus a Prometheus-backed implementation.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Sink is the external metrics contract the run engine consumes. It
// matches the "increment/observe, non-blocking, best-effort" shape the
// spec requires of an optional collaborator.
type Sink interface {
	Increment(name string, labels map[string]string, value float64)
	Observe(name string, labels map[string]string, value float64)
}

// PrometheusSink implements Sink with six metrics mirroring the
// reference engine's observability surface, renamed to this module's
// vocabulary: runs track state transitions instead of node executions.
type PrometheusSink struct {
	activeRuns     prometheus.Gauge
	frontierSize   prometheus.Gauge
	stepLatency    *prometheus.HistogramVec
	retries        *prometheus.CounterVec
	cacheHits      *prometheus.CounterVec
	stopReasons    *prometheus.CounterVec

	mu      sync.RWMutex
	enabled bool
}

// NewPrometheusSink registers the module's metrics against registry.
func NewPrometheusSink(registry prometheus.Registerer) *PrometheusSink {
	factory := promauto.With(registry)

	return &PrometheusSink{
		enabled: true,

		activeRuns: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "tot",
			Name:      "active_runs",
			Help:      "Number of runs currently in the running state",
		}),
		frontierSize: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "tot",
			Name:      "frontier_size",
			Help:      "Size of the current run's search frontier",
		}),
		stepLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "tot",
			Name:      "state_latency_ms",
			Help:      "Duration of one engine state transition in milliseconds",
			Buckets:   []float64{1, 5, 10, 50, 100, 500, 1000, 5000, 10000, 30000},
		}, []string{"run_id", "state"}),
		retries: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tot",
			Name:      "gateway_retries_total",
			Help:      "Cumulative count of Gateway retry attempts",
		}, []string{"run_id", "reason"}),
		cacheHits: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tot",
			Name:      "cache_hits_total",
			Help:      "Semantic cache hits by namespace",
		}, []string{"run_id", "namespace"}),
		stopReasons: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tot",
			Name:      "stop_reason_total",
			Help:      "Terminal stop_reason recorded per run",
		}, []string{"strategy", "stop_reason"}),
	}
}

// Increment implements Sink for the module's counter-shaped metrics.
func (s *PrometheusSink) Increment(name string, labels map[string]string, value float64) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.enabled {
		return
	}

	switch name {
	case "retries":
		s.retries.WithLabelValues(labels["run_id"], labels["reason"]).Add(value)
	case "cache_hit":
		s.cacheHits.WithLabelValues(labels["run_id"], labels["namespace"]).Add(value)
	case "stop_reason":
		s.stopReasons.WithLabelValues(labels["strategy"], labels["stop_reason"]).Add(value)
	}
}

// Observe implements Sink for the module's gauge/histogram-shaped
// metrics.
func (s *PrometheusSink) Observe(name string, labels map[string]string, value float64) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.enabled {
		return
	}

	switch name {
	case "active_runs":
		s.activeRuns.Set(value)
	case "frontier_size":
		s.frontierSize.Set(value)
	case "state_latency_ms":
		s.stepLatency.WithLabelValues(labels["run_id"], labels["state"]).Observe(value)
	}
}

// Disable stops recording without unregistering collectors.
func (s *PrometheusSink) Disable() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.enabled = false
}

// Enable resumes recording after Disable.
func (s *PrometheusSink) Enable() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.enabled = true
}

// NullSink discards everything; the engine's zero value for Sink.
type NullSink struct{}

func (NullSink) Increment(name string, labels map[string]string, value float64) {}
func (NullSink) Observe(name string, labels map[string]string, value float64)   {}
