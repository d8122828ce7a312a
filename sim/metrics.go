// Tracks run-wide metrics for the bounded-buffer engine: operation counters,
// the last observed queue depth, and run durations by outcome.

package sim

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/inference-sim/boundedsim/sim/trace"
)

const metricsNamespace = "boundedsim"

// Metrics holds the collectors of one manager on a private registry, so several
// managers (or tests) never collide on global registration.
type Metrics struct {
	registry *prometheus.Registry

	operations  *prometheus.CounterVec
	queueDepth  prometheus.Gauge
	runDuration *prometheus.HistogramVec

	// Observe runs outside the queue lock, so events can arrive out of tick
	// order. The gauge only moves forward in tick within a run.
	depthMu   sync.Mutex
	depthRun  string
	depthTick uint64
}

// NewMetrics creates and registers the collectors.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "queue_operations_total",
			Help:      "Number of instrumentation events by operation kind",
		}, []string{"op"}),
		queueDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "queue_depth",
			Help:      "Queue length after the most recently observed operation",
		}),
		runDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "run_duration_seconds",
			Help:      "Wall-clock duration of SimulationManager.Run",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 4, 10),
		}, []string{"outcome"}),
	}
	m.registry.MustRegister(m.operations, m.queueDepth, m.runDuration)
	return m
}

// Observe implements Observer.
func (m *Metrics) Observe(e trace.Event) {
	m.operations.WithLabelValues(string(e.Op)).Inc()

	m.depthMu.Lock()
	defer m.depthMu.Unlock()
	if e.RunID == m.depthRun && e.Tick <= m.depthTick {
		return
	}
	m.depthRun = e.RunID
	m.depthTick = e.Tick
	m.queueDepth.Set(float64(e.After))
}

// RecordRun records one Run outcome.
func (m *Metrics) RecordRun(d time.Duration, err error) {
	outcome := "success"
	if err != nil {
		outcome = "failure"
	}
	m.runDuration.WithLabelValues(outcome).Observe(d.Seconds())
}

// Operations returns the counter for one op kind.
func (m *Metrics) Operations(op trace.Op) prometheus.Counter {
	return m.operations.WithLabelValues(string(op))
}

// Registry exposes the private registry for scraping or export.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// WriteTextfile writes the registry in the text exposition format.
func (m *Metrics) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, m.registry)
}
