// control/metrics.go
// Author: momentics <momentics@gmail.com>
//
// Launch metrics exported through Prometheus.

package control

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "workergroup"

// Metrics holds the collectors the launcher updates. A nil *Metrics is valid
// and records nothing.
type Metrics struct {
	WorkersStarted   *prometheus.CounterVec
	WorkersFailed    *prometheus.CounterVec
	WorkersRunning   prometheus.Gauge
	WorkerThreads    *prometheus.GaugeVec
	AffinityFailures prometheus.Counter
	LaunchDuration   prometheus.Histogram
}

// NewMetrics creates the collectors and registers them with reg when reg is
// not nil.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		WorkersStarted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "workers_started_total",
			Help:      "Worker runtimes whose root task was started, by mode.",
		}, []string{"mode"}),
		WorkersFailed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "workers_failed_total",
			Help:      "Worker failures, by error kind.",
		}, []string{"kind"}),
		WorkersRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "workers_running",
			Help:      "Worker runtimes whose root task has not finished yet.",
		}),
		WorkerThreads: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "worker_threads",
			Help:      "Pool threads of each worker runtime of the current launch.",
		}, []string{"worker", "node"}),
		AffinityFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "affinity_failures_total",
			Help:      "Threads that could not be bound to their NUMA node CPU set.",
		}),
		LaunchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "launch_duration_seconds",
			Help:      "Wall time of a launch from initialization to the last worker joined.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 10),
		}),
	}
	if reg != nil {
		reg.MustRegister(m.WorkersStarted, m.WorkersFailed, m.WorkersRunning,
			m.WorkerThreads, m.AffinityFailures, m.LaunchDuration)
	}
	return m
}

// LaunchStarted drops the per-worker thread series of earlier launches.
func (m *Metrics) LaunchStarted() {
	if m == nil {
		return
	}
	m.WorkerThreads.Reset()
}

// WorkerStarted records a started root task.
func (m *Metrics) WorkerStarted(mode string, worker, node, threads int) {
	if m == nil {
		return
	}
	m.WorkersStarted.WithLabelValues(mode).Inc()
	m.WorkersRunning.Inc()
	m.WorkerThreads.WithLabelValues(strconv.Itoa(worker), strconv.Itoa(node)).Set(float64(threads))
}

// WorkerFinished records a finished root task.
func (m *Metrics) WorkerFinished() {
	if m == nil {
		return
	}
	m.WorkersRunning.Dec()
}

// WorkerFailed records a failure of the given kind.
func (m *Metrics) WorkerFailed(kind string) {
	if m == nil {
		return
	}
	m.WorkersFailed.WithLabelValues(kind).Inc()
}

// AffinityFailed records a thread that stayed unbound.
func (m *Metrics) AffinityFailed() {
	if m == nil {
		return
	}
	m.AffinityFailures.Inc()
}

// LaunchFinished observes the duration of a launch.
func (m *Metrics) LaunchFinished(d time.Duration) {
	if m == nil {
		return
	}
	m.LaunchDuration.Observe(d.Seconds())
}
