package control_test

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/momentics/workergroup/adapters"
	"github.com/momentics/workergroup/control"
)

func TestMetricsRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := control.NewMetrics(reg)

	m.WorkerStarted("numa", 0, 1, 4)
	m.WorkerStarted("numa", 1, 1, 4)
	m.WorkerFinished()
	m.WorkerFailed("worker task")
	m.AffinityFailed()
	m.LaunchFinished(15 * time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.WorkersStarted.WithLabelValues("numa")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.WorkersRunning))
	assert.Equal(t, 4.0, testutil.ToFloat64(m.WorkerThreads.WithLabelValues("1", "1")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.AffinityFailures))
	assert.Equal(t, 1, testutil.CollectAndCount(m.LaunchDuration))

	n, err := testutil.GatherAndCount(reg)
	require.NoError(t, err)
	assert.Greater(t, n, 0)
}

func TestLaunchStartedResetsWorkerThreads(t *testing.T) {
	m := control.NewMetrics(prometheus.NewRegistry())
	m.WorkerStarted("flat", 0, -1, 2)
	m.WorkerStarted("flat", 1, -1, 2)
	m.WorkerStarted("flat", 2, -1, 2)
	require.Equal(t, 3, testutil.CollectAndCount(m.WorkerThreads))

	m.LaunchStarted()
	m.WorkerStarted("flat", 0, -1, 8)
	assert.Equal(t, 1, testutil.CollectAndCount(m.WorkerThreads))
	assert.Equal(t, 8.0, testutil.ToFloat64(m.WorkerThreads.WithLabelValues("0", "-1")))
	assert.Equal(t, 4.0, testutil.ToFloat64(m.WorkersStarted.WithLabelValues("flat")), "counters are not reset")
}

func TestNilMetricsAreNoops(t *testing.T) {
	var m *control.Metrics
	assert.NotPanics(t, func() {
		m.LaunchStarted()
		m.WorkerStarted("flat", 0, -1, 1)
		m.WorkerFinished()
		m.WorkerFailed("configuration")
		m.AffinityFailed()
		m.LaunchFinished(time.Second)
	})
}

func TestDebugProbes(t *testing.T) {
	dp := control.NewDebugProbes()
	control.RegisterPlatformProbes(dp, adapters.NewTopologyAdapter())
	dp.RegisterProbe("custom", func() any { return 1 })

	assert.Equal(t, []string{"custom", "numa.topology", "platform.cpus", "platform.gomaxprocs", "platform.os"}, dp.Names())
	state := dp.DumpState()
	assert.Equal(t, 1, state["custom"])
	assert.IsType(t, adapters.TopologyDescriptor{}, state["numa.topology"])
	assert.Greater(t, state["platform.cpus"], 0)
}
