// control/platform.go
// Author: momentics <momentics@gmail.com>
//
// Platform debug probes describing CPUs and NUMA topology.

package control

import (
	"runtime"

	"github.com/momentics/workergroup/adapters"
	"github.com/momentics/workergroup/api"
)

// RegisterPlatformProbes registers CPU and topology probes on dp.
func RegisterPlatformProbes(dp *DebugProbes, topo api.Topology) {
	dp.RegisterProbe("platform.os", func() any {
		return runtime.GOOS + "/" + runtime.GOARCH
	})
	dp.RegisterProbe("platform.cpus", func() any {
		return runtime.NumCPU()
	})
	dp.RegisterProbe("platform.gomaxprocs", func() any {
		return runtime.GOMAXPROCS(0)
	})
	dp.RegisterProbe("numa.topology", func() any {
		return adapters.Describe(topo)
	})
}
