// File: adapters/topology_adapter.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// TopologyAdapter implements api.Topology on top of the platform NUMA
// discovery in internal/concurrency.

package adapters

import (
	"github.com/momentics/workergroup/api"
	"github.com/momentics/workergroup/internal/concurrency"
)

// TopologyAdapter reads the live platform topology on every call.
type TopologyAdapter struct{}

// NewTopologyAdapter creates a platform topology provider.
func NewTopologyAdapter() *TopologyAdapter {
	return &TopologyAdapter{}
}

func (TopologyAdapter) NodeCount() (int, error)          { return concurrency.NUMANodes() }
func (TopologyAdapter) NodeCPUs(node int) ([]int, error) { return concurrency.NodeCPUs(node) }
func (TopologyAdapter) NUMAAvailable() bool              { return concurrency.NUMAAvailable() }

// NodeInfo describes one NUMA node.
type NodeInfo struct {
	ID   int   `json:"id" yaml:"id"`
	CPUs []int `json:"cpus" yaml:"cpus"`
}

// TopologyDescriptor is an immutable snapshot of a topology, for logging
// and diagnostics.
type TopologyDescriptor struct {
	NUMAAvailable bool       `json:"numa_available" yaml:"numa_available"`
	Nodes         []NodeInfo `json:"nodes" yaml:"nodes"`
	Err           string     `json:"error,omitempty" yaml:"error,omitempty"`
}

// Describe snapshots t. Query failures are recorded in Err rather than
// returned, since a partial description is still useful.
func Describe(t api.Topology) TopologyDescriptor {
	d := TopologyDescriptor{NUMAAvailable: t.NUMAAvailable()}
	n, err := t.NodeCount()
	if err != nil {
		d.Err = err.Error()
		return d
	}
	for node := 0; node < n; node++ {
		cpus, err := t.NodeCPUs(node)
		if err != nil {
			d.Err = err.Error()
			cpus = nil
		}
		d.Nodes = append(d.Nodes, NodeInfo{ID: node, CPUs: cpus})
	}
	return d
}

var _ api.Topology = TopologyAdapter{}
