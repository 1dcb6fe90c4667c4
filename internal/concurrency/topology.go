// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Cross-platform NUMA topology and affinity entry points with runtime detection.

package concurrency

import (
	"runtime"
	"sync"
)

var (
	numaAvailOnce sync.Once
	numaAvailable bool
)

// NUMAAvailable reports whether the platform exposes NUMA memory policy control.
// The probe runs once per process.
func NUMAAvailable() bool {
	numaAvailOnce.Do(func() {
		numaAvailable = platformNUMAAvailable()
	})
	return numaAvailable
}

// NUMANodes returns the number of NUMA nodes.
func NUMANodes() (int, error) {
	return platformNUMANodes()
}

// NodeCPUs returns the logical CPUs of a NUMA node.
func NodeCPUs(node int) ([]int, error) {
	return platformNodeCPUs(node)
}

// BindCurrentThread restricts the calling OS thread to cpus. The goroutine
// must already be locked to its thread.
func BindCurrentThread(cpus []int) error {
	return platformBindCurrentThread(cpus)
}

// NumCPUs returns the number of logical CPUs usable by the process.
func NumCPUs() int {
	return runtime.NumCPU()
}
