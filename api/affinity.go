// Package api
// Author: momentics@gmail.com
//
// CPU/NUMA affinity and topology contracts consumed by the launcher.

package api

// Affinity binds OS threads to CPU sets.
type Affinity interface {
	// BindCurrentThread restricts the calling OS thread to cpus. The caller must
	// hold runtime.LockOSThread. Best-effort: platforms without support return
	// ErrNotSupported and callers are expected to carry on.
	BindCurrentThread(cpus []int) error
}

// Topology describes the NUMA layout visible to the process.
type Topology interface {
	// NodeCount returns the number of NUMA nodes, or an error wrapping
	// ErrNotSupported on platforms without NUMA information.
	NodeCount() (int, error)

	// NodeCPUs returns the logical CPU indices of node. Memory-only nodes
	// yield an empty set.
	NodeCPUs(node int) ([]int, error)

	// NUMAAvailable reports whether the platform exposes NUMA memory policy
	// control at all.
	NUMAAvailable() bool
}
