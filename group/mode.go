// File: group/mode.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package group

import (
	"fmt"

	"github.com/pkg/errors"
)

// Mode selects how worker runtimes are laid out. It is either Flat or NUMAAware.
type Mode interface {
	fmt.Stringer
	isMode()
}

// Flat starts Workers runtimes sharing the whole CPU budget.
type Flat struct {
	Workers int
}

// NUMAAware starts WorkersPerNode runtimes for every NUMA node and pins their
// threads to the node's CPUs.
type NUMAAware struct {
	WorkersPerNode int
}

func (Flat) isMode()      {}
func (NUMAAware) isMode() {}

func (Flat) String() string      { return "flat" }
func (NUMAAware) String() string { return "numa" }

// NodeSplit selects how a NUMA node's CPUs are divided among its workers.
type NodeSplit int

const (
	// SplitPerNode gives each worker len(node CPUs) / WorkersPerNode threads.
	SplitPerNode NodeSplit = iota
	// SplitAcrossNodes gives each worker
	// len(node CPUs) / (nodes * WorkersPerNode) threads, which leaves most of
	// a node idle on multi-node machines. Kept for compatibility with
	// deployments sized around it.
	SplitAcrossNodes
)

func (s NodeSplit) String() string {
	if s == SplitAcrossNodes {
		return "across-nodes"
	}
	return "per-node"
}

// ParseNodeSplit parses the String form of a NodeSplit.
func ParseNodeSplit(s string) (NodeSplit, error) {
	switch s {
	case "", "per-node":
		return SplitPerNode, nil
	case "across-nodes":
		return SplitAcrossNodes, nil
	}
	return 0, errors.Errorf("unknown node split %q", s)
}
