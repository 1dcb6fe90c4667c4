//go:build !linux && !windows
// +build !linux,!windows

// File: internal/concurrency/topology_other.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Stub implementation for unsupported platforms.

package concurrency

import (
	"github.com/pkg/errors"

	"github.com/momentics/workergroup/api"
)

func platformNUMAAvailable() bool { return false }

func platformNUMANodes() (int, error) {
	return 0, errors.Wrap(api.ErrNotSupported, "numa")
}

func platformNodeCPUs(node int) ([]int, error) {
	return nil, errors.Wrapf(api.ErrNotSupported, "numa: node %d", node)
}

func platformBindCurrentThread(cpus []int) error {
	return errors.Wrap(api.ErrNotSupported, "affinity")
}
