// File: adapters/affinity_adapter.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
// Description:
//   Adapter implementing the api.Affinity interface, delegating to
//   internal concurrency primitives for CPU pinning.
//
// Package adapters provides glue code between the core API contracts
// and the internal implementation.

package adapters

import (
	"sync/atomic"

	"github.com/momentics/workergroup/api"
	"github.com/momentics/workergroup/internal/concurrency"
)

// AffinityAdapter implements api.Affinity using the platform binding of the
// internal concurrency package. It counts bind outcomes for diagnostics.
type AffinityAdapter struct {
	bound  atomic.Int64
	failed atomic.Int64
}

// NewAffinityAdapter creates a platform affinity setter.
func NewAffinityAdapter() *AffinityAdapter {
	return &AffinityAdapter{}
}

// BindCurrentThread restricts the calling OS thread to cpus.
func (a *AffinityAdapter) BindCurrentThread(cpus []int) error {
	if err := concurrency.BindCurrentThread(cpus); err != nil {
		a.failed.Add(1)
		return err
	}
	a.bound.Add(1)
	return nil
}

// Counts returns how many bind calls succeeded and failed.
func (a *AffinityAdapter) Counts() (bound, failed int64) {
	return a.bound.Load(), a.failed.Load()
}

var _ api.Affinity = (*AffinityAdapter)(nil)
