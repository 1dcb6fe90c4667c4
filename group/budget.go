// File: group/budget.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// CPU budget resolution with an environment override.

package group

import (
	"os"
	"strconv"

	"github.com/pkg/errors"

	"github.com/momentics/workergroup/api"
	"github.com/momentics/workergroup/internal/concurrency"
)

// EnvWorkerThreads overrides the number of logical CPUs split among workers.
const EnvWorkerThreads = "WORKERGROUP_WORKER_THREADS"

// CPUBudget is the number of logical CPUs divided among worker runtimes. It
// sizes runtimes but does not cap threads created elsewhere.
type CPUBudget int

// ResolveCPUBudget computes the budget from the raw override value. present
// reports whether the override was set at all.
func ResolveCPUBudget(raw string, present bool) (CPUBudget, error) {
	if !present {
		return CPUBudget(max(concurrency.NumCPUs(), 1)), nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, api.NewError(api.KindConfiguration,
			errors.Errorf("%q must be a positive integer, error: %v, value: %q", EnvWorkerThreads, err, raw))
	}
	if n == 0 {
		return 0, api.NewError(api.KindConfiguration,
			errors.Errorf("%q cannot be set to 0", EnvWorkerThreads))
	}
	if n < 0 {
		return 0, api.NewError(api.KindConfiguration,
			errors.Errorf("%q must be a positive integer, value: %q", EnvWorkerThreads, raw))
	}
	return CPUBudget(n), nil
}

// CPUBudgetFromEnv resolves the budget from EnvWorkerThreads.
func CPUBudgetFromEnv() (CPUBudget, error) {
	raw, ok := os.LookupEnv(EnvWorkerThreads)
	return ResolveCPUBudget(raw, ok)
}
