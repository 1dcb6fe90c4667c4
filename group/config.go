// File: group/config.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Fluent group configuration. Every option returns a modified copy; Launch
// turns the pending configuration into an immutable plan exactly once.

package group

import (
	"sync/atomic"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/momentics/workergroup/adapters"
	"github.com/momentics/workergroup/api"
	"github.com/momentics/workergroup/control"
	"github.com/momentics/workergroup/internal/concurrency"
)

// DefaultBootstrapThreads is the size of the runtime that runs the init function.
const DefaultBootstrapThreads = 2

// Task is the root task of one worker runtime.
type Task[T any] func(w *Worker) (T, error)

// EntryFactory builds a fresh root task. It is called once per worker
// runtime, sequentially and in creation order.
type EntryFactory[T any] func() Task[T]

// InitFunc runs once before any worker starts. Its result is the guard, shared
// read-only with every worker and closed after all of them have shut down if
// it implements io.Closer. w is a handle on the bootstrap runtime.
type InitFunc func(w *Worker) (any, error)

// Config is a pending worker group configuration. Build it with New.
type Config[T any] struct {
	numa             bool
	flat             Flat
	numaAware        NUMAAware
	requireNUMA      bool
	split            NodeSplit
	init             InitFunc
	entry            EntryFactory[T]
	budget           CPUBudget
	topology         api.Topology
	affinity         api.Affinity
	logger           *zap.Logger
	metrics          *control.Metrics
	bootstrapThreads int

	launched *atomic.Bool
}

// New returns the default configuration: one flat worker running a no-op entry.
func New[T any]() Config[T] {
	return Config[T]{
		flat:             Flat{Workers: 1},
		numaAware:        NUMAAware{WorkersPerNode: 1},
		bootstrapThreads: DefaultBootstrapThreads,
		launched:         new(atomic.Bool),
	}
}

// NUMA toggles NUMA-aware mode.
func (c Config[T]) NUMA(enabled bool) Config[T] {
	c.numa = enabled
	return c
}

// WorkersPerNode sets the number of worker runtimes per NUMA node (NUMA mode).
func (c Config[T]) WorkersPerNode(n int) Config[T] {
	c.numaAware.WorkersPerNode = n
	return c
}

// WorkerCount sets the total number of worker runtimes (flat mode).
func (c Config[T]) WorkerCount(n int) Config[T] {
	c.flat.Workers = n
	return c
}

// RequireNUMA makes NUMA mode fail with KindPlatformUnsupported instead of
// demoting to flat sizing when the topology is unusable.
func (c Config[T]) RequireNUMA(required bool) Config[T] {
	c.requireNUMA = required
	return c
}

// NodeSplit selects how node CPUs are divided among a node's workers.
func (c Config[T]) NodeSplit(s NodeSplit) Config[T] {
	c.split = s
	return c
}

// Init replaces the init function.
func (c Config[T]) Init(fn InitFunc) Config[T] {
	c.init = fn
	return c
}

// Entry replaces the entry factory.
func (c Config[T]) Entry(factory EntryFactory[T]) Config[T] {
	c.entry = factory
	return c
}

// CPUBudget injects the CPU budget. Without it Launch resolves the budget
// from EnvWorkerThreads.
func (c Config[T]) CPUBudget(b CPUBudget) Config[T] {
	c.budget = b
	return c
}

// Topology replaces the platform topology provider.
func (c Config[T]) Topology(t api.Topology) Config[T] {
	c.topology = t
	return c
}

// Affinity replaces the platform affinity setter.
func (c Config[T]) Affinity(a api.Affinity) Config[T] {
	c.affinity = a
	return c
}

// Logger sets the logger. The default discards everything.
func (c Config[T]) Logger(l *zap.Logger) Config[T] {
	c.logger = l
	return c
}

// Metrics sets the collectors updated during the launch.
func (c Config[T]) Metrics(m *control.Metrics) Config[T] {
	c.metrics = m
	return c
}

// BootstrapThreads sets the thread count of the init runtime.
func (c Config[T]) BootstrapThreads(n int) Config[T] {
	c.bootstrapThreads = n
	return c
}

// Mode returns the layout selected by the configuration.
func (c Config[T]) Mode() Mode {
	if c.numa {
		return c.numaAware
	}
	return c.flat
}

// plan is a validated configuration ready to launch.
type plan struct {
	mode             Mode
	requireNUMA      bool
	split            NodeSplit
	init             InitFunc
	budget           CPUBudget
	topology         api.Topology
	affinity         api.Affinity
	logger           *zap.Logger
	metrics          *control.Metrics
	bootstrapThreads int
}

// ready validates c and consumes its launch token.
func (c Config[T]) ready() (*plan, EntryFactory[T], error) {
	if c.launched == nil {
		return nil, nil, api.NewError(api.KindConfiguration,
			errors.Wrap(api.ErrInvalidArgument, "configuration not created with New"))
	}
	switch m := c.Mode().(type) {
	case Flat:
		if m.Workers < 1 {
			return nil, nil, api.NewError(api.KindConfiguration,
				errors.Wrapf(api.ErrInvalidArgument, "worker count must be >= 1, got %d", m.Workers))
		}
	case NUMAAware:
		if m.WorkersPerNode < 1 {
			return nil, nil, api.NewError(api.KindConfiguration,
				errors.Wrapf(api.ErrInvalidArgument, "workers per node must be >= 1, got %d", m.WorkersPerNode))
		}
	}
	if c.bootstrapThreads < 1 {
		return nil, nil, api.NewError(api.KindConfiguration,
			errors.Wrapf(api.ErrInvalidArgument, "bootstrap threads must be >= 1, got %d", c.bootstrapThreads))
	}
	budget := c.budget
	if budget == 0 {
		b, err := CPUBudgetFromEnv()
		if err != nil {
			return nil, nil, err
		}
		budget = b
	} else if budget < 0 {
		return nil, nil, api.NewError(api.KindConfiguration,
			errors.Wrapf(api.ErrInvalidArgument, "cpu budget must be >= 1, got %d", budget))
	}
	if !c.launched.CompareAndSwap(false, true) {
		return nil, nil, api.NewError(api.KindConfiguration, api.ErrAlreadyLaunched)
	}

	p := &plan{
		mode:             c.Mode(),
		requireNUMA:      c.requireNUMA,
		split:            c.split,
		init:             c.init,
		budget:           budget,
		topology:         c.topology,
		affinity:         c.affinity,
		logger:           c.logger,
		metrics:          c.metrics,
		bootstrapThreads: c.bootstrapThreads,
	}
	if p.init == nil {
		p.init = func(*Worker) (any, error) { return nil, nil }
	}
	if p.topology == nil {
		p.topology = adapters.NewTopologyAdapter()
	}
	if p.affinity == nil {
		p.affinity = adapters.NewAffinityAdapter()
	}
	if p.logger == nil {
		p.logger = zap.NewNop()
	}
	entry := c.entry
	if entry == nil {
		entry = func() Task[T] {
			return func(*Worker) (T, error) {
				var zero T
				return zero, nil
			}
		}
	}
	return p, entry, nil
}

// Launch runs the group to completion and returns the root task results in
// creation order, or the first failure in creation order. A configuration
// and all of its copies launch at most once.
func (c Config[T]) Launch() ([]T, error) {
	p, entry, err := c.ready()
	if err != nil {
		return nil, err
	}
	return newLauncher(p, entry, concurrency.NewRuntime).run()
}
