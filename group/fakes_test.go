package group

import (
	"sync"
	"sync/atomic"

	"github.com/pkg/errors"

	"github.com/momentics/workergroup/api"
	"github.com/momentics/workergroup/internal/concurrency"
)

type fakeTopology struct {
	nodes     int
	cpus      map[int][]int
	available bool
	countErr  error
	cpusErr   error
}

func (f *fakeTopology) NodeCount() (int, error) {
	if f.countErr != nil {
		return 0, f.countErr
	}
	return f.nodes, nil
}

func (f *fakeTopology) NodeCPUs(node int) ([]int, error) {
	if f.cpusErr != nil {
		return nil, f.cpusErr
	}
	return f.cpus[node], nil
}

func (f *fakeTopology) NUMAAvailable() bool { return f.available }

func unsupportedTopology() *fakeTopology {
	return &fakeTopology{countErr: errors.Wrap(api.ErrNotSupported, "numa")}
}

type fakeAffinity struct {
	mu    sync.Mutex
	binds map[string]int
	err   error
}

func (f *fakeAffinity) BindCurrentThread(cpus []int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.binds == nil {
		f.binds = make(map[string]int)
	}
	f.binds[key(cpus)]++
	return f.err
}

func (f *fakeAffinity) count(cpus []int) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.binds[key(cpus)]
}

func key(cpus []int) string {
	b := make([]byte, 0, len(cpus)*3)
	for _, c := range cpus {
		b = append(b, byte('0'+c%10), ',')
	}
	return string(b)
}

// failingFactory builds real runtimes but fails the nth call (0 is the
// bootstrap runtime).
type failingFactory struct {
	failAt int
	calls  atomic.Int32
}

func (f *failingFactory) newRuntime(cfg concurrency.RuntimeConfig) (*concurrency.Runtime, error) {
	if int(f.calls.Add(1)-1) == f.failAt {
		return nil, errors.Wrap(api.ErrResourceExhausted, "injected")
	}
	return concurrency.NewRuntime(cfg)
}

// launchWith runs c through the launcher with a custom runtime factory.
func launchWith[T any](c Config[T], newRuntime runtimeFactory) ([]T, error) {
	p, entry, err := c.ready()
	if err != nil {
		return nil, err
	}
	return newLauncher(p, entry, newRuntime).run()
}

type recordingGuard struct {
	closed   atomic.Bool
	closedAt atomic.Int64
	clock    *atomic.Int64
}

func (g *recordingGuard) Close() error {
	g.closed.Store(true)
	g.closedAt.Store(g.clock.Add(1))
	return nil
}
