package group

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/momentics/workergroup/api"
)

func TestFlatThreadsNeverZero(t *testing.T) {
	for budget := 1; budget <= 64; budget++ {
		for workers := 1; workers <= 96; workers++ {
			got := flatThreads(CPUBudget(budget), workers)
			want := budget / workers
			if want < 1 {
				want = 1
			}
			if got != want {
				t.Fatalf("flatThreads(%d, %d) = %d, want %d", budget, workers, got, want)
			}
		}
	}
}

func TestLayoutFlat(t *testing.T) {
	slots := layoutFlat(8, 3)
	require.Len(t, slots, 3)
	for i, s := range slots {
		assert.Equal(t, i, s.index)
		assert.Equal(t, api.NoWorker, s.node)
		assert.Equal(t, 2, s.threads)
		assert.False(t, s.bind)
	}
}

func numaPlan(topo api.Topology, budget CPUBudget) *plan {
	return &plan{topology: topo, budget: budget, logger: zap.NewNop()}
}

func TestLayoutNUMANodeMajor(t *testing.T) {
	topo := &fakeTopology{
		nodes:     3,
		available: true,
		cpus:      map[int][]int{0: {0, 1, 2, 3}, 1: {4, 5, 6, 7}, 2: {}},
	}
	slots, err := layoutNUMA(numaPlan(topo, 8), 2)
	require.NoError(t, err)
	require.Len(t, slots, 6)

	nodes := make([]int, len(slots))
	for i, s := range slots {
		assert.Equal(t, i, s.index)
		assert.GreaterOrEqual(t, s.threads, 1)
		nodes[i] = s.node
	}
	assert.Equal(t, []int{0, 0, 1, 1, 2, 2}, nodes)

	assert.Equal(t, 2, slots[0].threads)
	assert.Equal(t, []int{4, 5, 6, 7}, slots[2].cpus)
	assert.True(t, slots[2].bind)
	// memory-only node: one thread, nothing to bind to
	assert.Equal(t, 1, slots[4].threads)
	assert.False(t, slots[4].bind)
}

func TestLayoutNUMASplitAcrossNodes(t *testing.T) {
	topo := &fakeTopology{
		nodes:     2,
		available: true,
		cpus:      map[int][]int{0: {0, 1, 2, 3, 4, 5, 6, 7}, 1: {8, 9, 10, 11, 12, 13, 14, 15}},
	}
	p := numaPlan(topo, 16)
	p.split = SplitAcrossNodes
	slots, err := layoutNUMA(p, 2)
	require.NoError(t, err)
	for _, s := range slots {
		assert.Equal(t, 2, s.threads) // 8 / (2*2)
	}

	p.split = SplitPerNode
	slots, err = layoutNUMA(p, 2)
	require.NoError(t, err)
	for _, s := range slots {
		assert.Equal(t, 4, s.threads) // 8 / 2
	}
}

func TestLayoutNUMAWorkerTotals(t *testing.T) {
	for nodes := 1; nodes <= 4; nodes++ {
		for perNode := 1; perNode <= 4; perNode++ {
			cpus := map[int][]int{}
			for n := 0; n < nodes; n++ {
				cpus[n] = []int{n}
			}
			topo := &fakeTopology{nodes: nodes, available: true, cpus: cpus}
			slots, err := layoutNUMA(numaPlan(topo, 4), perNode)
			require.NoError(t, err)
			assert.Len(t, slots, nodes*perNode)
			for _, s := range slots {
				assert.GreaterOrEqual(t, s.threads, 1)
			}
		}
	}
}

func TestLayoutNUMAUnavailableMemoryPolicy(t *testing.T) {
	topo := &fakeTopology{nodes: 2, available: false, cpus: map[int][]int{0: {0}, 1: {1}}}
	slots, err := layoutNUMA(numaPlan(topo, 8), 2)
	require.NoError(t, err)
	require.Len(t, slots, 4)
	for _, s := range slots {
		assert.Equal(t, 2, s.threads) // 8 / (2*2)
		assert.False(t, s.bind)
	}
}

func TestLayoutNUMAUnsupportedDemotesToFlat(t *testing.T) {
	slots, err := layoutNUMA(numaPlan(unsupportedTopology(), 8), 2)
	require.NoError(t, err)
	flat := layoutFlat(8, 2)
	require.Len(t, slots, len(flat))
	for i := range slots {
		assert.Equal(t, flat[i].threads, slots[i].threads)
		assert.False(t, slots[i].bind)
	}
}

func TestLayoutNUMARequired(t *testing.T) {
	p := numaPlan(unsupportedTopology(), 8)
	p.requireNUMA = true
	_, err := layoutNUMA(p, 2)
	require.Error(t, err)
	assert.Equal(t, api.KindPlatformUnsupported, api.KindOf(err))
	assert.ErrorIs(t, err, api.ErrNotSupported)

	p = numaPlan(&fakeTopology{nodes: 2, available: false}, 8)
	p.requireNUMA = true
	_, err = layoutNUMA(p, 1)
	assert.Equal(t, api.KindPlatformUnsupported, api.KindOf(err))
}

func TestLayoutNUMANodeCPUsError(t *testing.T) {
	topo := &fakeTopology{nodes: 2, available: true, cpusErr: api.ErrNotSupported}
	slots, err := layoutNUMA(numaPlan(topo, 8), 1)
	require.NoError(t, err)
	for _, s := range slots {
		assert.Equal(t, 4, s.threads)
		assert.False(t, s.bind)
	}
}
