package adapters_test

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"

	"github.com/momentics/workergroup/adapters"
	"github.com/momentics/workergroup/api"
)

type staticTopology struct {
	nodes   int
	cpusErr error
}

func (s staticTopology) NodeCount() (int, error) {
	if s.nodes == 0 {
		return 0, errors.Wrap(api.ErrNotSupported, "numa")
	}
	return s.nodes, nil
}

func (s staticTopology) NodeCPUs(node int) ([]int, error) {
	if s.cpusErr != nil {
		return nil, s.cpusErr
	}
	return []int{node * 2, node*2 + 1}, nil
}

func (s staticTopology) NUMAAvailable() bool { return s.nodes > 0 }

func TestDescribe(t *testing.T) {
	d := adapters.Describe(staticTopology{nodes: 2})
	assert.True(t, d.NUMAAvailable)
	assert.Empty(t, d.Err)
	assert.Equal(t, []adapters.NodeInfo{
		{ID: 0, CPUs: []int{0, 1}},
		{ID: 1, CPUs: []int{2, 3}},
	}, d.Nodes)
}

func TestDescribeUnsupported(t *testing.T) {
	d := adapters.Describe(staticTopology{})
	assert.False(t, d.NUMAAvailable)
	assert.Empty(t, d.Nodes)
	assert.Contains(t, d.Err, "not supported")

	d = adapters.Describe(staticTopology{nodes: 1, cpusErr: errors.New("unreadable")})
	assert.Len(t, d.Nodes, 1)
	assert.Nil(t, d.Nodes[0].CPUs)
	assert.Equal(t, "unreadable", d.Err)
}

func TestPlatformTopologyIsConsistent(t *testing.T) {
	topo := adapters.NewTopologyAdapter()
	n, err := topo.NodeCount()
	if err != nil {
		assert.ErrorIs(t, err, api.ErrNotSupported)
		return
	}
	assert.GreaterOrEqual(t, n, 1)
	_, err = topo.NodeCPUs(0)
	assert.NoError(t, err)
}

func TestAffinityAdapterCountsFailures(t *testing.T) {
	a := adapters.NewAffinityAdapter()
	assert.Error(t, a.BindCurrentThread(nil))
	bound, failed := a.Counts()
	assert.Zero(t, bound)
	assert.Equal(t, int64(1), failed)
}
