// File: group/layout.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Sizing of worker runtimes. Divisions floor and clamp to one thread.

package group

import (
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/momentics/workergroup/api"
)

// slot is one worker runtime to create, in creation order.
type slot struct {
	index   int
	node    int // api.NoWorker in flat mode
	threads int
	cpus    []int
	bind    bool
}

// flatThreads is the per-worker share of budget when split over workers.
func flatThreads(budget CPUBudget, workers int) int {
	return max(int(budget)/workers, 1)
}

// nodeThreads is the per-worker share of a node's CPUs.
func nodeThreads(nodeCPUs, nodes, perNode int, split NodeSplit) int {
	div := perNode
	if split == SplitAcrossNodes {
		div = nodes * perNode
	}
	return max(nodeCPUs/div, 1)
}

func layoutFlat(budget CPUBudget, workers int) []slot {
	threads := flatThreads(budget, workers)
	slots := make([]slot, workers)
	for i := range slots {
		slots[i] = slot{index: i, node: api.NoWorker, threads: threads}
	}
	return slots
}

// layoutNUMA lays workers out node-major, worker-minor. Without usable
// topology it demotes to flat sizing over a single synthetic node, reported
// as api.NoWorker like flat workers, unless NUMA is mandatory.
func layoutNUMA(p *plan, perNode int) ([]slot, error) {
	nodes, err := p.topology.NodeCount()
	usable := err == nil && nodes > 0 && p.topology.NUMAAvailable()
	synthetic := err != nil || nodes < 1
	if synthetic {
		if p.requireNUMA {
			return nil, api.NewError(api.KindPlatformUnsupported,
				errors.Wrap(orUnsupported(err), "numa topology"))
		}
		p.logger.Warn("numa topology unavailable, using flat sizing", zap.Error(err))
		nodes = 1
	} else if !usable {
		if p.requireNUMA {
			return nil, api.NewError(api.KindPlatformUnsupported,
				errors.Wrap(api.ErrNotSupported, "numa memory policy"))
		}
		p.logger.Warn("numa memory policy unavailable, workers stay unpinned", zap.Int("nodes", nodes))
	}

	fallback := flatThreads(p.budget, nodes*perNode)
	slots := make([]slot, 0, nodes*perNode)
	for node := 0; node < nodes; node++ {
		var cpus []int
		nodeOK := usable
		if usable {
			if cpus, err = p.topology.NodeCPUs(node); err != nil {
				if p.requireNUMA {
					return nil, (&api.Error{Kind: api.KindPlatformUnsupported,
						Err: errors.Wrapf(err, "cpus of node %d", node)}).ForWorker(api.NoWorker, node)
				}
				p.logger.Warn("cannot read node cpus, workers stay unpinned", zap.Int("node", node), zap.Error(err))
				nodeOK = false
			}
		}
		for w := 0; w < perNode; w++ {
			s := slot{index: len(slots), node: node, threads: fallback}
			if synthetic {
				s.node = api.NoWorker
			}
			if nodeOK {
				s.threads = nodeThreads(len(cpus), nodes, perNode, p.split)
				s.cpus = cpus
				s.bind = len(cpus) > 0
			}
			slots = append(slots, s)
		}
	}
	return slots, nil
}

func orUnsupported(err error) error {
	if err == nil {
		return api.ErrNotSupported
	}
	return err
}
