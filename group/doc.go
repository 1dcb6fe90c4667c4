// File: group/doc.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Package group launches a fixed set of independent worker runtimes, one root
// task each, optionally grouped and pinned per NUMA node, and joins them.
//
// A launch runs in four phases. An init function runs once on a small
// bootstrap runtime and produces a guard. The CPU budget is then split across
// worker runtimes, either flat or per NUMA node. Every runtime receives one
// root task built by the entry factory. Finally all root tasks are joined;
// results come back in creation order, or the first failure in creation
// order is returned. The guard is closed after the last runtime has shut
// down.
//
//	results, err := group.New[int]().
//		NUMA(true).
//		WorkersPerNode(2).
//		Init(openStore).
//		Entry(func() group.Task[int] {
//			return func(w *group.Worker) (int, error) { return serve(w) }
//		}).
//		Launch()
//
// There is no cancellation: a launched group runs until every root task
// returns.
package group
