//go:build linux
// +build linux

// File: internal/concurrency/topology_linux.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Linux NUMA discovery via sysfs and thread binding via sched_setaffinity(2).

package concurrency

import (
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/sys/unix"

	"github.com/momentics/workergroup/api"
)

// sysNodeDir is a variable so tests can point discovery at a fake tree.
var sysNodeDir = "/sys/devices/system/node"

// platformNUMAAvailable calls get_mempolicy(2) with no outputs; kernels built
// without NUMA answer ENOSYS.
func platformNUMAAvailable() bool {
	_, _, errno := unix.Syscall6(unix.SYS_GET_MEMPOLICY, 0, 0, 0, 0, 0, 0)
	return errno == 0
}

// platformNUMANodes returns the highest node ID plus one. Node IDs may have
// gaps (offline nodes); IDs inside the range without a directory have no CPUs.
func platformNUMANodes() (int, error) {
	entries, err := os.ReadDir(sysNodeDir)
	if err != nil {
		return 0, errors.Wrapf(api.ErrNotSupported, "numa: %v", err)
	}
	maxID := -1
	for _, e := range entries {
		if id, ok := nodeID(e.Name()); ok && id > maxID {
			maxID = id
		}
	}
	if maxID < 0 {
		return 0, errors.Wrapf(api.ErrNotSupported, "numa: no nodes under %s", sysNodeDir)
	}
	return maxID + 1, nil
}

func platformNodeCPUs(node int) ([]int, error) {
	dir := filepath.Join(sysNodeDir, "node"+strconv.Itoa(node))
	if raw, err := os.ReadFile(filepath.Join(dir, "cpulist")); err == nil {
		return ParseCPUList(string(raw))
	}
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) && node >= 0 {
		if n, nerr := platformNUMANodes(); nerr == nil && node < n {
			return []int{}, nil
		}
	}
	if err != nil {
		return nil, errors.Wrapf(api.ErrNotSupported, "numa: node %d: %v", node, err)
	}
	cpus := []int{}
	for _, e := range entries {
		if !strings.HasPrefix(e.Name(), "cpu") {
			continue
		}
		if id, err := strconv.Atoi(strings.TrimPrefix(e.Name(), "cpu")); err == nil {
			cpus = append(cpus, id)
		}
	}
	sort.Ints(cpus)
	return cpus, nil
}

// nodeID parses "node<N>" directory names.
func nodeID(name string) (int, bool) {
	if !strings.HasPrefix(name, "node") {
		return 0, false
	}
	id, err := strconv.Atoi(strings.TrimPrefix(name, "node"))
	return id, err == nil
}

func platformBindCurrentThread(cpus []int) error {
	if len(cpus) == 0 {
		return errors.Wrap(api.ErrInvalidArgument, "affinity: empty cpu set")
	}
	var set unix.CPUSet
	set.Zero()
	for _, c := range cpus {
		set.Set(c)
	}
	if set.Count() == 0 {
		return errors.Wrapf(api.ErrInvalidArgument, "affinity: no addressable cpu in %v", cpus)
	}
	return errors.Wrap(unix.SchedSetaffinity(0, &set), "affinity: sched_setaffinity")
}
