//go:build windows
// +build windows

// File: internal/concurrency/topology_windows.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Windows thread binding via SetThreadAffinityMask. NUMA discovery is not
// implemented on Windows; launchers demote to flat sizing.

package concurrency

import (
	"github.com/pkg/errors"
	"golang.org/x/sys/windows"

	"github.com/momentics/workergroup/api"
)

var (
	modkernel32               = windows.NewLazySystemDLL("kernel32.dll")
	procSetThreadAffinityMask = modkernel32.NewProc("SetThreadAffinityMask")
	procGetCurrentThread      = modkernel32.NewProc("GetCurrentThread")
)

func platformNUMAAvailable() bool { return false }

func platformNUMANodes() (int, error) {
	return 0, errors.Wrap(api.ErrNotSupported, "numa: not implemented on windows")
}

func platformNodeCPUs(node int) ([]int, error) {
	return nil, errors.Wrapf(api.ErrNotSupported, "numa: node %d: not implemented on windows", node)
}

// platformBindCurrentThread covers the first processor group only (CPUs 0-63).
func platformBindCurrentThread(cpus []int) error {
	var mask uintptr
	for _, c := range cpus {
		if c >= 0 && c < 64 {
			mask |= uintptr(1) << uint(c)
		}
	}
	if mask == 0 {
		return errors.Wrapf(api.ErrInvalidArgument, "affinity: no addressable cpu in %v", cpus)
	}
	handle, _, _ := procGetCurrentThread.Call()
	old, _, err := procSetThreadAffinityMask.Call(handle, mask)
	if old == 0 {
		return errors.Errorf("affinity: SetThreadAffinityMask failed: %v", err)
	}
	return nil
}
