// Package control
// Author: momentics <momentics@gmail.com>
//
// Runtime metrics and debug introspection for worker groups.
//
// Provides:
//   - Prometheus collectors updated by the launcher
//   - Named debug probes, with platform probes describing CPUs and NUMA nodes
package control
