// File: cmd/workergroup/topology.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package main

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v2"

	"github.com/momentics/workergroup/adapters"
	"github.com/momentics/workergroup/control"
	"github.com/momentics/workergroup/group"
)

type topologyReport struct {
	OS         string                      `yaml:"os"`
	CPUs       int                         `yaml:"cpus"`
	GOMAXPROCS int                         `yaml:"gomaxprocs"`
	CPUBudget  int                         `yaml:"cpu_budget"`
	Topology   adapters.TopologyDescriptor `yaml:"topology"`
}

func newTopologyCmd(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "topology",
		Short: "Print CPUs, NUMA nodes and the resolved CPU budget",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			budget, err := group.CPUBudgetFromEnv()
			if err != nil {
				return err
			}
			dp := control.NewDebugProbes()
			control.RegisterPlatformProbes(dp, adapters.NewTopologyAdapter())
			state := dp.DumpState()

			report := topologyReport{
				OS:         state["platform.os"].(string),
				CPUs:       state["platform.cpus"].(int),
				GOMAXPROCS: state["platform.gomaxprocs"].(int),
				CPUBudget:  int(budget),
				Topology:   state["numa.topology"].(adapters.TopologyDescriptor),
			}
			out, err := yaml.Marshal(report)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(out)
			return err
		},
	}
}
