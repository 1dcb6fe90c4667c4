// File: cmd/workergroup/main.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// workergroup launches a synthetic hashing workload on a NUMA-aware worker
// group and reports per-worker results, or prints the platform topology.

package main

import (
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

const envPrefix = "WORKERGROUP"

func newRootCmd(v *viper.Viper) *cobra.Command {
	root := &cobra.Command{
		Use:           "workergroup",
		Short:         "Run worker groups pinned per NUMA node",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return loadConfigFile(v)
		},
	}

	flags := root.PersistentFlags()
	flags.String("config", "", "YAML config file")
	flags.Bool("debug", false, "Enable debug logging")
	_ = v.BindPFlag("config", flags.Lookup("config"))
	_ = v.BindPFlag("debug", flags.Lookup("debug"))

	root.AddCommand(newRunCmd(v))
	root.AddCommand(newTopologyCmd(v))
	return root
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	return v
}

func loadConfigFile(v *viper.Viper) error {
	path := v.GetString("config")
	if path == "" {
		return nil
	}
	v.SetConfigFile(path)
	return v.ReadInConfig()
}

func newLogger(v *viper.Viper) (*zap.Logger, error) {
	if v.GetBool("debug") {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

func main() {
	if err := newRootCmd(newViper()).Execute(); err != nil {
		os.Stderr.WriteString("workergroup: " + err.Error() + "\n")
		os.Exit(1)
	}
}
