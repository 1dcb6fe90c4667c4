// File: cmd/workergroup/run.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package main

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"net"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"gopkg.in/yaml.v2"

	"github.com/momentics/workergroup/adapters"
	"github.com/momentics/workergroup/control"
	"github.com/momentics/workergroup/group"
)

// runOptions is the resolved configuration of the run command.
type runOptions struct {
	NUMA           bool   `mapstructure:"numa"`
	RequireNUMA    bool   `mapstructure:"require_numa"`
	Workers        int    `mapstructure:"workers"`
	WorkersPerNode int    `mapstructure:"workers_per_node"`
	NodeSplit      string `mapstructure:"node_split"`
	Tasks          int    `mapstructure:"tasks"`
	Rounds         int    `mapstructure:"rounds"`
	MetricsAddr    string `mapstructure:"metrics_addr"`
}

// workerReport is what each root task returns.
type workerReport struct {
	Worker  int           `yaml:"worker"`
	Node    int           `yaml:"node"`
	Threads int           `yaml:"threads"`
	CPUs    []int         `yaml:"cpus,omitempty"`
	Tasks   int           `yaml:"tasks"`
	Digest  string        `yaml:"digest"`
	Elapsed time.Duration `yaml:"elapsed"`
}

func newRunCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Launch a worker group running a hashing workload",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var opts runOptions
			if err := v.Unmarshal(&opts); err != nil {
				return errors.Wrap(err, "decoding options")
			}
			logger, err := newLogger(v)
			if err != nil {
				return err
			}
			defer logger.Sync()

			reports, err := launch(opts, logger)
			if err != nil {
				return err
			}
			out, err := yaml.Marshal(reports)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(out)
			return err
		},
	}

	bindRunFlags(v, cmd.Flags())
	return cmd
}

var runFlagNames = []string{"numa", "require-numa", "workers", "workers-per-node", "node-split", "tasks", "rounds", "metrics-addr"}

func bindRunFlags(v *viper.Viper, flags *pflag.FlagSet) {
	flags.Bool("numa", false, "Group workers per NUMA node and pin their threads")
	flags.Bool("require-numa", false, "Fail instead of falling back when NUMA is unavailable")
	flags.Int("workers", 1, "Number of workers in flat mode")
	flags.Int("workers-per-node", 1, "Number of workers per NUMA node in NUMA mode")
	flags.String("node-split", group.SplitPerNode.String(), "How node CPUs are split: per-node or across-nodes")
	flags.Int("tasks", 64, "Subtasks spawned by each worker")
	flags.Int("rounds", 10000, "SHA-256 rounds per subtask")
	flags.String("metrics-addr", "", "Serve /metrics and /debug/probes on this address while workers run")
	for _, name := range runFlagNames {
		_ = v.BindPFlag(strings.ReplaceAll(name, "-", "_"), flags.Lookup(name))
	}
}

func launch(opts runOptions, logger *zap.Logger) ([]workerReport, error) {
	if opts.Tasks < 1 || opts.Rounds < 1 {
		return nil, errors.Errorf("tasks and rounds must be >= 1, got %d and %d", opts.Tasks, opts.Rounds)
	}
	split, err := group.ParseNodeSplit(opts.NodeSplit)
	if err != nil {
		return nil, err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	metrics := control.NewMetrics(reg)
	probes := control.NewDebugProbes()
	control.RegisterPlatformProbes(probes, adapters.NewTopologyAdapter())

	return group.New[workerReport]().
		NUMA(opts.NUMA).
		RequireNUMA(opts.RequireNUMA).
		WorkerCount(opts.Workers).
		WorkersPerNode(opts.WorkersPerNode).
		NodeSplit(split).
		Logger(logger).
		Metrics(metrics).
		Init(func(w *group.Worker) (any, error) {
			if opts.MetricsAddr == "" {
				return nil, nil
			}
			srv, err := serveMetrics(opts.MetricsAddr, reg, probes, w.Logger())
			if err != nil {
				return nil, err
			}
			return srv, nil
		}).
		Entry(func() group.Task[workerReport] {
			return func(w *group.Worker) (workerReport, error) {
				return hashWorkload(w, opts.Tasks, opts.Rounds)
			}
		}).
		Launch()
}

// hashWorkload spreads tasks SHA-256 chains over the worker runtime and folds
// their results into one digest.
func hashWorkload(w *group.Worker, tasks, rounds int) (workerReport, error) {
	start := time.Now()
	digests := make([][sha256.Size]byte, tasks)
	handles := make([]*group.JoinHandle, 0, tasks)
	for i := 0; i < tasks; i++ {
		i := i
		h, err := w.Spawn(func() { digests[i] = hashChain(w.Index(), i, rounds) })
		if err != nil {
			return workerReport{}, err
		}
		handles = append(handles, h)
	}
	for _, h := range handles {
		if err := h.Wait(); err != nil {
			return workerReport{}, err
		}
	}

	fold := sha256.New()
	for _, d := range digests {
		fold.Write(d[:])
	}
	return workerReport{
		Worker:  w.Index(),
		Node:    w.Node(),
		Threads: w.Threads(),
		CPUs:    w.CPUs(),
		Tasks:   tasks,
		Digest:  hex.EncodeToString(fold.Sum(nil)[:8]),
		Elapsed: time.Since(start),
	}, nil
}

func hashChain(worker, task, rounds int) [sha256.Size]byte {
	var seed [16]byte
	binary.LittleEndian.PutUint64(seed[:8], uint64(worker))
	binary.LittleEndian.PutUint64(seed[8:], uint64(task))
	sum := sha256.Sum256(seed[:])
	for r := 1; r < rounds; r++ {
		sum = sha256.Sum256(sum[:])
	}
	return sum
}

// metricsServer serves metrics for the lifetime of the worker phase. It is
// the init guard, so the launcher closes it after the last worker.
type metricsServer struct {
	srv    *http.Server
	done   chan struct{}
	logger *zap.Logger
	closed atomic.Bool
}

func serveMetrics(addr string, reg *prometheus.Registry, probes *control.DebugProbes, logger *zap.Logger) (*metricsServer, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, errors.Wrapf(err, "metrics listener on %s", addr)
	}
	r := mux.NewRouter()
	r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{})).Methods(http.MethodGet)
	r.HandleFunc("/debug/probes", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(probes.DumpState())
	}).Methods(http.MethodGet)

	s := &metricsServer{
		srv:    &http.Server{Handler: r, ReadHeaderTimeout: 5 * time.Second},
		done:   make(chan struct{}),
		logger: logger,
	}
	go func() {
		defer close(s.done)
		if err := s.srv.Serve(ln); err != nil && err != http.ErrServerClosed {
			logger.Error("metrics server", zap.Error(err))
		}
	}()
	logger.Info("serving metrics", zap.String("addr", ln.Addr().String()))
	return s, nil
}

// Close stops the server and waits for Serve to return.
func (s *metricsServer) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}
	err := s.srv.Close()
	<-s.done
	return err
}
