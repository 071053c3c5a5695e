// Package cmd wires the cobra CLI: `hostdriver run --config ...`.
package cmd

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/netsim/hostdriver/config"
	"github.com/netsim/hostdriver/driver"
	"github.com/netsim/hostdriver/driver/host"
	"github.com/netsim/hostdriver/driver/pump"
	"github.com/netsim/hostdriver/driver/runcontrol"
	"github.com/netsim/hostdriver/driver/scheduler"
	"github.com/netsim/hostdriver/driver/worker"
)

var (
	configPath   string
	dataDir      string
	parallelism  int
	pinCPUs      bool
	logLevel     string
	seedOverride int64
	spinWait     bool
)

var rootCmd = &cobra.Command{
	Use:   "hostdriver",
	Short: "Windowed parallel driver for a discrete-event network simulation",
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Load a config and run the simulation to completion",
	RunE:  runMain,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	runCmd.Flags().StringVar(&configPath, "config", "", "path to the YAML config file (required)")
	runCmd.Flags().StringVar(&dataDir, "data-dir", "shadow.data", "output directory for processed-config.yaml, sim-stats.json, hosts/")
	runCmd.Flags().IntVar(&parallelism, "parallelism", 0, "worker thread count (0 = logical CPU count)")
	runCmd.Flags().BoolVar(&pinCPUs, "pin-cpus", false, "pin each worker thread to one CPU core")
	runCmd.Flags().BoolVar(&spinWait, "spin-wait", false, "thread-per-core only: re-check the work queue once before a worker stops")
	runCmd.Flags().StringVar(&logLevel, "log", "info", "log level (trace, debug, info, warn, error)")
	runCmd.Flags().Int64Var(&seedOverride, "seed", 0, "override the config's host-shuffle seed (0 = use config value)")
	_ = runCmd.MarkFlagRequired("config")

	rootCmd.AddCommand(runCmd)
}

func runMain(cmd *cobra.Command, args []string) error {
	level, err := logrus.ParseLevel(logLevel)
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", logLevel, err)
	}
	logrus.SetLevel(level)

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	shuffleSeed := cfg.ShuffleSeed
	if seedOverride != 0 {
		shuffleSeed = seedOverride
	}

	if err := os.MkdirAll(filepath.Join(dataDir, "hosts"), 0o755); err != nil {
		return fmt.Errorf("creating data dir: %w", err)
	}
	if err := writeProcessedConfig(cfg, dataDir); err != nil {
		return err
	}

	logrus.WithFields(logrus.Fields{
		"num_hosts":    len(cfg.Hosts),
		"sim_end_ns":   cfg.SimEndTimeNs,
		"shuffle_seed": shuffleSeed,
	}).Info("starting run")

	if freq, err := driver.RawCPUFrequencyHz(); err == nil {
		logrus.WithField("cpu_max_freq_hz", freq).Debug("detected cpu frequency")
	}

	strategy := scheduler.ThreadPerHost
	if cfg.Scheduler.Strategy == "thread-per-core" {
		strategy = scheduler.ThreadPerCore
	}
	schedParallelism := cfg.Scheduler.Parallelism
	if parallelism != 0 {
		schedParallelism = parallelism
	}

	rc := runcontrol.New()
	interactive := term.IsTerminal(int(os.Stdin.Fd()))
	if interactive {
		go readCommands(rc)
	}

	runUntilNs := uint64(0)
	haveRunUntil := false
	for {
		// Every pass builds a fresh WorkerShared and host list (§4.5
		// In-process restart, §9 "a second run must construct a fresh
		// handle"): the prior pass's hosts were already shut down by
		// pump.Run's post-loop teardown and cannot be reused.
		shared, hosts, sched, err := buildWorld(cfg, shuffleSeed, strategy, schedParallelism)
		if err != nil {
			return err
		}

		if haveRunUntil {
			rc.PresetRestart(runUntilNs)
		}
		snap, err := pump.Run(pump.Config{
			Hosts:             hosts,
			Shared:            shared,
			Scheduler:         sched,
			Controller:        driver.GreedyController{Runahead: shared.Runahead, SimEndTime: shared.SimEndTime},
			RunControl:        rc,
			IsInteractive:     interactive,
			HeartbeatInterval: driver.SimulationTime(cfg.HeartbeatIntervalNs),
			Print: pump.PrintBoundary{
				Banner: func(w driver.Window) {
					fmt.Printf("** paused at window boundary\n**   next window start: t=%s\n", w.Start)
				},
				Info: func(w driver.Window) {
					fmt.Printf("**   next window: [%s, %s)\n", w.Start, w.End)
					fmt.Println("** Commands: c | cN (e.g. c10) | n | p | s | s:<pid> | info | r | rN")
				},
			},
		})
		if rr, ok := pump.IsRestartRequest(err); ok {
			logrus.WithField("run_until_ns", rr.RunUntilNs).Info("restart requested; re-entering")
			runUntilNs = rr.RunUntilNs
			haveRunUntil = true
			rc.Reset()
			continue
		}
		if err != nil {
			return err
		}
		return writeStats(snap, dataDir)
	}
}

// buildWorld constructs a fresh WorkerShared table, host list, and
// scheduler from cfg. Called once before the first run and again for
// every serviced restart, since WorkerShared and the hosts it references
// are torn down by pump.Run's post-loop teardown and cannot survive a
// restart (§4.5, §9 Design Notes).
func buildWorld(cfg *config.Config, shuffleSeed int64, strategy scheduler.Strategy, schedParallelism int) (*worker.Shared, []host.Host, scheduler.Scheduler, error) {
	shared := worker.New(nil, driver.SimulationTime(cfg.RunaheadNs), driver.EmulatedTime(cfg.SimEndTimeNs))
	shared.BootstrapEndTime = driver.EmulatedTime(cfg.BootstrapEndNs)

	hosts, dns, err := worker.BuildHosts(cfg.ToHostSpecs(), worker.BasicFactory{}, shuffleSeed)
	if err != nil {
		return nil, nil, nil, err
	}
	shared.DNS = dns
	for _, h := range hosts {
		if bh, ok := h.(interface{ EventQueueHandle() *driver.EventQueue }); ok {
			shared.EventQueues[h.ID()] = bh.EventQueueHandle()
		}
	}

	sched := scheduler.NewScheduler(hosts, shared, scheduler.Options{
		Strategy:      strategy,
		Parallelism:   schedParallelism,
		UseCPUPinning: pinCPUs || cfg.Scheduler.UseCPUPinning,
		ShuffleSeed:   shuffleSeed,
		SpinWait:      spinWait || cfg.Scheduler.SpinWait,
	})

	return shared, hosts, sched, nil
}

func readCommands(rc *runcontrol.State) {
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		if err := rc.Apply(line, func(pid int) {
			fmt.Printf("** To attach gdb: gdb -p %d\n", pid)
		}); err != nil {
			fmt.Println(err)
		}
	}
}

func writeProcessedConfig(cfg *config.Config, dataDir string) error {
	out, err := cfg.Marshal()
	if err != nil {
		return fmt.Errorf("marshaling processed config: %w", err)
	}
	path := filepath.Join(dataDir, "processed-config.yaml")
	if err := os.WriteFile(path, out, 0o644); err != nil {
		return fmt.Errorf("writing %q: %w", path, err)
	}
	return nil
}

func writeStats(snap driver.Snapshot, dataDir string) error {
	out, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling stats: %w", err)
	}
	path := filepath.Join(dataDir, "sim-stats.json")
	if err := os.WriteFile(path, out, 0o644); err != nil {
		return fmt.Errorf("writing %q: %w", path, err)
	}
	return nil
}
