// Package config loads the run configuration from YAML: host specs, the
// worker-shared table's scalar fields, and scheduler/run-control options
// (§1 Scope: "Configuration loading... out of scope" for the core driver,
// but the thin ambient loader that feeds it is not).
package config

import (
	"bytes"
	"fmt"
	"net"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/netsim/hostdriver/driver"
	"github.com/netsim/hostdriver/driver/worker"
)

// ApplicationConfig is the YAML shape of one guest application under a host.
type ApplicationConfig struct {
	Argv               []string `yaml:"argv"`
	Envv               []string `yaml:"envv"`
	StartTimeNs        int64    `yaml:"start_time_ns"`
	ShutdownTimeNs     int64    `yaml:"shutdown_time_ns"`
	ShutdownSignal     int      `yaml:"shutdown_signal"`
	ExpectedFinalState string   `yaml:"expected_final_state"`
}

// HostConfig is the YAML shape of one host (§4.6 Host build).
type HostConfig struct {
	Name                 string              `yaml:"name"`
	IPv4                 string              `yaml:"ip"`
	BandwidthBytesPerSec float64             `yaml:"bandwidth_bytes_per_sec"`
	BufferSizeBytes      int                 `yaml:"buffer_size_bytes"`
	CPUModel             string              `yaml:"cpu_model"`
	Seed                 int64               `yaml:"seed"`
	PreloadLibraries     []string            `yaml:"preload_libraries"`
	Applications         []ApplicationConfig `yaml:"applications"`
}

// SchedulerConfig is the YAML shape of the scheduler options (§4.3).
type SchedulerConfig struct {
	Strategy      string `yaml:"strategy"` // "thread-per-host" (default) or "thread-per-core"
	Parallelism   int    `yaml:"parallelism"`
	UseCPUPinning bool   `yaml:"use_cpu_pinning"`
	SpinWait      bool   `yaml:"spin_wait"`
}

// Config is the top-level YAML document accepted by `hostdriver run`.
type Config struct {
	Hosts             []HostConfig    `yaml:"hosts"`
	ShuffleSeed       int64           `yaml:"shuffle_seed"`
	RunaheadNs        int64           `yaml:"runahead_ns"`
	SimEndTimeNs      int64           `yaml:"sim_end_time_ns"`
	BootstrapEndNs    int64           `yaml:"bootstrap_end_time_ns"`
	HeartbeatIntervalNs int64         `yaml:"heartbeat_interval_ns"`
	Scheduler         SchedulerConfig `yaml:"scheduler"`
}

// Load reads and strictly parses a YAML config file (§6 External
// Interfaces); unrecognized keys are a fatal configuration error (§7
// Configuration invalid).
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: reading %q: %w", path, err)
	}
	var cfg Config
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("config: parsing %q: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %q invalid: %w", path, err)
	}
	return &cfg, nil
}

// Validate rejects IPv6 host addresses and duplicate host names before the
// DNS builder ever sees them, giving a config-time error instead of a
// host-build-time one (§7 Configuration invalid).
func (c *Config) Validate() error {
	seenNames := make(map[string]bool, len(c.Hosts))
	for i, h := range c.Hosts {
		if h.Name == "" {
			return fmt.Errorf("hosts[%d]: name is required", i)
		}
		if seenNames[h.Name] {
			return fmt.Errorf("hosts[%d]: duplicate host name %q", i, h.Name)
		}
		seenNames[h.Name] = true

		ip := net.ParseIP(h.IPv4)
		if ip == nil {
			return fmt.Errorf("hosts[%d] (%s): invalid ip %q", i, h.Name, h.IPv4)
		}
		if ip.To4() == nil {
			return fmt.Errorf("hosts[%d] (%s): ipv6 addresses are rejected", i, h.Name)
		}

		for _, lib := range h.PreloadLibraries {
			for _, r := range lib {
				if r == ' ' || r == ':' {
					return fmt.Errorf("hosts[%d] (%s): preload library path %q contains an LD_PRELOAD-incompatible character", i, h.Name, lib)
				}
			}
		}
	}
	if c.Scheduler.Strategy != "" && c.Scheduler.Strategy != "thread-per-host" && c.Scheduler.Strategy != "thread-per-core" {
		return fmt.Errorf("scheduler.strategy: unknown strategy %q", c.Scheduler.Strategy)
	}
	return nil
}

// ToHostSpecs converts the YAML host list into the worker.HostSpec slice
// worker.BuildHosts consumes (§4.6).
func (c *Config) ToHostSpecs() []worker.HostSpec {
	specs := make([]worker.HostSpec, len(c.Hosts))
	for i, h := range c.Hosts {
		apps := make([]worker.ApplicationSpec, len(h.Applications))
		for j, a := range h.Applications {
			apps[j] = worker.ApplicationSpec{
				Argv:               a.Argv,
				Envv:               a.Envv,
				StartTime:          driver.EmulatedTime(a.StartTimeNs),
				ShutdownTime:       driver.EmulatedTime(a.ShutdownTimeNs),
				ShutdownSignal:     a.ShutdownSignal,
				ExpectedFinalState: a.ExpectedFinalState,
			}
		}
		specs[i] = worker.HostSpec{
			Name:                 h.Name,
			IPv4:                 net.ParseIP(h.IPv4),
			BandwidthBytesPerSec: h.BandwidthBytesPerSec,
			BufferSizeBytes:      h.BufferSizeBytes,
			CPUModel:             h.CPUModel,
			Seed:                 h.Seed,
			PreloadLibraryPaths:  h.PreloadLibraries,
			Applications:         apps,
		}
	}
	return specs
}

// Marshal renders the processed configuration back to YAML, as persisted
// to <data_dir>/processed-config.yaml (§6 Persisted outputs).
func (c *Config) Marshal() ([]byte, error) {
	return yaml.Marshal(c)
}
