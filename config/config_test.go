package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/netsim/hostdriver/config"
)

func writeTempConfig(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad_ValidConfig_ParsesHostsAndScheduler(t *testing.T) {
	path := writeTempConfig(t, `
hosts:
  - name: client0
    ip: 10.0.0.1
    bandwidth_bytes_per_sec: 1000000
scheduler:
  strategy: thread-per-core
  parallelism: 4
sim_end_time_ns: 1000000000
`)
	cfg, err := config.Load(path)
	require.NoError(t, err)
	require.Len(t, cfg.Hosts, 1)
	assert.Equal(t, "client0", cfg.Hosts[0].Name)
	assert.Equal(t, "thread-per-core", cfg.Scheduler.Strategy)
}

func TestLoad_UnknownField_Rejected(t *testing.T) {
	path := writeTempConfig(t, "hosts:\n  - name: a\n    ip: 10.0.0.1\n    bogus_field: 1\n")
	_, err := config.Load(path)
	assert.Error(t, err)
}

func TestLoad_IPv6Host_Rejected(t *testing.T) {
	path := writeTempConfig(t, "hosts:\n  - name: a\n    ip: \"::1\"\n")
	_, err := config.Load(path)
	assert.ErrorContains(t, err, "ipv6")
}

func TestLoad_DuplicateHostName_Rejected(t *testing.T) {
	path := writeTempConfig(t, `
hosts:
  - name: a
    ip: 10.0.0.1
  - name: a
    ip: 10.0.0.2
`)
	_, err := config.Load(path)
	assert.ErrorContains(t, err, "duplicate")
}

func TestLoad_PreloadLibraryWithSpace_Rejected(t *testing.T) {
	path := writeTempConfig(t, `
hosts:
  - name: a
    ip: 10.0.0.1
    preload_libraries:
      - "/bad path/lib.so"
`)
	_, err := config.Load(path)
	assert.ErrorContains(t, err, "LD_PRELOAD")
}

func TestToHostSpecs_ConvertsApplications(t *testing.T) {
	path := writeTempConfig(t, `
hosts:
  - name: a
    ip: 10.0.0.1
    applications:
      - argv: ["/bin/true"]
        start_time_ns: 10
        shutdown_time_ns: 20
`)
	cfg, err := config.Load(path)
	require.NoError(t, err)
	specs := cfg.ToHostSpecs()
	require.Len(t, specs, 1)
	require.Len(t, specs[0].Applications, 1)
	assert.Equal(t, []string{"/bin/true"}, specs[0].Applications[0].Argv)
}
