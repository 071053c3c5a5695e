package driver

import (
	"bufio"
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// resourceCheckInterval is the minimum wall-clock gap between probes
// (§4.4 step 5: "if real wall-clock since the last check > 30 s").
const resourceCheckInterval = 30 * time.Second

var errMemAvailableNotFound = errors.New("driver: \"MemAvailable\" not present in /proc/meminfo")

// unixRlimit mirrors the fields of unix.Rlimit that fdUsage needs.
type unixRlimit struct {
	Cur uint64
	Max uint64
}

// ResourceMonitor samples the best-effort filesystem probes named by the
// driver's support contract: open file descriptors and memory pressure.
// The host CPU's rated frequency is not sampled here; RawCPUFrequencyHz
// reads it separately. Any probe that fails
// is logged once and disabled for the rest of the run (§7 Resource-probe
// failure is not fatal).
type ResourceMonitor struct {
	log          *logrus.Entry
	checkFDs     bool
	checkMem     bool
	memAvailPath string
	lastCheck    time.Time
}

// NewResourceMonitor constructs a monitor with every probe enabled; a
// failed probe self-disables on first use.
func NewResourceMonitor() *ResourceMonitor {
	return &ResourceMonitor{
		log:          logrus.WithField("component", "resources"),
		checkFDs:     true,
		checkMem:     true,
		memAvailPath: "/proc/meminfo",
	}
}

// Check samples FD usage (warn above 90% of the soft limit) and available
// memory (warn below 500 MiB), but only if at least 30s of wall-clock
// time has passed since the last sample (§4.4 step 5). Cheap enough to
// call once per window; it no-ops on every call in between.
func (r *ResourceMonitor) Check() {
	now := time.Now()
	if !r.lastCheck.IsZero() && now.Sub(r.lastCheck) <= resourceCheckInterval {
		return
	}
	r.lastCheck = now

	if r.checkFDs {
		used, limit, err := fdUsage()
		if err != nil {
			r.log.WithError(err).Warn("unable to check fd usage")
			r.checkFDs = false
		} else if limit > 0 && used*100 > limit*90 {
			r.log.Warnf("using more than 90%% (%d/%d) of available file descriptors", used, limit)
			r.checkFDs = false
		}
	}

	if r.checkMem {
		avail, err := memAvailableBytes(r.memAvailPath)
		if err != nil {
			r.log.WithError(err).Warn("unable to check memory usage")
			r.checkMem = false
		} else if avail < 500*1024*1024 {
			r.log.Warnf("only %d MiB of memory available", avail/1024/1024)
			r.checkMem = false
		}
	}
}

func fdUsage() (used, limit uint64, err error) {
	entries, err := os.ReadDir("/proc/self/fd")
	if err != nil {
		return 0, 0, err
	}
	used = uint64(len(entries))

	var rlim unixRlimit
	if err := getNoFileLimit(&rlim); err != nil {
		return 0, 0, err
	}
	return used, rlim.Cur, nil
}

// memAvailableBytes parses the "MemAvailable" line out of /proc/meminfo,
// which is reported in kibibytes.
func memAvailableBytes(path string) (uint64, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "MemAvailable:") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}
		kib, err := strconv.ParseUint(fields[1], 10, 64)
		if err != nil {
			return 0, err
		}
		return kib * 1024, nil
	}
	if err := scanner.Err(); err != nil {
		return 0, err
	}
	return 0, errMemAvailableNotFound
}

// RawCPUFrequencyHz reads the rated max CPU frequency from sysfs, used
// only for informational logging at startup.
func RawCPUFrequencyHz() (uint64, error) {
	const path = "/sys/devices/system/cpu/cpu0/cpufreq/cpuinfo_max_freq"
	b, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	khz, err := strconv.ParseUint(strings.TrimSpace(string(b)), 10, 64)
	if err != nil {
		return 0, err
	}
	return khz * 1000, nil
}
