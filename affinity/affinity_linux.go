//go:build linux

package affinity

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// pinPlatform sets the calling thread's CPU affinity mask to the single
// given CPU, via sched_setaffinity on the current thread ID (Gettid, not
// Getpid — affinity is per-thread on Linux).
func pinPlatform(cpuID int) error {
	var set unix.CPUSet
	set.Zero()
	set.Set(cpuID)

	tid := unix.Gettid()
	if err := unix.SchedSetaffinity(tid, &set); err != nil {
		return fmt.Errorf("affinity: sched_setaffinity(cpu=%d): %w", cpuID, err)
	}
	return nil
}
