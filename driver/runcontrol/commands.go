package runcontrol

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/netsim/hostdriver/driver"
)

// Apply parses one line of operator input (§4.5 command table: p, c, cN,
// n, s / info, s:<pid>, r, rN) and mutates the state accordingly, waking
// any goroutine blocked in AtBoundary's wait loop. attachPID is invoked
// for "s:<pid>" with the parsed PID, to give the caller a hook for
// printing gdb-attach instructions; it may be nil.
func (s *State) Apply(line string, attachPID func(pid int)) error {
	line = strings.TrimSpace(line)
	switch {
	case line == "p":
		s.pauseRequested.Store(true)

	case line == "c":
		s.runForNs.Store(0)
		s.runUntilAbs.Store(unsetAbs)
		s.stepWindowsLeft.Store(0)
		s.resume()

	case strings.HasPrefix(line, "c") && len(line) > 1:
		n, err := strconv.ParseUint(line[1:], 10, 64)
		if err != nil {
			return fmt.Errorf("runcontrol: bad duration %q: %w", line, err)
		}
		s.stepWindowsLeft.Store(0)
		s.runUntilAbs.Store(unsetAbs)
		// cN runs for N simulated seconds; AtBoundary converts run_for_ns
		// to an absolute deadline relative to the boundary it next sees.
		s.runForNs.Store(uint64(driver.Seconds(n).Nanos()))
		s.resume()

	case line == "n":
		s.stepWindowsLeft.Store(1)
		s.resume()

	case line == "s" || line == "info":
		s.infoRequested.Store(true)
		s.notify()

	case strings.HasPrefix(line, "s:"):
		pid, err := strconv.Atoi(line[2:])
		if err != nil {
			return fmt.Errorf("runcontrol: bad pid %q: %w", line, err)
		}
		if attachPID != nil {
			attachPID(pid)
		}

	case line == "r":
		s.restartRunUntil.Store(unsetAbs)
		s.restartRequested.Store(true)
		s.resume()

	case strings.HasPrefix(line, "r") && len(line) > 1:
		n, err := strconv.ParseUint(line[1:], 10, 64)
		if err != nil {
			return fmt.Errorf("runcontrol: bad restart deadline %q: %w", line, err)
		}
		s.restartRunUntil.Store(uint64(driver.Seconds(n).Nanos()))
		s.skipStartPause.Store(true)
		s.restartRequested.Store(true)
		s.resume()

	default:
		return fmt.Errorf("runcontrol: unrecognized command %q (want p|c|cN|n|s|info|s:<pid>|r|rN)", line)
	}
	return nil
}

// resume clears paused and wakes every goroutine blocked in AtBoundary's
// wait loop.
func (s *State) resume() {
	s.mu.Lock()
	s.paused = false
	s.cond.Broadcast()
	s.mu.Unlock()
}

// notify wakes every goroutine blocked in AtBoundary's wait loop without
// touching paused, for commands (info/s) that must not resume the run.
func (s *State) notify() {
	s.mu.Lock()
	s.cond.Broadcast()
	s.mu.Unlock()
}
