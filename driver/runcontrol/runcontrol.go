// Package runcontrol implements the pause / step / continue / restart
// state machine (§4.5). All fields are atomic/condition-variable
// protected; no mutex is ever held across a host's Execute call (§9).
package runcontrol

import (
	"math"
	"sync"
	"sync/atomic"

	"github.com/netsim/hostdriver/driver"
)

const unsetAbs = math.MaxUint64

// State is the process-wide run-control singleton (§3 RunControl). Every
// run, including in-process restarts (§3 Lifecycle), starts from a cleared
// State: one built with New, or an existing one cleared with Reset.
type State struct {
	pauseRequested   atomic.Bool
	restartRequested atomic.Bool
	restartRunUntil  atomic.Uint64
	infoRequested    atomic.Bool
	skipStartPause   atomic.Bool
	runForNs         atomic.Uint64
	runUntilAbs      atomic.Uint64
	stepWindowsLeft  atomic.Uint64

	mu     sync.Mutex
	cond   *sync.Cond
	paused bool
}

// New constructs a fresh State, as required at the start of every run
// (§3 Lifecycle).
func New() *State {
	s := &State{}
	s.cond = sync.NewCond(&s.mu)
	s.runUntilAbs.Store(unsetAbs)
	s.restartRunUntil.Store(unsetAbs)
	return s
}

// Reset clears every flag back to its zero state, as required on every
// in-process restart (§3 Lifecycle).
func (s *State) Reset() {
	s.mu.Lock()
	s.paused = false
	s.mu.Unlock()

	s.pauseRequested.Store(false)
	s.restartRequested.Store(false)
	s.restartRunUntil.Store(unsetAbs)
	s.infoRequested.Store(false)
	s.skipStartPause.Store(false)
	s.runForNs.Store(0)
	s.runUntilAbs.Store(unsetAbs)
	s.stepWindowsLeft.Store(0)
}

// IsPaused reports whether the driver is currently blocked at a boundary.
func (s *State) IsPaused() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.paused
}

// PresetRestart pre-loads a one-shot run_until_abs_ns for a freshly
// re-entered run after a restart, and marks the start-pause as skipped
// (§4.5 In-process restart: "a one-shot run_until_abs_ns pre-loaded").
func (s *State) PresetRestart(runUntilNs uint64) {
	if runUntilNs != unsetAbs {
		s.runUntilAbs.Store(runUntilNs)
	}
	s.skipStartPause.Store(true)
}

// MaybeStartPause applies the §4.5 start-pause policy: pause once at t=0
// before the first window if isInteractive and skip_start_pause is not
// set. It must be called once, before the first AtBoundary.
func (s *State) MaybeStartPause(isInteractive bool) {
	skip := s.skipStartPause.Swap(false)
	if !isInteractive || skip {
		return
	}
	s.mu.Lock()
	s.paused = true
	s.mu.Unlock()
}

// BlockIfPaused blocks the calling goroutine until resumed. Call once,
// before running the first window, immediately after MaybeStartPause.
func (s *State) BlockIfPaused() {
	s.mu.Lock()
	for s.paused {
		s.cond.Wait()
	}
	s.mu.Unlock()
}

// BoundaryResult reports what the driver must do after a call to
// AtBoundary.
type BoundaryResult struct {
	// Terminate, if true, means the driver must force next_window = None
	// and unwind — either because a restart was requested (WasRestart) or
	// (reserved for future use) some other forced termination.
	Terminate bool
	// WasRestart is true when Terminate was caused by a restart request.
	WasRestart bool
	// RestartRunUntilNs is the run_until_ns the supervisor should pre-load
	// into the next run, valid only when WasRestart is true.
	RestartRunUntilNs uint64
}

// AtBoundary executes the driver's per-boundary obligations in the order
// given by §4.5: convert run_for_ns, decrement step budget, check the
// run-until deadline, check for a pending restart, transition into Paused
// if requested (invoking printBanner and printInfo), then block while
// Paused — honoring info requests and restart requests that arrive during
// the wait.
func (s *State) AtBoundary(tNext driver.EmulatedTime, printBanner, printInfo func()) BoundaryResult {
	tNextNs := uint64(tNext.Nanos())

	// 1. convert run_for_ns to an absolute deadline.
	if runFor := s.runForNs.Swap(0); runFor != 0 {
		s.runUntilAbs.Store(saturatingAddU64(tNextNs, runFor))
	}

	// 2. step_windows_remaining countdown.
	if s.stepWindowsLeft.Load() > 0 {
		if s.stepWindowsLeft.Add(^uint64(0)) == 0 { // decrement by one
			s.pauseRequested.Store(true)
		}
	}

	// 3. run-until deadline reached.
	if until := s.runUntilAbs.Load(); until != unsetAbs && tNextNs >= until {
		s.runUntilAbs.Store(unsetAbs)
		s.pauseRequested.Store(true)
	}

	// 4. restart requested outside of any pause.
	var restartPending *uint64
	if s.restartRequested.Swap(false) {
		v := s.restartRunUntil.Load()
		restartPending = &v
	}

	// 5. transition into Paused if requested.
	if s.pauseRequested.Swap(false) {
		s.mu.Lock()
		s.paused = true
		s.mu.Unlock()
		printBanner()
		printInfo()
	}

	// 6. block while Paused.
	s.mu.Lock()
	for s.paused {
		if restartPending == nil && s.restartRequested.Swap(false) {
			v := s.restartRunUntil.Load()
			restartPending = &v
			s.paused = false
			break
		}
		if s.infoRequested.Swap(false) {
			s.mu.Unlock()
			printInfo()
			s.mu.Lock()
			continue
		}
		s.cond.Wait()
		// Apply resumes on "r"/"rN", which clears paused before this loop
		// can re-check it; catch that restart here.
		if !s.paused && restartPending == nil && s.restartRequested.Swap(false) {
			v := s.restartRunUntil.Load()
			restartPending = &v
		}
	}
	s.mu.Unlock()

	if restartPending != nil {
		return BoundaryResult{Terminate: true, WasRestart: true, RestartRunUntilNs: *restartPending}
	}
	return BoundaryResult{}
}

func saturatingAddU64(a, b uint64) uint64 {
	if a > math.MaxUint64-b {
		return math.MaxUint64
	}
	return a + b
}
