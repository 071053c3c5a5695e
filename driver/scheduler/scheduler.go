// Package scheduler implements the WindowScheduler (§4.3): it assigns
// hosts to worker threads and pumps one window's worth of host execution
// per Scope call. Two interchangeable strategies are provided —
// thread-per-host and thread-per-core — with identical observable
// semantics.
package scheduler

import (
	"runtime"
	"sync"

	"github.com/netsim/hostdriver/affinity"
	"github.com/netsim/hostdriver/driver"
	"github.com/netsim/hostdriver/driver/host"
	"github.com/netsim/hostdriver/driver/worker"
)

// Strategy selects which of the two interchangeable scheduling policies a
// Scheduler uses (§4.3).
type Strategy int

const (
	// ThreadPerHost: each worker thread owns a fixed subset of hosts for
	// its entire lifetime; hosts never migrate.
	ThreadPerHost Strategy = iota
	// ThreadPerCore: hosts are work-stolen by a pool sized to CPU count.
	ThreadPerCore
)

// Options configures a Scheduler.
type Options struct {
	Strategy Strategy

	// Parallelism is the configured worker count; it is clamped to
	// min(Parallelism, num hosts) at construction (§4.3 common contract).
	// Zero means "use the logical CPU count" (runtime.NumCPU).
	Parallelism int

	// UseCPUPinning, if true, pins each worker to a specific core
	// assigned before dispatch. The assignment vector is computed
	// internally and is always all-Some or all-None — never mixed
	// (§4.3: "mixed is an implementation bug").
	UseCPUPinning bool

	// ShuffleSeed is not read by NewScheduler: hosts are assigned in the
	// order given. The one-time deterministic shuffle is done by host build
	// (worker.BuildHosts, §4.6); callers may pass the same seed here for
	// record keeping, or 0.
	ShuffleSeed int64

	// SpinWait makes a thread-per-core worker check the work queue once
	// more after finding it empty before it stops. The queue is filled
	// before the workers start and never refilled, so the second check
	// also finds it empty; there is no busy-polling between windows.
	// Ignored for ThreadPerHost.
	SpinWait bool
}

// Scheduler is the common interface both strategies satisfy (§4.3).
type Scheduler interface {
	// Parallelism reports the clamped worker count actually in use.
	Parallelism() int

	// Scope dispatches run(threadID) on every worker and blocks until all
	// return.
	Scope(run func(threadID int))

	// RunWithData additionally passes each worker its own slot from
	// slots, indexed by threadID. len(slots) must equal Parallelism().
	RunWithData(slots []*EventTimeSlot, f func(threadID int, hosts []host.Host, slot *EventTimeSlot))

	// Join terminates the pool. No further Scope/RunWithData calls may
	// follow.
	Join()
}

// EventTimeSlot holds one worker's running minimum next-event time for
// the window currently in flight (§4.4 step 3).
type EventTimeSlot struct {
	mu  sync.Mutex
	t   driver.EmulatedTime
	has bool
}

// Fold updates the slot to min(current, t) if t is present, ignoring
// absent values, matching the driver's fold rule (§4.4 step 3, §8 #4).
func (s *EventTimeSlot) Fold(t driver.EmulatedTime, ok bool) {
	if !ok {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.has || t < s.t {
		s.t = t
		s.has = true
	}
}

// TakeAndClear returns the slot's current value and resets it to absent,
// as the driver does once per window (§4.4 step 6: "Take-and-clear each
// slot").
func (s *EventTimeSlot) TakeAndClear() (driver.EmulatedTime, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.t, s.has
	s.has = false
	return t, ok
}

// clampParallelism implements "parallelism = min(configured_parallelism |
// cpu_count, num_hosts)" (§4.3), where cpu_count is the logical CPU count
// reported by runtime.NumCPU and is used only when configured is <= 0.
func clampParallelism(configured, numHosts int) int {
	p := configured
	if p <= 0 {
		p = runtime.NumCPU()
	}
	if numHosts > 0 && p > numHosts {
		p = numHosts
	}
	if p < 1 {
		p = 1
	}
	return p
}

// cpuAssignment returns either a fully-populated pinning vector or nil —
// never a mix — satisfying the all-Some/all-None contract (§4.3).
func cpuAssignment(use bool, parallelism int) []int {
	if !use {
		return nil
	}
	assignment := make([]int, parallelism)
	for i := range assignment {
		assignment[i] = i % runtime.NumCPU()
	}
	return assignment
}

// pinWorker locks the calling goroutine to its OS thread and pins it to
// the given CPU, if cpus is non-nil. Errors are non-fatal: pinning is an
// optimization, not a correctness requirement (§4.3).
func pinWorker(cpus []int, threadID int) {
	if cpus == nil {
		return
	}
	runtime.LockOSThread()
	_ = affinity.Pin(cpus[threadID])
}

// NewScheduler constructs a Scheduler for the given hosts using opts. The
// host slice is assumed to already be in final (shuffled) order — see
// worker.BuildHosts — and is partitioned (ThreadPerHost) or shared
// (ThreadPerCore) accordingly.
func NewScheduler(hosts []host.Host, shared *worker.Shared, opts Options) Scheduler {
	parallelism := clampParallelism(opts.Parallelism, len(hosts))
	cpus := cpuAssignment(opts.UseCPUPinning, parallelism)

	switch opts.Strategy {
	case ThreadPerCore:
		return newThreadPerCore(hosts, shared, parallelism, cpus, opts.SpinWait)
	default:
		return newThreadPerHost(hosts, shared, parallelism, cpus)
	}
}
