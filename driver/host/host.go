// Package host defines the Host interface consumed by the scheduler
// (§4.2). A Host is an opaque owner of a per-host event queue and guest
// processes; the scheduler never reaches inside one, it only calls the
// four lifecycle methods below between shared-memory lock/unlock pairs.
package host

import "github.com/netsim/hostdriver/driver"

// Host is the interface every simulated endpoint satisfies. Implementers
// own their EventQueue, guest processes, shared-memory block, and CPU
// model; the scheduler only ever drives them through this interface.
//
// Thread-safety: a Host is mutated only by the single worker holding its
// shared-memory guard (LockShmem/UnlockShmem) at any given time. The
// driver may call NextEventTime between windows, outside of any
// Lock/Execute/Unlock sandwich, without acquiring the guard — see package
// worker for why that peek is safe.
type Host interface {
	// ID returns the host's dense, stable identifier.
	ID() driver.HostId

	// LockShmem acquires the host's shared-memory guard. Every Execute
	// call must be sandwiched between a LockShmem and the matching
	// UnlockShmem (§4.2, §9).
	LockShmem()

	// UnlockShmem releases the guard acquired by LockShmem.
	UnlockShmem()

	// Execute runs all events with time < windowEnd, in time order. It may
	// push future events to this or other hosts. It must not advance the
	// host's own clock past windowEnd.
	Execute(windowEnd driver.EmulatedTime)

	// NextEventTime returns the time of the earliest outstanding event
	// after the most recent Execute call returned, or (0, false) if the
	// host's queue is empty.
	NextEventTime() (driver.EmulatedTime, bool)

	// Shutdown terminates guest processes and frees per-host resources.
	// Idempotent: calling it more than once is a no-op.
	Shutdown()
}
