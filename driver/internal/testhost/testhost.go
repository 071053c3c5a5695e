// Package testhost provides a minimal in-memory Host implementation shared
// by scheduler, pump, and worker tests. It consolidates the fake
// infrastructure those packages would otherwise each hand-roll.
package testhost

import (
	"sync"

	"github.com/netsim/hostdriver/driver"
)

// Event is the concrete Event type the fake host's queue holds.
type Event struct {
	Time driver.EmulatedTime
	Kind string
	// OnExecute, if set, runs when this event is executed, receiving the
	// owning Host so tests can push cross-host events (§8 scenario S3).
	OnExecute func(h *Host)
}

func (e *Event) Timestamp() driver.EmulatedTime { return e.Time }

// Host is a fake Host: it owns a real driver.EventQueue and records every
// (hostID, time, kind) triple it executes, for parallel-determinism and
// causality assertions (§8 #2, #3).
type Host struct {
	mu       sync.Mutex
	id       driver.HostId
	queue    *driver.EventQueue
	executed []Executed
	locked   bool
	shutdown bool

	// Deliver is a slot for a cross-host routing hook. No Host method
	// calls it; cross-host events are pushed by an Event's OnExecute hook
	// calling the target host's Push directly.
	Deliver func(target driver.HostId, e *Event)
}

// Executed records one fired event, in the shape §8 #3 compares across runs.
type Executed struct {
	HostID driver.HostId
	Time   driver.EmulatedTime
	Kind   string
}

// New creates a fake host with an empty queue.
func New(id driver.HostId) *Host {
	return &Host{id: id, queue: driver.NewEventQueue(id)}
}

func (h *Host) ID() driver.HostId { return h.id }

func (h *Host) LockShmem() {
	h.mu.Lock()
	h.locked = true
}

func (h *Host) UnlockShmem() {
	h.locked = false
	h.mu.Unlock()
}

// Push enqueues an event directly. Must be called while not concurrently
// executing (e.g. during setup, or from within another host's Execute via
// an OnExecute hook).
func (h *Host) Push(e *Event) {
	h.queue.Push(e)
}

// Execute drains all events with time < windowEnd, in time order.
func (h *Host) Execute(windowEnd driver.EmulatedTime) {
	if !h.locked {
		panic("testhost: Execute called without holding the shmem lock")
	}
	for {
		t, ok := h.queue.NextEventTime()
		if !ok || t >= windowEnd {
			return
		}
		ev, _ := h.queue.Pop()
		fe := ev.(*Event)
		h.executed = append(h.executed, Executed{HostID: h.id, Time: fe.Time, Kind: fe.Kind})
		if fe.OnExecute != nil {
			fe.OnExecute(h)
		}
	}
}

func (h *Host) NextEventTime() (driver.EmulatedTime, bool) {
	return h.queue.NextEventTime()
}

func (h *Host) Shutdown() { h.shutdown = true }

// ShutdownCalled reports whether Shutdown has run.
func (h *Host) ShutdownCalled() bool { return h.shutdown }

// Executed returns a snapshot of every event this host has fired so far.
func (h *Host) Executed() []Executed {
	out := make([]Executed, len(h.executed))
	copy(out, h.executed)
	return out
}
