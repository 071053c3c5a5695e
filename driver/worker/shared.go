// Package worker holds the process-wide WorkerShared table and the
// host-build / DNS support consumed by the driver and scheduler (§3, §4.6).
package worker

import (
	"net"
	"sync/atomic"

	"github.com/netsim/hostdriver/driver"
)

// RoutingTable is the already-built, read-only routing/DNS graph the
// driver consumes (§1 Scope: "the routing/DNS graph builder... consumed as
// an already-built read-only table"). The graph construction algorithm
// itself is out of scope; only this query surface is.
type RoutingTable interface {
	// Latency returns the minimum safe delivery latency from src to dst.
	// The controller uses this (indirectly, via Runahead) to size windows
	// so that cross-host messages always land at time >= the window end
	// they were produced in (§4.4 Causality invariant).
	Latency(src, dst driver.HostId) driver.SimulationTime
}

// Shared is the process-wide, read-mostly table constructed once per run
// (§3 WorkerShared). Every field is read-only after construction except
// NumPluginErrors, which uses relaxed atomic increments, and the optional
// status line updated by the driver between windows.
type Shared struct {
	IPAssignment     map[driver.HostId]net.IP
	Routing          RoutingTable
	HostBandwidths   map[driver.HostId]float64 // bytes/sec, by host
	DNS              *DNS
	Runahead         driver.SimulationTime
	BootstrapEndTime driver.EmulatedTime
	SimEndTime       driver.EmulatedTime

	// EventQueues lets the driver peek next-event times between windows
	// without entering a host (§3). Never written to outside of host
	// build; read concurrently by the driver's fold step.
	EventQueues map[driver.HostId]*driver.EventQueue

	numPluginErrors atomic.Uint64

	// statusText, if non-nil, receives the current window_start for
	// display; nil when no status UI is attached (§4.4 step 2).
	statusText atomic.Pointer[string]

	// PacketNextEventTime, if set, returns the next delivery time for
	// packets currently in flight through routing on the given worker
	// thread (§4.4 step 3: "also fold in Worker::get_next_event_time()
	// (packets in flight through routing)"). The routing layer that
	// produces this value is an external collaborator (§1 Scope); nil
	// means no in-flight-packet contribution.
	PacketNextEventTime func(threadID int) (driver.EmulatedTime, bool)
}

// New constructs a fresh Shared table. A second run must always call New
// again — Shared is never silently re-initialized (§9 Design Notes).
func New(routing RoutingTable, runahead driver.SimulationTime, simEndTime driver.EmulatedTime) *Shared {
	return &Shared{
		IPAssignment:   make(map[driver.HostId]net.IP),
		Routing:        routing,
		HostBandwidths: make(map[driver.HostId]float64),
		Runahead:       runahead,
		SimEndTime:     simEndTime,
		EventQueues:    make(map[driver.HostId]*driver.EventQueue),
	}
}

// RecordPluginError increments the process-wide plugin-error counter. Safe
// to call concurrently from any worker thread (§5 Shared-resource policy).
func (s *Shared) RecordPluginError() {
	s.numPluginErrors.Add(1)
}

// NumPluginErrors returns the total plugin-error count observed so far.
func (s *Shared) NumPluginErrors() uint64 {
	return s.numPluginErrors.Load()
}

// PublishWindowStart updates the status UI's displayed time, if attached
// (§4.4 step 2). Advisory only; never affects scheduling.
func (s *Shared) PublishWindowStart(t driver.EmulatedTime) {
	text := t.String()
	s.statusText.Store(&text)
}

// StatusText returns the most recently published window-start text, or ""
// if nothing has been published yet.
func (s *Shared) StatusText() string {
	p := s.statusText.Load()
	if p == nil {
		return ""
	}
	return *p
}

// FoldNextEventTime returns the minimum NextEventTime across every
// registered host's queue, or MaxEmulatedTime if every queue is empty
// (§4.4 step 6, §8 #4 Fold correctness). It is called by the driver
// between windows only — never during dispatch (§5).
func (s *Shared) FoldNextEventTime() driver.EmulatedTime {
	min := driver.MaxEmulatedTime
	for _, q := range s.EventQueues {
		if t, ok := q.NextEventTime(); ok && t < min {
			min = t
		}
	}
	return min
}
