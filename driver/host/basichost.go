package host

import (
	"sync"

	"github.com/netsim/hostdriver/driver"
)

// Application records one guest application attached to a BasicHost.
// Process injection and shim IPC are external collaborators (§1
// Non-goals); this is just the bookkeeping the driver's host-build step
// and shutdown path need.
type Application struct {
	Argv               []string
	Envv               []string
	StartTime          driver.EmulatedTime
	ShutdownTime       driver.EmulatedTime
	ShutdownSignal     int
	ExpectedFinalState string
}

// BasicHost is the default, process-injection-free Host implementation:
// it owns a real EventQueue and a list of attached applications, and
// drains events in time order on Execute. Event payloads beyond their
// Timestamp are opaque to it; a caller that needs effects from firing an
// event supplies an OnFire hook.
type BasicHost struct {
	mu     sync.Mutex
	id     driver.HostId
	queue  *driver.EventQueue
	locked bool

	apps        []Application
	shutdown    bool
	eventsFired uint64

	// OnFire, if set, is invoked for every event popped during Execute,
	// in time order, while still holding the shmem guard.
	OnFire func(h *BasicHost, e driver.Event)
}

// NewBasicHost constructs a host with an empty queue and no applications.
func NewBasicHost(id driver.HostId) *BasicHost {
	return &BasicHost{id: id, queue: driver.NewEventQueue(id)}
}

func (h *BasicHost) ID() driver.HostId { return h.id }

func (h *BasicHost) LockShmem() {
	h.mu.Lock()
	h.locked = true
}

func (h *BasicHost) UnlockShmem() {
	h.locked = false
	h.mu.Unlock()
}

// Push enqueues an event. Callers outside of the host's own Execute (e.g.
// routing delivering a cross-host message) must hold the host's shmem
// guard first.
func (h *BasicHost) Push(e driver.Event) {
	h.queue.Push(e)
}

// AddApplication registers a guest application. Must be called while
// holding the shmem guard (§4.6 Host build).
func (h *BasicHost) AddApplication(app Application) {
	if !h.locked {
		panic("host: AddApplication called without holding the shmem lock")
	}
	h.apps = append(h.apps, app)
}

// Applications returns the host's attached application list.
func (h *BasicHost) Applications() []Application {
	out := make([]Application, len(h.apps))
	copy(out, h.apps)
	return out
}

func (h *BasicHost) Execute(windowEnd driver.EmulatedTime) {
	if !h.locked {
		panic("host: Execute called without holding the shmem lock")
	}
	for {
		t, ok := h.queue.NextEventTime()
		if !ok || t >= windowEnd {
			return
		}
		e, _ := h.queue.Pop()
		h.eventsFired++
		if h.OnFire != nil {
			h.OnFire(h, e)
		}
	}
}

// EventsFired returns the number of events this host has popped and run
// since construction. Exposed for the driver's events-delivered counter
// and heartbeat throughput figure (SUPPLEMENTED FEATURES #2); not part of
// the Host interface since it is a BasicHost-specific bookkeeping detail,
// not a lifecycle obligation every Host implementation must provide.
func (h *BasicHost) EventsFired() uint64 { return h.eventsFired }

func (h *BasicHost) NextEventTime() (driver.EmulatedTime, bool) {
	return h.queue.NextEventTime()
}

// EventQueueHandle exposes the host's underlying queue so the driver's
// WorkerShared table can peek next-event times between windows without
// entering the host (§3 WorkerShared, §9 Design Notes).
func (h *BasicHost) EventQueueHandle() *driver.EventQueue {
	return h.queue
}

func (h *BasicHost) Shutdown() {
	h.shutdown = true
}

// ShutdownCalled reports whether Shutdown has run; used by tests and by
// callers that want to assert idempotence.
func (h *BasicHost) ShutdownCalled() bool { return h.shutdown }
