package driver

import "sync"

// Stats accumulates process-wide counters surfaced at the end of a run
// (§6 Persisted outputs, §7 plugin-error policy). All fields are safe for
// concurrent increment from worker threads; Snapshot is for the driver
// thread only, after scheduler.Join.
//
// perHostPluginErrors supplements the spec's single global counter with a
// per-host breakdown, mirroring the original manager's own per-host error
// tally (see original_source/manager.rs) — additive, not a replacement for
// num_plugin_errors, which remains the authoritative exit-status value.
type Stats struct {
	mu sync.Mutex

	windowsExecuted     uint64
	hostsExecuted       uint64
	eventsDelivered     uint64
	numPluginErrors     uint64
	heartbeatsLogged    uint64
	perHostPluginErrors map[HostId]uint64
}

func NewStats() *Stats {
	return &Stats{perHostPluginErrors: make(map[HostId]uint64)}
}

func (s *Stats) RecordWindow() {
	s.mu.Lock()
	s.windowsExecuted++
	s.mu.Unlock()
}

func (s *Stats) RecordHostExecuted() {
	s.mu.Lock()
	s.hostsExecuted++
	s.mu.Unlock()
}

func (s *Stats) RecordEventsDelivered(n uint64) {
	if n == 0 {
		return
	}
	s.mu.Lock()
	s.eventsDelivered += n
	s.mu.Unlock()
}

// RecordPluginError increments both the global counter and host's
// per-host tally (§7 plugin-error policy; SUPPLEMENTED FEATURES #3).
func (s *Stats) RecordPluginError(host HostId) {
	s.mu.Lock()
	s.numPluginErrors++
	s.perHostPluginErrors[host]++
	s.mu.Unlock()
}

func (s *Stats) RecordHeartbeat() {
	s.mu.Lock()
	s.heartbeatsLogged++
	s.mu.Unlock()
}

func (s *Stats) NumPluginErrors() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.numPluginErrors
}

func (s *Stats) EventsDelivered() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.eventsDelivered
}

// Snapshot is the JSON-serializable final report (§6: sim-stats.json).
type Snapshot struct {
	WindowsExecuted     uint64            `json:"windows_executed"`
	HostsExecuted       uint64            `json:"hosts_executed"`
	EventsDelivered     uint64            `json:"events_delivered"`
	NumPluginErrors     uint64            `json:"num_plugin_errors"`
	HeartbeatsLogged    uint64            `json:"heartbeats_logged"`
	PerHostPluginErrors map[HostId]uint64 `json:"per_host_plugin_errors,omitempty"`
}

func (s *Stats) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	perHost := make(map[HostId]uint64, len(s.perHostPluginErrors))
	for id, n := range s.perHostPluginErrors {
		perHost[id] = n
	}

	return Snapshot{
		WindowsExecuted:     s.windowsExecuted,
		HostsExecuted:       s.hostsExecuted,
		EventsDelivered:     s.eventsDelivered,
		NumPluginErrors:     s.numPluginErrors,
		HeartbeatsLogged:    s.heartbeatsLogged,
		PerHostPluginErrors: perHost,
	}
}

// Merge folds another Stats' counts into s, used when per-thread stats
// (if a future scheduler variant keeps them) are merged into the global
// total after scheduler.Join (§4.4 post-loop teardown).
func (s *Stats) Merge(other *Stats) {
	if other == nil {
		return
	}
	other.mu.Lock()
	windows, hosts, events := other.windowsExecuted, other.hostsExecuted, other.eventsDelivered
	pluginErrs, heartbeats := other.numPluginErrors, other.heartbeatsLogged
	perHost := make(map[HostId]uint64, len(other.perHostPluginErrors))
	for id, n := range other.perHostPluginErrors {
		perHost[id] = n
	}
	other.mu.Unlock()

	s.mu.Lock()
	s.windowsExecuted += windows
	s.hostsExecuted += hosts
	s.eventsDelivered += events
	s.numPluginErrors += pluginErrs
	s.heartbeatsLogged += heartbeats
	for id, n := range perHost {
		s.perHostPluginErrors[id] += n
	}
	s.mu.Unlock()
}
