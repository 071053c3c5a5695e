package driver

import "testing"

func TestStats_Snapshot_ReflectsRecordedCounts(t *testing.T) {
	// GIVEN a fresh Stats with a mix of recorded counters
	s := NewStats()
	s.RecordWindow()
	s.RecordWindow()
	s.RecordHostExecuted()
	s.RecordEventsDelivered(3)
	s.RecordPluginError(HostId(7))
	s.RecordHeartbeat()

	// WHEN taking a snapshot
	snap := s.Snapshot()

	// THEN every counter matches what was recorded
	if snap.WindowsExecuted != 2 {
		t.Fatalf("WindowsExecuted: got %d, want 2", snap.WindowsExecuted)
	}
	if snap.HostsExecuted != 1 {
		t.Fatalf("HostsExecuted: got %d, want 1", snap.HostsExecuted)
	}
	if snap.EventsDelivered != 3 {
		t.Fatalf("EventsDelivered: got %d, want 3", snap.EventsDelivered)
	}
	if snap.NumPluginErrors != 1 {
		t.Fatalf("NumPluginErrors: got %d, want 1", snap.NumPluginErrors)
	}
	if snap.HeartbeatsLogged != 1 {
		t.Fatalf("HeartbeatsLogged: got %d, want 1", snap.HeartbeatsLogged)
	}
	if got := snap.PerHostPluginErrors[HostId(7)]; got != 1 {
		t.Fatalf("PerHostPluginErrors[7]: got %d, want 1", got)
	}
}

func TestStats_RecordEventsDelivered_IgnoresZero(t *testing.T) {
	// GIVEN a fresh Stats
	s := NewStats()

	// WHEN recording a zero-sized delivery
	s.RecordEventsDelivered(0)

	// THEN the counter stays at zero (no spurious window-boundary noise)
	if got := s.EventsDelivered(); got != 0 {
		t.Fatalf("EventsDelivered: got %d, want 0", got)
	}
}

func TestStats_Merge_SumsBothCountersAndPerHostBreakdown(t *testing.T) {
	// GIVEN two Stats, each with plugin errors against different hosts
	a := NewStats()
	a.RecordPluginError(HostId(1))
	a.RecordWindow()

	b := NewStats()
	b.RecordPluginError(HostId(1))
	b.RecordPluginError(HostId(2))
	b.RecordWindow()

	// WHEN merging b into a
	a.Merge(b)
	snap := a.Snapshot()

	// THEN counters sum and the per-host breakdown combines by host
	if snap.WindowsExecuted != 2 {
		t.Fatalf("WindowsExecuted: got %d, want 2", snap.WindowsExecuted)
	}
	if snap.NumPluginErrors != 3 {
		t.Fatalf("NumPluginErrors: got %d, want 3", snap.NumPluginErrors)
	}
	if got := snap.PerHostPluginErrors[HostId(1)]; got != 2 {
		t.Fatalf("PerHostPluginErrors[1]: got %d, want 2", got)
	}
	if got := snap.PerHostPluginErrors[HostId(2)]; got != 1 {
		t.Fatalf("PerHostPluginErrors[2]: got %d, want 1", got)
	}
}

func TestStats_Merge_NilOtherIsNoOp(t *testing.T) {
	// GIVEN a Stats with some recorded counts
	s := NewStats()
	s.RecordWindow()

	// WHEN merging a nil Stats
	s.Merge(nil)

	// THEN nothing changes
	if got := s.Snapshot().WindowsExecuted; got != 1 {
		t.Fatalf("WindowsExecuted: got %d, want 1", got)
	}
}
