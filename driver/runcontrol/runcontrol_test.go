package runcontrol

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/netsim/hostdriver/driver"
)

func noop() {}

// runBoundaryAsync runs AtBoundary on a goroutine and returns a channel
// that receives the result once the call returns, so tests can assert on
// pause/block behavior without deadlocking the test goroutine.
func runBoundaryAsync(s *State, t driver.EmulatedTime) <-chan BoundaryResult {
	out := make(chan BoundaryResult, 1)
	go func() {
		out <- s.AtBoundary(t, noop, noop)
	}()
	return out
}

func waitBlocked(t *testing.T, s *State) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if s.IsPaused() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("runcontrol: state never entered Paused")
}

func TestAtBoundary_NoRequests_NeverBlocks(t *testing.T) {
	s := New()
	res := s.AtBoundary(driver.EmulatedTime(0), noop, noop)
	assert.False(t, res.Terminate)
	assert.False(t, s.IsPaused())
}

func TestAtBoundary_PauseThenContinue_Resumes(t *testing.T) {
	// GIVEN a pending pause request
	s := New()
	require.NoError(t, s.Apply("p", nil))

	// WHEN the boundary is reached, the driver blocks
	done := runBoundaryAsync(s, driver.EmulatedTime(0))
	waitBlocked(t, s)

	// WHEN continue is issued, the boundary call returns
	require.NoError(t, s.Apply("c", nil))
	select {
	case res := <-done:
		assert.False(t, res.Terminate)
	case <-time.After(time.Second):
		t.Fatal("AtBoundary did not return after continue")
	}
	assert.False(t, s.IsPaused())
}

func TestAtBoundary_RepeatedContinueAfterPause_IsIdempotent(t *testing.T) {
	// GIVEN p then c,c,c in a row
	s := New()
	require.NoError(t, s.Apply("p", nil))
	done := runBoundaryAsync(s, driver.EmulatedTime(0))
	waitBlocked(t, s)

	require.NoError(t, s.Apply("c", nil))
	require.NoError(t, s.Apply("c", nil))
	require.NoError(t, s.Apply("c", nil))

	select {
	case res := <-done:
		assert.False(t, res.Terminate)
	case <-time.After(time.Second):
		t.Fatal("AtBoundary did not return")
	}
	// THEN a subsequent boundary does not re-pause.
	res := s.AtBoundary(driver.EmulatedTime(1), noop, noop)
	assert.False(t, res.Terminate)
	assert.False(t, s.IsPaused())
}

func TestAtBoundary_RunUntilDeadline_CancelledByContinue(t *testing.T) {
	// GIVEN cN (run for N simulated seconds, here forced tiny via a
	// directly-set run_for_ns to keep the test fast)
	s := New()
	s.runForNs.Store(2) // run_for_ns=2ns, converted to an absolute deadline at the next boundary

	assertNotPaused := func(tn driver.EmulatedTime) {
		res := s.AtBoundary(tn, noop, noop)
		assert.False(t, res.Terminate)
	}
	assertNotPaused(0)
	assertNotPaused(1)

	// WHEN a bare continue arrives before the deadline, it cancels it
	require.NoError(t, s.Apply("c", nil))

	// THEN the run-until deadline no longer fires.
	for tn := driver.EmulatedTime(2); tn < 10; tn++ {
		res := s.AtBoundary(tn, noop, noop)
		assert.False(t, res.Terminate)
		assert.False(t, s.IsPaused())
	}
}

func TestAtBoundary_StepN_PausesAfterExactlyNBoundaries(t *testing.T) {
	s := New()
	require.NoError(t, s.Apply("n", nil))

	// First boundary after "n" consumes the single step and re-pauses.
	done := runBoundaryAsync(s, driver.EmulatedTime(0))
	waitBlocked(t, s)

	require.NoError(t, s.Apply("c", nil))
	<-done
	assert.False(t, s.IsPaused())
}

func TestAtBoundary_RestartOutsidePause_TerminatesWithoutBlocking(t *testing.T) {
	s := New()
	require.NoError(t, s.Apply("r42", nil))

	res := s.AtBoundary(driver.EmulatedTime(0), noop, noop)
	assert.True(t, res.Terminate)
	assert.True(t, res.WasRestart)
	assert.Equal(t, uint64(42_000_000_000), res.RestartRunUntilNs)
	assert.False(t, s.IsPaused())
}

func TestAtBoundary_RestartWhilePaused_BreaksOutOfWait(t *testing.T) {
	s := New()
	require.NoError(t, s.Apply("p", nil))

	done := runBoundaryAsync(s, driver.EmulatedTime(0))
	waitBlocked(t, s)

	require.NoError(t, s.Apply("r7", nil))

	select {
	case res := <-done:
		assert.True(t, res.Terminate)
		assert.True(t, res.WasRestart)
		assert.Equal(t, uint64(7_000_000_000), res.RestartRunUntilNs)
	case <-time.After(time.Second):
		t.Fatal("AtBoundary did not return after restart")
	}
}

func TestAtBoundary_InfoRequest_PrintsWithoutUnblocking(t *testing.T) {
	s := New()
	require.NoError(t, s.Apply("p", nil))

	var mu sync.Mutex
	printed := 0
	printInfo := func() {
		mu.Lock()
		printed++
		mu.Unlock()
	}

	out := make(chan BoundaryResult, 1)
	go func() { out <- s.AtBoundary(driver.EmulatedTime(0), noop, printInfo) }()
	waitBlocked(t, s)

	require.NoError(t, s.Apply("info", nil))

	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		mu.Lock()
		n := printed
		mu.Unlock()
		if n > 1 { // once for the pause banner's listing, once for "info"
			break
		}
		time.Sleep(time.Millisecond)
	}
	mu.Lock()
	assert.Greater(t, printed, 1)
	mu.Unlock()

	// still paused: info does not resume the run
	assert.True(t, s.IsPaused())

	require.NoError(t, s.Apply("c", nil))
	select {
	case <-out:
	case <-time.After(time.Second):
		t.Fatal("AtBoundary never returned after continue")
	}
}

func TestApply_UnknownCommand_ReturnsError(t *testing.T) {
	s := New()
	err := s.Apply("bogus", nil)
	assert.Error(t, err)
}

func TestApply_AttachPID_InvokesCallback(t *testing.T) {
	s := New()
	var got int
	require.NoError(t, s.Apply("s:12345", func(pid int) { got = pid }))
	assert.Equal(t, 12345, got)
}

func TestReset_ClearsEveryFlag(t *testing.T) {
	s := New()
	require.NoError(t, s.Apply("p", nil))
	require.NoError(t, s.Apply("r9", nil))
	s.infoRequested.Store(true)

	s.Reset()

	assert.False(t, s.IsPaused())
	assert.False(t, s.pauseRequested.Load())
	assert.False(t, s.restartRequested.Load())
	assert.False(t, s.infoRequested.Load())
	assert.Equal(t, uint64(unsetAbs), s.runUntilAbs.Load())
}
