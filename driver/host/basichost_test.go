package host_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/netsim/hostdriver/driver"
	"github.com/netsim/hostdriver/driver/host"
)

type fakeEvent struct {
	t driver.EmulatedTime
}

func (e fakeEvent) Timestamp() driver.EmulatedTime { return e.t }

func TestBasicHost_Execute_DrainsInTimeOrder(t *testing.T) {
	h := host.NewBasicHost(driver.HostId(1))
	h.LockShmem()
	h.Push(fakeEvent{t: 30})
	h.Push(fakeEvent{t: 10})
	h.Push(fakeEvent{t: 20})

	var fired []driver.EmulatedTime
	h.OnFire = func(_ *host.BasicHost, e driver.Event) {
		fired = append(fired, e.Timestamp())
	}
	h.Execute(driver.EmulatedTime(25))
	h.UnlockShmem()

	assert.Equal(t, []driver.EmulatedTime{10, 20}, fired)
	remaining, ok := h.NextEventTime()
	require.True(t, ok)
	assert.Equal(t, driver.EmulatedTime(30), remaining)
}

func TestBasicHost_Execute_WithoutLock_Panics(t *testing.T) {
	h := host.NewBasicHost(driver.HostId(1))
	assert.Panics(t, func() { h.Execute(driver.EmulatedTime(100)) })
}

func TestBasicHost_AddApplication_RequiresLock(t *testing.T) {
	h := host.NewBasicHost(driver.HostId(1))
	assert.Panics(t, func() { h.AddApplication(host.Application{}) })

	h.LockShmem()
	h.AddApplication(host.Application{Argv: []string{"/bin/true"}})
	h.UnlockShmem()
	require.Len(t, h.Applications(), 1)
}

func TestBasicHost_Shutdown_IsIdempotent(t *testing.T) {
	h := host.NewBasicHost(driver.HostId(1))
	h.Shutdown()
	h.Shutdown()
	assert.True(t, h.ShutdownCalled())
}

func TestBasicHost_EventsFired_CountsPoppedEvents(t *testing.T) {
	h := host.NewBasicHost(driver.HostId(1))
	h.LockShmem()
	h.Push(fakeEvent{t: 5})
	h.Push(fakeEvent{t: 15})
	h.Push(fakeEvent{t: 25})
	h.Execute(driver.EmulatedTime(20))
	h.UnlockShmem()

	assert.Equal(t, uint64(2), h.EventsFired())

	h.LockShmem()
	h.Execute(driver.EmulatedTime(100))
	h.UnlockShmem()

	assert.Equal(t, uint64(3), h.EventsFired())
}

func TestBasicHost_EventQueueHandle_ReflectsSameQueue(t *testing.T) {
	h := host.NewBasicHost(driver.HostId(1))
	h.LockShmem()
	h.Push(fakeEvent{t: 5})
	h.UnlockShmem()

	tm, ok := h.EventQueueHandle().NextEventTime()
	require.True(t, ok)
	assert.Equal(t, driver.EmulatedTime(5), tm)
}
