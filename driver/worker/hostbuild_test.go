package worker

import (
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/netsim/hostdriver/driver"
	"github.com/netsim/hostdriver/driver/host"
	"github.com/netsim/hostdriver/driver/internal/testhost"
)

// factoryAdapter builds testhost.Host instances, satisfying Factory.
type factoryAdapter struct {
	appsAdded map[driver.HostId]int
}

func (f *factoryAdapter) NewHost(id driver.HostId, spec HostSpec) (host.Host, error) {
	return testhost.New(id), nil
}

func (f *factoryAdapter) AddApplication(h host.Host, app ApplicationSpec) error {
	if f.appsAdded == nil {
		f.appsAdded = make(map[driver.HostId]int)
	}
	f.appsAdded[h.ID()]++
	return nil
}

func TestBuildHosts_AssignsIDsByEnumerationOrder_BeforeShuffle(t *testing.T) {
	specs := []HostSpec{
		{Name: "a", IPv4: net.ParseIP("10.0.0.1")},
		{Name: "b", IPv4: net.ParseIP("10.0.0.2")},
		{Name: "c", IPv4: net.ParseIP("10.0.0.3")},
	}
	factory := &factoryAdapter{}

	hosts, dns, err := BuildHosts(specs, factory, 42)
	require.NoError(t, err)
	require.Len(t, hosts, 3)

	// Every spec's name must still resolve to the ID assigned by
	// enumeration order, regardless of where the shuffle put the host.
	for i, s := range specs {
		id, _, ok := dns.Lookup(s.Name)
		require.True(t, ok)
		assert.Equal(t, driver.HostId(i), id)
	}
}

func TestBuildHosts_Shuffle_IsDeterministicForSameSeed(t *testing.T) {
	specs := []HostSpec{
		{Name: "a", IPv4: net.ParseIP("10.0.0.1")},
		{Name: "b", IPv4: net.ParseIP("10.0.0.2")},
		{Name: "c", IPv4: net.ParseIP("10.0.0.3")},
		{Name: "d", IPv4: net.ParseIP("10.0.0.4")},
	}

	hosts1, _, err := BuildHosts(specs, &factoryAdapter{}, 7)
	require.NoError(t, err)
	hosts2, _, err := BuildHosts(specs, &factoryAdapter{}, 7)
	require.NoError(t, err)

	for i := range hosts1 {
		assert.Equal(t, hosts1[i].ID(), hosts2[i].ID())
	}
}
