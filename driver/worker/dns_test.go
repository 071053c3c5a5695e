package worker

import (
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDNSBuilder_Register_RejectsIPv6(t *testing.T) {
	b := NewDNSBuilder()
	err := b.Register(0, net.ParseIP("::1"), "host0")
	require.Error(t, err)
}

func TestDNSBuilder_Register_RejectsDuplicateName(t *testing.T) {
	b := NewDNSBuilder()
	require.NoError(t, b.Register(0, net.ParseIP("10.0.0.1"), "host0"))

	err := b.Register(1, net.ParseIP("10.0.0.2"), "host0")
	require.Error(t, err)
}

func TestDNSBuilder_Freeze_ResolvesRegisteredNames(t *testing.T) {
	b := NewDNSBuilder()
	require.NoError(t, b.Register(0, net.ParseIP("10.0.0.1"), "host0"))
	require.NoError(t, b.Register(1, net.ParseIP("10.0.0.2"), "host1"))

	dns := b.Freeze()

	id, addr, ok := dns.Lookup("host1")
	assert.True(t, ok)
	assert.Equal(t, uint32(1), uint32(id))
	assert.True(t, addr.Equal(net.ParseIP("10.0.0.2")))

	name, ok := dns.Name(0)
	assert.True(t, ok)
	assert.Equal(t, "host0", name)
}
