package worker

import (
	"fmt"
	"net"

	"github.com/netsim/hostdriver/driver"
)

// DNS is a frozen, read-only name -> (HostId, IPv4) registry. Built once
// during host build (§4.6) via DNSBuilder, then shared read-only for the
// rest of the run.
type DNS struct {
	byName map[string]dnsEntry
	byID   map[driver.HostId]dnsEntry
}

type dnsEntry struct {
	id   driver.HostId
	addr net.IP
	name string
}

// Lookup resolves a hostname to its registered HostId and address.
func (d *DNS) Lookup(name string) (driver.HostId, net.IP, bool) {
	e, ok := d.byName[name]
	return e.id, e.addr, ok
}

// Name returns the registered name for a HostId.
func (d *DNS) Name(id driver.HostId) (string, bool) {
	e, ok := d.byID[id]
	return e.name, ok
}

// DNSBuilder accumulates (id, name, IPv4) registrations before the
// registry is frozen into a read-only DNS (§4.6).
type DNSBuilder struct {
	byName map[string]dnsEntry
	byID   map[driver.HostId]dnsEntry
}

// NewDNSBuilder creates an empty builder.
func NewDNSBuilder() *DNSBuilder {
	return &DNSBuilder{
		byName: make(map[string]dnsEntry),
		byID:   make(map[driver.HostId]dnsEntry),
	}
}

// Register adds a (id, ipv4Addr, name) triple. IPv6 addresses are rejected
// (§4.6), as is a duplicate name (§7 Configuration invalid).
func (b *DNSBuilder) Register(id driver.HostId, addr net.IP, name string) error {
	v4 := addr.To4()
	if v4 == nil {
		return fmt.Errorf("dns: host %q: address %s is not IPv4", name, addr)
	}
	if _, exists := b.byName[name]; exists {
		return fmt.Errorf("dns: duplicate host name %q", name)
	}
	e := dnsEntry{id: id, addr: v4, name: name}
	b.byName[name] = e
	b.byID[id] = e
	return nil
}

// Freeze produces the read-only DNS consumed for the rest of the run.
func (b *DNSBuilder) Freeze() *DNS {
	return &DNS{byName: b.byName, byID: b.byID}
}
