package worker

import (
	"fmt"
	"net"

	"github.com/netsim/hostdriver/driver"
	"github.com/netsim/hostdriver/driver/host"
)

// ApplicationSpec describes one guest application to add to a host under
// its shared-memory lock (§4.6). Argv/envv content and shim IPC are out of
// scope (§1 Non-goals); this is just the configuration the factory needs.
type ApplicationSpec struct {
	Argv               []string
	Envv               []string
	StartTime          driver.EmulatedTime
	ShutdownTime       driver.EmulatedTime
	ShutdownSignal     int
	ExpectedFinalState string
}

// HostSpec is one (info, id) entry in the enumerated host list (§4.6).
type HostSpec struct {
	Name                string
	IPv4                net.IP
	BandwidthBytesPerSec float64
	BufferSizeBytes     int
	CPUModel            string
	Seed                int64
	PreloadLibraryPaths []string
	Applications        []ApplicationSpec
}

// Factory constructs hosts and adds applications to them. The actual guest
// process machinery behind it is an external collaborator (§1 Non-goals:
// process injection, shim IPC, guest syscall emulation); Factory is the
// seam the driver's host-build step talks to.
type Factory interface {
	NewHost(id driver.HostId, spec HostSpec) (host.Host, error)
	AddApplication(h host.Host, app ApplicationSpec) error
}

// BuildHosts runs the §4.6 host-build algorithm: register every host's
// (id, ipv4, name) in the DNS builder, freeze it, then construct each host
// and add its applications under the host's own shmem lock. Finally the
// host list is shuffled once with a deterministic RNG before being handed
// to the scheduler (§4.3).
//
// HostId assignment is by enumeration order of specs, before shuffling
// (§3 Host — "assigned deterministically by enumeration order of the host
// list before any randomization").
func BuildHosts(specs []HostSpec, factory Factory, shuffleSeed int64) ([]host.Host, *DNS, error) {
	builder := NewDNSBuilder()
	ids := make([]driver.HostId, len(specs))
	for i, s := range specs {
		id := driver.HostId(i)
		ids[i] = id
		if err := builder.Register(id, s.IPv4, s.Name); err != nil {
			return nil, nil, fmt.Errorf("host build: registering %q: %w", s.Name, err)
		}
	}
	dns := builder.Freeze()

	hosts := make([]host.Host, len(specs))
	for i, s := range specs {
		h, err := factory.NewHost(ids[i], s)
		if err != nil {
			return nil, nil, fmt.Errorf("host build: constructing %q: %w", s.Name, err)
		}

		h.LockShmem()
		buildErr := func() error {
			for _, app := range s.Applications {
				if err := factory.AddApplication(h, app); err != nil {
					return fmt.Errorf("host build: adding application to %q: %w", s.Name, err)
				}
			}
			return nil
		}()
		h.UnlockShmem()
		if buildErr != nil {
			return nil, nil, buildErr
		}

		hosts[i] = h
	}

	NewShuffleRNG(shuffleSeed).Shuffle(len(hosts), func(i, j int) {
		hosts[i], hosts[j] = hosts[j], hosts[i]
	})

	return hosts, dns, nil
}
