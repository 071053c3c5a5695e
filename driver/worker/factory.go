package worker

import (
	"github.com/netsim/hostdriver/driver"
	"github.com/netsim/hostdriver/driver/host"
)

// BasicFactory builds host.BasicHost instances directly from a HostSpec,
// the default Factory used when no plugin-specific host construction is
// wired in (§4.6; actual process injection remains an external
// collaborator per §1 Non-goals).
type BasicFactory struct{}

func (BasicFactory) NewHost(id driver.HostId, spec HostSpec) (host.Host, error) {
	return host.NewBasicHost(id), nil
}

func (BasicFactory) AddApplication(h host.Host, app ApplicationSpec) error {
	bh, ok := h.(*host.BasicHost)
	if !ok {
		return nil
	}
	bh.AddApplication(host.Application{
		Argv:               app.Argv,
		Envv:               app.Envv,
		StartTime:          app.StartTime,
		ShutdownTime:       app.ShutdownTime,
		ShutdownSignal:     app.ShutdownSignal,
		ExpectedFinalState: app.ExpectedFinalState,
	})
	return nil
}
