// Package pump implements the driver loop itself (§4.4 "the pump"): the
// top-level window cycle that dispatches to the scheduler, folds
// next-event times, hands off to the controller, and honors run-control.
// It lives in its own package (rather than package driver) because it is
// the one component that needs to see both the core driver types and the
// Host interface those types are deliberately kept separate from.
package pump

import (
	"errors"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/netsim/hostdriver/driver"
	"github.com/netsim/hostdriver/driver/host"
	"github.com/netsim/hostdriver/driver/runcontrol"
	"github.com/netsim/hostdriver/driver/scheduler"
	"github.com/netsim/hostdriver/driver/worker"
)

// RestartRequest is surfaced out of Run when an operator requests an
// in-process restart (§4.5 In-process restart, §6 Exit status). The
// supervisor is expected to re-enter Run with a fresh Config whose
// RunControl has RestartRunUntilNs pre-loaded via PresetRestart.
type RestartRequest struct {
	RunUntilNs uint64
}

func (e *RestartRequest) Error() string {
	return fmt.Sprintf("pump: restart requested (run_until_ns=%d)", e.RunUntilNs)
}

// PrintBoundary is the pluggable sink for run-control banners and
// next-window listings (§4.5, §6 "human-readable boundary banners and
// host/PID listings to a log stream"). A nil field disables that output.
type PrintBoundary struct {
	// Banner prints the "paused at window boundary" message.
	Banner func(nextWindow driver.Window)
	// Info prints the next-window host/PID listing.
	Info func(nextWindow driver.Window)
}

// Config bundles everything Run needs for one pass through the pump. All
// fields except Hosts/Shared/Scheduler/Controller/RunControl are
// optional.
type Config struct {
	Hosts      []host.Host
	Shared     *worker.Shared
	Scheduler  scheduler.Scheduler
	Controller driver.Controller
	RunControl *runcontrol.State

	// IsInteractive gates the start-pause policy (§4.5 Start-pause
	// policy): only a real terminal pauses at t=0.
	IsInteractive bool

	HeartbeatInterval driver.SimulationTime
	Resources         *driver.ResourceMonitor

	Print PrintBoundary

	Stats *driver.Stats
}

// Run executes the windowed pump described in §4.4 until the controller
// returns termination or a restart is requested. On normal completion it
// returns the final Snapshot and a nil error. On restart it returns the
// partial Snapshot and a *RestartRequest error.
func Run(cfg Config) (driver.Snapshot, error) {
	log := logrus.WithField("component", "pump")

	stats := cfg.Stats
	if stats == nil {
		stats = driver.NewStats()
	}
	hb := driver.NewHeartbeat(cfg.HeartbeatInterval)
	resources := cfg.Resources
	if resources == nil {
		resources = driver.NewResourceMonitor()
	}

	printBanner := func(w driver.Window) {
		if cfg.Print.Banner != nil {
			cfg.Print.Banner(w)
		}
	}
	printInfo := func(w driver.Window) {
		if cfg.Print.Info != nil {
			cfg.Print.Info(w)
		}
	}

	window := driver.Window{Start: driver.SimulationStart, End: driver.SimulationStart.Add(driver.SimulationTime(1))}

	cfg.RunControl.MaybeStartPause(cfg.IsInteractive)
	cfg.RunControl.BlockIfPaused()

	slots := make([]*scheduler.EventTimeSlot, cfg.Scheduler.Parallelism())
	for i := range slots {
		slots[i] = &scheduler.EventTimeSlot{}
	}

	var restartErr *RestartRequest

	// lastFired tracks each host's cumulative EventsFired() (when exposed)
	// so RecordEventsDelivered only sees the delta since the last window,
	// not the host's running total across windows. Guarded by
	// lastFiredMu since RunWithData dispatches across worker goroutines.
	lastFired := make(map[driver.HostId]uint64)
	var lastFiredMu sync.Mutex

	for !window.Empty() {
		// 2. Publish window_start to the status UI.
		cfg.Shared.PublishWindowStart(window.Start)

		// 3. Dispatch: execute every host up to window.End, folding each
		// worker's next-event minimum.
		cfg.Scheduler.RunWithData(slots, func(threadID int, hosts []host.Host, slot *scheduler.EventTimeSlot) {
			for _, h := range hosts {
				h.LockShmem()
				h.Execute(window.End)
				t, ok := h.NextEventTime()
				h.UnlockShmem()
				slot.Fold(t, ok)
				stats.RecordHostExecuted()

				if counter, ok := h.(interface{ EventsFired() uint64 }); ok {
					fired := counter.EventsFired()
					lastFiredMu.Lock()
					delta := fired - lastFired[h.ID()]
					lastFired[h.ID()] = fired
					lastFiredMu.Unlock()
					stats.RecordEventsDelivered(delta)
				}
			}
		})
		stats.RecordWindow()

		// 4. Heartbeat.
		hb.MaybeLog(window.Start, stats)

		// 5. Resource check (self-gated to real wall-clock intervals).
		resources.Check()

		// 6. Fold all per-thread minima into the global t_next.
		tNext := driver.MaxEmulatedTime
		for _, slot := range slots {
			if t, ok := slot.TakeAndClear(); ok && t < tNext {
				tNext = t
			}
		}
		if t, ok := tryFoldShared(cfg.Shared); ok && t < tNext {
			tNext = t
		}

		// 7. Controller handoff.
		nextWindow, ok := cfg.Controller.RoundFinished(tNext)
		if !ok {
			window = driver.Window{}
		} else {
			window = nextWindow
		}

		// 8. Run-control boundary.
		result := cfg.RunControl.AtBoundary(tNext,
			func() { printBanner(window) },
			func() { printInfo(window) },
		)
		if result.Terminate {
			window = driver.Window{}
			if result.WasRestart {
				restartErr = &RestartRequest{RunUntilNs: result.RestartRunUntilNs}
			}
		}
	}

	// Post-loop teardown (§4.4): advance every host to sim_end_time and
	// shut it down.
	for _, h := range cfg.Hosts {
		h.LockShmem()
		h.Execute(cfg.Shared.SimEndTime)
		h.Shutdown()
		h.UnlockShmem()
	}

	cfg.Scheduler.Join()

	log.WithField("num_plugin_errors", cfg.Shared.NumPluginErrors()).Info("run finished")

	// WorkerShared.NumPluginErrors is the authoritative count (§3, §7 exit
	// status) — it is incremented directly by whatever plugin-hosting layer
	// an embedder wires in, bypassing Stats entirely. Fold it into the
	// persisted snapshot so sim-stats.json and the exit-status count agree.
	snap := stats.Snapshot()
	snap.NumPluginErrors = cfg.Shared.NumPluginErrors()

	if restartErr != nil {
		return snap, restartErr
	}
	return snap, nil
}

// tryFoldShared folds in the minimum next-event time across the host
// queues registered in shared.EventQueues (via FoldNextEventTime), if any
// of them holds an event. The packets-in-flight contribution is folded by
// the scheduler from shared.PacketNextEventTime instead.
func tryFoldShared(shared *worker.Shared) (driver.EmulatedTime, bool) {
	if shared == nil {
		return 0, false
	}
	t := shared.FoldNextEventTime()
	if t == driver.MaxEmulatedTime {
		return 0, false
	}
	return t, true
}

// IsRestartRequest reports whether err is a *RestartRequest, unwrapping
// through error chains the way the supervisor needs to distinguish a
// restart from a fatal error (§6 Exit status).
func IsRestartRequest(err error) (*RestartRequest, bool) {
	var rr *RestartRequest
	if errors.As(err, &rr) {
		return rr, true
	}
	return nil, false
}
