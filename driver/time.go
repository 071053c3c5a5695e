package driver

import "fmt"

// EmulatedTime is an absolute simulated instant, nanosecond granularity,
// measured from SimulationStart. Arithmetic saturates at the representable
// bounds instead of wrapping or panicking.
type EmulatedTime int64

// SimulationTime is a duration of simulated time, in nanoseconds.
type SimulationTime int64

const (
	// SimulationStart is the epoch all EmulatedTime values are measured from.
	SimulationStart EmulatedTime = 0

	// MaxEmulatedTime represents "no next event" / "run forever" in folds
	// over per-host next-event times (§4.4 step 6).
	MaxEmulatedTime EmulatedTime = 1<<63 - 1
)

// Add returns t+d, saturating at MaxEmulatedTime rather than overflowing
// and at SimulationStart rather than going below it.
func (t EmulatedTime) Add(d SimulationTime) EmulatedTime {
	if d > 0 && t > MaxEmulatedTime-EmulatedTime(d) {
		return MaxEmulatedTime
	}
	if d < 0 && t+EmulatedTime(d) < SimulationStart {
		return SimulationStart
	}
	return t + EmulatedTime(d)
}

// Sub returns the duration between two instants.
func (t EmulatedTime) Sub(other EmulatedTime) SimulationTime {
	return SimulationTime(t - other)
}

// Nanos returns the raw nanosecond count since SimulationStart.
func (t EmulatedTime) Nanos() int64 { return int64(t) }

// String formats the time as seconds: an integer when evenly divisible by
// 1e9, else fixed six-decimal seconds (§6 Run-control input channel).
func (t EmulatedTime) String() string {
	const nsPerSec = int64(1e9)
	ns := int64(t)
	if ns%nsPerSec == 0 {
		return fmt.Sprintf("%ds", ns/nsPerSec)
	}
	return fmt.Sprintf("%.6fs", float64(ns)/float64(nsPerSec))
}

// Nanos returns the raw nanosecond count of a duration.
func (d SimulationTime) Nanos() int64 { return int64(d) }

// Seconds converts a whole number of seconds to a SimulationTime, saturating
// on overflow rather than wrapping (used by the "cN"/"rN" run-control
// commands, §4.5).
func Seconds(n uint64) SimulationTime {
	const nsPerSec = uint64(1e9)
	if n > 0 && nsPerSec > 0 && n > uint64(1<<63-1)/nsPerSec {
		return SimulationTime(1<<63 - 1)
	}
	return SimulationTime(n * nsPerSec)
}

// Window is a half-open interval [Start, End) of simulated time during
// which hosts may fire events in parallel without causal conflict (§3).
type Window struct {
	Start EmulatedTime
	End   EmulatedTime
}

// Empty reports whether the window has zero width.
func (w Window) Empty() bool { return w.Start >= w.End }
