package driver

// HostId is a compact, dense integer identifying a host. Assigned
// deterministically by enumeration order of the host list before any
// randomization (§3 Host, §4.6 Host build).
type HostId uint32

// Event is an opaque payload plus a strict simulated time. Two events
// admit total order by (Timestamp, tiebreak); the tiebreak is supplied by
// EventQueue itself (a push-order sequence number), not by the Event, so
// that identical sequences of pushes across runs and threads always yield
// the same pop order (§4.1).
type Event interface {
	Timestamp() EmulatedTime
}
