package driver

// Controller is the external oracle that decides, given the folded
// next-event time, what the next window is, or that the simulation should
// terminate (§6 External Interfaces — Controller).
//
// Implementations must return non-empty, non-overlapping windows with
// Start >= the previous window's End; the driver does not itself validate
// this (it is the controller's contract to uphold), but a violation will
// surface as a TimeBackwardError the next time an affected host pushes an
// event.
type Controller interface {
	// RoundFinished is called once per window with the minimum next-event
	// time folded across every host and the packet-in-flight worker. It
	// returns the next window, or (Window{}, false) to terminate.
	RoundFinished(tNext EmulatedTime) (Window, bool)
}
