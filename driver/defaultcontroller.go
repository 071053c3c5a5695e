package driver

// GreedyController is a minimal Controller that starts the next window at
// the folded next-event time and makes it Runahead wide (cut short at
// SimEndTime), so that any event a window produces has a delivery time
// safely in a later window (§4.4 Causality invariant). The controller's own window-sizing
// policy is explicitly out of scope (§1); this is the thin stand-in the
// CLI wires in so the driver can actually run end to end without an
// embedding program supplying its own.
type GreedyController struct {
	Runahead   SimulationTime
	SimEndTime EmulatedTime
}

func (c GreedyController) RoundFinished(tNext EmulatedTime) (Window, bool) {
	if tNext >= c.SimEndTime {
		return Window{}, false
	}
	end := tNext.Add(c.Runahead)
	if end > c.SimEndTime {
		end = c.SimEndTime
	}
	if end <= tNext {
		return Window{}, false
	}
	return Window{Start: tNext, End: end}, true
}
