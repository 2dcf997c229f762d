package autogain

// GateState is the state of the silence gate's increase-freeze hysteresis.
type GateState int

const (
	// IncreaseAllowed lets the loop raise the gain. It moves to IncreaseFrozen once the signal has stayed
	// below the gate for the hold time.
	IncreaseAllowed GateState = iota
	// IncreaseFrozen blocks gain increases (decreases still apply). It moves back to IncreaseAllowed once the
	// signal has stayed above the gate for the resume time.
	IncreaseFrozen
)

func (s GateState) String() string {
	switch s {
	case IncreaseAllowed:
		return "increase-allowed"
	case IncreaseFrozen:
		return "increase-frozen"
	}

	return "unknown"
}

// gate accumulates continuous time below and above the threshold. Each accumulator resets when the other one
// advances, and each state only looks at its own accumulator, so a single hop across the threshold never
// toggles the state.
type gate struct {
	state GateState

	thresholdDb float64
	holdMs      float64
	resumeMs    float64

	belowMs float64
	aboveMs float64
}

// newGate starts frozen with empty accumulators: nothing is boosted before the loop has heard the resume time
// of signal.
func newGate(thresholdDb, holdMs, resumeMs float64) *gate {
	return &gate{
		state:       IncreaseFrozen,
		thresholdDb: thresholdDb,
		holdMs:      holdMs,
		resumeMs:    resumeMs,
	}
}

// observe accounts elapsedMs of the given level.
func (g *gate) observe(levelDb, elapsedMs float64) {
	if levelDb < g.thresholdDb {
		g.belowMs += elapsedMs
		g.aboveMs = 0
	} else {
		g.aboveMs += elapsedMs
		g.belowMs = 0
	}

	switch g.state {
	case IncreaseAllowed:
		if g.belowMs >= g.holdMs {
			g.state = IncreaseFrozen
		}
	case IncreaseFrozen:
		if g.aboveMs >= g.resumeMs {
			g.state = IncreaseAllowed
		}
	}
}
