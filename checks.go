package boostbench

// Check represents one benchmark metric verdict.
type Check int

const (
	CheckLoudness Check = 1 << iota
	CheckClipping
	CheckIntelligibility
	CheckLatency
	CheckStability
	CheckTruePeak

	// ChecksAll is the default set.
	ChecksAll = CheckLoudness | CheckClipping | CheckIntelligibility | CheckLatency | CheckStability | CheckTruePeak
)

// AllChecks lists the individual checks in report order.
var AllChecks = []Check{
	CheckLoudness,
	CheckClipping,
	CheckIntelligibility,
	CheckLatency,
	CheckStability,
	CheckTruePeak,
}

func (c Check) String() string {
	switch c {
	case CheckLoudness:
		return "loudness"
	case CheckClipping:
		return "clipping"
	case CheckIntelligibility:
		return "intelligibility"
	case CheckLatency:
		return "latency"
	case CheckStability:
		return "stability"
	case CheckTruePeak:
		return "truepeak"
	}

	return "unknown"
}

// ParseCheck converts a check name back to a Check.
func ParseCheck(name string) (Check, bool) {
	for _, c := range AllChecks {
		if c.String() == name {
			return c, true
		}
	}

	return 0, false
}

// Severity indicates how far a metric is from acceptable.
type Severity int

const (
	SeverityNone Severity = iota
	SeverityMild
	SeverityModerate
	SeveritySevere
)

func (s Severity) String() string {
	switch s {
	case SeverityNone:
		return "no issue"
	case SeverityMild:
		return "mild"
	case SeverityModerate:
		return "moderate"
	case SeveritySevere:
		return "severe"
	}

	return "unknown"
}

// Issue is the interpretation of one metric.
type Issue struct {
	Check      Check
	Detected   bool
	Severity   Severity
	Summary    string  // human-readable summary
	Confidence float64 // 0.0-1.0
}

// Bands defines severity thresholds for a check. Direction is implicit:
// if Mild < Severe, higher values are worse (ascending, e.g. LUFS error).
// If Mild > Severe, lower values are worse (descending, e.g. STOI).
type Bands struct {
	Mild     float64
	Moderate float64
	Severe   float64
}

// Match returns the severity for a value.
// Returns (SeverityNone, false) when the value does not reach the Mild threshold.
func (b Bands) Match(value float64) (Severity, bool) {
	if b.Mild <= b.Severe {
		// Ascending: higher = worse.
		if value >= b.Severe {
			return SeveritySevere, true
		}

		if value >= b.Moderate {
			return SeverityModerate, true
		}

		if value >= b.Mild {
			return SeverityMild, true
		}
	} else {
		// Descending: lower = worse.
		if value <= b.Severe {
			return SeveritySevere, true
		}

		if value <= b.Moderate {
			return SeverityModerate, true
		}

		if value <= b.Mild {
			return SeverityMild, true
		}
	}

	return SeverityNone, false
}
