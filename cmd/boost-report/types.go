//nolint:tagliatelle
package main

import "github.com/farcloser/boostbench"

// Record is a single line in the JSONL report file.
type Record struct {
	File      string              `json:"file,omitempty"`
	Processor string              `json:"processor,omitempty"`
	Metrics   *boostbench.Metrics `json:"metrics,omitempty"`
	Analysis  map[string]any      `json:"analysis,omitempty"`
	Error     string              `json:"error,omitempty"`
	Timing    *RecordTiming       `json:"timing,omitempty"`
}

// RecordTiming captures per-file processing durations in milliseconds.
type RecordTiming struct {
	ProcessMs float64 `json:"process_ms"`
	MeasureMs float64 `json:"measure_ms"`
	TotalMs   float64 `json:"total_ms"`
}

// digestRecord holds the typed fields needed by the digest command.
type digestRecord struct {
	File     string              `json:"file,omitempty"`
	Metrics  *boostbench.Metrics `json:"metrics,omitempty"`
	Analysis *digestAnalysis     `json:"analysis,omitempty"`
	Error    string              `json:"error,omitempty"`
}

type digestAnalysis struct {
	Summary digestSummary `json:"summary"`
	Issues  []digestIssue `json:"issues"`
}

type digestSummary struct {
	IssueCount    int    `json:"issue_count"`
	WorstSeverity string `json:"worst_severity"`
}

type digestIssue struct {
	Check      string  `json:"check"`
	Detected   bool    `json:"detected"`
	Severity   string  `json:"severity"`
	Summary    string  `json:"summary"`
	Confidence float64 `json:"confidence"`
}

// checkBreakdown tracks per-check severity counts for the digest.
type checkBreakdown struct {
	Check    string
	Total    int
	Severe   int
	Moderate int
	Mild     int
}

// metricTotals accumulates metric sums for the digest averages.
type metricTotals struct {
	count int
	sum   boostbench.Metrics
}

func (m *metricTotals) add(metrics *boostbench.Metrics) {
	m.count++
	m.sum.LUFS += metrics.LUFS
	m.sum.LUFSError += metrics.LUFSError
	m.sum.DLUFSSecVariance += metrics.DLUFSSecVariance
	m.sum.STOI += metrics.STOI
	m.sum.ClippingPercent += metrics.ClippingPercent
	m.sum.LatencyMs += metrics.LatencyMs
	m.sum.DurationSec += metrics.DurationSec
	m.sum.ProcessingTimeSec += metrics.ProcessingTimeSec
	m.sum.ProcessingTimePerSec += metrics.ProcessingTimePerSec
}

func (m *metricTotals) mean() boostbench.Metrics {
	if m.count == 0 {
		return boostbench.Metrics{}
	}

	n := float64(m.count)

	return boostbench.Metrics{
		LUFS:                 m.sum.LUFS / n,
		LUFSError:            m.sum.LUFSError / n,
		DLUFSSecVariance:     m.sum.DLUFSSecVariance / n,
		STOI:                 m.sum.STOI / n,
		ClippingPercent:      m.sum.ClippingPercent / n,
		LatencyMs:            m.sum.LatencyMs / n,
		DurationSec:          m.sum.DurationSec / n,
		ProcessingTimeSec:    m.sum.ProcessingTimeSec / n,
		ProcessingTimePerSec: m.sum.ProcessingTimePerSec / n,
	}
}
