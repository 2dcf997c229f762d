// Package output provides shared result serialization for boostbench JSON output.
package output

import (
	"github.com/farcloser/boostbench"
	"github.com/farcloser/boostbench/internal/audit/autogain"
	"github.com/farcloser/boostbench/internal/types"
)

// ResultToMap converts a measurement result into the canonical map structure
// used for JSON and JSONL serialization.
func ResultToMap(result *boostbench.Result) map[string]any {
	meta := map[string]any{
		"summary": map[string]any{
			"issue_count":    result.IssueCount,
			"worst_severity": result.WorstSeverity.String(),
		},
		"metrics":     MetricsToMap(result.Metrics),
		"sample_rate": result.SampleRate,
		"samples":     result.Samples,
	}

	// Issues.
	issues := make([]any, 0, len(result.Issues))
	for _, issue := range result.Issues {
		issues = append(issues, map[string]any{
			"check":      issue.Check.String(),
			"detected":   issue.Detected,
			"severity":   issue.Severity.String(),
			"summary":    issue.Summary,
			"confidence": issue.Confidence,
		})
	}

	meta["issues"] = issues

	// Raw analyzer results.
	if r := result.Clipping; r != nil {
		meta["clipping"] = ClippingToMap(r)
	}

	if r := result.Intelligibility; r != nil {
		meta["intelligibility"] = map[string]any{
			"score":    r.Score,
			"frames":   r.Frames,
			"segments": r.Segments,
		}
	}

	if r := result.Latency; r != nil {
		meta["latency"] = map[string]any{
			"lag_samples": r.LagSamples,
			"latency_ms":  r.LatencyMs,
			"correlation": r.Correlation,
		}
	}

	if r := result.Stability; r != nil {
		meta["stability"] = map[string]any{
			"variance": r.Variance,
			"block_db": r.BlockDb,
		}
	}

	if reader := result.TruePeak; reader != nil {
		meta["true_peak"] = map[string]any{
			"true_peak_db":   reader.TruePeakDb,
			"sample_peak_db": reader.SamplePeakDb,
			"isp_count":      reader.ISPCount,
			"isp_max_db":     reader.ISPMaxDb,
			"samples":        reader.Samples,
		}
	}

	if reader := result.Loudness; reader != nil {
		meta["loudness"] = map[string]any{
			"integrated_lufs": reader.IntegratedLUFS,
			"short_term_max":  reader.ShortTermMax,
			"momentary_max":   reader.MomentaryMax,
			"loudness_range":  reader.LoudnessRange,
			"frames":          reader.Frames,
		}
	}

	return meta
}

// MetricsToMap converts the benchmark metrics to a map keyed like metrics.json.
// Processing times are only present once a processor was timed.
func MetricsToMap(metrics boostbench.Metrics) map[string]any {
	meta := map[string]any{
		"lufs":               metrics.LUFS,
		"lufs_error":         metrics.LUFSError,
		"dlufs_sec_variance": metrics.DLUFSSecVariance,
		"stoi":               metrics.STOI,
		"clipping_percent":   metrics.ClippingPercent,
		"latency_ms":         metrics.LatencyMs,
		"duration_sec":       metrics.DurationSec,
	}

	if metrics.ProcessingTimeSec > 0 {
		meta["processing_time_sec"] = metrics.ProcessingTimeSec
		meta["processing_time_per_sec"] = metrics.ProcessingTimePerSec
	}

	return meta
}

// ClippingToMap converts clipping detection results to a map.
func ClippingToMap(result *types.ClippingDetection) map[string]any {
	return map[string]any{
		"percent":         result.Percent,
		"events":          result.Events,
		"clipped_samples": result.ClippedSamples,
		"longest_run":     result.LongestRun,
		"samples":         result.Samples,
		"threshold":       result.Threshold,
	}
}

// TraceToMap converts an auto-gain trace to a map, one entry per control-loop hop.
func TraceToMap(result *autogain.Result, sampleRate int) map[string]any {
	hops := make([]any, 0, len(result.Hops))

	var (
		minGain, maxGain float64
		frozen           int
	)

	for i, hop := range result.Hops {
		if i == 0 || hop.Gain < minGain {
			minGain = hop.Gain
		}

		if i == 0 || hop.Gain > maxGain {
			maxGain = hop.Gain
		}

		if hop.Gate == autogain.IncreaseFrozen {
			frozen++
		}

		hops = append(hops, map[string]any{
			"start_sec":     float64(hop.Start) / float64(sampleRate),
			"rms_db":        hop.RmsDb,
			"desired_gain":  hop.DesiredGain,
			"proposed_db":   hop.ProposedDb,
			"step_db":       hop.StepDb,
			"gain":          hop.Gain,
			"below_gate_ms": hop.BelowGateMs,
			"above_gate_ms": hop.AboveGateMs,
			"gate":          hop.Gate.String(),
		})
	}

	return map[string]any{
		"hop_count":   len(result.Hops),
		"frozen_hops": frozen,
		"min_gain":    minGain,
		"max_gain":    maxGain,
		"samples":     len(result.Curve),
		"hops":        hops,
	}
}
