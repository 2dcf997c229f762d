// Package boostbench benchmarks speech volume-booster processing offline.
//
// A clean speech clip is run through a processor (an ffmpeg filter chain, or a simulation of the booster's
// auto-gain control loop) and the output is scored against the clean clip:
//
//	result, err := boostbench.Measure(ctx, "clean.wav", "processed.wav", boostbench.DefaultOptions())
//	fmt.Println(result.Metrics.LUFSError, result.Metrics.STOI)
//
//	for _, issue := range result.Issues {
//	    if issue.Detected {
//	        fmt.Printf("[%s] %s\n", issue.Severity, issue.Summary)
//	    }
//	}
package boostbench

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/farcloser/boostbench/internal/audio"
	"github.com/farcloser/boostbench/internal/audit/clipping"
	"github.com/farcloser/boostbench/internal/audit/intelligibility"
	"github.com/farcloser/boostbench/internal/audit/latency"
	"github.com/farcloser/boostbench/internal/audit/loudness"
	"github.com/farcloser/boostbench/internal/audit/stability"
	"github.com/farcloser/boostbench/internal/audit/truepeak"
	"github.com/farcloser/boostbench/internal/types"
)

var (
	// ErrSampleRateMismatch is returned when the clean and processed signals differ in sample rate.
	ErrSampleRateMismatch = errors.New("sample rate mismatch")
	// ErrInvalidOption is returned for unknown processor, meter or label values.
	ErrInvalidOption = errors.New("invalid option")
)

// Metrics are the benchmark numbers, serialized with the historical metrics.json keys.
type Metrics struct {
	LUFS                 float64 `json:"lufs"`
	LUFSError            float64 `json:"lufs_error"`
	DLUFSSecVariance     float64 `json:"dlufs_sec_variance"`
	STOI                 float64 `json:"stoi"`
	ClippingPercent      float64 `json:"clipping_percent"`
	LatencyMs            float64 `json:"latency_ms"`
	DurationSec          float64 `json:"duration_sec"`
	ProcessingTimeSec    float64 `json:"processing_time_sec,omitempty"`
	ProcessingTimePerSec float64 `json:"processing_time_per_sec,omitempty"`
}

// SetProcessingTime records how long processing took, also relative to the audio duration.
func (m *Metrics) SetProcessingTime(seconds float64) {
	m.ProcessingTimeSec = seconds
	m.ProcessingTimePerSec = seconds / math.Max(m.DurationSec, 1e-6)
}

// Result contains the metrics of one processed file and their interpretation.
type Result struct {
	Metrics Metrics

	// High-level issues
	Issues []Issue

	// Summary
	IssueCount    int
	WorstSeverity Severity

	SampleRate int
	Samples    int // aligned length

	// Raw analysis results (for inspection)
	Clipping        *types.ClippingDetection
	Intelligibility *types.IntelligibilityResult
	Latency         *types.LatencyResult
	Stability       *types.StabilityResult
	TruePeak        *types.TruePeakResult
	Loudness        *types.LoudnessResult // in-process meter, always computed
}

// Measure scores processedPath against cleanPath. Both files are downmixed to mono and trimmed to the shorter
// length; they must share a sample rate. Integrated loudness comes from opts.Meter on the processed file as
// written (untrimmed), except for InternalMeter which reuses the aligned signal.
func Measure(ctx context.Context, cleanPath, processedPath string, opts Options) (*Result, error) {
	applyDefaults(&opts)

	clean, err := audio.Load(ctx, cleanPath)
	if err != nil {
		return nil, err
	}

	processed, err := audio.Load(ctx, processedPath)
	if err != nil {
		return nil, err
	}

	result, err := Evaluate(clean, processed, opts)
	if err != nil {
		return nil, fmt.Errorf("%s vs %s: %w", processedPath, cleanPath, err)
	}

	if _, inProcess := opts.Meter.(InternalMeter); !inProcess {
		lufs, err := opts.Meter.IntegratedLoudness(ctx, processedPath)
		if err != nil {
			return nil, err
		}

		result.Metrics.LUFS = lufs
		result.Metrics.LUFSError = lufs - opts.TargetLUFS

		interpret(result, opts)
	}

	return result, nil
}

// Evaluate scores in-memory signals. Loudness comes from the in-process meter over the aligned processed
// signal.
func Evaluate(clean, processed types.Signal, opts Options) (*Result, error) {
	applyDefaults(&opts)

	if clean.SampleRate != processed.SampleRate {
		return nil, fmt.Errorf("%w: %d Hz vs %d Hz", ErrSampleRateMismatch, clean.SampleRate, processed.SampleRate)
	}

	clean, processed = audio.Trim(clean, processed)
	sampleRate := processed.SampleRate

	result := &Result{
		SampleRate: sampleRate,
		Samples:    len(processed.Samples),
		Clipping:   clipping.Detect(processed.Samples),
		TruePeak:   truepeak.Detect(processed.Samples),
	}

	var err error

	if result.Intelligibility, err = intelligibility.Analyze(clean.Samples, processed.Samples, sampleRate); err != nil {
		return nil, err
	}

	if len(processed.Samples) > 0 {
		if result.Latency, err = latency.Estimate(clean.Samples, processed.Samples, sampleRate); err != nil {
			return nil, err
		}
	} else {
		result.Latency = &types.LatencyResult{}
	}

	if result.Stability, err = stability.Analyze(processed.Samples, sampleRate); err != nil {
		return nil, err
	}

	if result.Loudness, err = loudness.Analyze(processed.Samples, sampleRate); err != nil {
		return nil, err
	}

	result.Metrics = Metrics{
		LUFS:             result.Loudness.IntegratedLUFS,
		LUFSError:        result.Loudness.IntegratedLUFS - opts.TargetLUFS,
		DLUFSSecVariance: result.Stability.Variance,
		STOI:             result.Intelligibility.Score,
		ClippingPercent:  result.Clipping.Percent,
		LatencyMs:        result.Latency.LatencyMs,
		DurationSec:      processed.Duration(),
	}

	interpret(result, opts)

	return result, nil
}

// interpret rebuilds the issues from the current metrics.
func interpret(result *Result, opts Options) {
	result.Issues = result.Issues[:0]
	result.IssueCount = 0
	result.WorstSeverity = SeverityNone

	metrics := result.Metrics

	// Loudness
	if opts.Checks&CheckLoudness != 0 {
		severity, detected := opts.Loudness.Match(math.Abs(metrics.LUFSError))

		var summary string

		switch {
		case !detected:
			summary = fmt.Sprintf("On target (%.1f LUFS)", metrics.LUFS)
		case metrics.LUFSError > 0:
			summary = fmt.Sprintf("%.1f LU above target (%.1f LUFS)", metrics.LUFSError, metrics.LUFS)
		default:
			summary = fmt.Sprintf("%.1f LU below target (%.1f LUFS)", -metrics.LUFSError, metrics.LUFS)
		}

		record(result, Issue{
			Check:      CheckLoudness,
			Detected:   detected,
			Severity:   severity,
			Summary:    summary,
			Confidence: 1.0,
		})
	}

	// Clipping
	if opts.Checks&CheckClipping != 0 && result.Clipping != nil {
		severity, detected := opts.Clipping.Match(metrics.ClippingPercent)

		var summary string

		switch severity {
		case SeverityNone:
			summary = "No clipping"
		case SeverityMild, SeverityModerate:
			summary = fmt.Sprintf("%.3f%% of samples clipped", metrics.ClippingPercent)
		case SeveritySevere:
			summary = fmt.Sprintf(
				"%.2f%% of samples clipped, %d runs, longest %d samples",
				metrics.ClippingPercent,
				result.Clipping.Events,
				result.Clipping.LongestRun,
			)
		}

		record(result, Issue{
			Check:      CheckClipping,
			Detected:   detected,
			Severity:   severity,
			Summary:    summary,
			Confidence: 1.0,
		})
	}

	// Intelligibility
	if opts.Checks&CheckIntelligibility != 0 && result.Intelligibility != nil {
		issue := Issue{Check: CheckIntelligibility, Confidence: 0.9}

		if result.Intelligibility.Segments == 0 {
			issue.Summary = "Too little speech to score"
			issue.Confidence = 0
		} else {
			issue.Severity, issue.Detected = opts.Intelligibility.Match(metrics.STOI)

			switch issue.Severity {
			case SeverityNone:
				issue.Summary = fmt.Sprintf("Intelligibility preserved (STOI %.3f)", metrics.STOI)
			case SeverityMild:
				issue.Summary = fmt.Sprintf("Slight envelope smearing (STOI %.3f)", metrics.STOI)
			case SeverityModerate:
				issue.Summary = fmt.Sprintf("Audible pumping or distortion (STOI %.3f)", metrics.STOI)
			case SeveritySevere:
				issue.Summary = fmt.Sprintf("Speech envelope damaged (STOI %.3f)", metrics.STOI)
			}
		}

		record(result, issue)
	}

	// Latency
	if opts.Checks&CheckLatency != 0 && result.Latency != nil {
		severity, detected := opts.Latency.Match(math.Abs(metrics.LatencyMs))

		summary := fmt.Sprintf("%.1f ms latency", metrics.LatencyMs)
		if metrics.LatencyMs < 0 {
			summary = fmt.Sprintf("Output leads the input by %.1f ms", -metrics.LatencyMs)
		}

		record(result, Issue{
			Check:    CheckLatency,
			Detected: detected,
			Severity: severity,
			Summary:  summary,
			// Correlation peaks on heavily processed speech are less reliable.
			Confidence: math.Max(0, math.Min(1, result.Latency.Correlation)),
		})
	}

	// Stability
	if opts.Checks&CheckStability != 0 && result.Stability != nil {
		severity, detected := opts.Stability.Match(metrics.DLUFSSecVariance)

		var summary string

		switch {
		case len(result.Stability.BlockDb) < 2:
			summary = "Too short to measure stability"
		case !detected:
			summary = fmt.Sprintf("Stable level (%.2f dB² variance)", metrics.DLUFSSecVariance)
		default:
			summary = fmt.Sprintf("Level pumping (%.2f dB² variance)", metrics.DLUFSSecVariance)
		}

		record(result, Issue{
			Check:      CheckStability,
			Detected:   detected,
			Severity:   severity,
			Summary:    summary,
			Confidence: 0.8,
		})
	}

	// True peak
	if opts.Checks&CheckTruePeak != 0 && result.TruePeak != nil {
		peak := result.TruePeak
		severity, detected := opts.TruePeak.Match(peak.TruePeakDb)

		var summary string

		switch {
		case !detected:
			summary = fmt.Sprintf("Headroom kept (%.1f dBTP)", peak.TruePeakDb)
		case peak.ISPCount > 0:
			summary = fmt.Sprintf(
				"Peaks at %.1f dBTP, %d inter-sample overs (max +%.2f dB)",
				peak.TruePeakDb,
				peak.ISPCount,
				peak.ISPMaxDb,
			)
		default:
			summary = fmt.Sprintf("Peaks at %.1f dBTP, above the limiter ceiling", peak.TruePeakDb)
		}

		record(result, Issue{
			Check:      CheckTruePeak,
			Detected:   detected,
			Severity:   severity,
			Summary:    summary,
			Confidence: 0.95,
		})
	}
}

func record(result *Result, issue Issue) {
	result.Issues = append(result.Issues, issue)

	if issue.Detected {
		result.IssueCount++
	}

	if issue.Severity > result.WorstSeverity {
		result.WorstSeverity = issue.Severity
	}
}
