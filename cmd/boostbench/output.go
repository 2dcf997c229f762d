//nolint:wrapcheck
package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/farcloser/primordium/format"

	"github.com/farcloser/boostbench"
	"github.com/farcloser/boostbench/internal/output"
)

// checkCategory groups checks for the friendly output.
//
//nolint:gochecknoglobals // configuration data, effectively const
var checkCategory = map[boostbench.Check]string{
	boostbench.CheckLoudness:  "1. Loudness",
	boostbench.CheckStability: "1. Loudness",

	boostbench.CheckClipping: "2. Headroom",
	boostbench.CheckTruePeak: "2. Headroom",

	boostbench.CheckIntelligibility: "3. Transparency",
	boostbench.CheckLatency:         "3. Transparency",
}

// categoryOrder defines the display order for categories (numbered for sorting).
//
//nolint:gochecknoglobals // configuration data, effectively const
var categoryOrder = []string{
	"1. Loudness",
	"2. Headroom",
	"3. Transparency",
}

func printMeta(object string, meta map[string]any, formatName string) error {
	formatter, err := format.GetFormatter(formatName)
	if err != nil {
		return err
	}

	return formatter.PrintAll([]*format.Data{{Object: object, Meta: meta}}, os.Stdout)
}

func outputResult(filePath string, result *boostbench.Result, formatName string, debug bool) error {
	var meta map[string]any
	if debug {
		meta = output.ResultToMap(result)
	} else {
		meta = buildFriendlyOutput(result)
	}

	return printMeta(filePath, meta, formatName)
}

// buildFriendlyOutput creates a user-friendly summary of the measurement.
func buildFriendlyOutput(result *boostbench.Result) map[string]any {
	meta := map[string]any{
		"summary": fmt.Sprintf("%d issues found (worst: %s)", result.IssueCount, result.WorstSeverity),
	}

	// Group issues by category.
	categoryIssues := make(map[string][]any)

	for _, issue := range result.Issues {
		category, ok := checkCategory[issue.Check]
		if !ok {
			continue
		}

		marker := "  "
		if issue.Detected {
			marker = "!!"
		}

		line := fmt.Sprintf("%s [%s] %s: %s (%.0f%% confidence)",
			marker, issue.Severity, issue.Check, issue.Summary, issue.Confidence*100)

		categoryIssues[category] = append(categoryIssues[category], line)
	}

	if len(categoryIssues) > 0 {
		issues := make(map[string]any)

		for _, cat := range categoryOrder {
			if catIssues, ok := categoryIssues[cat]; ok {
				issues[cat] = catIssues
			}
		}

		meta["issues"] = issues
	}

	meta["metrics"] = buildProperties(result)

	return meta
}

func buildProperties(result *boostbench.Result) map[string]any {
	metrics := result.Metrics
	props := map[string]any{
		"loudness":     fmt.Sprintf("%.1f LUFS (error: %+.1f LU)", metrics.LUFS, metrics.LUFSError),
		"stability":    fmt.Sprintf("%.2f dB² variance", metrics.DLUFSSecVariance),
		"stoi":         fmt.Sprintf("%.3f", metrics.STOI),
		"clipping":     fmt.Sprintf("%.3f%%", metrics.ClippingPercent),
		"latency":      fmt.Sprintf("%.1f ms", metrics.LatencyMs),
		"duration":     fmt.Sprintf("%.2f s", metrics.DurationSec),
		"sample_rate":  fmt.Sprintf("%d Hz", result.SampleRate),
		"aligned_size": fmt.Sprintf("%d samples", result.Samples),
	}

	if r := result.TruePeak; r != nil {
		props["true_peak"] = fmt.Sprintf("%.1f dBTP", r.TruePeakDb)
	}

	if r := result.Loudness; r != nil {
		props["loudness_range"] = fmt.Sprintf("%.1f LU", r.LoudnessRange)
	}

	if metrics.ProcessingTimeSec > 0 {
		props["processing_time"] = fmt.Sprintf(
			"%.3f s (%.4f s per second of audio)",
			metrics.ProcessingTimeSec,
			metrics.ProcessingTimePerSec,
		)
	}

	return props
}

// writeJSON writes value as indented JSON, the layout of metrics.json.
func writeJSON(path string, value any) error {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding %s: %w", path, err)
	}

	if err = os.WriteFile(path, append(data, '\n'), 0o644); err != nil { //nolint:gosec // report file, world-readable
		return fmt.Errorf("writing %s: %w", path, err)
	}

	return nil
}
