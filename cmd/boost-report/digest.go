package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"

	"github.com/urfave/cli/v3"
)

var errDigestArgs = errors.New("expected exactly one argument: path to report.jsonl")

func digestCommand() *cli.Command {
	return &cli.Command{
		Name:      "digest",
		Usage:     "Produce a summary digest from a boostbench JSONL report",
		ArgsUsage: "<report.jsonl>",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "issue",
				Usage: "Show files affected by a specific check (e.g., clipping, intelligibility)",
			},
		},
		Action: func(_ context.Context, cmd *cli.Command) error {
			if cmd.NArg() != 1 {
				return errDigestArgs
			}

			return runDigest(cmd.Args().First(), cmd.String("issue"))
		},
	}
}

func runDigest(reportPath, issueFilter string) error {
	records, rawLines, err := readRecordsWithRaw(reportPath)
	if err != nil {
		return err
	}

	printDigest(os.Stdout, records)

	if issueFilter != "" {
		printIssueDetail(os.Stdout, records, rawLines, issueFilter)
	}

	return nil
}

func readRecordsWithRaw(path string) ([]digestRecord, [][]byte, error) {
	file, err := os.Open(path) //nolint:gosec // CLI tool opens user-specified report files
	if err != nil {
		return nil, nil, fmt.Errorf("opening report: %w", err)
	}
	defer file.Close()

	var (
		records []digestRecord
		lines   [][]byte
	)

	scanner := bufio.NewScanner(file)

	const maxLineSize = 1024 * 1024 // 1MB
	scanner.Buffer(make([]byte, 0, maxLineSize), maxLineSize)

	for scanner.Scan() {
		line := make([]byte, len(scanner.Bytes()))
		copy(line, scanner.Bytes())
		lines = append(lines, line)

		var rec digestRecord
		if err := json.Unmarshal(line, &rec); err != nil {
			records = append(records, digestRecord{Error: "parse error"})

			continue
		}

		records = append(records, rec)
	}

	if err := scanner.Err(); err != nil {
		return nil, nil, fmt.Errorf("reading report: %w", err)
	}

	return records, lines, nil
}

func printDigest(out io.Writer, records []digestRecord) {
	total := len(records)
	failures := 0
	sevDist := map[string]int{"severe": 0, "moderate": 0, "mild": 0, "clean": 0}
	issueDist := map[int]int{}
	checkStats := map[string]*checkBreakdown{}
	totals := &metricTotals{}

	for _, rec := range records {
		if rec.Error != "" || rec.Analysis == nil {
			failures++

			continue
		}

		if rec.Metrics != nil {
			totals.add(rec.Metrics)
		}

		// Worst severity.
		worst := rec.Analysis.Summary.WorstSeverity
		if worst == "" || worst == "no issue" {
			sevDist["clean"]++
		} else {
			sevDist[worst]++
		}

		// Issue count.
		issueDist[rec.Analysis.Summary.IssueCount]++

		// Per-check breakdown.
		for _, issue := range rec.Analysis.Issues {
			if !issue.Detected {
				continue
			}

			breakdown, ok := checkStats[issue.Check]
			if !ok {
				breakdown = &checkBreakdown{Check: issue.Check}
				checkStats[issue.Check] = breakdown
			}

			breakdown.Total++

			switch issue.Severity {
			case "severe":
				breakdown.Severe++
			case "moderate":
				breakdown.Moderate++
			case "mild":
				breakdown.Mild++
			}
		}
	}

	measured := total - failures

	fmt.Fprintln(out, "=== Boostbench Report Digest ===")
	fmt.Fprintln(out)
	fmt.Fprintf(out, "Total files:   %d\n", total)
	fmt.Fprintf(out, "Failed:        %d\n", failures)
	fmt.Fprintf(out, "Measured:      %d\n", measured)
	fmt.Fprintln(out)

	fmt.Fprintln(out, "--- Worst Severity ---")
	fmt.Fprintf(out, "  Clean:     %d\n", sevDist["clean"])
	fmt.Fprintf(out, "  Mild:      %d\n", sevDist["mild"])
	fmt.Fprintf(out, "  Moderate:  %d\n", sevDist["moderate"])
	fmt.Fprintf(out, "  Severe:    %d\n", sevDist["severe"])
	fmt.Fprintln(out)

	fmt.Fprintln(out, "--- Issues Per File ---")

	maxIssues := 0
	for k := range issueDist {
		maxIssues = max(maxIssues, k)
	}

	for i := range maxIssues + 1 {
		if count, ok := issueDist[i]; ok && count > 0 {
			fmt.Fprintf(out, "  %d issues:  %d files\n", i, count)
		}
	}

	fmt.Fprintln(out)

	fmt.Fprintln(out, "--- Issues By Check ---")

	breakdowns := make([]*checkBreakdown, 0, len(checkStats))
	for _, bd := range checkStats {
		breakdowns = append(breakdowns, bd)
	}

	slices.SortFunc(breakdowns, func(a, b *checkBreakdown) int {
		if a.Total != b.Total {
			return b.Total - a.Total
		}

		if a.Check < b.Check {
			return -1
		}

		return 1
	})

	for _, bd := range breakdowns {
		fmt.Fprintf(out, "  %s\n", bd.Check)
		fmt.Fprintf(out, "    total: %d  severe: %d  moderate: %d  mild: %d\n", bd.Total, bd.Severe, bd.Moderate, bd.Mild)
	}

	if totals.count == 0 {
		return
	}

	mean := totals.mean()

	fmt.Fprintln(out)
	fmt.Fprintln(out, "--- Averages ---")
	fmt.Fprintf(out, "  LUFS:              %.2f (error %+.2f LU)\n", mean.LUFS, mean.LUFSError)
	fmt.Fprintf(out, "  STOI:              %.3f\n", mean.STOI)
	fmt.Fprintf(out, "  Clipping:          %.3f%%\n", mean.ClippingPercent)
	fmt.Fprintf(out, "  Latency:           %.1f ms\n", mean.LatencyMs)
	fmt.Fprintf(out, "  dLUFS/s variance:  %.2f dB²\n", mean.DLUFSSecVariance)
	fmt.Fprintf(out, "  Processing:        %.4f s per second of audio\n", mean.ProcessingTimePerSec)
}

//nolint:gochecknoglobals
var checkKeyMap = map[string]string{
	"loudness":        "loudness",
	"clipping":        "clipping",
	"intelligibility": "intelligibility",
	"latency":         "latency",
	"stability":       "stability",
	"truepeak":        "true_peak",
}

type issueEntry struct {
	file       string
	severity   string
	summary    string
	confidence float64
	detail     map[string]any
}

func printIssueDetail(out io.Writer, records []digestRecord, rawLines [][]byte, check string) {
	fmt.Fprintln(out)

	var entries []issueEntry

	detailKey := checkKeyMap[check]

	for idx, rec := range records {
		if rec.Error != "" || rec.Analysis == nil {
			continue
		}

		for _, issue := range rec.Analysis.Issues {
			if !issue.Detected || issue.Check != check {
				continue
			}

			entry := issueEntry{
				file:       rec.File,
				severity:   issue.Severity,
				summary:    issue.Summary,
				confidence: issue.Confidence,
			}

			if entry.file == "" {
				entry.file = "(redacted)"
			}

			// Extract detail from raw JSONL line.
			if detailKey != "" && idx < len(rawLines) {
				entry.detail = extractDetailFromRaw(rawLines[idx], detailKey)
			}

			entries = append(entries, entry)
		}
	}

	if len(entries) == 0 {
		fmt.Fprintf(out, "No files affected by %s\n", check)

		return
	}

	slices.SortStableFunc(entries, func(a, b issueEntry) int {
		return severityRank(a.severity) - severityRank(b.severity)
	})

	fmt.Fprintf(out, "=== %s: %d files ===\n\n", check, len(entries))

	for _, entry := range entries {
		fmt.Fprintf(out, "  %s\n", entry.file)
		fmt.Fprintf(out, "    severity: %s  confidence: %.0f%%\n", entry.severity, entry.confidence*100)
		fmt.Fprintf(out, "    %s\n", entry.summary)

		keys := make([]string, 0, len(entry.detail))
		for key := range entry.detail {
			keys = append(keys, key)
		}

		slices.Sort(keys)

		for _, key := range keys {
			fmt.Fprintf(out, "    %s: %s\n", key, formatDetailValue(entry.detail[key]))
		}

		fmt.Fprintln(out)
	}
}

func extractDetailFromRaw(rawLine []byte, key string) map[string]any {
	var full struct {
		Analysis map[string]any `json:"analysis"`
	}

	if err := json.Unmarshal(rawLine, &full); err != nil {
		return nil
	}

	if full.Analysis == nil {
		return nil
	}

	if detail, ok := full.Analysis[key].(map[string]any); ok {
		return detail
	}

	return nil
}

func severityRank(severity string) int {
	switch severity {
	case "severe":
		return 0
	case "moderate":
		return 1
	case "mild":
		return 2
	default:
		return 3
	}
}

func formatDetailValue(value any) string {
	switch val := value.(type) {
	case []any:
		return fmt.Sprintf("%d entries", len(val))
	case string:
		return val
	default:
		return fmt.Sprintf("%v", value)
	}
}
