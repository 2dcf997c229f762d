//nolint:wrapcheck
package main

import (
	"compress/gzip"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync/atomic"
	"time"

	"github.com/urfave/cli/v3"
	"golang.org/x/sync/errgroup"

	"github.com/farcloser/boostbench"
	"github.com/farcloser/boostbench/internal/config"
	"github.com/farcloser/boostbench/internal/output"
)

const outputFile = "boostbench-report.jsonl"

var (
	errNotDirectory = errors.New("not a directory")
	errNoAudioFiles = errors.New("no .wav, .flac or .m4a files found")
	errReportArgs   = errors.New("expected exactly one argument: folder path")
)

// reportPlan carries the settings shared by every file of a report.
type reportPlan struct {
	processor   boostbench.Processor
	filterChain string
	options     boostbench.Options
	workDir     string
	output      string
	redact      bool
	workers     int
}

func reportCommand() *cli.Command {
	return &cli.Command{
		Name:      "report",
		Usage:     "Process and measure every recording in a folder and write a JSONL report",
		ArgsUsage: "<folder>",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "env-file",
				Aliases: []string{"e"},
				Usage:   "Load BOOSTBENCH_* defaults from this file (default: .env when present)",
			},
			&cli.StringFlag{
				Name:    "processor",
				Aliases: []string{"p"},
				Usage:   "Processing to benchmark: filter-chain, autogain",
				Value:   boostbench.ProcessorFilterChain.String(),
			},
			&cli.FloatFlag{
				Name:    "target-lufs",
				Aliases: []string{"t"},
				Usage:   "Target loudness in LUFS (default: $BOOSTBENCH_TARGET_LUFS or -18)",
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Report file",
				Value:   outputFile,
			},
			&cli.StringFlag{
				Name:  "processed-dir",
				Usage: "Keep processed files in this directory (default: a temporary directory, removed afterwards)",
			},
			&cli.BoolFlag{
				Name:  "redact-path",
				Usage: "Strip file paths from the report",
			},
			&cli.IntFlag{
				Name:    "workers",
				Aliases: []string{"j"},
				Usage:   "Number of concurrent workers (default: $BOOSTBENCH_WORKERS or one per CPU)",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if cmd.NArg() != 1 {
				return errReportArgs
			}

			cfg, err := config.Load(cmd.String("env-file"))
			if err != nil {
				return err
			}

			processor, err := boostbench.ParseProcessor(cmd.String("processor"))
			if err != nil {
				return err
			}

			meter, err := boostbench.ParseMeter(cfg.Meter)
			if err != nil {
				return err
			}

			plan := reportPlan{
				processor:   processor,
				filterChain: cfg.FilterChain,
				options:     boostbench.DefaultOptions(),
				output:      cmd.String("output"),
				redact:      cmd.Bool("redact-path"),
				workers:     cfg.Workers,
			}

			plan.options.Meter = meter
			plan.options.TargetLUFS = cfg.TargetLUFS

			if cmd.IsSet("target-lufs") {
				plan.options.TargetLUFS = cmd.Float("target-lufs")
			}

			if cmd.IsSet("workers") {
				plan.workers = cmd.Int("workers")
			}

			plan.workers = max(plan.workers, 1)

			plan.workDir = cmd.String("processed-dir")
			if plan.workDir == "" {
				if plan.workDir, err = os.MkdirTemp("", "boostbench-report-"); err != nil {
					return fmt.Errorf("creating work directory: %w", err)
				}

				defer os.RemoveAll(plan.workDir)
			} else if err = os.MkdirAll(plan.workDir, 0o755); err != nil {
				return fmt.Errorf("creating %s: %w", plan.workDir, err)
			}

			return runReport(ctx, cmd.Args().First(), plan)
		},
	}
}

func runReport(ctx context.Context, folder string, plan reportPlan) error {
	info, err := os.Stat(folder)
	if err != nil || !info.IsDir() {
		return fmt.Errorf("%q: %w", folder, errNotDirectory)
	}

	// Collect audio files.
	files, err := collectAudioFiles(folder)
	if err != nil {
		return fmt.Errorf("scanning folder: %w", err)
	}

	if len(files) == 0 {
		return fmt.Errorf("%q: %w", folder, errNoAudioFiles)
	}

	fmt.Fprintf(os.Stderr, "Found %d files to benchmark with %s (%d workers)\n", len(files), plan.processor, plan.workers)

	// Process files concurrently. Each file is an independent run.
	startTime := time.Now()
	results := make([]Record, len(files))

	var progress atomic.Int64

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(plan.workers)

	for idx, filePath := range files {
		group.Go(func() error {
			if err := groupCtx.Err(); err != nil {
				return err
			}

			processed := filepath.Join(plan.workDir, fmt.Sprintf("%05d.wav", idx))
			results[idx] = processFile(groupCtx, filePath, processed, plan)

			done := progress.Add(1)
			fmt.Fprintf(os.Stderr, "[%d/%d] %s\n", done, len(files), filePath)

			return nil
		})
	}

	if err = group.Wait(); err != nil {
		return fmt.Errorf("report interrupted: %w", err)
	}

	// A file cancelled mid-run is recorded as failed, so the report would otherwise look complete.
	if err = ctx.Err(); err != nil {
		return fmt.Errorf("report interrupted: %w", err)
	}

	// Write results in file order.
	out, err := os.Create(plan.output)
	if err != nil {
		return fmt.Errorf("creating output file: %w", err)
	}
	defer out.Close()

	enc := json.NewEncoder(out)
	failed := 0

	var totalProcess, totalMeasure time.Duration

	for idx := range results {
		record := &results[idx]

		if record.Error != "" {
			failed++
		}

		if record.Timing != nil {
			totalProcess += millisToDuration(record.Timing.ProcessMs)
			totalMeasure += millisToDuration(record.Timing.MeasureMs)
		}

		if plan.redact {
			record.File = ""
		}

		if err := enc.Encode(record); err != nil {
			slog.Error("writing record", "file", files[idx], "error", err)
		}
	}

	out.Close()

	// Compress.
	if err := compressFile(plan.output); err != nil {
		slog.Error("compressing report", "error", err)
	}

	elapsed := time.Since(startTime)
	minutes := int(elapsed.Minutes())
	seconds := int(elapsed.Seconds()) % 60

	fmt.Fprintf(os.Stderr, "\nDone: %d files in %dm %ds (%d failed)\n", len(files), minutes, seconds, failed)
	fmt.Fprintf(os.Stderr, "Report written to %s (and %s.gz)\n", plan.output, plan.output)

	// Timing breakdown.
	measured := len(files) - failed
	fmt.Fprintf(os.Stderr, "\n--- Timing ---\n")
	fmt.Fprintf(os.Stderr, "  Wall clock:  %s\n", elapsed.Truncate(time.Millisecond))
	fmt.Fprintf(os.Stderr, "  processing:  %s (cumulative)\n", totalProcess.Truncate(time.Millisecond))
	fmt.Fprintf(os.Stderr, "  measuring:   %s (cumulative)\n", totalMeasure.Truncate(time.Millisecond))

	if measured > 0 {
		fmt.Fprintf(os.Stderr, "  avg/file:    %s (process: %s, measure: %s)\n",
			(totalProcess+totalMeasure)/time.Duration(measured),
			totalProcess/time.Duration(measured),
			totalMeasure/time.Duration(measured),
		)
	}

	// Print digest summary.
	fmt.Fprintln(os.Stderr)

	return runDigest(plan.output, "")
}

func processFile(ctx context.Context, filePath, processed string, plan reportPlan) Record {
	fileStart := time.Now()
	timing := &RecordTiming{}
	record := Record{File: filePath, Processor: plan.processor.String(), Timing: timing}

	elapsed, err := boostbench.Process(
		ctx,
		plan.processor,
		plan.filterChain,
		filePath,
		processed,
		plan.options.TargetLUFS,
	)

	timing.ProcessMs = durationMs(elapsed)

	if err != nil {
		record.Error = fmt.Sprintf("processing failed: %v", err)

		return record
	}

	measureStart := time.Now()

	result, err := boostbench.Measure(ctx, filePath, processed, plan.options)

	timing.MeasureMs = durationMs(time.Since(measureStart))
	timing.TotalMs = durationMs(time.Since(fileStart))

	if err != nil {
		record.Error = fmt.Sprintf("measurement failed: %v", err)

		return record
	}

	result.Metrics.SetProcessingTime(elapsed.Seconds())

	record.Metrics = &result.Metrics
	record.Analysis = output.ResultToMap(result)

	return record
}

func durationMs(d time.Duration) float64 {
	return float64(d.Microseconds()) / 1000.0
}

func millisToDuration(ms float64) time.Duration {
	return time.Duration(ms * float64(time.Millisecond))
}

func collectAudioFiles(root string) ([]string, error) {
	var files []string

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if d.IsDir() {
			return nil
		}

		switch strings.ToLower(filepath.Ext(path)) {
		case ".wav", ".flac", ".m4a":
			files = append(files, path)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	slices.Sort(files)

	return files, nil
}

func compressFile(path string) error {
	data, err := os.ReadFile(path) //nolint:gosec // reading our own output file
	if err != nil {
		return err
	}

	gzFile, err := os.Create(path + ".gz")
	if err != nil {
		return err
	}
	defer gzFile.Close()

	gzWriter := gzip.NewWriter(gzFile)

	if _, err := gzWriter.Write(data); err != nil {
		return err
	}

	return gzWriter.Close()
}
