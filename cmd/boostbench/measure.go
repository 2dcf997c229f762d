//nolint:wrapcheck
package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/farcloser/boostbench"
	"github.com/farcloser/boostbench/internal/output"
)

var (
	errMeasureArgs     = errors.New("expected exactly two arguments: clean and processed paths")
	errCompareArgs     = errors.New("compare takes no arguments, use --a/--b or --candidate")
	errMissingClean    = errors.New("--clean is required")
	errCandidateFormat = errors.New("candidate must be label=path")
	errNoCandidates    = errors.New("at least one candidate is required")
)

func measureCommand() *cli.Command {
	return &cli.Command{
		Name:      "measure",
		Usage:     "Score a processed file against its clean reference",
		ArgsUsage: "<clean> <processed>",
		Flags: []cli.Flag{
			targetFlag(),
			meterFlag(),
			checksFlag(),
			formatFlag(),
			debugFlag(),
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if cmd.NArg() != 2 {
				return fmt.Errorf("%w: got %d", errMeasureArgs, cmd.NArg())
			}

			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			opts, err := buildOptions(cmd, cfg)
			if err != nil {
				return err
			}

			clean, processed := cmd.Args().Get(0), cmd.Args().Get(1)

			result, err := boostbench.Measure(ctx, clean, processed, opts)
			if err != nil {
				return fmt.Errorf("measurement failed: %w", err)
			}

			return outputResult(processed, result, cmd.String("format"), cmd.Bool("debug"))
		},
	}
}

func compareCommand() *cli.Command {
	return &cli.Command{
		Name:  "compare",
		Usage: "Measure several processed files against one clean reference (A/B report)",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "clean",
				Usage: "Clean reference file",
			},
			&cli.StringFlag{
				Name:  "a",
				Usage: "First processed file",
			},
			&cli.StringFlag{
				Name:  "b",
				Usage: "Second processed file",
			},
			&cli.StringFlag{
				Name:  "label-a",
				Usage: "Label of the first file",
				Value: "A",
			},
			&cli.StringFlag{
				Name:  "label-b",
				Usage: "Label of the second file",
				Value: "B",
			},
			&cli.StringSliceFlag{
				Name:  "candidate",
				Usage: "Additional processed file as label=path (repeatable)",
			},
			&cli.StringFlag{
				Name:    "out",
				Aliases: []string{"o"},
				Usage:   "Also write the report to this JSON file",
			},
			targetFlag(),
			meterFlag(),
			formatFlag(),
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if cmd.NArg() != 0 {
				return fmt.Errorf("%w: got %d", errCompareArgs, cmd.NArg())
			}

			clean := cmd.String("clean")
			if clean == "" {
				return errMissingClean
			}

			candidates, err := parseCandidates(cmd)
			if err != nil {
				return err
			}

			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			opts, err := buildOptions(cmd, cfg)
			if err != nil {
				return err
			}

			comparison, err := boostbench.Compare(ctx, clean, candidates, opts)
			if err != nil {
				return fmt.Errorf("comparison failed: %w", err)
			}

			if target := cmd.String("out"); target != "" {
				if err = writeJSON(target, comparison.Payload()); err != nil {
					return err
				}
			}

			meta := map[string]any{"target_lufs": comparison.TargetLUFS}
			for i, label := range comparison.Labels {
				meta[label] = output.MetricsToMap(comparison.Results[i].Metrics)
			}

			return printMeta(clean, meta, cmd.String("format"))
		},
	}
}

func parseCandidates(cmd *cli.Command) ([]boostbench.Candidate, error) {
	var candidates []boostbench.Candidate

	if path := cmd.String("a"); path != "" {
		candidates = append(candidates, boostbench.Candidate{Label: cmd.String("label-a"), Path: path})
	}

	if path := cmd.String("b"); path != "" {
		candidates = append(candidates, boostbench.Candidate{Label: cmd.String("label-b"), Path: path})
	}

	for _, raw := range cmd.StringSlice("candidate") {
		label, path, ok := strings.Cut(raw, "=")
		if !ok || label == "" || path == "" {
			return nil, fmt.Errorf("%w: %q", errCandidateFormat, raw)
		}

		candidates = append(candidates, boostbench.Candidate{Label: label, Path: path})
	}

	if len(candidates) == 0 {
		return nil, errNoCandidates
	}

	return candidates, nil
}
