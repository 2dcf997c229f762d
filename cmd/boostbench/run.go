//nolint:wrapcheck
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/urfave/cli/v3"

	"github.com/farcloser/boostbench"
)

var errRunArgs = errors.New("run takes no arguments")

func runCommand() *cli.Command {
	return &cli.Command{
		Name:  "run",
		Usage: "Synthesize speech if needed, process it, measure it and write metrics.json",
		Flags: append(processorFlags(),
			&cli.StringFlag{
				Name:    "audio-dir",
				Aliases: []string{"d"},
				Usage:   "Directory holding clean.wav and processed.wav (default: $BOOSTBENCH_AUDIO_DIR or audio)",
			},
			&cli.StringFlag{
				Name:  "text",
				Usage: "Text to synthesize when clean.wav is missing (default: $BOOSTBENCH_TEXT)",
			},
			&cli.IntFlag{
				Name:    "sample-rate",
				Aliases: []string{"s"},
				Usage:   "Sample rate of the synthesized clip in Hz (default: $BOOSTBENCH_SAMPLE_RATE or 16000)",
			},
			&cli.StringFlag{
				Name:    "out",
				Aliases: []string{"o"},
				Usage:   "Metrics file",
				Value:   "metrics.json",
			},
			targetFlag(),
			meterFlag(),
			checksFlag(),
			formatFlag(),
			debugFlag(),
		),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if cmd.NArg() != 0 {
				return fmt.Errorf("%w: got %d", errRunArgs, cmd.NArg())
			}

			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			opts, err := buildOptions(cmd, cfg)
			if err != nil {
				return err
			}

			processor, err := boostbench.ParseProcessor(cmd.String("processor"))
			if err != nil {
				return err
			}

			plan := boostbench.Plan{
				AudioDir:    cfg.AudioDir,
				Text:        cfg.Text,
				SampleRate:  cfg.SampleRate,
				Processor:   processor,
				FilterChain: filterChain(cmd, cfg),
				Options:     opts,
			}

			if cmd.IsSet("audio-dir") {
				plan.AudioDir = cmd.String("audio-dir")
			}

			if cmd.IsSet("text") {
				plan.Text = cmd.String("text")
			}

			if cmd.IsSet("sample-rate") {
				plan.SampleRate = cmd.Int("sample-rate")
			}

			result, err := boostbench.Run(ctx, plan)
			if err != nil {
				return fmt.Errorf("benchmark failed: %w", err)
			}

			if result.Synthesized {
				slog.Info("synthesized clean speech", "path", result.CleanPath)
			}

			if err = writeJSON(cmd.String("out"), result.Metrics); err != nil {
				return err
			}

			return outputResult(result.ProcessedPath, result.Result, cmd.String("format"), cmd.Bool("debug"))
		},
	}
}
