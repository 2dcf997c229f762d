//nolint:wrapcheck
package main

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/urfave/cli/v3"

	"github.com/farcloser/boostbench"
	"github.com/farcloser/boostbench/internal/audio"
	"github.com/farcloser/boostbench/internal/output"
	"github.com/farcloser/boostbench/internal/types"
)

var (
	errSynthArgs    = errors.New("expected at most one argument: output path")
	errProcessArgs  = errors.New("expected exactly two arguments: input and output paths")
	errSimulateArgs = errors.New("expected exactly one argument: input path")
)

func synthCommand() *cli.Command {
	return &cli.Command{
		Name:      "synth",
		Usage:     "Synthesize the clean speech clip with the system voice",
		ArgsUsage: "[output.wav]",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "text",
				Usage: "Text to speak (default: $BOOSTBENCH_TEXT)",
			},
			&cli.IntFlag{
				Name:    "sample-rate",
				Aliases: []string{"s"},
				Usage:   "Output sample rate in Hz (default: $BOOSTBENCH_SAMPLE_RATE or 16000)",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if cmd.NArg() > 1 {
				return fmt.Errorf("%w: got %d", errSynthArgs, cmd.NArg())
			}

			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			target := cmd.Args().First()
			if target == "" {
				target = filepath.Join(cfg.AudioDir, "clean.wav")
			}

			text := cfg.Text
			if cmd.IsSet("text") {
				text = cmd.String("text")
			}

			sampleRate := cfg.SampleRate
			if cmd.IsSet("sample-rate") {
				sampleRate = cmd.Int("sample-rate")
			}

			if err = boostbench.Synthesize(ctx, text, target, sampleRate); err != nil {
				return fmt.Errorf("synthesis failed: %w", err)
			}

			fmt.Println(target)

			return nil
		},
	}
}

func processCommand() *cli.Command {
	return &cli.Command{
		Name:      "process",
		Usage:     "Render a file through a processor and report the processing time",
		ArgsUsage: "<input> <output.wav>",
		Flags: append(processorFlags(),
			targetFlag(),
			formatFlag(),
		),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if cmd.NArg() != 2 {
				return fmt.Errorf("%w: got %d", errProcessArgs, cmd.NArg())
			}

			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			processor, err := boostbench.ParseProcessor(cmd.String("processor"))
			if err != nil {
				return err
			}

			input, target := cmd.Args().Get(0), cmd.Args().Get(1)

			elapsed, err := boostbench.Process(ctx, processor, filterChain(cmd, cfg), input, target, targetLUFS(cmd, cfg))
			if err != nil {
				return fmt.Errorf("processing failed: %w", err)
			}

			return printMeta(target, map[string]any{
				"processor":           processor.String(),
				"input":               input,
				"processing_time_sec": elapsed.Seconds(),
			}, cmd.String("format"))
		},
	}
}

func simulateCommand() *cli.Command {
	return &cli.Command{
		Name:      "simulate",
		Usage:     "Trace the auto-gain control loop over a file, hop by hop",
		ArgsUsage: "<input>",
		Flags: []cli.Flag{
			targetFlag(),
			&cli.StringFlag{
				Name:    "out",
				Aliases: []string{"o"},
				Usage:   "Also write the gain-applied signal to this WAV file",
			},
			formatFlag(),
			debugFlag(),
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if cmd.NArg() != 1 {
				return fmt.Errorf("%w: got %d", errSimulateArgs, cmd.NArg())
			}

			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			input := cmd.Args().First()

			signal, err := audio.Load(ctx, input)
			if err != nil {
				return err
			}

			trace, err := boostbench.Simulate(signal, targetLUFS(cmd, cfg))
			if err != nil {
				return fmt.Errorf("simulation failed: %w", err)
			}

			if target := cmd.String("out"); target != "" {
				if err = audio.WriteWAV(target, audio.ApplyGain(signal, trace.Curve), types.Depth16); err != nil {
					return err
				}
			}

			meta := output.TraceToMap(trace, signal.SampleRate)
			if !cmd.Bool("debug") {
				delete(meta, "hops")
			}

			return printMeta(input, meta, cmd.String("format"))
		},
	}
}
