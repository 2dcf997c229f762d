//nolint:wrapcheck
package main

import (
	"fmt"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/farcloser/boostbench"
	"github.com/farcloser/boostbench/internal/config"
)

func formatFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "format",
		Aliases: []string{"f"},
		Usage:   "Output format: console, json, markdown",
		Value:   "console",
	}
}

func debugFlag() cli.Flag {
	return &cli.BoolFlag{
		Name:    "debug",
		Aliases: []string{"D"},
		Usage:   "Include all raw analyzer data in output",
	}
}

func targetFlag() cli.Flag {
	return &cli.FloatFlag{
		Name:    "target-lufs",
		Aliases: []string{"t"},
		Usage:   "Target loudness in LUFS (default: $BOOSTBENCH_TARGET_LUFS or -18)",
	}
}

func meterFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "meter",
		Aliases: []string{"m"},
		Usage:   "Integrated loudness meter: ffmpeg, internal (default: $BOOSTBENCH_METER or ffmpeg)",
	}
}

func checksFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "checks",
		Aliases: []string{"C"},
		Usage:   "Comma-separated checks or presets: all, loudness, clipping, intelligibility, latency, stability, truepeak",
		Value:   "all",
	}
}

func processorFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "processor",
			Aliases: []string{"p"},
			Usage:   "Processing to benchmark: filter-chain, autogain",
			Value:   boostbench.ProcessorFilterChain.String(),
		},
		&cli.StringFlag{
			Name:  "filter-chain",
			Usage: "ffmpeg filter graph for the filter-chain processor (default: $BOOSTBENCH_FILTER_CHAIN or the built-in chain)",
		},
	}
}

func loadConfig(cmd *cli.Command) (*config.Config, error) {
	return config.Load(cmd.String("env-file"))
}

// targetLUFS returns the flag value when given, the configured default otherwise.
func targetLUFS(cmd *cli.Command, cfg *config.Config) float64 {
	if cmd.IsSet("target-lufs") {
		return cmd.Float("target-lufs")
	}

	return cfg.TargetLUFS
}

func filterChain(cmd *cli.Command, cfg *config.Config) string {
	if cmd.IsSet("filter-chain") {
		return cmd.String("filter-chain")
	}

	return cfg.FilterChain
}

func buildOptions(cmd *cli.Command, cfg *config.Config) (boostbench.Options, error) {
	opts := boostbench.DefaultOptions()
	opts.TargetLUFS = targetLUFS(cmd, cfg)

	meterName := cfg.Meter
	if cmd.IsSet("meter") {
		meterName = cmd.String("meter")
	}

	meter, err := boostbench.ParseMeter(meterName)
	if err != nil {
		return opts, err
	}

	opts.Meter = meter

	if opts.Checks, err = parseChecks(cmd.String("checks")); err != nil {
		return opts, err
	}

	return opts, nil
}

func parseChecks(raw string) (boostbench.Check, error) {
	var result boostbench.Check

	for name := range strings.SplitSeq(raw, ",") {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}

		if name == "all" {
			result |= boostbench.ChecksAll

			continue
		}

		check, ok := boostbench.ParseCheck(name)
		if !ok {
			return 0, fmt.Errorf("%w: unknown check %q", boostbench.ErrInvalidOption, name)
		}

		result |= check
	}

	if result == 0 {
		return boostbench.ChecksAll, nil
	}

	return result, nil
}
