package boostbench

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/farcloser/boostbench/internal/audio"
	"github.com/farcloser/boostbench/internal/audit/autogain"
	"github.com/farcloser/boostbench/internal/audit/bandpass"
	"github.com/farcloser/boostbench/internal/integration/ffmpeg"
	"github.com/farcloser/boostbench/internal/types"
)

// DefaultFilterChain approximates the booster with stock ffmpeg filters: rumble high-pass, low shelf cut,
// presence boost, compressor, limiter.
var DefaultFilterChain = strings.Join([]string{
	"highpass=f=90",
	"lowshelf=f=250:g=-2.5",
	"equalizer=f=3000:width_type=q:width=1.0:g=3.5",
	"acompressor=threshold=-22dB:ratio=3:attack=3:release=250:knee=6",
	"alimiter=limit=-1dB",
	"volume=1.0",
}, ",")

// Processor selects how the clean clip is turned into the processed one.
type Processor int

const (
	// ProcessorFilterChain renders an ffmpeg filter graph.
	ProcessorFilterChain Processor = iota
	// ProcessorAutoGain simulates the booster's auto-gain control loop in-process.
	ProcessorAutoGain
)

func (p Processor) String() string {
	switch p {
	case ProcessorFilterChain:
		return "filter-chain"
	case ProcessorAutoGain:
		return "autogain"
	}

	return "unknown"
}

// ParseProcessor converts a name to a Processor.
func ParseProcessor(name string) (Processor, error) {
	switch name {
	case "filter-chain", "":
		return ProcessorFilterChain, nil
	case "autogain":
		return ProcessorAutoGain, nil
	default:
		return 0, fmt.Errorf("%w: unknown processor %q (valid: filter-chain, autogain)", ErrInvalidOption, name)
	}
}

// Process renders input into output with the given processor and returns the elapsed wall time.
// chain only applies to ProcessorFilterChain (empty = DefaultFilterChain); targetLUFS only to ProcessorAutoGain.
func Process(ctx context.Context, processor Processor, chain, input, output string, targetLUFS float64) (time.Duration, error) {
	slog.Debug("process", "processor", processor.String(), "input", input, "output", output)

	switch processor {
	case ProcessorFilterChain:
		if chain == "" {
			chain = DefaultFilterChain
		}

		return ffmpeg.ApplyFilterChain(ctx, input, output, chain)
	case ProcessorAutoGain:
		start := time.Now()
		_, err := AutoGain(ctx, input, output, targetLUFS)

		return time.Since(start), err
	default:
		return 0, fmt.Errorf("%w: processor %d", ErrInvalidOption, processor)
	}
}

// AutoGain runs the booster's control loop over input: the signal is band-limited for measurement, the gain
// curve is simulated toward targetDb, applied to the unfiltered signal, and written as 16-bit WAV.
// Samples pushed past full scale are clipped on write, which the clipping metric then reports.
func AutoGain(ctx context.Context, input, output string, targetDb float64) (*autogain.Result, error) {
	signal, err := audio.Load(ctx, input)
	if err != nil {
		return nil, err
	}

	trace, err := Simulate(signal, targetDb)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", input, err)
	}

	if err = audio.WriteWAV(output, audio.ApplyGain(signal, trace.Curve), types.Depth16); err != nil {
		return nil, err
	}

	return trace, nil
}

// Simulate returns the auto-gain trace for an in-memory signal.
func Simulate(signal types.Signal, targetDb float64) (*autogain.Result, error) {
	measure, err := bandpass.Filter(signal.Samples, signal.SampleRate)
	if err != nil {
		return nil, err
	}

	return autogain.Trace(measure, len(signal.Samples), signal.SampleRate, targetDb)
}
