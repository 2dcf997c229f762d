package boostbench

import (
	"context"
	"fmt"

	"github.com/farcloser/boostbench/internal/audio"
	"github.com/farcloser/boostbench/internal/audit/loudness"
	"github.com/farcloser/boostbench/internal/integration/ffmpeg"
)

// DefaultTargetLUFS is the loudness the booster aims for.
const DefaultTargetLUFS = -18.0

// LoudnessMeter measures the integrated loudness of an audio file, in LUFS.
type LoudnessMeter interface {
	IntegratedLoudness(ctx context.Context, path string) (float64, error)
}

// FFmpegMeter meters with the ffmpeg ebur128 filter.
type FFmpegMeter = ffmpeg.Meter

// InternalMeter meters in-process, without ffmpeg for WAV input.
type InternalMeter struct{}

// IntegratedLoudness implements LoudnessMeter.
func (InternalMeter) IntegratedLoudness(ctx context.Context, path string) (float64, error) {
	signal, err := audio.Load(ctx, path)
	if err != nil {
		return 0, err
	}

	result, err := loudness.Analyze(signal.Samples, signal.SampleRate)
	if err != nil {
		return 0, fmt.Errorf("metering %s: %w", path, err)
	}

	return result.IntegratedLUFS, nil
}

// ParseMeter returns the meter for a name: "ffmpeg" or "internal".
func ParseMeter(name string) (LoudnessMeter, error) {
	switch name {
	case "ffmpeg", "":
		return FFmpegMeter{}, nil
	case "internal":
		return InternalMeter{}, nil
	default:
		return nil, fmt.Errorf("%w: unknown meter %q (valid: ffmpeg, internal)", ErrInvalidOption, name)
	}
}

// Options configures measurement and interpretation.
type Options struct {
	Checks Check // which metrics are interpreted (default: ChecksAll)

	// TargetLUFS is the loudness lufs_error is measured against.
	TargetLUFS float64

	// Meter measures integrated loudness of the processed file (nil = ffmpeg).
	Meter LoudnessMeter

	// Severity bands per check (zero value = use defaults).
	Loudness        Bands // absolute LUFS error, LU
	Clipping        Bands // percent of clipped samples
	Intelligibility Bands // STOI, descending
	Latency         Bands // absolute latency, ms
	Stability       Bands // dLUFS/sec variance, dB^2
	TruePeak        Bands // dBTP
}

// DefaultOptions returns options for speech boosted toward -18 LUFS.
func DefaultOptions() Options {
	return Options{
		Checks:          ChecksAll,
		TargetLUFS:      DefaultTargetLUFS,
		Meter:           FFmpegMeter{},
		Loudness:        Bands{Mild: 1, Moderate: 3, Severe: 6},
		Clipping:        Bands{Mild: 0.01, Moderate: 0.1, Severe: 1},
		Intelligibility: Bands{Mild: 0.9, Moderate: 0.8, Severe: 0.7},
		Latency:         Bands{Mild: 10, Moderate: 40, Severe: 100},
		Stability:       Bands{Mild: 1, Moderate: 4, Severe: 9},
		TruePeak:        Bands{Mild: -1, Moderate: 0, Severe: 1},
	}
}

func applyDefaults(opts *Options) {
	defaults := DefaultOptions()
	zeroBands := Bands{}

	if opts.Checks == 0 {
		opts.Checks = defaults.Checks
	}

	if opts.Meter == nil {
		opts.Meter = defaults.Meter
	}

	if opts.Loudness == zeroBands {
		opts.Loudness = defaults.Loudness
	}

	if opts.Clipping == zeroBands {
		opts.Clipping = defaults.Clipping
	}

	if opts.Intelligibility == zeroBands {
		opts.Intelligibility = defaults.Intelligibility
	}

	if opts.Latency == zeroBands {
		opts.Latency = defaults.Latency
	}

	if opts.Stability == zeroBands {
		opts.Stability = defaults.Stability
	}

	if opts.TruePeak == zeroBands {
		opts.TruePeak = defaults.TruePeak
	}
}
