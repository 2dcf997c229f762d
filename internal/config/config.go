// Package config loads the benchmark defaults from BOOSTBENCH_* environment variables, optionally seeded from a
// .env file. Command-line flags override these values. The auto-gain control-loop constants are not configurable.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"runtime"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Prefix of every environment variable read by Load.
const Prefix = "BOOSTBENCH"

const (
	MeterFFmpeg   = "ffmpeg"
	MeterInternal = "internal"
)

var errInvalidConfig = errors.New("invalid configuration")

// Config holds the environment defaults.
type Config struct {
	// TargetLUFS is the loudness the processors aim for and lufs_error is measured against.
	TargetLUFS float64 `envconfig:"TARGET_LUFS" default:"-18"`
	// SampleRate of the synthesized clean clip.
	SampleRate int `envconfig:"SAMPLE_RATE" default:"16000"`
	// AudioDir holds clean.wav and processed.wav for the run command.
	AudioDir string `envconfig:"AUDIO_DIR" default:"audio"`
	// Text spoken for the synthesized clip.
	Text string `envconfig:"TEXT" default:"This is a sample speech clip for testing the volume booster. We are measuring clarity, loudness stability, and clipping."`
	// FilterChain overrides the default ffmpeg chain when set.
	FilterChain string `envconfig:"FILTER_CHAIN"`
	// Meter selects the integrated loudness meter: ffmpeg (ebur128) or internal.
	Meter string `envconfig:"METER" default:"ffmpeg"`
	// Workers bounds batch report concurrency; 0 means one per CPU.
	Workers int `envconfig:"WORKERS" default:"0"`
}

// Load reads envFile (".env" when empty, silently skipped if absent) into the environment without overriding
// variables already set, then processes BOOSTBENCH_* variables.
func Load(envFile string) (*Config, error) {
	if envFile == "" {
		if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("loading .env: %w", err)
		}
	} else if err := godotenv.Load(envFile); err != nil {
		return nil, fmt.Errorf("loading %s: %w", envFile, err)
	}

	cfg := &Config{}
	if err := envconfig.Process(Prefix, cfg); err != nil {
		return nil, fmt.Errorf("%w: %w", errInvalidConfig, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if cfg.Workers == 0 {
		cfg.Workers = runtime.NumCPU()
	}

	return cfg, nil
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	if c.SampleRate <= 0 {
		return fmt.Errorf("%w: sample rate %d", errInvalidConfig, c.SampleRate)
	}

	if c.Workers < 0 {
		return fmt.Errorf("%w: workers %d", errInvalidConfig, c.Workers)
	}

	if c.Meter != MeterFFmpeg && c.Meter != MeterInternal {
		return fmt.Errorf("%w: meter %q (want %s or %s)", errInvalidConfig, c.Meter, MeterFFmpeg, MeterInternal)
	}

	return nil
}
