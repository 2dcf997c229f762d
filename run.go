package boostbench

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/farcloser/boostbench/internal/integration/ffmpeg"
	"github.com/farcloser/boostbench/internal/integration/say"
)

const (
	cleanFile     = "clean.wav"
	processedFile = "processed.wav"
	speechFile    = "clean.aiff"
)

// Plan describes one end-to-end benchmark run.
type Plan struct {
	// AudioDir holds clean.wav (synthesized when absent) and receives processed.wav.
	AudioDir string
	// Text and SampleRate drive speech synthesis.
	Text       string
	SampleRate int

	Processor   Processor
	FilterChain string // empty = DefaultFilterChain

	Options Options
}

// RunResult is the outcome of Run.
type RunResult struct {
	*Result

	CleanPath     string
	ProcessedPath string
	Synthesized   bool
}

// Run synthesizes the clean clip if needed, processes it with timing, then measures the output.
func Run(ctx context.Context, plan Plan) (*RunResult, error) {
	applyDefaults(&plan.Options)

	cleanPath := filepath.Join(plan.AudioDir, cleanFile)
	processedPath := filepath.Join(plan.AudioDir, processedFile)

	synthesized, err := EnsureSpeech(ctx, plan.Text, cleanPath, plan.SampleRate)
	if err != nil {
		return nil, err
	}

	elapsed, err := Process(ctx, plan.Processor, plan.FilterChain, cleanPath, processedPath, plan.Options.TargetLUFS)
	if err != nil {
		return nil, fmt.Errorf("processing %s: %w", cleanPath, err)
	}

	result, err := Measure(ctx, cleanPath, processedPath, plan.Options)
	if err != nil {
		return nil, err
	}

	result.Metrics.SetProcessingTime(elapsed.Seconds())

	return &RunResult{
		Result:        result,
		CleanPath:     cleanPath,
		ProcessedPath: processedPath,
		Synthesized:   synthesized,
	}, nil
}

// EnsureSpeech synthesizes text into a mono 16-bit WAV at cleanPath unless that file already exists.
// It reports whether synthesis ran.
func EnsureSpeech(ctx context.Context, text, cleanPath string, sampleRate int) (bool, error) {
	if _, err := os.Stat(cleanPath); err == nil {
		slog.Debug("speech already synthesized", "path", cleanPath)

		return false, nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return false, fmt.Errorf("checking %s: %w", cleanPath, err)
	}

	return true, Synthesize(ctx, text, cleanPath, sampleRate)
}

// Synthesize speaks text with the system voice into a mono 16-bit WAV at output.
func Synthesize(ctx context.Context, text, output string, sampleRate int) error {
	dir := filepath.Dir(output)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", dir, err)
	}

	speech := filepath.Join(dir, speechFile)
	if err := say.Synthesize(ctx, text, speech); err != nil {
		return err
	}

	return ffmpeg.Convert(ctx, speech, output, sampleRate)
}
