// Package say drives the macOS text-to-speech binary to produce the clean reference clip.
package say

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"time"

	"github.com/farcloser/primordium/fault"

	"github.com/farcloser/boostbench/internal/integration/binary"
)

const (
	name    = "say"
	timeout = 2 * time.Minute
)

// Synthesize speaks text into an AIFF file at output. The text is handed over in a file, so that text starting
// with a dash is spoken rather than read as an option.
func Synthesize(ctx context.Context, text, output string) error {
	slog.Debug("say.Synthesize", "output", output, "stage", "start")

	sayPath, err := binary.Require(name)
	if err != nil {
		return err
	}

	textFile, err := writeText(text)
	if err != nil {
		return err
	}

	defer os.Remove(textFile)

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	//nolint:gosec // output is user-provided by design
	cmd := exec.CommandContext(ctx, sayPath, arguments(textFile, output)...)

	var stderr bytes.Buffer

	cmd.Stderr = &stderr

	if err = cmd.Run(); err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			slog.Debug("say.Synthesize", "output", output, "stage", "timeout")

			return fmt.Errorf("%w: after %v", fault.ErrTimeout, timeout)
		}

		slog.Debug("say.Synthesize", "output", output, "stage", "error")

		return fmt.Errorf("%w: %s: %w", fault.ErrCommandFailure, stderr.String(), err)
	}

	return nil
}

func arguments(textFile, output string) []string {
	return []string{"-o", output, "-f", textFile}
}

// writeText stores text in a temporary file and returns its path.
func writeText(text string) (string, error) {
	file, err := os.CreateTemp("", "boostbench-say-*.txt")
	if err != nil {
		return "", fmt.Errorf("%w: %w", fault.ErrFilesystemFailure, err)
	}

	_, err = file.WriteString(text)

	if closeErr := file.Close(); err == nil {
		err = closeErr
	}

	if err != nil {
		_ = os.Remove(file.Name())

		return "", fmt.Errorf("%w: %w", fault.ErrWriteFailure, err)
	}

	return file.Name(), nil
}
