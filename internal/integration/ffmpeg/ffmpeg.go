// Package ffmpeg wraps the ffmpeg binary: PCM extraction, filter chains, format conversion and EBU R128 metering.
package ffmpeg

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"strconv"
	"time"

	"github.com/farcloser/primordium/fault"

	"github.com/farcloser/boostbench/internal/integration/binary"
	"github.com/farcloser/boostbench/internal/types"
)

const (
	name = "ffmpeg"
	// Filter chains with a compressor and limiter on long clips are slow, keep room.
	timeout = 5 * time.Minute
)

// run executes ffmpeg with args, returning captured stderr. stage only labels debug logs.
func run(ctx context.Context, stage string, stdin io.Reader, stdout io.Writer, args ...string) (string, error) {
	slog.Debug("ffmpeg."+stage, "stage", "start")

	ffmpegPath, err := binary.Require(name)
	if err != nil {
		return "", err
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	//nolint:gosec // arguments are built by this package, file paths are user-provided by design
	cmd := exec.CommandContext(ctx, ffmpegPath, args...)

	cmd.Stdin = stdin
	cmd.Stdout = stdout

	var stderr bytes.Buffer

	cmd.Stderr = &stderr

	if err = cmd.Run(); err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			slog.Debug("ffmpeg."+stage, "stage", "timeout")

			return stderr.String(), fmt.Errorf("%w: after %v", fault.ErrTimeout, timeout)
		}

		slog.Debug("ffmpeg."+stage, "stage", "error")

		return stderr.String(), fmt.Errorf("%w: %s: %w", fault.ErrCommandFailure, stderr.String(), err)
	}

	slog.Debug("ffmpeg."+stage, "stage", "done")

	return stderr.String(), nil
}

func bitDepthToSpec(bitDepth types.BitDepth) string {
	// BitDepth 32 = s32le, 24 = s24le, 16 = s16le
	//nolint:gosec // we fine, gosec
	return "s" + strconv.Itoa(int(bitDepth)) + "le"
}
