package ffmpeg

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var errNoIntegratedLoudness = errors.New("could not parse integrated loudness from ffmpeg output")

// IntegratedLoudness measures the EBU R128 integrated loudness (LUFS) of a file with the ebur128 filter.
func IntegratedLoudness(ctx context.Context, path string) (float64, error) {
	stderr, err := run(ctx, "IntegratedLoudness", nil, nil,
		"-hide_banner",
		"-nostats",
		"-i", path,
		"-filter_complex", "ebur128=peak=true",
		"-f", "null",
		"-",
	)
	if err != nil {
		return 0, err
	}

	return ParseIntegratedLoudness(stderr)
}

// ParseIntegratedLoudness extracts the integrated loudness from ebur128 log output.
// The filter prints running values before its summary, so the last "I: ... LUFS" line wins.
func ParseIntegratedLoudness(log string) (float64, error) {
	var (
		integrated float64
		found      bool
	)

	scanner := bufio.NewScanner(strings.NewReader(log))
	for scanner.Scan() {
		line := scanner.Text()

		idx := strings.LastIndex(line, "I:")
		if idx < 0 || !strings.Contains(line[idx:], "LUFS") {
			continue
		}

		field := line[idx+len("I:"):]
		field = strings.TrimSpace(field[:strings.Index(field, "LUFS")])

		value, err := strconv.ParseFloat(field, 64)
		if err != nil {
			continue
		}

		integrated = value
		found = true
	}

	if !found {
		return 0, errNoIntegratedLoudness
	}

	return integrated, nil
}

// Meter is a loudness meter backed by ffmpeg.
type Meter struct{}

// IntegratedLoudness implements the benchmark loudness meter.
func (Meter) IntegratedLoudness(ctx context.Context, path string) (float64, error) {
	loudness, err := IntegratedLoudness(ctx, path)
	if err != nil {
		return 0, fmt.Errorf("ebur128 on %s: %w", path, err)
	}

	return loudness, nil
}
