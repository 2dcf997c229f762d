package ffmpeg

import (
	"context"
	"strconv"
	"time"
)

// ApplyFilterChain renders input through an ffmpeg filter graph into output, overwriting it.
// It returns the wall-clock time ffmpeg took, which is what the benchmark reports as processing time.
func ApplyFilterChain(ctx context.Context, input, output, chain string) (time.Duration, error) {
	start := time.Now()

	_, err := run(ctx, "ApplyFilterChain", nil, nil,
		"-y",
		"-hide_banner",
		"-i", input,
		"-filter_complex", chain,
		output,
	)

	return time.Since(start), err
}

// Convert transcodes input into a mono 16-bit WAV at sampleRate.
func Convert(ctx context.Context, input, output string, sampleRate int) error {
	_, err := run(ctx, "Convert", nil, nil,
		"-y",
		"-hide_banner",
		"-i", input,
		"-ac", "1",
		"-ar", strconv.Itoa(sampleRate),
		"-acodec", "pcm_s16le",
		output,
	)

	return err
}
