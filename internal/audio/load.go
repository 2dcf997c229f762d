package audio

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/farcloser/boostbench/internal/integration/ffmpeg"
	"github.com/farcloser/boostbench/internal/integration/ffprobe"
	"github.com/farcloser/boostbench/internal/types"
)

var (
	errNoAudioStream     = errors.New("no audio streams found")
	errInvalidSampleRate = errors.New("invalid sample rate")
	errInvalidChannels   = errors.New("invalid channel count")
)

// Load reads any audio file into a mono signal.
// WAV files are decoded in-process; other containers go through ffprobe and ffmpeg.
func Load(ctx context.Context, path string) (types.Signal, error) {
	if strings.EqualFold(filepath.Ext(path), ".wav") {
		signal, err := ReadWAV(path)
		if err == nil || !errors.Is(err, errUnsupportedFormat) {
			return signal, err
		}
		// Exotic WAV flavors (extensible float, 64-bit) fall through to ffmpeg.
	}

	probe, err := ffprobe.Probe(ctx, path)
	if err != nil {
		return types.Signal{}, fmt.Errorf("probing %s: %w", path, err)
	}

	format, err := pcmFormat(probe)
	if err != nil {
		return types.Signal{}, fmt.Errorf("%s: %w", path, err)
	}

	file, err := os.Open(path) //nolint:gosec // CLI tool opens user-specified audio files
	if err != nil {
		return types.Signal{}, fmt.Errorf("opening %s: %w", path, err)
	}
	defer file.Close()

	var pcmBuf bytes.Buffer

	if err = ffmpeg.ExtractStream(ctx, file, &pcmBuf, 0, &format); err != nil {
		return types.Signal{}, fmt.Errorf("extracting PCM from %s: %w", path, err)
	}

	return DecodePCM(&pcmBuf, format)
}

func pcmFormat(result *ffprobe.Result) (types.PCMFormat, error) {
	for i := range result.Streams {
		stream := &result.Streams[i]
		if stream.CodecType != "audio" {
			continue
		}

		sampleRate, err := strconv.Atoi(stream.SampleRate)
		if err != nil || sampleRate <= 0 {
			return types.PCMFormat{}, fmt.Errorf("%q: %w", stream.SampleRate, errInvalidSampleRate)
		}

		if stream.Channels <= 0 {
			return types.PCMFormat{}, fmt.Errorf("%d: %w", stream.Channels, errInvalidChannels)
		}

		return types.PCMFormat{
			SampleRate: sampleRate,
			BitDepth:   types.Depth32,
			Channels:   uint(stream.Channels), //nolint:gosec // validated positive value
		}, nil
	}

	return types.PCMFormat{}, errNoAudioStream
}
