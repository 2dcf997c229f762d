package audio

import (
	"errors"
	"fmt"
	"math"
	"os"

	"github.com/farcloser/primordium/fault"
	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/farcloser/boostbench/internal/types"
)

const (
	wavFormatPCM   = 1
	wavFormatFloat = 3
)

var (
	errInvalidWAV        = errors.New("invalid WAV file")
	errUnsupportedFormat = errors.New("unsupported sample format")
)

// ReadWAV decodes a WAV file into a mono signal, averaging channels.
func ReadWAV(path string) (types.Signal, error) {
	file, err := os.Open(path) //nolint:gosec // CLI tool opens user-specified audio files
	if err != nil {
		return types.Signal{}, fmt.Errorf("%w: %w", fault.ErrReadFailure, err)
	}
	defer file.Close()

	decoder := wav.NewDecoder(file)
	if !decoder.IsValidFile() {
		return types.Signal{}, fmt.Errorf("%w: %s", errInvalidWAV, path)
	}

	buf, err := decoder.FullPCMBuffer()
	if err != nil {
		return types.Signal{}, fmt.Errorf("%w: %w", fault.ErrReadFailure, err)
	}

	numChannels := buf.Format.NumChannels
	if numChannels <= 0 {
		return types.Signal{}, fmt.Errorf("%w: %d channels", errUnsupportedFormat, numChannels)
	}

	normalize, err := sampleNormalizer(decoder.WavAudioFormat, buf.SourceBitDepth)
	if err != nil {
		return types.Signal{}, err
	}

	frames := len(buf.Data) / numChannels
	samples := make([]float64, frames)

	for i := range frames {
		var sum float64

		for ch := range numChannels {
			sum += normalize(buf.Data[i*numChannels+ch])
		}

		samples[i] = sum / float64(numChannels)
	}

	return types.Signal{Samples: samples, SampleRate: buf.Format.SampleRate}, nil
}

func sampleNormalizer(audioFormat uint16, bitDepth int) (func(int) float64, error) {
	if audioFormat == wavFormatFloat && bitDepth == 32 {
		return func(v int) float64 {
			return float64(math.Float32frombits(uint32(v))) //nolint:gosec // raw IEEE-754 bits
		}, nil
	}

	switch bitDepth {
	case 8:
		// 8-bit WAV is unsigned.
		return func(v int) float64 { return float64(v-128) / 128 }, nil
	case 16, 24, 32:
		scale := math.Ldexp(1, bitDepth-1)

		return func(v int) float64 { return float64(v) / scale }, nil
	default:
		return nil, fmt.Errorf("%w: %d-bit (format %d)", errUnsupportedFormat, bitDepth, audioFormat)
	}
}

// WriteWAV encodes a mono signal as integer PCM. Samples are clamped to [-1, 1].
func WriteWAV(path string, signal types.Signal, bitDepth types.BitDepth) error {
	if bitDepth != types.Depth16 && bitDepth != types.Depth24 && bitDepth != types.Depth32 {
		return fmt.Errorf("%w: %d-bit", errUnsupportedFormat, bitDepth)
	}

	out, err := os.Create(path) //nolint:gosec // output path is user-specified
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer out.Close()

	scale := math.Ldexp(1, int(bitDepth)-1) - 1 //nolint:gosec // small constant
	data := make([]int, len(signal.Samples))

	for i, s := range signal.Samples {
		data[i] = int(math.Round(math.Max(-1, math.Min(1, s)) * scale))
	}

	encoder := wav.NewEncoder(out, signal.SampleRate, int(bitDepth), 1, wavFormatPCM) //nolint:gosec // small constant

	if err = encoder.Write(&goaudio.IntBuffer{
		Format: &goaudio.Format{
			NumChannels: 1,
			SampleRate:  signal.SampleRate,
		},
		Data:           data,
		SourceBitDepth: int(bitDepth), //nolint:gosec // small constant
	}); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}

	if err = encoder.Close(); err != nil {
		return fmt.Errorf("finalizing %s: %w", path, err)
	}

	return out.Close()
}
