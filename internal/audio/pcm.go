package audio

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/farcloser/primordium/fault"

	"github.com/farcloser/boostbench/internal/audit/shared"
	"github.com/farcloser/boostbench/internal/types"
)

// DecodePCM reads interleaved little-endian signed PCM and averages channels down to mono.
// A trailing partial frame is dropped.
func DecodePCM(r io.Reader, format types.PCMFormat) (types.Signal, error) {
	bytesPerSample := int(format.BitDepth / 8) //nolint:gosec // bit depth and channel count are small constants
	numChannels := int(format.Channels)        //nolint:gosec // bit depth and channel count are small constants

	if bytesPerSample == 0 || numChannels == 0 {
		return types.Signal{}, fmt.Errorf("%w: %d-bit, %d channels", errUnsupportedFormat, format.BitDepth, numChannels)
	}

	frameSize := bytesPerSample * numChannels

	var maxVal float64

	switch format.BitDepth {
	case types.Depth16:
		maxVal = shared.MaxValue16
	case types.Depth24:
		maxVal = shared.MaxValue24
	case types.Depth32:
		maxVal = shared.MaxValue32
	default:
		return types.Signal{}, fmt.Errorf("%w: %d-bit", errUnsupportedFormat, format.BitDepth)
	}

	buf := make([]byte, frameSize*4096)
	samples := make([]float64, 0, 1<<16)

	// Carry bytes of an incomplete frame over to the next read.
	var pending int

	for {
		n, err := r.Read(buf[pending:])
		n += pending

		completeFrames := (n / frameSize) * frameSize
		data := buf[:completeFrames]

		for i := 0; i < len(data); i += frameSize {
			var sum float64

			for ch := range numChannels {
				sum += decodeSample(data[i+ch*bytesPerSample:], format.BitDepth) / maxVal
			}

			samples = append(samples, sum/float64(numChannels))
		}

		pending = copy(buf, buf[completeFrames:n])

		if err == io.EOF {
			break
		}

		if err != nil {
			return types.Signal{}, fmt.Errorf("%w: %w", fault.ErrReadFailure, err)
		}
	}

	return types.Signal{Samples: samples, SampleRate: format.SampleRate}, nil
}

func decodeSample(data []byte, depth types.BitDepth) float64 {
	switch depth {
	case types.Depth16:
		return float64(int16(binary.LittleEndian.Uint16(data))) //nolint:gosec // two's complement conversion for signed PCM samples
	case types.Depth24:
		raw := int32(data[0]) | int32(data[1])<<8 | int32(data[2])<<16
		if raw&0x800000 != 0 {
			raw |= ^0xFFFFFF
		}

		return float64(raw)
	case types.Depth32:
		return float64(int32(binary.LittleEndian.Uint32(data))) //nolint:gosec // two's complement conversion for signed PCM samples
	default:
		return 0
	}
}
