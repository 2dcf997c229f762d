// Package latency estimates the delay a processing chain adds, from the peak of the full cross-correlation of the
// processed signal against its reference.
package latency

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/floats"

	"github.com/farcloser/boostbench/internal/types"
)

var (
	// ErrInvalidSampleRate is returned for a non-positive sample rate.
	ErrInvalidSampleRate = errors.New("invalid sample rate")
	// ErrEmptySignal is returned when either signal has no samples.
	ErrEmptySignal = errors.New("empty signal")
)

// Estimate returns the lag at which processed best matches reference. A positive lag means processed is late.
// Lags span -(len(reference)-1) to len(processed)-1; on ties the most negative lag wins.
func Estimate(reference, processed []float64, sampleRate int) (*types.LatencyResult, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidSampleRate, sampleRate)
	}

	if len(reference) == 0 || len(processed) == 0 {
		return nil, ErrEmptySignal
	}

	full := len(reference) + len(processed) - 1

	size := 1
	for size < full {
		size <<= 1
	}

	fft := fourier.NewFFT(size)
	padded := make([]float64, size)

	copy(padded, processed)
	spectrum := fft.Coefficients(nil, padded)

	clear(padded)
	copy(padded, reference)
	refSpectrum := fft.Coefficients(nil, padded)

	// Correlation in the frequency domain: P * conj(R).
	for i, r := range refSpectrum {
		spectrum[i] *= complex(real(r), -imag(r))
	}

	circular := fft.Sequence(nil, spectrum)

	bestLag := 0
	best := math.Inf(-1)

	for lag := -(len(reference) - 1); lag < len(processed); lag++ {
		idx := lag
		if idx < 0 {
			idx += size
		}

		if v := circular[idx] / float64(size); v > best {
			best = v
			bestLag = lag
		}
	}

	energy := floats.Norm(reference, 2) * floats.Norm(processed, 2)

	var normalized float64
	if energy > 0 {
		normalized = best / energy
	}

	return &types.LatencyResult{
		LagSamples:  bestLag,
		LatencyMs:   float64(bestLag) / float64(sampleRate) * 1000,
		Correlation: normalized,
	}, nil
}
