// Package stability approximates short-term loudness stability as the variance of the second-to-second change in
// RMS level (dB^2). A well-behaved gain control yields small values; pumping yields large ones.
package stability

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/farcloser/boostbench/internal/audit/shared"
	"github.com/farcloser/boostbench/internal/types"
)

// ErrInvalidSampleRate is returned for a non-positive sample rate.
var ErrInvalidSampleRate = errors.New("invalid sample rate")

// Analyze splits samples into whole one-second blocks (a trailing partial block is dropped, but a signal shorter
// than one second counts as a single block) and returns the population variance of the differences between
// consecutive block levels. Fewer than two blocks yield 0.
func Analyze(samples []float64, sampleRate int) (*types.StabilityResult, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidSampleRate, sampleRate)
	}

	blocks := max(len(samples)/sampleRate, 1)
	result := &types.StabilityResult{BlockDb: make([]float64, 0, blocks)}

	for i := range blocks {
		segment := samples[i*sampleRate : min((i+1)*sampleRate, len(samples))]
		if len(segment) == 0 {
			continue
		}

		var sumSquares float64
		for _, s := range segment {
			sumSquares += s * s
		}

		rms := math.Sqrt(sumSquares/float64(len(segment)) + shared.Epsilon)
		result.BlockDb = append(result.BlockDb, 20*math.Log10(rms+shared.Epsilon))
	}

	if len(result.BlockDb) < 2 {
		return result, nil
	}

	diffs := make([]float64, len(result.BlockDb)-1)
	for i := range diffs {
		diffs[i] = result.BlockDb[i+1] - result.BlockDb[i]
	}

	result.Variance = stat.PopVariance(diffs, nil)

	return result, nil
}
