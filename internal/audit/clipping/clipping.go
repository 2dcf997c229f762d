package clipping

import (
	"math"

	"github.com/farcloser/boostbench/internal/types"
)

// Threshold is the magnitude at which a normalized sample counts as clipped.
const Threshold = 0.999

// Detect reports the share of samples at or above Threshold, and the runs of two or more consecutive clipped
// samples. An empty signal reports 0%.
func Detect(samples []float64) *types.ClippingDetection {
	result := &types.ClippingDetection{
		Samples:   uint64(len(samples)),
		Threshold: Threshold,
	}

	var consecutive uint64

	flush := func() {
		if consecutive >= 2 {
			result.Events++

			if consecutive > result.LongestRun {
				result.LongestRun = consecutive
			}
		}

		consecutive = 0
	}

	for _, s := range samples {
		if math.Abs(s) >= Threshold {
			result.ClippedSamples++
			consecutive++
		} else {
			flush()
		}
	}

	// Trailing run
	flush()

	if result.Samples > 0 {
		result.Percent = float64(result.ClippedSamples) / float64(result.Samples) * 100
	}

	return result
}
