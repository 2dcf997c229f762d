// Package truepeak estimates the true (inter-sample) peak of a signal with 4x polyphase oversampling, per
// ITU-R BS.1770. A booster pushing speech toward full scale overshoots between samples before it clips on them.
package truepeak

import (
	"math"

	"github.com/farcloser/boostbench/internal/types"
)

const (
	oversample   = 4  // 4x oversampling per ITU-R BS.1770
	tapsPerPhase = 12 // filter taps per phase
	totalTaps    = oversample * tapsPerPhase

	floorDb = -120.0
)

// Polyphase filter coefficients for 4x oversampling: windowed sinc, Kaiser window (beta = 5), each phase
// normalized to unity DC gain.
var polyphaseCoeffs = buildCoefficients(5)

func buildCoefficients(beta float64) [oversample][tapsPerPhase]float64 {
	var coeffs [oversample][tapsPerPhase]float64

	center := float64(totalTaps-1) / 2

	for phase := range oversample {
		var sum float64

		for tap := range tapsPerPhase {
			x := float64(tap*oversample+phase) - center

			sinc := 1.0
			if math.Abs(x) >= 1e-10 {
				arg := math.Pi * x / oversample
				sinc = math.Sin(arg) / arg
			}

			alpha := x / center
			window := bessel0(beta*math.Sqrt(1-alpha*alpha)) / bessel0(beta)

			coeffs[phase][tap] = sinc * window
			sum += coeffs[phase][tap]
		}

		for tap := range tapsPerPhase {
			coeffs[phase][tap] /= sum
		}
	}

	return coeffs
}

// Modified Bessel function of the first kind, order 0.
func bessel0(x float64) float64 {
	sum := 1.0
	term := 1.0

	for k := 1; k <= 25; k++ {
		term *= (x * x) / (4 * float64(k) * float64(k))
		sum += term

		if term < 1e-12 {
			break
		}
	}

	return sum
}

func toDb(linear float64) float64 {
	if linear <= 0 {
		return floorDb
	}

	return 20 * math.Log10(linear)
}

// Detect measures sample and true peak of normalized mono samples, and counts interpolated values above full
// scale (inter-sample peaks).
func Detect(samples []float64) *types.TruePeakResult {
	var (
		history    [tapsPerPhase]float64
		samplePeak float64
		truePeak   float64
		ispCount   uint64
		ispMax     float64
	)

	for _, sample := range samples {
		samplePeak = math.Max(samplePeak, math.Abs(sample))

		copy(history[:], history[1:])
		history[tapsPerPhase-1] = sample

		for phase := range oversample {
			var interp float64
			for tap := range tapsPerPhase {
				interp += history[tap] * polyphaseCoeffs[phase][tap]
			}

			absInterp := math.Abs(interp)
			truePeak = math.Max(truePeak, absInterp)

			if absInterp > 1 {
				ispCount++
				ispMax = math.Max(ispMax, 20*math.Log10(absInterp))
			}
		}
	}

	// Samples themselves are points of the reconstructed waveform.
	truePeak = math.Max(truePeak, samplePeak)

	return &types.TruePeakResult{
		TruePeakDb:   toDb(truePeak),
		SamplePeakDb: toDb(samplePeak),
		ISPCount:     ispCount,
		ISPMaxDb:     ispMax,
		Samples:      uint64(len(samples)),
	}
}
