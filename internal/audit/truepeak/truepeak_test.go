package truepeak_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/farcloser/boostbench/internal/audit/truepeak"
)

func TestDetectSilence(t *testing.T) {
	t.Parallel()

	result := truepeak.Detect(make([]float64, 1000))

	assert.InDelta(t, -120, result.TruePeakDb, 0)
	assert.InDelta(t, -120, result.SamplePeakDb, 0)
	assert.Zero(t, result.ISPCount)
	assert.Equal(t, uint64(1000), result.Samples)
}

func TestDetectInterSamplePeak(t *testing.T) {
	t.Parallel()

	// fs/4 sine sampled 45 degrees off its crests: samples sit at 0.707 of the waveform peak.
	samples := make([]float64, 4800)
	for i := range samples {
		samples[i] = math.Sin(math.Pi/2*float64(i) + math.Pi/4)
	}

	result := truepeak.Detect(samples)

	assert.InDelta(t, 20*math.Log10(math.Sqrt2/2), result.SamplePeakDb, 1e-9)
	assert.Greater(t, result.TruePeakDb, result.SamplePeakDb+2)
	assert.InDelta(t, 0, result.TruePeakDb, 0.5)
}

func TestDetectCountsOvershoots(t *testing.T) {
	t.Parallel()

	samples := make([]float64, 4800)
	for i := range samples {
		samples[i] = 1.2 * math.Sin(math.Pi/2*float64(i)+math.Pi/4)
	}

	result := truepeak.Detect(samples)

	assert.Positive(t, result.ISPCount)
	assert.Greater(t, result.ISPMaxDb, 0.0)
	assert.Greater(t, result.TruePeakDb, 0.0)
}
