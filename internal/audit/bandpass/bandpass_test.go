package bandpass_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/farcloser/boostbench/internal/audio"
	"github.com/farcloser/boostbench/internal/audit/bandpass"
)

func rmsDb(samples []float64) float64 {
	var sum float64
	for _, s := range samples {
		sum += s * s
	}

	return 20 * math.Log10(math.Sqrt(sum/float64(len(samples))))
}

func TestFilterRejectsSampleRates(t *testing.T) {
	t.Parallel()

	for _, sampleRate := range []int{0, -44100, 8000, 12000} {
		_, err := bandpass.Filter([]float64{0, 1, 0}, sampleRate)
		require.ErrorIs(t, err, bandpass.ErrInvalidSampleRate, "sample rate %d", sampleRate)
	}
}

func TestFilterKeepsLength(t *testing.T) {
	t.Parallel()

	for _, n := range []int{0, 1, 7, 16000} {
		out, err := bandpass.Filter(make([]float64, n), 16000)
		require.NoError(t, err)
		assert.Len(t, out, n)
	}
}

func TestFilterDoesNotModifyInput(t *testing.T) {
	t.Parallel()

	in := audio.Sine(16000, 440, -20, 0.1).Samples
	snapshot := append([]float64(nil), in...)

	_, err := bandpass.Filter(in, 16000)
	require.NoError(t, err)
	assert.Equal(t, snapshot, in)
}

func TestFilterResponse(t *testing.T) {
	t.Parallel()

	const sampleRate = 48000

	tests := []struct {
		name      string
		freq      float64
		minLossDb float64
		maxLossDb float64
	}{
		{name: "speech band passes", freq: 1000, minLossDb: -0.5, maxLossDb: 0.5},
		{name: "rumble is attenuated", freq: 30, minLossDb: 18, maxLossDb: 60},
		{name: "hiss is attenuated", freq: 20000, minLossDb: 15, maxLossDb: 120},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			in := audio.Sine(sampleRate, tt.freq, -20, 2).Samples
			out, err := bandpass.Filter(in, sampleRate)
			require.NoError(t, err)

			// Skip the settling time of the sections.
			settle := sampleRate / 2
			loss := rmsDb(in[settle:]) - rmsDb(out[settle:])

			assert.GreaterOrEqual(t, loss, tt.minLossDb)
			assert.LessOrEqual(t, loss, tt.maxLossDb)
		})
	}
}
