package loudness_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/farcloser/boostbench/internal/audio"
	"github.com/farcloser/boostbench/internal/audit/loudness"
)

func TestAnalyzeRejectsSampleRate(t *testing.T) {
	t.Parallel()

	_, err := loudness.Analyze([]float64{0}, 0)
	require.ErrorIs(t, err, loudness.ErrInvalidSampleRate)
}

func TestAnalyzeSilence(t *testing.T) {
	t.Parallel()

	for _, signal := range [][]float64{nil, audio.Silence(48000, 0.2).Samples, audio.Silence(48000, 3).Samples} {
		result, err := loudness.Analyze(signal, 48000)
		require.NoError(t, err)
		assert.InDelta(t, loudness.Silence, result.IntegratedLUFS, 0)
		assert.InDelta(t, 0, result.LoudnessRange, 0)
	}
}

func TestAnalyzeReferenceTone(t *testing.T) {
	t.Parallel()

	// A 1 kHz sine at -20 dBFS RMS reads close to -20 LUFS on a mono meter (K-weighting is ~+0.7 dB at 1 kHz).
	tone := audio.Sine(48000, 1000, -20, 5)

	result, err := loudness.Analyze(tone.Samples, 48000)
	require.NoError(t, err)

	assert.InDelta(t, -20, result.IntegratedLUFS, 0.5)
	assert.InDelta(t, result.IntegratedLUFS, result.MomentaryMax, 0.2)
	assert.Less(t, result.LoudnessRange, 0.5)
	assert.Equal(t, uint64(len(tone.Samples)), result.Frames)
}

func TestAnalyzeGainShiftsLoudness(t *testing.T) {
	t.Parallel()

	quiet, err := loudness.Analyze(audio.Sine(16000, 1000, -30, 4).Samples, 16000)
	require.NoError(t, err)

	loud, err := loudness.Analyze(audio.Sine(16000, 1000, -24, 4).Samples, 16000)
	require.NoError(t, err)

	assert.InDelta(t, 6, loud.IntegratedLUFS-quiet.IntegratedLUFS, 0.05)
}

func TestAnalyzeGatesSilentStretches(t *testing.T) {
	t.Parallel()

	tone := audio.Sine(16000, 1000, -20, 3)
	withGap := audio.Concat(tone, audio.Silence(16000, 3), tone)

	continuous, err := loudness.Analyze(tone.Samples, 16000)
	require.NoError(t, err)

	gapped, err := loudness.Analyze(withGap.Samples, 16000)
	require.NoError(t, err)

	assert.InDelta(t, continuous.IntegratedLUFS, gapped.IntegratedLUFS, 0.5)
}

func TestAnalyzeRangeGatesOnEnergyMean(t *testing.T) {
	t.Parallel()

	// Energy averaging puts the relative gate near -33 LUFS, which drops the -45 dBFS half. Averaging the
	// LUFS values instead would place it near -47 and report a range around 35 LU.
	signal := audio.Concat(audio.Sine(16000, 1000, -10, 10), audio.Sine(16000, 1000, -45, 10))

	result, err := loudness.Analyze(signal.Samples, 16000)
	require.NoError(t, err)

	assert.Positive(t, result.LoudnessRange)
	assert.Less(t, result.LoudnessRange, 10.0)
}
