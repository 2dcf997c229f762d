package autogain_test

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/farcloser/boostbench/internal/audio"
	"github.com/farcloser/boostbench/internal/audit/autogain"
	"github.com/farcloser/boostbench/internal/types"
)

const (
	sampleRate = 16000
	hopSamples = 1120 // 70 ms at 16 kHz
	tolerance  = 1e-9
)

var trim = math.Pow(10, 0.5/20)

func stepDb(from, to float64) float64 {
	return 20 * math.Log10(to/from)
}

// noise produces segments of white noise at random levels, to exercise both directions of the loop.
func noise(seed uint64, seconds float64) types.Signal {
	rng := rand.New(rand.NewPCG(seed, seed+1))
	samples := make([]float64, int(seconds*sampleRate))
	segment := sampleRate / 4
	level := 0.0

	for i := range samples {
		if i%segment == 0 {
			level = math.Pow(10, (-70+rng.Float64()*66)/20)
		}

		samples[i] = level * (rng.Float64()*2 - 1)
	}

	return types.Signal{Samples: samples, SampleRate: sampleRate}
}

func TestSimulateRejectsInvalidInput(t *testing.T) {
	t.Parallel()

	_, err := autogain.Simulate(nil, 10, 0, -18)
	require.ErrorIs(t, err, autogain.ErrInvalidSampleRate)

	_, err = autogain.Simulate(nil, 10, -16000, -18)
	require.ErrorIs(t, err, autogain.ErrInvalidSampleRate)

	_, err = autogain.Simulate(nil, -1, sampleRate, -18)
	require.ErrorIs(t, err, autogain.ErrInvalidLength)
}

func TestSimulateCurveLength(t *testing.T) {
	t.Parallel()

	for _, length := range []int{0, 1, hopSamples - 1, hopSamples, hopSamples + 1, 5 * hopSamples, 33333} {
		measure := audio.Sine(sampleRate, 1000, -30, float64(length)/sampleRate+0.001).Samples[:length]

		curve, err := autogain.Simulate(measure, length, sampleRate, -18)
		require.NoError(t, err)
		assert.Len(t, curve, length)
	}
}

func TestSimulateHoldsGainAcrossStride(t *testing.T) {
	t.Parallel()

	signal := noise(7, 3)

	result, err := autogain.Trace(signal.Samples, len(signal.Samples), sampleRate, -18)
	require.NoError(t, err)

	require.NotEmpty(t, result.Hops)

	// Before the first decision the curve carries the initial gain.
	for i := range result.Hops[0].End {
		require.InDelta(t, trim, result.Curve[i], tolerance)
	}

	covered := 0
	for _, hop := range result.Hops {
		assert.Equal(t, covered, hop.Start, "hops must tile the curve")

		// A hop's gain applies to the stride after the one it measured.
		for i := hop.End; i < min(hop.End+hopSamples, len(result.Curve)); i++ {
			require.InDelta(t, hop.Gain*trim, result.Curve[i], tolerance)
		}

		covered = hop.End
	}

	assert.Equal(t, len(signal.Samples), covered)
}

func TestSimulateGainNeverAppliesToItsOwnStride(t *testing.T) {
	t.Parallel()

	// A burst inside a single stride is only attenuated from the next stride on.
	burstStart := 10 * hopSamples
	signal := audio.Sine(sampleRate, 1000, -24, 2)

	for i := burstStart; i < burstStart+hopSamples; i++ {
		signal.Samples[i] *= math.Pow(10, 24.0/20)
	}

	result, err := autogain.Trace(signal.Samples, len(signal.Samples), sampleRate, -18)
	require.NoError(t, err)

	hop := result.Hops[10]
	require.Equal(t, burstStart, hop.Start)
	require.Less(t, hop.StepDb, 0.0)

	previous := result.Hops[9].Gain * trim
	for i := hop.Start; i < hop.End; i++ {
		require.InDelta(t, previous, result.Curve[i], tolerance, "sample %d", i)
	}

	assert.InDelta(t, hop.Gain*trim, result.Curve[hop.End], tolerance)
}

func TestSimulateRateLimitsAndRange(t *testing.T) {
	t.Parallel()

	for seed := range uint64(5) {
		signal := noise(seed, 8)

		for _, target := range []float64{-30, -18, -6} {
			result, err := autogain.Trace(signal.Samples, len(signal.Samples), sampleRate, target)
			require.NoError(t, err)

			previous := 1.0
			for _, hop := range result.Hops {
				change := stepDb(previous, hop.Gain)
				require.LessOrEqual(t, change, 0.2+tolerance)
				require.GreaterOrEqual(t, change, -0.4-tolerance)
				require.GreaterOrEqual(t, hop.Gain, 0.6-tolerance)
				require.LessOrEqual(t, hop.Gain, 2.4+tolerance)

				if hop.Gate == autogain.IncreaseFrozen {
					require.LessOrEqual(t, hop.StepDb, 0.0)
				}

				previous = hop.Gain
			}

			for _, value := range result.Curve {
				require.GreaterOrEqual(t, value, 0.6*trim-tolerance)
				require.LessOrEqual(t, value, 2.4*trim+tolerance)
			}
		}
	}
}

func TestSimulateQuietToneRisesAtMaxRate(t *testing.T) {
	t.Parallel()

	tone := audio.Sine(sampleRate, 1000, -30, 2)

	result, err := autogain.Trace(tone.Samples, len(tone.Samples), sampleRate, -18)
	require.NoError(t, err)

	// The loop starts as after silence: two hops (140 ms) above the gate are not enough to resume increases.
	require.Greater(t, len(result.Hops), 3)
	assert.Equal(t, autogain.IncreaseFrozen, result.Hops[0].Gate)
	assert.Equal(t, autogain.IncreaseFrozen, result.Hops[1].Gate)
	assert.InDelta(t, 0, result.Hops[0].StepDb, tolerance)
	assert.InDelta(t, 0, result.Hops[1].StepDb, tolerance)

	for i, hop := range result.Hops[2:] {
		assert.Equal(t, autogain.IncreaseAllowed, hop.Gate)
		assert.InDelta(t, 0.2, hop.StepDb, tolerance, "hop %d", i+2)
	}

	for i := 1; i < len(result.Curve); i++ {
		require.GreaterOrEqual(t, result.Curve[i], result.Curve[i-1])
	}

	// The last hop closes the signal and has no stride left to drive.
	require.Equal(t, len(result.Curve), result.Hops[len(result.Hops)-1].End)

	increases := len(result.Hops) - 3
	expected := math.Pow(10, (0.2*float64(increases)+0.5)/20)
	last := result.Curve[len(result.Curve)-1]

	assert.InDelta(t, expected, last, 1e-6)
	assert.Less(t, last, 2.4*trim)
}

func TestSimulateQuietToneConvergesToMaxGain(t *testing.T) {
	t.Parallel()

	tone := audio.Sine(sampleRate, 1000, -30, 6)

	curve, err := autogain.Simulate(tone.Samples, len(tone.Samples), sampleRate, -18)
	require.NoError(t, err)

	for i := 1; i < len(curve); i++ {
		require.GreaterOrEqual(t, curve[i], curve[i-1])
		require.LessOrEqual(t, curve[i], 2.4*trim+tolerance)
	}

	assert.InDelta(t, 2.4*trim, curve[len(curve)-1], 1e-3)
}

func TestSimulateLoudToneFallsImmediately(t *testing.T) {
	t.Parallel()

	tone := audio.Sine(sampleRate, 1000, -6, 6)

	result, err := autogain.Trace(tone.Samples, len(tone.Samples), sampleRate, -18)
	require.NoError(t, err)

	// Decreases are never gated.
	assert.InDelta(t, -0.4, result.Hops[0].StepDb, tolerance)

	for i := 1; i < len(result.Curve); i++ {
		require.LessOrEqual(t, result.Curve[i], result.Curve[i-1])
	}

	assert.Greater(t, result.Curve[result.Hops[0].End-1], result.Curve[result.Hops[0].End])
	assert.InDelta(t, 0.6*trim, result.Curve[len(result.Curve)-1], 1e-3)
}

func TestSimulateNoIncreaseDuringLeadingSilence(t *testing.T) {
	t.Parallel()

	resume := sampleRate * 150 / 1000

	for _, silence := range []float64{1, 1.03, 0.5, float64(hopSamples) / sampleRate} {
		leading := audio.Silence(sampleRate, silence)
		onset := len(leading.Samples)
		signal := audio.Concat(leading, audio.Sine(sampleRate, 1000, -30, 2))

		curve, err := autogain.Simulate(signal.Samples, len(signal.Samples), sampleRate, -18)
		require.NoError(t, err)

		for i := range onset {
			require.InDelta(t, trim, curve[i], tolerance, "onset %d sample %d", onset, i)
		}

		firstIncrease := -1

		for i, value := range curve {
			if value > trim+tolerance {
				firstIncrease = i

				break
			}
		}

		// Increases resume only after 150 ms of actual signal, wherever the onset falls within a stride.
		require.GreaterOrEqual(t, firstIncrease, onset+resume, "onset %d", onset)
		assert.LessOrEqual(t, firstIncrease, onset+resume+2*hopSamples, "onset %d", onset)
	}
}

func TestSimulateStartsFrozenWithoutHistory(t *testing.T) {
	t.Parallel()

	signal := audio.Silence(sampleRate, 1)

	result, err := autogain.Trace(signal.Samples, len(signal.Samples), sampleRate, -18)
	require.NoError(t, err)
	require.Greater(t, len(result.Hops), 6)

	// Silence is accounted from the first hop, not assumed before it.
	for i, hop := range result.Hops[:6] {
		assert.Equal(t, autogain.IncreaseFrozen, hop.Gate)
		assert.InDelta(t, 70*float64(i+1), hop.BelowGateMs, 1e-6, "hop %d", i)
		assert.InDelta(t, 0, hop.AboveGateMs, 0)
		assert.InDelta(t, 0, hop.StepDb, 0)
	}
}

func TestSimulateFreezesAfterSustainedSilence(t *testing.T) {
	t.Parallel()

	offset := sampleRate
	signal := audio.Concat(audio.Sine(sampleRate, 1000, -18, 1), audio.Silence(sampleRate, 3))

	result, err := autogain.Trace(signal.Samples, len(signal.Samples), sampleRate, -18)
	require.NoError(t, err)

	// Window (400 ms) to flush the tone, hold (400 ms) to freeze, plus two hops of rounding.
	frozenFrom := offset + sampleRate*940/1000

	checked := 0
	for _, hop := range result.Hops {
		if hop.Start < frozenFrom {
			continue
		}

		assert.Equal(t, autogain.IncreaseFrozen, hop.Gate, "hop at %d", hop.Start)
		assert.LessOrEqual(t, hop.StepDb, 0.0)

		checked++
	}

	assert.Positive(t, checked)
}

func TestSimulateShortMeasureKeepsUnity(t *testing.T) {
	t.Parallel()

	measure := audio.Sine(sampleRate, 1000, -30, 0.1).Samples
	length := 2 * sampleRate

	result, err := autogain.Trace(measure, length, sampleRate, -18)
	require.NoError(t, err)
	require.Len(t, result.Curve, length)

	// Windows that no longer reach into the measurement are skipped.
	last := result.Hops[len(result.Hops)-1]
	for i := last.End + hopSamples; i < length; i++ {
		require.InDelta(t, 1.0, result.Curve[i], tolerance)
	}

	assert.Less(t, last.End+hopSamples, length)
}

func TestSimulateDeterministic(t *testing.T) {
	t.Parallel()

	signal := noise(42, 4)

	first, err := autogain.Simulate(signal.Samples, len(signal.Samples), sampleRate, -18)
	require.NoError(t, err)

	second, err := autogain.Simulate(signal.Samples, len(signal.Samples), sampleRate, -18)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestGateStateString(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "increase-allowed", autogain.IncreaseAllowed.String())
	assert.Equal(t, "increase-frozen", autogain.IncreaseFrozen.String())
}
