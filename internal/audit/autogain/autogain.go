// Package autogain simulates, in batch, the per-hop decision loop of the booster's online automatic gain control.
//
// Every hop the loop measures the RMS level of the band-limited signal over the trailing analysis window,
// derives the gain that would bring that level to the target, and moves the smoothed gain toward it in the dB
// domain with attack/release smoothing and per-hop rate limits. A silence gate freezes gain increases once the
// signal has stayed below the gate threshold long enough, and only re-enables them after the signal has stayed
// above it for the resume time.
//
// The result is a gain curve, one multiplier per input sample, held constant across each hop stride. A gain is
// only ever applied after the stride it was measured on.
package autogain

import (
	"errors"
	"fmt"
	"math"

	"github.com/farcloser/boostbench/internal/audit/shared"
)

var (
	// ErrInvalidSampleRate is returned for a non-positive sample rate.
	ErrInvalidSampleRate = errors.New("invalid sample rate")
	// ErrInvalidLength is returned for a negative output length.
	ErrInvalidLength = errors.New("invalid signal length")
)

// Config holds the control-loop constants. They mirror the extension and are not runtime tunables.
type Config struct {
	HopMs    float64 // control-loop period
	WindowMs float64 // RMS analysis window, may exceed the hop

	MinGain float64 // linear
	MaxGain float64 // linear

	AttackSec  float64 // time constant when the desired gain is above the current gain
	ReleaseSec float64 // time constant when the desired gain is at or below the current gain

	OutputTrimDb float64 // applied uniformly to the emitted curve

	SilenceDb       float64 // gate threshold, dBFS
	SilenceHoldMs   float64 // continuous time below the gate before increases freeze
	SilenceResumeMs float64 // continuous time above the gate before increases resume

	MaxUpDb   float64 // per-hop rise limit
	MaxDownDb float64 // per-hop fall limit (positive number)
}

// DefaultConfig returns the constants of the booster's control loop.
func DefaultConfig() Config {
	return Config{
		HopMs:           70,
		WindowMs:        400,
		MinGain:         0.6,
		MaxGain:         2.4,
		AttackSec:       0.3,
		ReleaseSec:      0.6,
		OutputTrimDb:    0.5,
		SilenceDb:       -52,
		SilenceHoldMs:   400,
		SilenceResumeMs: 150,
		MaxUpDb:         0.2,
		MaxDownDb:       0.4,
	}
}

// Hop records one iteration of the control loop.
type Hop struct {
	// Start, End is the stride closed by this hop. Its gain applies from End up to the next hop's End.
	Start, End int

	RmsDb       float64 // level of the trailing analysis window
	DesiredGain float64 // clamped gain that would reach the target
	ProposedDb  float64 // smoothed step before the gate and rate limits
	StepDb      float64 // step actually applied
	Gain        float64 // smoothed gain after the hop (without trim)

	BelowGateMs float64
	AboveGateMs float64
	Gate        GateState
}

// Result is the output of a traced simulation.
type Result struct {
	Curve []float64
	Hops  []Hop
}

// Simulate runs the control loop with DefaultConfig and returns a gain curve of exactly length samples.
// measure is the band-limited measurement signal; targetDb is the level the loop steers the window RMS to.
func Simulate(measure []float64, length, sampleRate int, targetDb float64) ([]float64, error) {
	result, err := DefaultConfig().Trace(measure, length, sampleRate, targetDb)
	if err != nil {
		return nil, err
	}

	return result.Curve, nil
}

// Trace runs the control loop with DefaultConfig, keeping the per-hop record.
func Trace(measure []float64, length, sampleRate int, targetDb float64) (*Result, error) {
	return DefaultConfig().Trace(measure, length, sampleRate, targetDb)
}

// Trace runs the control loop with this configuration.
//
// Hops advance from sample 0 by the hop size until length. Each hop measures the window of measure ending at
// the hop's end (clipped to the start of the signal and to len(measure)), and the gain it decides drives the
// following stride: the loop never applies a gain to the samples it was derived from. The first stride carries
// the initial gain. Strides after a hop whose window is empty keep unity gain.
//
// Time above the gate is counted from the position where the trailing window first reached the threshold, not
// from the start of the stride that contains the onset.
func (c Config) Trace(measure []float64, length, sampleRate int, targetDb float64) (*Result, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidSampleRate, sampleRate)
	}

	if length < 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidLength, length)
	}

	hop := max(int(float64(sampleRate)*c.HopMs/1000), 1)
	window := max(int(float64(sampleRate)*c.WindowMs/1000), 1)
	hopSec := float64(hop) / float64(sampleRate)
	msPerSample := 1000 / float64(sampleRate)

	attackCoeff := 1 - math.Exp(-hopSec/c.AttackSec)
	releaseCoeff := 1 - math.Exp(-hopSec/c.ReleaseSec)
	trim := dbToLinear(c.OutputTrimDb)

	curve := make([]float64, length)
	for i := range curve {
		curve[i] = 1
	}

	result := &Result{
		Curve: curve,
		Hops:  make([]Hop, 0, (length+hop-1)/hop),
	}

	gate := newGate(c.SilenceDb, c.SilenceHoldMs, c.SilenceResumeMs)
	current := clamp(1, c.MinGain, c.MaxGain)

	fill(curve, 0, hop, current*trim)

	for start := 0; start < length; start += hop {
		end := min(start+hop, length)

		windowEnd := min(end, len(measure))
		windowStart := max(end-window, 0)

		if windowStart >= windowEnd {
			continue
		}

		rmsDb := levelDb(measure[windowStart:windowEnd])

		elapsedMs := float64(end-start) * msPerSample
		if rmsDb >= c.SilenceDb && gate.aboveMs == 0 {
			elapsedMs = float64(end-firstAbove(measure, start, end, window, c.SilenceDb)) * msPerSample
		}

		gate.observe(rmsDb, elapsedMs)

		desired := clamp(dbToLinear(targetDb-rmsDb), c.MinGain, c.MaxGain)
		desiredDb := linearToDb(desired)
		currentDb := linearToDb(current)

		coeff := releaseCoeff
		if desired > current {
			coeff = attackCoeff
		}

		proposed := (desiredDb - currentDb) * coeff

		step := proposed
		if gate.state == IncreaseFrozen && step > 0 {
			step = 0
		}

		step = clamp(step, -c.MaxDownDb, c.MaxUpDb)
		current = clamp(dbToLinear(currentDb+step), c.MinGain, c.MaxGain)

		fill(curve, end, hop, current*trim)

		result.Hops = append(result.Hops, Hop{
			Start:       start,
			End:         end,
			RmsDb:       rmsDb,
			DesiredGain: desired,
			ProposedDb:  proposed,
			StepDb:      step,
			Gain:        current,
			BelowGateMs: gate.belowMs,
			AboveGateMs: gate.aboveMs,
			Gate:        gate.state,
		})
	}

	return result, nil
}

// fill writes value over [from, from+count), clipped to the curve.
func fill(curve []float64, from, count int, value float64) {
	for i := from; i < min(from+count, len(curve)); i++ {
		curve[i] = value
	}
}

// firstAbove returns the first position in (start, end] at which the level of the trailing window reaches
// thresholdDb, or end if it never does.
func firstAbove(measure []float64, start, end, window int, thresholdDb float64) int {
	var sumSquares float64

	for _, s := range measure[min(max(start-window, 0), len(measure)):min(start, len(measure))] {
		sumSquares += s * s
	}

	for pos := start + 1; pos <= end; pos++ {
		if added := pos - 1; added < len(measure) {
			sumSquares += measure[added] * measure[added]
		}

		if dropped := pos - 1 - window; dropped >= 0 && dropped < len(measure) {
			sumSquares -= measure[dropped] * measure[dropped]
		}

		lo, hi := max(pos-window, 0), min(pos, len(measure))
		if hi > lo && powerDb(math.Max(sumSquares, 0)/float64(hi-lo)) >= thresholdDb {
			return pos
		}
	}

	return end
}

// levelDb is the RMS level of a non-empty segment in dBFS, floored to stay finite on silence.
func levelDb(segment []float64) float64 {
	var sumSquares float64
	for _, s := range segment {
		sumSquares += s * s
	}

	return powerDb(sumSquares / float64(len(segment)))
}

// powerDb converts a mean square to dBFS with the same floors as levelDb.
func powerDb(meanSquare float64) float64 {
	rms := math.Sqrt(meanSquare + shared.Epsilon)

	return 20 * math.Log10(rms+shared.Epsilon)
}

func dbToLinear(db float64) float64 {
	return math.Pow(10, db/20)
}

func linearToDb(linear float64) float64 {
	return 20 * math.Log10(linear)
}

func clamp(value, low, high float64) float64 {
	return math.Max(low, math.Min(high, value))
}
