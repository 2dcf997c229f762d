// Package loudness is an in-process ITU-R BS.1770 meter for mono signals: K-weighting, 400 ms momentary blocks
// on a 100 ms hop, absolute (-70 LUFS) and relative (-10 LU) gating, and EBU loudness range from 3 s windows.
package loudness

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/farcloser/boostbench/internal/types"
)

const (
	// Silence is reported when no block passes the gates.
	Silence = -120.0

	absoluteGate = -70.0
	relativeGate = -10.0
	rangeGate    = -20.0
)

// ErrInvalidSampleRate is returned for a non-positive sample rate.
var ErrInvalidSampleRate = errors.New("invalid sample rate")

// Biquad filter coefficients.
type biquad struct {
	b0, b1, b2 float64
	a1, a2     float64
}

// Biquad filter state.
type biquadState struct {
	z1, z2 float64
}

func (s *biquadState) process(b *biquad, in float64) float64 {
	out := b.b0*in + s.z1
	s.z1 = b.b1*in - b.a1*out + s.z2
	s.z2 = b.b2*in - b.a2*out

	return out
}

// K-weighting: pre-filter (high shelf) then RLB weighting (high pass), from the BS.1770-4 analog prototypes.
func kWeighting(sampleRate int) (pre, rlb biquad) {
	fs := float64(sampleRate)

	// Head-related high shelf
	f0 := 1681.974450955533
	gain := 3.999843853973347
	q := 0.7071752369554196

	k := math.Tan(math.Pi * f0 / fs)
	vh := math.Pow(10, gain/20)
	vb := math.Pow(vh, 0.4996667741545416)

	a0 := 1 + k/q + k*k
	pre.b0 = (vh + vb*k/q + k*k) / a0
	pre.b1 = 2 * (k*k - vh) / a0
	pre.b2 = (vh - vb*k/q + k*k) / a0
	pre.a1 = 2 * (k*k - 1) / a0
	pre.a2 = (1 - k/q + k*k) / a0

	// RLB high pass
	f0 = 38.13547087602444
	q = 0.5003270373238773

	k = math.Tan(math.Pi * f0 / fs)

	a0 = 1 + k/q + k*k
	rlb.b0 = 1 / a0
	rlb.b1 = -2 / a0
	rlb.b2 = 1 / a0
	rlb.a1 = 2 * (k*k - 1) / a0
	rlb.a2 = (1 - k/q + k*k) / a0

	return pre, rlb
}

// window is a running mean of squared weighted samples over a fixed length.
type window struct {
	buf    []float64
	pos    int
	filled int
	sum    float64
}

func newWindow(size int) *window {
	return &window{buf: make([]float64, max(size, 1))}
}

func (w *window) push(power float64) {
	w.sum += power - w.buf[w.pos]
	w.buf[w.pos] = power

	w.pos = (w.pos + 1) % len(w.buf)
	if w.filled < len(w.buf) {
		w.filled++
	}
}

func (w *window) full() bool {
	return w.filled == len(w.buf)
}

func (w *window) mean() float64 {
	return w.sum / float64(len(w.buf))
}

func toLUFS(power float64) float64 {
	return -0.691 + 10*math.Log10(power)
}

// Analyze measures a mono signal normalized to [-1, 1].
// Signals shorter than one momentary block (400 ms) report Silence.
func Analyze(samples []float64, sampleRate int) (*types.LoudnessResult, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidSampleRate, sampleRate)
	}

	pre, rlb := kWeighting(sampleRate)

	var preState, rlbState biquadState

	momentary := newWindow(sampleRate * 400 / 1000)
	shortTerm := newWindow(sampleRate * 3)
	hopSize := max(sampleRate*100/1000, 1)

	var momentaryPowers, shortTermPowers []float64

	momentaryMax := Silence
	shortTermMax := Silence

	for i, sample := range samples {
		filtered := rlbState.process(&rlb, preState.process(&pre, sample))
		power := filtered * filtered

		momentary.push(power)
		shortTerm.push(power)

		if (i+1)%hopSize != 0 {
			continue
		}

		if momentary.full() {
			p := momentary.mean()
			momentaryPowers = append(momentaryPowers, p)
			momentaryMax = math.Max(momentaryMax, toLUFS(p))
		}

		if shortTerm.full() {
			p := shortTerm.mean()
			shortTermPowers = append(shortTermPowers, p)
			shortTermMax = math.Max(shortTermMax, toLUFS(p))
		}
	}

	return &types.LoudnessResult{
		IntegratedLUFS: integrated(momentaryPowers),
		MomentaryMax:   momentaryMax,
		ShortTermMax:   shortTermMax,
		LoudnessRange:  loudnessRange(shortTermPowers),
		Frames:         uint64(len(samples)),
	}, nil
}

func integrated(powers []float64) float64 {
	gatedMean := func(threshold float64) (float64, bool) {
		var (
			sum   float64
			count int
		)

		for _, p := range powers {
			if toLUFS(p) > threshold {
				sum += p
				count++
			}
		}

		if count == 0 {
			return 0, false
		}

		return sum / float64(count), true
	}

	ungated, ok := gatedMean(absoluteGate)
	if !ok {
		return Silence
	}

	gated, ok := gatedMean(toLUFS(ungated) + relativeGate)
	if !ok {
		return Silence
	}

	return toLUFS(gated)
}

// loudnessRange is the spread between the 10th and 95th percentile of gated short-term loudness. The relative
// gate sits below the energy mean of the absolutely gated blocks.
func loudnessRange(powers []float64) float64 {
	var (
		values []float64
		sum    float64
	)

	for _, p := range powers {
		if l := toLUFS(p); l > absoluteGate {
			values = append(values, l)
			sum += p
		}
	}

	if len(values) < 2 {
		return 0
	}

	threshold := toLUFS(sum/float64(len(values))) + rangeGate

	gated := values[:0]

	for _, l := range values {
		if l > threshold {
			gated = append(gated, l)
		}
	}

	if len(gated) < 2 {
		return 0
	}

	sort.Float64s(gated)

	return gated[int(float64(len(gated))*0.95)] - gated[int(float64(len(gated))*0.10)]
}
