// Package bandpass band-limits a signal before RMS estimation: a 2nd-order Butterworth high-pass at 120 Hz
// followed by a 2nd-order Butterworth low-pass at 6 kHz. The output only feeds level measurement.
package bandpass

import (
	"errors"
	"fmt"
	"math"
)

const (
	// HighpassHz removes rumble and handling noise.
	HighpassHz = 120.0
	// LowpassHz removes hiss above the speech band.
	LowpassHz = 6000.0

	butterworthQ = 1 / math.Sqrt2
)

// ErrInvalidSampleRate is returned when the sample rate is not positive or cannot represent the cutoffs.
var ErrInvalidSampleRate = errors.New("invalid sample rate for bandpass")

// Biquad filter coefficients, normalized so a0 = 1.
type biquad struct {
	b0, b1, b2 float64
	a1, a2     float64
}

// Biquad filter state.
type biquadState struct {
	z1, z2 float64
}

// process runs one sample through the transposed direct form II section.
func (s *biquadState) process(b *biquad, in float64) float64 {
	out := b.b0*in + s.z1
	s.z1 = b.b1*in - b.a1*out + s.z2
	s.z2 = b.b2*in - b.a2*out

	return out
}

// RBJ cookbook high-pass. With Q = 1/sqrt(2) this is the bilinear Butterworth.
func highpass(freq, q, sampleRate float64) biquad {
	w0 := 2 * math.Pi * freq / sampleRate
	cw := math.Cos(w0)
	alpha := math.Sin(w0) / (2 * q)
	a0 := 1 + alpha

	return biquad{
		b0: (1 + cw) / 2 / a0,
		b1: -(1 + cw) / a0,
		b2: (1 + cw) / 2 / a0,
		a1: -2 * cw / a0,
		a2: (1 - alpha) / a0,
	}
}

// RBJ cookbook low-pass.
func lowpass(freq, q, sampleRate float64) biquad {
	w0 := 2 * math.Pi * freq / sampleRate
	cw := math.Cos(w0)
	alpha := math.Sin(w0) / (2 * q)
	a0 := 1 + alpha

	return biquad{
		b0: (1 - cw) / 2 / a0,
		b1: (1 - cw) / a0,
		b2: (1 - cw) / 2 / a0,
		a1: -2 * cw / a0,
		a2: (1 - alpha) / a0,
	}
}

// Filter returns a same-length copy of samples passed through the high-pass then the low-pass section.
func Filter(samples []float64, sampleRate int) ([]float64, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("%w: %d Hz", ErrInvalidSampleRate, sampleRate)
	}

	nyquist := float64(sampleRate) / 2
	if HighpassHz >= nyquist || LowpassHz >= nyquist {
		return nil, fmt.Errorf("%w: %d Hz (cutoffs %.0f/%.0f Hz must be below Nyquist %.0f Hz)",
			ErrInvalidSampleRate, sampleRate, HighpassHz, LowpassHz, nyquist)
	}

	fs := float64(sampleRate)
	hp := highpass(HighpassHz, butterworthQ, fs)
	lp := lowpass(LowpassHz, butterworthQ, fs)

	var hpState, lpState biquadState

	out := make([]float64, len(samples))
	for i, x := range samples {
		out[i] = lpState.process(&lp, hpState.process(&hp, x))
	}

	return out, nil
}
