// Package audio loads, writes, aligns and synthesizes mono signals.
package audio

import (
	"math"

	"github.com/farcloser/boostbench/internal/types"
)

// Trim truncates both signals to the shorter length. The returned signals share backing arrays with the inputs.
func Trim(a, b types.Signal) (types.Signal, types.Signal) {
	n := min(len(a.Samples), len(b.Samples))

	return types.Signal{Samples: a.Samples[:n], SampleRate: a.SampleRate},
		types.Signal{Samples: b.Samples[:n], SampleRate: b.SampleRate}
}

// ApplyGain multiplies the signal elementwise by curve, over the shorter of the two lengths.
func ApplyGain(signal types.Signal, curve []float64) types.Signal {
	n := min(len(signal.Samples), len(curve))
	out := make([]float64, n)

	for i := range n {
		out[i] = signal.Samples[i] * curve[i]
	}

	return types.Signal{Samples: out, SampleRate: signal.SampleRate}
}

// Sine generates a sine tone whose RMS level is rmsDb dBFS.
func Sine(sampleRate int, freqHz, rmsDb, seconds float64) types.Signal {
	n := int(float64(sampleRate) * seconds)
	amplitude := math.Sqrt2 * math.Pow(10, rmsDb/20)
	samples := make([]float64, n)

	for i := range samples {
		samples[i] = amplitude * math.Sin(2*math.Pi*freqHz*float64(i)/float64(sampleRate))
	}

	return types.Signal{Samples: samples, SampleRate: sampleRate}
}

// Silence generates digital silence.
func Silence(sampleRate int, seconds float64) types.Signal {
	return types.Signal{
		Samples:    make([]float64, int(float64(sampleRate)*seconds)),
		SampleRate: sampleRate,
	}
}

// Concat joins signals sharing the sample rate of the first one.
func Concat(parts ...types.Signal) types.Signal {
	if len(parts) == 0 {
		return types.Signal{}
	}

	var total int
	for _, p := range parts {
		total += len(p.Samples)
	}

	samples := make([]float64, 0, total)
	for _, p := range parts {
		samples = append(samples, p.Samples...)
	}

	return types.Signal{Samples: samples, SampleRate: parts[0].SampleRate}
}

// Delay prepends n samples of silence, keeping the original length.
func Delay(signal types.Signal, n int) types.Signal {
	out := make([]float64, len(signal.Samples))
	if n < len(out) {
		copy(out[n:], signal.Samples)
	}

	return types.Signal{Samples: out, SampleRate: signal.SampleRate}
}
