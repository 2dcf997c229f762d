// Package intelligibility computes the short-time objective intelligibility (STOI) of a processed speech signal
// against its clean reference.
//
// The measure follows the classic definition: silent frames (more than 40 dB below the loudest reference frame)
// are dropped from both signals, both are decomposed into 15 one-third-octave bands starting at 150 Hz, and the
// band envelopes of 30-frame segments (384 ms) are correlated after normalizing the processed envelope to the
// reference energy and clipping it at -15 dB signal-to-distortion. The score is the mean correlation over all
// bands and segments.
//
// The measure runs at 10 kHz with 256-sample frames and a 512-point FFT. Signals at other rates are resampled
// to 10 kHz first.
package intelligibility

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/floats"

	"github.com/farcloser/boostbench/internal/types"
)

const (
	// Insufficient is the score for signals holding fewer than one segment of non-silent frames.
	Insufficient = 1e-5

	referenceRate  = 10000
	frameSize      = 256
	fftSize        = 512
	numBands       = 15
	minFreq        = 150.0
	segmentFrames  = 30
	betaDb         = -15.0
	dynamicRangeDb = 40.0
)

var (
	// ErrInvalidSampleRate is returned for a non-positive sample rate.
	ErrInvalidSampleRate = errors.New("invalid sample rate")
	// ErrLengthMismatch is returned when the signals are not aligned to the same length.
	ErrLengthMismatch = errors.New("signals must have the same length")

	eps = math.Nextafter(1, 2) - 1
)

// STOI returns the intelligibility score of degraded against reference, typically in [0, 1].
func STOI(reference, degraded []float64, sampleRate int) (float64, error) {
	result, err := Analyze(reference, degraded, sampleRate)
	if err != nil {
		return 0, err
	}

	return result.Score, nil
}

// Analyze computes STOI and reports how many frames and segments contributed.
func Analyze(reference, degraded []float64, sampleRate int) (*types.IntelligibilityResult, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidSampleRate, sampleRate)
	}

	if len(reference) != len(degraded) {
		return nil, fmt.Errorf("%w: %d vs %d", ErrLengthMismatch, len(reference), len(degraded))
	}

	hop := frameSize / 2
	obm := thirdOctaveBands(referenceRate, fftSize)

	x, y := removeSilentFrames(resample(reference, sampleRate, referenceRate),
		resample(degraded, sampleRate, referenceRate), frameSize, hop)

	stft := newAnalyzer(frameSize, fftSize)
	xBands := stft.bandEnvelopes(x, hop, obm)
	yBands := stft.bandEnvelopes(y, hop, obm)

	frames := len(xBands[0])
	if frames < segmentFrames {
		return &types.IntelligibilityResult{Score: Insufficient, Frames: frames}, nil
	}

	clip := 1 + math.Pow(10, -betaDb/20)
	xs := make([]float64, segmentFrames)
	ys := make([]float64, segmentFrames)

	var sum float64

	segments := frames - segmentFrames + 1

	for m := segmentFrames; m <= frames; m++ {
		for band := range numBands {
			copy(xs, xBands[band][m-segmentFrames:m])
			copy(ys, yBands[band][m-segmentFrames:m])

			// Match the processed envelope energy to the reference, then bound its distortion.
			scale := floats.Norm(xs, 2) / (floats.Norm(ys, 2) + eps)
			for i := range ys {
				ys[i] = math.Min(ys[i]*scale, xs[i]*clip)
			}

			sum += correlation(xs, ys)
		}
	}

	return &types.IntelligibilityResult{
		Score:    sum / float64(segments*numBands),
		Frames:   frames,
		Segments: segments,
	}, nil
}

// correlation is the sample correlation coefficient of a and b. Both slices are modified in place.
func correlation(a, b []float64) float64 {
	floats.AddConst(-floats.Sum(a)/float64(len(a)), a)
	floats.AddConst(-floats.Sum(b)/float64(len(b)), b)

	floats.Scale(1/(floats.Norm(a, 2)+eps), a)
	floats.Scale(1/(floats.Norm(b, 2)+eps), b)

	return floats.Dot(a, b)
}

// hann is the symmetric Hann window of size n without its zero end points.
func hann(n int) []float64 {
	w := make([]float64, n)
	for i := range w {
		w[i] = 0.5 - 0.5*math.Cos(2*math.Pi*float64(i+1)/float64(n+1))
	}

	return w
}

// removeSilentFrames drops the frames whose reference energy lies more than the dynamic range below the
// loudest reference frame, and rebuilds both signals by overlap-add of the kept windowed frames.
func removeSilentFrames(x, y []float64, frame, hop int) ([]float64, []float64) {
	window := hann(frame)

	var starts []int
	for i := 0; i < len(x)-frame; i += hop {
		starts = append(starts, i)
	}

	if len(starts) == 0 {
		return nil, nil
	}

	buf := make([]float64, frame)
	energies := make([]float64, len(starts))

	for f, start := range starts {
		floats.MulTo(buf, window, x[start:start+frame])
		energies[f] = 20 * math.Log10(floats.Norm(buf, 2)+eps)
	}

	threshold := floats.Max(energies) - dynamicRangeDb

	var kept []int

	for f, energy := range energies {
		if energy > threshold {
			kept = append(kept, starts[f])
		}
	}

	size := (len(kept)-1)*hop + frame
	xOut := make([]float64, size)
	yOut := make([]float64, size)

	for k, start := range kept {
		offset := k * hop
		for i := range frame {
			xOut[offset+i] += window[i] * x[start+i]
			yOut[offset+i] += window[i] * y[start+i]
		}
	}

	return xOut, yOut
}

// thirdOctaveBands returns, per band, the half-open FFT bin range it sums over.
func thirdOctaveBands(sampleRate, nfft int) [][2]int {
	binHz := float64(sampleRate) / float64(nfft)
	bins := nfft/2 + 1

	nearest := func(freq float64) int {
		return min(int(math.Round(freq/binHz)), bins-1)
	}

	bands := make([][2]int, numBands)

	for k := range numBands {
		low := minFreq * math.Pow(2, float64(2*k-1)/6)
		high := minFreq * math.Pow(2, float64(2*k+1)/6)

		bands[k] = [2]int{nearest(low), nearest(high)}
	}

	return bands
}

// resample converts signal between sample rates by truncating or zero-padding its spectrum, which also drops
// everything above the lower Nyquist frequency. The signal is zero-padded to a length whose transform sizes
// factor into 2, 3 and 5, and the output is cut back to the converted duration.
func resample(signal []float64, from, to int) []float64 {
	if from == to || len(signal) == 0 {
		return signal
	}

	divisor := gcd(from, to)
	down, up := from/divisor, to/divisor

	blocks := smoothAtLeast((len(signal) + down - 1) / down)
	n, m := blocks*down, blocks*up

	input := make([]float64, n)
	copy(input, signal)

	spectrum := fourier.NewFFT(n).Coefficients(nil, input)
	shaped := make([]complex128, m/2+1)
	copy(shaped, spectrum)

	// A component at the shared Nyquist frequency is split between, or folded from, both spectrum halves.
	if half := min(n, m) / 2; min(n, m)%2 == 0 {
		if m < n {
			shaped[half] = complex(2*real(spectrum[half]), 0)
		} else {
			shaped[half] = spectrum[half] / 2
		}
	}

	out := fourier.NewFFT(m).Sequence(nil, shaped)
	floats.Scale(1/float64(n), out)

	return out[:min(int(math.Round(float64(len(signal))*float64(up)/float64(down))), m)]
}

func gcd(a, b int) int {
	for b != 0 {
		a, b = b, a%b
	}

	return a
}

// smoothAtLeast returns the smallest n' >= n (n > 0) with no prime factor above 5.
func smoothAtLeast(n int) int {
	for ; ; n++ {
		rest := n
		for _, p := range []int{2, 3, 5} {
			for rest%p == 0 {
				rest /= p
			}
		}

		if rest == 1 {
			return n
		}
	}
}

type analyzer struct {
	fft    *fourier.FFT
	window []float64
	input  []float64
	coeffs []complex128
	power  []float64
}

func newAnalyzer(frame, nfft int) *analyzer {
	return &analyzer{
		fft:    fourier.NewFFT(nfft),
		window: hann(frame),
		input:  make([]float64, nfft),
		coeffs: make([]complex128, nfft/2+1),
		power:  make([]float64, nfft/2+1),
	}
}

// bandEnvelopes returns the one-third-octave magnitude envelopes, indexed [band][frame].
func (a *analyzer) bandEnvelopes(signal []float64, hop int, bands [][2]int) [][]float64 {
	frame := len(a.window)
	envelopes := make([][]float64, len(bands))

	for start := 0; start < len(signal)-frame; start += hop {
		floats.MulTo(a.input[:frame], a.window, signal[start:start+frame])
		a.coeffs = a.fft.Coefficients(a.coeffs, a.input)

		for i, c := range a.coeffs {
			a.power[i] = real(c)*real(c) + imag(c)*imag(c)
		}

		for b, r := range bands {
			envelopes[b] = append(envelopes[b], math.Sqrt(floats.Sum(a.power[r[0]:r[1]])))
		}
	}

	return envelopes
}
