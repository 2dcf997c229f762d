//nolint:staticcheck // too dumb on Db vs. DB
package types

type BitDepth uint

const (
	Depth16 BitDepth = 16
	Depth24 BitDepth = 24
	Depth32 BitDepth = 32
)

// PCMFormat of raw interleaved PCM, as produced by ffmpeg extraction.
type PCMFormat struct {
	SampleRate int
	BitDepth   BitDepth
	Channels   uint
}

// Signal is a mono sequence of normalized samples (-1.0 to 1.0) at a fixed sample rate.
// Analyzers never modify Samples.
type Signal struct {
	Samples    []float64
	SampleRate int
}

// Duration returns the signal length in seconds.
func (s Signal) Duration() float64 {
	if s.SampleRate <= 0 {
		return 0
	}

	return float64(len(s.Samples)) / float64(s.SampleRate)
}

// ClippingDetection contains clipping results for a float signal.
type ClippingDetection struct {
	Percent        float64 // share of samples at or above the threshold, 0-100
	ClippedSamples uint64
	Events         uint64 // runs of two or more consecutive clipped samples
	LongestRun     uint64
	Samples        uint64
	Threshold      float64
}

// TruePeakResult contains sample and inter-sample peak measurements.
type TruePeakResult struct {
	TruePeakDb   float64 // dBTP, 4x oversampled
	SamplePeakDb float64 // dBFS
	ISPCount     uint64  // interpolated values above full scale
	ISPMaxDb     float64 // worst overshoot above full scale
	Samples      uint64
}

/*
Intelligibility Interpretation (STOI)

| Score       | Interpretation                                   |
|-------------|--------------------------------------------------|
| > 0.95      | Transparent. Processing preserved the envelope.  |
| 0.85 - 0.95 | Good. Minor temporal smearing.                   |
| 0.70 - 0.85 | Degraded. Compression/limiting audibly pumping.  |
| < 0.70      | Poor. Speech envelope damaged.                   |

Scores come from aligned, equal-length signals; a large latency will depress the score.
*/

// IntelligibilityResult contains STOI results.
type IntelligibilityResult struct {
	Score    float64
	Frames   int // STFT frames kept after silent-frame removal
	Segments int // 30-frame analysis segments
}

// LatencyResult contains the cross-correlation alignment.
type LatencyResult struct {
	LagSamples  int     // positive = processed lags the reference
	LatencyMs   float64 // LagSamples converted at the sample rate
	Correlation float64 // peak correlation normalized by both signal energies
}

// StabilityResult contains the block loudness stability estimate.
type StabilityResult struct {
	BlockDb  []float64 // RMS dBFS per one-second block
	Variance float64   // population variance of consecutive block differences (dB^2)
}

// LoudnessResult contains in-process BS.1770 measurements.
type LoudnessResult struct {
	IntegratedLUFS float64 // overall loudness (gated)
	MomentaryMax   float64 // max 400ms window
	ShortTermMax   float64 // max 3s window
	LoudnessRange  float64 // LRA in LU
	Frames         uint64
}
