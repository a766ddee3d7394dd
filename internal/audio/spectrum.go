package audio

import (
	"math"
	"math/cmplx"
	"sync"

	"gonum.org/v1/gonum/dsp/fourier"
)

const (
	// fftSize is the analysis window length in samples. Must be a power of 2.
	fftSize = 2048

	// NumBars is the number of frequency buckets produced by Analyze.
	NumBars = 32

	// smoothing controls bar decay: 0 is instant, 1 never decays.
	smoothing = 0.7

	minFreq = 20.0
	maxFreq = 20000.0

	// Bin mapping assumes this rate regardless of the source stream.
	// Tracks at other rates get a skewed bar-to-frequency mapping.
	assumedSampleRate = 44100.0
)

// SampleBuffer is a fixed-capacity ring of the most recent mono samples.
// It is not safe for concurrent use on its own; SharedSpectrum guards it.
type SampleBuffer struct {
	samples  [fftSize]float64
	writePos int
}

// Push overwrites the oldest sample with v.
func (b *SampleBuffer) Push(v float64) {
	b.samples[b.writePos] = v
	b.writePos = (b.writePos + 1) % fftSize
}

// CopyInto writes all fftSize samples into dst in chronological order,
// oldest first. len(dst) must be at least fftSize.
func (b *SampleBuffer) CopyInto(dst []float64) {
	n := copy(dst, b.samples[b.writePos:])
	copy(dst[n:], b.samples[:b.writePos])
}

// SharedSpectrum is the handle shared between the audio-producing path and
// the UI path. It bundles the sample ring buffer with a bars side channel
// that stop() zeroes; analyzer output is returned to the caller directly.
type SharedSpectrum struct {
	mu  sync.Mutex
	buf SampleBuffer

	barsMu sync.Mutex
	bars   []float64
}

// NewSharedSpectrum creates an empty spectrum handle.
func NewSharedSpectrum() *SharedSpectrum {
	return &SharedSpectrum{bars: make([]float64, NumBars)}
}

// PushSample appends one mono sample to the ring buffer. Called once per
// first-channel sample from the audio path; the critical section performs
// no allocation.
func (s *SharedSpectrum) PushSample(v float64) {
	s.mu.Lock()
	s.buf.Push(v)
	s.mu.Unlock()
}

// copySamples snapshots the ring buffer into dst in chronological order.
func (s *SharedSpectrum) copySamples(dst []float64) {
	s.mu.Lock()
	s.buf.CopyInto(dst)
	s.mu.Unlock()
}

// Clear zeroes the bars side channel. The sample ring buffer is left alone:
// stale samples decay out of view as the analyzer's bars fall and fresh
// audio overwrites them.
func (s *SharedSpectrum) Clear() {
	s.barsMu.Lock()
	for i := range s.bars {
		s.bars[i] = 0
	}
	s.barsMu.Unlock()
}

// Analyzer turns the shared sample buffer into NumBars display bars:
// Hann window, forward FFT, logarithmic frequency bucketing, dB
// normalization, and asymmetric attack/decay smoothing.
//
// An Analyzer is bound to one SharedSpectrum and is not safe for concurrent
// use; the UI loop is its only caller.
type Analyzer struct {
	spectrum *SharedSpectrum
	plan     *fourier.FFT
	window   []float64

	samples  []float64
	coeffs   []complex128
	mags     []float64
	bars     []float64
	smoothed []float64
}

// NewAnalyzer creates an analyzer reading from sp.
func NewAnalyzer(sp *SharedSpectrum) *Analyzer {
	window := make([]float64, fftSize)
	for i := range window {
		window[i] = 0.5 * (1.0 - math.Cos(2.0*math.Pi*float64(i)/float64(fftSize-1)))
	}
	return &Analyzer{
		spectrum: sp,
		plan:     fourier.NewFFT(fftSize),
		window:   window,
		samples:  make([]float64, fftSize),
		coeffs:   make([]complex128, fftSize/2+1),
		mags:     make([]float64, fftSize/2),
		bars:     make([]float64, NumBars),
		smoothed: make([]float64, NumBars),
	}
}

// Analyze runs one analysis pass and returns the smoothed bars, each in
// [0,1]. The returned slice is reused across calls; treat it as a snapshot
// valid until the next call. Safe to call on every UI tick regardless of
// playback state: a silent or stale buffer yields near-zero or decaying
// bars, never an error.
func (a *Analyzer) Analyze() []float64 {
	a.spectrum.copySamples(a.samples)

	for i := range a.samples {
		a.samples[i] *= a.window[i]
	}

	a.coeffs = a.plan.Coefficients(a.coeffs, a.samples)

	half := fftSize / 2
	norm := math.Sqrt(float64(fftSize))
	for i := range half {
		a.mags[i] = cmplx.Abs(a.coeffs[i]) / norm
	}

	// Average magnitudes over logarithmically spaced frequency ranges so
	// low frequencies, where music concentrates, get more resolution.
	for bar := range NumBars {
		a.bars[bar] = 0

		lowBin := int(barFrequency(bar) * fftSize / assumedSampleRate)
		highBin := int(barFrequency(bar+1) * fftSize / assumedSampleRate)
		if highBin > half-1 {
			highBin = half - 1
		}
		if lowBin >= half || lowBin > highBin {
			continue
		}

		sum := 0.0
		for i := lowBin; i <= highBin; i++ {
			sum += a.mags[i]
		}
		a.bars[bar] = sum / float64(highBin-lowBin+1)
	}

	// Map a -60 dB..0 dB window onto [0,1]. Exact zeros stay zero so
	// silence never hits log10(0).
	for i, v := range a.bars {
		if v > 0 {
			db := 20.0 * math.Log10(v)
			a.bars[i] = clamp((db+60.0)/60.0, 0.0, 1.0)
		}
	}

	// Instant attack, slow release.
	for i, v := range a.bars {
		if v > a.smoothed[i] {
			a.smoothed[i] = v
		} else {
			a.smoothed[i] = a.smoothed[i]*smoothing + v*(1-smoothing)
		}
	}

	return a.smoothed
}

// barFrequency returns the lower frequency bound of the given bar on a
// logarithmic scale from minFreq to maxFreq.
func barFrequency(bar int) float64 {
	t := float64(bar) / float64(NumBars)
	return minFreq * math.Pow(maxFreq/minFreq, t)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
