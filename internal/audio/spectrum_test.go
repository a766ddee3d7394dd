package audio

import (
	"math"
	"testing"
)

func TestSampleBufferPartialFillIsChronological(t *testing.T) {
	var b SampleBuffer
	const n = 100
	for i := range n {
		b.Push(float64(i + 1))
	}

	out := make([]float64, fftSize)
	b.CopyInto(out)

	if len(out) != fftSize {
		t.Fatalf("expected %d samples, got %d", fftSize, len(out))
	}
	for i := range fftSize - n {
		if out[i] != 0 {
			t.Fatalf("expected zero-fill at index %d, got %v", i, out[i])
		}
	}
	for i := range n {
		want := float64(i + 1)
		if got := out[fftSize-n+i]; got != want {
			t.Fatalf("expected sample %v at tail index %d, got %v", want, i, got)
		}
	}
}

func TestSampleBufferWrapKeepsMostRecent(t *testing.T) {
	var b SampleBuffer
	total := fftSize + 10
	for i := range total {
		b.Push(float64(i))
	}

	out := make([]float64, fftSize)
	b.CopyInto(out)

	if out[0] != 10 {
		t.Fatalf("expected oldest surviving sample 10, got %v", out[0])
	}
	if out[fftSize-1] != float64(total-1) {
		t.Fatalf("expected newest sample %d, got %v", total-1, out[fftSize-1])
	}
}

func TestAnalyzeSilenceYieldsZeroBars(t *testing.T) {
	sp := NewSharedSpectrum()
	a := NewAnalyzer(sp)

	for range 2 {
		bars := a.Analyze()
		if len(bars) != NumBars {
			t.Fatalf("expected %d bars, got %d", NumBars, len(bars))
		}
		for i, v := range bars {
			if v != 0 {
				t.Fatalf("expected silent bar %d to be 0, got %v", i, v)
			}
		}
	}
}

func pushSine(sp *SharedSpectrum, freq float64) {
	for i := range fftSize {
		sp.PushSample(math.Sin(2 * math.Pi * freq * float64(i) / assumedSampleRate))
	}
}

// barFor returns the bar whose frequency range contains freq.
func barFor(freq float64) int {
	for i := range NumBars {
		if barFrequency(i) <= freq && freq < barFrequency(i+1) {
			return i
		}
	}
	return NumBars - 1
}

func TestAnalyzeSinePeaksAtItsFrequencyBar(t *testing.T) {
	sp := NewSharedSpectrum()
	a := NewAnalyzer(sp)
	pushSine(sp, 1000)

	bars := a.Analyze()

	peak := barFor(1000)
	for i, v := range bars {
		if i >= peak-2 && i <= peak+2 {
			continue
		}
		if bars[peak] <= v {
			t.Fatalf("expected bar %d (1 kHz) above bar %d: %v <= %v", peak, i, bars[peak], v)
		}
	}
	if bars[peak] <= 0 {
		t.Fatalf("expected positive energy at 1 kHz bar, got %v", bars[peak])
	}
}

func TestAnalyzeDecaysByOneSmoothingStep(t *testing.T) {
	sp := NewSharedSpectrum()
	a := NewAnalyzer(sp)
	pushSine(sp, 1000)

	peak := barFor(1000)
	first := a.Analyze()[peak]
	if first <= 0 {
		t.Fatalf("expected positive first reading, got %v", first)
	}

	// Overwrite the whole ring with silence; the raw bar drops to zero and
	// the smoothed bar should fall by exactly one decay step.
	for range fftSize {
		sp.PushSample(0)
	}
	second := a.Analyze()[peak]

	want := first * smoothing
	if math.Abs(second-want) > 1e-12 {
		t.Fatalf("expected one decay step %v, got %v", want, second)
	}
}

func TestClearZeroesBarsButKeepsSamples(t *testing.T) {
	sp := NewSharedSpectrum()
	pushSine(sp, 440)
	sp.Clear()

	for i, v := range sp.bars {
		if v != 0 {
			t.Fatalf("expected cleared bar %d, got %v", i, v)
		}
	}

	out := make([]float64, fftSize)
	sp.copySamples(out)
	allZero := true
	for _, v := range out {
		if v != 0 {
			allZero = false
			break
		}
	}
	if allZero {
		t.Fatal("expected sample ring buffer to survive Clear")
	}
}

func TestBarFrequencyEndpoints(t *testing.T) {
	if got := barFrequency(0); math.Abs(got-minFreq) > 1e-9 {
		t.Fatalf("expected first bar at %v Hz, got %v", minFreq, got)
	}
	if got := barFrequency(NumBars); math.Abs(got-maxFreq) > 1e-6 {
		t.Fatalf("expected last bound at %v Hz, got %v", maxFreq, got)
	}
}
