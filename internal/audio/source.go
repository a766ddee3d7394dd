package audio

import (
	"sync"
	"sync/atomic"
)

// trackSource wraps a decoder's PCM byte stream and, as bytes flow through,
// counts decoded samples, publishes whole elapsed seconds to a shared
// atomic, and feeds first-channel samples into the spectrum ring buffer.
// The bytes themselves pass through unmodified; playback never sees it.
//
// A trackSource lives for one playback session: it is created by Play and
// dropped when playback stops or is replaced.
type trackSource struct {
	src      decoder
	elapsed  *atomic.Int64
	spectrum *SharedSpectrum

	sampleRate int
	channels   int

	mu         sync.Mutex
	samples    int64 // decoded int16 samples seen so far
	channelIdx int
	carry      byte // pending low byte of a sample split across Reads
	hasCarry   bool
}

func newTrackSource(src decoder, elapsed *atomic.Int64, spectrum *SharedSpectrum) *trackSource {
	return &trackSource{
		src:        src,
		elapsed:    elapsed,
		spectrum:   spectrum,
		sampleRate: src.SampleRate(),
		channels:   src.ChannelCount(),
	}
}

func (t *trackSource) Read(p []byte) (int, error) {
	n, err := t.src.Read(p)
	if n > 0 {
		t.scan(p[:n])
	}
	return n, err
}

// scan walks the decoded bytes, reassembling little-endian int16 samples.
// An odd-length read leaves its trailing byte in carry for the next call.
func (t *trackSource) scan(b []byte) {
	t.mu.Lock()
	defer t.mu.Unlock()

	perSecond := int64(t.sampleRate) * int64(t.channels)
	for _, by := range b {
		if !t.hasCarry {
			t.carry = by
			t.hasCarry = true
			continue
		}
		sample := int16(uint16(t.carry) | uint16(by)<<8)
		t.hasCarry = false

		t.samples++

		// Only the first channel feeds the spectrum, to bound CPU cost.
		if t.channelIdx == 0 {
			t.spectrum.PushSample(float64(sample) / 32768.0)
		}
		t.channelIdx++
		if t.channelIdx == t.channels {
			t.channelIdx = 0
		}

		if t.samples%perSecond == 0 {
			t.elapsed.Store(t.samples / perSecond)
		}
	}
}

// Pos returns the count of output bytes consumed so far.
func (t *trackSource) Pos() int64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	n := t.samples * 2
	if t.hasCarry {
		n++
	}
	return n
}

// SetPos rewrites the tracking state after a decoder seek so position and
// channel phase stay truthful. off is an output byte offset, assumed
// frame-aligned.
func (t *trackSource) SetPos(off int64) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.samples = off / 2
	t.channelIdx = int(t.samples % int64(t.channels))
	t.hasCarry = false
	t.elapsed.Store(t.samples / (int64(t.sampleRate) * int64(t.channels)))
}
