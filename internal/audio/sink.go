package audio

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"
)

const (
	outputSampleRate = 44100
	outputChannels   = 2
	outputDepthBytes = 2 // 16-bit
)

// The process gets exactly one oto context; it is created on first use and
// lives until exit.
var (
	outputCtx     *oto.Context
	outputCtxOnce sync.Once
	outputCtxErr  error
)

func outputContext() (*oto.Context, error) {
	outputCtxOnce.Do(func() {
		op := &oto.NewContextOptions{
			SampleRate:   outputSampleRate,
			ChannelCount: outputChannels,
			Format:       oto.FormatSignedInt16LE,
		}
		var ready chan struct{}
		outputCtx, ready, outputCtxErr = oto.NewContext(op)
		if outputCtxErr == nil {
			<-ready
		}
	})
	return outputCtx, outputCtxErr
}

// audioSink receives one decoded source at a time and drives the output
// device: load, pause/resume, volume, best-effort seeking, and the empty
// query used to detect natural end of track.
type audioSink interface {
	Load(dec decoder, src *trackSource) error
	Pause()
	Resume()
	Stop()
	SetVolume(v float64)
	TrySeek(pos time.Duration) error
	Empty() bool
}

// otoSink is the real device sink. The device player is created per Load
// and discarded on Stop, so a stopped sink starts the next track clean.
// All methods run on the control path; none block beyond oto's own latency.
type otoSink struct {
	player *oto.Player
	dec    decoder
	src    *trackSource
	volume float64
	paused bool
}

func newOtoSink() *otoSink {
	return &otoSink{volume: 1.0}
}

func (s *otoSink) Load(dec decoder, src *trackSource) error {
	ctx, err := outputContext()
	if err != nil {
		return fmt.Errorf("opening audio device: %w", err)
	}

	s.discard()
	s.dec = dec
	s.src = src
	s.paused = false
	s.player = ctx.NewPlayer(src)
	s.player.SetVolume(s.volume)
	s.player.Play()
	return nil
}

func (s *otoSink) Pause() {
	if s.player != nil {
		s.player.Pause()
		s.paused = true
	}
}

func (s *otoSink) Resume() {
	if s.player != nil {
		s.player.Play()
		s.paused = false
	}
}

func (s *otoSink) Stop() {
	s.discard()
	s.dec = nil
	s.src = nil
	s.paused = false
}

func (s *otoSink) SetVolume(v float64) {
	s.volume = v
	if s.player != nil {
		s.player.SetVolume(v)
	}
}

// TrySeek seeks the decoder to pos and swaps in a fresh device player so
// already-buffered audio is flushed. Non-seekable sources return an error;
// the caller treats seek failures as informational.
func (s *otoSink) TrySeek(pos time.Duration) error {
	if s.player == nil || s.dec == nil {
		return fmt.Errorf("nothing loaded")
	}
	total := s.dec.Length()
	if total < 0 {
		return fmt.Errorf("source is not seekable")
	}

	bytesPerSec := int64(s.dec.SampleRate() * s.dec.ChannelCount() * outputDepthBytes)
	frameSize := int64(s.dec.ChannelCount() * outputDepthBytes)
	off := clampSeekByteOffset(pos, bytesPerSec, total, frameSize)

	if _, err := s.dec.Seek(off, io.SeekStart); err != nil {
		return fmt.Errorf("seeking: %w", err)
	}
	s.src.SetPos(off)

	ctx, err := outputContext()
	if err != nil {
		return err
	}
	wasPaused := s.paused
	s.player.Pause()
	_ = s.player.Close()
	s.player = ctx.NewPlayer(s.src)
	s.player.SetVolume(s.volume)
	if !wasPaused {
		s.player.Play()
	}
	return nil
}

// Empty reports whether the sink has no pending audio. Sources of unknown
// length never report empty.
func (s *otoSink) Empty() bool {
	if s.player == nil {
		return true
	}
	total := s.dec.Length()
	if total < 0 {
		return false
	}
	return s.src.Pos() >= total && s.player.BufferedSize() == 0
}

func (s *otoSink) discard() {
	if s.player != nil {
		s.player.Pause()
		_ = s.player.Close()
		s.player = nil
	}
}

// clampSeekByteOffset converts a seek target to an output byte offset,
// clamped to [0, total] and aligned down to a frame boundary.
func clampSeekByteOffset(pos time.Duration, bytesPerSec, total, frameSize int64) int64 {
	off := int64(pos.Seconds() * float64(bytesPerSec))
	if off < 0 {
		off = 0
	}
	if off > total {
		off = total
	}
	return off - off%frameSize
}
