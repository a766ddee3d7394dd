// Package audio implements the playback engine: a state-machine player over
// a single output device, a position-tracking tap on the decode path, and a
// spectrum analyzer fed from the tap's ring buffer.
package audio

import (
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"time"
)

// State is the player's transport state.
type State int

const (
	StateStopped State = iota
	StatePlaying
	StatePaused
)

func (s State) String() string {
	switch s {
	case StatePlaying:
		return "playing"
	case StatePaused:
		return "paused"
	default:
		return "stopped"
	}
}

// Event is an informational playback notification. Events are advisory:
// transport state is authoritative through the query methods, and a full
// event channel drops rather than blocks.
type Event int

const (
	EventPlaying Event = iota
	EventPaused
	EventResumed
	EventStopped
	EventError
	EventVolumeChanged
)

const volumeStep = 0.05

// Player owns the output sink and exposes synchronous transport control to
// the UI loop. Position and the playing flag cross from the audio path as
// single-word atomics; everything else is guarded by one mutex with short
// critical sections, so every query returns in bounded time.
type Player struct {
	mu       sync.Mutex
	sink     audioSink
	state    State
	volume   float64
	path     string
	duration time.Duration
	file     *os.File

	elapsed atomic.Int64
	playing atomic.Bool

	spectrum *SharedSpectrum
	events   chan Event
}

// NewPlayer creates a stopped player. The audio device itself is opened
// lazily on the first Play, so construction cannot fail; device errors
// surface from Play.
func NewPlayer() *Player {
	return &Player{
		sink:     newOtoSink(),
		volume:   1.0,
		spectrum: NewSharedSpectrum(),
		events:   make(chan Event, 16),
	}
}

// Spectrum returns the shared handle feeding the analyzer. It is created
// once and reused across track changes.
func (p *Player) Spectrum() *SharedSpectrum { return p.spectrum }

// Events returns the informational event stream.
func (p *Player) Events() <-chan Event { return p.events }

// Play stops any current playback, opens and decodes path, and starts
// playing it. duration is the caller-supplied track length from metadata;
// it is not measured from the stream. Errors opening or decoding the file,
// or opening the output device, are returned and leave the player stopped.
func (p *Player) Play(path string, duration time.Duration) error {
	p.Stop()

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening %s: %w", path, err)
	}
	dec, err := newDecoder(f)
	if err != nil {
		f.Close()
		return err
	}

	p.mu.Lock()
	src := newTrackSource(dec, &p.elapsed, p.spectrum)
	if err := p.sink.Load(dec, src); err != nil {
		p.mu.Unlock()
		f.Close()
		return err
	}
	p.sink.SetVolume(p.volume)

	p.file = f
	p.path = path
	p.duration = duration
	p.state = StatePlaying
	p.mu.Unlock()

	p.playing.Store(true)
	p.emit(EventPlaying)
	return nil
}

// Pause pauses playback. A no-op unless currently playing.
func (p *Player) Pause() {
	p.mu.Lock()
	if p.state != StatePlaying {
		p.mu.Unlock()
		return
	}
	p.sink.Pause()
	p.state = StatePaused
	p.mu.Unlock()

	p.playing.Store(false)
	p.emit(EventPaused)
}

// Resume continues paused playback. A no-op unless currently paused.
func (p *Player) Resume() {
	p.mu.Lock()
	if p.state != StatePaused {
		p.mu.Unlock()
		return
	}
	p.sink.Resume()
	p.state = StatePlaying
	p.mu.Unlock()

	p.playing.Store(true)
	p.emit(EventResumed)
}

// TogglePause flips between playing and paused. A no-op when stopped.
func (p *Player) TogglePause() {
	switch p.State() {
	case StatePlaying:
		p.Pause()
	case StatePaused:
		p.Resume()
	}
}

// Stop unconditionally discards pending audio, resets position and
// duration, and clears the spectrum's bars side channel. The sample ring
// buffer is deliberately left alone; see SharedSpectrum.Clear.
func (p *Player) Stop() {
	p.mu.Lock()
	p.sink.Stop()
	if p.file != nil {
		p.file.Close()
		p.file = nil
	}
	p.state = StateStopped
	p.path = ""
	p.duration = 0
	p.mu.Unlock()

	p.elapsed.Store(0)
	p.playing.Store(false)
	p.spectrum.Clear()
	p.emit(EventStopped)
}

// Seek moves playback to pos via the sink's native seek. Seek failures are
// informational, reported as EventError; state and position are unchanged.
func (p *Player) Seek(pos time.Duration) {
	p.mu.Lock()
	err := p.sink.TrySeek(pos)
	p.mu.Unlock()

	if err != nil {
		p.emit(EventError)
	}
}

// SeekForward seeks ahead by amount. Seeking past the end of the track is
// refused rather than clamped, so a long seek near the end cannot trigger
// a spurious end-of-track.
func (p *Player) SeekForward(amount time.Duration) {
	next := p.Position() + amount
	if next < p.Duration() {
		p.Seek(next)
	}
}

// SeekBackward seeks back by amount, saturating at zero.
func (p *Player) SeekBackward(amount time.Duration) {
	next := p.Position() - amount
	if next < 0 {
		next = 0
	}
	p.Seek(next)
}

// SetVolume applies v clamped to [0,1].
func (p *Player) SetVolume(v float64) {
	p.mu.Lock()
	p.volume = clamp(v, 0.0, 1.0)
	p.sink.SetVolume(p.volume)
	p.mu.Unlock()

	p.emit(EventVolumeChanged)
}

// VolumeUp raises volume by one step.
func (p *Player) VolumeUp() { p.SetVolume(p.Volume() + volumeStep) }

// VolumeDown lowers volume by one step.
func (p *Player) VolumeDown() { p.SetVolume(p.Volume() - volumeStep) }

// Volume returns the current volume in [0,1].
func (p *Player) Volume() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.volume
}

// State returns the transport state.
func (p *Player) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Path returns the currently loaded file path, empty when stopped.
func (p *Player) Path() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.path
}

// Position returns elapsed playback time at whole-second granularity.
func (p *Player) Position() time.Duration {
	return time.Duration(p.elapsed.Load()) * time.Second
}

// Duration returns the caller-supplied duration of the loaded track, zero
// when stopped.
func (p *Player) Duration() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.duration
}

// Progress returns position/duration in [0,1], zero when no duration is
// known.
func (p *Player) Progress() float64 {
	d := p.Duration()
	if d == 0 {
		return 0.0
	}
	return clamp(p.Position().Seconds()/d.Seconds(), 0.0, 1.0)
}

// IsPlaying reports the coarse playing flag.
func (p *Player) IsPlaying() bool { return p.playing.Load() }

// IsFinished reports whether the track ended naturally: the sink has no
// pending audio while the player still believes it is playing. An explicit
// stop or pause never reads as finished.
func (p *Player) IsFinished() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.sink.Empty() && p.state == StatePlaying
}

func (p *Player) emit(e Event) {
	select {
	case p.events <- e:
	default:
	}
}
