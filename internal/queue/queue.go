// Package queue tracks playback order over the library: current position,
// shuffle mapping, and repeat behavior.
package queue

import (
	"math/rand"

	"github.com/evertlin/mellow/internal/library"
)

// RepeatMode controls what happens when a track or the queue ends.
type RepeatMode int

const (
	RepeatOff RepeatMode = iota
	RepeatAll
	RepeatOne
)

// Next cycles to the next repeat mode.
func (r RepeatMode) Next() RepeatMode {
	switch r {
	case RepeatOff:
		return RepeatAll
	case RepeatAll:
		return RepeatOne
	default:
		return RepeatOff
	}
}

// String returns the name of the repeat mode.
func (r RepeatMode) String() string {
	switch r {
	case RepeatAll:
		return "all"
	case RepeatOne:
		return "one"
	default:
		return "off"
	}
}

// Queue manages an ordered list of tracks for playback.
// It is only mutated from Bubbletea's single-threaded Update loop.
type Queue struct {
	tracks       []library.Track
	current      int
	shuffleOrder []int // maps shuffle position → original track index
	shufflePos   int   // current position in shuffleOrder
	shuffled     bool
	repeat       RepeatMode
}

// New creates a Queue from the given tracks.
func New(tracks []library.Track) *Queue {
	return &Queue{tracks: tracks}
}

// SetTracks replaces the track list, keeping the current selection when the
// same track is still present. The shuffle order is rebuilt if active.
func (q *Queue) SetTracks(tracks []library.Track) {
	var currentPath string
	if t := q.Current(); t != nil {
		currentPath = t.Path
	}

	q.tracks = tracks
	q.current = 0
	for i, t := range tracks {
		if t.Path == currentPath {
			q.current = i
			break
		}
	}
	if q.shuffled {
		q.shuffled = false
		q.EnableShuffle()
	}
}

// Current returns a pointer to the currently selected track, or nil if empty.
func (q *Queue) Current() *library.Track {
	if q.current < 0 || q.current >= len(q.tracks) {
		return nil
	}
	return &q.tracks[q.current]
}

// Next returns a pointer to the next track in playback order, or nil if at the end.
// When shuffle is active, returns the next track in shuffle order.
func (q *Queue) Next() *library.Track {
	if q.shuffled {
		if q.shufflePos+1 >= len(q.shuffleOrder) {
			return nil
		}
		return q.Track(q.shuffleOrder[q.shufflePos+1])
	}
	i := q.current + 1
	if i >= len(q.tracks) {
		return nil
	}
	return &q.tracks[i]
}

// Advance moves the current position forward by one in playback order.
// At the end of the queue it wraps around when repeat-all is active and
// returns false otherwise.
func (q *Queue) Advance() bool {
	if len(q.tracks) == 0 {
		return false
	}

	if q.shuffled {
		if q.shufflePos+1 < len(q.shuffleOrder) {
			q.shufflePos++
			q.current = q.shuffleOrder[q.shufflePos]
			return true
		}
		if q.repeat == RepeatAll {
			// New random order each cycle.
			q.current = q.shuffleOrder[0]
			q.shuffled = false
			q.EnableShuffle()
			return true
		}
		return false
	}

	if q.current+1 < len(q.tracks) {
		q.current++
		return true
	}
	if q.repeat == RepeatAll {
		q.current = 0
		return true
	}
	return false
}

// Previous moves the current position back by one in playback order.
// Returns false if already at the start.
func (q *Queue) Previous() bool {
	if q.shuffled {
		if q.shufflePos <= 0 {
			return false
		}
		q.shufflePos--
		q.current = q.shuffleOrder[q.shufflePos]
		return true
	}
	if q.current <= 0 {
		return false
	}
	q.current--
	return true
}

// AdvanceAfterFinish picks the next track after a natural end of track.
// Repeat-one replays the current track; everything else advances.
func (q *Queue) AdvanceAfterFinish() bool {
	if len(q.tracks) == 0 {
		return false
	}
	if q.repeat == RepeatOne {
		return true
	}
	return q.Advance()
}

// Len returns the total number of tracks.
func (q *Queue) Len() int {
	return len(q.tracks)
}

// CurrentIndex returns the zero-based index of the current track.
func (q *Queue) CurrentIndex() int {
	return q.current
}

// SetCurrentIndex sets the current track index directly.
// Also syncs the shuffle position when shuffle mode is active.
func (q *Queue) SetCurrentIndex(i int) {
	if i >= 0 && i < len(q.tracks) {
		q.current = i
		q.setShufflePosition(i)
	}
}

// Track returns a pointer to the track at the given index, or nil if out of range.
func (q *Queue) Track(i int) *library.Track {
	if i < 0 || i >= len(q.tracks) {
		return nil
	}
	return &q.tracks[i]
}

// IsShuffled returns whether shuffle mode is active.
func (q *Queue) IsShuffled() bool {
	return q.shuffled
}

// EnableShuffle activates shuffle mode. The current track stays at position 0
// in the shuffle order; all other indices are randomized via Fisher-Yates.
func (q *Queue) EnableShuffle() {
	n := len(q.tracks)
	if n <= 1 || q.shuffled {
		return
	}
	q.shuffled = true
	q.shuffleOrder = make([]int, 0, n-1)
	for i := 0; i < n; i++ {
		if i != q.current {
			q.shuffleOrder = append(q.shuffleOrder, i)
		}
	}
	// Fisher-Yates shuffle
	for i := len(q.shuffleOrder) - 1; i > 0; i-- {
		j := rand.Intn(i + 1)
		q.shuffleOrder[i], q.shuffleOrder[j] = q.shuffleOrder[j], q.shuffleOrder[i]
	}
	// Prepend current track at position 0
	q.shuffleOrder = append([]int{q.current}, q.shuffleOrder...)
	q.shufflePos = 0
}

// DisableShuffle deactivates shuffle mode, keeping the current track.
func (q *Queue) DisableShuffle() {
	q.shuffled = false
	q.shuffleOrder = nil
	q.shufflePos = 0
}

// ToggleShuffle flips shuffle mode and reports the new state.
func (q *Queue) ToggleShuffle() bool {
	if q.shuffled {
		q.DisableShuffle()
	} else {
		q.EnableShuffle()
	}
	return q.shuffled
}

// SetRepeat sets the repeat mode.
func (q *Queue) SetRepeat(r RepeatMode) {
	q.repeat = r
}

// Repeat returns the repeat mode.
func (q *Queue) Repeat() RepeatMode {
	return q.repeat
}

// setShufflePosition syncs shufflePos when the user jumps to a specific
// original track index.
func (q *Queue) setShufflePosition(originalIdx int) {
	if !q.shuffled {
		return
	}
	for i, idx := range q.shuffleOrder {
		if idx == originalIdx {
			q.shufflePos = i
			return
		}
	}
}
