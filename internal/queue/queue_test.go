package queue

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/evertlin/mellow/internal/library"
)

func makeTracks(n int) []library.Track {
	tracks := make([]library.Track, n)
	for i := range tracks {
		tracks[i] = library.Track{
			Path:  string(rune('a'+i)) + ".mp3",
			Title: string(rune('a' + i)),
		}
	}
	return tracks
}

func TestAdvanceAndPrevious(t *testing.T) {
	q := New(makeTracks(3))

	assert.Equal(t, "a", q.Current().Title)
	require.True(t, q.Advance())
	assert.Equal(t, "b", q.Current().Title)
	require.True(t, q.Advance())
	assert.Equal(t, "c", q.Current().Title)
	assert.False(t, q.Advance(), "should stop at end with repeat off")
	assert.Equal(t, "c", q.Current().Title)

	require.True(t, q.Previous())
	assert.Equal(t, "b", q.Current().Title)
	require.True(t, q.Previous())
	assert.False(t, q.Previous(), "should stop at start")
}

func TestAdvanceWrapsWithRepeatAll(t *testing.T) {
	q := New(makeTracks(2))
	q.SetRepeat(RepeatAll)

	require.True(t, q.Advance())
	require.True(t, q.Advance(), "repeat-all should wrap to start")
	assert.Equal(t, "a", q.Current().Title)
}

func TestAdvanceAfterFinish(t *testing.T) {
	q := New(makeTracks(2))

	q.SetRepeat(RepeatOne)
	require.True(t, q.AdvanceAfterFinish())
	assert.Equal(t, "a", q.Current().Title, "repeat-one should replay the current track")

	q.SetRepeat(RepeatOff)
	require.True(t, q.AdvanceAfterFinish())
	assert.Equal(t, "b", q.Current().Title)
	assert.False(t, q.AdvanceAfterFinish(), "end of queue with repeat off")
}

func TestEmptyQueue(t *testing.T) {
	q := New(nil)

	assert.Nil(t, q.Current())
	assert.Nil(t, q.Next())
	assert.False(t, q.Advance())
	assert.False(t, q.Previous())
	assert.False(t, q.AdvanceAfterFinish())
	assert.Zero(t, q.Len())
}

func TestShuffleCoversAllTracksOnce(t *testing.T) {
	q := New(makeTracks(8))
	q.SetCurrentIndex(3)
	q.EnableShuffle()

	require.True(t, q.IsShuffled())
	assert.Equal(t, 3, q.CurrentIndex(), "enabling shuffle must keep the current track")

	seen := map[int]bool{q.CurrentIndex(): true}
	for q.Advance() {
		assert.False(t, seen[q.CurrentIndex()], "track %d played twice", q.CurrentIndex())
		seen[q.CurrentIndex()] = true
	}
	assert.Len(t, seen, 8, "every track should play exactly once")
}

func TestShufflePreviousRetraces(t *testing.T) {
	q := New(makeTracks(5))
	q.EnableShuffle()

	require.True(t, q.Advance())
	second := q.CurrentIndex()
	require.True(t, q.Advance())
	require.True(t, q.Previous())
	assert.Equal(t, second, q.CurrentIndex(), "previous should retrace shuffle order")
	require.True(t, q.Previous())
	assert.Equal(t, 0, q.CurrentIndex())
	assert.False(t, q.Previous())
}

func TestShuffleWrapsWithRepeatAll(t *testing.T) {
	q := New(makeTracks(4))
	q.SetRepeat(RepeatAll)
	q.EnableShuffle()

	for i := 0; i < 3; i++ {
		require.True(t, q.Advance())
	}
	require.True(t, q.Advance(), "repeat-all should wrap in shuffle mode")
	assert.True(t, q.IsShuffled())
	assert.NotNil(t, q.Current())
}

func TestDisableShuffleKeepsCurrent(t *testing.T) {
	q := New(makeTracks(5))
	q.EnableShuffle()
	require.True(t, q.Advance())
	current := q.CurrentIndex()

	q.DisableShuffle()
	assert.Equal(t, current, q.CurrentIndex())
}

func TestToggleShuffle(t *testing.T) {
	q := New(makeTracks(3))

	assert.True(t, q.ToggleShuffle())
	assert.True(t, q.IsShuffled())
	assert.False(t, q.ToggleShuffle())
	assert.False(t, q.IsShuffled())
}

func TestSetCurrentIndexSyncsShufflePosition(t *testing.T) {
	q := New(makeTracks(6))
	q.EnableShuffle()

	target := q.shuffleOrder[4]
	q.SetCurrentIndex(target)
	assert.Equal(t, target, q.CurrentIndex())
	assert.Equal(t, 4, q.shufflePos)

	// Advancing from here should continue the shuffle order, not restart it.
	require.True(t, q.Advance())
	assert.Equal(t, q.shuffleOrder[5], q.CurrentIndex())
}

func TestNextFollowsPlaybackOrder(t *testing.T) {
	q := New(makeTracks(3))

	require.NotNil(t, q.Next())
	assert.Equal(t, "b", q.Next().Title)

	q.SetCurrentIndex(2)
	assert.Nil(t, q.Next(), "no next at the end of the queue")

	q.SetCurrentIndex(0)
	q.EnableShuffle()
	next := q.Next()
	require.NotNil(t, next)
	require.True(t, q.Advance())
	assert.Equal(t, next.Title, q.Current().Title, "Next must preview what Advance plays")
}

func TestSetTracksKeepsCurrentByPath(t *testing.T) {
	tracks := makeTracks(4)
	q := New(tracks)
	q.SetCurrentIndex(2)

	// Reorder: current track "c" moves to the front.
	reordered := []library.Track{tracks[2], tracks[0], tracks[1], tracks[3]}
	q.SetTracks(reordered)
	assert.Equal(t, 0, q.CurrentIndex())
	assert.Equal(t, "c", q.Current().Title)

	// Current track gone entirely: fall back to the first track.
	q.SetTracks([]library.Track{tracks[1], tracks[3]})
	assert.Equal(t, 0, q.CurrentIndex())
	assert.Equal(t, "b", q.Current().Title)
}

func TestRepeatModeCycle(t *testing.T) {
	assert.Equal(t, RepeatAll, RepeatOff.Next())
	assert.Equal(t, RepeatOne, RepeatAll.Next())
	assert.Equal(t, RepeatOff, RepeatOne.Next())

	assert.Equal(t, "off", RepeatOff.String())
	assert.Equal(t, "all", RepeatAll.String())
	assert.Equal(t, "one", RepeatOne.String())
}
