package library

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	id3v2 "github.com/bogem/id3v2/v2"
	"github.com/dhowden/tag"

	"github.com/evertlin/mellow/internal/audio"
)

// ScanEvent is one progress notification from a folder scan.
type ScanEvent interface{ scanEvent() }

// TrackFound reports one successfully read track.
type TrackFound struct{ Track Track }

// ScanComplete reports the end of a folder scan. Folder is the scanned
// root path, so callers can reconcile their index against it.
type ScanComplete struct {
	Folder string
	Count  int
}

// ScanError reports a file or directory that could not be read. Scanning
// continues past errors.
type ScanError struct {
	Path string
	Err  error
}

func (TrackFound) scanEvent()   {}
func (ScanComplete) scanEvent() {}
func (ScanError) scanEvent()    {}

// ScanFolder walks root recursively, reading metadata for every supported
// audio file, and sends events on out. It closes nothing and returns the
// number of tracks found; run it in a goroutine and range the channel.
func ScanFolder(root string, out chan<- ScanEvent) int {
	count := 0
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			out <- ScanError{Path: path, Err: err}
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if d.IsDir() || !IsSupportedPath(path) {
			return nil
		}

		track, err := ReadTrackMetadata(path)
		if err != nil {
			out <- ScanError{Path: path, Err: err}
			return nil
		}
		count++
		out <- TrackFound{Track: track}
		return nil
	})
	if err != nil {
		out <- ScanError{Path: root, Err: err}
	}

	out <- ScanComplete{Folder: root, Count: count}
	return count
}

// ReadTrackMetadata builds a Track for path: tags via dhowden/tag with an
// ID3v2 fallback for MP3s it cannot parse, duration probed from the audio
// stream itself.
func ReadTrackMetadata(path string) (Track, error) {
	track := NewTrack(path)

	f, err := os.Open(path)
	if err != nil {
		return track, fmt.Errorf("opening %s: %w", path, err)
	}
	meta, tagErr := tag.ReadFrom(f)
	f.Close()

	switch {
	case tagErr == nil:
		applyTags(&track, meta)
	case track.Format == FormatMP3:
		// dhowden/tag rejects some real-world ID3 variants; try bogem.
		readID3Fallback(&track)
	}

	if dur, err := audio.ProbeDuration(path); err == nil {
		track.Duration = dur
	}
	return track, nil
}

func applyTags(track *Track, meta tag.Metadata) {
	if v := meta.Title(); v != "" {
		track.Title = v
	}
	if v := meta.Artist(); v != "" {
		track.Artist = v
	}
	if v := meta.Album(); v != "" {
		track.Album = v
	}
	track.AlbumArtist = meta.AlbumArtist()
	track.TrackNumber, _ = meta.Track()
	track.DiscNumber, _ = meta.Disc()
	if pic := meta.Picture(); pic != nil {
		track.ArtData = pic.Data
	}
}

func readID3Fallback(track *Track) {
	id3, err := id3v2.Open(track.Path, id3v2.Options{Parse: true})
	if err != nil {
		return
	}
	defer id3.Close()

	if v := id3.Title(); v != "" {
		track.Title = v
	}
	if v := id3.Artist(); v != "" {
		track.Artist = v
	}
	if v := id3.Album(); v != "" {
		track.Album = v
	}
}
