// Package library indexes folders of audio files: track metadata, the JSON
// index on disk, and file-system watching for changes.
package library

import (
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/evertlin/mellow/internal/util"
)

// Format identifies a supported audio container by extension.
type Format int

const (
	FormatUnknown Format = iota
	FormatMP3
	FormatWAV
	FormatFLAC
	FormatOGG
)

// FormatFromPath derives the format from a file path's extension.
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".mp3":
		return FormatMP3
	case ".wav":
		return FormatWAV
	case ".flac":
		return FormatFLAC
	case ".ogg":
		return FormatOGG
	default:
		return FormatUnknown
	}
}

// IsSupportedPath reports whether the file extension names a playable format.
func IsSupportedPath(path string) bool {
	return FormatFromPath(path) != FormatUnknown
}

func (f Format) String() string {
	switch f {
	case FormatMP3:
		return "mp3"
	case FormatWAV:
		return "wav"
	case FormatFLAC:
		return "flac"
	case FormatOGG:
		return "ogg"
	default:
		return "unknown"
	}
}

// Track is one indexed audio file.
type Track struct {
	ID          string        `json:"id"`
	Path        string        `json:"path"`
	Title       string        `json:"title"`
	Artist      string        `json:"artist"`
	Album       string        `json:"album"`
	AlbumArtist string        `json:"album_artist,omitempty"`
	TrackNumber int           `json:"track_number,omitempty"`
	DiscNumber  int           `json:"disc_number,omitempty"`
	Duration    time.Duration `json:"duration"`
	Format      Format        `json:"format"`
	AddedAt     time.Time     `json:"added_at"`

	// Embedded cover art, kept in memory only.
	ArtData []byte `json:"-"`
}

// NewTrack creates a track for path with fallback metadata: the file stem
// as title and placeholder artist/album until tags are read.
func NewTrack(path string) Track {
	stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return Track{
		ID:      uuid.NewString(),
		Path:    path,
		Title:   stem,
		Artist:  "Unknown Artist",
		Album:   "Unknown Album",
		Format:  FormatFromPath(path),
		AddedAt: time.Now().UTC(),
	}
}

// FormatDuration renders the track length as m:ss.
func (t Track) FormatDuration() string {
	return util.FormatDuration(t.Duration)
}

// Folder is a library root that has been scanned, and possibly watched.
type Folder struct {
	Path       string    `json:"path"`
	Name       string    `json:"name"`
	TrackCount int       `json:"track_count"`
	AddedAt    time.Time `json:"added_at"`
	Watched    bool      `json:"watched"`
}

// NewFolder creates a folder entry named after its base path.
func NewFolder(path string, watched bool) Folder {
	return Folder{
		Path:    path,
		Name:    filepath.Base(path),
		AddedAt: time.Now().UTC(),
		Watched: watched,
	}
}
