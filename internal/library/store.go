package library

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/samber/lo"
)

// SortMode orders the track list.
type SortMode int

const (
	SortArtistAlbum SortMode = iota
	SortAlbum
	SortTitle
	SortDateAdded
	SortDuration
	SortPath
)

// Next cycles to the following sort mode.
func (m SortMode) Next() SortMode {
	if m >= SortPath {
		return SortArtistAlbum
	}
	return m + 1
}

// Label is the human-readable sort name shown in the UI.
func (m SortMode) Label() string {
	switch m {
	case SortAlbum:
		return "Album"
	case SortTitle:
		return "Title"
	case SortDateAdded:
		return "Date Added"
	case SortDuration:
		return "Duration"
	case SortPath:
		return "Path"
	default:
		return "Artist/Album"
	}
}

// SortTracks orders tracks in place by the given mode. Within an album,
// tracks always fall back to disc then track number.
func SortTracks(tracks []Track, mode SortMode) {
	byNumber := func(a, b Track) bool {
		if a.DiscNumber != b.DiscNumber {
			return a.DiscNumber < b.DiscNumber
		}
		return a.TrackNumber < b.TrackNumber
	}
	less := func(a, b Track) bool {
		switch mode {
		case SortAlbum:
			if !strings.EqualFold(a.Album, b.Album) {
				return strings.ToLower(a.Album) < strings.ToLower(b.Album)
			}
			return byNumber(a, b)
		case SortTitle:
			return strings.ToLower(a.Title) < strings.ToLower(b.Title)
		case SortDateAdded:
			return a.AddedAt.After(b.AddedAt)
		case SortDuration:
			return a.Duration < b.Duration
		case SortPath:
			return a.Path < b.Path
		default:
			if !strings.EqualFold(a.Artist, b.Artist) {
				return strings.ToLower(a.Artist) < strings.ToLower(b.Artist)
			}
			if !strings.EqualFold(a.Album, b.Album) {
				return strings.ToLower(a.Album) < strings.ToLower(b.Album)
			}
			return byNumber(a, b)
		}
	}
	sort.SliceStable(tracks, func(i, j int) bool { return less(tracks[i], tracks[j]) })
}

// index is the on-disk shape of the library.
type index struct {
	Tracks  []Track  `json:"tracks"`
	Folders []Folder `json:"folders"`
}

// Store is the persisted library index: tracks and scanned folders, saved
// as JSON. Safe for concurrent use.
type Store struct {
	mu   sync.Mutex
	path string
	idx  index
}

// OpenStore loads the index at path, or starts empty when the file does
// not exist yet.
func OpenStore(path string) (*Store, error) {
	s := &Store{path: path}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading library index: %w", err)
	}
	if err := json.Unmarshal(data, &s.idx); err != nil {
		return nil, fmt.Errorf("parsing library index: %w", err)
	}
	return s, nil
}

// Save writes the index atomically: temp file in the same directory, then
// rename.
func (s *Store) Save() error {
	s.mu.Lock()
	data, err := json.MarshalIndent(s.idx, "", "  ")
	s.mu.Unlock()
	if err != nil {
		return fmt.Errorf("encoding library index: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("creating index directory: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("writing library index: %w", err)
	}
	return os.Rename(tmp, s.path)
}

// Tracks returns a copy of all indexed tracks.
func (s *Store) Tracks() []Track {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Track, len(s.idx.Tracks))
	copy(out, s.idx.Tracks)
	return out
}

// Folders returns a copy of all library folders.
func (s *Store) Folders() []Folder {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Folder, len(s.idx.Folders))
	copy(out, s.idx.Folders)
	return out
}

// AddTrack inserts or replaces a track, keyed by path.
func (s *Store) AddTrack(t Track) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, existing := range s.idx.Tracks {
		if existing.Path == t.Path {
			t.ID = existing.ID
			t.AddedAt = existing.AddedAt
			s.idx.Tracks[i] = t
			return
		}
	}
	s.idx.Tracks = append(s.idx.Tracks, t)
}

// RemoveTrack deletes the track at the given path. Returns true if a track
// was removed.
func (s *Store) RemoveTrack(path string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	before := len(s.idx.Tracks)
	s.idx.Tracks = lo.Reject(s.idx.Tracks, func(t Track, _ int) bool {
		return t.Path == path
	})
	return len(s.idx.Tracks) < before
}

// RemoveFolder drops a folder and every track under it.
func (s *Store) RemoveFolder(path string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	prefix := path + string(os.PathSeparator)
	s.idx.Folders = lo.Reject(s.idx.Folders, func(f Folder, _ int) bool {
		return f.Path == path
	})
	s.idx.Tracks = lo.Reject(s.idx.Tracks, func(t Track, _ int) bool {
		return t.Path == path || strings.HasPrefix(t.Path, prefix)
	})
}

// AddFolder records a scanned folder, replacing any entry with the same
// path and deduplicating.
func (s *Store) AddFolder(f Folder) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.idx.Folders = lo.UniqBy(append([]Folder{f}, s.idx.Folders...), func(f Folder) string {
		return f.Path
	})
}

// SetFolderCount updates a folder's track count after a scan.
func (s *Store) SetFolderCount(path string, count int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.idx.Folders {
		if s.idx.Folders[i].Path == path {
			s.idx.Folders[i].TrackCount = count
			return
		}
	}
}

// Len returns the number of indexed tracks.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.idx.Tracks)
}
