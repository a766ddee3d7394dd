// Package config persists user settings between sessions as a small JSON
// file under the platform config directory.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/evertlin/mellow/internal/library"
	"github.com/evertlin/mellow/internal/queue"
)

const (
	appDir       = "mellow"
	settingsFile = "config.json"
	libraryFile  = "library.json"
)

// Settings holds everything restored on startup.
type Settings struct {
	Volume        float64          `json:"volume"`
	Shuffle       bool             `json:"shuffle"`
	Repeat        queue.RepeatMode `json:"repeat"`
	SortMode      library.SortMode `json:"sort_mode"`
	LastTrackPath string           `json:"last_track_path,omitempty"`
	Folders       []string         `json:"folders,omitempty"`
}

// Default returns the settings used when no config file exists yet.
func Default() Settings {
	return Settings{
		Volume:   0.5,
		SortMode: library.SortArtistAlbum,
	}
}

// Dir returns the directory holding the config and library files.
// MELLOW_CONFIG_DIR overrides the platform default.
func Dir() (string, error) {
	if dir := os.Getenv("MELLOW_CONFIG_DIR"); dir != "" {
		return dir, nil
	}
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolving config dir: %w", err)
	}
	return filepath.Join(base, appDir), nil
}

// SettingsPath returns the path of the settings file.
func SettingsPath() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, settingsFile), nil
}

// LibraryPath returns the path of the library index file.
func LibraryPath() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, libraryFile), nil
}

// Load reads the settings file. A missing file yields defaults without error.
func Load() (Settings, error) {
	path, err := SettingsPath()
	if err != nil {
		return Default(), err
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Default(), nil
	}
	if err != nil {
		return Default(), fmt.Errorf("reading settings: %w", err)
	}

	s := Default()
	if err := json.Unmarshal(data, &s); err != nil {
		return Default(), fmt.Errorf("parsing settings: %w", err)
	}
	return s.sanitized(), nil
}

// Save writes the settings atomically.
func (s Settings) Save() error {
	path, err := SettingsPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}

	data, err := json.MarshalIndent(s.sanitized(), "", "  ")
	if err != nil {
		return fmt.Errorf("encoding settings: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("writing settings: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("replacing settings: %w", err)
	}
	return nil
}

// sanitized clamps values that could have been edited by hand into
// something the player accepts.
func (s Settings) sanitized() Settings {
	if s.Volume < 0 {
		s.Volume = 0
	}
	if s.Volume > 1 {
		s.Volume = 1
	}
	if s.Repeat < queue.RepeatOff || s.Repeat > queue.RepeatOne {
		s.Repeat = queue.RepeatOff
	}
	if s.SortMode < library.SortArtistAlbum || s.SortMode > library.SortPath {
		s.SortMode = library.SortArtistAlbum
	}
	return s
}
