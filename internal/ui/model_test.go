package ui

import (
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/evertlin/mellow/internal/audio"
	"github.com/evertlin/mellow/internal/config"
	"github.com/evertlin/mellow/internal/library"
	"github.com/evertlin/mellow/internal/queue"
)

func testModel(t *testing.T, tracks []library.Track, settings config.Settings) Model {
	t.Helper()
	store, err := library.OpenStore(filepath.Join(t.TempDir(), "library.json"))
	if err != nil {
		t.Fatalf("opening store: %v", err)
	}
	for _, tr := range tracks {
		store.AddTrack(tr)
	}
	return New(audio.NewPlayer(), store, nil, settings, nil)
}

func keyMsg(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "left":
		return tea.KeyMsg{Type: tea.KeyLeft}
	case "right":
		return tea.KeyMsg{Type: tea.KeyRight}
	default:
		return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
	}
}

func press(t *testing.T, m Model, key string) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(keyMsg(key))
	model, ok := next.(Model)
	if !ok {
		t.Fatalf("Update returned %T, want Model", next)
	}
	return model, cmd
}

func sampleTracks() []library.Track {
	return []library.Track{
		{ID: "1", Path: "/music/b.mp3", Title: "Beta", Artist: "Artist", Album: "Album"},
		{ID: "2", Path: "/music/a.mp3", Title: "Alpha", Artist: "Artist", Album: "Album"},
	}
}

func TestNewRestoresSettings(t *testing.T) {
	settings := config.Settings{
		Volume:        0.7,
		Shuffle:       true,
		Repeat:        queue.RepeatAll,
		SortMode:      library.SortTitle,
		LastTrackPath: "/music/b.mp3",
	}
	m := testModel(t, sampleTracks(), settings)

	if got := m.player.Volume(); got != 0.7 {
		t.Fatalf("expected restored volume 0.7, got %v", got)
	}
	if !m.queue.IsShuffled() {
		t.Fatal("expected shuffle restored")
	}
	if got := m.queue.Repeat(); got != queue.RepeatAll {
		t.Fatalf("expected repeat all, got %v", got)
	}
	cur := m.queue.Current()
	if cur == nil || cur.Path != "/music/b.mp3" {
		t.Fatalf("expected last track selected, got %+v", cur)
	}
}

func TestTracksSortedOnStartup(t *testing.T) {
	m := testModel(t, sampleTracks(), config.Settings{SortMode: library.SortTitle})

	if got := m.tracks[0].Title; got != "Alpha" {
		t.Fatalf("expected title sort, got %q first", got)
	}
}

func TestSortKeyCyclesAndReorders(t *testing.T) {
	m := testModel(t, sampleTracks(), config.Settings{SortMode: library.SortDuration})

	m, _ = press(t, m, "o")
	if got := m.settings.SortMode; got != library.SortPath {
		t.Fatalf("expected sort mode to cycle to path, got %v", got)
	}
	if got := m.tracks[0].Path; got != "/music/a.mp3" {
		t.Fatalf("expected path sort, got %q first", got)
	}
	if !strings.Contains(m.status, "Path") {
		t.Fatalf("expected sort status, got %q", m.status)
	}
}

func TestShuffleAndRepeatKeys(t *testing.T) {
	m := testModel(t, sampleTracks(), config.Settings{})

	m, _ = press(t, m, "s")
	if !m.queue.IsShuffled() {
		t.Fatal("expected shuffle on")
	}
	m, _ = press(t, m, "s")
	if m.queue.IsShuffled() {
		t.Fatal("expected shuffle off")
	}

	m, _ = press(t, m, "r")
	if got := m.queue.Repeat(); got != queue.RepeatAll {
		t.Fatalf("expected repeat all after one press, got %v", got)
	}
	m, _ = press(t, m, "r")
	if got := m.queue.Repeat(); got != queue.RepeatOne {
		t.Fatalf("expected repeat one after two presses, got %v", got)
	}
}

func TestVolumeKeys(t *testing.T) {
	m := testModel(t, nil, config.Settings{Volume: 0.5})

	m, _ = press(t, m, "+")
	if got := m.volume; got != 0.55 {
		t.Fatalf("expected volume 0.55, got %v", got)
	}
	m, _ = press(t, m, "-")
	m, _ = press(t, m, "-")
	if got := m.volume; got != 0.45 {
		t.Fatalf("expected volume 0.45, got %v", got)
	}
}

func TestEnterOnEmptyLibraryIsInert(t *testing.T) {
	m := testModel(t, nil, config.Settings{})

	m, _ = press(t, m, "enter")
	if m.playing {
		t.Fatal("expected nothing playing")
	}
	if got := m.player.State(); got != audio.StateStopped {
		t.Fatalf("expected stopped, got %v", got)
	}
}

func TestSeekKeysInertWhileStopped(t *testing.T) {
	m := testModel(t, sampleTracks(), config.Settings{})

	m, _ = press(t, m, "left")
	m, _ = press(t, m, "right")
	if m.status != "" {
		t.Fatalf("expected no seek error while stopped, got %q", m.status)
	}
}

func TestScanEventAddsTrack(t *testing.T) {
	m := testModel(t, nil, config.Settings{})

	found := library.TrackFound{Track: library.Track{
		ID: "3", Path: "/music/c.flac", Title: "Gamma",
	}}
	next, cmd := m.Update(scanEventMsg{event: found})
	m = next.(Model)
	if got := len(m.tracks); got != 1 {
		t.Fatalf("expected 1 track after scan event, got %d", got)
	}
	if got := m.queue.Len(); got != 1 {
		t.Fatalf("expected queue to follow library, got %d", got)
	}
	if cmd == nil {
		t.Fatal("expected scan listener to re-arm")
	}
}

func TestScanErrorSetsStatus(t *testing.T) {
	m := testModel(t, nil, config.Settings{})

	next, _ := m.Update(scanEventMsg{event: library.ScanError{Path: "/music/bad.mp3"}})
	m = next.(Model)
	if !strings.Contains(m.status, "/music/bad.mp3") {
		t.Fatalf("expected scan error status, got %q", m.status)
	}
}

func TestStatusExpiresOnTick(t *testing.T) {
	m := testModel(t, nil, config.Settings{})
	m.status = "old news"
	m.statusTime = time.Now().Add(-10 * time.Second)

	next, _ := m.Update(tickMsg(time.Now()))
	m = next.(Model)
	if m.status != "" {
		t.Fatalf("expected status cleared, got %q", m.status)
	}
}

func TestWindowSizeResizesList(t *testing.T) {
	m := testModel(t, sampleTracks(), config.Settings{})

	next, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	m = next.(Model)
	if m.width != 100 || m.height != 40 {
		t.Fatalf("expected 100x40, got %dx%d", m.width, m.height)
	}
}

func TestQuitClearsView(t *testing.T) {
	m := testModel(t, nil, config.Settings{})

	m, cmd := press(t, m, "q")
	if !m.quitting {
		t.Fatal("expected quitting state")
	}
	if cmd == nil {
		t.Fatal("expected quit command")
	}
	if got := m.View(); got != "" {
		t.Fatalf("expected empty view while quitting, got %q", got)
	}
}

func TestSettingsSnapshotReflectsState(t *testing.T) {
	m := testModel(t, sampleTracks(), config.Settings{Volume: 0.5})
	m, _ = press(t, m, "s")
	m, _ = press(t, m, "r")
	m, _ = press(t, m, "+")

	s := m.Settings()
	if !s.Shuffle {
		t.Fatal("expected shuffle persisted")
	}
	if s.Repeat != queue.RepeatAll {
		t.Fatalf("expected repeat all persisted, got %v", s.Repeat)
	}
	if s.Volume != 0.55 {
		t.Fatalf("expected volume 0.55 persisted, got %v", s.Volume)
	}
}

func TestViewShowsIdleStateAndHelp(t *testing.T) {
	m := testModel(t, sampleTracks(), config.Settings{})
	next, _ := m.Update(tea.WindowSizeMsg{Width: 80, Height: 30})
	m = next.(Model)

	view := m.View()
	if !strings.Contains(view, "nothing playing") {
		t.Fatal("expected idle marker in view")
	}
	if !strings.Contains(view, "stopped") {
		t.Fatal("expected transport state in view")
	}
	if !strings.Contains(view, "vol 0%") {
		t.Fatalf("expected volume in view, got %q", view)
	}
	if !strings.Contains(view, "q quit") {
		t.Fatal("expected help line in view")
	}
}

func TestScanCompletePersistsFolderPath(t *testing.T) {
	store, err := library.OpenStore(filepath.Join(t.TempDir(), "library.json"))
	if err != nil {
		t.Fatalf("opening store: %v", err)
	}
	root := filepath.Join(t.TempDir(), "Music")
	m := New(audio.NewPlayer(), store, nil, config.Settings{}, []string{root})

	next, _ := m.Update(scanEventMsg{event: library.ScanComplete{Folder: root, Count: 3}})
	m = next.(Model)

	folders := store.Folders()
	if len(folders) != 1 {
		t.Fatalf("expected 1 folder, got %d", len(folders))
	}
	if folders[0].Path != root {
		t.Fatalf("expected folder path %q, got %q", root, folders[0].Path)
	}
	if folders[0].Name != "Music" {
		t.Fatalf("expected display name Music, got %q", folders[0].Name)
	}
	if folders[0].TrackCount != 3 {
		t.Fatalf("expected track count 3, got %d", folders[0].TrackCount)
	}
}

func TestScanCompletePrunesDeletedTracks(t *testing.T) {
	store, err := library.OpenStore(filepath.Join(t.TempDir(), "library.json"))
	if err != nil {
		t.Fatalf("opening store: %v", err)
	}
	root := "/music"
	stale := library.Track{ID: "1", Path: "/music/gone.mp3", Title: "Gone"}
	fresh := library.Track{ID: "2", Path: "/music/kept.mp3", Title: "Kept"}
	other := library.Track{ID: "3", Path: "/other/out.mp3", Title: "Outside"}
	store.AddTrack(stale)
	store.AddTrack(other)

	m := New(audio.NewPlayer(), store, nil, config.Settings{}, []string{root})

	next, _ := m.Update(scanEventMsg{event: library.TrackFound{Track: fresh}})
	m = next.(Model)
	next, _ = m.Update(scanEventMsg{event: library.ScanComplete{Folder: root, Count: 1}})
	m = next.(Model)

	paths := map[string]bool{}
	for _, tr := range store.Tracks() {
		paths[tr.Path] = true
	}
	if paths["/music/gone.mp3"] {
		t.Fatal("expected deleted track to be pruned from the index")
	}
	if !paths["/music/kept.mp3"] {
		t.Fatal("expected rescanned track to survive")
	}
	if !paths["/other/out.mp3"] {
		t.Fatal("expected track outside the root to be untouched")
	}
	if got := m.queue.Len(); got != 2 {
		t.Fatalf("expected queue to follow pruned library, got %d tracks", got)
	}
}

func TestRescanOfMissingRootRemovesFolder(t *testing.T) {
	store, err := library.OpenStore(filepath.Join(t.TempDir(), "library.json"))
	if err != nil {
		t.Fatalf("opening store: %v", err)
	}
	root := filepath.Join(t.TempDir(), "vanished")
	store.AddFolder(library.NewFolder(root, true))
	store.AddTrack(library.Track{ID: "1", Path: filepath.Join(root, "a.mp3"), Title: "A"})
	store.AddTrack(library.Track{ID: "2", Path: "/elsewhere/b.mp3", Title: "B"})

	m := New(audio.NewPlayer(), store, nil, config.Settings{}, nil)

	next, _ := m.Update(rescanMsg{root: root})
	m = next.(Model)

	if got := len(store.Folders()); got != 0 {
		t.Fatalf("expected vanished folder to be dropped, got %d folders", got)
	}
	tracks := store.Tracks()
	if len(tracks) != 1 || tracks[0].Path != "/elsewhere/b.mp3" {
		t.Fatalf("expected only the unrelated track to remain, got %+v", tracks)
	}
	if len(m.tracks) != 1 {
		t.Fatalf("expected model track list to follow removal, got %d", len(m.tracks))
	}
}

func TestViewShowsUpNext(t *testing.T) {
	m := testModel(t, sampleTracks(), config.Settings{SortMode: library.SortTitle})
	next, _ := m.Update(tea.WindowSizeMsg{Width: 80, Height: 30})
	m = next.(Model)

	m.playing = true
	m.current = m.tracks[0]

	view := m.View()
	if !strings.Contains(view, "next: Beta") {
		t.Fatalf("expected upcoming track in view, got %q", view)
	}
}
