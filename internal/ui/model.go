package ui

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/evertlin/mellow/internal/audio"
	"github.com/evertlin/mellow/internal/config"
	"github.com/evertlin/mellow/internal/library"
	"github.com/evertlin/mellow/internal/queue"
	"github.com/evertlin/mellow/internal/util"
)

const (
	seekStep       = 5 * time.Second
	spectrumHeight = 6
	statusTimeout  = 5 * time.Second
)

// Model is the Bubbletea model for the mellow TUI.
type Model struct {
	player   *audio.Player
	analyzer *audio.Analyzer
	queue    *queue.Queue
	store    *library.Store
	watcher  *library.Watcher // nil when no folders are watched
	scanCh   chan library.ScanEvent

	settings  config.Settings
	list      list.Model
	spectrum  *spectrumView
	tracks    []library.Track
	current   library.Track
	playing   bool // a track is loaded (current is valid)
	scanRoots []string
	scanSeen  map[string]map[string]bool // per in-flight root: paths the scan reported

	elapsed  time.Duration
	duration time.Duration
	volume   float64
	state    audio.State

	width      int
	height     int
	status     string
	statusTime time.Time
	quitting   bool
}

// New assembles the model. scanRoots are folders to (re)scan on startup.
func New(p *audio.Player, store *library.Store, w *library.Watcher, settings config.Settings, scanRoots []string) Model {
	m := Model{
		player:    p,
		analyzer:  audio.NewAnalyzer(p.Spectrum()),
		queue:     queue.New(nil),
		store:     store,
		watcher:   w,
		scanCh:    make(chan library.ScanEvent, 64),
		settings:  settings,
		spectrum:  newSpectrumView(),
		scanRoots: scanRoots,
		scanSeen:  make(map[string]map[string]bool),
		volume:    settings.Volume,
	}
	for _, root := range scanRoots {
		m.scanSeen[root] = make(map[string]bool)
	}
	m.player.SetVolume(settings.Volume)
	m.queue.SetRepeat(settings.Repeat)

	m.tracks = store.Tracks()
	library.SortTracks(m.tracks, settings.SortMode)
	m.list = newTrackList(m.tracks)
	m.queue.SetTracks(m.tracks)
	if settings.Shuffle {
		m.queue.EnableShuffle()
	}
	if settings.LastTrackPath != "" {
		for i, t := range m.tracks {
			if t.Path == settings.LastTrackPath {
				m.queue.SetCurrentIndex(i)
				m.list.Select(i)
				break
			}
		}
	}
	return m
}

// Settings returns the settings as they stand when the program exits, so
// main can persist them.
func (m Model) Settings() config.Settings {
	s := m.settings
	s.Volume = m.player.Volume()
	s.Shuffle = m.queue.IsShuffled()
	s.Repeat = m.queue.Repeat()
	if m.playing {
		s.LastTrackPath = m.current.Path
	}
	return s
}

func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{
		tickCmd(),
		listenEvents(m.player),
		listenScan(m.scanCh),
		tea.SetWindowTitle("mellow"),
	}
	if m.watcher != nil {
		cmds = append(cmds, listenRescan(m.watcher))
	}
	for _, root := range m.scanRoots {
		cmds = append(cmds, scanFolder(root, m.scanCh))
	}
	return tea.Batch(cmds...)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tickMsg:
		m.elapsed = m.player.Position()
		m.volume = m.player.Volume()
		m.state = m.player.State()
		m.spectrum.Step(m.analyzer.Analyze())
		if m.status != "" && time.Since(m.statusTime) > statusTimeout {
			m.status = ""
		}
		if m.player.IsFinished() {
			return m.advanceAfterFinish()
		}
		return m, tickCmd()

	case playerEventMsg:
		m.applyEvent(audio.Event(msg))
		return m, listenEvents(m.player)

	case scanEventMsg:
		return m.handleScanEvent(msg.event)

	case rescanMsg:
		if _, err := os.Stat(msg.root); err != nil {
			// The whole root is gone; drop it and everything under it.
			m.store.RemoveFolder(msg.root)
			m.refreshTracks()
			if err := m.store.Save(); err != nil {
				m.setStatus(fmt.Sprintf("cannot save library: %v", err))
			} else {
				m.setStatus(fmt.Sprintf("removed %s", filepath.Base(msg.root)))
			}
			return m, listenRescan(m.watcher)
		}
		m.scanSeen[msg.root] = make(map[string]bool)
		m.setStatus(fmt.Sprintf("rescanning %s", filepath.Base(msg.root)))
		return m, tea.Batch(scanFolder(msg.root, m.scanCh), listenRescan(m.watcher))

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.list.SetSize(msg.Width, m.listHeight())
		return m, nil
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// Don't intercept keys while the list filter owns the keyboard.
	if m.list.FilterState() == list.Filtering {
		var cmd tea.Cmd
		m.list, cmd = m.list.Update(msg)
		return m, cmd
	}

	if isQuit(msg) {
		m.quitting = true
		m.player.Stop()
		return m, tea.Sequence(tea.SetWindowTitle(""), tea.Quit)
	}

	switch msg.String() {
	case " ":
		m.player.TogglePause()
		if m.playing {
			paused := m.player.State() == audio.StatePaused
			return m, tea.SetWindowTitle(windowTitle(m.current.Title, paused))
		}
		return m, nil

	case "enter":
		item, ok := m.list.SelectedItem().(trackItem)
		if !ok {
			return m, nil
		}
		for i, t := range m.tracks {
			if t.Path == item.track.Path {
				m.queue.SetCurrentIndex(i)
				break
			}
		}
		return m.playCurrent()

	case "n":
		if m.queue.Advance() {
			return m.playCurrent()
		}
		m.setStatus("end of queue")
		return m, nil

	case "p":
		if m.queue.Previous() {
			return m.playCurrent()
		}
		return m, nil

	case "left", "h":
		if m.playing {
			m.player.SeekBackward(seekStep)
		}
		return m, nil

	case "right", "l":
		if m.playing {
			m.player.SeekForward(seekStep)
		}
		return m, nil

	case "+", "=":
		m.player.VolumeUp()
		m.volume = m.player.Volume()
		return m, nil

	case "-", "_":
		m.player.VolumeDown()
		m.volume = m.player.Volume()
		return m, nil

	case "s":
		if m.queue.ToggleShuffle() {
			m.setStatus("shuffle on")
		} else {
			m.setStatus("shuffle off")
		}
		return m, nil

	case "r":
		m.queue.SetRepeat(m.queue.Repeat().Next())
		m.setStatus("repeat " + m.queue.Repeat().String())
		return m, nil

	case "o":
		m.settings.SortMode = m.settings.SortMode.Next()
		m.refreshTracks()
		m.setStatus("sort: " + m.settings.SortMode.Label())
		return m, nil
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// playCurrent starts the queue's current track on the player.
func (m Model) playCurrent() (tea.Model, tea.Cmd) {
	t := m.queue.Current()
	if t == nil {
		return m, nil
	}
	if err := m.player.Play(t.Path, t.Duration); err != nil {
		m.setStatus(fmt.Sprintf("cannot play %s: %v", t.Title, err))
		return m, nil
	}
	m.current = *t
	m.playing = true
	m.duration = m.player.Duration()
	m.elapsed = 0
	return m, tea.SetWindowTitle(windowTitle(t.Title, false))
}

// advanceAfterFinish moves to the next track when playback runs out.
func (m Model) advanceAfterFinish() (tea.Model, tea.Cmd) {
	if m.queue.AdvanceAfterFinish() {
		next, cmd := m.playCurrent()
		return next, tea.Batch(cmd, tickCmd())
	}
	m.player.Stop()
	m.playing = false
	m.spectrum.Reset()
	return m, tea.Batch(tea.SetWindowTitle("mellow"), tickCmd())
}

func (m *Model) applyEvent(e audio.Event) {
	switch e {
	case audio.EventError:
		m.setStatus("seek failed")
	case audio.EventStopped:
		m.spectrum.Reset()
	}
}

func (m Model) handleScanEvent(ev library.ScanEvent) (tea.Model, tea.Cmd) {
	switch ev := ev.(type) {
	case library.TrackFound:
		m.store.AddTrack(ev.Track)
		for root, seen := range m.scanSeen {
			if underRoot(ev.Track.Path, root) {
				seen[ev.Track.Path] = true
			}
		}
		m.refreshTracks()

	case library.ScanComplete:
		m.pruneMissing(ev.Folder)
		m.store.AddFolder(library.NewFolder(ev.Folder, m.watcher != nil))
		m.store.SetFolderCount(ev.Folder, ev.Count)
		if err := m.store.Save(); err != nil {
			m.setStatus(fmt.Sprintf("cannot save library: %v", err))
		} else {
			m.setStatus(fmt.Sprintf("scanned %d tracks in %s", ev.Count, filepath.Base(ev.Folder)))
		}

	case library.ScanError:
		m.setStatus(fmt.Sprintf("scan: %s: %v", ev.Path, ev.Err))
	}
	return m, listenScan(m.scanCh)
}

// pruneMissing drops indexed tracks under root that the just-finished scan
// did not report, so deletions leave the library.
func (m *Model) pruneMissing(root string) {
	seen, ok := m.scanSeen[root]
	if !ok {
		return
	}
	delete(m.scanSeen, root)

	removed := false
	for _, t := range m.store.Tracks() {
		if underRoot(t.Path, root) && !seen[t.Path] {
			m.store.RemoveTrack(t.Path)
			removed = true
		}
	}
	if removed {
		m.refreshTracks()
	}
}

func underRoot(path, root string) bool {
	return path == root || strings.HasPrefix(path, root+string(os.PathSeparator))
}

// refreshTracks re-sorts the library and pushes it into the list and queue.
func (m *Model) refreshTracks() {
	m.tracks = m.store.Tracks()
	library.SortTracks(m.tracks, m.settings.SortMode)
	m.list.SetItems(trackItems(m.tracks))
	m.queue.SetTracks(m.tracks)
}

func (m *Model) setStatus(s string) {
	m.status = s
	m.statusTime = time.Now()
}

func (m Model) listHeight() int {
	h := m.height - spectrumHeight - 9
	if h < 4 {
		h = 4
	}
	return h
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	w := m.width
	if w < 30 {
		w = 80
	}

	s := m.list.View() + "\n"

	if m.playing {
		s += "  " + titleStyle.Render(util.Truncate(m.current.Title, w-4)) + "\n"
		subtitle := m.current.Artist
		if m.current.Album != "" && m.current.Album != "Unknown Album" {
			subtitle = fmt.Sprintf("%s - %s", m.current.Artist, m.current.Album)
		}
		s += "  " + artistStyle.Render(util.Truncate(subtitle, w-4)) + "\n"
	} else {
		s += "  " + artistStyle.Render("nothing playing") + "\n\n"
	}

	elapsedStr := timeStyle.Render(util.FormatDuration(m.elapsed))
	durationStr := timeStyle.Render(util.FormatDuration(m.duration))
	barWidth := w - len(util.FormatDuration(m.elapsed)) - len(util.FormatDuration(m.duration)) - 6
	if barWidth < 10 {
		barWidth = 10
	}
	bar := renderProgressBar(m.player.Progress(), barWidth)
	s += fmt.Sprintf("  %s %s %s\n", elapsedStr, bar, durationStr)

	s += m.spectrum.View(w, spectrumHeight) + "\n"

	statusIcon, statusText := "■", "stopped"
	switch m.state {
	case audio.StatePlaying:
		statusIcon, statusText = "▶", "playing"
	case audio.StatePaused:
		statusIcon, statusText = "❚❚", "paused"
	}
	leftText := fmt.Sprintf("%s  %s", statusIcon, statusText)
	if m.queue.IsShuffled() {
		leftText += "  [shuffle]"
	}
	if r := m.queue.Repeat(); r != queue.RepeatOff {
		leftText += "  [repeat " + r.String() + "]"
	}
	volStr := renderVolumePercent(m.volume)
	gap := w - len(leftText) - len(volStr) - 4
	if gap < 2 {
		gap = 2
	}
	s += "  " + statusStyle.Render(leftText) + spaces(gap) + statusStyle.Render(volStr) + "\n"

	if m.playing {
		if next := m.queue.Next(); next != nil {
			s += "  " + helpStyle.Render("next: "+util.Truncate(next.Title, w-10)) + "\n"
		}
	}
	if m.status != "" {
		s += "  " + errorStyle.Render(m.status) + "\n"
	}
	s += "  " + helpStyle.Render(helpText()) + "\n"

	return s
}

func windowTitle(title string, paused bool) string {
	if paused {
		return "⏸ " + title + " — mellow"
	}
	return "▶ " + title + " — mellow"
}
