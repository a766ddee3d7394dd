package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/lipgloss"

	"github.com/evertlin/mellow/internal/library"
)

type trackItem struct {
	track library.Track
}

func (i trackItem) Title() string { return i.track.Title }

func (i trackItem) Description() string {
	desc := i.track.Artist
	if i.track.Album != "" && i.track.Album != "Unknown Album" {
		desc = fmt.Sprintf("%s — %s", i.track.Artist, i.track.Album)
	}
	if i.track.Duration > 0 {
		desc += "  " + i.track.FormatDuration()
	}
	return desc
}

func (i trackItem) FilterValue() string {
	return i.track.Title + " " + i.track.Artist + " " + i.track.Album
}

func newTrackList(tracks []library.Track) list.Model {
	delegate := list.NewDefaultDelegate()
	delegate.Styles.SelectedTitle = delegate.Styles.SelectedTitle.
		Foreground(lipgloss.AdaptiveColor{Light: "#333333", Dark: "#FFFFFF"}).
		BorderLeftForeground(lipgloss.AdaptiveColor{Light: "#555555", Dark: "#AAAAAA"})
	delegate.Styles.SelectedDesc = delegate.Styles.SelectedDesc.
		Foreground(lipgloss.AdaptiveColor{Light: "#666666", Dark: "#888888"}).
		BorderLeftForeground(lipgloss.AdaptiveColor{Light: "#555555", Dark: "#AAAAAA"})

	l := list.New(trackItems(tracks), delegate, 80, 20)
	l.Title = "library"
	l.SetShowStatusBar(true)
	l.SetFilteringEnabled(true)
	l.Styles.Title = headerStyle
	return l
}

func trackItems(tracks []library.Track) []list.Item {
	items := make([]list.Item, len(tracks))
	for i, t := range tracks {
		items[i] = trackItem{track: t}
	}
	return items
}
