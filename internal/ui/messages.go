package ui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/evertlin/mellow/internal/audio"
	"github.com/evertlin/mellow/internal/library"
)

type tickMsg time.Time
type playerEventMsg audio.Event
type scanEventMsg struct{ event library.ScanEvent }
type rescanMsg struct{ root string }

func tickCmd() tea.Cmd {
	return tea.Tick(100*time.Millisecond, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// listenEvents forwards one player event as a message. The handler re-arms it.
func listenEvents(p *audio.Player) tea.Cmd {
	return func() tea.Msg {
		e, ok := <-p.Events()
		if !ok {
			return nil
		}
		return playerEventMsg(e)
	}
}

// listenScan forwards one scanner event as a message. The handler re-arms it.
func listenScan(ch <-chan library.ScanEvent) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-ch
		if !ok {
			return nil
		}
		return scanEventMsg{event: ev}
	}
}

// listenRescan forwards one watcher rescan request as a message.
func listenRescan(w *library.Watcher) tea.Cmd {
	return func() tea.Msg {
		r, ok := <-w.Events()
		if !ok {
			return nil
		}
		return rescanMsg{root: r.Root}
	}
}

// scanFolder walks root in the background, streaming results through ch.
func scanFolder(root string, ch chan<- library.ScanEvent) tea.Cmd {
	return func() tea.Msg {
		library.ScanFolder(root, ch)
		return nil
	}
}
