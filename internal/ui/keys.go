package ui

import tea "github.com/charmbracelet/bubbletea"

func isQuit(msg tea.KeyMsg) bool {
	switch msg.String() {
	case "q", "esc", "ctrl+c":
		return true
	}
	return false
}

func helpText() string {
	return "space pause  enter play  n/p track  ←/→ seek  +/- volume  s shuffle  r repeat  o sort  q quit"
}
