package ui

import (
	"strings"

	"github.com/charmbracelet/harmonica"

	"github.com/evertlin/mellow/internal/audio"
)

var barChars = []rune(" ▁▂▃▄▅▆▇█")

// spectrumView renders analyzer bars as columns of block characters.
// Bar heights are eased with a spring per bar so the display stays fluid
// between analyzer updates.
type spectrumView struct {
	spring harmonica.Spring
	pos    []float64
	vel    []float64
}

func newSpectrumView() *spectrumView {
	return &spectrumView{
		spring: harmonica.NewSpring(harmonica.FPS(10), 8.0, 0.6),
		pos:    make([]float64, audio.NumBars),
		vel:    make([]float64, audio.NumBars),
	}
}

// Step advances every bar one spring tick toward its target level.
func (s *spectrumView) Step(targets []float64) {
	for i := range s.pos {
		target := 0.0
		if i < len(targets) {
			target = targets[i]
		}
		s.pos[i], s.vel[i] = s.spring.Update(s.pos[i], s.vel[i], target)
	}
}

// Reset snaps all bars to zero immediately.
func (s *spectrumView) Reset() {
	for i := range s.pos {
		s.pos[i] = 0
		s.vel[i] = 0
	}
}

// View renders the bars into a width×height block, bottom-aligned.
func (s *spectrumView) View(width, height int) string {
	if height < 1 {
		height = 1
	}
	cols := len(s.pos)

	colWidth := (width - 2) / cols
	if colWidth < 1 {
		colWidth = 1
	}
	gap := 1
	if colWidth <= 1 {
		gap = 0
	}

	rows := make([]string, height)
	for row := range height {
		var line strings.Builder
		for b := range cols {
			if b > 0 && gap > 0 {
				line.WriteByte(' ')
			}
			level := clampUnit(s.pos[b]) * float64(height)
			rowFromBottom := float64(height - 1 - row)
			charIdx := 0
			if level > rowFromBottom+1 {
				charIdx = len(barChars) - 1
			} else if level > rowFromBottom {
				frac := level - rowFromBottom
				charIdx = int(frac * float64(len(barChars)-1))
			}
			ch := barChars[charIdx]
			for range colWidth - gap {
				line.WriteRune(ch)
			}
		}
		rows[row] = line.String()
	}

	return spectrumStyle.Render(strings.Join(rows, "\n"))
}

func clampUnit(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
