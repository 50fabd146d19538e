package statsui

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
)

// fit pads s to width cells and clips or pads it to height lines.
func fit(s string, width, height int) string {
	if width <= 0 || height <= 0 {
		return s
	}
	return lipgloss.NewStyle().
		Width(width).
		Height(height).
		MaxHeight(height).
		Render(s)
}

func truncate(s string, width int) string {
	if width <= 0 {
		return s
	}
	return runewidth.Truncate(s, width, "...")
}

// stepWindow moves n to the neighbouring multiple of five in direction dir.
// The smallest window is 1.
func stepWindow(n, dir int) int {
	const step = 5
	if dir > 0 {
		return (n/step + 1) * step
	}
	if n <= step {
		return 1
	}
	return (n - 1) / step * step
}
