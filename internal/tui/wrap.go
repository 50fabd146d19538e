package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/verte-zerg/skilldrill/internal/keys"
)

const chipSeparator = " + "

type styledChip struct {
	s     string
	width int
}

// buildChips renders one chip per required key. Matched keys, the key being
// waited on and pending keys get distinct styles; a flash paints every chip
// as incorrect.
func buildChips(required []string, progress int, flashing bool) []styledChip {
	out := make([]styledChip, 0, len(required))
	for i, token := range required {
		label := "[" + keys.Display(token) + "]"
		var style lipgloss.Style
		switch {
		case flashing:
			style = incorrectStyle
		case i < progress:
			style = correctStyle
		case i == progress:
			style = cursorStyle
		default:
			style = pendingStyle
		}
		out = append(out, styledChip{
			s:     style.Render(label),
			width: runewidth.StringWidth(label),
		})
	}
	return out
}

func renderChips(chips []styledChip) string {
	parts := make([]string, 0, len(chips))
	for _, c := range chips {
		parts = append(parts, c.s)
	}
	return strings.Join(parts, separatorStyle.Render(chipSeparator))
}

// wrapChips lays chips out in lines no wider than width. A chip is never
// split; a chip wider than width gets a line of its own.
func wrapChips(chips []styledChip, width int) string {
	if width <= 0 {
		return renderChips(chips)
	}
	sepWidth := runewidth.StringWidth(chipSeparator)
	var lines []string
	line := make([]styledChip, 0, len(chips))
	lineWidth := 0
	for _, c := range chips {
		next := lineWidth + c.width
		if len(line) > 0 {
			next += sepWidth
		}
		if next > width && len(line) > 0 {
			lines = append(lines, renderChips(line))
			line = line[:0]
			next = c.width
		}
		line = append(line, c)
		lineWidth = next
	}
	if len(line) > 0 {
		lines = append(lines, renderChips(line))
	}
	return strings.Join(lines, "\n")
}

// padLabel fits s into exactly width cells.
func padLabel(s string, width int) string {
	if width <= 0 {
		return ""
	}
	s = runewidth.Truncate(s, width, "")
	return runewidth.FillRight(s, width)
}
