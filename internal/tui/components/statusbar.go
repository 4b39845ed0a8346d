package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/theirongolddev/marginfc/internal/tui/theme"
)

// RenderStatusBar renders the bottom status bar: key hints on the left and
// info (category position, data version) on the right.
func RenderStatusBar(width int, info string) string {
	t := theme.Active

	style := lipgloss.NewStyle().
		Foreground(t.TextMuted).
		Background(t.Surface).
		Width(width)

	left := " [j/k]category  [f/b/s]tab  [r]eload  [q]uit"
	right := ""
	if info != "" {
		right = info + " "
	}

	// Drop hints before info when the terminal is narrow.
	if lipgloss.Width(left)+lipgloss.Width(right) > width {
		left = " [q]uit"
	}
	padding := max(0, width-lipgloss.Width(left)-lipgloss.Width(right))

	return style.Render(left + strings.Repeat(" ", padding) + right)
}
