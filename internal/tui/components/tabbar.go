package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/theirongolddev/marginfc/internal/tui/theme"
)

// Tab represents a single tab in the tab bar.
type Tab struct {
	Name string
	Key  rune
}

// Tabs defines all available tabs. Each shortcut is the name's first letter.
var Tabs = []Tab{
	{Name: "Forecast", Key: 'f'},
	{Name: "Breakdown", Key: 'b'},
	{Name: "Scenarios", Key: 's'},
}

// tabPadding is the horizontal padding on each side of a tab label.
const tabPadding = 1

// TabVisualWidth returns the rendered width of tab idx. Inactive tabs
// bracket their shortcut letter, which adds two cells.
func TabVisualWidth(idx, activeIdx int) int {
	w := len(Tabs[idx].Name) + 2*tabPadding
	if idx != activeIdx {
		w += 2
	}
	return w
}

// RenderTabBar renders the tab bar with the given active index.
func RenderTabBar(activeIdx int, width int) string {
	t := theme.Active

	activeStyle := lipgloss.NewStyle().
		Foreground(t.Accent).
		Background(t.SurfaceHover).
		Bold(true).
		Padding(0, tabPadding)

	inactiveStyle := lipgloss.NewStyle().
		Foreground(t.TextMuted).
		Background(t.Surface)

	keyStyle := lipgloss.NewStyle().
		Foreground(t.Accent).
		Background(t.Surface).
		Bold(true)

	dimKeyStyle := lipgloss.NewStyle().
		Foreground(t.TextDim).
		Background(t.Surface)

	pad := inactiveStyle.Render(strings.Repeat(" ", tabPadding))
	sep := lipgloss.NewStyle().Foreground(t.Border).Background(t.Surface).Render("│")

	parts := make([]string, 0, len(Tabs))
	for i, tab := range Tabs {
		if i == activeIdx {
			parts = append(parts, activeStyle.Render(tab.Name))
			continue
		}
		// Render with highlighted shortcut key
		parts = append(parts, pad+
			dimKeyStyle.Render("[")+keyStyle.Render(tab.Name[:1])+dimKeyStyle.Render("]")+
			inactiveStyle.Render(tab.Name[1:])+pad)
	}

	row := strings.Join(parts, sep)
	if gap := width - lipgloss.Width(row); gap > 0 {
		row += inactiveStyle.Render(strings.Repeat(" ", gap))
	}
	return row
}

// TabIdxByKey returns the tab index for a given key press, or -1.
func TabIdxByKey(key rune) int {
	for i, tab := range Tabs {
		if tab.Key == key {
			return i
		}
	}
	return -1
}
