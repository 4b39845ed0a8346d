package components

import (
	"fmt"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"

	"github.com/theirongolddev/marginfc/internal/tui/theme"
)

// ColorForShare returns a stronger accent for larger shares of the total.
func ColorForShare(pct float64) lipgloss.Color {
	t := theme.Active
	switch {
	case pct >= 0.5:
		return t.AccentBright
	case pct >= 0.2:
		return t.Accent
	default:
		return t.Cyan
	}
}

// ShareBar renders a labeled proportion bar: label, bar, percentage, value.
// pct is a 0-1 fraction; values outside that range are clamped.
func ShareBar(label string, pct float64, value string, labelW, barWidth int) string {
	t := theme.Active
	pct = max(0, min(pct, 1))

	bar := progress.New(
		progress.WithSolidFill(string(ColorForShare(pct))),
		progress.WithWidth(barWidth),
		progress.WithoutPercentage(),
	)
	bar.EmptyColor = string(t.TextDim)

	labelStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	pctStyle := lipgloss.NewStyle().Foreground(ColorForShare(pct)).Background(t.Surface).Bold(true)
	valueStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)
	spaceStyle := lipgloss.NewStyle().Background(t.Surface)

	return labelStyle.Render(fmt.Sprintf("%-*s", labelW, truncate(label, labelW))) +
		spaceStyle.Render(" ") +
		bar.ViewAs(pct) +
		spaceStyle.Render(" ") +
		pctStyle.Render(fmt.Sprintf("%5.1f%%", pct*100)) +
		spaceStyle.Render("  ") +
		valueStyle.Render(value)
}

// ScenarioBars renders the original, declared, and most-likely values of one
// category as three stacked bars sized against maxValue.
func ScenarioBars(label string, values [3]float64, formatted [3]string, maxValue float64, barWidth int) string {
	t := theme.Active
	colors := t.ScenarioColors()
	names := [3]string{"orig", "decl", "likely"}

	labelStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface).Bold(true)
	nameStyle := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)
	spaceStyle := lipgloss.NewStyle().Background(t.Surface)

	out := labelStyle.Render(label)
	for i, v := range values {
		n := 0
		if maxValue > 0 && v > 0 {
			n = max(1, int(v/maxValue*float64(barWidth)))
		}
		n = min(n, barWidth)
		barStyle := lipgloss.NewStyle().Foreground(colors[i]).Background(t.Surface)
		out += "\n" + nameStyle.Render(fmt.Sprintf("  %-6s ", names[i])) +
			barStyle.Render(repeatRune('█', n)) +
			spaceStyle.Render(repeatRune(' ', barWidth-n+1)) +
			nameStyle.Render(formatted[i])
	}
	return out
}

func repeatRune(r rune, n int) string {
	if n <= 0 {
		return ""
	}
	buf := make([]rune, n)
	for i := range buf {
		buf[i] = r
	}
	return string(buf)
}

func truncate(s string, limit int) string {
	if limit <= 0 {
		return ""
	}
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	if limit <= 1 {
		return string(r[:limit])
	}
	return string(r[:limit-1]) + "…"
}
