// Package tui provides the interactive Bubble Tea dashboard for marginfc.
package tui

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/theirongolddev/marginfc/internal/cli"
	"github.com/theirongolddev/marginfc/internal/pipeline"
	"github.com/theirongolddev/marginfc/internal/tui/components"
	"github.com/theirongolddev/marginfc/internal/tui/theme"
)

// Querier answers category selections. *pipeline.Runner satisfies it.
type Querier interface {
	Run(filter string) (*pipeline.Result, error)
	Categories() []string
	Version() string
}

// LoadFunc reads the input tables and returns a ready Querier. It runs off
// the UI goroutine and again on every reload.
type LoadFunc func() (Querier, error)

type loadedMsg struct {
	querier Querier
	err     error
	took    time.Duration
}

type resultMsg struct {
	filter string
	result *pipeline.Result
	err    error
}

// App is the root Bubble Tea model.
type App struct {
	load LoadFunc

	// Data
	querier    Querier
	categories []string
	loaded     bool
	loadErr    error
	loadTime   time.Duration

	// Current selection
	filter   string
	result   *pipeline.Result
	queryErr error
	querying bool

	// UI state
	width     int
	height    int
	activeTab int
	showHelp  bool
	spinner   spinner.Model
}

const (
	minTerminalWidth = 60
	maxContentWidth  = 160
	minContentHeight = 5

	historyBars = 24 // most recent observed months shown beside the projection
)

// NewApp creates the dashboard. category is the initial selection; empty
// selects "All".
func NewApp(load LoadFunc, category string) App {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(theme.Active.Accent).Background(theme.Active.Surface)

	return App{
		load:    load,
		filter:  pipeline.NormalizeFilter(category),
		spinner: sp,
	}
}

// Init implements tea.Model.
func (a App) Init() tea.Cmd {
	return tea.Batch(
		tea.EnableMouseCellMotion,
		loadCmd(a.load),
		a.spinner.Tick,
	)
}

// Update implements tea.Model.
func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		return a, nil

	case spinner.TickMsg:
		if a.loaded && !a.querying {
			return a, nil
		}
		var cmd tea.Cmd
		a.spinner, cmd = a.spinner.Update(msg)
		return a, cmd

	case loadedMsg:
		a.loaded = true
		a.loadTime = msg.took
		a.loadErr = msg.err
		if msg.err != nil {
			a.querier = nil
			return a, nil
		}
		a.querier = msg.querier
		a.categories = msg.querier.Categories()
		return a.startQuery()

	case resultMsg:
		if msg.filter != a.filter {
			return a, nil // superseded by a later selection
		}
		a.querying = false
		a.result = msg.result
		a.queryErr = msg.err
		return a, nil

	case tea.MouseMsg:
		if !a.loaded || a.showHelp {
			return a, nil
		}
		switch msg.Button {
		case tea.MouseButtonLeft:
			if msg.Y == 0 {
				if tab := a.tabAtX(msg.X); tab >= 0 {
					a.activeTab = tab
				}
			}
		case tea.MouseButtonWheelDown:
			return a.stepCategory(1)
		case tea.MouseButtonWheelUp:
			return a.stepCategory(-1)
		}
		return a, nil

	case tea.KeyMsg:
		key := msg.String()
		if key == "ctrl+c" || key == "q" {
			return a, tea.Quit
		}
		if !a.loaded {
			return a, nil
		}

		if key == "?" {
			a.showHelp = !a.showHelp
			return a, nil
		}
		if a.showHelp {
			a.showHelp = false
			return a, nil
		}

		switch key {
		case "left", "h":
			a.activeTab = (a.activeTab - 1 + len(components.Tabs)) % len(components.Tabs)
			return a, nil
		case "right", "l", "tab":
			a.activeTab = (a.activeTab + 1) % len(components.Tabs)
			return a, nil
		case "j", "down", "]":
			return a.stepCategory(1)
		case "k", "up", "[":
			return a.stepCategory(-1)
		case "r":
			a.loaded = false
			a.querying = false
			a.result = nil
			a.queryErr = nil
			return a, tea.Batch(loadCmd(a.load), a.spinner.Tick)
		}

		if len(key) == 1 {
			if idx := components.TabIdxByKey(rune(key[0])); idx >= 0 {
				a.activeTab = idx
			}
		}
		return a, nil
	}

	return a, nil
}

// stepCategory moves the selection by delta through the category list,
// wrapping at both ends. A selection not in the list steps from "All".
func (a App) stepCategory(delta int) (tea.Model, tea.Cmd) {
	if a.querier == nil || len(a.categories) == 0 {
		return a, nil
	}
	idx := a.categoryIndex()
	if idx < 0 {
		idx = 0
	} else {
		idx = (idx + delta + len(a.categories)) % len(a.categories)
	}
	a.filter = a.categories[idx]
	return a.startQuery()
}

func (a App) categoryIndex() int {
	for i, c := range a.categories {
		if c == a.filter {
			return i
		}
	}
	return -1
}

func (a App) startQuery() (tea.Model, tea.Cmd) {
	a.querying = true
	a.queryErr = nil
	return a, tea.Batch(queryCmd(a.querier, a.filter), a.spinner.Tick)
}

func loadCmd(load LoadFunc) tea.Cmd {
	return func() tea.Msg {
		start := time.Now()
		q, err := load()
		return loadedMsg{querier: q, err: err, took: time.Since(start)}
	}
}

func queryCmd(q Querier, filter string) tea.Cmd {
	return func() tea.Msg {
		res, err := q.Run(filter)
		return resultMsg{filter: filter, result: res, err: err}
	}
}

func (a App) contentWidth() int {
	return min(a.width, maxContentWidth)
}

// View implements tea.Model.
func (a App) View() string {
	if a.width == 0 {
		return ""
	}
	if a.width < minTerminalWidth {
		return a.viewTooNarrow()
	}
	if !a.loaded {
		return a.viewLoading()
	}
	if a.loadErr != nil {
		return a.viewLoadError()
	}
	if a.showHelp {
		return a.viewHelp()
	}
	return a.viewMain()
}

func (a App) viewTooNarrow() string {
	h := max(a.height, 5)
	msg := fmt.Sprintf(
		"\n  Terminal too narrow (%d cols)\n\n  marginfc needs at least %d columns.\n",
		a.width, minTerminalWidth,
	)
	return padHeight(truncateHeight(msg, h), h)
}

func (a App) viewLoading() string {
	t := theme.Active

	cardStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.BorderAccent).
		Background(t.Surface).
		Padding(2, 4)
	logoStyle := lipgloss.NewStyle().
		Foreground(t.AccentBright).
		Background(t.Surface).
		Bold(true)
	subtitleStyle := lipgloss.NewStyle().
		Foreground(t.TextMuted).
		Background(t.Surface)

	var b strings.Builder
	b.WriteString(logoStyle.Render("◈ marginfc"))
	b.WriteString(subtitleStyle.Render(" · Margin Forecasts"))
	b.WriteString("\n\n")
	b.WriteString(a.spinner.View())
	b.WriteString(subtitleStyle.Render(" Loading tables..."))

	return lipgloss.Place(a.width, a.height, lipgloss.Center, lipgloss.Center, cardStyle.Render(b.String()),
		lipgloss.WithWhitespaceBackground(t.Background))
}

func (a App) viewLoadError() string {
	t := theme.Active

	cardStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.Red).
		Background(t.Surface).
		Padding(1, 3).
		Width(min(a.width-4, 80))
	titleStyle := lipgloss.NewStyle().Foreground(t.Red).Background(t.Surface).Bold(true)
	textStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)
	dimStyle := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)

	body := titleStyle.Render("Could not load tables") + "\n\n" +
		textStyle.Render(a.loadErr.Error()) + "\n\n" +
		dimStyle.Render("[r] retry  [q] quit")

	return lipgloss.Place(a.width, a.height, lipgloss.Center, lipgloss.Center, cardStyle.Render(body),
		lipgloss.WithWhitespaceBackground(t.Background))
}

func (a App) viewHelp() string {
	t := theme.Active

	cardStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.BorderAccent).
		Background(t.Surface).
		Padding(1, 3)
	titleStyle := lipgloss.NewStyle().Foreground(t.AccentBright).Background(t.Surface).Bold(true)
	keyStyle := lipgloss.NewStyle().Foreground(t.Cyan).Background(t.Surface).Bold(true)
	descStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	dimStyle := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)

	var b strings.Builder
	b.WriteString(titleStyle.Render("◈ Keyboard Shortcuts"))
	b.WriteString("\n\n")
	for _, bind := range []struct{ key, desc string }{
		{"f b s", "Jump to tab"},
		{"← →", "Previous / Next tab"},
		{"j k  [ ]", "Next / Previous category"},
		{"r", "Reload tables"},
		{"?", "Toggle help"},
		{"q", "Quit"},
	} {
		fmt.Fprintf(&b, "  %s  %s\n",
			keyStyle.Render(fmt.Sprintf("%-10s", bind.key)),
			descStyle.Render(bind.desc))
	}
	b.WriteString("\n")
	b.WriteString(dimStyle.Render("Press any key to close"))

	return lipgloss.Place(a.width, a.height, lipgloss.Center, lipgloss.Center, cardStyle.Render(b.String()),
		lipgloss.WithWhitespaceBackground(t.Background))
}

func (a App) viewMain() string {
	t := theme.Active
	w := a.width
	cw := a.contentWidth()

	header := components.RenderTabBar(a.activeTab, w) + "\n" + a.renderFilterRow(w)
	statusBar := components.RenderStatusBar(w, a.statusInfo())

	contentH := max(a.height-lipgloss.Height(header)-lipgloss.Height(statusBar), minContentHeight)

	var content string
	switch {
	case a.queryErr != nil:
		content = a.renderQueryError(cw)
	case a.result == nil:
		content = "\n  " + a.spinner.View() + " Running pipeline for " + a.filter + "..."
	default:
		switch a.activeTab {
		case 0:
			content = a.renderForecastTab(cw, contentH)
		case 1:
			content = a.renderBreakdownTab(cw)
		case 2:
			content = a.renderScenariosTab(cw)
		}
	}

	content = padHeight(truncateHeight(content, contentH), contentH)
	content = fillLinesWithBackground(content, cw, t.Background)
	content = lipgloss.Place(w, contentH, lipgloss.Center, lipgloss.Top, content,
		lipgloss.WithWhitespaceBackground(t.Background))

	output := lipgloss.JoinVertical(lipgloss.Left, header, content, statusBar)
	return lipgloss.Place(w, a.height, lipgloss.Left, lipgloss.Top, output,
		lipgloss.WithWhitespaceBackground(t.Background))
}

func (a App) renderFilterRow(w int) string {
	t := theme.Active
	dimStyle := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)
	accentStyle := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface).Bold(true)
	warnStyle := lipgloss.NewStyle().Foreground(t.Yellow).Background(t.Surface)

	row := dimStyle.Render(" category ") + accentStyle.Render(a.filter)
	if idx := a.categoryIndex(); idx >= 0 {
		row += dimStyle.Render(fmt.Sprintf(" (%d/%d)", idx+1, len(a.categories)))
	}
	if a.result != nil {
		row += dimStyle.Render(" │ ") + accentStyle.Render(a.result.Forecast.Mode)
		if a.result.FellBackToAll {
			row += dimStyle.Render(" │ ") + warnStyle.Render("no records, showing All")
		}
	}
	return lipgloss.NewStyle().Background(t.Surface).Width(w).Render(row)
}

func (a App) statusInfo() string {
	if a.querier == nil {
		return ""
	}
	version := a.querier.Version()
	if len(version) > 8 {
		version = version[:8]
	}
	return fmt.Sprintf("data %s · loaded in %.1fs", version, a.loadTime.Seconds())
}

func (a App) renderQueryError(cw int) string {
	t := theme.Active
	var empty *pipeline.EmptyFilterResultError
	var short *pipeline.InsufficientDataError

	title := "Query failed"
	switch {
	case errors.As(a.queryErr, &empty):
		title = "No records"
	case errors.As(a.queryErr, &short):
		title = "Not enough history"
	}
	hint := lipgloss.NewStyle().Foreground(t.TextDim).Render("Use j/k to pick another category.")
	return components.ContentCard(title, a.queryErr.Error()+"\n\n"+hint, cw)
}

// ─── Tabs ───────────────────────────────────────────────────────

func (a App) renderForecastTab(cw, h int) string {
	t := theme.Active
	res := a.result
	fc := res.Forecast

	var lastActual, firstMean float64
	if n := res.Series.Len(); n > 0 {
		lastActual = res.Series.Points[n-1].Value.InexactFloat64()
	}
	delta := ""
	if len(fc.Future) > 0 {
		firstMean = fc.Future[0].Mean
		if lastActual != 0 {
			delta = cli.FormatDelta(firstMean, lastActual) + " vs last month"
		}
	}

	cards := components.MetricCardRow([]components.Metric{
		{Label: "Projected Total", Value: cli.FormatAmount(res.TotalMetric), Delta: fmt.Sprintf("%d months", len(fc.Future))},
		{Label: "Next Month", Value: cli.FormatAmount(firstMean), Delta: delta},
		{Label: "History", Value: cli.FormatNumber(int64(res.Series.Len())), Delta: "months observed"},
		{Label: "Observed Total", Value: cli.FormatDecimal(res.Series.Total())},
	}, cw)

	// History (dim) then projection (accent) on one axis.
	values := make([]float64, 0, historyBars+len(fc.Future))
	colors := make([]lipgloss.Color, 0, cap(values))
	labels := make([]string, 0, cap(values))
	start := max(0, res.Series.Len()-historyBars)
	for _, p := range res.Series.Points[start:] {
		values = append(values, p.Value.InexactFloat64())
		colors = append(colors, t.HistoryColor())
		labels = append(labels, p.Period.Format("Jan 06"))
	}
	for _, p := range fc.Future {
		values = append(values, p.Mean)
		colors = append(colors, t.Accent)
		labels = append(labels, p.Period.Format("Jan 06"))
	}

	chartH := max(h-lipgloss.Height(cards)-6, 6)
	innerW := components.CardInnerWidth(cw)
	chart := components.BarChart(values, colors, labels, innerW, chartH)

	legend := lipgloss.NewStyle().Foreground(t.HistoryColor()).Render("█ actual") + "  " +
		lipgloss.NewStyle().Foreground(t.Accent).Render("█ forecast")

	return cards + "\n" + components.ContentCard("Monthly margin · "+a.filter, chart+"\n"+legend, cw)
}

func (a App) renderBreakdownTab(cw int) string {
	res := a.result
	title := fmt.Sprintf("Forecast share by category · %d", res.TargetYear)
	if len(res.Breakdown) == 0 {
		return components.ContentCard(title, fmt.Sprintf("No future forecast rows for %d.", res.TargetYear), cw)
	}

	innerW := components.CardInnerWidth(cw)
	labelW := 4
	for _, s := range res.Breakdown {
		labelW = max(labelW, len(s.Category))
	}
	labelW = min(labelW, innerW/4)
	barW := max(innerW-labelW-22, 10)

	var b strings.Builder
	for i, s := range res.Breakdown {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(components.ShareBar(s.Category, s.SharePercent/100, cli.FormatAmount(s.Value), labelW, barW))
	}
	return components.ContentCard(title, b.String(), cw)
}

func (a App) renderScenariosTab(cw int) string {
	t := theme.Active
	res := a.result
	title := fmt.Sprintf("Growth scenarios · %d", res.TargetYear)

	var b strings.Builder
	if len(res.Comparison) == 0 {
		b.WriteString("No categories have both a forecast and growth rates.")
	} else {
		maxValue := 0.0
		for _, c := range res.Comparison {
			maxValue = max(maxValue, c.Original, c.Declared, c.MostLikely)
		}
		barW := max(components.CardInnerWidth(cw)-24, 10)
		for i, c := range res.Comparison {
			if i > 0 {
				b.WriteString("\n")
			}
			values := [3]float64{c.Original, c.Declared, c.MostLikely}
			formatted := [3]string{
				cli.FormatAmount(c.Original),
				cli.FormatAmount(c.Declared),
				cli.FormatAmount(c.MostLikely),
			}
			b.WriteString(components.ScenarioBars(c.Category, values, formatted, maxValue, barW))
		}
	}

	out := components.ContentCard(title, b.String(), cw)
	if res.Mismatch != nil {
		warn := lipgloss.NewStyle().Foreground(t.Yellow).Render("⚠ " + res.Mismatch.Error())
		out += "\n" + components.ContentCard("Join mismatch", warn, cw)
	}
	return out
}

// ─── Helpers ────────────────────────────────────────────────────

func truncateHeight(s string, limit int) string {
	lines := strings.Split(s, "\n")
	if len(lines) <= limit {
		return s
	}
	return strings.Join(lines[:limit], "\n")
}

func padHeight(s string, h int) string {
	lines := strings.Split(s, "\n")
	if len(lines) >= h {
		return s
	}
	return s + strings.Repeat("\n", h-len(lines))
}

// fillLinesWithBackground pads each line to width w with background color.
func fillLinesWithBackground(s string, w int, bg lipgloss.Color) string {
	lines := strings.Split(s, "\n")

	var result strings.Builder
	for i, line := range lines {
		placed := lipgloss.PlaceHorizontal(w, lipgloss.Left, line,
			lipgloss.WithWhitespaceBackground(bg))
		result.WriteString(placed)
		if i < len(lines)-1 {
			result.WriteString("\n")
		}
	}
	return result.String()
}

// tabAtX returns the tab index at the given X coordinate, or -1 if none.
// Hitboxes use the same width rules as RenderTabBar.
func (a App) tabAtX(x int) int {
	pos := 0
	for i := range components.Tabs {
		tabW := components.TabVisualWidth(i, a.activeTab)
		if x >= pos && x < pos+tabW {
			return i
		}
		pos += tabW + 1 // separator
	}
	return -1
}
