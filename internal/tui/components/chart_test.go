package components

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
)

func TestChartTickStep(t *testing.T) {
	for _, tc := range []struct {
		max  float64
		want float64
	}{
		{max: 0, want: 1},
		{max: 7, want: 1},
		{max: 40, want: 5},
		{max: 80, want: 20},
		{max: 950, want: 200},
		{max: 12_000, want: 2000},
	} {
		if got := chartTickStep(tc.max); got != tc.want {
			t.Errorf("chartTickStep(%v) = %v, want %v", tc.max, got, tc.want)
		}
	}
}

func TestFormatChartLabel_Negative(t *testing.T) {
	pos := formatChartLabel(1500)
	neg := formatChartLabel(-1500)
	if neg != "-"+pos {
		t.Errorf("formatChartLabel(-1500) = %q, want %q", neg, "-"+pos)
	}
}

func TestBarChartHeight(t *testing.T) {
	values := []float64{10, 20, -5, 40}
	colors := []lipgloss.Color{"#111111", "#111111", "#222222", "#222222"}
	labels := []string{"Jan", "Feb", "Mar", "Apr"}

	out := BarChart(values, colors, labels, 40, 8)
	if out == "" {
		t.Fatal("BarChart returned empty output")
	}
	if lines := strings.Count(out, "\n") + 1; lines < 8 {
		t.Errorf("BarChart rendered %d lines, want at least 8", lines)
	}
}

func TestBarChartFallsBackToSparkline(t *testing.T) {
	out := BarChart([]float64{1, 2, 3}, nil, nil, 10, 2)
	if strings.Contains(out, "\n") {
		t.Errorf("narrow BarChart should render a single-line sparkline, got %q", out)
	}
}
