package cli

import (
	"math"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestFormatAmount(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0, "0.00"},
		{12.345, "12.35"},
		{-1150.5, "-1,150.50"},
		{12345.6, "12,346"},
		{2_500_000, "2.50M"},
		{-3_100_000_000, "-3.10B"},
		{math.NaN(), "n/a"},
	}
	for _, tt := range tests {
		if got := FormatAmount(tt.in); got != tt.want {
			t.Errorf("FormatAmount(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFormatDecimal(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"0", "0.00"},
		{"1150.5", "1,150.50"},
		{"-1234567.891", "-1,234,567.89"},
		{"-0.5", "-0.50"},
	}
	for _, tt := range tests {
		if got := FormatDecimal(decimal.RequireFromString(tt.in)); got != tt.want {
			t.Errorf("FormatDecimal(%s) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFormatNumber(t *testing.T) {
	tests := []struct {
		in   int64
		want string
	}{
		{0, "0"},
		{999, "999"},
		{1000, "1,000"},
		{1234567, "1,234,567"},
		{-1234, "-1,234"},
	}
	for _, tt := range tests {
		if got := FormatNumber(tt.in); got != tt.want {
			t.Errorf("FormatNumber(%d) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFormatPercentAndRate(t *testing.T) {
	if got := FormatPercent(80); got != "80.0%" {
		t.Errorf("FormatPercent(80) = %q", got)
	}
	if got := FormatRate(4.9); got != "+4.90%" {
		t.Errorf("FormatRate(4.9) = %q", got)
	}
	if got := FormatRate(-2.5); got != "-2.50%" {
		t.Errorf("FormatRate(-2.5) = %q", got)
	}
}

func TestFormatDelta(t *testing.T) {
	if got := FormatDelta(1049, 1000); got != "+49.00" {
		t.Errorf("FormatDelta = %q, want +49.00", got)
	}
	if got := FormatDelta(900, 1000); got != "-100.00" {
		t.Errorf("FormatDelta = %q, want -100.00", got)
	}
}

func TestFormatMonth(t *testing.T) {
	got := FormatMonth(time.Date(2023, time.February, 1, 0, 0, 0, 0, time.UTC))
	if got != "Feb 2023" {
		t.Errorf("FormatMonth = %q, want Feb 2023", got)
	}
}

func TestRenderSparkline_Negative(t *testing.T) {
	got := []rune(RenderSparkline([]float64{-10, 0, 10}))
	if len(got) != 3 {
		t.Fatalf("len = %d, want 3", len(got))
	}
	if got[0] != '▁' || got[2] != '█' {
		t.Errorf("sparkline = %q, want low-to-high", string(got))
	}
	if s := RenderSparkline([]float64{5, 5}); s != "▁▁" {
		t.Errorf("flat sparkline = %q", s)
	}
}
