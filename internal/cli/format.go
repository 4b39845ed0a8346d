// Package cli provides formatting and rendering utilities for terminal output.
package cli

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// FormatAmount formats a margin value compactly with a sign.
// e.g., 1234 -> "1,234", 1234567 -> "1.23M", -2500000000 -> "-2.50B"
func FormatAmount(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "n/a"
	}
	abs := math.Abs(v)

	switch {
	case abs >= 1_000_000_000:
		return fmt.Sprintf("%.2fB", v/1_000_000_000)
	case abs >= 1_000_000:
		return fmt.Sprintf("%.2fM", v/1_000_000)
	case abs >= 10_000:
		return FormatNumber(int64(math.Round(v)))
	default:
		return FormatFixed(v, 2)
	}
}

// FormatDecimal formats an exact decimal with separators and two places.
func FormatDecimal(d decimal.Decimal) string {
	s := d.StringFixed(2)
	neg := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")

	intPart, frac, _ := strings.Cut(s, ".")
	n, err := strconv.ParseInt(intPart, 10, 64)
	if err != nil {
		// Beyond int64 there is nothing sensible to group.
		return d.StringFixed(2)
	}
	out := FormatNumber(n) + "." + frac
	if neg {
		out = "-" + out
	}
	return out
}

// FormatFixed formats v with separators and the given number of decimal places.
func FormatFixed(v float64, places int32) string {
	return FormatDecimal(decimal.NewFromFloat(v).Round(places))
}

// FormatNumber adds comma separators to an integer.
// e.g., 1234567 -> "1,234,567"
func FormatNumber(n int64) string {
	if n < 0 {
		return "-" + FormatNumber(-n)
	}

	s := strconv.FormatInt(n, 10)
	if len(s) <= 3 {
		return s
	}

	var result strings.Builder
	remainder := len(s) % 3
	if remainder > 0 {
		result.WriteString(s[:remainder])
	}
	for i := remainder; i < len(s); i += 3 {
		if result.Len() > 0 {
			result.WriteByte(',')
		}
		result.WriteString(s[i : i+3])
	}
	return result.String()
}

// FormatPercent formats an already-scaled percentage (4.9 -> "4.9%").
func FormatPercent(p float64) string {
	return fmt.Sprintf("%.1f%%", p)
}

// FormatRate formats a growth rate with an explicit sign (4.9 -> "+4.90%").
func FormatRate(p float64) string {
	return fmt.Sprintf("%+.2f%%", p)
}

// FormatDelta formats the change from previous to current with a sign.
func FormatDelta(current, previous float64) string {
	delta := current - previous
	if delta >= 0 {
		return "+" + FormatAmount(delta)
	}
	return "-" + FormatAmount(-delta)
}

// FormatMonth renders a series period as "Jan 2023".
func FormatMonth(t time.Time) string {
	return t.Format("Jan 2006")
}
