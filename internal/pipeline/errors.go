package pipeline

import (
	"fmt"
	"strings"
)

// EmptyFilterResultError reports a category filter that matched no records
// after the excluded years were removed.
type EmptyFilterResultError struct {
	Filter string
}

func (e *EmptyFilterResultError) Error() string {
	return fmt.Sprintf("no records match category %q", e.Filter)
}

// InsufficientDataError reports a series too short to fit.
type InsufficientDataError struct {
	Points int
	Min    int
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("series has %d points, need at least %d", e.Points, e.Min)
}

// JoinMismatchWarning lists categories dropped by the scenario inner join.
// It is returned alongside results, never in place of them.
type JoinMismatchWarning struct {
	MissingRates    []string `json:"missing_rates,omitempty"`    // forecast categories with no growth-rate entry
	MissingForecast []string `json:"missing_forecast,omitempty"` // growth-rate categories with no forecast
}

func (w *JoinMismatchWarning) Error() string {
	var parts []string
	if len(w.MissingRates) > 0 {
		parts = append(parts, "no growth rate for "+strings.Join(w.MissingRates, ", "))
	}
	if len(w.MissingForecast) > 0 {
		parts = append(parts, "no forecast for "+strings.Join(w.MissingForecast, ", "))
	}
	return "scenario join dropped categories: " + strings.Join(parts, "; ")
}

// Dropped returns every category excluded by the join.
func (w *JoinMismatchWarning) Dropped() []string {
	out := make([]string, 0, len(w.MissingRates)+len(w.MissingForecast))
	out = append(out, w.MissingRates...)
	return append(out, w.MissingForecast...)
}
