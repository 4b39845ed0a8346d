// Package pipeline turns historical margin records into monthly series,
// forecasts them, and applies growth-rate scenarios.
package pipeline

import (
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/theirongolddev/marginfc/internal/model"
)

// NormalizeFilter maps an empty or case-insensitive "all" filter to the
// AllCategories sentinel. Any other value is returned trimmed.
func NormalizeFilter(filter string) string {
	filter = strings.TrimSpace(filter)
	if filter == "" || strings.EqualFold(filter, model.AllCategories) {
		return model.AllCategories
	}
	return filter
}

// MonthStart returns the first instant of t's calendar month in UTC.
func MonthStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

// Aggregate buckets records into a monthly series for one category, or for
// every category summed together when filter is "All".
// Records dated in excludedYears are dropped first. Months with no
// contributing record are absent from the series, not zero.
func Aggregate(records []model.Record, filter string, excludedYears []int) (model.Series, error) {
	filter = NormalizeFilter(filter)
	filtered := FilterByCategory(FilterByYears(records, excludedYears), filter)
	if len(filtered) == 0 {
		return model.Series{}, &EmptyFilterResultError{Filter: filter}
	}

	monthMap := make(map[time.Time]decimal.Decimal)
	for _, r := range filtered {
		key := MonthStart(r.Date)
		monthMap[key] = monthMap[key].Add(r.Margin)
	}

	points := make([]model.TimeSeriesPoint, 0, len(monthMap))
	for period, total := range monthMap {
		points = append(points, model.TimeSeriesPoint{Period: period, Value: total})
	}
	sort.Slice(points, func(i, j int) bool {
		return points[i].Period.Before(points[j].Period)
	})

	return model.Series{Category: filter, Points: points}, nil
}

// FilterByYears returns records whose calendar year is not in excludedYears.
func FilterByYears(records []model.Record, excludedYears []int) []model.Record {
	if len(excludedYears) == 0 {
		return records
	}
	excluded := make(map[int]struct{}, len(excludedYears))
	for _, y := range excludedYears {
		excluded[y] = struct{}{}
	}

	var result []model.Record
	for _, r := range records {
		if _, skip := excluded[r.Date.Year()]; skip {
			continue
		}
		result = append(result, r)
	}
	return result
}

// FilterByCategory returns records for one category. "All" returns every record.
func FilterByCategory(records []model.Record, category string) []model.Record {
	if category == model.AllCategories {
		return records
	}
	var result []model.Record
	for _, r := range records {
		if r.Category == category {
			result = append(result, r)
		}
	}
	return result
}

// Categories lists distinct categories that survive the year exclusion,
// in the order they first appear.
func Categories(records []model.Record, excludedYears []int) []string {
	seen := make(map[string]struct{})
	var cats []string
	for _, r := range FilterByYears(records, excludedYears) {
		if _, ok := seen[r.Category]; ok {
			continue
		}
		seen[r.Category] = struct{}{}
		cats = append(cats, r.Category)
	}
	return cats
}

// CategoryForecastsForYear sums the future table per category for one target
// year, in first-appearance order. A zero year selects the earliest year present.
func CategoryForecastsForYear(rows []model.FutureRow, year int) []model.CategoryForecast {
	if len(rows) == 0 {
		return nil
	}
	year = TargetYear(rows, year)

	index := make(map[string]int)
	var out []model.CategoryForecast
	for _, r := range rows {
		if r.Date.Year() != year {
			continue
		}
		i, ok := index[r.Category]
		if !ok {
			i = len(out)
			index[r.Category] = i
			out = append(out, model.CategoryForecast{Category: r.Category})
		}
		out[i].ForecastValue += r.Value
	}
	return out
}

// TargetYear returns year, or the earliest year in rows when year is zero.
func TargetYear(rows []model.FutureRow, year int) int {
	if year != 0 || len(rows) == 0 {
		return year
	}
	year = rows[0].Date.Year()
	for _, r := range rows[1:] {
		if y := r.Date.Year(); y < year {
			year = y
		}
	}
	return year
}
