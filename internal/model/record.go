// Package model defines domain types for marginfc records, series, and forecasts.
package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// AllCategories is the filter sentinel that rolls every category into one series.
const AllCategories = "All"

// Record is one historical row: a dated margin booked against a category.
type Record struct {
	Date     time.Time       `json:"date"`
	Category string          `json:"category"`
	Margin   decimal.Decimal `json:"margin"`
}

// GrowthRateEntry holds the scenario rates for one category.
// Rates are already-scaled percentages: 4.9 means 4.9%.
type GrowthRateEntry struct {
	Category              string  `json:"category"`
	DeclaredRatePercent   float64 `json:"declared_rate_percent"`
	MostLikelyRatePercent float64 `json:"most_likely_rate_percent"`
}

// FutureRow is one row of the externally produced category forecast table.
type FutureRow struct {
	Date     time.Time `json:"date"`
	Category string    `json:"category"`
	Value    float64   `json:"value"`
}

// CategoryForecast is the per-category future-year forecast used as
// adjustment input.
type CategoryForecast struct {
	Category      string  `json:"category"`
	ForecastValue float64 `json:"forecast_value"`
}
