package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// TimeSeriesPoint is one monthly bucket. Period is always the first of the month, UTC.
type TimeSeriesPoint struct {
	Period time.Time       `json:"period"`
	Value  decimal.Decimal `json:"value"`
}

// Series is an ordered monthly series for one category or the "All" rollup.
// Periods are unique and strictly increasing; months without records are absent.
type Series struct {
	Category string            `json:"category"`
	Points   []TimeSeriesPoint `json:"points"`
}

// Len returns the number of points in the series.
func (s Series) Len() int { return len(s.Points) }

// Values returns the point values as float64, in period order.
func (s Series) Values() []float64 {
	out := make([]float64, len(s.Points))
	for i, p := range s.Points {
		out[i] = p.Value.InexactFloat64()
	}
	return out
}

// Total returns the exact decimal sum of the series.
func (s Series) Total() decimal.Decimal {
	total := decimal.Zero
	for _, p := range s.Points {
		total = total.Add(p.Value)
	}
	return total
}

// Forecast modes.
const (
	ModeSeasonal  = "seasonal"
	ModeTrendOnly = "trend-only"
)

// FittedPoint is the model's in-sample estimate for one historical period.
type FittedPoint struct {
	Period time.Time `json:"period"`
	Fitted float64   `json:"fitted"`
}

// FuturePoint is one projected period with its uncertainty band.
type FuturePoint struct {
	Period time.Time `json:"period"`
	Mean   float64   `json:"mean"`
	Lower  float64   `json:"lower"`
	Upper  float64   `json:"upper"`
}

// ForecastResult holds the historical fit and the projected horizon.
type ForecastResult struct {
	Mode       string        `json:"mode"`
	Historical []FittedPoint `json:"historical"`
	Future     []FuturePoint `json:"future"`
}

// FutureMeans returns the central estimates of the projected horizon.
func (f ForecastResult) FutureMeans() []float64 {
	out := make([]float64, len(f.Future))
	for i, p := range f.Future {
		out[i] = p.Mean
	}
	return out
}
