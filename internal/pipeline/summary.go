package pipeline

import "github.com/theirongolddev/marginfc/internal/model"

// TotalMetric sums the projected central estimates (uplift included).
func TotalMetric(fc model.ForecastResult) float64 {
	var total float64
	for _, p := range fc.Future {
		total += p.Mean
	}
	return total
}

// Breakdown returns each category's target-year forecast with its share of
// the total. Shares are zero when the total is not positive.
func Breakdown(forecasts []model.CategoryForecast) []model.BreakdownSlice {
	var total float64
	for _, cf := range forecasts {
		total += cf.ForecastValue
	}

	slices := make([]model.BreakdownSlice, 0, len(forecasts))
	for _, cf := range forecasts {
		s := model.BreakdownSlice{Category: cf.Category, Value: cf.ForecastValue}
		if total > 0 {
			s.SharePercent = cf.ForecastValue / total * 100
		}
		slices = append(slices, s)
	}
	return slices
}

// Comparison projects adjusted rows onto grouped-bar triples.
func Comparison(adjusted []model.AdjustedProjection) []model.ComparisonBar {
	bars := make([]model.ComparisonBar, 0, len(adjusted))
	for _, a := range adjusted {
		bars = append(bars, model.ComparisonBar{
			Category:   a.Category,
			Original:   a.Original,
			Declared:   a.AdjustedByDeclaredRate,
			MostLikely: a.AdjustedByMostLikelyRate,
		})
	}
	return bars
}
