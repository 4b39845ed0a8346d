package pipeline

import "github.com/theirongolddev/marginfc/internal/model"

// Adjust inner-joins category forecasts with the growth-rate table and scales
// each matched forecast by both rates independently. Rows follow the order
// categories first appear in forecasts; a repeated category keeps its first row.
// The warning is non-nil when either side had categories the other lacked.
func Adjust(forecasts []model.CategoryForecast, rates []model.GrowthRateEntry) ([]model.AdjustedProjection, *JoinMismatchWarning) {
	rateByCategory := make(map[string]model.GrowthRateEntry, len(rates))
	for _, r := range rates {
		if _, dup := rateByCategory[r.Category]; !dup {
			rateByCategory[r.Category] = r
		}
	}

	var (
		out      []model.AdjustedProjection
		warning  JoinMismatchWarning
		forecast = make(map[string]struct{}, len(forecasts))
	)
	for _, cf := range forecasts {
		if _, seen := forecast[cf.Category]; seen {
			continue
		}
		forecast[cf.Category] = struct{}{}

		rate, ok := rateByCategory[cf.Category]
		if !ok {
			warning.MissingRates = append(warning.MissingRates, cf.Category)
			continue
		}
		out = append(out, model.AdjustedProjection{
			Category:                 cf.Category,
			Original:                 cf.ForecastValue,
			AdjustedByDeclaredRate:   cf.ForecastValue * (1 + rate.DeclaredRatePercent/100),
			AdjustedByMostLikelyRate: cf.ForecastValue * (1 + rate.MostLikelyRatePercent/100),
		})
	}

	for _, r := range rates {
		if _, ok := forecast[r.Category]; !ok {
			warning.MissingForecast = append(warning.MissingForecast, r.Category)
			forecast[r.Category] = struct{}{}
		}
	}

	if len(warning.MissingRates) == 0 && len(warning.MissingForecast) == 0 {
		return out, nil
	}
	return out, &warning
}
