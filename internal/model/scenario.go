package model

// AdjustedProjection holds a category's forecast under both scenario rates.
type AdjustedProjection struct {
	Category                 string  `json:"category"`
	Original                 float64 `json:"original"`
	AdjustedByDeclaredRate   float64 `json:"adjusted_by_declared_rate"`
	AdjustedByMostLikelyRate float64 `json:"adjusted_by_most_likely_rate"`
}

// BreakdownSlice is one category's share of the target-year forecast.
type BreakdownSlice struct {
	Category     string  `json:"category"`
	Value        float64 `json:"value"`
	SharePercent float64 `json:"share_percent"`
}

// ComparisonBar groups the three scenario values for one category.
type ComparisonBar struct {
	Category   string  `json:"category"`
	Original   float64 `json:"original"`
	Declared   float64 `json:"declared"`
	MostLikely float64 `json:"most_likely"`
}
