package pipeline

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/theirongolddev/marginfc/internal/model"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func rec(y int, m time.Month, d int, category string, margin string) model.Record {
	return model.Record{Date: day(y, m, d), Category: category, Margin: decimal.RequireFromString(margin)}
}

// monthlySeries builds a gap-free series starting at start with one value per month.
func monthlySeries(t *testing.T, category string, start time.Time, values ...float64) model.Series {
	t.Helper()
	s := model.Series{Category: category}
	for i, v := range values {
		s.Points = append(s.Points, model.TimeSeriesPoint{
			Period: start.AddDate(0, i, 0),
			Value:  decimal.NewFromFloat(v),
		})
	}
	return s
}
