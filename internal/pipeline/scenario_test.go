package pipeline

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/theirongolddev/marginfc/internal/model"
)

func TestAdjust_InnerJoinAndFormula(t *testing.T) {
	forecasts := []model.CategoryForecast{
		{Category: "Licensing", ForecastValue: 2000},
		{Category: "Consulting", ForecastValue: 1000},
		{Category: "Training", ForecastValue: 300},
	}
	rates := []model.GrowthRateEntry{
		{Category: "Consulting", DeclaredRatePercent: 4.9, MostLikelyRatePercent: 13.86},
		{Category: "Licensing", DeclaredRatePercent: -2.5, MostLikelyRatePercent: 0},
		{Category: "Hardware", DeclaredRatePercent: 10, MostLikelyRatePercent: 10},
	}

	got, warning := Adjust(forecasts, rates)
	require.Len(t, got, 2)

	// Order follows forecasts, not rates.
	assert.Equal(t, "Licensing", got[0].Category)
	assert.Equal(t, "Consulting", got[1].Category)

	relEqual := func(want, got float64) {
		t.Helper()
		assert.LessOrEqual(t, math.Abs(want-got), 1e-9*math.Abs(want), "want %v got %v", want, got)
	}
	relEqual(2000*(1+-2.5/100), got[0].AdjustedByDeclaredRate)
	relEqual(2000, got[0].AdjustedByMostLikelyRate)
	relEqual(1000, got[1].Original)
	relEqual(1049, got[1].AdjustedByDeclaredRate)
	relEqual(1138.6, got[1].AdjustedByMostLikelyRate)

	require.NotNil(t, warning)
	assert.Equal(t, []string{"Training"}, warning.MissingRates)
	assert.Equal(t, []string{"Hardware"}, warning.MissingForecast)
	assert.Equal(t, []string{"Training", "Hardware"}, warning.Dropped())
	assert.Contains(t, warning.Error(), "Training")
	assert.Contains(t, warning.Error(), "Hardware")
}

func TestAdjust_MissingRateDropsCategory(t *testing.T) {
	forecasts := []model.CategoryForecast{{Category: "Consulting", ForecastValue: 500}}

	got, warning := Adjust(forecasts, nil)
	assert.Empty(t, got)
	require.NotNil(t, warning)
	assert.Equal(t, []string{"Consulting"}, warning.MissingRates)
}

func TestAdjust_RatesAreNotCompounded(t *testing.T) {
	forecasts := []model.CategoryForecast{{Category: "Consulting", ForecastValue: 100}}
	rates := []model.GrowthRateEntry{{Category: "Consulting", DeclaredRatePercent: 10, MostLikelyRatePercent: 10}}

	got, warning := Adjust(forecasts, rates)
	assert.Nil(t, warning)
	require.Len(t, got, 1)
	assert.InDelta(t, 110, got[0].AdjustedByDeclaredRate, 1e-9)
	assert.InDelta(t, 110, got[0].AdjustedByMostLikelyRate, 1e-9)
}

func TestAdjust_DuplicatesKeepFirstRow(t *testing.T) {
	forecasts := []model.CategoryForecast{
		{Category: "Consulting", ForecastValue: 100},
		{Category: "Consulting", ForecastValue: 999},
	}
	rates := []model.GrowthRateEntry{
		{Category: "Consulting", DeclaredRatePercent: 50},
		{Category: "Consulting", DeclaredRatePercent: 0},
		{Category: "Hardware"},
		{Category: "Hardware"},
	}

	got, warning := Adjust(forecasts, rates)
	require.Len(t, got, 1)
	assert.InDelta(t, 150, got[0].AdjustedByDeclaredRate, 1e-9)
	require.NotNil(t, warning)
	assert.Equal(t, []string{"Hardware"}, warning.MissingForecast)
}

func TestAdjust_Empty(t *testing.T) {
	got, warning := Adjust(nil, nil)
	assert.Empty(t, got)
	assert.Nil(t, warning)
}
