package pipeline

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/theirongolddev/marginfc/internal/model"
)

var sampleRecords = []model.Record{
	rec(2022, time.January, 3, "Consulting", "100"),
	rec(2022, time.January, 20, "Licensing", "40.25"),
	rec(2022, time.February, 1, "Consulting", "150"),
	rec(2022, time.March, 31, "Licensing", "-10"),
	rec(2023, time.January, 15, "Consulting", "80.10"),
	rec(2023, time.January, 16, "Consulting", "19.90"),
	rec(2023, time.May, 2, "Training", "12"),
	rec(2024, time.January, 2, "Consulting", "9999"),
	rec(2025, time.June, 2, "Training", "9999"),
}

var policyExcluded = []int{2024, 2025}

func TestAggregate_Example(t *testing.T) {
	records := []model.Record{
		rec(2023, time.January, 1, "Consulting", "100"),
		rec(2023, time.February, 1, "Consulting", "150"),
	}

	s, err := Aggregate(records, "Consulting", nil)
	require.NoError(t, err)
	require.Len(t, s.Points, 2)
	assert.Equal(t, day(2023, time.January, 1), s.Points[0].Period)
	assert.Equal(t, "100", s.Points[0].Value.String())
	assert.Equal(t, day(2023, time.February, 1), s.Points[1].Period)
	assert.Equal(t, "150", s.Points[1].Value.String())
}

func TestAggregate_SumMatchesFilteredRecords(t *testing.T) {
	for _, c := range []string{"Consulting", "Licensing", "Training"} {
		t.Run(c, func(t *testing.T) {
			want := decimal.Zero
			for _, r := range sampleRecords {
				if r.Category == c && r.Date.Year() != 2024 && r.Date.Year() != 2025 {
					want = want.Add(r.Margin)
				}
			}

			s, err := Aggregate(sampleRecords, c, policyExcluded)
			require.NoError(t, err)
			assert.True(t, s.Total().Equal(want), "total %s, want %s", s.Total(), want)
			assert.Equal(t, c, s.Category)
		})
	}
}

func TestAggregate_AllIsPerPeriodSumOfCategories(t *testing.T) {
	all, err := Aggregate(sampleRecords, model.AllCategories, policyExcluded)
	require.NoError(t, err)

	perPeriod := make(map[time.Time]decimal.Decimal)
	for _, c := range Categories(sampleRecords, policyExcluded) {
		s, err := Aggregate(sampleRecords, c, policyExcluded)
		require.NoError(t, err)
		for _, p := range s.Points {
			perPeriod[p.Period] = perPeriod[p.Period].Add(p.Value)
		}
	}

	require.Len(t, all.Points, len(perPeriod))
	for _, p := range all.Points {
		assert.True(t, p.Value.Equal(perPeriod[p.Period]), "period %s: %s vs %s", p.Period, p.Value, perPeriod[p.Period])
	}
}

func TestAggregate_OrderedMonthStartsWithGapsAbsent(t *testing.T) {
	s, err := Aggregate(sampleRecords, "", policyExcluded)
	require.NoError(t, err)
	assert.Equal(t, model.AllCategories, s.Category)

	want := []time.Time{
		day(2022, time.January, 1),
		day(2022, time.February, 1),
		day(2022, time.March, 1),
		day(2023, time.January, 1),
		day(2023, time.May, 1),
	}
	require.Len(t, s.Points, len(want))
	for i, p := range s.Points {
		assert.Equal(t, want[i], p.Period)
	}
	assert.Equal(t, "140.25", s.Points[0].Value.String())
}

func TestAggregate_ExcludedYearsDropped(t *testing.T) {
	s, err := Aggregate(sampleRecords, "Consulting", nil)
	require.NoError(t, err)
	assert.Equal(t, day(2024, time.January, 1), s.Points[len(s.Points)-1].Period)

	s, err = Aggregate(sampleRecords, "Consulting", policyExcluded)
	require.NoError(t, err)
	assert.Equal(t, day(2023, time.January, 1), s.Points[len(s.Points)-1].Period)
}

func TestAggregate_EmptyFilterResult(t *testing.T) {
	for _, filter := range []string{"Hardware", "consulting"} {
		_, err := Aggregate(sampleRecords, filter, policyExcluded)
		var emptyErr *EmptyFilterResultError
		require.True(t, errors.As(err, &emptyErr), "filter %q: err = %v", filter, err)
		assert.Equal(t, filter, emptyErr.Filter)
	}

	// A category that only exists in excluded years is empty too.
	records := []model.Record{rec(2024, time.March, 1, "Hardware", "1")}
	_, err := Aggregate(records, "Hardware", policyExcluded)
	var emptyErr *EmptyFilterResultError
	assert.ErrorAs(t, err, &emptyErr)
}

func TestNormalizeFilter(t *testing.T) {
	assert.Equal(t, model.AllCategories, NormalizeFilter(""))
	assert.Equal(t, model.AllCategories, NormalizeFilter("  all "))
	assert.Equal(t, model.AllCategories, NormalizeFilter("ALL"))
	assert.Equal(t, "Consulting", NormalizeFilter(" Consulting"))
}

func TestCategories_FirstAppearanceOrder(t *testing.T) {
	assert.Equal(t, []string{"Consulting", "Licensing", "Training"}, Categories(sampleRecords, policyExcluded))

	only2024 := []model.Record{rec(2024, time.March, 1, "Hardware", "1")}
	assert.Empty(t, Categories(only2024, policyExcluded))
}

func TestCategoryForecastsForYear(t *testing.T) {
	rows := []model.FutureRow{
		{Date: day(2027, time.January, 1), Category: "Licensing", Value: 5},
		{Date: day(2026, time.January, 1), Category: "Consulting", Value: 100},
		{Date: day(2026, time.February, 1), Category: "Licensing", Value: 20},
		{Date: day(2026, time.March, 1), Category: "Consulting", Value: 50},
	}

	got := CategoryForecastsForYear(rows, 0)
	assert.Equal(t, []model.CategoryForecast{
		{Category: "Consulting", ForecastValue: 150},
		{Category: "Licensing", ForecastValue: 20},
	}, got)

	got = CategoryForecastsForYear(rows, 2027)
	assert.Equal(t, []model.CategoryForecast{{Category: "Licensing", ForecastValue: 5}}, got)

	assert.Empty(t, CategoryForecastsForYear(rows, 2030))
	assert.Nil(t, CategoryForecastsForYear(nil, 0))
	assert.Equal(t, 2026, TargetYear(rows, 0))
	assert.Equal(t, 2031, TargetYear(rows, 2031))
}
