package forecast_test

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentetemporada/backend-go/internal/domain"
	"github.com/agentetemporada/backend-go/internal/forecast"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestFixedWeights_RejectsWeightsNotSummingToOne(t *testing.T) {
	w := forecast.FixedWeights{ByMonth: map[time.Month]float64{
		time.January:  0.9,
		time.February: 0.2,
	}}

	_, _, err := w.MonthWeights(date(2025, time.January, 15), 30)
	assert.Error(t, err)
}

func TestFixedWeights_ReturnsConfiguredSplit(t *testing.T) {
	w := forecast.FixedWeights{ByMonth: map[time.Month]float64{
		time.January:  0.9,
		time.February: 0.1,
	}}

	weights, warning, err := w.MonthWeights(date(2025, time.June, 1), 30)
	require.NoError(t, err)
	assert.Nil(t, warning)
	assert.Equal(t, 0.9, weights[time.January])
	assert.Equal(t, 0.1, weights[time.February])
}

func TestDayCountWeights_SplitsWindowByCalendarDays(t *testing.T) {
	w := forecast.DayCountWeights{}

	// Jan 15 + 30 days: 17 days in January, 13 in February.
	weights, warning, err := w.MonthWeights(date(2025, time.January, 15), 30)
	require.NoError(t, err)
	assert.Nil(t, warning)
	assert.InDelta(t, 17.0/30.0, weights[time.January], 1e-12)
	assert.InDelta(t, 13.0/30.0, weights[time.February], 1e-12)
}

func TestDayCountWeights_SumToOneForAnyAnchor(t *testing.T) {
	w := forecast.DayCountWeights{}
	anchors := []time.Time{
		date(2025, time.January, 1),
		date(2025, time.February, 27),
		date(2024, time.February, 28), // leap year
		date(2025, time.December, 20),
		date(2025, time.June, 30),
	}
	horizons := []int{1, 15, 30, 45, 90}

	for _, anchor := range anchors {
		for _, horizon := range horizons {
			weights, _, err := w.MonthWeights(anchor, horizon)
			require.NoError(t, err)

			sum := 0.0
			for _, frac := range weights {
				sum += frac
			}
			assert.InDelta(t, 1.0, sum, 1e-9, "anchor %s horizon %d", anchor, horizon)
		}
	}
}

func TestDayCountWeights_OutOfModelMonthsRaiseWarning(t *testing.T) {
	w := forecast.DayCountWeights{
		AllowedMonths: []time.Month{time.January, time.February},
		Renormalize:   true,
	}

	// Feb 20 + 30 days: 9 days in February, 21 days spill into March.
	weights, warning, err := w.MonthWeights(date(2025, time.February, 20), 30)
	require.NoError(t, err)
	require.NotNil(t, warning)
	assert.Equal(t, 21, warning.OtherDays)
	assert.Equal(t, []time.Month{time.March}, warning.OtherMonths)
	assert.True(t, warning.Renormalized)

	// Renormalized: all remaining weight sits on February.
	assert.InDelta(t, 1.0, weights[time.February], 1e-9)
}

func TestDayCountWeights_PartialWeightsWithoutRenormalize(t *testing.T) {
	w := forecast.DayCountWeights{
		AllowedMonths: []time.Month{time.January, time.February},
	}

	weights, warning, err := w.MonthWeights(date(2025, time.February, 20), 30)
	require.NoError(t, err)
	require.NotNil(t, warning)
	assert.False(t, warning.Renormalized)
	assert.InDelta(t, 9.0/30.0, weights[time.February], 1e-9)
}

func TestDayCountWeights_WindowEntirelyOutsideModelFails(t *testing.T) {
	w := forecast.DayCountWeights{
		AllowedMonths: []time.Month{time.January},
		Renormalize:   true,
	}

	_, _, err := w.MonthWeights(date(2025, time.June, 1), 15)
	assert.Error(t, err)
}

func TestHistoricalComponent_WeightedSumDefaultsMissingToZero(t *testing.T) {
	agg := forecast.Aggregate([]domain.HistoricalRecord{
		histRow("A100", 2025, time.January, 70),
		histRow("A100", 2025, time.February, 20),
	}, forecast.AggregateOptions{Statistic: forecast.StatisticMax})

	weights := map[time.Month]float64{
		time.January:  0.9,
		time.February: 0.1,
	}
	assert.InDelta(t, 65.0, forecast.HistoricalComponent(agg, weights, "A100"), 1e-9)

	// A SKU absent from the ledger blends to zero, not NaN.
	got := forecast.HistoricalComponent(agg, weights, "B200")
	assert.False(t, math.IsNaN(got))
	assert.Equal(t, 0.0, got)
}
