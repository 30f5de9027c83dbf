package forecast_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentetemporada/backend-go/internal/domain"
	"github.com/agentetemporada/backend-go/internal/forecast"
)

func winterEngine(t *testing.T, blend forecast.BlendPolicy, rounding forecast.RoundingPolicy) *forecast.Engine {
	t.Helper()
	engine, err := forecast.NewEngine(forecast.Options{
		HorizonDays: 30,
		Anchor:      date(2026, time.January, 10),
		Statistic:   forecast.StatisticMax,
		Tiebreak:    forecast.TiebreakHalfUp,
		Weighting: forecast.FixedWeights{ByMonth: map[time.Month]float64{
			time.January:  0.9,
			time.February: 0.1,
		}},
		Blend:    blend,
		Rounding: rounding,
	})
	require.NoError(t, err)
	return engine
}

func a100Input() forecast.Input {
	return forecast.Input{
		Historical: []domain.HistoricalRecord{
			{SKU: "A100", Name: "Gorro lana", Year: 2024, Month: time.January, UnitsSold: 50},
			{SKU: "A100", Year: 2025, Month: time.January, UnitsSold: 70},
			{SKU: "A100", Year: 2024, Month: time.February, UnitsSold: 10},
			{SKU: "A100", Year: 2025, Month: time.February, UnitsSold: 20},
		},
		Snapshot: []domain.SnapshotRecord{
			{SKU: "A100", TrailingUnits: 80, TrailingWindowDays: 30, StockOnHand: 40},
		},
	}
}

func TestEngine_EndToEndLinearAlpha(t *testing.T) {
	// Period stats: Jan max 70, Feb max 20. Seasonal: 0.9*70 + 0.1*20 = 65.
	// Linear alpha 0.30 against V30D 80: 0.7*65 + 0.3*80 = 69.5 -> 70.
	// Purchase: 70 - 40 stock = 30.
	engine := winterEngine(t, forecast.LinearAlpha{Alpha: 0.30}, forecast.RoundingPolicy{})

	result, err := engine.Run(context.Background(), a100Input())
	require.NoError(t, err)

	require.Len(t, result.Rows, 1)
	row := result.Rows[0]
	assert.Equal(t, "A100", row.SKU)
	assert.Equal(t, "Gorro lana", row.Name)
	assert.Equal(t, 70, row.FinalDemand)
	assert.Equal(t, 30, row.PurchaseQuantity)
	assert.Equal(t, 70.0, row.PeriodStatistics[time.January])
	assert.Equal(t, 20.0, row.PeriodStatistics[time.February])
	assert.InDelta(t, 65.0, row.HistoricalComponent, 1e-9)
	assert.False(t, result.Warnings.EmptyResult)
}

func TestEngine_RunIsIdempotent(t *testing.T) {
	engine := winterEngine(t, forecast.LinearAlpha{Alpha: 0.30}, forecast.RoundingPolicy{Multiple: 5})
	input := a100Input()

	first, err := engine.Run(context.Background(), input)
	require.NoError(t, err)
	second, err := engine.Run(context.Background(), input)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestEngine_FullyStockedYieldsEmptyResultWarning(t *testing.T) {
	engine := winterEngine(t, forecast.LinearAlpha{Alpha: 0.30}, forecast.RoundingPolicy{})
	input := a100Input()
	input.Snapshot[0].StockOnHand = 500

	result, err := engine.Run(context.Background(), input)
	require.NoError(t, err)

	assert.Empty(t, result.Rows)
	assert.True(t, result.Warnings.EmptyResult)
}

func TestEngine_NameFallsBackToSnapshotThenLedgerThenSentinel(t *testing.T) {
	engine := winterEngine(t, forecast.LinearAlpha{Alpha: 0.30}, forecast.RoundingPolicy{})
	input := a100Input()
	input.Snapshot = append(input.Snapshot, domain.SnapshotRecord{
		SKU: "Z900", TrailingUnits: 40, TrailingWindowDays: 30, StockOnHand: 0,
	})
	input.Snapshot[0].Name = "Gorro lana (snapshot)"

	result, err := engine.Run(context.Background(), input)
	require.NoError(t, err)
	require.Len(t, result.Rows, 2)

	byName := map[string]string{}
	for _, row := range result.Rows {
		byName[row.SKU] = row.Name
	}
	assert.Equal(t, "Gorro lana (snapshot)", byName["A100"])
	assert.Equal(t, domain.UnnamedProduct, byName["Z900"])
}

func TestEngine_ProjectionInputUsesLongWindowRate(t *testing.T) {
	// 365 units over a 365-day window is 1/day, so the projected average
	// over a 30-day horizon is 30. With zero recent velocity the dominance
	// policy halves it: final demand 15.
	long := 365.0
	engine, err := forecast.NewEngine(forecast.Options{
		HorizonDays:     30,
		Anchor:          date(2026, time.January, 10),
		Weighting:       forecast.FixedWeights{ByMonth: map[time.Month]float64{time.January: 1}},
		Blend:           forecast.DominanceCeiling{},
		HistoricalInput: forecast.InputProjection,
	})
	require.NoError(t, err)

	input := a100Input()
	input.Snapshot = []domain.SnapshotRecord{{
		SKU:                "A100",
		TrailingUnits:      0,
		TrailingWindowDays: 30,
		LongTrailingUnits:  &long,
		LongTrailingWindow: 365,
		StockOnHand:        0,
	}}

	result, err := engine.Run(context.Background(), input)
	require.NoError(t, err)

	require.Len(t, result.Rows, 1)
	assert.Equal(t, 15, result.Rows[0].FinalDemand)
	assert.Equal(t, 15, result.Rows[0].PurchaseQuantity)
}

func TestEngine_PriorWindowInputReproducesMaxOfWindows(t *testing.T) {
	// Prior-window historical input plus a zero-uplift additive policy
	// gives demand = max(V30D current, V30D year-ago), purchase rounded
	// up to 5s.
	prior := 100.0
	engine, err := forecast.NewEngine(forecast.Options{
		HorizonDays:     30,
		Anchor:          date(2026, time.January, 10),
		Weighting:       forecast.FixedWeights{ByMonth: map[time.Month]float64{time.January: 1}},
		Blend:           forecast.AdditiveUplift{},
		HistoricalInput: forecast.InputPriorWindow,
		Rounding:        forecast.RoundingPolicy{Multiple: 5},
	})
	require.NoError(t, err)

	input := forecast.Input{
		Snapshot: []domain.SnapshotRecord{{
			SKU:                "A100",
			Name:               "Guantes",
			TrailingUnits:      80,
			TrailingWindowDays: 30,
			PriorTrailingUnits: &prior,
			StockOnHand:        42,
		}},
	}

	result, err := engine.Run(context.Background(), input)
	require.NoError(t, err)

	require.Len(t, result.Rows, 1)
	assert.Equal(t, 100, result.Rows[0].FinalDemand)
	// 100 - 42 = 58, rounded up to the next multiple of 5.
	assert.Equal(t, 60, result.Rows[0].PurchaseQuantity)

	// The year-ago window beat the current one, so the row is flagged hot.
	require.Len(t, result.HotProducts, 1)
	assert.Equal(t, "A100", result.HotProducts[0].SKU)
}

func TestEngine_AmbiguousWindowSurfacesInWarnings(t *testing.T) {
	engine, err := forecast.NewEngine(forecast.Options{
		HorizonDays: 30,
		Anchor:      date(2026, time.February, 20),
		Weighting: forecast.DayCountWeights{
			AllowedMonths: []time.Month{time.January, time.February},
			Renormalize:   true,
		},
		Blend: forecast.LinearAlpha{Alpha: 0.30},
	})
	require.NoError(t, err)

	result, err := engine.Run(context.Background(), a100Input())
	require.NoError(t, err)

	require.NotNil(t, result.Warnings.AmbiguousWindow)
	assert.Equal(t, 21, result.Warnings.AmbiguousWindow.OtherDays)
}

func TestEngine_CoercedCellCountPassesThrough(t *testing.T) {
	engine := winterEngine(t, forecast.LinearAlpha{Alpha: 0.30}, forecast.RoundingPolicy{})
	input := a100Input()
	input.CoercedCells = 7

	result, err := engine.Run(context.Background(), input)
	require.NoError(t, err)

	assert.Equal(t, 7, result.Warnings.CoercedCells)
}

func TestEngine_AllQuantitiesNonNegative(t *testing.T) {
	engine := winterEngine(t, forecast.DominanceCeiling{}, forecast.RoundingPolicy{Multiple: 5})

	input := a100Input()
	input.Snapshot = append(input.Snapshot,
		domain.SnapshotRecord{SKU: "B200", TrailingUnits: 0, StockOnHand: 100},
		domain.SnapshotRecord{SKU: "C300", TrailingUnits: 3, StockOnHand: 0},
	)

	result, err := engine.Run(context.Background(), input)
	require.NoError(t, err)

	for _, row := range result.Rows {
		assert.Greater(t, row.PurchaseQuantity, 0)
		assert.GreaterOrEqual(t, row.FinalDemand, 0)
		for month, stat := range row.PeriodStatistics {
			assert.GreaterOrEqual(t, stat, 0.0, "month %s", month)
		}
	}
}

func TestNewEngine_RejectsUnknownPolicies(t *testing.T) {
	_, err := forecast.NewEngine(forecast.Options{Statistic: "median"})
	assert.Error(t, err)

	_, err = forecast.NewEngine(forecast.Options{Tiebreak: "stochastic"})
	assert.Error(t, err)

	_, err = forecast.NewEngine(forecast.Options{Rounding: forecast.RoundingPolicy{Multiple: -5}})
	assert.Error(t, err)
}
