package forecast

import (
	"fmt"
	"math"
	"sort"
	"time"
)

const weightSumTolerance = 1e-6

// WeightStrategy derives the fraction of the forecast horizon that falls in
// each calendar month.
type WeightStrategy interface {
	// MonthWeights returns the per-month weights for a window of horizonDays
	// starting at anchor. The returned warning is non-nil when the window
	// touched months the strategy's seasonal model does not cover.
	MonthWeights(anchor time.Time, horizonDays int) (map[time.Month]float64, *WindowWarning, error)
}

// FixedWeights is a calendar-anchored split, independent of the current date,
// e.g. 90% January / 10% February for a winter-season deployment.
type FixedWeights struct {
	ByMonth map[time.Month]float64
}

func (w FixedWeights) MonthWeights(time.Time, int) (map[time.Month]float64, *WindowWarning, error) {
	if len(w.ByMonth) == 0 {
		return nil, nil, fmt.Errorf("fixed weights: no months configured")
	}
	sum := 0.0
	for month, frac := range w.ByMonth {
		if month < time.January || month > time.December {
			return nil, nil, fmt.Errorf("fixed weights: invalid month %d", month)
		}
		if frac < 0 {
			return nil, nil, fmt.Errorf("fixed weights: negative weight for %s", month)
		}
		sum += frac
	}
	if math.Abs(sum-1.0) > weightSumTolerance {
		return nil, nil, fmt.Errorf("fixed weights: weights sum to %.6f, want 1.0", sum)
	}

	out := make(map[time.Month]float64, len(w.ByMonth))
	for month, frac := range w.ByMonth {
		out[month] = frac
	}
	return out, nil, nil
}

// DayCountWeights computes weights from the actual calendar: the weight of a
// month is the number of horizon days falling in it divided by the horizon
// length. AllowedMonths restricts the seasonal model to specific months; days
// landing elsewhere are excluded and reported via WindowWarning, renormalized
// over the in-model months when Renormalize is set. An empty AllowedMonths
// admits every month.
type DayCountWeights struct {
	AllowedMonths []time.Month
	Renormalize   bool
}

func (w DayCountWeights) MonthWeights(anchor time.Time, horizonDays int) (map[time.Month]float64, *WindowWarning, error) {
	if horizonDays <= 0 {
		return nil, nil, fmt.Errorf("day-count weights: horizon must be positive, got %d", horizonDays)
	}

	allowed := make(map[time.Month]bool, len(w.AllowedMonths))
	for _, m := range w.AllowedMonths {
		allowed[m] = true
	}

	dayCounts := make(map[time.Month]int)
	otherCounts := make(map[time.Month]int)
	for d := 0; d < horizonDays; d++ {
		month := anchor.AddDate(0, 0, d).Month()
		if len(allowed) > 0 && !allowed[month] {
			otherCounts[month]++
			continue
		}
		dayCounts[month]++
	}

	otherDays := 0
	otherMonths := make([]time.Month, 0, len(otherCounts))
	for month, n := range otherCounts {
		otherDays += n
		otherMonths = append(otherMonths, month)
	}
	sort.Slice(otherMonths, func(i, j int) bool { return otherMonths[i] < otherMonths[j] })

	denominator := float64(horizonDays)
	if w.Renormalize && otherDays > 0 {
		denominator = float64(horizonDays - otherDays)
	}
	if denominator <= 0 {
		return nil, nil, fmt.Errorf("day-count weights: window from %s has no days in the seasonal model months",
			anchor.Format("2006-01-02"))
	}

	weights := make(map[time.Month]float64, len(dayCounts))
	for month, n := range dayCounts {
		weights[month] = float64(n) / denominator
	}

	var warning *WindowWarning
	if otherDays > 0 {
		warning = &WindowWarning{
			Anchor:       anchor,
			HorizonDays:  horizonDays,
			OtherMonths:  otherMonths,
			OtherDays:    otherDays,
			Renormalized: w.Renormalize,
		}
	}

	return weights, warning, nil
}

// HistoricalComponent is the seasonal demand estimate for one SKU: the
// weighted sum of its period statistics over the window's months. Missing
// statistics contribute zero.
func HistoricalComponent(agg Aggregation, weights map[time.Month]float64, sku string) float64 {
	total := 0.0
	for month, weight := range weights {
		total += weight * agg.StatFor(sku, month)
	}
	return total
}
