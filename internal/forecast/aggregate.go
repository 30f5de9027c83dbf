package forecast

import (
	"math"
	"sort"
	"time"

	"github.com/agentetemporada/backend-go/internal/domain"
)

// AggregateOptions controls the historical reduction. Years is an optional
// filter (nil or empty means all observed years are used).
type AggregateOptions struct {
	Years     map[int]bool
	Statistic Statistic
	Tiebreak  Tiebreak
}

// Aggregation is the reduced historical ledger: one statistic per
// (sku, month), plus the canonical display name per SKU.
type Aggregation struct {
	Stats map[domain.PeriodKey]float64
	Names map[string]string
}

// StatFor returns the period statistic for a (sku, month), defaulting to 0.
// A SKU with no rows for a month behaves exactly like an explicit zero; the
// blenders never special-case missing entries.
func (a Aggregation) StatFor(sku string, month time.Month) float64 {
	return a.Stats[domain.PeriodKey{SKU: sku, Month: month}]
}

// Aggregate reduces the raw ledger to per-(sku, month) period statistics.
// Rows failing the year filter are dropped. Rows sharing (sku, year, month)
// collapse to their maximum first, so duplicate or partial export rows never
// inflate the statistic. The per-year values are then reduced by the
// configured statistic, MAX or P90.
func Aggregate(records []domain.HistoricalRecord, opts AggregateOptions) Aggregation {
	type yearKey struct {
		sku   string
		month time.Month
		year  int
	}

	perYear := make(map[yearKey]float64)
	names := make(map[string]string)

	for _, rec := range records {
		sku := domain.NormalizeSKU(rec.SKU)
		if sku == "" || rec.Month < time.January || rec.Month > time.December {
			continue
		}
		if len(opts.Years) > 0 && !opts.Years[rec.Year] {
			continue
		}

		// First non-empty name in row order wins.
		if _, ok := names[sku]; !ok && rec.Name != "" {
			names[sku] = rec.Name
		}

		units := math.Max(0, rec.UnitsSold)
		key := yearKey{sku: sku, month: rec.Month, year: rec.Year}
		if cur, ok := perYear[key]; !ok || units > cur {
			perYear[key] = units
		}
	}

	grouped := make(map[domain.PeriodKey][]float64)
	for key, units := range perYear {
		pk := domain.PeriodKey{SKU: key.sku, Month: key.month}
		grouped[pk] = append(grouped[pk], units)
	}

	stats := make(map[domain.PeriodKey]float64, len(grouped))
	for pk, values := range grouped {
		switch opts.Statistic {
		case StatisticP90:
			p := percentile(values, 0.90)
			stats[pk] = float64(roundNearest(p, opts.Tiebreak))
		default:
			stats[pk] = maxOf(values)
		}
	}

	return Aggregation{Stats: stats, Names: names}
}

func maxOf(values []float64) float64 {
	m := 0.0
	for _, v := range values {
		if v > m {
			m = v
		}
	}
	return m
}

// percentile computes the q-quantile with linear interpolation between
// closest ranks, matching pandas' default quantile method.
func percentile(values []float64, q float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)

	if len(sorted) == 1 {
		return sorted[0]
	}

	pos := q * float64(len(sorted)-1)
	lower := int(math.Floor(pos))
	upper := int(math.Ceil(pos))
	if lower == upper {
		return sorted[lower]
	}
	frac := pos - float64(lower)
	return sorted[lower]*(1-frac) + sorted[upper]*frac
}
