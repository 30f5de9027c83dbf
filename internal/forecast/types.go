package forecast

import (
	"fmt"
	"math"
	"time"
)

// Statistic selects how the per-(sku, month) values observed across years are
// reduced to a single period statistic.
type Statistic string

const (
	StatisticMax Statistic = "max"
	StatisticP90 Statistic = "p90"
)

// Tiebreak pins the rounding behaviour for values landing exactly on .5.
// Deployments differ on this, so it is explicit configuration rather than a
// library default.
type Tiebreak string

const (
	TiebreakHalfUp   Tiebreak = "half-up"
	TiebreakHalfEven Tiebreak = "half-even"
)

// SortOrder is the presentation order of the final recommendation table.
type SortOrder string

const (
	SortByName     SortOrder = "name"     // product name ascending
	SortByQuantity SortOrder = "quantity" // purchase quantity desc, then final demand desc
)

// HistoricalInput selects what the recent-velocity blend uses as its
// historical side: the seasonal month-weighted statistic, a long trailing
// window projected to a daily rate, or the year-ago copy of the recent window.
type HistoricalInput string

const (
	InputSeasonal    HistoricalInput = "seasonal"
	InputProjection  HistoricalInput = "projection"
	InputPriorWindow HistoricalInput = "prior-window"
)

// WindowWarning signals that the real-day-count weighting saw the forecast
// window touch calendar months outside the configured seasonal model. The
// computation proceeds on the in-model months only.
type WindowWarning struct {
	Anchor       time.Time    `json:"anchor"`
	HorizonDays  int          `json:"horizon_days"`
	OtherMonths  []time.Month `json:"other_months"`
	OtherDays    int          `json:"other_days"`
	Renormalized bool         `json:"renormalized"`
}

func (w *WindowWarning) Message() string {
	mode := "kept as partial weights"
	if w.Renormalized {
		mode = "renormalized over in-model months"
	}
	return fmt.Sprintf("forecast window from %s spans %d day(s) in months outside the seasonal model (%s)",
		w.Anchor.Format("2006-01-02"), w.OtherDays, mode)
}

// Warnings collects the non-fatal conditions of a run. A populated Warnings
// with an empty row set distinguishes "nothing to buy" from a failure.
type Warnings struct {
	CoercedCells    int            `json:"coerced_cells,omitempty"`
	EmptyResult     bool           `json:"empty_result,omitempty"`
	AmbiguousWindow *WindowWarning `json:"ambiguous_window,omitempty"`
}

// roundNearest rounds to the nearest integer using the configured .5 tiebreak.
func roundNearest(v float64, tb Tiebreak) int {
	if tb == TiebreakHalfEven {
		return int(math.RoundToEven(v))
	}
	return int(math.Floor(v + 0.5))
}
