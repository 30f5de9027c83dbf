package forecast

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/agentetemporada/backend-go/internal/domain"
	"github.com/agentetemporada/backend-go/pkg/logger"
)

const defaultTrailingWindowDays = 30

// Options fully describes one computation run. Zero values fall back to the
// documented defaults in setDefaults.
type Options struct {
	HorizonDays     int
	Anchor          time.Time
	Statistic       Statistic
	Tiebreak        Tiebreak
	Years           []int
	Weighting       WeightStrategy
	Blend           BlendPolicy
	HistoricalInput HistoricalInput
	Rounding        RoundingPolicy
	Sort            SortOrder
	Workers         int
	HotProductLimit int
}

func (o *Options) setDefaults() {
	if o.HorizonDays == 0 {
		o.HorizonDays = 30
	}
	if o.Anchor.IsZero() {
		o.Anchor = time.Now()
	}
	if o.Statistic == "" {
		o.Statistic = StatisticMax
	}
	if o.Tiebreak == "" {
		o.Tiebreak = TiebreakHalfUp
	}
	if o.Weighting == nil {
		o.Weighting = DayCountWeights{Renormalize: true}
	}
	if o.Blend == nil {
		o.Blend = LinearAlpha{Alpha: 0.30, CriticalAlpha: 0.50, SlowAlpha: 0.10}
	}
	if o.HistoricalInput == "" {
		o.HistoricalInput = InputSeasonal
	}
	if o.Sort == "" {
		o.Sort = SortByName
	}
	if o.Workers < 1 {
		o.Workers = 4
	}
	if o.HotProductLimit == 0 {
		o.HotProductLimit = 10
	}
}

func (o *Options) validate() error {
	if o.HorizonDays < 0 {
		return fmt.Errorf("horizon days must be positive, got %d", o.HorizonDays)
	}
	switch o.Statistic {
	case StatisticMax, StatisticP90:
	default:
		return fmt.Errorf("unknown statistic %q", o.Statistic)
	}
	switch o.Tiebreak {
	case TiebreakHalfUp, TiebreakHalfEven:
	default:
		return fmt.Errorf("unknown tiebreak %q", o.Tiebreak)
	}
	switch o.HistoricalInput {
	case InputSeasonal, InputProjection, InputPriorWindow:
	default:
		return fmt.Errorf("unknown historical input %q", o.HistoricalInput)
	}
	switch o.Sort {
	case SortByName, SortByQuantity:
	default:
		return fmt.Errorf("unknown sort order %q", o.Sort)
	}
	if o.Rounding.Multiple < 0 {
		return fmt.Errorf("rounding multiple must not be negative, got %d", o.Rounding.Multiple)
	}
	return nil
}

// Input is one run's worth of immutable source tables. CoercedCells is the
// count of lenient numeric coercions the ingestion collaborator performed,
// carried through to the result warnings for visibility.
type Input struct {
	Historical   []domain.HistoricalRecord
	Snapshot     []domain.SnapshotRecord
	CoercedCells int
}

// Result is the immutable output table of a run plus its non-fatal warnings.
type Result struct {
	Rows        []domain.Recommendation `json:"rows"`
	HotProducts []domain.HotProduct     `json:"hot_products,omitempty"`
	Warnings    Warnings                `json:"warnings"`
}

// Engine runs the four-stage computation: aggregate, seasonal blend, recent
// blend, purchase resolution. One Engine is safe to reuse across runs; each
// run only reads its own inputs.
type Engine struct {
	opts Options
}

func NewEngine(opts Options) (*Engine, error) {
	opts.setDefaults()
	if err := opts.validate(); err != nil {
		return nil, err
	}
	return &Engine{opts: opts}, nil
}

// Run executes a full recomputation over the two input tables.
func (e *Engine) Run(ctx context.Context, input Input) (*Result, error) {
	log := logger.WithComponent("forecast")
	start := time.Now()

	years := make(map[int]bool, len(e.opts.Years))
	for _, y := range e.opts.Years {
		years[y] = true
	}
	agg := Aggregate(input.Historical, AggregateOptions{
		Years:     years,
		Statistic: e.opts.Statistic,
		Tiebreak:  e.opts.Tiebreak,
	})

	weights, windowWarning, err := e.opts.Weighting.MonthWeights(e.opts.Anchor, e.opts.HorizonDays)
	if err != nil {
		return nil, fmt.Errorf("weight derivation failed: %w", err)
	}
	if windowWarning != nil {
		log.Warn().Msg(windowWarning.Message())
	}

	rows := make([]domain.Recommendation, len(input.Snapshot))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(e.opts.Workers)
	for i, snap := range input.Snapshot {
		g.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
			rows[i] = e.computeRow(agg, weights, snap)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	rows = FilterPositive(rows)
	SortRecommendations(rows, e.opts.Sort)

	result := &Result{
		Rows:        rows,
		HotProducts: hotProducts(rows, e.opts.HotProductLimit),
		Warnings: Warnings{
			CoercedCells:    input.CoercedCells,
			EmptyResult:     len(rows) == 0,
			AmbiguousWindow: windowWarning,
		},
	}

	log.Info().
		Int("snapshot_rows", len(input.Snapshot)).
		Int("historical_rows", len(input.Historical)).
		Int("recommendations", len(rows)).
		Str("blend", e.opts.Blend.Name()).
		Dur("elapsed", time.Since(start)).
		Msg("forecast run completed")

	return result, nil
}

// computeRow runs stages 2-4 for a single snapshot row. Rows are independent
// of each other, which is what makes the errgroup fan-out above safe.
func (e *Engine) computeRow(agg Aggregation, weights map[time.Month]float64, snap domain.SnapshotRecord) domain.Recommendation {
	sku := domain.NormalizeSKU(snap.SKU)

	seasonal := HistoricalComponent(agg, weights, sku)
	recent := e.projectToHorizon(snap.TrailingUnits, snap.TrailingWindowDays)

	historical := seasonal
	switch e.opts.HistoricalInput {
	case InputProjection:
		if snap.LongTrailingUnits != nil && snap.LongTrailingWindow > 0 {
			historical = e.projectToHorizon(*snap.LongTrailingUnits, snap.LongTrailingWindow)
		}
	case InputPriorWindow:
		if snap.PriorTrailingUnits != nil {
			historical = e.projectToHorizon(*snap.PriorTrailingUnits, snap.TrailingWindowDays)
		}
	}

	final := FinalizeDemand(e.opts.Blend.Blend(sku, historical, recent), e.opts.Tiebreak)
	purchase := ResolvePurchase(final, math.Max(0, snap.StockOnHand), e.opts.Rounding)

	stats := make(map[time.Month]float64, len(weights))
	for month := range weights {
		stats[month] = agg.StatFor(sku, month)
	}

	name := snap.Name
	if name == "" {
		name = agg.Names[sku]
	}
	if name == "" {
		name = domain.UnnamedProduct
	}

	return domain.Recommendation{
		SKU:                 sku,
		EAN:                 snap.EAN,
		Name:                name,
		Supplier:            snap.Supplier,
		StockOnHand:         snap.StockOnHand,
		RecentUnits:         snap.TrailingUnits,
		PriorRecentUnits:    snap.PriorTrailingUnits,
		PeriodStatistics:    stats,
		HistoricalComponent: historical,
		FinalDemand:         final,
		PurchaseQuantity:    purchase,
		Revenue:             snap.Revenue,
	}
}

// projectToHorizon normalizes a trailing window to a daily rate and projects
// it over the forecast horizon. A 30-day window against the default 30-day
// horizon is the identity.
func (e *Engine) projectToHorizon(units float64, windowDays int) float64 {
	if windowDays <= 0 {
		windowDays = defaultTrailingWindowDays
	}
	return units / float64(windowDays) * float64(e.opts.HorizonDays)
}

// hotProducts lists the output rows whose year-ago trailing window beat the
// current one, name-sorted, capped at limit. A negative limit disables the
// report.
func hotProducts(rows []domain.Recommendation, limit int) []domain.HotProduct {
	if limit < 0 {
		return nil
	}
	var hot []domain.HotProduct
	for _, row := range rows {
		if row.PriorRecentUnits != nil && *row.PriorRecentUnits > row.RecentUnits {
			hot = append(hot, domain.HotProduct{
				SKU:              row.SKU,
				Name:             row.Name,
				RecentUnits:      row.RecentUnits,
				PriorRecentUnits: *row.PriorRecentUnits,
			})
		}
	}
	sort.Slice(hot, func(i, j int) bool {
		if hot[i].Name != hot[j].Name {
			return hot[i].Name < hot[j].Name
		}
		return hot[i].SKU < hot[j].SKU
	})
	if len(hot) > limit {
		hot = hot[:limit]
	}
	return hot
}
