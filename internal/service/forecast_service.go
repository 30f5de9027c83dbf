package service

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/agentetemporada/backend-go/internal/cache"
	"github.com/agentetemporada/backend-go/internal/config"
	"github.com/agentetemporada/backend-go/internal/domain"
	"github.com/agentetemporada/backend-go/internal/forecast"
	"github.com/agentetemporada/backend-go/internal/ingest"
)

// RunOptions is the per-request override surface. Nil or empty fields fall
// back to the deployment defaults in config.ForecastConfig.
type RunOptions struct {
	HorizonDays      *int                `json:"horizon_days,omitempty"`
	AnchorDate       string              `json:"anchor_date,omitempty"` // YYYY-MM-DD, resolved in the configured timezone
	Statistic        string              `json:"statistic,omitempty"`
	Tiebreak         string              `json:"tiebreak,omitempty"`
	BlendPolicy      string              `json:"blend_policy,omitempty"`
	Alpha            *float64            `json:"alpha,omitempty"`
	CriticalAlpha    *float64            `json:"critical_alpha,omitempty"`
	SlowAlpha        *float64            `json:"slow_alpha,omitempty"`
	CriticalSKUs     []string            `json:"critical_skus,omitempty"`
	SlowSKUs         []string            `json:"slow_skus,omitempty"`
	CapLow           *float64            `json:"cap_low,omitempty"`
	CapHigh          *float64            `json:"cap_high,omitempty"`
	UpliftFraction   *float64            `json:"uplift_fraction,omitempty"`
	HistoricalInput  string              `json:"historical_input,omitempty"`
	FixedWeights     map[int]float64     `json:"fixed_weights,omitempty"` // month (1-12) -> fraction
	SeasonalMonths   []int               `json:"seasonal_months,omitempty"`
	Renormalize      *bool               `json:"renormalize,omitempty"`
	RoundingMultiple *int                `json:"rounding_multiple,omitempty"`
	SortOrder        string              `json:"sort_order,omitempty"`
	Years            []int               `json:"years,omitempty"`
	Supplier         string              `json:"supplier,omitempty"`
	HotProductLimit  *int                `json:"hot_product_limit,omitempty"`
}

// RunRequest is one full recomputation: the two input tables plus overrides.
type RunRequest struct {
	Historical   []domain.HistoricalRecord `json:"historical"`
	Snapshot     []domain.SnapshotRecord   `json:"snapshot"`
	Options      RunOptions                `json:"options"`
	CoercedCells int                       `json:"coerced_cells,omitempty"`
}

type ForecastService struct {
	defaults config.ForecastConfig
	cache    cache.ForecastCache
}

func NewForecastService(defaults config.ForecastConfig, cacheImpl cache.ForecastCache) *ForecastService {
	if cacheImpl == nil {
		cacheImpl = cache.NewNoopForecastCache()
	}
	return &ForecastService{defaults: defaults, cache: cacheImpl}
}

// Run executes one recomputation, serving it from cache when an identical
// request was computed recently.
func (s *ForecastService) Run(ctx context.Context, req RunRequest) (*forecast.Result, error) {
	opts, err := s.engineOptions(req.Options)
	if err != nil {
		return nil, err
	}

	key := requestHash(req, opts.Anchor)
	if result, ok, err := s.cache.GetResult(ctx, key); err == nil && ok {
		return result, nil
	} else if err != nil {
		log.Warn().Err(err).Msg("forecast: cache get failed")
	}

	engine, err := forecast.NewEngine(opts)
	if err != nil {
		return nil, err
	}

	snapshot := ingest.FilterBySupplier(req.Snapshot, req.Options.Supplier)
	result, err := engine.Run(ctx, forecast.Input{
		Historical:   req.Historical,
		Snapshot:     snapshot,
		CoercedCells: req.CoercedCells,
	})
	if err != nil {
		return nil, err
	}

	if err := s.cache.SetResult(ctx, key, result); err != nil {
		log.Warn().Err(err).Msg("forecast: cache set failed")
	}

	return result, nil
}

// engineOptions merges the request overrides onto the deployment defaults.
func (s *ForecastService) engineOptions(o RunOptions) (forecast.Options, error) {
	d := s.defaults

	loc, err := time.LoadLocation(d.Timezone)
	if err != nil {
		return forecast.Options{}, fmt.Errorf("invalid timezone %q: %w", d.Timezone, err)
	}

	anchor := time.Now().In(loc)
	if o.AnchorDate != "" {
		anchor, err = time.ParseInLocation("2006-01-02", o.AnchorDate, loc)
		if err != nil {
			return forecast.Options{}, fmt.Errorf("invalid anchor date %q: %w", o.AnchorDate, err)
		}
	}
	// Computation depends on the calendar day only.
	anchor = time.Date(anchor.Year(), anchor.Month(), anchor.Day(), 0, 0, 0, 0, loc)

	opts := forecast.Options{
		HorizonDays:     intOr(o.HorizonDays, d.HorizonDays),
		Anchor:          anchor,
		Statistic:       forecast.Statistic(stringOr(o.Statistic, d.Statistic)),
		Tiebreak:        forecast.Tiebreak(stringOr(o.Tiebreak, d.Tiebreak)),
		Years:           yearsOr(o.Years, d.Years),
		HistoricalInput: forecast.HistoricalInput(o.HistoricalInput),
		Rounding:        forecast.RoundingPolicy{Multiple: intOr(o.RoundingMultiple, d.RoundingMultiple)},
		Sort:            forecast.SortOrder(stringOr(o.SortOrder, d.SortOrder)),
		Workers:         d.Workers,
		HotProductLimit: intOr(o.HotProductLimit, 10),
	}

	opts.Weighting = buildWeighting(o, d)

	blend, historicalInput, err := buildBlend(o, d)
	if err != nil {
		return forecast.Options{}, err
	}
	opts.Blend = blend
	if opts.HistoricalInput == "" {
		opts.HistoricalInput = historicalInput
	}

	return opts, nil
}

func buildWeighting(o RunOptions, d config.ForecastConfig) forecast.WeightStrategy {
	if len(o.FixedWeights) > 0 {
		byMonth := make(map[time.Month]float64, len(o.FixedWeights))
		for month, frac := range o.FixedWeights {
			byMonth[time.Month(month)] = frac
		}
		return forecast.FixedWeights{ByMonth: byMonth}
	}

	months := make([]time.Month, 0, len(o.SeasonalMonths))
	for _, m := range o.SeasonalMonths {
		months = append(months, time.Month(m))
	}
	return forecast.DayCountWeights{
		AllowedMonths: months,
		Renormalize:   boolOr(o.Renormalize, d.Renormalize),
	}
}

// buildBlend resolves the blend policy and the historical input it was
// designed against: the dominance and uplift policies blend against a
// projected average rather than the seasonal statistic.
func buildBlend(o RunOptions, d config.ForecastConfig) (forecast.BlendPolicy, forecast.HistoricalInput, error) {
	name := stringOr(o.BlendPolicy, d.BlendPolicy)
	switch name {
	case "linear-alpha":
		return forecast.LinearAlpha{
			Alpha:         floatOr(o.Alpha, d.Alpha),
			CriticalAlpha: floatOr(o.CriticalAlpha, d.CriticalAlpha),
			SlowAlpha:     floatOr(o.SlowAlpha, d.SlowAlpha),
			Critical:      skuSet(o.CriticalSKUs),
			Slow:          skuSet(o.SlowSKUs),
			CapLow:        floatOr(o.CapLow, d.CapLow),
			CapHigh:       floatOr(o.CapHigh, d.CapHigh),
		}, forecast.InputSeasonal, nil
	case "dominance-ceiling":
		return forecast.DominanceCeiling{}, forecast.InputProjection, nil
	case "additive-uplift":
		return forecast.AdditiveUplift{
			Uplift: floatOr(o.UpliftFraction, d.UpliftFraction),
		}, forecast.InputProjection, nil
	default:
		return nil, "", fmt.Errorf("unknown blend policy %q", name)
	}
}

func skuSet(skus []string) map[string]bool {
	if len(skus) == 0 {
		return nil
	}
	set := make(map[string]bool, len(skus))
	for _, sku := range skus {
		set[domain.NormalizeSKU(sku)] = true
	}
	return set
}

// requestHash derives a stable cache key from the full request plus the
// resolved anchor day, so "today's" implicit anchor still keys correctly.
func requestHash(req RunRequest, anchor time.Time) string {
	payload, err := json.Marshal(struct {
		RunRequest
		Anchor string `json:"resolved_anchor"`
	}{req, anchor.Format("2006-01-02")})
	if err != nil {
		return "uncacheable"
	}
	sum := sha1.Sum(payload)
	return hex.EncodeToString(sum[:])
}

func intOr(v *int, def int) int {
	if v != nil {
		return *v
	}
	return def
}

func floatOr(v *float64, def float64) float64 {
	if v != nil {
		return *v
	}
	return def
}

func boolOr(v *bool, def bool) bool {
	if v != nil {
		return *v
	}
	return def
}

func stringOr(v, def string) string {
	if v != "" {
		return v
	}
	return def
}

func yearsOr(v, def []int) []int {
	if len(v) > 0 {
		return v
	}
	return def
}
