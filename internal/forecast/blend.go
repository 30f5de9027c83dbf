package forecast

import "math"

// BlendPolicy combines the historical demand estimate with the recent
// velocity signal into one demand number. Implementations return the raw
// blended value; FinalizeDemand handles rounding and the non-negativity
// clamp.
type BlendPolicy interface {
	Blend(sku string, historical, recent float64) float64
	Name() string
}

// LinearAlpha blends linearly: final = (1-α)·historical + α·recent. The α is
// resolved per SKU, first-match-wins: critical list, then slow list, then the
// default. When CapHigh is set and the historical component is positive, the
// recent signal is clamped to [CapLow·historical, CapHigh·historical] before
// blending so a one-off spike or dip cannot dominate.
type LinearAlpha struct {
	Alpha         float64
	CriticalAlpha float64
	SlowAlpha     float64
	Critical      map[string]bool
	Slow          map[string]bool
	CapLow        float64
	CapHigh       float64
}

func (p LinearAlpha) Name() string { return "linear-alpha" }

func (p LinearAlpha) alphaFor(sku string) float64 {
	// Critical wins over slow when a SKU sits on both lists.
	if p.Critical[sku] {
		return p.CriticalAlpha
	}
	if p.Slow[sku] {
		return p.SlowAlpha
	}
	return p.Alpha
}

func (p LinearAlpha) Blend(sku string, historical, recent float64) float64 {
	capped := recent
	if p.CapHigh > 0 && historical > 0 {
		capped = math.Min(math.Max(recent, p.CapLow*historical), p.CapHigh*historical)
	}

	alpha := p.alphaFor(sku)
	return (1-alpha)*historical + alpha*capped
}

// DominanceCeiling lets the recent signal dominate but never run away: with
// zero recent velocity demand halves to 0.5·historical; otherwise the blend
// is at least the recent actual and at most 1.5× of it. The historical side
// here is a projected average (long-window daily rate over the horizon), not
// the seasonal maximum.
type DominanceCeiling struct{}

func (DominanceCeiling) Name() string { return "dominance-ceiling" }

func (DominanceCeiling) Blend(_ string, historical, recent float64) float64 {
	if recent == 0 {
		return 0.5 * historical
	}
	intermediate := math.Max(0.6*recent+0.4*historical, recent)
	return math.Min(intermediate, 1.5*recent)
}

// AdditiveUplift applies a flat safety margin to the projected average and
// takes the max against the recent actual: final = max(recent, historical·(1+uplift)).
type AdditiveUplift struct {
	Uplift float64
}

func (AdditiveUplift) Name() string { return "additive-uplift" }

func (p AdditiveUplift) Blend(_ string, historical, recent float64) float64 {
	return math.Max(recent, historical*(1+p.Uplift))
}

// FinalizeDemand rounds a blended value to the nearest integer under the
// configured tiebreak and floors it at zero.
func FinalizeDemand(v float64, tb Tiebreak) int {
	if v <= 0 {
		return 0
	}
	n := roundNearest(v, tb)
	if n < 0 {
		return 0
	}
	return n
}
