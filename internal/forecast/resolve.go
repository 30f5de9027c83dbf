package forecast

import (
	"math"
	"sort"

	"github.com/agentetemporada/backend-go/internal/domain"
)

// RoundingPolicy shapes the purchase quantity. Multiple <= 1 means plain
// integer ceiling; otherwise quantities round up to the nearest multiple
// (packaging units, e.g. boxes of 5).
type RoundingPolicy struct {
	Multiple int
}

// Apply turns a raw demand-minus-stock value into a purchase quantity.
// A raw value of exactly zero stays zero; it never rounds up to the multiple.
func (rp RoundingPolicy) Apply(raw float64) int {
	if raw <= 0 {
		return 0
	}
	if rp.Multiple > 1 {
		k := float64(rp.Multiple)
		return int(math.Ceil(raw/k) * k)
	}
	return int(math.Ceil(raw))
}

// ResolvePurchase derives the suggested order quantity from final demand and
// stock on hand.
func ResolvePurchase(finalDemand int, stockOnHand float64, rp RoundingPolicy) int {
	raw := math.Max(0, float64(finalDemand)-stockOnHand)
	return rp.Apply(raw)
}

// FilterPositive drops rows that require no purchase. Zero-purchase SKUs are
// excluded from the result set, not merely sorted last.
func FilterPositive(rows []domain.Recommendation) []domain.Recommendation {
	out := rows[:0]
	for _, row := range rows {
		if row.PurchaseQuantity > 0 {
			out = append(out, row)
		}
	}
	return out
}

// SortRecommendations orders the result table deterministically. SKU is the
// final tiebreaker in both orders so repeated runs produce identical output.
func SortRecommendations(rows []domain.Recommendation, order SortOrder) {
	switch order {
	case SortByQuantity:
		sort.Slice(rows, func(i, j int) bool {
			if rows[i].PurchaseQuantity != rows[j].PurchaseQuantity {
				return rows[i].PurchaseQuantity > rows[j].PurchaseQuantity
			}
			if rows[i].FinalDemand != rows[j].FinalDemand {
				return rows[i].FinalDemand > rows[j].FinalDemand
			}
			return rows[i].SKU < rows[j].SKU
		})
	default:
		sort.Slice(rows, func(i, j int) bool {
			if rows[i].Name != rows[j].Name {
				return rows[i].Name < rows[j].Name
			}
			return rows[i].SKU < rows[j].SKU
		})
	}
}
