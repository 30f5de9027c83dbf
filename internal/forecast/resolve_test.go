package forecast_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/agentetemporada/backend-go/internal/domain"
	"github.com/agentetemporada/backend-go/internal/forecast"
)

func TestResolvePurchase_RoundUpToMultipleBoundaries(t *testing.T) {
	rp := forecast.RoundingPolicy{Multiple: 5}

	tests := []struct {
		name   string
		demand int
		stock  float64
		want   int
	}{
		{"raw exactly zero stays zero", 10, 10, 0},
		{"tiny positive raw rounds up to the multiple", 10, 9.9, 5},
		{"raw on the multiple stays put", 10, 5, 5},
		{"raw just past the multiple jumps a step", 10, 4.9, 10},
		{"stock above demand floors at zero", 10, 25, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, forecast.ResolvePurchase(tt.demand, tt.stock, rp))
		})
	}
}

func TestResolvePurchase_NoMultipleUsesCeiling(t *testing.T) {
	rp := forecast.RoundingPolicy{}

	assert.Equal(t, 3, forecast.ResolvePurchase(10, 7.5, rp))
	assert.Equal(t, 0, forecast.ResolvePurchase(10, 10, rp))
}

func TestResolvePurchase_MonotoneInStock(t *testing.T) {
	// Raising stock while holding demand fixed must never raise the
	// purchase quantity.
	for _, rp := range []forecast.RoundingPolicy{{}, {Multiple: 5}} {
		prev := forecast.ResolvePurchase(100, 0, rp)
		for stock := 0.5; stock <= 120; stock += 0.5 {
			got := forecast.ResolvePurchase(100, stock, rp)
			assert.LessOrEqual(t, got, prev, "multiple=%d stock=%v", rp.Multiple, stock)
			assert.GreaterOrEqual(t, got, 0)
			prev = got
		}
	}
}

func rec(sku, name string, qty, demand int) domain.Recommendation {
	return domain.Recommendation{SKU: sku, Name: name, PurchaseQuantity: qty, FinalDemand: demand}
}

func TestFilterPositive_DropsZeroPurchaseRows(t *testing.T) {
	rows := []domain.Recommendation{
		rec("A", "alpha", 5, 10),
		rec("B", "beta", 0, 3),
		rec("C", "gamma", 15, 20),
	}

	filtered := forecast.FilterPositive(rows)

	assert.Len(t, filtered, 2)
	for _, row := range filtered {
		assert.Greater(t, row.PurchaseQuantity, 0)
	}
}

func TestSortRecommendations_ByNameWithSKUTiebreak(t *testing.T) {
	rows := []domain.Recommendation{
		rec("B2", "mismo nombre", 5, 5),
		rec("A1", "mismo nombre", 10, 10),
		rec("C3", "abrigo", 1, 1),
	}

	forecast.SortRecommendations(rows, forecast.SortByName)

	assert.Equal(t, []string{"C3", "A1", "B2"}, []string{rows[0].SKU, rows[1].SKU, rows[2].SKU})
}

func TestSortRecommendations_ByQuantityThenDemand(t *testing.T) {
	rows := []domain.Recommendation{
		rec("A", "a", 5, 10),
		rec("B", "b", 15, 20),
		rec("C", "c", 5, 30),
	}

	forecast.SortRecommendations(rows, forecast.SortByQuantity)

	assert.Equal(t, []string{"B", "C", "A"}, []string{rows[0].SKU, rows[1].SKU, rows[2].SKU})
}
