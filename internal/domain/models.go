// internal/domain/models.go
package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// UnnamedProduct is the display name used when neither the snapshot nor the
// historical ledger carries a name for a SKU.
const UnnamedProduct = "(sin nombre)"

// HistoricalRecord is one row of the sales ledger: units sold for a SKU in a
// given calendar month of a given year. The same (sku, year, month) may appear
// more than once in an export; duplicates are reconciled during aggregation.
type HistoricalRecord struct {
	SKU       string           `json:"sku"`
	Name      string           `json:"name,omitempty"`
	Year      int              `json:"year"`
	Month     time.Month       `json:"month"`
	UnitsSold float64          `json:"units_sold"`
	Revenue   *decimal.Decimal `json:"revenue,omitempty"`
}

// SnapshotRecord is today's state for a SKU: stock on hand plus a trailing
// sales window. TrailingWindowDays names the window length of TrailingUnits
// (30 for a V30D column, 365 for V365, and so on). PriorTrailingUnits is the
// same window one year earlier when the export carries both columns, and the
// Long* pair is an optional longer window used for daily-rate projections.
type SnapshotRecord struct {
	SKU                string           `json:"sku"`
	Name               string           `json:"name,omitempty"`
	EAN                string           `json:"ean,omitempty"`
	TrailingUnits      float64          `json:"trailing_units"`
	TrailingWindowDays int              `json:"trailing_window_days,omitempty"`
	PriorTrailingUnits *float64         `json:"prior_trailing_units,omitempty"`
	LongTrailingUnits  *float64         `json:"long_trailing_units,omitempty"`
	LongTrailingWindow int              `json:"long_trailing_window_days,omitempty"`
	StockOnHand        float64          `json:"stock_on_hand"`
	Revenue            *decimal.Decimal `json:"revenue,omitempty"`
	Supplier           string           `json:"supplier,omitempty"`
}

// PeriodKey identifies a per-SKU, per-calendar-month statistic.
type PeriodKey struct {
	SKU   string
	Month time.Month
}

// DemandEstimate is the intermediate result per SKU before purchase
// resolution. BlendedFinal is always a non-negative integer.
type DemandEstimate struct {
	HistoricalComponent float64 `json:"historical_component"`
	RecentComponent     float64 `json:"recent_component"`
	BlendedFinal        int     `json:"blended_final"`
}

// Recommendation is one output row of the forecast run. Rows with
// PurchaseQuantity == 0 never appear in a result set.
type Recommendation struct {
	SKU                 string                 `json:"sku"`
	EAN                 string                 `json:"ean,omitempty"`
	Name                string                 `json:"name"`
	Supplier            string                 `json:"supplier,omitempty"`
	StockOnHand         float64                `json:"stock_on_hand"`
	RecentUnits         float64                `json:"recent_units"`
	PriorRecentUnits    *float64               `json:"prior_recent_units,omitempty"`
	PeriodStatistics    map[time.Month]float64 `json:"period_statistics"`
	HistoricalComponent float64                `json:"historical_component"`
	FinalDemand         int                    `json:"final_demand"`
	PurchaseQuantity    int                    `json:"purchase_quantity"`
	Revenue             *decimal.Decimal       `json:"revenue,omitempty"`
}

// HotProduct flags a SKU whose year-ago trailing window beat the current one,
// the "productos calientes" list shown next to the purchase table.
type HotProduct struct {
	SKU              string  `json:"sku"`
	Name             string  `json:"name"`
	RecentUnits      float64 `json:"recent_units"`
	PriorRecentUnits float64 `json:"prior_recent_units"`
}

// NormalizeSKU trims surrounding whitespace; SKU identity is case-sensitive
// but whitespace-insensitive.
func NormalizeSKU(code string) string {
	return strings.TrimSpace(code)
}
