// Package export writes the recommendation table for downstream display:
// plain CSV and the "Compra del día" Excel workbook.
package export

import (
	"encoding/csv"
	"io"
	"os"
	"sort"
	"strconv"
	"time"

	"github.com/agentetemporada/backend-go/internal/domain"
)

// Options controls the presentation columns. The quantities themselves
// (stock, velocity, statistics, demand, purchase) are always written.
type Options struct {
	IncludeSupplier bool
	IncludeEAN      bool
}

var spanishMonths = map[time.Month]string{
	time.January: "Ene", time.February: "Feb", time.March: "Mar",
	time.April: "Abr", time.May: "May", time.June: "Jun",
	time.July: "Jul", time.August: "Ago", time.September: "Sep",
	time.October: "Oct", time.November: "Nov", time.December: "Dic",
}

// statMonths returns the union of statistic months across rows, ascending, so
// every row writes the same columns.
func statMonths(rows []domain.Recommendation) []time.Month {
	seen := make(map[time.Month]bool)
	for _, row := range rows {
		for month := range row.PeriodStatistics {
			seen[month] = true
		}
	}
	months := make([]time.Month, 0, len(seen))
	for month := range seen {
		months = append(months, month)
	}
	sort.Slice(months, func(i, j int) bool { return months[i] < months[j] })
	return months
}

func headerRow(months []time.Month, opts Options, hasPrior bool) []string {
	header := []string{"Código"}
	if opts.IncludeEAN {
		header = append(header, "Código EAN")
	}
	header = append(header, "Nombre")
	if opts.IncludeSupplier {
		header = append(header, "Proveedor")
	}
	header = append(header, "Stock", "V30D")
	if hasPrior {
		header = append(header, "V30D anterior")
	}
	for _, month := range months {
		header = append(header, "Hist "+spanishMonths[month])
	}
	header = append(header, "Demanda", "Compra")
	return header
}

func dataRow(row domain.Recommendation, months []time.Month, opts Options, hasPrior bool) []string {
	rec := []string{row.SKU}
	if opts.IncludeEAN {
		rec = append(rec, row.EAN)
	}
	rec = append(rec, row.Name)
	if opts.IncludeSupplier {
		rec = append(rec, row.Supplier)
	}
	rec = append(rec, formatFloat(row.StockOnHand), formatFloat(row.RecentUnits))
	if hasPrior {
		prior := ""
		if row.PriorRecentUnits != nil {
			prior = formatFloat(*row.PriorRecentUnits)
		}
		rec = append(rec, prior)
	}
	for _, month := range months {
		rec = append(rec, formatFloat(row.PeriodStatistics[month]))
	}
	rec = append(rec, strconv.Itoa(row.FinalDemand), strconv.Itoa(row.PurchaseQuantity))
	return rec
}

func hasPriorColumn(rows []domain.Recommendation) bool {
	for _, row := range rows {
		if row.PriorRecentUnits != nil {
			return true
		}
	}
	return false
}

// WriteCSV writes the recommendation table as CSV.
func WriteCSV(w io.Writer, rows []domain.Recommendation, opts Options) error {
	months := statMonths(rows)
	hasPrior := hasPriorColumn(rows)

	cw := csv.NewWriter(w)
	defer cw.Flush()

	if err := cw.Write(headerRow(months, opts, hasPrior)); err != nil {
		return err
	}
	for _, row := range rows {
		if err := cw.Write(dataRow(row, months, opts, hasPrior)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteCSVFile writes the recommendation table to a CSV file.
func WriteCSVFile(path string, rows []domain.Recommendation, opts Options) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return WriteCSV(f, rows, opts)
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
