package ingest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/agentetemporada/backend-go/internal/domain"
)

// HistoricalTable is the parsed ledger plus the count of leniently coerced
// cells.
type HistoricalTable struct {
	Records      []domain.HistoricalRecord
	CoercedCells int
}

// SnapshotTable is the parsed snapshot plus the count of leniently coerced
// cells.
type SnapshotTable struct {
	Records      []domain.SnapshotRecord
	CoercedCells int
}

// ReadHistoricalCSV parses a historical ledger export. Required columns:
// Código, Nombre, Año, Mes, Ventas. Importe is optional.
func ReadHistoricalCSV(path string) (*HistoricalTable, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return ParseHistorical(file)
}

// ParseHistorical reads ledger rows from CSV data.
func ParseHistorical(r io.Reader) (*HistoricalTable, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	idxSKU := findColumn(header, "código", "codigo", "sku")
	idxName := findColumn(header, "nombre", "producto", "name")
	idxYear := findColumn(header, "año", "ano", "year")
	idxMonth := findColumn(header, "mes", "month")
	idxUnits := findColumn(header, "ventas", "cantidad vendida", "unidades")
	idxRevenue := findColumn(header, "importe", "ventas netas totales ($)")

	for col, idx := range map[string]int{
		"Código": idxSKU, "Nombre": idxName, "Año": idxYear, "Mes": idxMonth, "Ventas": idxUnits,
	} {
		if idx < 0 {
			return nil, &SchemaError{Table: "historical ledger", Column: col}
		}
	}

	parser := &coercingParser{}
	records := make([]domain.HistoricalRecord, 0)
	for {
		record, err := reader.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, err
		}

		sku := domain.NormalizeSKU(cell(record, idxSKU))
		if sku == "" {
			continue
		}

		rec := domain.HistoricalRecord{
			SKU:       sku,
			Name:      cell(record, idxName),
			Year:      parser.int(record, idxYear),
			Month:     time.Month(parser.int(record, idxMonth)),
			UnitsSold: parser.float(record, idxUnits),
		}
		if idxRevenue >= 0 {
			if v := cell(record, idxRevenue); v != "" {
				d := decimal.NewFromFloat(parser.float(record, idxRevenue))
				rec.Revenue = &d
			}
		}
		records = append(records, rec)
	}

	return &HistoricalTable{Records: records, CoercedCells: parser.coerced}, nil
}

// ReadSnapshotCSV parses a current-state export. Required columns: Código,
// Stock and a trailing-units column (V30D, Cantidad vendida, V365 or V730).
// Nombre, Proveedor, Código EAN and a revenue column are optional, as is a
// second trailing column for the year-ago window or a longer projection
// window.
func ReadSnapshotCSV(path string) (*SnapshotTable, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return ParseSnapshot(file)
}

// ParseSnapshot reads snapshot rows from CSV data.
func ParseSnapshot(r io.Reader) (*SnapshotTable, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	return parseSnapshotRows(header, func() ([]string, error) { return reader.Read() })
}

// trailingColumns resolves the velocity columns from the header: the current
// window, an optional year-ago copy of it, and an optional long window.
func trailingColumns(header []string) (recentIdx, recentDays, priorIdx, longIdx, longDays int) {
	recentIdx, priorIdx, longIdx = -1, -1, -1
	recentDays = 30

	for i, h := range header {
		name := normalizeColumnName(h)
		switch {
		case strings.HasPrefix(name, "v30d"), name == "cantidadvendida":
			if recentIdx < 0 {
				recentIdx = i
			} else if priorIdx < 0 {
				// Second 30-day column is the year-ago window,
				// e.g. "V30D 25" followed by "V30D 24".
				priorIdx = i
			}
		case name == "cantidadvendida(2)":
			if priorIdx < 0 {
				priorIdx = i
			}
		case strings.HasPrefix(name, "v365"):
			if longIdx < 0 {
				longIdx = i
				longDays = 365
			}
		case strings.HasPrefix(name, "v730"):
			if longIdx < 0 {
				longIdx = i
				longDays = 730
			}
		}
	}

	// A long window can stand in as the only velocity column.
	if recentIdx < 0 && longIdx >= 0 {
		recentIdx = longIdx
		recentDays = longDays
		longIdx = -1
		longDays = 0
	}

	return recentIdx, recentDays, priorIdx, longIdx, longDays
}

func parseSnapshotRows(header []string, next func() ([]string, error)) (*SnapshotTable, error) {
	idxSKU := findColumn(header, "código", "codigo", "sku")
	idxName := findColumn(header, "nombre", "name")
	idxEAN := findColumn(header, "código ean", "codigo ean", "ean")
	idxStock := findColumn(header, "stock", "stock (total)", "existencias")
	idxSupplier := findColumn(header, "proveedor", "supplier")
	idxRevenue := findColumn(header, "importe", "ventas netas totales ($)")
	recentIdx, recentDays, priorIdx, longIdx, longDays := trailingColumns(header)

	if idxSKU < 0 {
		return nil, &SchemaError{Table: "snapshot", Column: "Código"}
	}
	if idxStock < 0 {
		return nil, &SchemaError{Table: "snapshot", Column: "Stock"}
	}
	if recentIdx < 0 {
		return nil, &SchemaError{Table: "snapshot", Column: "V30D"}
	}

	parser := &coercingParser{}
	records := make([]domain.SnapshotRecord, 0)
	for {
		record, err := next()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, err
		}

		sku := domain.NormalizeSKU(cell(record, idxSKU))
		if sku == "" {
			continue
		}

		rec := domain.SnapshotRecord{
			SKU:                sku,
			Name:               cell(record, idxName),
			EAN:                cell(record, idxEAN),
			TrailingUnits:      parser.float(record, recentIdx),
			TrailingWindowDays: recentDays,
			StockOnHand:        parser.float(record, idxStock),
			Supplier:           cell(record, idxSupplier),
		}
		if priorIdx >= 0 {
			prior := parser.float(record, priorIdx)
			rec.PriorTrailingUnits = &prior
		}
		if longIdx >= 0 {
			long := parser.float(record, longIdx)
			rec.LongTrailingUnits = &long
			rec.LongTrailingWindow = longDays
		}
		if idxRevenue >= 0 {
			if v := cell(record, idxRevenue); v != "" {
				d := decimal.NewFromFloat(parser.float(record, idxRevenue))
				rec.Revenue = &d
			}
		}
		records = append(records, rec)
	}

	return &SnapshotTable{Records: records, CoercedCells: parser.coerced}, nil
}

// FilterBySupplier returns only the snapshot rows belonging to one supplier.
// Supplier selection is a display concern; it pre-filters the input rather
// than living inside the computation.
func FilterBySupplier(records []domain.SnapshotRecord, supplier string) []domain.SnapshotRecord {
	if supplier == "" {
		return records
	}
	out := make([]domain.SnapshotRecord, 0, len(records))
	for _, rec := range records {
		if strings.EqualFold(strings.TrimSpace(rec.Supplier), strings.TrimSpace(supplier)) {
			out = append(out, rec)
		}
	}
	return out
}
