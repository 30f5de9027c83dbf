// Package ingest reads the two tabular inputs, the historical sales ledger
// and the current snapshot, into clean records. All positional and
// header-name guessing lives here so the forecast core only ever sees typed
// rows.
package ingest

import (
	"fmt"
	"strconv"
	"strings"
)

// SchemaError reports a required column missing from an input table. It is
// fatal and surfaced before any computation starts.
type SchemaError struct {
	Table  string
	Column string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("%s: required column %q is missing", e.Table, e.Column)
}

// columnNameSanitizer strips separators so header matching survives the
// spacing and punctuation drift between exports.
var columnNameSanitizer = strings.NewReplacer(" ", "", "_", "", ".", "", "-", "", "/", "")

// accentFolder maps the accented characters that appear in Erply's Spanish
// headers onto their bare forms.
var accentFolder = strings.NewReplacer(
	"á", "a", "é", "e", "í", "i", "ó", "o", "ú", "u", "ñ", "n", "ü", "u",
)

func normalizeColumnName(name string) string {
	name = strings.TrimSpace(strings.ToLower(name))
	name = accentFolder.Replace(name)
	return columnNameSanitizer.Replace(name)
}

// findColumn returns the index of the first header matching any of the
// candidate names after normalization, or -1.
func findColumn(header []string, names ...string) int {
	targets := make(map[string]struct{}, len(names))
	for _, name := range names {
		targets[normalizeColumnName(name)] = struct{}{}
	}
	for i, h := range header {
		if _, ok := targets[normalizeColumnName(h)]; ok {
			return i
		}
	}
	return -1
}

// coercingParser converts cells to numbers leniently: empty cells are zero,
// and cells that fail numeric coercion become zero while bumping a counter
// that the caller surfaces to the user. Rejecting a whole export for one bad
// cell is worse than zeroing it in this domain.
type coercingParser struct {
	coerced int
}

func (p *coercingParser) float(record []string, idx int) float64 {
	if idx < 0 || idx >= len(record) {
		return 0
	}
	v := strings.TrimSpace(record[idx])
	if v == "" {
		return 0
	}
	v = strings.ReplaceAll(v, ",", "")
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		p.coerced++
		return 0
	}
	return f
}

func (p *coercingParser) int(record []string, idx int) int {
	return int(p.float(record, idx))
}

func cell(record []string, idx int) string {
	if idx < 0 || idx >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[idx])
}
