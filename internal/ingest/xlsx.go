package ingest

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

// ReadSnapshotXLSX parses a snapshot from the first sheet of an XLSX export.
// Column handling is identical to the CSV reader.
func ReadSnapshotXLSX(path string) (*SnapshotTable, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open xlsx file %s: %w", path, err)
	}
	defer f.Close()

	header, next, err := sheetRows(f)
	if err != nil {
		return nil, err
	}
	return parseSnapshotRows(header, next)
}

// sheetRows opens the first sheet and returns its header plus a row iterator
// in the shape the CSV parser uses.
func sheetRows(f *excelize.File) ([]string, func() ([]string, error), error) {
	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, nil, fmt.Errorf("xlsx file has no sheets")
	}

	rows, err := f.Rows(sheets[0])
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read rows from sheet %s: %w", sheets[0], err)
	}

	if !rows.Next() {
		rows.Close()
		return nil, nil, fmt.Errorf("sheet %s is empty", sheets[0])
	}
	header, err := rows.Columns()
	if err != nil {
		rows.Close()
		return nil, nil, fmt.Errorf("failed to read header: %w", err)
	}

	next := func() ([]string, error) {
		if !rows.Next() {
			rows.Close()
			return nil, io.EOF
		}
		return rows.Columns()
	}
	return header, next, nil
}
