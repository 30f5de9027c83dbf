package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/agentetemporada/backend-go/internal/domain"
)

const purchaseSheet = "Compra del día"

// WriteXLSX writes the recommendation table as an Excel workbook with a
// single sheet and the header row frozen, the layout the purchasing team
// downloads every morning.
func WriteXLSX(w io.Writer, rows []domain.Recommendation, opts Options) error {
	f, err := buildWorkbook(rows, opts)
	if err != nil {
		return err
	}
	defer f.Close()
	return f.Write(w)
}

// WriteXLSXFile writes the workbook to a file.
func WriteXLSXFile(path string, rows []domain.Recommendation, opts Options) error {
	f, err := buildWorkbook(rows, opts)
	if err != nil {
		return err
	}
	defer f.Close()
	return f.SaveAs(path)
}

func buildWorkbook(rows []domain.Recommendation, opts Options) (*excelize.File, error) {
	months := statMonths(rows)
	hasPrior := hasPriorColumn(rows)

	f := excelize.NewFile()
	index, err := f.NewSheet(purchaseSheet)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		f.Close()
		return nil, err
	}

	writeRow := func(rowNum int, values []string) error {
		cellRef, err := excelize.CoordinatesToCellName(1, rowNum)
		if err != nil {
			return err
		}
		cells := make([]interface{}, len(values))
		for i, v := range values {
			cells[i] = v
		}
		return f.SetSheetRow(purchaseSheet, cellRef, &cells)
	}

	if err := writeRow(1, headerRow(months, opts, hasPrior)); err != nil {
		f.Close()
		return nil, err
	}
	for i, row := range rows {
		if err := writeRow(i+2, dataRow(row, months, opts, hasPrior)); err != nil {
			f.Close()
			return nil, err
		}
	}

	// Freeze the header row.
	if err := f.SetPanes(purchaseSheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		f.Close()
		return nil, err
	}

	return f, nil
}
