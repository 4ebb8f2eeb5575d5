package storage

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"smarttable/internal/grid"
	"smarttable/internal/sheet"
)

// LoadXLSX imports one worksheet of an Excel workbook; an empty name
// means the first one. Cells holding a formula are imported as
// "=<formula>", the rest as their formatted value.
func LoadXLSX(filename, sheetName string, opts ...sheet.Option) (*sheet.Sheet, error) {
	f, err := excelize.OpenFile(filename)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	if sheetName == "" {
		list := f.GetSheetList()
		if len(list) == 0 {
			return nil, fmt.Errorf("%s has no worksheets", filename)
		}
		sheetName = list[0]
	}
	rows, err := f.GetRows(sheetName)
	if err != nil {
		return nil, fmt.Errorf("reading sheet %s: %w", sheetName, err)
	}

	maxCol, maxRow := dimension(f, sheetName)
	if len(rows) > maxRow {
		maxRow = len(rows)
	}

	s := sheet.New(opts...)
	for rIdx := 0; rIdx < maxRow; rIdx++ {
		var row []string
		if rIdx < len(rows) {
			row = rows[rIdx]
		}
		width := maxCol
		if len(row) > width {
			width = len(row)
		}
		for cIdx := 0; cIdx < width; cIdx++ {
			var val string
			if cIdx < len(row) {
				val = row[cIdx]
			}
			cell, err := excelize.CoordinatesToCellName(cIdx+1, rIdx+1)
			if err != nil {
				return nil, err
			}
			// GetRows trims trailing cells without a value, so formulas
			// whose result was never cached are looked up directly
			formula, err := f.GetCellFormula(sheetName, cell)
			if err != nil {
				return nil, fmt.Errorf("reading formula %s!%s: %w", sheetName, cell, err)
			}
			if formula != "" {
				val = "=" + formula
			}
			if val != "" {
				s.Set(grid.Ref{Col: cIdx, Row: rIdx}, val)
			}
		}
	}
	return s, nil
}

// dimension returns the used column and row count recorded by the
// worksheet, clamped to the sheet limits. A missing or unreadable
// dimension yields 0, 0.
func dimension(f *excelize.File, sheetName string) (cols, rows int) {
	ref, err := f.GetSheetDimension(sheetName)
	if err != nil || ref == "" {
		return 0, 0
	}
	last := ref
	if _, end, ok := strings.Cut(ref, ":"); ok {
		last = end
	}
	cols, rows, err = excelize.CellNameToCoordinates(last)
	if err != nil {
		return 0, 0
	}
	return min(cols, grid.MaxCols), min(rows, grid.MaxRows)
}
