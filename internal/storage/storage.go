package storage

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"smarttable/internal/grid"
	"smarttable/internal/sheet"
)

// Load opens a workbook by extension: .xlsx/.xlsm through LoadXLSX
// (first worksheet), anything else as CSV.
func Load(filename string, opts ...sheet.Option) (*sheet.Sheet, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".xlsx", ".xlsm":
		return LoadXLSX(filename, "", opts...)
	default:
		return LoadCSV(filename, opts...)
	}
}

// LoadCSV reads a CSV file into a new sheet. Cell text, formulas
// included, is taken as is.
func LoadCSV(filename string, opts ...sheet.Option) (*sheet.Sheet, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	s := sheet.New(opts...)
	if err := ReadCSV(bufio.NewReader(f), s); err != nil {
		return nil, fmt.Errorf("error reading CSV %s: %w", filename, err)
	}
	return s, nil
}

// ReadCSV fills s from r. Rows may have different lengths.
func ReadCSV(r io.Reader, s *sheet.Sheet) error {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	records, err := cr.ReadAll()
	if err != nil {
		return err
	}
	for rIdx, row := range records {
		for cIdx, val := range row {
			if val != "" {
				s.Set(grid.Ref{Col: cIdx, Row: rIdx}, val)
			}
		}
	}
	return nil
}

// SaveCSV writes the raw cell text, so formulas survive a round trip.
func SaveCSV(s *sheet.Sheet, filename string) error {
	return writeFile(filename, func(w io.Writer) error {
		return WriteCSV(w, s, s.Raw)
	})
}

// ExportCSV writes what every cell displays.
func ExportCSV(s *sheet.Sheet, filename string) error {
	return writeFile(filename, func(w io.Writer) error {
		return WriteCSV(w, s, s.Display)
	})
}

// WriteCSV writes the used rectangle of s starting at A1, one record per
// row, using text to render each cell.
func WriteCSV(w io.Writer, s *sheet.Sheet, text func(grid.Ref) string) error {
	maxC, maxR := s.Bounds()
	out := make([][]string, maxR+1)
	for r := 0; r <= maxR; r++ {
		row := make([]string, maxC+1)
		for c := 0; c <= maxC; c++ {
			row[c] = text(grid.Ref{Col: c, Row: r})
		}
		out[r] = row
	}
	cw := csv.NewWriter(w)
	if err := cw.WriteAll(out); err != nil {
		return fmt.Errorf("error writing CSV: %w", err)
	}
	return nil
}

func writeFile(filename string, write func(io.Writer) error) error {
	f, err := os.Create(filename)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
