package storage

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"

	"smarttable/internal/grid"
	"smarttable/internal/sheet"
)

func TestCSVRoundTrip(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "in.csv")
	body := "1,2,=SUM(A1:B1)\nname,\"=CONCATENATE(A2,\"\"!\"\")\"\n"
	if err := os.WriteFile(src, []byte(body), 0644); err != nil {
		t.Fatal(err)
	}
	s, err := Load(src)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got := s.Display(grid.MustRef("C1")); got != "3" {
		t.Errorf("C1 = %q, want 3", got)
	}
	if got := s.Display(grid.MustRef("B2")); got != "name!" {
		t.Errorf("B2 = %q, want name!", got)
	}

	out := filepath.Join(dir, "out.csv")
	if err := SaveCSV(s, out); err != nil {
		t.Fatalf("SaveCSV: %v", err)
	}
	again, err := LoadCSV(out)
	if err != nil {
		t.Fatal(err)
	}
	for _, ref := range s.Refs() {
		if again.Raw(ref) != s.Raw(ref) {
			t.Errorf("%s: %q != %q", ref, again.Raw(ref), s.Raw(ref))
		}
	}
}

func TestExportCSV(t *testing.T) {
	s := sheet.New()
	s.Set(grid.MustRef("A1"), "2")
	s.Set(grid.MustRef("B2"), "=A1*21")
	out := filepath.Join(t.TempDir(), "values.csv")
	if err := ExportCSV(s, out); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	if want := "2,\n,42\n"; string(data) != want {
		t.Errorf("export = %q, want %q", data, want)
	}
}

func TestWriteCSVEmpty(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, sheet.New(), func(grid.Ref) string { return "" }); err != nil {
		t.Fatal(err)
	}
	if buf.Len() != 0 {
		t.Errorf("got %q for an empty sheet", buf.String())
	}
}

func TestReadCSVError(t *testing.T) {
	err := ReadCSV(strings.NewReader("\"unterminated"), sheet.New())
	if err == nil {
		t.Error("expected a parse error")
	}
	if _, err := LoadCSV(filepath.Join(t.TempDir(), "missing.csv")); err == nil {
		t.Error("expected an error for a missing file")
	}
}

func TestLoadXLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "book.xlsx")
	f := excelize.NewFile()
	sh := f.GetSheetName(0)
	for cell, v := range map[string]any{"A1": 2, "A2": 4, "B1": "label", "B3": "end", "A4": "tail"} {
		if err := f.SetCellValue(sh, cell, v); err != nil {
			t.Fatal(err)
		}
	}
	if err := f.SetCellFormula(sh, "A3", "SUM(A1:A2)"); err != nil {
		t.Fatal(err)
	}
	if err := f.SaveAs(path); err != nil {
		t.Fatal(err)
	}
	f.Close()

	s, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got := s.Raw(grid.MustRef("A3")); got != "=SUM(A1:A2)" {
		t.Errorf("A3 raw = %q", got)
	}
	if got := s.Display(grid.MustRef("A3")); got != "6" {
		t.Errorf("A3 = %q, want 6", got)
	}
	if got := s.Display(grid.MustRef("B1")); got != "label" {
		t.Errorf("B1 = %q", got)
	}

	if _, err := LoadXLSX(path, "NoSuchSheet"); err == nil {
		t.Error("expected an error for a missing sheet")
	}
}

func TestLoadXLSXUncachedFormulas(t *testing.T) {
	path := filepath.Join(t.TempDir(), "uncached.xlsx")
	f := excelize.NewFile()
	sh := f.GetSheetName(0)
	if err := f.SetCellValue(sh, "A1", 2); err != nil {
		t.Fatal(err)
	}
	// formulas at the end of a row and on a row of their own carry no
	// cached value
	for cell, formula := range map[string]string{"B1": "A1*3", "C2": "B1+1"} {
		if err := f.SetCellFormula(sh, cell, formula); err != nil {
			t.Fatal(err)
		}
	}
	if err := f.SetSheetDimension(sh, "A1:C2"); err != nil {
		t.Fatal(err)
	}
	if err := f.SaveAs(path); err != nil {
		t.Fatal(err)
	}
	f.Close()

	s, err := LoadXLSX(path, "")
	if err != nil {
		t.Fatalf("LoadXLSX: %v", err)
	}
	for name, want := range map[string]string{"B1": "=A1*3", "C2": "=B1+1"} {
		if got := s.Raw(grid.MustRef(name)); got != want {
			t.Errorf("%s raw = %q, want %q", name, got, want)
		}
	}
	if got := s.Display(grid.MustRef("C2")); got != "7" {
		t.Errorf("C2 = %q, want 7", got)
	}
	if s.Len() != 3 {
		t.Errorf("Len = %d, want 3", s.Len())
	}
}
