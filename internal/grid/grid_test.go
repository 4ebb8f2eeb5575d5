package grid

import (
	"reflect"
	"testing"
)

func TestColToName(t *testing.T) {
	cases := map[int]string{0: "A", 25: "Z", 26: "AA", 27: "AB", 701: "ZZ", 702: "AAA", -1: "?"}
	for col, want := range cases {
		if got := ColToName(col); got != want {
			t.Errorf("ColToName(%d) = %q, want %q", col, got, want)
		}
		if col >= 0 {
			if back := NameToCol(want); back != col {
				t.Errorf("NameToCol(%q) = %d, want %d", want, back, col)
			}
		}
	}
}

func TestParseRef(t *testing.T) {
	tests := []struct {
		in   string
		want Ref
		ok   bool
	}{
		{"A1", Ref{0, 0}, true},
		{"b12", Ref{1, 11}, true},
		{"$C$3", Ref{2, 2}, true},
		{"Sheet1!D4", Ref{3, 3}, true},
		{"AA10", Ref{26, 9}, true},
		{"A0", Ref{}, false},
		{"A", Ref{}, false},
		{"12", Ref{}, false},
		{"A1B", Ref{}, false},
		{"", Ref{}, false},
	}
	for _, tt := range tests {
		got, ok := ParseRef(tt.in)
		if ok != tt.ok || got != tt.want {
			t.Errorf("ParseRef(%q) = %v, %v; want %v, %v", tt.in, got, ok, tt.want, tt.ok)
		}
	}
	if s := MustRef("b12").String(); s != "B12" {
		t.Errorf("String() = %q, want B12", s)
	}
}

func TestRangeRefsColumnMajor(t *testing.T) {
	r, ok := ParseRange("B2:A1")
	if !ok {
		t.Fatal("ParseRange failed")
	}
	if r.String() != "A1:B2" {
		t.Errorf("normalized = %s, want A1:B2", r)
	}
	var names []string
	for _, ref := range r.Refs() {
		names = append(names, ref.String())
	}
	want := []string{"A1", "A2", "B1", "B2"}
	if !reflect.DeepEqual(names, want) {
		t.Errorf("Refs() = %v, want %v", names, want)
	}
	if r.Width() != 2 || r.Height() != 2 {
		t.Errorf("size = %dx%d, want 2x2", r.Width(), r.Height())
	}
	if at, ok := r.At(1, 0); !ok || at.String() != "B1" {
		t.Errorf("At(1,0) = %v, %v", at, ok)
	}
	if _, ok := r.At(2, 0); ok {
		t.Error("At(2,0) should be out of range")
	}
}

func TestParseRangeInvalid(t *testing.T) {
	for _, s := range []string{"A1", "A1:", ":B2", "A1:B", "A1-B2"} {
		if _, ok := ParseRange(s); ok {
			t.Errorf("ParseRange(%q) succeeded, want failure", s)
		}
	}
}

func TestSheetLimits(t *testing.T) {
	if r, ok := ParseRef("XFD1048576"); !ok || r != (Ref{Col: MaxCols - 1, Row: MaxRows - 1}) {
		t.Errorf("ParseRef(XFD1048576) = %v, %v", r, ok)
	}
	for _, s := range []string{"XFE1", "A1048577", "AAAA1", "A99999999999999999999"} {
		if _, ok := ParseRef(s); ok {
			t.Errorf("ParseRef(%q) succeeded beyond the sheet limits", s)
		}
	}
	if _, ok := ParseRange("A1:Z200000000"); ok {
		t.Error("ParseRange accepted a row beyond the sheet")
	}
	r, ok := ParseRange("A1:XFD1048576")
	if !ok {
		t.Fatal("ParseRange(A1:XFD1048576) failed")
	}
	if r.Size() != MaxCols*MaxRows {
		t.Errorf("Size() = %d, want %d", r.Size(), MaxCols*MaxRows)
	}

	var seen []string
	r.Each(func(ref Ref) bool {
		seen = append(seen, ref.String())
		return len(seen) < 3
	})
	if want := []string{"A1", "A2", "A3"}; !reflect.DeepEqual(seen, want) {
		t.Errorf("Each stopped after %v, want %v", seen, want)
	}
}
