package grid

import "strings"

// Range is a rectangular inclusive span of cells. Start is always the
// top-left corner once built through NewRange or ParseRange.
type Range struct {
	Start Ref
	End   Ref
}

// NewRange normalizes two arbitrary corners.
func NewRange(a, b Ref) Range {
	return Range{
		Start: Ref{Col: minInt(a.Col, b.Col), Row: minInt(a.Row, b.Row)},
		End:   Ref{Col: maxInt(a.Col, b.Col), Row: maxInt(a.Row, b.Row)},
	}
}

// ParseRange parses LEFT:RIGHT.
func ParseRange(s string) (Range, bool) {
	left, right, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok {
		return Range{}, false
	}
	a, ok1 := ParseRef(left)
	b, ok2 := ParseRef(right)
	if !ok1 || !ok2 {
		return Range{}, false
	}
	return NewRange(a, b), true
}

func (r Range) String() string {
	return r.Start.String() + ":" + r.End.String()
}

// Width is the number of columns.
func (r Range) Width() int { return r.End.Col - r.Start.Col + 1 }

// Height is the number of rows.
func (r Range) Height() int { return r.End.Row - r.Start.Row + 1 }

// At returns the cell at the 0-based (col, row) offset from Start.
func (r Range) At(colOff, rowOff int) (Ref, bool) {
	if colOff < 0 || rowOff < 0 || colOff >= r.Width() || rowOff >= r.Height() {
		return Ref{}, false
	}
	return Ref{Col: r.Start.Col + colOff, Row: r.Start.Row + rowOff}, true
}

// Size is the number of cells in the range.
func (r Range) Size() int { return r.Width() * r.Height() }

// Each calls fn for every cell column-major (columns outer, rows inner)
// until fn returns false.
func (r Range) Each(fn func(Ref) bool) {
	for c := r.Start.Col; c <= r.End.Col; c++ {
		for rr := r.Start.Row; rr <= r.End.Row; rr++ {
			if !fn(Ref{Col: c, Row: rr}) {
				return
			}
		}
	}
}

// Refs expands the range column-major. Callers bound Size first.
func (r Range) Refs() []Ref {
	out := make([]Ref, 0, r.Size())
	r.Each(func(ref Ref) bool {
		out = append(out, ref)
		return true
	})
	return out
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
