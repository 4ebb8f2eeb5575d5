package sheet

import (
	"strings"

	"github.com/xuri/efp"

	"smarttable/internal/grid"
)

// References lists the cells a formula reads, in order of first
// appearance, with ranges expanded column by column. Non-formulas have
// none.
func References(formula string) []grid.Ref {
	if !strings.HasPrefix(formula, "=") {
		return nil
	}
	ps := efp.ExcelParser()
	tokens := ps.Parse(formula[1:])

	seen := map[grid.Ref]bool{}
	var out []grid.Ref
	add := func(ref grid.Ref) {
		if !seen[ref] {
			seen[ref] = true
			out = append(out, ref)
		}
	}
	// ranges too large to evaluate are not expanded either
	addRange := func(r grid.Range) {
		if r.Size() > grid.MaxRangeCells {
			return
		}
		r.Each(func(ref grid.Ref) bool {
			add(ref)
			return true
		})
	}
	for _, token := range tokens {
		if token.TType != efp.TokenTypeOperand {
			continue
		}
		// lookups take their range as text, e.g. VLOOKUP(x, "A1:B3", 2)
		if token.TSubType == efp.TokenSubTypeText {
			if r, ok := grid.ParseRange(token.TValue); ok {
				addRange(r)
			}
			continue
		}
		if token.TSubType != efp.TokenSubTypeRange {
			continue
		}
		if r, ok := grid.ParseRange(token.TValue); ok {
			addRange(r)
			continue
		}
		if ref, ok := grid.ParseRef(token.TValue); ok {
			add(ref)
		}
	}
	return out
}

// Precedents returns the cells the formula in ref reads.
func (s *Sheet) Precedents(ref grid.Ref) []grid.Ref {
	return References(s.Raw(ref))
}

// Dependents returns the formula cells that read ref directly, in row
// order.
func (s *Sheet) Dependents(ref grid.Ref) []grid.Ref {
	var out []grid.Ref
	for _, cell := range s.Refs() {
		for _, p := range s.Precedents(cell) {
			if p == ref {
				out = append(out, cell)
				break
			}
		}
	}
	return out
}
