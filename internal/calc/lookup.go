package calc

import (
	"strings"

	"smarttable/internal/grid"
)

// rangeArg accepts either a bare range (A1:C10) or its quoted form
// ("A1:C10"), which lookups have traditionally been written with.
func rangeArg(name string, a arg) (grid.Range, error) {
	if a.rng != nil {
		return *a.rng, nil
	}
	if a.val.Kind == KindString {
		if r, ok := grid.ParseRange(strings.ToUpper(a.val.Str)); ok {
			return r, checkRangeSize(r)
		}
	}
	return grid.Range{}, errorf("%s: invalid range %q", name, a.val.String())
}

func (ev *evaluator) raw(ref grid.Ref) string {
	return ev.getCell(ref.String())
}

// sameText is the exact-match comparison of lookups: raw cell text
// against the canonical text of the wanted value, ignoring case.
func sameText(raw string, want Value) bool {
	return strings.EqualFold(raw, want.String())
}

func fnVLookup(ev *evaluator, args []arg) (Value, error) {
	if err := arity("VLOOKUP", args, 3, 4); err != nil {
		return Value{}, err
	}
	want, err := scalar("VLOOKUP", args[0])
	if err != nil {
		return Value{}, err
	}
	r, err := rangeArg("VLOOKUP", args[1])
	if err != nil {
		return Value{}, err
	}
	col, err := intArg("VLOOKUP", args[2])
	if err != nil {
		return Value{}, err
	}
	if col < 1 || col > r.Width() {
		return Value{}, errorf("VLOOKUP: column index %d outside %s", col, r)
	}
	exact := false
	if len(args) == 4 {
		flag, err := scalar("VLOOKUP", args[3])
		if err != nil {
			return Value{}, err
		}
		exact = !truthy(flag)
	}

	row := -1
	if exact {
		for rr := 0; rr < r.Height(); rr++ {
			ref, _ := r.At(0, rr)
			if sameText(ev.raw(ref), want) {
				row = rr
				break
			}
		}
	} else {
		target, ok := toNumber(want)
		if !ok {
			return Value{}, errorf("VLOOKUP: approximate match needs a number, got %q", want.String())
		}
		// first column is assumed sorted ascending
		for rr := 0; rr < r.Height(); rr++ {
			ref, _ := r.At(0, rr)
			f, ok := aggregateNumber(ParseValue(ev.raw(ref)))
			if !ok {
				continue
			}
			if f > target {
				break
			}
			row = rr
		}
	}
	if row < 0 {
		return Value{}, notFoundf("VLOOKUP: %q not found in %s", want.String(), r)
	}
	ref, _ := r.At(col-1, row)
	return ParseValue(ev.raw(ref)), nil
}

// fnHLookup only supports exact matching.
func fnHLookup(ev *evaluator, args []arg) (Value, error) {
	if err := arity("HLOOKUP", args, 3, 4); err != nil {
		return Value{}, err
	}
	want, err := scalar("HLOOKUP", args[0])
	if err != nil {
		return Value{}, err
	}
	r, err := rangeArg("HLOOKUP", args[1])
	if err != nil {
		return Value{}, err
	}
	row, err := intArg("HLOOKUP", args[2])
	if err != nil {
		return Value{}, err
	}
	if row < 1 || row > r.Height() {
		return Value{}, errorf("HLOOKUP: row index %d outside %s", row, r)
	}
	for c := 0; c < r.Width(); c++ {
		ref, _ := r.At(c, 0)
		if sameText(ev.raw(ref), want) {
			hit, _ := r.At(c, row-1)
			return ParseValue(ev.raw(hit)), nil
		}
	}
	return Value{}, notFoundf("HLOOKUP: %q not found in %s", want.String(), r)
}

// fnIndex resolves the cell at a 1-based offset. With WithIndexReferences
// the address itself is returned for the caller to resolve.
func fnIndex(ev *evaluator, args []arg) (Value, error) {
	if err := arity("INDEX", args, 2, 3); err != nil {
		return Value{}, err
	}
	r, err := rangeArg("INDEX", args[0])
	if err != nil {
		return Value{}, err
	}
	row, err := intArg("INDEX", args[1])
	if err != nil {
		return Value{}, err
	}
	col := 1
	if len(args) == 3 {
		if col, err = intArg("INDEX", args[2]); err != nil {
			return Value{}, err
		}
	}
	ref, ok := r.At(col-1, row-1)
	if !ok {
		return Value{}, errorf("INDEX: position (%d, %d) outside %s", row, col, r)
	}
	if ev.engine.indexRefs {
		return String(ref.String()), nil
	}
	return ParseValue(ev.raw(ref)), nil
}

// fnMatch scans a single row or column for the first exact match.
func fnMatch(ev *evaluator, args []arg) (Value, error) {
	if err := arity("MATCH", args, 2, 3); err != nil {
		return Value{}, err
	}
	want, err := scalar("MATCH", args[0])
	if err != nil {
		return Value{}, err
	}
	r, err := rangeArg("MATCH", args[1])
	if err != nil {
		return Value{}, err
	}
	if len(args) == 3 {
		mode, err := intArg("MATCH", args[2])
		if err != nil {
			return Value{}, err
		}
		if mode != 0 {
			return Value{}, errorf("MATCH: only exact match (0) is supported")
		}
	}

	var cells []grid.Ref
	switch {
	case r.Width() == 1:
		cells = r.Refs()
	case r.Height() == 1:
		for c := 0; c < r.Width(); c++ {
			ref, _ := r.At(c, 0)
			cells = append(cells, ref)
		}
	default:
		return Value{}, errorf("MATCH: %s must be a single row or column", r)
	}
	for i, ref := range cells {
		if sameText(ev.raw(ref), want) {
			return Number(float64(i + 1)), nil
		}
	}
	return Value{}, notFoundf("MATCH: %q not found in %s", want.String(), r)
}
