package calc

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Kind tags the dynamic type of a Value.
type Kind int

const (
	KindString Kind = iota
	KindNumber
	KindBool
)

func (k Kind) String() string {
	switch k {
	case KindNumber:
		return "number"
	case KindBool:
		return "bool"
	default:
		return "string"
	}
}

// Value is a scalar cell value. The zero Value is the empty string.
type Value struct {
	Kind Kind
	Num  float64
	Str  string
	Bool bool
}

// Number builds a numeric value. Negative zero is stored as zero.
func Number(f float64) Value {
	if f == 0 {
		f = 0
	}
	return Value{Kind: KindNumber, Num: f}
}

func String(s string) Value { return Value{Kind: KindString, Str: s} }
func Bool(b bool) Value     { return Value{Kind: KindBool, Bool: b} }

// String is the canonical text of the value: shortest exact form for
// numbers, TRUE/FALSE for booleans. This is what lookups compare against
// and what a sheet hands back through getCell.
func (v Value) String() string {
	switch v.Kind {
	case KindNumber:
		if v.Num == 0 {
			return "0"
		}
		return strconv.FormatFloat(v.Num, 'f', -1, 64)
	case KindBool:
		if v.Bool {
			return "TRUE"
		}
		return "FALSE"
	default:
		return v.Str
	}
}

// Display formats the value for a cell: integral numbers without a
// fraction, others with at most six decimals.
func (v Value) Display() string {
	if v.Kind != KindNumber {
		return v.String()
	}
	val := v.Num
	if math.IsNaN(val) || math.IsInf(val, 0) {
		return ErrorSentinel
	}
	if math.Abs(val-math.Round(val)) < 1e-9 {
		r := math.Round(val)
		if r == 0 {
			return "0"
		}
		return fmt.Sprintf("%.0f", r)
	}
	s := strconv.FormatFloat(val, 'f', 6, 64)
	s = strings.TrimRight(s, "0")
	s = strings.TrimRight(s, ".")
	if s == "-0" {
		return "0"
	}
	return s
}

// IsEmpty reports whether v is the blank string.
func (v Value) IsEmpty() bool {
	return v.Kind == KindString && v.Str == ""
}

// IsNumber reports whether s is plain numeric text with a finite value.
// Hex and inf/nan spellings accepted by strconv are rejected.
func IsNumber(s string) bool {
	_, ok := parseNumber(s)
	return ok
}

func parseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" || strings.ContainsAny(s, "xX_") {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// ParseValue applies scalar coercion to raw cell text: "" stays empty,
// TRUE/FALSE become booleans, numeric text becomes a number and anything
// else is kept as the original string.
func ParseValue(s string) Value {
	switch s {
	case "":
		return String("")
	case "TRUE":
		return Bool(true)
	case "FALSE":
		return Bool(false)
	}
	if f, ok := parseNumber(s); ok {
		return Number(f)
	}
	return String(s)
}

// toNumber is the lenient conversion used by scalar numeric parameters.
func toNumber(v Value) (float64, bool) {
	switch v.Kind {
	case KindNumber:
		return v.Num, true
	case KindBool:
		if v.Bool {
			return 1, true
		}
		return 0, true
	default:
		if v.Str == "" {
			return 0, true
		}
		return parseNumber(v.Str)
	}
}

// aggregateNumber is the strict conversion aggregates use to decide
// whether an argument takes part: booleans and text are skipped.
func aggregateNumber(v Value) (float64, bool) {
	switch v.Kind {
	case KindNumber:
		return v.Num, true
	case KindString:
		return parseNumber(v.Str)
	default:
		return 0, false
	}
}

func truthy(v Value) bool {
	switch v.Kind {
	case KindBool:
		return v.Bool
	case KindNumber:
		return v.Num != 0
	default:
		if v.Str == "" || strings.EqualFold(v.Str, "FALSE") {
			return false
		}
		if f, ok := parseNumber(v.Str); ok {
			return f != 0
		}
		return true
	}
}
