// Package calc evaluates spreadsheet formulas against a cell lookup
// callback. Evaluation is synchronous and keeps no state between calls.
package calc

import (
	"fmt"
	"math"
	"regexp"
	"strings"
	"unicode"

	"smarttable/internal/grid"
)

// CellFunc returns the current value of a cell given a normalized
// reference such as "A1", or "" when the cell is blank.
type CellFunc func(ref string) string

var (
	callRe  = regexp.MustCompile(`^([A-Z]+)\((.*)\)$`)
	rangeRe = regexp.MustCompile(`^[A-Z]+\d+:[A-Z]+\d+$`)
	cellRe  = regexp.MustCompile(`^[A-Z]+\d+$`)
)

// Engine holds evaluation options. The zero value is usable.
type Engine struct {
	indexRefs bool
}

type Option func(*Engine)

// WithIndexReferences makes INDEX return the address it selects ("B2")
// instead of the value stored there.
func WithIndexReferences() Option {
	return func(e *Engine) { e.indexRefs = true }
}

func New(opts ...Option) *Engine {
	e := &Engine{}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

var defaultEngine = New()

// Evaluate runs formula with the default engine.
func Evaluate(formula string, getCell CellFunc) Result {
	return defaultEngine.Evaluate(formula, getCell)
}

// Evaluate computes formula. Strings not starting with "=" come back
// unchanged as string values. Failures never panic out; they are encoded
// in the Result.
func (e *Engine) Evaluate(formula string, getCell CellFunc) (res Result) {
	if !strings.HasPrefix(formula, "=") {
		return Result{Value: String(formula)}
	}
	if getCell == nil {
		getCell = func(string) string { return "" }
	}
	defer func() {
		if r := recover(); r != nil {
			res = Result{Value: String(ErrorSentinel), Error: fmt.Sprint(r)}
		}
	}()

	ev := &evaluator{engine: e, getCell: getCell}
	val, err := ev.evalBody(upperOutsideQuotes(strings.TrimSpace(formula[1:])))
	if err != nil {
		return resultFromError(err)
	}
	// avoid NaN/Inf leaking into cells
	if val.Kind == KindNumber && (math.IsNaN(val.Num) || math.IsInf(val.Num, 0)) {
		return Result{Value: String(ErrorSentinel), Error: "result is not a finite number"}
	}
	return Result{Value: val}
}

type evaluator struct {
	engine  *Engine
	getCell CellFunc
}

func (ev *evaluator) evalBody(body string) (Value, error) {
	if name, inner, ok := splitCall(body); ok {
		return ev.call(name, inner)
	}
	if cellRe.MatchString(body) {
		return ev.cell(body)
	}
	return ev.arithmetic(body)
}

func (ev *evaluator) call(name, inner string) (Value, error) {
	fn, ok := builtins[name]
	if !ok {
		return Value{}, unknownFunction(name)
	}
	tokens := splitArgs(inner)
	args := make([]arg, 0, len(tokens))
	for _, tok := range tokens {
		a, err := ev.classify(tok)
		if err != nil {
			return Value{}, err
		}
		args = append(args, a)
	}
	return fn(ev, args)
}

func (ev *evaluator) cell(name string) (Value, error) {
	ref, ok := grid.ParseRef(name)
	if !ok {
		return Value{}, errorf("invalid cell reference: %s", name)
	}
	return ParseValue(ev.getCell(ref.String())), nil
}

func (ev *evaluator) rangeValues(r grid.Range) []Value {
	values := make([]Value, 0, r.Size())
	r.Each(func(ref grid.Ref) bool {
		values = append(values, ParseValue(ev.getCell(ref.String())))
		return true
	})
	return values
}

// arg is one classified function argument. Bare ranges keep their shape
// next to the expanded values so lookups can walk rows and columns.
type arg struct {
	val    Value
	rng    *grid.Range
	values []Value
}

func (a arg) flatten() []Value {
	if a.rng != nil {
		return a.values
	}
	return []Value{a.val}
}

func (ev *evaluator) classify(tok string) (arg, error) {
	switch {
	case rangeRe.MatchString(tok):
		r, ok := grid.ParseRange(tok)
		if !ok {
			return arg{}, errorf("invalid range: %s", tok)
		}
		if err := checkRangeSize(r); err != nil {
			return arg{}, err
		}
		return arg{rng: &r, values: ev.rangeValues(r)}, nil
	case cellRe.MatchString(tok):
		v, err := ev.cell(tok)
		return arg{val: v}, err
	case IsNumber(tok):
		f, _ := parseNumber(tok)
		return arg{val: Number(f)}, nil
	case isQuoted(tok):
		return arg{val: String(unquote(tok))}, nil
	case tok == "TRUE":
		return arg{val: Bool(true)}, nil
	case tok == "FALSE":
		return arg{val: Bool(false)}, nil
	}
	if name, inner, ok := splitCall(tok); ok {
		v, err := ev.call(name, inner)
		return arg{val: v}, err
	}
	return arg{val: String(tok)}, nil
}

func checkRangeSize(r grid.Range) error {
	if r.Size() > grid.MaxRangeCells {
		return errorf("range %s has %d cells, limit is %d", r, r.Size(), grid.MaxRangeCells)
	}
	return nil
}

// splitCall matches NAME(...) where the first opening paren closes at the
// very end, so "SUM(A1)+SUM(B1)" is not a single call.
func splitCall(s string) (name, inner string, ok bool) {
	m := callRe.FindStringSubmatch(s)
	if m == nil {
		return "", "", false
	}
	open := len(m[1])
	if closingParen(s, open) != len(s)-1 {
		return "", "", false
	}
	return m[1], m[2], true
}

// closingParen returns the index of the paren matching s[open], skipping
// quoted text, or -1.
func closingParen(s string, open int) int {
	nest := 0
	inQuote := false
	for i := open; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '"':
			inQuote = !inQuote
		case inQuote:
		case c == '(':
			nest++
		case c == ')':
			nest--
			if nest == 0 {
				return i
			}
		}
	}
	return -1
}

// splitArgs cuts the text between a call's parens on top-level commas.
// Commas inside string literals or nested parens do not split.
func splitArgs(inner string) []string {
	if strings.TrimSpace(inner) == "" {
		return nil
	}
	var out []string
	nest := 0
	inQuote := false
	start := 0
	for i := 0; i < len(inner); i++ {
		c := inner[i]
		switch {
		case c == '"':
			inQuote = !inQuote
		case inQuote:
		case c == '(':
			nest++
		case c == ')':
			nest--
		case c == ',' && nest == 0:
			out = append(out, strings.TrimSpace(inner[start:i]))
			start = i + 1
		}
	}
	return append(out, strings.TrimSpace(inner[start:]))
}

func isQuoted(tok string) bool {
	return len(tok) >= 2 && tok[0] == '"' && tok[len(tok)-1] == '"'
}

func unquote(tok string) string {
	return strings.ReplaceAll(tok[1:len(tok)-1], `""`, `"`)
}

// upperOutsideQuotes uppercases function names and references but keeps
// the case of string literals.
func upperOutsideQuotes(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	inQuote := false
	for _, r := range s {
		if r == '"' {
			inQuote = !inQuote
		}
		if !inQuote {
			r = unicode.ToUpper(r)
		}
		b.WriteRune(r)
	}
	return b.String()
}
