// Package sheet is a sparse grid of cell text that feeds the formula
// engine. It owns the lookups the engine calls back into, guards against
// formulas that reach themselves and keeps answers for deferred AI cells.
package sheet

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"smarttable/internal/calc"
	"smarttable/internal/grid"
)

// CycleSentinel is shown for a formula that depends on itself.
const CycleSentinel = "#CYCLE"

type Sheet struct {
	mu      sync.RWMutex
	cells   map[grid.Ref]string
	patched map[grid.Ref]string
	engine  *calc.Engine
	logger  *slog.Logger
}

type Option func(*Sheet)

// WithEngine sets the engine used for formula cells.
func WithEngine(e *calc.Engine) Option {
	return func(s *Sheet) { s.engine = e }
}

func WithLogger(l *slog.Logger) Option {
	return func(s *Sheet) { s.logger = l }
}

func New(opts ...Option) *Sheet {
	s := &Sheet{
		cells:   map[grid.Ref]string{},
		patched: map[grid.Ref]string{},
		engine:  calc.New(),
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Set stores raw cell text. Empty text clears the cell. Any answer
// previously patched into the cell is dropped.
func (s *Sheet) Set(ref grid.Ref, text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.patched, ref)
	if text == "" {
		delete(s.cells, ref)
		return
	}
	s.cells[ref] = text
}

// SetName is Set with an A1-style address.
func (s *Sheet) SetName(name, text string) error {
	ref, ok := grid.ParseRef(name)
	if !ok {
		return fmt.Errorf("invalid cell reference %q", name)
	}
	s.Set(ref, text)
	return nil
}

// Raw returns the text stored in a cell, formulas included.
func (s *Sheet) Raw(ref grid.Ref) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cells[ref]
}

// Len is the number of non-blank cells.
func (s *Sheet) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.cells)
}

// Bounds returns the highest used column and row, or -1, -1 when empty.
func (s *Sheet) Bounds() (maxCol, maxRow int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	maxCol, maxRow = -1, -1
	for k := range s.cells {
		if k.Col > maxCol {
			maxCol = k.Col
		}
		if k.Row > maxRow {
			maxRow = k.Row
		}
	}
	return maxCol, maxRow
}

// Refs lists the used cells in row order.
func (s *Sheet) Refs() []grid.Ref {
	s.mu.RLock()
	defer s.mu.RUnlock()
	refs := make([]grid.Ref, 0, len(s.cells))
	for k := range s.cells {
		refs = append(refs, k)
	}
	sort.Slice(refs, func(i, j int) bool {
		if refs[i].Row != refs[j].Row {
			return refs[i].Row < refs[j].Row
		}
		return refs[i].Col < refs[j].Col
	})
	return refs
}

// Eval computes the value of one cell.
func (s *Sheet) Eval(ref grid.Ref) calc.Result {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e := &evalState{sheet: s, visited: map[grid.Ref]bool{}}
	return e.cellResult(ref)
}

// Display is the text a cell renders as.
func (s *Sheet) Display(ref grid.Ref) string {
	return s.Eval(ref).Value.Display()
}

// EvalFormula evaluates formula against the sheet without storing it.
func (s *Sheet) EvalFormula(formula string) calc.Result {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e := &evalState{sheet: s, visited: map[grid.Ref]bool{}}
	return e.result(s.engine.Evaluate(formula, e.getCell))
}

// Resolve stores the answer for a pending AI cell. The formula stays in
// place; the answer is shown until the cell is set again.
func (s *Sheet) Resolve(ref grid.Ref, answer string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	text, ok := s.cells[ref]
	if !ok || !strings.HasPrefix(text, "=") {
		return fmt.Errorf("%s does not hold a formula", ref)
	}
	s.patched[ref] = answer
	s.logger.Debug("resolved deferred cell", "cell", ref.String())
	return nil
}

// evalState is one top-level evaluation. visited holds the formula cells
// on the current resolution path.
type evalState struct {
	sheet   *Sheet
	visited map[grid.Ref]bool
	cycle   bool
}

func (e *evalState) cellResult(ref grid.Ref) calc.Result {
	text := e.sheet.cells[ref]
	if !strings.HasPrefix(text, "=") {
		return calc.Result{Value: calc.String(text)}
	}
	if answer, ok := e.sheet.patched[ref]; ok {
		return calc.Result{Value: calc.ParseValue(answer)}
	}
	if e.visited[ref] {
		e.cycle = true
		return cycleResult(ref)
	}
	e.visited[ref] = true
	defer delete(e.visited, ref)
	return e.result(e.sheet.engine.Evaluate(text, e.getCell))
}

func (e *evalState) result(res calc.Result) calc.Result {
	if e.cycle {
		return calc.Result{Value: calc.String(CycleSentinel), Error: "circular reference"}
	}
	return res
}

// getCell is the engine's lookup. Formula cells resolve to the canonical
// text of their value, plain cells to their raw text.
func (e *evalState) getCell(name string) string {
	ref, ok := grid.ParseRef(name)
	if !ok {
		return ""
	}
	return e.cellResult(ref).Value.String()
}

func cycleResult(ref grid.Ref) calc.Result {
	return calc.Result{Value: calc.String(CycleSentinel), Error: "circular reference at " + ref.String()}
}
