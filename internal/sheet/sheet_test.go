package sheet

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"smarttable/internal/calc"
	"smarttable/internal/grid"
)

func newSheet(t *testing.T, cells map[string]string) *Sheet {
	t.Helper()
	s := New()
	for name, text := range cells {
		if err := s.SetName(name, text); err != nil {
			t.Fatalf("SetName(%s): %v", name, err)
		}
	}
	return s
}

func TestDisplay(t *testing.T) {
	s := newSheet(t, map[string]string{
		"A1": "1",
		"A2": "2",
		"A3": "=SUM(A1:A2)",
		"B1": "=A3*2",
		"B2": "=B1/4",
		"C1": "label",
		"C2": "=1/3",
	})
	tests := map[string]string{
		"A1": "1",
		"A3": "3",
		"B1": "6",
		"B2": "1.5",
		"C1": "label",
		"C2": "0.333333",
		"D9": "",
	}
	for name, want := range tests {
		if got := s.Display(grid.MustRef(name)); got != want {
			t.Errorf("Display(%s) = %q, want %q", name, got, want)
		}
	}
}

// Dependent formulas see the full-precision value, not the rounded display.
func TestFormulaChainKeepsPrecision(t *testing.T) {
	s := newSheet(t, map[string]string{"A1": "=1/3", "A2": "=A1*3"})
	if got := s.Eval(grid.MustRef("A2")).Value; got != calc.Number(1) {
		t.Errorf("A2 = %#v, want 1", got)
	}
}

func TestCycle(t *testing.T) {
	s := newSheet(t, map[string]string{
		"A1": "=B1+1",
		"B1": "=A1",
		"C1": "=C1",
		"D1": "=SUM(E1:E2)",
		"E1": "5",
		"E2": "=D1",
	})
	for _, name := range []string{"A1", "B1", "C1", "D1", "E2"} {
		res := s.Eval(grid.MustRef(name))
		if res.Value != calc.String(CycleSentinel) || res.Error == "" {
			t.Errorf("%s = %+v, want %s", name, res, CycleSentinel)
		}
	}
	if got := s.Display(grid.MustRef("E1")); got != "5" {
		t.Errorf("E1 = %q", got)
	}
}

func TestSetClears(t *testing.T) {
	s := newSheet(t, map[string]string{"A1": "x"})
	s.Set(grid.MustRef("A1"), "")
	if s.Len() != 0 {
		t.Errorf("Len = %d after clearing", s.Len())
	}
	if err := s.SetName("1A", "x"); err == nil {
		t.Error("SetName accepted an invalid reference")
	}
	c, r := s.Bounds()
	if c != -1 || r != -1 {
		t.Errorf("Bounds = %d,%d on empty sheet", c, r)
	}
}

func TestRefsAndBounds(t *testing.T) {
	s := newSheet(t, map[string]string{"B2": "1", "A3": "2", "C1": "3"})
	var names []string
	for _, ref := range s.Refs() {
		names = append(names, ref.String())
	}
	if want := []string{"C1", "B2", "A3"}; !reflect.DeepEqual(names, want) {
		t.Errorf("Refs = %v, want %v", names, want)
	}
	c, r := s.Bounds()
	if c != 2 || r != 2 {
		t.Errorf("Bounds = %d,%d, want 2,2", c, r)
	}
}

func TestEvalFormula(t *testing.T) {
	s := newSheet(t, map[string]string{"A1": "4", "A2": "=A1*2"})
	if res := s.EvalFormula("=SUM(A1:A2)"); res.Value != calc.Number(12) {
		t.Errorf("got %+v", res)
	}
	if res := s.EvalFormula("plain"); res.Value != calc.String("plain") {
		t.Errorf("got %+v", res)
	}
}

func TestIndexReferenceEngine(t *testing.T) {
	s := New(WithEngine(calc.New(calc.WithIndexReferences())))
	s.Set(grid.MustRef("B2"), "7")
	if res := s.EvalFormula("=INDEX(A1:B2, 2, 2)"); res.Value != calc.String("B2") {
		t.Errorf("got %+v", res)
	}
}

func TestRecalc(t *testing.T) {
	cells := map[string]string{"A1": "1"}
	for i := 2; i <= 50; i++ {
		cells[grid.Ref{Col: 0, Row: i - 1}.String()] = "=" + grid.Ref{Col: 0, Row: i - 2}.String() + "+1"
	}
	s := newSheet(t, cells)
	results, err := s.Recalc(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 49 {
		t.Fatalf("got %d results, want 49", len(results))
	}
	if got := results[grid.MustRef("A50")].Value; got != calc.Number(50) {
		t.Errorf("A50 = %#v, want 50", got)
	}
}

func TestRecalcCancelled(t *testing.T) {
	s := newSheet(t, map[string]string{"A1": "=1", "A2": "=2"})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	results, err := s.Recalc(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
	if len(results) != 0 {
		t.Errorf("got %d results after cancel", len(results))
	}
}

func TestPendingAndResolve(t *testing.T) {
	s := newSheet(t, map[string]string{
		"A1": "France",
		"B1": `=AI("capital of", A1)`,
		"C1": "=CONCATENATE(B1, \"!\")",
	})
	pending, err := s.Pending(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	want := []PendingCell{{Ref: grid.MustRef("B1"), Prompt: "capital of France"}}
	if !reflect.DeepEqual(pending, want) {
		t.Fatalf("Pending = %+v, want %+v", pending, want)
	}
	if got := s.Display(grid.MustRef("B1")); got != calc.PendingSentinel {
		t.Errorf("B1 = %q before answer", got)
	}

	if err := s.Resolve(grid.MustRef("B1"), "Paris"); err != nil {
		t.Fatal(err)
	}
	if got := s.Display(grid.MustRef("C1")); got != "Paris!" {
		t.Errorf("C1 = %q, want Paris!", got)
	}
	if pending, _ := s.Pending(context.Background()); len(pending) != 0 {
		t.Errorf("still pending: %+v", pending)
	}
	if err := s.Resolve(grid.MustRef("A1"), "x"); err == nil {
		t.Error("Resolve accepted a plain cell")
	}

	s.Set(grid.MustRef("B1"), `=AI("again")`)
	if got := s.Display(grid.MustRef("B1")); got != calc.PendingSentinel {
		t.Errorf("B1 = %q after reset, want pending", got)
	}
}

func TestReferences(t *testing.T) {
	tests := []struct {
		formula string
		want    []string
	}{
		{"=SUM(A1:B2, C3)", []string{"A1", "A2", "B1", "B2", "C3"}},
		{"=A1+A1*$B$2", []string{"A1", "B2"}},
		{`=VLOOKUP("x", "A1:A2", 1, FALSE)`, []string{"A1", "A2"}},
		{"=1+2", nil},
		{"A1", nil},
		{"=SUM(A1:Z200000000, B1)", []string{"B1"}},
		{"=SUM(A1:XFD1048576)", nil},
		{"=COUNTA(A1:B1048576, C2)", []string{"C2"}},
	}
	for _, tt := range tests {
		var got []string
		for _, ref := range References(tt.formula) {
			got = append(got, ref.String())
		}
		if !reflect.DeepEqual(got, tt.want) {
			t.Errorf("References(%q) = %v, want %v", tt.formula, got, tt.want)
		}
	}
}

func TestDependents(t *testing.T) {
	s := newSheet(t, map[string]string{"A1": "1", "B1": "=A1*2", "C1": "=SUM(A1:A3)", "D1": "=B1"})
	var names []string
	for _, ref := range s.Dependents(grid.MustRef("A1")) {
		names = append(names, ref.String())
	}
	if want := []string{"B1", "C1"}; !reflect.DeepEqual(names, want) {
		t.Errorf("Dependents = %v, want %v", names, want)
	}
}
