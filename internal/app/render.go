package app

import (
	"bufio"
	"io"
	"strconv"
	"strings"

	"github.com/mattn/go-runewidth"

	"smarttable/internal/calc"
	"smarttable/internal/grid"
	"smarttable/internal/sheet"
)

const maxCellWidth = 30

// renderTable prints the used area of s with column letters across the
// top and row numbers down the left.
func renderTable(out io.Writer, s *sheet.Sheet, text func(grid.Ref) string, color bool) error {
	maxC, maxR := s.Bounds()
	if maxC < 0 {
		return nil
	}

	// compute every cell once; width and output share the same text
	cells := make([][]string, maxR+1)
	gutter := runewidth.StringWidth(strconv.Itoa(maxR + 1))
	colWidths := make([]int, maxC+1)
	for c := range colWidths {
		colWidths[c] = runewidth.StringWidth(grid.ColToName(c))
	}
	for r := 0; r <= maxR; r++ {
		cells[r] = make([]string, maxC+1)
		for c := 0; c <= maxC; c++ {
			t := runewidth.Truncate(text(grid.Ref{Col: c, Row: r}), maxCellWidth, "…")
			cells[r][c] = t
			if w := runewidth.StringWidth(t); w > colWidths[c] {
				colWidths[c] = w
			}
		}
	}

	w := bufio.NewWriter(out)
	border := func() {
		w.WriteString("+" + strings.Repeat("-", gutter+2) + "+")
		for _, width := range colWidths {
			w.WriteString(strings.Repeat("-", width+2) + "+")
		}
		w.WriteString("\n")
	}

	border()
	w.WriteString("| " + strings.Repeat(" ", gutter) + " |")
	for c, width := range colWidths {
		w.WriteString(" " + runewidth.FillRight(grid.ColToName(c), width) + " |")
	}
	w.WriteString("\n")
	border()
	for r, row := range cells {
		w.WriteString("| " + runewidth.FillLeft(strconv.Itoa(r+1), gutter) + " |")
		for c, t := range row {
			w.WriteString(" " + paint(runewidth.FillRight(t, colWidths[c]), color) + " |")
		}
		w.WriteString("\n")
	}
	border()
	return w.Flush()
}

func isSentinel(s string) bool {
	switch s {
	case calc.NameSentinel, calc.ErrorSentinel, calc.NASentinel, calc.PendingSentinel, sheet.CycleSentinel:
		return true
	}
	return false
}

// paint wraps error texts in red when colour output is on.
func paint(s string, color bool) string {
	if !color || !isSentinel(strings.TrimSpace(s)) {
		return s
	}
	return "\x1b[31m" + s + "\x1b[0m"
}
