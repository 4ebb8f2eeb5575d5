package grid

import (
	"fmt"
	"strconv"
	"strings"
)

// Sheet limits, matching the largest worksheet Excel accepts.
const (
	MaxCols = 16384
	MaxRows = 1048576

	// MaxRangeCells bounds how many cells one range argument may span:
	// a full column.
	MaxRangeCells = MaxRows
)

// Ref is a single cell address. Col and Row are 0-based.
type Ref struct {
	Col int
	Row int
}

// String renders the ref as A1 notation.
func (r Ref) String() string {
	return ColToName(r.Col) + strconv.Itoa(r.Row+1)
}

// ColToName: 0 -> A, 25 -> Z, 26 -> AA and so on
func ColToName(col int) string {
	if col < 0 {
		return "?"
	}
	result := ""
	n := col + 1
	for n > 0 {
		n--
		result = string(rune('A'+(n%26))) + result
		n /= 26
	}
	return result
}

// NameToCol is the inverse of ColToName. Returns -1 for anything that is
// not a run of ASCII letters.
func NameToCol(name string) int {
	if name == "" {
		return -1
	}
	col := 0
	for i := 0; i < len(name); i++ {
		b := name[i]
		if b >= 'a' && b <= 'z' {
			b -= 'a' - 'A'
		}
		if b < 'A' || b > 'Z' {
			return -1
		}
		col = col*26 + int(b-'A') + 1
	}
	return col - 1
}

// ParseRef parses names like A1, AA10 up to XFD1048576.
// Accepts sheet prefixes like Sheet!A1 and removes $ signs.
func ParseRef(name string) (Ref, bool) {
	name = strings.TrimSpace(name)
	if idx := strings.LastIndex(name, "!"); idx != -1 {
		name = strings.TrimSpace(name[idx+1:])
	}
	name = strings.ReplaceAll(name, "$", "")
	if name == "" {
		return Ref{}, false
	}

	i := 0
	for i < len(name) && isLetter(name[i]) {
		i++
	}
	if i == 0 || i > 3 || i >= len(name) {
		return Ref{}, false
	}
	rowPart := name[i:]
	for j := 0; j < len(rowPart); j++ {
		if !isDigit(rowPart[j]) {
			return Ref{}, false
		}
	}
	col := NameToCol(name[:i])
	rowNum, err := strconv.Atoi(rowPart)
	if err != nil {
		return Ref{}, false
	}
	if rowNum < 1 || rowNum > MaxRows || col < 0 || col >= MaxCols {
		return Ref{}, false
	}
	return Ref{Col: col, Row: rowNum - 1}, true
}

// MustRef is ParseRef for literals in tests and fixtures.
func MustRef(name string) Ref {
	r, ok := ParseRef(name)
	if !ok {
		panic(fmt.Sprintf("grid: invalid cell reference %q", name))
	}
	return r
}

func isLetter(b byte) bool {
	return (b >= 'A' && b <= 'Z') || (b >= 'a' && b <= 'z')
}
func isDigit(b byte) bool {
	return (b >= '0' && b <= '9')
}
