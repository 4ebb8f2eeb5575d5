package calc

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

var (
	refInExprRe = regexp.MustCompile(`\b[A-Z]+[0-9]+\b`)
	arithOnlyRe = regexp.MustCompile(`^[0-9.+\-*/()\s]+$`)
)

// arithmetic evaluates a bare expression like "A1*2+(B3-1)/4". Every
// reference is replaced by its numeric value (0 when blank or not a
// number) and what remains must be plain arithmetic.
func (ev *evaluator) arithmetic(body string) (Value, error) {
	substituted := refInExprRe.ReplaceAllStringFunc(body, func(name string) string {
		v, err := ev.cell(name)
		if err != nil {
			return name
		}
		f, ok := aggregateNumber(v)
		if !ok {
			return "0"
		}
		return "(" + strconv.FormatFloat(f, 'f', -1, 64) + ")"
	})
	if !arithOnlyRe.MatchString(substituted) {
		return Value{}, errorf("invalid expression: %s", body)
	}
	p := parser{input: substituted}
	val, err := p.parseExpr()
	if err != nil {
		return Value{}, err
	}
	p.skipSpaces()
	if p.pos < len(p.input) {
		return Value{}, errorf("invalid expression: unexpected %q", p.input[p.pos:])
	}
	return Number(val), nil
}

// parser is a recursive-descent evaluator over numbers, + - * /, unary
// signs and parentheses.
type parser struct {
	input string
	pos   int
}

func (p *parser) skipSpaces() {
	for p.pos < len(p.input) && strings.IndexByte(" \t\r\n", p.input[p.pos]) >= 0 {
		p.pos++
	}
}

func (p *parser) parseExpr() (float64, error) {
	return p.parseAddSub()
}

func (p *parser) parseAddSub() (float64, error) {
	val, err := p.parseMulDiv()
	if err != nil {
		return 0, err
	}
	for {
		p.skipSpaces()
		if p.pos >= len(p.input) {
			break
		}
		op := p.input[p.pos]
		if op != '+' && op != '-' {
			break
		}
		p.pos++
		right, err := p.parseMulDiv()
		if err != nil {
			return 0, err
		}
		if op == '+' {
			val += right
		} else {
			val -= right
		}
	}
	return val, nil
}

func (p *parser) parseMulDiv() (float64, error) {
	val, err := p.parseFactor()
	if err != nil {
		return 0, err
	}
	for {
		p.skipSpaces()
		if p.pos >= len(p.input) {
			break
		}
		op := p.input[p.pos]
		if op != '*' && op != '/' {
			break
		}
		p.pos++
		right, err := p.parseFactor()
		if err != nil {
			return 0, err
		}
		if op == '*' {
			val *= right
		} else {
			if math.Abs(right) < 1e-12 {
				return 0, errorf("division by zero")
			}
			val /= right
		}
	}
	return val, nil
}

func (p *parser) parseFactor() (float64, error) {
	p.skipSpaces()
	if p.pos < len(p.input) {
		switch p.input[p.pos] {
		case '+':
			p.pos++
			return p.parseFactor()
		case '-':
			p.pos++
			v, err := p.parseFactor()
			return -v, err
		}
	}
	return p.parsePrimary()
}

func (p *parser) parsePrimary() (float64, error) {
	p.skipSpaces()
	if p.pos >= len(p.input) {
		return 0, errorf("invalid expression: unexpected end")
	}
	ch := p.input[p.pos]
	if ch == '(' {
		p.pos++
		v, err := p.parseExpr()
		if err != nil {
			return 0, err
		}
		p.skipSpaces()
		if p.pos >= len(p.input) || p.input[p.pos] != ')' {
			return 0, errorf("invalid expression: missing )")
		}
		p.pos++
		return v, nil
	}
	if isDigit(ch) || ch == '.' {
		start := p.pos
		seenDot := false
		for p.pos < len(p.input) {
			c := p.input[p.pos]
			if c == '.' {
				if seenDot {
					break
				}
				seenDot = true
			} else if !isDigit(c) {
				break
			}
			p.pos++
		}
		v, err := strconv.ParseFloat(p.input[start:p.pos], 64)
		if err != nil {
			return 0, errorf("invalid number %q", p.input[start:p.pos])
		}
		return v, nil
	}
	return 0, errorf("invalid expression: unexpected %q", string(ch))
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}
