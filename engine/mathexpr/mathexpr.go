// Package mathexpr evaluates the arithmetic expressions behind math:
// directives. Evaluation is deterministic: the same expression always yields
// the same value.
package mathexpr

import (
	"math"
	"strconv"
	"strings"
	"unicode"

	"github.com/fatesmith/fatesmith/engine/evalerr"
)

// Operator precedence levels (higher number = higher precedence).
const (
	precNone = iota
	precTerm   // + -
	precFactor // * / %
	precPower  // ** and ^ (right associative)
	precUnary  // - (unary)
)

// Eval computes the value of an arithmetic expression supporting + - * / %,
// ** or ^ for exponentiation, parentheses and unary minus.
func Eval(expr string) (float64, *evalerr.Error) {
	p := &parser{input: expr}
	v, err := p.expression(precNone)
	if err != nil {
		return 0, err
	}
	p.skipSpace()
	if p.pos < len(p.input) {
		return 0, evalerr.Parsef("unexpected %q in math expression", p.input[p.pos:])
	}
	return v, nil
}

// Format renders a computed value, dropping the fraction when integral.
func Format(v float64) string {
	if v == math.Trunc(v) && !math.IsInf(v, 0) {
		return strconv.FormatInt(int64(v), 10)
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

type parser struct {
	input string
	pos   int
}

// expression implements operator precedence climbing over the binary
// operators, mirroring a Pratt parse.
func (p *parser) expression(minPrec int) (float64, *evalerr.Error) {
	left, err := p.prefix()
	if err != nil {
		return 0, err
	}

	for {
		p.skipSpace()
		op, prec, rightAssoc := p.peekOperator()
		if op == "" || prec < minPrec {
			return left, nil
		}
		p.pos += len(op)

		next := prec + 1
		if rightAssoc {
			next = prec
		}
		right, err := p.expression(next)
		if err != nil {
			return 0, err
		}

		switch op {
		case "+":
			left += right
		case "-":
			left -= right
		case "*":
			left *= right
		case "/":
			if right == 0 {
				return 0, evalerr.Parsef("division by zero")
			}
			left /= right
		case "%":
			if right == 0 {
				return 0, evalerr.Parsef("modulo by zero")
			}
			left = math.Mod(left, right)
		case "**", "^":
			left = math.Pow(left, right)
		}
	}
}

func (p *parser) prefix() (float64, *evalerr.Error) {
	p.skipSpace()
	if p.pos >= len(p.input) {
		return 0, evalerr.Parsef("unexpected end of math expression")
	}

	switch c := p.input[p.pos]; {
	case c == '-':
		p.pos++
		v, err := p.expression(precUnary)
		if err != nil {
			return 0, err
		}
		return -v, nil

	case c == '(':
		p.pos++
		v, err := p.expression(precNone)
		if err != nil {
			return 0, err
		}
		p.skipSpace()
		if p.pos >= len(p.input) || p.input[p.pos] != ')' {
			return 0, evalerr.Parsef("missing closing parenthesis")
		}
		p.pos++
		return v, nil

	case unicode.IsDigit(rune(c)) || c == '.':
		return p.number()
	}
	return 0, evalerr.Parsef("unexpected character %q in math expression", string(p.input[p.pos]))
}

func (p *parser) number() (float64, *evalerr.Error) {
	start := p.pos
	for p.pos < len(p.input) {
		c := p.input[p.pos]
		if unicode.IsDigit(rune(c)) || c == '.' {
			p.pos++
			continue
		}
		break
	}
	v, err := strconv.ParseFloat(p.input[start:p.pos], 64)
	if err != nil {
		return 0, evalerr.Parsef("invalid number %q", p.input[start:p.pos])
	}
	return v, nil
}

// peekOperator returns the operator at the cursor, its precedence and
// associativity, without consuming it.
func (p *parser) peekOperator() (string, int, bool) {
	if p.pos >= len(p.input) {
		return "", precNone, false
	}
	if strings.HasPrefix(p.input[p.pos:], "**") {
		return "**", precPower, true
	}
	switch p.input[p.pos] {
	case '^':
		return "^", precPower, true
	case '+':
		return "+", precTerm, false
	case '-':
		return "-", precTerm, false
	case '*':
		return "*", precFactor, false
	case '/':
		return "/", precFactor, false
	case '%':
		return "%", precFactor, false
	}
	return "", precNone, false
}

func (p *parser) skipSpace() {
	for p.pos < len(p.input) && (p.input[p.pos] == ' ' || p.input[p.pos] == '\t') {
		p.pos++
	}
}
