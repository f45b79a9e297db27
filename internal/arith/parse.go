package arith

import (
	"fmt"
	"math/big"
	"strconv"
	"strings"
	"unicode"
)

type tokenKind int

const (
	tokNum tokenKind = iota
	tokIdent
	tokOp
	tokEOF
)

type token struct {
	kind tokenKind
	text string
	pos  int
}

func tokenize(s string) ([]token, error) {
	var toks []token
	for i := 0; i < len(s); {
		c := rune(s[i])
		switch {
		case unicode.IsSpace(c):
			i++
		case unicode.IsDigit(c) || c == '.':
			j := i
			for j < len(s) && (unicode.IsDigit(rune(s[j])) || s[j] == '.') {
				j++
			}
			toks = append(toks, token{tokNum, s[i:j], i})
			i = j
		case unicode.IsLetter(c) || c == '_':
			j := i
			for j < len(s) && (unicode.IsLetter(rune(s[j])) || unicode.IsDigit(rune(s[j])) || s[j] == '_') {
				j++
			}
			toks = append(toks, token{tokIdent, s[i:j], i})
			i = j
		case c == '*' && i+1 < len(s) && s[i+1] == '*':
			toks = append(toks, token{tokOp, "^", i})
			i += 2
		case strings.ContainsRune("+-*/^()", c):
			toks = append(toks, token{tokOp, string(c), i})
			i++
		default:
			return nil, fmt.Errorf("arith: unexpected character %q at %d", c, i)
		}
	}
	return append(toks, token{kind: tokEOF, pos: len(s)}), nil
}

type parser struct {
	toks  []token
	pos   int
	vars  map[string]int
	nvars int
}

// ParsePoly parses a polynomial expression over Q in the named variables.
// Supported: integers, decimals, + - * / ^ (or **), parentheses and
// implicit multiplication such as "3x". Division is by constants only.
func ParsePoly(s string, vars []string) (Poly, error) {
	toks, err := tokenize(s)
	if err != nil {
		return Poly{}, err
	}
	idx := make(map[string]int, len(vars))
	for i, v := range vars {
		idx[v] = i
	}
	ps := &parser{toks: toks, vars: idx, nvars: len(vars)}
	p, err := ps.expr()
	if err != nil {
		return Poly{}, err
	}
	if t := ps.peek(); t.kind != tokEOF {
		return Poly{}, fmt.Errorf("arith: unexpected %q at %d", t.text, t.pos)
	}
	return p, nil
}

func (ps *parser) peek() token { return ps.toks[ps.pos] }

func (ps *parser) next() token {
	t := ps.toks[ps.pos]
	if t.kind != tokEOF {
		ps.pos++
	}
	return t
}

func (ps *parser) isOp(op string) bool {
	t := ps.peek()
	return t.kind == tokOp && t.text == op
}

func (ps *parser) expr() (Poly, error) {
	acc, err := ps.term()
	if err != nil {
		return Poly{}, err
	}
	for ps.isOp("+") || ps.isOp("-") {
		op := ps.next().text
		rhs, err := ps.term()
		if err != nil {
			return Poly{}, err
		}
		if op == "+" {
			acc = acc.Add(rhs)
		} else {
			acc = acc.Sub(rhs)
		}
	}
	return acc, nil
}

func (ps *parser) startsPrimary() bool {
	t := ps.peek()
	return t.kind == tokNum || t.kind == tokIdent || (t.kind == tokOp && t.text == "(")
}

func (ps *parser) term() (Poly, error) {
	acc, err := ps.unary()
	if err != nil {
		return Poly{}, err
	}
	for {
		switch {
		case ps.isOp("*"):
			ps.next()
			rhs, err := ps.unary()
			if err != nil {
				return Poly{}, err
			}
			acc = acc.Mul(rhs)
		case ps.isOp("/"):
			at := ps.next().pos
			rhs, err := ps.unary()
			if err != nil {
				return Poly{}, err
			}
			d, ok := constantOf(rhs)
			if !ok {
				return Poly{}, fmt.Errorf("arith: division by non-constant at %d", at)
			}
			if d.Sign() == 0 {
				return Poly{}, fmt.Errorf("arith: division by zero at %d", at)
			}
			acc = acc.Scale(new(big.Rat).Inv(d))
		case ps.startsPrimary():
			rhs, err := ps.power()
			if err != nil {
				return Poly{}, err
			}
			acc = acc.Mul(rhs)
		default:
			return acc, nil
		}
	}
}

func (ps *parser) unary() (Poly, error) {
	if ps.isOp("-") {
		ps.next()
		p, err := ps.unary()
		if err != nil {
			return Poly{}, err
		}
		return p.Neg(), nil
	}
	if ps.isOp("+") {
		ps.next()
		return ps.unary()
	}
	return ps.power()
}

func (ps *parser) power() (Poly, error) {
	base, err := ps.primary()
	if err != nil {
		return Poly{}, err
	}
	if !ps.isOp("^") {
		return base, nil
	}
	ps.next()
	t := ps.next()
	if t.kind != tokNum {
		return Poly{}, fmt.Errorf("arith: expected exponent at %d", t.pos)
	}
	n, err := strconv.Atoi(t.text)
	if err != nil || n < 0 {
		return Poly{}, fmt.Errorf("arith: invalid exponent %q at %d", t.text, t.pos)
	}
	return base.Pow(n), nil
}

func (ps *parser) primary() (Poly, error) {
	t := ps.next()
	switch t.kind {
	case tokNum:
		r, err := ParseRat(t.text)
		if err != nil {
			return Poly{}, err
		}
		return Constant(ps.nvars, r), nil
	case tokIdent:
		i, ok := ps.vars[t.text]
		if !ok {
			return Poly{}, fmt.Errorf("arith: unknown variable %q at %d", t.text, t.pos)
		}
		return Variable(ps.nvars, i), nil
	case tokOp:
		if t.text == "(" {
			p, err := ps.expr()
			if err != nil {
				return Poly{}, err
			}
			if !ps.isOp(")") {
				return Poly{}, fmt.Errorf("arith: missing ) at %d", ps.peek().pos)
			}
			ps.next()
			return p, nil
		}
	}
	if t.kind == tokEOF {
		return Poly{}, fmt.Errorf("arith: unexpected end of input")
	}
	return Poly{}, fmt.Errorf("arith: unexpected %q at %d", t.text, t.pos)
}

func constantOf(p Poly) (*big.Rat, bool) {
	d := p.TotalDegree()
	if d > 0 {
		return nil, false
	}
	if d < 0 {
		return new(big.Rat), true
	}
	return p.Coeff(make([]int, p.nvars)), true
}
