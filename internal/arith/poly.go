package arith

import (
	"fmt"
	"math/big"
	"sort"
	"strconv"
	"strings"
)

// Term is one monomial c * x^Exp.
type Term struct {
	Exp   []int
	Coeff *big.Rat
}

// Poly is a sparse multivariate polynomial with rational coefficients.
// Values are immutable: every operation returns a fresh Poly.
type Poly struct {
	nvars int
	terms map[string]Term
}

func expKey(exp []int) string {
	var sb strings.Builder
	for i, e := range exp {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(strconv.Itoa(e))
	}
	return sb.String()
}

// NewPoly returns the zero polynomial in nvars variables.
func NewPoly(nvars int) Poly {
	return Poly{nvars: nvars, terms: make(map[string]Term)}
}

// Constant returns the constant polynomial c.
func Constant(nvars int, c *big.Rat) Poly {
	p := NewPoly(nvars)
	p.add(make([]int, nvars), c)
	return p
}

// Variable returns x_i.
func Variable(nvars, i int) Poly {
	exp := make([]int, nvars)
	exp[i] = 1
	return Monomial(exp, big.NewRat(1, 1))
}

// Monomial returns c * x^exp.
func Monomial(exp []int, c *big.Rat) Poly {
	p := NewPoly(len(exp))
	p.add(exp, c)
	return p
}

func (p *Poly) add(exp []int, c *big.Rat) {
	if c.Sign() == 0 {
		return
	}
	if p.terms == nil {
		p.terms = make(map[string]Term)
	}
	k := expKey(exp)
	if t, ok := p.terms[k]; ok {
		s := new(big.Rat).Add(t.Coeff, c)
		if s.Sign() == 0 {
			delete(p.terms, k)
			return
		}
		p.terms[k] = Term{Exp: t.Exp, Coeff: s}
		return
	}
	e := make([]int, len(exp))
	copy(e, exp)
	p.terms[k] = Term{Exp: e, Coeff: new(big.Rat).Set(c)}
}

func (p Poly) clone() Poly {
	q := NewPoly(p.nvars)
	for k, t := range p.terms {
		q.terms[k] = t
	}
	return q
}

func (p Poly) NumVars() int { return p.nvars }

func (p Poly) IsZero() bool { return len(p.terms) == 0 }

// Len is the number of nonzero terms.
func (p Poly) Len() int { return len(p.terms) }

// Terms returns the terms ordered by total degree, then exponent vector,
// both descending.
func (p Poly) Terms() []Term {
	out := make([]Term, 0, len(p.terms))
	for _, t := range p.terms {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool {
		di, dj := sum(out[i].Exp), sum(out[j].Exp)
		if di != dj {
			return di > dj
		}
		for k := range out[i].Exp {
			if out[i].Exp[k] != out[j].Exp[k] {
				return out[i].Exp[k] > out[j].Exp[k]
			}
		}
		return false
	})
	return out
}

// Coeff returns the coefficient of x^exp (zero when absent).
func (p Poly) Coeff(exp []int) *big.Rat {
	if t, ok := p.terms[expKey(exp)]; ok {
		return new(big.Rat).Set(t.Coeff)
	}
	return new(big.Rat)
}

func sum(xs []int) int {
	s := 0
	for _, x := range xs {
		s += x
	}
	return s
}

// TotalDegree returns the largest total degree of a term, or -1 for zero.
func (p Poly) TotalDegree() int {
	d := -1
	for _, t := range p.terms {
		if s := sum(t.Exp); s > d {
			d = s
		}
	}
	return d
}

// Homogeneous reports whether every term has the same total degree.
// The zero polynomial is homogeneous with degree -1.
func (p Poly) Homogeneous() (int, bool) {
	d := -1
	for _, t := range p.terms {
		s := sum(t.Exp)
		if d == -1 {
			d = s
		} else if s != d {
			return p.TotalDegree(), false
		}
	}
	return d, true
}

func (p Poly) Add(q Poly) Poly {
	r := p.clone()
	for _, t := range q.terms {
		r.add(t.Exp, t.Coeff)
	}
	return r
}

func (p Poly) Neg() Poly {
	r := NewPoly(p.nvars)
	for k, t := range p.terms {
		r.terms[k] = Term{Exp: t.Exp, Coeff: new(big.Rat).Neg(t.Coeff)}
	}
	return r
}

func (p Poly) Sub(q Poly) Poly { return p.Add(q.Neg()) }

// Scale multiplies every coefficient by c.
func (p Poly) Scale(c *big.Rat) Poly {
	r := NewPoly(p.nvars)
	if c.Sign() == 0 {
		return r
	}
	for k, t := range p.terms {
		r.terms[k] = Term{Exp: t.Exp, Coeff: new(big.Rat).Mul(t.Coeff, c)}
	}
	return r
}

func (p Poly) Mul(q Poly) Poly {
	r := NewPoly(p.nvars)
	exp := make([]int, p.nvars)
	c := new(big.Rat)
	for _, a := range p.terms {
		for _, b := range q.terms {
			for i := range exp {
				exp[i] = a.Exp[i] + b.Exp[i]
			}
			r.add(exp, c.Mul(a.Coeff, b.Coeff))
		}
	}
	return r
}

// Pow returns p^n for n >= 0.
func (p Poly) Pow(n int) Poly {
	result := Constant(p.nvars, big.NewRat(1, 1))
	base := p
	for n > 0 {
		if n&1 == 1 {
			result = result.Mul(base)
		}
		n >>= 1
		if n > 0 {
			base = base.Mul(base)
		}
	}
	return result
}

// Derivative returns the partial derivative with respect to x_i.
func (p Poly) Derivative(i int) Poly {
	r := NewPoly(p.nvars)
	exp := make([]int, p.nvars)
	for _, t := range p.terms {
		if t.Exp[i] == 0 {
			continue
		}
		copy(exp, t.Exp)
		exp[i]--
		r.add(exp, new(big.Rat).Mul(t.Coeff, big.NewRat(int64(t.Exp[i]), 1)))
	}
	return r
}

// Compose substitutes subs[i] for x_i. All subs share one variable count.
func (p Poly) Compose(subs []Poly) Poly {
	if len(subs) != p.nvars {
		panic(fmt.Sprintf("arith: compose needs %d substitutions, got %d", p.nvars, len(subs)))
	}
	nv := 0
	if len(subs) > 0 {
		nv = subs[0].nvars
	}
	powers := make([]map[int]Poly, len(subs))
	for i := range powers {
		powers[i] = map[int]Poly{}
	}
	pow := func(i, e int) Poly {
		if q, ok := powers[i][e]; ok {
			return q
		}
		q := subs[i].Pow(e)
		powers[i][e] = q
		return q
	}
	r := NewPoly(nv)
	for _, t := range p.Terms() {
		term := Constant(nv, t.Coeff)
		for i, e := range t.Exp {
			if e > 0 {
				term = term.Mul(pow(i, e))
			}
		}
		r = r.Add(term)
	}
	return r
}

// EvalRat evaluates p at x exactly.
func (p Poly) EvalRat(x []*big.Rat) *big.Rat {
	total := new(big.Rat)
	for _, t := range p.terms {
		v := new(big.Rat).Set(t.Coeff)
		for i, e := range t.Exp {
			for j := 0; j < e; j++ {
				v.Mul(v, x[i])
			}
		}
		total.Add(total, v)
	}
	return total
}

// DenominatorLCM is the lcm of all coefficient denominators (1 for zero).
func (p Poly) DenominatorLCM() *big.Int {
	l := big.NewInt(1)
	for _, t := range p.terms {
		l = LCM(l, t.Coeff.Denom())
	}
	return l
}

// NumeratorGCD is the gcd of all coefficient numerators (0 for zero).
func (p Poly) NumeratorGCD() *big.Int {
	g := new(big.Int)
	for _, t := range p.terms {
		g = GCD(g, t.Coeff.Num())
	}
	return g
}

// Coefficients lists the coefficients in Terms order.
func (p Poly) Coefficients() []*big.Rat {
	ts := p.Terms()
	out := make([]*big.Rat, len(ts))
	for i, t := range ts {
		out[i] = new(big.Rat).Set(t.Coeff)
	}
	return out
}

func (p Poly) Equal(q Poly) bool {
	if p.nvars != q.nvars || len(p.terms) != len(q.terms) {
		return false
	}
	for k, t := range p.terms {
		u, ok := q.terms[k]
		if !ok || t.Coeff.Cmp(u.Coeff) != 0 {
			return false
		}
	}
	return true
}

// ToInt converts p to an IntPoly; every coefficient must be an integer.
func (p Poly) ToInt() (IntPoly, error) {
	out := IntPoly{nvars: p.nvars}
	for _, t := range p.Terms() {
		if !t.Coeff.IsInt() {
			return IntPoly{}, fmt.Errorf("arith: coefficient %s is not integral", t.Coeff.RatString())
		}
		out.terms = append(out.terms, IntTerm{Exp: t.Exp, Coeff: new(big.Int).Set(t.Coeff.Num())})
	}
	return out, nil
}

// Format renders p with the given variable names.
func (p Poly) Format(vars []string) string {
	ts := p.Terms()
	if len(ts) == 0 {
		return "0"
	}
	var sb strings.Builder
	for i, t := range ts {
		c := t.Coeff
		neg := c.Sign() < 0
		abs := new(big.Rat).Abs(c)
		switch {
		case i == 0 && neg:
			sb.WriteString("-")
		case i > 0 && neg:
			sb.WriteString(" - ")
		case i > 0:
			sb.WriteString(" + ")
		}
		mono := formatMonomial(t.Exp, vars)
		switch {
		case mono == "":
			sb.WriteString(abs.RatString())
		case abs.Cmp(big.NewRat(1, 1)) == 0:
			sb.WriteString(mono)
		default:
			sb.WriteString(abs.RatString())
			sb.WriteString("*")
			sb.WriteString(mono)
		}
	}
	return sb.String()
}

func (p Poly) String() string {
	return p.Format(DefaultVars(p.nvars))
}

func formatMonomial(exp []int, vars []string) string {
	var parts []string
	for i, e := range exp {
		switch {
		case e == 1:
			parts = append(parts, vars[i])
		case e > 1:
			parts = append(parts, vars[i]+"^"+strconv.Itoa(e))
		}
	}
	return strings.Join(parts, "*")
}

// DefaultVars returns x, y, z for up to three variables and x0..x{n-1}
// beyond that.
func DefaultVars(n int) []string {
	if n <= 3 {
		return []string{"x", "y", "z"}[:n]
	}
	vs := make([]string, n)
	for i := range vs {
		vs[i] = "x" + strconv.Itoa(i)
	}
	return vs
}

// Monomials enumerates exponent vectors of total degree deg in nvars
// variables, lexicographically descending.
func Monomials(nvars, deg int) [][]int {
	var out [][]int
	cur := make([]int, nvars)
	var rec func(i, left int)
	rec = func(i, left int) {
		if i == nvars-1 {
			cur[i] = left
			e := make([]int, nvars)
			copy(e, cur)
			out = append(out, e)
			return
		}
		for k := left; k >= 0; k-- {
			cur[i] = k
			rec(i+1, left-k)
		}
	}
	if nvars == 0 {
		return nil
	}
	rec(0, deg)
	return out
}
