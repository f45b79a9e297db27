package dynamo

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/san-kum/arithdyn/internal/arith"
)

// Map is a homogeneous polynomial map F = (F_0, ..., F_N) on P^N.
type Map struct {
	field  Field
	vars   []string
	polys  []arith.Poly
	degree int
}

// NewMap validates and wraps the coordinate polynomials. Over a finite
// field the coefficients are reduced modulo the characteristic.
func NewMap(field Field, vars []string, polys ...arith.Poly) (*Map, error) {
	if len(polys) < 2 || len(polys) != len(vars) {
		return nil, fmt.Errorf("%w: %d polynomials in %d variables", ErrDimensionMismatch, len(polys), len(vars))
	}
	ps := make([]arith.Poly, len(polys))
	for i, p := range polys {
		if p.NumVars() != len(vars) {
			return nil, fmt.Errorf("%w: polynomial %d has %d variables", ErrDimensionMismatch, i, p.NumVars())
		}
		ps[i] = p
	}
	if field.Kind == KindFinite {
		for i, p := range ps {
			r, err := reducePoly(p, field.Char)
			if err != nil {
				return nil, err
			}
			ps[i] = r
		}
	}
	deg := -1
	for i, p := range ps {
		d, ok := p.Homogeneous()
		if !ok {
			return nil, fmt.Errorf("%w: coordinate %d", ErrNotHomogeneous, i)
		}
		if d < 0 {
			continue
		}
		if deg >= 0 && d != deg {
			return nil, fmt.Errorf("%w: degrees %d and %d", ErrDegreeMismatch, deg, d)
		}
		deg = d
	}
	if deg < 0 {
		return nil, fmt.Errorf("%w: every coordinate is zero", ErrDegreeMismatch)
	}
	vs := make([]string, len(vars))
	copy(vs, vars)
	return &Map{field: field, vars: vs, polys: ps, degree: deg}, nil
}

// ParseMap parses one expression per coordinate.
func ParseMap(field Field, vars []string, exprs ...string) (*Map, error) {
	if len(vars) == 0 {
		vars = arith.DefaultVars(len(exprs))
	}
	polys := make([]arith.Poly, len(exprs))
	for i, e := range exprs {
		p, err := arith.ParsePoly(e, vars)
		if err != nil {
			return nil, fmt.Errorf("coordinate %d: %w", i, err)
		}
		polys[i] = p
	}
	return NewMap(field, vars, polys...)
}

func reducePoly(p arith.Poly, char int64) (arith.Poly, error) {
	m := big.NewInt(char)
	out := arith.NewPoly(p.NumVars())
	for _, t := range p.Terms() {
		v, ok := arith.RatMod(t.Coeff, m)
		if !ok {
			return arith.Poly{}, fmt.Errorf("%w: %d divides a coefficient denominator", ErrBadPrime, char)
		}
		out = out.Add(arith.Monomial(t.Exp, new(big.Rat).SetInt(v)))
	}
	return modPoly(out, m), nil
}

func modPoly(p arith.Poly, m *big.Int) arith.Poly {
	out := arith.NewPoly(p.NumVars())
	for _, t := range p.Terms() {
		v := new(big.Int).Mod(t.Coeff.Num(), m)
		out = out.Add(arith.Monomial(t.Exp, new(big.Rat).SetInt(v)))
	}
	return out
}

func (f *Map) Field() Field { return f.field }

func (f *Map) Degree() int { return f.degree }

// Dim is the projective dimension N.
func (f *Map) Dim() int { return len(f.polys) - 1 }

func (f *Map) Vars() []string {
	out := make([]string, len(f.vars))
	copy(out, f.vars)
	return out
}

func (f *Map) Polys() []arith.Poly {
	out := make([]arith.Poly, len(f.polys))
	copy(out, f.polys)
	return out
}

func (f *Map) Poly(i int) arith.Poly { return f.polys[i] }

// Normalized rescales a rational map to integer coefficients with gcd 1.
// Maps over other fields are returned unchanged.
func (f *Map) Normalized() *Map {
	if f.field.Kind != KindRational {
		return f
	}
	l := big.NewInt(1)
	g := new(big.Int)
	for _, p := range f.polys {
		l = arith.LCM(l, p.DenominatorLCM())
	}
	for _, p := range f.polys {
		g = arith.GCD(g, p.Scale(new(big.Rat).SetInt(l)).NumeratorGCD())
	}
	s := new(big.Rat).SetFrac(l, g)
	ps := make([]arith.Poly, len(f.polys))
	for i, p := range f.polys {
		ps[i] = p.Scale(s)
	}
	return &Map{field: f.field, vars: f.vars, polys: ps, degree: f.degree}
}

// IntPolys returns the integral primitive coordinate polynomials of a
// rational map.
func (f *Map) IntPolys() ([]arith.IntPoly, error) {
	if f.field.Kind != KindRational {
		return nil, fmt.Errorf("%w: integral model over %s", ErrUnsupported, f.field)
	}
	n := f.Normalized()
	out := make([]arith.IntPoly, len(n.polys))
	for i, p := range n.polys {
		ip, err := p.ToInt()
		if err != nil {
			return nil, err
		}
		out[i] = ip
	}
	return out, nil
}

// Apply evaluates F at P. A point where every coordinate vanishes is an
// indeterminacy point and yields ErrNotMorphism.
func (f *Map) Apply(p Point) (Point, error) {
	if p.Dim() != f.Dim() {
		return Point{}, fmt.Errorf("%w: point in P^%d, map on P^%d", ErrDimensionMismatch, p.Dim(), f.Dim())
	}
	x := p.coords
	if f.field.Kind == KindFinite {
		var err error
		if x, err = f.reduceCoords(x); err != nil {
			return Point{}, err
		}
	}
	out := make([]*big.Rat, len(f.polys))
	zero := true
	for i, q := range f.polys {
		out[i] = q.EvalRat(x)
		if out[i].Sign() != 0 {
			zero = false
		}
	}
	if f.field.Kind == KindFinite {
		var err error
		if out, err = f.reduceCoords(out); err != nil {
			return Point{}, err
		}
		zero = true
		for _, c := range out {
			if c.Sign() != 0 {
				zero = false
			}
		}
	}
	if zero {
		return Point{}, fmt.Errorf("%w: %s is an indeterminacy point", ErrNotMorphism, p)
	}
	return Point{coords: out}, nil
}

func (f *Map) reduceCoords(x []*big.Rat) ([]*big.Rat, error) {
	m := big.NewInt(f.field.Char)
	out := make([]*big.Rat, len(x))
	for i, c := range x {
		v, ok := arith.RatMod(c, m)
		if !ok {
			return nil, fmt.Errorf("%w: coordinate %s has denominator divisible by %d", ErrBadPrime, c.RatString(), f.field.Char)
		}
		out[i] = new(big.Rat).SetInt(v)
	}
	return out, nil
}

// NormalizePoint returns the canonical representative of P for the
// map's field: coprime integers over Q, last nonzero coordinate 1 over F_p.
func (f *Map) NormalizePoint(p Point) (Point, error) {
	if f.field.Kind != KindFinite {
		return p.Normalize(), nil
	}
	x, err := f.reduceCoords(p.coords)
	if err != nil {
		return Point{}, err
	}
	m := big.NewInt(f.field.Char)
	last := -1
	for i, c := range x {
		if c.Sign() != 0 {
			last = i
		}
	}
	if last < 0 {
		return Point{}, ErrZeroPoint
	}
	inv := new(big.Int).ModInverse(x[last].Num(), m)
	for i, c := range x {
		v := new(big.Int).Mul(c.Num(), inv)
		x[i] = new(big.Rat).SetInt(v.Mod(v, m))
	}
	return Point{coords: x}, nil
}

// Iterate returns F^n(P), normalizing after each step when normalize is set.
func (f *Map) Iterate(p Point, n int, normalize bool) (Point, error) {
	if n < 0 {
		return Point{}, fmt.Errorf("%w: iterate %d", ErrParameterBounds, n)
	}
	q := p
	var err error
	if normalize {
		if q, err = f.NormalizePoint(q); err != nil {
			return Point{}, err
		}
	}
	for i := 0; i < n; i++ {
		if q, err = f.Apply(q); err != nil {
			return Point{}, err
		}
		if normalize {
			if q, err = f.NormalizePoint(q); err != nil {
				return Point{}, err
			}
		}
	}
	return q, nil
}

// Orbit returns [F^lo(P), ..., F^hi(P)]. An empty slice is returned when
// lo > hi.
func (f *Map) Orbit(p Point, lo, hi int, normalize bool) ([]Point, error) {
	if lo < 0 || hi < 0 {
		return nil, fmt.Errorf("%w: orbit bounds [%d, %d]", ErrParameterBounds, lo, hi)
	}
	if lo > hi {
		return []Point{}, nil
	}
	q, err := f.Iterate(p, lo, normalize)
	if err != nil {
		return nil, err
	}
	out := make([]Point, 0, hi-lo+1)
	out = append(out, q)
	for i := lo + 1; i <= hi; i++ {
		if q, err = f.Iterate(q, 1, normalize); err != nil {
			return nil, err
		}
		out = append(out, q)
	}
	return out, nil
}

// IterateMap returns the map F^n by repeated squaring. F^0 is the identity.
func (f *Map) IterateMap(n int) (*Map, error) {
	if n < 0 {
		return nil, fmt.Errorf("%w: iterate %d", ErrParameterBounds, n)
	}
	nv := len(f.vars)
	result := make([]arith.Poly, nv)
	for i := range result {
		result[i] = arith.Variable(nv, i)
	}
	base := f.polys
	compose := func(outer, inner []arith.Poly) []arith.Poly {
		out := make([]arith.Poly, len(outer))
		for i, p := range outer {
			out[i] = p.Compose(inner)
		}
		return out
	}
	for n > 0 {
		if n&1 == 1 {
			result = compose(base, result)
		}
		n >>= 1
		if n > 0 {
			base = compose(base, base)
		}
	}
	return NewMap(f.field, f.vars, result...)
}

// Compose returns F o G.
func (f *Map) Compose(g *Map) (*Map, error) {
	if f.Dim() != g.Dim() {
		return nil, fmt.Errorf("%w: P^%d and P^%d", ErrDimensionMismatch, f.Dim(), g.Dim())
	}
	out := make([]arith.Poly, len(f.polys))
	for i, p := range f.polys {
		out[i] = p.Compose(g.polys)
	}
	return NewMap(f.field, f.vars, out...)
}

// Equal reports coordinate-wise equality of the defining polynomials.
func (f *Map) Equal(g *Map) bool {
	if f.field != g.field || len(f.polys) != len(g.polys) {
		return false
	}
	for i := range f.polys {
		if !f.polys[i].Equal(g.polys[i]) {
			return false
		}
	}
	return true
}

func (f *Map) String() string {
	parts := make([]string, len(f.polys))
	for i, p := range f.polys {
		parts[i] = p.Format(f.vars)
	}
	return "(" + strings.Join(parts, " : ") + ")"
}
