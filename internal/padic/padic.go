// Package padic evaluates integral projective maps modulo prime powers
// and computes their multiplier matrices in affine charts.
package padic

import (
	"fmt"
	"math/big"

	"github.com/san-kum/arithdyn/internal/arith"
	"github.com/san-kum/arithdyn/internal/dynamo"
)

// IntMap is an integral model of a projective map with cached partial
// derivatives.
type IntMap struct {
	polys    []arith.IntPoly
	partials [][]arith.IntPoly
	degree   int
}

// FromMap builds the integral primitive model of a rational map, or the
// integer-coefficient model of a map over F_p.
func FromMap(f *dynamo.Map) (*IntMap, error) {
	var polys []arith.IntPoly
	switch f.Field().Kind {
	case dynamo.KindRational:
		ps, err := f.IntPolys()
		if err != nil {
			return nil, err
		}
		polys = ps
	case dynamo.KindFinite:
		for _, p := range f.Polys() {
			ip, err := p.ToInt()
			if err != nil {
				return nil, err
			}
			polys = append(polys, ip)
		}
	default:
		return nil, fmt.Errorf("%w: integral model over %s", dynamo.ErrUnsupported, f.Field())
	}
	return New(polys, f.Degree()), nil
}

func New(polys []arith.IntPoly, degree int) *IntMap {
	partials := make([][]arith.IntPoly, len(polys))
	for j, p := range polys {
		partials[j] = make([]arith.IntPoly, len(polys))
		for m := range polys {
			partials[j][m] = p.Derivative(m)
		}
	}
	return &IntMap{polys: polys, partials: partials, degree: degree}
}

func (f *IntMap) Dim() int { return len(f.polys) - 1 }

func (f *IntMap) Degree() int { return f.degree }

func (f *IntMap) Polys() []arith.IntPoly { return f.polys }

// Eval returns F(x) exactly.
func (f *IntMap) Eval(x []*big.Int) []*big.Int {
	out := make([]*big.Int, len(f.polys))
	for i, p := range f.polys {
		out[i] = p.Eval(x)
	}
	return out
}

// EvalMod returns F(x) mod m.
func (f *IntMap) EvalMod(x []*big.Int, m *big.Int) []*big.Int {
	out := make([]*big.Int, len(f.polys))
	for i, p := range f.polys {
		out[i] = p.EvalMod(x, m)
	}
	return out
}

// IterateMod returns F^n(x) mod m without rescaling.
func (f *IntMap) IterateMod(x []*big.Int, n int, m *big.Int) []*big.Int {
	q := reduce(x, m)
	for i := 0; i < n; i++ {
		q = f.EvalMod(q, m)
	}
	return q
}

func reduce(x []*big.Int, m *big.Int) []*big.Int {
	out := make([]*big.Int, len(x))
	for i, v := range x {
		out[i] = new(big.Int).Mod(v, m)
	}
	return out
}

// LastUnit returns the index of the last coordinate not divisible by p,
// or -1.
func LastUnit(x []*big.Int, p *big.Int) int {
	r := new(big.Int)
	for i := len(x) - 1; i >= 0; i-- {
		if r.Mod(x[i], p).Sign() != 0 {
			return i
		}
	}
	return -1
}

// ScaleTo multiplies x by the inverse of x[idx] modulo m so that
// x[idx] becomes 1. ok is false when x[idx] is not a unit.
func ScaleTo(x []*big.Int, idx int, m *big.Int) ([]*big.Int, bool) {
	inv := new(big.Int).ModInverse(new(big.Int).Mod(x[idx], m), m)
	if inv == nil {
		return nil, false
	}
	out := make([]*big.Int, len(x))
	for i, v := range x {
		out[i] = new(big.Int).Mul(v, inv)
		out[i].Mod(out[i], m)
	}
	return out, true
}

// ProjEqualMod reports whether a and b agree projectively modulo m:
// every 2x2 minor a_i b_j - a_j b_i vanishes mod m.
func ProjEqualMod(a, b []*big.Int, m *big.Int) bool {
	t, u := new(big.Int), new(big.Int)
	for i := range a {
		for j := i + 1; j < len(a); j++ {
			t.Mul(a[i], b[j])
			u.Mul(a[j], b[i])
			t.Sub(t, u)
			if t.Mod(t, m).Sign() != 0 {
				return false
			}
		}
	}
	return true
}

// Multiplier returns the N x N Jacobian of F^n at x modulo p^k, chaining
// the Jacobians of the dehomogenized maps through the orbit. Each step
// uses the chart of the last coordinate that is a unit mod p.
func (f *IntMap) Multiplier(x []*big.Int, n int, p *big.Int, k int) ([][]*big.Int, error) {
	mod := arith.PowInt(p, k)
	l := arith.Identity(f.Dim())
	q := reduce(x, mod)
	a := LastUnit(q, p)
	if a < 0 {
		return nil, fmt.Errorf("%w: point vanishes mod %s", dynamo.ErrZeroPoint, p)
	}
	for step := 0; step < n; step++ {
		r := f.EvalMod(q, mod)
		b := LastUnit(r, p)
		if b < 0 {
			return nil, fmt.Errorf("%w: image vanishes mod %s", dynamo.ErrBadPrime, p)
		}
		jac, err := f.chartJacobian(q, a, b, mod)
		if err != nil {
			return nil, err
		}
		l = arith.MatMulMod(jac, l, mod)
		q, a = r, b
	}
	return l, nil
}

// chartJacobian is the Jacobian of F_(a,b), the map from the chart
// x_a = 1 to the chart x_b = 1, at q. Entries are
// (dF_j/dx_m * F_b - F_j * dF_b/dx_m) / F_b^2 evaluated at q/q_a.
func (f *IntMap) chartJacobian(q []*big.Int, a, b int, mod *big.Int) ([][]*big.Int, error) {
	y, ok := ScaleTo(q, a, mod)
	if !ok {
		return nil, fmt.Errorf("%w: chart coordinate is not a unit", dynamo.ErrPrecision)
	}
	fy := f.EvalMod(y, mod)
	invFb := new(big.Int).ModInverse(fy[b], mod)
	if invFb == nil {
		return nil, fmt.Errorf("%w: chart coordinate of image is not a unit", dynamo.ErrPrecision)
	}
	inv2 := new(big.Int).Mul(invFb, invFb)
	inv2.Mod(inv2, mod)

	nn := len(f.polys)
	dFb := make([]*big.Int, nn)
	for m := 0; m < nn; m++ {
		dFb[m] = f.partials[b][m].EvalMod(y, mod)
	}
	jac := make([][]*big.Int, 0, nn-1)
	t := new(big.Int)
	for j := 0; j < nn; j++ {
		if j == b {
			continue
		}
		row := make([]*big.Int, 0, nn-1)
		for m := 0; m < nn; m++ {
			if m == a {
				continue
			}
			v := f.partials[j][m].EvalMod(y, mod)
			v.Mul(v, fy[b])
			v.Sub(v, t.Mul(fy[j], dFb[m]))
			v.Mul(v, inv2)
			row = append(row, v.Mod(v, mod))
		}
		jac = append(jac, row)
	}
	return jac, nil
}
