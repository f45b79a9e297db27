package arith

import "math/big"

// UniPoly is a univariate polynomial over Q, lowest degree first.
type UniPoly []*big.Rat

func (a UniPoly) trim() UniPoly {
	n := len(a)
	for n > 0 && a[n-1].Sign() == 0 {
		n--
	}
	return a[:n]
}

func (a UniPoly) Deg() int { return len(a.trim()) - 1 }

// UniFromInts builds a polynomial from integer coefficients.
func UniFromInts(cs []*big.Int) UniPoly {
	out := make(UniPoly, len(cs))
	for i, c := range cs {
		out[i] = new(big.Rat).SetInt(c)
	}
	return out.trim()
}

func (a UniPoly) Deriv() UniPoly {
	if len(a) <= 1 {
		return nil
	}
	out := make(UniPoly, len(a)-1)
	for i := 1; i < len(a); i++ {
		out[i-1] = new(big.Rat).Mul(a[i], big.NewRat(int64(i), 1))
	}
	return out.trim()
}

// DivMod divides a by the nonzero b.
func (a UniPoly) DivMod(b UniPoly) (UniPoly, UniPoly) {
	b = b.trim()
	r := make(UniPoly, len(a))
	for i := range a {
		r[i] = new(big.Rat).Set(a[i])
	}
	r = r.trim()
	if len(r) < len(b) {
		return nil, r
	}
	q := make(UniPoly, len(r)-len(b)+1)
	for i := range q {
		q[i] = new(big.Rat)
	}
	lead := b[len(b)-1]
	for len(r) >= len(b) {
		shift := len(r) - len(b)
		c := new(big.Rat).Quo(r[len(r)-1], lead)
		q[shift] = c
		for i, y := range b {
			r[i+shift].Sub(r[i+shift], new(big.Rat).Mul(c, y))
		}
		r = r.trim()
	}
	return q.trim(), r
}

// GCD returns the monic gcd over Q.
func (a UniPoly) GCD(b UniPoly) UniPoly {
	x, y := a.trim(), b.trim()
	for len(y) > 0 {
		_, r := x.DivMod(y)
		x, y = y, r
	}
	if len(x) == 0 {
		return x
	}
	inv := new(big.Rat).Inv(x[len(x)-1])
	out := make(UniPoly, len(x))
	for i := range x {
		out[i] = new(big.Rat).Mul(x[i], inv)
	}
	return out
}

// SquarefreePart returns a / gcd(a, a').
func (a UniPoly) SquarefreePart() UniPoly {
	g := a.GCD(a.Deriv())
	if g.Deg() <= 0 {
		return a.trim()
	}
	q, _ := a.DivMod(g)
	return q
}

// Primitive scales a to integer coefficients with content 1 and a
// positive leading coefficient.
func (a UniPoly) Primitive() []*big.Int {
	a = a.trim()
	l := big.NewInt(1)
	for _, c := range a {
		l = LCM(l, c.Denom())
	}
	out := make([]*big.Int, len(a))
	g := new(big.Int)
	for i, c := range a {
		v := new(big.Int).Mul(c.Num(), new(big.Int).Quo(l, c.Denom()))
		out[i] = v
		g = GCD(g, v)
	}
	if g.Sign() == 0 {
		return out
	}
	if out[len(out)-1].Sign() < 0 {
		g.Neg(g)
	}
	for i := range out {
		out[i].Quo(out[i], g)
	}
	return out
}

// Eval evaluates a at x.
func (a UniPoly) Eval(x *big.Rat) *big.Rat {
	r := new(big.Rat)
	for i := len(a) - 1; i >= 0; i-- {
		r.Mul(r, x)
		r.Add(r, a[i])
	}
	return r
}
