package arith

import "math/big"

// IntTerm is one monomial with an integer coefficient.
type IntTerm struct {
	Exp   []int
	Coeff *big.Int
}

// IntPoly is a polynomial with integer coefficients, used for evaluation
// in exact, modular and floating arithmetic.
type IntPoly struct {
	nvars int
	terms []IntTerm
}

func (p IntPoly) NumVars() int { return p.nvars }

func (p IntPoly) Terms() []IntTerm { return p.terms }

func (p IntPoly) IsZero() bool { return len(p.terms) == 0 }

// Rat converts back to a rational Poly.
func (p IntPoly) Rat() Poly {
	r := NewPoly(p.nvars)
	for _, t := range p.terms {
		r.add(t.Exp, new(big.Rat).SetInt(t.Coeff))
	}
	return r
}

// Derivative returns the partial derivative with respect to x_i.
func (p IntPoly) Derivative(i int) IntPoly {
	out := IntPoly{nvars: p.nvars}
	for _, t := range p.terms {
		if t.Exp[i] == 0 {
			continue
		}
		exp := make([]int, len(t.Exp))
		copy(exp, t.Exp)
		exp[i]--
		c := new(big.Int).Mul(t.Coeff, big.NewInt(int64(t.Exp[i])))
		out.terms = append(out.terms, IntTerm{Exp: exp, Coeff: c})
	}
	return out
}

// Eval evaluates p at integer x.
func (p IntPoly) Eval(x []*big.Int) *big.Int {
	total := new(big.Int)
	pw := new(big.Int)
	for _, t := range p.terms {
		v := new(big.Int).Set(t.Coeff)
		for i, e := range t.Exp {
			if e > 0 {
				v.Mul(v, pw.Exp(x[i], big.NewInt(int64(e)), nil))
			}
		}
		total.Add(total, v)
	}
	return total
}

// EvalMod evaluates p at x modulo m; the result lies in [0, m).
func (p IntPoly) EvalMod(x []*big.Int, m *big.Int) *big.Int {
	xs := make([]*big.Int, len(x))
	for i := range x {
		xs[i] = new(big.Int).Mod(x[i], m)
	}
	total := new(big.Int)
	pw := new(big.Int)
	for _, t := range p.terms {
		v := new(big.Int).Mod(t.Coeff, m)
		for i, e := range t.Exp {
			if e > 0 {
				v.Mul(v, pw.Exp(xs[i], big.NewInt(int64(e)), m))
				v.Mod(v, m)
			}
		}
		total.Add(total, v)
	}
	return total.Mod(total, m)
}

// EvalFloat evaluates p at x with the given mantissa precision.
func (p IntPoly) EvalFloat(x []*big.Float, prec uint) *big.Float {
	total := new(big.Float).SetPrec(prec)
	for _, t := range p.terms {
		v := new(big.Float).SetPrec(prec).SetInt(t.Coeff)
		for i, e := range t.Exp {
			for j := 0; j < e; j++ {
				v.Mul(v, x[i])
			}
		}
		total.Add(total, v)
	}
	return total
}

// MaxAbsCoeff returns the largest |c| over the coefficients.
func (p IntPoly) MaxAbsCoeff() *big.Int {
	m := new(big.Int)
	for _, t := range p.terms {
		if a := new(big.Int).Abs(t.Coeff); a.Cmp(m) > 0 {
			m = a
		}
	}
	return m
}
