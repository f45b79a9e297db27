package lifting

import (
	"math/big"
	"sort"

	"github.com/san-kum/arithdyn/internal/arith"
	"github.com/san-kum/arithdyn/internal/lattice"
)

// RationalRoots returns the distinct rational roots of a in increasing
// order. The squarefree part is made primitive, its simple roots modulo a
// prime that keeps it squarefree are Hensel lifted past 2B^2, where B
// bounds numerator and denominator of any root, and each lift is
// reconstructed on a 2-dimensional lattice and checked exactly.
func RationalRoots(a arith.UniPoly) []*big.Rat {
	if a.Deg() <= 0 {
		return nil
	}
	sf := a.SquarefreePart()
	c := sf.Primitive()
	var roots []*big.Rat
	if c[0].Sign() == 0 {
		roots = append(roots, new(big.Rat))
		c = c[1:]
	}
	if len(c) <= 1 {
		return roots
	}
	n := len(c) - 1
	bound := new(big.Int).Abs(c[0])
	if lead := new(big.Int).Abs(c[n]); lead.Cmp(bound) > 0 {
		bound = lead
	}
	target := new(big.Int).Mul(bound, bound)
	target.Lsh(target, 1)

	p, gp := rootPrime(c)
	for x := uint64(0); x < p; x++ {
		if arith.GFEval(gp, x, p) != 0 {
			continue
		}
		pb := new(big.Int).SetUint64(p)
		r := new(big.Int).SetUint64(x)
		m := new(big.Int).Set(pb)
		for m.Cmp(target) <= 0 {
			m.Mul(m, m)
			r = newtonStep(c, r, m)
		}
		q, ok := lattice.ReconstructRational(r, m, bound)
		if ok && sf.Eval(q).Sign() == 0 {
			roots = append(roots, q)
		}
	}
	sort.Slice(roots, func(i, j int) bool { return roots[i].Cmp(roots[j]) < 0 })
	return roots
}

// rootPrime picks the least odd prime not dividing the leading
// coefficient for which c stays squarefree.
func rootPrime(c []*big.Int) (uint64, arith.GFPoly) {
	for p := int64(3); ; p = arith.NextPrime(p) {
		pb := big.NewInt(p)
		g := make(arith.GFPoly, len(c))
		for i, x := range c {
			g[i] = new(big.Int).Mod(x, pb).Uint64()
		}
		if g[len(g)-1] == 0 {
			continue
		}
		if arith.GFGCD(g, arith.GFDeriv(g, uint64(p)), uint64(p)).Deg() == 0 {
			return uint64(p), g
		}
	}
}

// newtonStep refines a simple root r of c modulo m.
func newtonStep(c []*big.Int, r, m *big.Int) *big.Int {
	v, dv := new(big.Int), new(big.Int)
	t := new(big.Int)
	for i := len(c) - 1; i >= 0; i-- {
		dv.Mul(dv, r).Add(dv, v).Mod(dv, m)
		v.Mul(v, r).Add(v, t.Mod(c[i], m)).Mod(v, m)
	}
	inv := new(big.Int).ModInverse(dv, m)
	if inv == nil {
		return r
	}
	v.Mul(v, inv)
	out := new(big.Int).Sub(r, v)
	return out.Mod(out, m)
}
