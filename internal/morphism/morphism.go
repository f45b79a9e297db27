// Package morphism decides whether a homogeneous map is a morphism and
// finds its primes of bad reduction.
//
// A map F of degree d on P^N is a morphism exactly when every monomial of
// degree D = (N+1)(d-1)+1 lies in the ideal (F_0, ..., F_N). That is a
// rank condition on the Macaulay matrix whose rows are the products
// mu*F_j for monomials mu of degree D-d. Solving the same system over Q
// gives a Nullstellensatz certificate x_i^D = sum_j g_ij F_j; every bad
// prime divides a denominator of some g_ij.
package morphism

import (
	"fmt"
	"math/big"

	"github.com/san-kum/arithdyn/internal/arith"
	"github.com/san-kum/arithdyn/internal/dynamo"
)

// Certificate holds polynomials g[i][j] with x_i^D = sum_j g[i][j] F_j
// for the integral primitive model of F.
type Certificate struct {
	D int
	G [][]arith.Poly
}

// Denominator is the lcm of the coefficient denominators of row i.
func (c *Certificate) Denominator(i int) *big.Int {
	l := big.NewInt(1)
	for _, g := range c.G[i] {
		l = arith.LCM(l, g.DenominatorLCM())
	}
	return l
}

// DenominatorLCM is the lcm over all rows.
func (c *Certificate) DenominatorLCM() *big.Int {
	l := big.NewInt(1)
	for i := range c.G {
		l = arith.LCM(l, c.Denominator(i))
	}
	return l
}

type macaulay struct {
	n       int
	d, D    int
	cols    [][]int
	colIdx  map[string]int
	rowJ    []int
	rowMono [][]int
	entries [][]*big.Rat
}

func macaulayDegree(n, d int) int { return n*(d-1) + 1 }

func buildMacaulay(f *dynamo.Map) (*macaulay, error) {
	d := f.Degree()
	if d < 1 {
		return nil, fmt.Errorf("%w: degree %d", dynamo.ErrNotMorphism, d)
	}
	nv := f.Dim() + 1
	D := macaulayDegree(nv, d)
	m := &macaulay{n: nv, d: d, D: D, cols: arith.Monomials(nv, D), colIdx: map[string]int{}}
	for i, c := range m.cols {
		m.colIdx[fmt.Sprint(c)] = i
	}
	polys := f.Normalized().Polys()
	exp := make([]int, nv)
	for j, fj := range polys {
		for _, mu := range arith.Monomials(nv, D-d) {
			row := make([]*big.Rat, len(m.cols))
			for k := range row {
				row[k] = new(big.Rat)
			}
			for _, t := range fj.Terms() {
				for k := range exp {
					exp[k] = t.Exp[k] + mu[k]
				}
				row[m.colIdx[fmt.Sprint(exp)]].Add(row[m.colIdx[fmt.Sprint(exp)]], t.Coeff)
			}
			m.rowJ = append(m.rowJ, j)
			m.rowMono = append(m.rowMono, mu)
			m.entries = append(m.entries, row)
		}
	}
	return m, nil
}

// MacaulayMatrix returns the integer Macaulay matrix of the integral
// primitive model of F, one row per product mu*F_j.
func MacaulayMatrix(f *dynamo.Map) ([][]*big.Int, error) {
	m, err := buildMacaulay(f)
	if err != nil {
		return nil, err
	}
	out := make([][]*big.Int, len(m.entries))
	for i, row := range m.entries {
		out[i] = make([]*big.Int, len(row))
		for j, x := range row {
			out[i][j] = new(big.Int).Set(x.Num())
		}
	}
	return out, nil
}

// NewCertificate solves for the Nullstellensatz certificate over Q. It
// fails with ErrNotMorphism when F has a base point.
func NewCertificate(f *dynamo.Map) (*Certificate, error) {
	if f.Field().Kind != dynamo.KindRational {
		return nil, fmt.Errorf("%w: certificate over %s", dynamo.ErrUnsupported, f.Field())
	}
	m, err := buildMacaulay(f)
	if err != nil {
		return nil, err
	}
	rows, cols := len(m.entries), len(m.cols)
	A := make([][]*big.Rat, cols)
	for c := 0; c < cols; c++ {
		A[c] = make([]*big.Rat, rows)
		for r := 0; r < rows; r++ {
			A[c][r] = m.entries[r][c]
		}
	}
	cert := &Certificate{D: m.D, G: make([][]arith.Poly, m.n)}
	for i := 0; i < m.n; i++ {
		target := make([]int, m.n)
		target[i] = m.D
		b := make([]*big.Rat, cols)
		for c := range b {
			b[c] = new(big.Rat)
		}
		b[m.colIdx[fmt.Sprint(target)]].SetInt64(1)
		x, ok := arith.SolveRat(A, b)
		if !ok {
			return nil, fmt.Errorf("%w: x_%d^%d is not in the ideal", dynamo.ErrNotMorphism, i, m.D)
		}
		cert.G[i] = make([]arith.Poly, m.n)
		for j := range cert.G[i] {
			cert.G[i][j] = arith.NewPoly(m.n)
		}
		for r, v := range x {
			if v.Sign() != 0 {
				j := m.rowJ[r]
				cert.G[i][j] = cert.G[i][j].Add(arith.Monomial(m.rowMono[r], v))
			}
		}
	}
	return cert, nil
}

// IsMorphism reports whether F has no base point over the algebraic
// closure of its field.
func IsMorphism(f *dynamo.Map) (bool, error) {
	m, err := buildMacaulay(f)
	if err != nil {
		return false, nil
	}
	switch f.Field().Kind {
	case dynamo.KindRational:
		return arith.RankRat(m.entries) == len(m.cols), nil
	case dynamo.KindFinite:
		return rankMod(m, uint64(f.Field().Char)) == len(m.cols), nil
	default:
		return false, fmt.Errorf("%w: morphism test over %s", dynamo.ErrUnsupported, f.Field())
	}
}

func rankMod(m *macaulay, p uint64) int {
	pb := new(big.Int).SetUint64(p)
	A := make([][]uint64, len(m.entries))
	for i, row := range m.entries {
		A[i] = make([]uint64, len(row))
		for j, x := range row {
			A[i][j] = new(big.Int).Mod(x.Num(), pb).Uint64()
		}
	}
	return arith.RankMod(A, p)
}

// IsGoodPrime reports whether the reduction of F modulo p is a morphism.
func IsGoodPrime(f *dynamo.Map, p int64) (bool, error) {
	if f.Field().Kind != dynamo.KindRational {
		return false, fmt.Errorf("%w: reduction over %s", dynamo.ErrUnsupported, f.Field())
	}
	if !arith.IsPrime(p) {
		return false, fmt.Errorf("%w: %d is not prime", dynamo.ErrParameterBounds, p)
	}
	m, err := buildMacaulay(f)
	if err != nil {
		return false, err
	}
	return rankMod(m, uint64(p)) == len(m.cols), nil
}

// BadPrimes returns the primes of bad reduction of a rational morphism in
// increasing order. On P^1 they are the prime divisors of the resultant;
// otherwise the certificate denominators supply candidates which are
// then confirmed with the rank test.
func BadPrimes(f *dynamo.Map) ([]int64, error) {
	if f.Field().Kind != dynamo.KindRational {
		return nil, fmt.Errorf("%w: bad primes over %s", dynamo.ErrUnsupported, f.Field())
	}
	var candidates []*big.Int
	if f.Dim() == 1 {
		res, err := Resultant(f)
		if err != nil {
			return nil, err
		}
		if res.Sign() == 0 {
			return nil, fmt.Errorf("%w: resultant vanishes", dynamo.ErrNotMorphism)
		}
		candidates = arith.PrimeFactors(res)
	} else {
		cert, err := NewCertificate(f)
		if err != nil {
			return nil, err
		}
		candidates = arith.PrimeFactors(cert.DenominatorLCM())
	}
	var bad []int64
	for _, c := range candidates {
		if !c.IsInt64() {
			return nil, fmt.Errorf("%w: bad prime %s exceeds int64", dynamo.ErrUnsupported, c)
		}
		p := c.Int64()
		if f.Dim() > 1 {
			good, err := IsGoodPrime(f, p)
			if err != nil {
				return nil, err
			}
			if good {
				continue
			}
		}
		bad = append(bad, p)
	}
	return bad, nil
}

// Resultant is the Sylvester resultant of the integral primitive model of
// a map on P^1. It is zero exactly when F is not a morphism.
func Resultant(f *dynamo.Map) (*big.Int, error) {
	if f.Dim() != 1 {
		return nil, fmt.Errorf("%w: resultant on P^%d", dynamo.ErrUnsupported, f.Dim())
	}
	polys, err := f.IntPolys()
	if err != nil {
		return nil, err
	}
	d := f.Degree()
	coeffs := func(p arith.IntPoly) []*big.Int {
		c := make([]*big.Int, d+1)
		for k := range c {
			c[k] = new(big.Int)
		}
		for _, t := range p.Terms() {
			c[d-t.Exp[0]].Set(t.Coeff)
		}
		return c
	}
	a, b := coeffs(polys[0]), coeffs(polys[1])
	n := 2 * d
	syl := make([][]*big.Int, n)
	for i := range syl {
		syl[i] = make([]*big.Int, n)
		for j := range syl[i] {
			syl[i][j] = new(big.Int)
		}
	}
	for i := 0; i < d; i++ {
		for k := 0; k <= d; k++ {
			syl[i][i+k].Set(a[k])
			syl[d+i][i+k].Set(b[k])
		}
	}
	return arith.DetInt(syl), nil
}
