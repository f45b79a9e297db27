package arith

import (
	"fmt"
	"math"
	"math/big"
)

var (
	bigZero = big.NewInt(0)
	bigOne  = big.NewInt(1)
)

// ParseRat parses an integer, a fraction "a/b" or a decimal literal.
func ParseRat(s string) (*big.Rat, error) {
	r, ok := new(big.Rat).SetString(s)
	if !ok {
		return nil, fmt.Errorf("arith: invalid rational %q", s)
	}
	return r, nil
}

// GCD returns the non-negative gcd of a and b; GCD(0, 0) is 0.
func GCD(a, b *big.Int) *big.Int {
	return new(big.Int).GCD(nil, nil, new(big.Int).Abs(a), new(big.Int).Abs(b))
}

// LCM returns the non-negative lcm of a and b; LCM(x, 0) is 0.
func LCM(a, b *big.Int) *big.Int {
	if a.Sign() == 0 || b.Sign() == 0 {
		return new(big.Int)
	}
	g := GCD(a, b)
	l := new(big.Int).Quo(new(big.Int).Abs(a), g)
	return l.Mul(l, new(big.Int).Abs(b))
}

// GCDAll folds GCD over xs.
func GCDAll(xs []*big.Int) *big.Int {
	g := new(big.Int)
	for _, x := range xs {
		g = GCD(g, x)
	}
	return g
}

// Mod returns x mod m in [0, m).
func Mod(x, m *big.Int) *big.Int {
	return new(big.Int).Mod(x, m)
}

// PowInt returns p^k.
func PowInt(p *big.Int, k int) *big.Int {
	return new(big.Int).Exp(p, big.NewInt(int64(k)), nil)
}

// RatMod maps a rational with denominator prime to m into [0, m).
func RatMod(r *big.Rat, m *big.Int) (*big.Int, bool) {
	den := new(big.Int).Mod(r.Denom(), m)
	inv := new(big.Int).ModInverse(den, m)
	if inv == nil {
		return nil, false
	}
	v := new(big.Int).Mod(r.Num(), m)
	v.Mul(v, inv)
	return v.Mod(v, m), true
}

// LogAbsInt returns log|x| without converting through float64, so huge
// integers are fine. log 0 is -Inf.
func LogAbsInt(x *big.Int) float64 {
	if x.Sign() == 0 {
		return math.Inf(-1)
	}
	return LogFloat(new(big.Float).SetInt(x))
}

// LogAbsRat returns log|r|.
func LogAbsRat(r *big.Rat) float64 {
	if r.Sign() == 0 {
		return math.Inf(-1)
	}
	return LogAbsInt(r.Num()) - LogAbsInt(r.Denom())
}

// LogFloat returns log|f| for an arbitrary-precision float.
func LogFloat(f *big.Float) float64 {
	if f.Sign() == 0 {
		return math.Inf(-1)
	}
	mant := new(big.Float)
	exp := new(big.Float).Abs(f).MantExp(mant)
	m, _ := mant.Float64()
	return math.Log(m) + float64(exp)*math.Ln2
}

// RatHeight is the logarithmic height log max(|a|, |b|) of a/b in lowest terms.
func RatHeight(r *big.Rat) float64 {
	a := LogAbsInt(r.Num())
	b := LogAbsInt(r.Denom())
	return math.Max(math.Max(a, b), 0)
}

// LogBinomial returns log C(n, k).
func LogBinomial(n, k int) float64 {
	return LogAbsInt(new(big.Int).Binomial(int64(n), int64(k)))
}

// Valuation returns v_p(x) for x != 0.
func Valuation(x, p *big.Int) int {
	if x.Sign() == 0 {
		return math.MaxInt
	}
	v := 0
	q := new(big.Int).Abs(x)
	r := new(big.Int)
	for {
		q2, r2 := new(big.Int).QuoRem(q, p, r)
		if r2.Sign() != 0 {
			return v
		}
		q = q2
		v++
	}
}
