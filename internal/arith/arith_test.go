package arith

import (
	"math"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ints(xs ...int64) []*big.Int {
	out := make([]*big.Int, len(xs))
	for i, x := range xs {
		out[i] = big.NewInt(x)
	}
	return out
}

func TestParsePoly(t *testing.T) {
	vars := []string{"x", "y"}
	p, err := ParsePoly("x^2 - 29/16*y^2", vars)
	require.NoError(t, err)
	assert.Equal(t, 0, p.Coeff([]int{2, 0}).Cmp(big.NewRat(1, 1)))
	assert.Equal(t, 0, p.Coeff([]int{0, 2}).Cmp(big.NewRat(-29, 16)))
	d, ok := p.Homogeneous()
	assert.True(t, ok)
	assert.Equal(t, 2, d)

	q, err := ParsePoly("2x y + (x - y)**2", vars)
	require.NoError(t, err)
	want, _ := ParsePoly("x^2 + y^2", vars)
	assert.True(t, q.Equal(want), "got %s", q)

	_, err = ParsePoly("x/y", vars)
	assert.Error(t, err)
	_, err = ParsePoly("z + 1", vars)
	assert.Error(t, err)
	_, err = ParsePoly("(x + 1", vars)
	assert.Error(t, err)
}

func TestPolyCompose(t *testing.T) {
	vars := []string{"x", "y"}
	f0, _ := ParsePoly("x^2 + y^2", vars)
	f1, _ := ParsePoly("2*x*y", vars)
	g := f0.Compose([]Poly{f0, f1})
	want, _ := ParsePoly("x^4 + 6*x^2*y^2 + y^4", vars)
	assert.True(t, g.Equal(want), "got %s", g)

	dx := f1.Derivative(0)
	wantDx, _ := ParsePoly("2y", vars)
	assert.True(t, dx.Equal(wantDx))

	h, _ := ParsePoly("x^2 + y", vars)
	_, ok := h.Homogeneous()
	assert.False(t, ok)
}

func TestPolyFormat(t *testing.T) {
	p, err := ParsePoly("x^2 - 3*y^2 + x*y", []string{"x", "y"})
	require.NoError(t, err)
	assert.Equal(t, "x^2 + x*y - 3*y^2", p.String())
}

func TestIntPolyEval(t *testing.T) {
	p, _ := ParsePoly("3*x^2 - y^2", []string{"x", "y"})
	ip, err := p.ToInt()
	require.NoError(t, err)
	assert.Equal(t, int64(11), ip.Eval(ints(2, 1)).Int64())
	assert.Equal(t, int64(4), ip.EvalMod(ints(2, 1), big.NewInt(7)).Int64())

	x := []*big.Float{big.NewFloat(2), big.NewFloat(1)}
	v, _ := ip.EvalFloat(x, 64).Float64()
	assert.InDelta(t, 11.0, v, 1e-12)

	half, _ := ParsePoly("x/2", []string{"x", "y"})
	_, err = half.ToInt()
	assert.Error(t, err)
}

func TestMonomials(t *testing.T) {
	ms := Monomials(2, 2)
	assert.Equal(t, [][]int{{2, 0}, {1, 1}, {0, 2}}, ms)
	assert.Len(t, Monomials(3, 3), 10)
}

func TestDetInt(t *testing.T) {
	m := [][]*big.Int{ints(2, 3), ints(1, 4)}
	assert.Equal(t, int64(5), DetInt(m).Int64())
	m3 := [][]*big.Int{ints(0, 2, 1), ints(1, 0, 3), ints(4, 1, 0)}
	assert.Equal(t, int64(25), DetInt(m3).Int64())
	sing := [][]*big.Int{ints(1, 2), ints(2, 4)}
	assert.Equal(t, 0, DetInt(sing).Sign())
}

func TestSolveRat(t *testing.T) {
	r := func(a int64) *big.Rat { return big.NewRat(a, 1) }
	A := [][]*big.Rat{{r(1), r(1)}, {r(1), r(-1)}}
	x, ok := SolveRat(A, []*big.Rat{r(3), r(1)})
	require.True(t, ok)
	assert.Equal(t, "2", x[0].RatString())
	assert.Equal(t, "1", x[1].RatString())

	B := [][]*big.Rat{{r(1), r(1)}, {r(2), r(2)}}
	_, ok = SolveRat(B, []*big.Rat{r(1), r(3)})
	assert.False(t, ok)
}

func TestRankAndInverseMod(t *testing.T) {
	assert.Equal(t, 1, RankMod([][]uint64{{1, 2}, {2, 4}}, 7))
	assert.Equal(t, 2, RankMod([][]uint64{{1, 2}, {3, 4}}, 7))
	assert.Equal(t, 1, RankMod([][]uint64{{1, 2}, {3, 1}}, 5))

	inv, ok := InverseMod([][]*big.Int{ints(1, 1), ints(0, 1)}, big.NewInt(3), big.NewInt(9))
	require.True(t, ok)
	assert.Equal(t, int64(8), inv[0][1].Int64())
	_, ok = InverseMod([][]*big.Int{ints(3, 0), ints(0, 1)}, big.NewInt(3), big.NewInt(9))
	assert.False(t, ok)
}

func TestPrimes(t *testing.T) {
	assert.Equal(t, []int{2, 3, 5, 7, 11, 13, 17, 19}, PrimesInRange(1, 20))
	assert.Equal(t, []int{11, 13}, PrimesInRange(10, 13))
	assert.Equal(t, int64(29), NextPrime(23))
	assert.True(t, IsPrime(1000003))

	fs := PrimeFactors(big.NewInt(65536))
	require.Len(t, fs, 1)
	assert.Equal(t, int64(2), fs[0].Int64())

	fs = PrimeFactors(new(big.Int).Mul(big.NewInt(10007*12), big.NewInt(10009)))
	got := make([]int64, len(fs))
	for i, f := range fs {
		got[i] = f.Int64()
	}
	assert.Equal(t, []int64{2, 3, 10007, 10009}, got)

	assert.Equal(t, []uint64{1, 2, 3, 4, 6, 12}, Divisors(12))
	assert.Equal(t, 1, Mobius(6))
	assert.Equal(t, 0, Mobius(4))
	assert.Equal(t, -1, Mobius(5))
}

func TestCharpoly(t *testing.T) {
	chi := Charpoly([][]uint64{{1, 2}, {3, 4}}, 7)
	assert.Equal(t, GFPoly{5, 2, 1}, chi)

	m := [][]uint64{{1, 2, 0}, {0, 3, 1}, {4, 0, 5}}
	chi = Charpoly(m, 11)
	// det(xI - M) = x^3 - 9x^2 + 23x - 23
	assert.Equal(t, GFPoly{10, 1, 2, 1}, chi)
}

func TestEigenvalueOrders(t *testing.T) {
	cases := []struct {
		name string
		m    [][]uint64
		p    uint64
		want []uint64
	}{
		{"scalar", [][]uint64{{2}}, 7, []uint64{3}},
		{"zero", [][]uint64{{0}}, 7, []uint64{}},
		{"diagonal", [][]uint64{{2, 0}, {0, 6}}, 7, []uint64{2, 3}},
		{"irreducible", [][]uint64{{0, 2}, {1, 0}}, 3, []uint64{4}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := EigenvalueOrders(tc.m, tc.p)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestUniPoly(t *testing.T) {
	a := UniFromInts(ints(2, -3, 0, 1))
	sf := a.SquarefreePart()
	assert.Equal(t, 2, sf.Deg())
	prim := UniPoly(sf).Primitive()
	assert.Equal(t, []int64{-2, 1, 1}, []int64{prim[0].Int64(), prim[1].Int64(), prim[2].Int64()})
	assert.Equal(t, 0, a.Eval(big.NewRat(1, 1)).Sign())
}

func TestLogs(t *testing.T) {
	assert.InDelta(t, math.Log(1e6), LogAbsInt(big.NewInt(-1000000)), 1e-12)
	huge := new(big.Int).Lsh(big.NewInt(1), 5000)
	assert.InDelta(t, 5000*math.Ln2, LogAbsInt(huge), 1e-9)
	assert.InDelta(t, math.Log(10), LogBinomial(5, 2), 1e-12)
	assert.InDelta(t, math.Log(29), RatHeight(big.NewRat(-29, 16)), 1e-12)
	assert.Equal(t, 3, Valuation(big.NewInt(-40), big.NewInt(2)))
}
