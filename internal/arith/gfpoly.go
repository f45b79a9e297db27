package arith

import (
	"fmt"
	"math"
	"math/big"
	"sort"
)

// GFPoly is a univariate polynomial over F_p, lowest degree first.
type GFPoly []uint64

func gfTrim(a GFPoly) GFPoly {
	n := len(a)
	for n > 0 && a[n-1] == 0 {
		n--
	}
	return a[:n]
}

// Deg is the degree, -1 for zero.
func (a GFPoly) Deg() int { return len(gfTrim(a)) - 1 }

func gfX() GFPoly { return GFPoly{0, 1} }

func gfSub(a, b GFPoly, p uint64) GFPoly {
	n := max(len(a), len(b))
	out := make(GFPoly, n)
	for i := 0; i < n; i++ {
		var x, y uint64
		if i < len(a) {
			x = a[i]
		}
		if i < len(b) {
			y = b[i]
		}
		out[i] = subMod(x, y, p)
	}
	return gfTrim(out)
}

func gfScale(a GFPoly, c, p uint64) GFPoly {
	out := make(GFPoly, len(a))
	for i := range a {
		out[i] = mulMod(a[i], c, p)
	}
	return gfTrim(out)
}

func gfMul(a, b GFPoly, p uint64) GFPoly {
	a, b = gfTrim(a), gfTrim(b)
	if len(a) == 0 || len(b) == 0 {
		return nil
	}
	out := make(GFPoly, len(a)+len(b)-1)
	for i, x := range a {
		if x == 0 {
			continue
		}
		for j, y := range b {
			out[i+j] = addMod(out[i+j], mulMod(x, y, p), p)
		}
	}
	return gfTrim(out)
}

// GFDivMod divides a by the nonzero b.
func GFDivMod(a, b GFPoly, p uint64) (GFPoly, GFPoly) {
	b = gfTrim(b)
	r := append(GFPoly(nil), gfTrim(a)...)
	if len(r) < len(b) {
		return nil, r
	}
	q := make(GFPoly, len(r)-len(b)+1)
	inv := InvMod(b[len(b)-1], p)
	for len(r) >= len(b) {
		shift := len(r) - len(b)
		c := mulMod(r[len(r)-1], inv, p)
		q[shift] = c
		for i, y := range b {
			r[i+shift] = subMod(r[i+shift], mulMod(c, y, p), p)
		}
		r = gfTrim(r)
	}
	return gfTrim(q), r
}

func gfMonic(a GFPoly, p uint64) GFPoly {
	a = gfTrim(a)
	if len(a) == 0 {
		return a
	}
	return gfScale(a, InvMod(a[len(a)-1], p), p)
}

// GFGCD returns the monic gcd.
func GFGCD(a, b GFPoly, p uint64) GFPoly {
	a, b = gfTrim(a), gfTrim(b)
	for len(b) > 0 {
		_, r := GFDivMod(a, b, p)
		a, b = b, r
	}
	return gfMonic(a, p)
}

// GFDeriv returns the formal derivative.
func GFDeriv(a GFPoly, p uint64) GFPoly {
	if len(a) <= 1 {
		return nil
	}
	out := make(GFPoly, len(a)-1)
	for i := 1; i < len(a); i++ {
		out[i-1] = mulMod(a[i], uint64(i)%p, p)
	}
	return gfTrim(out)
}

// GFPowMod returns base^e mod m.
func GFPowMod(base GFPoly, e *big.Int, m GFPoly, p uint64) GFPoly {
	if m.Deg() <= 0 {
		return nil
	}
	_, b := GFDivMod(base, m, p)
	result := GFPoly{1 % p}
	for i := e.BitLen() - 1; i >= 0; i-- {
		_, result = GFDivMod(gfMul(result, result, p), m, p)
		if e.Bit(i) == 1 {
			_, result = GFDivMod(gfMul(result, b, p), m, p)
		}
	}
	return gfTrim(result)
}

// GFEval evaluates a at x.
func GFEval(a GFPoly, x, p uint64) uint64 {
	var r uint64
	for i := len(a) - 1; i >= 0; i-- {
		r = addMod(mulMod(r, x, p), a[i], p)
	}
	return r
}

// Charpoly returns the characteristic polynomial det(xI - M) over F_p.
// M is reduced to upper Hessenberg form by similarity, then the
// polynomial is read off with the standard recurrence.
func Charpoly(M [][]uint64, p uint64) GFPoly {
	n := len(M)
	h := make([][]uint64, n)
	for i := range M {
		h[i] = make([]uint64, n)
		for j := range M[i] {
			h[i][j] = M[i][j] % p
		}
	}
	for j := 0; j < n-2; j++ {
		piv := -1
		for i := j + 1; i < n; i++ {
			if h[i][j] != 0 {
				piv = i
				break
			}
		}
		if piv < 0 {
			continue
		}
		if piv != j+1 {
			h[piv], h[j+1] = h[j+1], h[piv]
			for r := 0; r < n; r++ {
				h[r][piv], h[r][j+1] = h[r][j+1], h[r][piv]
			}
		}
		inv := InvMod(h[j+1][j], p)
		for i := j + 2; i < n; i++ {
			u := mulMod(h[i][j], inv, p)
			if u == 0 {
				continue
			}
			for c := 0; c < n; c++ {
				h[i][c] = subMod(h[i][c], mulMod(u, h[j+1][c], p), p)
			}
			for r := 0; r < n; r++ {
				h[r][j+1] = addMod(h[r][j+1], mulMod(u, h[r][i], p), p)
			}
		}
	}
	ps := make([]GFPoly, n+1)
	ps[0] = GFPoly{1 % p}
	for m := 1; m <= n; m++ {
		lin := GFPoly{subMod(0, h[m-1][m-1], p), 1}
		pm := gfMul(lin, ps[m-1], p)
		prod := uint64(1)
		for i := m - 1; i >= 1; i-- {
			prod = mulMod(prod, h[i][i-1], p)
			c := mulMod(h[i-1][m-1], prod, p)
			if c != 0 {
				pm = gfSub(pm, gfScale(ps[i-1], c, p), p)
			}
		}
		ps[m] = pm
	}
	return ps[n]
}

// EigenvalueOrders returns the distinct multiplicative orders of the
// nonzero eigenvalues of M over the algebraic closure of F_p. The
// characteristic polynomial is split by distinct-degree factorisation;
// the roots of the degree-k part lie in F_{p^k}^*, and the number of
// roots of exact order r is recovered from gcd(D_k, x^r - 1) by
// Möbius inversion.
func EigenvalueOrders(M [][]uint64, p uint64) ([]uint64, error) {
	chi := gfTrim(Charpoly(M, p))
	for len(chi) > 0 && chi[0] == 0 {
		chi = chi[1:]
	}
	f := gfMonic(chi, p)
	orders := map[uint64]bool{}
	h := gfX()
	pp := new(big.Int).SetUint64(p)
	for k := 1; f.Deg() > 0; k++ {
		h = GFPowMod(h, pp, f, p)
		g := GFGCD(f, gfSub(h, gfX(), p), p)
		if g.Deg() > 0 {
			if float64(k)*math.Log2(float64(p)) > 62 {
				return nil, fmt.Errorf("arith: field F_%d^%d too large for order computation", p, k)
			}
			q := uint64(1)
			for i := 0; i < k; i++ {
				q *= p
			}
			for _, r := range exactOrders(g, q-1, p) {
				orders[r] = true
			}
			for {
				c := GFGCD(f, g, p)
				if c.Deg() <= 0 {
					break
				}
				f, _ = GFDivMod(f, c, p)
			}
			if f.Deg() > 0 {
				_, h = GFDivMod(h, f, p)
			}
		}
		if k > len(chi) {
			break
		}
	}
	out := make([]uint64, 0, len(orders))
	for r := range orders {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out, nil
}

func exactOrders(g GFPoly, n, p uint64) []uint64 {
	divs := Divisors(n)
	count := make(map[uint64]int, len(divs))
	for _, r := range divs {
		xr := GFPowMod(gfX(), new(big.Int).SetUint64(r), g, p)
		count[r] = GFGCD(g, gfSub(xr, GFPoly{1 % p}, p), p).Deg()
	}
	var out []uint64
	for _, r := range divs {
		exact := 0
		for _, s := range divs {
			if s > r {
				break
			}
			if r%s == 0 {
				exact += Mobius(r/s) * count[s]
			}
		}
		if exact > 0 {
			out = append(out, r)
		}
	}
	return out
}
