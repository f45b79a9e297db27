package arith

import (
	"math/big"
	"math/bits"
)

// DetInt computes an integer determinant with fraction-free Bareiss elimination.
func DetInt(m [][]*big.Int) *big.Int {
	n := len(m)
	if n == 0 {
		return big.NewInt(1)
	}
	a := make([][]*big.Int, n)
	for i := range m {
		a[i] = make([]*big.Int, n)
		for j := range m[i] {
			a[i][j] = new(big.Int).Set(m[i][j])
		}
	}
	sign := 1
	prev := big.NewInt(1)
	for k := 0; k < n-1; k++ {
		if a[k][k].Sign() == 0 {
			swap := -1
			for i := k + 1; i < n; i++ {
				if a[i][k].Sign() != 0 {
					swap = i
					break
				}
			}
			if swap < 0 {
				return new(big.Int)
			}
			a[k], a[swap] = a[swap], a[k]
			sign = -sign
		}
		for i := k + 1; i < n; i++ {
			for j := k + 1; j < n; j++ {
				t := new(big.Int).Mul(a[i][j], a[k][k])
				t.Sub(t, new(big.Int).Mul(a[i][k], a[k][j]))
				a[i][j] = t.Quo(t, prev)
			}
		}
		prev = a[k][k]
	}
	d := new(big.Int).Set(a[n-1][n-1])
	if sign < 0 {
		d.Neg(d)
	}
	return d
}

// SolveRat finds one solution of A x = b over Q, with free variables set
// to zero. ok is false when the system is inconsistent.
func SolveRat(A [][]*big.Rat, b []*big.Rat) ([]*big.Rat, bool) {
	rows := len(A)
	if rows == 0 {
		return nil, true
	}
	cols := len(A[0])
	m := make([][]*big.Rat, rows)
	for i := range A {
		m[i] = make([]*big.Rat, cols+1)
		for j := 0; j < cols; j++ {
			m[i][j] = new(big.Rat).Set(A[i][j])
		}
		m[i][cols] = new(big.Rat).Set(b[i])
	}
	pivots := make([]int, 0, cols)
	r := 0
	for c := 0; c < cols && r < rows; c++ {
		piv := -1
		for i := r; i < rows; i++ {
			if m[i][c].Sign() != 0 {
				piv = i
				break
			}
		}
		if piv < 0 {
			continue
		}
		m[r], m[piv] = m[piv], m[r]
		inv := new(big.Rat).Inv(m[r][c])
		for j := c; j <= cols; j++ {
			m[r][j].Mul(m[r][j], inv)
		}
		for i := 0; i < rows; i++ {
			if i == r || m[i][c].Sign() == 0 {
				continue
			}
			f := new(big.Rat).Set(m[i][c])
			for j := c; j <= cols; j++ {
				m[i][j].Sub(m[i][j], new(big.Rat).Mul(f, m[r][j]))
			}
		}
		pivots = append(pivots, c)
		r++
	}
	for i := r; i < rows; i++ {
		if m[i][cols].Sign() != 0 {
			return nil, false
		}
	}
	x := make([]*big.Rat, cols)
	for j := range x {
		x[j] = new(big.Rat)
	}
	for i, c := range pivots {
		x[c].Set(m[i][cols])
	}
	return x, true
}

func mulMod(a, b, p uint64) uint64 {
	hi, lo := bits.Mul64(a, b)
	return bits.Rem64(hi, lo, p)
}

func addMod(a, b, p uint64) uint64 {
	s := a + b
	if s >= p || s < a {
		s -= p
	}
	return s
}

func subMod(a, b, p uint64) uint64 {
	if a >= b {
		return a - b
	}
	return p - (b - a)
}

func powMod(a, e, p uint64) uint64 {
	r := uint64(1) % p
	a %= p
	for e > 0 {
		if e&1 == 1 {
			r = mulMod(r, a, p)
		}
		a = mulMod(a, a, p)
		e >>= 1
	}
	return r
}

// InvMod inverts a modulo the prime p.
func InvMod(a, p uint64) uint64 { return powMod(a, p-2, p) }

// MulMod and friends expose F_p arithmetic on uint64 residues.
func MulMod(a, b, p uint64) uint64 { return mulMod(a, b, p) }
func AddMod(a, b, p uint64) uint64 { return addMod(a, b, p) }
func SubMod(a, b, p uint64) uint64 { return subMod(a, b, p) }
func PowMod(a, e, p uint64) uint64 { return powMod(a, e, p) }

// RankMod returns the rank of A over F_p.
func RankMod(A [][]uint64, p uint64) int {
	rows := len(A)
	if rows == 0 {
		return 0
	}
	cols := len(A[0])
	m := make([][]uint64, rows)
	for i := range A {
		m[i] = make([]uint64, cols)
		for j := range A[i] {
			m[i][j] = A[i][j] % p
		}
	}
	r := 0
	for c := 0; c < cols && r < rows; c++ {
		piv := -1
		for i := r; i < rows; i++ {
			if m[i][c] != 0 {
				piv = i
				break
			}
		}
		if piv < 0 {
			continue
		}
		m[r], m[piv] = m[piv], m[r]
		inv := InvMod(m[r][c], p)
		for j := c; j < cols; j++ {
			m[r][j] = mulMod(m[r][j], inv, p)
		}
		for i := r + 1; i < rows; i++ {
			f := m[i][c]
			if f == 0 {
				continue
			}
			for j := c; j < cols; j++ {
				m[i][j] = subMod(m[i][j], mulMod(f, m[r][j], p), p)
			}
		}
		r++
	}
	return r
}

// RankRat returns the rank of A over Q.
func RankRat(A [][]*big.Rat) int {
	rows := len(A)
	if rows == 0 {
		return 0
	}
	cols := len(A[0])
	m := make([][]*big.Rat, rows)
	for i := range A {
		m[i] = make([]*big.Rat, cols)
		for j := range A[i] {
			m[i][j] = new(big.Rat).Set(A[i][j])
		}
	}
	r := 0
	for c := 0; c < cols && r < rows; c++ {
		piv := -1
		for i := r; i < rows; i++ {
			if m[i][c].Sign() != 0 {
				piv = i
				break
			}
		}
		if piv < 0 {
			continue
		}
		m[r], m[piv] = m[piv], m[r]
		for i := r + 1; i < rows; i++ {
			if m[i][c].Sign() == 0 {
				continue
			}
			f := new(big.Rat).Quo(m[i][c], m[r][c])
			for j := c; j < cols; j++ {
				m[i][j].Sub(m[i][j], new(big.Rat).Mul(f, m[r][j]))
			}
		}
		r++
	}
	return r
}

// Identity returns the n x n identity matrix.
func Identity(n int) [][]*big.Int {
	m := make([][]*big.Int, n)
	for i := range m {
		m[i] = make([]*big.Int, n)
		for j := range m[i] {
			m[i][j] = new(big.Int)
		}
		m[i][i].SetInt64(1)
	}
	return m
}

// MatMulMod returns A*B mod m.
func MatMulMod(A, B [][]*big.Int, m *big.Int) [][]*big.Int {
	n, k := len(A), len(B)
	cols := 0
	if k > 0 {
		cols = len(B[0])
	}
	out := make([][]*big.Int, n)
	t := new(big.Int)
	for i := 0; i < n; i++ {
		out[i] = make([]*big.Int, cols)
		for j := 0; j < cols; j++ {
			s := new(big.Int)
			for l := 0; l < k; l++ {
				s.Add(s, t.Mul(A[i][l], B[l][j]))
			}
			out[i][j] = s.Mod(s, m)
		}
	}
	return out
}

// MatVecMod returns A*v mod m.
func MatVecMod(A [][]*big.Int, v []*big.Int, m *big.Int) []*big.Int {
	out := make([]*big.Int, len(A))
	t := new(big.Int)
	for i := range A {
		s := new(big.Int)
		for j := range v {
			s.Add(s, t.Mul(A[i][j], v[j]))
		}
		out[i] = s.Mod(s, m)
	}
	return out
}

// InverseMod inverts M modulo mod = p^k. ok is false when det M is
// divisible by p.
func InverseMod(M [][]*big.Int, p, mod *big.Int) ([][]*big.Int, bool) {
	n := len(M)
	a := make([][]*big.Int, n)
	for i := range M {
		a[i] = make([]*big.Int, 2*n)
		for j := 0; j < n; j++ {
			a[i][j] = new(big.Int).Mod(M[i][j], mod)
		}
		for j := n; j < 2*n; j++ {
			a[i][j] = new(big.Int)
		}
		a[i][n+i].SetInt64(1)
	}
	r := new(big.Int)
	unit := func(x *big.Int) bool { return r.Mod(x, p).Sign() != 0 }
	t := new(big.Int)
	for c := 0; c < n; c++ {
		piv := -1
		for i := c; i < n; i++ {
			if unit(a[i][c]) {
				piv = i
				break
			}
		}
		if piv < 0 {
			return nil, false
		}
		a[c], a[piv] = a[piv], a[c]
		inv := new(big.Int).ModInverse(a[c][c], mod)
		for j := 0; j < 2*n; j++ {
			a[c][j].Mul(a[c][j], inv).Mod(a[c][j], mod)
		}
		for i := 0; i < n; i++ {
			if i == c || a[i][c].Sign() == 0 {
				continue
			}
			f := new(big.Int).Set(a[i][c])
			for j := 0; j < 2*n; j++ {
				a[i][j].Sub(a[i][j], t.Mul(f, a[c][j])).Mod(a[i][j], mod)
			}
		}
	}
	out := make([][]*big.Int, n)
	for i := range out {
		out[i] = a[i][n:]
	}
	return out, true
}
