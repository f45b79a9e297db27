// Package lattice implements LLL basis reduction over the integers and the
// rational reconstruction built on it.
package lattice

import (
	"errors"
	"math/big"
)

// ErrDependent is returned when the input rows are linearly dependent.
var ErrDependent = errors.New("lattice: basis vectors are linearly dependent")

var delta = big.NewRat(3, 4)

func dot(a, b []*big.Rat) *big.Rat {
	s := new(big.Rat)
	t := new(big.Rat)
	for i := range a {
		s.Add(s, t.Mul(a[i], b[i]))
	}
	return s
}

func toRat(v []*big.Int) []*big.Rat {
	out := make([]*big.Rat, len(v))
	for i, x := range v {
		out[i] = new(big.Rat).SetInt(x)
	}
	return out
}

// gramSchmidt returns mu and the squared norms of the orthogonalised rows.
func gramSchmidt(b [][]*big.Int) ([][]*big.Rat, []*big.Rat, error) {
	n := len(b)
	star := make([][]*big.Rat, n)
	mu := make([][]*big.Rat, n)
	norms := make([]*big.Rat, n)
	for i := 0; i < n; i++ {
		mu[i] = make([]*big.Rat, n)
		v := toRat(b[i])
		bi := toRat(b[i])
		for j := 0; j < i; j++ {
			mu[i][j] = new(big.Rat).Quo(dot(bi, star[j]), norms[j])
			for k := range v {
				v[k].Sub(v[k], new(big.Rat).Mul(mu[i][j], star[j][k]))
			}
		}
		for j := i; j < n; j++ {
			mu[i][j] = new(big.Rat)
		}
		mu[i][i].SetInt64(1)
		star[i] = v
		norms[i] = dot(v, v)
		if norms[i].Sign() == 0 {
			return nil, nil, ErrDependent
		}
	}
	return mu, norms, nil
}

func roundRat(r *big.Rat) *big.Int {
	h := new(big.Rat).Add(r, big.NewRat(1, 2))
	return new(big.Int).Div(h.Num(), h.Denom())
}

// LLL returns an LLL-reduced basis (delta = 3/4) of the lattice spanned by
// the rows of basis. The first row of the result is a short vector.
func LLL(basis [][]*big.Int) ([][]*big.Int, error) {
	n := len(basis)
	b := make([][]*big.Int, n)
	for i := range basis {
		b[i] = make([]*big.Int, len(basis[i]))
		for j, x := range basis[i] {
			b[i][j] = new(big.Int).Set(x)
		}
	}
	if n <= 1 {
		return b, nil
	}
	mu, norms, err := gramSchmidt(b)
	if err != nil {
		return nil, err
	}
	t := new(big.Int)
	for k := 1; k < n; {
		for j := k - 1; j >= 0; j-- {
			q := roundRat(mu[k][j])
			if q.Sign() == 0 {
				continue
			}
			for c := range b[k] {
				b[k][c].Sub(b[k][c], t.Mul(q, b[j][c]))
			}
			qr := new(big.Rat).SetInt(q)
			for l := 0; l < j; l++ {
				mu[k][l].Sub(mu[k][l], new(big.Rat).Mul(qr, mu[j][l]))
			}
			mu[k][j].Sub(mu[k][j], qr)
		}
		m2 := new(big.Rat).Mul(mu[k][k-1], mu[k][k-1])
		bound := new(big.Rat).Sub(delta, m2)
		bound.Mul(bound, norms[k-1])
		if norms[k].Cmp(bound) >= 0 {
			k++
			continue
		}
		b[k], b[k-1] = b[k-1], b[k]
		if mu, norms, err = gramSchmidt(b); err != nil {
			return nil, err
		}
		if k > 1 {
			k--
		}
	}
	return b, nil
}

// ReconstructRational finds a/b with b*r = a mod m and |a|, |b| <= bound,
// by reducing the lattice spanned by (r, 1) and (m, 0). The answer is
// unique when 2*bound^2 < m.
func ReconstructRational(r, m, bound *big.Int) (*big.Rat, bool) {
	basis := [][]*big.Int{
		{new(big.Int).Mod(r, m), big.NewInt(1)},
		{new(big.Int).Set(m), big.NewInt(0)},
	}
	red, err := LLL(basis)
	if err != nil {
		return nil, false
	}
	for _, v := range red {
		a, b := v[0], v[1]
		if b.Sign() == 0 {
			continue
		}
		if new(big.Int).Abs(a).Cmp(bound) > 0 || new(big.Int).Abs(b).Cmp(bound) > 0 {
			continue
		}
		chk := new(big.Int).Mul(b, r)
		chk.Sub(chk, a)
		if chk.Mod(chk, m).Sign() != 0 {
			continue
		}
		return new(big.Rat).SetFrac(a, b), true
	}
	return nil, false
}
