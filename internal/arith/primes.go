package arith

import (
	"math/big"
	"sort"
)

// IsPrime reports whether n is prime.
func IsPrime(n int64) bool {
	if n < 2 {
		return false
	}
	return big.NewInt(n).ProbablyPrime(20)
}

// NextPrime returns the smallest prime strictly greater than n.
func NextPrime(n int64) int64 {
	if n < 2 {
		return 2
	}
	for c := n + 1; ; c++ {
		if IsPrime(c) {
			return c
		}
	}
}

// PrimesInRange returns the primes p with lo <= p <= hi in increasing order.
func PrimesInRange(lo, hi int) []int {
	if hi < 2 || hi < lo {
		return nil
	}
	composite := make([]bool, hi+1)
	var out []int
	for i := 2; i <= hi; i++ {
		if composite[i] {
			continue
		}
		if i >= lo {
			out = append(out, i)
		}
		for j := i * i; j <= hi; j += i {
			composite[j] = true
		}
	}
	return out
}

var smallPrimes = PrimesInRange(2, 1000)

// PrimeFactors returns the distinct prime divisors of |n| in increasing order.
func PrimeFactors(n *big.Int) []*big.Int {
	m := new(big.Int).Abs(n)
	if m.Cmp(bigOne) <= 0 {
		return nil
	}
	found := map[string]*big.Int{}
	r := new(big.Int)
	for _, sp := range smallPrimes {
		p := big.NewInt(int64(sp))
		if new(big.Int).Mul(p, p).Cmp(m) > 0 {
			break
		}
		for {
			q, rem := new(big.Int).QuoRem(m, p, r)
			if rem.Sign() != 0 {
				break
			}
			found[p.String()] = p
			m = q
		}
	}
	var rec func(x *big.Int)
	rec = func(x *big.Int) {
		if x.Cmp(bigOne) == 0 {
			return
		}
		if x.ProbablyPrime(20) {
			found[x.String()] = x
			return
		}
		d := pollardRho(x)
		rec(d)
		rec(new(big.Int).Quo(x, d))
	}
	rec(m)
	out := make([]*big.Int, 0, len(found))
	for _, p := range found {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Cmp(out[j]) < 0 })
	return out
}

func pollardRho(n *big.Int) *big.Int {
	if n.Bit(0) == 0 {
		return big.NewInt(2)
	}
	for c := int64(1); ; c++ {
		cc := big.NewInt(c)
		step := func(v *big.Int) *big.Int {
			r := new(big.Int).Mul(v, v)
			r.Add(r, cc)
			return r.Mod(r, n)
		}
		x, y, d := big.NewInt(2), big.NewInt(2), big.NewInt(1)
		for d.Cmp(bigOne) == 0 {
			x = step(x)
			y = step(step(y))
			diff := new(big.Int).Sub(x, y)
			d.GCD(nil, nil, diff.Abs(diff), n)
		}
		if d.Cmp(n) != 0 {
			return d
		}
	}
}

// FactorUint64 returns the prime factorisation of n as prime -> exponent.
func FactorUint64(n uint64) map[uint64]int {
	f := map[uint64]int{}
	for p := uint64(2); p*p <= n; p++ {
		for n%p == 0 {
			f[p]++
			n /= p
		}
	}
	if n > 1 {
		f[n]++
	}
	return f
}

// Divisors returns the positive divisors of n in increasing order.
func Divisors(n uint64) []uint64 {
	if n == 0 {
		return nil
	}
	divs := []uint64{1}
	for p, e := range FactorUint64(n) {
		cur := len(divs)
		pk := uint64(1)
		for k := 0; k < e; k++ {
			pk *= p
			for i := 0; i < cur; i++ {
				divs = append(divs, divs[i]*pk)
			}
		}
	}
	sort.Slice(divs, func(i, j int) bool { return divs[i] < divs[j] })
	return divs
}

// Mobius is the Möbius function.
func Mobius(n uint64) int {
	mu := 1
	for _, e := range FactorUint64(n) {
		if e > 1 {
			return 0
		}
		mu = -mu
	}
	return mu
}

// LCMUint64 returns lcm(a, b).
func LCMUint64(a, b uint64) uint64 {
	x, y := a, b
	for y != 0 {
		x, y = y, x%y
	}
	return a / x * b
}
