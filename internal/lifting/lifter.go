// Package lifting recovers rational periodic and preperiodic points from
// their reductions modulo a prime.
//
// A cycle of the reduced map is lifted p-adically (Hensel steps where
// f^n - id has an invertible Jacobian, exhaustive one-digit extension
// where it does not) up to a precision at which a lattice-reduction step
// must find the rational point if one exists. Every reconstructed point
// is verified by exact iteration before it is returned.
package lifting

import (
	"math"
	"math/big"

	"github.com/charmbracelet/log"

	"github.com/san-kum/arithdyn/internal/arith"
	"github.com/san-kum/arithdyn/internal/dynamo"
	"github.com/san-kum/arithdyn/internal/lattice"
	"github.com/san-kum/arithdyn/internal/padic"
	"github.com/san-kum/arithdyn/internal/reduction"
)

// Candidate is a point modulo p^Precision that is periodic with claimed
// period Period under the reduced map.
type Candidate struct {
	Point     []*big.Int
	Period    int
	Precision int
}

// CandidateFromMod wraps a point of P^N(F_p) at precision 1.
func CandidateFromMod(pt reduction.Point, period int) Candidate {
	return Candidate{Point: pt.Big(), Period: period, Precision: 1}
}

// Lifted is a verified rational periodic point with its exact minimal
// period.
type Lifted struct {
	Point  dynamo.Point
	Period int
}

// Lifter lifts candidates for one integral model and one prime.
type Lifter struct {
	f        *padic.IntMap
	p        *big.Int
	target   int
	logBound float64
	logger   *log.Logger
}

// NewLifter prepares lifting modulo powers of p. Rational points of
// interest have coprime coordinates bounded by exp(logBound); the target
// precision L is the least one at which LLL is guaranteed to expose them:
// L = trunc(log(2^(N/2+1) sqrt(N+1) B^2) / log p + 1).
func NewLifter(f *padic.IntMap, p int64, logBound float64, logger *log.Logger) *Lifter {
	if logger == nil {
		logger = log.Default()
	}
	n := float64(f.Dim())
	num := (n/2+1)*math.Ln2 + 0.5*math.Log(n+1) + 2*logBound
	target := int(num/math.Log(float64(p)) + 1)
	if target < 1 {
		target = 1
	}
	return &Lifter{f: f, p: big.NewInt(p), target: target, logBound: logBound, logger: logger}
}

// Target is the p-adic precision reached before reconstruction.
func (l *Lifter) Target() int { return l.target }

// Lift processes every candidate and returns the verified rational
// points, deduplicated. Candidates that do not lift are dropped.
func (l *Lifter) Lift(cands []Candidate) []Lifted {
	queue := make([]Candidate, 0, len(cands))
	for i := len(cands) - 1; i >= 0; i-- {
		queue = append(queue, cands[i])
	}
	var out []Lifted
	seen := map[string]bool{}
	for len(queue) > 0 {
		c := queue[len(queue)-1]
		queue = queue[:len(queue)-1]
		lifted, branches, ok := l.liftOne(c)
		queue = append(queue, branches...)
		if !ok {
			continue
		}
		key := lifted.Point.Key()
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, lifted)
	}
	return out
}

// liftOne runs one candidate to the target precision. Extra branches
// found on the way are returned for the caller's queue.
func (l *Lifter) liftOne(c Candidate) (Lifted, []Candidate, bool) {
	var branches []Candidate
	t := make([]*big.Int, len(c.Point))
	copy(t, c.Point)
	k := c.Precision
	n := c.Period
	for k < l.target {
		chart := padic.LastUnit(t, l.p)
		if chart < 0 {
			return Lifted{}, branches, false
		}
		mod := arith.PowInt(l.p, k)
		t, _ = padic.ScaleTo(t, chart, mod)
		jac, err := l.f.Multiplier(t, n, l.p, k)
		if err != nil {
			l.logger.Debug("dropping candidate", "point", t, "err", err)
			return Lifted{}, branches, false
		}
		for i := range jac {
			jac[i][i] = new(big.Int).Sub(jac[i][i], big.NewInt(1))
			jac[i][i].Mod(jac[i][i], mod)
		}
		if inv, ok := arith.InverseMod(jac, l.p, mod); ok {
			next, ok := l.hensel(t, n, k, chart, inv)
			if !ok {
				l.logger.Debug("not periodic to precision", "point", t, "k", k)
				return Lifted{}, branches, false
			}
			k = min(2*k, l.target)
			t = reduceAll(next, arith.PowInt(l.p, k))
			continue
		}
		survivors := l.branch(t, n, k, chart)
		if len(survivors) == 0 {
			return Lifted{}, branches, false
		}
		l.logger.Debug("branching", "period", n, "k", k, "survivors", len(survivors))
		for _, s := range survivors[1:] {
			branches = append(branches, Candidate{Point: s, Period: n, Precision: k + 1})
		}
		t = survivors[0]
		k++
	}
	lifted, ok := l.reconstruct(t, n)
	return lifted, branches, ok
}

// hensel performs one Newton step for the fixed-point equation of the
// chart map of f^n: T' = T - (J - I)^(-1) (f^n(T) - T), doubling the
// precision from p^k to p^(2k).
func (l *Lifter) hensel(t []*big.Int, n, k, chart int, inv [][]*big.Int) ([]*big.Int, bool) {
	pk := arith.PowInt(l.p, k)
	mod2 := new(big.Int).Mul(pk, pk)
	s, ok := padic.ScaleTo(l.f.IterateMod(t, n, mod2), chart, mod2)
	if !ok {
		return nil, false
	}
	w := make([]*big.Int, 0, len(t)-1)
	for i := range t {
		if i == chart {
			continue
		}
		diff := new(big.Int).Sub(s[i], t[i])
		diff.Mod(diff, mod2)
		q, r := new(big.Int).QuoRem(diff, pk, new(big.Int))
		if r.Sign() != 0 {
			return nil, false
		}
		w = append(w, q)
	}
	delta := arith.MatVecMod(inv, w, pk)
	out := make([]*big.Int, len(t))
	j := 0
	for i := range t {
		out[i] = new(big.Int).Set(t[i])
		if i == chart {
			continue
		}
		step := new(big.Int).Neg(delta[j])
		step.Mul(step, pk)
		out[i].Add(out[i], step).Mod(out[i], mod2)
		j++
	}
	return out, true
}

// branch tries every extension of t by one p-adic digit in the non-chart
// coordinates and keeps those still periodic modulo p^(k+1).
func (l *Lifter) branch(t []*big.Int, n, k, chart int) [][]*big.Int {
	pk := arith.PowInt(l.p, k)
	mod1 := new(big.Int).Mul(pk, l.p)
	p := l.p.Int64()
	digits := make([]int64, len(t)-1)
	var out [][]*big.Int
	for {
		cand := make([]*big.Int, len(t))
		j := 0
		for i := range t {
			cand[i] = new(big.Int).Set(t[i])
			if i == chart {
				continue
			}
			cand[i].Add(cand[i], new(big.Int).Mul(big.NewInt(digits[j]), pk))
			cand[i].Mod(cand[i], mod1)
			j++
		}
		if padic.ProjEqualMod(l.f.IterateMod(cand, n, mod1), cand, mod1) {
			out = append(out, cand)
		}
		i := 0
		for i < len(digits) {
			digits[i]++
			if digits[i] < p {
				break
			}
			digits[i] = 0
			i++
		}
		if i == len(digits) {
			return out
		}
	}
}

// reconstruct finds the short vector of the lattice spanned by t and
// p^L e_i (i != chart), checks it against the height bound and verifies
// periodicity exactly.
func (l *Lifter) reconstruct(t []*big.Int, n int) (Lifted, bool) {
	chart := padic.LastUnit(t, l.p)
	if chart < 0 {
		return Lifted{}, false
	}
	mod := arith.PowInt(l.p, l.target)
	t, _ = padic.ScaleTo(t, chart, mod)
	basis := [][]*big.Int{t}
	for i := range t {
		if i == chart {
			continue
		}
		row := make([]*big.Int, len(t))
		for j := range row {
			row[j] = new(big.Int)
		}
		row[i].Set(mod)
		basis = append(basis, row)
	}
	red, err := lattice.LLL(basis)
	if err != nil {
		return Lifted{}, false
	}
	q := red[0]
	g := arith.GCDAll(q)
	if g.Sign() == 0 {
		return Lifted{}, false
	}
	limit := l.logBound + arith.LogAbsInt(g) + 1e-9
	for _, x := range q {
		if x.Sign() != 0 && arith.LogAbsInt(x) > limit {
			return Lifted{}, false
		}
	}
	pt, err := dynamo.PointFromBig(q)
	if err != nil {
		return Lifted{}, false
	}
	return l.verify(pt, n)
}

// verify checks f^j(P) = P for some j <= n; the least such j is the
// period.
func (l *Lifter) verify(pt dynamo.Point, n int) (Lifted, bool) {
	start := pt.IntCoords()
	q := start
	for j := 1; j <= n; j++ {
		q = primitive(l.f.Eval(q))
		if projEqual(q, start) {
			return Lifted{Point: pt.Normalize(), Period: j}, true
		}
	}
	l.logger.Debug("reconstruction is not periodic", "point", pt, "period", n)
	return Lifted{}, false
}

// ReducesTo reports whether pt reduces modulo p to the point of the
// candidate, the round trip every lifted point satisfies.
func (l *Lifter) ReducesTo(pt dynamo.Point, c Candidate) bool {
	r, err := reduction.ReducePoint(pt, l.p.Uint64())
	if err != nil {
		return false
	}
	return padic.ProjEqualMod(r.Big(), c.Point, l.p)
}

func reduceAll(x []*big.Int, m *big.Int) []*big.Int {
	out := make([]*big.Int, len(x))
	for i, v := range x {
		out[i] = new(big.Int).Mod(v, m)
	}
	return out
}

func primitive(x []*big.Int) []*big.Int {
	g := arith.GCDAll(x)
	if g.Sign() == 0 || g.Cmp(big.NewInt(1)) == 0 {
		return x
	}
	out := make([]*big.Int, len(x))
	for i, v := range x {
		out[i] = new(big.Int).Quo(v, g)
	}
	return out
}

func projEqual(a, b []*big.Int) bool {
	t, u := new(big.Int), new(big.Int)
	for i := range a {
		for j := i + 1; j < len(a); j++ {
			if t.Mul(a[i], b[j]).Cmp(u.Mul(a[j], b[i])) != 0 {
				return false
			}
		}
	}
	return true
}
