// Package reduction reduces a map modulo a prime of good reduction and
// enumerates its finite dynamics on P^N(F_p).
package reduction

import (
	"fmt"
	"math/big"
	"sort"
	"strconv"
	"strings"

	"github.com/san-kum/arithdyn/internal/arith"
	"github.com/san-kum/arithdyn/internal/dynamo"
	"github.com/san-kum/arithdyn/internal/morphism"
	"github.com/san-kum/arithdyn/internal/orbitgraph"
	"github.com/san-kum/arithdyn/internal/padic"
)

// MaxPrime bounds the primes accepted by Reduce so residues multiply in
// 64 bits and P^N(F_p) stays enumerable.
const MaxPrime = 1 << 31

// Point is a point of P^N(F_p) whose last nonzero coordinate is 1.
type Point []uint64

func (pt Point) Key() string {
	parts := make([]string, len(pt))
	for i, x := range pt {
		parts[i] = strconv.FormatUint(x, 10)
	}
	return strings.Join(parts, ":")
}

func (pt Point) String() string {
	return "(" + strings.ReplaceAll(pt.Key(), ":", " : ") + ")"
}

// Big returns the coordinates as integers.
func (pt Point) Big() []*big.Int {
	out := make([]*big.Int, len(pt))
	for i, x := range pt {
		out[i] = new(big.Int).SetUint64(x)
	}
	return out
}

type modTerm struct {
	exp []int
	c   uint64
}

type modPoly []modTerm

func (q modPoly) eval(x []uint64, p uint64) uint64 {
	var s uint64
	for _, t := range q {
		v := t.c
		for i, e := range t.exp {
			if e > 0 {
				v = arith.MulMod(v, arith.PowMod(x[i], uint64(e), p), p)
			}
		}
		s = arith.AddMod(s, v, p)
	}
	return s
}

// ModMap is a map reduced modulo a prime of good reduction.
type ModMap struct {
	p      uint64
	dim    int
	degree int
	polys  []modPoly
	model  *padic.IntMap
}

// Reduce normalizes f, reduces it modulo p and checks good reduction with
// the Macaulay rank test. A map over F_p reduces only at its own
// characteristic.
func Reduce(f *dynamo.Map, p int64) (*ModMap, error) {
	if p < 2 || p >= MaxPrime || !arith.IsPrime(p) {
		return nil, fmt.Errorf("%w: %d is not a usable prime", dynamo.ErrParameterBounds, p)
	}
	switch f.Field().Kind {
	case dynamo.KindRational:
		good, err := morphism.IsGoodPrime(f, p)
		if err != nil {
			return nil, err
		}
		if !good {
			return nil, &dynamo.PrimeError{Prime: p, Wrapped: dynamo.ErrBadPrime}
		}
	case dynamo.KindFinite:
		if f.Field().Char != p {
			return nil, fmt.Errorf("%w: map over %s reduced at %d", dynamo.ErrParameterBounds, f.Field(), p)
		}
		ok, err := morphism.IsMorphism(f)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, dynamo.ErrNotMorphism
		}
	default:
		return nil, fmt.Errorf("%w: reduction over %s", dynamo.ErrUnsupported, f.Field())
	}
	model, err := padic.FromMap(f)
	if err != nil {
		return nil, err
	}
	pb := big.NewInt(p)
	m := &ModMap{p: uint64(p), dim: f.Dim(), degree: f.Degree(), model: model}
	for _, ip := range model.Polys() {
		var q modPoly
		for _, t := range ip.Terms() {
			c := new(big.Int).Mod(t.Coeff, pb).Uint64()
			if c != 0 {
				q = append(q, modTerm{exp: t.Exp, c: c})
			}
		}
		m.polys = append(m.polys, q)
	}
	return m, nil
}

func (m *ModMap) Prime() uint64 { return m.p }

func (m *ModMap) Dim() int { return m.dim }

func (m *ModMap) Degree() int { return m.degree }

// Normalize scales pt so its last nonzero coordinate is 1.
func (m *ModMap) Normalize(pt Point) (Point, error) {
	last := -1
	for i, x := range pt {
		if x%m.p != 0 {
			last = i
		}
	}
	if last < 0 {
		return nil, dynamo.ErrZeroPoint
	}
	inv := arith.InvMod(pt[last]%m.p, m.p)
	out := make(Point, len(pt))
	for i, x := range pt {
		out[i] = arith.MulMod(x%m.p, inv, m.p)
	}
	return out, nil
}

// Apply returns the normalized image of pt.
func (m *ModMap) Apply(pt Point) (Point, error) {
	if len(pt) != m.dim+1 {
		return nil, dynamo.ErrDimensionMismatch
	}
	out := make(Point, len(m.polys))
	for i, q := range m.polys {
		out[i] = q.eval(pt, m.p)
	}
	img, err := m.Normalize(out)
	if err != nil {
		return nil, fmt.Errorf("%w: %s maps to zero mod %d", dynamo.ErrBadPrime, pt, m.p)
	}
	return img, nil
}

// Points enumerates P^N(F_p): points with last coordinate 1 first, then
// those ending in (1, 0), and so on; earlier coordinates vary fastest.
func (m *ModMap) Points() []Point {
	var out []Point
	n := m.dim + 1
	for t := n - 1; t >= 0; t-- {
		free := make([]uint64, t)
		for {
			pt := make(Point, n)
			copy(pt, free)
			pt[t] = 1
			out = append(out, pt)
			i := 0
			for i < t {
				free[i]++
				if free[i] < m.p {
					break
				}
				free[i] = 0
				i++
			}
			if i == t {
				break
			}
		}
	}
	return out
}

// Graph is the functional digraph of the map on all of P^N(F_p).
func (m *ModMap) Graph() (*orbitgraph.Graph[Point], error) {
	return orbitgraph.Build(m.Points(), Point.Key, m.Apply)
}

// Cycles lists the periodic cycles of the reduced map.
func (m *ModMap) Cycles() ([][]Point, error) {
	g, err := m.Graph()
	if err != nil {
		return nil, err
	}
	var out [][]Point
	for _, c := range g.Cycles() {
		cyc := make([]Point, len(c))
		for i, v := range c {
			cyc[i] = g.Vertex(v)
		}
		out = append(out, cyc)
	}
	return out, nil
}

// OrbitStructure returns the preperiod and period of pt.
func (m *ModMap) OrbitStructure(pt Point) (preperiod, period int, err error) {
	q, err := m.Normalize(pt)
	if err != nil {
		return 0, 0, err
	}
	seen := map[string]int{}
	for i := 0; ; i++ {
		if j, ok := seen[q.Key()]; ok {
			return j, i - j, nil
		}
		seen[q.Key()] = i
		if q, err = m.Apply(q); err != nil {
			return 0, 0, err
		}
	}
}

// Multiplier is the Jacobian of f^n at pt in affine charts, mod p.
func (m *ModMap) Multiplier(pt Point, n int) ([][]uint64, error) {
	l, err := m.model.Multiplier(pt.Big(), n, new(big.Int).SetUint64(m.p), 1)
	if err != nil {
		return nil, err
	}
	out := make([][]uint64, len(l))
	for i := range l {
		out[i] = make([]uint64, len(l[i]))
		for j, x := range l[i] {
			out[i][j] = x.Uint64()
		}
	}
	return out, nil
}

// PointPeriod pairs a representative point with a possible period.
type PointPeriod struct {
	Point  Point
	Period int
}

// PeriodReport lists the possible minimal periods of rational periodic
// points that reduce to cycles of this map.
type PeriodReport struct {
	Prime   uint64
	Periods []int
	Points  []PointPeriod
}

// PossiblePeriods walks every cycle of the reduced map. A rational point
// of period n reduces to a point of period m with n = m, m*r or m*r*p^e,
// where r is the lcm of some set of multiplicative orders of the nonzero
// multiplier eigenvalues; the admissible e depend on N and p.
func (m *ModMap) PossiblePeriods() (*PeriodReport, error) {
	g, err := m.Graph()
	if err != nil {
		return nil, err
	}
	set := map[int]bool{}
	rep := &PeriodReport{Prime: m.p}
	add := func(pt Point, n int) {
		set[n] = true
		rep.Points = append(rep.Points, PointPeriod{Point: pt, Period: n})
	}
	p := int(m.p)
	for _, c := range g.Cycles() {
		pt := g.Vertex(c[0])
		period := len(c)
		add(pt, period)
		mult, err := m.Multiplier(pt, period)
		if err != nil {
			return nil, err
		}
		orders, err := arith.EigenvalueOrders(mult, m.p)
		if err != nil {
			return nil, err
		}
		for _, r := range subsetLCMs(orders) {
			add(pt, period*r)
			if m.dim == 1 {
				if p == 2 || p == 3 {
					add(pt, period*r*p)
				}
				continue
			}
			add(pt, period*r*p)
			if p == 2 {
				add(pt, period*r*4)
				add(pt, period*r*8)
			}
		}
	}
	for n := range set {
		rep.Periods = append(rep.Periods, n)
	}
	sort.Ints(rep.Periods)
	return rep, nil
}

// subsetLCMs returns lcm(S) for every nonempty subset S of orders.
func subsetLCMs(orders []uint64) []int {
	seen := map[uint64]bool{}
	var vals []uint64
	for _, o := range orders {
		next := []uint64{o}
		for _, v := range vals {
			next = append(next, arith.LCMUint64(v, o))
		}
		for _, v := range next {
			if !seen[v] {
				seen[v] = true
				vals = append(vals, v)
			}
		}
	}
	sort.Slice(vals, func(i, j int) bool { return vals[i] < vals[j] })
	out := make([]int, len(vals))
	for i, v := range vals {
		out[i] = int(v)
	}
	return out
}

// ReducePoint maps a rational point to P^N(F_p) through its coprime
// integer representative.
func ReducePoint(pt dynamo.Point, p uint64) (Point, error) {
	pb := new(big.Int).SetUint64(p)
	ints := pt.IntCoords()
	out := make(Point, len(ints))
	for i, x := range ints {
		out[i] = new(big.Int).Mod(x, pb).Uint64()
	}
	m := &ModMap{p: p}
	return m.Normalize(out)
}
