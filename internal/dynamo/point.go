package dynamo

import (
	"fmt"
	"math"
	"math/big"
	"sort"
	"strings"

	"github.com/san-kum/arithdyn/internal/arith"
)

// Point is a point of P^N with rational coordinates. The zero vector is
// not a point.
type Point struct {
	coords []*big.Rat
}

// NewPoint copies coords into a Point.
func NewPoint(coords ...*big.Rat) (Point, error) {
	if len(coords) < 2 {
		return Point{}, fmt.Errorf("%w: need at least 2 coordinates, got %d", ErrDimensionMismatch, len(coords))
	}
	c := make([]*big.Rat, len(coords))
	zero := true
	for i, x := range coords {
		c[i] = new(big.Rat).Set(x)
		if x.Sign() != 0 {
			zero = false
		}
	}
	if zero {
		return Point{}, ErrZeroPoint
	}
	return Point{coords: c}, nil
}

func PointFromInts(xs ...int64) (Point, error) {
	c := make([]*big.Rat, len(xs))
	for i, x := range xs {
		c[i] = big.NewRat(x, 1)
	}
	return NewPoint(c...)
}

func PointFromBig(xs []*big.Int) (Point, error) {
	c := make([]*big.Rat, len(xs))
	for i, x := range xs {
		c[i] = new(big.Rat).SetInt(x)
	}
	return NewPoint(c...)
}

// ParsePoint reads coordinates such as "3", "-1/2".
func ParsePoint(coords []string) (Point, error) {
	c := make([]*big.Rat, len(coords))
	for i, s := range coords {
		r, err := arith.ParseRat(strings.TrimSpace(s))
		if err != nil {
			return Point{}, err
		}
		c[i] = r
	}
	return NewPoint(c...)
}

// Dim is the projective dimension N.
func (p Point) Dim() int { return len(p.coords) - 1 }

func (p Point) Coord(i int) *big.Rat { return new(big.Rat).Set(p.coords[i]) }

func (p Point) Coords() []*big.Rat {
	out := make([]*big.Rat, len(p.coords))
	for i, c := range p.coords {
		out[i] = new(big.Rat).Set(c)
	}
	return out
}

// IntCoords returns coprime integer coordinates whose last nonzero entry
// is positive.
func (p Point) IntCoords() []*big.Int {
	l := big.NewInt(1)
	for _, c := range p.coords {
		l = arith.LCM(l, c.Denom())
	}
	out := make([]*big.Int, len(p.coords))
	g := new(big.Int)
	last := 0
	for i, c := range p.coords {
		v := new(big.Int).Mul(c.Num(), new(big.Int).Quo(l, c.Denom()))
		out[i] = v
		g = arith.GCD(g, v)
		if v.Sign() != 0 {
			last = i
		}
	}
	if out[last].Sign() < 0 {
		g.Neg(g)
	}
	for i := range out {
		out[i].Quo(out[i], g)
	}
	return out
}

// Normalize returns the canonical representative of p: coprime integer
// coordinates, last nonzero coordinate positive.
func (p Point) Normalize() Point {
	ints := p.IntCoords()
	c := make([]*big.Rat, len(ints))
	for i, x := range ints {
		c[i] = new(big.Rat).SetInt(x)
	}
	return Point{coords: c}
}

// Key is a canonical string identifying the projective point.
func (p Point) Key() string {
	ints := p.IntCoords()
	parts := make([]string, len(ints))
	for i, x := range ints {
		parts[i] = x.String()
	}
	return strings.Join(parts, ":")
}

// Equal compares projective points.
func (p Point) Equal(q Point) bool {
	if len(p.coords) != len(q.coords) {
		return false
	}
	for i := range p.coords {
		for j := i + 1; j < len(p.coords); j++ {
			a := new(big.Rat).Mul(p.coords[i], q.coords[j])
			b := new(big.Rat).Mul(p.coords[j], q.coords[i])
			if a.Cmp(b) != 0 {
				return false
			}
		}
	}
	return true
}

// Scale multiplies every coordinate by the nonzero c.
func (p Point) Scale(c *big.Rat) Point {
	out := make([]*big.Rat, len(p.coords))
	for i, x := range p.coords {
		out[i] = new(big.Rat).Mul(x, c)
	}
	return Point{coords: out}
}

// NaiveHeight is log max |x_i| over the coprime integer representative.
func (p Point) NaiveHeight() float64 {
	h := math.Inf(-1)
	for _, x := range p.IntCoords() {
		if x.Sign() != 0 {
			h = math.Max(h, arith.LogAbsInt(x))
		}
	}
	return h
}

func (p Point) String() string {
	parts := make([]string, len(p.coords))
	for i, x := range p.coords {
		parts[i] = x.RatString()
	}
	return "(" + strings.Join(parts, " : ") + ")"
}

// Compare orders points by their affine coordinates in the chart of the
// last nonzero coordinate, so (-1/2 : 1) < (1 : 0) < (3/2 : 1).
func Compare(p, q Point) int {
	a, b := p.chartCoords(), q.chartCoords()
	for i := range a {
		if i >= len(b) {
			return 1
		}
		if c := a[i].Cmp(b[i]); c != 0 {
			return c
		}
	}
	return len(a) - len(b)
}

func (p Point) chartCoords() []*big.Rat {
	last := len(p.coords) - 1
	for last > 0 && p.coords[last].Sign() == 0 {
		last--
	}
	out := make([]*big.Rat, len(p.coords))
	for i, x := range p.coords {
		out[i] = new(big.Rat).Quo(x, p.coords[last])
	}
	return out
}

// SortPoints sorts pts in place by Compare.
func SortPoints(pts []Point) {
	sort.Slice(pts, func(i, j int) bool { return Compare(pts[i], pts[j]) < 0 })
}
