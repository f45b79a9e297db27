package lifting

import (
	"context"
	"fmt"
	"math/big"

	"github.com/san-kum/arithdyn/internal/arith"
	"github.com/san-kum/arithdyn/internal/dynamo"
)

// RationalPreimages returns the rational points P with f(P) = Q for a
// map on P^1 over Q.
func RationalPreimages(f *dynamo.Map, q dynamo.Point) ([]dynamo.Point, error) {
	if f.Field().Kind != dynamo.KindRational {
		return nil, fmt.Errorf("%w: rational preimages over %s", dynamo.ErrUnsupported, f.Field())
	}
	if f.Dim() != 1 {
		return nil, fmt.Errorf("%w: rational preimages on P^%d", dynamo.ErrUnsupported, f.Dim())
	}
	if q.Dim() != 1 {
		return nil, dynamo.ErrDimensionMismatch
	}
	g := binaryForm(f, q)
	if g.IsZero() {
		return nil, fmt.Errorf("%w: every point maps to %s", dynamo.ErrNotMorphism, q)
	}
	d := f.Degree()
	var out []dynamo.Point
	if g.Coeff([]int{d, 0}).Sign() == 0 {
		inf, _ := dynamo.PointFromInts(1, 0)
		out = append(out, inf)
	}
	uni := make(arith.UniPoly, d+1)
	for i := range uni {
		uni[i] = new(big.Rat)
	}
	for _, t := range g.Terms() {
		uni[t.Exp[0]].Set(t.Coeff)
	}
	for _, r := range RationalRoots(uni) {
		pt, err := dynamo.NewPoint(r, big.NewRat(1, 1))
		if err != nil {
			return nil, err
		}
		out = append(out, pt.Normalize())
	}
	verified := out[:0]
	for _, pt := range out {
		img, err := f.Apply(pt)
		if err != nil {
			return nil, err
		}
		if img.Equal(q) {
			verified = append(verified, pt)
		}
	}
	dynamo.SortPoints(verified)
	return verified, nil
}

// binaryForm returns F_0 * Q_1 - F_1 * Q_0 for a map on P^1; its zeros
// are the preimages of Q.
func binaryForm(f *dynamo.Map, q dynamo.Point) arith.Poly {
	ints := q.IntCoords()
	polys := f.Normalized().Polys()
	a := polys[0].Scale(new(big.Rat).SetInt(ints[1]))
	b := polys[1].Scale(new(big.Rat).SetInt(ints[0]))
	return a.Sub(b)
}

// AllRationalPreimages returns every rational point with some iterate in
// points. The starting points appear only if they are themselves
// preimages of the set.
func AllRationalPreimages(f *dynamo.Map, points []dynamo.Point) ([]dynamo.Point, error) {
	work := append([]dynamo.Point{}, points...)
	seen := map[string]bool{}
	var out []dynamo.Point
	for len(work) > 0 {
		p := work[len(work)-1]
		work = work[:len(work)-1]
		pre, err := RationalPreimages(f, p)
		if err != nil {
			return nil, err
		}
		for _, q := range pre {
			if !seen[q.Key()] {
				seen[q.Key()] = true
				out = append(out, q)
				work = append(work, q)
			}
		}
	}
	dynamo.SortPoints(out)
	return out, nil
}

// RationalPreperiodicPoints returns the rational preperiodic points of a
// morphism of P^1 over Q: the rational periodic points together with all
// their rational preimages.
func RationalPreperiodicPoints(ctx context.Context, f *dynamo.Map, cfg dynamo.Config) ([]dynamo.Point, error) {
	if f.Dim() != 1 {
		return nil, fmt.Errorf("%w: rational preperiodic points on P^%d", dynamo.ErrUnsupported, f.Dim())
	}
	periodic, err := RationalPeriodicPoints(ctx, f, cfg)
	if err != nil {
		return nil, err
	}
	if len(periodic) == 0 {
		return periodic, nil
	}
	return AllRationalPreimages(f, periodic)
}

// ConnectedComponent returns the points joined to P by forward images
// and rational preimages, at most levels steps away; levels 0 means no
// limit, which terminates only for preperiodic P. P comes first, the rest
// in discovery order.
func ConnectedComponent(f *dynamo.Map, p dynamo.Point, levels int) ([]dynamo.Point, error) {
	if levels < 0 {
		return nil, fmt.Errorf("%w: levels %d", dynamo.ErrParameterBounds, levels)
	}
	p = p.Normalize()
	out := []dynamo.Point{p}
	seen := map[string]bool{p.Key(): true}
	frontier := []dynamo.Point{p}
	for level := 1; len(frontier) > 0 && (levels == 0 || level <= levels); level++ {
		var next []dynamo.Point
		for _, q := range frontier {
			img, err := f.Apply(q)
			if err != nil {
				return nil, err
			}
			pre, err := RationalPreimages(f, q)
			if err != nil {
				return nil, err
			}
			for _, r := range append([]dynamo.Point{img.Normalize()}, pre...) {
				if !seen[r.Key()] {
					seen[r.Key()] = true
					out = append(out, r)
					next = append(next, r)
				}
			}
		}
		frontier = next
	}
	return out, nil
}
