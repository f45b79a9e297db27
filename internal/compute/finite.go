package compute

import (
	"context"
	"fmt"
	"sort"

	"github.com/san-kum/arithdyn/internal/dynamo"
	"github.com/san-kum/arithdyn/internal/height"
	"github.com/san-kum/arithdyn/internal/reduction"
	"github.com/san-kum/arithdyn/internal/sieve"
)

// finiteBackend answers by enumerating P^N(F_p), so periods are exact
// rather than possible.
type finiteBackend struct {
	f *dynamo.Map
}

func (b *finiteBackend) Name() string        { return "finite" }
func (b *finiteBackend) Field() dynamo.Field { return b.f.Field() }

func (b *finiteBackend) BadPrimes() ([]int64, error) {
	return []int64{}, nil
}

func (b *finiteBackend) ReduceMod(p int64) (*reduction.ModMap, error) {
	return reduction.Reduce(b.f, p)
}

func (b *finiteBackend) self() (*reduction.ModMap, error) {
	return reduction.Reduce(b.f, b.f.Field().Char)
}

func (b *finiteBackend) PossiblePeriods(ctx context.Context, cfg dynamo.Config) (*sieve.Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m, err := b.self()
	if err != nil {
		return nil, err
	}
	cycles, err := m.Cycles()
	if err != nil {
		return nil, err
	}
	set := map[int]bool{}
	for _, c := range cycles {
		set[len(c)] = true
	}
	periods := make([]int, 0, len(set))
	for n := range set {
		periods = append(periods, n)
	}
	sort.Ints(periods)
	char := b.f.Field().Char
	cfg.Log().Debug("enumerated cycles", "field", b.f.Field(), "cycles", len(cycles), "periods", periods)
	return &sieve.Result{
		Periods:  periods,
		Primes:   []int64{char},
		PerPrime: map[int64][]int{char: periods},
	}, nil
}

func (b *finiteBackend) CanonicalHeight(P dynamo.Point, cfg dynamo.Config) (*height.Result, error) {
	return nil, fmt.Errorf("%w: canonical height over %s", dynamo.ErrUnsupported, b.f.Field())
}

func (b *finiteBackend) PeriodicPoints(ctx context.Context, cfg dynamo.Config) ([]dynamo.Point, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m, err := b.self()
	if err != nil {
		return nil, err
	}
	cycles, err := m.Cycles()
	if err != nil {
		return nil, err
	}
	var out []dynamo.Point
	for _, c := range cycles {
		for _, pt := range c {
			q, err := dynamo.PointFromBig(pt.Big())
			if err != nil {
				return nil, err
			}
			out = append(out, q)
		}
	}
	dynamo.SortPoints(out)
	return out, nil
}

// PreperiodicPoints is all of P^N(F_p).
func (b *finiteBackend) PreperiodicPoints(ctx context.Context, cfg dynamo.Config) ([]dynamo.Point, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m, err := b.self()
	if err != nil {
		return nil, err
	}
	pts := m.Points()
	out := make([]dynamo.Point, 0, len(pts))
	for _, pt := range pts {
		q, err := dynamo.PointFromBig(pt.Big())
		if err != nil {
			return nil, err
		}
		out = append(out, q)
	}
	dynamo.SortPoints(out)
	return out, nil
}
