package compute

import (
	"context"

	"github.com/san-kum/arithdyn/internal/dynamo"
	"github.com/san-kum/arithdyn/internal/height"
	"github.com/san-kum/arithdyn/internal/lifting"
	"github.com/san-kum/arithdyn/internal/morphism"
	"github.com/san-kum/arithdyn/internal/reduction"
	"github.com/san-kum/arithdyn/internal/sieve"
)

type rationalBackend struct {
	f *dynamo.Map
}

func (b *rationalBackend) Name() string        { return "rational" }
func (b *rationalBackend) Field() dynamo.Field { return b.f.Field() }

func (b *rationalBackend) BadPrimes() ([]int64, error) {
	return morphism.BadPrimes(b.f)
}

func (b *rationalBackend) ReduceMod(p int64) (*reduction.ModMap, error) {
	return reduction.Reduce(b.f, p)
}

func (b *rationalBackend) PossiblePeriods(ctx context.Context, cfg dynamo.Config) (*sieve.Result, error) {
	return sieve.PossiblePeriods(ctx, b.f, cfg)
}

func (b *rationalBackend) CanonicalHeight(P dynamo.Point, cfg dynamo.Config) (*height.Result, error) {
	return height.CanonicalHeight(b.f, P, cfg)
}

func (b *rationalBackend) PeriodicPoints(ctx context.Context, cfg dynamo.Config) ([]dynamo.Point, error) {
	return lifting.RationalPeriodicPoints(ctx, b.f, cfg)
}

func (b *rationalBackend) PreperiodicPoints(ctx context.Context, cfg dynamo.Config) ([]dynamo.Point, error) {
	return lifting.RationalPreperiodicPoints(ctx, b.f, cfg)
}
