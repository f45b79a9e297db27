package compute

import (
	"context"
	"fmt"

	"github.com/san-kum/arithdyn/internal/dynamo"
	"github.com/san-kum/arithdyn/internal/height"
	"github.com/san-kum/arithdyn/internal/reduction"
	"github.com/san-kum/arithdyn/internal/sieve"
)

type genericBackend struct {
	f *dynamo.Map
}

func (b *genericBackend) Name() string        { return "generic" }
func (b *genericBackend) Field() dynamo.Field { return b.f.Field() }

func (b *genericBackend) unsupported(op string) error {
	return fmt.Errorf("%w: %s over %s", dynamo.ErrUnsupported, op, b.f.Field())
}

func (b *genericBackend) BadPrimes() ([]int64, error) {
	return nil, b.unsupported("bad primes")
}

func (b *genericBackend) ReduceMod(p int64) (*reduction.ModMap, error) {
	return nil, b.unsupported("reduction")
}

func (b *genericBackend) PossiblePeriods(ctx context.Context, cfg dynamo.Config) (*sieve.Result, error) {
	return nil, b.unsupported("possible periods")
}

func (b *genericBackend) CanonicalHeight(P dynamo.Point, cfg dynamo.Config) (*height.Result, error) {
	return nil, b.unsupported("canonical height")
}

func (b *genericBackend) PeriodicPoints(ctx context.Context, cfg dynamo.Config) ([]dynamo.Point, error) {
	return nil, b.unsupported("periodic points")
}

func (b *genericBackend) PreperiodicPoints(ctx context.Context, cfg dynamo.Config) ([]dynamo.Point, error) {
	return nil, b.unsupported("preperiodic points")
}
