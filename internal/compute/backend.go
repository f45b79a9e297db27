package compute

import (
	"context"

	"github.com/san-kum/arithdyn/internal/dynamo"
	"github.com/san-kum/arithdyn/internal/height"
	"github.com/san-kum/arithdyn/internal/reduction"
	"github.com/san-kum/arithdyn/internal/sieve"
)

type Backend interface {
	Name() string
	Field() dynamo.Field
	BadPrimes() ([]int64, error)
	ReduceMod(p int64) (*reduction.ModMap, error)
	PossiblePeriods(ctx context.Context, cfg dynamo.Config) (*sieve.Result, error)
	CanonicalHeight(P dynamo.Point, cfg dynamo.Config) (*height.Result, error)
	// PeriodicPoints returns the periodic points defined over the base field.
	PeriodicPoints(ctx context.Context, cfg dynamo.Config) ([]dynamo.Point, error)
	// PreperiodicPoints returns the preperiodic points defined over the base field.
	PreperiodicPoints(ctx context.Context, cfg dynamo.Config) ([]dynamo.Point, error)
}

// Select returns the backend for the field of f.
func Select(f *dynamo.Map) Backend {
	switch f.Field().Kind {
	case dynamo.KindRational:
		return &rationalBackend{f: f}
	case dynamo.KindFinite:
		return &finiteBackend{f: f}
	default:
		return &genericBackend{f: f}
	}
}
