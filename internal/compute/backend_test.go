package compute

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/san-kum/arithdyn/internal/dynamo"
)

func mustMap(t *testing.T, field dynamo.Field, exprs ...string) *dynamo.Map {
	t.Helper()
	f, err := dynamo.ParseMap(field, []string{"x", "y", "z"}[:len(exprs)], exprs...)
	if err != nil {
		t.Fatalf("parse map failed: %v", err)
	}
	return f
}

func TestSelect(t *testing.T) {
	tests := []struct {
		field dynamo.Field
		name  string
	}{
		{dynamo.Rational(), "rational"},
		{dynamo.Finite(5), "finite"},
		{dynamo.Generic("QQ(i)"), "generic"},
	}
	for _, tt := range tests {
		b := Select(mustMap(t, tt.field, "x^2", "y^2"))
		if b.Name() != tt.name {
			t.Errorf("field %s: expected backend %s, got %s", tt.field, tt.name, b.Name())
		}
		if b.Field() != tt.field {
			t.Errorf("expected field %s, got %s", tt.field, b.Field())
		}
	}
}

func TestRationalBackend(t *testing.T) {
	b := Select(mustMap(t, dynamo.Rational(), "x^2 - 29/16*y^2", "y^2"))
	res, err := b.PossiblePeriods(context.Background(), dynamo.DefaultConfig())
	if err != nil {
		t.Fatalf("periods failed: %v", err)
	}
	if !reflect.DeepEqual(res.Periods, []int{1, 3}) {
		t.Errorf("expected periods [1 3], got %v", res.Periods)
	}
	bad, err := b.BadPrimes()
	if err != nil {
		t.Fatalf("bad primes failed: %v", err)
	}
	if !reflect.DeepEqual(bad, []int64{2}) {
		t.Errorf("expected bad primes [2], got %v", bad)
	}
	if _, err := b.ReduceMod(2); !errors.Is(err, dynamo.ErrBadPrime) {
		t.Errorf("expected ErrBadPrime, got %v", err)
	}
}

func TestFiniteBackend(t *testing.T) {
	b := Select(mustMap(t, dynamo.Finite(5), "x^2", "y^2"))
	ctx := context.Background()
	cfg := dynamo.DefaultConfig()

	res, err := b.PossiblePeriods(ctx, cfg)
	if err != nil {
		t.Fatalf("periods failed: %v", err)
	}
	if !reflect.DeepEqual(res.Periods, []int{1}) {
		t.Errorf("expected periods [1], got %v", res.Periods)
	}

	pts, err := b.PeriodicPoints(ctx, cfg)
	if err != nil {
		t.Fatalf("periodic points failed: %v", err)
	}
	var keys []string
	for _, p := range pts {
		keys = append(keys, p.Key())
	}
	if want := []string{"0:1", "1:0", "1:1"}; !reflect.DeepEqual(keys, want) {
		t.Errorf("expected %v, got %v", want, keys)
	}

	all, err := b.PreperiodicPoints(ctx, cfg)
	if err != nil {
		t.Fatalf("preperiodic points failed: %v", err)
	}
	if len(all) != 6 {
		t.Errorf("expected all 6 points of P^1(F_5), got %d", len(all))
	}

	if _, err := b.CanonicalHeight(pts[0], cfg); !errors.Is(err, dynamo.ErrUnsupported) {
		t.Errorf("expected ErrUnsupported, got %v", err)
	}
	if _, err := b.ReduceMod(7); !errors.Is(err, dynamo.ErrParameterBounds) {
		t.Errorf("expected ErrParameterBounds, got %v", err)
	}
}

func TestGenericBackendUnsupported(t *testing.T) {
	b := Select(mustMap(t, dynamo.Generic("QQ(i)"), "x^2", "y^2"))
	ctx := context.Background()
	cfg := dynamo.DefaultConfig()
	p, _ := dynamo.PointFromInts(1, 1)

	checks := map[string]error{}
	_, checks["bad primes"] = b.BadPrimes()
	_, checks["reduce"] = b.ReduceMod(3)
	_, checks["periods"] = b.PossiblePeriods(ctx, cfg)
	_, checks["height"] = b.CanonicalHeight(p, cfg)
	_, checks["periodic"] = b.PeriodicPoints(ctx, cfg)
	_, checks["preperiodic"] = b.PreperiodicPoints(ctx, cfg)
	for op, err := range checks {
		if !errors.Is(err, dynamo.ErrUnsupported) {
			t.Errorf("%s: expected ErrUnsupported, got %v", op, err)
		}
	}
}
