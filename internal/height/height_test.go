package height

import (
	"errors"
	"math"
	"math/big"
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

func mustPoint(t *testing.T, xs ...int64) dynamo.Point {
	t.Helper()
	p, err := dynamo.PointFromInts(xs...)
	if err != nil {
		t.Fatalf("point failed: %v", err)
	}
	return p
}

func bounded(err float64) dynamo.Config {
	cfg := dynamo.DefaultConfig()
	cfg.ErrorBound = err
	return cfg
}

func TestHeightDifferenceBound(t *testing.T) {
	f := mustMap(t, dynamo.Rational(), "x^2 + y^2", "x*y")
	c, err := HeightDifferenceBound(f)
	if err != nil {
		t.Fatalf("bound failed: %v", err)
	}
	if math.Abs(c-1.38629436111989) > 1e-9 {
		t.Errorf("expected log 4, got %.14f", c)
	}

	g := mustMap(t, dynamo.Rational(), "4*x^2 + 100*y^2", "210*x*y", "10000*z^2")
	c, err = HeightDifferenceBound(g)
	if err != nil {
		t.Fatalf("bound failed: %v", err)
	}
	if c < 10.3089526606443-1e-9 || math.IsInf(c, 0) || math.IsNaN(c) {
		t.Errorf("expected finite C >= log 30000, got %f", c)
	}
}

func TestHeightDifferenceBoundNotMorphism(t *testing.T) {
	f := mustMap(t, dynamo.Rational(), "x^2", "x*y")
	if _, err := HeightDifferenceBound(f); !errors.Is(err, dynamo.ErrNotMorphism) {
		t.Errorf("expected ErrNotMorphism, got %v", err)
	}
}

func TestPeriodicPointHasZeroHeight(t *testing.T) {
	f := mustMap(t, dynamo.Rational(), "x^2 - 29/16*y^2", "y^2")
	for _, xs := range [][]int64{{-1, 4}, {-7, 4}, {5, 4}, {1, 0}} {
		h, err := CanonicalHeight(f, mustPoint(t, xs...), bounded(0.01))
		if err != nil {
			t.Fatalf("height of %v failed: %v", xs, err)
		}
		if h.Value < 0 || h.Value > 0.01 {
			t.Errorf("expected height in [0, 0.01] for %v, got %f", xs, h.Value)
		}
		if !h.Bounded || h.ErrorBound != 0.01 {
			t.Errorf("expected bounded result, got %+v", h)
		}
	}
}

func TestHeightScaleInvariant(t *testing.T) {
	f := mustMap(t, dynamo.Rational(), "x^2 - 29/16*y^2", "y^2")
	a, _ := dynamo.NewPoint(big.NewRat(1, 3), big.NewRat(1, 1))
	b := a.Scale(big.NewRat(-14, 5))

	ha, err := CanonicalHeight(f, a, bounded(0.001))
	if err != nil {
		t.Fatalf("height failed: %v", err)
	}
	hb, err := CanonicalHeight(f, b, bounded(0.001))
	if err != nil {
		t.Fatalf("height failed: %v", err)
	}
	if math.Abs(ha.Value-hb.Value) > 1e-12 {
		t.Errorf("expected equal heights, got %f and %f", ha.Value, hb.Value)
	}
	if ha.Value <= 0.001 {
		t.Errorf("expected positive height for a wandering point, got %f", ha.Value)
	}
}

func TestCanonicalHeightPowerMap(t *testing.T) {
	f := mustMap(t, dynamo.Rational(), "x^2", "y^2", "z^2")
	h, err := CanonicalHeight(f, mustPoint(t, 2, 1, 1), bounded(0.01))
	if err != nil {
		t.Fatalf("height failed: %v", err)
	}
	if math.Abs(h.Value-math.Ln2) > 1e-9 {
		t.Errorf("expected log 2, got %f", h.Value)
	}
	if len(h.Local) != 1 {
		t.Errorf("expected only the archimedean place, got %v", h.Local)
	}
	if len(h.Trace) != h.Iterations+1 {
		t.Errorf("expected %d partial sums, got %d", h.Iterations+1, len(h.Trace))
	}
}

func TestCanonicalHeightWithBadPrime(t *testing.T) {
	f := mustMap(t, dynamo.Rational(), "x^2 - 29/16*z^2", "y^2", "z^2")
	cfg := bounded(0.01)
	cfg.Precision = 256
	h, err := CanonicalHeight(f, mustPoint(t, -1, 4, 4), cfg)
	if err != nil {
		t.Fatalf("height failed: %v", err)
	}
	if math.Abs(h.Value) > 0.01 {
		t.Errorf("expected height near 0, got %f", h.Value)
	}
	if len(h.Local) != 2 || h.Local[1].Place != dynamo.PrimePlace(2) {
		t.Errorf("expected places inf and 2, got %v", h.Local)
	}
}

func TestGreenFunctionPrecisionExhausted(t *testing.T) {
	f := mustMap(t, dynamo.Rational(), "x^2 - 29/16*z^2", "y^2", "z^2")
	cfg := dynamo.DefaultConfig()
	cfg.Iterations = 10
	cfg.Precision = 5
	_, err := GreenFunction(f, mustPoint(t, -1, 4, 4), dynamo.PrimePlace(2), cfg)
	if !errors.Is(err, dynamo.ErrPrecision) {
		t.Fatalf("expected ErrPrecision, got %v", err)
	}
	var pe *dynamo.PrecisionError
	if !errors.As(err, &pe) || pe.Place != dynamo.PrimePlace(2) {
		t.Errorf("expected PrecisionError at p=2, got %v", err)
	}
}

func TestGreenFunctionFixedIterations(t *testing.T) {
	f := mustMap(t, dynamo.Rational(), "x^2", "y^2")
	cfg := dynamo.DefaultConfig()
	cfg.Iterations = 4
	r, err := GreenFunction(f, mustPoint(t, 3, 1), dynamo.Archimedean(), cfg)
	if err != nil {
		t.Fatalf("green function failed: %v", err)
	}
	if r.Bounded || r.ErrorBound != 0 || r.Iterations != 4 {
		t.Errorf("expected unbounded 4-step result, got %+v", r)
	}
	if math.Abs(r.Value-math.Log(3)) > 1e-12 {
		t.Errorf("expected log 3, got %f", r.Value)
	}
}

func TestGreenFunctionErrors(t *testing.T) {
	f := mustMap(t, dynamo.Rational(), "x^2", "y^2")
	P := mustPoint(t, 1, 1)
	tests := []struct {
		name  string
		place dynamo.Place
		cfg   dynamo.Config
		want  error
	}{
		{"composite place", dynamo.PrimePlace(4), dynamo.DefaultConfig(), dynamo.ErrInvalidPlace},
		{"second embedding", dynamo.Place{Index: 1}, dynamo.DefaultConfig(), dynamo.ErrInvalidPlace},
		{"conflicting options", dynamo.Archimedean(), dynamo.Config{ErrorBound: 0.1, Iterations: 3}, dynamo.ErrConflictingOptions},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := GreenFunction(f, P, tt.place, tt.cfg); !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}

	g := mustMap(t, dynamo.Finite(7), "x^2", "y^2")
	if _, err := CanonicalHeight(g, P, dynamo.DefaultConfig()); !errors.Is(err, dynamo.ErrUnsupported) {
		t.Errorf("expected ErrUnsupported, got %v", err)
	}
}

func TestIsPreperiodic(t *testing.T) {
	f := mustMap(t, dynamo.Rational(), "x^2 - 29/16*y^2", "y^2")
	tests := []struct {
		point []int64
		want  Preperiodicity
	}{
		{[]int64{-1, 4}, Preperiodicity{Preperiodic: true, Preperiod: 0, Period: 3}},
		{[]int64{1, 4}, Preperiodicity{Preperiodic: true, Preperiod: 1, Period: 3}},
		{[]int64{1, 0}, Preperiodicity{Preperiodic: true, Preperiod: 0, Period: 1}},
		{[]int64{1, 1}, Preperiodicity{}},
	}
	for _, tt := range tests {
		got, err := IsPreperiodic(f, mustPoint(t, tt.point...), 0.01)
		if err != nil {
			t.Fatalf("preperiodic check for %v failed: %v", tt.point, err)
		}
		if got != tt.want {
			t.Errorf("expected %+v for %v, got %+v", tt.want, tt.point, got)
		}
	}
}

func TestWellsMatchesLocalSum(t *testing.T) {
	tests := []struct {
		name  string
		exprs []string
		point []int64
	}{
		{"bad primes 2 3 5 7", []string{"3*x^2 + 5*y^2", "7*x*y + 2*y^2"}, []int64{4, 9}},
		{"bad primes 2 3 5 7 at a small point", []string{"3*x^2 + 5*y^2", "7*x*y + 2*y^2"}, []int64{2, -3}},
		{"denominator 16", []string{"x^2 - 29/16*y^2", "y^2"}, []int64{1, 1}},
		{"denominator 16 at a wandering point", []string{"x^2 - 29/16*y^2", "y^2"}, []int64{3, 2}},
	}
	cfg := bounded(0.01)
	cfg.Precision = 256
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, err := newEngine(mustMap(t, dynamo.Rational(), tt.exprs...))
			if err != nil {
				t.Fatalf("engine failed: %v", err)
			}
			P := mustPoint(t, tt.point...)
			w, err := e.wells(P, cfg)
			if err != nil {
				t.Fatalf("wells failed: %v", err)
			}
			s, err := e.sumLocal(P, cfg)
			if err != nil {
				t.Fatalf("local sum failed: %v", err)
			}
			if math.Abs(w.Value-s.Value) > cfg.ErrorBound {
				t.Errorf("expected agreement within %g, got %f and %f", cfg.ErrorBound, w.Value, s.Value)
			}
		})
	}
}

func TestCanonicalHeightWithinDifferenceBound(t *testing.T) {
	tests := []struct {
		name   string
		exprs  []string
		points [][]int64
	}{
		{
			"P^1 with bad primes",
			[]string{"3*x^2 + 5*y^2", "7*x*y + 2*y^2"},
			[][]int64{{4, 9}, {1, 1}, {2, -3}, {1, 0}, {0, 1}, {17, 5}},
		},
		{
			"P^1 quadratic",
			[]string{"x^2 - 29/16*y^2", "y^2"},
			[][]int64{{1, 1}, {3, 2}, {-1, 4}, {11, 7}},
		},
		{
			"P^2 with bad prime 2",
			[]string{"x^2 - 29/16*z^2", "y^2", "z^2"},
			[][]int64{{1, 2, 3}, {5, -1, 2}, {0, 1, 1}, {-1, 4, 4}},
		},
		{
			"P^2 with large coefficients",
			[]string{"4*x^2 + 100*y^2", "210*x*y", "10000*z^2"},
			[][]int64{{1, 1, 1}, {2, 0, 1}, {0, 3, 1}},
		},
	}
	cfg := bounded(0.01)
	cfg.Precision = 256
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := mustMap(t, dynamo.Rational(), tt.exprs...)
			c, err := HeightDifferenceBound(f)
			if err != nil {
				t.Fatalf("bound failed: %v", err)
			}
			for _, xs := range tt.points {
				P := mustPoint(t, xs...)
				h, err := CanonicalHeight(f, P, cfg)
				if err != nil {
					t.Fatalf("height of %v failed: %v", xs, err)
				}
				if diff := math.Abs(h.Value - P.NaiveHeight()); diff > c+cfg.ErrorBound {
					t.Errorf("expected |h^ - h| <= %f for %v, got %f", c, xs, diff)
				}
			}
		})
	}
}
