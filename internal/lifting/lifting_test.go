package lifting

import (
	"context"
	"errors"
	"math/big"
	"reflect"
	"testing"

	"github.com/san-kum/arithdyn/internal/arith"
	"github.com/san-kum/arithdyn/internal/dynamo"
	"github.com/san-kum/arithdyn/internal/height"
	"github.com/san-kum/arithdyn/internal/padic"
)

func mustMap(t *testing.T, exprs ...string) *dynamo.Map {
	t.Helper()
	f, err := dynamo.ParseMap(dynamo.Rational(), []string{"x", "y", "z"}[:len(exprs)], exprs...)
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

func keys(pts []dynamo.Point) []string {
	out := make([]string, len(pts))
	for i, p := range pts {
		out[i] = p.Key()
	}
	return out
}

func TestRationalPeriodicPoints(t *testing.T) {
	tests := []struct {
		name  string
		exprs []string
		cfg   func(*dynamo.Config)
		want  []string
	}{
		{
			name:  "poonen cycle",
			exprs: []string{"x^2 - 29/16*y^2", "y^2"},
			want:  []string{"-7:4", "-1:4", "1:0", "5:4"},
		},
		{
			name:  "lifting at 7",
			exprs: []string{"x^2 - 3/4*y^2", "y^2"},
			cfg:   func(c *dynamo.Config) { c.LiftingPrime = 7 },
			want:  []string{"-1:2", "1:0", "3:2"},
		},
		{
			name:  "two-cycle",
			exprs: []string{"-5*x^2 + 4*y^2", "4*x*y"},
			cfg:   func(c *dynamo.Config) { c.Periods = []int{1, 2} },
			want:  []string{"-2:1", "-2:3", "2:3", "1:0", "2:1"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := mustMap(t, tt.exprs...)
			cfg := dynamo.DefaultConfig()
			if tt.cfg != nil {
				tt.cfg(&cfg)
			}
			pts, err := RationalPeriodicPoints(context.Background(), f, cfg)
			if err != nil {
				t.Fatalf("periodic points failed: %v", err)
			}
			if got := keys(pts); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, got)
			}

			in := map[string]bool{}
			for _, p := range pts {
				in[p.Key()] = true
			}
			for _, p := range pts {
				img, err := f.Apply(p)
				if err != nil {
					t.Fatalf("apply failed: %v", err)
				}
				if !in[img.Key()] {
					t.Errorf("image of %s is %s, not in the set", p, img)
				}
			}
		})
	}
}

func TestEmptyPeriodsGiveNoPoints(t *testing.T) {
	f := mustMap(t, "x^2 - 29/16*y^2", "y^2")
	cfg := dynamo.DefaultConfig()
	cfg.Periods = []int{}
	pts, err := RationalPeriodicPoints(context.Background(), f, cfg)
	if err != nil {
		t.Fatalf("periodic points failed: %v", err)
	}
	if len(pts) != 0 {
		t.Errorf("expected no points, got %v", pts)
	}
}

func TestLiftRoundTrip(t *testing.T) {
	f := mustMap(t, "x^2 - 29/16*y^2", "y^2")
	cands, err := Candidates(f, 23, []int{3})
	if err != nil {
		t.Fatalf("candidates failed: %v", err)
	}
	C, err := height.HeightDifferenceBound(f)
	if err != nil {
		t.Fatalf("bound failed: %v", err)
	}
	model, err := padic.FromMap(f)
	if err != nil {
		t.Fatalf("model failed: %v", err)
	}
	l := NewLifter(model, 23, C, nil)
	lifted := l.Lift(cands)
	if len(lifted) != 1 || lifted[0].Period != 3 {
		t.Fatalf("expected one 3-periodic point, got %v", lifted)
	}
	matched := false
	for _, c := range cands {
		if l.ReducesTo(lifted[0].Point, c) {
			matched = true
		}
	}
	if !matched {
		t.Errorf("%s does not reduce to any candidate", lifted[0].Point)
	}
}

func TestLiftingPrimeSkipsBadPrimes(t *testing.T) {
	cfg := dynamo.DefaultConfig()
	p, err := LiftingPrime(cfg, []int64{23, 29})
	if err != nil {
		t.Fatalf("lifting prime failed: %v", err)
	}
	if p != 31 {
		t.Errorf("expected 31, got %d", p)
	}
	cfg.LiftingPrime = 25
	if _, err := LiftingPrime(cfg, nil); !errors.Is(err, dynamo.ErrParameterBounds) {
		t.Errorf("expected ErrParameterBounds, got %v", err)
	}
}

func TestRationalRoots(t *testing.T) {
	// x (x - 1/2)^2 (3x + 4)
	a := arith.UniPoly{
		big.NewRat(0, 1), big.NewRat(1, 1), big.NewRat(-13, 4), big.NewRat(1, 1), big.NewRat(3, 1),
	}
	for _, r := range []*big.Rat{big.NewRat(1, 2), big.NewRat(-4, 3), big.NewRat(0, 1)} {
		if a.Eval(r).Sign() != 0 {
			t.Fatalf("test polynomial does not vanish at %s", r.RatString())
		}
	}
	roots := RationalRoots(a)
	var got []string
	for _, r := range roots {
		got = append(got, r.RatString())
	}
	want := []string{"-4/3", "0", "1/2"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
	if r := RationalRoots(arith.UniPoly{big.NewRat(-2, 1), big.NewRat(0, 1), big.NewRat(1, 1)}); len(r) != 0 {
		t.Errorf("expected no rational roots of x^2 - 2, got %v", r)
	}
}

func TestAllRationalPreimages(t *testing.T) {
	tests := []struct {
		name  string
		exprs []string
		from  []int64
		want  []string
	}{
		{"poonen", []string{"16*x^2 - 29*y^2", "16*y^2"}, []int64{-1, 4},
			[]string{"-7:4", "-5:4", "-3:4", "-1:4", "1:4", "3:4", "5:4", "7:4"}},
		{"wandering", []string{"x^2 + y^2", "2*x*y"}, []int64{17, 15},
			[]string{"1:3", "3:5", "5:3", "3:1"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := mustMap(t, tt.exprs...)
			pts, err := AllRationalPreimages(f, []dynamo.Point{mustPoint(t, tt.from...)})
			if err != nil {
				t.Fatalf("preimages failed: %v", err)
			}
			if got := keys(pts); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestRationalPreimagesOfInfinity(t *testing.T) {
	f := mustMap(t, "x^2 - y^2", "3*x*y")
	pts, err := RationalPreimages(f, mustPoint(t, 1, 0))
	if err != nil {
		t.Fatalf("preimages failed: %v", err)
	}
	if got := keys(pts); !reflect.DeepEqual(got, []string{"0:1", "1:0"}) {
		t.Errorf("expected [0:1 1:0], got %v", got)
	}

	g := mustMap(t, "x^2", "y^2", "z^2")
	if _, err := RationalPreimages(g, mustPoint(t, 1, 1, 1)); !errors.Is(err, dynamo.ErrUnsupported) {
		t.Errorf("expected ErrUnsupported, got %v", err)
	}
}

func TestRationalPreperiodicPoints(t *testing.T) {
	f := mustMap(t, "x^2 - y^2", "3*x*y")
	cfg := dynamo.DefaultConfig()
	cfg.Periods = []int{1, 2}
	pts, err := RationalPreperiodicPoints(context.Background(), f, cfg)
	if err != nil {
		t.Fatalf("preperiodic points failed: %v", err)
	}
	want := []string{"-2:1", "-1:1", "-1:2", "0:1", "1:2", "1:0", "1:1", "2:1"}
	if got := keys(pts); !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}

	g := mustMap(t, "x^2", "y^2", "z^2")
	if _, err := RationalPreperiodicPoints(context.Background(), g, cfg); !errors.Is(err, dynamo.ErrUnsupported) {
		t.Errorf("expected ErrUnsupported, got %v", err)
	}
}

func TestConnectedComponent(t *testing.T) {
	f := mustMap(t, "x^2 - 29/16*y^2", "y^2")
	pts, err := ConnectedComponent(f, mustPoint(t, -1, 4), 0)
	if err != nil {
		t.Fatalf("component failed: %v", err)
	}
	if len(pts) != 8 || pts[0].Key() != "-1:4" {
		t.Errorf("expected 8 points starting at -1:4, got %v", keys(pts))
	}

	near, err := ConnectedComponent(f, mustPoint(t, -1, 4), 1)
	if err != nil {
		t.Fatalf("component failed: %v", err)
	}
	want := []string{"-1:4", "-7:4", "-5:4", "5:4"}
	if got := keys(near); !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}
