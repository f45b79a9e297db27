package lifting

import (
	"context"
	"fmt"

	"github.com/san-kum/arithdyn/internal/arith"
	"github.com/san-kum/arithdyn/internal/dynamo"
	"github.com/san-kum/arithdyn/internal/height"
	"github.com/san-kum/arithdyn/internal/morphism"
	"github.com/san-kum/arithdyn/internal/padic"
	"github.com/san-kum/arithdyn/internal/reduction"
	"github.com/san-kum/arithdyn/internal/sieve"
)

// DefaultLiftingPrime is used when the configuration leaves it unset.
const DefaultLiftingPrime = 23

// badPrimes resolves the configured or computed primes of bad reduction.
func badPrimes(f *dynamo.Map, cfg dynamo.Config) ([]int64, error) {
	if cfg.BadPrimes != nil {
		return cfg.BadPrimes, nil
	}
	return morphism.BadPrimes(f)
}

// possiblePeriods resolves the configured or sieved period set.
func possiblePeriods(ctx context.Context, f *dynamo.Map, cfg dynamo.Config) ([]int, error) {
	if cfg.Periods != nil {
		return cfg.Periods, nil
	}
	res, err := sieve.PossiblePeriods(ctx, f, cfg)
	if err != nil {
		return nil, err
	}
	return res.Periods, nil
}

// LiftingPrime returns the first prime at or after cfg.LiftingPrime that
// is not a bad prime.
func LiftingPrime(cfg dynamo.Config, bad []int64) (int64, error) {
	p := cfg.LiftingPrime
	if p == 0 {
		p = DefaultLiftingPrime
	}
	if p < 2 || p >= reduction.MaxPrime || !arith.IsPrime(p) {
		return 0, fmt.Errorf("%w: lifting prime %d", dynamo.ErrParameterBounds, p)
	}
	for dynamo.IsBadPrime(bad, p) {
		p = arith.NextPrime(p)
	}
	return p, nil
}

// Candidates lists the (point, period) pairs of the reduction of f at p
// whose period is in periods, without duplicates.
func Candidates(f *dynamo.Map, p int64, periods []int) ([]Candidate, error) {
	m, err := reduction.Reduce(f, p)
	if err != nil {
		return nil, err
	}
	rep, err := m.PossiblePeriods()
	if err != nil {
		return nil, err
	}
	allowed := map[int]bool{}
	for _, n := range periods {
		allowed[n] = true
	}
	seen := map[string]bool{}
	var out []Candidate
	for _, pp := range rep.Points {
		key := fmt.Sprintf("%s/%d", pp.Point.Key(), pp.Period)
		if !allowed[pp.Period] || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, CandidateFromMod(pp.Point, pp.Period))
	}
	return out, nil
}

// RationalPeriodicPoints returns every rational periodic point of the
// rational morphism f, normalized and sorted. The possible periods come
// from cfg.Periods or the period sieve; cycles of the reduction at the
// lifting prime with an admissible period are lifted with the bound
// B = exp(C), C the height difference bound, and every lifted cycle is
// closed under f.
func RationalPeriodicPoints(ctx context.Context, f *dynamo.Map, cfg dynamo.Config) ([]dynamo.Point, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if f.Field().Kind != dynamo.KindRational {
		return nil, fmt.Errorf("%w: rational periodic points over %s", dynamo.ErrUnsupported, f.Field())
	}
	bad, err := badPrimes(f, cfg)
	if err != nil {
		return nil, err
	}
	cfg.BadPrimes = bad
	periods, err := possiblePeriods(ctx, f, cfg)
	if err != nil {
		return nil, err
	}
	if len(periods) == 0 {
		return []dynamo.Point{}, nil
	}
	p, err := LiftingPrime(cfg, bad)
	if err != nil {
		return nil, err
	}
	cands, err := Candidates(f, p, periods)
	if err != nil {
		return nil, err
	}
	C, err := height.HeightDifferenceBound(f)
	if err != nil {
		return nil, err
	}
	model, err := padic.FromMap(f)
	if err != nil {
		return nil, err
	}
	lifter := NewLifter(model, p, C, cfg.Log())
	cfg.Log().Debug("lifting", "prime", p, "candidates", len(cands), "precision", lifter.Target(), "periods", periods)

	seen := map[string]bool{}
	var out []dynamo.Point
	for _, l := range lifter.Lift(cands) {
		q := l.Point
		for i := 0; i < l.Period; i++ {
			q = q.Normalize()
			if !seen[q.Key()] {
				seen[q.Key()] = true
				out = append(out, q)
			}
			if q, err = f.Apply(q); err != nil {
				return nil, err
			}
		}
	}
	dynamo.SortPoints(out)
	return out, nil
}
