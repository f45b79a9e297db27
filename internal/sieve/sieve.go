// Package sieve intersects the possible periods of a rational map over
// several primes of good reduction.
package sieve

import (
	"context"
	"fmt"
	"sort"

	"github.com/san-kum/arithdyn/internal/arith"
	"github.com/san-kum/arithdyn/internal/dynamo"
	"github.com/san-kum/arithdyn/internal/morphism"
	"github.com/san-kum/arithdyn/internal/reduction"
)

// Result is the sieved period set with the per-prime evidence.
type Result struct {
	Periods  []int
	Primes   []int64
	PerPrime map[int64][]int
	Skipped  []int64
}

// PossiblePeriods reduces f at every good prime in cfg.PrimeBound, in
// increasing order, on a bounded worker pool, and intersects the period
// sets. A prime that fails is logged and skipped; when none succeeds the
// error is ErrNoGoodPrimes.
func PossiblePeriods(ctx context.Context, f *dynamo.Map, cfg dynamo.Config) (*Result, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if f.Field().Kind != dynamo.KindRational {
		return nil, fmt.Errorf("%w: period sieve over %s", dynamo.ErrUnsupported, f.Field())
	}
	logger := cfg.Log()
	bad := cfg.BadPrimes
	if bad == nil {
		var err error
		if bad, err = morphism.BadPrimes(f); err != nil {
			return nil, err
		}
	}
	var primes []int64
	for _, p := range arith.PrimesInRange(cfg.PrimeBound.Low, cfg.PrimeBound.High) {
		if !dynamo.IsBadPrime(bad, int64(p)) {
			primes = append(primes, int64(p))
		}
	}
	if len(primes) == 0 {
		return nil, fmt.Errorf("%w: [%d, %d] excluding %v", dynamo.ErrNoGoodPrimes, cfg.PrimeBound.Low, cfg.PrimeBound.High, bad)
	}

	reports, errs, err := dynamo.Collect(ctx, primes, cfg.WorkerCount(), func(ctx context.Context, p int64) (*reduction.PeriodReport, error) {
		m, err := reduction.Reduce(f, p)
		if err != nil {
			return nil, err
		}
		return m.PossiblePeriods()
	})
	if err != nil {
		return nil, err
	}

	res := &Result{PerPrime: make(map[int64][]int)}
	var acc []int
	for i, p := range primes {
		if errs[i] != nil {
			logger.Warn("skipping prime", "p", p, "err", errs[i])
			res.Skipped = append(res.Skipped, p)
			continue
		}
		logger.Debug("reduced", "p", p, "periods", reports[i].Periods)
		res.PerPrime[p] = reports[i].Periods
		if res.Primes == nil {
			acc = reports[i].Periods
		} else {
			acc = Intersect(acc, reports[i].Periods)
		}
		res.Primes = append(res.Primes, p)
	}
	if len(res.Primes) == 0 {
		return nil, fmt.Errorf("%w: every prime in [%d, %d] failed", dynamo.ErrNoGoodPrimes, cfg.PrimeBound.Low, cfg.PrimeBound.High)
	}
	res.Periods = append([]int{}, acc...)
	return res, nil
}

// Intersect returns the sorted intersection of two period lists.
func Intersect(a, b []int) []int {
	in := make(map[int]bool, len(b))
	for _, x := range b {
		in[x] = true
	}
	out := []int{}
	seen := map[int]bool{}
	for _, x := range a {
		if in[x] && !seen[x] {
			out = append(out, x)
			seen[x] = true
		}
	}
	sort.Ints(out)
	return out
}
