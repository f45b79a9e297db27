package height

import (
	"fmt"
	"math"
	"math/big"
	"sort"

	"github.com/san-kum/arithdyn/internal/arith"
	"github.com/san-kum/arithdyn/internal/dynamo"
	"github.com/san-kum/arithdyn/internal/morphism"
)

// CanonicalHeight returns the canonical height of P for the rational
// morphism f. On P^1 it uses Wells' algorithm; otherwise it sums the
// Green's functions over the archimedean place and every prime where the
// local term can be nonzero, splitting the error bound evenly.
func CanonicalHeight(f *dynamo.Map, P dynamo.Point, cfg dynamo.Config) (*Result, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	e, err := newEngine(f)
	if err != nil {
		return nil, err
	}
	if P.Dim() != e.dim {
		return nil, dynamo.ErrDimensionMismatch
	}
	ok, err := morphism.IsMorphism(f)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, dynamo.ErrNotMorphism
	}
	if e.dim == 1 {
		return e.wells(P, cfg)
	}
	return e.sumLocal(P, cfg)
}

func (e *engine) sumLocal(P dynamo.Point, cfg dynamo.Config) (*Result, error) {
	bad := cfg.BadPrimes
	if bad == nil {
		var err error
		if bad, err = morphism.BadPrimes(e.f); err != nil {
			return nil, err
		}
	}
	primes := map[int64]bool{}
	for _, p := range bad {
		primes[p] = true
	}
	for _, c := range P.Coords() {
		for _, q := range arith.PrimeFactors(c.Denom()) {
			if q.IsInt64() {
				primes[q.Int64()] = true
			}
		}
	}
	places := []dynamo.Place{dynamo.Archimedean()}
	var sorted []int64
	for p := range primes {
		sorted = append(sorted, p)
	}
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	for _, p := range sorted {
		places = append(places, dynamo.PrimePlace(p))
	}

	errEach := cfg.ErrorBound / float64(len(places))
	out := &Result{}
	logger := cfg.Log()
	for _, v := range places {
		r, err := e.green(P, v, errEach, cfg.Iterations, cfg.Precision)
		if err != nil {
			return nil, fmt.Errorf("green function at %s: %w", v, err)
		}
		logger.Debug("local height", "place", v, "value", r.Value, "iterations", r.Iterations)
		out.Value += r.Value
		out.Local = append(out.Local, Local{Place: v, Value: r.Value})
		out.Iterations = max(out.Iterations, r.Iterations)
		out.Bounded = r.Bounded
		if v.IsArchimedean() {
			out.Trace = r.Trace
		}
	}
	if out.Bounded {
		out.ErrorBound = cfg.ErrorBound
	}
	return out, nil
}

// wells computes the height on P^1 as the archimedean Green's function of
// the coprime integral point minus the correction
// sum_n log gcd(A(x_n, y_n), B(x_n, y_n), Res) / d^(n+1), with the
// iterates reduced modulo powers of the resultant.
func (e *engine) wells(P dynamo.Point, cfg dynamo.Config) (*Result, error) {
	res, err := morphism.Resultant(e.f)
	if err != nil {
		return nil, err
	}
	res.Abs(res)

	t := big.NewInt(1)
	for _, p := range e.f.Normalized().Polys() {
		t = arith.LCM(t, p.DenominatorLCM())
	}

	errBound := cfg.ErrorBound
	n := cfg.Iterations
	if n == 0 {
		n = DefaultIterations
	}
	d := float64(e.d)
	H := 0.0
	if res.Cmp(big.NewInt(1)) > 0 {
		if errBound > 0 {
			errBound /= 2
			n = int(math.Ceil((math.Log(arith.LogAbsInt(res)) - math.Log(d-1) - math.Log(errBound)) / math.Log(d)))
			if n < 1 {
				n = 1
			}
		}
		x := P.IntCoords()
		w := 1.0 / d
		for i := 0; i < n; i++ {
			m := arith.PowInt(res, n-i)
			a := e.polys[0].EvalMod(x, m)
			b := e.polys[1].EvalMod(x, m)
			g := arith.GCD(arith.GCD(a, b), res)
			H += w * arith.LogAbsInt(g)
			w /= d
			x = []*big.Int{a.Quo(a, g), b.Quo(b, g)}
		}
	}

	green, err := e.green(P, dynamo.Archimedean(), errBound, cfg.Iterations, cfg.Precision)
	if err != nil {
		return nil, err
	}
	h := green.Value - H + arith.LogAbsInt(t)
	if h < 0 {
		if green.Bounded && h <= -errBound {
			return nil, fmt.Errorf("%w: negative height %g beyond error bound %g", dynamo.ErrPrecision, h, errBound)
		}
		h = 0
	}
	out := &Result{
		Value:      h,
		Bounded:    green.Bounded,
		Iterations: max(n, green.Iterations),
		Trace:      green.Trace,
		Local:      []Local{{Place: dynamo.Archimedean(), Value: green.Value}},
	}
	if out.Bounded {
		out.ErrorBound = cfg.ErrorBound
	}
	return out, nil
}

// HeightDifferenceBound returns C >= 0 with |h_hat(P) - h(P)| <= C for
// every point P, computed for the integral primitive model of f.
func HeightDifferenceBound(f *dynamo.Map) (float64, error) {
	e, err := newEngine(f)
	if err != nil {
		return 0, err
	}
	if e.d < 2 {
		return 0, fmt.Errorf("%w: degree %d", dynamo.ErrUnsupported, e.d)
	}
	cert, err := e.certificate()
	if err != nil {
		return 0, err
	}
	n := e.dim
	global := 0.0
	for _, p := range e.polys {
		global = math.Max(global, arith.LogAbsInt(p.MaxAbsCoeff()))
	}
	U := global + arith.LogBinomial(n+e.d, e.d)

	gcdRes := new(big.Int)
	maxh := 0.0
	for i, row := range cert.G {
		r := cert.Denominator(i)
		gcdRes = arith.GCD(gcdRes, r)
		rr := new(big.Rat).SetInt(r)
		for _, g := range row {
			for _, c := range g.Coefficients() {
				maxh = math.Max(maxh, arith.RatHeight(new(big.Rat).Mul(c, rr)))
			}
		}
	}
	D := cert.D
	L := math.Abs(arith.LogAbsInt(gcdRes) - math.Log(float64(n+1)) - arith.LogBinomial(n+D-e.d, D-e.d) - maxh)
	return math.Max(U, L) / float64(e.d-1), nil
}

// Preperiodicity describes the forward orbit of a point: Preperiod steps
// before entering a cycle of length Period.
type Preperiodicity struct {
	Preperiodic bool
	Preperiod   int
	Period      int
}

// IsPreperiodic decides whether P is preperiodic for f. A canonical height
// above err rules it out; otherwise the orbit is followed until it
// repeats or its naive height exceeds the height difference bound.
func IsPreperiodic(f *dynamo.Map, P dynamo.Point, errBound float64) (Preperiodicity, error) {
	if errBound <= 0 {
		return Preperiodicity{}, fmt.Errorf("%w: error bound must be positive", dynamo.ErrParameterBounds)
	}
	cfg := dynamo.DefaultConfig()
	cfg.ErrorBound = errBound
	h, err := CanonicalHeight(f, P, cfg)
	if err != nil {
		return Preperiodicity{}, err
	}
	if h.Value > errBound {
		return Preperiodicity{}, nil
	}
	B, err := HeightDifferenceBound(f)
	if err != nil {
		return Preperiodicity{}, err
	}
	seen := map[string]int{P.Key(): 0}
	q := P.Normalize()
	for i := 1; ; i++ {
		if q, err = f.Apply(q); err != nil {
			return Preperiodicity{}, err
		}
		q = q.Normalize()
		if q.NaiveHeight() > B {
			return Preperiodicity{}, nil
		}
		if j, ok := seen[q.Key()]; ok {
			return Preperiodicity{Preperiodic: true, Preperiod: j, Period: i - j}, nil
		}
		seen[q.Key()] = i
	}
}
