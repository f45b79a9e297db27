// Package height computes local Green's functions and canonical heights
// of rational morphisms of projective space.
//
// Every value comes with the number of iterations used and the partial
// sums, so callers can see how the series settled. When the configured
// error bound is positive the iteration count is derived from explicit
// upper and lower bounds on log||F(P)||_v - d log||P||_v.
package height

import (
	"fmt"
	"math"
	"math/big"

	"github.com/san-kum/arithdyn/internal/arith"
	"github.com/san-kum/arithdyn/internal/dynamo"
	"github.com/san-kum/arithdyn/internal/morphism"
)

// DefaultIterations is used when neither an error bound nor an
// iteration count is configured.
const DefaultIterations = 10

// Result is a truncated height series.
type Result struct {
	Value float64
	// ErrorBound is the guaranteed accuracy; 0 when Bounded is false.
	ErrorBound float64
	Bounded    bool
	Iterations int
	Trace      []float64
	Local      []Local
}

// Local is the contribution of one place to a canonical height.
type Local struct {
	Place dynamo.Place
	Value float64
}

// engine caches the integral model and its certificate for one map.
type engine struct {
	f     *dynamo.Map
	polys []arith.IntPoly
	dim   int
	d     int
	cert  *morphism.Certificate
}

func newEngine(f *dynamo.Map) (*engine, error) {
	if f.Field().Kind != dynamo.KindRational {
		return nil, fmt.Errorf("%w: heights over %s", dynamo.ErrUnsupported, f.Field())
	}
	polys, err := f.IntPolys()
	if err != nil {
		return nil, err
	}
	return &engine{f: f, polys: polys, dim: f.Dim(), d: f.Degree()}, nil
}

func (e *engine) certificate() (*morphism.Certificate, error) {
	if e.cert == nil {
		c, err := morphism.NewCertificate(e.f)
		if err != nil {
			return nil, err
		}
		e.cert = c
	}
	return e.cert, nil
}

// upper is U_v: the local height of the map, plus log C(N+d, d) at the
// archimedean place.
func (e *engine) upper(v dynamo.Place) float64 {
	if !v.IsArchimedean() {
		return 0
	}
	h := 0.0
	for _, p := range e.polys {
		h = math.Max(h, arith.LogAbsInt(p.MaxAbsCoeff()))
	}
	return h + arith.LogBinomial(e.dim+e.d, e.d)
}

// lower is L_v, read off the Nullstellensatz certificate.
func (e *engine) lower(v dynamo.Place) (float64, error) {
	cert, err := e.certificate()
	if err != nil {
		return 0, err
	}
	res := cert.DenominatorLCM()
	if !v.IsArchimedean() {
		return float64(arith.Valuation(res, big.NewInt(v.Prime))) * math.Log(float64(v.Prime)), nil
	}
	resRat := new(big.Rat).SetInt(res)
	maxh := 0.0
	for _, row := range cert.G {
		for _, g := range row {
			for _, c := range g.Coefficients() {
				scaled := new(big.Rat).Mul(c, resRat)
				maxh = math.Max(maxh, math.Max(arith.LogAbsRat(scaled), 0))
			}
		}
	}
	D := cert.D
	n := e.dim
	norm := math.Log(float64(n+1)) + arith.LogBinomial(n+D-e.d, D-e.d)
	return math.Abs(arith.LogAbsInt(res) - norm - maxh), nil
}

// iterations resolves the series length for place v.
func (e *engine) iterations(v dynamo.Place, errBound float64, fixed int) (int, bool, error) {
	if errBound <= 0 {
		if fixed > 0 {
			return fixed, false, nil
		}
		return DefaultIterations, false, nil
	}
	if e.d < 2 {
		return 0, false, fmt.Errorf("%w: error bounds need degree at least 2", dynamo.ErrUnsupported)
	}
	L, err := e.lower(v)
	if err != nil {
		return 0, false, err
	}
	C := math.Max(e.upper(v), L)
	if C == 0 {
		return 1, true, nil
	}
	n := math.Ceil(math.Abs(math.Log(C/(errBound*float64(e.d-1))) / math.Log(float64(e.d))))
	return int(n), true, nil
}

func checkPlace(v dynamo.Place) error {
	if v.IsArchimedean() {
		if v.Index != 0 {
			return fmt.Errorf("%w: QQ has one archimedean place, got index %d", dynamo.ErrInvalidPlace, v.Index)
		}
		return nil
	}
	if v.Prime < 2 || !arith.IsPrime(v.Prime) {
		return fmt.Errorf("%w: %d is not prime", dynamo.ErrInvalidPlace, v.Prime)
	}
	return nil
}

// GreenFunction evaluates the local Green's function of f at P and the
// place v by direct iteration, rescaling by the dominant coordinate at
// every step.
func GreenFunction(f *dynamo.Map, P dynamo.Point, v dynamo.Place, cfg dynamo.Config) (*Result, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := checkPlace(v); err != nil {
		return nil, err
	}
	e, err := newEngine(f)
	if err != nil {
		return nil, err
	}
	if P.Dim() != e.dim {
		return nil, dynamo.ErrDimensionMismatch
	}
	return e.green(P, v, cfg.ErrorBound, cfg.Iterations, cfg.Precision)
}

func (e *engine) green(P dynamo.Point, v dynamo.Place, errBound float64, fixed int, prec uint) (*Result, error) {
	n, bounded, err := e.iterations(v, errBound, fixed)
	if err != nil {
		return nil, err
	}
	var res *Result
	if v.IsArchimedean() {
		res, err = e.greenArch(P.IntCoords(), n, prec)
	} else {
		res, err = e.greenPrime(P.IntCoords(), v, n, prec)
	}
	if err != nil {
		return nil, err
	}
	res.Bounded = bounded
	if bounded {
		res.ErrorBound = errBound
	}
	return res, nil
}

func (e *engine) greenArch(x []*big.Int, n int, prec uint) (*Result, error) {
	if prec < 53 {
		prec = 53
	}
	q := make([]*big.Float, len(x))
	for i, c := range x {
		q[i] = new(big.Float).SetPrec(prec).SetInt(c)
	}
	res := &Result{Iterations: n}
	h := 0.0
	w := 1.0
	for i := 0; i <= n; i++ {
		j := dominant(q)
		if q[j].Sign() == 0 {
			return nil, &dynamo.PrecisionError{Place: dynamo.Archimedean(), Iteration: i, Digits: int(prec)}
		}
		h += w * arith.LogFloat(q[j])
		res.Trace = append(res.Trace, h)
		w /= float64(e.d)
		if i == n {
			break
		}
		pivot := new(big.Float).Set(q[j])
		for k := range q {
			q[k] = new(big.Float).SetPrec(prec).Quo(q[k], pivot)
		}
		next := make([]*big.Float, len(e.polys))
		for k, p := range e.polys {
			next[k] = p.EvalFloat(q, prec)
		}
		q = next
	}
	res.Value = h
	return res, nil
}

func dominant(q []*big.Float) int {
	j := 0
	best := new(big.Float).Abs(q[0])
	for k := 1; k < len(q); k++ {
		if a := new(big.Float).Abs(q[k]); a.Cmp(best) > 0 {
			j, best = k, a
		}
	}
	return j
}

// greenPrime works with residues modulo p^k. Dividing by the dominant
// coordinate costs its valuation in absolute precision.
func (e *engine) greenPrime(x []*big.Int, v dynamo.Place, n int, prec uint) (*Result, error) {
	digits := int(prec)
	if digits < 1 {
		digits = 1
	}
	p := big.NewInt(v.Prime)
	logp := math.Log(float64(v.Prime))
	k := digits
	mod := arith.PowInt(p, k)
	q := make([]*big.Int, len(x))
	for i, c := range x {
		q[i] = new(big.Int).Mod(c, mod)
	}
	res := &Result{Iterations: n}
	h := 0.0
	w := 1.0
	for i := 0; i <= n; i++ {
		j, val := -1, k
		for c, qc := range q {
			if qc.Sign() == 0 {
				continue
			}
			if vc := arith.Valuation(qc, p); vc < val {
				j, val = c, vc
			}
		}
		if j < 0 {
			return nil, &dynamo.PrecisionError{Place: v, Iteration: i, Digits: digits}
		}
		h -= w * float64(val) * logp
		res.Trace = append(res.Trace, h)
		w /= float64(e.d)
		if i == n {
			break
		}
		shift := arith.PowInt(p, val)
		k -= val
		mod = arith.PowInt(p, k)
		unit := new(big.Int).Quo(q[j], shift)
		inv := new(big.Int).ModInverse(unit, mod)
		if inv == nil {
			return nil, &dynamo.PrecisionError{Place: v, Iteration: i, Digits: digits}
		}
		for c := range q {
			q[c] = new(big.Int).Quo(q[c], shift)
			q[c].Mul(q[c], inv).Mod(q[c], mod)
		}
		next := make([]*big.Int, len(e.polys))
		for c, poly := range e.polys {
			next[c] = poly.EvalMod(q, mod)
		}
		q = next
	}
	res.Value = h
	return res, nil
}
