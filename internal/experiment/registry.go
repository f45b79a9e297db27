package experiment

import (
	"context"
	"fmt"

	"github.com/san-kum/arithdyn/internal/config"
	"github.com/san-kum/arithdyn/internal/dynamo"
	"github.com/san-kum/arithdyn/internal/orbitgraph"
)

// Stage computes one part of a report, reading what earlier stages left
// in it.
type Stage func(ctx context.Context, e *Experiment, r *Report) error

type Registry struct {
	stages map[string]Stage
	order  []string
}

func NewRegistry() *Registry {
	r := &Registry{stages: make(map[string]Stage)}

	r.Register("bad-primes", badPrimesStage)
	r.Register("periods", periodsStage)
	r.Register("periodic", periodicStage)
	r.Register("preperiodic", preperiodicStage)
	r.Register("graph", graphStage)
	r.Register("heights", heightsStage)

	return r
}

// Register adds or replaces a stage; new names run after the existing ones.
func (r *Registry) Register(name string, s Stage) {
	if _, ok := r.stages[name]; !ok {
		r.order = append(r.order, name)
	}
	r.stages[name] = s
}

func (r *Registry) GetStage(name string) (Stage, error) {
	s, ok := r.stages[name]
	if !ok {
		return nil, fmt.Errorf("unknown stage: %s", name)
	}
	return s, nil
}

func (r *Registry) ListStages() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// GetModel builds a preset map by its "family/name".
func (r *Registry) GetModel(name string) (*dynamo.Map, error) {
	cfg, ok := config.FromPreset(name)
	if !ok {
		return nil, fmt.Errorf("unknown model: %s", name)
	}
	return cfg.BuildMap()
}

func (r *Registry) ListModels() []string {
	var names []string
	for _, family := range config.ListFamilies() {
		for _, name := range config.ListPresets(family) {
			names = append(names, family+"/"+name)
		}
	}
	return names
}

func badPrimesStage(ctx context.Context, e *Experiment, r *Report) error {
	if e.opts.BadPrimes != nil {
		r.BadPrimes = e.opts.BadPrimes
		return nil
	}
	bad, err := e.backend.BadPrimes()
	if err != nil {
		return err
	}
	r.BadPrimes = bad
	e.opts.BadPrimes = bad
	return nil
}

func periodsStage(ctx context.Context, e *Experiment, r *Report) error {
	if e.opts.Periods != nil {
		r.Periods = e.opts.Periods
		return nil
	}
	res, err := e.backend.PossiblePeriods(ctx, e.opts)
	if err != nil {
		return err
	}
	r.Periods = res.Periods
	r.SievePrimes = res.Primes
	e.opts.Periods = res.Periods
	return nil
}

func periodicStage(ctx context.Context, e *Experiment, r *Report) error {
	pts, err := e.backend.PeriodicPoints(ctx, e.opts)
	if err != nil {
		return err
	}
	r.Periodic = pts
	return nil
}

func preperiodicStage(ctx context.Context, e *Experiment, r *Report) error {
	pts, err := e.backend.PreperiodicPoints(ctx, e.opts)
	if err != nil {
		return err
	}
	r.Preperiodic = pts
	return nil
}

// graphStage links the preperiodic points, or the periodic ones when no
// preperiodic set is available.
func graphStage(ctx context.Context, e *Experiment, r *Report) error {
	pts := r.Preperiodic
	if len(pts) == 0 {
		pts = r.Periodic
	}
	if len(pts) == 0 {
		return nil
	}
	g, err := orbitgraph.Build(pts, dynamo.Point.Key, func(p dynamo.Point) (dynamo.Point, error) {
		q, err := e.f.Apply(p)
		if err != nil {
			return dynamo.Point{}, err
		}
		return e.f.NormalizePoint(q)
	})
	if err != nil {
		return err
	}
	r.Graph = g
	return nil
}

func heightsStage(ctx context.Context, e *Experiment, r *Report) error {
	for _, p := range e.points {
		if err := ctx.Err(); err != nil {
			return err
		}
		h, err := e.backend.CanonicalHeight(p, e.opts)
		if err != nil {
			return fmt.Errorf("height of %s: %w", p, err)
		}
		r.Heights = append(r.Heights, Height{
			Point:      p.Normalize(),
			Value:      h.Value,
			ErrorBound: h.ErrorBound,
			Bounded:    h.Bounded,
			Trace:      h.Trace,
		})
	}
	return nil
}
