// Package experiment runs the arithmetic-dynamics pipeline for one map:
// bad primes, possible periods, periodic and preperiodic points, the
// orbit graph and canonical heights, each as a named stage.
package experiment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/san-kum/arithdyn/internal/compute"
	"github.com/san-kum/arithdyn/internal/config"
	"github.com/san-kum/arithdyn/internal/dynamo"
	"github.com/san-kum/arithdyn/internal/orbitgraph"
)

// Height is one evaluated canonical height.
type Height struct {
	Point      dynamo.Point
	Value      float64
	ErrorBound float64
	Bounded    bool
	Trace      []float64
}

// Report collects the output of every stage that ran. Stages that do not
// apply to the map's field or dimension are listed in Skipped.
type Report struct {
	Model       string
	Map         string
	Field       string
	Backend     string
	BadPrimes   []int64
	Periods     []int
	SievePrimes []int64
	Periodic    []dynamo.Point
	Preperiodic []dynamo.Point
	Graph       *orbitgraph.Graph[dynamo.Point]
	Heights     []Height
	Skipped     map[string]string
	Timings     map[string]time.Duration
}

type Experiment struct {
	cfg     *config.Config
	f       *dynamo.Map
	backend compute.Backend
	opts    dynamo.Config
	points  []dynamo.Point
	logger  *log.Logger
	reg     *Registry
}

func New(cfg *config.Config, logger *log.Logger) (*Experiment, error) {
	if logger == nil {
		logger = log.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	f, err := cfg.BuildMap()
	if err != nil {
		return nil, err
	}
	points, err := cfg.HeightPoints()
	if err != nil {
		return nil, err
	}
	return &Experiment{
		cfg:     cfg,
		f:       f,
		backend: compute.Select(f),
		opts:    cfg.Options(logger),
		points:  points,
		logger:  logger,
		reg:     NewRegistry(),
	}, nil
}

func (e *Experiment) Map() *dynamo.Map { return e.f }

func (e *Experiment) Backend() compute.Backend { return e.backend }

// Run executes the configured stages in order, all of them when none are
// configured.
func (e *Experiment) Run(ctx context.Context) (*Report, error) {
	names := e.cfg.Stages
	if len(names) == 0 {
		names = e.reg.ListStages()
	}
	r := &Report{
		Model:   e.cfg.Model,
		Map:     e.f.String(),
		Field:   e.f.Field().String(),
		Backend: e.backend.Name(),
		Skipped: map[string]string{},
		Timings: map[string]time.Duration{},
	}
	if len(e.cfg.Map.Polys) > 0 {
		r.Model = "custom"
	}
	for _, name := range names {
		stage, err := e.reg.GetStage(name)
		if err != nil {
			return nil, err
		}
		start := time.Now()
		err = stage(ctx, e, r)
		r.Timings[name] = time.Since(start)
		if errors.Is(err, dynamo.ErrUnsupported) {
			e.logger.Warn("stage skipped", "stage", name, "err", err)
			r.Skipped[name] = err.Error()
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		e.logger.Info("stage done", "stage", name, "elapsed", r.Timings[name])
	}
	return r, nil
}
