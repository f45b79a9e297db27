package config

import (
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/arithdyn/internal/dynamo"
)

const (
	DefaultPrimeLow     = 1
	DefaultPrimeHigh    = 20
	DefaultLiftingPrime = 23
	DefaultPrecision    = 100
	DefaultModel        = "quadratic/poonen"
)

type Config struct {
	Model        string      `yaml:"model"`
	Map          MapConfig   `yaml:"map"`
	PrimeBound   BoundConfig `yaml:"prime_bound"`
	LiftingPrime int64       `yaml:"lifting_prime"`
	ErrorBound   float64     `yaml:"error_bound"`
	Iterations   int         `yaml:"iterations"`
	BadPrimes    []int64     `yaml:"bad_primes,omitempty"`
	Periods      []int       `yaml:"periods,omitempty"`
	Workers      int         `yaml:"workers"`
	Precision    uint        `yaml:"precision"`
	// Points are evaluated by the height stage, one coordinate list each.
	Points [][]string `yaml:"points,omitempty"`
	Stages []string   `yaml:"stages,omitempty"`
}

// MapConfig spells a map out; it takes precedence over Model.
type MapConfig struct {
	Field string   `yaml:"field,omitempty"`
	Vars  []string `yaml:"vars,omitempty"`
	Polys []string `yaml:"polys,omitempty"`
}

type BoundConfig struct {
	Low  int `yaml:"low"`
	High int `yaml:"high"`
}

func DefaultConfig() *Config {
	return &Config{
		Model:        DefaultModel,
		PrimeBound:   BoundConfig{Low: DefaultPrimeLow, High: DefaultPrimeHigh},
		LiftingPrime: DefaultLiftingPrime,
		Precision:    DefaultPrecision,
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Validate checks the options without building the map.
func (c *Config) Validate() error {
	if len(c.Map.Polys) == 0 && c.Model == "" {
		return fmt.Errorf("%w: no map given", dynamo.ErrParameterBounds)
	}
	if c.Workers < 0 {
		return fmt.Errorf("%w: workers %d", dynamo.ErrParameterBounds, c.Workers)
	}
	return c.Options(nil).Validate()
}

// Options converts the file options to engine options.
func (c *Config) Options(logger *log.Logger) dynamo.Config {
	return dynamo.Config{
		PrimeBound:   dynamo.PrimeBound{Low: c.PrimeBound.Low, High: c.PrimeBound.High},
		LiftingPrime: c.LiftingPrime,
		ErrorBound:   c.ErrorBound,
		Iterations:   c.Iterations,
		BadPrimes:    c.BadPrimes,
		Periods:      c.Periods,
		Workers:      c.Workers,
		Precision:    c.Precision,
		Logger:       logger,
	}
}

// MapSpec resolves the map definition: an explicit Map wins, otherwise
// Model names a preset as "family/name".
func (c *Config) MapSpec() (MapConfig, error) {
	if len(c.Map.Polys) > 0 {
		return c.Map, nil
	}
	p, ok := LookupPreset(c.Model)
	if !ok {
		return MapConfig{}, fmt.Errorf("unknown model: %s", c.Model)
	}
	return p.Map, nil
}

// BuildMap parses the resolved map definition.
func (c *Config) BuildMap() (*dynamo.Map, error) {
	spec, err := c.MapSpec()
	if err != nil {
		return nil, err
	}
	field, err := dynamo.ParseField(spec.Field)
	if err != nil {
		return nil, err
	}
	return dynamo.ParseMap(field, spec.Vars, spec.Polys...)
}

// HeightPoints parses Points.
func (c *Config) HeightPoints() ([]dynamo.Point, error) {
	out := make([]dynamo.Point, 0, len(c.Points))
	for _, coords := range c.Points {
		p, err := dynamo.ParsePoint(coords)
		if err != nil {
			return nil, fmt.Errorf("point %v: %w", coords, err)
		}
		out = append(out, p)
	}
	return out, nil
}
