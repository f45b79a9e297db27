package config

import (
	"sort"
	"strings"
)

var Presets = map[string]map[string]*Config{
	"quadratic": {
		"poonen": {
			Model:  "quadratic/poonen",
			Map:    MapConfig{Polys: []string{"x^2 - 29/16*y^2", "y^2"}},
			Points: [][]string{{"-1", "4"}, {"1", "1"}},
		},
		"three-quarters": {
			Model:        "quadratic/three-quarters",
			Map:          MapConfig{Polys: []string{"x^2 - 3/4*y^2", "y^2"}},
			LiftingPrime: 7,
		},
		"chebyshev": {
			Model:  "quadratic/chebyshev",
			Map:    MapConfig{Polys: []string{"x^2 - 2*y^2", "y^2"}},
			Points: [][]string{{"1", "1"}, {"1", "2"}},
		},
	},
	"rational": {
		"newton": {
			Model:  "rational/newton",
			Map:    MapConfig{Polys: []string{"x^2 + y^2", "2*x*y"}},
			Points: [][]string{{"17", "15"}, {"1", "3"}},
		},
		"two-cycle": {
			Model:   "rational/two-cycle",
			Map:     MapConfig{Polys: []string{"-5*x^2 + 4*y^2", "4*x*y"}},
			Periods: []int{1, 2},
		},
		"tree": {
			Model:   "rational/tree",
			Map:     MapConfig{Polys: []string{"x^2 - y^2", "3*x*y"}},
			Periods: []int{1, 2},
		},
	},
	"plane": {
		"squares": {
			Model:  "plane/squares",
			Map:    MapConfig{Polys: []string{"x^2", "y^2", "z^2"}},
			Points: [][]string{{"2", "1", "1"}},
		},
		"poonen-lift": {
			Model:     "plane/poonen-lift",
			Map:       MapConfig{Polys: []string{"x^2 - 29/16*z^2", "y^2", "z^2"}},
			Precision: 256,
			Points:    [][]string{{"-1", "4", "4"}},
		},
	},
	"finite": {
		"squares-gf5": {
			Model: "finite/squares-gf5",
			Map:   MapConfig{Field: "GF(5)", Polys: []string{"x^2", "y^2"}},
		},
		"poonen-gf7": {
			Model: "finite/poonen-gf7",
			Map:   MapConfig{Field: "GF(7)", Polys: []string{"16*x^2 - 29*y^2", "16*y^2"}},
		},
	},
}

func GetPreset(family, preset string) *Config {
	familyPresets, ok := Presets[family]
	if !ok {
		return nil
	}
	cfg, ok := familyPresets[preset]
	if !ok {
		return nil
	}
	return cfg
}

// LookupPreset resolves a "family/name" model.
func LookupPreset(model string) (*Config, bool) {
	family, name, ok := strings.Cut(model, "/")
	if !ok {
		return nil, false
	}
	cfg := GetPreset(family, name)
	return cfg, cfg != nil
}

func ListPresets(family string) []string {
	familyPresets, ok := Presets[family]
	if !ok {
		return nil
	}
	names := make([]string, 0, len(familyPresets))
	for name := range familyPresets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func ListFamilies() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// FromPreset returns a copy of the defaults overlaid with the preset's
// non-zero options.
func FromPreset(model string) (*Config, bool) {
	p, ok := LookupPreset(model)
	if !ok {
		return nil, false
	}
	cfg := DefaultConfig()
	cfg.Model = p.Model
	cfg.Map = p.Map
	if p.LiftingPrime != 0 {
		cfg.LiftingPrime = p.LiftingPrime
	}
	if p.Precision != 0 {
		cfg.Precision = p.Precision
	}
	cfg.Periods = p.Periods
	cfg.Points = p.Points
	return cfg, true
}
