package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/san-kum/arithdyn/internal/dynamo"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Model != DefaultModel {
		t.Errorf("expected model %s, got %s", DefaultModel, cfg.Model)
	}
	if cfg.PrimeBound.Low > cfg.PrimeBound.High {
		t.Error("prime bound should be a non-empty range")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
	f, err := cfg.BuildMap()
	if err != nil {
		t.Fatalf("build map failed: %v", err)
	}
	if f.Dim() != 1 || f.Degree() != 2 {
		t.Errorf("expected a quadratic map on P^1, got P^%d degree %d", f.Dim(), f.Degree())
	}
}

func TestGetPreset(t *testing.T) {
	cfg := GetPreset("quadratic", "poonen")
	if cfg == nil {
		t.Fatal("expected preset, got nil")
	}
	if len(cfg.Map.Polys) != 2 {
		t.Errorf("expected 2 polynomials, got %d", len(cfg.Map.Polys))
	}
}

func TestGetPreset_NotFound(t *testing.T) {
	cfg := GetPreset("quadratic", "nonexistent")
	if cfg != nil {
		t.Error("expected nil for nonexistent preset")
	}

	cfg = GetPreset("nonexistent", "poonen")
	if cfg != nil {
		t.Error("expected nil for nonexistent family")
	}
	if _, ok := LookupPreset("poonen"); ok {
		t.Error("expected a model without family to be rejected")
	}
}

func TestListPresets(t *testing.T) {
	presets := ListPresets("rational")
	if len(presets) != 3 || presets[0] != "newton" {
		t.Errorf("expected sorted rational presets, got %v", presets)
	}

	presets = ListPresets("nonexistent")
	if presets != nil {
		t.Error("expected nil for nonexistent family")
	}
}

func TestEveryPresetBuilds(t *testing.T) {
	for _, family := range ListFamilies() {
		for _, name := range ListPresets(family) {
			cfg, ok := FromPreset(family + "/" + name)
			if !ok {
				t.Fatalf("%s/%s: lookup failed", family, name)
			}
			if cfg.Model != family+"/"+name {
				t.Errorf("%s/%s: model field is %s", family, name, cfg.Model)
			}
			if _, err := cfg.BuildMap(); err != nil {
				t.Errorf("%s/%s: %v", family, name, err)
			}
			if _, err := cfg.HeightPoints(); err != nil {
				t.Errorf("%s/%s: %v", family, name, err)
			}
		}
	}
}

func TestLoadSave(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.yaml")
	cfg := DefaultConfig()
	cfg.Map = MapConfig{Field: "QQ", Vars: []string{"u", "v"}, Polys: []string{"u^2 + v^2", "2*u*v"}}
	cfg.ErrorBound = 0.01
	cfg.BadPrimes = []int64{2}

	if err := Save(path, cfg); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	got, err := Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if got.ErrorBound != 0.01 || len(got.BadPrimes) != 1 || got.Map.Vars[0] != "u" {
		t.Errorf("round trip lost options: %+v", got)
	}
	f, err := got.BuildMap()
	if err != nil {
		t.Fatalf("build map failed: %v", err)
	}
	if f.Vars()[1] != "v" {
		t.Errorf("expected variable v, got %s", f.Vars()[1])
	}
}

func TestLoadPartialKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "partial.yaml")
	if err := os.WriteFile(path, []byte("model: rational/newton\nworkers: 2\n"), 0644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.LiftingPrime != DefaultLiftingPrime {
		t.Errorf("expected lifting prime %d, got %d", DefaultLiftingPrime, cfg.LiftingPrime)
	}
	if cfg.Options(nil).Workers != 2 {
		t.Errorf("expected 2 workers, got %d", cfg.Options(nil).Workers)
	}
}

func TestValidate(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ErrorBound = 0.1
	cfg.Iterations = 5
	if err := cfg.Validate(); !errors.Is(err, dynamo.ErrConflictingOptions) {
		t.Errorf("expected ErrConflictingOptions, got %v", err)
	}

	cfg = DefaultConfig()
	cfg.PrimeBound = BoundConfig{Low: 30, High: 10}
	if err := cfg.Validate(); !errors.Is(err, dynamo.ErrParameterBounds) {
		t.Errorf("expected ErrParameterBounds, got %v", err)
	}

	cfg = DefaultConfig()
	cfg.Model = "quadratic/missing"
	if _, err := cfg.BuildMap(); err == nil {
		t.Error("expected error for unknown model")
	}
}
