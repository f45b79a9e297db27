package viz

import (
	"strconv"
	"strings"
	"testing"

	"github.com/san-kum/arithdyn/internal/experiment"
	"github.com/san-kum/arithdyn/internal/orbitgraph"
)

func TestPointLabel(t *testing.T) {
	if got := PointLabel("-1:4"); got != "(-1 : 4)" {
		t.Errorf("expected (-1 : 4), got %s", got)
	}
}

func TestRenderGraph(t *testing.T) {
	g, err := orbitgraph.Build([]int{0, 1, 2, 3, 4, 5, 6}, strconv.Itoa, func(x int) (int, error) { return x * x % 7, nil })
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}
	out := RenderGraph(g)
	for _, want := range []string{"cycle 3 (period 2)", "(2)", "(4)", "tails:", "[preperiod 1]"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in output:\n%s", want, out)
		}
	}
}

func TestPlots(t *testing.T) {
	if PlotTrace(nil, "empty") != "" {
		t.Error("expected empty plot for empty trace")
	}
	out := PlotTrace([]float64{0.5, 0.6, 0.65, 0.66}, "green function")
	if !strings.Contains(out, "green function") {
		t.Errorf("expected caption in plot:\n%s", out)
	}
	out = PlotPeriods([]int64{3, 5}, map[int64][]int{3: {1, 2, 3}, 5: {1, 3}})
	if !strings.Contains(out, "primes 3..5") {
		t.Errorf("expected prime range in caption:\n%s", out)
	}
}

func TestSparklineChart(t *testing.T) {
	if got := SparklineChart(nil, 5); got != "─────" {
		t.Errorf("expected flat line, got %q", got)
	}
	if got := SparklineChart([]float64{1, 2, 3}, 10); !strings.Contains(got, "█") {
		t.Errorf("expected a full block for the maximum, got %q", got)
	}
}

func TestThemes(t *testing.T) {
	if GetTheme("nonexistent").Name != "cyberpunk" {
		t.Error("expected default theme for unknown name")
	}
	SetTheme("ocean")
	defer SetTheme("cyberpunk")
	if CurrentTheme.Name != "ocean" {
		t.Errorf("expected ocean, got %s", CurrentTheme.Name)
	}
	if len(ThemeNames()) != len(Themes) {
		t.Error("theme names out of sync")
	}
}

func TestRenderReport(t *testing.T) {
	r := &experiment.Report{
		Model:     "custom",
		Map:       "(x^2 : y^2)",
		Field:     "QQ(i)",
		Backend:   "generic",
		BadPrimes: []int64{2},
		Skipped:   map[string]string{"heights": "unsupported"},
	}
	out := RenderReport(r)
	for _, want := range []string{"arithdyn report", "custom", "[2]", "skipped heights"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in report:\n%s", want, out)
		}
	}
}
