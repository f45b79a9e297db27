package viz

import (
	"fmt"
	"sort"
	"strings"

	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/arithdyn/internal/experiment"
	"github.com/san-kum/arithdyn/internal/orbitgraph"
)

// PointLabel turns a canonical key "a:b:c" into "(a : b : c)".
func PointLabel(key string) string {
	return "(" + strings.ReplaceAll(key, ":", " : ") + ")"
}

// RenderGraph draws each cycle on one line followed by the tail vertices
// and their images.
func RenderGraph[T any](g *orbitgraph.Graph[T]) string {
	var b strings.Builder
	for n, c := range g.Cycles() {
		parts := make([]string, len(c))
		for i, v := range c {
			parts[i] = PeriodicPt.Render(PointLabel(g.Key(v)))
		}
		fmt.Fprintf(&b, "%s %s ↺\n",
			MetricLabel.Render(fmt.Sprintf("cycle %d (period %d):", n+1, len(c))),
			strings.Join(parts, " → "))
	}
	tails := g.Tails()
	if len(tails) == 0 {
		return b.String()
	}
	b.WriteString(MetricLabel.Render("tails:") + "\n")
	for _, v := range tails {
		pre, _ := g.Structure(v)
		fmt.Fprintf(&b, "  %s → %s %s\n",
			TailPt.Render(PointLabel(g.Key(v))),
			PointLabel(g.Key(g.Successor(v))),
			Subtle.Render(fmt.Sprintf("[preperiod %d]", pre)))
	}
	return b.String()
}

// PlotTrace plots the partial sums of a Green's function iteration.
func PlotTrace(trace []float64, caption string) string {
	if len(trace) == 0 {
		return ""
	}
	return asciigraph.Plot(trace,
		asciigraph.Height(10),
		asciigraph.Width(60),
		asciigraph.Caption(caption),
	)
}

// PlotPeriods plots how many periods survive at each prime of the sieve.
func PlotPeriods(primes []int64, perPrime map[int64][]int) string {
	if len(primes) == 0 {
		return ""
	}
	series := make([]float64, len(primes))
	for i, p := range primes {
		series[i] = float64(len(perPrime[p]))
	}
	return asciigraph.Plot(series,
		asciigraph.Height(8),
		asciigraph.Width(len(primes)*6),
		asciigraph.Caption(fmt.Sprintf("possible periods at primes %d..%d", primes[0], primes[len(primes)-1])),
	)
}

// RenderReport summarizes a pipeline report.
func RenderReport(r *experiment.Report) string {
	const w = 12
	lines := []string{
		KeyValue("model", r.Model, w),
		KeyValue("map", r.Map, w),
		KeyValue("field", r.Field+" ("+r.Backend+")", w),
	}
	if r.BadPrimes != nil {
		lines = append(lines, KeyValue("bad primes", fmt.Sprint(r.BadPrimes), w))
	}
	if r.Periods != nil {
		lines = append(lines, KeyValue("periods", fmt.Sprint(r.Periods), w))
	}
	if r.Periodic != nil {
		lines = append(lines, KeyValue("periodic", fmt.Sprintf("%d points", len(r.Periodic)), w))
	}
	if r.Preperiodic != nil {
		lines = append(lines, KeyValue("preperiodic", fmt.Sprintf("%d points", len(r.Preperiodic)), w))
	}
	for _, h := range r.Heights {
		v := fmt.Sprintf("%.10f", h.Value)
		if h.Bounded {
			v += fmt.Sprintf(" ± %g", h.ErrorBound)
		}
		lines = append(lines, KeyValue("h"+PointLabel(h.Point.Key()), v+"  "+SparklineChart(h.Trace, 20), w))
	}

	skipped := make([]string, 0, len(r.Skipped))
	for stage := range r.Skipped {
		skipped = append(skipped, stage)
	}
	sort.Strings(skipped)
	for _, stage := range skipped {
		lines = append(lines, Warning.Render("skipped "+stage+": "+r.Skipped[stage]))
	}

	out := BoxWithTitle("arithdyn report", strings.Join(lines, "\n"))
	if r.Graph != nil {
		out += "\n" + Separator(60) + "\n" + RenderGraph(r.Graph)
	}
	return out
}
