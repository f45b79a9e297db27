package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/san-kum/arithdyn/internal/compute"
	"github.com/san-kum/arithdyn/internal/config"
	"github.com/san-kum/arithdyn/internal/dynamo"
	"github.com/san-kum/arithdyn/internal/experiment"
	"github.com/san-kum/arithdyn/internal/height"
	"github.com/san-kum/arithdyn/internal/lifting"
	"github.com/san-kum/arithdyn/internal/storage"
	"github.com/san-kum/arithdyn/internal/viz"
)

var (
	dataDir string
	verbose bool
	theme   string
	// Map input
	polys      []string
	vars       []string
	field      string
	preset     string
	configFile string
	// Engine options
	primeLow     int
	primeHigh    int
	liftingPrime int64
	errorBound   float64
	iterations   int
	precision    uint
	workers      int
	badPrimes    []int64
	periods      []int
	// Command options
	plot      bool
	place     string
	reduceAt  int64
	orbitLen  int
	levels    int
	saveRun   bool
	asJSON    bool
	showLimit int
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "arithdyn",
		Short:         "arithmetic dynamics on projective space",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			viz.SetTheme(theme)
		},
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&dataDir, "data", ".arithdyn", "data directory")
	pf.BoolVarP(&verbose, "verbose", "v", false, "debug logging")
	pf.StringVar(&theme, "theme", "cyberpunk", "color theme ("+strings.Join(viz.ThemeNames(), ", ")+")")
	pf.StringArrayVarP(&polys, "poly", "f", nil, "coordinate polynomial (repeat once per coordinate)")
	pf.StringSliceVar(&vars, "vars", nil, "variable names")
	pf.StringVar(&field, "field", "QQ", "base field: QQ, GF(p) or a generic name")
	pf.StringVar(&preset, "preset", "", "preset map as family/name")
	pf.StringVar(&configFile, "config", "", "config file path (yaml)")
	pf.IntVar(&primeLow, "prime-low", config.DefaultPrimeLow, "lowest sieve prime")
	pf.IntVar(&primeHigh, "prime-high", config.DefaultPrimeHigh, "highest sieve prime")
	pf.Int64Var(&liftingPrime, "lifting-prime", config.DefaultLiftingPrime, "prime for p-adic lifting")
	pf.Float64Var(&errorBound, "error-bound", 0, "height error bound (excludes --iterations)")
	pf.IntVar(&iterations, "iterations", 0, "fixed Green's function iterations")
	pf.UintVar(&precision, "precision", config.DefaultPrecision, "working precision (bits or p-adic digits)")
	pf.IntVar(&workers, "workers", 0, "sieve workers (0 = all CPUs)")
	pf.Int64SliceVar(&badPrimes, "bad-primes", nil, "override the primes of bad reduction")
	pf.IntSliceVar(&periods, "periods", nil, "override the possible periods")

	badPrimesCmd := &cobra.Command{
		Use:   "bad-primes",
		Short: "list the primes of bad reduction",
		Args:  cobra.NoArgs,
		RunE:  runBadPrimes,
	}

	periodsCmd := &cobra.Command{
		Use:   "periods",
		Short: "sieve the possible periods of rational periodic points",
		Args:  cobra.NoArgs,
		RunE:  runPeriods,
	}
	periodsCmd.Flags().BoolVar(&plot, "plot", false, "plot surviving periods per prime")

	reduceCmd := &cobra.Command{
		Use:   "reduce",
		Short: "show the cycles of the map modulo a prime",
		Args:  cobra.NoArgs,
		RunE:  runReduce,
	}
	reduceCmd.Flags().Int64VarP(&reduceAt, "prime", "p", 7, "prime of good reduction")

	heightCmd := &cobra.Command{
		Use:     "height [coords...]",
		Short:   "canonical height of a point, or a local Green's function with --place",
		Example: "  arithdyn height --preset quadratic/poonen --error-bound 0.01 -- -1 4",
		Args:    cobra.MinimumNArgs(2),
		RunE:    runHeight,
	}
	heightCmd.Flags().BoolVar(&plot, "plot", false, "plot the convergence trace")
	heightCmd.Flags().StringVar(&place, "place", "", "inf or a prime: evaluate one local Green's function")

	periodicCmd := &cobra.Command{
		Use:   "periodic",
		Short: "list the rational periodic points",
		Args:  cobra.NoArgs,
		RunE:  runPoints(func(b compute.Backend) pointsFunc { return b.PeriodicPoints }),
	}

	preperiodicCmd := &cobra.Command{
		Use:   "preperiodic",
		Short: "list the rational preperiodic points",
		Args:  cobra.NoArgs,
		RunE:  runPoints(func(b compute.Backend) pointsFunc { return b.PreperiodicPoints }),
	}

	graphCmd := &cobra.Command{
		Use:   "graph",
		Short: "draw the orbit graph of the rational preperiodic points",
		Args:  cobra.NoArgs,
		RunE:  runGraph,
	}

	orbitCmd := &cobra.Command{
		Use:   "orbit [coords...]",
		Short: "print the forward orbit of a point",
		Args:  cobra.MinimumNArgs(2),
		RunE:  runOrbit,
	}
	orbitCmd.Flags().IntVarP(&orbitLen, "steps", "n", 10, "number of iterates")

	componentCmd := &cobra.Command{
		Use:   "component [coords...]",
		Short: "points joined to a point by images and rational preimages",
		Args:  cobra.MinimumNArgs(2),
		RunE:  runComponent,
	}
	componentCmd.Flags().IntVar(&levels, "levels", 2, "steps to explore (0 = until closed)")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run the full pipeline and save the report",
		Args:  cobra.NoArgs,
		RunE:  runPipeline,
	}
	runCmd.Flags().BoolVar(&saveRun, "save", true, "save the report under --data")

	presetsCmd := &cobra.Command{
		Use:   "presets [family]",
		Short: "list preset families, or the presets of one family",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				for _, fam := range config.ListFamilies() {
					fmt.Printf("%s: %s\n", fam, strings.Join(config.ListPresets(fam), ", "))
				}
				return nil
			}
			names := config.ListPresets(args[0])
			if len(names) == 0 {
				fmt.Printf("no presets for family: %s\n", args[0])
				return nil
			}
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "PRESET\tFIELD\tMAP")
			for _, name := range names {
				p := config.GetPreset(args[0], name)
				f := p.Map.Field
				if f == "" {
					f = "QQ"
				}
				fmt.Fprintf(w, "%s/%s\t%s\t(%s)\n", args[0], name, f, strings.Join(p.Map.Polys, " : "))
			}
			return w.Flush()
		},
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list saved runs",
		Args:  cobra.NoArgs,
		RunE:  listRuns,
	}

	showCmd := &cobra.Command{
		Use:   "show [run_id]",
		Short: "show a saved run",
		Args:  cobra.ExactArgs(1),
		RunE:  showRun,
	}
	showCmd.Flags().BoolVar(&asJSON, "json", false, "print report.json")
	showCmd.Flags().IntVar(&showLimit, "limit", 50, "maximum points to print")

	rootCmd.AddCommand(badPrimesCmd, periodsCmd, reduceCmd, heightCmd, periodicCmd, preperiodicCmd,
		graphCmd, orbitCmd, componentCmd, runCmd, presetsCmd, listCmd, showCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newLogger() *log.Logger {
	logger := log.NewWithOptions(os.Stderr, log.Options{Prefix: "arithdyn"})
	if verbose {
		logger.SetLevel(log.DebugLevel)
	}
	return logger
}

// loadConfig applies, in increasing priority: defaults, --preset, --config
// and explicitly set flags.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if preset != "" {
		p, ok := config.FromPreset(preset)
		if !ok {
			return nil, fmt.Errorf("unknown preset: %s (families: %v)", preset, config.ListFamilies())
		}
		cfg = p
	}
	if configFile != "" {
		fileCfg, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = fileCfg
	}

	flags := cmd.Flags()
	if flags.Changed("poly") {
		cfg.Map = config.MapConfig{Field: field, Vars: vars, Polys: polys}
	} else {
		if flags.Changed("vars") {
			cfg.Map.Vars = vars
		}
		if flags.Changed("field") {
			cfg.Map.Field = field
		}
	}
	if flags.Changed("prime-low") {
		cfg.PrimeBound.Low = primeLow
	}
	if flags.Changed("prime-high") {
		cfg.PrimeBound.High = primeHigh
	}
	if flags.Changed("lifting-prime") {
		cfg.LiftingPrime = liftingPrime
	}
	if flags.Changed("error-bound") {
		cfg.ErrorBound = errorBound
	}
	if flags.Changed("iterations") {
		cfg.Iterations = iterations
	}
	if flags.Changed("precision") {
		cfg.Precision = precision
	}
	if flags.Changed("workers") {
		cfg.Workers = workers
	}
	if flags.Changed("bad-primes") {
		cfg.BadPrimes = badPrimes
	}
	if flags.Changed("periods") {
		cfg.Periods = periods
	}
	return cfg, cfg.Validate()
}

type pointsFunc func(ctx context.Context, cfg dynamo.Config) ([]dynamo.Point, error)

// setup resolves the map, its backend and the engine options.
func setup(cmd *cobra.Command) (*config.Config, *dynamo.Map, compute.Backend, dynamo.Config, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, nil, nil, dynamo.Config{}, err
	}
	f, err := cfg.BuildMap()
	if err != nil {
		return nil, nil, nil, dynamo.Config{}, err
	}
	return cfg, f, compute.Select(f), cfg.Options(newLogger()), nil
}

func runBadPrimes(cmd *cobra.Command, args []string) error {
	_, f, b, _, err := setup(cmd)
	if err != nil {
		return err
	}
	bad, err := b.BadPrimes()
	if err != nil {
		return err
	}
	fmt.Printf("map: %s\n", f)
	if len(bad) == 0 {
		fmt.Println("good reduction everywhere")
		return nil
	}
	fmt.Printf("bad primes: %v\n", bad)
	return nil
}

func runPeriods(cmd *cobra.Command, args []string) error {
	_, f, b, opts, err := setup(cmd)
	if err != nil {
		return err
	}
	res, err := b.PossiblePeriods(context.Background(), opts)
	if err != nil {
		return err
	}

	fmt.Printf("map: %s\n\n", f)
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "PRIME\tPERIODS")
	for _, p := range res.Primes {
		fmt.Fprintf(w, "%d\t%v\n", p, res.PerPrime[p])
	}
	for _, p := range res.Skipped {
		fmt.Fprintf(w, "%d\tskipped\n", p)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Printf("\npossible periods: %v\n", res.Periods)

	if plot {
		fmt.Println()
		fmt.Println(viz.PlotPeriods(res.Primes, res.PerPrime))
	}
	return nil
}

func runReduce(cmd *cobra.Command, args []string) error {
	_, _, b, _, err := setup(cmd)
	if err != nil {
		return err
	}
	m, err := b.ReduceMod(reduceAt)
	if err != nil {
		return err
	}
	cycles, err := m.Cycles()
	if err != nil {
		return err
	}
	rep, err := m.PossiblePeriods()
	if err != nil {
		return err
	}

	fmt.Printf("reduction mod %d: degree %d on P^%d\n\n", m.Prime(), m.Degree(), m.Dim())
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "LENGTH\tCYCLE")
	for _, c := range cycles {
		parts := make([]string, len(c))
		for i, pt := range c {
			parts[i] = pt.String()
		}
		fmt.Fprintf(w, "%d\t%s\n", len(c), strings.Join(parts, " -> "))
	}
	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Printf("\npossible periods of rational points: %v\n", rep.Periods)
	return nil
}

func parsePlace(s string) (dynamo.Place, error) {
	if s == "inf" || s == "infinity" {
		return dynamo.Archimedean(), nil
	}
	p, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return dynamo.Place{}, fmt.Errorf("%w: %q", dynamo.ErrInvalidPlace, s)
	}
	return dynamo.PrimePlace(p), nil
}

func runHeight(cmd *cobra.Command, args []string) error {
	_, f, b, opts, err := setup(cmd)
	if err != nil {
		return err
	}
	P, err := dynamo.ParsePoint(args)
	if err != nil {
		return err
	}

	var res *height.Result
	label := "canonical height"
	if place != "" {
		v, err := parsePlace(place)
		if err != nil {
			return err
		}
		if res, err = height.GreenFunction(f, P, v, opts); err != nil {
			return err
		}
		label = "green function at " + v.String()
	} else if res, err = b.CanonicalHeight(P, opts); err != nil {
		return err
	}

	fmt.Printf("map:   %s\n", f)
	fmt.Printf("point: %s\n", P.Normalize())
	fmt.Printf("%s: %.15f\n", label, res.Value)
	if res.Bounded {
		fmt.Printf("error bound: %g after %d iterations\n", res.ErrorBound, res.Iterations)
	} else {
		fmt.Printf("iterations: %d (no error bound)\n", res.Iterations)
	}
	if len(res.Local) > 1 {
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "PLACE\tLOCAL")
		for _, l := range res.Local {
			fmt.Fprintf(w, "%s\t%.15f\n", l.Place, l.Value)
		}
		if err := w.Flush(); err != nil {
			return err
		}
	}
	if plot {
		fmt.Println()
		fmt.Println(viz.PlotTrace(res.Trace, label+" (partial sums)"))
	}
	return nil
}

func runPoints(pick func(compute.Backend) pointsFunc) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		_, f, b, opts, err := setup(cmd)
		if err != nil {
			return err
		}
		pts, err := pick(b)(context.Background(), opts)
		if err != nil {
			return err
		}
		fmt.Printf("map: %s\n", f)
		fmt.Printf("%d points\n", len(pts))
		for _, p := range pts {
			fmt.Printf("  %s\n", p)
		}
		return nil
	}
}

func runGraph(cmd *cobra.Command, args []string) error {
	cfg, _, _, _, err := setup(cmd)
	if err != nil {
		return err
	}
	cfg.Stages = []string{"bad-primes", "periods", "periodic", "preperiodic", "graph"}
	e, err := experiment.New(cfg, newLogger())
	if err != nil {
		return err
	}
	r, err := e.Run(context.Background())
	if err != nil {
		return err
	}
	if r.Graph == nil {
		fmt.Println("no rational preperiodic points found")
		return nil
	}
	fmt.Print(viz.RenderGraph(r.Graph))
	return nil
}

func runOrbit(cmd *cobra.Command, args []string) error {
	_, f, _, _, err := setup(cmd)
	if err != nil {
		return err
	}
	P, err := dynamo.ParsePoint(args)
	if err != nil {
		return err
	}
	orbit, err := f.Orbit(P, 0, orbitLen, true)
	if err != nil {
		return err
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "N\tPOINT\tNAIVE HEIGHT")
	for i, q := range orbit {
		fmt.Fprintf(w, "%d\t%s\t%.6f\n", i, q, q.NaiveHeight())
	}
	return w.Flush()
}

func runComponent(cmd *cobra.Command, args []string) error {
	_, f, _, _, err := setup(cmd)
	if err != nil {
		return err
	}
	P, err := dynamo.ParsePoint(args)
	if err != nil {
		return err
	}
	pts, err := lifting.ConnectedComponent(f, P, levels)
	if err != nil {
		return err
	}
	for _, p := range pts {
		fmt.Printf("  %s\n", p)
	}
	return nil
}

func runPipeline(cmd *cobra.Command, args []string) error {
	cfg, _, _, _, err := setup(cmd)
	if err != nil {
		return err
	}
	e, err := experiment.New(cfg, newLogger())
	if err != nil {
		return err
	}
	r, err := e.Run(context.Background())
	if err != nil {
		return err
	}
	fmt.Println(viz.RenderReport(r))

	if !saveRun {
		return nil
	}
	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}
	runID, err := st.Save(r)
	if err != nil {
		return err
	}
	fmt.Printf("\nsaved run: %s\n", runID)
	return nil
}

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tMODEL\tTIME\tFIELD\tPERIODS\tPOINTS")

	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%v\t%d\n",
			run.ID,
			run.Model,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Field,
			run.Periods,
			run.NumPoints,
		)
	}

	return w.Flush()
}

func showRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	if asJSON {
		return storage.ExportJSON(os.Stdout, meta)
	}

	points, err := st.LoadPoints(runID)
	if err != nil {
		return err
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("model: %s\n", meta.Model)
	fmt.Printf("map: %s over %s\n", meta.Map, meta.Field)
	fmt.Printf("bad primes: %v\n", meta.BadPrimes)
	fmt.Printf("periods: %v\n\n", meta.Periods)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "POINT\tKIND\tPREPERIOD\tPERIOD")
	for i, p := range points {
		if i == showLimit {
			fmt.Fprintf(w, "...\t%d more\t\t\n", len(points)-showLimit)
			break
		}
		fmt.Fprintf(w, "%s\t%s\t%d\t%d\n", viz.PointLabel(strings.Join(p.Coords, ":")), p.Kind, p.Preperiod, p.Period)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	for _, h := range meta.Heights {
		fmt.Printf("\nh%s = %.12f\n", viz.PointLabel(h.Point), h.Value)
		if len(h.Trace) > 1 {
			fmt.Println(viz.PlotTrace(h.Trace, "green function partial sums"))
		}
	}
	return nil
}
