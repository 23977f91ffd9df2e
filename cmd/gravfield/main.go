package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/san-kum/gravfield/internal/analysis"
	"github.com/san-kum/gravfield/internal/automation"
	"github.com/san-kum/gravfield/internal/compute"
	"github.com/san-kum/gravfield/internal/config"
	"github.com/san-kum/gravfield/internal/export"
	"github.com/san-kum/gravfield/internal/gui"
	"github.com/san-kum/gravfield/internal/metrics"
	"github.com/san-kum/gravfield/internal/sim"
	"github.com/san-kum/gravfield/internal/storage"
	"github.com/san-kum/gravfield/internal/transfer"
	"github.com/san-kum/gravfield/internal/viz"
)

var (
	dataDir string

	sources    int
	population int
	halfExtent float32
	sourceMass float32
	gConst     float32
	chunkSize  int
	workers    int
	seed       int64
	seedMode   string
	falloff    string
	softening  float32
	selector   string
	dt         float32
	steps      int
	frameRate  int

	configFile string
	preset     string

	jsonOut   bool
	wallClock bool
	theme     string
	outFile   string
	svgSize   int
	braille   bool
	exportOut string
	series    string

	sweepMin   float64
	sweepMax   float64
	sweepCount int
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86"))
	mutedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	warnStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("208"))
)

func main() {
	rootCmd := &cobra.Command{
		Use:          "gravfield",
		Short:        "parallel gravity particle field",
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".gravfield", "data directory")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run a fixed number of steps and record metrics",
		RunE:  runSimulation,
	}
	addSimFlags(runCmd)
	runCmd.Flags().BoolVar(&jsonOut, "json", false, "print the run as json instead of a summary")

	liveCmd := &cobra.Command{
		Use:   "live",
		Short: "stream frames into the terminal view",
		RunE:  runLive,
	}
	addSimFlags(liveCmd)
	liveCmd.Flags().BoolVar(&wallClock, "wall", false, "step with wall-clock time instead of a fixed dt")
	liveCmd.Flags().StringVar(&theme, "theme", "cyberpunk", "color theme")

	guiCmd := &cobra.Command{
		Use:   "gui",
		Short: "stream frames into a raylib window",
		RunE:  runGUI,
	}
	addSimFlags(guiCmd)
	guiCmd.Flags().BoolVar(&wallClock, "wall", false, "step with wall-clock time instead of a fixed dt")

	benchCmd := &cobra.Command{
		Use:   "bench",
		Short: "measure step throughput across worker counts and chunk sizes",
		RunE:  benchPipeline,
	}
	addSimFlags(benchCmd)

	snapshotCmd := &cobra.Command{
		Use:   "snapshot",
		Short: "run and write the final frame as svg",
		RunE:  snapshot,
	}
	addSimFlags(snapshotCmd)
	snapshotCmd.Flags().StringVarP(&outFile, "out", "o", "frame.svg", "output file")
	snapshotCmd.Flags().IntVar(&svgSize, "size", 800, "image size in pixels")
	snapshotCmd.Flags().BoolVar(&braille, "braille", false, "render the terminal canvas instead of every particle")

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list available presets",
		RunE:  listPresets,
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list runs",
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot recorded metric series",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}

	analyzeCmd := &cobra.Command{
		Use:   "analyze [run_id]",
		Short: "frequency analysis of a metric series",
		Args:  cobra.ExactArgs(1),
		RunE:  analyzeRun,
	}
	analyzeCmd.Flags().StringVar(&series, "series", "spread", "metric series to analyze")

	exportCmd := &cobra.Command{
		Use:   "export [run_id]",
		Short: "export run metadata",
		Args:  cobra.ExactArgs(1),
		RunE:  exportRun,
	}
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", "", "write to file instead of stdout")

	scenarioCmd := &cobra.Command{
		Use:   "scenario [file]",
		Short: "run a scripted sequence of runs from yaml",
		Args:  cobra.ExactArgs(1),
		RunE:  runScenario,
	}

	sweepCmd := &cobra.Command{
		Use:   "sweep [param]",
		Short: "run once per value of a parameter and compare metrics",
		Args:  cobra.ExactArgs(1),
		RunE:  runSweep,
	}
	addSimFlags(sweepCmd)
	sweepCmd.Flags().Float64Var(&sweepMin, "min", 0.5, "first value")
	sweepCmd.Flags().Float64Var(&sweepMax, "max", 2.0, "last value")
	sweepCmd.Flags().IntVar(&sweepCount, "count", 4, "number of values")

	rootCmd.AddCommand(runCmd, liveCmd, guiCmd, benchCmd, snapshotCmd, scenarioCmd, sweepCmd, presetsCmd, listCmd, plotCmd, analyzeCmd, exportCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func addSimFlags(cmd *cobra.Command) {
	d := config.DefaultConfig()
	f := cmd.Flags()
	f.IntVar(&sources, "sources", d.Sources, "number of mass-bearing sources")
	f.IntVar(&population, "population", d.Population, "number of massless particles")
	f.Float32Var(&halfExtent, "extent", d.HalfExtent, "half size of the initial square")
	f.Float32Var(&sourceMass, "mass", d.SourceMass, "mass of every source")
	f.Float32Var(&gConst, "g", d.G, "gravitational constant")
	f.IntVar(&chunkSize, "chunk", d.ChunkSize, "particles per parallel job")
	f.IntVar(&workers, "workers", d.Workers, "worker goroutines (0 = GOMAXPROCS)")
	f.Int64Var(&seed, "seed", d.Seed, "random seed")
	f.StringVar(&seedMode, "seed-mode", d.SeedMode, "worker or run")
	f.StringVar(&falloff, "falloff", d.Falloff, "constant or inverse_square")
	f.Float32Var(&softening, "softening", d.Softening, "softening length for inverse_square")
	f.StringVar(&selector, "selector", d.Selector, "all, massive or moving")
	f.Float32Var(&dt, "dt", d.Dt, "timestep")
	f.IntVar(&steps, "steps", d.Steps, "number of steps")
	f.IntVar(&frameRate, "fps", d.FPS, "consumer frame rate")
	f.StringVar(&configFile, "config", "", "config file path (yaml)")
	f.StringVar(&preset, "preset", "", "use preset configuration")
}

// resolveConfig layers defaults, then the preset, then the config file, then
// any flag set on the command line.
func resolveConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if preset != "" {
		cfg = config.GetPreset(preset)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
		}
	}

	if configFile != "" {
		if err := config.LoadInto(configFile, cfg); err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
	}

	flags := cmd.Flags()
	if flags.Changed("sources") {
		cfg.Sources = sources
	}
	if flags.Changed("population") {
		cfg.Population = population
	}
	if flags.Changed("extent") {
		cfg.HalfExtent = halfExtent
	}
	if flags.Changed("mass") {
		cfg.SourceMass = sourceMass
	}
	if flags.Changed("g") {
		cfg.G = gConst
	}
	if flags.Changed("chunk") {
		cfg.ChunkSize = chunkSize
	}
	if flags.Changed("workers") {
		cfg.Workers = workers
	}
	if flags.Changed("seed") {
		cfg.Seed = seed
	}
	if flags.Changed("seed-mode") {
		cfg.SeedMode = seedMode
	}
	if flags.Changed("falloff") {
		cfg.Falloff = falloff
	}
	if flags.Changed("softening") {
		cfg.Softening = softening
	}
	if flags.Changed("selector") {
		cfg.Selector = selector
	}
	if flags.Changed("dt") {
		cfg.Dt = dt
	}
	if flags.Changed("steps") {
		cfg.Steps = steps
	}
	if flags.Changed("fps") {
		cfg.FPS = frameRate
	}

	return cfg, cfg.Validate()
}

func buildPipeline(cfg *config.Config) (*sim.Pipeline, error) {
	p, err := automation.NewPipeline(cfg)
	if err != nil {
		return nil, err
	}
	compute.SetBackend(p.Backend())
	return p, nil
}

func metadata(cfg *config.Config) storage.RunMetadata {
	return storage.RunMetadata{
		Preset:     preset,
		Seed:       cfg.Seed,
		SeedMode:   cfg.SeedMode,
		Sources:    cfg.Sources,
		Population: cfg.Population,
		Falloff:    cfg.Falloff,
		Selector:   cfg.Selector,
		Backend:    compute.GetBackend().Name(),
		Dt:         float64(cfg.Dt),
	}
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt)
}

func runSimulation(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	if cfg.Steps <= 0 {
		return fmt.Errorf("run needs a positive step count, got %d", cfg.Steps)
	}

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}

	p, err := buildPipeline(cfg)
	if err != nil {
		return err
	}
	defer p.Close()
	for _, m := range metrics.Standard() {
		p.AddMetric(m)
	}

	ctx, stop := signalContext()
	defer stop()

	if !jsonOut {
		fmt.Printf("running %d sources, %d particles on %s...\n", cfg.Sources, cfg.Population, p.Backend().Name())
	}

	result, err := p.Run(ctx, cfg.Steps, sim.FixedClock{Dt: cfg.Dt})
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	meta := metadata(cfg)
	runID, saveErr := st.Save(meta, result)
	if saveErr != nil {
		return saveErr
	}

	if jsonOut {
		meta.ID = runID
		return storage.WriteJSON(os.Stdout, meta, result)
	}

	if err != nil {
		fmt.Println(warnStyle.Render("interrupted"))
	}
	fmt.Printf("completed in %v\n", result.Elapsed)
	fmt.Printf("run id: %s\n", runID)
	fmt.Printf("steps: %d (%.1f steps/s)\n", result.StepsTaken, float64(result.StepsTaken)/result.Elapsed.Seconds())
	fmt.Printf("frame records: %d\n", result.LastCount)
	fmt.Println("\nmetrics:")
	names := make([]string, 0, len(result.Metrics))
	for name := range result.Metrics {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Printf("  %s: %.6f\n", name, result.Metrics[name])
	}
	if result.Metrics["non_finite"] > 0 {
		fmt.Println(warnStyle.Render("\nnon-finite particles present"))
	}

	return nil
}

func clockFor(cfg *config.Config) sim.Clock {
	if wallClock {
		return sim.NewWallClock(4 * cfg.Dt)
	}
	return sim.FixedClock{Dt: cfg.Dt}
}

// streamTo runs the producer in the background and consume in the calling
// goroutine, which raylib requires to be the main one.
func streamTo(cfg *config.Config, consume func(ctx context.Context, h *transfer.Handoff) error) error {
	p, err := buildPipeline(cfg)
	if err != nil {
		return err
	}
	defer p.Close()

	ctx, stop := signalContext()
	defer stop()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	h := transfer.NewHandoff()
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		err := p.Stream(gctx, clockFor(cfg), h)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})

	consumeErr := consume(gctx, h)
	h.Close()
	cancel()

	if err := g.Wait(); err != nil {
		return err
	}
	return consumeErr
}

func runLive(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}

	return streamTo(cfg, func(ctx context.Context, h *transfer.Handoff) error {
		return viz.Live(ctx, h, viz.Options{
			Title:      preset,
			HalfExtent: cfg.HalfExtent * 2,
			FPS:        cfg.FPS,
			Theme:      theme,
		})
	})
}

func runGUI(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}

	return streamTo(cfg, func(ctx context.Context, h *transfer.Handoff) error {
		return gui.Run(ctx, h, gui.Options{
			HalfExtent: cfg.HalfExtent * 2,
			FPS:        cfg.FPS,
		})
	})
}

func benchPipeline(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}

	n := cfg.Steps
	if n <= 0 || n > 100 {
		n = 100
	}
	workerCounts := []int{1, 2, 4, 0}
	chunks := []int{1000, cfg.ChunkSize, 100000}

	fmt.Println(titleStyle.Render(fmt.Sprintf("benchmarking %d sources, %d particles, %d steps", cfg.Sources, cfg.Population, n)))
	fmt.Println()
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "BACKEND\tCHUNK\tTIME\tSTEPS/SEC\tPARTICLES/SEC")

	for _, wk := range workerCounts {
		for _, chunk := range chunks {
			c := cfg.Clone()
			c.Workers = wk
			c.ChunkSize = chunk

			p, err := buildPipeline(c)
			if err != nil {
				return err
			}

			start := time.Now()
			for i := 0; i < n; i++ {
				if _, err := p.Step(c.Dt); err != nil {
					p.Close()
					return err
				}
			}
			elapsed := time.Since(start)
			p.Close()

			stepsPerSec := float64(n) / elapsed.Seconds()
			fmt.Fprintf(w, "%s\t%d\t%v\t%.1f\t%.3g\n",
				p.Backend().Name(), chunk, elapsed.Round(time.Millisecond), stepsPerSec,
				stepsPerSec*float64(c.Sources+c.Population))
		}
	}

	return w.Flush()
}

func snapshot(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}

	p, err := buildPipeline(cfg)
	if err != nil {
		return err
	}
	defer p.Close()

	var frame *transfer.Frame
	for i := 0; i < max(cfg.Steps, 1); i++ {
		frame, err = p.Step(cfg.Dt)
		if err != nil {
			return err
		}
	}

	recs, err := frame.CopyTo(nil)
	if err != nil {
		return err
	}
	var svg string
	if braille {
		canvas := viz.NewCanvas(80, 24)
		canvas.Plot(recs, cfg.HalfExtent*2)
		svg = export.CanvasToSVG(canvas, float64(svgSize)/160)
	} else {
		svg = export.FrameToSVG(recs, cfg.HalfExtent*2, svgSize)
	}
	if err := export.WriteFile(outFile, svg); err != nil {
		return err
	}
	fmt.Printf("wrote %s (step %d, %d records)\n", outFile, frame.Step, len(recs))
	return nil
}

func runScenario(cmd *cobra.Command, args []string) error {
	sc, err := automation.LoadScenario(args[0])
	if err != nil {
		return err
	}

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}

	ctx, stop := signalContext()
	defer stop()

	if sc.Name != "" {
		fmt.Println(titleStyle.Render(sc.Name))
	}
	if sc.Description != "" {
		fmt.Println(mutedStyle.Render(sc.Description))
	}

	outcomes, err := automation.RunScenario(ctx, sc, st, os.Stdout)
	if len(outcomes) > 0 {
		fmt.Println()
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "NAME\tRUN ID\tSTEPS\tMEAN SPEED\tSPREAD\tNON-FINITE")
		for _, o := range outcomes {
			fmt.Fprintf(w, "%s\t%s\t%d\t%.4f\t%.4f\t%.0f\n",
				o.Name, o.RunID, o.Result.StepsTaken,
				o.Result.Metrics["mean_speed"], o.Result.Metrics["spread"], o.Result.Metrics["non_finite"])
		}
		if flushErr := w.Flush(); flushErr != nil {
			return flushErr
		}
	}
	return err
}

func runSweep(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}

	ctx, stop := signalContext()
	defer stop()

	sweep := automation.ParameterSweep{Param: args[0], Min: sweepMin, Max: sweepMax, Count: sweepCount}
	results, err := automation.RunSweep(ctx, cfg, sweep, os.Stdout)
	if err != nil {
		return err
	}

	fmt.Println()
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "%s\tMEAN SPEED\tMAX SPEED\tSPREAD\tNON-FINITE\n", sweep.Param)
	spreads := make([]float64, 0, len(results))
	for _, r := range results {
		fmt.Fprintf(w, "%.4f\t%.4f\t%.4f\t%.4f\t%.0f\n",
			r.Value, r.Metrics["mean_speed"], r.Metrics["max_speed"], r.Metrics["spread"], r.Metrics["non_finite"])
		spreads = append(spreads, r.Metrics["spread"])
	}
	if err := w.Flush(); err != nil {
		return err
	}

	if len(spreads) > 1 {
		fmt.Println()
		fmt.Println(asciigraph.Plot(spreads,
			asciigraph.Height(8),
			asciigraph.Width(60),
			asciigraph.Caption(fmt.Sprintf("spread vs %s", sweep.Param)),
		))
	}
	return nil
}

func listPresets(cmd *cobra.Command, args []string) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tSOURCES\tPOPULATION\tFALLOFF\tDT\tSTEPS")
	for _, name := range config.ListPresets() {
		p := config.GetPreset(name)
		fmt.Fprintf(w, "%s\t%d\t%d\t%s\t%.4f\t%d\n", name, p.Sources, p.Population, p.Falloff, p.Dt, p.Steps)
	}
	return w.Flush()
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
	fmt.Fprintln(w, "ID\tTIME\tSOURCES\tPOPULATION\tSTEPS\tDT\tFALLOFF\tBACKEND")

	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%d\t%.4fs\t%s\t%s\n",
			run.ID,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Sources,
			run.Population,
			run.Steps,
			run.Dt,
			run.Falloff,
			run.Backend,
		)
	}

	return w.Flush()
}

func plotRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}

	data, times, err := st.LoadSeries(runID)
	if err != nil {
		return err
	}
	if len(times) == 0 {
		return fmt.Errorf("no data to plot")
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("samples: %d\n\n", len(times))

	names := make([]string, 0, len(data))
	for name := range data {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if len(data[name]) < 2 {
			continue
		}
		graph := asciigraph.Plot(data[name],
			asciigraph.Height(10),
			asciigraph.Width(80),
			asciigraph.Caption(name),
		)
		fmt.Println(graph)
		fmt.Println()
	}

	return nil
}

func analyzeRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}

	data, _, err := st.LoadSeries(runID)
	if err != nil {
		return err
	}
	values, ok := data[series]
	if !ok || len(values) < 2 {
		return fmt.Errorf("no %s series in run %s", series, runID)
	}

	fmt.Println(titleStyle.Render(fmt.Sprintf("frequency analysis: %s", meta.ID)))
	fmt.Println(mutedStyle.Render(fmt.Sprintf("series: %s, %d samples", series, len(values))))
	fmt.Println()

	ps := analysis.PowerSpectrum(values)
	if len(ps) > 8 {
		ps = ps[:len(ps)/2]
	}
	graph := asciigraph.Plot(ps,
		asciigraph.Height(15),
		asciigraph.Width(80),
		asciigraph.Caption(fmt.Sprintf("power spectrum (%s)", series)),
	)
	fmt.Println(graph)
	fmt.Println()

	sum := analysis.Summarize(values)
	fmt.Printf("mean: %.4f  stddev: %.4f  min: %.4f  max: %.4f\n", sum.Mean, sum.StdDev, sum.Min, sum.Max)

	if period, ok := analysis.DominantPeriod(values, meta.Dt); ok {
		fmt.Printf("dominant period: %.3f s (%.3f hz)\n", period, 1/period)
	} else {
		fmt.Println(mutedStyle.Render("no dominant oscillation"))
	}

	return nil
}

func exportRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	values, times, err := st.LoadSeries(runID)
	if err != nil {
		return err
	}

	result := &sim.Result{
		StepsTaken: meta.Steps,
		Elapsed:    time.Duration(meta.Elapsed * float64(time.Second)),
		Times:      times,
		Metrics:    meta.Metrics,
		Series:     values,
	}
	if exportOut == "" {
		return storage.WriteJSON(os.Stdout, *meta, result)
	}
	if err := storage.ExportJSON(exportOut, *meta, result); err != nil {
		return err
	}
	fmt.Printf("exported %s to %s\n", runID, exportOut)
	return nil
}
