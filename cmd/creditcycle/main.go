package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mkerins/creditcycle/internal/config"
	"github.com/mkerins/creditcycle/internal/experiment"
	"github.com/mkerins/creditcycle/internal/model"
	"github.com/mkerins/creditcycle/internal/shoot"
	"github.com/mkerins/creditcycle/internal/storage"
	"github.com/mkerins/creditcycle/internal/viz"
)

var (
	dataDir    string
	configFile string
	preset     string
	horizon    int
	tolerance  float64
	maxIter    int
	gridPoints int
	q1Flag     float64
	noSave     bool

	logger *zap.Logger
)

func main() {
	var err error
	logger, err = zap.NewProduction()
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to initiate logger:", err)
		os.Exit(1)
	}
	defer logger.Sync()

	rootCmd := &cobra.Command{
		Use:   "creditcycle",
		Short: "shooting solver for the Kiyotaki-Moore credit cycle model",
	}
	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".creditcycle", "data directory")
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path (yaml)")
	rootCmd.PersistentFlags().StringVar(&preset, "preset", "", "use a named preset configuration")

	solveCmd := &cobra.Command{
		Use:   "solve [scenario]",
		Short: "find the initial land price by bisection shooting",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runSolve,
	}
	solveCmd.Flags().IntVar(&horizon, "horizon", 0, "override simulation horizon")
	solveCmd.Flags().Float64Var(&tolerance, "tolerance", 0, "override bisection tolerance")
	solveCmd.Flags().IntVar(&maxIter, "max-iter", 0, "override iteration budget")
	solveCmd.Flags().BoolVar(&noSave, "no-save", false, "do not persist the run")

	steadyCmd := &cobra.Command{
		Use:   "steady",
		Short: "print the steady state for the configured parameters",
		RunE:  runSteady,
	}

	simulateCmd := &cobra.Command{
		Use:   "simulate [scenario]",
		Short: "simulate one trajectory at a given initial price",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runSimulate,
	}
	simulateCmd.Flags().Float64Var(&q1Flag, "q1", 0, "initial land price guess (required)")
	simulateCmd.Flags().IntVar(&horizon, "horizon", 0, "override simulation horizon")
	simulateCmd.MarkFlagRequired("q1")

	scanCmd := &cobra.Command{
		Use:   "scan [scenario]",
		Short: "grid-scan initial prices over the bracket (notebook recipe)",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runScan,
	}
	scanCmd.Flags().IntVar(&gridPoints, "grid", 0, "override number of grid points")
	scanCmd.Flags().BoolVar(&noSave, "no-save", false, "do not persist the run")

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot a saved run's normalized transition path",
		Args:  cobra.ExactArgs(1),
		RunE:  runPlot,
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list saved runs",
		RunE:  runList,
	}

	exportCSVCmd := &cobra.Command{
		Use:   "export-csv [run_id]",
		Short: "export a saved run's trajectory to CSV",
		Args:  cobra.ExactArgs(1),
		RunE:  runExportCSV,
	}

	exportJSONCmd := &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "export a saved run to JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  runExportJSON,
	}

	liveCmd := &cobra.Command{
		Use:   "live [scenario]",
		Short: "watch the bisection search narrow its bracket",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runLive,
	}

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list named presets",
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, name := range config.ListPresets() {
				fmt.Println(name)
			}
			return nil
		},
	}

	rootCmd.AddCommand(solveCmd, steadyCmd, simulateCmd, scanCmd, plotCmd, listCmd,
		exportCSVCmd, exportJSONCmd, liveCmd, presetsCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadConfig resolves preset, config file and scenario argument, in that
// order of increasing precedence for the scenario name.
func loadConfig(args []string) (*config.Config, error) {
	cfg := config.Default()

	if preset != "" {
		cfg = config.GetPreset(preset)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
		}
	}
	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}
	if len(args) > 0 {
		cfg.Scenario = args[0]
	}
	return cfg, nil
}

func buildExperiment(cfg *config.Config) (*experiment.Experiment, experiment.Scenario, error) {
	registry := experiment.NewRegistry()
	scenario, err := registry.Get(cfg.Scenario)
	if err != nil {
		return nil, experiment.Scenario{}, err
	}
	if shock, ok := cfg.ShockOverride(); ok {
		scenario.Shock = shock
	}

	simCfg := cfg.SimConfig()
	if horizon > 0 {
		simCfg.Horizon = horizon
	}

	expCfg := experiment.Config{
		Params:   cfg.ModelParams(),
		Scenario: scenario,
		Sim:      simCfg,
		Shoot:    shoot.Config{Tolerance: cfg.Solver.Tolerance, MaxIter: cfg.Solver.MaxIter},
		Grid:     cfg.Solver.Grid,
	}
	if tolerance > 0 {
		expCfg.Shoot.Tolerance = tolerance
	}
	if maxIter > 0 {
		expCfg.Shoot.MaxIter = maxIter
	}
	if gridPoints > 0 {
		expCfg.Grid = gridPoints
	}
	if cfg.Solver.BracketCenter != 0 {
		width := cfg.Solver.BracketWidth
		if width == 0 {
			width = 0.0005
		}
		expCfg.Scenario.BracketCenter = cfg.Solver.BracketCenter
		expCfg.Scenario.BracketWidth = width
	}

	exp := experiment.New(expCfg)
	if err := exp.Setup(); err != nil {
		logger.Error("steady state solve failed",
			zap.String("stage", "steady-state"),
			zap.Float64("R", expCfg.Params.R),
			zap.Float64("pi", expCfg.Params.Pi),
			zap.Float64("eta", expCfg.Params.Eta),
			zap.Error(err),
		)
		return nil, experiment.Scenario{}, err
	}
	return exp, scenario, nil
}

func runSolve(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(args)
	if err != nil {
		return err
	}
	exp, scenario, err := buildExperiment(cfg)
	if err != nil {
		return err
	}

	start := time.Now()
	out, err := exp.Run(context.Background())
	if err != nil {
		logger.Error("shooting search failed",
			zap.String("stage", "search"),
			zap.String("scenario", scenario.Name),
			zap.Error(err),
		)
		return err
	}
	elapsed := time.Since(start)

	fmt.Printf("scenario: %s\n", scenario.Name)
	fmt.Printf("q1* = %.9f (%.5f x q*)\n", out.Q1, out.Q1/out.Steady.Q)
	fmt.Printf("outcome: %s (%s)\n", out.Result.Outcome, out.Result.Reason)
	fmt.Printf("iterations: %d, elapsed: %v\n", out.Iterations, elapsed)
	fmt.Println("\nmetrics:")
	for name, val := range out.Result.Metrics {
		fmt.Printf("  %s: %.6g\n", name, val)
	}

	if !noSave {
		st := storage.New(dataDir)
		if err := st.Init(); err != nil {
			return err
		}
		runID, err := st.Save(scenario.Name, out.Q1, out.Iterations, exp.Simulator().Config().Horizon, out.Steady, out.Result)
		if err != nil {
			return err
		}
		fmt.Printf("\nrun id: %s\n", runID)
	}
	return nil
}

func runSteady(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(nil)
	if err != nil {
		return err
	}
	exp, _, err := buildExperiment(cfg)
	if err != nil {
		return err
	}
	fmt.Print(viz.SteadyStateSummary(exp.Simulator().Params(), exp.Steady()))
	return nil
}

func runSimulate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(args)
	if err != nil {
		return err
	}
	exp, scenario, err := buildExperiment(cfg)
	if err != nil {
		return err
	}

	res, err := exp.Simulator().Run(context.Background(), q1Flag, scenario.Shock)
	if err != nil {
		return err
	}
	fmt.Printf("q1 = %.9f (%.5f x q*)\n", q1Flag, q1Flag/exp.Steady().Q)
	fmt.Printf("outcome: %s (%s)\n", res.Outcome, res.Reason)
	fmt.Printf("periods simulated: %d\n\n", len(res.Trajectory)-1)
	fmt.Print(viz.PlotTrajectory(res.Trajectory, exp.Steady()))
	return nil
}

func runScan(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(args)
	if err != nil {
		return err
	}
	exp, scenario, err := buildExperiment(cfg)
	if err != nil {
		return err
	}

	out, err := exp.Scan(context.Background())
	if err != nil {
		logger.Error("grid scan failed",
			zap.String("stage", "search"),
			zap.String("scenario", scenario.Name),
			zap.Error(err),
		)
		return err
	}

	dev := out.Result.Trajectory.Final().Q/out.Steady.Q - 1
	fmt.Printf("scenario: %s\n", scenario.Name)
	fmt.Printf("best q1 = %.9f (%.5f x q*)\n", out.Q1, out.Q1/out.Steady.Q)
	fmt.Printf("outcome: %s, final price deviation: %+.3e\n", out.Result.Outcome, dev)

	if !noSave {
		st := storage.New(dataDir)
		if err := st.Init(); err != nil {
			return err
		}
		runID, err := st.Save(scenario.Name, out.Q1, out.Iterations, exp.Simulator().Config().Horizon, out.Steady, out.Result)
		if err != nil {
			return err
		}
		fmt.Printf("run id: %s\n", runID)
	}
	return nil
}

func runPlot(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}
	traj, err := st.LoadTrajectory(args[0])
	if err != nil {
		return err
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("scenario: %s, outcome: %s, q1 = %.9f\n\n", meta.Scenario, meta.Outcome, meta.Q1)
	fmt.Print(viz.PlotTrajectory(traj, steadyFromMeta(meta)))
	return nil
}

func runList(cmd *cobra.Command, args []string) error {
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
	fmt.Fprintln(w, "ID\tSCENARIO\tTIME\tQ1\tOUTCOME\tITERS")
	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%.6f\t%s\t%d\n",
			run.ID,
			run.Scenario,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Q1,
			run.Outcome,
			run.Iterations,
		)
	}
	return w.Flush()
}

func runExportCSV(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}
	traj, err := st.LoadTrajectory(args[0])
	if err != nil {
		return err
	}
	return storage.WriteCSV(os.Stdout, traj, steadyFromMeta(meta))
}

func runExportJSON(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}
	traj, err := st.LoadTrajectory(args[0])
	if err != nil {
		return err
	}
	return storage.ExportJSONStdout(meta, traj)
}

func runLive(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(args)
	if err != nil {
		return err
	}
	exp, scenario, err := buildExperiment(cfg)
	if err != nil {
		return err
	}

	p := tea.NewProgram(viz.NewModel(scenario.Name, exp.Steady()))

	go func() {
		shootCfg := cfg.ShootConfig(exp.Steady())
		if shootCfg.Bracket == (shoot.Bracket{}) {
			shootCfg.Bracket = scenario.Bracket(exp.Steady())
		}
		shootCfg.OnIteration = func(it shoot.Iteration) {
			p.Send(viz.IterationMsg(it))
			time.Sleep(80 * time.Millisecond) // let the bracket narrowing be visible
		}
		q1, res, err := shoot.FindInitialPrice(context.Background(), exp.Simulator(), scenario.Shock, shootCfg)
		p.Send(viz.DoneMsg{Q1: q1, Result: res, Err: err})
	}()

	_, err = p.Run()
	return err
}

func steadyFromMeta(meta storage.RunMetadata) model.SteadyState {
	return model.SteadyState{State: meta.Steady}
}
