package main

import (
	"context"
	"flag"
	"fmt"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"go.uber.org/zap"

	"reimburse/internal/app"
	"reimburse/internal/calculator"
	"reimburse/internal/config"
	"reimburse/internal/data"
	"reimburse/internal/evaluate"
	"reimburse/internal/optimize"
	"reimburse/internal/report"
	"reimburse/pkg/utils"
)

func main() {
	configPath := flag.String("config", "", "YAML config file (optional)")
	casesPath := flag.String("cases", "", "Labelled case file (default data.cases)")
	source := flag.String("params", "", "Starting parameters: optimized|baseline|<file.yaml>|store:<version> (default parameters.source)")
	method := flag.String("method", "", "Optimizer: cmaes|neldermead|bfgs (default optimizer.method)")
	grid := flag.Bool("grid", false, "Grid search the single-day ratio threshold and penalty instead")
	gridPoints := flag.Int("grid_points", 15, "Values per grid axis")
	free := flag.String("free", "", "Comma list of parameter names or buckets (1d,2d,3d,4-6d,7+d) to search; empty searches all")
	maxEvals := flag.Int("max_evals", 0, "Evaluation budget (default optimizer.max_evaluations)")
	version := flag.String("version", "", "Version of the result (default <method>-<timestamp>)")
	out := flag.String("out", "", "Parameter YAML to write (default <output_dir>/<version>.yaml)")
	minChange := flag.Float64("min_change", 1.0, "Report parameter changes above this percentage")
	worst := flag.Int("worst", 10, "Worst cases to show in the comparison")
	workbook := flag.String("workbook", "", "Write an xlsx comparison workbook to this path")
	force := flag.Bool("force", false, "Keep the result even when it does not beat the start")
	flag.Parse()

	logger := utils.Logger()
	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatal("Failed to load config", zap.Error(err))
	}
	if logger, err = utils.Configure(cfg.Logger.Level, cfg.Logger.File); err != nil {
		utils.Logger().Fatal("Failed to configure logger", zap.Error(err))
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	env, err := app.Open(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("Failed to open resources", zap.Error(err))
	}
	defer func() {
		if err := env.Close(); err != nil {
			logger.Error("Failed to close resources", zap.Error(err))
		}
	}()

	if *source == "" {
		*source = cfg.Parameters.Source
	}
	start, err := env.Parameters(ctx, *source)
	if err != nil {
		logger.Fatal("Failed to resolve parameters", zap.String("source", *source), zap.Error(err))
	}
	if *casesPath == "" {
		*casesPath = cfg.Data.Cases
	}
	cases, err := data.LoadCases(*casesPath)
	if err != nil {
		logger.Fatal("Failed to load cases", zap.Error(err))
	}

	settings := optimize.DefaultSettings()
	settings.MaxEvaluations = cfg.Optimizer.MaxEvaluations
	settings.MaxIterations = cfg.Optimizer.MaxIterations
	settings.Runtime = cfg.Optimizer.Runtime
	settings.Tolerance = cfg.Optimizer.Tolerance
	settings.Patience = cfg.Optimizer.Patience
	if cfg.Optimizer.Workers > 0 {
		settings.Workers = cfg.Optimizer.Workers
	}
	if *maxEvals > 0 {
		settings.MaxEvaluations = *maxEvals
	}
	if *method == "" {
		*method = cfg.Optimizer.Method
	}
	if settings.Method, err = optimize.ParseMethod(*method); err != nil {
		logger.Fatal("Invalid method", zap.Error(err))
	}
	if settings.Free, err = parseFree(*free); err != nil {
		logger.Fatal("Invalid -free", zap.Error(err))
	}

	logger.Info("Starting",
		zap.String("params", start.Version),
		zap.String("cases", *casesPath),
		zap.Int("n", len(cases)),
		zap.Bool("grid", *grid),
		zap.String("method", string(settings.Method)),
		zap.String("free", formatFree(settings.Free)),
	)

	var (
		best     *calculator.Parameters
		baseline float64
		bestMAE  float64
		algo     string
	)
	if *grid {
		res, err := optimize.GridSearch(ctx, cases, start, ratioGrid(*gridPoints), settings.Workers)
		if err != nil {
			logger.Fatal("Grid search failed", zap.Error(err))
		}
		best, baseline, bestMAE, algo = res.Params, res.Baseline, res.Error, "grid"
		logger.Info("Grid search done", zap.Any("point", res.Point), zap.Int("evaluated", res.Evaluated))
	} else {
		res, err := optimize.Run(ctx, cases, start, settings)
		if err != nil {
			logger.Fatal("Optimization failed", zap.Error(err))
		}
		best, baseline, bestMAE, algo = res.Params, res.Baseline, res.Error, string(res.Method)
		logger.Info("Optimization done",
			zap.String("status", res.Status),
			zap.Int("evaluations", res.Evaluations),
			zap.Int("iterations", res.Iterations),
			zap.Duration("elapsed", res.Elapsed),
		)
	}
	best.Version = *version
	if best.Version == "" {
		best.Version = fmt.Sprintf("%s-%s", algo, time.Now().UTC().Format("20060102-150405"))
	}

	improvement := 0.0
	if baseline > 0 {
		improvement = (baseline - bestMAE) / baseline * 100
	}
	logger.Info("Result",
		zap.String("version", best.Version),
		zap.Float64("baseline_mae", baseline),
		zap.Float64("mae", bestMAE),
		zap.Float64("improvement_pct", improvement),
	)

	changes := optimize.Changes(start, best, *minChange)
	for _, c := range changes {
		logger.Info("Parameter changed",
			zap.String("name", c.Name),
			zap.Float64("old", c.Old),
			zap.Float64("new", c.New),
			zap.Float64("pct", c.Pct),
		)
	}

	before, err := evaluate.Run(ctx, cases, evaluate.FormulaPredictor{Params: start}, settings.Workers)
	if err != nil {
		logger.Fatal("Evaluation failed", zap.Error(err))
	}
	after, err := evaluate.Run(ctx, cases, evaluate.FormulaPredictor{Params: best}, settings.Workers)
	if err != nil {
		logger.Fatal("Evaluation failed", zap.Error(err))
	}
	cmp, err := evaluate.Compare(before, after)
	if err != nil {
		logger.Fatal("Comparison failed", zap.Error(err))
	}
	logger.Info("Comparison", zap.Int("improved", cmp.Improved), zap.Int("regressed", cmp.Regressed))
	for _, ch := range cmp.Top(*worst) {
		logger.Info("Worst case",
			zap.String("trip", ch.Case.Input.String()),
			zap.Float64("expected", ch.Case.Expected),
			zap.Float64("before", ch.Before),
			zap.Float64("after", ch.After),
			zap.Float64("improvement", ch.Improvement()),
		)
	}

	if *workbook != "" {
		err := report.WriteWorkbook(*workbook, report.Workbook{
			Title:      "Optimization " + best.Version,
			Report:     after,
			Comparison: cmp,
			Params:     best,
			Changes:    changes,
			WorstN:     *worst,
		})
		if err != nil {
			logger.Warn("Failed to write workbook", zap.Error(err))
		}
	}

	if bestMAE >= baseline && !*force {
		logger.Info("No improvement, nothing written")
		return
	}

	path := *out
	if path == "" {
		path = filepath.Join(cfg.Data.OutputDir, best.Version+".yaml")
	}
	if err := calculator.SaveParameters(path, best); err != nil {
		logger.Fatal("Failed to write parameters", zap.Error(err))
	}
	logger.Info("Parameters written", zap.String("path", path))

	if env.Store != nil {
		mae := bestMAE
		if _, err := env.Store.SaveParameters(ctx, best, "optimizer:"+algo, &mae); err != nil {
			logger.Fatal("Failed to record parameters", zap.Error(err))
		}
		if _, err := env.Store.RecordEvaluation(ctx, best.Version, filepath.Base(*casesPath), after.Stats); err != nil {
			logger.Warn("Failed to record evaluation", zap.Error(err))
		}
		logger.Info("Parameters recorded", zap.String("version", best.Version), zap.String("db", cfg.Database.Path))
	}
}
