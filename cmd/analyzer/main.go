package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"path/filepath"
	"runtime"

	"go.uber.org/zap"

	"reimburse/internal/app"
	"reimburse/internal/config"
	"reimburse/internal/data"
	"reimburse/internal/evaluate"
	"reimburse/internal/models"
	"reimburse/internal/report"
	"reimburse/internal/store"
	"reimburse/pkg/utils"
)

func main() {
	configPath := flag.String("config", "", "YAML config file (optional)")
	casesPath := flag.String("cases", "", "Labelled case file (default data.cases)")
	source := flag.String("params", "", "Parameters to analyze: optimized|baseline|<file.yaml>|store:<version> (default parameters.source)")
	modelPath := flag.String("model", "", "Analyze a saved tree model instead of the formula")
	compare := flag.String("compare", "", "Second parameter source to compare against")
	outDir := flag.String("out", "", "Directory for plots and the workbook (default data.output_dir)")
	worst := flag.Int("worst", 20, "Worst cases to list")
	plots := flag.Bool("plots", true, "Write PNG plots")
	bins := flag.Int("bins", 40, "Histogram bins")
	workbook := flag.Bool("workbook", true, "Write an xlsx workbook")
	subsets := flag.Int("subsets", 0, "Write up to this many cases per duration into data.subsets_dir (0 disables)")
	seed := flag.Int64("seed", 42, "Seed for subset sampling")
	record := flag.Bool("record", true, "Record the evaluation against a stored parameter version")
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

	ctx := context.Background()
	env, err := app.Open(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("Failed to open resources", zap.Error(err))
	}
	defer func() {
		if err := env.Close(); err != nil {
			logger.Error("Failed to close resources", zap.Error(err))
		}
	}()

	if *casesPath == "" {
		*casesPath = cfg.Data.Cases
	}
	cases, err := data.LoadCases(*casesPath)
	if err != nil {
		logger.Fatal("Failed to load cases", zap.Error(err))
	}
	if *outDir == "" {
		*outDir = cfg.Data.OutputDir
	}
	if *source == "" {
		*source = cfg.Parameters.Source
	}
	params, err := env.Parameters(ctx, *source)
	if err != nil {
		logger.Fatal("Failed to resolve parameters", zap.String("source", *source), zap.Error(err))
	}

	var (
		predictor evaluate.Predictor = evaluate.FormulaPredictor{Params: params}
		label                        = params.Version
	)
	if *modelPath != "" {
		saved, err := models.Load(*modelPath)
		if err != nil {
			logger.Fatal("Failed to load model", zap.Error(err))
		}
		predictor = evaluate.ModelPredictor{Model: saved.Model}
		label = saved.Model.Name()
	}

	workers := runtime.GOMAXPROCS(0)
	rep, err := evaluate.Run(ctx, cases, predictor, workers)
	if err != nil {
		logger.Fatal("Evaluation failed", zap.Error(err))
	}
	printSummary(os.Stdout, label, rep.Stats)
	printDurations(os.Stdout, rep)
	printWorst(os.Stdout, rep, *worst)

	var cmp *evaluate.Comparison
	if *compare != "" {
		other, err := env.Parameters(ctx, *compare)
		if err != nil {
			logger.Fatal("Failed to resolve comparison parameters", zap.String("source", *compare), zap.Error(err))
		}
		candidate, err := evaluate.Run(ctx, cases, evaluate.FormulaPredictor{Params: other}, workers)
		if err != nil {
			logger.Fatal("Evaluation failed", zap.Error(err))
		}
		if cmp, err = evaluate.Compare(rep, candidate); err != nil {
			logger.Fatal("Comparison failed", zap.Error(err))
		}
		printComparison(os.Stdout, cmp, *worst)
	}

	if *plots {
		outputs := []struct {
			name string
			fn   func(string) error
		}{
			{"prediction_scatter.png", func(p string) error { return report.PredictionScatter(p, rep) }},
			{"error_by_duration.png", func(p string) error { return report.ErrorByDuration(p, rep) }},
			{"error_histogram.png", func(p string) error { return report.ErrorHistogram(p, rep, *bins) }},
		}
		for _, o := range outputs {
			path := filepath.Join(*outDir, o.name)
			if err := o.fn(path); err != nil {
				logger.Warn("Failed to write plot", zap.String("path", path), zap.Error(err))
				continue
			}
			logger.Info("Plot written", zap.String("path", path))
		}
	}

	if *workbook {
		wb := report.Workbook{Title: "Analysis " + label, Report: rep, Comparison: cmp, WorstN: *worst}
		if *modelPath == "" {
			wb.Params = params
		}
		path := filepath.Join(*outDir, "analysis.xlsx")
		if err := report.WriteWorkbook(path, wb); err != nil {
			logger.Warn("Failed to write workbook", zap.Error(err))
		} else {
			logger.Info("Workbook written", zap.String("path", path))
		}
	}

	if *subsets > 0 {
		n, err := data.WriteSubsets(cfg.Data.SubsetsDir, data.Subset(cases, *subsets, *seed))
		if err != nil {
			logger.Fatal("Failed to write subsets", zap.Error(err))
		}
		logger.Info("Subsets written", zap.String("dir", cfg.Data.SubsetsDir), zap.Int("cases", n))
	}

	if *record && *modelPath == "" && env.Store != nil {
		_, err := env.Store.RecordEvaluation(ctx, params.Version, filepath.Base(*casesPath), rep.Stats)
		switch {
		case errors.Is(err, store.ErrNotFound):
			logger.Debug("Parameters not stored, evaluation not recorded", zap.String("version", params.Version))
		case err != nil:
			logger.Warn("Failed to record evaluation", zap.Error(err))
		default:
			logger.Info("Evaluation recorded", zap.String("version", params.Version))
		}
	}
}
