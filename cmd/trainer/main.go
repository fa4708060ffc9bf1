package main

import (
	"context"
	"flag"
	"fmt"
	"path/filepath"
	"runtime"

	"go.uber.org/zap"

	"reimburse/internal/calculator"
	"reimburse/internal/config"
	"reimburse/internal/data"
	"reimburse/internal/evaluate"
	"reimburse/internal/features"
	"reimburse/internal/models"
	"reimburse/internal/report"
	"reimburse/pkg/utils"
)

func main() {
	configPath := flag.String("config", "", "YAML config file (optional)")
	casesPath := flag.String("cases", "", "Labelled case file (default data.cases)")
	synthetic := flag.Int("synthetic", 0, "Train on this many synthetic cases instead of a case file")
	noise := flag.Float64("noise", 0, "Relative noise on synthetic targets")
	algo := flag.String("algo", "gb", "Algorithm: dt|rf|bagging|gb|lgbm")
	estimators := flag.Int("estimators", 0, "Ensemble size / boosting rounds (0 keeps the default)")
	maxDepth := flag.Int("max_depth", 0, "Maximum tree depth (0 keeps the default)")
	minSamples := flag.Int("min_samples", 0, "Minimum samples to split (0 keeps the default)")
	lr := flag.Float64("lr", 0, "Learning rate for gb/lgbm (0 keeps the default)")
	subsample := flag.Float64("subsample", 0, "Row fraction per boosting round (0 keeps the default)")
	seed := flag.Int64("seed", 42, "Random seed for splits and models")
	holdout := flag.Float64("holdout", 0.2, "Fraction of cases held out for evaluation")
	folds := flag.Int("cv", 5, "Cross-validation folds on the training split (0 disables)")
	out := flag.String("out", "", "Model file (default models/<algo>_model.gob)")
	lgbmPath := flag.String("lightgbm", "", "lightgbm executable for -algo lgbm")
	device := flag.String("device", "", "lightgbm device: cpu|gpu")
	curve := flag.Bool("curve", true, "Write a learning curve (PNG and CSV)")
	curvePoints := flag.Int("curve_points", 8, "Points on the learning curve")
	curveMin := flag.Int("curve_min", 50, "Smallest training size on the curve")
	curveLog := flag.Bool("curve_log", true, "Space curve sizes geometrically")
	curveImg := flag.String("curve_out_img", "out/learning_curve.png", "Learning curve PNG")
	curveCsv := flag.String("curve_out_csv", "out/learning_curve.csv", "Learning curve CSV")
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

	var cases []data.Case
	if *synthetic > 0 {
		logger.Info("Generating synthetic cases", zap.Int("n", *synthetic), zap.Float64("noise", *noise))
		cases = data.GenerateSynthetic(*synthetic, calculator.Optimized(), *noise, *seed)
	} else {
		path := *casesPath
		if path == "" {
			path = cfg.Data.Cases
		}
		if cases, err = data.LoadCases(path); err != nil {
			logger.Fatal("Failed to load cases", zap.Error(err))
		}
	}
	if len(cases) < 2 {
		logger.Fatal("Need at least two cases to train", zap.Int("cases", len(cases)))
	}

	train, test := data.Split(cases, 1-*holdout, *seed)
	Xtrain, ytrain := features.Labelled(train)
	Xtest, ytest := features.Labelled(test)
	logger.Info("Split", zap.Int("train", len(train)), zap.Int("holdout", len(test)))

	opts := models.Options{
		Estimators:   *estimators,
		MaxDepth:     *maxDepth,
		MinSamples:   *minSamples,
		LearningRate: *lr,
		Subsample:    *subsample,
		Seed:         *seed,
		LightGBMPath: *lgbmPath,
		Device:       *device,
		WorkDir:      filepath.Join(cfg.Data.OutputDir, "lgbm"),
	}
	build := func() (models.Model, error) { return models.New(*algo, opts) }

	if *folds > 1 {
		avg, std, err := models.CrossValidate(*folds, Xtrain, ytrain, *seed, build)
		if err != nil {
			logger.Fatal("Cross-validation failed", zap.Error(err))
		}
		logger.Info("Cross-validation", zap.Int("folds", *folds), zap.Float64("mae", avg), zap.Float64("std", std))
	}

	mdl, err := build()
	if err != nil {
		logger.Fatal("Failed to build model", zap.Error(err))
	}
	if err := mdl.Fit(Xtrain, ytrain); err != nil {
		logger.Fatal("Training failed", zap.String("model", mdl.Name()), zap.Error(err))
	}

	ctx := context.Background()
	workers := runtime.GOMAXPROCS(0)
	modelRep, err := evaluate.Run(ctx, test, evaluate.ModelPredictor{Model: mdl}, workers)
	if err != nil {
		logger.Fatal("Holdout evaluation failed", zap.Error(err))
	}
	formulaRep, err := evaluate.Run(ctx, test, evaluate.FormulaPredictor{Params: calculator.Optimized()}, workers)
	if err != nil {
		logger.Fatal("Holdout evaluation failed", zap.Error(err))
	}
	logger.Info("Holdout metrics",
		zap.String("model", mdl.Name()),
		zap.Float64("mae", modelRep.MeanError),
		zap.Float64("median", modelRep.MedianError),
		zap.Float64("max", modelRep.MaxError),
		zap.Float64("r2", modelRep.R2),
		zap.Int("exact", modelRep.Exact),
		zap.Int("close", modelRep.Close),
		zap.Float64("formula_mae", formulaRep.MeanError),
	)

	path := *out
	if path == "" {
		path = filepath.Join("models", *algo+"_model.gob")
	}
	if err := models.Save(path, *algo, features.Names(), mdl); err != nil {
		logger.Fatal("Failed to save model", zap.Error(err))
	}
	logger.Info("Model saved", zap.String("path", path))
	fmt.Println("Model:", mdl.Name())

	if *curve {
		sizes := computeCurveSizes(len(Xtrain), *curvePoints, *curveMin, *curveLog)
		points, err := learningCurve(sizes, Xtrain, ytrain, Xtest, ytest, build)
		if err != nil {
			logger.Fatal("Learning curve failed", zap.Error(err))
		}
		if err := report.WriteCurveCSV(*curveCsv, points); err != nil {
			logger.Warn("Failed to write curve CSV", zap.Error(err))
		}
		if err := report.LearningCurve(*curveImg, points); err != nil {
			logger.Warn("Failed to write curve PNG", zap.Error(err))
		} else {
			logger.Info("Learning curve written", zap.String("png", *curveImg), zap.String("csv", *curveCsv))
		}
	}
}
