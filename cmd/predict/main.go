package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"

	"reimburse/internal/app"
	"reimburse/internal/calculator"
	"reimburse/internal/config"
	"reimburse/internal/data"
	"reimburse/internal/evaluate"
	"reimburse/internal/models"
	"reimburse/internal/report"
	"reimburse/pkg/utils"
)

func main() {
	configPath := flag.String("config", "", "YAML config file (optional)")
	source := flag.String("params", "", "Parameters: optimized|baseline|<file.yaml>|store:<version> (default parameters.source)")
	modelPath := flag.String("model", "", "Use a saved tree model instead of the formula")
	batch := flag.String("batch", "", "JSON file of trips to score instead of positional arguments")
	out := flag.String("out", "", "Batch output: one amount per line")
	lookup := flag.String("lookup", "", "Batch output: JSON map of trip key to amount")
	flag.Parse()

	logger := utils.Logger()
	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatal("Failed to load config", zap.Error(err))
	}
	lvl := cfg.Logger.Level
	if *batch == "" {
		// stdout carries only the amount.
		lvl = "error"
	}
	if logger, err = utils.Configure(lvl, cfg.Logger.File); err != nil {
		utils.Logger().Fatal("Failed to configure logger", zap.Error(err))
	}
	defer logger.Sync()

	ctx := context.Background()
	var trips []calculator.Trip
	if *batch == "" {
		t, err := parseTrip(flag.Args())
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(2)
		}
		trips = []calculator.Trip{t}
	} else if trips, err = data.LoadInputs(*batch); err != nil {
		logger.Fatal("Failed to load trips", zap.Error(err))
	}

	var amounts []float64
	if *modelPath != "" {
		saved, err := models.Load(*modelPath)
		if err != nil {
			logger.Fatal("Failed to load model", zap.Error(err))
		}
		if amounts, err = (evaluate.ModelPredictor{Model: saved.Model}).PredictBatch(trips); err != nil {
			logger.Fatal("Prediction failed", zap.Error(err))
		}
	} else {
		if *source == "" {
			*source = cfg.Parameters.Source
		}
		cfg.Cache.Backend = "none"
		if !strings.HasPrefix(*source, "store:") {
			cfg.Database.Path = ""
		}
		env, err := app.Open(ctx, cfg, logger)
		if err != nil {
			logger.Fatal("Failed to open resources", zap.Error(err))
		}
		params, err := env.Parameters(ctx, *source)
		if cerr := env.Close(); cerr != nil {
			logger.Warn("Failed to close resources", zap.Error(cerr))
		}
		if err != nil {
			logger.Fatal("Failed to resolve parameters", zap.String("source", *source), zap.Error(err))
		}
		amounts = scoreAll(trips, params)
	}

	if *batch == "" {
		fmt.Printf("%.2f\n", amounts[0])
		return
	}

	if *out == "" && *lookup == "" {
		for _, a := range amounts {
			fmt.Printf("%.2f\n", a)
		}
		return
	}
	if *out != "" {
		if err := report.WriteLines(*out, amounts); err != nil {
			logger.Fatal("Failed to write results", zap.Error(err))
		}
		logger.Info("Results written", zap.String("path", *out), zap.Int("n", len(amounts)))
	}
	if *lookup != "" {
		if err := report.WriteLookup(*lookup, trips, amounts); err != nil {
			logger.Fatal("Failed to write lookup", zap.Error(err))
		}
		logger.Info("Lookup written", zap.String("path", *lookup), zap.Int("n", len(amounts)))
	}
}

func scoreAll(trips []calculator.Trip, params *calculator.Parameters) []float64 {
	out := make([]float64, len(trips))
	for i, t := range trips {
		out[i] = calculator.Amount(t, params)
	}
	return out
}
