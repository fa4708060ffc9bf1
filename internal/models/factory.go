package models

import (
	"errors"
	"fmt"
	"math"
	"path/filepath"
)

var ErrUnknownAlgorithm = errors.New("unknown algorithm")

// Algorithms lists the names accepted by New.
var Algorithms = []string{"dt", "rf", "bagging", "gb", "lgbm"}

// Options overrides model defaults. Zero values keep the default.
type Options struct {
	Estimators   int
	MaxDepth     int
	MinSamples   int
	LearningRate float64
	Subsample    float64
	Seed         int64
	LightGBMPath string
	Device       string
	WorkDir      string
}

func New(algo string, opt Options) (Model, error) {
	switch algo {
	case "dt":
		dt := NewDecisionTree()
		setInt(&dt.MaxDepth, opt.MaxDepth)
		setInt(&dt.MinSamplesSplit, opt.MinSamples)
		setSeed(&dt.Seed, opt.Seed)
		return dt, nil
	case "rf", "bagging":
		rf := NewRandomForest()
		if algo == "bagging" {
			rf = NewBagging()
		}
		setInt(&rf.NEstimators, opt.Estimators)
		setInt(&rf.MaxDepth, opt.MaxDepth)
		setInt(&rf.MinSamples, opt.MinSamples)
		setSeed(&rf.Seed, opt.Seed)
		return rf, nil
	case "gb":
		gb := NewGradientBoosting()
		setInt(&gb.NEstimators, opt.Estimators)
		setInt(&gb.MaxDepth, opt.MaxDepth)
		setInt(&gb.MinSamples, opt.MinSamples)
		setSeed(&gb.Seed, opt.Seed)
		if opt.LearningRate > 0 {
			gb.LearningRate = opt.LearningRate
		}
		if opt.Subsample > 0 {
			gb.Subsample = opt.Subsample
		}
		return gb, nil
	case "lgbm":
		l := NewLightGBMCLI()
		if opt.MaxDepth > 0 {
			l.MaxDepth = opt.MaxDepth
			l.NumLeaves = int(math.Min(math.Pow(2, float64(opt.MaxDepth))-1, 255))
		}
		setInt(&l.MinDataInLeaf, opt.MinSamples)
		setInt(&l.NumIterations, opt.Estimators)
		if opt.LearningRate > 0 {
			l.LearningRate = opt.LearningRate
		}
		if opt.Subsample > 0 {
			l.BaggingFrac = opt.Subsample
		}
		if opt.LightGBMPath != "" {
			l.ExecPath = opt.LightGBMPath
		}
		if opt.Device != "" {
			l.Device = opt.Device
		}
		if opt.WorkDir != "" {
			l.WorkDir = opt.WorkDir
			l.ModelPath = filepath.Join(opt.WorkDir, "lgbm_model.txt")
		}
		return l, nil
	}
	return nil, fmt.Errorf("%w: %q (want one of %v)", ErrUnknownAlgorithm, algo, Algorithms)
}

func setInt(dst *int, v int) {
	if v > 0 {
		*dst = v
	}
}

func setSeed(dst *int64, v int64) {
	if v != 0 {
		*dst = v
	}
}
