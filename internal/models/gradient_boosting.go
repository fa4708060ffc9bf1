package models

import (
	"math/rand"
)

// GradientBoosting fits depth-limited regression trees to squared-error
// residuals with shrinkage and row subsampling.
type GradientBoosting struct {
	NEstimators        int
	LearningRate       float64
	MaxDepth           int
	MinSamples         int
	MaxThresholdsPerFe int
	Subsample          float64
	Seed               int64
	Init               float64
	Trees              []*DecisionTree
}

func NewGradientBoosting() *GradientBoosting {
	return &GradientBoosting{
		NEstimators:        500,
		LearningRate:       0.05,
		MaxDepth:           6,
		MinSamples:         10,
		MaxThresholdsPerFe: 32,
		Subsample:          0.8,
		Seed:               42,
	}
}

func (gb *GradientBoosting) Name() string { return "GradientBoosting" }

func (gb *GradientBoosting) Fit(X [][]float64, y []float64) error {
	if err := checkShape(X, y); err != nil {
		return err
	}
	n := len(X)
	rng := rand.New(rand.NewSource(gb.Seed))
	all := seq(n)

	gb.Init = mean(y, all)
	gb.Trees = make([]*DecisionTree, 0, gb.NEstimators)
	F := make([]float64, n)
	for i := range F {
		F[i] = gb.Init
	}

	sampleSize := n
	if gb.Subsample > 0 && gb.Subsample < 1 {
		sampleSize = max(1, int(gb.Subsample*float64(n)))
	}

	r := make([]float64, n)
	for m := 0; m < gb.NEstimators; m++ {
		for i := range r {
			r[i] = y[i] - F[i]
		}
		rows := all
		if sampleSize < n {
			rows = rng.Perm(n)[:sampleSize]
		}
		tree := &DecisionTree{
			MaxDepth:           gb.MaxDepth,
			MinSamplesSplit:    gb.MinSamples,
			MinSamplesLeaf:     1,
			MaxThresholdsPerFe: gb.MaxThresholdsPerFe,
		}
		tree.fit(X, r, rows, rng)
		if tree.Root == nil || (tree.Root.IsLeaf && tree.Root.Value == 0) {
			break
		}
		gb.Trees = append(gb.Trees, tree)
		for i := 0; i < n; i++ {
			F[i] += gb.LearningRate * tree.predictOne(X[i])
		}
	}
	return nil
}

func (gb *GradientBoosting) Predict(X [][]float64) []float64 {
	out := make([]float64, len(X))
	for i := range X {
		f := gb.Init
		for _, t := range gb.Trees {
			f += gb.LearningRate * t.predictOne(X[i])
		}
		out[i] = f
	}
	return out
}
