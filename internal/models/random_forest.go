package models

import (
	"math"
	"math/rand"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// RandomForest averages regression trees grown on bootstrap samples. With
// AllFeatures set every split sees every feature, which is plain bagging.
type RandomForest struct {
	NEstimators        int
	MaxDepth           int
	MinSamples         int
	MaxThresholdsPerFe int
	MaxFeatures        int
	AllFeatures        bool
	Seed               int64
	Trees              []*DecisionTree
}

func NewRandomForest() *RandomForest {
	return &RandomForest{NEstimators: 30, MaxDepth: 8, MinSamples: 10, MaxThresholdsPerFe: 32, Seed: 42}
}

func NewBagging() *RandomForest {
	rf := NewRandomForest()
	rf.AllFeatures = true
	return rf
}

func (rf *RandomForest) Name() string {
	if rf.AllFeatures {
		return "Bagging"
	}
	return "RandomForest"
}

func (rf *RandomForest) Fit(X [][]float64, y []float64) error {
	if err := checkShape(X, y); err != nil {
		return err
	}
	if rf.NEstimators <= 0 {
		rf.NEstimators = 30
	}
	n := len(X)
	nFeats := len(X[0])
	maxFeats := rf.MaxFeatures
	switch {
	case rf.AllFeatures:
		maxFeats = 0
	case maxFeats <= 0:
		maxFeats = int(math.Max(1, float64(nFeats)/3))
	}

	trees := make([]*DecisionTree, rf.NEstimators)
	var g errgroup.Group
	g.SetLimit(runtime.GOMAXPROCS(0))
	for k := range trees {
		k := k
		g.Go(func() error {
			rng := rand.New(rand.NewSource(rf.Seed + int64(k)))
			idx := make([]int, n)
			for i := range idx {
				idx[i] = rng.Intn(n)
			}
			dt := &DecisionTree{
				MaxDepth:           rf.MaxDepth,
				MinSamplesSplit:    rf.MinSamples,
				MinSamplesLeaf:     1,
				MaxThresholdsPerFe: rf.MaxThresholdsPerFe,
				MaxFeatures:        maxFeats,
			}
			dt.fit(X, y, idx, rng)
			trees[k] = dt
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	rf.Trees = trees
	return nil
}

func (rf *RandomForest) Predict(X [][]float64) []float64 {
	out := make([]float64, len(X))
	if len(rf.Trees) == 0 {
		return out
	}
	for _, dt := range rf.Trees {
		for i := range X {
			out[i] += dt.predictOne(X[i])
		}
	}
	m := float64(len(rf.Trees))
	for i := range out {
		out[i] /= m
	}
	return out
}
