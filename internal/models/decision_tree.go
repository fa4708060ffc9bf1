package models

import (
	"math"
	"math/rand"
	"sort"
)

type DTNode struct {
	Feature   int
	Threshold float64
	Left      *DTNode
	Right     *DTNode
	IsLeaf    bool
	Value     float64
}

// DecisionTree is a CART regression tree split on squared-error reduction.
type DecisionTree struct {
	MaxDepth           int
	MinSamplesSplit    int
	MinSamplesLeaf     int
	MaxThresholdsPerFe int
	MaxFeatures        int
	Seed               int64
	Root               *DTNode

	rng *rand.Rand
}

func NewDecisionTree() *DecisionTree {
	return &DecisionTree{MaxDepth: 6, MinSamplesSplit: 10, MinSamplesLeaf: 3, MaxThresholdsPerFe: 32, Seed: 42}
}

func (dt *DecisionTree) Name() string { return "DecisionTree" }

func (dt *DecisionTree) Fit(X [][]float64, y []float64) error {
	if err := checkShape(X, y); err != nil {
		return err
	}
	dt.fit(X, y, seq(len(X)), rand.New(rand.NewSource(dt.Seed)))
	return nil
}

// fit grows the tree on the rows in idx. Ensembles call it directly to avoid
// copying bootstrap samples.
func (dt *DecisionTree) fit(X [][]float64, y []float64, idx []int, rng *rand.Rand) {
	dt.rng = rng
	dt.Root = dt.build(X, y, idx, 0)
	dt.rng = nil
}

func (dt *DecisionTree) Predict(X [][]float64) []float64 {
	out := make([]float64, len(X))
	for i := range X {
		out[i] = dt.predictOne(X[i])
	}
	return out
}

func (dt *DecisionTree) predictOne(x []float64) float64 {
	n := dt.Root
	if n == nil {
		return 0
	}
	for !n.IsLeaf {
		if x[n.Feature] <= n.Threshold {
			n = n.Left
		} else {
			n = n.Right
		}
	}
	return n.Value
}

// Depth is the longest root-to-leaf path; a lone leaf has depth 0.
func (dt *DecisionTree) Depth() int {
	var walk func(n *DTNode) int
	walk = func(n *DTNode) int {
		if n == nil || n.IsLeaf {
			return 0
		}
		return 1 + max(walk(n.Left), walk(n.Right))
	}
	return walk(dt.Root)
}

func (dt *DecisionTree) build(X [][]float64, y []float64, idx []int, depth int) *DTNode {
	node := &DTNode{IsLeaf: true, Value: mean(y, idx)}
	if len(idx) < max(dt.MinSamplesSplit, 2) || depth >= dt.MaxDepth {
		return node
	}
	parent := sse(y, idx)
	if parent <= 1e-12 {
		return node
	}

	minLeaf := max(dt.MinSamplesLeaf, 1)
	bestFeature := -1
	bestThr := 0.0
	bestSSE := parent
	var leftBest, rightBest []int

	for _, f := range pickFeatures(len(X[0]), dt.MaxFeatures, dt.rng) {
		for _, thr := range quantileThresholds(X, idx, f, dt.MaxThresholdsPerFe) {
			lIdx, rIdx := splitIdx(X, idx, f, thr)
			if len(lIdx) < minLeaf || len(rIdx) < minLeaf {
				continue
			}
			if s := sse(y, lIdx) + sse(y, rIdx); s < bestSSE {
				bestSSE = s
				bestFeature = f
				bestThr = thr
				leftBest, rightBest = lIdx, rIdx
			}
		}
	}
	if bestFeature == -1 {
		return node
	}
	node.IsLeaf = false
	node.Feature = bestFeature
	node.Threshold = bestThr
	node.Left = dt.build(X, y, leftBest, depth+1)
	node.Right = dt.build(X, y, rightBest, depth+1)
	return node
}

// sse is the sum of squared deviations from the mean of y over idx.
func sse(y []float64, idx []int) float64 {
	if len(idx) == 0 {
		return 0
	}
	var s, sq float64
	for _, i := range idx {
		s += y[i]
		sq += y[i] * y[i]
	}
	return math.Max(0, sq-s*s/float64(len(idx)))
}

func splitIdx(X [][]float64, idx []int, f int, thr float64) ([]int, []int) {
	l := make([]int, 0, len(idx))
	r := make([]int, 0, len(idx))
	for _, i := range idx {
		if X[i][f] <= thr {
			l = append(l, i)
		} else {
			r = append(r, i)
		}
	}
	return l, r
}

// quantileThresholds returns up to nCand distinct cut points taken at evenly
// spaced quantiles of feature f.
func quantileThresholds(X [][]float64, idx []int, f int, nCand int) []float64 {
	if nCand <= 0 {
		nCand = 16
	}
	n := len(idx)
	vals := make([]float64, n)
	for j, i := range idx {
		vals[j] = X[i][f]
	}
	sort.Float64s(vals)
	if vals[0] == vals[n-1] {
		return nil
	}
	out := make([]float64, 0, nCand)
	for k := 1; k <= nCand; k++ {
		pos := int(math.Round(float64(k) / float64(nCand+1) * float64(n-1)))
		thr := vals[pos]
		if thr == vals[n-1] {
			continue
		}
		if len(out) == 0 || thr != out[len(out)-1] {
			out = append(out, thr)
		}
	}
	return out
}

func pickFeatures(nFeats int, maxFeats int, rng *rand.Rand) []int {
	idx := seq(nFeats)
	if maxFeats <= 0 || maxFeats >= nFeats || rng == nil {
		return idx
	}
	rng.Shuffle(nFeats, func(i, j int) { idx[i], idx[j] = idx[j], idx[i] })
	return idx[:maxFeats]
}
