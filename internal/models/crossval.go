package models

import (
	"fmt"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/stat"
)

// CrossValidate runs k-fold cross-validation and returns the mean and
// standard deviation of the per-fold mean absolute error. build must return a
// fresh, unfitted model on every call.
func CrossValidate(k int, X [][]float64, y []float64, seed int64, build func() (Model, error)) (float64, float64, error) {
	if err := checkShape(X, y); err != nil {
		return 0, 0, err
	}
	if k < 2 || k > len(X) {
		return 0, 0, fmt.Errorf("cross-validate: k=%d with %d rows", k, len(X))
	}
	perm := rand.New(rand.NewSource(seed)).Perm(len(X))
	maes := make([]float64, 0, k)
	for fold := 0; fold < k; fold++ {
		var trX, teX [][]float64
		var trY, teY []float64
		for pos, i := range perm {
			if pos%k == fold {
				teX, teY = append(teX, X[i]), append(teY, y[i])
			} else {
				trX, trY = append(trX, X[i]), append(trY, y[i])
			}
		}
		m, err := build()
		if err != nil {
			return 0, 0, err
		}
		if err := m.Fit(trX, trY); err != nil {
			return 0, 0, fmt.Errorf("fold %d: %w", fold, err)
		}
		pred := m.Predict(teX)
		if len(pred) != len(teY) {
			return 0, 0, fmt.Errorf("fold %d: %w", fold, ErrShape)
		}
		maes = append(maes, MAE(teY, pred))
	}
	avg, std := stat.MeanStdDev(maes, nil)
	return avg, std, nil
}

// MAE is the mean absolute error between targets and predictions.
func MAE(y, pred []float64) float64 {
	if len(y) == 0 {
		return 0
	}
	s := 0.0
	for i := range y {
		s += math.Abs(y[i] - pred[i])
	}
	return s / float64(len(y))
}
