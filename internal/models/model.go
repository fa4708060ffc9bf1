package models

import (
	"errors"
	"fmt"
)

var (
	ErrNotFitted = errors.New("model is not fitted")
	ErrShape     = errors.New("feature matrix and targets disagree")
)

// Model is a regressor over engineered trip features.
type Model interface {
	Fit(X [][]float64, y []float64) error
	Predict(X [][]float64) []float64
	Name() string
}

func checkShape(X [][]float64, y []float64) error {
	if len(X) == 0 {
		return fmt.Errorf("%w: no rows", ErrShape)
	}
	if len(X) != len(y) {
		return fmt.Errorf("%w: %d rows, %d targets", ErrShape, len(X), len(y))
	}
	width := len(X[0])
	for i, row := range X {
		if len(row) != width {
			return fmt.Errorf("%w: row %d has %d features, want %d", ErrShape, i, len(row), width)
		}
	}
	return nil
}

func mean(y []float64, idx []int) float64 {
	if len(idx) == 0 {
		return 0
	}
	s := 0.0
	for _, i := range idx {
		s += y[i]
	}
	return s / float64(len(idx))
}

func seq(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	return out
}
