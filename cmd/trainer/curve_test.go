package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"reimburse/internal/calculator"
	"reimburse/internal/data"
	"reimburse/internal/features"
	"reimburse/internal/models"
)

func TestComputeCurveSizes(t *testing.T) {
	tests := []struct {
		name               string
		total, points, min int
		log                bool
		want               []int
	}{
		{"linear", 1000, 5, 200, false, []int{200, 400, 600, 800, 1000}},
		{"log", 1000, 3, 10, true, []int{10, 100, 1000}},
		{"min above total", 40, 3, 100, false, []int{20, 30, 40}},
		{"dense points collapse", 12, 10, 10, false, []int{10, 11, 12}},
		{"single point widens to two", 500, 1, 100, false, []int{100, 500}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, computeCurveSizes(tt.total, tt.points, tt.min, tt.log))
		})
	}
	assert.Nil(t, computeCurveSizes(0, 5, 10, false))
}

func TestLearningCurve(t *testing.T) {
	cases := data.GenerateSynthetic(400, calculator.Optimized(), 0, 5)
	train, test := data.Split(cases, 0.75, 5)
	Xtr, ytr := features.Labelled(train)
	Xte, yte := features.Labelled(test)

	sizes := computeCurveSizes(len(Xtr), 3, 50, false)
	points, err := learningCurve(sizes, Xtr, ytr, Xte, yte, func() (models.Model, error) {
		return models.New("dt", models.Options{MaxDepth: 5, MinSamples: 4})
	})
	require.NoError(t, err)
	require.Len(t, points, len(sizes))
	for i, p := range points {
		assert.Equal(t, sizes[i], p.Size)
		assert.GreaterOrEqual(t, p.TrainMAE, 0.0)
		assert.Greater(t, p.TestMAE, 0.0)
	}

	_, err = learningCurve(sizes, Xtr, ytr, Xte, yte, func() (models.Model, error) {
		return models.New("nope", models.Options{})
	})
	assert.ErrorIs(t, err, models.ErrUnknownAlgorithm)
}
