package main

import (
	"math"

	"reimburse/internal/models"
	"reimburse/internal/report"
)

// computeCurveSizes picks strictly increasing training sizes ending at
// totalTrain, spaced linearly or geometrically from min.
func computeCurveSizes(totalTrain, points, min int, useLog bool) []int {
	if totalTrain <= 0 {
		return nil
	}
	if points <= 1 {
		points = 2
	}
	if min < 10 {
		min = 10
	}
	if min > totalTrain {
		min = int(math.Max(1, float64(totalTrain)/2))
	}
	sizes := make([]int, 0, points)
	if useLog {
		ratio := math.Pow(float64(totalTrain)/float64(min), 1.0/float64(points-1))
		for i := 0; i < points; i++ {
			sizes = append(sizes, int(math.Round(float64(min)*math.Pow(ratio, float64(i)))))
		}
	} else {
		step := float64(totalTrain-min) / float64(points-1)
		for i := 0; i < points; i++ {
			sizes = append(sizes, int(math.Round(float64(min)+float64(i)*step)))
		}
	}
	cleaned := make([]int, 0, len(sizes))
	last := 0
	for _, s := range sizes {
		if s <= last {
			s = last + 1
		}
		if s > totalTrain {
			s = totalTrain
		}
		if s != last {
			cleaned = append(cleaned, s)
			last = s
		}
	}
	cleaned[len(cleaned)-1] = totalTrain
	return cleaned
}

// learningCurve refits a fresh model on growing prefixes of the training
// rows and scores each on the prefix and on the holdout.
func learningCurve(sizes []int, Xtrain [][]float64, ytrain []float64, Xtest [][]float64, ytest []float64, build func() (models.Model, error)) ([]report.CurvePoint, error) {
	points := make([]report.CurvePoint, 0, len(sizes))
	for _, s := range sizes {
		m, err := build()
		if err != nil {
			return nil, err
		}
		subX, subY := Xtrain[:s], ytrain[:s]
		if err := m.Fit(subX, subY); err != nil {
			return nil, err
		}
		points = append(points, report.CurvePoint{
			Size:     s,
			TrainMAE: models.MAE(subY, m.Predict(subX)),
			TestMAE:  models.MAE(ytest, m.Predict(Xtest)),
		})
	}
	return points, nil
}
