package evaluate

import (
	"fmt"

	"reimburse/internal/calculator"
	"reimburse/internal/features"
	"reimburse/internal/models"
)

// Predictor scores one trip.
type Predictor interface {
	Predict(t calculator.Trip) float64
}

// BatchPredictor scores many trips in one call. Run prefers it when a
// predictor implements both.
type BatchPredictor interface {
	PredictBatch(trips []calculator.Trip) ([]float64, error)
}

// FormulaPredictor evaluates the parameterized formula.
type FormulaPredictor struct {
	Params *calculator.Parameters
}

func (f FormulaPredictor) Predict(t calculator.Trip) float64 {
	return calculator.Amount(t, f.Params)
}

// ModelPredictor adapts a fitted tree model. Outputs go through the same
// cent rounding and zero floor as the formula.
type ModelPredictor struct {
	Model models.Model
}

func (m ModelPredictor) Predict(t calculator.Trip) float64 {
	x, _ := features.Vectorize(t)
	out := m.Model.Predict([][]float64{x})
	if len(out) != 1 {
		return 0
	}
	return calculator.Round(out[0])
}

func (m ModelPredictor) PredictBatch(trips []calculator.Trip) ([]float64, error) {
	out := m.Model.Predict(features.Matrix(trips))
	if len(out) != len(trips) {
		return nil, fmt.Errorf("%s returned %d predictions for %d trips", m.Model.Name(), len(out), len(trips))
	}
	for i := range out {
		out[i] = calculator.Round(out[i])
	}
	return out, nil
}
