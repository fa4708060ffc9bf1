package optimize

import (
	"context"
	"fmt"
	"runtime"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"reimburse/internal/calculator"
	"reimburse/internal/data"
	"reimburse/pkg/utils"
)

// Axis is one searched parameter and its candidate values.
type Axis struct {
	Name   string    `json:"name" yaml:"name"`
	Values []float64 `json:"values" yaml:"values"`
}

// Span returns n evenly spaced values from lo to hi inclusive.
func Span(lo, hi float64, n int) []float64 {
	if n <= 1 {
		return []float64{lo}
	}
	out := make([]float64, n)
	step := (hi - lo) / float64(n-1)
	for i := range out {
		out[i] = lo + float64(i)*step
	}
	out[n-1] = hi
	return out
}

type GridResult struct {
	Params    *calculator.Parameters
	Point     map[string]float64
	Error     float64
	Baseline  float64
	Evaluated int
}

// GridSearch scores every combination of the axis values on top of start
// with the rounded formula. Ties go to the earliest combination in
// row-major order, with the last axis varying fastest.
func GridSearch(ctx context.Context, cases []data.Case, start *calculator.Parameters, axes []Axis, workers int) (*GridResult, error) {
	if len(cases) == 0 {
		return nil, data.ErrEmptyDataset
	}
	if len(axes) == 0 {
		return nil, fmt.Errorf("grid search: no axes")
	}
	total := 1
	for _, a := range axes {
		if len(a.Values) == 0 {
			return nil, fmt.Errorf("grid search: axis %q has no values", a.Name)
		}
		if _, err := start.Get(a.Name); err != nil {
			return nil, err
		}
		total *= len(a.Values)
	}
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	point := func(k int) map[string]float64 {
		pt := make(map[string]float64, len(axes))
		for i := len(axes) - 1; i >= 0; i-- {
			n := len(axes[i].Values)
			pt[axes[i].Name] = axes[i].Values[k%n]
			k /= n
		}
		return pt
	}
	build := func(pt map[string]float64) (*calculator.Parameters, error) {
		p := start.Clone()
		for name, v := range pt {
			var err error
			if p, err = p.With(name, v); err != nil {
				return nil, err
			}
		}
		return p, nil
	}

	errs := make([]float64, total)
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for k := 0; k < total; k++ {
		k := k
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			p, err := build(point(k))
			if err != nil {
				return err
			}
			errs[k] = MAE(cases, p)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	best := 0
	for k := 1; k < total; k++ {
		if errs[k] < errs[best] {
			best = k
		}
	}
	pt := point(best)
	params, err := build(pt)
	if err != nil {
		return nil, err
	}
	params.Version = start.Version + "-grid"
	res := &GridResult{
		Params:    params,
		Point:     pt,
		Error:     errs[best],
		Baseline:  MAE(cases, start),
		Evaluated: total,
	}
	utils.Logger().Info("grid search finished",
		zap.Int("evaluated", total),
		zap.Any("best", pt),
		zap.Float64("baseline_mae", res.Baseline),
		zap.Float64("mae", res.Error),
	)
	return res, nil
}
