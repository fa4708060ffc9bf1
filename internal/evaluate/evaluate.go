// Package evaluate scores predictors against labelled cases and summarizes
// the error distribution.
package evaluate

import (
	"context"
	"math"
	"runtime"
	"sort"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"reimburse/internal/data"
)

const (
	ExactTolerance = 0.01
	CloseTolerance = 1.00
)

type Result struct {
	Case      data.Case `json:"case"`
	Predicted float64   `json:"predicted"`
	Error     float64   `json:"error"`
}

func (r Result) Exact() bool { return r.Error < ExactTolerance }
func (r Result) Close() bool { return r.Error < CloseTolerance }

// Stats summarizes a group of results.
type Stats struct {
	N           int     `json:"n"`
	Exact       int     `json:"exact"`
	Close       int     `json:"close"`
	MeanError   float64 `json:"mean_error"`
	MedianError float64 `json:"median_error"`
	MaxError    float64 `json:"max_error"`
	R2          float64 `json:"r2"`
}

// Score is mean error x 100 plus 0.1 per inexact case. Lower is better.
func (s Stats) Score() float64 {
	return s.MeanError*100 + float64(s.N-s.Exact)*0.1
}

func (s Stats) ExactPct() float64 { return pct(s.Exact, s.N) }
func (s Stats) ClosePct() float64 { return pct(s.Close, s.N) }

type DurationStats struct {
	Days int `json:"days"`
	Stats
}

type Report struct {
	Stats
	ByDuration []DurationStats `json:"by_duration"`
	Results    []Result        `json:"-"`
}

// Run scores every case with p, fanning out over workers goroutines.
// Results keep case order.
func Run(ctx context.Context, cases []data.Case, p Predictor, workers int) (*Report, error) {
	if len(cases) == 0 {
		return nil, data.ErrEmptyDataset
	}
	preds, err := predictAll(ctx, cases, p, workers)
	if err != nil {
		return nil, err
	}
	results := make([]Result, len(cases))
	for i, c := range cases {
		results[i] = Result{Case: c, Predicted: preds[i], Error: math.Abs(preds[i] - c.Expected)}
	}
	return Summarize(results), nil
}

func predictAll(ctx context.Context, cases []data.Case, p Predictor, workers int) ([]float64, error) {
	if bp, ok := p.(BatchPredictor); ok {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return bp.PredictBatch(data.Trips(cases))
	}

	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	chunk := (len(cases) + workers - 1) / workers
	preds := make([]float64, len(cases))
	g, ctx := errgroup.WithContext(ctx)
	for lo := 0; lo < len(cases); lo += chunk {
		lo := lo
		hi := min(lo+chunk, len(cases))
		g.Go(func() error {
			for i := lo; i < hi; i++ {
				if i%256 == 0 {
					if err := ctx.Err(); err != nil {
						return err
					}
				}
				preds[i] = p.Predict(cases[i].Input)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return preds, nil
}

// Summarize builds a report from already scored results.
func Summarize(results []Result) *Report {
	rep := &Report{Stats: stats(results), Results: results}

	groups := make(map[int][]Result)
	for _, r := range results {
		groups[r.Case.Days()] = append(groups[r.Case.Days()], r)
	}
	days := make([]int, 0, len(groups))
	for d := range groups {
		days = append(days, d)
	}
	sort.Ints(days)
	for _, d := range days {
		rep.ByDuration = append(rep.ByDuration, DurationStats{Days: d, Stats: stats(groups[d])})
	}
	return rep
}

// Worst returns the n results with the largest error, largest first.
func (r *Report) Worst(n int) []Result {
	out := make([]Result, len(r.Results))
	copy(out, r.Results)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Error > out[j].Error })
	if n >= 0 && n < len(out) {
		out = out[:n]
	}
	return out
}

func stats(results []Result) Stats {
	s := Stats{N: len(results)}
	if s.N == 0 {
		return s
	}
	errs := make([]float64, s.N)
	pred := make([]float64, s.N)
	want := make([]float64, s.N)
	for i, r := range results {
		errs[i], pred[i], want[i] = r.Error, r.Predicted, r.Case.Expected
		if r.Exact() {
			s.Exact++
		}
		if r.Close() {
			s.Close++
		}
	}
	s.MeanError = stat.Mean(errs, nil)
	s.MaxError = floats.Max(errs)
	s.MedianError = median(errs)
	s.R2 = rSquared(pred, want)
	return s
}

// median averages the two middle values for even n. errs is reordered.
func median(errs []float64) float64 {
	sort.Float64s(errs)
	n := len(errs)
	return (errs[(n-1)/2] + errs[n/2]) / 2
}

// rSquared is 0 when the targets have no variance.
func rSquared(pred, want []float64) float64 {
	if len(want) < 2 || floats.Max(want) == floats.Min(want) {
		return 0
	}
	return stat.RSquaredFrom(pred, want, nil)
}

func pct(n, of int) float64 {
	if of == 0 {
		return 0
	}
	return float64(n) / float64(of) * 100
}
