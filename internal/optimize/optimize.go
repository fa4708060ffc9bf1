// Package optimize fits formula parameters to labelled cases with gonum's
// optimizers. The search runs in bound-normalized coordinates: each free
// parameter maps to [0, 1] over its search interval.
package optimize

import (
	"context"
	"errors"
	"fmt"
	"math"
	"runtime"
	"strings"
	"time"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/diff/fd"
	gopt "gonum.org/v1/gonum/optimize"

	"reimburse/internal/calculator"
	"reimburse/internal/data"
	"reimburse/pkg/utils"
)

type Method string

const (
	// MethodCMAES is a population-based global search.
	MethodCMAES      Method = "cmaes"
	MethodNelderMead Method = "neldermead"
	MethodBFGS       Method = "bfgs"
)

var Methods = []Method{MethodCMAES, MethodNelderMead, MethodBFGS}

var ErrUnknownMethod = errors.New("unknown optimization method")

func ParseMethod(s string) (Method, error) {
	m := Method(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Methods {
		if m == known {
			return m, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownMethod, s)
}

type Settings struct {
	Method Method
	// Free limits the search to these parameter names; empty means all.
	Free           []string
	MaxEvaluations int
	MaxIterations  int
	Runtime        time.Duration
	// Tolerance and Patience stop the search once the objective improves by
	// less than Tolerance for Patience iterations.
	Tolerance float64
	Patience  int
	// StepSize is the initial CMA-ES step or Nelder-Mead simplex size, in
	// normalized units.
	StepSize float64
	Workers  int
	Version  string
}

func DefaultSettings() Settings {
	return Settings{
		Method:         MethodCMAES,
		MaxEvaluations: 20000,
		MaxIterations:  1000,
		Tolerance:      1e-4,
		Patience:       50,
		StepSize:       0.3,
		Workers:        runtime.GOMAXPROCS(0),
		Version:        "optimized",
	}
}

// Outcome reports one optimizer run. Baseline and Error are rounded-formula
// MAEs of the start and final parameters.
type Outcome struct {
	Method      Method                 `json:"method"`
	Params      *calculator.Parameters `json:"-"`
	Baseline    float64                `json:"baseline_mae"`
	Error       float64                `json:"mae"`
	Objective   float64                `json:"objective"`
	Evaluations int                    `json:"evaluations"`
	Iterations  int                    `json:"iterations"`
	Status      string                 `json:"status"`
	Elapsed     time.Duration          `json:"elapsed"`
}

// Improvement is the relative MAE reduction in percent.
func (o Outcome) Improvement() float64 {
	if o.Baseline == 0 {
		return 0
	}
	return (o.Baseline - o.Error) / o.Baseline * 100
}

func (o Outcome) Improved() bool { return o.Error < o.Baseline }

// Run minimizes the objective from start. A run stopped by an evaluation,
// iteration or time limit still returns its best point.
func Run(ctx context.Context, cases []data.Case, start *calculator.Parameters, s Settings) (*Outcome, error) {
	logger := utils.Logger()
	obj, err := NewObjective(cases, start, s.Free)
	if err != nil {
		return nil, err
	}
	if obj.Dim() == 0 {
		return nil, fmt.Errorf("optimize: no free parameters")
	}

	bounds := obj.Bounds()
	denorm := func(u []float64) []float64 {
		x := make([]float64, len(u))
		for i, b := range bounds {
			x[i] = b.Lo + u[i]*(b.Hi-b.Lo)
		}
		return x
	}
	f := func(u []float64) float64 { return obj.Func(denorm(u)) }

	x0 := obj.Start()
	u0 := make([]float64, len(x0))
	for i, b := range bounds {
		u0[i] = (x0[i] - b.Lo) / (b.Hi - b.Lo)
	}

	problem := gopt.Problem{
		Func: f,
		Status: func() (gopt.Status, error) {
			if err := ctx.Err(); err != nil {
				return gopt.Failure, err
			}
			return gopt.NotTerminated, nil
		},
	}
	settings := &gopt.Settings{
		FuncEvaluations: s.MaxEvaluations,
		MajorIterations: s.MaxIterations,
		Runtime:         s.Runtime,
		Converger: &gopt.FunctionConverge{
			Absolute:   s.Tolerance,
			Iterations: max(s.Patience, 1),
		},
		Recorder: &progress{logger: logger, every: 25},
	}

	var method gopt.Method
	switch s.Method {
	case MethodCMAES, "":
		method = &gopt.CmaEsChol{InitStepSize: orDefault(s.StepSize, 0.3)}
		settings.Concurrent = max(s.Workers, 1)
	case MethodNelderMead:
		method = &gopt.NelderMead{SimplexSize: orDefault(s.StepSize, 0.05)}
	case MethodBFGS:
		problem.Grad = func(grad, u []float64) {
			fd.Gradient(grad, f, u, &fd.Settings{Formula: fd.Central, Step: 1e-4, Concurrent: true})
		}
		method = &gopt.BFGS{}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownMethod, s.Method)
	}

	logger.Info("optimization started",
		zap.String("method", string(s.Method)),
		zap.Int("dim", obj.Dim()),
		zap.Int("cases", len(cases)),
		zap.Float64("start_objective", f(u0)),
	)
	began := time.Now()
	res, err := gopt.Minimize(problem, u0, settings, method)
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, ctxErr
	}
	if res == nil {
		return nil, fmt.Errorf("optimize %s: %w", s.Method, err)
	}
	if err != nil {
		logger.Warn("optimizer stopped early", zap.String("status", res.Status.String()), zap.Error(err))
	}

	version := s.Version
	if version == "" {
		version = string(s.Method)
	}
	best := obj.Params(version, denorm(res.X))
	out := &Outcome{
		Method:      s.Method,
		Params:      best,
		Baseline:    MAE(cases, start),
		Error:       MAE(cases, best),
		Objective:   res.F,
		Evaluations: res.FuncEvaluations,
		Iterations:  res.MajorIterations,
		Status:      res.Status.String(),
		Elapsed:     time.Since(began),
	}
	logger.Info("optimization finished",
		zap.String("status", out.Status),
		zap.Float64("baseline_mae", out.Baseline),
		zap.Float64("mae", out.Error),
		zap.Int("evaluations", out.Evaluations),
		zap.Duration("elapsed", out.Elapsed),
	)
	return out, nil
}

// progress logs every few major iterations at debug level.
type progress struct {
	logger *zap.Logger
	every  int
	iter   int
}

func (p *progress) Init() error {
	p.iter = 0
	return nil
}

func (p *progress) Record(loc *gopt.Location, op gopt.Operation, stats *gopt.Stats) error {
	if op&gopt.MajorIteration == 0 {
		return nil
	}
	p.iter++
	if p.iter%p.every == 0 && !math.IsInf(loc.F, 0) {
		p.logger.Debug("optimizer progress",
			zap.Int("iteration", stats.MajorIterations),
			zap.Int("evaluations", stats.FuncEvaluations),
			zap.Float64("objective", loc.F),
		)
	}
	return nil
}

func orDefault(v, def float64) float64 {
	if v > 0 {
		return v
	}
	return def
}
