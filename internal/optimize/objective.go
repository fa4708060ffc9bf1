package optimize

import (
	"fmt"
	"math"

	"reimburse/internal/calculator"
	"reimburse/internal/data"
)

// Objective is the mean absolute error of the formula over a fixed case set,
// as a function of a parameter vector. Values outside the search bounds are
// clamped before evaluation. Only the indices in free vary; the rest come
// from base.
type Objective struct {
	cases []data.Case
	base  []float64
	free  []int
}

// NewObjective fits the names in free (all names when empty) around start.
func NewObjective(cases []data.Case, start *calculator.Parameters, free []string) (*Objective, error) {
	if len(cases) == 0 {
		return nil, data.ErrEmptyDataset
	}
	if err := start.Validate(); err != nil {
		return nil, err
	}
	o := &Objective{cases: cases, base: calculator.Clamp(start.Vector())}
	if len(free) == 0 {
		free = calculator.Names()
	}
	index := make(map[string]int)
	for i, n := range calculator.Names() {
		index[n] = i
	}
	seen := make(map[int]bool)
	for _, n := range free {
		i, ok := index[n]
		if !ok {
			return nil, fmt.Errorf("%w: %q", calculator.ErrUnknownParameter, n)
		}
		if !seen[i] {
			seen[i] = true
			o.free = append(o.free, i)
		}
	}
	return o, nil
}

// Dim is the number of free parameters.
func (o *Objective) Dim() int { return len(o.free) }

// Start returns the free coordinates of the starting point.
func (o *Objective) Start() []float64 {
	x := make([]float64, len(o.free))
	for k, i := range o.free {
		x[k] = o.base[i]
	}
	return x
}

// Bounds returns the search bounds of the free coordinates.
func (o *Objective) Bounds() []calculator.Bound {
	all := calculator.Bounds()
	out := make([]calculator.Bound, len(o.free))
	for k, i := range o.free {
		out[k] = all[i]
	}
	return out
}

// Expand maps free coordinates to a full, clamped parameter vector.
func (o *Objective) Expand(x []float64) []float64 {
	v := make([]float64, len(o.base))
	copy(v, o.base)
	for k, i := range o.free {
		v[i] = x[k]
	}
	return calculator.Clamp(v)
}

// Params builds the parameter set for free coordinates x.
func (o *Objective) Params(version string, x []float64) *calculator.Parameters {
	p, err := calculator.FromVector(version, o.Expand(x))
	if err != nil {
		panic(err)
	}
	return p
}

// Func evaluates the unrounded, zero-floored formula so small rate changes
// stay visible to local methods. It is safe for concurrent use.
func (o *Objective) Func(x []float64) float64 {
	p := o.Params("", x)
	sum := 0.0
	for _, c := range o.cases {
		sum += math.Abs(math.Max(0, calculator.Raw(c.Input, p)) - c.Expected)
	}
	v := sum / float64(len(o.cases))
	if math.IsNaN(v) {
		return math.Inf(1)
	}
	return v
}

// MAE scores a full parameter set with the rounded formula.
func MAE(cases []data.Case, p *calculator.Parameters) float64 {
	if len(cases) == 0 {
		return 0
	}
	sum := 0.0
	for _, c := range cases {
		sum += math.Abs(calculator.Amount(c.Input, p) - c.Expected)
	}
	return sum / float64(len(cases))
}
