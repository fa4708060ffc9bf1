// Package calculator reproduces the legacy reimbursement formula: duration
// dispatch to one of five branches, ordered bonus and penalty factors, a cap
// for long trips, and a final non-negative cent rounding.
package calculator

import (
	"math"
	"strconv"
	"sync/atomic"
)

// Calculate returns the reimbursement for one trip under params. Days below
// one yield 0.
func Calculate(days int, miles, receipts float64, params *Parameters) float64 {
	return Amount(Trip{Days: days, Miles: miles, Receipts: receipts}, params)
}

// Amount is Calculate for a Trip value.
func Amount(t Trip, params *Parameters) float64 {
	return Round(Raw(t, params))
}

// Raw is the branch output before rounding and the zero floor. Optimizers fit
// against it so the objective stays continuous in the rates.
func Raw(t Trip, params *Parameters) float64 {
	br := params.Branch(t.Bucket())
	if br == nil {
		return 0
	}
	return br.Amount(t)
}

// Round rounds the exact binary value to cents, half to even on exact ties,
// and floors at 0. 2.675 is stored below the tie and rounds to 2.67.
// Non-finite totals collapse to 0.
func Round(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	r, _ := strconv.ParseFloat(strconv.FormatFloat(v, 'f', 2, 64), 64)
	return math.Max(0, r)
}

// Calculator scores trips against a parameter set that can be replaced
// wholesale while calls are in flight. Each call reads one snapshot.
type Calculator struct {
	active atomic.Pointer[snapshot]
}

type snapshot struct {
	params      *Parameters
	fingerprint string
}

func newSnapshot(params *Parameters) *snapshot {
	p := params.Clone()
	return &snapshot{params: p, fingerprint: p.Fingerprint()}
}

func New(params *Parameters) *Calculator {
	c := &Calculator{}
	c.active.Store(newSnapshot(params))
	return c
}

func (c *Calculator) Calculate(t Trip) float64 {
	return Amount(t, c.active.Load().params)
}

// Predict satisfies the evaluation Predictor contract.
func (c *Calculator) Predict(t Trip) float64 { return c.Calculate(t) }

// Parameters returns a copy of the active set.
func (c *Calculator) Parameters() *Parameters {
	return c.active.Load().params.Clone()
}

// Snapshot returns a copy of the active set with its fingerprint, both read
// from the same installed value.
func (c *Calculator) Snapshot() (*Parameters, string) {
	s := c.active.Load()
	return s.params.Clone(), s.fingerprint
}

// Swap installs a validated copy of params and returns the previous set.
func (c *Calculator) Swap(params *Parameters) (*Parameters, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	return c.active.Swap(newSnapshot(params)).params, nil
}
