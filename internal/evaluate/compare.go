package evaluate

import (
	"fmt"
	"sort"

	"reimburse/internal/data"
)

// Change is one case scored by two predictors.
type Change struct {
	Case        data.Case `json:"case"`
	Before      float64   `json:"before"`
	After       float64   `json:"after"`
	BeforeError float64   `json:"before_error"`
	AfterError  float64   `json:"after_error"`
}

// Improvement is positive when the candidate is closer.
func (c Change) Improvement() float64 { return c.BeforeError - c.AfterError }

// Comparison pairs two reports over the same cases.
type Comparison struct {
	Baseline  Stats    `json:"baseline"`
	Candidate Stats    `json:"candidate"`
	Improved  int      `json:"improved"`
	Regressed int      `json:"regressed"`
	Changes   []Change `json:"-"`
}

// Compare lines up two reports case by case. Changes are ordered by the
// baseline error, worst first.
func Compare(baseline, candidate *Report) (*Comparison, error) {
	if len(baseline.Results) != len(candidate.Results) {
		return nil, fmt.Errorf("compare: %d vs %d results", len(baseline.Results), len(candidate.Results))
	}
	cmp := &Comparison{Baseline: baseline.Stats, Candidate: candidate.Stats}
	cmp.Changes = make([]Change, len(baseline.Results))
	for i, b := range baseline.Results {
		c := candidate.Results[i]
		if b.Case.Input != c.Case.Input {
			return nil, fmt.Errorf("compare: case %d differs (%s vs %s)", i, b.Case.Input, c.Case.Input)
		}
		ch := Change{Case: b.Case, Before: b.Predicted, After: c.Predicted, BeforeError: b.Error, AfterError: c.Error}
		switch imp := ch.Improvement(); {
		case imp >= ExactTolerance:
			cmp.Improved++
		case imp <= -ExactTolerance:
			cmp.Regressed++
		}
		cmp.Changes[i] = ch
	}
	sort.SliceStable(cmp.Changes, func(i, j int) bool {
		return cmp.Changes[i].BeforeError > cmp.Changes[j].BeforeError
	})
	return cmp, nil
}

// Top returns the first n changes.
func (c *Comparison) Top(n int) []Change {
	if n < 0 || n > len(c.Changes) {
		n = len(c.Changes)
	}
	return c.Changes[:n]
}
