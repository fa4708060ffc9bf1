package data

import "reimburse/internal/calculator"

// Case is one labelled example from the legacy system.
type Case struct {
	Input    calculator.Trip `json:"input"`
	Expected float64         `json:"expected_output"`
}

func (c Case) Days() int                 { return c.Input.Days }
func (c Case) Miles() float64            { return c.Input.Miles }
func (c Case) Receipts() float64         { return c.Input.Receipts }
func (c Case) Bucket() calculator.Bucket { return c.Input.Bucket() }

// Trips strips the labels.
func Trips(cases []Case) []calculator.Trip {
	out := make([]calculator.Trip, len(cases))
	for i, c := range cases {
		out[i] = c.Input
	}
	return out
}

// Expected returns the labels in case order.
func Expected(cases []Case) []float64 {
	out := make([]float64, len(cases))
	for i, c := range cases {
		out[i] = c.Expected
	}
	return out
}
