package data

import (
	"math"
	"math/rand"

	"reimburse/internal/calculator"
)

// GenerateSynthetic draws n trips shaped like the public set (1-14 days,
// up to ~1200 miles, up to ~2500 in receipts) and labels them with params
// plus gaussian noise of the given standard deviation. The trips depend only
// on seed, so noisy and clean sets built from one seed line up.
func GenerateSynthetic(n int, params *calculator.Parameters, noise float64, seed int64) []Case {
	r := rand.New(rand.NewSource(seed))
	jitter := rand.New(rand.NewSource(seed + 1))
	cases := make([]Case, 0, n)
	for i := 0; i < n; i++ {
		days := 1 + r.Intn(14)
		miles := float64(5 + r.Intn(1200))
		if r.Float64() < 0.25 {
			miles = float64(5 + r.Intn(120))
		}
		receipts := math.Round((1+r.Float64()*2500)*100) / 100
		if r.Float64() < 0.2 {
			receipts = math.Round(r.Float64()*30*float64(days)*100) / 100
		}
		trip := calculator.Trip{Days: days, Miles: miles, Receipts: receipts}

		expected := calculator.Amount(trip, params)
		if noise > 0 {
			expected = calculator.Round(expected + jitter.NormFloat64()*noise)
		}
		cases = append(cases, Case{Input: trip, Expected: expected})
	}
	return cases
}
