package data

import (
	"errors"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"sort"

	"github.com/goccy/go-json"

	"reimburse/internal/calculator"
)

var ErrEmptyDataset = errors.New("dataset has no cases")

// LoadCases reads a labelled case file:
// [{"input": {"trip_duration_days": ..}, "expected_output": ..}, ..]
func LoadCases(path string) ([]Case, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read cases: %w", err)
	}
	var cases []Case
	if err := json.Unmarshal(raw, &cases); err != nil {
		return nil, fmt.Errorf("decode cases %s: %w", path, err)
	}
	if len(cases) == 0 {
		return nil, fmt.Errorf("%s: %w", path, ErrEmptyDataset)
	}
	return cases, nil
}

// LoadInputs reads an unlabelled file of bare trip objects.
func LoadInputs(path string) ([]calculator.Trip, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read inputs: %w", err)
	}
	var trips []calculator.Trip
	if err := json.Unmarshal(raw, &trips); err != nil {
		return nil, fmt.Errorf("decode inputs %s: %w", path, err)
	}
	if len(trips) == 0 {
		return nil, fmt.Errorf("%s: %w", path, ErrEmptyDataset)
	}
	return trips, nil
}

func WriteCases(path string, cases []Case) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	raw, err := json.MarshalIndent(cases, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, raw, 0o644)
}

// GroupByDuration buckets cases by exact day count.
func GroupByDuration(cases []Case) map[int][]Case {
	out := make(map[int][]Case)
	for _, c := range cases {
		out[c.Days()] = append(out[c.Days()], c)
	}
	return out
}

// Durations returns the sorted day counts present in groups.
func Durations(groups map[int][]Case) []int {
	days := make([]int, 0, len(groups))
	for d := range groups {
		days = append(days, d)
	}
	sort.Ints(days)
	return days
}

// Subset samples up to perDuration cases of each day count without
// replacement. Smaller groups are kept whole.
func Subset(cases []Case, perDuration int, seed int64) map[int][]Case {
	r := rand.New(rand.NewSource(seed))
	groups := GroupByDuration(cases)
	out := make(map[int][]Case, len(groups))
	for _, d := range Durations(groups) {
		g := groups[d]
		if len(g) <= perDuration {
			out[d] = g
			continue
		}
		picked := make([]Case, 0, perDuration)
		for _, i := range r.Perm(len(g))[:perDuration] {
			picked = append(picked, g[i])
		}
		out[d] = picked
	}
	return out
}

// SubsetFileName is the per-duration file written by WriteSubsets.
func SubsetFileName(days int) string {
	return fmt.Sprintf("trip_duration_%d_days.json", days)
}

// WriteSubsets writes one file per day count into dir and returns the number
// of cases written.
func WriteSubsets(dir string, subsets map[int][]Case) (int, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return 0, err
	}
	total := 0
	for _, d := range Durations(subsets) {
		if err := WriteCases(filepath.Join(dir, SubsetFileName(d)), subsets[d]); err != nil {
			return total, err
		}
		total += len(subsets[d])
	}
	return total, nil
}

// Split shuffles with seed and cuts at frac. Both halves are non-empty when
// len(cases) >= 2.
func Split(cases []Case, frac float64, seed int64) (train, holdout []Case) {
	r := rand.New(rand.NewSource(seed))
	shuffled := make([]Case, len(cases))
	for i, j := range r.Perm(len(cases)) {
		shuffled[i] = cases[j]
	}
	cut := int(frac * float64(len(shuffled)))
	if cut < 1 && len(shuffled) >= 2 {
		cut = 1
	}
	if cut >= len(shuffled) && len(shuffled) >= 2 {
		cut = len(shuffled) - 1
	}
	return shuffled[:cut], shuffled[cut:]
}
