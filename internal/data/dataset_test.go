package data

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"reimburse/internal/calculator"
)

const publicSample = `[
  {"input": {"trip_duration_days": 3, "miles_traveled": 93, "total_receipts_amount": 1.42}, "expected_output": 364.51},
  {"input": {"trip_duration_days": 1, "miles_traveled": 55, "total_receipts_amount": 3.6}, "expected_output": 126.06},
  {"input": {"trip_duration_days": 1, "miles_traveled": 47, "total_receipts_amount": 17.97}, "expected_output": 128.91}
]`

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadCases(t *testing.T) {
	cases, err := LoadCases(writeFile(t, "public_cases.json", publicSample))
	require.NoError(t, err)
	require.Len(t, cases, 3)

	assert.Equal(t, calculator.Trip{Days: 3, Miles: 93, Receipts: 1.42}, cases[0].Input)
	assert.Equal(t, 364.51, cases[0].Expected)
	assert.Equal(t, calculator.BucketSingleDay, cases[1].Bucket())
	assert.Equal(t, []float64{364.51, 126.06, 128.91}, Expected(cases))
}

func TestLoadCasesErrors(t *testing.T) {
	_, err := LoadCases(filepath.Join(t.TempDir(), "nope.json"))
	assert.Error(t, err)

	_, err = LoadCases(writeFile(t, "bad.json", `{"input":`))
	assert.Error(t, err)

	_, err = LoadCases(writeFile(t, "empty.json", `[]`))
	assert.ErrorIs(t, err, ErrEmptyDataset)
}

func TestLoadInputs(t *testing.T) {
	path := writeFile(t, "private_cases.json", `[
	  {"trip_duration_days": 5, "miles_traveled": 250.5, "total_receipts_amount": 710.13},
	  {"trip_duration_days": 12, "miles_traveled": 1100, "total_receipts_amount": 2100}
	]`)
	trips, err := LoadInputs(path)
	require.NoError(t, err)
	assert.Equal(t, []calculator.Trip{{Days: 5, Miles: 250.5, Receipts: 710.13}, {Days: 12, Miles: 1100, Receipts: 2100}}, trips)
}

func TestSubsetAndWrite(t *testing.T) {
	cases := GenerateSynthetic(300, calculator.Optimized(), 0, 1)
	subsets := Subset(cases, 5, 42)

	groups := GroupByDuration(cases)
	assert.Equal(t, Durations(groups), Durations(subsets))
	for d, g := range subsets {
		assert.Equal(t, min(5, len(groups[d])), len(g), "days=%d", d)
		for _, c := range g {
			assert.Equal(t, d, c.Days())
		}
	}

	dir := filepath.Join(t.TempDir(), "trip_duration_datasets")
	n, err := WriteSubsets(dir, subsets)
	require.NoError(t, err)

	back, err := LoadCases(filepath.Join(dir, SubsetFileName(1)))
	require.NoError(t, err)
	assert.Equal(t, subsets[1], back)

	total := 0
	for _, g := range subsets {
		total += len(g)
	}
	assert.Equal(t, total, n)
}

func TestSplit(t *testing.T) {
	cases := GenerateSynthetic(100, calculator.Optimized(), 0, 3)
	train, holdout := Split(cases, 0.8, 9)
	assert.Len(t, train, 80)
	assert.Len(t, holdout, 20)

	again, _ := Split(cases, 0.8, 9)
	assert.Equal(t, train, again)

	train, holdout = Split(cases[:2], 0.99, 1)
	assert.Len(t, train, 1)
	assert.Len(t, holdout, 1)
}

func TestGenerateSynthetic(t *testing.T) {
	params := calculator.Optimized()
	clean := GenerateSynthetic(200, params, 0, 5)
	require.Len(t, clean, 200)
	for _, c := range clean {
		assert.GreaterOrEqual(t, c.Days(), 1)
		assert.LessOrEqual(t, c.Days(), 14)
		assert.Equal(t, calculator.Amount(c.Input, params), c.Expected)
	}

	noisy := GenerateSynthetic(200, params, 25, 5)
	assert.Equal(t, Trips(clean), Trips(noisy))
	assert.NotEqual(t, Expected(clean), Expected(noisy))
}
