package features

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"reimburse/internal/calculator"
	"reimburse/internal/data"
)

func feature(t *testing.T, trip calculator.Trip, name string) float64 {
	t.Helper()
	vec, names := Vectorize(trip)
	require.Len(t, vec, len(names))
	for i, n := range names {
		if n == name {
			return vec[i]
		}
	}
	t.Fatalf("feature %q not found", name)
	return 0
}

func TestVectorize(t *testing.T) {
	trip := calculator.Trip{Days: 8, Miles: 1200, Receipts: 1999}

	assert.Equal(t, 8.0, feature(t, trip, "trip_duration_days"))
	assert.Equal(t, 150.0, feature(t, trip, "daily_miles"))
	assert.InDelta(t, 249.875, feature(t, trip, "daily_receipts"), 1e-9)
	assert.Equal(t, 1.0, feature(t, trip, "is_7plus_day"))
	assert.Equal(t, 0.0, feature(t, trip, "is_long_trip"))
	assert.Equal(t, 1.0, feature(t, trip, "very_high_daily_spending"))
	assert.Equal(t, 1.0, feature(t, trip, "very_high_miles"))
	assert.InDelta(t, 0.6, feature(t, trip, "hustle_ratio"), 1e-9)
	assert.Equal(t, 0.0, feature(t, trip, "is_hustle_trip"))
	assert.InDelta(t, math.Log1p(1200), feature(t, trip, "log_miles"), 1e-12)
}

func TestBucketFlagsAreOneHot(t *testing.T) {
	flags := []string{"is_1day", "is_2day", "is_3day", "is_4_6day", "is_7plus_day"}
	for days := 1; days <= 14; days++ {
		sum := 0.0
		for _, f := range flags {
			sum += feature(t, calculator.Trip{Days: days, Miles: 10, Receipts: 10}, f)
		}
		assert.Equal(t, 1.0, sum, "days=%d", days)
	}
}

func TestVectorizeZeroInputsIsFinite(t *testing.T) {
	for _, trip := range []calculator.Trip{{}, {Days: 1}, {Days: 3, Miles: 0, Receipts: 0}} {
		vec, _ := Vectorize(trip)
		for _, v := range vec {
			assert.False(t, math.IsNaN(v) || math.IsInf(v, 0), "%v", trip)
		}
	}
}

func TestLabelled(t *testing.T) {
	cases := data.GenerateSynthetic(10, calculator.Optimized(), 0, 2)
	X, y := Labelled(cases)
	require.Len(t, X, 10)
	require.Len(t, y, 10)
	assert.Len(t, X[0], len(Names()))
	assert.Equal(t, cases[4].Expected, y[4])
}
