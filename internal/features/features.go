package features

import (
	"math"

	"reimburse/internal/calculator"
	"reimburse/internal/data"
)

// Vectorize expands a trip into the engineered features used by the tree
// models. Names are stable and aligned with the returned vector.
func Vectorize(t calculator.Trip) ([]float64, []string) {
	names := make([]string, 0, 32)
	vec := make([]float64, 0, 32)
	add := func(name string, v float64) {
		names = append(names, name)
		vec = append(vec, v)
	}

	days := float64(t.Days)
	perDay := func(v float64) float64 {
		if t.Days <= 0 {
			return 0
		}
		return v / days
	}
	dailyReceipts := perDay(t.Receipts)
	hustle := t.Miles / (t.Receipts + 1)

	add("trip_duration_days", days)
	add("miles_traveled", t.Miles)
	add("total_receipts_amount", t.Receipts)

	add("daily_miles", perDay(t.Miles))
	add("daily_receipts", dailyReceipts)
	add("miles_per_dollar", t.Miles/(t.Receipts+0.01))
	add("dollars_per_mile", t.Receipts/(t.Miles+0.01))

	bucket := t.Bucket()
	add("is_1day", boolToFloat(bucket == calculator.BucketSingleDay))
	add("is_2day", boolToFloat(bucket == calculator.BucketTwoDay))
	add("is_3day", boolToFloat(bucket == calculator.BucketThreeDay))
	add("is_4_6day", boolToFloat(bucket == calculator.BucketMid))
	add("is_7plus_day", boolToFloat(bucket == calculator.BucketLong))
	add("is_long_trip", boolToFloat(t.Days >= 10))

	add("high_daily_spending", boolToFloat(dailyReceipts > 100))
	add("very_high_daily_spending", boolToFloat(dailyReceipts > 200))
	add("low_miles", boolToFloat(t.Miles < 100))
	add("high_miles", boolToFloat(t.Miles > 500))
	add("very_high_miles", boolToFloat(t.Miles > 1000))

	add("hustle_ratio", hustle)
	add("is_hustle_trip", boolToFloat(hustle > 0.8))
	add("is_vacation_trip", boolToFloat(hustle < 0.1))

	add("days_miles_interaction", days*t.Miles)
	add("days_receipts_interaction", days*t.Receipts)
	add("miles_receipts_interaction", t.Miles*t.Receipts)

	add("days_squared", days*days)
	add("miles_squared", t.Miles*t.Miles)
	add("receipts_squared", t.Receipts*t.Receipts)
	add("daily_receipts_squared", dailyReceipts*dailyReceipts)

	add("log_miles", math.Log1p(t.Miles))
	add("log_receipts", math.Log1p(t.Receipts))
	add("log_days", math.Log1p(days))

	return vec, names
}

// Names returns the feature names in vector order.
func Names() []string {
	_, names := Vectorize(calculator.Trip{Days: 1})
	return names
}

// Matrix vectorizes trips row by row.
func Matrix(trips []calculator.Trip) [][]float64 {
	X := make([][]float64, len(trips))
	for i, t := range trips {
		X[i], _ = Vectorize(t)
	}
	return X
}

// Labelled returns the design matrix and targets for cases.
func Labelled(cases []data.Case) ([][]float64, []float64) {
	return Matrix(data.Trips(cases)), data.Expected(cases)
}

func boolToFloat(b bool) float64 {
	if b {
		return 1.0
	}
	return 0.0
}
