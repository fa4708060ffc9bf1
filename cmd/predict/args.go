package main

import (
	"errors"
	"fmt"
	"math"
	"strconv"

	"reimburse/internal/calculator"
)

var errUsage = errors.New("usage: predict [flags] <trip_duration_days> <miles_traveled> <total_receipts_amount>")

// parseTrip reads the three positional arguments. Days may be written as a
// whole float ("5.0") within the int range.
func parseTrip(args []string) (calculator.Trip, error) {
	if len(args) != 3 {
		return calculator.Trip{}, errUsage
	}
	days, err := strconv.ParseFloat(args[0], 64)
	if err != nil || days != math.Trunc(days) || math.IsInf(days, 0) {
		return calculator.Trip{}, fmt.Errorf("trip_duration_days %q is not a whole number", args[0])
	}
	if days < math.MinInt || days >= math.MaxInt {
		return calculator.Trip{}, fmt.Errorf("trip_duration_days %q is out of range", args[0])
	}
	miles, err := parseAmount("miles_traveled", args[1])
	if err != nil {
		return calculator.Trip{}, err
	}
	receipts, err := parseAmount("total_receipts_amount", args[2])
	if err != nil {
		return calculator.Trip{}, err
	}
	return calculator.Trip{Days: int(days), Miles: miles, Receipts: receipts}, nil
}

func parseAmount(name, s string) (float64, error) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("%s %q is not a number", name, s)
	}
	if v < 0 {
		return 0, fmt.Errorf("%s must not be negative", name)
	}
	return v, nil
}
