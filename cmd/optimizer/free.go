package main

import (
	"fmt"
	"strings"

	"reimburse/internal/calculator"
	"reimburse/internal/optimize"
)

// parseFree expands a comma list of parameter names and bucket labels
// ("1d", "2d", "3d", "4-6d", "7+d") into vector names. Empty means all.
func parseFree(list string) ([]string, error) {
	if strings.TrimSpace(list) == "" {
		return nil, nil
	}
	buckets := make(map[string]calculator.Bucket, len(calculator.Buckets))
	for _, b := range calculator.Buckets {
		buckets[b.String()] = b
	}
	var out []string
	for _, item := range strings.Split(list, ",") {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		if b, ok := buckets[item]; ok {
			out = append(out, calculator.NamesFor(b)...)
			continue
		}
		if _, err := calculator.Optimized().Get(item); err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	return out, nil
}

// ratioGrid is the single-day ratio threshold x penalty search.
func ratioGrid(points int) []optimize.Axis {
	return []optimize.Axis{
		{Name: "day1_ratio_threshold", Values: optimize.Span(0.3, 1.5, points)},
		{Name: "day1_ratio_penalty", Values: optimize.Span(0.1, 0.8, points)},
	}
}

func formatFree(free []string) string {
	if len(free) == 0 {
		return fmt.Sprintf("all %d", len(calculator.Names()))
	}
	return strings.Join(free, ",")
}
