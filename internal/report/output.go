// Package report writes prediction files, spreadsheets and charts.
package report

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/goccy/go-json"

	"reimburse/internal/calculator"
)

func ensureDir(path string) error {
	if dir := filepath.Dir(path); dir != "." {
		return os.MkdirAll(dir, 0o755)
	}
	return nil
}

// WriteLines writes one amount per line with two decimals.
func WriteLines(path string, amounts []float64) error {
	if err := ensureDir(path); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	w := bufio.NewWriter(f)
	for _, a := range amounts {
		w.WriteString(strconv.FormatFloat(a, 'f', 2, 64))
		w.WriteByte('\n')
	}
	if err := w.Flush(); err != nil {
		return err
	}
	return f.Sync()
}

// ReadLines parses a file written by WriteLines. Blank lines are skipped.
func ReadLines(path string) ([]float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	var out []float64
	sc := bufio.NewScanner(f)
	for n := 1; sc.Scan(); n++ {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		v, err := strconv.ParseFloat(line, 64)
		if err != nil {
			return nil, fmt.Errorf("%s:%d: %w", path, n, err)
		}
		out = append(out, v)
	}
	return out, sc.Err()
}

// WriteLookup writes a JSON object from Trip.Key to amount.
func WriteLookup(path string, trips []calculator.Trip, amounts []float64) error {
	if len(trips) != len(amounts) {
		return fmt.Errorf("lookup: %d trips, %d amounts", len(trips), len(amounts))
	}
	lookup := make(map[string]float64, len(trips))
	for i, t := range trips {
		lookup[t.Key()] = amounts[i]
	}
	raw, err := json.MarshalIndent(lookup, "", "  ")
	if err != nil {
		return err
	}
	if err := ensureDir(path); err != nil {
		return err
	}
	return os.WriteFile(path, raw, 0o644)
}

// ReadLookup loads a file written by WriteLookup.
func ReadLookup(path string) (map[string]float64, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var lookup map[string]float64
	if err := json.Unmarshal(raw, &lookup); err != nil {
		return nil, fmt.Errorf("decode lookup %s: %w", path, err)
	}
	return lookup, nil
}
