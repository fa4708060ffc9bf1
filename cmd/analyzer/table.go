package main

import (
	"fmt"
	"io"

	"reimburse/internal/evaluate"
)

func printSummary(w io.Writer, label string, s evaluate.Stats) {
	fmt.Fprintf(w, "%s: n=%d mae=%.2f median=%.2f max=%.2f exact=%d (%.1f%%) close=%d (%.1f%%) r2=%.4f score=%.2f\n",
		label, s.N, s.MeanError, s.MedianError, s.MaxError, s.Exact, s.ExactPct(), s.Close, s.ClosePct(), s.R2, s.Score())
}

func printDurations(w io.Writer, rep *evaluate.Report) {
	fmt.Fprintf(w, "%5s %6s %9s %9s %9s %7s %7s\n", "days", "n", "mae", "median", "max", "exact", "close")
	for _, d := range rep.ByDuration {
		fmt.Fprintf(w, "%5d %6d %9.2f %9.2f %9.2f %7d %7d\n",
			d.Days, d.N, d.MeanError, d.MedianError, d.MaxError, d.Exact, d.Close)
	}
}

func printWorst(w io.Writer, rep *evaluate.Report, n int) {
	fmt.Fprintf(w, "%4s %5s %9s %9s %10s %10s %9s\n", "#", "days", "miles", "receipts", "expected", "predicted", "error")
	for i, r := range rep.Worst(n) {
		fmt.Fprintf(w, "%4d %5d %9.2f %9.2f %10.2f %10.2f %9.2f\n",
			i+1, r.Case.Days(), r.Case.Miles(), r.Case.Receipts(), r.Case.Expected, r.Predicted, r.Error)
	}
}

func printComparison(w io.Writer, cmp *evaluate.Comparison, n int) {
	printSummary(w, "baseline ", cmp.Baseline)
	printSummary(w, "candidate", cmp.Candidate)
	fmt.Fprintf(w, "improved=%d regressed=%d\n", cmp.Improved, cmp.Regressed)
	fmt.Fprintf(w, "%5s %9s %9s %10s %9s %9s %9s\n", "days", "miles", "receipts", "expected", "before", "after", "gain")
	for _, c := range cmp.Top(n) {
		fmt.Fprintf(w, "%5d %9.2f %9.2f %10.2f %9.2f %9.2f %9.2f\n",
			c.Case.Days(), c.Case.Miles(), c.Case.Receipts(), c.Case.Expected, c.Before, c.After, c.Improvement())
	}
}
