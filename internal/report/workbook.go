package report

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"reimburse/internal/calculator"
	"reimburse/internal/evaluate"
	"reimburse/internal/optimize"
)

const (
	sheetSummary  = "Summary"
	sheetDuration = "By Duration"
	sheetWorst    = "Worst Cases"
	sheetParams   = "Parameters"
	sheetChanges  = "Changes"
)

// Workbook collects what WriteWorkbook lays out. Nil parts are skipped.
type Workbook struct {
	Title      string
	Report     *evaluate.Report
	Comparison *evaluate.Comparison
	Params     *calculator.Parameters
	Changes    []optimize.ParamChange
	WorstN     int
}

// WriteWorkbook saves an xlsx analysis of one evaluation run.
func WriteWorkbook(path string, wb Workbook) error {
	f := excelize.NewFile()
	defer f.Close()

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}
	w := &sheetWriter{f: f, header: bold}

	if err := f.SetSheetName("Sheet1", sheetSummary); err != nil {
		return err
	}
	w.sheet = sheetSummary
	w.row = 1
	if wb.Title != "" {
		w.put(wb.Title)
		w.row++
	}
	if wb.Report != nil {
		s := wb.Report.Stats
		w.heading("Metric", "Value")
		w.put("Cases", s.N)
		w.put("Exact (<$0.01)", s.Exact)
		w.put("Exact %", s.ExactPct())
		w.put("Close (<$1.00)", s.Close)
		w.put("Close %", s.ClosePct())
		w.put("Mean error", s.MeanError)
		w.put("Median error", s.MedianError)
		w.put("Max error", s.MaxError)
		w.put("R²", s.R2)
		w.put("Score", s.Score())
	}
	if wb.Comparison != nil {
		if w.row > 1 {
			w.row++
		}
		w.heading("Comparison", "Baseline", "Candidate")
		w.put("Mean error", wb.Comparison.Baseline.MeanError, wb.Comparison.Candidate.MeanError)
		w.put("Exact", wb.Comparison.Baseline.Exact, wb.Comparison.Candidate.Exact)
		w.put("Score", wb.Comparison.Baseline.Score(), wb.Comparison.Candidate.Score())
		w.put("Improved cases", wb.Comparison.Improved)
		w.put("Regressed cases", wb.Comparison.Regressed)
	}
	f.SetColWidth(sheetSummary, "A", "C", 18)

	if wb.Report != nil {
		w.newSheet(sheetDuration)
		w.heading("Days", "Cases", "Exact", "Close", "Mean error", "Median error", "Max error", "R²")
		for _, d := range wb.Report.ByDuration {
			w.put(d.Days, d.N, d.Exact, d.Close, d.MeanError, d.MedianError, d.MaxError, d.R2)
		}

		n := wb.WorstN
		if n <= 0 {
			n = 20
		}
		w.newSheet(sheetWorst)
		w.heading("Days", "Miles", "Receipts", "Expected", "Predicted", "Error")
		for _, r := range wb.Report.Worst(n) {
			w.put(r.Case.Days(), r.Case.Miles(), r.Case.Receipts(), r.Case.Expected, r.Predicted, r.Error)
		}
	}

	if wb.Params != nil {
		w.newSheet(sheetParams)
		w.heading("Parameter", "Value", "Lower bound", "Upper bound")
		vec, bounds := wb.Params.Vector(), calculator.Bounds()
		for i, name := range calculator.Names() {
			w.put(name, vec[i], bounds[i].Lo, bounds[i].Hi)
		}
		f.SetColWidth(sheetParams, "A", "A", 36)
	}

	if len(wb.Changes) > 0 {
		w.newSheet(sheetChanges)
		w.heading("Parameter", "Old", "New", "Change %")
		for _, c := range wb.Changes {
			w.put(c.Name, c.Old, c.New, c.Pct)
		}
		f.SetColWidth(sheetChanges, "A", "A", 36)
	}

	if w.err != nil {
		return w.err
	}
	if err := ensureDir(path); err != nil {
		return err
	}
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save workbook: %w", err)
	}
	return nil
}

// sheetWriter appends rows and keeps the first error.
type sheetWriter struct {
	f      *excelize.File
	sheet  string
	row    int
	header int
	err    error
}

func (w *sheetWriter) newSheet(name string) {
	if w.err != nil {
		return
	}
	if _, err := w.f.NewSheet(name); err != nil {
		w.err = err
		return
	}
	w.sheet = name
	w.row = 1
}

func (w *sheetWriter) put(values ...any) {
	if w.err != nil {
		return
	}
	cell, err := excelize.CoordinatesToCellName(1, w.row)
	if err == nil {
		err = w.f.SetSheetRow(w.sheet, cell, &values)
	}
	if err != nil {
		w.err = fmt.Errorf("sheet %s row %d: %w", w.sheet, w.row, err)
		return
	}
	w.row++
}

func (w *sheetWriter) heading(values ...any) {
	start := w.row
	w.put(values...)
	if w.err != nil {
		return
	}
	from, _ := excelize.CoordinatesToCellName(1, start)
	to, _ := excelize.CoordinatesToCellName(len(values), start)
	if err := w.f.SetCellStyle(w.sheet, from, to, w.header); err != nil {
		w.err = err
	}
}
